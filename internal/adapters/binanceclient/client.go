package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/delivery"
	"github.com/adshao/go-binance/v2/futures"
)

const (
	// Base URLs
	baseURLSpot     = "https://api.binance.com"
	baseURLFutures  = "https://fapi.binance.com"
	baseURLDelivery = "https://dapi.binance.com"

	codeInvalidSymbol = -1121
)

// Client implements the ports.SymbolChecker interface using the go-binance library.
// Only public endpoints are used, so no API keys are needed.
type Client struct {
	spotClient     *binance.Client
	futuresClient  *futures.Client
	deliveryClient *delivery.Client
	logger         ports.Logger

	mu      sync.Mutex
	listing map[domain.Segment]map[string]struct{}
}

// Config holds configuration specific to the Binance client adapter.
// Empty base URLs fall back to the production endpoints.
type Config struct {
	SpotBaseURL     string
	FuturesBaseURL  string
	DeliveryBaseURL string
	Logger          ports.Logger
}

// New creates a new Binance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	spot := binance.NewClient("", "")
	spot.BaseURL = orDefault(cfg.SpotBaseURL, baseURLSpot)
	fut := futures.NewClient("", "")
	fut.BaseURL = orDefault(cfg.FuturesBaseURL, baseURLFutures)
	del := delivery.NewClient("", "")
	del.BaseURL = orDefault(cfg.DeliveryBaseURL, baseURLDelivery)

	cfg.Logger.Debug(context.Background(), "Binance client configured", map[string]interface{}{
		"spot": spot.BaseURL, "futures": fut.BaseURL, "delivery": del.BaseURL,
	})

	return &Client{
		spotClient:     spot,
		futuresClient:  fut,
		deliveryClient: del,
		logger:         cfg.Logger,
		listing:        make(map[domain.Segment]map[string]struct{}),
	}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return strings.TrimSuffix(v, "/")
}

// handleError translates common Binance API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1121, -1128, -1130:
			mappedErr = ports.ErrInvalidRequest
		default:
			// Rate limits, bans and server errors all mean the exchange could not answer.
			mappedErr = ports.ErrNetwork
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	var finalErr error
	if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrNetwork, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

// SymbolExists reports whether symbol is listed in the segment's exchange info.
// Futures listings are fetched once and kept for the lifetime of the client.
func (c *Client) SymbolExists(ctx context.Context, segment domain.Segment, symbol string) (bool, error) {
	symbol = domain.NormalizeSymbol(symbol)
	switch segment {
	case domain.SegmentSpot:
		return c.spotSymbolExists(ctx, symbol)
	case domain.SegmentFuturesUSD, domain.SegmentFuturesCoin:
		listing, err := c.futuresListing(ctx, segment)
		if err != nil {
			return false, err
		}
		_, ok := listing[symbol]
		return ok, nil
	default:
		return false, fmt.Errorf("%w: %q", ports.ErrUnsupportedSegment, segment)
	}
}

func (c *Client) spotSymbolExists(ctx context.Context, symbol string) (bool, error) {
	op := "SpotExchangeInfo"
	info, err := c.spotClient.NewExchangeInfoService().Symbol(symbol).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeInvalidSymbol {
			return false, nil
		}
		return false, c.handleError(ctx, err, op)
	}
	for _, s := range info.Symbols {
		if s.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) futuresListing(ctx context.Context, segment domain.Segment) (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if listing, ok := c.listing[segment]; ok {
		return listing, nil
	}

	listing := make(map[string]struct{})
	switch segment {
	case domain.SegmentFuturesUSD:
		info, err := c.futuresClient.NewExchangeInfoService().Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, "FuturesExchangeInfo")
		}
		for _, s := range info.Symbols {
			listing[s.Symbol] = struct{}{}
		}
	case domain.SegmentFuturesCoin:
		info, err := c.deliveryClient.NewExchangeInfoService().Do(ctx)
		if err != nil {
			return nil, c.handleError(ctx, err, "DeliveryExchangeInfo")
		}
		for _, s := range info.Symbols {
			listing[s.Symbol] = struct{}{}
		}
	}

	c.listing[segment] = listing
	c.logger.Debug(ctx, "Exchange listing loaded", map[string]interface{}{"segment": string(segment), "symbols": len(listing)})
	return listing, nil
}
