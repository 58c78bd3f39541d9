// Package httpsource implements ports.ArchiveSource over HTTP with resty.
package httpsource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"binanceHistory/internal/ports"
)

const defaultTimeout = 60 * time.Second

// Source fetches and probes archives over HTTP. It never retries; callers
// decide whether a failed request is worth repeating.
type Source struct {
	client *resty.Client
	logger ports.Logger
}

// Config holds configuration for the HTTP source.
type Config struct {
	Timeout   time.Duration
	UserAgent string
	Logger    ports.Logger
}

// New creates an HTTP archive source.
func New(cfg Config) (*Source, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for HTTP source")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0)
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	return &Source{client: client, logger: cfg.Logger}, nil
}

// Exists issues a HEAD request: 200 means published, 404 means not yet.
func (s *Source) Exists(ctx context.Context, url string) (bool, error) {
	op := "HEAD " + url
	resp, err := s.client.R().SetContext(ctx).Head(url)
	if err != nil {
		return false, s.handleError(ctx, err, op)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, s.handleStatus(ctx, resp.StatusCode(), op)
	}
}

// Get downloads an archive.
func (s *Source) Get(ctx context.Context, url string) ([]byte, error) {
	op := "GET " + url
	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, s.handleError(ctx, err, op)
	}
	switch resp.StatusCode() {
	case http.StatusOK:
		s.logger.Debug(ctx, op+" successful", map[string]interface{}{"bytes": len(resp.Body()), "elapsed": resp.Time().String()})
		return resp.Body(), nil
	case http.StatusNotFound:
		return nil, &ports.NotFoundError{URL: url}
	default:
		return nil, s.handleStatus(ctx, resp.StatusCode(), op)
	}
}

// handleError translates transport failures into ports errors.
func (s *Source) handleError(ctx context.Context, err error, op string) error {
	var finalErr error
	if errors.Is(err, context.Canceled) {
		finalErr = fmt.Errorf("%s canceled: %w: %w", op, ports.ErrContextCanceled, err)
	} else {
		finalErr = fmt.Errorf("%s failed: %w: %w", op, ports.ErrNetwork, err)
	}
	s.logger.Error(ctx, err, op+" failed")
	return finalErr
}

// Any status other than 200 and 404 is treated as a transport problem.
func (s *Source) handleStatus(ctx context.Context, status int, op string) error {
	err := fmt.Errorf("%s failed: %w: unexpected status %d", op, ports.ErrNetwork, status)
	s.logger.Warn(ctx, op+" returned unexpected status", map[string]interface{}{"status": status})
	return err
}
