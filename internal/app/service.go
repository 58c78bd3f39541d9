package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"binanceHistory/internal/archive"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// RangePlanner decides which archives cover a request.
type RangePlanner interface {
	Plan(ctx context.Context, req archive.PlanRequest) (*archive.Plan, error)
}

// ArchiveFetcher returns the decoded table of one archive in loc.
type ArchiveFetcher interface {
	Fetch(ctx context.Context, d domain.ArchiveDescriptor, loc *time.Location) (*domain.Table, error)
}

// Query is a request for one symbol's history over an inclusive range.
type Query struct {
	Kind     domain.DataKind
	Segment  domain.Segment
	Symbol   string
	Interval string // klines only
	Start    domain.Instant
	End      domain.Instant
	// TimeZone localizes naive instants. Required unless both instants carry a zone.
	TimeZone *time.Location
}

// HistoryService assembles archive tables into the exact requested range.
type HistoryService struct {
	planner     RangePlanner
	fetcher     ArchiveFetcher
	symbols     ports.SymbolChecker
	concurrency int
	logger      ports.Logger
}

// Config holds the HistoryService dependencies.
type Config struct {
	Planner RangePlanner
	Fetcher ArchiveFetcher
	// Symbols, when set, is consulted before planning.
	Symbols     ports.SymbolChecker
	Concurrency int
	Logger      ports.Logger
}

// NewHistoryService creates a new application service instance.
func NewHistoryService(cfg Config) (*HistoryService, error) {
	if cfg.Logger == nil || cfg.Planner == nil || cfg.Fetcher == nil {
		return nil, fmt.Errorf("missing required dependencies for HistoryService")
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &HistoryService{
		planner:     cfg.Planner,
		fetcher:     cfg.Fetcher,
		symbols:     cfg.Symbols,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}, nil
}

// FetchKlines is Fetch for candlesticks.
func (s *HistoryService) FetchKlines(ctx context.Context, segment domain.Segment, symbol, interval string, start, end domain.Instant, tz *time.Location) (*domain.Table, error) {
	return s.Fetch(ctx, Query{
		Kind: domain.KindKlines, Segment: segment, Symbol: symbol, Interval: interval,
		Start: start, End: end, TimeZone: tz,
	})
}

// FetchAggTrades is Fetch for aggregated trades.
func (s *HistoryService) FetchAggTrades(ctx context.Context, segment domain.Segment, symbol string, start, end domain.Instant, tz *time.Location) (*domain.Table, error) {
	return s.Fetch(ctx, Query{
		Kind: domain.KindAggTrades, Segment: segment, Symbol: symbol,
		Start: start, End: end, TimeZone: tz,
	})
}

// Fetch returns every row of q's symbol whose time key lies in [q.Start, q.End],
// sorted ascending and expressed in the zone of the resolved start. Either the
// whole range is returned or an error; partial tables are never returned.
func (s *HistoryService) Fetch(ctx context.Context, q Query) (*domain.Table, error) {
	q, err := s.validate(q)
	if err != nil {
		return nil, err
	}
	r, err := domain.NormalizeRange(q.Start, q.End, q.TimeZone)
	if err != nil {
		return nil, err
	}

	if s.symbols != nil {
		ok, err := s.symbols.SymbolExists(ctx, q.Segment, q.Symbol)
		if err != nil {
			return nil, fmt.Errorf("checking symbol %s: %w", q.Symbol, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s", ports.ErrUnknownSymbol, q.Symbol, q.Segment)
		}
	}

	start, end := r.PlanBounds()
	plan, err := s.planner.Plan(ctx, archive.PlanRequest{
		Kind:     q.Kind,
		Segment:  q.Segment,
		Symbol:   q.Symbol,
		Interval: q.Interval,
		Start:    start,
		End:      end,
	})
	if err != nil {
		return nil, err
	}

	descriptors := plan.Descriptors()
	tables, err := s.fetchAll(ctx, descriptors, r.Location)
	if err != nil {
		return nil, err
	}

	full := domain.NewTable(q.Kind)
	for _, t := range tables {
		if err := full.Append(t); err != nil {
			return nil, err
		}
	}
	if !full.IsSorted() {
		s.logger.Warn(ctx, "Archives overlap or are out of order, sorting", map[string]interface{}{"symbol": q.Symbol})
		full.Sort()
	}
	out := full.Between(r.Start, r.End)

	s.logger.Info(ctx, "Range assembled", map[string]interface{}{
		"symbol":   q.Symbol,
		"kind":     string(q.Kind),
		"archives": len(descriptors),
		"rows":     out.Len(),
		"start":    r.Start.Format(time.RFC3339),
		"end":      r.End.Format(time.RFC3339),
	})
	return out, nil
}

func (s *HistoryService) validate(q Query) (Query, error) {
	if !q.Kind.Valid() {
		return q, fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, q.Kind)
	}
	if !q.Segment.Valid() {
		return q, fmt.Errorf("%w: %q", ports.ErrUnsupportedSegment, q.Segment)
	}
	q.Symbol = domain.NormalizeSymbol(q.Symbol)
	if q.Symbol == "" {
		return q, fmt.Errorf("%w: symbol is required", ports.ErrInvalidRequest)
	}
	if q.Start.IsZero() || q.End.IsZero() {
		return q, fmt.Errorf("%w: start and end are required", ports.ErrInvalidRequest)
	}

	switch q.Kind {
	case domain.KindKlines:
		if q.Interval == "" {
			return q, ports.ErrMissingInterval
		}
		iv, err := domain.ParseInterval(q.Interval)
		if err != nil {
			return q, err
		}
		q.Interval = iv
	case domain.KindAggTrades:
		q.Interval = ""
	}
	return q, nil
}

// fetchAll returns one table per descriptor, in descriptor order. Any failure
// cancels the remaining fetches.
func (s *HistoryService) fetchAll(ctx context.Context, descriptors []domain.ArchiveDescriptor, loc *time.Location) ([]*domain.Table, error) {
	tables := make([]*domain.Table, len(descriptors))

	if s.concurrency == 1 || len(descriptors) < 2 {
		for i, d := range descriptors {
			t, err := s.fetcher.Fetch(ctx, d, loc)
			if err != nil {
				return nil, s.fetchError(ctx, d, err)
			}
			tables[i] = t
		}
		return tables, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			t, err := s.fetcher.Fetch(gctx, d, loc)
			if err != nil {
				return s.fetchError(gctx, d, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (s *HistoryService) fetchError(ctx context.Context, d domain.ArchiveDescriptor, err error) error {
	if !errors.Is(err, context.Canceled) {
		s.logger.Error(ctx, err, "Archive fetch failed", map[string]interface{}{"archive": d.String()})
	}
	return err
}
