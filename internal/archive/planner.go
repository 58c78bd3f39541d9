package archive

import (
	"context"
	"fmt"
	"time"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// maxUnpublishedMonths bounds how many trailing months may fall back to daily
// archives: the current month and, early in a month, the previous one.
const maxUnpublishedMonths = 2

// PlanRequest describes the data to cover. Start and End are compared as UTC
// instants and both are inclusive.
type PlanRequest struct {
	Kind     domain.DataKind
	Segment  domain.Segment
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
}

// Plan lists the archives covering a request, months first and days after,
// each in chronological order.
type Plan struct {
	Months []domain.ArchiveDescriptor
	Days   []domain.ArchiveDescriptor
}

// Descriptors returns the monthly archives followed by the daily ones.
func (p *Plan) Descriptors() []domain.ArchiveDescriptor {
	out := make([]domain.ArchiveDescriptor, 0, len(p.Months)+len(p.Days))
	out = append(out, p.Months...)
	return append(out, p.Days...)
}

// Planner decides which monthly and daily archives cover a time range.
type Planner struct {
	locator *Locator
	source  ports.ArchiveSource
	cache   ports.ArchiveCache
	logger  ports.Logger
}

// PlannerConfig holds the planner dependencies.
type PlannerConfig struct {
	Locator *Locator
	Source  ports.ArchiveSource
	// Cache is optional. A monthly archive already cached is published, so it is not probed.
	Cache  ports.ArchiveCache
	Logger ports.Logger
}

// NewPlanner creates a Planner.
func NewPlanner(cfg PlannerConfig) (*Planner, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for planner")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("archive source is required for planner")
	}
	if cfg.Locator == nil {
		cfg.Locator = NewLocator("")
	}
	return &Planner{locator: cfg.Locator, source: cfg.Source, cache: cfg.Cache, logger: cfg.Logger}, nil
}

// Plan builds the archive list for req. Every month from start's month through
// end is covered by a monthly archive, except trailing months the host has not
// published yet; those are covered day by day up to end. At most two probes are
// issued and a probe failure aborts planning.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*Plan, error) {
	start, end := req.Start.UTC(), req.End.UTC()
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ports.ErrInvalidRange, start, end)
	}

	months := make([]domain.ArchiveDescriptor, 0, 12)
	for m := domain.MonthStart(start); !m.After(end); m = m.AddDate(0, 1, 0) {
		months = append(months, p.descriptor(req, domain.Monthly, m))
	}

	// The second probe also runs when only one candidate is left, so a range
	// covering two unpublished months is planned from days alone and Months
	// can come back empty.
	var dailyFrom time.Time
	removed := 0
	for removed < maxUnpublishedMonths && len(months) > 0 {
		last := months[len(months)-1]
		u, err := p.locator.URL(last)
		if err != nil {
			return nil, err
		}
		exists, err := p.published(ctx, u)
		if err != nil {
			return nil, err
		}
		if exists {
			break
		}
		dailyFrom = last.Period
		months = months[:len(months)-1]
		removed++
	}

	plan := &Plan{Months: months}
	if removed > 0 {
		for d := dailyFrom; !d.After(end); d = d.AddDate(0, 0, 1) {
			plan.Days = append(plan.Days, p.descriptor(req, domain.Daily, d))
		}
	}

	p.logger.Info(ctx, "Archive plan ready", map[string]interface{}{
		"symbol":            req.Symbol,
		"kind":              string(req.Kind),
		"months":            len(plan.Months),
		"days":              len(plan.Days),
		"unpublishedMonths": removed,
	})
	return plan, nil
}

func (p *Planner) published(ctx context.Context, u string) (bool, error) {
	if p.cache != nil {
		cached, err := p.cache.Contains(ctx, u)
		if err != nil {
			p.logger.Warn(ctx, "Cache check failed, probing instead", map[string]interface{}{"url": u, "error": err.Error()})
		} else if cached {
			return true, nil
		}
	}
	exists, err := p.source.Exists(ctx, u)
	if err != nil {
		return false, fmt.Errorf("probing %s: %w", u, err)
	}
	p.logger.Debug(ctx, "Probed monthly archive", map[string]interface{}{"url": u, "exists": exists})
	return exists, nil
}

func (p *Planner) descriptor(req PlanRequest, g domain.Granularity, period time.Time) domain.ArchiveDescriptor {
	d := domain.ArchiveDescriptor{
		Kind:        req.Kind,
		Segment:     req.Segment,
		Granularity: g,
		Symbol:      req.Symbol,
		Period:      period,
	}
	if req.Kind == domain.KindKlines {
		d.Interval = req.Interval
	}
	return d
}
