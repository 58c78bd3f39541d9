package archive

import (
	"context"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// Fetcher returns decoded archives, serving them from the cache when possible.
type Fetcher struct {
	locator *Locator
	source  ports.ArchiveSource
	cache   ports.ArchiveCache
	logger  ports.Logger
	now     func() time.Time
}

// FetcherConfig holds the fetcher dependencies.
type FetcherConfig struct {
	Locator *Locator
	Source  ports.ArchiveSource
	Cache   ports.ArchiveCache
	Logger  ports.Logger
	Now     func() time.Time // clock used to decide whether a period is closed, time.Now if nil
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg FetcherConfig) (*Fetcher, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for fetcher")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("archive source is required for fetcher")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("archive cache is required for fetcher")
	}
	if cfg.Locator == nil {
		cfg.Locator = NewLocator("")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Fetcher{
		locator: cfg.Locator,
		source:  cfg.Source,
		cache:   cfg.Cache,
		logger:  cfg.Logger,
		now:     cfg.Now,
	}, nil
}

// Fetch returns the rows of the archive described by d with times in loc.
// A cache hit issues no network call. On a miss the archive is downloaded,
// decoded and stored, unless its period has not ended yet.
func (f *Fetcher) Fetch(ctx context.Context, d domain.ArchiveDescriptor, loc *time.Location) (*domain.Table, error) {
	if loc == nil {
		return nil, ports.ErrMissingTimeZone
	}
	u, err := f.locator.URL(d)
	if err != nil {
		return nil, err
	}

	cached, err := f.cache.Lookup(ctx, u, d.Kind)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		f.logger.Debug(ctx, "Archive cache hit", map[string]interface{}{"url": u, "rows": cached.Len()})
		return cached.In(loc), nil
	}

	f.logger.Debug(ctx, "Archive cache miss, downloading", map[string]interface{}{"url": u})
	payload, err := f.source.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	if !isZip(payload) {
		return nil, fmt.Errorf("%w: %s returned %s", ports.ErrInvalidArchive, u, mimetype.Detect(payload).String())
	}

	table, err := Decode(d.Kind, payload)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", u, err)
	}
	f.logger.Info(ctx, "Archive downloaded", map[string]interface{}{"url": u, "bytes": len(payload), "rows": table.Len()})

	if d.PeriodEnd().After(f.now()) {
		f.logger.Warn(ctx, "Archive period still open, not caching", map[string]interface{}{"url": u})
	} else if err := f.cache.Store(ctx, u, table); err != nil {
		f.logger.Warn(ctx, "Failed to cache archive", map[string]interface{}{"url": u, "error": err.Error()})
	}
	return table.In(loc), nil
}

func isZip(payload []byte) bool {
	for m := mimetype.Detect(payload); m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}
