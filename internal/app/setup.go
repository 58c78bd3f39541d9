package app

import (
	"context"
	"errors"
	"fmt"

	"binanceHistory/config"
	"binanceHistory/internal/adapters/binanceclient"
	"binanceHistory/internal/adapters/filecache"
	"binanceHistory/internal/adapters/httpsource"
	"binanceHistory/internal/adapters/sqlite"
	"binanceHistory/internal/archive"
	"binanceHistory/internal/ports"
)

const userAgent = "binance-history/1.0"

// Components is the wired object graph shared by every entry point.
type Components struct {
	History   *HistoryService
	Cache     ports.ArchiveCache
	Inspector ports.CacheInspector
	closers   []func() error
}

// Close releases the resources opened by Setup.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// Setup builds the archive source, cache backend and history service from cfg.
func Setup(cfg *config.Config, logger ports.Logger) (*Components, error) {
	ctx := context.Background()
	c := &Components{}

	source, err := httpsource.New(httpsource.Config{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: userAgent,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.CacheBackend {
	case config.BackendSQLite:
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.CacheDBPath, Logger: logger})
		if err != nil {
			return nil, err
		}
		c.Cache, c.Inspector = repo, repo
		c.closers = append(c.closers, repo.Close)
	default:
		fc, err := filecache.New(filecache.Config{Dir: cfg.CacheDir, Logger: logger})
		if err != nil {
			return nil, err
		}
		c.Cache, c.Inspector = fc, fc
	}
	logger.Info(ctx, "Archive cache ready", map[string]interface{}{"backend": cfg.CacheBackend})

	locator := archive.NewLocator(cfg.DataBaseURL)
	planner, err := archive.NewPlanner(archive.PlannerConfig{
		Locator: locator, Source: source, Cache: c.Cache, Logger: logger,
	})
	if err != nil {
		c.Close()
		return nil, err
	}
	fetcher, err := archive.NewFetcher(archive.FetcherConfig{
		Locator: locator, Source: source, Cache: c.Cache, Logger: logger,
	})
	if err != nil {
		c.Close()
		return nil, err
	}

	var symbols ports.SymbolChecker
	if cfg.ValidateSymbols {
		client, err := binanceclient.New(binanceclient.Config{Logger: logger})
		if err != nil {
			c.Close()
			return nil, err
		}
		symbols = client
	}

	c.History, err = NewHistoryService(Config{
		Planner:     planner,
		Fetcher:     fetcher,
		Symbols:     symbols,
		Concurrency: cfg.FetchConcurrency,
		Logger:      logger,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create history service: %w", err)
	}
	return c, nil
}
