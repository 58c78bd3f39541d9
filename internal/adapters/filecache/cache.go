// Package filecache stores decoded archives as parquet files under a cache
// directory, one file per source URL.
package filecache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"binanceHistory/internal/archive"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

const fileExt = ".parquet"

type klineRow struct {
	OpenTimeUS  int64  `parquet:"open_time_us"`
	Open        string `parquet:"open"`
	High        string `parquet:"high"`
	Low         string `parquet:"low"`
	Close       string `parquet:"close"`
	Volume      string `parquet:"volume"`
	Trades      int64  `parquet:"trades"`
	CloseTimeUS int64  `parquet:"close_time_us"`
}

type aggTradeRow struct {
	TimeUS       int64  `parquet:"time_us"`
	Price        string `parquet:"price"`
	Quantity     string `parquet:"quantity"`
	IsBuyerMaker bool   `parquet:"is_buyer_maker"`
}

// Cache implements ports.ArchiveCache and ports.CacheInspector on the local filesystem.
// Concurrent writers to the same entry are not coordinated; the last rename wins.
type Cache struct {
	dir    string
	logger ports.Logger
}

// Config holds configuration for the file cache.
type Config struct {
	Dir    string
	Logger ports.Logger
}

// New creates a file cache rooted at cfg.Dir. The directory is created lazily on first store.
func New(cfg Config) (*Cache, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for file cache")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("%w: cache directory must be set", ports.ErrConfigurationError)
	}
	return &Cache{dir: cfg.Dir, logger: cfg.Logger}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string { return c.dir }

// PathFor returns where the entry for url lives: the URL path under the cache
// root with the archive extension replaced.
func (c *Cache) PathFor(url string) (string, error) {
	rel, err := archive.CachePath(url)
	if err != nil {
		return "", err
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel)) + fileExt
	return filepath.Join(c.dir, filepath.FromSlash(rel)), nil
}

// Lookup reads a cached table. Returns nil, nil if the entry does not exist.
func (c *Cache) Lookup(ctx context.Context, url string, kind domain.DataKind) (*domain.Table, error) {
	path, err := c.PathFor(url)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ports.ErrCache, path, err)
	}

	var table *domain.Table
	switch kind {
	case domain.KindKlines:
		rows, err := parquet.ReadFile[klineRow](path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ports.ErrCache, path, err)
		}
		table, err = klinesFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ports.ErrCache, path, err)
		}
	case domain.KindAggTrades:
		rows, err := parquet.ReadFile[aggTradeRow](path)
		if err != nil {
			return nil, fmt.Errorf("%w: reading %s: %w", ports.ErrCache, path, err)
		}
		table, err = tradesFromRows(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ports.ErrCache, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, kind)
	}

	c.logger.Debug(ctx, "Cache entry loaded", map[string]interface{}{"path": path, "rows": table.Len()})
	return table, nil
}

// Contains reports whether an entry file exists for url.
func (c *Cache) Contains(ctx context.Context, url string) (bool, error) {
	path, err := c.PathFor(url)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("%w: stat %s: %w", ports.ErrCache, path, err)
	}
}

// Store writes table for url, creating parent directories as needed. The file
// is written next to its final name and renamed into place.
func (c *Cache) Store(ctx context.Context, url string, table *domain.Table) error {
	path, err := c.PathFor(url)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ports.ErrCache, filepath.Dir(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", ports.ErrCache, err)
	}
	defer os.Remove(tmp.Name())

	switch table.Kind {
	case domain.KindKlines:
		err = parquet.Write(tmp, klinesToRows(table.Klines))
	case domain.KindAggTrades:
		err = parquet.Write(tmp, tradesToRows(table.Trades))
	default:
		err = fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, table.Kind)
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: writing %s: %w", ports.ErrCache, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrCache, err)
	}

	c.logger.Debug(ctx, "Cache entry stored", map[string]interface{}{"path": path, "rows": table.Len()})
	return nil
}

// Entries lists every cached archive. The URL is rebuilt from the file's
// position under the cache root and assumes the default archive host.
func (c *Cache) Entries(ctx context.Context) ([]ports.CacheEntry, error) {
	var entries []ports.CacheEntry
	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == c.dir {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || filepath.Ext(path) != fileExt {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(c.dir, path)
		if err != nil {
			return err
		}
		rel = strings.TrimSuffix(filepath.ToSlash(rel), fileExt) + ".zip"
		entries = append(entries, ports.CacheEntry{
			URL:      archive.DefaultBaseURL + "/" + rel,
			Location: path,
			Size:     info.Size(),
			StoredAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %w", ports.ErrCache, c.dir, err)
	}
	return entries, nil
}

func klinesToRows(klines []domain.Kline) []klineRow {
	rows := make([]klineRow, len(klines))
	for i, k := range klines {
		rows[i] = klineRow{
			OpenTimeUS:  k.OpenTime.UnixMicro(),
			Open:        domain.FixedString(k.Open),
			High:        domain.FixedString(k.High),
			Low:         domain.FixedString(k.Low),
			Close:       domain.FixedString(k.Close),
			Volume:      domain.FixedString(k.Volume),
			Trades:      k.Trades,
			CloseTimeUS: k.CloseTime.UnixMicro(),
		}
	}
	return rows
}

func klinesFromRows(rows []klineRow) (*domain.Table, error) {
	table := &domain.Table{Kind: domain.KindKlines, Klines: make([]domain.Kline, len(rows))}
	for i, r := range rows {
		var vals [5]decimal.Decimal
		for j, s := range []string{r.Open, r.High, r.Low, r.Close, r.Volume} {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			vals[j] = d
		}
		table.Klines[i] = domain.Kline{
			OpenTime:  time.UnixMicro(r.OpenTimeUS).UTC(),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
			Trades:    r.Trades,
			CloseTime: time.UnixMicro(r.CloseTimeUS).UTC(),
		}
	}
	return table, nil
}

func tradesToRows(trades []domain.AggTrade) []aggTradeRow {
	rows := make([]aggTradeRow, len(trades))
	for i, t := range trades {
		rows[i] = aggTradeRow{
			TimeUS:       t.Time.UnixMicro(),
			Price:        domain.FixedString(t.Price),
			Quantity:     domain.FixedString(t.Quantity),
			IsBuyerMaker: t.IsBuyerMaker,
		}
	}
	return rows
}

func tradesFromRows(rows []aggTradeRow) (*domain.Table, error) {
	table := &domain.Table{Kind: domain.KindAggTrades, Trades: make([]domain.AggTrade, len(rows))}
	for i, r := range rows {
		price, err := decimal.NewFromString(r.Price)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		qty, err := decimal.NewFromString(r.Quantity)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		table.Trades[i] = domain.AggTrade{
			Time:         time.UnixMicro(r.TimeUS).UTC(),
			Price:        price,
			Quantity:     qty,
			IsBuyerMaker: r.IsBuyerMaker,
		}
	}
	return table, nil
}
