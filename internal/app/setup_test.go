package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceHistory/config"
	"binanceHistory/internal/adapters/filecache"
	"binanceHistory/internal/adapters/sqlite"
	"binanceHistory/internal/domain"
)

func testConfig(t *testing.T, backend string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		CacheDir:         dir,
		CacheBackend:     backend,
		CacheDBPath:      filepath.Join(dir, "cache.db"),
		DataBaseURL:      "https://data.binance.vision",
		HTTPTimeout:      time.Second,
		FetchConcurrency: 2,
		TimeZone:         time.UTC,
		ValidateSymbols:  true,
	}
}

func TestSetup_Backends(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		c, err := Setup(testConfig(t, config.BackendFile), &mockLogger{})
		require.NoError(t, err)
		defer c.Close()
		assert.IsType(t, &filecache.Cache{}, c.Cache)
		assert.NotNil(t, c.History.symbols)
		assert.Equal(t, 2, c.History.concurrency)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := testConfig(t, config.BackendSQLite)
		c, err := Setup(cfg, &mockLogger{})
		require.NoError(t, err)
		assert.IsType(t, &sqlite.Repository{}, c.Cache)
		assert.FileExists(t, cfg.CacheDBPath)
		assert.NoError(t, c.Close())
	})
}

func TestSetup_ValidationBeforeIO(t *testing.T) {
	c, err := Setup(testConfig(t, config.BackendFile), &mockLogger{})
	require.NoError(t, err)
	defer c.Close()

	_, err = c.History.Fetch(context.Background(), Query{
		Kind: domain.KindKlines, Segment: domain.SegmentSpot, Symbol: "BTCUSDT", Interval: "1m",
		Start: domain.Naive(time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)),
		End:   domain.Naive(time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC)),
	})
	assert.ErrorIs(t, err, domain.ErrMissingTimeZone)
}
