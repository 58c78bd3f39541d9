package app

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"binanceHistory/internal/archive"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockSource serves zipped archives from memory and counts every call.
type mockSource struct {
	mu       sync.Mutex
	payloads map[string][]byte
	failures map[string]error
	calls    int
	delay    time.Duration
}

func newMockSource() *mockSource {
	return &mockSource{payloads: map[string][]byte{}, failures: map[string]error{}}
}

func (m *mockSource) Exists(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if err := m.failures[url]; err != nil {
		return false, err
	}
	_, ok := m.payloads[url]
	return ok, nil
}

func (m *mockSource) Get(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	err := m.failures[url]
	b, ok := m.payloads[url]
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &ports.NotFoundError{URL: url}
	}
	return b, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// memCache is an in-memory ports.ArchiveCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Table
}

func newMemCache() *memCache {
	return &memCache{entries: map[string]*domain.Table{}}
}

func (c *memCache) Lookup(ctx context.Context, url string, kind domain.DataKind) (*domain.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[url], nil
}

func (c *memCache) Contains(ctx context.Context, url string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[url]
	return ok, nil
}

func (c *memCache) Store(ctx context.Context, url string, table *domain.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = table
	return nil
}

type fixture struct {
	source  *mockSource
	cache   ports.ArchiveCache
	locator *archive.Locator
	service *HistoryService
}

func newFixture(t *testing.T, concurrency int) *fixture {
	t.Helper()
	return newFixtureWithCache(t, concurrency, newMemCache())
}

func newFixtureWithCache(t *testing.T, concurrency int, cache ports.ArchiveCache) *fixture {
	t.Helper()
	f := &fixture{source: newMockSource(), cache: cache, locator: archive.NewLocator("")}
	logger := &mockLogger{}

	planner, err := archive.NewPlanner(archive.PlannerConfig{
		Locator: f.locator, Source: f.source, Cache: f.cache, Logger: logger,
	})
	require.NoError(t, err)
	fetcher, err := archive.NewFetcher(archive.FetcherConfig{
		Locator: f.locator, Source: f.source, Cache: f.cache, Logger: logger,
		Now: func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	f.service, err = NewHistoryService(Config{
		Planner: planner, Fetcher: fetcher, Concurrency: concurrency, Logger: logger,
	})
	require.NoError(t, err)
	return f
}

// publish stores an hourly klines archive covering d's whole period.
func (f *fixture) publish(t *testing.T, d domain.ArchiveDescriptor) {
	t.Helper()
	u, err := f.locator.URL(d)
	require.NoError(t, err)

	var sb strings.Builder
	for ts := d.Period; ts.Before(d.PeriodEnd()); ts = ts.Add(time.Hour) {
		open := ts.UnixMilli()
		fmt.Fprintf(&sb, "%d,46216.93000000,46271.08000000,46208.37000000,46250.00000000,0.01634790,%d,755.81620000,7,0.00430000,198.74000000,0\n", open, open+3_599_999)
	}
	f.source.payloads[u] = zipArchive(t, "rows.csv", sb.String())
}

func zipArchive(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func hourly(g domain.Granularity, period time.Time) domain.ArchiveDescriptor {
	return domain.ArchiveDescriptor{
		Kind: domain.KindKlines, Segment: domain.SegmentSpot, Granularity: g,
		Symbol: "BTCUSDT", Period: period, Interval: "1h",
	}
}

func month(y int, m time.Month) domain.ArchiveDescriptor {
	return hourly(domain.Monthly, time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
}

func day(y int, m time.Month, d int) domain.ArchiveDescriptor {
	return hourly(domain.Daily, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}
