package archive

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

// mockSource serves archives from memory. Unknown URLs are reported missing.
type mockSource struct {
	mu        sync.Mutex
	published map[string]bool
	payloads  map[string][]byte
	probeErr  error
	getErr    error
	probes    []string
	gets      []string
}

func newMockSource() *mockSource {
	return &mockSource{published: map[string]bool{}, payloads: map[string][]byte{}}
}

func (m *mockSource) Exists(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.probes = append(m.probes, url)
	if m.probeErr != nil {
		return false, m.probeErr
	}
	return m.published[url], nil
}

func (m *mockSource) Get(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets = append(m.gets, url)
	if m.getErr != nil {
		return nil, m.getErr
	}
	b, ok := m.payloads[url]
	if !ok {
		return nil, &ports.NotFoundError{URL: url}
	}
	return b, nil
}

// memCache is an in-memory ports.ArchiveCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string]*domain.Table
	stores  int
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
	c.stores++
	c.entries[url] = table
	return nil
}

func zipPayload(t *testing.T, name, content string) []byte {
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

// klineCSV renders n one-minute klines starting at start.
func klineCSV(start time.Time, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		open := start.Add(time.Duration(i) * time.Minute).UnixMilli()
		fmt.Fprintf(&sb, "%d,46216.93000000,46271.08000000,46208.37000000,46250.00000000,40.57574000,%d,1876677.42833990,1%d,19.62000000,907000.00000000,0\n",
			open, open+59_999, i)
	}
	return sb.String()
}

func monthly(kind domain.DataKind, y int, m time.Month) domain.ArchiveDescriptor {
	d := domain.ArchiveDescriptor{
		Kind: kind, Segment: domain.SegmentSpot, Granularity: domain.Monthly,
		Symbol: "BTCUSDT", Period: time.Date(y, m, 1, 0, 0, 0, 0, time.UTC),
	}
	if kind == domain.KindKlines {
		d.Interval = "1m"
	}
	return d
}
