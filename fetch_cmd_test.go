package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

func validFetch() *fetchCmd {
	return &fetchCmd{
		dataType:   "klines",
		assetType:  "spot",
		symbol:     "BTCUSDT",
		timeframe:  "15m",
		start:      "2022-1-2 5:20",
		end:        "2022-1-25",
		outputPath: "out/a.csv",
	}
}

func TestFetchCmd_Query(t *testing.T) {
	shanghai, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)

	q, err := validFetch().query(shanghai)
	require.NoError(t, err)
	assert.Equal(t, domain.KindKlines, q.Kind)
	assert.Equal(t, domain.SegmentSpot, q.Segment)
	assert.Equal(t, "15m", q.Interval)
	assert.Equal(t, shanghai, q.TimeZone)
	assert.False(t, q.Start.HasZone())
	assert.Equal(t, time.Date(2022, 1, 2, 5, 20, 0, 0, shanghai), q.Start.In(shanghai))

	c := validFetch()
	c.dataType, c.assetType, c.tz = "aggTrades", "futures-coin", "UTC"
	q, err = c.query(shanghai)
	require.NoError(t, err)
	assert.Equal(t, domain.KindAggTrades, q.Kind)
	assert.Equal(t, domain.SegmentFuturesCoin, q.Segment)
	assert.Empty(t, q.Interval)
	assert.Equal(t, time.UTC, q.TimeZone)
}

func TestFetchCmd_QueryErrors(t *testing.T) {
	testCases := []struct {
		name   string
		modify func(c *fetchCmd)
		target error
	}{
		{"missing symbol", func(c *fetchCmd) { c.symbol = "" }, ports.ErrInvalidRequest},
		{"missing output", func(c *fetchCmd) { c.outputPath = "" }, ports.ErrInvalidRequest},
		{"unknown extension", func(c *fetchCmd) { c.outputPath = "a.txt" }, ports.ErrInvalidRequest},
		{"bad data type", func(c *fetchCmd) { c.dataType = "trades" }, domain.ErrUnsupportedKind},
		{"bad asset type", func(c *fetchCmd) { c.assetType = "options" }, domain.ErrUnsupportedSegment},
		{"bad timezone", func(c *fetchCmd) { c.tz = "Mars/Olympus" }, ports.ErrInvalidRequest},
		{"bad start", func(c *fetchCmd) { c.start = "yesterday-ish" }, ports.ErrInvalidRequest},
		{"bad end", func(c *fetchCmd) { c.end = "soon" }, ports.ErrInvalidRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validFetch()
			tc.modify(c)
			_, err := c.query(time.UTC)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.target)
		})
	}
}
