package domain

import (
	"fmt"
	"strings"
)

// DataKind identifies which archive family is requested.
type DataKind string

const (
	KindKlines    DataKind = "klines"
	KindAggTrades DataKind = "aggTrades"
)

// ParseDataKind converts a user supplied value to a DataKind.
func ParseDataKind(s string) (DataKind, error) {
	switch DataKind(strings.TrimSpace(s)) {
	case KindKlines:
		return KindKlines, nil
	case KindAggTrades:
		return KindAggTrades, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, s)
	}
}

// Valid reports whether k is one of the supported kinds.
func (k DataKind) Valid() bool {
	return k == KindKlines || k == KindAggTrades
}

// Segment is the market category an archive belongs to.
type Segment string

const (
	SegmentSpot        Segment = "spot"
	SegmentFuturesUSD  Segment = "futures/um"
	SegmentFuturesCoin Segment = "futures/cm"
)

// ParseSegment accepts the archive path form ("futures/um") as well as the
// command line aliases ("futures-usd", "futures-coin").
func ParseSegment(s string) (Segment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "spot":
		return SegmentSpot, nil
	case "futures/um", "futures-usd", "um":
		return SegmentFuturesUSD, nil
	case "futures/cm", "futures-coin", "cm":
		return SegmentFuturesCoin, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSegment, s)
	}
}

// Valid reports whether s is a known segment.
func (s Segment) Valid() bool {
	return s == SegmentSpot || s == SegmentFuturesUSD || s == SegmentFuturesCoin
}

// Granularity is the period an archive covers.
type Granularity string

const (
	Monthly Granularity = "monthly"
	Daily   Granularity = "daily"
)

// Intervals lists every kline interval published in the archives.
var Intervals = []string{
	"1s", "1m", "3m", "5m", "15m", "30m",
	"1h", "2h", "4h", "6h", "8h", "12h",
	"1d", "3d", "1w", "1M",
}

// ParseInterval validates a kline interval. Case matters: "1m" is one minute, "1M" one month.
func ParseInterval(s string) (string, error) {
	s = strings.TrimSpace(s)
	for _, iv := range Intervals {
		if iv == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedInterval, s)
}

// NormalizeSymbol upper-cases a market pair and drops separators, so "btc/usdt" becomes "BTCUSDT".
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "/", ""))
}
