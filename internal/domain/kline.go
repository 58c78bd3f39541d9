package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FixedString formats d with the scale it was parsed with, so "46250.00000000"
// keeps its trailing zeros through text storage.
func FixedString(d decimal.Decimal) string {
	if d.Exponent() >= 0 {
		return d.String()
	}
	return d.StringFixed(-d.Exponent())
}

// Kline represents a single candlestick read from a klines archive.
type Kline struct {
	OpenTime  time.Time       `json:"open_datetime"`  // Time key of the row
	Open      decimal.Decimal `json:"open"`           // Opening price
	High      decimal.Decimal `json:"high"`           // Highest price
	Low       decimal.Decimal `json:"low"`            // Lowest price
	Close     decimal.Decimal `json:"close"`          // Closing price
	Volume    decimal.Decimal `json:"volume"`         // Base asset volume
	Trades    int64           `json:"trades"`         // Number of trades in the interval
	CloseTime time.Time       `json:"close_datetime"` // Last millisecond of the interval
}
