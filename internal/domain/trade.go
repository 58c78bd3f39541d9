package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AggTrade is one aggregated trade: fills at the same price from the same taker order.
type AggTrade struct {
	Time         time.Time       `json:"datetime"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
	IsBuyerMaker bool            `json:"is_buyer_maker"`
}
