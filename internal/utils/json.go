package utils

import (
	"encoding/json"
	"io"

	"binanceHistory/internal/domain"
)

// WriteJSON writes the rows of table as an indented JSON array.
func WriteJSON(w io.Writer, table *domain.Table) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if table.Kind == domain.KindAggTrades {
		return enc.Encode(nonNil(table.Trades))
	}
	return enc.Encode(nonNil(table.Klines))
}

func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
