package utils

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"binanceHistory/internal/domain"
)

// TimeLayout is how time columns are rendered in CSV output.
const TimeLayout = "2006-01-02 15:04:05.999999Z07:00"

// Column headers per data kind, in output order.
var (
	KlineHeader    = []string{"open_datetime", "open", "high", "low", "close", "volume", "trades", "close_datetime"}
	AggTradeHeader = []string{"datetime", "price", "quantity", "is_buyer_maker"}
)

// WriteCSV writes table with a header row. Decimal columns keep the scale they were read with.
func WriteCSV(w io.Writer, table *domain.Table) error {
	writer := csv.NewWriter(w)

	header, rows := KlineHeader, table.Len()
	if table.Kind == domain.KindAggTrades {
		header = AggTradeHeader
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for i := range rows {
		var rec []string
		if table.Kind == domain.KindKlines {
			k := table.Klines[i]
			rec = []string{
				k.OpenTime.Format(TimeLayout),
				domain.FixedString(k.Open),
				domain.FixedString(k.High),
				domain.FixedString(k.Low),
				domain.FixedString(k.Close),
				domain.FixedString(k.Volume),
				strconv.FormatInt(k.Trades, 10),
				k.CloseTime.Format(TimeLayout),
			}
		} else {
			t := table.Trades[i]
			rec = []string{
				t.Time.Format(TimeLayout),
				domain.FixedString(t.Price),
				domain.FixedString(t.Quantity),
				strconv.FormatBool(t.IsBuyerMaker),
			}
		}
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// wallClock drops the zone of t, keeping its local fields.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
