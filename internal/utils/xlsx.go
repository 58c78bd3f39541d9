package utils

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"binanceHistory/internal/domain"
)

const sheetName = "Sheet1"

// WriteXLSX writes table to a single-sheet workbook. Spreadsheet cells have no
// timezone, so times are written as their wall clock in the table's zone.
func WriteXLSX(w io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	timeStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr("yyyy-mm-dd hh:mm:ss.000")})
	if err != nil {
		return fmt.Errorf("creating time style: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	header := KlineHeader
	if table.Kind == domain.KindAggTrades {
		header = AggTradeHeader
	}
	if err := sw.SetRow("A1", toCells(header)); err != nil {
		return err
	}

	for i := range table.Len() {
		var row []interface{}
		if table.Kind == domain.KindKlines {
			k := table.Klines[i]
			row = []interface{}{
				excelize.Cell{StyleID: timeStyle, Value: wallClock(k.OpenTime)},
				k.Open.InexactFloat64(),
				k.High.InexactFloat64(),
				k.Low.InexactFloat64(),
				k.Close.InexactFloat64(),
				k.Volume.InexactFloat64(),
				k.Trades,
				excelize.Cell{StyleID: timeStyle, Value: wallClock(k.CloseTime)},
			}
		} else {
			t := table.Trades[i]
			row = []interface{}{
				excelize.Cell{StyleID: timeStyle, Value: wallClock(t.Time)},
				t.Price.InexactFloat64(),
				t.Quantity.InexactFloat64(),
				t.IsBuyerMaker,
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	_, err = f.WriteTo(w)
	return err
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func strPtr(s string) *string { return &s }
