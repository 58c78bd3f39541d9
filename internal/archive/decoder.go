package archive

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/shopspring/decimal"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

// Epoch values at or above this are microseconds; newer spot archives switched
// from milliseconds.
const microsecondThreshold = 100_000_000_000_000

// rowDecoder turns one CSV record into a row of a table.
type rowDecoder interface {
	minColumns() int
	decode(rec []string, t *domain.Table) error
}

func decoderFor(kind domain.DataKind) (rowDecoder, error) {
	switch kind {
	case domain.KindKlines:
		return klineDecoder{}, nil
	case domain.KindAggTrades:
		return aggTradeDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ports.ErrUnsupportedKind, kind)
	}
}

// Decode opens the first entry of a zip archive and parses its rows as kind.
// A leading header record is skipped if present. Times are UTC; the result is
// sorted by time key.
func Decode(kind domain.DataKind, payload []byte) (*domain.Table, error) {
	dec, err := decoderFor(kind)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening zip: %w", ports.ErrInvalidArchive, err)
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("%w: zip has no entries", ports.ErrInvalidArchive)
	}
	entry, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ports.ErrInvalidArchive, zr.File[0].Name, err)
	}
	defer entry.Close()

	table, err := decodeRows(entry, kind, dec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", zr.File[0].Name, err)
	}
	if !table.IsSorted() {
		table.Sort()
	}
	return table, nil
}

func decodeRows(r io.Reader, kind domain.DataKind, dec rowDecoder) (*domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	table := domain.NewTable(kind)
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ports.ErrInvalidArchive, line, err)
		}
		if line == 1 && isHeader(rec) {
			continue
		}
		if len(rec) < dec.minColumns() {
			return nil, fmt.Errorf("%w: line %d: want %d columns, got %d", ports.ErrInvalidArchive, line, dec.minColumns(), len(rec))
		}
		if err := dec.decode(rec, table); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ports.ErrInvalidArchive, line, err)
		}
	}
	return table, nil
}

func isHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	_, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
	return err != nil
}

type klineDecoder struct{}

// open_time, open, high, low, close, volume, close_time, quote_volume, count, ...
func (klineDecoder) minColumns() int { return 9 }

func (klineDecoder) decode(rec []string, t *domain.Table) error {
	openTime, err := parseEpoch(rec[0])
	if err != nil {
		return fmt.Errorf("open time: %w", err)
	}
	var prices [5]decimal.Decimal
	for i := range prices {
		prices[i], err = decimal.NewFromString(strings.TrimSpace(rec[i+1]))
		if err != nil {
			return fmt.Errorf("column %d: %w", i+1, err)
		}
	}
	closeTime, err := parseEpoch(rec[6])
	if err != nil {
		return fmt.Errorf("close time: %w", err)
	}
	trades, err := strconv.ParseInt(strings.TrimSpace(rec[8]), 10, 64)
	if err != nil {
		return fmt.Errorf("trade count: %w", err)
	}
	t.Klines = append(t.Klines, domain.Kline{
		OpenTime:  openTime,
		Open:      prices[0],
		High:      prices[1],
		Low:       prices[2],
		Close:     prices[3],
		Volume:    prices[4],
		Trades:    trades,
		CloseTime: closeTime,
	})
	return nil
}

type aggTradeDecoder struct{}

// agg_trade_id, price, quantity, first_trade_id, last_trade_id, transact_time, is_buyer_maker, ...
func (aggTradeDecoder) minColumns() int { return 7 }

func (aggTradeDecoder) decode(rec []string, t *domain.Table) error {
	price, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	ts, err := parseEpoch(rec[5])
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	maker, err := strconv.ParseBool(strings.TrimSpace(rec[6]))
	if err != nil {
		return fmt.Errorf("is_buyer_maker: %w", err)
	}
	t.Trades = append(t.Trades, domain.AggTrade{
		Time:         ts,
		Price:        price,
		Quantity:     qty,
		IsBuyerMaker: maker,
	})
	return nil
}

func parseEpoch(s string) (time.Time, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if v >= microsecondThreshold {
		return time.UnixMicro(v).UTC(), nil
	}
	return time.UnixMilli(v).UTC(), nil
}
