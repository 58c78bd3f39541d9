package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
)

func TestDecode_Klines(t *testing.T) {
	start := time.Date(2022, 1, 1, 16, 0, 0, 0, time.UTC)
	payload := zipPayload(t, "BTCUSDT-1m-2022-01.csv", klineCSV(start, 3))

	table, err := Decode(domain.KindKlines, payload)
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	first := table.Klines[0]
	assert.True(t, first.OpenTime.Equal(start))
	assert.True(t, first.CloseTime.Equal(start.Add(59*time.Second+999*time.Millisecond)))
	assert.Equal(t, "46216.93", first.Open.String())
	assert.Equal(t, "40.57574", first.Volume.String())
	assert.Equal(t, int64(10), first.Trades)
	assert.Equal(t, time.UTC, first.OpenTime.Location())
	assert.True(t, table.IsSorted())
}

func TestDecode_KlinesWithHeaderAndMicroseconds(t *testing.T) {
	csv := "open_time,open,high,low,close,volume,close_time,quote_volume,count,taker_buy_volume,taker_buy_quote_volume,ignore\n" +
		"1735689660000000,2,3,1,2.5,10,1735689719999999,25,7,5,12,0\n" +
		"1735689600000000,1,2,0.5,1.5,10,1735689659999999,15,3,5,7,0\n"
	table, err := Decode(domain.KindKlines, zipPayload(t, "x.csv", csv))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())
	assert.True(t, table.Klines[0].OpenTime.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)), "rows are sorted and read as microseconds")
	assert.Equal(t, int64(3), table.Klines[0].Trades)
}

func TestDecode_AggTrades(t *testing.T) {
	csv := "agg_trade_id,price,quantity,first_trade_id,last_trade_id,transact_time,is_buyer_maker\n" +
		"26129,0.00683600,0.16000000,27781,27781,1664640000123,true\n" +
		"26130,0.00683500,3.01000000,27782,27783,1664640001456,False\n"
	table, err := Decode(domain.KindAggTrades, zipPayload(t, "ETCBTC-aggTrades-2022-10.csv", csv))
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	assert.Equal(t, "0.006836", table.Trades[0].Price.String())
	assert.Equal(t, "0.16", table.Trades[0].Quantity.String())
	assert.True(t, table.Trades[0].IsBuyerMaker)
	assert.False(t, table.Trades[1].IsBuyerMaker)
	assert.True(t, table.Trades[0].Time.Equal(time.UnixMilli(1664640000123)))
}

func TestDecode_AggTradesWithoutHeader(t *testing.T) {
	csv := "26129,0.00683600,0.16000000,27781,27781,1664640000123,True,True\n"
	table, err := Decode(domain.KindAggTrades, zipPayload(t, "a.csv", csv))
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len(), "the first data row must not be mistaken for a header")
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		kind    domain.DataKind
		payload []byte
		wantErr error
	}{
		{"not a zip", domain.KindKlines, []byte("<html>busy</html>"), ports.ErrInvalidArchive},
		{"short kline row", domain.KindKlines, zipPayload(t, "k.csv", "1640995200000,1,2,3\n"), ports.ErrInvalidArchive},
		{"bad price", domain.KindAggTrades, zipPayload(t, "a.csv", "1,abc,1,1,1,1664640000123,true\n"), ports.ErrInvalidArchive},
		{"bad flag", domain.KindAggTrades, zipPayload(t, "a.csv", "1,1,1,1,1,1664640000123,maybe\n"), ports.ErrInvalidArchive},
		{"unsupported kind", "trades", zipPayload(t, "a.csv", ""), ports.ErrUnsupportedKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, tt.payload)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestDecode_EmptyEntry(t *testing.T) {
	table, err := Decode(domain.KindKlines, zipPayload(t, "k.csv", ""))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}
