package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"binanceHistory/internal/app"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/ports"
	"binanceHistory/internal/utils"
)

type fetchCmd struct {
	rt *runtime

	dataType   string
	assetType  string
	symbol     string
	timeframe  string
	start      string
	end        string
	tz         string
	outputPath string
}

func (*fetchCmd) Name() string     { return "fetch" }
func (*fetchCmd) Synopsis() string { return "download a date range and save it as csv, json or xlsx" }
func (*fetchCmd) Usage() string {
	return `fetch --symbol BTCUSDT --start '2022-1-2 5:20' --end 2022-1-25 --output-path a.csv [flags]:
  Assemble klines or aggregated trades for [start, end] and write them to --output-path.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dataType, "data-type", string(domain.KindKlines), "klines or aggTrades")
	f.StringVar(&c.assetType, "asset-type", "spot", "spot, futures-usd or futures-coin")
	f.StringVar(&c.symbol, "symbol", "", "market pair, e.g. BTCUSDT (required)")
	f.StringVar(&c.timeframe, "timeframe", "15m", "kline interval, ignored for aggTrades")
	f.StringVar(&c.start, "start", "", "start datetime, e.g. '2022-1-2 5:20' (required)")
	f.StringVar(&c.end, "end", "", "end datetime, e.g. 2022-1-25 (required)")
	f.StringVar(&c.tz, "tz", "", "timezone for datetimes without an offset (default TIMEZONE from config)")
	f.StringVar(&c.outputPath, "output-path", "", "output file, format chosen by extension: csv, json, xlsx (required)")
}

// query validates the flags and builds the request. Nothing here touches the network.
func (c *fetchCmd) query(defaultTZ *time.Location) (app.Query, error) {
	var q app.Query
	if c.symbol == "" || c.start == "" || c.end == "" || c.outputPath == "" {
		return q, fmt.Errorf("%w: --symbol, --start, --end and --output-path are required", ports.ErrInvalidRequest)
	}
	if _, err := utils.FormatFor(c.outputPath); err != nil {
		return q, err
	}
	kind, err := domain.ParseDataKind(c.dataType)
	if err != nil {
		return q, err
	}
	segment, err := domain.ParseSegment(c.assetType)
	if err != nil {
		return q, err
	}

	q = app.Query{Kind: kind, Segment: segment, Symbol: c.symbol, TimeZone: defaultTZ}
	if kind == domain.KindKlines {
		q.Interval = c.timeframe
	}
	if c.tz != "" {
		if q.TimeZone, err = time.LoadLocation(c.tz); err != nil {
			return q, fmt.Errorf("%w: unknown timezone %q", ports.ErrInvalidRequest, c.tz)
		}
	}
	if q.Start, err = domain.ParseInstant(c.start); err != nil {
		return q, fmt.Errorf("%w: --start: %w", ports.ErrInvalidRequest, err)
	}
	if q.End, err = domain.ParseInstant(c.end); err != nil {
		return q, fmt.Errorf("%w: --end: %w", ports.ErrInvalidRequest, err)
	}
	return q, nil
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.rt.init(); err != nil {
		return fail(c.rt, err)
	}
	q, err := c.query(c.rt.cfg.TimeZone)
	if err != nil {
		f.Usage()
		return fail(c.rt, err)
	}

	table, err := c.rt.components.History.Fetch(ctx, q)
	if err != nil {
		return fail(c.rt, err)
	}
	if err := utils.WriteTableFile(c.outputPath, table); err != nil {
		return fail(c.rt, err)
	}

	c.rt.logger.Info(ctx, "Saved", map[string]interface{}{"path": c.outputPath, "rows": table.Len()})
	return subcommands.ExitSuccess
}
