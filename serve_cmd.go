package main

import (
	"context"
	"flag"

	"github.com/gin-gonic/gin"
	"github.com/google/subcommands"

	"binanceHistory/internal/api"
)

type serveCmd struct {
	rt   *runtime
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve klines and aggregated trades over HTTP" }
func (*serveCmd) Usage() string {
	return `serve [--addr :8080]:
  Run the HTTP API until interrupted.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", "", "listen address (default LISTEN_ADDR from config)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.rt.init(); err != nil {
		return fail(c.rt, err)
	}
	addr := c.addr
	if addr == "" {
		addr = c.rt.cfg.ListenAddr
	}

	gin.SetMode(gin.ReleaseMode)
	router, err := api.NewRouter(api.Config{
		History:         c.rt.components.History,
		Cache:           c.rt.components.Inspector,
		DefaultTimeZone: c.rt.cfg.TimeZone,
		Logger:          c.rt.logger,
	})
	if err != nil {
		return fail(c.rt, err)
	}
	if err := api.Serve(ctx, addr, router, c.rt.logger); err != nil {
		return fail(c.rt, err)
	}
	return subcommands.ExitSuccess
}
