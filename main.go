package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // timezone names work without a system zoneinfo

	"github.com/google/subcommands"

	"binanceHistory/config"
	"binanceHistory/internal/adapters/logger"
	"binanceHistory/internal/app"
)

// runtime holds what every subcommand needs. It is built on first use so that
// "bh help" works without a valid configuration.
type runtime struct {
	cfg        *config.Config
	logger     *logger.Logger
	components *app.Components
}

func (r *runtime) init() error {
	if r.components != nil {
		return nil
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	lg, err := logger.New(logger.Config{
		Level:    cfg.LogLevel.String(),
		Format:   cfg.LogFormat,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		return err
	}
	lg.Debug(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	components, err := app.Setup(cfg, lg)
	if err != nil {
		lg.Error(context.Background(), err, "Failed to initialize components")
		lg.Close()
		return err
	}
	r.cfg, r.logger, r.components = cfg, lg, components
	return nil
}

func (r *runtime) close() {
	if r.components == nil {
		return
	}
	if err := r.components.Close(); err != nil {
		r.logger.Error(context.Background(), err, "Error releasing resources")
	}
	r.logger.Close()
}

func main() {
	rt := &runtime{}

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&fetchCmd{rt: rt}, "data")
	subcommands.Register(&cacheCmd{rt: rt}, "data")
	subcommands.Register(&serveCmd{rt: rt}, "server")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := subcommands.Execute(ctx)
	stop()
	rt.close()
	os.Exit(int(status))
}

// fail reports err and returns the failure status.
func fail(rt *runtime, err error) subcommands.ExitStatus {
	if rt.logger != nil {
		rt.logger.Error(context.Background(), err, "Command failed")
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return subcommands.ExitFailure
}
