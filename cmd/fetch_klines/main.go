package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"binanceHistory/config"
	"binanceHistory/internal/adapters/logger"
	"binanceHistory/internal/app"
	"binanceHistory/internal/domain"
	"binanceHistory/internal/utils"
)

func main() {
	symbol := flag.String("symbol", "ETHUSDT", "spot pair")
	interval := flag.String("interval", "1m", "kline interval")
	months := flag.Int("months", 3, "how many months back from now")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(logger.Config{Level: cfg.LogLevel.String(), Format: cfg.LogFormat, FilePath: cfg.LogFile})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize archive components
	components, err := app.Setup(cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize components")
		log.Fatalf("FATAL: Failed to initialize components: %v", err)
	}
	defer components.Close()

	end := time.Now().UTC().Truncate(24*time.Hour).Add(-time.Nanosecond) // archives stop at yesterday
	start := end.AddDate(0, -*months, 0).Truncate(24 * time.Hour)

	fmt.Printf("Fetching klines for %s %s from %s to %s...\n", *symbol, *interval, start, end)
	table, err := components.History.FetchKlines(context.Background(), domain.SegmentSpot, *symbol, *interval,
		domain.Zoned(start), domain.Zoned(end), time.UTC)
	if err != nil {
		appLogger.Error(context.Background(), err, "Error fetching klines")
		log.Fatalf("Error fetching klines: %v", err)
	}
	appLogger.Info(context.Background(), "Fetched klines", map[string]interface{}{"count": table.Len()})

	filename := fmt.Sprintf("data/%s_%s_%s_to_%s.csv", *symbol, *interval, start.Format("20060102"), end.Format("20060102"))
	if err := utils.WriteTableFile(filename, table); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": filename})
}
