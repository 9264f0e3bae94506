package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"momentumBot/config"
	"momentumBot/internal/adapters/logger"
	"momentumBot/internal/app"
	"momentumBot/internal/utils"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "fetch_bars",
		Usage: "download bars with the configured source and save them as CSV for offline backtests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ticker", Usage: "ticker symbol (env TICKER)"},
			&cli.StringFlag{Name: "interval", Usage: "bar interval (env INTERVAL)"},
			&cli.StringFlag{Name: "range", Usage: "history range (env RANGE)"},
			&cli.StringFlag{Name: "source", Usage: "yahoo or binance (env DATA_SOURCE)"},
			&cli.StringFlag{Name: "out", Usage: "output file, defaults to data/<ticker>_<interval>_<range>.csv", TakesFile: true},
		},
		Action: fetchBars,
	}
}

func main() {
	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func fetchBars(c *cli.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	for flag, dst := range map[string]*string{
		"ticker":   &cfg.Ticker,
		"interval": &cfg.Interval,
		"range":    &cfg.Range,
		"source":   &cfg.DataSource,
	} {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	cfg.DataSource = strings.ToLower(cfg.DataSource)
	if cfg.DataSource == config.SourceCSV {
		return fmt.Errorf("fetch_bars needs a remote source, got '%s'", cfg.DataSource)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	ctx := c.Context

	// 3. Fetch through the acquirer so the file only ever holds validated bars
	acq, closeFn, err := app.NewAcquirer(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeFn()

	bars, err := acq.Acquire(ctx, cfg.Ticker, cfg.Interval, cfg.Range)
	if err != nil {
		return err
	}

	filename := c.String("out")
	if filename == "" {
		filename = filepath.Join("data", fmt.Sprintf("%s_%s_%s.csv", strings.ToUpper(cfg.Ticker), cfg.Interval, cfg.Range))
	}
	if err := utils.WriteBarsToCSV(bars, filename); err != nil {
		appLogger.Error(ctx, err, "Error writing CSV")
		return err
	}
	appLogger.Info(ctx, "Saved bars", map[string]interface{}{"filename": filename, "count": len(bars)})
	return nil
}
