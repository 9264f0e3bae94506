package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for fatal errors before the logger is set up
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"momentumBot/config"
	"momentumBot/internal/adapters/logger"
	"momentumBot/internal/app"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "momentumBot",
		Usage: "backtest a momentum signal strategy on a single ticker and print the final portfolio value",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ticker", Usage: "ticker symbol to backtest (env TICKER)"},
			&cli.StringFlag{Name: "interval", Usage: "bar interval, e.g. 1h or 1d (env INTERVAL)"},
			&cli.StringFlag{Name: "range", Usage: "history range, e.g. ytd, 1mo, 1y (env RANGE)"},
			&cli.IntFlag{Name: "period", Usage: "momentum lookback in bars (env MOMENTUM_PERIOD)"},
			&cli.Float64Flag{Name: "threshold", Usage: "momentum magnitude that triggers a signal (env SIGNAL_THRESHOLD)"},
			&cli.Float64Flag{Name: "capital", Usage: "starting cash (env STARTING_CAPITAL)"},
			&cli.StringFlag{Name: "source", Usage: "bar source: yahoo, binance or csv (env DATA_SOURCE)"},
			&cli.StringFlag{Name: "csv", Usage: "bar file for the csv source (env CSV_PATH)", TakesFile: true},
			&cli.StringFlag{Name: "cache-db", Usage: "SQLite bar cache path, empty disables (env CACHE_DB_PATH)", TakesFile: true},
			&cli.StringFlag{Name: "log-level", Usage: "DEBUG, INFO, WARN or ERROR (env LOG_LEVEL)"},
		},
		Action: runBacktest,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatalf("FATAL: %v", err)
	}
}

func runBacktest(c *cli.Context) error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := applyFlags(c, cfg); err != nil {
		return err
	}

	// 2. Initialize Logger
	appLogger := logger.New(cfg.LogLevel)
	ctx := c.Context
	appLogger.Debug(ctx, "Logger initialized", map[string]interface{}{"level": appLogger.Level().String()})

	// 3. Wire the pipeline
	svc, closeFn, err := app.NewPipelineFromConfig(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(ctx, err, "Failed to initialize pipeline")
		return err
	}
	defer closeFn()

	// 4. Run
	result, err := svc.Run(ctx, app.RunConfigFrom(cfg))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, strconv.FormatFloat(result.FinalValue(), 'f', -1, 64))
	return nil
}

// applyFlags overrides cfg with explicitly set flags and re-validates it.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("ticker") {
		cfg.Ticker = c.String("ticker")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.String("interval")
	}
	if c.IsSet("range") {
		cfg.Range = c.String("range")
	}
	if c.IsSet("period") {
		cfg.MomentumPeriod = c.Int("period")
	}
	if c.IsSet("threshold") {
		cfg.SignalThreshold = c.Float64("threshold")
	}
	if c.IsSet("capital") {
		cfg.StartingCapital = c.Float64("capital")
	}
	if c.IsSet("source") {
		cfg.DataSource = strings.ToLower(c.String("source"))
	}
	if c.IsSet("csv") {
		cfg.CSVPath = c.String("csv")
	}
	if c.IsSet("cache-db") {
		cfg.CacheDBPath = c.String("cache-db")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = logger.ParseLevel(c.String("log-level"))
	}
	return cfg.Validate()
}
