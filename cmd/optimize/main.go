package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"momentumBot/config"
	"momentumBot/internal/adapters/logger"
	"momentumBot/internal/app"
	"momentumBot/internal/strategy/optimization"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "optimize",
		Usage: "sweep momentum period and signal threshold over one set of bars and rank the results",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ticker", Usage: "ticker symbol (env TICKER)"},
			&cli.StringFlag{Name: "interval", Usage: "bar interval (env INTERVAL)"},
			&cli.StringFlag{Name: "range", Usage: "history range (env RANGE)"},
			&cli.StringFlag{Name: "source", Usage: "yahoo, binance or csv (env DATA_SOURCE)"},
			&cli.StringFlag{Name: "csv", Usage: "bar file for the csv source (env CSV_PATH)", TakesFile: true},
			&cli.IntFlag{Name: "min-period", Value: 1, Usage: "smallest momentum period"},
			&cli.IntFlag{Name: "max-period", Value: 10, Usage: "largest momentum period"},
			&cli.Float64Flag{Name: "min-threshold", Value: 0, Usage: "smallest signal threshold"},
			&cli.Float64Flag{Name: "max-threshold", Value: 5, Usage: "largest signal threshold"},
			&cli.Float64Flag{Name: "threshold-step", Value: 0.5, Usage: "threshold increment"},
			&cli.BoolFlag{Name: "risk-adjusted", Usage: "rank by return, drawdown and win rate instead of return alone"},
			&cli.IntFlag{Name: "top", Value: 10, Usage: "number of results to print"},
		},
		Action: optimize,
	}
}

func main() {
	if err := newApp().RunContext(context.Background(), os.Args); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func optimize(c *cli.Context) error {
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
		"csv":      &cfg.CSVPath,
	} {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	cfg.DataSource = strings.ToLower(cfg.DataSource)
	if err := cfg.Validate(); err != nil {
		return err
	}

	appLogger := logger.New(cfg.LogLevel)
	ctx := c.Context

	// 2. Load bars once for every combination
	acq, closeFn, err := app.NewAcquirer(ctx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeFn()

	bars, err := acq.Acquire(ctx, cfg.Ticker, cfg.Interval, cfg.Range)
	if err != nil {
		return err
	}

	// 3. Sweep
	optCfg := optimization.OptimizerConfig{
		ParameterRanges: []optimization.ParameterRange{
			{Name: optimization.ParamPeriod, Min: float64(c.Int("min-period")), Max: float64(c.Int("max-period")), Step: 1, IsInt: true},
			{Name: optimization.ParamThreshold, Min: c.Float64("min-threshold"), Max: c.Float64("max-threshold"), Step: c.Float64("threshold-step")},
		},
		InitialFunds: cfg.StartingCapital,
		Symbol:       cfg.Ticker,
	}
	if c.Bool("risk-adjusted") {
		optCfg.ScoreFunction = optimization.RiskAdjustedScoreFunction
	}
	opt, err := optimization.NewOptimizer(optCfg)
	if err != nil {
		return err
	}

	results, err := opt.Optimize(ctx, bars)
	if err != nil {
		return err
	}
	appLogger.Info(ctx, "Optimization complete", map[string]interface{}{"combinations": len(results), "bars": len(bars)})

	// 4. Report
	top := c.Int("top")
	if top <= 0 || top > len(results) {
		top = len(results)
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PERIOD\tTHRESHOLD\tFINAL\tROI\tTRADES\tMAX DD\tSCORE")
	for _, r := range results[:top] {
		fmt.Fprintf(w, "%d\t%.4g\t%.2f\t%.2f%%\t%d\t%.2f%%\t%.4f\n",
			r.Period, r.Threshold, r.FinalValue, r.Metrics.ReturnOnInvestment*100,
			r.Metrics.TotalFills, r.Metrics.MaxDrawdown*100, r.Score)
	}
	return w.Flush()
}
