package app

import (
	"context"
	"fmt"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
	"momentumBot/internal/strategy/analytics"
	"momentumBot/internal/strategy/backtesting"
	"momentumBot/internal/strategy/indicators"
	"momentumBot/internal/strategy/signals"
)

// BarAcquirer loads the validated, time-ordered bars a run operates on.
type BarAcquirer interface {
	Acquire(ctx context.Context, ticker, interval, rng string) ([]*domain.Bar, error)
}

// RunConfig describes what a single pipeline run operates on.
type RunConfig struct {
	Ticker       string
	Interval     string
	Range        string
	InitialFunds float64
}

// RunResult is everything a pipeline run produced. Nothing in it is persisted.
type RunResult struct {
	Series   domain.Series
	Signals  map[domain.Signal]int
	Backtest *backtesting.BacktestResult
	Metrics  *analytics.PerformanceMetrics
}

// FinalValue returns the portfolio value at the end of the run.
func (r *RunResult) FinalValue() float64 {
	if r == nil || r.Backtest == nil {
		return 0
	}
	return r.Backtest.FinalValue
}

// PipelineService runs Acquisition -> Momentum -> Signal -> Backtest -> Analytics.
type PipelineService struct {
	logger    ports.Logger
	acquirer  BarAcquirer
	momentum  indicators.Indicator
	generator *signals.Generator
}

// NewPipelineService creates a new pipeline service instance.
func NewPipelineService(
	logger ports.Logger,
	acquirer BarAcquirer,
	momentum indicators.Indicator,
	generator *signals.Generator,
) (*PipelineService, error) {
	if logger == nil || acquirer == nil || momentum == nil || generator == nil {
		return nil, fmt.Errorf("missing required dependencies for PipelineService: %w", ports.ErrConfigurationError)
	}
	return &PipelineService{
		logger:    logger,
		acquirer:  acquirer,
		momentum:  momentum,
		generator: generator,
	}, nil
}

// Run executes one backtest of cfg. Any stage failure aborts the run.
func (s *PipelineService) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	fields := ports.Fields{"ticker": cfg.Ticker, "interval": cfg.Interval, "range": cfg.Range}
	s.logger.Info(ctx, "Starting momentum backtest", fields)

	bars, err := s.acquirer.Acquire(ctx, cfg.Ticker, cfg.Interval, cfg.Range)
	if err != nil {
		return nil, fmt.Errorf("acquire bars for %s: %w", cfg.Ticker, err)
	}

	series := s.momentum.Annotate(domain.NewSeries(bars))
	if len(series) < s.momentum.RequiredDataPoints() {
		s.logger.Warn(ctx, "Not enough bars for a single momentum value; every signal will be UNKNOWN", ports.Fields{
			"bars":           len(series),
			"requiredPoints": s.momentum.RequiredDataPoints(),
			"indicator":      s.momentum.Name(),
		})
	}

	series = s.generator.Generate(series)
	counts := signals.Count(series)
	s.logger.Info(ctx, "Signals generated", ports.Fields{
		"indicator": s.momentum.Name(),
		"threshold": s.generator.Threshold(),
		"buy":       counts[domain.SignalBuy],
		"sell":      counts[domain.SignalSell],
		"hold":      counts[domain.SignalHold],
		"unknown":   counts[domain.SignalUnknown],
	})

	result, err := backtesting.Backtest(ctx, series, backtesting.BacktestConfig{
		InitialFunds: cfg.InitialFunds,
		Symbol:       cfg.Ticker,
	})
	if err != nil {
		s.logger.Error(ctx, err, "Backtest failed", fields)
		return nil, fmt.Errorf("backtest %s: %w", cfg.Ticker, err)
	}

	metrics := analytics.AnalyzePerformance(result)
	s.logger.Info(ctx, "Backtest complete", ports.Fields{
		"ticker":       cfg.Ticker,
		"bars":         result.BarsProcessed,
		"trades":       result.TotalTrades,
		"roundTrips":   len(metrics.RoundTrips),
		"winRate":      metrics.WinRate,
		"maxDrawdown":  metrics.MaxDrawdown,
		"openPosition": metrics.OpenPosition,
		"finalValue":   result.FinalValue,
		"roi":          result.ReturnOnInvestment,
	})

	return &RunResult{
		Series:   series,
		Signals:  counts,
		Backtest: result,
		Metrics:  metrics,
	}, nil
}
