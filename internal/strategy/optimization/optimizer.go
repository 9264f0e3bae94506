package optimization

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
	"momentumBot/internal/strategy/analytics"
	"momentumBot/internal/strategy/backtesting"
	"momentumBot/internal/strategy/indicators"
	"momentumBot/internal/strategy/signals"
)

// Names of the parameters the optimizer can vary.
const (
	ParamPeriod    = "period"
	ParamThreshold = "threshold"
)

// ParameterRange defines a range for a parameter to optimize
type ParameterRange struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	IsInt bool
}

// OptimizationResult holds the results of one parameter combination
type OptimizationResult struct {
	Period     int
	Threshold  float64
	FinalValue float64
	Metrics    *analytics.PerformanceMetrics
	Score      float64
}

// OptimizerConfig holds configuration for the optimizer
type OptimizerConfig struct {
	ParameterRanges []ParameterRange
	InitialFunds    float64
	Symbol          string
	Workers         int // defaults to 4
	ScoreFunction   func(*analytics.PerformanceMetrics) float64
}

// Optimizer sweeps momentum period and signal threshold over a fixed set of bars.
type Optimizer struct {
	config OptimizerConfig
}

// NewOptimizer creates a new optimizer instance
func NewOptimizer(config OptimizerConfig) (*Optimizer, error) {
	for _, r := range config.ParameterRanges {
		if r.Name != ParamPeriod && r.Name != ParamThreshold {
			return nil, fmt.Errorf("unknown parameter '%s': %w", r.Name, ports.ErrInvalidRequest)
		}
		if r.Step <= 0 || r.Max < r.Min {
			return nil, fmt.Errorf("invalid range for '%s' (min %v, max %v, step %v): %w", r.Name, r.Min, r.Max, r.Step, ports.ErrInvalidRequest)
		}
		if r.Name == ParamPeriod && r.Min < 1 {
			return nil, fmt.Errorf("momentum period must be at least 1, got min %v: %w", r.Min, ports.ErrInvalidRequest)
		}
		if r.Name == ParamThreshold && r.Min < 0 {
			return nil, fmt.Errorf("signal threshold cannot be negative, got min %v: %w", r.Min, ports.ErrInvalidRequest)
		}
	}
	if config.ScoreFunction == nil {
		config.ScoreFunction = DefaultScoreFunction
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Optimizer{config: config}, nil
}

type combination struct {
	period    int
	threshold float64
}

// Optimize backtests every parameter combination against bars and returns
// the results ordered by descending score.
func (o *Optimizer) Optimize(ctx context.Context, bars []*domain.Bar) ([]OptimizationResult, error) {
	base := domain.NewSeries(bars)
	if len(base) == 0 {
		return nil, fmt.Errorf("cannot optimize %q: %w", o.config.Symbol, ports.ErrEmptyInput)
	}

	combinations := o.generateParameterCombinations()
	results := make([]OptimizationResult, 0, len(combinations))

	// The first failing combination cancels the rest of the sweep.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan combination)
	resultChan := make(chan OptimizationResult, len(combinations))
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	for w := 0; w < o.config.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if ctx.Err() != nil {
					continue
				}
				result, err := o.evaluate(ctx, base, c)
				if err != nil {
					errOnce.Do(func() {
						firstErr = err
						cancel()
					})
					continue
				}
				resultChan <- result
			}
		}()
	}

dispatch:
	for _, c := range combinations {
		select {
		case jobs <- c:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()
	close(resultChan)

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("optimization interrupted: %w: %w", ports.ErrContextCanceled, err)
	}
	for result := range resultChan {
		results = append(results, result)
	}

	sortResultsByScore(results)
	return results, nil
}

func (o *Optimizer) evaluate(ctx context.Context, base domain.Series, c combination) (OptimizationResult, error) {
	mom, err := indicators.NewMomentum(indicators.MomentumConfig{IndicatorConfig: indicators.IndicatorConfig{Period: c.period}})
	if err != nil {
		return OptimizationResult{}, err
	}
	gen, err := signals.NewGenerator(signals.Config{Threshold: c.threshold})
	if err != nil {
		return OptimizationResult{}, err
	}

	series := gen.Generate(mom.Annotate(base))
	result, err := backtesting.Backtest(ctx, series, backtesting.BacktestConfig{
		InitialFunds: o.config.InitialFunds,
		Symbol:       o.config.Symbol,
	})
	if err != nil {
		return OptimizationResult{}, fmt.Errorf("backtest period=%d threshold=%v: %w", c.period, c.threshold, err)
	}

	metrics := analytics.AnalyzePerformance(result)
	return OptimizationResult{
		Period:     c.period,
		Threshold:  c.threshold,
		FinalValue: result.FinalValue,
		Metrics:    metrics,
		Score:      o.config.ScoreFunction(metrics),
	}, nil
}

// generateParameterCombinations generates all possible parameter combinations.
// A parameter without a range keeps its default.
func (o *Optimizer) generateParameterCombinations() []combination {
	periods := []float64{indicators.DefaultMomentumPeriod}
	thresholds := []float64{signals.DefaultThreshold}

	for _, param := range o.config.ParameterRanges {
		var values []float64
		limit := param.Max + 1e-9*math.Max(1, math.Abs(param.Max)) // absorb accumulated rounding only
		for i := 0; ; i++ {
			value := param.Min + float64(i)*param.Step
			if value > limit {
				break
			}
			if param.IsInt || param.Name == ParamPeriod {
				value = math.Round(value)
			}
			values = append(values, value)
		}
		switch param.Name {
		case ParamPeriod:
			periods = values
		case ParamThreshold:
			thresholds = values
		}
	}

	combinations := make([]combination, 0, len(periods)*len(thresholds))
	for _, p := range periods {
		for _, t := range thresholds {
			combinations = append(combinations, combination{period: int(p), threshold: t})
		}
	}
	return combinations
}

// sortResultsByScore sorts optimization results by score in descending order.
// Ties fall back to the smaller period, then the smaller threshold.
func sortResultsByScore(results []OptimizationResult) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Period != b.Period {
			return a.Period < b.Period
		}
		return a.Threshold < b.Threshold
	})
}

// DefaultScoreFunction ranks combinations by return on investment.
func DefaultScoreFunction(metrics *analytics.PerformanceMetrics) float64 {
	return metrics.ReturnOnInvestment
}

// RiskAdjustedScoreFunction combines several metrics into a single score
func RiskAdjustedScoreFunction(metrics *analytics.PerformanceMetrics) float64 {
	score := 0.0

	// Weight different metrics
	score += metrics.ReturnOnInvestment * 0.5
	score += (1 - metrics.MaxDrawdown) * 0.3
	score += metrics.WinRate * 0.2

	return score
}
