package optimization

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
	"momentumBot/internal/strategy/analytics"
)

func barsFromCloses(closes ...float64) []*domain.Bar {
	start := time.Date(2026, time.April, 1, 13, 30, 0, 0, time.UTC)
	bars := make([]*domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = &domain.Bar{OpenTime: start.Add(time.Duration(i) * time.Hour), Symbol: "AAPL", Interval: "1h", Close: c}
	}
	return bars
}

func TestOptimizer(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{
		ParameterRanges: []ParameterRange{
			{Name: ParamPeriod, Min: 1, Max: 2, Step: 1, IsInt: true},
			{Name: ParamThreshold, Min: 1, Max: 3, Step: 1},
		},
		InitialFunds: 100,
		Symbol:       "AAPL",
	})
	require.NoError(t, err)

	results, err := opt.Optimize(context.Background(), barsFromCloses(10, 12, 15, 11))
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	byParams := make(map[[2]float64]OptimizationResult)
	for _, r := range results {
		byParams[[2]float64{float64(r.Period), r.Threshold}] = r
	}
	// period 1, threshold 1: buy 8 at 12, sell at 11
	assert.InDelta(t, 92.0, byParams[[2]float64{1, 1}].FinalValue, 1e-9)
	// period 1, threshold 3: every move is within the threshold
	assert.InDelta(t, 100.0, byParams[[2]float64{1, 3}].FinalValue, 1e-9)
	// period 2, threshold 1: buy 6 at 15 (momentum 5), momentum -1 at 11 holds
	assert.InDelta(t, 76.0, byParams[[2]float64{2, 1}].FinalValue, 1e-9)

	assert.Equal(t, 100.0, results[0].FinalValue)
}

func TestOptimizer_Defaults(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{InitialFunds: 100})
	require.NoError(t, err)

	results, err := opt.Optimize(context.Background(), barsFromCloses(10, 12, 15))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Period)
	assert.Equal(t, 1.0, results[0].Threshold)
	assert.InDelta(t, 124.0, results[0].FinalValue, 1e-9)
}

func TestOptimizer_Errors(t *testing.T) {
	_, err := NewOptimizer(OptimizerConfig{ParameterRanges: []ParameterRange{{Name: "leverage", Min: 1, Max: 2, Step: 1}}})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = NewOptimizer(OptimizerConfig{ParameterRanges: []ParameterRange{{Name: ParamThreshold, Min: 1, Max: 2, Step: 0}}})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = NewOptimizer(OptimizerConfig{ParameterRanges: []ParameterRange{{Name: ParamPeriod, Min: 0, Max: 1, Step: 1}}})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = NewOptimizer(OptimizerConfig{ParameterRanges: []ParameterRange{{Name: ParamThreshold, Min: -1, Max: 1, Step: 1}}})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	opt, err := NewOptimizer(OptimizerConfig{ParameterRanges: []ParameterRange{{Name: ParamPeriod, Min: 1, Max: 3, Step: 1}}, InitialFunds: 100})
	require.NoError(t, err)
	_, err = opt.Optimize(context.Background(), nil)
	assert.ErrorIs(t, err, ports.ErrEmptyInput)

	// every combination fails the backtest
	opt, err = NewOptimizer(OptimizerConfig{ParameterRanges: []ParameterRange{{Name: ParamPeriod, Min: 1, Max: 3, Step: 1}}, InitialFunds: -1})
	require.NoError(t, err)
	results, err := opt.Optimize(context.Background(), barsFromCloses(10, 12))
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}

func TestOptimizer_RangeStopsAtMax(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{
		ParameterRanges: []ParameterRange{
			{Name: ParamPeriod, Min: 1, Max: 1, Step: 1, IsInt: true},
			{Name: ParamThreshold, Min: 0, Max: 1, Step: 0.6},
		},
		InitialFunds: 100,
	})
	require.NoError(t, err)

	results, err := opt.Optimize(context.Background(), barsFromCloses(10, 12, 15, 11))
	require.NoError(t, err)
	require.Len(t, results, 2)

	thresholds := []float64{results[0].Threshold, results[1].Threshold}
	assert.ElementsMatch(t, []float64{0, 0.6}, thresholds)
	for _, r := range results {
		assert.Equal(t, 1, r.Period)
		assert.LessOrEqual(t, r.Threshold, 1.0)
	}
}

func TestOptimizer_RangeIncludesMaxDespiteRounding(t *testing.T) {
	opt, err := NewOptimizer(OptimizerConfig{
		ParameterRanges: []ParameterRange{{Name: ParamThreshold, Min: 0, Max: 0.3, Step: 0.1}},
		InitialFunds:    100,
	})
	require.NoError(t, err)

	results, err := opt.Optimize(context.Background(), barsFromCloses(10, 12))
	require.NoError(t, err)
	// 3*0.1 is 0.30000000000000004 in float64 and still counts as the maximum
	assert.Len(t, results, 4)
}

func TestOptimizer_CancellationStopsSweep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scored := 0
	opt, err := NewOptimizer(OptimizerConfig{
		ParameterRanges: []ParameterRange{
			{Name: ParamPeriod, Min: 1, Max: 10, Step: 1, IsInt: true},
			{Name: ParamThreshold, Min: 0, Max: 5, Step: 0.5},
		},
		InitialFunds: 100,
		Workers:      1,
		ScoreFunction: func(m *analytics.PerformanceMetrics) float64 {
			scored++
			cancel()
			return m.ReturnOnInvestment
		},
	})
	require.NoError(t, err)

	results, err := opt.Optimize(ctx, barsFromCloses(10, 12, 15, 11))
	assert.Nil(t, results)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	assert.Equal(t, 1, scored)
}

func TestScoreFunctions(t *testing.T) {
	metrics := &analytics.PerformanceMetrics{ReturnOnInvestment: 0.2, MaxDrawdown: 0.1, WinRate: 0.5}
	assert.Equal(t, 0.2, DefaultScoreFunction(metrics))
	assert.InDelta(t, 0.2*0.5+0.9*0.3+0.5*0.2, RiskAdjustedScoreFunction(metrics), 1e-12)
}
