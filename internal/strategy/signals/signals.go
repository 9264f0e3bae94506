package signals

import (
	"fmt"
	"math"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

// DefaultThreshold is the momentum magnitude a row must strictly exceed to trade.
const DefaultThreshold = 1.0

// Config holds parameters for the signal generator.
type Config struct {
	Threshold float64
}

// Generator classifies annotated rows into BUY, SELL, HOLD or UNKNOWN.
type Generator struct {
	threshold float64
}

// NewGenerator creates a signal generator. The threshold must be finite and non-negative.
func NewGenerator(cfg Config) (*Generator, error) {
	if math.IsNaN(cfg.Threshold) || math.IsInf(cfg.Threshold, 0) || cfg.Threshold < 0 {
		return nil, fmt.Errorf("signal threshold must be a non-negative number, got %v: %w", cfg.Threshold, ports.ErrInvalidRequest)
	}
	return &Generator{threshold: cfg.Threshold}, nil
}

// Threshold returns the configured threshold.
func (g *Generator) Threshold() float64 {
	return g.threshold
}

// Generate returns a copy of series with a Signal attached to every row.
func (g *Generator) Generate(series domain.Series) domain.Series {
	out := series.Clone()
	for i := range out {
		out[i].Signal = Classify(out[i].Momentum, out[i].HasMomentum, g.threshold)
	}
	return out
}

// Classify maps a momentum value to a signal. Rules are evaluated in order and the
// comparisons are strict, so momentum of exactly +/-threshold is HOLD.
func Classify(momentum float64, defined bool, threshold float64) domain.Signal {
	switch {
	case !defined:
		return domain.SignalUnknown
	case momentum > threshold:
		return domain.SignalBuy
	case momentum < -threshold:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// Count tallies the signals of a series, keyed by signal.
func Count(series domain.Series) map[domain.Signal]int {
	counts := make(map[domain.Signal]int, 4)
	for _, row := range series {
		counts[row.Signal]++
	}
	return counts
}
