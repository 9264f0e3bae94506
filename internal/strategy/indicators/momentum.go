package indicators

import (
	"context"
	"fmt"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

// DefaultMomentumPeriod is the lookback used when none is configured.
const DefaultMomentumPeriod = 1

// MomentumConfig holds configuration for the momentum indicator
type MomentumConfig struct {
	IndicatorConfig
}

// Momentum is the change in closing price over a fixed lookback:
// Close[i] - Close[i-period].
type Momentum struct {
	BaseIndicator
}

var _ Indicator = (*Momentum)(nil)

// NewMomentum creates a new momentum indicator. A zero period selects DefaultMomentumPeriod.
func NewMomentum(config MomentumConfig) (*Momentum, error) {
	if config.Period == 0 {
		config.Period = DefaultMomentumPeriod
	}
	if config.Period < 1 {
		return nil, fmt.Errorf("momentum period must be at least 1, got %d: %w", config.Period, ports.ErrInvalidRequest)
	}
	return &Momentum{BaseIndicator: BaseIndicator{Config: config.IndicatorConfig}}, nil
}

// Name returns the name of the indicator
func (m *Momentum) Name() string {
	return fmt.Sprintf("MOM(%d)", m.Config.Period)
}

// RequiredDataPoints returns period+1: the first period rows have nothing to look back to.
func (m *Momentum) RequiredDataPoints() int {
	return m.Config.Period + 1
}

// Annotate returns a copy of series where every row at index i >= period carries
// Close[i] - Close[i-period]. Earlier rows are left without momentum.
func (m *Momentum) Annotate(series domain.Series) domain.Series {
	out := series.Clone()
	period := m.Config.Period
	for i := range out {
		if i < period {
			out[i].Momentum = 0
			out[i].HasMomentum = false
			continue
		}
		out[i].Momentum = out[i].Close - out[i-period].Close
		out[i].HasMomentum = true
	}
	return out
}

// Calculate computes the momentum of the latest row
func (m *Momentum) Calculate(ctx context.Context, series domain.Series) (float64, error) {
	if len(series) < m.RequiredDataPoints() {
		return 0, fmt.Errorf("not enough data (%d) to calculate momentum for period %d", len(series), m.Config.Period)
	}
	last := len(series) - 1
	return series[last].Close - series[last-m.Config.Period].Close, nil
}
