package indicators

import (
	"context"

	"momentumBot/internal/domain"
)

// Indicator represents a technical indicator derived from a price Series
type Indicator interface {
	// Calculate computes the indicator value for the latest row of the series
	Calculate(ctx context.Context, series domain.Series) (float64, error)

	// Annotate returns a copy of series with the indicator attached to every row
	Annotate(series domain.Series) domain.Series

	// RequiredDataPoints returns the minimum number of rows needed for one value
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of rows needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}
