package ports

import (
	"context"

	"momentumBot/internal/domain"
)

// BarSource defines the interface for retrieving historical price bars.
// Implementations wrap failures with ErrDataUnavailable.
type BarSource interface {
	// Name returns the identifier of the source (e.g., "yahoo").
	Name() string

	// FetchBars retrieves the bars of ticker sampled at interval over the time range rng
	// (Yahoo-style range strings such as "ytd" or "1mo").
	FetchBars(ctx context.Context, ticker, interval, rng string) ([]*domain.Bar, error)
}
