package ports

import (
	"context"
	"time"

	"momentumBot/internal/domain"
)

// BarQuery identifies one cached fetch of bars.
type BarQuery struct {
	Source   string
	Ticker   string
	Interval string
	Range    string
}

// BarRepository defines the interface for caching fetched price bars.
type BarRepository interface {
	// SaveBars replaces the bars stored for the query and records the fetch time.
	SaveBars(ctx context.Context, q BarQuery, bars []*domain.Bar, fetchedAt time.Time) error
	// FindBars returns the bars stored for the query and when they were fetched.
	// Returns nil, zero time, nil if nothing is cached.
	FindBars(ctx context.Context, q BarQuery) ([]*domain.Bar, time.Time, error)
}
