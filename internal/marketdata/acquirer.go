package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

// DefaultCacheTTL is how long cached bars are served before the source is queried again.
const DefaultCacheTTL = time.Hour

// Config holds the dependencies of an Acquirer.
type Config struct {
	Source   ports.BarSource
	Cache    ports.BarRepository // optional
	CacheTTL time.Duration
	Logger   ports.Logger
}

// Acquirer loads validated, time-ordered bars from a BarSource,
// optionally through a bar cache.
type Acquirer struct {
	source   ports.BarSource
	cache    ports.BarRepository
	cacheTTL time.Duration
	logger   ports.Logger
	now      func() time.Time
}

// NewAcquirer creates a new Acquirer.
func NewAcquirer(cfg Config) (*Acquirer, error) {
	if cfg.Source == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for Acquirer: %w", ports.ErrConfigurationError)
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Acquirer{
		source:   cfg.Source,
		cache:    cfg.Cache,
		cacheTTL: ttl,
		logger:   cfg.Logger,
		now:      time.Now,
	}, nil
}

// Acquire returns the bars of ticker at interval over rng, ascending by OpenTime.
// An empty result wraps ports.ErrDataUnavailable; a bar without a usable close
// wraps ports.ErrMalformedBar.
func (a *Acquirer) Acquire(ctx context.Context, ticker, interval, rng string) ([]*domain.Bar, error) {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return nil, fmt.Errorf("ticker is required: %w", ports.ErrInvalidRequest)
	}
	q := ports.BarQuery{Source: a.source.Name(), Ticker: strings.ToUpper(ticker), Interval: interval, Range: rng}
	fields := ports.Fields{"source": q.Source, "ticker": q.Ticker, "interval": interval, "range": rng}

	if bars, ok := a.fromCache(ctx, q); ok {
		a.logger.Info(ctx, "Using cached bars", ports.Fields{"ticker": q.Ticker, "count": len(bars)})
		return bars, nil
	}

	a.logger.Info(ctx, "Fetching bars", fields)
	bars, err := a.source.FetchBars(ctx, ticker, interval, rng)
	if err != nil {
		// Sources log their own failures.
		return nil, err
	}

	bars, err = prepare(bars)
	if err != nil {
		a.logger.Error(ctx, err, "Fetched bars rejected", fields)
		return nil, fmt.Errorf("%s bars for %s: %w", q.Source, q.Ticker, err)
	}
	a.logger.Info(ctx, "Fetched bars", ports.Fields{
		"ticker": q.Ticker,
		"count":  len(bars),
		"first":  bars[0].OpenTime.Format(time.RFC3339),
		"last":   bars[len(bars)-1].OpenTime.Format(time.RFC3339),
	})

	a.toCache(ctx, q, bars)
	return bars, nil
}

// fromCache returns fresh cached bars for q. Any cache failure is treated as a miss.
func (a *Acquirer) fromCache(ctx context.Context, q ports.BarQuery) ([]*domain.Bar, bool) {
	if a.cache == nil {
		return nil, false
	}
	bars, fetchedAt, err := a.cache.FindBars(ctx, q)
	if err != nil {
		a.logger.Warn(ctx, "Bar cache lookup failed, bypassing cache", ports.Fields{"ticker": q.Ticker, "error": err.Error()})
		return nil, false
	}
	if len(bars) == 0 {
		return nil, false
	}
	if age := a.now().Sub(fetchedAt); age > a.cacheTTL {
		a.logger.Debug(ctx, "Cached bars expired", ports.Fields{"ticker": q.Ticker, "age": age.String()})
		return nil, false
	}
	bars, err = prepare(bars)
	if err != nil {
		a.logger.Warn(ctx, "Cached bars invalid, bypassing cache", ports.Fields{"ticker": q.Ticker, "error": err.Error()})
		return nil, false
	}
	return bars, true
}

func (a *Acquirer) toCache(ctx context.Context, q ports.BarQuery, bars []*domain.Bar) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SaveBars(ctx, q, bars, a.now()); err != nil {
		a.logger.Warn(ctx, "Failed to cache bars", ports.Fields{"ticker": q.Ticker, "error": err.Error()})
	}
}

// prepare checks that bars is non-empty and every bar has a usable close,
// then returns a copy sorted by OpenTime.
func prepare(bars []*domain.Bar) ([]*domain.Bar, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars returned: %w", ports.ErrDataUnavailable)
	}
	for i, b := range bars {
		if b == nil {
			return nil, fmt.Errorf("bar %d is missing: %w", i, ports.ErrMalformedBar)
		}
		if !b.HasValidClose() {
			return nil, fmt.Errorf("bar %d at %s has invalid close %v: %w",
				i, b.OpenTime.Format(time.RFC3339), b.Close, ports.ErrMalformedBar)
		}
	}
	sorted := make([]*domain.Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OpenTime.Before(sorted[j].OpenTime)
	})
	return sorted, nil
}
