package csvfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
	"momentumBot/internal/utils"
)

// Source implements ports.BarSource over a CSV file written by cmd/fetch_bars.
// The range argument is not applied; the file is the range.
type Source struct {
	path   string
	logger ports.Logger
}

var _ ports.BarSource = (*Source)(nil)

// New creates a CSV-backed bar source.
func New(path string, logger ports.Logger) (*Source, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV source")
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("csv path is required: %w", ports.ErrConfigurationError)
	}
	return &Source{path: path, logger: logger}, nil
}

// Name returns the source identifier.
func (s *Source) Name() string { return "csv" }

// FetchBars reads the file and keeps rows matching ticker and interval.
// Rows with an empty symbol or interval match anything.
func (s *Source) FetchBars(ctx context.Context, ticker, interval, rng string) ([]*domain.Bar, error) {
	bars, err := utils.ReadBarsFromCSV(s.path)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to read bars from CSV", ports.Fields{"path": s.path, "ticker": ticker})
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("csv source %s: %w: %w: %w", s.path, ports.ErrDataUnavailable, ports.ErrNotFound, err)
		}
		if errors.Is(err, ports.ErrMalformedBar) {
			return nil, fmt.Errorf("csv source %s: %w", s.path, err)
		}
		return nil, fmt.Errorf("csv source %s: %w: %w", s.path, ports.ErrDataUnavailable, err)
	}

	matched := make([]*domain.Bar, 0, len(bars))
	for _, b := range bars {
		if b.Symbol != "" && !strings.EqualFold(b.Symbol, ticker) {
			continue
		}
		if b.Interval != "" && interval != "" && b.Interval != interval {
			continue
		}
		matched = append(matched, b)
	}

	s.logger.Debug(ctx, "Loaded bars from CSV", ports.Fields{"path": s.path, "rows": len(bars), "matched": len(matched), "range": rng})
	return matched, nil
}
