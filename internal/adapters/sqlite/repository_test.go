package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "cache", "bars.db")
	repo, err := NewRepository(Config{DBPath: dbPath, Logger: &mockLogger{}})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo
}

func sampleBars(start time.Time, closes ...float64) []*domain.Bar {
	bars := make([]*domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = &domain.Bar{
			OpenTime: start.Add(time.Duration(i) * time.Hour),
			Symbol:   "AAPL",
			Interval: "1h",
			Open:     c - 0.5,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   1000 * float64(i+1),
		}
	}
	return bars
}

func TestRepository_SaveAndFindBars(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	q := ports.BarQuery{Source: "yahoo", Ticker: "AAPL", Interval: "1h", Range: "ytd"}
	start := time.Date(2026, time.January, 2, 14, 30, 0, 0, time.UTC)
	fetchedAt := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)

	bars := sampleBars(start, 243.8, 245.01, 244.2)
	// Stored out of order; read back ordered.
	require.NoError(t, repo.SaveBars(ctx, q, []*domain.Bar{bars[2], bars[0], bars[1]}, fetchedAt))

	got, gotFetchedAt, err := repo.FindBars(ctx, q)
	require.NoError(t, err)
	assert.True(t, fetchedAt.Equal(gotFetchedAt))
	require.Len(t, got, 3)
	for i := range bars {
		assert.True(t, bars[i].OpenTime.Equal(got[i].OpenTime))
		assert.Equal(t, bars[i].Close, got[i].Close)
		assert.Equal(t, bars[i].Volume, got[i].Volume)
		assert.Equal(t, "AAPL", got[i].Symbol)
	}
}

func TestRepository_SaveBarsReplaces(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	q := ports.BarQuery{Source: "yahoo", Ticker: "AAPL", Interval: "1h", Range: "5d"}
	start := time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC)

	require.NoError(t, repo.SaveBars(ctx, q, sampleBars(start, 1, 2, 3), time.Now()))
	later := time.Now().Add(time.Hour)
	require.NoError(t, repo.SaveBars(ctx, q, sampleBars(start.Add(24*time.Hour), 7), later))

	got, fetchedAt, err := repo.FindBars(ctx, q)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 7.0, got[0].Close)
	assert.WithinDuration(t, later, fetchedAt, time.Second)
}

func TestRepository_FindBarsMissing(t *testing.T) {
	repo := setupTestDB(t)

	got, fetchedAt, err := repo.FindBars(context.Background(), ports.BarQuery{Source: "yahoo", Ticker: "MSFT", Interval: "1d", Range: "1y"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, fetchedAt.IsZero())
}

func TestRepository_QueriesAreIsolated(t *testing.T) {
	repo := setupTestDB(t)
	ctx := context.Background()
	start := time.Date(2026, time.March, 2, 14, 30, 0, 0, time.UTC)

	hourly := ports.BarQuery{Source: "yahoo", Ticker: "AAPL", Interval: "1h", Range: "ytd"}
	daily := ports.BarQuery{Source: "yahoo", Ticker: "AAPL", Interval: "1d", Range: "ytd"}
	require.NoError(t, repo.SaveBars(ctx, hourly, sampleBars(start, 1, 2), time.Now()))
	require.NoError(t, repo.SaveBars(ctx, daily, sampleBars(start, 9), time.Now()))

	got, _, err := repo.FindBars(ctx, hourly)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, _, err = repo.FindBars(ctx, daily)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewRepository_Validation(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)

	_, err = NewRepository(Config{Logger: &mockLogger{}})
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestNewRepository_InMemory(t *testing.T) {
	repo, err := NewRepository(Config{DBPath: ":memory:", Logger: &mockLogger{}})
	require.NoError(t, err)
	defer repo.Close()

	q := ports.BarQuery{Source: "csv", Ticker: "AAPL", Interval: "1h", Range: "ytd"}
	require.NoError(t, repo.SaveBars(context.Background(), q, sampleBars(time.Now().UTC(), 5), time.Now()))
	got, _, err := repo.FindBars(context.Background(), q)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
