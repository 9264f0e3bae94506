package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentumBot/config"
	"momentumBot/internal/adapters/binanceclient"
	"momentumBot/internal/adapters/csvfile"
	"momentumBot/internal/adapters/yahoo"
	"momentumBot/internal/ports"
)

func baseConfig() *config.Config {
	return &config.Config{
		Ticker:          "AAPL",
		Interval:        "1h",
		Range:           "5d",
		MomentumPeriod:  1,
		SignalThreshold: 1,
		StartingCapital: 100,
		DataSource:      config.SourceYahoo,
		YahooBaseURL:    "https://query1.finance.yahoo.com",
		HTTPTimeout:     time.Second,
		CacheTTL:        time.Hour,
	}
}

func TestNewBarSource(t *testing.T) {
	logger := &mockLogger{}

	cfg := baseConfig()
	src, err := NewBarSource(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &yahoo.Client{}, src)

	cfg.DataSource = config.SourceBinance
	src, err = NewBarSource(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &binanceclient.Client{}, src)

	cfg.DataSource = config.SourceCSV
	cfg.CSVPath = "bars.csv"
	src, err = NewBarSource(cfg, logger)
	require.NoError(t, err)
	assert.IsType(t, &csvfile.Source{}, src)

	cfg.DataSource = "bloomberg"
	_, err = NewBarSource(cfg, logger)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestNewPipelineFromConfig_CSVWithCache(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "aapl.csv")
	data := "open_time,symbol,interval,open,high,low,close,volume\n" +
		"2026-03-02T14:30:00Z,AAPL,1h,10,10,10,10,100\n" +
		"2026-03-02T15:30:00Z,AAPL,1h,12,12,12,12,100\n" +
		"2026-03-02T16:30:00Z,AAPL,1h,15,15,15,15,100\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(data), 0644))

	cfg := baseConfig()
	cfg.DataSource = config.SourceCSV
	cfg.CSVPath = csvPath
	cfg.CacheDBPath = filepath.Join(dir, "cache", "bars.db")

	svc, closer, err := NewPipelineFromConfig(context.Background(), cfg, &mockLogger{})
	require.NoError(t, err)
	defer closer()

	result, err := svc.Run(context.Background(), RunConfigFrom(cfg))
	require.NoError(t, err)
	assert.InDelta(t, 124.0, result.FinalValue(), 1e-9)

	// Served from the cache once the file is gone.
	require.NoError(t, os.Remove(csvPath))
	result, err = svc.Run(context.Background(), RunConfigFrom(cfg))
	require.NoError(t, err)
	assert.InDelta(t, 124.0, result.FinalValue(), 1e-9)
}

func TestNewPipelineFromConfig_Yahoo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"chart":{"result":[{"meta":{"symbol":"AAPL"},
			"timestamp":[1772461800,1772465400,1772469000],
			"indicators":{"quote":[{"open":[10,12,15],"high":[10,12,15],"low":[10,12,15],"close":[10,12,15],"volume":[1,1,1]}]}}],
			"error":null}}`)
	}))
	defer server.Close()

	cfg := baseConfig()
	cfg.YahooBaseURL = server.URL

	svc, closer, err := NewPipelineFromConfig(context.Background(), cfg, &mockLogger{})
	require.NoError(t, err)
	defer closer()

	result, err := svc.Run(context.Background(), RunConfigFrom(cfg))
	require.NoError(t, err)
	assert.InDelta(t, 124.0, result.FinalValue(), 1e-9)
	assert.Equal(t, 1, result.Backtest.TotalTrades)
}

func TestNewPipelineFromConfig_InvalidPeriod(t *testing.T) {
	cfg := baseConfig()
	cfg.MomentumPeriod = -2

	_, _, err := NewPipelineFromConfig(context.Background(), cfg, &mockLogger{})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}
