package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"momentumBot/internal/ports"
)

func writeBars(t *testing.T) string {
	t.Helper()
	data := "open_time,symbol,interval,open,high,low,close,volume\n" +
		"2026-03-02T14:30:00Z,AAPL,1h,10,10,10,10,100\n" +
		"2026-03-02T15:30:00Z,AAPL,1h,12,12,12,12,100\n" +
		"2026-03-02T16:30:00Z,AAPL,1h,15,15,15,15,100\n" +
		"2026-03-02T17:30:00Z,AAPL,1h,11,11,11,11,100\n"
	path := filepath.Join(t.TempDir(), "aapl.csv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"TICKER", "INTERVAL", "RANGE", "DATA_SOURCE", "CSV_PATH", "CACHE_DB_PATH", "MOMENTUM_PERIOD", "SIGNAL_THRESHOLD"} {
		t.Setenv(k, "")
	}
	t.Setenv("STARTING_CAPITAL", "100")
	t.Setenv("LOG_LEVEL", "ERROR")

	var out bytes.Buffer
	cliApp := newApp()
	cliApp.Writer = &out
	err := cliApp.Run(append([]string{"optimize"}, args...))
	return out.String(), err
}

func TestOptimize_PrintsRankedTable(t *testing.T) {
	path := writeBars(t)

	out, err := runCLI(t, "--source", "CSV", "--csv", path, "--range", "5d",
		"--max-period", "2", "--min-threshold", "1", "--max-threshold", "3", "--threshold-step", "1", "--top", "3")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"PERIOD", "THRESHOLD", "FINAL", "ROI", "TRADES", "MAX", "DD", "SCORE"}, strings.Fields(lines[0]))

	// period 1 / threshold 3 never trades; threshold 1 buys at 12 and sells at 11
	assert.Equal(t, []string{"1", "3", "100.00", "0.00%", "0"}, strings.Fields(lines[1])[:5])
	assert.Equal(t, []string{"1", "1", "92.00", "-8.00%", "2"}, strings.Fields(lines[2])[:5])
	// equal scores fall back to the smaller period, then the smaller threshold
	assert.Equal(t, []string{"1", "2", "76.00"}, strings.Fields(lines[3])[:3])
}

func TestOptimize_TopZeroPrintsEverything(t *testing.T) {
	path := writeBars(t)

	out, err := runCLI(t, "--source", "csv", "--csv", path, "--range", "5d",
		"--max-period", "2", "--min-threshold", "0", "--max-threshold", "1", "--threshold-step", "0.6", "--top", "0")
	require.NoError(t, err)
	// periods {1, 2} x thresholds {0, 0.6} plus the header
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 5)
	for _, line := range lines[1:] {
		assert.Contains(t, []string{"0", "0.6"}, strings.Fields(line)[1])
	}
}

func TestOptimize_Errors(t *testing.T) {
	path := writeBars(t)

	_, err := runCLI(t, "--source", "csv", "--csv", path, "--range", "5d", "--min-period", "0")
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)

	_, err = runCLI(t, "--source", "csv", "--csv", path, "--ticker", "MSFT", "--range", "5d")
	assert.ErrorIs(t, err, ports.ErrDataUnavailable)

	_, err = runCLI(t, "--source", "csv")
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}
