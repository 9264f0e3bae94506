package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"momentumBot/internal/adapters/logger" // Import the logger package for LogLevel
	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

// Supported values of DATA_SOURCE.
const (
	SourceYahoo   = "yahoo"
	SourceBinance = "binance"
	SourceCSV     = "csv"
)

// Config holds all application configuration.
type Config struct {
	// Run Parameters
	Ticker          string
	Interval        string
	Range           string
	MomentumPeriod  int
	SignalThreshold float64
	StartingCapital float64

	// Data Source
	DataSource   string
	CSVPath      string
	YahooBaseURL string
	HTTPTimeout  time.Duration
	RetryCount   int

	// Binance API
	APIKey    string
	SecretKey string
	IsTestnet bool

	// Bar Cache (disabled when CacheDBPath is empty)
	CacheDBPath string
	CacheTTL    time.Duration

	// Logging
	LogLevel logger.LogLevel // Use the LogLevel type from the logger adapter
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect parse errors

	// Run Parameters
	cfg.Ticker = getEnv("TICKER", "AAPL")
	cfg.Interval = getEnv("INTERVAL", "1h")
	cfg.Range = getEnv("RANGE", "ytd")

	cfg.MomentumPeriod, err = getEnvAsIntRequired("MOMENTUM_PERIOD", 1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid MOMENTUM_PERIOD: %v", err))
	}
	cfg.SignalThreshold, err = getEnvAsFloatRequired("SIGNAL_THRESHOLD", 1.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid SIGNAL_THRESHOLD: %v", err))
	}
	cfg.StartingCapital, err = getEnvAsFloatRequired("STARTING_CAPITAL", 1000.0)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STARTING_CAPITAL: %v", err))
	}

	// Data Source
	cfg.DataSource = strings.ToLower(getEnv("DATA_SOURCE", SourceYahoo))
	cfg.CSVPath = getEnv("CSV_PATH", "")
	cfg.YahooBaseURL = getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com")

	timeoutSeconds, err := getEnvAsIntRequired("HTTP_TIMEOUT_SECONDS", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HTTP_TIMEOUT_SECONDS: %v", err))
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second
	cfg.RetryCount = getEnvAsInt("HTTP_RETRY_COUNT", 0)

	// Binance API
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)

	// Bar Cache
	cfg.CacheDBPath = getEnv("CACHE_DB_PATH", "")
	cacheTTLMinutes := getEnvAsInt("CACHE_TTL_MINUTES", 60)
	cfg.CacheTTL = time.Duration(cacheTTLMinutes) * time.Minute

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s: %w", strings.Join(errs, "; "), ports.ErrConfigurationError)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and reports every problem at once.
// It is re-run after command-line overrides are applied.
func (c *Config) Validate() error {
	var errs []string

	if strings.TrimSpace(c.Ticker) == "" {
		errs = append(errs, "TICKER must be set")
	}
	if c.Interval == "" {
		errs = append(errs, "INTERVAL must be set")
	}
	if _, _, err := domain.ResolveRange(c.Range, time.Now()); err != nil {
		errs = append(errs, fmt.Sprintf("invalid RANGE: %v", err))
	}
	if c.MomentumPeriod < 1 {
		errs = append(errs, "MOMENTUM_PERIOD must be at least 1")
	}
	if math.IsNaN(c.SignalThreshold) || math.IsInf(c.SignalThreshold, 0) || c.SignalThreshold < 0 {
		errs = append(errs, "SIGNAL_THRESHOLD must be a non-negative number")
	}
	if math.IsNaN(c.StartingCapital) || math.IsInf(c.StartingCapital, 0) || c.StartingCapital < 0 {
		errs = append(errs, "STARTING_CAPITAL must be a non-negative number")
	}

	switch c.DataSource {
	case SourceYahoo:
		if c.YahooBaseURL == "" {
			errs = append(errs, "YAHOO_BASE_URL must be set")
		}
	case SourceBinance:
	case SourceCSV:
		if c.CSVPath == "" {
			errs = append(errs, "CSV_PATH must be set when DATA_SOURCE is csv")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported DATA_SOURCE '%s' (want %s, %s or %s)", c.DataSource, SourceYahoo, SourceBinance, SourceCSV))
	}

	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.RetryCount < 0 {
		errs = append(errs, "HTTP_RETRY_COUNT cannot be negative")
	}
	if c.CacheDBPath != "" && c.CacheTTL <= 0 {
		errs = append(errs, "CACHE_TTL_MINUTES must be positive")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s: %w", strings.Join(errs, "; "), ports.ErrConfigurationError)
	}
	return nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
