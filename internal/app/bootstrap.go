package app

import (
	"context"
	"fmt"

	"momentumBot/config"
	"momentumBot/internal/adapters/binanceclient"
	"momentumBot/internal/adapters/csvfile"
	"momentumBot/internal/adapters/sqlite"
	"momentumBot/internal/adapters/yahoo"
	"momentumBot/internal/marketdata"
	"momentumBot/internal/ports"
	"momentumBot/internal/strategy/indicators"
	"momentumBot/internal/strategy/signals"
)

// NewBarSource builds the BarSource selected by cfg.DataSource.
func NewBarSource(cfg *config.Config, logger ports.Logger) (ports.BarSource, error) {
	var (
		source ports.BarSource
		err    error
	)
	switch cfg.DataSource {
	case config.SourceYahoo:
		source, err = yahoo.New(yahoo.Config{
			BaseURL:    cfg.YahooBaseURL,
			Timeout:    cfg.HTTPTimeout,
			RetryCount: cfg.RetryCount,
			Logger:     logger,
		})
	case config.SourceBinance:
		source, err = binanceclient.New(binanceclient.Config{
			APIKey:     cfg.APIKey,
			SecretKey:  cfg.SecretKey,
			UseTestnet: cfg.IsTestnet,
			Logger:     logger,
		})
	case config.SourceCSV:
		source, err = csvfile.New(cfg.CSVPath, logger)
	default:
		err = fmt.Errorf("unsupported data source '%s': %w", cfg.DataSource, ports.ErrConfigurationError)
	}
	if err != nil {
		return nil, err
	}
	return source, nil
}

// NewAcquirer builds the bar acquirer for cfg. When a cache is configured the
// returned closer releases it; a cache that cannot be opened is logged and skipped.
func NewAcquirer(ctx context.Context, cfg *config.Config, logger ports.Logger) (*marketdata.Acquirer, func(), error) {
	source, err := NewBarSource(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize %s bar source: %w", cfg.DataSource, err)
	}

	closer := func() {}
	var cache ports.BarRepository
	if cfg.CacheDBPath != "" {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.CacheDBPath, Logger: logger})
		if err != nil {
			logger.Warn(ctx, "Bar cache unavailable, continuing without it", ports.Fields{"path": cfg.CacheDBPath, "error": err.Error()})
		} else {
			cache = repo
			closer = func() {
				if err := repo.Close(); err != nil {
					logger.Error(ctx, err, "Error closing bar cache")
				}
			}
		}
	}

	acq, err := marketdata.NewAcquirer(marketdata.Config{
		Source:   source,
		Cache:    cache,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})
	if err != nil {
		closer()
		return nil, nil, err
	}
	return acq, closer, nil
}

// NewPipelineFromConfig wires a PipelineService for cfg.
func NewPipelineFromConfig(ctx context.Context, cfg *config.Config, logger ports.Logger) (*PipelineService, func(), error) {
	acq, closer, err := NewAcquirer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	momentum, err := indicators.NewMomentum(indicators.MomentumConfig{
		IndicatorConfig: indicators.IndicatorConfig{Period: cfg.MomentumPeriod},
	})
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to initialize momentum indicator: %w", err)
	}

	generator, err := signals.NewGenerator(signals.Config{Threshold: cfg.SignalThreshold})
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("failed to initialize signal generator: %w", err)
	}

	svc, err := NewPipelineService(logger, acq, momentum, generator)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return svc, closer, nil
}

// RunConfigFrom returns the RunConfig described by cfg.
func RunConfigFrom(cfg *config.Config) RunConfig {
	return RunConfig{
		Ticker:       cfg.Ticker,
		Interval:     cfg.Interval,
		Range:        cfg.Range,
		InitialFunds: cfg.StartingCapital,
	}
}
