package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	maxKlinesPerRequest = 1500
)

// klinesFetcher is the subset of the go-binance klines service used by the client.
// It lets tests replace the network call.
type klinesFetcher func(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]*futures.Kline, error)

// Client implements ports.BarSource using the go-binance futures klines endpoint.
type Client struct {
	futuresClient *futures.Client
	fetch         klinesFetcher
	logger        ports.Logger
	now           func() time.Time
}

var _ ports.BarSource = (*Client)(nil)

// Config holds configuration specific to the Binance client adapter.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	BaseURL    string // overrides the production/testnet URL when set
	Logger     ports.Logger
}

// New creates a new Binance client adapter. Klines are public, so empty keys are allowed.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance client configured", ports.Fields{"baseURL": client.BaseURL})

	c := &Client{
		futuresClient: client,
		logger:        cfg.Logger,
		now:           time.Now,
	}
	c.fetch = c.fetchKlines
	return c, nil
}

// Name returns the source identifier.
func (c *Client) Name() string { return "binance" }

func (c *Client) fetchKlines(ctx context.Context, symbol, interval string, start, end time.Time, limit int) ([]*futures.Kline, error) {
	return c.futuresClient.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start.UnixMilli()).
		EndTime(end.UnixMilli()).
		Limit(limit).
		Do(ctx)
}

// FetchBars resolves rng against the current time and fetches every kline in the window.
func (c *Client) FetchBars(ctx context.Context, ticker, interval, rng string) ([]*domain.Bar, error) {
	start, end, err := domain.ResolveRange(rng, c.now())
	if err != nil {
		return nil, fmt.Errorf("binance FetchBars: %w: %w: %w", ports.ErrDataUnavailable, ports.ErrInvalidRequest, err)
	}
	binanceIv, err := toBinanceInterval(interval)
	if err != nil {
		return nil, fmt.Errorf("binance FetchBars: %w: %w: %w", ports.ErrDataUnavailable, ports.ErrInvalidRequest, err)
	}
	return c.GetBarsRange(ctx, strings.ToUpper(ticker), binanceIv, start, end)
}

// GetBarsRange fetches all klines for a symbol/interval between start and end time.
func (c *Client) GetBarsRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]*domain.Bar, error) {
	op := "GetBarsRange"
	var allBars []*domain.Bar
	from := start

	for {
		klines, err := c.fetch(ctx, symbol, interval, from, end, maxKlinesPerRequest)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			bar, err := translateBinanceKline(bk, symbol, interval)
			if err != nil {
				return nil, c.handleError(ctx, fmt.Errorf("failed to translate historical kline range: %w", err), op)
			}
			allBars = append(allBars, bar)
		}
		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime + 1)
		if from.After(end) || len(klines) < maxKlinesPerRequest {
			break
		}
	}

	if len(allBars) == 0 {
		return nil, fmt.Errorf("%s for %s %s returned no klines: %w", op, symbol, interval, ports.ErrDataUnavailable)
	}
	c.logger.Debug(ctx, "Fetched bars from Binance", ports.Fields{"symbol": symbol, "interval": interval, "count": len(allBars)})
	return allBars, nil
}

// handleError translates common Binance API errors into standardized ports errors.
// Every returned error wraps ports.ErrDataUnavailable.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := ports.Fields{"operation": operation}

	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		var mappedErr error
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp for this request is outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1022, -2014, -2015: // Signature or API key rejected
			mappedErr = ports.ErrAuthenticationFailed
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		case -1100, -1101, -1102, -1103, -1104, -1105, -1106, -1111, -1115, -1116, -1117, -1120, -1125, -1127, -1128, -1130: // Parameter/Request format errors
			mappedErr = ports.ErrInvalidRequest
		default:
			mappedErr = ports.ErrUnknown
		}
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrDataUnavailable, mappedErr, err)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		err = fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
	}
	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return fmt.Errorf("%s failed: %w: %w", operation, ports.ErrDataUnavailable, err)
}

// toBinanceInterval maps Yahoo-style interval names onto Binance kline intervals.
func toBinanceInterval(interval string) (string, error) {
	switch interval {
	case "1m", "3m", "5m", "15m", "30m", "1h", "2h", "4h", "6h", "8h", "12h", "1d", "3d":
		return interval, nil
	case "60m":
		return "1h", nil
	case "90m":
		return "", fmt.Errorf("interval %q has no Binance equivalent", interval)
	case "1wk", "1w":
		return "1w", nil
	case "1mo", "1M":
		return "1M", nil
	default:
		return "", fmt.Errorf("unsupported interval %q", interval)
	}
}

func translateBinanceKline(bk *futures.Kline, symbol, interval string) (*domain.Bar, error) {
	if bk == nil {
		return nil, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing close price '%s': %w: %w", bk.Close, ports.ErrMalformedBar, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return nil, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return &domain.Bar{
		OpenTime: time.UnixMilli(bk.OpenTime).UTC(),
		Symbol:   symbol,   // Not part of futures.Kline
		Interval: interval, // Not part of futures.Kline
		Open:     open,
		High:     high,
		Low:      low,
		Close:    cls,
		Volume:   vol,
	}, nil
}
