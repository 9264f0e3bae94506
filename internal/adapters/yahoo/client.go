package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

const (
	// DefaultBaseURL is the public Yahoo Finance query host.
	DefaultBaseURL = "https://query1.finance.yahoo.com"

	chartPath = "/v8/finance/chart/{symbol}"
)

// Client implements ports.BarSource using the Yahoo Finance chart API.
type Client struct {
	http   *resty.Client
	logger ports.Logger
}

var _ ports.BarSource = (*Client)(nil)

// Config holds configuration specific to the Yahoo adapter.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int // 0 disables retries
	Logger     ports.Logger
}

// New creates a new Yahoo Finance client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Accept", "application/json")
	if cfg.RetryCount > 0 {
		client.SetRetryCount(cfg.RetryCount).
			SetRetryWaitTime(1 * time.Second).
			SetRetryMaxWaitTime(10 * time.Second).
			AddRetryCondition(func(resp *resty.Response, err error) bool {
				return err != nil || resp.StatusCode() == http.StatusTooManyRequests || resp.StatusCode() >= http.StatusInternalServerError
			})
	}

	cfg.Logger.Debug(context.Background(), "Yahoo client configured", ports.Fields{"baseURL": baseURL, "timeout": timeout.String(), "retries": cfg.RetryCount})
	return &Client{http: client, logger: cfg.Logger}, nil
}

// Name returns the source identifier.
func (c *Client) Name() string { return "yahoo" }

// chartResponse is the response structure of the chart endpoint. Quote values are
// pointers because Yahoo returns null for intervals without trades.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol           string `json:"symbol"`
				DataGranularity  string `json:"dataGranularity"`
				ExchangeTimezone string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *chartError `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// FetchBars retrieves bars of ticker for the interval/range pair, e.g. ("AAPL", "1h", "ytd").
func (c *Client) FetchBars(ctx context.Context, ticker, interval, rng string) ([]*domain.Bar, error) {
	op := "FetchBars"
	var chart chartResponse
	var apiErr chartResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", ticker).
		SetQueryParams(map[string]string{
			"interval":       interval,
			"range":          rng,
			"includePrePost": "false",
		}).
		SetResult(&chart).
		SetError(&apiErr).
		Get(chartPath)
	if err != nil {
		return nil, c.handleError(ctx, op, ticker, transportError(ctx, err))
	}

	if resp.IsError() {
		return nil, c.handleError(ctx, op, ticker, statusError(resp.StatusCode(), apiErr.Chart.Error))
	}
	if chart.Chart.Error != nil {
		return nil, c.handleError(ctx, op, ticker, fmt.Errorf("yahoo api error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description))
	}

	bars, err := translateChart(&chart, ticker, interval)
	if err != nil {
		return nil, c.handleError(ctx, op, ticker, err)
	}

	c.logger.Debug(ctx, "Fetched bars from Yahoo", ports.Fields{"ticker": ticker, "interval": interval, "range": rng, "count": len(bars)})
	return bars, nil
}

// handleError wraps a failure as ErrDataUnavailable and logs it.
func (c *Client) handleError(ctx context.Context, op, ticker string, err error) error {
	finalErr := fmt.Errorf("yahoo %s for %s failed: %w: %w", op, ticker, ports.ErrDataUnavailable, err)
	c.logger.Error(ctx, err, "Yahoo request failed", ports.Fields{"operation": op, "ticker": ticker})
	return finalErr
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		return fmt.Errorf("%w: %w", ports.ErrContextCanceled, err)
	default:
		return err
	}
}

func statusError(status int, apiErr *chartError) error {
	detail := http.StatusText(status)
	if apiErr != nil && apiErr.Description != "" {
		detail = apiErr.Description
	}
	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("status %d: %s: %w", status, detail, ports.ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %s: %w", status, detail, ports.ErrRateLimited)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("status %d: %s: %w", status, detail, ports.ErrAuthenticationFailed)
	default:
		return fmt.Errorf("status %d: %s", status, detail)
	}
}

// translateChart flattens the chart result into bars ordered by time. Rows where every
// price is null are dropped; a row with prices but no close keeps Close as NaN so that
// validation rejects it.
func translateChart(chart *chartResponse, ticker, interval string) ([]*domain.Bar, error) {
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, errors.New("no data returned")
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, errors.New("no quote data returned")
	}
	quote := result.Indicators.Quote[0]

	bars := make([]*domain.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil && h == nil && l == nil && cl == nil {
			continue
		}
		bars = append(bars, &domain.Bar{
			OpenTime: time.Unix(ts, 0).UTC(),
			Symbol:   ticker,
			Interval: interval,
			Open:     orNaN(o),
			High:     orNaN(h),
			Low:      orNaN(l),
			Close:    orNaN(cl),
			Volume:   orZero(at(quote.Volume, i)),
		})
	}
	if len(bars) == 0 {
		return nil, errors.New("all returned rows are empty")
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].OpenTime.Before(bars[j].OpenTime) })
	return bars, nil
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
