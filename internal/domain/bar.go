package domain

import (
	"math"
	"time"
)

// Bar represents a single sampled OHLCV price observation.
type Bar struct {
	OpenTime time.Time // Start time of the sampling interval
	Symbol   string    // Ticker symbol (e.g., "AAPL")
	Interval string    // Sampling interval (e.g., "1h", "1d")
	Open     float64   // Opening price
	High     float64   // Highest price
	Low      float64   // Lowest price
	Close    float64   // Closing price
	Volume   float64   // Traded volume
}

// HasValidClose reports whether the bar carries a usable closing price.
func (b *Bar) HasValidClose() bool {
	return !math.IsNaN(b.Close) && !math.IsInf(b.Close, 0) && b.Close > 0
}
