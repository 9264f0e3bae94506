package domain

import "time"

// Trade represents a single simulated fill executed by the backtester.
type Trade struct {
	Time        time.Time // OpenTime of the bar the fill happened on
	Symbol      string    // Trading symbol (e.g., "AAPL")
	Side        OrderSide // BUY or SELL
	Units       int64     // Whole shares bought or sold
	Price       float64   // Fill price (the bar's close)
	CashAfter   float64   // Cash balance after the fill
	SharesAfter int64     // Shares held after the fill
}

// Notional returns the traded value of the fill.
func (t *Trade) Notional() float64 {
	return float64(t.Units) * t.Price
}
