package domain

// OrderSide represents the side of a simulated fill (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// Signal is the trading action derived for a single row of a Series.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalHold    Signal = "HOLD"
	SignalUnknown Signal = "UNKNOWN" // No momentum available for the row
)

// String returns the string representation of the Signal.
func (s Signal) String() string {
	if s == "" {
		return string(SignalUnknown)
	}
	return string(s)
}
