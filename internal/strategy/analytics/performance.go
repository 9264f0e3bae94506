package analytics

import (
	"math"
	"time"

	"momentumBot/internal/domain"
	"momentumBot/internal/strategy/backtesting"
)

// PerformanceMetrics summarises a backtest run
type PerformanceMetrics struct {
	// Fill counts
	TotalFills int
	BuyFills   int
	SellFills  int

	// Round trips: buys accumulated since the previous sell, closed by one sell
	RoundTrips           []RoundTrip
	WinningTrips         int
	LosingTrips          int
	WinRate              float64
	RealizedProfit       float64
	AverageWin           float64
	AverageLoss          float64
	ProfitFactor         float64
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	OpenPosition         bool // shares were still held after the last row

	// Equity
	InitialFunds       float64
	FinalValue         float64
	ReturnOnInvestment float64
	PeakValue          float64
	MaxDrawdown        float64 // fraction of the running peak
	Drawdowns          []Drawdown
}

// RoundTrip is a completed long position, from its first buy to the closing sell
type RoundTrip struct {
	EntryTime time.Time
	ExitTime  time.Time
	Buys      int
	Units     int64
	Cost      float64
	Proceeds  float64
	PNL       float64
}

// Drawdown represents a drawdown period on the equity curve
type Drawdown struct {
	StartTime  time.Time
	EndTime    time.Time
	StartValue float64
	EndValue   float64
	Depth      float64
	Duration   time.Duration
}

// AnalyzePerformance derives performance metrics from a backtest result.
// A nil result yields zero metrics.
func AnalyzePerformance(result *backtesting.BacktestResult) *PerformanceMetrics {
	metrics := &PerformanceMetrics{
		RoundTrips: make([]RoundTrip, 0),
		Drawdowns:  make([]Drawdown, 0),
	}
	if result == nil {
		return metrics
	}

	metrics.InitialFunds = result.InitialFunds
	metrics.FinalValue = result.FinalValue
	metrics.ReturnOnInvestment = result.ReturnOnInvestment
	metrics.OpenPosition = result.Shares > 0

	analyzeFills(metrics, result.Trades)
	analyzeEquity(metrics, result.EquityCurve)

	return metrics
}

func analyzeFills(metrics *PerformanceMetrics, trades []*domain.Trade) {
	var current *RoundTrip
	var consecutiveWins, consecutiveLosses int
	var grossWin, grossLoss float64

	for _, trade := range trades {
		metrics.TotalFills++
		switch trade.Side {
		case domain.Buy:
			metrics.BuyFills++
			if current == nil {
				current = &RoundTrip{EntryTime: trade.Time}
			}
			current.Buys++
			current.Units += trade.Units
			current.Cost += trade.Notional()

		case domain.Sell:
			metrics.SellFills++
			if current == nil {
				continue
			}
			current.ExitTime = trade.Time
			current.Proceeds = trade.Notional()
			current.PNL = current.Proceeds - current.Cost
			metrics.RoundTrips = append(metrics.RoundTrips, *current)
			metrics.RealizedProfit += current.PNL

			if current.PNL > 0 {
				metrics.WinningTrips++
				grossWin += current.PNL
				consecutiveWins++
				consecutiveLosses = 0
			} else {
				metrics.LosingTrips++
				grossLoss += current.PNL
				consecutiveLosses++
				consecutiveWins = 0
			}
			metrics.MaxConsecutiveWins = max(metrics.MaxConsecutiveWins, consecutiveWins)
			metrics.MaxConsecutiveLosses = max(metrics.MaxConsecutiveLosses, consecutiveLosses)
			current = nil
		}
	}

	if n := len(metrics.RoundTrips); n > 0 {
		metrics.WinRate = float64(metrics.WinningTrips) / float64(n)
	}
	if metrics.WinningTrips > 0 {
		metrics.AverageWin = grossWin / float64(metrics.WinningTrips)
	}
	if metrics.LosingTrips > 0 {
		metrics.AverageLoss = grossLoss / float64(metrics.LosingTrips)
	}
	if grossLoss != 0 {
		metrics.ProfitFactor = grossWin / -grossLoss
	}
}

func analyzeEquity(metrics *PerformanceMetrics, curve []backtesting.EquityPoint) {
	if len(curve) == 0 {
		return
	}

	peak := curve[0].Value
	var currentDrawdown *Drawdown

	for _, point := range curve {
		if point.Value >= peak {
			peak = point.Value
			if currentDrawdown != nil {
				currentDrawdown.EndTime = point.Time
				currentDrawdown.EndValue = point.Value
				currentDrawdown.Duration = currentDrawdown.EndTime.Sub(currentDrawdown.StartTime)
				metrics.Drawdowns = append(metrics.Drawdowns, *currentDrawdown)
				currentDrawdown = nil
			}
			continue
		}

		if peak <= 0 {
			continue
		}
		drawdown := (peak - point.Value) / peak
		if currentDrawdown == nil {
			currentDrawdown = &Drawdown{
				StartTime:  point.Time,
				StartValue: peak,
				Depth:      drawdown,
			}
		} else {
			currentDrawdown.Depth = math.Max(currentDrawdown.Depth, drawdown)
		}
		if drawdown > metrics.MaxDrawdown {
			metrics.MaxDrawdown = drawdown
		}
	}

	// Close any open drawdown
	if currentDrawdown != nil {
		last := curve[len(curve)-1]
		currentDrawdown.EndTime = last.Time
		currentDrawdown.EndValue = last.Value
		currentDrawdown.Duration = currentDrawdown.EndTime.Sub(currentDrawdown.StartTime)
		metrics.Drawdowns = append(metrics.Drawdowns, *currentDrawdown)
	}
	metrics.PeakValue = peak
}
