package backtesting

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"momentumBot/internal/domain"
	"momentumBot/internal/ports"
)

// DefaultInitialFunds is the starting capital used when none is configured.
const DefaultInitialFunds = 1000.0

// BacktestConfig holds configuration for backtesting
type BacktestConfig struct {
	InitialFunds float64
	Symbol       string
}

// EquityPoint is the marked-to-close portfolio value after a row was processed
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// BacktestResult holds the results of a backtest
type BacktestResult struct {
	InitialFunds       float64
	FinalValue         float64 // cash + shares * close of the last row
	Cash               float64
	Shares             int64
	LastClose          float64
	BarsProcessed      int
	TotalTrades        int
	ReturnOnInvestment float64
	Trades             []*domain.Trade
	EquityCurve        []EquityPoint
}

// ledger is the transient simulation state folded over the series.
type ledger struct {
	cash   decimal.Decimal
	shares int64
}

// Backtest replays the signals of series in order against a single cash/shares
// position and reports the final portfolio value.
func Backtest(ctx context.Context, series domain.Series, config BacktestConfig) (*BacktestResult, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("cannot backtest %q: %w", config.Symbol, ports.ErrEmptyInput)
	}
	if math.IsNaN(config.InitialFunds) || math.IsInf(config.InitialFunds, 0) || config.InitialFunds < 0 {
		return nil, fmt.Errorf("initial funds must be a non-negative number, got %v: %w", config.InitialFunds, ports.ErrInvalidRequest)
	}
	for i := range series {
		if !series[i].HasValidClose() {
			return nil, fmt.Errorf("row %d (%s) has close %v: %w", i, series[i].OpenTime.Format(time.RFC3339), series[i].Close, ports.ErrMalformedBar)
		}
	}

	result := &BacktestResult{
		InitialFunds: config.InitialFunds,
		EquityCurve:  make([]EquityPoint, 0, len(series)),
	}
	state := ledger{cash: decimal.NewFromFloat(config.InitialFunds)}

	for i := range series {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest interrupted at row %d: %w: %w", i, ports.ErrContextCanceled, err)
		}

		row := &series[i]
		trade, err := state.apply(row, config.Symbol)
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, row.OpenTime.Format(time.RFC3339), err)
		}
		if trade != nil {
			result.Trades = append(result.Trades, trade)
		}
		result.BarsProcessed++
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Time:  row.OpenTime,
			Value: state.valueAt(row.Close).InexactFloat64(),
		})
	}

	last, _ := series.Last()
	result.LastClose = last.Close
	result.FinalValue = state.valueAt(last.Close).InexactFloat64()
	result.Cash = state.cash.InexactFloat64()
	result.Shares = state.shares
	result.TotalTrades = len(result.Trades)
	if config.InitialFunds > 0 {
		result.ReturnOnInvestment = (result.FinalValue - config.InitialFunds) / config.InitialFunds
	}

	return result, nil
}

// apply executes the row's signal against the ledger and returns the resulting fill,
// or nil when the row leaves the state unchanged. A buy whose share count does not
// fit in an int64 wraps ports.ErrInvalidRequest.
func (l *ledger) apply(row *domain.Row, symbol string) (*domain.Trade, error) {
	price := decimal.NewFromFloat(row.Close)

	switch row.Signal {
	case domain.SignalBuy:
		if !l.cash.IsPositive() {
			return nil, nil
		}
		units := l.cash.Div(price).Floor()
		// Division is rounded to decimal.DivisionPrecision digits; never overspend.
		if units.Mul(price).GreaterThan(l.cash) {
			units = units.Sub(decimal.NewFromInt(1))
		}
		if !units.IsPositive() {
			return nil, nil
		}
		if units.GreaterThan(decimal.NewFromInt(math.MaxInt64 - l.shares)) {
			return nil, fmt.Errorf("buying %s shares at %v overflows the share count: %w", units.String(), row.Close, ports.ErrInvalidRequest)
		}
		l.shares += units.IntPart()
		l.cash = l.cash.Sub(units.Mul(price))
		return l.fill(row, symbol, domain.Buy, units.IntPart()), nil

	case domain.SignalSell:
		if l.shares <= 0 {
			return nil, nil
		}
		sold := l.shares
		l.cash = l.cash.Add(price.Mul(decimal.NewFromInt(sold)))
		l.shares = 0
		return l.fill(row, symbol, domain.Sell, sold), nil

	default:
		return nil, nil
	}
}

func (l *ledger) fill(row *domain.Row, symbol string, side domain.OrderSide, units int64) *domain.Trade {
	return &domain.Trade{
		Time:        row.OpenTime,
		Symbol:      symbol,
		Side:        side,
		Units:       units,
		Price:       row.Close,
		CashAfter:   l.cash.InexactFloat64(),
		SharesAfter: l.shares,
	}
}

// valueAt marks the ledger to the given close.
func (l *ledger) valueAt(close float64) decimal.Decimal {
	return l.cash.Add(decimal.NewFromFloat(close).Mul(decimal.NewFromInt(l.shares)))
}
