package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/config"
)

var (
	// ErrInsufficientFunds means the quote balance cannot cover the
	// exchange minimum; the trade is skipped, not retried.
	ErrInsufficientFunds = errors.New("risk: balance below minimum order notional")
)

// Gate applies position sizing, minimum-order enforcement and
// stop-loss/take-profit margin checks before orders reach the exchange.
type Gate struct {
	cfg config.RiskConfig
}

// NewGate creates a gate with the given thresholds.
func NewGate(cfg config.RiskConfig) *Gate {
	return &Gate{cfg: cfg}
}

// Config returns the gate's thresholds.
func (g *Gate) Config() config.RiskConfig {
	return g.cfg
}

// BuyNotional sizes a buy from the available quote-currency balance.
// Policy for balances near the exchange minimum: a balance below the
// minimum aborts the buy; a fee-buffered notional that lands below the
// minimum while the balance still covers it is clamped up to the minimum.
func (g *Gate) BuyNotional(available float64) (float64, error) {
	if available < g.cfg.MinOrderNotional {
		return 0, fmt.Errorf("%w: %.0f < %.0f", ErrInsufficientFunds, available, g.cfg.MinOrderNotional)
	}
	notional := available * (1 - g.cfg.FeeBuffer)
	if notional < g.cfg.MinOrderNotional {
		notional = g.cfg.MinOrderNotional
	}
	return notional, nil
}

// Volume converts a notional into an order volume at the reference price,
// truncated to 8 decimal places (exchange precision limit).
func Volume(notional, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return math.Trunc(notional / price * 1e8) / 1e8
}

// Margin is the percentage price change from entry to current.
func Margin(entryPrice, currentPrice float64) float64 {
	if entryPrice == 0 {
		return 0
	}
	return (currentPrice - entryPrice) / entryPrice * 100
}

// SellContext carries the current cycle's signal concurrence used to relax
// the margin gates.
type SellContext struct {
	StrongSell  bool // two or more strategies currently voting SELL
	ExtremeSell bool // an extreme sell condition (deep RSI, wide bands)
}

// ShouldExit evaluates the stop-loss/take-profit margin gates for an open
// position. It returns whether to sell and a reason for the log line.
func (g *Gate) ShouldExit(entryPrice, currentPrice float64, sc SellContext) (bool, string) {
	margin := Margin(entryPrice, currentPrice)

	// The strong/extreme gates are inclusive: landing exactly on a
	// relaxed threshold while the signals concur still exits.
	sl := g.cfg.StopLoss
	switch {
	case margin < sl.Base:
		return true, fmt.Sprintf("stop-loss: margin %.2f%% below %.2f%%", margin, sl.Base)
	case margin <= sl.Strong && sc.StrongSell:
		return true, fmt.Sprintf("stop-loss: margin %.2f%% with strong sell", margin)
	case margin <= sl.Extreme && sc.ExtremeSell:
		return true, fmt.Sprintf("stop-loss: margin %.2f%% with extreme sell", margin)
	}

	tp := g.cfg.TakeProfit
	switch {
	case margin > tp.Base:
		return true, fmt.Sprintf("take-profit: margin %.2f%% above %.2f%%", margin, tp.Base)
	case margin >= tp.Strong && sc.StrongSell:
		return true, fmt.Sprintf("take-profit: margin %.2f%% with strong sell", margin)
	case margin >= tp.Extreme && sc.ExtremeSell:
		return true, fmt.Sprintf("take-profit: margin %.2f%% with extreme sell", margin)
	}

	return false, ""
}
