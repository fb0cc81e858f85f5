package strategy

import (
	"context"

	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/upbit"
)

// Action is a strategy's directional vote for one cycle.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// Strength is an optional qualitative tag carried by a signal. Extreme
// marks conditions (deep RSI, wide Bollinger bands) that tighten the
// stop-loss/take-profit margin gates.
type Strength string

const (
	StrengthNone    Strength = ""
	StrengthExtreme Strength = "extreme"
)

// Signal is one strategy's vote for one market in one cycle. Created fresh
// each evaluation; never persisted.
type Signal struct {
	Action   Action
	Price    float64
	Strategy string
	Strength Strength
}

// Thresholds carries the bounds the volatility adapter may retune per
// cycle. Zero fields leave the corresponding strategy untouched.
type Thresholds struct {
	RSIOverbought   float64
	RSIOversold     float64
	BollingerStdDev float64
}

// CandleSource provides recent minute candles, ascending by time. Each
// strategy fetches its own window every cycle; calls are rate-limited by
// the fixed cycle interval, so no shared cache is kept.
type CandleSource interface {
	Candles(ctx context.Context, market string, count int) ([]upbit.Candle, error)
}

// Strategy generates one directional signal per market per cycle.
// Implementations are driven from the single scheduler goroutine; they are
// not safe for concurrent use.
type Strategy interface {
	Name() string
	GenerateSignal(ctx context.Context, market string) (Signal, error)
	// SetThresholds applies adapted bounds; strategies ignore fields that
	// do not concern them.
	SetThresholds(t Thresholds)
}

// hold is the no-signal result every strategy falls back to.
func hold(name string) Signal {
	return Signal{Action: Hold, Strategy: name}
}

// closes extracts closing prices from a candle window.
func closes(candles []upbit.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// mean computes the simple average of the last n values of prices.
// Returns 0 when fewer than n values exist.
func mean(prices []float64, n int) float64 {
	if n <= 0 || len(prices) < n {
		return 0
	}
	sum := 0.0
	for _, p := range prices[len(prices)-n:] {
		sum += p
	}
	return sum / float64(n)
}
