package engine

import (
	"math"

	"github.com/Seungyub-Jeon/upbit-dashboard/internal/strategy"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/config"
)

// volatilityWindow is how many recent prices feed the adapter; the price
// history itself holds historyCapacity entries.
const (
	volatilityWindow   = 10
	historyCapacity    = 30
	rsiAdaptStep       = 5.0
	bollingerAdaptStep = 0.2
)

// Volatility is the population standard deviation divided by the mean of
// the prices, as a percentage. Returns 0 for fewer than two prices.
func Volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	m := sum / float64(len(prices))
	if m == 0 {
		return 0
	}
	variance := 0.0
	for _, p := range prices {
		diff := p - m
		variance += diff * diff
	}
	return math.Sqrt(variance/float64(len(prices))) / m * 100
}

// Adapter retunes strategy thresholds per cycle from recent volatility:
// tight bounds when the market is jumpy, loose bounds when it is quiet,
// defaults in the mid band. Strategies receive the result through their
// typed SetThresholds hook each cycle, so the adaptation is stateless.
type Adapter struct {
	bands    config.VolatilityConfig
	defaults config.StrategiesConfig
}

func NewAdapter(bands config.VolatilityConfig, defaults config.StrategiesConfig) *Adapter {
	return &Adapter{bands: bands, defaults: defaults}
}

// ThresholdsFor maps a volatility percentage to the bounds to apply.
func (a *Adapter) ThresholdsFor(vol float64) strategy.Thresholds {
	rsi := a.defaults.RSI
	boll := a.defaults.Bollinger

	switch {
	case vol > a.bands.High:
		return strategy.Thresholds{
			RSIOverbought:   rsi.Overbought - rsiAdaptStep,
			RSIOversold:     rsi.Oversold + rsiAdaptStep,
			BollingerStdDev: boll.StdDev - bollingerAdaptStep,
		}
	case vol < a.bands.Low:
		return strategy.Thresholds{
			RSIOverbought:   rsi.Overbought + rsiAdaptStep,
			RSIOversold:     rsi.Oversold - rsiAdaptStep,
			BollingerStdDev: boll.StdDev + bollingerAdaptStep,
		}
	default:
		return strategy.Thresholds{
			RSIOverbought:   rsi.Overbought,
			RSIOversold:     rsi.Oversold,
			BollingerStdDev: boll.StdDev,
		}
	}
}

// priceHistory is a bounded FIFO of recent ticker prices.
type priceHistory struct {
	prices []float64
	cap    int
}

func newPriceHistory(capacity int) *priceHistory {
	return &priceHistory{cap: capacity}
}

func (h *priceHistory) Append(p float64) {
	h.prices = append(h.prices, p)
	if len(h.prices) > h.cap {
		h.prices = h.prices[1:]
	}
}

func (h *priceHistory) Len() int { return len(h.prices) }

// Last returns the most recent n prices (all of them when fewer exist).
func (h *priceHistory) Last(n int) []float64 {
	if len(h.prices) <= n {
		return h.prices
	}
	return h.prices[len(h.prices)-n:]
}

// Snapshot copies the full history for outside readers.
func (h *priceHistory) Snapshot() []float64 {
	out := make([]float64, len(h.prices))
	copy(out, h.prices)
	return out
}
