package strategy

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/config"
)

// Bollinger is a Bollinger Bands mean-reversion strategy.
// BUY when the close drops below the lower band; SELL when it rises above
// the upper band. The band-width ratio and %B are derived as auxiliary
// strength indicators; a SELL with band-width ratio above the extreme bound
// carries StrengthExtreme.
type Bollinger struct {
	source           CandleSource
	period           int
	stdDev           float64
	extremeBandWidth float64
}

// Bands holds one cycle's computed band values.
type Bands struct {
	Middle    float64
	Upper     float64
	Lower     float64
	BandWidth float64 // (upper - lower) / middle
	PercentB  float64 // price position within the bands
}

// NewBollinger creates the strategy from config.
func NewBollinger(source CandleSource, cfg config.BollingerConfig) *Bollinger {
	return &Bollinger{
		source:           source,
		period:           cfg.Period,
		stdDev:           cfg.StdDev,
		extremeBandWidth: cfg.ExtremeBandWidth,
	}
}

func (s *Bollinger) Name() string {
	return fmt.Sprintf("Bollinger_%d_%.1f", s.period, s.stdDev)
}

// SetThresholds applies an adapted standard-deviation multiplier.
func (s *Bollinger) SetThresholds(t Thresholds) {
	if t.BollingerStdDev > 0 {
		s.stdDev = t.BollingerStdDev
	}
}

func (s *Bollinger) GenerateSignal(ctx context.Context, market string) (Signal, error) {
	candles, err := s.source.Candles(ctx, market, s.period+10)
	if err != nil {
		return hold(s.Name()), err
	}

	prices := closes(candles)
	if len(prices) < s.period {
		log.Printf("strategy %s: %s has %d candles, need %d; holding",
			s.Name(), market, len(prices), s.period)
		return hold(s.Name()), nil
	}

	price := prices[len(prices)-1]
	bands := ComputeBands(prices, s.period, s.stdDev, price)

	switch {
	case price < bands.Lower:
		return Signal{Action: Buy, Price: price, Strategy: s.Name()}, nil
	case price > bands.Upper:
		sig := Signal{Action: Sell, Price: price, Strategy: s.Name()}
		if bands.BandWidth > s.extremeBandWidth {
			sig.Strength = StrengthExtreme
		}
		return sig, nil
	}
	return hold(s.Name()), nil
}

// ComputeBands calculates Bollinger Bands over the last `period` closes.
// Middle = SMA(period); half-width = multiplier x population std dev.
func ComputeBands(prices []float64, period int, multiplier, price float64) Bands {
	window := prices[len(prices)-period:]
	middle := mean(window, period)

	variance := 0.0
	for _, p := range window {
		diff := p - middle
		variance += diff * diff
	}
	std := math.Sqrt(variance / float64(period))

	b := Bands{
		Middle: middle,
		Upper:  middle + multiplier*std,
		Lower:  middle - multiplier*std,
	}
	if b.Middle != 0 {
		b.BandWidth = (b.Upper - b.Lower) / b.Middle
	}
	if width := b.Upper - b.Lower; width != 0 {
		b.PercentB = (price - b.Lower) / width
	}
	return b
}
