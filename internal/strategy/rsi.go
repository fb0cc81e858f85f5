package strategy

import (
	"context"
	"fmt"
	"log"

	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/config"
)

// RSI is a Relative Strength Index overbought/oversold strategy.
// BUY when RSI < oversold; SELL when RSI > overbought. When avg loss over
// the period is zero RS is undefined and RSI is treated as 100 (strongly
// overbought). SELL signals above the extreme bound carry StrengthExtreme.
type RSI struct {
	source            CandleSource
	period            int
	overbought        float64
	oversold          float64
	extremeOverbought float64
}

// NewRSI creates the strategy from config.
func NewRSI(source CandleSource, cfg config.RSIConfig) *RSI {
	return &RSI{
		source:            source,
		period:            cfg.Period,
		overbought:        cfg.Overbought,
		oversold:          cfg.Oversold,
		extremeOverbought: cfg.ExtremeOverbought,
	}
}

func (s *RSI) Name() string {
	return fmt.Sprintf("RSI_%d", s.period)
}

// SetThresholds applies adapted overbought/oversold bounds.
func (s *RSI) SetThresholds(t Thresholds) {
	if t.RSIOverbought > 0 {
		s.overbought = t.RSIOverbought
	}
	if t.RSIOversold > 0 {
		s.oversold = t.RSIOversold
	}
}

func (s *RSI) GenerateSignal(ctx context.Context, market string) (Signal, error) {
	candles, err := s.source.Candles(ctx, market, s.period+10)
	if err != nil {
		return hold(s.Name()), err
	}

	prices := closes(candles)
	if len(prices) < s.period+1 {
		log.Printf("strategy %s: %s has %d candles, need %d; holding",
			s.Name(), market, len(prices), s.period+1)
		return hold(s.Name()), nil
	}

	rsi := ComputeRSI(prices, s.period)
	price := prices[len(prices)-1]

	switch {
	case rsi < s.oversold:
		return Signal{Action: Buy, Price: price, Strategy: s.Name()}, nil
	case rsi > s.overbought:
		sig := Signal{Action: Sell, Price: price, Strategy: s.Name()}
		if rsi > s.extremeOverbought {
			sig.Strength = StrengthExtreme
		}
		return sig, nil
	}
	return hold(s.Name()), nil
}

// ComputeRSI calculates the RSI over the last `period` price deltas.
// RS = avg gain / avg loss; RSI = 100 - 100/(1+RS). avg loss of zero maps
// to RSI 100.
func ComputeRSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50
	}

	window := prices[len(prices)-period-1:]
	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}
