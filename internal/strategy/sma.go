package strategy

import (
	"context"
	"fmt"
	"log"

	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/config"
)

// SMACross is a simple moving average crossover strategy.
// BUY when the short mean transitions from at-or-below to above the long
// mean (golden cross); SELL on the opposite transition (death cross). A
// level relation without a transition is a HOLD, so each true crossover
// fires exactly once.
type SMACross struct {
	source      CandleSource
	shortWindow int
	longWindow  int
}

// NewSMACross creates the strategy from config.
func NewSMACross(source CandleSource, cfg config.SMAConfig) *SMACross {
	return &SMACross{
		source:      source,
		shortWindow: cfg.ShortWindow,
		longWindow:  cfg.LongWindow,
	}
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("SMA_%d_%d", s.shortWindow, s.longWindow)
}

// SetThresholds is a no-op; crossover windows are not volatility-adapted.
func (s *SMACross) SetThresholds(Thresholds) {}

func (s *SMACross) GenerateSignal(ctx context.Context, market string) (Signal, error) {
	// One extra candle so the previous cycle's means are computable.
	candles, err := s.source.Candles(ctx, market, s.longWindow+10)
	if err != nil {
		return hold(s.Name()), err
	}

	prices := closes(candles)
	if len(prices) < s.longWindow+1 {
		log.Printf("strategy %s: %s has %d candles, need %d; holding",
			s.Name(), market, len(prices), s.longWindow+1)
		return hold(s.Name()), nil
	}

	curShort := mean(prices, s.shortWindow)
	curLong := mean(prices, s.longWindow)
	prev := prices[:len(prices)-1]
	prevShort := mean(prev, s.shortWindow)
	prevLong := mean(prev, s.longWindow)

	price := prices[len(prices)-1]

	if prevShort <= prevLong && curShort > curLong {
		return Signal{Action: Buy, Price: price, Strategy: s.Name()}, nil
	}
	if prevShort >= prevLong && curShort < curLong {
		return Signal{Action: Sell, Price: price, Strategy: s.Name()}, nil
	}
	return hold(s.Name()), nil
}
