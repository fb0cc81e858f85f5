package engine

import "github.com/Seungyub-Jeon/upbit-dashboard/internal/strategy"

// Decision is the aggregated trade action for a market in one cycle.
type Decision struct {
	Action strategy.Action
	Votes  int     // concurring strategies
	Price  float64 // reference price
	Strong bool    // two or more concurring votes
	By     string  // strategy credited with the decision
}

// Aggregate combines one cycle's signals for a market into a decision.
//
// Two or more BUY votes with no open position make a strong BUY; two or
// more SELL votes with an open position make a strong SELL. Otherwise any
// single BUY (flat) or SELL (holding) wins. The position gates make the
// strong cases mutually exclusive and prevent duplicate entries or selling
// into a flat book.
func Aggregate(signals []strategy.Signal, positionOpen bool) Decision {
	var buys, sells []strategy.Signal
	for _, sig := range signals {
		switch sig.Action {
		case strategy.Buy:
			buys = append(buys, sig)
		case strategy.Sell:
			sells = append(sells, sig)
		}
	}

	if len(buys) >= 2 && !positionOpen {
		return Decision{
			Action: strategy.Buy, Votes: len(buys), Price: buys[0].Price,
			Strong: true, By: buys[0].Strategy,
		}
	}
	if len(sells) >= 2 && positionOpen {
		return Decision{
			Action: strategy.Sell, Votes: len(sells), Price: sells[0].Price,
			Strong: true, By: sells[0].Strategy,
		}
	}

	if len(buys) > 0 && !positionOpen {
		return Decision{Action: strategy.Buy, Votes: 1, Price: buys[0].Price, By: buys[0].Strategy}
	}
	if len(sells) > 0 && positionOpen {
		return Decision{Action: strategy.Sell, Votes: 1, Price: sells[0].Price, By: sells[0].Strategy}
	}

	return Decision{Action: strategy.Hold}
}

// sellConcurrence reports how many strategies voted SELL and whether any
// carried an extreme tag, for the margin gates.
func sellConcurrence(signals []strategy.Signal) (votes int, extreme bool) {
	for _, sig := range signals {
		if sig.Action == strategy.Sell {
			votes++
			if sig.Strength == strategy.StrengthExtreme {
				extreme = true
			}
		}
	}
	return votes, extreme
}
