package order

import (
	"context"
	"log"
	"time"

	"github.com/Seungyub-Jeon/upbit-dashboard/internal/events"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/risk"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/state"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/strategy"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/upbit"
)

// Gateway is the slice of the exchange client the executor needs.
type Gateway interface {
	Balance(ctx context.Context, currency string) (float64, error)
	PlaceOrder(ctx context.Context, req upbit.OrderRequest) (*upbit.OrderConfirmation, error)
}

// PositionBook records opened/closed positions. The production
// implementation (state.Manager) is optimistic: a position opens on order
// submission. Tests may substitute a fill-confirming variant.
type PositionBook interface {
	Open(market string, entryPrice, quantity float64)
	Close(market string) (state.Position, bool)
	Get(market string) (state.Position, bool)
}

// Journal receives successfully placed orders for dashboard history.
// A nil Journal disables recording.
type Journal interface {
	RecordOrder(ctx context.Context, entry JournalEntry) error
}

// JournalEntry is one placed order as shown on the dashboard.
type JournalEntry struct {
	UUID      string
	Market    string
	Side      string
	Price     float64
	Volume    float64
	Strategy  string
	CreatedAt time.Time
}

// Executor translates trade decisions into exchange orders with bounded
// retry and records resulting position state.
type Executor struct {
	Gateway Gateway
	Gate    *risk.Gate
	Book    PositionBook
	Bus     *events.Bus
	Journal Journal

	// Enabled is re-checked at call time: trading may be disabled between
	// decision and execution.
	Enabled func() bool

	MaxAttempts int
	Backoff     time.Duration
}

// ExecuteTrade places a buy or sell order for the market. A false return
// means no trade occurred; callers continue the cycle either way.
func (e *Executor) ExecuteTrade(ctx context.Context, market string, action strategy.Action, strategyName string, price float64) bool {
	if e.Enabled != nil && !e.Enabled() {
		log.Printf("executor: trading disabled, ignoring %s signal for %s from %s", action, market, strategyName)
		return false
	}
	if price <= 0 {
		log.Printf("executor: no reference price for %s, skipping %s", market, action)
		return false
	}

	switch action {
	case strategy.Buy:
		return e.buy(ctx, market, strategyName, price)
	case strategy.Sell:
		return e.sell(ctx, market, strategyName, price)
	default:
		return false
	}
}

func (e *Executor) buy(ctx context.Context, market, strategyName string, price float64) bool {
	if _, open := e.Book.Get(market); open {
		log.Printf("executor: %s already holds a position, ignoring BUY from %s", market, strategyName)
		return false
	}

	quote, _ := upbit.SplitMarket(market)

	// Balance can change between signal generation and placement, so it is
	// fetched here, immediately before submission.
	available, err := e.Gateway.Balance(ctx, quote)
	if err != nil {
		log.Printf("executor: balance lookup for %s failed: %v", quote, err)
		return false
	}

	notional, err := e.Gate.BuyNotional(available)
	if err != nil {
		log.Printf("executor: skipping BUY %s: %v", market, err)
		return false
	}

	volume := risk.Volume(notional, price)
	if volume <= 0 {
		log.Printf("executor: zero volume for %s at price %.2f, skipping", market, price)
		return false
	}

	conf := e.placeWithRetry(ctx, upbit.OrderRequest{
		Market: market,
		Side:   upbit.SideBid,
		Volume: volume,
		Price:  price,
		Type:   upbit.OrderTypeLimit,
	})
	if conf == nil {
		return false
	}

	e.Book.Open(market, price, volume)
	log.Printf("executor: BUY %s placed: volume=%.8f price=%.2f (signal from %s, order %s)",
		market, volume, price, strategyName, conf.UUID)
	e.record(ctx, conf, market, "bid", price, volume, strategyName)
	if e.Bus != nil {
		e.Bus.Publish(events.EventPositionOpened, market)
	}
	return true
}

func (e *Executor) sell(ctx context.Context, market, strategyName string, price float64) bool {
	_, base := upbit.SplitMarket(market)

	// Held balance, not the in-memory position quantity, is the source of
	// truth for how much to liquidate.
	balance, err := e.Gateway.Balance(ctx, base)
	if err != nil {
		log.Printf("executor: balance lookup for %s failed: %v", base, err)
		return false
	}
	if balance <= 0 {
		log.Printf("executor: cannot SELL %s: no %s balance", market, base)
		return false
	}

	conf := e.placeWithRetry(ctx, upbit.OrderRequest{
		Market: market,
		Side:   upbit.SideAsk,
		Volume: balance,
		Price:  price,
		Type:   upbit.OrderTypeLimit,
	})
	if conf == nil {
		return false
	}

	e.Book.Close(market)
	log.Printf("executor: SELL %s placed: volume=%.8f price=%.2f (signal from %s, order %s)",
		market, balance, price, strategyName, conf.UUID)
	e.record(ctx, conf, market, "ask", price, balance, strategyName)
	if e.Bus != nil {
		e.Bus.Publish(events.EventPositionClosed, market)
	}
	return true
}

// placeWithRetry submits an order, retrying transport failures up to
// MaxAttempts with a fixed backoff. A nil confirmation without error is an
// exchange rejection and is not retried.
func (e *Executor) placeWithRetry(ctx context.Context, req upbit.OrderRequest) *upbit.OrderConfirmation {
	attempts := e.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		conf, err := e.Gateway.PlaceOrder(ctx, req)
		if err == nil {
			if conf == nil {
				log.Printf("executor: %s %s rejected by exchange", req.Side, req.Market)
				if e.Bus != nil {
					e.Bus.Publish(events.EventOrderRejected, req.Market)
				}
				return nil
			}
			return conf
		}

		log.Printf("executor: %s %s attempt %d/%d failed: %v", req.Side, req.Market, attempt, attempts, err)
		if attempt < attempts {
			select {
			case <-time.After(e.Backoff):
			case <-ctx.Done():
				return nil
			}
		}
	}

	log.Printf("executor: %s %s gave up after %d attempts", req.Side, req.Market, attempts)
	return nil
}

func (e *Executor) record(ctx context.Context, conf *upbit.OrderConfirmation, market, side string, price, volume float64, strategyName string) {
	if e.Bus != nil {
		e.Bus.Publish(events.EventOrderPlaced, JournalEntry{
			UUID: conf.UUID, Market: market, Side: side,
			Price: price, Volume: volume, Strategy: strategyName, CreatedAt: time.Now(),
		})
	}
	if e.Journal == nil {
		return
	}
	err := e.Journal.RecordOrder(ctx, JournalEntry{
		UUID: conf.UUID, Market: market, Side: side,
		Price: price, Volume: volume, Strategy: strategyName, CreatedAt: time.Now(),
	})
	if err != nil {
		log.Printf("executor: journal write failed: %v", err)
	}
}
