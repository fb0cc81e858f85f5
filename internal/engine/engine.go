package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Seungyub-Jeon/upbit-dashboard/internal/events"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/monitor"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/risk"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/state"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/strategy"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/upbit"
)

// Status is the externally visible engine state.
type Status string

const (
	StatusStopped        Status = "STOPPED"
	StatusRunningNoTrade Status = "RUNNING_NO_TRADE"
	StatusTrading        Status = "TRADING"
)

// fallbackSleep separates retries after an unexpected cycle failure.
const fallbackSleep = 10 * time.Second

// shutdownTimeout bounds how long Shutdown waits for the loop to exit.
const shutdownTimeout = 10 * time.Second

// Gateway is the slice of the exchange client the scheduler needs.
type Gateway interface {
	Ticker(ctx context.Context, market string) (float64, error)
	Balance(ctx context.Context, currency string) (float64, error)
	AvgBuyPrice(ctx context.Context, currency string) (float64, bool, error)
}

// TradeExecutor turns decisions into orders; false means no trade occurred.
type TradeExecutor interface {
	ExecuteTrade(ctx context.Context, market string, action strategy.Action, strategyName string, price float64) bool
}

// Engine owns the trading run loop: one background goroutine cycles over
// the configured markets, collects strategy signals, aggregates them,
// applies the risk gate and hands decisions to the executor. Control calls
// (Start/Stop/Status) arrive from other goroutines; one mutex guards the
// whole engine state.
type Engine struct {
	gateway  Gateway
	executor TradeExecutor
	gate     *risk.Gate
	adapter  *Adapter
	book     *state.Manager
	bus      *events.Bus
	metrics  *monitor.Metrics

	markets  []string
	interval time.Duration

	mu             sync.Mutex
	running        bool
	tradingEnabled bool
	strategies     map[string][]strategy.Strategy
	history        map[string]*priceHistory
	cancel         context.CancelFunc
	done           chan struct{}
}

// Config wires an Engine.
type Config struct {
	Gateway  Gateway
	Executor TradeExecutor
	Gate     *risk.Gate
	Adapter  *Adapter
	Book     *state.Manager
	Bus      *events.Bus
	Metrics  *monitor.Metrics
	Markets  []string
	Interval time.Duration
}

func New(cfg Config) *Engine {
	e := &Engine{
		gateway:    cfg.Gateway,
		executor:   cfg.Executor,
		gate:       cfg.Gate,
		adapter:    cfg.Adapter,
		book:       cfg.Book,
		bus:        cfg.Bus,
		metrics:    cfg.Metrics,
		markets:    cfg.Markets,
		interval:   cfg.Interval,
		strategies: make(map[string][]strategy.Strategy),
		history:    make(map[string]*priceHistory),
	}
	for _, m := range cfg.Markets {
		e.history[m] = newPriceHistory(historyCapacity)
	}
	return e
}

// RegisterStrategy adds a strategy for a market; call before Start.
func (e *Engine) RegisterStrategy(market string, s strategy.Strategy) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.strategies[market] = append(e.strategies[market], s)
	log.Printf("engine: registered %s for %s", s.Name(), market)
}

// Start enables trading. Idempotent: when the loop is already running it
// only flips signal execution back on; when stopped it also launches the
// background loop.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.tradingEnabled = true
	if !e.running {
		e.startLoopLocked()
		log.Printf("engine: started, trading enabled (interval %s)", e.interval)
	} else {
		log.Printf("engine: signal execution re-enabled")
	}
	e.publishStatusLocked()
}

// Stop suppresses signal execution. The background loop keeps cycling
// (price history and signals continue) but no orders are placed; use
// Shutdown to terminate the loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.tradingEnabled {
		log.Printf("engine: trading already stopped")
		return
	}
	e.tradingEnabled = false
	log.Printf("engine: trading stopped, new signals will be ignored")
	e.publishStatusLocked()
}

// StartEngine launches the background loop without enabling trading.
func (e *Engine) StartEngine() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		log.Printf("engine: already running")
		return
	}
	e.startLoopLocked()
	e.publishStatusLocked()
}

func (e *Engine) startLoopLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})
	e.running = true
	e.recoverPositions(ctx)
	go e.run(ctx, e.done)
}

// Shutdown terminates the background loop, waiting up to shutdownTimeout
// for the current cycle to finish before giving up.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.tradingEnabled = false
	e.running = false
	cancel := e.cancel
	done := e.done
	e.mu.Unlock()

	cancel()
	select {
	case <-done:
		log.Printf("engine: stopped")
	case <-time.After(shutdownTimeout):
		log.Printf("engine: shutdown timed out after %s, proceeding", shutdownTimeout)
	}
	e.publishStatus()
}

// Status reports the current lifecycle state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case !e.running:
		return StatusStopped
	case e.tradingEnabled:
		return StatusTrading
	default:
		return StatusRunningNoTrade
	}
}

// TradingEnabled is re-checked by the order executor at call time.
func (e *Engine) TradingEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tradingEnabled
}

// Positions returns a snapshot of open positions for the dashboard.
func (e *Engine) Positions() []state.Position {
	return e.book.All()
}

// PriceHistory returns the bounded recent-price window for a market.
func (e *Engine) PriceHistory(market string) []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.history[market]
	if !ok {
		return nil
	}
	return h.Snapshot()
}

// Markets lists the configured markets in processing order.
func (e *Engine) Markets() []string {
	return e.markets
}

// recoverPositions seeds the position book from exchange balances so a
// restart does not forget an open position. Best effort: failures leave
// the book empty and the next sell signal still liquidates by balance.
func (e *Engine) recoverPositions(ctx context.Context) {
	for _, market := range e.markets {
		_, base := upbit.SplitMarket(market)
		bal, err := e.gateway.Balance(ctx, base)
		if err != nil || bal <= 0 {
			continue
		}
		avg, ok, err := e.gateway.AvgBuyPrice(ctx, base)
		if err != nil || !ok || avg <= 0 {
			continue
		}
		e.book.Open(market, avg, bal)
		log.Printf("engine: recovered position %s: %.8f @ %.2f", market, bal, avg)
	}
}

// run is the scheduler loop. It never terminates itself on a transient
// error: cycle failures are logged and followed by a fallback sleep.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	log.Printf("engine: loop started for markets %v", e.markets)

	for {
		if ctx.Err() != nil {
			return
		}

		if err := e.cycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("engine: cycle error: %v", err)
			if e.metrics != nil {
				e.metrics.IncErrors()
			}
			if !sleep(ctx, fallbackSleep) {
				return
			}
			continue
		}

		if !sleep(ctx, e.interval) {
			return
		}
	}
}

// cycle processes every configured market once, sequentially. Per-market
// failures are contained; only a panic escapes as the returned error.
func (e *Engine) cycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in cycle: %v", r)
		}
	}()

	if e.metrics != nil {
		e.metrics.IncCycles()
	}

	for _, market := range e.markets {
		if ctx.Err() != nil {
			return nil
		}
		e.processMarket(ctx, market)
	}
	return nil
}

func (e *Engine) processMarket(ctx context.Context, market string) {
	price, err := e.gateway.Ticker(ctx, market)
	if err != nil {
		log.Printf("engine: %s ticker unavailable, skipping cycle: %v", market, err)
		if e.metrics != nil {
			e.metrics.IncErrors()
		}
		return
	}

	e.mu.Lock()
	hist := e.history[market]
	if hist == nil {
		hist = newPriceHistory(historyCapacity)
		e.history[market] = hist
	}
	hist.Append(price)
	strategies := e.strategies[market]
	var thresholds strategy.Thresholds
	adapt := hist.Len() >= volatilityWindow
	if adapt {
		vol := Volatility(hist.Last(volatilityWindow))
		thresholds = e.adapter.ThresholdsFor(vol)
	}
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.IncTicks()
	}
	if e.bus != nil {
		e.bus.Publish(events.EventPriceTick, events.PriceTick{Market: market, Price: price})
	}

	if len(strategies) == 0 {
		return
	}
	if adapt {
		for _, s := range strategies {
			s.SetThresholds(thresholds)
		}
	}

	signals := make([]strategy.Signal, 0, len(strategies))
	for _, s := range strategies {
		sig, err := s.GenerateSignal(ctx, market)
		if err != nil {
			log.Printf("engine: %s on %s failed: %v", s.Name(), market, err)
			if e.metrics != nil {
				e.metrics.IncErrors()
			}
			continue
		}
		signals = append(signals, sig)
		if sig.Action != strategy.Hold {
			if e.metrics != nil {
				e.metrics.IncSignals()
			}
			if e.bus != nil {
				e.bus.Publish(events.EventStrategySignal, sig)
			}
			log.Printf("engine: %s signal %s for %s at %.2f", sig.Strategy, sig.Action, market, sig.Price)
		}
	}

	pos, positionOpen := e.book.Get(market)
	sellVotes, extreme := sellConcurrence(signals)

	// Margin gates run against the live price every cycle, independent of
	// the vote outcome.
	if positionOpen {
		exit, reason := e.gate.ShouldExit(pos.EntryPrice, price, risk.SellContext{
			StrongSell:  sellVotes >= 2,
			ExtremeSell: extreme,
		})
		if exit {
			log.Printf("engine: %s exit triggered: %s", market, reason)
			if e.executeTrade(ctx, market, strategy.Sell, reason, price) {
				return
			}
		}
	}

	decision := Aggregate(signals, positionOpen)
	if decision.Action == strategy.Hold {
		return
	}
	if decision.Price <= 0 {
		decision.Price = price
	}
	log.Printf("engine: decision %s for %s (votes=%d strong=%t by=%s)",
		decision.Action, market, decision.Votes, decision.Strong, decision.By)
	e.executeTrade(ctx, market, decision.Action, decision.By, decision.Price)
}

func (e *Engine) executeTrade(ctx context.Context, market string, action strategy.Action, by string, price float64) bool {
	if !e.TradingEnabled() {
		log.Printf("engine: trading disabled, ignoring %s for %s", action, market)
		return false
	}
	ok := e.executor.ExecuteTrade(ctx, market, action, by, price)
	if ok && e.metrics != nil {
		e.metrics.IncOrders()
	}
	return ok
}

func (e *Engine) publishStatus() {
	if e.bus != nil {
		e.bus.Publish(events.EventEngineStatus, string(e.Status()))
	}
}

func (e *Engine) publishStatusLocked() {
	if e.bus == nil {
		return
	}
	status := StatusStopped
	switch {
	case e.running && e.tradingEnabled:
		status = StatusTrading
	case e.running:
		status = StatusRunningNoTrade
	}
	e.bus.Publish(events.EventEngineStatus, string(status))
}

// sleep waits for d or until ctx is cancelled; false means cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
