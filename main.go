package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Seungyub-Jeon/upbit-dashboard/internal/api"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/engine"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/events"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/monitor"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/order"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/risk"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/state"
	"github.com/Seungyub-Jeon/upbit-dashboard/internal/strategy"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/config"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/db"
	"github.com/Seungyub-Jeon/upbit-dashboard/pkg/upbit"
)

// journalRecorder bridges the SQLite journal into the order executor.
type journalRecorder struct {
	journal *db.Journal
}

func (r *journalRecorder) RecordOrder(ctx context.Context, entry order.JournalEntry) error {
	return r.journal.Record(ctx, db.Trade{
		UUID:      entry.UUID,
		Market:    entry.Market,
		Side:      entry.Side,
		Price:     entry.Price,
		Volume:    entry.Volume,
		Strategy:  entry.Strategy,
		CreatedAt: entry.CreatedAt,
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	log.Printf("starting trading core on port %s, markets %v, interval %s",
		cfg.Port, cfg.Markets, cfg.CycleInterval)

	if cfg.UpbitAccessKey == "" || cfg.UpbitSecretKey == "" {
		log.Fatalf("UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY are required")
	}

	buildVersion := os.Getenv("APP_VERSION")
	if buildVersion == "" {
		buildVersion = "v1.0-dev"
	}

	// Core services
	bus := events.NewBus()
	metrics := monitor.New()
	client := upbit.NewClient(cfg.UpbitAccessKey, cfg.UpbitSecretKey)
	book := state.NewManager()
	gate := risk.NewGate(cfg.Risk)

	// Optional write-only order journal for the dashboard
	var journal *db.Journal
	if cfg.JournalEnabled {
		journal, err = db.Open(cfg.JournalPath)
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		defer journal.Close()
		log.Printf("order journal enabled at %s", cfg.JournalPath)
	}

	eng := buildEngine(cfg, client, gate, book, bus, metrics, journal)

	// Strategies per market
	for _, market := range cfg.Markets {
		eng.RegisterStrategy(market, strategy.NewSMACross(client, cfg.Strategies.SMA))
		eng.RegisterStrategy(market, strategy.NewRSI(client, cfg.Strategies.RSI))
		eng.RegisterStrategy(market, strategy.NewBollinger(client, cfg.Strategies.Bollinger))
	}

	// Engine loop runs from boot; trading stays off until /api/trading/start.
	eng.StartEngine()

	server := api.NewServer(eng, bus, journal, metrics, api.SystemMeta{
		Markets:  cfg.Markets,
		Interval: cfg.CycleInterval,
		Version:  buildVersion,
	})
	go func() {
		if err := server.Start(":" + cfg.Port); err != nil {
			log.Fatalf("api server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("shutting down...")
	eng.Shutdown()
}

func buildEngine(cfg *config.Config, client *upbit.Client, gate *risk.Gate, book *state.Manager, bus *events.Bus, metrics *monitor.Metrics, journal *db.Journal) *engine.Engine {
	exec := &order.Executor{
		Gateway:     client,
		Gate:        gate,
		Book:        book,
		Bus:         bus,
		MaxAttempts: cfg.Order.MaxAttempts,
		Backoff:     cfg.Order.RetryBackoff,
	}
	if journal != nil {
		exec.Journal = &journalRecorder{journal: journal}
	}

	eng := engine.New(engine.Config{
		Gateway:  client,
		Executor: exec,
		Gate:     gate,
		Adapter:  engine.NewAdapter(cfg.Volatility, cfg.Strategies),
		Book:     book,
		Bus:      bus,
		Metrics:  metrics,
		Markets:  cfg.Markets,
		Interval: cfg.CycleInterval,
	})
	exec.Enabled = eng.TradingEnabled
	return eng
}
