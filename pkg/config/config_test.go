package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Port != "8050" {
		t.Fatalf("Port=%q, expected 8050", cfg.Port)
	}
	if len(cfg.Markets) != 1 || cfg.Markets[0] != "KRW-BTC" {
		t.Fatalf("Markets=%v, expected [KRW-BTC]", cfg.Markets)
	}
	if cfg.CycleInterval != time.Minute {
		t.Fatalf("CycleInterval=%v, expected 1m", cfg.CycleInterval)
	}
	if cfg.Strategies.SMA.ShortWindow != 5 || cfg.Strategies.SMA.LongWindow != 20 {
		t.Fatalf("SMA=%+v, expected 5/20", cfg.Strategies.SMA)
	}
	if cfg.Risk.MinOrderNotional != 5000 || cfg.Risk.FeeBuffer != 0.0005 {
		t.Fatalf("Risk=%+v", cfg.Risk)
	}
	if cfg.Order.MaxAttempts != 3 || cfg.Order.RetryBackoff != time.Second {
		t.Fatalf("Order=%+v, expected 3 attempts / 1s backoff", cfg.Order)
	}
	if cfg.JournalEnabled {
		t.Fatalf("journal enabled by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MARKETS", "KRW-BTC, KRW-ETH")
	t.Setenv("INTERVAL_MINUTES", "5")
	t.Setenv("JOURNAL_ENABLED", "true")
	t.Setenv("JOURNAL_PATH", "/tmp/journal.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("Port=%q, expected 9000", cfg.Port)
	}
	if len(cfg.Markets) != 2 || cfg.Markets[1] != "KRW-ETH" {
		t.Fatalf("Markets=%v, expected [KRW-BTC KRW-ETH]", cfg.Markets)
	}
	if cfg.CycleInterval != 5*time.Minute {
		t.Fatalf("CycleInterval=%v, expected 5m", cfg.CycleInterval)
	}
	if !cfg.JournalEnabled || cfg.JournalPath != "/tmp/journal.db" {
		t.Fatalf("journal=(%t,%q)", cfg.JournalEnabled, cfg.JournalPath)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
markets: [KRW-ETH]
interval_minutes: 3
strategies:
  sma:
    short_window: 7
    long_window: 30
  rsi:
    period: 10
    overbought: 75
    oversold: 25
risk:
  fee_buffer: 0.001
  min_order_notional: 6000
  stop_loss:
    base: -1.5
    strong: -1.0
    extreme: -0.8
  take_profit:
    base: 3.0
    strong: 2.0
    extreme: 1.5
order:
  max_attempts: 5
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if len(cfg.Markets) != 1 || cfg.Markets[0] != "KRW-ETH" {
		t.Fatalf("Markets=%v", cfg.Markets)
	}
	if cfg.CycleInterval != 3*time.Minute {
		t.Fatalf("CycleInterval=%v, expected 3m", cfg.CycleInterval)
	}
	if cfg.Strategies.SMA.ShortWindow != 7 || cfg.Strategies.SMA.LongWindow != 30 {
		t.Fatalf("SMA=%+v, expected 7/30", cfg.Strategies.SMA)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Strategies.RSI.ExtremeOverbought != 85 {
		t.Fatalf("ExtremeOverbought=%v, expected default 85", cfg.Strategies.RSI.ExtremeOverbought)
	}
	if cfg.Strategies.Bollinger.Period != 20 {
		t.Fatalf("Bollinger=%+v, expected defaults", cfg.Strategies.Bollinger)
	}
	if cfg.Risk.MinOrderNotional != 6000 || cfg.Risk.StopLoss.Base != -1.5 {
		t.Fatalf("Risk=%+v", cfg.Risk)
	}
	if cfg.Order.MaxAttempts != 5 || cfg.Order.RetryBackoff != time.Second {
		t.Fatalf("Order=%+v, expected 5 attempts with default backoff", cfg.Order)
	}
}

func TestLoadPartialSectionsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
risk:
  min_order_notional: 6000
  fee_buffer: 0.001
volatility:
  high: 3.0
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Risk.MinOrderNotional != 6000 || cfg.Risk.FeeBuffer != 0.001 {
		t.Fatalf("Risk=%+v, expected overridden sizing", cfg.Risk)
	}
	if cfg.Risk.StopLoss != (MarginThresholds{Base: -1.0, Strong: -0.7, Extreme: -0.5}) {
		t.Fatalf("StopLoss=%+v, expected defaults", cfg.Risk.StopLoss)
	}
	if cfg.Risk.TakeProfit != (MarginThresholds{Base: 2.0, Strong: 1.5, Extreme: 1.0}) {
		t.Fatalf("TakeProfit=%+v, expected defaults", cfg.Risk.TakeProfit)
	}
	if cfg.Volatility.High != 3.0 || cfg.Volatility.Low != 0.5 {
		t.Fatalf("Volatility=%+v, expected high override with default low", cfg.Volatility)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "malformed market",
			doc:  "markets: [KRWBTC]",
		},
		{
			name: "sma windows inverted",
			doc: `
strategies:
  sma:
    short_window: 30
    long_window: 10
`,
		},
		{
			name: "rsi bounds inverted",
			doc: `
strategies:
  rsi:
    period: 14
    overbought: 30
    oversold: 70
`,
		},
		{
			name: "stop loss not negative",
			doc: `
risk:
  stop_loss:
    base: 1.0
    strong: -0.7
    extreme: -0.5
`,
		},
		{
			name: "take profit not positive",
			doc: `
risk:
  take_profit:
    base: 2.0
    strong: 1.5
    extreme: -1.0
`,
		},
		{
			name: "volatility bands inverted",
			doc: `
volatility:
  high: 0.4
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0o644); err != nil {
				t.Fatalf("write config file: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatalf("Load accepted invalid config")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Port != "8050" || len(cfg.Markets) != 1 {
		t.Fatalf("cfg=%+v, expected defaults", cfg)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" KRW-BTC ,KRW-ETH,, ")
	if len(got) != 2 || got[0] != "KRW-BTC" || got[1] != "KRW-ETH" {
		t.Fatalf("splitAndTrim=%v", got)
	}
}
