package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all settings for the trading bot. Secrets come from the
// environment (optionally via .env); tunables come from a YAML file with
// sane defaults when the file is absent.
type Config struct {
	Port string

	// Upbit
	UpbitAccessKey string
	UpbitSecretKey string

	Markets       []string
	CycleInterval time.Duration

	Strategies StrategiesConfig
	Risk       RiskConfig
	Volatility VolatilityConfig
	Order      OrderConfig

	// Journal (optional order history for the dashboard)
	JournalEnabled bool
	JournalPath    string
}

// StrategiesConfig groups per-strategy parameters.
type StrategiesConfig struct {
	SMA       SMAConfig       `yaml:"sma"`
	RSI       RSIConfig       `yaml:"rsi"`
	Bollinger BollingerConfig `yaml:"bollinger"`
}

type SMAConfig struct {
	ShortWindow int `yaml:"short_window"`
	LongWindow  int `yaml:"long_window"`
}

type RSIConfig struct {
	Period            int     `yaml:"period"`
	Overbought        float64 `yaml:"overbought"`
	Oversold          float64 `yaml:"oversold"`
	ExtremeOverbought float64 `yaml:"extreme_overbought"`
}

type BollingerConfig struct {
	Period           int     `yaml:"period"`
	StdDev           float64 `yaml:"std_dev"`
	ExtremeBandWidth float64 `yaml:"extreme_band_width"`
}

// RiskConfig carries sizing and margin-gate thresholds. Margin thresholds
// are percentages relative to the entry price.
type RiskConfig struct {
	FeeBuffer        float64          `yaml:"fee_buffer"`
	MinOrderNotional float64          `yaml:"min_order_notional"`
	StopLoss         MarginThresholds `yaml:"stop_loss"`
	TakeProfit       MarginThresholds `yaml:"take_profit"`
}

type MarginThresholds struct {
	Base    float64 `yaml:"base"`
	Strong  float64 `yaml:"strong"`
	Extreme float64 `yaml:"extreme"`
}

// VolatilityConfig bounds the adaptive-threshold bands (volatility is
// stddev/mean of recent prices, as a percentage).
type VolatilityConfig struct {
	High float64 `yaml:"high"`
	Low  float64 `yaml:"low"`
}

type OrderConfig struct {
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// fileConfig mirrors the YAML document shape.
type fileConfig struct {
	Markets         []string         `yaml:"markets"`
	IntervalMinutes int              `yaml:"interval_minutes"`
	Strategies      StrategiesConfig `yaml:"strategies"`
	Risk            RiskConfig       `yaml:"risk"`
	Volatility      VolatilityConfig `yaml:"volatility"`
	Order           OrderConfig      `yaml:"order"`
}

// Default returns the canonical configuration used when no YAML file
// overrides it.
func Default() *Config {
	return &Config{
		Port:          "8050",
		Markets:       []string{"KRW-BTC"},
		CycleInterval: time.Minute,
		Strategies: StrategiesConfig{
			SMA:       SMAConfig{ShortWindow: 5, LongWindow: 20},
			RSI:       RSIConfig{Period: 14, Overbought: 70, Oversold: 30, ExtremeOverbought: 85},
			Bollinger: BollingerConfig{Period: 20, StdDev: 2.0, ExtremeBandWidth: 0.05},
		},
		Risk: RiskConfig{
			FeeBuffer:        0.0005,
			MinOrderNotional: 5000,
			StopLoss:         MarginThresholds{Base: -1.0, Strong: -0.7, Extreme: -0.5},
			TakeProfit:       MarginThresholds{Base: 2.0, Strong: 1.5, Extreme: 1.0},
		},
		Volatility:  VolatilityConfig{High: 2.0, Low: 0.5},
		Order:       OrderConfig{MaxAttempts: 3, RetryBackoff: time.Second},
		JournalPath: "./data/trading.db",
	}
}

// Load reads environment variables (optionally via .env) and the YAML file
// at path (skipped when path is empty or missing) into a Config.
func Load(path string) (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(raw, &fc); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
			applyFile(cfg, fc)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.UpbitAccessKey = os.Getenv("UPBIT_ACCESS_KEY")
	cfg.UpbitSecretKey = os.Getenv("UPBIT_SECRET_KEY")
	if v := getEnv("MARKETS", ""); v != "" {
		cfg.Markets = splitAndTrim(v)
	}
	if n := getEnvInt("INTERVAL_MINUTES", 0); n > 0 {
		cfg.CycleInterval = time.Duration(n) * time.Minute
	}
	cfg.JournalEnabled = getEnv("JOURNAL_ENABLED", "false") == "true"
	cfg.JournalPath = getEnv("JOURNAL_PATH", cfg.JournalPath)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, fc fileConfig) {
	if len(fc.Markets) > 0 {
		cfg.Markets = fc.Markets
	}
	if fc.IntervalMinutes > 0 {
		cfg.CycleInterval = time.Duration(fc.IntervalMinutes) * time.Minute
	}
	if fc.Strategies.SMA.LongWindow > 0 {
		cfg.Strategies.SMA = fc.Strategies.SMA
	}
	if fc.Strategies.RSI.Period > 0 {
		if fc.Strategies.RSI.ExtremeOverbought == 0 {
			fc.Strategies.RSI.ExtremeOverbought = cfg.Strategies.RSI.ExtremeOverbought
		}
		cfg.Strategies.RSI = fc.Strategies.RSI
	}
	if fc.Strategies.Bollinger.Period > 0 {
		if fc.Strategies.Bollinger.ExtremeBandWidth == 0 {
			fc.Strategies.Bollinger.ExtremeBandWidth = cfg.Strategies.Bollinger.ExtremeBandWidth
		}
		cfg.Strategies.Bollinger = fc.Strategies.Bollinger
	}
	// Risk and volatility merge per field so a partial section keeps the
	// defaults for everything it leaves out.
	if fc.Risk.FeeBuffer > 0 {
		cfg.Risk.FeeBuffer = fc.Risk.FeeBuffer
	}
	if fc.Risk.MinOrderNotional > 0 {
		cfg.Risk.MinOrderNotional = fc.Risk.MinOrderNotional
	}
	if fc.Risk.StopLoss != (MarginThresholds{}) {
		cfg.Risk.StopLoss = fc.Risk.StopLoss
	}
	if fc.Risk.TakeProfit != (MarginThresholds{}) {
		cfg.Risk.TakeProfit = fc.Risk.TakeProfit
	}
	if fc.Volatility.High > 0 {
		cfg.Volatility.High = fc.Volatility.High
	}
	if fc.Volatility.Low > 0 {
		cfg.Volatility.Low = fc.Volatility.Low
	}
	if fc.Order.MaxAttempts > 0 {
		cfg.Order = fc.Order
		if cfg.Order.RetryBackoff <= 0 {
			cfg.Order.RetryBackoff = time.Second
		}
	}
}

func (c *Config) validate() error {
	if len(c.Markets) == 0 {
		return fmt.Errorf("config: at least one market required")
	}
	for _, m := range c.Markets {
		if !strings.Contains(m, "-") {
			return fmt.Errorf("config: malformed market %q (want QUOTE-BASE, e.g. KRW-BTC)", m)
		}
	}
	if c.Strategies.SMA.ShortWindow >= c.Strategies.SMA.LongWindow {
		return fmt.Errorf("config: sma short_window must be less than long_window")
	}
	if c.Strategies.RSI.Oversold >= c.Strategies.RSI.Overbought {
		return fmt.Errorf("config: rsi oversold must be less than overbought")
	}
	if c.Order.MaxAttempts <= 0 {
		return fmt.Errorf("config: order max_attempts must be positive")
	}
	if c.Risk.StopLoss.Base >= 0 || c.Risk.StopLoss.Strong >= 0 || c.Risk.StopLoss.Extreme >= 0 {
		return fmt.Errorf("config: stop_loss thresholds must be negative")
	}
	if c.Risk.TakeProfit.Base <= 0 || c.Risk.TakeProfit.Strong <= 0 || c.Risk.TakeProfit.Extreme <= 0 {
		return fmt.Errorf("config: take_profit thresholds must be positive")
	}
	if c.Volatility.Low >= c.Volatility.High {
		return fmt.Errorf("config: volatility low must be less than high")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func splitAndTrim(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
