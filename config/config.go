package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full bot configuration.
type Config struct {
	Engine    EngineConfig    `yaml:"engine"`
	Chains    ChainsConfig    `yaml:"chains"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Risk      RiskConfig      `yaml:"risk"`
	Execution ExecutionConfig `yaml:"execution"`
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Log       LogConfig       `yaml:"log"`
}

// EngineConfig controls the two loops and the operating mode.
type EngineConfig struct {
	Mode                   string `yaml:"mode"` // READ_ONLY | PAPER | LIVE
	ScanIntervalSeconds    int    `yaml:"scan_interval_seconds"`
	MonitorIntervalSeconds int    `yaml:"monitor_interval_seconds"`
	LookbackCandles        int    `yaml:"lookback_candles"`
	DiscoverPairsPerChain  int    `yaml:"discover_pairs_per_chain"`
}

// ChainsConfig enables chains and seeds their paper balances.
type ChainsConfig struct {
	Enabled           []string `yaml:"enabled"`
	InitialBalanceUSD float64  `yaml:"initial_balance_usd"` // per chain, paper mode
}

// StrategyConfig holds the entry rules and exit targets.
type StrategyConfig struct {
	VolumeMultiplier      float64 `yaml:"volume_multiplier"`
	MinPriceChangePct     float64 `yaml:"min_price_change_pct"`
	MinLiquidityUSD       float64 `yaml:"min_liquidity_usd"`
	MinVolume24hUSD       float64 `yaml:"min_volume_24h_usd"`
	CandleIntervalSeconds int     `yaml:"candle_interval_seconds"`
	TakeProfitMult        float64 `yaml:"take_profit_mult"`
	StopLossPct           float64 `yaml:"stop_loss_pct"`
	MaxHoldMinutes        int     `yaml:"max_hold_minutes"`
}

// RiskConfig holds the per-day limits.
type RiskConfig struct {
	MaxTradesPerDay int     `yaml:"max_trades_per_day"`
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct"`
	MaxDrawdownPct  float64 `yaml:"max_drawdown_pct"`
}

// ExecutionConfig drives the retry wrapper and paper fault injection.
type ExecutionConfig struct {
	MaxRetries           int     `yaml:"max_retries"`
	RetryBaseDelayMs     int     `yaml:"retry_base_delay_ms"`
	SlippageTolerancePct float64 `yaml:"slippage_tolerance_pct"` // live mode minOut guard
	PaperFailureProb     float64 `yaml:"paper_failure_prob"`     // simulated tx failure rate
}

// APIConfig holds the external service base URLs. Empty values use
// production endpoints.
type APIConfig struct {
	DexScreenerBase string `yaml:"dexscreener_base"`
	HoneypotBase    string `yaml:"honeypot_base"`
	SafetyChecks    bool   `yaml:"safety_checks"`
}

// StorageConfig controls persistence.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file and the .env file if present. Environment
// variables override YAML for the keys they cover.
func Load(path string) (*Config, error) {
	// Load .env if present; its absence is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// ScanInterval returns the scan loop cadence.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Engine.ScanIntervalSeconds) * time.Second
}

// MonitorInterval returns the position-monitor cadence.
func (c *Config) MonitorInterval() time.Duration {
	return time.Duration(c.Engine.MonitorIntervalSeconds) * time.Second
}

// CandleInterval returns the aggregation bucket width.
func (c *Config) CandleInterval() time.Duration {
	return time.Duration(c.Strategy.CandleIntervalSeconds) * time.Second
}

// MaxHold returns the hard position-hold deadline.
func (c *Config) MaxHold() time.Duration {
	return time.Duration(c.Strategy.MaxHoldMinutes) * time.Minute
}

// RetryBaseDelay returns the first retry backoff step.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.Execution.RetryBaseDelayMs) * time.Millisecond
}

// applyEnvOverrides overrides values from environment variables when set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_MODE"); v != "" {
		cfg.Engine.Mode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("INITIAL_BALANCE_USD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Chains.InitialBalanceUSD = f
		}
	}
}

// setDefaults fills in anything the YAML left out.
func setDefaults(cfg *Config) {
	if cfg.Engine.Mode == "" {
		cfg.Engine.Mode = "PAPER"
	}
	if cfg.Engine.ScanIntervalSeconds <= 0 {
		cfg.Engine.ScanIntervalSeconds = 60
	}
	if cfg.Engine.MonitorIntervalSeconds <= 0 {
		cfg.Engine.MonitorIntervalSeconds = 15
	}
	if cfg.Engine.LookbackCandles <= 0 {
		cfg.Engine.LookbackCandles = 12
	}
	if cfg.Engine.DiscoverPairsPerChain <= 0 {
		cfg.Engine.DiscoverPairsPerChain = 10
	}

	if len(cfg.Chains.Enabled) == 0 {
		cfg.Chains.Enabled = []string{"base", "solana"}
	}
	if cfg.Chains.InitialBalanceUSD <= 0 {
		cfg.Chains.InitialBalanceUSD = 1000
	}

	if cfg.Strategy.VolumeMultiplier <= 0 {
		cfg.Strategy.VolumeMultiplier = 3.0
	}
	if cfg.Strategy.MinPriceChangePct <= 0 {
		cfg.Strategy.MinPriceChangePct = 5.0
	}
	if cfg.Strategy.MinLiquidityUSD <= 0 {
		cfg.Strategy.MinLiquidityUSD = 30_000
	}
	if cfg.Strategy.MinVolume24hUSD <= 0 {
		cfg.Strategy.MinVolume24hUSD = 50_000
	}
	if cfg.Strategy.CandleIntervalSeconds <= 0 {
		cfg.Strategy.CandleIntervalSeconds = 300
	}
	if cfg.Strategy.TakeProfitMult <= 1 {
		cfg.Strategy.TakeProfitMult = 1.5
	}
	if cfg.Strategy.StopLossPct <= 0 {
		cfg.Strategy.StopLossPct = 7.0
	}
	if cfg.Strategy.MaxHoldMinutes <= 0 {
		cfg.Strategy.MaxHoldMinutes = 30
	}

	if cfg.Risk.MaxTradesPerDay <= 0 {
		cfg.Risk.MaxTradesPerDay = 10
	}
	if cfg.Risk.RiskPerTradePct <= 0 {
		cfg.Risk.RiskPerTradePct = 2.0
	}
	if cfg.Risk.MaxDrawdownPct <= 0 {
		cfg.Risk.MaxDrawdownPct = 10.0
	}

	if cfg.Execution.MaxRetries <= 0 {
		cfg.Execution.MaxRetries = 3
	}
	if cfg.Execution.RetryBaseDelayMs <= 0 {
		cfg.Execution.RetryBaseDelayMs = 500
	}
	if cfg.Execution.SlippageTolerancePct <= 0 {
		cfg.Execution.SlippageTolerancePct = 1.0
	}
	if cfg.Execution.PaperFailureProb < 0 || cfg.Execution.PaperFailureProb >= 1 {
		cfg.Execution.PaperFailureProb = 0.1
	}

	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "scalpbot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
