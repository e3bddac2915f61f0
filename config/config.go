package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete bot configuration. Components receive the values
// they need explicitly; nothing reads configuration mid-computation.
type Config struct {
	Symbols []string `yaml:"symbols"`
	// PollInterval is how often the live runner evaluates each symbol.
	PollInterval time.Duration  `yaml:"poll_interval"`
	Strategy     StrategyConfig `yaml:"strategy"`
	Account      AccountConfig  `yaml:"account"`
	Feed         FeedConfig     `yaml:"feed"`
	Store        StoreConfig    `yaml:"store"`
	Redis        RedisConfig    `yaml:"redis"`
	Web          WebConfig      `yaml:"web"`
	Log          LogConfig      `yaml:"log"`
}

// StrategyConfig parameterizes signal derivation and trade thresholds.
// Percentages are fractions: 0.05 means 5%.
type StrategyConfig struct {
	Source        string  `yaml:"source"` // "crossover" or "random"
	ShortWindow   int     `yaml:"short_window"`
	LongWindow    int     `yaml:"long_window"`
	Interval      string  `yaml:"interval"`
	StopLossPct   float64 `yaml:"stop_loss_pct"`
	TakeProfitPct float64 `yaml:"take_profit_pct"`
	RiskPct       float64 `yaml:"risk_pct"`
}

type AccountConfig struct {
	Balance float64 `yaml:"balance"`
}

type FeedConfig struct {
	Provider string `yaml:"provider"` // "binance" or "random"
	BaseURL  string `yaml:"base_url"`
	Seed     int64  `yaml:"seed"` // random provider only
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig controls the optional action publisher. Disabled by default;
// when enabled, every non-HOLD ActionResult is announced on
// "<channel_prefix>.<symbol>".
type RedisConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	Password      string `yaml:"password"`
	DB            int    `yaml:"db"`
	ChannelPrefix string `yaml:"channel_prefix"`
}

type WebConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns a configuration with sensible demo defaults.
func Default() *Config {
	return &Config{
		Symbols:      []string{"BTCUSDT", "ETHUSDT"},
		PollInterval: 3 * time.Minute,
		Strategy: StrategyConfig{
			Source:        "crossover",
			ShortWindow:   10,
			LongWindow:    50,
			Interval:      "1h",
			StopLossPct:   0.05,
			TakeProfitPct: 0.10,
			RiskPct:       0.01,
		},
		Account: AccountConfig{Balance: 1000},
		Feed:    FeedConfig{Provider: "binance"},
		Store:   StoreConfig{Path: "./crossbot.sqlite"},
		Redis: RedisConfig{
			Addr:          "localhost:6379",
			ChannelPrefix: "crossbot.actions",
		},
		Web: WebConfig{Addr: ":8080"},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path (Default() when path is empty), then
// applies environment overrides. A .env file next to the process is loaded
// first if present, so deploy-time secrets never live in the YAML.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// best effort; absence of .env is normal
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CROSSBOT_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("CROSSBOT_FEED_URL"); v != "" {
		c.Feed.BaseURL = v
	}
	if v := os.Getenv("CROSSBOT_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CROSSBOT_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("CROSSBOT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CROSSBOT_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Account.Balance = f
		}
	}
}

// Validate rejects configurations the core cannot execute safely. In
// particular stop_loss_pct and take_profit_pct must both be positive, which
// guarantees stop price < entry < target price for every opened position
// (the RiskMonitor's documented precondition).
func (c *Config) Validate() error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("at least one symbol is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	s := c.Strategy
	if s.Source != "crossover" && s.Source != "random" {
		return fmt.Errorf("strategy.source must be 'crossover' or 'random', got %q", s.Source)
	}
	if s.ShortWindow <= 0 || s.LongWindow <= s.ShortWindow {
		return fmt.Errorf("strategy windows must satisfy 0 < short_window < long_window (short=%d long=%d)", s.ShortWindow, s.LongWindow)
	}
	if s.Interval == "" {
		return fmt.Errorf("strategy.interval is required")
	}
	if s.StopLossPct <= 0 || s.StopLossPct >= 1 {
		return fmt.Errorf("strategy.stop_loss_pct must be in (0, 1), got %v", s.StopLossPct)
	}
	if s.TakeProfitPct <= 0 {
		return fmt.Errorf("strategy.take_profit_pct must be positive, got %v", s.TakeProfitPct)
	}
	if s.RiskPct <= 0 || s.RiskPct > 1 {
		return fmt.Errorf("strategy.risk_pct must be in (0, 1], got %v", s.RiskPct)
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive, got %v", c.Account.Balance)
	}
	if c.Feed.Provider != "binance" && c.Feed.Provider != "random" {
		return fmt.Errorf("feed.provider must be 'binance' or 'random', got %q", c.Feed.Provider)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store.path is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}
