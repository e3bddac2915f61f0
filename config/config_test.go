package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
symbols: [SOLUSDT]
strategy:
  source: random
  short_window: 3
  long_window: 7
  interval: 15m
  stop_loss_pct: 0.04
  take_profit_pct: 0.08
  risk_pct: 0.02
account:
  balance: 2500
feed:
  provider: random
  seed: 42
store:
  path: /tmp/test.sqlite
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"SOLUSDT"}, cfg.Symbols)
	assert.Equal(t, "random", cfg.Strategy.Source)
	assert.Equal(t, 3, cfg.Strategy.ShortWindow)
	assert.Equal(t, 7, cfg.Strategy.LongWindow)
	assert.Equal(t, 0.04, cfg.Strategy.StopLossPct)
	assert.Equal(t, 2500.0, cfg.Account.Balance)
	assert.Equal(t, int64(42), cfg.Feed.Seed)

	// unset fields keep their defaults
	assert.Equal(t, 3*time.Minute, cfg.PollInterval)
	assert.Equal(t, ":8080", cfg.Web.Addr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read config file")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CROSSBOT_DB_PATH", "/var/lib/bot.sqlite")
	t.Setenv("CROSSBOT_REDIS_ADDR", "redis:6379")
	t.Setenv("CROSSBOT_BALANCE", "5000")
	t.Setenv("CROSSBOT_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/bot.sqlite", cfg.Store.Path)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled, "setting the redis address enables publishing")
	assert.Equal(t, 5000.0, cfg.Account.Balance)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no symbols", func(c *Config) { c.Symbols = nil }, "symbol"},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, "poll_interval"},
		{"unknown source", func(c *Config) { c.Strategy.Source = "oracle" }, "strategy.source"},
		{"short >= long", func(c *Config) { c.Strategy.ShortWindow = 50 }, "windows"},
		{"stop loss too big", func(c *Config) { c.Strategy.StopLossPct = 1 }, "stop_loss_pct"},
		{"negative take profit", func(c *Config) { c.Strategy.TakeProfitPct = -0.1 }, "take_profit_pct"},
		{"risk over 100%", func(c *Config) { c.Strategy.RiskPct = 1.5 }, "risk_pct"},
		{"zero balance", func(c *Config) { c.Account.Balance = 0 }, "balance"},
		{"unknown feed", func(c *Config) { c.Feed.Provider = "kraken" }, "feed.provider"},
		{"no store path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}
