package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"crossbot/bot"
	"crossbot/config"
	"crossbot/feed"
	"crossbot/internal/logging"
	"crossbot/ledger"
	"crossbot/publish"
	"crossbot/store"
	"crossbot/strategy"
)

var rootCmd = &cobra.Command{
	Use:   "crossbot",
	Short: "A moving-average crossover trading bot",
	Long: `Crossbot automates a dual moving-average crossover strategy:

  - derives BUY/SELL/HOLD signals from OHLCV history
  - sizes positions off a fixed risk fraction of the account
  - tracks every trade in a SQLite ledger with realized P&L
  - closes open trades when stop-loss or take-profit thresholds trip
  - backtests the same crossover rule against historical candles

Run "crossbot run" for the live loop, "crossbot backtest" for historical
evaluation, or "crossbot serve" for the HTTP API.`,
	SilenceUsage: true,
}

var (
	cfgPath  string
	logLevel string
)

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level (debug, info, warn, error)")
}

// setup loads configuration and builds the logger every subcommand shares.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Pretty)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func buildFeed(cfg *config.Config) feed.PriceFeed {
	if cfg.Feed.Provider == "random" {
		return feed.NewRandomWalk(cfg.Feed.Seed, 100, 0.02)
	}
	return feed.NewBinanceClient(cfg.Feed.BaseURL)
}

func buildSource(cfg *config.Config, f feed.PriceFeed) strategy.Source {
	if cfg.Strategy.Source == "random" {
		return strategy.NewRandomSource(cfg.Feed.Seed)
	}
	return strategy.NewCrossoverSource(f, cfg.Strategy.Interval, cfg.Strategy.ShortWindow, cfg.Strategy.LongWindow)
}

// buildBot assembles the store, ledger, feed, signal source and optional
// Redis publisher into a ready Bot. The returned cleanup closes everything
// the bot holds open.
func buildBot(cfg *config.Config, log *zap.Logger) (*bot.Bot, *store.SQLite, func(), error) {
	db, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, nil, nil, err
	}

	var pub bot.Publisher
	closePub := func() {}
	if cfg.Redis.Enabled {
		rp := publish.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ChannelPrefix, log)
		pub = rp
		closePub = func() { rp.Close() }
	}

	f := buildFeed(cfg)
	led := ledger.New(db, log)
	b := bot.New(f, buildSource(cfg, f), led, bot.Params{
		Balance:       cfg.Account.Balance,
		RiskPct:       cfg.Strategy.RiskPct,
		StopLossPct:   cfg.Strategy.StopLossPct,
		TakeProfitPct: cfg.Strategy.TakeProfitPct,
	}, pub, log)

	cleanup := func() {
		closePub()
		db.Close()
	}
	return b, db, cleanup, nil
}
