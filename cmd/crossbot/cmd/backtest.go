package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crossbot/backtest"
	"crossbot/store"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the crossover strategy against historical candles",
	Long: `Backtest replays historical OHLCV data through the same crossover rule
the live loop uses, entering on BUY while flat and exiting on SELL while
long. Results are printed and, unless --save=false, persisted for later
inspection via "crossbot results" or the HTTP API.

Example:
  crossbot backtest -s BTCUSDT --short 10 --long 50 --limit 500`,
	RunE: runBacktest,
}

var (
	btSymbol  string
	btShort   int
	btLong    int
	btLimit   int
	btBalance float64
	btSave    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "symbol to backtest (default: first configured symbol)")
	backtestCmd.Flags().IntVar(&btShort, "short", 0, "short moving-average window (default: configured)")
	backtestCmd.Flags().IntVar(&btLong, "long", 0, "long moving-average window (default: configured)")
	backtestCmd.Flags().IntVar(&btLimit, "limit", 500, "number of historical candles to fetch")
	backtestCmd.Flags().Float64VarP(&btBalance, "balance", "b", 0, "starting balance (default: configured)")
	backtestCmd.Flags().BoolVar(&btSave, "save", true, "persist the run to the database")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	symbol := btSymbol
	if symbol == "" {
		symbol = cfg.Symbols[0]
	}
	short, long := btShort, btLong
	if short == 0 {
		short = cfg.Strategy.ShortWindow
	}
	if long == 0 {
		long = cfg.Strategy.LongWindow
	}
	balance := btBalance
	if balance == 0 {
		balance = cfg.Account.Balance
	}

	ctx := context.Background()
	candles, err := buildFeed(cfg).GetOHLCV(ctx, symbol, cfg.Strategy.Interval, btLimit)
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}

	engine := backtest.New(backtest.Params{
		Symbol:         symbol,
		ShortWindow:    short,
		LongWindow:     long,
		InitialBalance: balance,
		StopLossPct:    cfg.Strategy.StopLossPct,
		TakeProfitPct:  cfg.Strategy.TakeProfitPct,
	})
	run, err := engine.Run(candles)
	if err != nil {
		return err
	}

	if btSave {
		db, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		if run, err = db.SaveRun(ctx, run); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		fmt.Printf("Saved run %s\n\n", run.ID)
	}

	backtest.PrintRun(os.Stdout, run)
	return nil
}
