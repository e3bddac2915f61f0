package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crossbot/backtest"
	"crossbot/store"
)

var resultsCmd = &cobra.Command{
	Use:   "results [run-id]",
	Short: "Show persisted backtest runs",
	Long: `Results lists saved backtest runs, newest first. With a run id it
prints the full report including the per-trade breakdown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResults,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	if len(args) == 1 {
		run, err := db.GetRun(ctx, args[0])
		if err != nil {
			return err
		}
		backtest.PrintRun(os.Stdout, run)
		return nil
	}

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No backtest runs saved.")
		return nil
	}

	fmt.Printf("%-27s %-10s %7s %7s %8s %12s %10s\n",
		"ID", "SYMBOL", "SHORT", "LONG", "TRADES", "FINAL", "P/L %")
	for _, r := range runs {
		fmt.Printf("%-27s %-10s %7d %7d %8d %12.2f %+10.3f\n",
			r.ID, r.Symbol, r.ShortWindow, r.LongWindow, r.TotalTrades, r.FinalBalance, r.TotalProfitLoss)
	}
	return nil
}
