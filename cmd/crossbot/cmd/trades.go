package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"crossbot/ledger"
	"crossbot/store"
)

var tradesCmd = &cobra.Command{
	Use:   "trades",
	Short: "List recorded trades",
	Long: `Trades prints the position history from the ledger, newest first.

Example:
  crossbot trades -s BTCUSDT --open`,
	RunE: runTrades,
}

var (
	tradesSymbol string
	tradesOpen   bool
)

func init() {
	rootCmd.AddCommand(tradesCmd)

	tradesCmd.Flags().StringVarP(&tradesSymbol, "symbol", "s", "", "filter by symbol")
	tradesCmd.Flags().BoolVar(&tradesOpen, "open", false, "show only open positions")
}

func runTrades(cmd *cobra.Command, args []string) error {
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
	var positions []ledger.Position
	if tradesOpen {
		positions, err = db.ListOpenPositions(ctx)
	} else {
		positions, err = db.ListPositions(ctx, tradesSymbol)
	}
	if err != nil {
		return err
	}

	if len(positions) == 0 {
		fmt.Println("No trades recorded.")
		return nil
	}

	fmt.Printf("%-27s %-10s %-7s %12s %12s %12s %10s  %s\n",
		"ID", "SYMBOL", "STATUS", "ENTRY", "EXIT", "PNL", "QTY", "REASON")
	for _, p := range positions {
		exit, pnl := "-", "-"
		if !p.Open() {
			exit = fmt.Sprintf("%.4f", *p.ExitPrice)
			pnl = fmt.Sprintf("%+.4f", *p.RealizedPnL)
		}
		fmt.Printf("%-27s %-10s %-7s %12.4f %12s %12s %10.4f  %s\n",
			p.ID, p.Symbol, p.Status(), p.EntryPrice, exit, pnl, p.Quantity, p.CloseReason)
	}
	return nil
}
