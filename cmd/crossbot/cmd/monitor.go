package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run one stop-loss/take-profit sweep over open positions",
	Long: `Monitor fetches the current price for every open position and closes
those whose stop-loss or take-profit threshold has been crossed, at the
stored threshold price. One-shot; the run loop performs the same sweep
on every tick.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	b, _, cleanup, err := buildBot(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	results, err := b.MonitorOpenPositions(context.Background())
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No thresholds triggered.")
		return nil
	}
	for _, res := range results {
		p := res.Position
		fmt.Printf("%-10s %s  exit %.4f  pnl %+.4f\n",
			p.Symbol, p.CloseReason, *p.ExitPrice, *p.RealizedPnL)
	}
	return nil
}
