package backtest

import (
	"fmt"
	"io"
	"time"
)

// PrintRun writes a human-readable summary of a run.
func PrintRun(w io.Writer, r Run) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if r.ID != "" {
		fmt.Fprintf(w, "Run ID:         %s\n", r.ID)
	}
	if !r.Created.IsZero() {
		fmt.Fprintf(w, "Created:        %s\n", r.Created.Format(time.RFC3339))
	}
	fmt.Fprintf(w, "Symbol:         %s\n", r.Symbol)
	fmt.Fprintf(w, "Windows:        short=%d long=%d\n", r.ShortWindow, r.LongWindow)
	fmt.Fprintf(w, "Stop/Target:    %.2f%% / %.2f%% (not applied intra-trade)\n",
		r.StopLossPct*100, r.TakeProfitPct*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:         %d\n", r.TotalTrades)
	fmt.Fprintf(w, "Wins:           %d\n", r.WinningTrades)
	fmt.Fprintf(w, "Losses:         %d\n", r.LosingTrades)
	if r.TotalTrades > 0 {
		fmt.Fprintf(w, "Win Rate:       %.2f%%\n", float64(r.WinningTrades)/float64(r.TotalTrades)*100)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance:  %.2f\n", r.InitialBalance)
	fmt.Fprintf(w, "Final Balance:  %.2f\n", r.FinalBalance)
	fmt.Fprintf(w, "Sum of Returns: %.2f%% (uncompounded)\n", r.TotalProfitLoss)

	if len(r.Trades) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Trades")
		fmt.Fprintln(w, "--------------------------------------------------")
		for i, tr := range r.Trades {
			fmt.Fprintf(w, "%3d. %s  in %.4f  out %.4f  %+.2f%%\n",
				i+1, tr.EntryTime.Format("2006-01-02 15:04"), tr.EntryPrice, tr.ExitPrice, tr.ReturnPct)
		}
	}

	fmt.Fprintln(w)
}
