package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"crossbot/bot"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the live signal-evaluation loop",
	Long: `Run starts the scheduled trading loop: every poll interval each
configured symbol is evaluated for a crossover signal and every open
position is checked against its stop-loss and take-profit thresholds.

The loop runs until interrupted (SIGINT/SIGTERM).

Example:
  crossbot run -c config.yaml`,
	RunE: runRun,
}

var runInterval time.Duration

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().DurationVar(&runInterval, "interval", 0, "poll interval override (e.g. 30s, 5m)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	if runInterval > 0 {
		cfg.PollInterval = runInterval
	}

	b, _, cleanup, err := buildBot(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := bot.NewRunner(b, cfg.Symbols, cfg.PollInterval, log)
	return runner.Run(ctx)
}
