package cmd

import (
	"github.com/spf13/cobra"

	"crossbot/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve exposes the bot over HTTP:

  GET  /status            service health and open position count
  GET  /trades            position history (optional ?symbol=)
  GET  /performance       realized P&L summary
  GET  /backtest          run and persist a backtest
  GET  /backtest-results  persisted runs (optional ?id=)
  POST /monitor           one stop-loss/take-profit sweep
  POST /simulate          force one evaluation tick for a symbol

Example:
  crossbot serve -c config.yaml --addr :8080`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address override (default: configured)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	b, db, cleanup, err := buildBot(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	addr := serveAddr
	if addr == "" {
		addr = cfg.Web.Addr
	}

	server := web.NewServer(b, db, buildFeed(cfg), cfg, log)
	return server.Run(addr)
}
