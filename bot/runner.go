package bot

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"crossbot/strategy"
)

// Runner drives the Bot on a fixed schedule: every interval it evaluates
// each configured symbol and then sweeps open positions for stop-loss and
// take-profit triggers. One symbol's failure never blocks the others.
type Runner struct {
	bot      *Bot
	symbols  []string
	interval time.Duration
	log      *zap.Logger
}

func NewRunner(b *Bot, symbols []string, interval time.Duration, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		bot:      b,
		symbols:  symbols,
		interval: interval,
		log:      log,
	}
}

// Run ticks until ctx is cancelled. The first pass happens immediately so a
// fresh process does not idle through its first interval.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("runner started",
		zap.Strings("symbols", r.symbols),
		zap.Duration("interval", r.interval),
	)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("runner stopped")
			return nil
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	for _, symbol := range r.symbols {
		res, err := r.bot.EvaluateAndAct(ctx, symbol)
		switch {
		case errors.Is(err, strategy.ErrInsufficientData):
			r.log.Debug("not enough history yet", zap.String("symbol", symbol))
		case err != nil:
			r.log.Error("evaluation failed", zap.String("symbol", symbol), zap.Error(err))
		case res.Action != strategy.Hold:
			r.log.Info("action",
				zap.String("symbol", symbol),
				zap.String("action", string(res.Action)),
				zap.String("message", res.Message),
			)
		}
	}

	closed, err := r.bot.MonitorOpenPositions(ctx)
	if err != nil {
		r.log.Error("position sweep failed", zap.Error(err))
		return
	}
	for _, res := range closed {
		r.log.Info("threshold close",
			zap.String("symbol", res.Symbol),
			zap.String("message", res.Message),
		)
	}
}
