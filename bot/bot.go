// Package bot wires signals, sizing and the ledger into the live trading
// loop. It holds no market state of its own; every tick is a fresh read of
// the feed and the ledger.
package bot

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"crossbot/feed"
	"crossbot/ledger"
	"crossbot/risk"
	"crossbot/strategy"
)

// ActionResult records what one evaluation did for one symbol. It is the
// payload handed to publishers and returned by the web layer.
type ActionResult struct {
	Symbol   string           `json:"symbol"`
	Action   strategy.Signal  `json:"action"`
	Position *ledger.Position `json:"position,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// Publisher announces executed actions to interested consumers. Publishing
// is best effort: a failed announce never rolls back the trade it describes.
type Publisher interface {
	Publish(ctx context.Context, res ActionResult) error
}

// Params are the account and threshold settings one Bot trades with.
// Percentages are fractions: 0.05 means 5%.
type Params struct {
	Balance       float64
	RiskPct       float64
	StopLossPct   float64
	TakeProfitPct float64
}

// Bot turns signals into ledger transitions. One instance serves all
// symbols; it is safe for concurrent use as long as its collaborators are.
type Bot struct {
	feed   feed.PriceFeed
	source strategy.Source
	ledger *ledger.Ledger
	params Params
	pub    Publisher
	log    *zap.Logger
}

// New builds a Bot. pub may be nil to disable publishing.
func New(f feed.PriceFeed, src strategy.Source, led *ledger.Ledger, p Params, pub Publisher, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		feed:   f,
		source: src,
		ledger: led,
		params: p,
		pub:    pub,
		log:    log,
	}
}

// EvaluateAndAct asks the signal source for the symbol's next signal and
// executes it:
//
//	BUY  -> size a position off the live price and open it
//	SELL -> close the open position at the live price
//	HOLD -> nothing
//
// A SELL with nothing open is a no-op, not an error. Signal errors (including
// insufficient history) propagate to the caller untouched so loops can decide
// which ones to tolerate.
func (b *Bot) EvaluateAndAct(ctx context.Context, symbol string) (ActionResult, error) {
	sig, err := b.source.Next(ctx, symbol)
	if err != nil {
		return ActionResult{Symbol: symbol, Action: strategy.Hold}, fmt.Errorf("signal %s: %w", symbol, err)
	}

	res := ActionResult{Symbol: symbol, Action: sig}

	switch sig {
	case strategy.Hold:
		res.Message = "no crossover"
		return res, nil

	case strategy.Buy:
		price, err := b.feed.GetLatestPrice(ctx, symbol)
		if err != nil {
			return res, fmt.Errorf("quote %s: %w", symbol, err)
		}
		qty, err := risk.Size(risk.Inputs{
			Balance:     b.params.Balance,
			EntryPrice:  price,
			StopLossPct: b.params.StopLossPct,
			RiskPct:     b.params.RiskPct,
		})
		if err != nil {
			return res, fmt.Errorf("size %s: %w", symbol, err)
		}
		pos, err := b.ledger.Open(ctx, symbol, price, qty, b.params.StopLossPct, b.params.TakeProfitPct)
		if err != nil {
			return res, err
		}
		res.Position = &pos
		res.Message = "buy executed"

	case strategy.Sell:
		price, err := b.feed.GetLatestPrice(ctx, symbol)
		if err != nil {
			return res, fmt.Errorf("quote %s: %w", symbol, err)
		}
		pos, err := b.ledger.Close(ctx, symbol, price, ledger.ReasonSignal)
		if errors.Is(err, ledger.ErrNoOpenPosition) {
			res.Message = "sell signal with no open position"
			return res, nil
		}
		if err != nil {
			return res, err
		}
		res.Position = &pos
		res.Message = "sell executed"

	default:
		return res, fmt.Errorf("signal %s: unknown signal %q", symbol, sig)
	}

	b.publish(ctx, res)
	return res, nil
}

// MonitorOpenPositions sweeps every OPEN position once, closing those whose
// stop-loss or take-profit threshold the current price has crossed. Each
// close happens at the stored threshold price. A quote failure for one
// symbol skips that symbol and does not abort the sweep.
func (b *Bot) MonitorOpenPositions(ctx context.Context) ([]ActionResult, error) {
	positions, err := b.ledger.OpenPositions(ctx)
	if err != nil {
		return nil, fmt.Errorf("monitor: %w", err)
	}

	var results []ActionResult
	for _, p := range positions {
		price, err := b.feed.GetLatestPrice(ctx, p.Symbol)
		if err != nil {
			b.log.Warn("monitor quote failed", zap.String("symbol", p.Symbol), zap.Error(err))
			continue
		}

		reason, hit := risk.Check(p, price)
		if !hit {
			continue
		}

		closed, err := b.ledger.Close(ctx, p.Symbol, risk.ExitPrice(p, reason), string(reason))
		if errors.Is(err, ledger.ErrNoOpenPosition) {
			// already closed by a racing signal; nothing to do
			continue
		}
		if err != nil {
			return results, fmt.Errorf("monitor %s: %w", p.Symbol, err)
		}

		res := ActionResult{
			Symbol:   p.Symbol,
			Action:   strategy.Sell,
			Position: &closed,
			Message:  string(reason) + " triggered",
		}
		b.publish(ctx, res)
		results = append(results, res)
	}
	return results, nil
}

func (b *Bot) publish(ctx context.Context, res ActionResult) {
	if b.pub == nil {
		return
	}
	if err := b.pub.Publish(ctx, res); err != nil {
		b.log.Warn("publish failed", zap.String("symbol", res.Symbol), zap.Error(err))
	}
}
