package backtest

import (
	"fmt"
	"time"

	"crossbot/market"
	"crossbot/strategy"
)

// Params configures a single backtest run.
//
// StopLossPct and TakeProfitPct are recorded for audit but deliberately not
// applied intra-trade: the backtest exits on crossover signals only, a
// documented simplification relative to the live path (which also closes on
// stop/target). The asymmetry is intentional and surfaced, not silently
// reconciled either way.
type Params struct {
	Symbol         string
	ShortWindow    int
	LongWindow     int
	InitialBalance float64
	StopLossPct    float64
	TakeProfitPct  float64
}

// Trade is one completed entry/exit pair inside a run.
type Trade struct {
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	ReturnPct  float64   `json:"return_pct"`
}

// Run is the immutable result of one backtest invocation. Identical inputs
// always produce an identical Run; ID and Created stay zero here and are
// assigned by the store when a run is persisted for later audit.
type Run struct {
	ID      string    `json:"id,omitempty"`
	Created time.Time `json:"created"`

	Symbol         string  `json:"symbol"`
	ShortWindow    int     `json:"short_window"`
	LongWindow     int     `json:"long_window"`
	InitialBalance float64 `json:"initial_balance"`
	StopLossPct    float64 `json:"stop_loss_pct"`
	TakeProfitPct  float64 `json:"take_profit_pct"`

	FinalBalance float64 `json:"final_balance"`
	// TotalProfitLoss is the plain sum of per-trade percent returns. It is
	// a different metric from the compounded FinalBalance and the two are
	// reported side by side on purpose.
	TotalProfitLoss float64 `json:"total_profit_loss"`
	TotalTrades     int     `json:"total_trades"`
	WinningTrades   int     `json:"winning_trades"`
	LosingTrades    int     `json:"losing_trades"`

	Trades []Trade `json:"trades,omitempty"`
}

// Engine replays a historical candle series through the same crossover rule
// the live path uses (strategy.Classify) against a simplified single-slot
// ledger: at most one synthetic long at a time, full balance per trade.
type Engine struct {
	params Params
}

func New(p Params) *Engine {
	return &Engine{params: p}
}

// Run walks the series once, from the first bar where both moving averages
// are defined, entering on BUY while flat and exiting on SELL while long.
// Entries and exits both fill at that bar's close.
//
// A position still open when the series ends is left unrealized and excluded
// from the totals; it is not force-closed.
func (e *Engine) Run(candles []market.Candle) (Run, error) {
	p := e.params

	if p.InitialBalance <= 0 {
		return Run{}, fmt.Errorf("backtest: initial balance must be positive, got %v", p.InitialBalance)
	}
	// Surfaces invalid windows and too-short series before the loop starts.
	if _, err := strategy.Classify(candles[:min(len(candles), p.LongWindow+1)], p.ShortWindow, p.LongWindow); err != nil {
		return Run{}, fmt.Errorf("backtest %s: %w", p.Symbol, err)
	}

	run := Run{
		Symbol:         p.Symbol,
		ShortWindow:    p.ShortWindow,
		LongWindow:     p.LongWindow,
		InitialBalance: p.InitialBalance,
		StopLossPct:    p.StopLossPct,
		TakeProfitPct:  p.TakeProfitPct,
	}

	balance := p.InitialBalance
	var entry *Trade

	for i := p.LongWindow; i < len(candles); i++ {
		sig, err := strategy.Classify(candles[:i+1], p.ShortWindow, p.LongWindow)
		if err != nil {
			return Run{}, fmt.Errorf("backtest %s at bar %d: %w", p.Symbol, i, err)
		}

		switch sig {
		case strategy.Buy:
			if entry == nil {
				entry = &Trade{
					EntryTime:  candles[i].Time,
					EntryPrice: candles[i].Close,
				}
			}

		case strategy.Sell:
			if entry != nil {
				exit := candles[i].Close
				retPct := (exit - entry.EntryPrice) / entry.EntryPrice * 100
				balance *= 1 + retPct/100

				entry.ExitTime = candles[i].Time
				entry.ExitPrice = exit
				entry.ReturnPct = retPct
				run.Trades = append(run.Trades, *entry)
				entry = nil
			}
		}
	}

	run.FinalBalance = balance
	run.TotalTrades = len(run.Trades)
	for _, tr := range run.Trades {
		run.TotalProfitLoss += tr.ReturnPct
		if tr.ReturnPct > 0 {
			run.WinningTrades++
		}
	}
	run.LosingTrades = run.TotalTrades - run.WinningTrades

	return run, nil
}
