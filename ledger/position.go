package ledger

import "time"

// Close reasons recorded when a position transitions to CLOSED.
const (
	ReasonSignal     = "SIGNAL"
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
)

// Position is a single trade: OPEN from entry until it is closed exactly
// once by a sell signal or a stop-loss/take-profit trigger. Closed positions
// are append-only history and never mutated again.
//
// ExitPrice, ExitTime and RealizedPnL are either all nil (OPEN) or all set
// (CLOSED).
type Position struct {
	ID              string    `json:"id"`
	Symbol          string    `json:"symbol"`
	EntryPrice      float64   `json:"entry_price"`
	Quantity        float64   `json:"quantity"`
	StopLossPrice   float64   `json:"stop_loss_price"`
	TakeProfitPrice float64   `json:"take_profit_price"`
	EntryTime       time.Time `json:"entry_time"`

	ExitPrice   *float64   `json:"exit_price,omitempty"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
	RealizedPnL *float64   `json:"realized_pnl,omitempty"`
	CloseReason string     `json:"close_reason,omitempty"`
}

// Open reports whether the position is still open.
func (p Position) Open() bool {
	return p.ExitPrice == nil
}

// Status returns "OPEN" or "CLOSED" for presentation.
func (p Position) Status() string {
	if p.Open() {
		return "OPEN"
	}
	return "CLOSED"
}
