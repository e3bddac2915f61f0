package risk

import "crossbot/ledger"

// CloseReason says why the monitor wants a position closed.
type CloseReason string

const (
	StopLoss   CloseReason = ledger.ReasonStopLoss
	TakeProfit CloseReason = ledger.ReasonTakeProfit
)

// ExitPrice is the deterministic price the position must be closed at for
// the given reason: the stored threshold, not the observed market price.
// Closing at the threshold keeps P&L accounting independent of quote timing.
func ExitPrice(p ledger.Position, reason CloseReason) float64 {
	if reason == TakeProfit {
		return p.TakeProfitPrice
	}
	return p.StopLossPrice
}

// Check compares an open position against the current price and reports
// whether a stop-loss or take-profit threshold has been hit.
//
// The stop-loss check runs first: if misconfigured thresholds ever satisfy
// both at once, the loss cap wins. Config validation keeps
// StopLossPrice < TakeProfitPrice so that case does not arise in practice.
//
// Check is invoked once per open position per monitoring tick; supplying a
// fresh quote is the caller's job.
func Check(p ledger.Position, currentPrice float64) (CloseReason, bool) {
	if currentPrice <= p.StopLossPrice {
		return StopLoss, true
	}
	if currentPrice >= p.TakeProfitPrice {
		return TakeProfit, true
	}
	return "", false
}
