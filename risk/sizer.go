package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidParameter is returned for sizing inputs that would produce a
// degenerate quantity (zero/negative entry price or stop distance). Fatal
// for the invocation; callers must not proceed with the result.
var ErrInvalidParameter = errors.New("invalid parameter")

// Inputs holds everything position sizing needs. All percentages are
// fractions (0.05 = 5%).
type Inputs struct {
	Balance     float64
	EntryPrice  float64
	StopLossPct float64
	RiskPct     float64
}

// Size converts account balance, entry price and risk tolerance into a trade
// quantity: the capital put at risk (Balance*RiskPct) divided by the per-unit
// risk (StopLossPct*EntryPrice).
//
// The result is rounded to 6 fractional digits so downstream comparisons and
// stored quantities stay deterministic across platforms.
func Size(in Inputs) (float64, error) {
	if in.EntryPrice <= 0 {
		return 0, fmt.Errorf("%w: entry price %v", ErrInvalidParameter, in.EntryPrice)
	}
	if in.StopLossPct <= 0 {
		return 0, fmt.Errorf("%w: stop loss percent %v", ErrInvalidParameter, in.StopLossPct)
	}

	stopDistance := in.StopLossPct * in.EntryPrice
	qty := (in.Balance * in.RiskPct) / stopDistance

	return decimal.NewFromFloat(qty).Round(6).InexactFloat64(), nil
}
