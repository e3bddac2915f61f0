package strategy

// Signal is the trading action derived from a price series. Signals are
// computed on demand and never persisted.
type Signal string

const (
	Buy  Signal = "BUY"
	Sell Signal = "SELL"
	Hold Signal = "HOLD"
)

// Valid reports whether s is one of the three known signals.
func (s Signal) Valid() bool {
	switch s {
	case Buy, Sell, Hold:
		return true
	}
	return false
}
