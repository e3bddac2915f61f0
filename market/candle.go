package market

import "time"

// Candle represents one OHLCV (Open, High, Low, Close, Volume) price bar.
//
// A series of candles is always chronological with no duplicate timestamps;
// the feed is responsible for delivering them in order. Candles are value
// types and never mutated once produced.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the closing prices of a candle series in order.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Chronological reports whether the series is strictly increasing in time.
// Gap tolerance is intentional: missing intervals are fine, reordered or
// duplicated timestamps are not.
func Chronological(candles []Candle) bool {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return false
		}
	}
	return true
}
