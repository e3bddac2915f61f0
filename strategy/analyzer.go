package strategy

import (
	"errors"
	"fmt"

	"crossbot/market"
)

var (
	// ErrInsufficientData is returned when a series is too short for the
	// requested windows. Callers treat it as a skip-this-tick condition,
	// not a fatal error.
	ErrInsufficientData = errors.New("insufficient data for requested windows")

	// ErrInvalidWindows is returned for degenerate window parameters.
	// Unlike ErrInsufficientData this is fatal for the invocation.
	ErrInvalidWindows = errors.New("invalid moving average windows")
)

// SMA returns the simple moving average of the trailing window ending at
// index at, i.e. mean(closes[at-window+1 .. at]).
func SMA(closes []float64, window, at int) float64 {
	sum := 0.0
	for i := at - window + 1; i <= at; i++ {
		sum += closes[i]
	}
	return sum / float64(window)
}

// Classify runs the dual moving-average crossover rule over a chronological
// candle series and classifies the latest bar transition.
//
// The rule is evaluated on the two most recent bars where both averages are
// defined (last and prev):
//
//	BUY  when shortMA[last] > longMA[last] and shortMA[prev] <= longMA[prev]
//	SELL when shortMA[last] < longMA[last] and shortMA[prev] >= longMA[prev]
//	HOLD otherwise
//
// Ties on the prev bar count toward the cross, so a series that touches and
// then separates still signals. At least longWindow+1 candles are required
// (one prior bar for the tie-break comparison); fewer fail with
// ErrInsufficientData.
//
// Classify is a pure function of its inputs. The backtest engine replays
// history through this same function, which is what keeps backtest and live
// behavior in lockstep.
func Classify(candles []market.Candle, shortWindow, longWindow int) (Signal, error) {
	if shortWindow <= 0 || longWindow <= shortWindow {
		return Hold, fmt.Errorf("%w: short=%d long=%d", ErrInvalidWindows, shortWindow, longWindow)
	}
	if len(candles) < longWindow+1 {
		return Hold, fmt.Errorf("%w: need %d candles, got %d", ErrInsufficientData, longWindow+1, len(candles))
	}

	closes := market.Closes(candles)
	last := len(closes) - 1
	prev := last - 1

	shortLast := SMA(closes, shortWindow, last)
	longLast := SMA(closes, longWindow, last)
	shortPrev := SMA(closes, shortWindow, prev)
	longPrev := SMA(closes, longWindow, prev)

	switch {
	case shortLast > longLast && shortPrev <= longPrev:
		return Buy, nil
	case shortLast < longLast && shortPrev >= longPrev:
		return Sell, nil
	default:
		return Hold, nil
	}
}
