package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crossbot/market"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 10,
		}
	}
	return out
}

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, SMA(closes, 3, 3))  // (2+3+4)/3
	assert.Equal(t, 4.5, SMA(closes, 2, 4))  // (4+5)/2
	assert.Equal(t, 1.0, SMA(closes, 1, 0))
}

func TestClassifyInvalidWindows(t *testing.T) {
	candles := candlesFromCloses(1, 2, 3, 4, 5, 6)

	for _, tc := range []struct{ short, long int }{
		{0, 4},
		{-1, 4},
		{4, 4},
		{5, 3},
	} {
		_, err := Classify(candles, tc.short, tc.long)
		assert.ErrorIs(t, err, ErrInvalidWindows, "short=%d long=%d", tc.short, tc.long)
	}
}

func TestClassifyInsufficientData(t *testing.T) {
	// need longWindow+1 bars; anything shorter fails
	for n := 0; n <= 4; n++ {
		candles := candlesFromCloses(make([]float64, n)...)
		_, err := Classify(candles, 2, 4)
		assert.ErrorIs(t, err, ErrInsufficientData, "n=%d", n)
	}

	candles := candlesFromCloses(1, 2, 3, 4, 5)
	_, err := Classify(candles, 2, 4)
	assert.NoError(t, err)
}

func TestClassifyUpwardCross(t *testing.T) {
	// Downtrend long enough to pin the short MA below the long MA, then a
	// sharp rally so the short MA crosses above on the final bar.
	candles := candlesFromCloses(110, 108, 106, 104, 102, 100, 101, 120)

	sig, err := Classify(candles, 2, 4)
	assert.NoError(t, err)
	assert.Equal(t, Buy, sig)
}

func TestClassifyDownwardCross(t *testing.T) {
	candles := candlesFromCloses(100, 102, 104, 106, 108, 110, 109, 90)

	sig, err := Classify(candles, 2, 4)
	assert.NoError(t, err)
	assert.Equal(t, Sell, sig)
}

func TestClassifyHoldWithoutCross(t *testing.T) {
	// steady uptrend: short stays above long on both bars, no fresh cross
	candles := candlesFromCloses(100, 102, 104, 106, 108, 110, 112)

	sig, err := Classify(candles, 2, 4)
	assert.NoError(t, err)
	assert.Equal(t, Hold, sig)
}

func TestClassifyTieBreakOnPrev(t *testing.T) {
	// Flat series makes every MA equal, so prev ties exactly. A final pop
	// separates the short MA upward: the inclusive tie-break must fire BUY.
	candles := candlesFromCloses(100, 100, 100, 100, 100, 108)

	sig, err := Classify(candles, 2, 4)
	assert.NoError(t, err)
	assert.Equal(t, Buy, sig)

	// and a final drop must fire SELL via the same tie-break
	candles = candlesFromCloses(100, 100, 100, 100, 100, 92)
	sig, err = Classify(candles, 2, 4)
	assert.NoError(t, err)
	assert.Equal(t, Sell, sig)
}

func TestClassifyMutuallyExclusive(t *testing.T) {
	// The BUY and SELL conditions cannot both hold on the same bar pair:
	// sweep a family of series and check the result is always one signal.
	shapes := [][]float64{
		{100, 101, 99, 103, 97, 105, 95},
		{50, 50, 50, 50, 50, 50},
		{10, 20, 10, 20, 10, 20, 10},
		{200, 150, 175, 160, 180, 140, 190},
	}
	for _, closes := range shapes {
		sig, err := Classify(candlesFromCloses(closes...), 2, 4)
		assert.NoError(t, err)
		assert.True(t, sig.Valid(), "closes=%v produced %q", closes, sig)
	}
}

func TestClassifyPure(t *testing.T) {
	candles := candlesFromCloses(110, 108, 106, 104, 102, 100, 101, 120)

	first, err := Classify(candles, 2, 4)
	assert.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Classify(candles, 2, 4)
		assert.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
