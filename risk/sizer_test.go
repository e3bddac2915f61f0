package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSize(t *testing.T) {
	// risk amount 1000*0.01 = 10, stop distance 0.05*50 = 2.5 -> qty 4
	qty, err := Size(Inputs{
		Balance:     1000,
		EntryPrice:  50,
		StopLossPct: 0.05,
		RiskPct:     0.01,
	})
	assert.NoError(t, err)
	assert.Equal(t, 4.0, qty)
}

func TestSizeRoundsToSixDigits(t *testing.T) {
	// 10 / (0.05 * 30) = 6.6666666... -> 6.666667
	qty, err := Size(Inputs{
		Balance:     1000,
		EntryPrice:  30,
		StopLossPct: 0.05,
		RiskPct:     0.01,
	})
	assert.NoError(t, err)
	assert.Equal(t, 6.666667, qty)
}

func TestSizeInvalidParameters(t *testing.T) {
	cases := []struct {
		name string
		in   Inputs
	}{
		{"zero entry", Inputs{Balance: 1000, EntryPrice: 0, StopLossPct: 0.05, RiskPct: 0.01}},
		{"negative entry", Inputs{Balance: 1000, EntryPrice: -5, StopLossPct: 0.05, RiskPct: 0.01}},
		{"zero stop", Inputs{Balance: 1000, EntryPrice: 50, StopLossPct: 0, RiskPct: 0.01}},
		{"negative stop", Inputs{Balance: 1000, EntryPrice: 50, StopLossPct: -0.05, RiskPct: 0.01}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qty, err := Size(tc.in)
			assert.ErrorIs(t, err, ErrInvalidParameter)
			assert.Zero(t, qty)
		})
	}
}
