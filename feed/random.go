package feed

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"crossbot/market"
)

// RandomWalk is a simulated feed: every symbol follows an independent
// seeded random walk, so runs are reproducible given the same seed and call
// sequence. Useful for demos and plumbing tests without network access.
type RandomWalk struct {
	mu     sync.Mutex
	rng    *rand.Rand
	prices map[string]float64

	anchor  float64 // starting price for unseen symbols
	stepPct float64 // max per-bar move, as a fraction
	now     func() time.Time
}

func NewRandomWalk(seed int64, anchor, stepPct float64) *RandomWalk {
	if anchor <= 0 {
		anchor = 100
	}
	if stepPct <= 0 {
		stepPct = 0.02
	}
	return &RandomWalk{
		rng:     rand.New(rand.NewSource(seed)),
		prices:  make(map[string]float64),
		anchor:  anchor,
		stepPct: stepPct,
		now:     time.Now,
	}
}

// GetOHLCV synthesizes limit bars ending at the current interval boundary,
// continuing the symbol's walk from wherever it last left off.
func (f *RandomWalk) GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	step := intervalDuration(interval)

	f.mu.Lock()
	defer f.mu.Unlock()

	price := f.price(symbol)
	end := f.now().UTC().Truncate(step)
	candles := make([]market.Candle, limit)

	for i := 0; i < limit; i++ {
		next := price * (1 + (f.rng.Float64()*2-1)*f.stepPct)
		high, low := price, next
		if next > price {
			high, low = next, price
		}
		candles[i] = market.Candle{
			Time:   end.Add(-time.Duration(limit-i) * step),
			Open:   price,
			High:   high,
			Low:    low,
			Close:  next,
			Volume: 100 + f.rng.Float64()*900,
		}
		price = next
	}

	f.prices[symbol] = price
	return candles, nil
}

// GetLatestPrice advances the walk one step and returns the new price.
func (f *RandomWalk) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	price := f.price(symbol) * (1 + (f.rng.Float64()*2-1)*f.stepPct)
	f.prices[symbol] = price
	return price, nil
}

func (f *RandomWalk) price(symbol string) float64 {
	if p, ok := f.prices[symbol]; ok {
		return p
	}
	return f.anchor
}

// intervalDuration maps exchange interval notation ("1m", "1h", "1d") to a
// bar spacing, defaulting to an hour for anything unrecognized.
func intervalDuration(interval string) time.Duration {
	if len(interval) < 2 {
		return time.Hour
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return time.Hour
	}
	switch interval[len(interval)-1] {
	case 'm':
		return time.Duration(n) * time.Minute
	case 'h':
		return time.Duration(n) * time.Hour
	case 'd':
		return time.Duration(n) * 24 * time.Hour
	}
	return time.Hour
}
