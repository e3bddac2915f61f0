package strategy

import (
	"context"
	"math/rand"
	"sync"

	"crossbot/market"
)

// Source produces the next trading signal for a symbol. The execution path
// is written against this interface so the crossover analyzer and the random
// simulator are interchangeable by configuration.
type Source interface {
	Next(ctx context.Context, symbol string) (Signal, error)
}

// CandleProvider is the slice of the price feed the crossover source needs.
type CandleProvider interface {
	GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
}

// CrossoverSource derives signals from live OHLCV history via Classify.
type CrossoverSource struct {
	Provider    CandleProvider
	Interval    string
	ShortWindow int
	LongWindow  int
}

func NewCrossoverSource(p CandleProvider, interval string, short, long int) *CrossoverSource {
	return &CrossoverSource{
		Provider:    p,
		Interval:    interval,
		ShortWindow: short,
		LongWindow:  long,
	}
}

// Next fetches twice the long window of history, enough for the crossover
// rule plus headroom for feeds that return short batches near listing time.
func (s *CrossoverSource) Next(ctx context.Context, symbol string) (Signal, error) {
	candles, err := s.Provider.GetOHLCV(ctx, symbol, s.Interval, 2*s.LongWindow)
	if err != nil {
		return Hold, err
	}
	return Classify(candles, s.ShortWindow, s.LongWindow)
}

// RandomSource emits uniformly random signals. It exists for demo and
// plumbing tests where a deterministic-but-busy signal stream is more useful
// than waiting for a real crossover.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomSource(seed int64) *RandomSource {
	return &RandomSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomSource) Next(ctx context.Context, symbol string) (Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.rng.Intn(3) {
	case 0:
		return Buy, nil
	case 1:
		return Sell, nil
	default:
		return Hold, nil
	}
}
