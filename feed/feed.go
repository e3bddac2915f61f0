// Package feed retrieves market data. The core trades against the PriceFeed
// interface; implementations are thin I/O wrappers with no strategy logic.
package feed

import (
	"context"

	"crossbot/market"
)

// PriceFeed supplies OHLCV history and spot quotes. Implementations must
// return candles chronologically ordered; gaps are tolerated and not
// validated downstream.
type PriceFeed interface {
	GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error)
	GetLatestPrice(ctx context.Context, symbol string) (float64, error)
}
