package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"crossbot/market"
)

const defaultBinanceURL = "https://api.binance.com"

// BinanceClient reads public spot market data from a Binance-compatible
// REST API. No credentials are needed for klines and ticker prices.
type BinanceClient struct {
	baseURL string
	http    *http.Client
}

// NewBinanceClient builds a client against baseURL (the production endpoint
// when empty; tests point it at a local server).
func NewBinanceClient(baseURL string) *BinanceClient {
	if baseURL == "" {
		baseURL = defaultBinanceURL
	}
	return &BinanceClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// GetOHLCV fetches up to limit klines for symbol at the given interval
// (Binance notation: "1m", "1h", "1d", ...), oldest first.
func (c *BinanceClient) GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))

	// kline rows are [openTime, open, high, low, close, volume, ...] with
	// prices encoded as strings
	var rows [][]json.RawMessage
	if err := c.get(ctx, "/api/v3/klines", q, &rows); err != nil {
		return nil, fmt.Errorf("fetch klines %s: %w", symbol, err)
	}

	candles := make([]market.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("fetch klines %s: row %d has %d fields, need 6", symbol, i, len(row))
		}

		var openMillis int64
		if err := json.Unmarshal(row[0], &openMillis); err != nil {
			return nil, fmt.Errorf("fetch klines %s: bad open time in row %d: %w", symbol, i, err)
		}

		var c market.Candle
		c.Time = time.UnixMilli(openMillis).UTC()
		for j, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
			v, err := parsePriceField(row[j+1])
			if err != nil {
				return nil, fmt.Errorf("fetch klines %s: bad field %d in row %d: %w", symbol, j+1, i, err)
			}
			*dst = v
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// GetLatestPrice fetches the current ticker price for symbol.
func (c *BinanceClient) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	q := url.Values{}
	q.Set("symbol", symbol)

	var ticker struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := c.get(ctx, "/api/v3/ticker/price", q, &ticker); err != nil {
		return 0, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}

	price, err := strconv.ParseFloat(ticker.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("fetch ticker %s: bad price %q: %w", symbol, ticker.Price, err)
	}
	return price, nil
}

func (c *BinanceClient) get(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// parsePriceField accepts both string-encoded and numeric JSON values;
// Binance sends strings but compatible mocks often send numbers.
func parsePriceField(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
