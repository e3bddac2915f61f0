package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossbot/ledger"
	"crossbot/market"
	"crossbot/store"
	"crossbot/strategy"
)

type stubFeed struct {
	prices map[string]float64
}

func (f *stubFeed) GetOHLCV(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	return nil, nil
}

func (f *stubFeed) GetLatestPrice(ctx context.Context, symbol string) (float64, error) {
	p, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no quote for %s", symbol)
	}
	return p, nil
}

type stubSource struct {
	sig strategy.Signal
	err error
}

func (s stubSource) Next(ctx context.Context, symbol string) (strategy.Signal, error) {
	return s.sig, s.err
}

type captivePublisher struct {
	got []ActionResult
}

func (p *captivePublisher) Publish(ctx context.Context, res ActionResult) error {
	p.got = append(p.got, res)
	return nil
}

var testParams = Params{
	Balance:       1000,
	RiskPct:       0.01,
	StopLossPct:   0.05,
	TakeProfitPct: 0.10,
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	db, err := store.NewSQLite(filepath.Join(t.TempDir(), "bot.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return ledger.New(db, nil)
}

func TestEvaluateBuyOpensSizedPosition(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	f := &stubFeed{prices: map[string]float64{"BTCUSDT": 50}}
	b := New(f, stubSource{sig: strategy.Buy}, led, testParams, nil, nil)

	res, err := b.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	assert.Equal(t, strategy.Buy, res.Action)
	require.NotNil(t, res.Position)
	// (1000 * 0.01) / (0.05 * 50) = 4 units
	assert.Equal(t, 4.0, res.Position.Quantity)
	assert.Equal(t, 50.0, res.Position.EntryPrice)
	assert.InDelta(t, 47.5, res.Position.StopLossPrice, 1e-9)
	assert.InDelta(t, 55.0, res.Position.TakeProfitPrice, 1e-9)
	assert.True(t, res.Position.Open())
}

func TestEvaluateHoldDoesNothing(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	b := New(&stubFeed{}, stubSource{sig: strategy.Hold}, led, testParams, nil, nil)

	res, err := b.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, strategy.Hold, res.Action)
	assert.Nil(t, res.Position)

	open, err := led.OpenPositions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestEvaluateSellWithoutPositionIsBenign(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	f := &stubFeed{prices: map[string]float64{"BTCUSDT": 100}}
	b := New(f, stubSource{sig: strategy.Sell}, led, testParams, nil, nil)

	res, err := b.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	assert.Equal(t, strategy.Sell, res.Action)
	assert.Nil(t, res.Position)
	assert.Contains(t, res.Message, "no open position")
}

func TestEvaluateBuyThenSellRealizesPnL(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	f := &stubFeed{prices: map[string]float64{"BTCUSDT": 100}}

	buyer := New(f, stubSource{sig: strategy.Buy}, led, testParams, nil, nil)
	_, err := buyer.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	f.prices["BTCUSDT"] = 104
	seller := New(f, stubSource{sig: strategy.Sell}, led, testParams, nil, nil)
	res, err := seller.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	require.NotNil(t, res.Position)
	require.NotNil(t, res.Position.RealizedPnL)
	// qty = (1000*0.01)/(0.05*100) = 2; pnl = (104-100)*2 = 8
	assert.InDelta(t, 8.0, *res.Position.RealizedPnL, 1e-9)
	assert.Equal(t, ledger.ReasonSignal, res.Position.CloseReason)
}

func TestEvaluateInsufficientDataPropagates(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	b := New(&stubFeed{}, stubSource{err: strategy.ErrInsufficientData}, led, testParams, nil, nil)

	_, err := b.EvaluateAndAct(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, strategy.ErrInsufficientData)
}

func TestMonitorClosesAtThresholds(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	ctx := context.Background()

	// entry 100 with sl 0.05 / tp 0.10 gives stop 95 and target 110
	_, err := led.Open(ctx, "STOPPED", 100, 2, 0.05, 0.10)
	require.NoError(t, err)
	_, err = led.Open(ctx, "TARGETED", 100, 2, 0.05, 0.10)
	require.NoError(t, err)
	_, err = led.Open(ctx, "QUIET", 100, 2, 0.05, 0.10)
	require.NoError(t, err)

	f := &stubFeed{prices: map[string]float64{
		"STOPPED":  94,
		"TARGETED": 111,
		"QUIET":    100,
	}}
	b := New(f, stubSource{sig: strategy.Hold}, led, testParams, nil, nil)

	results, err := b.MonitorOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byReason := map[string]ActionResult{}
	for _, r := range results {
		byReason[r.Position.CloseReason] = r
	}

	stopped := byReason[ledger.ReasonStopLoss]
	require.NotNil(t, stopped.Position)
	assert.Equal(t, "STOPPED", stopped.Symbol)
	// closed at the stored stop price, not the observed 94
	assert.Equal(t, 95.0, *stopped.Position.ExitPrice)

	targeted := byReason[ledger.ReasonTakeProfit]
	require.NotNil(t, targeted.Position)
	assert.Equal(t, "TARGETED", targeted.Symbol)
	assert.Equal(t, 110.0, *targeted.Position.ExitPrice)

	open, err := led.OpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "QUIET", open[0].Symbol)
}

func TestMonitorSkipsSymbolsWithoutQuotes(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	ctx := context.Background()

	_, err := led.Open(ctx, "NOQUOTE", 100, 1, 0.05, 0.10)
	require.NoError(t, err)

	b := New(&stubFeed{}, stubSource{sig: strategy.Hold}, led, testParams, nil, nil)
	results, err := b.MonitorOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, results)

	open, err := led.OpenPositions(ctx)
	require.NoError(t, err)
	assert.Len(t, open, 1, "position survives a quote outage")
}

func TestPublisherSeesExecutedActions(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	f := &stubFeed{prices: map[string]float64{"BTCUSDT": 50}}
	pub := &captivePublisher{}
	b := New(f, stubSource{sig: strategy.Buy}, led, testParams, pub, nil)

	_, err := b.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.NoError(t, err)

	require.Len(t, pub.got, 1)
	assert.Equal(t, "BTCUSDT", pub.got[0].Symbol)
	assert.Equal(t, strategy.Buy, pub.got[0].Action)
}

func TestRunnerStopsOnCancel(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	b := New(&stubFeed{}, stubSource{sig: strategy.Hold}, led, testParams, nil, nil)
	r := NewRunner(b, []string{"BTCUSDT"}, 5*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}

func TestEvaluateUnknownSignal(t *testing.T) {
	t.Parallel()
	led := newTestLedger(t)
	b := New(&stubFeed{}, stubSource{sig: strategy.Signal("SHRUG")}, led, testParams, nil, nil)

	_, err := b.EvaluateAndAct(context.Background(), "BTCUSDT")
	require.Error(t, err)
	assert.False(t, errors.Is(err, strategy.ErrInsufficientData))
}
