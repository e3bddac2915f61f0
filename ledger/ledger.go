package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"crossbot/internal/id"
)

// ErrNoOpenPosition is returned by Close when no OPEN position exists for
// the symbol. Recoverable: a sell signal with nothing open is ignored by
// callers, it never aborts a monitoring loop.
var ErrNoOpenPosition = errors.New("no open position")

// Store is the durable backing for positions. Implementations must make
// OpenPosition and ClosePosition atomic at symbol granularity (transactional
// check-then-write) so concurrent dispatch cannot create two OPEN positions
// for one symbol. A failed write leaves state unchanged.
type Store interface {
	// OpenPosition inserts p unless an OPEN position already exists for
	// p.Symbol, in which case the existing position is returned with
	// created=false.
	OpenPosition(ctx context.Context, p Position) (pos Position, created bool, err error)

	// ClosePosition flips the symbol's OPEN position to CLOSED, setting
	// exit price/time, close reason and realized P&L in one transaction.
	// Returns ErrNoOpenPosition when nothing is open.
	ClosePosition(ctx context.Context, symbol string, exitPrice float64, at time.Time, reason string) (Position, error)

	LoadOpenPosition(ctx context.Context, symbol string) (*Position, error)
	ListOpenPositions(ctx context.Context) ([]Position, error)
	ListPositions(ctx context.Context, symbol string) ([]Position, error)
}

// Ledger is the trade-lifecycle state machine: NONE -> OPEN -> CLOSED per
// symbol. It exclusively owns OPEN->CLOSED transitions; nothing else writes
// position state. Durability is delegated to the Store and an operation is
// complete only once the store acknowledges the write.
type Ledger struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

func New(store Store, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// Open creates an OPEN position for symbol, deriving the stop-loss and
// take-profit thresholds from the entry price:
//
//	stop   = entry * (1 - stopLossPct)
//	target = entry * (1 + takeProfitPct)
//
// Open is idempotent under concurrent dispatch: if an OPEN position already
// exists for the symbol it is returned unchanged instead of erroring, so two
// workers racing on the same BUY signal converge on one trade.
func (l *Ledger) Open(ctx context.Context, symbol string, entryPrice, quantity, stopLossPct, takeProfitPct float64) (Position, error) {
	if symbol == "" {
		return Position{}, fmt.Errorf("ledger open: symbol is required")
	}
	if entryPrice <= 0 {
		return Position{}, fmt.Errorf("ledger open %s: entry price must be positive, got %v", symbol, entryPrice)
	}
	if quantity <= 0 {
		return Position{}, fmt.Errorf("ledger open %s: quantity must be positive, got %v", symbol, quantity)
	}
	if stopLossPct <= 0 || takeProfitPct <= 0 {
		return Position{}, fmt.Errorf("ledger open %s: stop/take percents must be positive (sl=%v tp=%v)", symbol, stopLossPct, takeProfitPct)
	}

	p := Position{
		ID:              id.New(),
		Symbol:          symbol,
		EntryPrice:      entryPrice,
		Quantity:        quantity,
		StopLossPrice:   thresholdPrice(entryPrice, -stopLossPct),
		TakeProfitPrice: thresholdPrice(entryPrice, takeProfitPct),
		EntryTime:       l.now().UTC(),
	}

	pos, created, err := l.store.OpenPosition(ctx, p)
	if err != nil {
		return Position{}, fmt.Errorf("ledger open %s: %w", symbol, err)
	}

	if created {
		l.log.Info("position opened",
			zap.String("id", pos.ID),
			zap.String("symbol", pos.Symbol),
			zap.Float64("entry", pos.EntryPrice),
			zap.Float64("quantity", pos.Quantity),
			zap.Float64("stop", pos.StopLossPrice),
			zap.Float64("target", pos.TakeProfitPrice),
		)
	} else {
		l.log.Debug("open skipped, position already exists",
			zap.String("id", pos.ID),
			zap.String("symbol", pos.Symbol),
		)
	}

	return pos, nil
}

// Close flips the symbol's OPEN position to CLOSED at exitPrice, recording
// realized P&L = (exit - entry) * quantity. Fails with ErrNoOpenPosition if
// nothing is open; an already-closed position cannot be closed again.
func (l *Ledger) Close(ctx context.Context, symbol string, exitPrice float64, reason string) (Position, error) {
	if exitPrice <= 0 {
		return Position{}, fmt.Errorf("ledger close %s: exit price must be positive, got %v", symbol, exitPrice)
	}
	if reason == "" {
		reason = ReasonSignal
	}

	pos, err := l.store.ClosePosition(ctx, symbol, exitPrice, l.now().UTC(), reason)
	if err != nil {
		return Position{}, fmt.Errorf("ledger close %s: %w", symbol, err)
	}

	l.log.Info("position closed",
		zap.String("id", pos.ID),
		zap.String("symbol", pos.Symbol),
		zap.Float64("exit", exitPrice),
		zap.Float64p("pnl", pos.RealizedPnL),
		zap.String("reason", reason),
	)
	return pos, nil
}

// thresholdPrice computes entry*(1+offsetPct) in decimal, rounded to 6
// fractional digits like sizing and P&L. Threshold closes store this value
// verbatim as the exit price, so a float artifact here would leak into
// realized P&L.
func thresholdPrice(entry, offsetPct float64) float64 {
	f, _ := decimal.NewFromFloat(entry).
		Mul(decimal.NewFromFloat(1).Add(decimal.NewFromFloat(offsetPct))).
		Round(6).Float64()
	return f
}

// OpenPositions lists every OPEN position across symbols, for risk sweeps.
func (l *Ledger) OpenPositions(ctx context.Context) ([]Position, error) {
	return l.store.ListOpenPositions(ctx)
}

// Positions lists position history, optionally filtered by symbol.
func (l *Ledger) Positions(ctx context.Context, symbol string) ([]Position, error) {
	return l.store.ListPositions(ctx, symbol)
}
