// Package store persists positions and backtest runs in SQLite.
//
// It implements ledger.Store: open and close are transactional
// check-then-write operations so the single-open-position-per-symbol
// invariant holds under concurrent dispatch. Symbols are independent units
// of concurrency; there is no cross-symbol locking.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"crossbot/backtest"
	"crossbot/internal/id"
	"crossbot/ledger"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("backtest run not found")

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func NewSQLite(path string) (*SQLite, error) {
	// _txlock=immediate makes every transaction take the write lock up
	// front, so two writers serialize at BEGIN instead of failing at COMMIT
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

const positionCols = `id, symbol, entry_price, quantity, stop_loss_price,
	take_profit_price, entry_time, exit_price, exit_time, realized_pnl, close_reason`

// OpenPosition inserts p unless the symbol already has an OPEN position.
// The check and the insert run inside one transaction; the partial unique
// index backstops the rare case of two transactions interleaving anyway, in
// which case the loser re-reads and returns the winner's row.
func (s *SQLite) OpenPosition(ctx context.Context, p ledger.Position) (ledger.Position, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Position{}, false, err
	}
	defer tx.Rollback()

	existing, err := loadOpen(ctx, tx, p.Symbol)
	if err != nil {
		return ledger.Position{}, false, err
	}
	if existing != nil {
		return *existing, false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO positions
		(id, symbol, entry_price, quantity, stop_loss_price, take_profit_price, entry_time)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Symbol, p.EntryPrice, p.Quantity, p.StopLossPrice, p.TakeProfitPrice, p.EntryTime,
	)
	if err != nil {
		if isUniqueViolation(err) {
			// lost the race: another writer opened the symbol first
			winner, loadErr := s.LoadOpenPosition(ctx, p.Symbol)
			if loadErr == nil && winner != nil {
				return *winner, false, nil
			}
		}
		return ledger.Position{}, false, fmt.Errorf("insert position: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.Position{}, false, err
	}
	return p, true, nil
}

// ClosePosition flips the symbol's OPEN position to CLOSED in one
// transaction, computing realized P&L = (exit - entry) * quantity from the
// stored row. Returns ledger.ErrNoOpenPosition when nothing is open.
func (s *SQLite) ClosePosition(ctx context.Context, symbol string, exitPrice float64, at time.Time, reason string) (ledger.Position, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Position{}, err
	}
	defer tx.Rollback()

	open, err := loadOpen(ctx, tx, symbol)
	if err != nil {
		return ledger.Position{}, err
	}
	if open == nil {
		return ledger.Position{}, ledger.ErrNoOpenPosition
	}

	// decimal keeps stored P&L stable at 6 fractional digits, matching the
	// sizing precision
	pnl, _ := decimal.NewFromFloat(exitPrice).
		Sub(decimal.NewFromFloat(open.EntryPrice)).
		Mul(decimal.NewFromFloat(open.Quantity)).
		Round(6).Float64()

	res, err := tx.ExecContext(ctx, `
		UPDATE positions
		SET exit_price = ?, exit_time = ?, realized_pnl = ?, close_reason = ?
		WHERE id = ? AND exit_price IS NULL`,
		exitPrice, at, pnl, reason, open.ID,
	)
	if err != nil {
		return ledger.Position{}, fmt.Errorf("close position: %w", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return ledger.Position{}, ledger.ErrNoOpenPosition
	}

	if err := tx.Commit(); err != nil {
		return ledger.Position{}, err
	}

	open.ExitPrice = &exitPrice
	exitAt := at
	open.ExitTime = &exitAt
	open.RealizedPnL = &pnl
	open.CloseReason = reason
	return *open, nil
}

func (s *SQLite) LoadOpenPosition(ctx context.Context, symbol string) (*ledger.Position, error) {
	return loadOpen(ctx, s.db, symbol)
}

func (s *SQLite) ListOpenPositions(ctx context.Context) ([]ledger.Position, error) {
	return s.queryPositions(ctx, `
		SELECT `+positionCols+` FROM positions
		WHERE exit_price IS NULL ORDER BY symbol`)
}

// ListPositions returns position history ordered by entry time; symbol == ""
// means all symbols.
func (s *SQLite) ListPositions(ctx context.Context, symbol string) ([]ledger.Position, error) {
	if symbol == "" {
		return s.queryPositions(ctx, `
			SELECT `+positionCols+` FROM positions ORDER BY entry_time, id`)
	}
	return s.queryPositions(ctx, `
		SELECT `+positionCols+` FROM positions
		WHERE symbol = ? ORDER BY entry_time, id`, symbol)
}

func (s *SQLite) queryPositions(ctx context.Context, query string, args ...any) ([]ledger.Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Position
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosition(r rowScanner) (ledger.Position, error) {
	var (
		p      ledger.Position
		exit   sql.NullFloat64
		exitAt sql.NullTime
		pnl    sql.NullFloat64
	)
	err := r.Scan(
		&p.ID, &p.Symbol, &p.EntryPrice, &p.Quantity, &p.StopLossPrice,
		&p.TakeProfitPrice, &p.EntryTime, &exit, &exitAt, &pnl, &p.CloseReason,
	)
	if err != nil {
		return ledger.Position{}, err
	}
	if exit.Valid {
		p.ExitPrice = &exit.Float64
		p.ExitTime = &exitAt.Time
		p.RealizedPnL = &pnl.Float64
	}
	return p, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func loadOpen(ctx context.Context, q querier, symbol string) (*ledger.Position, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+positionCols+` FROM positions
		WHERE symbol = ? AND exit_price IS NULL`, symbol)

	p, err := scanPosition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}

// SaveRun persists a backtest run and its trades, assigning the run its
// audit identity (ULID id and created-at). The returned copy carries both.
func (s *SQLite) SaveRun(ctx context.Context, run backtest.Run) (backtest.Run, error) {
	run.ID = id.New()
	run.Created = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return backtest.Run{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs
		(id, symbol, short_window, long_window, initial_balance, final_balance,
		 stop_loss_pct, take_profit_pct, total_trades, total_profit_loss,
		 winning_trades, losing_trades, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Symbol, run.ShortWindow, run.LongWindow, run.InitialBalance,
		run.FinalBalance, run.StopLossPct, run.TakeProfitPct, run.TotalTrades,
		run.TotalProfitLoss, run.WinningTrades, run.LosingTrades, run.Created,
	)
	if err != nil {
		return backtest.Run{}, fmt.Errorf("insert backtest run: %w", err)
	}

	for i, tr := range run.Trades {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO backtest_trades
			(run_id, seq, entry_time, exit_time, entry_price, exit_price, return_pct)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, tr.EntryTime, tr.ExitTime, tr.EntryPrice, tr.ExitPrice, tr.ReturnPct,
		)
		if err != nil {
			return backtest.Run{}, fmt.Errorf("insert backtest trade %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return backtest.Run{}, err
	}
	return run, nil
}

// ListRuns returns run summaries, newest first. Trade lists are not loaded;
// use GetRun for a single run with its trades.
func (s *SQLite) ListRuns(ctx context.Context) ([]backtest.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, short_window, long_window, initial_balance, final_balance,
		       stop_loss_pct, take_profit_pct, total_trades, total_profit_loss,
		       winning_trades, losing_trades, created_at
		FROM backtest_runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []backtest.Run
	for rows.Next() {
		var r backtest.Run
		err := rows.Scan(
			&r.ID, &r.Symbol, &r.ShortWindow, &r.LongWindow, &r.InitialBalance,
			&r.FinalBalance, &r.StopLossPct, &r.TakeProfitPct, &r.TotalTrades,
			&r.TotalProfitLoss, &r.WinningTrades, &r.LosingTrades, &r.Created,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRun loads one run with its full trade list.
func (s *SQLite) GetRun(ctx context.Context, runID string) (backtest.Run, error) {
	var r backtest.Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, symbol, short_window, long_window, initial_balance, final_balance,
		       stop_loss_pct, take_profit_pct, total_trades, total_profit_loss,
		       winning_trades, losing_trades, created_at
		FROM backtest_runs WHERE id = ?`, runID).Scan(
		&r.ID, &r.Symbol, &r.ShortWindow, &r.LongWindow, &r.InitialBalance,
		&r.FinalBalance, &r.StopLossPct, &r.TakeProfitPct, &r.TotalTrades,
		&r.TotalProfitLoss, &r.WinningTrades, &r.LosingTrades, &r.Created,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return backtest.Run{}, fmt.Errorf("run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return backtest.Run{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT entry_time, exit_time, entry_price, exit_price, return_pct
		FROM backtest_trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return backtest.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var tr backtest.Trade
		if err := rows.Scan(&tr.EntryTime, &tr.ExitTime, &tr.EntryPrice, &tr.ExitPrice, &tr.ReturnPct); err != nil {
			return backtest.Run{}, err
		}
		r.Trades = append(r.Trades, tr)
	}
	return r, rows.Err()
}
