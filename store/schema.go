package store

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	entry_price REAL NOT NULL,
	quantity REAL NOT NULL,
	stop_loss_price REAL NOT NULL,
	take_profit_price REAL NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_price REAL,
	exit_time DATETIME,
	realized_pnl REAL,
	close_reason TEXT NOT NULL DEFAULT ''
);

-- At most one OPEN position per symbol, enforced by the database itself so
-- a racing writer that slips past the in-transaction check still cannot
-- create a duplicate.
CREATE UNIQUE INDEX IF NOT EXISTS idx_positions_open_symbol
	ON positions(symbol) WHERE exit_price IS NULL;

CREATE INDEX IF NOT EXISTS idx_positions_symbol ON positions(symbol);

CREATE TABLE IF NOT EXISTS backtest_runs (
	id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	short_window INTEGER NOT NULL,
	long_window INTEGER NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL,
	stop_loss_pct REAL NOT NULL,
	take_profit_pct REAL NOT NULL,
	total_trades INTEGER NOT NULL,
	total_profit_loss REAL NOT NULL,
	winning_trades INTEGER NOT NULL,
	losing_trades INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_trades (
	run_id TEXT NOT NULL REFERENCES backtest_runs(id),
	seq INTEGER NOT NULL,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	return_pct REAL NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
