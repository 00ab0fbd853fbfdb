package storage

// sqlite.go — snapshot-style persistence for the trading state.
//
// Layout:
//   - `meta`: single row carrying the last save timestamp. Its absence
//     means first run.
//   - `balances`, `positions`, `watchlist`: rewritten wholesale on every
//     Save inside one transaction. The state is small (a handful of
//     balances, at most a few open positions) so a full rewrite beats
//     diffing.
//   - `trades`: append-only journal of closed positions, never rewritten.
//   - Prune on startup: trades older than 90d.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/scalpbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS meta (
    id       INTEGER PRIMARY KEY CHECK (id = 1),
    saved_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balances (
    chain   TEXT PRIMARY KEY,
    usd     REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS positions (
    id            TEXT PRIMARY KEY,
    chain         TEXT NOT NULL,
    pair_address  TEXT NOT NULL,
    token_address TEXT NOT NULL,
    token_symbol  TEXT NOT NULL,
    entry_price   REAL NOT NULL,
    token_amount  REAL NOT NULL,
    size_usd      REAL NOT NULL,
    take_profit   REAL NOT NULL,
    stop_loss     REAL NOT NULL,
    max_hold      TEXT NOT NULL,
    signal_json   TEXT,
    opened_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS watchlist (
    chain        TEXT NOT NULL,
    pair_address TEXT NOT NULL,
    token_symbol TEXT NOT NULL,
    added_at     TEXT NOT NULL,
    PRIMARY KEY (chain, pair_address)
);

CREATE TABLE IF NOT EXISTS trades (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    position_id   TEXT NOT NULL,
    chain         TEXT NOT NULL,
    pair_address  TEXT NOT NULL,
    token_symbol  TEXT NOT NULL,
    entry_price   REAL NOT NULL,
    exit_price    REAL NOT NULL,
    token_amount  REAL NOT NULL,
    size_usd      REAL NOT NULL,
    reason        TEXT NOT NULL,
    pnl_usd       REAL NOT NULL,
    pnl_percent   REAL NOT NULL,
    hold_seconds  INTEGER NOT NULL,
    opened_at     TEXT NOT NULL,
    closed_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_closed ON trades(closed_at DESC);
`

// retentionTrades keeps the journal bounded; closed scalps older than
// this carry no operational value.
const retentionTrades = 90 * 24 * time.Hour

// timeFormat is UTC with a fixed-width fraction so TEXT comparison orders
// the same as the timestamps themselves.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339Nano, s)
	}
	return t
}

// SQLiteStorage implements ports.Storage on SQLite (pure Go, no CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at the given path,
// applies the schema and prunes old journal entries.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// Load restores the last saved snapshot. Returns (nil, nil) when the
// database has never been saved to.
func (s *SQLiteStorage) Load(ctx context.Context) (*domain.StateSnapshot, error) {
	var savedAt string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM meta WHERE id = 1`).Scan(&savedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Load: meta: %w", err)
	}

	snap := &domain.StateSnapshot{
		Balances: make(map[domain.Chain]float64),
		SavedAt:  parseTime(savedAt),
	}

	if err := s.loadBalances(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadPositions(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadWatchlist(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *SQLiteStorage) loadBalances(ctx context.Context, snap *domain.StateSnapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT chain, usd FROM balances`)
	if err != nil {
		return fmt.Errorf("storage.Load: balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chain string
		var usd float64
		if err := rows.Scan(&chain, &usd); err != nil {
			return fmt.Errorf("storage.Load: scan balance: %w", err)
		}
		snap.Balances[domain.Chain(chain)] = usd
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadPositions(ctx context.Context, snap *domain.StateSnapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chain, pair_address, token_address, token_symbol,
		       entry_price, token_amount, size_usd, take_profit, stop_loss,
		       max_hold, signal_json, opened_at
		FROM positions
	`)
	if err != nil {
		return fmt.Errorf("storage.Load: positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p domain.Position
		var chain, maxHold, openedAt string
		var signalJSON sql.NullString

		if err := rows.Scan(
			&p.ID, &chain, &p.PairAddress, &p.TokenAddress, &p.TokenSymbol,
			&p.EntryPrice, &p.TokenAmount, &p.SizeUSD, &p.TakeProfit, &p.StopLoss,
			&maxHold, &signalJSON, &openedAt,
		); err != nil {
			return fmt.Errorf("storage.Load: scan position: %w", err)
		}

		p.Chain = domain.Chain(chain)
		p.MaxHoldUntil = parseTime(maxHold)
		p.OpenedAt = parseTime(openedAt)
		if signalJSON.Valid && signalJSON.String != "" {
			var sig domain.Signal
			if json.Unmarshal([]byte(signalJSON.String), &sig) == nil {
				p.Signal = &sig
			}
		}
		snap.Positions = append(snap.Positions, p)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadWatchlist(ctx context.Context, snap *domain.StateSnapshot) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chain, pair_address, token_symbol, added_at FROM watchlist`,
	)
	if err != nil {
		return fmt.Errorf("storage.Load: watchlist: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var w domain.WatchItem
		var chain, addedAt string
		if err := rows.Scan(&chain, &w.PairAddress, &w.TokenSymbol, &addedAt); err != nil {
			return fmt.Errorf("storage.Load: scan watch item: %w", err)
		}
		w.Chain = domain.Chain(chain)
		w.AddedAt = parseTime(addedAt)
		snap.Watchlist = append(snap.Watchlist, w)
	}
	return rows.Err()
}

// Save rewrites the full snapshot inside one transaction.
func (s *SQLiteStorage) Save(ctx context.Context, state *domain.StateSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"balances", "positions", "watchlist"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("storage.Save: clear %s: %w", table, err)
		}
	}

	for chain, usd := range state.Balances {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO balances (chain, usd) VALUES (?, ?)`,
			string(chain), usd,
		); err != nil {
			return fmt.Errorf("storage.Save: balance %s: %w", chain, err)
		}
	}

	for _, p := range state.Positions {
		var signalJSON []byte
		if p.Signal != nil {
			signalJSON, _ = json.Marshal(p.Signal)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO positions
				(id, chain, pair_address, token_address, token_symbol,
				 entry_price, token_amount, size_usd, take_profit, stop_loss,
				 max_hold, signal_json, opened_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, string(p.Chain), p.PairAddress, p.TokenAddress, p.TokenSymbol,
			p.EntryPrice, p.TokenAmount, p.SizeUSD, p.TakeProfit, p.StopLoss,
			fmtTime(p.MaxHoldUntil), string(signalJSON), fmtTime(p.OpenedAt),
		); err != nil {
			return fmt.Errorf("storage.Save: position %s: %w", p.ID, err)
		}
	}

	for _, w := range state.Watchlist {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO watchlist (chain, pair_address, token_symbol, added_at)
			VALUES (?, ?, ?, ?)`,
			string(w.Chain), w.PairAddress, w.TokenSymbol, fmtTime(w.AddedAt),
		); err != nil {
			return fmt.Errorf("storage.Save: watch item %s: %w", w.PairAddress, err)
		}
	}

	savedAt := state.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (id, saved_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
		fmtTime(savedAt),
	); err != nil {
		return fmt.Errorf("storage.Save: meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Save: commit: %w", err)
	}
	return nil
}

// AppendTrade records a closed trade in the journal.
func (s *SQLiteStorage) AppendTrade(ctx context.Context, t domain.Trade) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(position_id, chain, pair_address, token_symbol,
			 entry_price, exit_price, token_amount, size_usd, reason,
			 pnl_usd, pnl_percent, hold_seconds, opened_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, string(t.Chain), t.PairAddress, t.TokenSymbol,
		t.EntryPrice, t.ExitPrice, t.TokenAmount, t.SizeUSD, string(t.Reason),
		t.PnLUSD, t.PnLPercent, int64(t.HoldTime.Seconds()),
		fmtTime(t.OpenedAt), fmtTime(t.ClosedAt),
	); err != nil {
		return fmt.Errorf("storage.AppendTrade: %w", err)
	}
	return nil
}

// RecentTrades returns journal entries closed at or after `since`,
// newest first.
func (s *SQLiteStorage) RecentTrades(ctx context.Context, since time.Time) ([]domain.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position_id, chain, pair_address, token_symbol,
		       entry_price, exit_price, token_amount, size_usd, reason,
		       pnl_usd, pnl_percent, hold_seconds, opened_at, closed_at
		FROM trades
		WHERE closed_at >= ?
		ORDER BY closed_at DESC
	`, fmtTime(since))
	if err != nil {
		return nil, fmt.Errorf("storage.RecentTrades: query: %w", err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var chain, reason, openedAt, closedAt string
		var holdSeconds int64

		if err := rows.Scan(
			&t.ID, &chain, &t.PairAddress, &t.TokenSymbol,
			&t.EntryPrice, &t.ExitPrice, &t.TokenAmount, &t.SizeUSD, &reason,
			&t.PnLUSD, &t.PnLPercent, &holdSeconds, &openedAt, &closedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentTrades: scan row: %w", err)
		}

		t.Chain = domain.Chain(chain)
		t.Reason = domain.ExitReason(reason)
		t.HoldTime = time.Duration(holdSeconds) * time.Second
		t.OpenedAt = parseTime(openedAt)
		t.ClosedAt = parseTime(closedAt)
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld drops journal entries past retention to keep the DB light.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-retentionTrades)
	s.db.ExecContext(ctx, `DELETE FROM trades WHERE closed_at < ?`, fmtTime(cutoff))
}
