// Package db persists the order journal: an append-only record of every
// accepted order, read back only by the dashboard. The trading engine
// never consults it.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid       TEXT NOT NULL,
	market     TEXT NOT NULL,
	side       TEXT NOT NULL,
	price      REAL NOT NULL,
	volume     REAL NOT NULL,
	strategy   TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_market ON trades(market, created_at);
`

// Trade is one journaled order as the dashboard sees it.
type Trade struct {
	ID        int64     `json:"id"`
	UUID      string    `json:"uuid"`
	Market    string    `json:"market"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Strategy  string    `json:"strategy"`
	CreatedAt time.Time `json:"created_at"`
}

// Journal owns the SQLite handle. Zero value is not usable; use Open.
type Journal struct {
	db *sql.DB
}

// Open creates the journal database at path, applying the schema.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite prefers single writer.

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close releases the underlying handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends one trade. Failures are the caller's to log; the journal
// must never block or fail an order that the exchange already accepted.
func (j *Journal) Record(ctx context.Context, t Trade) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO trades (uuid, market, side, price, volume, strategy, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, t.UUID, t.Market, t.Side, t.Price, t.Volume, t.Strategy, t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert trade: %w", err)
	}
	return nil
}

// Recent returns the newest trades, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT id, uuid, market, side, price, volume, strategy, created_at
		FROM trades
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.UUID, &t.Market, &t.Side, &t.Price, &t.Volume, &t.Strategy, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}
