package db

import (
	"context"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
)

const driverName = "sqlite"

// Connect opens the SQLite database at path. ":memory:" gives a private in-memory database.
func Connect(ctx context.Context, path string) (*sqlx.DB, error) {
	pool, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	// An in-memory database only exists on the connection that created it.
	pool.SetMaxOpenConns(1)

	if err := pool.PingContext(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.InfoContext(ctx, "Connected to database", "db.path", path)
	return pool, nil
}

// InitializeDB creates the schema if it does not exist yet.
func InitializeDB(ctx context.Context, DB *sqlx.DB) error {
	roundSchema := `
	CREATE TABLE IF NOT EXISTS rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		round_number INTEGER NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		winner TEXT NOT NULL DEFAULT '',
		line TEXT NOT NULL DEFAULT '',
		board TEXT NOT NULL,
		moves TEXT NOT NULL,
		finished_at INTEGER NOT NULL,
		UNIQUE (session_id, round_number)
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_session ON rounds (session_id, round_number);`

	if _, err := DB.ExecContext(ctx, roundSchema); err != nil {
		return fmt.Errorf("failed to create rounds table: %w", err)
	}

	slog.InfoContext(ctx, "DB schema verified.")
	return nil
}
