// Package store is the embedded SQLite storage for account envelopes and
// the transfer ledger.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"github.com/veltapay/wallet-core/internal/logger"
)

// DB wraps the SQLite connection.
type DB struct {
	*sql.DB
	log *logger.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	address      TEXT PRIMARY KEY,
	chain        TEXT NOT NULL,
	username     TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	display_name TEXT NOT NULL DEFAULT '',
	salt         TEXT NOT NULL,
	iv           TEXT NOT NULL,
	cipher_text  TEXT NOT NULL,
	created_at   TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	from_address TEXT NOT NULL,
	to_address   TEXT NOT NULL,
	amount       TEXT NOT NULL,
	chain        TEXT NOT NULL,
	signature    TEXT NOT NULL UNIQUE,
	created_at   TIMESTAMP NOT NULL
);
`

// Open opens (creating if needed) the wallet database at path and applies
// the schema. Pass ":memory:" for an ephemeral database in tests.
func Open(ctx context.Context, path string, log *logger.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := createFileIfNotExists(path); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := conn.ExecContext(ctx, schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("wallet database ready")
	return &DB{DB: conn, log: log}, nil
}

func createFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		f, err := os.OpenFile(dbFile, os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			return fmt.Errorf("create database file: %w", err)
		}
		f.Close()
	}
	return nil
}
