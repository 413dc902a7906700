package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/veltapay/wallet-core/internal/model"
)

// ErrDuplicateSignature is returned when a ledger row with the same
// signature already exists. The unique index on signature is the
// idempotency boundary for concurrent submissions.
var ErrDuplicateSignature = errors.New("ledger entry already recorded for signature")

// InsertLedgerEntry appends a ledger row. At most one row per signature.
func (db *DB) InsertLedgerEntry(ctx context.Context, entry model.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger (from_address, to_address, amount, chain, signature, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.FromAddress, entry.ToAddress, entry.Amount, entry.Chain, entry.Signature, entry.CreatedAt,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateSignature
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// FindBySignature returns the ledger row for a signature, or (nil, nil)
// when none exists.
func (db *DB) FindBySignature(ctx context.Context, signature string) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	err := db.QueryRowContext(ctx, `
		SELECT from_address, to_address, amount, chain, signature, created_at
		FROM ledger WHERE signature = ?`, signature,
	).Scan(&entry.FromAddress, &entry.ToAddress, &entry.Amount, &entry.Chain, &entry.Signature, &entry.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ledger entry: %w", err)
	}
	return &entry, nil
}

// ListByAddress returns all ledger rows where the address is sender or
// recipient, newest first.
func (db *DB) ListByAddress(ctx context.Context, address string) ([]model.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT from_address, to_address, amount, chain, signature, created_at
		FROM ledger
		WHERE from_address = ? OR to_address = ?
		ORDER BY created_at DESC, id DESC`, address, address,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.LedgerEntry, 0, 8)
	for rows.Next() {
		var entry model.LedgerEntry
		if err := rows.Scan(&entry.FromAddress, &entry.ToAddress, &entry.Amount, &entry.Chain, &entry.Signature, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
