package store

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/veltapay/wallet-core/internal/envelope"
	"github.com/veltapay/wallet-core/internal/model"
)

// ErrEnvelopeNotFound is returned when no account row exists for an address.
var ErrEnvelopeNotFound = errors.New("envelope not found")

// SaveEnvelope stores (or wholesale-replaces) the encrypted envelope for an
// account. Envelopes are never partially updated: a password change writes
// a brand-new salt/iv/ciphertext triple in a single statement.
func (db *DB) SaveEnvelope(ctx context.Context, address, chain string, profile model.Profile, env *envelope.Encrypted) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO accounts (address, chain, username, email, display_name, salt, iv, cipher_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			salt = excluded.salt,
			iv = excluded.iv,
			cipher_text = excluded.cipher_text`,
		address, chain, profile.Username, profile.Email, profile.DisplayName,
		base64.StdEncoding.EncodeToString(env.Salt),
		base64.StdEncoding.EncodeToString(env.IV),
		base64.StdEncoding.EncodeToString(env.CipherText),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save envelope: %w", err)
	}
	return nil
}

// EnvelopeByAddress fetches the stored envelope for an account.
func (db *DB) EnvelopeByAddress(ctx context.Context, address string) (*envelope.Encrypted, error) {
	var saltB64, ivB64, ctB64 string
	err := db.QueryRowContext(ctx,
		`SELECT salt, iv, cipher_text FROM accounts WHERE address = ?`, address,
	).Scan(&saltB64, &ivB64, &ctB64)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEnvelopeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch envelope: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil {
		return nil, fmt.Errorf("decode iv: %w", err)
	}
	cipherText, err := base64.StdEncoding.DecodeString(ctB64)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	return &envelope.Encrypted{Salt: salt, IV: iv, CipherText: cipherText}, nil
}
