// Package envelope implements password-based authenticated encryption for
// secret payloads (the private key + mnemonic bundle).
//
// A symmetric key is derived from the password and a fresh random salt with
// PBKDF2-SHA256 at a fixed iteration count, then the payload is sealed with
// AES-256-GCM under a fresh random nonce. Parameters are constants, not
// per-envelope fields, so a stored envelope cannot downgrade them.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is the PBKDF2 work factor. Large enough to make offline
	// brute force expensive; changing it invalidates nothing (the count is
	// fixed for all envelopes, old and new).
	Iterations = 100_000

	keyLen   = 32
	SaltLen  = 16
	NonceLen = 12
)

var (
	// ErrAuthenticationFailed is returned when the password is wrong or the
	// envelope was tampered with. The two cases are indistinguishable;
	// callers must not leak more than "decryption failed".
	ErrAuthenticationFailed = errors.New("envelope authentication failed")

	// ErrCryptoUnavailable is returned only when an underlying primitive
	// cannot be constructed or the CSPRNG fails.
	ErrCryptoUnavailable = errors.New("crypto primitive unavailable")
)

// Encrypted is the at-rest form of a sealed secret. Salt and IV are raw
// bytes here; encoding/json renders []byte as base64, which is the storage
// contract. Immutable once written - a password change produces a brand-new
// envelope with fresh salt and IV.
type Encrypted struct {
	Salt       []byte `json:"salt"`
	IV         []byte `json:"iv"`
	CipherText []byte `json:"cipherText"`
}

// Seal encrypts plaintext under a key derived from password.
// Every call generates a fresh salt and nonce; salts and IVs are never
// reused across envelopes.
func Seal(password string, plaintext []byte) (*Encrypted, error) {
	salt := make([]byte, SaltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: generate salt: %v", ErrCryptoUnavailable, err)
	}

	nonce := make([]byte, NonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: generate nonce: %v", ErrCryptoUnavailable, err)
	}

	aead, err := newAEAD(password, salt)
	if err != nil {
		return nil, err
	}

	return &Encrypted{
		Salt:       salt,
		IV:         nonce,
		CipherText: aead.Seal(nil, nonce, plaintext, nil),
	}, nil
}

// Open re-derives the key from password and the stored salt, then decrypts
// and authenticates. A wrong password and a corrupted envelope both surface
// as ErrAuthenticationFailed.
func Open(password string, env *Encrypted) ([]byte, error) {
	if env == nil || len(env.Salt) != SaltLen || len(env.IV) != NonceLen {
		return nil, ErrAuthenticationFailed
	}

	aead, err := newAEAD(password, env.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, env.IV, env.CipherText, nil)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// newAEAD derives the AES-256 key and builds the GCM instance.
// The derived key is zeroed before returning.
func newAEAD(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, Iterations, keyLen, sha256.New)
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCryptoUnavailable, err)
	}
	return aead, nil
}
