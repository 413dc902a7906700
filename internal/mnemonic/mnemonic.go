// Package mnemonic implements BIP-39 seed phrase generation and validation.
package mnemonic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
)

// EntropyBits is the entropy size for 12-word mnemonics.
const EntropyBits = 128

// SeedSize is the length of a derived seed in bytes (512 bits).
const SeedSize = 64

var (
	// ErrEntropySource is returned when the OS CSPRNG cannot supply entropy.
	ErrEntropySource = errors.New("entropy source unavailable")

	// ErrInternalInvariant is returned when a freshly generated mnemonic
	// fails its own checksum validation. This should never happen.
	ErrInternalInvariant = errors.New("generated mnemonic failed validation")

	// ErrInvalidMnemonic is returned by ToSeed for phrases that fail
	// wordlist or checksum validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// Generate creates a new 12-word BIP-39 mnemonic from cryptographically
// secure randomness. The result is re-validated before it is returned.
func Generate() (string, error) {
	entropy, err := bip39.NewEntropy(EntropyBits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropySource, err)
	}

	phrase, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("generate mnemonic: %w", err)
	}

	// The phrase we hand out must round-trip through our own validator.
	if !Validate(phrase) {
		return "", ErrInternalInvariant
	}

	return phrase, nil
}

// Validate checks if a mnemonic is valid per BIP-39
// (correct word count, valid words, valid checksum).
// It never fails for malformed input - it returns false.
func Validate(candidate string) bool {
	return bip39.IsMnemonicValid(strings.TrimSpace(candidate))
}

// ToSeed derives a 512-bit seed from a mnemonic with an empty passphrase
// using PBKDF2-SHA512 as specified in BIP-39. Deterministic: the same
// mnemonic always yields the same seed bytes.
func ToSeed(phrase string) ([]byte, error) {
	phrase = strings.TrimSpace(phrase)
	if !Validate(phrase) {
		return nil, ErrInvalidMnemonic
	}
	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}
