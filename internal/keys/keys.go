// Package keys turns BIP-39 seed bytes into chain-specific keypairs.
//
// One fixed derivation path per chain family; there are no user-chosen
// indices. Restoring from the same mnemonic reproduces the same address,
// which is the basis for account recovery.
package keys

import (
	"errors"
	"fmt"

	"github.com/veltapay/wallet-core/internal/mnemonic"
)

// ChainFamily identifies the address/signature conventions of a supported chain.
type ChainFamily string

const (
	// ChainEVM is the secp256k1 family with EIP-55 checksummed hex addresses.
	ChainEVM ChainFamily = "evm"

	// ChainSolana is the Ed25519 family with base-58 addresses.
	ChainSolana ChainFamily = "solana"
)

// ErrDerivation is returned for malformed seeds or unknown chain families.
var ErrDerivation = errors.New("key derivation failed")

// KeyPair holds a chain-specific address and the raw private key bytes.
// The private key must never leave process memory unencrypted; call Zero
// as soon as the key has served its purpose.
type KeyPair struct {
	Chain      ChainFamily
	Address    string
	PrivateKey []byte
}

// Zero wipes the private key bytes in place.
func (kp *KeyPair) Zero() {
	clear(kp.PrivateKey)
}

// Derive applies the chain family's fixed derivation path to a 64-byte
// BIP-39 seed. Deterministic: same seed, same address, always.
func Derive(seed []byte, chain ChainFamily) (*KeyPair, error) {
	if len(seed) != mnemonic.SeedSize {
		return nil, fmt.Errorf("%w: seed must be %d bytes, got %d", ErrDerivation, mnemonic.SeedSize, len(seed))
	}

	switch chain {
	case ChainEVM:
		return deriveEVM(seed)
	case ChainSolana:
		return deriveSolana(seed)
	default:
		return nil, fmt.Errorf("%w: unknown chain family %q", ErrDerivation, chain)
	}
}

// ValidAddress reports whether s is a syntactically valid address for the
// given chain family.
func ValidAddress(chain ChainFamily, s string) bool {
	switch chain {
	case ChainEVM:
		return validEVMAddress(s)
	case ChainSolana:
		return validSolanaAddress(s)
	default:
		return false
	}
}
