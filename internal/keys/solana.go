package keys

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SLIP-0010 path for the Solana family: m/44'/501'/0'/0'.
// Ed25519 supports hardened derivation only, so every index is hardened.
const (
	hardenedOffset  = 0x80000000
	coinTypeSolana  = 501
	slip10CurveSeed = "ed25519 seed"
)

var solanaPath = []uint32{
	hardenedOffset + 44,
	hardenedOffset + coinTypeSolana,
	hardenedOffset + 0,
	hardenedOffset + 0,
}

// deriveSolana derives the Ed25519 keypair at m/44'/501'/0'/0' per
// SLIP-0010 and encodes the address as base-58 (the public key itself).
func deriveSolana(seed []byte) (*KeyPair, error) {
	key, chainCode := slip10MasterKey(seed)
	for _, idx := range solanaPath {
		if idx < hardenedOffset {
			return nil, fmt.Errorf("%w: ed25519 requires hardened indices", ErrDerivation)
		}
		key, chainCode = slip10ChildKey(key, chainCode, idx)
	}

	priv := solana.PrivateKey(ed25519.NewKeyFromSeed(key))
	clear(key)
	clear(chainCode)

	out := make([]byte, len(priv))
	copy(out, priv)

	return &KeyPair{
		Chain:      ChainSolana,
		Address:    priv.PublicKey().String(),
		PrivateKey: out,
	}, nil
}

// slip10MasterKey computes the Ed25519 master key and chain code:
// HMAC-SHA512(key="ed25519 seed", data=seed), split 32/32.
func slip10MasterKey(seed []byte) (key, chainCode []byte) {
	mac := hmac.New(sha512.New, []byte(slip10CurveSeed))
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// slip10ChildKey computes a hardened child:
// HMAC-SHA512(key=chainCode, data=0x00 || parentKey || ser32(index)).
func slip10ChildKey(parentKey, parentChainCode []byte, index uint32) (key, chainCode []byte) {
	data := make([]byte, 0, 1+len(parentKey)+4)
	data = append(data, 0x00)
	data = append(data, parentKey...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, parentChainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// validSolanaAddress validates a Solana address
func validSolanaAddress(address string) bool {
	// Try to parse as Solana public key
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}
