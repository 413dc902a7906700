package keys

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/tyler-smith/go-bip32"
	"golang.org/x/crypto/sha3"
)

// BIP-44 path for the EVM family: m/44'/60'/0'/0/0.
const (
	purposeBIP44 = bip32.FirstHardenedChild + 44
	coinTypeETH  = bip32.FirstHardenedChild + 60
)

var evmPath = []uint32{purposeBIP44, coinTypeETH, bip32.FirstHardenedChild, 0, 0}

// deriveEVM derives the secp256k1 keypair at m/44'/60'/0'/0/0 and encodes
// the address as EIP-55 checksummed hex.
func deriveEVM(seed []byte) (*KeyPair, error) {
	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("%w: master key: %v", ErrDerivation, err)
	}
	for _, idx := range evmPath {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("%w: child %d: %v", ErrDerivation, idx, err)
		}
	}

	priv := privateKeyBytes(key)
	privKey := secp256k1.PrivKeyFromBytes(priv)

	// Address = last 20 bytes of Keccak-256 over the uncompressed public
	// key without the 0x04 prefix.
	pub := privKey.PubKey().SerializeUncompressed()
	digest := keccak256(pub[1:])
	addr := digest[12:]

	return &KeyPair{
		Chain:      ChainEVM,
		Address:    checksumAddress(addr),
		PrivateKey: priv,
	}, nil
}

// privateKeyBytes returns the raw 32-byte private key.
// bip32 Key.Key carries a leading 0x00 pad for some private keys.
func privateKeyBytes(key *bip32.Key) []byte {
	raw := key.Key
	if len(raw) == 33 && raw[0] == 0 {
		raw = raw[1:]
	}
	out := make([]byte, len(raw))
	copy(out, raw)
	return out
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}

// checksumAddress applies EIP-55 mixed-case encoding to a 20-byte address.
func checksumAddress(addr []byte) string {
	lower := hex.EncodeToString(addr)
	digest := keccak256([]byte(lower))

	out := make([]byte, len(lower))
	for i, c := range []byte(lower) {
		if c >= 'a' && c <= 'f' {
			// Uppercase when the corresponding checksum nibble is >= 8.
			nibble := digest[i/2]
			if i%2 == 0 {
				nibble >>= 4
			}
			if nibble&0x0f >= 8 {
				c = c - 'a' + 'A'
			}
		}
		out[i] = c
	}
	return "0x" + string(out)
}

// validEVMAddress accepts 0x-prefixed 40-hex-digit strings. Mixed-case
// input must additionally carry a correct EIP-55 checksum.
func validEVMAddress(s string) bool {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return false
	}
	body := s[2:]
	if _, err := hex.DecodeString(body); err != nil {
		return false
	}

	// All-lower or all-upper hex carries no checksum.
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}

	raw, _ := hex.DecodeString(body)
	return checksumAddress(raw) == s
}
