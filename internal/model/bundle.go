package model

// SecretBundle is the plaintext content of an account's encrypted envelope:
// the mnemonic plus one private key per chain family. It exists in memory
// only between envelope decryption and signing; callers wipe it immediately
// after use.
type SecretBundle struct {
	Mnemonic    string            `json:"mnemonic"`
	PrivateKeys map[string][]byte `json:"privateKeys"` // chain family -> raw key bytes
}

// Wipe zeroes all private key material in place.
func (b *SecretBundle) Wipe() {
	for _, k := range b.PrivateKeys {
		clear(k)
	}
	b.Mnemonic = ""
}
