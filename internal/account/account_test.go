package account_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/wallet-core/internal/account"
	"github.com/veltapay/wallet-core/internal/envelope"
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/mnemonic"
	"github.com/veltapay/wallet-core/internal/model"
)

type memStore struct {
	envelopes map[string]*envelope.Encrypted
	chains    map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		envelopes: map[string]*envelope.Encrypted{},
		chains:    map[string]string{},
	}
}

func (s *memStore) SaveEnvelope(_ context.Context, address, chain string, _ model.Profile, env *envelope.Encrypted) error {
	s.envelopes[address] = env
	s.chains[address] = chain
	return nil
}

func TestCreate_ProvisionsBothChains(t *testing.T) {
	store := newMemStore()
	svc := account.New(store, logger.Nop())

	resp, err := svc.Create(context.Background(), "correcthorse", model.Profile{Username: "alice"})
	require.NoError(t, err)

	assert.True(t, mnemonic.Validate(resp.Mnemonic), "mnemonic is a valid 12-word phrase")
	assert.True(t, keys.ValidAddress(keys.ChainEVM, resp.EVMAddress))
	assert.True(t, keys.ValidAddress(keys.ChainSolana, resp.SolanaAddress))
	assert.NotEmpty(t, resp.QR)

	_, err = base64.StdEncoding.DecodeString(resp.QR)
	require.NoError(t, err, "qr is base64 png")

	// Both addresses share one sealed envelope.
	require.Contains(t, store.envelopes, resp.EVMAddress)
	require.Contains(t, store.envelopes, resp.SolanaAddress)
	assert.Equal(t, "evm", store.chains[resp.EVMAddress])
	assert.Equal(t, "solana", store.chains[resp.SolanaAddress])
}

func TestCreate_EnvelopeOpensWithPasswordOnly(t *testing.T) {
	store := newMemStore()
	svc := account.New(store, logger.Nop())

	resp, err := svc.Create(context.Background(), "correcthorse", model.Profile{})
	require.NoError(t, err)

	env := store.envelopes[resp.SolanaAddress]
	require.NotNil(t, env)

	_, err = envelope.Open("wrong-password", env)
	require.ErrorIs(t, err, envelope.ErrAuthenticationFailed)

	plaintext, err := envelope.Open("correcthorse", env)
	require.NoError(t, err)

	var bundle model.SecretBundle
	require.NoError(t, json.Unmarshal(plaintext, &bundle))
	assert.Equal(t, resp.Mnemonic, bundle.Mnemonic)
	assert.Len(t, bundle.PrivateKeys["solana"], 64)
	assert.Len(t, bundle.PrivateKeys["evm"], 32)
}

func TestRestore_ReproducesAddresses(t *testing.T) {
	store := newMemStore()
	svc := account.New(store, logger.Nop())

	created, err := svc.Create(context.Background(), "first-password", model.Profile{})
	require.NoError(t, err)

	restored, err := svc.Restore(context.Background(), created.Mnemonic, "second-password", model.Profile{})
	require.NoError(t, err)

	assert.Equal(t, created.EVMAddress, restored.EVMAddress)
	assert.Equal(t, created.SolanaAddress, restored.SolanaAddress)
	assert.Empty(t, restored.Mnemonic, "mnemonic is returned at creation only")

	// The envelope was resealed: the old password no longer opens it.
	env := store.envelopes[created.SolanaAddress]
	_, err = envelope.Open("first-password", env)
	require.ErrorIs(t, err, envelope.ErrAuthenticationFailed)
	_, err = envelope.Open("second-password", env)
	require.NoError(t, err)
}

func TestRestore_RejectsInvalidMnemonic(t *testing.T) {
	svc := account.New(newMemStore(), logger.Nop())

	_, err := svc.Restore(context.Background(), "not a valid phrase", "pw", model.Profile{})
	require.ErrorIs(t, err, mnemonic.ErrInvalidMnemonic)
}
