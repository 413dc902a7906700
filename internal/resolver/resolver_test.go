package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/model"
	"github.com/veltapay/wallet-core/internal/resolver"
)

const (
	addrAlice    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	addrSender   = "So11111111111111111111111111111111111111112"
	addrExternal = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

// fakeDirectory is an in-memory Directory keyed by identifier.
type fakeDirectory struct {
	records map[string]*model.Profile
	err     error
}

func (f *fakeDirectory) Lookup(_ context.Context, identifier string) (*model.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[identifier], nil
}

func newResolver(records map[string]*model.Profile) *resolver.Resolver {
	return resolver.New(&fakeDirectory{records: records})
}

func aliceProfile() *model.Profile {
	return &model.Profile{
		Address:     addrAlice,
		Username:    "alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
	}
}

func TestResolve_ByEmail(t *testing.T) {
	r := newResolver(map[string]*model.Profile{"alice@example.com": aliceProfile()})

	got, err := r.Resolve(context.Background(), addrSender, "alice@example.com", keys.ChainSolana)
	require.NoError(t, err)

	assert.Equal(t, addrAlice, got.ResolvedAddress)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, resolver.SourceEmail, got.SourceKind)
}

func TestResolve_EmailCaseInsensitive(t *testing.T) {
	r := newResolver(map[string]*model.Profile{"alice@example.com": aliceProfile()})

	got, err := r.Resolve(context.Background(), addrSender, "Alice@Example.COM", keys.ChainSolana)
	require.NoError(t, err)
	assert.Equal(t, addrAlice, got.ResolvedAddress)
}

func TestResolve_ByUsername(t *testing.T) {
	r := newResolver(map[string]*model.Profile{"alice": aliceProfile()})

	got, err := r.Resolve(context.Background(), addrSender, "alice", keys.ChainSolana)
	require.NoError(t, err)

	assert.Equal(t, addrAlice, got.ResolvedAddress)
	assert.Equal(t, resolver.SourceUsername, got.SourceKind)
}

func TestResolve_ExternalAddress(t *testing.T) {
	r := newResolver(nil)

	got, err := r.Resolve(context.Background(), addrSender, addrExternal, keys.ChainSolana)
	require.NoError(t, err)

	assert.Equal(t, addrExternal, got.ResolvedAddress)
	assert.Empty(t, got.DisplayName)
	assert.Equal(t, resolver.SourceAddress, got.SourceKind)
}

func TestResolve_AddressWithKnownIdentity_KeepsDisplayName(t *testing.T) {
	r := newResolver(map[string]*model.Profile{addrAlice: aliceProfile()})

	got, err := r.Resolve(context.Background(), addrSender, addrAlice, keys.ChainSolana)
	require.NoError(t, err)

	assert.Equal(t, addrAlice, got.ResolvedAddress)
	assert.Equal(t, "Alice", got.DisplayName)
	assert.Equal(t, resolver.SourceAddress, got.SourceKind)
}

func TestResolve_SelfTransferByAddress(t *testing.T) {
	r := newResolver(nil)

	_, err := r.Resolve(context.Background(), addrSender, addrSender, keys.ChainSolana)
	require.ErrorIs(t, err, resolver.ErrSelfTransfer)
}

func TestResolve_SelfTransferByIdentity(t *testing.T) {
	self := aliceProfile()
	self.Address = addrSender
	r := newResolver(map[string]*model.Profile{"alice@example.com": self})

	_, err := r.Resolve(context.Background(), addrSender, "alice@example.com", keys.ChainSolana)
	require.ErrorIs(t, err, resolver.ErrSelfTransfer)
}

func TestResolve_SelfTransferEVMCaseInsensitive(t *testing.T) {
	sender := "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	r := newResolver(nil)

	_, err := r.Resolve(context.Background(), sender, "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266", keys.ChainEVM)
	require.ErrorIs(t, err, resolver.ErrSelfTransfer)
}

func TestResolve_NotFound(t *testing.T) {
	r := newResolver(nil)

	_, err := r.Resolve(context.Background(), addrSender, "nobody@example.com", keys.ChainSolana)
	require.ErrorIs(t, err, resolver.ErrRecipientNotFound)

	_, err = r.Resolve(context.Background(), addrSender, "", keys.ChainSolana)
	require.ErrorIs(t, err, resolver.ErrRecipientNotFound)
}

func TestResolve_IdentityOnWrongChain(t *testing.T) {
	// Directory record carries a Solana address; an EVM transfer cannot use it.
	r := newResolver(map[string]*model.Profile{"alice": aliceProfile()})

	_, err := r.Resolve(context.Background(), "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", "alice", keys.ChainEVM)
	require.ErrorIs(t, err, resolver.ErrRecipientNotFound)
}

func TestResolve_DirectoryUnavailable(t *testing.T) {
	dirErr := errors.New("connection refused")
	r := resolver.New(&fakeDirectory{err: dirErr})

	_, err := r.Resolve(context.Background(), addrSender, "alice", keys.ChainSolana)
	require.ErrorIs(t, err, dirErr)
	require.NotErrorIs(t, err, resolver.ErrRecipientNotFound)
}
