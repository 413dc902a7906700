package transfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veltapay/wallet-core/internal/chain"
	"github.com/veltapay/wallet-core/internal/envelope"
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/model"
	"github.com/veltapay/wallet-core/internal/resolver"
	"github.com/veltapay/wallet-core/internal/store"
	"github.com/veltapay/wallet-core/internal/transfer"
)

const (
	senderAddr    = "11111111111111111111111111111111"
	recipientAddr = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	password      = "correcthorse"
)

type fakeDirectory struct {
	profiles map[string]model.Profile
}

func (d *fakeDirectory) Lookup(_ context.Context, identifier string) (*model.Profile, error) {
	if p, ok := d.profiles[identifier]; ok {
		return &p, nil
	}
	return nil, nil
}

type fakeVault struct {
	env *envelope.Encrypted
}

func (v *fakeVault) EnvelopeByAddress(_ context.Context, _ string) (*envelope.Encrypted, error) {
	return v.env, nil
}

type fakeLedger struct {
	entries   map[string]model.LedgerEntry
	insertErr error
	inserts   int
}

func (l *fakeLedger) InsertLedgerEntry(_ context.Context, entry model.LedgerEntry) error {
	l.inserts++
	if l.insertErr != nil {
		return l.insertErr
	}
	if _, ok := l.entries[entry.Signature]; ok {
		return store.ErrDuplicateSignature
	}
	l.entries[entry.Signature] = entry
	return nil
}

func (l *fakeLedger) FindBySignature(_ context.Context, signature string) (*model.LedgerEntry, error) {
	if e, ok := l.entries[signature]; ok {
		return &e, nil
	}
	return nil, nil
}

type fakeChain struct {
	submits   int
	signature string
	submitErr error
	waitErr   error
	status    chain.Status
	statusErr error
}

func (c *fakeChain) SubmitTransfer(_ context.Context, _ []byte, _, _ string) (string, error) {
	c.submits++
	if c.submitErr != nil {
		return "", c.submitErr
	}
	return c.signature, nil
}

func (c *fakeChain) WaitForConfirmation(_ context.Context, signature string) (*chain.Receipt, error) {
	if c.waitErr != nil {
		return nil, c.waitErr
	}
	return &chain.Receipt{Signature: signature}, nil
}

func (c *fakeChain) SignatureStatus(_ context.Context, _ string) (chain.Status, error) {
	if c.statusErr != nil {
		return chain.StatusUnknown, c.statusErr
	}
	return c.status, nil
}

type harness struct {
	engine *transfer.Engine
	chain  *fakeChain
	ledger *fakeLedger
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	bundle, err := json.Marshal(model.SecretBundle{
		Mnemonic:    "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about",
		PrivateKeys: map[string][]byte{string(keys.ChainSolana): []byte("fake-key-bytes")},
	})
	require.NoError(t, err)
	env, err := envelope.Seal(password, bundle)
	require.NoError(t, err)

	dir := &fakeDirectory{profiles: map[string]model.Profile{
		"alice": {Address: recipientAddr, Username: "alice", DisplayName: "Alice"},
	}}
	ch := &fakeChain{signature: "sig-1", status: chain.StatusUnknown}
	ledger := &fakeLedger{entries: map[string]model.LedgerEntry{}}

	engine := transfer.NewEngine(
		resolver.New(dir),
		&fakeVault{env: env},
		ledger,
		nil,
		map[keys.ChainFamily]chain.Client{keys.ChainSolana: ch},
		logger.Nop(),
	)
	return &harness{engine: engine, chain: ch, ledger: ledger}
}

// beginAndConfirm drives the machine to Pending with a resolved request.
func (h *harness) beginAndConfirm(t *testing.T) {
	t.Helper()
	st, err := h.engine.Begin(context.Background(), senderAddr, keys.ChainSolana, "alice", "10.5")
	require.NoError(t, err)
	require.Equal(t, transfer.StepValidating, st.Step)
	st = h.engine.Confirm()
	require.Equal(t, transfer.StepPending, st.Step)
}

func TestEngine_HappyPath(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)

	st, err := h.engine.Submit(context.Background(), password)
	require.NoError(t, err)
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, "sig-1", st.Signature)
	assert.True(t, st.Confirmed)
	assert.Equal(t, 1, h.chain.submits)

	entry, ok := h.ledger.entries["sig-1"]
	require.True(t, ok)
	assert.Equal(t, senderAddr, entry.FromAddress)
	assert.Equal(t, recipientAddr, entry.ToAddress)
	assert.Equal(t, "10.5", entry.Amount)
}

func TestEngine_InvalidAmount(t *testing.T) {
	h := newHarness(t)

	st, err := h.engine.Begin(context.Background(), senderAddr, keys.ChainSolana, "alice", "10.1234567")
	require.ErrorIs(t, err, transfer.ErrInvalidAmount)
	assert.Equal(t, transfer.StepIdle, st.Step)
	assert.Equal(t, transfer.CodeInvalidAmount, st.ErrCode)
}

func TestEngine_RecipientNotFound(t *testing.T) {
	h := newHarness(t)

	st, err := h.engine.Begin(context.Background(), senderAddr, keys.ChainSolana, "nobody", "1")
	require.ErrorIs(t, err, resolver.ErrRecipientNotFound)
	assert.Equal(t, transfer.StepIdle, st.Step)
	assert.Equal(t, transfer.CodeRecipientNotFound, st.ErrCode)
}

func TestEngine_SelfTransfer(t *testing.T) {
	h := newHarness(t)

	st, err := h.engine.Begin(context.Background(), senderAddr, keys.ChainSolana, senderAddr, "1")
	require.ErrorIs(t, err, resolver.ErrSelfTransfer)
	assert.Equal(t, transfer.CodeSelfTransfer, st.ErrCode)
}

func TestEngine_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)

	st, err := h.engine.Submit(context.Background(), "wrong-password")
	require.ErrorIs(t, err, transfer.ErrIncorrectPassword)
	assert.Equal(t, transfer.StepError, st.Step)
	assert.Equal(t, transfer.CodeIncorrectPassword, st.ErrCode)
	assert.Equal(t, 0, h.chain.submits, "no submission without the key")

	// The request survives so a retry only re-enters the password.
	require.NotNil(t, st.Request)
	assert.Equal(t, recipientAddr, st.Request.Recipient.ResolvedAddress)

	st = h.engine.Retry()
	require.Equal(t, transfer.StepPending, st.Step)
	st, err = h.engine.Submit(context.Background(), password)
	require.NoError(t, err)
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, 1, h.chain.submits)
}

func TestEngine_SubmissionFailure(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)
	h.chain.submitErr = errors.New("rpc unavailable")

	st, err := h.engine.Submit(context.Background(), password)
	require.ErrorIs(t, err, transfer.ErrSubmissionFailed)
	assert.Equal(t, transfer.CodeSubmissionFailed, st.ErrCode)
	assert.Empty(t, st.Signature, "no signature was obtained")

	// No signature, so a retry is a plain resubmission.
	h.chain.submitErr = nil
	h.engine.Retry()
	st, err = h.engine.Submit(context.Background(), password)
	require.NoError(t, err)
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, 2, h.chain.submits)
}

func TestEngine_ConfirmationUnknownThenReconciled(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)
	h.chain.waitErr = errors.New("confirmation timed out")
	h.chain.status = chain.StatusPending

	st, err := h.engine.Submit(context.Background(), password)
	require.ErrorIs(t, err, transfer.ErrConfirmationUnknown)
	assert.Equal(t, transfer.CodeConfirmationUnknown, st.ErrCode)
	assert.Equal(t, "sig-1", st.Signature, "signature retained for reconciliation")
	assert.Equal(t, 1, h.chain.submits)

	// The transfer landed on chain in the meantime. Retrying must
	// reconcile and complete without a second broadcast.
	h.chain.status = chain.StatusConfirmed
	h.engine.Retry()
	st, err = h.engine.Submit(context.Background(), "wrong-password")
	require.NoError(t, err, "reconciliation needs no key, so no password check")
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, 1, h.chain.submits, "at most one broadcast per signature")
	assert.Contains(t, h.ledger.entries, "sig-1")
}

func TestEngine_ConfirmationUnknownThenDead(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)
	h.chain.waitErr = errors.New("confirmation timed out")
	h.chain.status = chain.StatusPending

	_, err := h.engine.Submit(context.Background(), password)
	require.ErrorIs(t, err, transfer.ErrConfirmationUnknown)

	// The chain reports the transaction dead: a fresh submission is safe.
	h.chain.status = chain.StatusFailed
	h.chain.waitErr = nil
	h.engine.Retry()

	st, err := h.engine.Submit(context.Background(), password)
	require.NoError(t, err)
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, 2, h.chain.submits)
}

func TestEngine_PersistenceFailureRetriesOnlyTheWrite(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)
	h.ledger.insertErr = errors.New("disk full")

	st, err := h.engine.Submit(context.Background(), password)
	require.ErrorIs(t, err, transfer.ErrPersistenceFailed)
	assert.Equal(t, transfer.CodePersistenceFailed, st.ErrCode)
	assert.True(t, st.Confirmed, "money moved; only the record is missing")
	assert.Equal(t, 1, h.chain.submits)

	h.ledger.insertErr = nil
	h.engine.Retry()
	st, err = h.engine.Submit(context.Background(), "irrelevant")
	require.NoError(t, err)
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, 1, h.chain.submits, "confirmed transfer is never re-broadcast")
	assert.Contains(t, h.ledger.entries, "sig-1")
}

func TestEngine_LedgerRowShortCircuitsResubmission(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)
	h.chain.waitErr = errors.New("confirmation timed out")
	h.chain.status = chain.StatusPending

	_, err := h.engine.Submit(context.Background(), password)
	require.ErrorIs(t, err, transfer.ErrConfirmationUnknown)

	// A row appeared (mirror, another process): the transfer is done.
	h.ledger.entries["sig-1"] = model.LedgerEntry{Signature: "sig-1"}
	h.engine.Retry()
	st, err := h.engine.Submit(context.Background(), password)
	require.NoError(t, err)
	assert.Equal(t, transfer.StepSuccess, st.Step)
	assert.Equal(t, 1, h.chain.submits)
}

func TestEngine_SubmitRequiresPending(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.Submit(context.Background(), password)
	require.ErrorIs(t, err, transfer.ErrNotAllowed)
	assert.Equal(t, transfer.StepIdle, h.engine.Snapshot().Step)
}

func TestEngine_ResetClearsEverything(t *testing.T) {
	h := newHarness(t)
	h.beginAndConfirm(t)

	st := h.engine.Reset()
	assert.Equal(t, transfer.Initial(), st)
}
