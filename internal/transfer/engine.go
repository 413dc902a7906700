package transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veltapay/wallet-core/internal/amount"
	"github.com/veltapay/wallet-core/internal/chain"
	"github.com/veltapay/wallet-core/internal/envelope"
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/logger"
	"github.com/veltapay/wallet-core/internal/model"
	"github.com/veltapay/wallet-core/internal/resolver"
	"github.com/veltapay/wallet-core/internal/store"
)

// Vault fetches the caller's own encrypted envelope.
type Vault interface {
	EnvelopeByAddress(ctx context.Context, address string) (*envelope.Encrypted, error)
}

// Ledger is the durable, append-only transfer record. FindBySignature is
// the idempotency probe; InsertLedgerEntry must reject duplicates.
type Ledger interface {
	InsertLedgerEntry(ctx context.Context, entry model.LedgerEntry) error
	FindBySignature(ctx context.Context, signature string) (*model.LedgerEntry, error)
}

// Mirror pushes confirmed ledger rows to the remote directory service.
// Best effort: a failure is logged, never retried through the engine.
type Mirror interface {
	MirrorLedgerEntry(ctx context.Context, entry model.LedgerEntry) error
}

// Engine drives one user session's send flow. All operations are
// single-flight: a mutex serializes dispatches, and the state guards make
// concurrent calls in the wrong step harmless no-ops.
type Engine struct {
	resolver *resolver.Resolver
	vault    Vault
	ledger   Ledger
	mirror   Mirror
	clients  map[keys.ChainFamily]chain.Client
	log      *logger.Logger

	mu    sync.Mutex
	state State
}

// NewEngine creates an Engine. mirror may be nil.
func NewEngine(res *resolver.Resolver, vault Vault, ledger Ledger, mirror Mirror, clients map[keys.ChainFamily]chain.Client, log *logger.Logger) *Engine {
	return &Engine{
		resolver: res,
		vault:    vault,
		ledger:   ledger,
		mirror:   mirror,
		clients:  clients,
		log:      log,
		state:    Initial(),
	}
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// dispatch runs the reducer under the lock and returns the new state.
func (e *Engine) dispatch(a Action) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Reduce(e.state, a)
	return e.state
}

// maxFracDigits returns the fraction-digit bound for a chain family:
// 6 for the stablecoin path, 18 for the native EVM unit.
func maxFracDigits(c keys.ChainFamily) int {
	if c == keys.ChainEVM {
		return amount.EVMDecimals
	}
	return amount.StablecoinDecimals
}

// Begin validates the amount, resolves the recipient, and moves the machine
// from Idle to Validating with a populated request. Input failures return
// the machine to Idle with the classified error; the user edits and
// retries.
func (e *Engine) Begin(ctx context.Context, sender string, chainFam keys.ChainFamily, rawRecipient, amountStr string) (State, error) {
	if st := e.Snapshot(); st.Step != StepIdle {
		return st, fmt.Errorf("%w: begin requires idle, current %s", ErrNotAllowed, st.Step)
	}
	e.dispatch(Action{Kind: ActionStartValidation})

	if err := amount.Validate(amountStr, maxFracDigits(chainFam)); err != nil {
		st := e.dispatch(Action{Kind: ActionValidationFailure, Code: CodeInvalidAmount, Err: err.Error()})
		return st, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}

	recipient, err := e.resolver.Resolve(ctx, sender, rawRecipient, chainFam)
	if err != nil {
		code := CodeRecipientNotFound
		switch {
		case errors.Is(err, resolver.ErrSelfTransfer):
			code = CodeSelfTransfer
		case errors.Is(err, resolver.ErrRecipientNotFound):
		default:
			// Directory unavailable: also no state machine progress.
		}
		st := e.dispatch(Action{Kind: ActionValidationFailure, Code: code, Err: err.Error()})
		return st, err
	}

	req := &Request{
		Sender:    sender,
		Chain:     chainFam,
		Amount:    amountStr,
		Recipient: *recipient,
	}
	return e.dispatch(Action{Kind: ActionValidationSuccess, Request: req}), nil
}

// Confirm acknowledges the displayed summary. No side effects.
func (e *Engine) Confirm() State {
	return e.dispatch(Action{Kind: ActionConfirm})
}

// GoBack steps backwards: Pending to Validating, Validating to Idle.
func (e *Engine) GoBack() State {
	return e.dispatch(Action{Kind: ActionGoBack})
}

// Retry re-enters password entry after a failure. It never resubmits by
// itself; Submit performs the reconciliation that decides whether another
// on-chain submission is permitted.
func (e *Engine) Retry() State {
	return e.dispatch(Action{Kind: ActionRetry})
}

// Reset returns to Idle from any state, discarding the request.
func (e *Engine) Reset() State {
	return e.dispatch(Action{Kind: ActionReset})
}

// Submit performs the guarded Pending -> Sending sequence:
//
//  1. fetch the sender's encrypted envelope,
//  2. open it with the supplied password,
//  3. hold the decrypted private key only for the signing call,
//  4. submit the transfer to the chain and wait for acceptance,
//  5. zero the key buffer,
//  6. write the ledger entry.
//
// A signature that was already obtained and confirmed is never submitted
// twice: the engine probes the ledger and the chain before broadcasting.
func (e *Engine) Submit(ctx context.Context, password string) (State, error) {
	st := e.dispatch(Action{Kind: ActionSubmit})
	if st.Step != StepSending || st.Request == nil {
		return st, fmt.Errorf("%w: submit requires pending, current %s", ErrNotAllowed, st.Step)
	}
	req := st.Request

	client, ok := e.clients[req.Chain]
	if !ok {
		return e.fail(CodeSubmissionFailed, fmt.Errorf("%w: no client for chain %s", ErrSubmissionFailed, req.Chain))
	}

	// Reconciliation gate: if a signature exists from a previous attempt,
	// its fate decides what Submit may do. Runs before the password is
	// even checked so that a confirmed transfer can complete without
	// another broadcast.
	if st.Signature != "" {
		done, state, err := e.reconcile(ctx, client, st, req)
		if done || err != nil {
			return state, err
		}
	}

	env, err := e.vault.EnvelopeByAddress(ctx, req.Sender)
	if err != nil {
		return e.fail(CodeSubmissionFailed, fmt.Errorf("%w: fetch envelope: %v", ErrSubmissionFailed, err))
	}

	plaintext, err := envelope.Open(password, env)
	if err != nil {
		if errors.Is(err, envelope.ErrAuthenticationFailed) {
			return e.fail(CodeIncorrectPassword, ErrIncorrectPassword)
		}
		return e.fail(CodeSubmissionFailed, fmt.Errorf("%w: open envelope: %v", ErrSubmissionFailed, err))
	}

	var bundle model.SecretBundle
	if err := json.Unmarshal(plaintext, &bundle); err != nil {
		clear(plaintext)
		return e.fail(CodeSubmissionFailed, fmt.Errorf("%w: malformed secret bundle", ErrSubmissionFailed))
	}
	clear(plaintext)

	key, ok := bundle.PrivateKeys[string(req.Chain)]
	if !ok || len(key) == 0 {
		bundle.Wipe()
		return e.fail(CodeSubmissionFailed, fmt.Errorf("%w: no key for chain %s", ErrSubmissionFailed, req.Chain))
	}

	// The key lives exactly as long as the submission call.
	signature, submitErr := client.SubmitTransfer(ctx, key, req.Recipient.ResolvedAddress, req.Amount)
	bundle.Wipe()

	if submitErr != nil {
		return e.fail(CodeSubmissionFailed, fmt.Errorf("%w: %v", ErrSubmissionFailed, submitErr))
	}

	return e.awaitAndRecord(ctx, client, req, signature)
}

// awaitAndRecord waits for on-chain acceptance of signature, then writes
// the ledger row. The private key is already zeroed by the time this runs.
func (e *Engine) awaitAndRecord(ctx context.Context, client chain.Client, req *Request, signature string) (State, error) {
	if _, err := client.WaitForConfirmation(ctx, signature); err != nil {
		// The submission left the process; the outcome is not a failure
		// until the chain says so. One status probe settles fast cases.
		status, probeErr := client.SignatureStatus(context.WithoutCancel(ctx), signature)
		if probeErr == nil && status == chain.StatusConfirmed {
			return e.record(ctx, req, signature)
		}
		if probeErr == nil && status == chain.StatusFailed {
			return e.failWithSignature(CodeSubmissionFailed, signature, false,
				fmt.Errorf("%w: rejected on chain", ErrSubmissionFailed))
		}
		return e.failWithSignature(CodeConfirmationUnknown, signature, false,
			fmt.Errorf("%w: %v", ErrConfirmationUnknown, err))
	}

	return e.record(ctx, req, signature)
}

// record writes the ledger entry for a confirmed signature and completes
// the flow. A duplicate row means a previous attempt already recorded it.
func (e *Engine) record(ctx context.Context, req *Request, signature string) (State, error) {
	entry := model.LedgerEntry{
		FromAddress: req.Sender,
		ToAddress:   req.Recipient.ResolvedAddress,
		Amount:      req.Amount,
		Chain:       string(req.Chain),
		Signature:   signature,
		CreatedAt:   time.Now().UTC(),
	}

	if err := e.ledger.InsertLedgerEntry(ctx, entry); err != nil && !errors.Is(err, store.ErrDuplicateSignature) {
		e.log.Error().Err(err).Str("signature", signature).
			Msg("ledger write failed after confirmed transfer; manual reconciliation required")
		return e.failWithSignature(CodePersistenceFailed, signature, true,
			fmt.Errorf("%w: %v", ErrPersistenceFailed, err))
	}

	if e.mirror != nil {
		if err := e.mirror.MirrorLedgerEntry(ctx, entry); err != nil {
			e.log.Warn().Err(err).Str("signature", signature).Msg("ledger mirror failed")
		}
	}

	e.log.Info().Str("signature", signature).Str("to", entry.ToAddress).Str("amount", entry.Amount).
		Msg("transfer complete")
	return e.dispatch(Action{Kind: ActionSendSuccess, Signature: signature}), nil
}

// reconcile decides whether a prior signature still needs work. Returns
// done=true when Submit must not proceed to a new broadcast.
func (e *Engine) reconcile(ctx context.Context, client chain.Client, st State, req *Request) (bool, State, error) {
	// A ledger row means a previous attempt fully completed.
	if row, err := e.ledger.FindBySignature(ctx, st.Signature); err == nil && row != nil {
		return true, e.dispatch(Action{Kind: ActionSendSuccess, Signature: st.Signature}), nil
	}

	// The transfer was confirmed but not recorded: only the ledger write
	// remains. No password, no key, no broadcast.
	if st.Confirmed {
		state, err := e.record(ctx, req, st.Signature)
		return true, state, err
	}

	status, err := client.SignatureStatus(ctx, st.Signature)
	if err != nil {
		state, ferr := e.failWithSignature(CodeConfirmationUnknown, st.Signature, false,
			fmt.Errorf("%w: reconcile: %v", ErrConfirmationUnknown, err))
		return true, state, ferr
	}

	switch status {
	case chain.StatusConfirmed:
		state, err := e.record(ctx, req, st.Signature)
		return true, state, err
	case chain.StatusPending:
		state, err := e.awaitAndRecord(ctx, client, req, st.Signature)
		return true, state, err
	case chain.StatusFailed, chain.StatusUnknown:
		// Definitively dead or never seen by the chain: a fresh
		// submission is permitted.
		return false, st, nil
	}
	return false, st, nil
}

func (e *Engine) fail(code ErrorCode, err error) (State, error) {
	return e.failWithSignature(code, "", false, err)
}

func (e *Engine) failWithSignature(code ErrorCode, signature string, confirmed bool, err error) (State, error) {
	st := e.dispatch(Action{
		Kind:      ActionSendFailure,
		Code:      code,
		Err:       err.Error(),
		Signature: signature,
		Confirmed: confirmed,
	})
	return st, err
}
