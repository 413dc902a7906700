// Package chain provides clients that submit transfers to a blockchain and
// observe their confirmation. One implementation per chain family.
package chain

import "context"

// Status is the chain's view of a previously submitted signature.
// Used for reconciliation: a submission that has left the process is never
// assumed failed - its status must be queried.
type Status int

const (
	// StatusUnknown means the chain has no record of the signature.
	StatusUnknown Status = iota
	// StatusPending means the transaction is known but not yet confirmed.
	StatusPending
	// StatusConfirmed means the transaction was accepted.
	StatusConfirmed
	// StatusFailed means the transaction was included but reverted/errored.
	StatusFailed
)

// Receipt reports an accepted transaction.
type Receipt struct {
	Signature string
	Slot      uint64
}

// Client submits transfers and reports their fate.
//
// SubmitTransfer broadcasts a signed transfer of amount (a decimal string in
// the chain's display unit) and returns the transaction signature. The
// private key bytes are borrowed for the duration of the call only; the
// caller zeroes them.
//
// WaitForConfirmation blocks until the chain accepts the transaction (not
// merely broadcast), the context is cancelled, or the transaction fails.
//
// SignatureStatus is the reconciliation query for signatures whose
// confirmation outcome is unknown.
type Client interface {
	SubmitTransfer(ctx context.Context, privateKey []byte, toAddress, amount string) (string, error)
	WaitForConfirmation(ctx context.Context, signature string) (*Receipt, error)
	SignatureStatus(ctx context.Context, signature string) (Status, error)
}
