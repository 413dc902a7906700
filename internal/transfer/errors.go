package transfer

import "errors"

var (
	// ErrInvalidAmount rejects non-positive or over-precise amounts.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrIncorrectPassword is surfaced distinctly from all other
	// Sending-phase errors: the user should retry password entry, not
	// distrust the transaction.
	ErrIncorrectPassword = errors.New("incorrect password")

	// ErrSubmissionFailed means the chain rejected the transfer or the
	// network failed before a signature was obtained. Safe to retry.
	ErrSubmissionFailed = errors.New("transfer submission failed")

	// ErrConfirmationUnknown means a signature was obtained but the
	// confirmation wait failed or timed out. Never silently retried; the
	// engine reconciles against the chain before any further submission.
	ErrConfirmationUnknown = errors.New("transfer confirmation unknown")

	// ErrPersistenceFailed means the money moved but the ledger write
	// failed. Non-retryable via resubmission; logged for reconciliation.
	ErrPersistenceFailed = errors.New("ledger write failed after confirmed transfer")

	// ErrNotAllowed is returned when an operation is invoked in a state
	// that does not accept it.
	ErrNotAllowed = errors.New("operation not allowed in current state")
)
