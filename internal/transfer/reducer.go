// Package transfer implements the guarded send flow: a pure state-machine
// reducer plus an orchestration engine that performs the side effects
// (recipient resolution, envelope decryption, on-chain submission, ledger
// write) and dispatches actions based on their outcome.
//
// The reducer answers "what state are we in"; the engine answers "what I/O
// does that require". Keeping them apart makes the machine testable in
// isolation.
package transfer

import (
	"github.com/veltapay/wallet-core/internal/keys"
	"github.com/veltapay/wallet-core/internal/resolver"
)

// Step is the current position in the send flow.
type Step string

const (
	StepIdle       Step = "idle"
	StepValidating Step = "validating"
	StepPending    Step = "pending"
	StepSending    Step = "sending"
	StepSuccess    Step = "success"
	StepError      Step = "error"
)

// ErrorCode classifies a failed step for the user. Codes map one-to-one to
// the sentinel errors in errors.go.
type ErrorCode string

const (
	CodeInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	CodeRecipientNotFound   ErrorCode = "RECIPIENT_NOT_FOUND"
	CodeSelfTransfer        ErrorCode = "SELF_TRANSFER"
	CodeIncorrectPassword   ErrorCode = "INCORRECT_PASSWORD"
	CodeSubmissionFailed    ErrorCode = "SUBMISSION_FAILED"
	CodeConfirmationUnknown ErrorCode = "CONFIRMATION_UNKNOWN"
	CodePersistenceFailed   ErrorCode = "PERSISTENCE_FAILED"
)

// Request is the validated form data for one transfer attempt: a resolved
// recipient plus an amount that already passed positivity and precision
// checks. Immutable once created; discarded on reset or success.
type Request struct {
	Sender    string
	Chain     keys.ChainFamily
	Amount    string
	Recipient resolver.RecipientIdentity
}

// State is the reducer's tagged union. Request survives every failure so
// Retry can re-enter password entry without re-resolving the recipient;
// Signature and Confirmed gate resubmission (at-most-once intent).
type State struct {
	Step      Step
	Request   *Request
	Signature string
	Confirmed bool
	ErrCode   ErrorCode
	ErrMsg    string
}

// ActionKind enumerates reducer inputs.
type ActionKind string

const (
	ActionStartValidation   ActionKind = "START_VALIDATION"
	ActionValidationSuccess ActionKind = "VALIDATION_SUCCESS"
	ActionValidationFailure ActionKind = "VALIDATION_FAILURE"
	ActionConfirm           ActionKind = "CONFIRM"
	ActionSubmit            ActionKind = "SUBMIT"
	ActionSendSuccess       ActionKind = "SEND_SUCCESS"
	ActionSendFailure       ActionKind = "SEND_FAILURE"
	ActionRetry             ActionKind = "RETRY"
	ActionGoBack            ActionKind = "GO_BACK"
	ActionReset             ActionKind = "RESET"
)

// Action carries an ActionKind plus its payload fields.
type Action struct {
	Kind      ActionKind
	Request   *Request  // ValidationSuccess
	Signature string    // SendSuccess, SendFailure (when obtained)
	Confirmed bool      // SendFailure: signature confirmed on chain
	Code      ErrorCode // ValidationFailure, SendFailure
	Err       string
}

// Initial returns the machine's starting state.
func Initial() State {
	return State{Step: StepIdle}
}

// Reduce is the pure transition function. Transitions not listed are
// guarded no-ops: the input state is returned unchanged.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case ActionReset:
		// Reset reaches Idle from any state and clears everything.
		return Initial()

	case ActionStartValidation:
		if s.Step != StepIdle {
			return s
		}
		return State{Step: StepValidating}

	case ActionValidationSuccess:
		if s.Step != StepValidating || a.Request == nil {
			return s
		}
		return State{Step: StepValidating, Request: a.Request}

	case ActionValidationFailure:
		if s.Step != StepValidating {
			return s
		}
		// Input errors surface before any state machine progress.
		return State{Step: StepIdle, ErrCode: a.Code, ErrMsg: a.Err}

	case ActionConfirm:
		// Purely a UI acknowledgment; requires a resolved request.
		if s.Step != StepValidating || s.Request == nil {
			return s
		}
		s.Step = StepPending
		return s

	case ActionSubmit:
		if s.Step != StepPending {
			return s
		}
		s.Step = StepSending
		s.ErrCode = ""
		s.ErrMsg = ""
		return s

	case ActionSendSuccess:
		if s.Step != StepSending {
			return s
		}
		// Form data is done with; only the outcome survives.
		return State{Step: StepSuccess, Signature: a.Signature, Confirmed: true}

	case ActionSendFailure:
		if s.Step != StepSending {
			return s
		}
		s.Step = StepError
		if a.Signature != "" {
			s.Signature = a.Signature
		}
		if a.Confirmed {
			s.Confirmed = true
		}
		s.ErrCode = a.Code
		s.ErrMsg = a.Err
		return s

	case ActionRetry:
		if s.Step != StepError {
			return s
		}
		// Back to password entry with the original request intact.
		s.Step = StepPending
		s.ErrCode = ""
		s.ErrMsg = ""
		return s

	case ActionGoBack:
		switch s.Step {
		case StepPending:
			s.Step = StepValidating
			return s
		case StepValidating:
			return Initial()
		default:
			return s
		}

	default:
		return s
	}
}
