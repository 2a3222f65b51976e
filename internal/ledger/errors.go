package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrSessionClosed   = errors.New("ledger session is closed")
	ErrAccountNotFound = errors.New("account not found")
	ErrMissingSeed     = errors.New("signing account has no seed")
	ErrSignerMismatch  = errors.New("transaction account does not match signer")
	ErrOutcomeUnknown  = errors.New("transaction outcome unknown")
)

// RejectedError reports a transaction the ledger did not apply successfully.
// It is terminal for that transaction and is never retried by this package.
type RejectedError struct {
	TransactionType string
	Account         string
	ResultCode      string
	TxHash          string
}

func (e *RejectedError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("%s from %s rejected: %s (tx %s)", e.TransactionType, e.Account, e.ResultCode, e.TxHash)
	}
	return fmt.Sprintf("%s from %s rejected: %s", e.TransactionType, e.Account, e.ResultCode)
}

// TransportError reports a failure to talk to the ledger node.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ledger transport: %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// NewTransportError wraps cause as a transport failure of op.
func NewTransportError(op string, cause error) *TransportError {
	return &TransportError{Op: op, Cause: cause}
}

// OutcomeUnknownError reports a submitted transaction whose final outcome was
// not observed. The transaction may still apply until the validated ledger
// passes LastLedger.
type OutcomeUnknownError struct {
	TxHash     string
	LastLedger uint32
	Cause      error
}

func (e *OutcomeUnknownError) Error() string {
	return fmt.Sprintf("%v: tx %s: %v", ErrOutcomeUnknown, e.TxHash, e.Cause)
}

func (e *OutcomeUnknownError) Unwrap() error {
	return e.Cause
}

func (e *OutcomeUnknownError) Is(target error) bool {
	return target == ErrOutcomeUnknown
}

// AsOutcomeUnknown returns the unresolved transaction carried by err, if any.
func AsOutcomeUnknown(err error) (*OutcomeUnknownError, bool) {
	var oe *OutcomeUnknownError
	if errors.As(err, &oe) {
		return oe, true
	}
	return nil, false
}

// AsRejected returns the rejection carried by err, if any.
func AsRejected(err error) (*RejectedError, bool) {
	var rej *RejectedError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
