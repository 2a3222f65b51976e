// Package workflow holds the building blocks shared by the ledger workflows:
// the error taxonomy, ordered idempotent steps and the result envelope.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// Kind classifies a workflow failure so callers can branch on it.
type Kind int

const (
	KindUnknown Kind = iota
	// KindPrecondition: invalid input or state; nothing was sent to the ledger.
	KindPrecondition
	// KindTransport: the ledger node could not be reached or did not answer.
	KindTransport
	// KindLedgerRejected: the ledger refused a transaction.
	KindLedgerRejected
	// KindPartialBatch: a batch completed but some items failed.
	KindPartialBatch
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindPrecondition:   "precondition",
	KindTransport:      "transport",
	KindLedgerRejected: "ledger_rejected",
	KindPartialBatch:   "partial_batch",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown error kind %q", b)
}

// Error is a categorised workflow failure.
type Error struct {
	Kind       Kind   `json:"kind"`
	Op         string `json:"op"`
	Message    string `json:"message"`
	ResultCode string `json:"result_code,omitempty"`
	TxHash     string `json:"tx_hash,omitempty"`
	Cause      error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error of the same kind and op.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && (t.Op == "" || e.Op == t.Op)
}

// Retryable reports whether repeating the whole operation may succeed.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransport
}

// MarshalJSON includes the cause text.
func (e *Error) MarshalJSON() ([]byte, error) {
	type plain Error
	out := struct {
		*plain
		Cause string `json:"cause,omitempty"`
	}{plain: (*plain)(e)}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}

// Precondition reports invalid input or state.
func Precondition(op, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Op: op, Message: fmt.Sprintf(format, args...)}
}

// PartialBatch reports a batch in which failed of total items failed.
func PartialBatch(op string, failed, total int) *Error {
	return &Error{
		Kind:    KindPartialBatch,
		Op:      op,
		Message: fmt.Sprintf("%d of %d items failed", failed, total),
	}
}

// Wrap classifies err and attaches op. A nil err returns nil; an *Error
// keeps its kind and gains op only when it has none.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var we *Error
	if errors.As(err, &we) {
		if we.Op == "" {
			cp := *we
			cp.Op = op
			return &cp
		}
		return err
	}
	out := &Error{Kind: KindOf(err), Op: op, Message: "failed", Cause: err}
	if rej, ok := ledger.AsRejected(err); ok {
		out.Message = fmt.Sprintf("%s rejected", rej.TransactionType)
		out.ResultCode = rej.ResultCode
		out.TxHash = rej.TxHash
	}
	return out
}

// KindOf classifies any error.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	if _, ok := ledger.AsRejected(err); ok {
		return KindLedgerRejected
	}
	if ledger.IsTransport(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return KindTransport
	}
	if errors.Is(err, ledger.ErrMissingSeed) ||
		errors.Is(err, ledger.ErrSignerMismatch) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrSubDropPrecision) {
		return KindPrecondition
	}
	return KindUnknown
}

// IsKind reports whether err is classified as k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
