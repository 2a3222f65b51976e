// Package store defines the persistence boundary of the workflows.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrImmutable      = errors.New("field is immutable once set")
	ErrStateConflict  = errors.New("instrument state changed concurrently")
	ErrClosed         = errors.New("store is closed")
	ErrUnknownRole    = errors.New("unknown role")
	ErrUnknownBackend = errors.New("unknown store driver")
)

// Role is a logical wallet role.
type Role string

const (
	RoleIssuer   Role = "ISSUER"
	RoleTreasury Role = "TREASURY"
)

// Roles lists every role the registry can bind.
var Roles = []Role{RoleIssuer, RoleTreasury}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleIssuer || r == RoleTreasury
}

// RoleBinding binds a role to one ledger account.
type RoleBinding struct {
	Role      Role      `json:"role" db:"role" codec:"role"`
	Address   string    `json:"address" db:"address" codec:"address"`
	Seed      string    `json:"-" db:"seed" codec:"seed"`
	CreatedAt time.Time `json:"created_at" db:"created_at" codec:"created_at"`
}

// Account returns the signing account of the binding.
func (b RoleBinding) Account() ledger.Account {
	return ledger.Account{Address: b.Address, Seed: b.Seed}
}

// RoleStore persists role bindings. SaveRoleBinding must be atomic per role.
type RoleStore interface {
	GetRoleBinding(ctx context.Context, role Role) (*RoleBinding, error)
	// SaveRoleBinding inserts binding unless the role is already bound. It
	// returns the binding now stored and whether this call created it.
	SaveRoleBinding(ctx context.Context, binding RoleBinding) (RoleBinding, bool, error)
}

// StateExtra carries the fields written together with a state change.
type StateExtra struct {
	PublishTxHash string
	LastRunID     string
	RedeemedAt    *time.Time
}

// ReportRecord is a stored redemption report. Payload is the JSON encoding of
// the report.
type ReportRecord struct {
	RunID        string    `json:"run_id" db:"run_id" codec:"run_id"`
	InstrumentID string    `json:"instrument_id" db:"instrument_id" codec:"instrument_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at" codec:"created_at"`
	Payload      []byte    `json:"payload" db:"payload" codec:"payload"`
}

// InstrumentStore persists instruments and their redemption reports.
type InstrumentStore interface {
	CreateInstrument(ctx context.Context, inst *instrument.Instrument) error
	GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error)
	GetInstrumentByCode(ctx context.Context, code string) (*instrument.Instrument, error)
	ListInstruments(ctx context.Context, state instrument.State) ([]*instrument.Instrument, error)
	// SetMinted records the currency id and the parties. It fails with
	// ErrImmutable if a different currency id is already stored.
	SetMinted(ctx context.Context, id string, currency ledger.Currency, issuer, treasury, txHash string) error
	// UpdateInstrumentState moves the instrument to newState if the lifecycle
	// allows it from the stored state.
	UpdateInstrumentState(ctx context.Context, id string, newState instrument.State, extra StateExtra) error
	SaveReport(ctx context.Context, rec ReportRecord) error
	GetReport(ctx context.Context, runID string) (*ReportRecord, error)
	ListReports(ctx context.Context, instrumentID string) ([]ReportRecord, error)
}

// Store is the full persistence surface.
type Store interface {
	RoleStore
	InstrumentStore
	Close() error
}

// CheckTransition wraps the lifecycle check with the store's conflict error.
func CheckTransition(current, next instrument.State) error {
	if err := instrument.Transition(current, next); err != nil {
		return fmt.Errorf("%w: %w", ErrStateConflict, err)
	}
	return nil
}
