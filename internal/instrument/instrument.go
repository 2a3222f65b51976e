// Package instrument models tokenized bonds and assets and their lifecycle.
package instrument

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// Kind distinguishes the business instrument behind a token.
type Kind string

const (
	KindBond  Kind = "BOND"
	KindAsset Kind = "ASSET"
)

// ParseKind accepts a kind name in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToUpper(strings.TrimSpace(s))); k {
	case KindBond, KindAsset:
		return k, nil
	}
	return "", fmt.Errorf("unknown instrument kind %q", s)
}

var (
	ErrEmptyCode         = errors.New("instrument code is required")
	ErrInvalidSupply     = errors.New("total supply must be positive")
	ErrAlreadyMinted     = errors.New("instrument already has a currency id")
	ErrMissingMaturity   = errors.New("bond requires a maturity date")
	ErrNegativePrincipal = errors.New("principal cannot be negative")
)

// Instrument is a tokenized bond or asset.
type Instrument struct {
	ID          string          `json:"id"`
	Code        string          `json:"code"`
	Kind        Kind            `json:"kind"`
	TotalSupply decimal.Decimal `json:"total_supply"`
	// CurrencyID is empty until the supply is minted and never changes after.
	CurrencyID      ledger.Currency `json:"currency_id,omitempty"`
	State           State           `json:"state"`
	IssuerAddress   string          `json:"issuer_address,omitempty"`
	TreasuryAddress string          `json:"treasury_address,omitempty"`

	// Bond terms.
	Principal  decimal.Decimal `json:"principal"`
	ProfitRate decimal.Decimal `json:"profit_rate"`
	MaturityAt *time.Time      `json:"maturity_at,omitempty"`

	MintTxHash    string     `json:"mint_tx_hash,omitempty"`
	PublishTxHash string     `json:"publish_tx_hash,omitempty"`
	LastRunID     string     `json:"last_run_id,omitempty"`
	RedeemedAt    *time.Time `json:"redeemed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Terms are the optional bond parameters supplied at creation.
type Terms struct {
	Principal  decimal.Decimal
	ProfitRate decimal.Decimal
	MaturityAt *time.Time
}

// New creates a DRAFT instrument.
func New(code string, kind Kind, supply decimal.Decimal, terms Terms, now time.Time) (*Instrument, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrEmptyCode
	}
	if !supply.IsPositive() {
		return nil, ErrInvalidSupply
	}
	if kind == KindBond && terms.MaturityAt == nil {
		return nil, ErrMissingMaturity
	}
	if terms.Principal.IsNegative() {
		return nil, ErrNegativePrincipal
	}
	return &Instrument{
		ID:          uuid.NewString(),
		Code:        code,
		Kind:        kind,
		TotalSupply: supply,
		State:       StateDraft,
		Principal:   terms.Principal,
		ProfitRate:  terms.ProfitRate,
		MaturityAt:  terms.MaturityAt,
		CreatedAt:   now.UTC(),
		UpdatedAt:   now.UTC(),
	}, nil
}

// IsMinted reports whether the supply has been issued.
func (i *Instrument) IsMinted() bool {
	return i.CurrencyID != ""
}

// Matured reports whether a bond has reached its maturity date.
func (i *Instrument) Matured(now time.Time) bool {
	return i.Kind == KindBond && i.MaturityAt != nil && !now.Before(*i.MaturityAt)
}
