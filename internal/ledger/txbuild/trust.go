package txbuild

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// TrustSetBuilder provides a fluent interface for building TrustSet transactions.
type TrustSetBuilder struct {
	common
	limit ledger.Amount
}

// TrustSet creates a new TrustSetBuilder.
// The limit specifies the currency, issuer, and maximum balance to trust.
func TrustSet(account string, limit ledger.Amount) *TrustSetBuilder {
	return &TrustSetBuilder{common: common{account: account}, limit: limit}
}

// TrustLine is a convenience function to create a trust line builder.
func TrustLine(account string, currency ledger.Currency, issuer string, limit decimal.Decimal) *TrustSetBuilder {
	return TrustSet(account, ledger.NewIssued(currency, issuer, limit))
}

// NoRipple blocks rippling on this trust line.
func (b *TrustSetBuilder) NoRipple() *TrustSetBuilder {
	b.flags |= ledger.TfSetNoRipple
	return b
}

// Fee sets the transaction fee in drops.
func (b *TrustSetBuilder) Fee(f uint64) *TrustSetBuilder {
	b.fee = &f
	return b
}

// Sequence sets the sequence number explicitly.
func (b *TrustSetBuilder) Sequence(seq uint32) *TrustSetBuilder {
	b.sequence = &seq
	return b
}

// Build constructs the TrustSet transaction.
func (b *TrustSetBuilder) Build() (ledger.Tx, error) {
	if b.limit.IsNative() {
		return nil, ErrNativeTrustLine
	}
	limit, err := wire("LimitAmount", b.limit)
	if err != nil {
		return nil, err
	}
	tx := b.base("TrustSet")
	tx["LimitAmount"] = limit
	return tx, nil
}
