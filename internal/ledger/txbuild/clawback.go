package txbuild

import (
	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// ClawbackBuilder provides a fluent interface for building Clawback transactions.
type ClawbackBuilder struct {
	common
	holder   string
	currency ledger.Currency
	amount   decimal.Decimal
}

// Claw creates a new ClawbackBuilder reclaiming amount of currency from holder.
// The transaction is signed by issuer.
func Claw(issuer, holder string, currency ledger.Currency, amount decimal.Decimal) *ClawbackBuilder {
	return &ClawbackBuilder{
		common:   common{account: issuer},
		holder:   holder,
		currency: currency,
		amount:   amount,
	}
}

// Fee sets the transaction fee in drops.
func (b *ClawbackBuilder) Fee(f uint64) *ClawbackBuilder {
	b.fee = &f
	return b
}

// Sequence sets the sequence number explicitly.
func (b *ClawbackBuilder) Sequence(seq uint32) *ClawbackBuilder {
	b.sequence = &seq
	return b
}

// Build constructs the Clawback transaction.
func (b *ClawbackBuilder) Build() (ledger.Tx, error) {
	if b.currency == ledger.XRP || b.currency == "" {
		return nil, ErrNativeClawback
	}
	if !b.amount.IsPositive() {
		return nil, ErrZeroAmount
	}
	if b.holder == b.account {
		return nil, ErrDestinationIsSrc
	}
	// For an IOU clawback the Amount issuer field names the holder.
	amount, err := wire("Amount", ledger.NewIssued(b.currency, b.holder, b.amount))
	if err != nil {
		return nil, err
	}
	tx := b.base("Clawback")
	tx["Amount"] = amount
	return tx, nil
}
