package txbuild

import (
	"errors"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

var (
	ErrNativeTrustLine  = errors.New("trust lines cannot be set for XRP")
	ErrZeroAmount       = errors.New("amount must be positive")
	ErrDestinationIsSrc = errors.New("destination equals source account")
	ErrNativeClawback   = errors.New("XRP cannot be clawed back")
)

// PaymentBuilder provides a fluent interface for building Payment transactions.
type PaymentBuilder struct {
	common
	destination    string
	amount         ledger.Amount
	destinationTag *uint32
}

// Pay creates a new PaymentBuilder sending amount from account to destination.
func Pay(account, destination string, amount ledger.Amount) *PaymentBuilder {
	return &PaymentBuilder{
		common:      common{account: account},
		destination: destination,
		amount:      amount,
	}
}

// DestinationTag sets the destination tag.
func (b *PaymentBuilder) DestinationTag(tag uint32) *PaymentBuilder {
	b.destinationTag = &tag
	return b
}

// Memo attaches a plain-text memo.
func (b *PaymentBuilder) Memo(text string) *PaymentBuilder {
	b.memo = text
	return b
}

// Fee sets the transaction fee in drops.
func (b *PaymentBuilder) Fee(f uint64) *PaymentBuilder {
	b.fee = &f
	return b
}

// Sequence sets the sequence number explicitly.
func (b *PaymentBuilder) Sequence(seq uint32) *PaymentBuilder {
	b.sequence = &seq
	return b
}

// Build constructs the Payment transaction.
func (b *PaymentBuilder) Build() (ledger.Tx, error) {
	if b.destination == b.account {
		return nil, ErrDestinationIsSrc
	}
	if !b.amount.Value.IsPositive() {
		return nil, ErrZeroAmount
	}
	amount, err := wire("Amount", b.amount)
	if err != nil {
		return nil, err
	}
	tx := b.base("Payment")
	tx["Destination"] = b.destination
	tx["Amount"] = amount
	if b.destinationTag != nil {
		tx["DestinationTag"] = *b.destinationTag
	}
	return tx, nil
}
