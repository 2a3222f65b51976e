package txbuild

import (
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// OfferCreateBuilder provides a fluent interface for building OfferCreate transactions.
type OfferCreateBuilder struct {
	common
	takerPays  ledger.Amount
	takerGets  ledger.Amount
	expiration *uint32
}

// OfferCreate creates a new OfferCreateBuilder.
// takerPays is what the offer creator receives, takerGets is what they pay.
func OfferCreate(account string, takerPays, takerGets ledger.Amount) *OfferCreateBuilder {
	return &OfferCreateBuilder{
		common:    common{account: account},
		takerPays: takerPays,
		takerGets: takerGets,
	}
}

// Expiration sets the expiration time (in Ripple epoch seconds).
func (b *OfferCreateBuilder) Expiration(exp uint32) *OfferCreateBuilder {
	b.expiration = &exp
	return b
}

// Passive makes the offer passive (won't consume matching offers).
func (b *OfferCreateBuilder) Passive() *OfferCreateBuilder {
	b.flags |= ledger.TfPassive
	return b
}

// ImmediateOrCancel makes the offer take what is available and cancel the rest.
func (b *OfferCreateBuilder) ImmediateOrCancel() *OfferCreateBuilder {
	b.flags |= ledger.TfImmediateOrCancel
	return b
}

// FillOrKill makes the offer fill completely or not at all.
func (b *OfferCreateBuilder) FillOrKill() *OfferCreateBuilder {
	b.flags |= ledger.TfFillOrKill
	return b
}

// Fee sets the transaction fee in drops.
func (b *OfferCreateBuilder) Fee(f uint64) *OfferCreateBuilder {
	b.fee = &f
	return b
}

// Sequence sets the sequence number explicitly.
func (b *OfferCreateBuilder) Sequence(seq uint32) *OfferCreateBuilder {
	b.sequence = &seq
	return b
}

// Build constructs the OfferCreate transaction.
func (b *OfferCreateBuilder) Build() (ledger.Tx, error) {
	if !b.takerPays.Value.IsPositive() || !b.takerGets.Value.IsPositive() {
		return nil, ErrZeroAmount
	}
	pays, err := wire("TakerPays", b.takerPays)
	if err != nil {
		return nil, err
	}
	gets, err := wire("TakerGets", b.takerGets)
	if err != nil {
		return nil, err
	}
	tx := b.base("OfferCreate")
	tx["TakerPays"] = pays
	tx["TakerGets"] = gets
	if b.expiration != nil {
		tx["Expiration"] = *b.expiration
	}
	return tx, nil
}

// OfferCancelBuilder provides a fluent interface for building OfferCancel transactions.
type OfferCancelBuilder struct {
	common
	offerSequence uint32
}

// OfferCancel creates a builder removing the offer created with offerSequence.
func OfferCancel(account string, offerSequence uint32) *OfferCancelBuilder {
	return &OfferCancelBuilder{common: common{account: account}, offerSequence: offerSequence}
}

// Fee sets the transaction fee in drops.
func (b *OfferCancelBuilder) Fee(f uint64) *OfferCancelBuilder {
	b.fee = &f
	return b
}

// Build constructs the OfferCancel transaction.
func (b *OfferCancelBuilder) Build() (ledger.Tx, error) {
	tx := b.base("OfferCancel")
	tx["OfferSequence"] = b.offerSequence
	return tx, nil
}
