package txbuild

import (
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// AccountSetBuilder provides a fluent interface for building AccountSet transactions.
type AccountSetBuilder struct {
	common
	setFlag   *uint32
	clearFlag *uint32
}

// AccountSet creates a new AccountSetBuilder for account.
func AccountSet(account string) *AccountSetBuilder {
	return &AccountSetBuilder{common: common{account: account}}
}

// SetFlag enables an account flag (one of the ledger.Asf* values).
func (b *AccountSetBuilder) SetFlag(asf uint32) *AccountSetBuilder {
	b.setFlag = &asf
	return b
}

// ClearFlag disables an account flag.
func (b *AccountSetBuilder) ClearFlag(asf uint32) *AccountSetBuilder {
	b.clearFlag = &asf
	return b
}

// Fee sets the transaction fee in drops.
func (b *AccountSetBuilder) Fee(f uint64) *AccountSetBuilder {
	b.fee = &f
	return b
}

// Sequence sets the sequence number explicitly.
func (b *AccountSetBuilder) Sequence(seq uint32) *AccountSetBuilder {
	b.sequence = &seq
	return b
}

// Build constructs the AccountSet transaction.
func (b *AccountSetBuilder) Build() (ledger.Tx, error) {
	tx := b.base("AccountSet")
	if b.setFlag != nil {
		tx["SetFlag"] = *b.setFlag
	}
	if b.clearFlag != nil {
		tx["ClearFlag"] = *b.clearFlag
	}
	return tx, nil
}
