// Package txbuild provides fluent builders for the transactions the
// tokenization and redemption workflows submit.
package txbuild

import (
	"fmt"
	"strconv"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// common holds the fields every transaction carries. Sequence, fee and
// LastLedgerSequence are left for the session to autofill unless set.
type common struct {
	account  string
	fee      *uint64
	sequence *uint32
	flags    uint32
	memo     string
}

func (c *common) base(txType string) ledger.Tx {
	tx := ledger.Tx{
		"TransactionType": txType,
		"Account":         c.account,
	}
	if c.fee != nil {
		tx["Fee"] = strconv.FormatUint(*c.fee, 10)
	}
	if c.sequence != nil {
		tx["Sequence"] = *c.sequence
	}
	if c.flags != 0 {
		tx["Flags"] = c.flags
	}
	if c.memo != "" {
		tx["Memos"] = []interface{}{
			map[string]interface{}{
				"Memo": map[string]interface{}{
					"MemoData": fmt.Sprintf("%X", c.memo),
				},
			},
		}
	}
	return tx
}

func wire(field string, a ledger.Amount) (interface{}, error) {
	v, err := a.Wire()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return v, nil
}
