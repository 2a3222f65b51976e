package tokenize

import (
	"encoding/hex"
	"strings"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

const (
	standardCodeLen = 3
	// Non-standard currency codes are 160-bit values written as 40 hex digits.
	currencyBytes = 20
)

// DeriveCurrencyID maps a human instrument code to a ledger currency code.
// Codes of at most three characters are right-padded with '0' to exactly three;
// longer codes are the hex encoding of their first 20 bytes, right-padded with
// '0' to 40 digits. The same code always yields the same currency.
func DeriveCurrencyID(code string) (ledger.Currency, error) {
	const op = "tokenize.currency"
	if code == "" {
		return "", workflow.Precondition(op, "instrument code is empty")
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 0x20 || code[i] > 0x7e {
			return "", workflow.Precondition(op, "instrument code %q contains non-printable or non-ASCII bytes", code)
		}
	}

	if len(code) <= standardCodeLen {
		padded := code + strings.Repeat("0", standardCodeLen-len(code))
		if strings.EqualFold(padded, string(ledger.XRP)) {
			return "", workflow.Precondition(op, "currency code XRP is reserved")
		}
		return ledger.Currency(padded), nil
	}

	raw := []byte(code)
	if len(raw) > currencyBytes {
		raw = raw[:currencyBytes]
	}
	id := strings.ToUpper(hex.EncodeToString(raw))
	id += strings.Repeat("0", 2*currencyBytes-len(id))
	return ledger.Currency(id), nil
}
