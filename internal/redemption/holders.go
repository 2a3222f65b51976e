package redemption

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

// Holder is one address holding tokens at snapshot time.
type Holder struct {
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
}

// HoldingFromIssuerView converts a trust-line balance reported from the
// issuer's side into the counterparty's holding. The ledger reports tokens
// held by the counterparty as a negative balance on the issuer's side; zero or
// positive balances mean the counterparty holds nothing.
func HoldingFromIssuerView(balance decimal.Decimal) (decimal.Decimal, bool) {
	if !balance.IsNegative() {
		return decimal.Zero, false
	}
	return balance.Neg(), true
}

// Snapshot projects the issuer's trust lines onto the holders of currency,
// sorted by address. Addresses in exclude are left out.
func Snapshot(lines []ledger.TrustLine, currency ledger.Currency, exclude ...string) []Holder {
	skip := make(map[string]bool, len(exclude))
	for _, a := range exclude {
		skip[a] = true
	}
	holders := []Holder{}
	for _, l := range lines {
		if l.Currency != currency || skip[l.Peer] {
			continue
		}
		held, ok := HoldingFromIssuerView(l.Balance)
		if !ok {
			continue
		}
		holders = append(holders, Holder{Address: l.Peer, Balance: held})
	}
	sort.Slice(holders, func(i, j int) bool { return holders[i].Address < holders[j].Address })
	return holders
}
