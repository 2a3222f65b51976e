package ledger

import (
	"github.com/shopspring/decimal"
)

// Tx is an unsigned transaction in the flat JSON form the node and the signer expect.
type Tx map[string]interface{}

// Type returns the TransactionType field, or an empty string.
func (t Tx) Type() string {
	s, _ := t["TransactionType"].(string)
	return s
}

// Account returns the sending account of the transaction.
func (t Tx) Account() string {
	s, _ := t["Account"].(string)
	return s
}

// Account is a ledger account together with the secret used to sign for it.
// The seed is opaque to everything except the signer.
type Account struct {
	Address string `json:"address"`
	Seed    string `json:"-"`
}

// IsZero reports whether the account is unset.
func (a Account) IsZero() bool {
	return a.Address == ""
}

// AccountInfo is the subset of an account root the workflows inspect.
type AccountInfo struct {
	Address  string
	Balance  decimal.Decimal // XRP, not drops
	Flags    uint32
	Sequence uint32
}

// HasFlag reports whether all bits of the ledger flag f are set.
func (a *AccountInfo) HasFlag(f uint32) bool {
	return a.Flags&f == f
}

// Balance is one entry of an account's holdings. Issuer is empty for XRP.
type Balance struct {
	Currency Currency        `json:"currency"`
	Issuer   string          `json:"issuer,omitempty"`
	Value    decimal.Decimal `json:"value"`
}

// TrustLine is a trust line as reported from Account's side. A negative
// Balance means Peer holds tokens issued by Account.
type TrustLine struct {
	Account  string          `json:"account"`
	Peer     string          `json:"peer"`
	Currency Currency        `json:"currency"`
	Limit    decimal.Decimal `json:"limit"`
	Balance  decimal.Decimal `json:"balance"`
}

// Offer is a resting order on the native order book.
type Offer struct {
	Account   string `json:"account"`
	Sequence  uint32 `json:"sequence"`
	TakerGets Amount `json:"taker_gets"`
	TakerPays Amount `json:"taker_pays"`
	Flags     uint32 `json:"flags"`
}

// OrderBook holds the raw offers of both sides of a token/XRP book.
// Asks offer the token for XRP; bids offer XRP for the token.
type OrderBook struct {
	Asks []Offer
	Bids []Offer
}

// SubmitResult is the final outcome of a submitted transaction.
type SubmitResult struct {
	Accepted    bool   `json:"accepted"`
	ResultCode  string `json:"result_code"`
	TxHash      string `json:"tx_hash"`
	LedgerIndex uint32 `json:"ledger_index,omitempty"`
}
