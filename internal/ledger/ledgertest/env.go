// Package ledgertest provides an in-memory ledger implementing ledger.Client
// for workflow tests. It models the subset of transaction semantics the
// tokenization, market and redemption workflows depend on: account flags,
// trust lines, issued-currency payments, offers and clawback.
package ledgertest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

var (
	// BaseFee is charged for every transaction that claims a fee.
	BaseFee = decimal.New(10, -ledger.DropPrecision)
	// BaseReserve is the minimum XRP payment that creates an account.
	BaseReserve = decimal.NewFromInt(1)
)

type accountRoot struct {
	balance decimal.Decimal
	seq     uint32
	flags   uint32
}

type lineKey struct {
	holder   string
	issuer   string
	currency ledger.Currency
}

// line balance is held from the holder's side; positive means the holder owns tokens.
type line struct {
	limit   decimal.Decimal
	balance decimal.Decimal
}

type rejectRule struct {
	account string
	txType  string
	code    string
}

type lostOutcome struct {
	account string
	txType  string
	applied bool
}

// Submission records one transaction received by the ledger.
type Submission struct {
	Tx     ledger.Tx
	Signer string
	Result ledger.SubmitResult
}

// Env is a simulated ledger. All methods are safe for concurrent use.
type Env struct {
	mu sync.Mutex

	accounts map[string]*accountRoot
	lines    map[lineKey]*line
	offers   map[string][]ledger.Offer

	txCount     uint64
	ledgerIndex uint32

	rejects       []rejectRule
	lost          []lostOutcome
	submitFails   int
	queryFailures map[string]error
	connectErr    error
	closeErr      error

	outcomes map[string]ledger.SubmitResult

	submissions  []Submission
	openSessions int
	maxSessions  int
}

// NewEnv creates an empty ledger.
func NewEnv() *Env {
	return &Env{
		accounts:      make(map[string]*accountRoot),
		lines:         make(map[lineKey]*line),
		offers:        make(map[string][]ledger.Offer),
		queryFailures: make(map[string]error),
		outcomes:      make(map[string]ledger.SubmitResult),
		ledgerIndex:   1000,
	}
}

// Account creates and funds a deterministic test account named name.
func (e *Env) Account(name string, xrp int64) ledger.Account {
	acct := ledger.Account{Address: "r" + name, Seed: "s" + name}
	e.Fund(acct.Address, decimal.NewFromInt(xrp))
	return acct
}

// Fund credits address with xrp, creating the account if needed.
func (e *Env) Fund(address string, xrp decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	root, ok := e.accounts[address]
	if !ok {
		root = &accountRoot{seq: 1}
		e.accounts[address] = root
	}
	root.balance = root.balance.Add(xrp)
}

// SetFlags sets ledger flags on an existing account directly.
func (e *Env) SetFlags(address string, flags uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if root, ok := e.accounts[address]; ok {
		root.flags |= flags
	}
}

// RejectNext makes the next txType transaction from account fail with code.
// An empty txType matches any transaction type.
func (e *Env) RejectNext(account, txType, code string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejects = append(e.rejects, rejectRule{account: account, txType: txType, code: code})
}

// FailSubmits makes the next n submissions fail at the transport level
// without reaching the ledger.
func (e *Env) FailSubmits(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitFails = n
}

// LoseOutcomeNext makes the submitter of the next txType transaction from
// account see an unknown outcome. With applied the transaction still takes
// effect on the ledger; otherwise it is dropped before reaching it. TxOutcome
// reports what really happened either way.
func (e *Env) LoseOutcomeNext(account, txType string, applied bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lost = append(e.lost, lostOutcome{account: account, txType: txType, applied: applied})
}

// FailClose makes every session Close return err until cleared with nil.
// The session is closed regardless.
func (e *Env) FailClose(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closeErr = err
}

// FailQuery makes the next call of the named session query (for example
// "TrustLines") return err.
func (e *Env) FailQuery(method string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queryFailures[method] = err
}

// FailConnect makes every Connect return err until cleared with nil.
func (e *Env) FailConnect(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.connectErr = err
}

// XRPBalance returns the XRP balance of address.
func (e *Env) XRPBalance(address string) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	if root, ok := e.accounts[address]; ok {
		return root.balance
	}
	return decimal.Zero
}

// IOUBalance returns how many tokens of currency issued by issuer holder owns.
func (e *Env) IOUBalance(holder, issuer string, currency ledger.Currency) decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.lines[lineKey{holder, issuer, currency}]; ok {
		return l.balance
	}
	return decimal.Zero
}

// TrustLineExists reports whether holder trusts issuer for currency.
func (e *Env) TrustLineExists(holder, issuer string, currency ledger.Currency) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.lines[lineKey{holder, issuer, currency}]
	return ok
}

// Flags returns the account root flags of address.
func (e *Env) Flags(address string) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if root, ok := e.accounts[address]; ok {
		return root.flags
	}
	return 0
}

// Seq returns the next sequence number of address.
func (e *Env) Seq(address string) uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if root, ok := e.accounts[address]; ok {
		return root.seq
	}
	return 0
}

// Offers returns the open offers owned by address.
func (e *Env) Offers(address string) []ledger.Offer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]ledger.Offer(nil), e.offers[address]...)
}

// Submissions returns every transaction received so far, in order.
func (e *Env) Submissions() []Submission {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Submission(nil), e.submissions...)
}

// SubmissionsOf returns the received transactions of one type.
func (e *Env) SubmissionsOf(txType string) []Submission {
	var out []Submission
	for _, s := range e.Submissions() {
		if s.Tx.Type() == txType {
			out = append(out, s)
		}
	}
	return out
}

// OpenSessions returns the number of sessions not yet closed.
func (e *Env) OpenSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.openSessions
}

// MaxConcurrentSessions returns the highest number of sessions open at once.
func (e *Env) MaxConcurrentSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxSessions
}

// Connect implements ledger.Client.
func (e *Env) Connect(ctx context.Context) (ledger.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, ledger.NewTransportError("connect", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.connectErr != nil {
		return nil, ledger.NewTransportError("connect", e.connectErr)
	}
	e.openSessions++
	if e.openSessions > e.maxSessions {
		e.maxSessions = e.openSessions
	}
	return &session{env: e}, nil
}

func (e *Env) takeLostOutcome(account, txType string) (lostOutcome, bool) {
	for i, l := range e.lost {
		if l.account == account && (l.txType == "" || l.txType == txType) {
			e.lost = append(e.lost[:i], e.lost[i+1:]...)
			return l, true
		}
	}
	return lostOutcome{}, false
}

func (e *Env) takeQueryFailure(method string) error {
	if err, ok := e.queryFailures[method]; ok {
		delete(e.queryFailures, method)
		return ledger.NewTransportError(method, err)
	}
	return nil
}

func (e *Env) trustLines(address string) []ledger.TrustLine {
	var out []ledger.TrustLine
	for k, l := range e.lines {
		switch address {
		case k.holder:
			out = append(out, ledger.TrustLine{
				Account: address, Peer: k.issuer, Currency: k.currency,
				Limit: l.limit, Balance: l.balance,
			})
		case k.issuer:
			out = append(out, ledger.TrustLine{
				Account: address, Peer: k.holder, Currency: k.currency,
				Limit: decimal.Zero, Balance: l.balance.Neg(),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Peer != out[j].Peer {
			return out[i].Peer < out[j].Peer
		}
		return out[i].Currency < out[j].Currency
	})
	return out
}

func (e *Env) nextHash() string {
	e.txCount++
	return fmt.Sprintf("%064X", e.txCount)
}
