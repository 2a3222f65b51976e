package ledgertest

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

type session struct {
	env    *Env
	closed bool
}

var _ ledger.Session = (*session)(nil)

func (s *session) begin(ctx context.Context, method string) error {
	if s.closed {
		return ledger.ErrSessionClosed
	}
	if err := ctx.Err(); err != nil {
		return ledger.NewTransportError(method, err)
	}
	return s.env.takeQueryFailure(method)
}

func (s *session) Submit(ctx context.Context, tx ledger.Tx, signer ledger.Account) (*ledger.SubmitResult, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := s.begin(ctx, "Submit"); err != nil {
		return nil, err
	}
	if e.submitFails > 0 {
		e.submitFails--
		return nil, ledger.NewTransportError("submit", errors.New("connection reset"))
	}
	if tx.Account() != signer.Address {
		return nil, ledger.ErrSignerMismatch
	}

	lost, isLost := e.takeLostOutcome(signer.Address, tx.Type())
	if isLost && !lost.applied {
		hash := e.nextHash()
		e.outcomes[hash] = ledger.SubmitResult{Accepted: false, ResultCode: ledger.ResultMaxLedger, TxHash: hash}
		return nil, outcomeLost(hash, e.ledgerIndex)
	}

	res := e.apply(tx)
	e.submissions = append(e.submissions, Submission{Tx: tx, Signer: signer.Address, Result: res})
	e.outcomes[res.TxHash] = res
	if isLost {
		return nil, outcomeLost(res.TxHash, e.ledgerIndex)
	}
	return &res, nil
}

func (s *session) TxOutcome(ctx context.Context, hash string, lastLedger uint32) (*ledger.SubmitResult, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.begin(ctx, "TxOutcome"); err != nil {
		return nil, err
	}
	res, ok := e.outcomes[hash]
	if !ok {
		return nil, outcomeLost(hash, lastLedger)
	}
	return &res, nil
}

func outcomeLost(hash string, lastLedger uint32) error {
	return ledger.NewTransportError("wait "+hash, &ledger.OutcomeUnknownError{
		TxHash:     hash,
		LastLedger: lastLedger,
		Cause:      context.DeadlineExceeded,
	})
}

func (s *session) AccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.begin(ctx, "AccountInfo"); err != nil {
		return nil, err
	}
	root, ok := e.accounts[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, address)
	}
	return &ledger.AccountInfo{
		Address:  address,
		Balance:  root.balance,
		Flags:    root.flags,
		Sequence: root.seq,
	}, nil
}

func (s *session) Balances(ctx context.Context, address string) ([]ledger.Balance, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.begin(ctx, "Balances"); err != nil {
		return nil, err
	}
	root, ok := e.accounts[address]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, address)
	}
	out := []ledger.Balance{{Currency: ledger.XRP, Value: root.balance}}
	for _, l := range e.trustLines(address) {
		out = append(out, ledger.Balance{Currency: l.Currency, Issuer: l.Peer, Value: l.Balance})
	}
	return out, nil
}

func (s *session) TrustLines(ctx context.Context, address string) ([]ledger.TrustLine, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.begin(ctx, "TrustLines"); err != nil {
		return nil, err
	}
	if _, ok := e.accounts[address]; !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, address)
	}
	return e.trustLines(address), nil
}

func (s *session) OpenOffers(ctx context.Context, address string) ([]ledger.Offer, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.begin(ctx, "OpenOffers"); err != nil {
		return nil, err
	}
	out := append([]ledger.Offer(nil), e.offers[address]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *session) OrderBook(ctx context.Context, currency ledger.Currency, issuer string) (*ledger.OrderBook, error) {
	e := s.env
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.begin(ctx, "OrderBook"); err != nil {
		return nil, err
	}
	isToken := func(a ledger.Amount) bool {
		return !a.IsNative() && a.Currency == currency && a.Issuer == issuer
	}

	accounts := make([]string, 0, len(e.offers))
	for acct := range e.offers {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)

	book := &ledger.OrderBook{}
	for _, acct := range accounts {
		for _, o := range e.offers[acct] {
			switch {
			case isToken(o.TakerGets) && o.TakerPays.IsNative():
				book.Asks = append(book.Asks, o)
			case o.TakerGets.IsNative() && isToken(o.TakerPays):
				book.Bids = append(book.Bids, o)
			}
		}
	}
	return book, nil
}

func (s *session) Close() error {
	s.env.mu.Lock()
	defer s.env.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.env.openSessions--
	return s.env.closeErr
}
