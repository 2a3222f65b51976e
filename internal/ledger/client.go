package ledger

import (
	"context"
	"fmt"
)

//go:generate mockgen -destination=mock_ledger/mock_ledger.go -package=mock_ledger github.com/LeJamon/goXRPLrwa/internal/ledger Client,Session

// Client opens sessions against a ledger node.
type Client interface {
	Connect(ctx context.Context) (Session, error)
}

// Session is one connection to a ledger node. Implementations must serialize
// submissions signed by the same account; submissions from different accounts
// may run concurrently.
type Session interface {
	// Submit signs tx with signer's seed, submits it and waits for a final
	// outcome. A non-nil error means the outcome is unknown or the transaction
	// could not be sent; a rejection is reported through SubmitResult.
	Submit(ctx context.Context, tx Tx, signer Account) (*SubmitResult, error)
	// TxOutcome looks up a previously submitted transaction. It returns the
	// final result once hash is validated, a ResultMaxLedger rejection once the
	// validated ledger has passed lastLedger without it, and an error wrapping
	// ErrOutcomeUnknown while neither holds.
	TxOutcome(ctx context.Context, hash string, lastLedger uint32) (*SubmitResult, error)
	AccountInfo(ctx context.Context, address string) (*AccountInfo, error)
	Balances(ctx context.Context, address string) ([]Balance, error)
	TrustLines(ctx context.Context, address string) ([]TrustLine, error)
	OpenOffers(ctx context.Context, address string) ([]Offer, error)
	OrderBook(ctx context.Context, currency Currency, issuer string) (*OrderBook, error)
	Close() error
}

// WithSession connects, runs fn and closes the session on every exit path,
// including a panic in fn.
func WithSession(ctx context.Context, client Client, fn func(Session) error) (err error) {
	sess, err := Connect(ctx, client)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil && err == nil {
			err = NewTransportError("close", cerr)
		}
	}()
	return fn(sess)
}

// Connect opens a session, classifying every failure as a transport error.
// Callers own the session and must close it.
func Connect(ctx context.Context, client Client) (Session, error) {
	sess, err := client.Connect(ctx)
	if err != nil {
		if IsTransport(err) {
			return nil, err
		}
		return nil, NewTransportError("connect", err)
	}
	return sess, nil
}

// SubmitTx submits tx and converts a ledger rejection into a *RejectedError.
// It never retries.
func SubmitTx(ctx context.Context, sess Session, tx Tx, signer Account) (*SubmitResult, error) {
	if signer.Seed == "" {
		return nil, fmt.Errorf("%s: %w", tx.Type(), ErrMissingSeed)
	}
	if acct := tx.Account(); acct != "" && acct != signer.Address {
		return nil, fmt.Errorf("%s: %w", tx.Type(), ErrSignerMismatch)
	}
	res, err := sess.Submit(ctx, tx, signer)
	if err != nil {
		return nil, fmt.Errorf("submit %s: %w", tx.Type(), err)
	}
	if !res.Accepted {
		return res, &RejectedError{
			TransactionType: tx.Type(),
			Account:         signer.Address,
			ResultCode:      res.ResultCode,
			TxHash:          res.TxHash,
		}
	}
	return res, nil
}
