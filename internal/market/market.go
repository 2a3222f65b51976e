// Package market places and cancels offers for instrument tokens against XRP
// and reads the token/XRP order book.
package market

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/txbuild"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// Side is the direction of an offer from the placing account's view.
type Side string

const (
	SideSell Side = "SELL"
	SideBuy  Side = "BUY"
)

// ParseSide accepts a side name in any case.
func ParseSide(s string) (Side, error) {
	switch side := Side(strings.ToUpper(strings.TrimSpace(s))); side {
	case SideSell, SideBuy:
		return side, nil
	}
	return "", fmt.Errorf("unknown offer side %q", s)
}

// OfferOptions are the optional OfferCreate flags.
type OfferOptions struct {
	Passive           bool
	ImmediateOrCancel bool
	FillOrKill        bool
	Expiration        uint32
}

// OfferResult describes a placed offer.
type OfferResult struct {
	Side        Side            `json:"side"`
	Account     string          `json:"account"`
	TokenAmount decimal.Decimal `json:"token_amount"`
	Price       decimal.Decimal `json:"price"`
	TakerGets   ledger.Amount   `json:"taker_gets"`
	TakerPays   ledger.Amount   `json:"taker_pays"`
	TxHash      string          `json:"tx_hash"`
}

// Market runs offer workflows over a ledger client.
type Market struct {
	client ledger.Client
	logger *log.Logger
}

// New creates a Market. A nil logger uses log.Default().
func New(client ledger.Client, logger *log.Logger) *Market {
	if logger == nil {
		logger = log.Default()
	}
	return &Market{client: client, logger: logger}
}

// OfferAmounts returns TakerGets and TakerPays for an offer of tokenAmount
// tokens at price XRP per token. The XRP leg is truncated to whole drops.
func OfferAmounts(side Side, currency ledger.Currency, issuer string, tokenAmount, price decimal.Decimal) (gets, pays ledger.Amount, err error) {
	const op = "market.place_offer"
	switch {
	case side != SideSell && side != SideBuy:
		return gets, pays, workflow.Precondition(op, "unknown side %q", side)
	case currency == "" || issuer == "":
		return gets, pays, workflow.Precondition(op, "currency and issuer are required")
	case !tokenAmount.IsPositive():
		return gets, pays, workflow.Precondition(op, "token amount must be positive, got %s", tokenAmount)
	case !price.IsPositive():
		return gets, pays, workflow.Precondition(op, "price must be positive, got %s", price)
	}
	xrp := ledger.TruncateToDrops(tokenAmount.Mul(price))
	if !xrp.IsPositive() {
		return gets, pays, workflow.Precondition(op, "settlement %s XRP is below one drop", tokenAmount.Mul(price))
	}

	token := ledger.NewIssued(currency, issuer, tokenAmount)
	settlement := ledger.NewXRP(xrp)
	if side == SideSell {
		return token, settlement, nil
	}
	return settlement, token, nil
}

// PlaceOffer submits an OfferCreate. SELL gives tokens for XRP; BUY gives XRP
// for tokens.
func (m *Market) PlaceOffer(ctx context.Context, account ledger.Account, side Side, currency ledger.Currency, issuer string, tokenAmount, price decimal.Decimal, opts OfferOptions) (*OfferResult, error) {
	const op = "market.place_offer"
	gets, pays, err := OfferAmounts(side, currency, issuer, tokenAmount, price)
	if err != nil {
		return nil, err
	}
	if opts.ImmediateOrCancel && opts.FillOrKill {
		return nil, workflow.Precondition(op, "immediate-or-cancel and fill-or-kill are exclusive")
	}

	b := txbuild.OfferCreate(account.Address, pays, gets)
	if opts.Passive {
		b.Passive()
	}
	if opts.ImmediateOrCancel {
		b.ImmediateOrCancel()
	}
	if opts.FillOrKill {
		b.FillOrKill()
	}
	if opts.Expiration != 0 {
		b.Expiration(opts.Expiration)
	}
	tx, err := b.Build()
	if err != nil {
		return nil, workflow.Wrap(op, err)
	}

	var res *ledger.SubmitResult
	err = ledger.WithSession(ctx, m.client, func(sess ledger.Session) error {
		res, err = ledger.SubmitTx(ctx, sess, tx, account)
		return err
	})
	if err != nil {
		return nil, workflow.Wrap(op, err)
	}
	m.logger.Printf("market: %s offer account=%s gets=%s pays=%s tx=%s", side, account.Address, gets, pays, res.TxHash)
	return &OfferResult{
		Side:        side,
		Account:     account.Address,
		TokenAmount: tokenAmount,
		Price:       price,
		TakerGets:   gets,
		TakerPays:   pays,
		TxHash:      res.TxHash,
	}, nil
}

// ListInitialOffer offers the whole supply from the treasury at price.
func (m *Market) ListInitialOffer(ctx context.Context, treasury ledger.Account, currency ledger.Currency, issuer string, totalSupply, price decimal.Decimal) (*OfferResult, error) {
	return m.PlaceOffer(ctx, treasury, SideSell, currency, issuer, totalSupply, price, OfferOptions{})
}

// CancelAll cancels every open offer of account.
func (m *Market) CancelAll(ctx context.Context, account ledger.Account) (int, error) {
	var cancelled int
	err := ledger.WithSession(ctx, m.client, func(sess ledger.Session) error {
		var err error
		cancelled, err = CancelOffers(ctx, sess, account)
		return err
	})
	return cancelled, workflow.Wrap("market.cancel_all", err)
}

// CancelOffers cancels the open offers of account one at a time on sess and
// returns how many were cancelled before the first error.
func CancelOffers(ctx context.Context, sess ledger.Session, account ledger.Account) (int, error) {
	offers, err := sess.OpenOffers(ctx, account.Address)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, o := range offers {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}
		tx, err := txbuild.OfferCancel(account.Address, o.Sequence).Build()
		if err != nil {
			return cancelled, err
		}
		if _, err := ledger.SubmitTx(ctx, sess, tx, account); err != nil {
			return cancelled, fmt.Errorf("cancel offer %d: %w", o.Sequence, err)
		}
		cancelled++
	}
	return cancelled, nil
}
