package market

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// Quote is a resting offer normalized to token quantity and XRP settlement.
type Quote struct {
	Account          string          `json:"account"`
	Sequence         uint32          `json:"sequence"`
	TokenAmount      decimal.Decimal `json:"token_amount"`
	SettlementAmount decimal.Decimal `json:"settlement_amount"`
	PricePerToken    decimal.Decimal `json:"price_per_token"`
}

// OrderBook is the normalized token/XRP book. Asks are sorted by ascending
// price and bids by descending price; equal prices keep sequence order.
type OrderBook struct {
	Currency ledger.Currency `json:"currency"`
	Issuer   string          `json:"issuer"`
	Asks     []Quote         `json:"asks"`
	Bids     []Quote         `json:"bids"`
}

// BestAsk returns the cheapest ask.
func (b *OrderBook) BestAsk() (Quote, bool) {
	if len(b.Asks) == 0 {
		return Quote{}, false
	}
	return b.Asks[0], true
}

// BestBid returns the highest bid.
func (b *OrderBook) BestBid() (Quote, bool) {
	if len(b.Bids) == 0 {
		return Quote{}, false
	}
	return b.Bids[0], true
}

// Spread is best ask minus best bid; ok is false when either side is empty.
func (b *OrderBook) Spread() (spread decimal.Decimal, ok bool) {
	ask, okAsk := b.BestAsk()
	bid, okBid := b.BestBid()
	if !okAsk || !okBid {
		return decimal.Zero, false
	}
	return ask.PricePerToken.Sub(bid.PricePerToken), true
}

// FetchOrderBook reads both sides of the currency/XRP book.
func (m *Market) FetchOrderBook(ctx context.Context, currency ledger.Currency, issuer string) (*OrderBook, error) {
	const op = "market.order_book"
	if currency == "" || issuer == "" {
		return nil, workflow.Precondition(op, "currency and issuer are required")
	}
	var raw *ledger.OrderBook
	err := ledger.WithSession(ctx, m.client, func(sess ledger.Session) error {
		var err error
		raw, err = sess.OrderBook(ctx, currency, issuer)
		return err
	})
	if err != nil {
		return nil, workflow.Wrap(op, err)
	}
	return Normalize(raw, currency, issuer), nil
}

// Normalize converts raw offers into quotes. Asks give the token for XRP; bids
// give XRP for the token. Offers with no token quantity are dropped.
func Normalize(raw *ledger.OrderBook, currency ledger.Currency, issuer string) *OrderBook {
	book := &OrderBook{Currency: currency, Issuer: issuer, Asks: []Quote{}, Bids: []Quote{}}
	if raw == nil {
		return book
	}
	for _, o := range raw.Asks {
		if q, ok := quote(o, o.TakerGets, o.TakerPays); ok {
			book.Asks = append(book.Asks, q)
		}
	}
	for _, o := range raw.Bids {
		if q, ok := quote(o, o.TakerPays, o.TakerGets); ok {
			book.Bids = append(book.Bids, q)
		}
	}

	sort.SliceStable(book.Asks, func(i, j int) bool {
		a, b := book.Asks[i], book.Asks[j]
		if c := a.PricePerToken.Cmp(b.PricePerToken); c != 0 {
			return c < 0
		}
		return a.Sequence < b.Sequence
	})
	sort.SliceStable(book.Bids, func(i, j int) bool {
		a, b := book.Bids[i], book.Bids[j]
		if c := a.PricePerToken.Cmp(b.PricePerToken); c != 0 {
			return c > 0
		}
		return a.Sequence < b.Sequence
	})
	return book
}

func quote(o ledger.Offer, token, settlement ledger.Amount) (Quote, bool) {
	if !token.Value.IsPositive() {
		return Quote{}, false
	}
	return Quote{
		Account:          o.Account,
		Sequence:         o.Sequence,
		TokenAmount:      token.Value,
		SettlementAmount: settlement.Value,
		PricePerToken:    settlement.Value.Div(token.Value),
	}, true
}
