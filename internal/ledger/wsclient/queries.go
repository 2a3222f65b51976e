package wsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

const (
	pageLimit = 400
	bookLimit = 200
	// maxPages bounds marker pagination against a misbehaving node.
	maxPages = 100
)

type accountInfoResult struct {
	AccountData struct {
		Account  string `json:"Account"`
		Balance  string `json:"Balance"`
		Flags    uint32 `json:"Flags"`
		Sequence uint32 `json:"Sequence"`
	} `json:"account_data"`
}

func (s *session) AccountInfo(ctx context.Context, address string) (*ledger.AccountInfo, error) {
	var res accountInfoResult
	err := s.request(ctx, "account_info", map[string]interface{}{
		"account":      address,
		"ledger_index": "validated",
	}, &res)
	if err != nil {
		return nil, err
	}
	drops, err := strconv.ParseInt(res.AccountData.Balance, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("account_info: invalid balance %q: %w", res.AccountData.Balance, err)
	}
	return &ledger.AccountInfo{
		Address:  res.AccountData.Account,
		Balance:  ledger.NewXRPFromDrops(drops).Value,
		Flags:    res.AccountData.Flags,
		Sequence: res.AccountData.Sequence,
	}, nil
}

type accountLinesResult struct {
	Lines []struct {
		Account  string `json:"account"`
		Balance  string `json:"balance"`
		Currency string `json:"currency"`
		Limit    string `json:"limit"`
	} `json:"lines"`
	Marker json.RawMessage `json:"marker,omitempty"`
}

func (s *session) TrustLines(ctx context.Context, address string) ([]ledger.TrustLine, error) {
	var out []ledger.TrustLine
	params := map[string]interface{}{
		"account":      address,
		"ledger_index": "validated",
		"limit":        pageLimit,
	}
	for page := 0; page < maxPages; page++ {
		var res accountLinesResult
		if err := s.request(ctx, "account_lines", params, &res); err != nil {
			return nil, err
		}
		for _, l := range res.Lines {
			balance, err := decimal.NewFromString(l.Balance)
			if err != nil {
				return nil, fmt.Errorf("account_lines: invalid balance %q: %w", l.Balance, err)
			}
			limit, err := decimal.NewFromString(l.Limit)
			if err != nil {
				return nil, fmt.Errorf("account_lines: invalid limit %q: %w", l.Limit, err)
			}
			out = append(out, ledger.TrustLine{
				Account:  address,
				Peer:     l.Account,
				Currency: ledger.Currency(l.Currency),
				Limit:    limit,
				Balance:  balance,
			})
		}
		if len(res.Marker) == 0 || string(res.Marker) == "null" {
			return out, nil
		}
		params["marker"] = res.Marker
	}
	return nil, fmt.Errorf("account_lines: more than %d pages", maxPages)
}

func (s *session) Balances(ctx context.Context, address string) ([]ledger.Balance, error) {
	info, err := s.AccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	lines, err := s.TrustLines(ctx, address)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Balance, 0, len(lines)+1)
	out = append(out, ledger.Balance{Currency: ledger.XRP, Value: info.Balance})
	for _, l := range lines {
		out = append(out, ledger.Balance{Currency: l.Currency, Issuer: l.Peer, Value: l.Balance})
	}
	return out, nil
}

type accountOffersResult struct {
	Offers []struct {
		Flags     uint32        `json:"flags"`
		Seq       uint32        `json:"seq"`
		TakerGets ledger.Amount `json:"taker_gets"`
		TakerPays ledger.Amount `json:"taker_pays"`
	} `json:"offers"`
	Marker json.RawMessage `json:"marker,omitempty"`
}

func (s *session) OpenOffers(ctx context.Context, address string) ([]ledger.Offer, error) {
	var out []ledger.Offer
	params := map[string]interface{}{
		"account":      address,
		"ledger_index": "validated",
		"limit":        pageLimit,
	}
	for page := 0; page < maxPages; page++ {
		var res accountOffersResult
		if err := s.request(ctx, "account_offers", params, &res); err != nil {
			return nil, err
		}
		for _, o := range res.Offers {
			out = append(out, ledger.Offer{
				Account:   address,
				Sequence:  o.Seq,
				TakerGets: o.TakerGets,
				TakerPays: o.TakerPays,
				Flags:     o.Flags,
			})
		}
		if len(res.Marker) == 0 || string(res.Marker) == "null" {
			return out, nil
		}
		params["marker"] = res.Marker
	}
	return nil, fmt.Errorf("account_offers: more than %d pages", maxPages)
}

type bookOffersResult struct {
	Offers []struct {
		Account   string        `json:"Account"`
		Sequence  uint32        `json:"Sequence"`
		Flags     uint32        `json:"Flags"`
		TakerGets ledger.Amount `json:"TakerGets"`
		TakerPays ledger.Amount `json:"TakerPays"`
	} `json:"offers"`
}

func (s *session) bookSide(ctx context.Context, gets, pays map[string]interface{}) ([]ledger.Offer, error) {
	var res bookOffersResult
	err := s.request(ctx, "book_offers", map[string]interface{}{
		"taker_gets":   gets,
		"taker_pays":   pays,
		"ledger_index": "validated",
		"limit":        bookLimit,
	}, &res)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Offer, 0, len(res.Offers))
	for _, o := range res.Offers {
		out = append(out, ledger.Offer{
			Account:   o.Account,
			Sequence:  o.Sequence,
			TakerGets: o.TakerGets,
			TakerPays: o.TakerPays,
			Flags:     o.Flags,
		})
	}
	return out, nil
}

// OrderBook fetches both sides of the token/XRP book.
func (s *session) OrderBook(ctx context.Context, currency ledger.Currency, issuer string) (*ledger.OrderBook, error) {
	token := map[string]interface{}{"currency": string(currency), "issuer": issuer}
	xrp := map[string]interface{}{"currency": "XRP"}

	asks, err := s.bookSide(ctx, token, xrp)
	if err != nil {
		return nil, err
	}
	bids, err := s.bookSide(ctx, xrp, token)
	if err != nil {
		return nil, err
	}
	return &ledger.OrderBook{Asks: asks, Bids: bids}, nil
}
