package wsclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/txbuild"
)

// handlerFunc answers one decoded request with a result object, or an error code.
type handlerFunc func(req map[string]interface{}) (result interface{}, errCode string)

type fakeNode struct {
	mu       sync.Mutex
	commands []string
	handle   handlerFunc
}

func (n *fakeNode) seen() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.commands...)
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req map[string]interface{}
		if err := json.Unmarshal(data, &req); err != nil {
			return
		}
		cmd, _ := req["command"].(string)
		n.mu.Lock()
		n.commands = append(n.commands, cmd)
		n.mu.Unlock()

		result, errCode := n.handle(req)
		resp := map[string]interface{}{"id": req["id"], "type": "response"}
		if errCode != "" {
			resp["status"] = "error"
			resp["error"] = errCode
		} else {
			resp["status"] = "success"
			resp["result"] = result
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func newTestClient(t *testing.T, handle handlerFunc) (*Client, *fakeNode) {
	t.Helper()
	node := &fakeNode{handle: handle}
	srv := httptest.NewServer(node)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		URL:               "ws" + strings.TrimPrefix(srv.URL, "http"),
		RequestTimeout:    2 * time.Second,
		ValidationTimeout: 2 * time.Second,
		PollInterval:      10 * time.Millisecond,
		FeeDrops:          12,
	})
	require.NoError(t, err)
	return client, node
}

func TestAccountInfo(t *testing.T) {
	client, _ := newTestClient(t, func(req map[string]interface{}) (interface{}, string) {
		if req["account"] == "rMissing" {
			return nil, "actNotFound"
		}
		return map[string]interface{}{
			"account_data": map[string]interface{}{
				"Account":  req["account"],
				"Balance":  "100000000",
				"Flags":    ledger.LsfAllowTrustLineClawback,
				"Sequence": 5,
			},
		}, ""
	})

	ctx := context.Background()
	sess, err := client.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	info, err := sess.AccountInfo(ctx, "rIssuer")
	require.NoError(t, err)
	assert.Equal(t, "rIssuer", info.Address)
	assert.True(t, info.Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, info.HasFlag(ledger.LsfAllowTrustLineClawback))
	assert.Equal(t, uint32(5), info.Sequence)

	_, err = sess.AccountInfo(ctx, "rMissing")
	assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
}

func TestTrustLinesPaginates(t *testing.T) {
	client, node := newTestClient(t, func(req map[string]interface{}) (interface{}, string) {
		if _, ok := req["marker"]; !ok {
			return map[string]interface{}{
				"lines": []map[string]interface{}{
					{"account": "rHolderA", "balance": "-300", "currency": "BND", "limit": "0"},
				},
				"marker": "page2",
			}, ""
		}
		return map[string]interface{}{
			"lines": []map[string]interface{}{
				{"account": "rHolderB", "balance": "-700", "currency": "BND", "limit": "0"},
			},
		}, ""
	})

	ctx := context.Background()
	sess, err := client.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	lines, err := sess.TrustLines(ctx, "rIssuer")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "rHolderB", lines[1].Peer)
	assert.True(t, lines[1].Balance.Equal(decimal.NewFromInt(-700)))
	assert.Equal(t, []string{"account_lines", "account_lines"}, node.seen())
}

func TestOrderBookQueriesBothSides(t *testing.T) {
	client, _ := newTestClient(t, func(req map[string]interface{}) (interface{}, string) {
		gets := req["taker_gets"].(map[string]interface{})
		if gets["currency"] == "XRP" {
			return map[string]interface{}{"offers": []interface{}{}}, ""
		}
		return map[string]interface{}{
			"offers": []map[string]interface{}{{
				"Account":   "rSeller",
				"Sequence":  9,
				"TakerGets": map[string]interface{}{"currency": "BND", "issuer": "rIssuer", "value": "100"},
				"TakerPays": "10000000",
			}},
		}, ""
	})

	ctx := context.Background()
	sess, err := client.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	book, err := sess.OrderBook(ctx, "BND", "rIssuer")
	require.NoError(t, err)
	require.Len(t, book.Asks, 1)
	assert.Empty(t, book.Bids)
	assert.Equal(t, uint32(9), book.Asks[0].Sequence)
	assert.True(t, book.Asks[0].TakerPays.Value.Equal(decimal.NewFromInt(10)))
}

func TestSubmitWaitsForValidation(t *testing.T) {
	signer, err := ledger.GenerateAccount(ledger.KeyTypeED25519)
	require.NoError(t, err)

	polls := 0
	client, node := newTestClient(t, func(req map[string]interface{}) (interface{}, string) {
		switch req["command"] {
		case "account_info":
			return map[string]interface{}{"account_data": map[string]interface{}{
				"Account": signer.Address, "Balance": "50000000", "Flags": 0, "Sequence": 3,
			}}, ""
		case "ledger_current":
			return map[string]interface{}{"ledger_current_index": 100}, ""
		case "submit":
			return map[string]interface{}{
				"engine_result": "tesSUCCESS",
				"tx_json":       map[string]interface{}{"hash": "HASH1"},
			}, ""
		case "tx":
			polls++
			if polls == 1 {
				return nil, "txnNotFound"
			}
			return map[string]interface{}{
				"validated":    true,
				"ledger_index": 101,
				"meta":         map[string]interface{}{"TransactionResult": "tesSUCCESS"},
			}, ""
		case "ledger":
			return map[string]interface{}{"ledger_index": 100}, ""
		}
		return nil, "unknownCmd"
	})

	ctx := context.Background()
	sess, err := client.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	tx, err := txbuild.AccountSet(signer.Address).SetFlag(ledger.AsfAllowTrustLineClawback).Build()
	require.NoError(t, err)

	res, err := sess.Submit(ctx, tx, signer)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "HASH1", res.TxHash)
	assert.Equal(t, uint32(101), res.LedgerIndex)
	assert.Contains(t, node.seen(), "submit")
}

func TestSubmitPreliminaryRejection(t *testing.T) {
	signer, err := ledger.GenerateAccount(ledger.KeyTypeED25519)
	require.NoError(t, err)

	client, node := newTestClient(t, func(req map[string]interface{}) (interface{}, string) {
		switch req["command"] {
		case "submit":
			return map[string]interface{}{
				"engine_result": "temBAD_AMOUNT",
				"tx_json":       map[string]interface{}{"hash": "HASH2"},
			}, ""
		}
		return nil, "unexpected"
	})

	ctx := context.Background()
	sess, err := client.Connect(ctx)
	require.NoError(t, err)
	defer sess.Close()

	tx, err := txbuild.AccountSet(signer.Address).SetFlag(ledger.AsfDefaultRipple).Sequence(1).Build()
	require.NoError(t, err)
	tx["LastLedgerSequence"] = uint32(200)

	res, err := sess.Submit(ctx, tx, signer)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "temBAD_AMOUNT", res.ResultCode)
	assert.Equal(t, []string{"submit"}, node.seen(), "no autofill and no polling")
}

func TestRequestAfterCloseIsTransport(t *testing.T) {
	client, _ := newTestClient(t, func(map[string]interface{}) (interface{}, string) {
		return map[string]interface{}{}, ""
	})

	ctx := context.Background()
	sess, err := client.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, sess.Close())

	_, err = sess.TrustLines(ctx, "rIssuer")
	assert.True(t, ledger.IsTransport(err))
}

func TestTxOutcome(t *testing.T) {
	validated := func(code string) func(map[string]interface{}) (interface{}, string) {
		return func(req map[string]interface{}) (interface{}, string) {
			if req["command"] == "tx" {
				return map[string]interface{}{
					"validated":    true,
					"ledger_index": 120,
					"meta":         map[string]interface{}{"TransactionResult": code},
				}, ""
			}
			return nil, "unexpected"
		}
	}
	missing := func(validatedLedger int) func(map[string]interface{}) (interface{}, string) {
		return func(req map[string]interface{}) (interface{}, string) {
			switch req["command"] {
			case "tx":
				return nil, "txnNotFound"
			case "ledger":
				return map[string]interface{}{"ledger_index": validatedLedger}, ""
			}
			return nil, "unexpected"
		}
	}

	tests := []struct {
		name       string
		handle     handlerFunc
		lastLedger uint32
		accepted   bool
		code       string
		unknown    bool
	}{
		{name: "applied", handle: validated("tesSUCCESS"), lastLedger: 130, accepted: true, code: "tesSUCCESS"},
		{name: "validated failure", handle: validated("tecUNFUNDED_PAYMENT"), lastLedger: 130, code: "tecUNFUNDED_PAYMENT"},
		{name: "expired", handle: missing(131), lastLedger: 130, code: ledger.ResultMaxLedger},
		{name: "still in flight", handle: missing(125), lastLedger: 130, unknown: true},
		{name: "no last ledger", handle: missing(500), unknown: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handle)
			ctx := context.Background()
			sess, err := client.Connect(ctx)
			require.NoError(t, err)
			defer sess.Close()

			res, err := sess.TxOutcome(ctx, "HASH9", tt.lastLedger)
			if tt.unknown {
				require.ErrorIs(t, err, ledger.ErrOutcomeUnknown)
				oe, ok := ledger.AsOutcomeUnknown(err)
				require.True(t, ok)
				assert.Equal(t, "HASH9", oe.TxHash)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.accepted, res.Accepted)
			assert.Equal(t, tt.code, res.ResultCode)
			assert.Equal(t, "HASH9", res.TxHash)
		})
	}
}
