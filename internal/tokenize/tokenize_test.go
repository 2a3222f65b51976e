package tokenize

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/ledgertest"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/mock_ledger"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

var quiet = log.New(io.Discard, "", 0)

func TestDeriveCurrencyID(t *testing.T) {
	tests := []struct {
		code    string
		want    ledger.Currency
		wantErr bool
	}{
		{code: "X", want: "X00"},
		{code: "GB", want: "GB0"},
		{code: "USD", want: "USD"},
		{code: "XR", want: "XR0"},
		{code: "GREENBOND", want: ledger.Currency("475245454E424F4E44" + strings.Repeat("0", 22))},
		{code: "ABCD", want: ledger.Currency("41424344" + strings.Repeat("0", 32))},
		{code: strings.Repeat("A", 25), want: ledger.Currency(strings.Repeat("41", 20))},
		{code: "", wantErr: true},
		{code: "XRP", wantErr: true},
		{code: "xrp", wantErr: true},
		{code: "ab\x01cd", wantErr: true},
		{code: "bönd", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := DeriveCurrencyID(tt.code)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, workflow.IsKind(err, workflow.KindPrecondition))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if len(tt.code) > 3 {
				assert.Len(t, string(got), 40)
			}
		})
	}

	t.Run("deterministic", func(t *testing.T) {
		a, err := DeriveCurrencyID("SOLARFARM-2027")
		require.NoError(t, err)
		b, err := DeriveCurrencyID("SOLARFARM-2027")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func setup(t *testing.T) (*ledgertest.Env, ledger.Account, ledger.Account) {
	t.Helper()
	env := ledgertest.NewEnv()
	return env, env.Account("Issuer", 1000), env.Account("Treasury", 1000)
}

func TestConfigureIssuer(t *testing.T) {
	ctx := context.Background()

	t.Run("sets flags then skips", func(t *testing.T) {
		env, issuer, _ := setup(t)
		engine := New(env, Options{DefaultRipple: true, Logger: quiet})

		outcomes, err := engine.ConfigureIssuer(ctx, issuer)
		require.NoError(t, err)
		require.Len(t, outcomes, 2)
		assert.False(t, outcomes[0].Skipped)
		assert.NotEmpty(t, outcomes[0].TxHash)
		assert.Equal(t, ledger.LsfAllowTrustLineClawback|ledger.LsfDefaultRipple, env.Flags(issuer.Address))

		outcomes, err = engine.ConfigureIssuer(ctx, issuer)
		require.NoError(t, err)
		assert.True(t, outcomes[0].Skipped)
		assert.True(t, outcomes[1].Skipped)
		assert.Len(t, env.SubmissionsOf("AccountSet"), 2)
	})

	t.Run("default ripple optional", func(t *testing.T) {
		env, issuer, _ := setup(t)
		engine := New(env, Options{Logger: quiet})
		outcomes, err := engine.ConfigureIssuer(ctx, issuer)
		require.NoError(t, err)
		assert.Len(t, outcomes, 1)
		assert.Equal(t, ledger.LsfAllowTrustLineClawback, env.Flags(issuer.Address))
	})

	t.Run("rejected when issuer already owns lines", func(t *testing.T) {
		env, issuer, treasury := setup(t)
		_, err := New(env, Options{Logger: quiet}).Mint(ctx, issuer, treasury, "GB0", decimal.NewFromInt(10))
		require.NoError(t, err)

		_, err = New(env, Options{Logger: quiet}).ConfigureIssuer(ctx, issuer)
		require.Error(t, err)
		assert.True(t, workflow.IsKind(err, workflow.KindLedgerRejected))
		var we *workflow.Error
		require.True(t, errors.As(err, &we))
		assert.Equal(t, ledger.ResultOwners, we.ResultCode)
		assert.Equal(t, "tokenize.configure_issuer/allow-clawback", we.Op)
	})

	t.Run("rejection with flag already set counts as done", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		client := mock_ledger.NewMockClient(ctrl)
		sess := mock_ledger.NewMockSession(ctrl)
		issuer := ledger.Account{Address: "rIssuer", Seed: "sIssuer"}

		client.EXPECT().Connect(gomock.Any()).Return(sess, nil)
		gomock.InOrder(
			sess.EXPECT().AccountInfo(gomock.Any(), issuer.Address).Return(&ledger.AccountInfo{Address: issuer.Address}, nil),
			sess.EXPECT().Submit(gomock.Any(), gomock.Any(), issuer).Return(&ledger.SubmitResult{ResultCode: ledger.ResultPastSeq}, nil),
			sess.EXPECT().AccountInfo(gomock.Any(), issuer.Address).Return(&ledger.AccountInfo{
				Address: issuer.Address,
				Flags:   ledger.LsfAllowTrustLineClawback,
			}, nil),
		)
		sess.EXPECT().Close().Return(nil)

		outcomes, err := New(client, Options{Logger: quiet}).ConfigureIssuer(ctx, issuer)
		require.NoError(t, err)
		require.Len(t, outcomes, 1)
		assert.False(t, outcomes[0].Skipped)
	})

	t.Run("missing issuer", func(t *testing.T) {
		_, err := New(ledgertest.NewEnv(), Options{}).ConfigureIssuer(ctx, ledger.Account{})
		assert.True(t, workflow.IsKind(err, workflow.KindPrecondition))
	})
}

func TestMint(t *testing.T) {
	ctx := context.Background()
	supply := decimal.NewFromInt(1000)

	t.Run("opens line and issues supply", func(t *testing.T) {
		env, issuer, treasury := setup(t)
		engine := New(env, Options{Logger: quiet})

		res, err := engine.Mint(ctx, issuer, treasury, "GB0", supply)
		require.NoError(t, err)
		assert.NotEmpty(t, res.TrustSetTxHash)
		assert.NotEmpty(t, res.PaymentTxHash)
		assert.True(t, env.TrustLineExists(treasury.Address, issuer.Address, "GB0"))
		assert.True(t, env.IOUBalance(treasury.Address, issuer.Address, "GB0").Equal(supply))

		again, err := engine.Mint(ctx, issuer, treasury, "GB0", supply)
		require.NoError(t, err)
		require.Len(t, again.Steps, 2)
		assert.True(t, again.Steps[0].Skipped)
		assert.True(t, again.Steps[1].Skipped)
		assert.True(t, env.IOUBalance(treasury.Address, issuer.Address, "GB0").Equal(supply))
		assert.Len(t, env.SubmissionsOf("Payment"), 1)
	})

	t.Run("issue failure leaves line and retry completes", func(t *testing.T) {
		env, issuer, treasury := setup(t)
		engine := New(env, Options{Logger: quiet})

		env.RejectNext(issuer.Address, "Payment", ledger.ResultPathDry)
		_, err := engine.Mint(ctx, issuer, treasury, "GB0", supply)
		require.Error(t, err)
		assert.True(t, workflow.IsKind(err, workflow.KindLedgerRejected))
		assert.True(t, env.TrustLineExists(treasury.Address, issuer.Address, "GB0"))
		assert.True(t, env.IOUBalance(treasury.Address, issuer.Address, "GB0").IsZero())

		res, err := engine.Mint(ctx, issuer, treasury, "GB0", supply)
		require.NoError(t, err)
		assert.True(t, res.Steps[0].Skipped)
		assert.False(t, res.Steps[1].Skipped)
		assert.True(t, env.IOUBalance(treasury.Address, issuer.Address, "GB0").Equal(supply))
	})

	t.Run("preconditions", func(t *testing.T) {
		env, issuer, treasury := setup(t)
		engine := New(env, Options{Logger: quiet})
		cases := map[string]func() error{
			"same account": func() error {
				_, err := engine.Mint(ctx, issuer, issuer, "GB0", supply)
				return err
			},
			"zero supply": func() error {
				_, err := engine.Mint(ctx, issuer, treasury, "GB0", decimal.Zero)
				return err
			},
			"no currency": func() error {
				_, err := engine.Mint(ctx, issuer, treasury, "", supply)
				return err
			},
		}
		for name, run := range cases {
			t.Run(name, func(t *testing.T) {
				assert.True(t, workflow.IsKind(run(), workflow.KindPrecondition))
			})
		}
		assert.Empty(t, env.Submissions())
	})

	t.Run("unreachable node is transport", func(t *testing.T) {
		env, issuer, treasury := setup(t)
		env.FailConnect(errors.New("dial tcp: refused"))
		_, err := New(env, Options{Logger: quiet}).Mint(ctx, issuer, treasury, "GB0", supply)
		assert.True(t, workflow.IsKind(err, workflow.KindTransport))
	})
}
