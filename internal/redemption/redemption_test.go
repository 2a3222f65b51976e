package redemption

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/ledgertest"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/txbuild"
	"github.com/LeJamon/goXRPLrwa/internal/market"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

const gb ledger.Currency = "GB0"

var quiet = log.New(io.Discard, "", 0)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	env      *ledgertest.Env
	issuer   ledger.Account
	treasury ledger.Account
	holders  map[string]ledger.Account
}

// newFixture mints 1000 GB0 and distributes the given balances from the
// treasury's allocation to named holders.
func newFixture(t *testing.T, balances map[string]string) *fixture {
	t.Helper()
	env := ledgertest.NewEnv()
	f := &fixture{
		env:      env,
		issuer:   env.Account("Issuer", 1000),
		treasury: env.Account("Treasury", 1000),
		holders:  map[string]ledger.Account{},
	}
	env.SetFlags(f.issuer.Address, ledger.LsfAllowTrustLineClawback)

	ctx := context.Background()
	err := ledger.WithSession(ctx, env, func(sess ledger.Session) error {
		trust := func(acct ledger.Account) error {
			tx, err := txbuild.TrustLine(acct.Address, gb, f.issuer.Address, d("1000")).Build()
			if err != nil {
				return err
			}
			_, err = ledger.SubmitTx(ctx, sess, tx, acct)
			return err
		}
		issue := func(to string, amount decimal.Decimal) error {
			tx, err := txbuild.Pay(f.issuer.Address, to, ledger.NewIssued(gb, f.issuer.Address, amount)).Build()
			if err != nil {
				return err
			}
			_, err = ledger.SubmitTx(ctx, sess, tx, f.issuer)
			return err
		}

		if err := trust(f.treasury); err != nil {
			return err
		}
		distributed := decimal.Zero
		for name, bal := range balances {
			acct := env.Account(name, 100)
			f.holders[name] = acct
			if err := trust(acct); err != nil {
				return err
			}
			if err := issue(acct.Address, d(bal)); err != nil {
				return err
			}
			distributed = distributed.Add(d(bal))
		}
		if rest := d("1000").Sub(distributed); rest.IsPositive() {
			return issue(f.treasury.Address, rest)
		}
		return nil
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) request(payout string) Request {
	return Request{
		Issuer:         f.issuer,
		Treasury:       f.treasury,
		Currency:       gb,
		PayoutPerToken: d(payout),
	}
}

func TestHoldingFromIssuerView(t *testing.T) {
	tests := []struct {
		balance string
		want    string
		holds   bool
	}{
		{balance: "-300", want: "300", holds: true},
		{balance: "-0.000001", want: "0.000001", holds: true},
		{balance: "0", want: "0"},
		{balance: "25", want: "0"},
	}
	for _, tt := range tests {
		t.Run(tt.balance, func(t *testing.T) {
			got, ok := HoldingFromIssuerView(d(tt.balance))
			assert.Equal(t, tt.holds, ok)
			assert.True(t, got.Equal(d(tt.want)))
		})
	}
}

func TestSnapshot(t *testing.T) {
	lines := []ledger.TrustLine{
		{Peer: "rZed", Currency: gb, Balance: d("-5")},
		{Peer: "rAmy", Currency: gb, Balance: d("-10")},
		{Peer: "rBen", Currency: gb, Balance: d("0")},
		{Peer: "rCat", Currency: "USD", Balance: d("-7")},
		{Peer: "rTreasury", Currency: gb, Balance: d("-900")},
		{Peer: "rDan", Currency: gb, Balance: d("3")},
	}
	holders := Snapshot(lines, gb, "rTreasury")
	require.Len(t, holders, 2)
	assert.Equal(t, "rAmy", holders[0].Address)
	assert.True(t, holders[0].Balance.Equal(d("10")))
	assert.Equal(t, "rZed", holders[1].Address)

	assert.Empty(t, Snapshot(nil, gb))
}

func TestRedeemAllPaysEveryHolder(t *testing.T) {
	f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700"})
	c := NewCoordinator(f.env, Options{Logger: quiet})
	aliceXRP := f.env.XRPBalance(f.holders["Alice"].Address)

	report, err := c.RedeemAll(context.Background(), f.request("0.012"))
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, 2, report.HoldersProcessed)
	assert.Equal(t, 2, report.HoldersSuccessful)
	assert.Zero(t, report.HoldersFailed)
	assert.True(t, report.TotalTokensRedeemed.Equal(d("1000")))
	assert.True(t, report.TotalXRPPaid.Equal(d("12.0")))
	assert.True(t, report.TotalXRPPaid.Equal(report.TotalTokensRedeemed.Mul(d("0.012"))))

	require.Len(t, report.Results, 2)
	alice, bob := report.Results[0], report.Results[1]
	assert.Equal(t, f.holders["Alice"].Address, alice.Address)
	assert.True(t, alice.CashPaid.Equal(d("3.6")))
	assert.True(t, bob.CashPaid.Equal(d("8.4")))
	assert.NotEmpty(t, alice.ClawbackTxHash)
	assert.NotEmpty(t, alice.PaymentTxHash)

	for name, acct := range f.holders {
		assert.True(t, f.env.IOUBalance(acct.Address, f.issuer.Address, gb).IsZero(), name)
	}
	assert.True(t, f.env.XRPBalance(f.holders["Alice"].Address).Sub(aliceXRP).Equal(d("3.6")))
	assert.Equal(t, 0, f.env.OpenSessions())
	assert.Equal(t, workflow.Envelope{Success: true, Data: report}, workflow.Result(report, report.Err()))
}

func TestRedeemAllNoHolders(t *testing.T) {
	f := newFixture(t, nil)
	report, err := NewCoordinator(f.env, Options{Logger: quiet}).RedeemAll(context.Background(), f.request("1"))
	require.NoError(t, err)
	assert.Zero(t, report.HoldersProcessed)
	assert.True(t, report.TotalXRPPaid.IsZero())
	assert.NoError(t, report.Err())
	assert.Empty(t, f.env.SubmissionsOf("Clawback"))

	env := workflow.Result(report, report.Err())
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
}

func TestRedeemAllIsolatesHolderFailures(t *testing.T) {
	f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700", "Carol": "100"})
	f.env.RejectNext(f.issuer.Address, "Clawback", ledger.ResultNoPermission)

	report, err := NewCoordinator(f.env, Options{Logger: quiet}).RedeemAll(context.Background(), f.request("0.012"))
	require.NoError(t, err)

	assert.Equal(t, 3, report.HoldersProcessed)
	assert.Equal(t, 1, report.HoldersFailed)
	assert.Equal(t, 2, report.HoldersSuccessful)

	alice := report.Results[0]
	assert.False(t, alice.Success)
	assert.Equal(t, StepClawback, alice.FailedStep)
	assert.Equal(t, workflow.KindLedgerRejected, alice.ErrorKind)
	assert.Equal(t, ledger.ResultNoPermission, alice.ResultCode)
	assert.True(t, f.env.IOUBalance(f.holders["Alice"].Address, f.issuer.Address, gb).Equal(d("300")))

	assert.True(t, report.TotalTokensRedeemed.Equal(d("800")))
	assert.True(t, report.TotalXRPPaid.Equal(d("9.6")))

	perr := report.Err()
	require.Error(t, perr)
	assert.True(t, workflow.IsKind(perr, workflow.KindPartialBatch))
	env := workflow.Result(report, perr)
	assert.True(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, workflow.KindPartialBatch, env.Error.Kind)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"partial_batch"`)
}

func TestPayoutFailureAndResume(t *testing.T) {
	f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700"})
	c := NewCoordinator(f.env, Options{Logger: quiet})
	req := f.request("0.012")

	f.env.RejectNext(f.treasury.Address, "Payment", ledger.ResultUnfunded)
	report, err := c.RedeemAll(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 1, report.HoldersFailed)

	alice := report.Results[0]
	assert.Equal(t, StepPayout, alice.FailedStep)
	assert.NotEmpty(t, alice.ClawbackTxHash)
	assert.Empty(t, alice.PaymentTxHash)
	assert.True(t, report.TotalXRPPaid.Equal(d("8.4")))
	require.Len(t, report.PendingPayouts(), 1)

	resumed, err := c.ResumePayouts(context.Background(), req, report)
	require.NoError(t, err)
	assert.Equal(t, report.RunID, resumed.ResumedFrom)
	assert.NotEqual(t, report.RunID, resumed.RunID)
	assert.Zero(t, resumed.HoldersFailed)
	assert.True(t, resumed.TotalXRPPaid.Equal(d("12")))
	assert.True(t, resumed.Results[0].CashPaid.Equal(d("3.6")))
	assert.Empty(t, resumed.PendingPayouts())

	// The original report is not modified.
	assert.Equal(t, 1, report.HoldersFailed)
	assert.Equal(t, StepPayout, report.Results[0].FailedStep)

	// Nothing left to pay: no new submissions.
	before := len(f.env.Submissions())
	again, err := c.ResumePayouts(context.Background(), req, resumed)
	require.NoError(t, err)
	assert.Zero(t, again.HoldersFailed)
	assert.Len(t, f.env.Submissions(), before)

	_, err = c.ResumePayouts(context.Background(), f.request("0.5"), report)
	assert.True(t, workflow.IsKind(err, workflow.KindPrecondition))
}

func TestRedeemAllCancelsHolderOffers(t *testing.T) {
	f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700"})
	ctx := context.Background()
	m := market.New(f.env, quiet)
	alice, bob := f.holders["Alice"], f.holders["Bob"]
	for _, price := range []string{"1", "2"} {
		_, err := m.PlaceOffer(ctx, alice, market.SideSell, gb, f.issuer.Address, d("10"), d(price), market.OfferOptions{})
		require.NoError(t, err)
	}
	_, err := m.PlaceOffer(ctx, bob, market.SideSell, gb, f.issuer.Address, d("10"), d("3"), market.OfferOptions{})
	require.NoError(t, err)

	// Bob's cancellation fails; his clawback must still happen.
	f.env.RejectNext(bob.Address, "OfferCancel", "tefPAST_SEQ")

	req := f.request("0.01")
	req.HolderCredentials = map[string]string{alice.Address: alice.Seed, bob.Address: bob.Seed}
	report, err := NewCoordinator(f.env, Options{Workers: 2, Logger: quiet}).RedeemAll(ctx, req)
	require.NoError(t, err)

	assert.Zero(t, report.HoldersFailed)
	assert.Equal(t, 2, report.Results[0].OrdersCancelled)
	assert.Zero(t, report.Results[1].OrdersCancelled)
	assert.Equal(t, 2, report.OrdersCancelled)
	assert.Empty(t, f.env.Offers(alice.Address))
	assert.Len(t, f.env.Offers(bob.Address), 1)
	assert.True(t, f.env.IOUBalance(bob.Address, f.issuer.Address, gb).IsZero())
}

func TestRedeemAllRetiresUnsoldSupply(t *testing.T) {
	f := newFixture(t, map[string]string{"Alice": "300"})
	req := f.request("0.012")
	req.RetireUnsold = true

	report, err := NewCoordinator(f.env, Options{Logger: quiet}).RedeemAll(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, report.HoldersProcessed, "the treasury is not a holder")
	assert.True(t, report.UnsoldRetired.Equal(d("700")))
	assert.NotEmpty(t, report.RetireTxHash)
	assert.True(t, f.env.IOUBalance(f.treasury.Address, f.issuer.Address, gb).IsZero())
	assert.True(t, report.TotalXRPPaid.Equal(d("3.6")))
}

func TestRedeemAllSetupFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("trust line query fails", func(t *testing.T) {
		f := newFixture(t, map[string]string{"Alice": "300"})
		f.env.FailQuery("TrustLines", errors.New("i/o timeout"))
		before := len(f.env.Submissions())

		report, err := NewCoordinator(f.env, Options{Logger: quiet}).RedeemAll(ctx, f.request("1"))
		require.Error(t, err)
		assert.Nil(t, report)
		assert.True(t, workflow.IsKind(err, workflow.KindTransport))
		assert.Len(t, f.env.Submissions(), before)
		assert.Equal(t, 0, f.env.OpenSessions())

		env := workflow.Result(report, err)
		assert.False(t, env.Success)
		assert.Equal(t, workflow.KindTransport, env.Error.Kind)
	})

	t.Run("preconditions", func(t *testing.T) {
		f := newFixture(t, nil)
		c := NewCoordinator(f.env, Options{Logger: quiet})
		bad := []Request{
			{Issuer: f.issuer, Treasury: f.treasury, Currency: gb, PayoutPerToken: d("-1")},
			{Issuer: f.issuer, Treasury: f.issuer, Currency: gb, PayoutPerToken: d("1")},
			{Issuer: f.issuer, Treasury: f.treasury, PayoutPerToken: d("1")},
			{Treasury: f.treasury, Currency: gb, PayoutPerToken: d("1")},
		}
		for _, req := range bad {
			_, err := c.RedeemAll(ctx, req)
			assert.True(t, workflow.IsKind(err, workflow.KindPrecondition), "%+v", req)
		}
	})
}

// cancellingClient cancels the run after the first clawback is submitted.
type cancellingClient struct {
	*ledgertest.Env
	cancel context.CancelFunc
}

func (c *cancellingClient) Connect(ctx context.Context) (ledger.Session, error) {
	sess, err := c.Env.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &cancellingSession{Session: sess, cancel: c.cancel}, nil
}

type cancellingSession struct {
	ledger.Session
	cancel context.CancelFunc
}

func (s *cancellingSession) Submit(ctx context.Context, tx ledger.Tx, signer ledger.Account) (*ledger.SubmitResult, error) {
	res, err := s.Session.Submit(ctx, tx, signer)
	if tx.Type() == "Payment" {
		s.cancel()
	}
	return res, err
}

func TestRedeemAllStopsStartingHoldersOnCancel(t *testing.T) {
	f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &cancellingClient{Env: f.env, cancel: cancel}
	report, err := NewCoordinator(client, Options{Logger: quiet}).RedeemAll(ctx, f.request("0.012"))
	require.NoError(t, err)

	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Success, "the in-flight holder completes")
	bob := report.Results[1]
	assert.False(t, bob.Success)
	assert.Equal(t, StepNotStarted, bob.FailedStep)
	assert.Equal(t, workflow.KindTransport, bob.ErrorKind)
	assert.True(t, f.env.IOUBalance(f.holders["Bob"].Address, f.issuer.Address, gb).Equal(d("700")))

	// Resuming finishes the holder that never started.
	resumed, err := NewCoordinator(f.env, Options{Logger: quiet}).ResumePayouts(context.Background(), f.request("0.012"), report)
	require.NoError(t, err)
	assert.Zero(t, resumed.HoldersFailed)
	assert.True(t, resumed.Results[1].TokensRedeemed.Equal(d("700")))
	assert.True(t, resumed.TotalXRPPaid.Equal(d("12")))
	assert.True(t, f.env.IOUBalance(f.holders["Bob"].Address, f.issuer.Address, gb).IsZero())
}

func TestUnknownOutcomes(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		txType  string
		signer  func(f *fixture) string
		applied bool
		// state of Alice after the first run
		success  bool
		step     string
		tokens   string
		xrpDelta string
	}{
		{
			name:    "clawback applied",
			txType:  "Clawback",
			signer:  func(f *fixture) string { return f.issuer.Address },
			applied: true,
			success: true, tokens: "0", xrpDelta: "3.6",
		},
		{
			name:    "clawback dropped",
			txType:  "Clawback",
			signer:  func(f *fixture) string { return f.issuer.Address },
			applied: false,
			step:    StepClawback, tokens: "300", xrpDelta: "0",
		},
		{
			name:    "payout applied",
			txType:  "Payment",
			signer:  func(f *fixture) string { return f.treasury.Address },
			applied: true,
			step:    StepPayout, tokens: "0", xrpDelta: "3.6",
		},
		{
			name:    "payout dropped",
			txType:  "Payment",
			signer:  func(f *fixture) string { return f.treasury.Address },
			applied: false,
			step:    StepPayout, tokens: "0", xrpDelta: "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700"})
			c := NewCoordinator(f.env, Options{Logger: quiet})
			req := f.request("0.012")
			alice := f.holders["Alice"].Address
			startXRP := f.env.XRPBalance(alice)
			delta := func() decimal.Decimal { return f.env.XRPBalance(alice).Sub(startXRP) }

			f.env.LoseOutcomeNext(tt.signer(f), tt.txType, tt.applied)
			report, err := c.RedeemAll(ctx, req)
			require.NoError(t, err)

			res := report.Results[0]
			require.Equal(t, alice, res.Address)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.step, res.FailedStep)
			assert.True(t, f.env.IOUBalance(alice, f.issuer.Address, gb).Equal(d(tt.tokens)))
			assert.True(t, delta().Equal(d(tt.xrpDelta)), "xrp delta %s", delta())
			if !tt.success {
				assert.Equal(t, workflow.KindTransport, res.ErrorKind)
				assert.NotEmpty(t, res.PendingTxHash)
				require.Len(t, report.Unsettled(), 1)
			}
			assert.True(t, report.Results[1].Success)

			resumed, err := c.ResumePayouts(ctx, req, report)
			require.NoError(t, err)
			assert.Zero(t, resumed.HoldersFailed)
			assert.True(t, resumed.TotalTokensRedeemed.Equal(d("1000")))
			assert.True(t, resumed.TotalXRPPaid.Equal(d("12")))
			assert.Empty(t, resumed.Results[0].PendingTxHash)
			assert.NotEmpty(t, resumed.Results[0].ClawbackTxHash)

			// Exactly one clawback and one payout per holder reached the ledger.
			assert.True(t, f.env.IOUBalance(alice, f.issuer.Address, gb).IsZero())
			assert.True(t, delta().Equal(d("3.6")), "xrp delta %s", delta())
			assert.Len(t, f.env.SubmissionsOf("Clawback"), 2)
			assert.Len(t, f.env.SubmissionsOf("Payment"), 2+2)
		})
	}
}

func TestResumeLeavesUnresolvedPayoutAlone(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"Alice": "300"})
	c := NewCoordinator(f.env, Options{Logger: quiet})
	req := f.request("0.012")
	alice := f.holders["Alice"].Address
	startXRP := f.env.XRPBalance(alice)

	f.env.LoseOutcomeNext(f.treasury.Address, "Payment", true)
	report, err := c.RedeemAll(ctx, req)
	require.NoError(t, err)
	require.Equal(t, StepPayout, report.Results[0].FailedStep)

	// The node cannot answer the lookup: nothing is sent again.
	f.env.FailQuery("TxOutcome", errors.New("i/o timeout"))
	payments := len(f.env.SubmissionsOf("Payment"))
	resumed, err := c.ResumePayouts(ctx, req, report)
	require.NoError(t, err)
	assert.Equal(t, 1, resumed.HoldersFailed)
	assert.Equal(t, report.Results[0].PendingTxHash, resumed.Results[0].PendingTxHash)
	assert.Len(t, f.env.SubmissionsOf("Payment"), payments)
	assert.True(t, f.env.XRPBalance(alice).Sub(startXRP).Equal(d("3.6")))

	again, err := c.ResumePayouts(ctx, req, resumed)
	require.NoError(t, err)
	assert.Zero(t, again.HoldersFailed)
	assert.Equal(t, report.Results[0].PendingTxHash, again.Results[0].PaymentTxHash)
	assert.True(t, f.env.XRPBalance(alice).Sub(startXRP).Equal(d("3.6")))
}

func TestSessionCloseFailureKeepsReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"Alice": "300", "Bob": "700"})
	c := NewCoordinator(f.env, Options{Logger: quiet})
	req := f.request("0.012")

	f.env.RejectNext(f.treasury.Address, "Payment", ledger.ResultUnfunded)
	f.env.FailClose(errors.New("close frame write failed"))

	report, err := c.RedeemAll(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.HoldersSuccessful)
	assert.Equal(t, 1, report.HoldersFailed)
	assert.Equal(t, 0, f.env.OpenSessions())

	resumed, err := c.ResumePayouts(ctx, req, report)
	require.NoError(t, err)
	require.NotNil(t, resumed)
	assert.Zero(t, resumed.HoldersFailed)
	assert.Equal(t, 0, f.env.OpenSessions())
}

func TestResumedReportErrLabel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, map[string]string{"Alice": "300"})
	c := NewCoordinator(f.env, Options{Logger: quiet})
	req := f.request("0.012")

	f.env.RejectNext(f.treasury.Address, "Payment", ledger.ResultUnfunded)
	report, err := c.RedeemAll(ctx, req)
	require.NoError(t, err)
	var we *workflow.Error
	require.ErrorAs(t, report.Err(), &we)
	assert.Equal(t, opRedeem, we.Op)

	f.env.RejectNext(f.treasury.Address, "Payment", ledger.ResultUnfunded)
	resumed, err := c.ResumePayouts(ctx, req, report)
	require.NoError(t, err)
	require.ErrorAs(t, resumed.Err(), &we)
	assert.Equal(t, opResume, we.Op)
	assert.Equal(t, workflow.KindPartialBatch, we.Kind)
}

func TestResumeRetriesRejectedClawback(t *testing.T) {
	ctx := context.Background()

	t.Run("holder still holds", func(t *testing.T) {
		f := newFixture(t, map[string]string{"Alice": "300"})
		c := NewCoordinator(f.env, Options{Logger: quiet})
		req := f.request("0.012")

		f.env.RejectNext(f.issuer.Address, "Clawback", ledger.ResultNoPermission)
		report, err := c.RedeemAll(ctx, req)
		require.NoError(t, err)
		require.Equal(t, StepClawback, report.Results[0].FailedStep)

		resumed, err := c.ResumePayouts(ctx, req, report)
		require.NoError(t, err)
		assert.Zero(t, resumed.HoldersFailed)
		assert.True(t, resumed.TotalXRPPaid.Equal(d("3.6")))
	})

	t.Run("holder moved the tokens away", func(t *testing.T) {
		f := newFixture(t, map[string]string{"Alice": "300"})
		c := NewCoordinator(f.env, Options{Logger: quiet})
		req := f.request("0.012")
		alice := f.holders["Alice"]

		f.env.RejectNext(f.issuer.Address, "Clawback", ledger.ResultNoPermission)
		report, err := c.RedeemAll(ctx, req)
		require.NoError(t, err)

		err = ledger.WithSession(ctx, f.env, func(sess ledger.Session) error {
			tx, err := txbuild.Pay(alice.Address, f.treasury.Address, ledger.NewIssued(gb, f.issuer.Address, d("300"))).Build()
			require.NoError(t, err)
			_, err = ledger.SubmitTx(ctx, sess, tx, alice)
			return err
		})
		require.NoError(t, err)

		payments := len(f.env.SubmissionsOf("Payment"))
		resumed, err := c.ResumePayouts(ctx, req, report)
		require.NoError(t, err)
		require.Equal(t, 1, resumed.HoldersFailed)
		assert.Equal(t, workflow.KindPrecondition, resumed.Results[0].ErrorKind)
		assert.Len(t, f.env.SubmissionsOf("Payment"), payments, "nothing is paid for tokens not clawed back")
	})
}
