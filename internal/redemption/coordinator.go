// Package redemption claws back every outstanding token of an instrument and
// pays each holder out of the treasury.
package redemption

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/txbuild"
	"github.com/LeJamon/goXRPLrwa/internal/market"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

const (
	opRedeem = "redemption.redeem_all"
	opResume = "redemption.resume_payouts"

	defaultWorkers = 4
)

var errRunCancelled = errors.New("run cancelled before holder was processed")

// Request describes one redemption run.
type Request struct {
	Issuer         ledger.Account
	Treasury       ledger.Account
	Currency       ledger.Currency
	PayoutPerToken decimal.Decimal
	// HolderCredentials maps holder addresses to seeds. Holders with a seed
	// have their open offers cancelled before clawback.
	HolderCredentials map[string]string
	// RetireUnsold also claws back the treasury's unsold supply.
	RetireUnsold bool
}

func (r Request) validate(op string) error {
	switch {
	case r.Issuer.IsZero() || r.Treasury.IsZero():
		return workflow.Precondition(op, "issuer and treasury accounts are required")
	case r.Issuer.Address == r.Treasury.Address:
		return workflow.Precondition(op, "issuer and treasury must be different accounts")
	case r.Currency == "":
		return workflow.Precondition(op, "currency is required")
	case r.PayoutPerToken.IsNegative():
		return workflow.Precondition(op, "payout per token cannot be negative, got %s", r.PayoutPerToken)
	}
	return nil
}

// Options tune a Coordinator.
type Options struct {
	// Workers bounds concurrent holder-signed offer cancellations.
	Workers int
	Logger  *log.Logger
}

// Coordinator runs redemption workflows.
type Coordinator struct {
	client  ledger.Client
	workers int
	logger  *log.Logger
	now     func() time.Time
}

// NewCoordinator creates a Coordinator over client.
func NewCoordinator(client ledger.Client, opts Options) *Coordinator {
	workers := opts.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{client: client, workers: workers, logger: logger, now: time.Now}
}

// RedeemAll redeems every holder of req.Currency.
//
// The returned error is non-nil only when the run could not start: invalid
// input, an unreachable node, or a failed trust-line query. Individual holder
// failures are recorded in the report and surfaced by Report.Err.
//
// Issuer- and treasury-signed transactions are submitted strictly in holder
// order. Offer cancellations are signed by the holders themselves and run
// concurrently, bounded by the configured worker count. Cancelling ctx stops
// new holders from starting; holders not yet started are reported failed.
func (c *Coordinator) RedeemAll(ctx context.Context, req Request) (*Report, error) {
	if err := req.validate(opRedeem); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:          uuid.NewString(),
		Currency:       req.Currency,
		Issuer:         req.Issuer.Address,
		Treasury:       req.Treasury.Address,
		PayoutPerToken: req.PayoutPerToken,
		UnsoldRetired:  decimal.Zero,
		Results:        []HolderResult{},
		StartedAt:      c.now().UTC(),
	}

	sess, err := ledger.Connect(ctx, c.client)
	if err != nil {
		return nil, workflow.Wrap(opRedeem, err)
	}
	defer c.closeSession(sess, report.RunID)

	lines, err := sess.TrustLines(ctx, req.Issuer.Address)
	if err != nil {
		return nil, workflow.Wrap(opRedeem, fmt.Errorf("query issuer trust lines: %w", err))
	}
	holders := Snapshot(lines, req.Currency, req.Treasury.Address)
	c.logger.Printf("redemption: run=%s currency=%s holders=%d payout_per_token=%s",
		report.RunID, req.Currency, len(holders), req.PayoutPerToken)

	if len(holders) > 0 {
		cancelled := c.cancelHolderOffers(ctx, sess, holders, req.HolderCredentials)
		for i, h := range holders {
			res := HolderResult{
				Address:         h.Address,
				Balance:         h.Balance,
				TokensRedeemed:  decimal.Zero,
				CashPaid:        decimal.Zero,
				OrdersCancelled: cancelled[i],
			}
			if ctx.Err() != nil {
				res.fail(StepNotStarted, fmt.Errorf("%w: %w", errRunCancelled, ctx.Err()))
			} else {
				c.redeemHolder(ctx, sess, req, report.RunID, &res)
			}
			report.Results = append(report.Results, res)
		}
	}

	if req.RetireUnsold && ctx.Err() == nil {
		c.retireUnsold(ctx, sess, req, lines, report)
	}

	report.aggregate()
	report.FinishedAt = c.now().UTC()
	c.logger.Printf("redemption: run=%s finished processed=%d successful=%d failed=%d tokens=%s xrp=%s",
		report.RunID, report.HoldersProcessed, report.HoldersSuccessful, report.HoldersFailed,
		report.TotalTokensRedeemed, report.TotalXRPPaid)
	return report, nil
}

// closeSession closes a run's session. The failure is only logged: ledger
// state written by the run stands regardless.
func (c *Coordinator) closeSession(sess ledger.Session, runID string) {
	if err := sess.Close(); err != nil {
		c.logger.Printf("redemption: run=%s closing ledger session: %v", runID, err)
	}
}

// cancelHolderOffers cancels the open offers of every holder with a known
// seed. Failures are logged and never block the clawback.
func (c *Coordinator) cancelHolderOffers(ctx context.Context, sess ledger.Session, holders []Holder, creds map[string]string) []int {
	cancelled := make([]int, len(holders))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, h := range holders {
		seed, ok := creds[h.Address]
		if !ok || seed == "" {
			continue
		}
		i, acct := i, ledger.Account{Address: h.Address, Seed: seed}
		g.Go(func() error {
			n, err := market.CancelOffers(ctx, sess, acct)
			cancelled[i] = n
			if err != nil {
				c.logger.Printf("redemption: holder=%s %s failed after %d: %v", acct.Address, StepCancelOffers, n, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return cancelled
}

func (c *Coordinator) redeemHolder(ctx context.Context, sess ledger.Session, req Request, runID string, res *HolderResult) {
	if !c.clawback(ctx, sess, req, runID, res, res.Balance) {
		return
	}
	c.pay(ctx, sess, req, runID, res)
}

// clawback claws amount back from the holder and reports whether the tokens
// are off the holder's line. A submission whose outcome is unknown is checked
// against the holder's current balance before it counts as failed.
func (c *Coordinator) clawback(ctx context.Context, sess ledger.Session, req Request, runID string, res *HolderResult, amount decimal.Decimal) bool {
	tx, err := txbuild.Claw(req.Issuer.Address, res.Address, req.Currency, amount).Build()
	if err == nil {
		var out *ledger.SubmitResult
		out, err = ledger.SubmitTx(ctx, sess, tx, req.Issuer)
		if err == nil {
			res.ClawbackTxHash = out.TxHash
		}
	}
	if err != nil && ledger.IsTransport(err) {
		if held, qerr := c.holding(ctx, sess, req, res.Address); qerr == nil && held.IsZero() {
			c.logger.Printf("redemption: run=%s holder=%s clawback outcome unknown, line is empty: %v", runID, res.Address, err)
			if oe, ok := ledger.AsOutcomeUnknown(err); ok {
				res.ClawbackTxHash = oe.TxHash
			}
			err = nil
		}
	}
	if err != nil {
		res.fail(StepClawback, err)
		c.logger.Printf("redemption: run=%s holder=%s %s failed: %v", runID, res.Address, StepClawback, err)
		return false
	}
	res.TokensRedeemed = amount
	res.PendingTxHash, res.PendingLastLedger = "", 0
	c.logger.Printf("redemption: run=%s holder=%s clawback amount=%s tx=%s", runID, res.Address, amount, res.ClawbackTxHash)
	return true
}

// holding returns how many tokens address holds right now.
func (c *Coordinator) holding(ctx context.Context, sess ledger.Session, req Request, address string) (decimal.Decimal, error) {
	lines, err := sess.TrustLines(ctx, req.Issuer.Address)
	if err != nil {
		return decimal.Zero, err
	}
	for _, l := range lines {
		if l.Peer == address && l.Currency == req.Currency {
			held, _ := HoldingFromIssuerView(l.Balance)
			return held, nil
		}
	}
	return decimal.Zero, nil
}

// pay sends the holder's payout. A payout that truncates to zero drops is
// recorded as paid with nothing sent.
func (c *Coordinator) pay(ctx context.Context, sess ledger.Session, req Request, runID string, res *HolderResult) {
	payout := ledger.TruncateToDrops(res.TokensRedeemed.Mul(req.PayoutPerToken))
	if payout.IsPositive() {
		tx, err := txbuild.Pay(req.Treasury.Address, res.Address, ledger.NewXRP(payout)).
			Memo("redemption " + runID).
			Build()
		if err == nil {
			var out *ledger.SubmitResult
			out, err = ledger.SubmitTx(ctx, sess, tx, req.Treasury)
			if err == nil {
				res.PaymentTxHash = out.TxHash
			}
		}
		if err != nil {
			res.fail(StepPayout, err)
			c.logger.Printf("redemption: run=%s holder=%s %s failed: %v", runID, res.Address, StepPayout, err)
			return
		}
	}
	c.settle(res, payout)
	c.logger.Printf("redemption: run=%s holder=%s payout=%s tx=%s", runID, res.Address, payout, res.PaymentTxHash)
}

func (c *Coordinator) settle(res *HolderResult, payout decimal.Decimal) {
	res.CashPaid = payout
	res.Success = true
	res.FailedStep, res.Error, res.ErrorKind, res.ResultCode = "", "", workflow.KindUnknown, ""
	res.PendingTxHash, res.PendingLastLedger = "", 0
}

func (c *Coordinator) retireUnsold(ctx context.Context, sess ledger.Session, req Request, lines []ledger.TrustLine, report *Report) {
	for _, l := range lines {
		if l.Currency != req.Currency || l.Peer != req.Treasury.Address {
			continue
		}
		held, ok := HoldingFromIssuerView(l.Balance)
		if !ok {
			return
		}
		tx, err := txbuild.Claw(req.Issuer.Address, req.Treasury.Address, req.Currency, held).Build()
		if err == nil {
			var out *ledger.SubmitResult
			out, err = ledger.SubmitTx(ctx, sess, tx, req.Issuer)
			if err == nil {
				report.RetireTxHash = out.TxHash
			}
		}
		if err != nil {
			report.RetireError = err.Error()
			c.logger.Printf("redemption: run=%s retiring unsold supply failed: %v", report.RunID, err)
			return
		}
		report.UnsoldRetired = held
		return
	}
}

// ResumePayouts finishes the holders left unsettled by prior and returns a
// new report covering every holder of prior, with the retried results
// replaced.
//
// Each step is re-checked against the ledger before it is retried. A payout
// whose earlier submission has an unknown outcome is looked up first and is
// only sent again once the ledger shows the earlier one cannot apply. A holder
// that never got past the clawback has its line re-read: an empty line counts
// as clawed back, otherwise the current holding is clawed back and paid.
func (c *Coordinator) ResumePayouts(ctx context.Context, req Request, prior *Report) (*Report, error) {
	if err := req.validate(opResume); err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, workflow.Precondition(opResume, "prior report is required")
	}
	if prior.Currency != req.Currency || prior.Treasury != req.Treasury.Address {
		return nil, workflow.Precondition(opResume, "prior report %s belongs to a different run setup", prior.RunID)
	}
	if !prior.PayoutPerToken.Equal(req.PayoutPerToken) {
		return nil, workflow.Precondition(opResume, "payout per token %s differs from the original %s", req.PayoutPerToken, prior.PayoutPerToken)
	}

	report := &Report{
		RunID:          uuid.NewString(),
		ResumedFrom:    prior.RunID,
		Currency:       prior.Currency,
		Issuer:         prior.Issuer,
		Treasury:       prior.Treasury,
		PayoutPerToken: prior.PayoutPerToken,
		UnsoldRetired:  prior.UnsoldRetired,
		RetireTxHash:   prior.RetireTxHash,
		RetireError:    prior.RetireError,
		Results:        append([]HolderResult(nil), prior.Results...),
		StartedAt:      c.now().UTC(),
	}
	if len(prior.Unsettled()) == 0 {
		report.aggregate()
		report.FinishedAt = c.now().UTC()
		return report, nil
	}

	sess, err := ledger.Connect(ctx, c.client)
	if err != nil {
		return nil, workflow.Wrap(opResume, err)
	}
	defer c.closeSession(sess, report.RunID)

	for i := range report.Results {
		res := &report.Results[i]
		if res.Success {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		switch res.FailedStep {
		case StepPayout:
			c.resumePayout(ctx, sess, req, report.RunID, res)
		case StepClawback, StepNotStarted:
			c.resumeClawback(ctx, sess, req, report.RunID, res)
		}
	}

	report.aggregate()
	report.FinishedAt = c.now().UTC()
	c.logger.Printf("redemption: run=%s resumed from=%s successful=%d failed=%d",
		report.RunID, report.ResumedFrom, report.HoldersSuccessful, report.HoldersFailed)
	return report, nil
}

func (c *Coordinator) resumePayout(ctx context.Context, sess ledger.Session, req Request, runID string, res *HolderResult) {
	if res.PendingTxHash != "" {
		out, err := sess.TxOutcome(ctx, res.PendingTxHash, res.PendingLastLedger)
		if err != nil {
			res.fail(StepPayout, err)
			c.logger.Printf("redemption: run=%s holder=%s earlier payout %s still unresolved: %v", runID, res.Address, res.PendingTxHash, err)
			return
		}
		if out.Accepted {
			res.PaymentTxHash = out.TxHash
			c.settle(res, ledger.TruncateToDrops(res.TokensRedeemed.Mul(req.PayoutPerToken)))
			c.logger.Printf("redemption: run=%s holder=%s earlier payout %s applied", runID, res.Address, out.TxHash)
			return
		}
		res.PendingTxHash, res.PendingLastLedger = "", 0
	}
	c.pay(ctx, sess, req, runID, res)
}

func (c *Coordinator) resumeClawback(ctx context.Context, sess ledger.Session, req Request, runID string, res *HolderResult) {
	held, err := c.holding(ctx, sess, req, res.Address)
	if err != nil {
		res.fail(StepClawback, err)
		return
	}
	switch {
	case held.IsPositive():
		if !c.clawback(ctx, sess, req, runID, res, held) {
			return
		}
	case res.FailedStep == StepClawback && res.ErrorKind == workflow.KindTransport:
		// The earlier clawback went through after all.
		res.ClawbackTxHash, res.PendingTxHash, res.PendingLastLedger = res.PendingTxHash, "", 0
		res.TokensRedeemed = res.Balance
	default:
		res.fail(StepClawback, workflow.Precondition(opResume, "holder %s no longer holds %s", res.Address, req.Currency))
		return
	}
	c.pay(ctx, sess, req, runID, res)
}
