package redemption

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// Holder step names used in FailedStep.
const (
	StepCancelOffers = "cancel-offers"
	StepClawback     = "clawback"
	StepPayout       = "payout"
	StepNotStarted   = "not-started"
)

// HolderResult is the outcome of redeeming one holder.
type HolderResult struct {
	Address         string          `json:"address"`
	Success         bool            `json:"success"`
	Balance         decimal.Decimal `json:"balance"`
	TokensRedeemed  decimal.Decimal `json:"tokens_redeemed"`
	CashPaid        decimal.Decimal `json:"cash_paid"`
	OrdersCancelled int             `json:"orders_cancelled"`
	ClawbackTxHash  string          `json:"clawback_tx_hash,omitempty"`
	PaymentTxHash   string          `json:"payment_tx_hash,omitempty"`
	FailedStep      string          `json:"failed_step,omitempty"`
	Error           string          `json:"error,omitempty"`
	ErrorKind       workflow.Kind   `json:"error_kind,omitempty"`
	ResultCode      string          `json:"result_code,omitempty"`
	// PendingTxHash is the FailedStep transaction whose outcome was never
	// observed. It may still have applied.
	PendingTxHash     string `json:"pending_tx_hash,omitempty"`
	PendingLastLedger uint32 `json:"pending_last_ledger,omitempty"`
}

func (r *HolderResult) fail(step string, err error) {
	r.Success = false
	r.FailedStep = step
	r.Error = err.Error()
	r.ErrorKind = workflow.KindOf(err)
	r.ResultCode = ""
	if rej, ok := ledger.AsRejected(err); ok {
		r.ResultCode = rej.ResultCode
	}
	if oe, ok := ledger.AsOutcomeUnknown(err); ok {
		r.PendingTxHash, r.PendingLastLedger = oe.TxHash, oe.LastLedger
	}
}

// Report is the immutable outcome of one redemption run. Totals cover
// successful holders only.
type Report struct {
	RunID               string          `json:"run_id"`
	ResumedFrom         string          `json:"resumed_from,omitempty"`
	Currency            ledger.Currency `json:"currency"`
	Issuer              string          `json:"issuer"`
	Treasury            string          `json:"treasury"`
	PayoutPerToken      decimal.Decimal `json:"payout_per_token"`
	HoldersProcessed    int             `json:"holders_processed"`
	HoldersSuccessful   int             `json:"holders_successful"`
	HoldersFailed       int             `json:"holders_failed"`
	TotalTokensRedeemed decimal.Decimal `json:"total_tokens_redeemed"`
	TotalXRPPaid        decimal.Decimal `json:"total_xrp_paid"`
	OrdersCancelled     int             `json:"orders_cancelled"`
	// UnsoldRetired is the treasury's remaining supply clawed back at the end
	// of the run.
	UnsoldRetired decimal.Decimal `json:"unsold_retired"`
	RetireTxHash  string          `json:"retire_tx_hash,omitempty"`
	RetireError   string          `json:"retire_error,omitempty"`
	Results       []HolderResult  `json:"results"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// aggregate recomputes the counters and totals from Results.
func (r *Report) aggregate() {
	r.HoldersProcessed = len(r.Results)
	r.HoldersSuccessful, r.HoldersFailed, r.OrdersCancelled = 0, 0, 0
	r.TotalTokensRedeemed, r.TotalXRPPaid = decimal.Zero, decimal.Zero
	for _, res := range r.Results {
		r.OrdersCancelled += res.OrdersCancelled
		if !res.Success {
			r.HoldersFailed++
			continue
		}
		r.HoldersSuccessful++
		r.TotalTokensRedeemed = r.TotalTokensRedeemed.Add(res.TokensRedeemed)
		r.TotalXRPPaid = r.TotalXRPPaid.Add(res.CashPaid)
	}
}

// Err returns a partial-batch error when any holder failed, nil otherwise.
// Resumed reports are labelled with the resume operation.
func (r *Report) Err() error {
	if r == nil || r.HoldersFailed == 0 {
		return nil
	}
	op := opRedeem
	if r.ResumedFrom != "" {
		op = opResume
	}
	return workflow.PartialBatch(op, r.HoldersFailed, r.HoldersProcessed)
}

// PendingPayouts lists holders whose tokens were clawed back but who were not
// paid.
func (r *Report) PendingPayouts() []HolderResult {
	var out []HolderResult
	for _, res := range r.Results {
		if !res.Success && res.FailedStep == StepPayout {
			out = append(out, res)
		}
	}
	return out
}

// Unsettled lists every holder ResumePayouts will retry.
func (r *Report) Unsettled() []HolderResult {
	var out []HolderResult
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}
