// Package tokenize configures the issuer account and mints an instrument's
// fixed supply into the treasury.
package tokenize

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/txbuild"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// Options tune an Engine.
type Options struct {
	// DefaultRipple also sets asfDefaultRipple on the issuer so holders can
	// trade the token with each other.
	DefaultRipple bool
	Logger        *log.Logger
}

// Engine runs the issuer configuration and minting workflows.
type Engine struct {
	client        ledger.Client
	defaultRipple bool
	logger        *log.Logger
}

// New creates an Engine over client.
func New(client ledger.Client, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{client: client, defaultRipple: opts.DefaultRipple, logger: logger}
}

// ConfigureIssuer enables trust-line clawback on the issuer, and rippling when
// configured. Flags already present are skipped, so the call is idempotent.
func (e *Engine) ConfigureIssuer(ctx context.Context, issuer ledger.Account) ([]workflow.StepOutcome, error) {
	const op = "tokenize.configure_issuer"
	if issuer.IsZero() {
		return nil, workflow.Precondition(op, "issuer account is required")
	}

	var outcomes []workflow.StepOutcome
	err := ledger.WithSession(ctx, e.client, func(sess ledger.Session) error {
		steps := []workflow.Step{flagStep(sess, issuer, "allow-clawback", ledger.AsfAllowTrustLineClawback)}
		if e.defaultRipple {
			steps = append(steps, flagStep(sess, issuer, "default-ripple", ledger.AsfDefaultRipple))
		}
		runner := workflow.Runner{Op: op, Logger: e.logger}
		var err error
		outcomes, err = runner.Run(ctx, steps)
		return err
	})
	return outcomes, workflow.Wrap(op, err)
}

func flagStep(sess ledger.Session, issuer ledger.Account, name string, asf uint32) workflow.Step {
	lsf, _ := ledger.LedgerFlagFor(asf)
	hasFlag := func(ctx context.Context) (bool, error) {
		info, err := sess.AccountInfo(ctx, issuer.Address)
		if err != nil {
			return false, err
		}
		return info.HasFlag(lsf), nil
	}
	return workflow.Step{
		Name: name,
		Done: hasFlag,
		Run: func(ctx context.Context) (string, error) {
			tx, err := txbuild.AccountSet(issuer.Address).SetFlag(asf).Build()
			if err != nil {
				return "", err
			}
			res, err := ledger.SubmitTx(ctx, sess, tx, issuer)
			if err == nil {
				return res.TxHash, nil
			}
			// A rejection may come from a concurrent run that already set
			// the flag.
			if _, rejected := ledger.AsRejected(err); rejected {
				if set, cerr := hasFlag(ctx); cerr == nil && set {
					return "", nil
				}
			}
			return "", err
		},
	}
}

// MintResult describes a completed mint.
type MintResult struct {
	Currency       ledger.Currency        `json:"currency"`
	Issuer         string                 `json:"issuer"`
	Treasury       string                 `json:"treasury"`
	Supply         decimal.Decimal        `json:"supply"`
	TrustSetTxHash string                 `json:"trust_set_tx_hash,omitempty"`
	PaymentTxHash  string                 `json:"payment_tx_hash,omitempty"`
	Steps          []workflow.StepOutcome `json:"steps"`
}

// Mint opens a trust line from the treasury to the issuer and issues supply
// tokens to the treasury. Each step is skipped when the ledger already shows
// it done, so a failed mint can be retried. A failure after the trust line
// leaves the line in place and reports the whole mint as failed.
func (e *Engine) Mint(ctx context.Context, issuer, treasury ledger.Account, currency ledger.Currency, supply decimal.Decimal) (*MintResult, error) {
	const op = "tokenize.mint"
	switch {
	case issuer.IsZero() || treasury.IsZero():
		return nil, workflow.Precondition(op, "issuer and treasury accounts are required")
	case issuer.Address == treasury.Address:
		return nil, workflow.Precondition(op, "issuer and treasury must be different accounts")
	case currency == "":
		return nil, workflow.Precondition(op, "currency is required")
	case !supply.IsPositive():
		return nil, workflow.Precondition(op, "supply must be positive, got %s", supply)
	}

	result := &MintResult{Currency: currency, Issuer: issuer.Address, Treasury: treasury.Address, Supply: supply}
	err := ledger.WithSession(ctx, e.client, func(sess ledger.Session) error {
		steps := []workflow.Step{
			{
				Name: "trust-line",
				Done: func(ctx context.Context) (bool, error) {
					lines, err := sess.TrustLines(ctx, treasury.Address)
					if err != nil {
						return false, err
					}
					for _, l := range lines {
						if l.Peer == issuer.Address && l.Currency == currency && l.Limit.GreaterThanOrEqual(supply) {
							return true, nil
						}
					}
					return false, nil
				},
				Run: func(ctx context.Context) (string, error) {
					tx, err := txbuild.TrustLine(treasury.Address, currency, issuer.Address, supply).Build()
					if err != nil {
						return "", err
					}
					res, err := ledger.SubmitTx(ctx, sess, tx, treasury)
					if err != nil {
						return "", err
					}
					result.TrustSetTxHash = res.TxHash
					return res.TxHash, nil
				},
			},
			{
				Name: "issue",
				Done: func(ctx context.Context) (bool, error) {
					return outstanding(ctx, sess, issuer.Address, currency)
				},
				Run: func(ctx context.Context) (string, error) {
					tx, err := txbuild.Pay(issuer.Address, treasury.Address, ledger.NewIssued(currency, issuer.Address, supply)).Build()
					if err != nil {
						return "", err
					}
					res, err := ledger.SubmitTx(ctx, sess, tx, issuer)
					if err != nil {
						return "", err
					}
					result.PaymentTxHash = res.TxHash
					return res.TxHash, nil
				},
			},
		}
		runner := workflow.Runner{Op: op, Logger: e.logger}
		var err error
		result.Steps, err = runner.Run(ctx, steps)
		return err
	})
	if err != nil {
		return nil, workflow.Wrap(op, err)
	}
	e.logger.Printf("tokenize: minted currency=%s supply=%s issuer=%s treasury=%s", currency, supply, issuer.Address, treasury.Address)
	return result, nil
}

// outstanding reports whether any holder has tokens of currency from issuer.
func outstanding(ctx context.Context, sess ledger.Session, issuer string, currency ledger.Currency) (bool, error) {
	lines, err := sess.TrustLines(ctx, issuer)
	if err != nil {
		return false, err
	}
	for _, l := range lines {
		if l.Currency == currency && l.Balance.IsNegative() {
			return true, nil
		}
	}
	return false, nil
}
