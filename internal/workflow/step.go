package workflow

import (
	"context"
	"fmt"
	"log"
)

// Step is one named ledger action with an idempotent completion check.
// Done is consulted before Run so a retried workflow skips completed steps.
type Step struct {
	Name string
	Done func(ctx context.Context) (bool, error)
	Run  func(ctx context.Context) (txHash string, err error)
}

// StepOutcome records what happened to one step.
type StepOutcome struct {
	Name    string `json:"name"`
	Skipped bool   `json:"skipped"`
	TxHash  string `json:"tx_hash,omitempty"`
}

// Runner executes steps strictly in order.
type Runner struct {
	Op     string
	Logger *log.Logger
}

// Run executes steps in order and stops at the first failure. The outcomes of
// the steps that completed are returned alongside the error.
func (r *Runner) Run(ctx context.Context, steps []Step) ([]StepOutcome, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	outcomes := make([]StepOutcome, 0, len(steps))
	for _, step := range steps {
		op := fmt.Sprintf("%s/%s", r.Op, step.Name)
		if err := ctx.Err(); err != nil {
			return outcomes, Wrap(op, err)
		}

		if step.Done != nil {
			done, err := step.Done(ctx)
			if err != nil {
				return outcomes, Wrap(op, err)
			}
			if done {
				logger.Printf("%s: already done, skipping", op)
				outcomes = append(outcomes, StepOutcome{Name: step.Name, Skipped: true})
				continue
			}
		}

		hash, err := step.Run(ctx)
		if err != nil {
			logger.Printf("%s: failed: %v", op, err)
			return outcomes, Wrap(op, err)
		}
		logger.Printf("%s: done tx=%s", op, hash)
		outcomes = append(outcomes, StepOutcome{Name: step.Name, TxHash: hash})
	}
	return outcomes, nil
}
