package wsclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
)

type submitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

type txResult struct {
	Validated   bool   `json:"validated"`
	LedgerIndex uint32 `json:"ledger_index"`
	Meta        struct {
		TransactionResult string `json:"TransactionResult"`
	} `json:"meta"`
}

type feeResult struct {
	Drops struct {
		BaseFee       string `json:"base_fee"`
		OpenLedgerFee string `json:"open_ledger_fee"`
	} `json:"drops"`
}

type ledgerCurrentResult struct {
	LedgerCurrentIndex uint32 `json:"ledger_current_index"`
}

type ledgerResult struct {
	LedgerIndex uint32 `json:"ledger_index"`
}

// Submit autofills, signs and submits tx, then waits until it is validated or
// can no longer be included.
func (s *session) Submit(ctx context.Context, tx ledger.Tx, signer ledger.Account) (*ledger.SubmitResult, error) {
	unlock := s.lockAccount(signer.Address)
	defer unlock()

	filled, err := s.autofill(ctx, tx)
	if err != nil {
		return nil, err
	}
	blob, hash, err := ledger.Sign(filled, signer)
	if err != nil {
		return nil, fmt.Errorf("failed to sign %s: %w", tx.Type(), err)
	}

	lastLedger, _ := filled["LastLedgerSequence"].(uint32)
	var sub submitResult
	if err := s.request(ctx, "submit", map[string]interface{}{"tx_blob": blob}, &sub); err != nil {
		// The blob may have reached the node before the connection failed.
		if ledger.IsTransport(err) {
			return nil, outcomeUnknown(hash, lastLedger, err)
		}
		return nil, err
	}
	if sub.TxJSON.Hash != "" {
		hash = sub.TxJSON.Hash
	}
	if ledger.IsFinalPreliminary(sub.EngineResult) {
		s.cfg.Logger.Printf("ledger: %s from %s rejected at submit: %s %s",
			tx.Type(), signer.Address, sub.EngineResult, sub.EngineResultMessage)
		return &ledger.SubmitResult{Accepted: false, ResultCode: sub.EngineResult, TxHash: hash}, nil
	}
	return s.waitValidated(ctx, hash, lastLedger)
}

func (s *session) autofill(ctx context.Context, tx ledger.Tx) (ledger.Tx, error) {
	filled := make(ledger.Tx, len(tx)+3)
	for k, v := range tx {
		filled[k] = v
	}

	if _, ok := filled["Sequence"]; !ok {
		var res accountInfoResult
		err := s.request(ctx, "account_info", map[string]interface{}{
			"account":      tx.Account(),
			"ledger_index": "current",
		}, &res)
		if err != nil {
			return nil, err
		}
		filled["Sequence"] = res.AccountData.Sequence
	}

	if _, ok := filled["Fee"]; !ok {
		fee, err := s.fee(ctx)
		if err != nil {
			return nil, err
		}
		filled["Fee"] = strconv.FormatUint(fee, 10)
	}

	if _, ok := filled["LastLedgerSequence"]; !ok {
		var res ledgerCurrentResult
		if err := s.request(ctx, "ledger_current", nil, &res); err != nil {
			return nil, err
		}
		filled["LastLedgerSequence"] = res.LedgerCurrentIndex + s.cfg.LastLedgerOffset
	}
	return filled, nil
}

func (s *session) fee(ctx context.Context) (uint64, error) {
	if s.cfg.FeeDrops > 0 {
		return s.cfg.FeeDrops, nil
	}
	var res feeResult
	if err := s.request(ctx, "fee", nil, &res); err != nil {
		return 0, err
	}
	base, err := strconv.ParseUint(res.Drops.BaseFee, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("fee: invalid base fee %q: %w", res.Drops.BaseFee, err)
	}
	open, err := strconv.ParseUint(res.Drops.OpenLedgerFee, 10, 64)
	if err != nil {
		open = base
	}
	fee := max(base, open)
	return min(fee, s.cfg.MaxFeeDrops), nil
}

// waitValidated polls for the final outcome of hash. A transaction that is
// still unknown once the validated ledger passes lastLedger can never apply.
func (s *session) waitValidated(ctx context.Context, hash string, lastLedger uint32) (*ledger.SubmitResult, error) {
	waitCtx, cancel := context.WithTimeout(ctx, s.cfg.ValidationTimeout)
	defer cancel()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		res, err := s.lookup(waitCtx, hash, lastLedger)
		switch {
		case res != nil:
			return res, nil
		case err != nil:
			if waitCtx.Err() != nil {
				return nil, outcomeUnknown(hash, lastLedger, waitCtx.Err())
			}
			return nil, err
		}

		select {
		case <-waitCtx.Done():
			return nil, outcomeUnknown(hash, lastLedger, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

// TxOutcome resolves hash with a single lookup.
func (s *session) TxOutcome(ctx context.Context, hash string, lastLedger uint32) (*ledger.SubmitResult, error) {
	res, err := s.lookup(ctx, hash, lastLedger)
	switch {
	case err != nil:
		return nil, err
	case res == nil:
		return nil, outcomeUnknown(hash, lastLedger, errors.New("not yet validated"))
	}
	return res, nil
}

// lookup returns the final result of hash, or nil while it may still apply.
func (s *session) lookup(ctx context.Context, hash string, lastLedger uint32) (*ledger.SubmitResult, error) {
	var res txResult
	err := s.request(ctx, "tx", map[string]interface{}{"transaction": hash}, &res)
	switch {
	case err == nil && res.Validated:
		code := res.Meta.TransactionResult
		return &ledger.SubmitResult{
			Accepted:    ledger.IsSuccess(code),
			ResultCode:  code,
			TxHash:      hash,
			LedgerIndex: res.LedgerIndex,
		}, nil
	case err != nil && !isNotFound(err):
		return nil, err
	}

	if lastLedger != 0 {
		var lr ledgerResult
		err := s.request(ctx, "ledger", map[string]interface{}{"ledger_index": "validated"}, &lr)
		if err == nil && lr.LedgerIndex > lastLedger {
			return &ledger.SubmitResult{Accepted: false, ResultCode: ledger.ResultMaxLedger, TxHash: hash}, nil
		}
	}
	return nil, nil
}

func isNotFound(err error) bool {
	var rpcErr *RPCError
	return errors.As(err, &rpcErr) && rpcErr.Code == "txnNotFound"
}

func outcomeUnknown(hash string, lastLedger uint32, cause error) error {
	return ledger.NewTransportError("wait "+hash, &ledger.OutcomeUnknownError{
		TxHash:     hash,
		LastLedger: lastLedger,
		Cause:      cause,
	})
}
