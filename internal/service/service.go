// Package service exposes the caller-facing operations over instruments. It
// resolves role accounts, runs the ledger workflows and keeps the persisted
// instrument record in step with the ledger.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/market"
	"github.com/LeJamon/goXRPLrwa/internal/redemption"
	"github.com/LeJamon/goXRPLrwa/internal/store"
	"github.com/LeJamon/goXRPLrwa/internal/tokenize"
	"github.com/LeJamon/goXRPLrwa/internal/workflow"
)

// Wallets resolves role accounts. *wallet.Registry implements it.
type Wallets interface {
	Ensure(ctx context.Context, role store.Role) (ledger.Account, error)
}

// Options tune a Service.
type Options struct {
	DefaultRipple bool
	// Workers bounds concurrent holder-signed cancellations during redemption.
	Workers int
	Logger  *log.Logger
}

// Service runs instrument operations.
type Service struct {
	store    store.InstrumentStore
	wallets  Wallets
	tokens   *tokenize.Engine
	market   *market.Market
	redeemer *redemption.Coordinator
	logger   *log.Logger
	now      func() time.Time

	mu      sync.Mutex
	running map[string]bool
}

// New creates a Service.
func New(st store.InstrumentStore, wallets Wallets, client ledger.Client, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Service{
		store:    st,
		wallets:  wallets,
		tokens:   tokenize.New(client, tokenize.Options{DefaultRipple: opts.DefaultRipple, Logger: logger}),
		market:   market.New(client, logger),
		redeemer: redemption.NewCoordinator(client, redemption.Options{Workers: opts.Workers, Logger: logger}),
		logger:   logger,
		now:      time.Now,
		running:  map[string]bool{},
	}
}

// storeErr maps persistence errors a caller can act on to precondition
// failures and wraps the rest.
func storeErr(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrImmutable),
		errors.Is(err, store.ErrStateConflict):
		return &workflow.Error{Kind: workflow.KindPrecondition, Op: op, Message: err.Error(), Cause: err}
	}
	return workflow.Wrap(op, err)
}

func (s *Service) lookup(ctx context.Context, op, code string) (*instrument.Instrument, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, workflow.Precondition(op, "instrument code is required")
	}
	inst, err := s.store.GetInstrumentByCode(ctx, code)
	if err != nil {
		return nil, storeErr(op, fmt.Errorf("instrument %q: %w", code, err))
	}
	return inst, nil
}

// parties resolves the issuer and treasury accounts and, for a minted
// instrument, checks they are the accounts it was minted with.
func (s *Service) parties(ctx context.Context, op string, inst *instrument.Instrument) (issuer, treasury ledger.Account, err error) {
	issuer, err = s.wallets.Ensure(ctx, store.RoleIssuer)
	if err != nil {
		return issuer, treasury, workflow.Wrap(op, err)
	}
	treasury, err = s.wallets.Ensure(ctx, store.RoleTreasury)
	if err != nil {
		return issuer, treasury, workflow.Wrap(op, err)
	}
	if inst.IsMinted() && (inst.IssuerAddress != issuer.Address || inst.TreasuryAddress != treasury.Address) {
		return issuer, treasury, workflow.Precondition(op,
			"instrument %s was minted by %s/%s, role bindings now point to %s/%s",
			inst.Code, inst.IssuerAddress, inst.TreasuryAddress, issuer.Address, treasury.Address)
	}
	return issuer, treasury, nil
}

// Create registers a DRAFT instrument.
func (s *Service) Create(ctx context.Context, code string, kind instrument.Kind, supply decimal.Decimal, terms instrument.Terms) (*instrument.Instrument, error) {
	const op = "service.create"
	inst, err := instrument.New(code, kind, supply, terms, s.now())
	if err != nil {
		return nil, &workflow.Error{Kind: workflow.KindPrecondition, Op: op, Message: err.Error(), Cause: err}
	}
	if _, err := tokenize.DeriveCurrencyID(inst.Code); err != nil {
		return nil, workflow.Wrap(op, err)
	}
	if err := s.store.CreateInstrument(ctx, inst); err != nil {
		return nil, storeErr(op, err)
	}
	s.logger.Printf("service: created instrument code=%s kind=%s supply=%s", inst.Code, inst.Kind, inst.TotalSupply)
	return inst, nil
}

// Instrument returns the instrument with code.
func (s *Service) Instrument(ctx context.Context, code string) (*instrument.Instrument, error) {
	return s.lookup(ctx, "service.instrument", code)
}

// Instruments lists instruments, all of them when state is empty.
func (s *Service) Instruments(ctx context.Context, state instrument.State) ([]*instrument.Instrument, error) {
	const op = "service.instruments"
	if state != "" && !state.Valid() {
		return nil, workflow.Precondition(op, "unknown state %q", state)
	}
	list, err := s.store.ListInstruments(ctx, state)
	if err != nil {
		return nil, storeErr(op, err)
	}
	return list, nil
}

// Tokenize configures the issuer and mints the instrument's supply into the
// treasury, then records the currency id. An instrument that is already
// minted returns its stored result without touching the ledger.
func (s *Service) Tokenize(ctx context.Context, code string) (*tokenize.MintResult, error) {
	const op = "service.tokenize"
	inst, err := s.lookup(ctx, op, code)
	if err != nil {
		return nil, err
	}
	if inst.IsMinted() {
		s.logger.Printf("service: instrument %s already minted as %s", inst.Code, inst.CurrencyID)
		return &tokenize.MintResult{
			Currency:      inst.CurrencyID,
			Issuer:        inst.IssuerAddress,
			Treasury:      inst.TreasuryAddress,
			Supply:        inst.TotalSupply,
			PaymentTxHash: inst.MintTxHash,
			Steps:         []workflow.StepOutcome{},
		}, nil
	}
	if inst.State != instrument.StateDraft {
		return nil, workflow.Precondition(op, "instrument %s is %s, only DRAFT instruments can be tokenized", inst.Code, inst.State)
	}

	currency, err := tokenize.DeriveCurrencyID(inst.Code)
	if err != nil {
		return nil, workflow.Wrap(op, err)
	}
	issuer, treasury, err := s.parties(ctx, op, inst)
	if err != nil {
		return nil, err
	}
	configured, err := s.tokens.ConfigureIssuer(ctx, issuer)
	if err != nil {
		return nil, err
	}
	res, err := s.tokens.Mint(ctx, issuer, treasury, currency, inst.TotalSupply)
	if err != nil {
		return nil, err
	}
	res.Steps = append(configured, res.Steps...)

	if err := s.store.SetMinted(ctx, inst.ID, currency, issuer.Address, treasury.Address, res.PaymentTxHash); err != nil {
		return nil, storeErr(op, err)
	}
	return res, nil
}

// Publish lists the full supply of a minted DRAFT instrument from the
// treasury at price and marks it PUBLISHED.
func (s *Service) Publish(ctx context.Context, code string, price decimal.Decimal) (*market.OfferResult, error) {
	const op = "service.publish"
	inst, err := s.lookup(ctx, op, code)
	if err != nil {
		return nil, err
	}
	if inst.State != instrument.StateDraft {
		return nil, workflow.Precondition(op, "instrument %s is %s, only DRAFT instruments can be published", inst.Code, inst.State)
	}
	if !inst.IsMinted() {
		return nil, workflow.Precondition(op, "instrument %s is not tokenized", inst.Code)
	}
	_, treasury, err := s.parties(ctx, op, inst)
	if err != nil {
		return nil, err
	}

	res, err := s.market.ListInitialOffer(ctx, treasury, inst.CurrencyID, inst.IssuerAddress, inst.TotalSupply, price)
	if err != nil {
		return nil, err
	}
	extra := store.StateExtra{PublishTxHash: res.TxHash}
	if err := s.store.UpdateInstrumentState(ctx, inst.ID, instrument.StatePublished, extra); err != nil {
		return nil, storeErr(op, err)
	}
	s.logger.Printf("service: published instrument code=%s price=%s tx=%s", inst.Code, price, res.TxHash)
	return res, nil
}

// OfferRequest places one offer on an instrument's book. The offer is signed
// by Account when set, otherwise by the account bound to Role.
type OfferRequest struct {
	Code        string
	Account     ledger.Account
	Role        store.Role
	Side        market.Side
	TokenAmount decimal.Decimal
	Price       decimal.Decimal
	Options     market.OfferOptions
}

// PlaceOffer submits an offer for a tokenized instrument.
func (s *Service) PlaceOffer(ctx context.Context, req OfferRequest) (*market.OfferResult, error) {
	const op = "service.place_offer"
	inst, err := s.lookup(ctx, op, req.Code)
	if err != nil {
		return nil, err
	}
	if !inst.IsMinted() {
		return nil, workflow.Precondition(op, "instrument %s is not tokenized", inst.Code)
	}
	if inst.State == instrument.StateRedeemed {
		return nil, workflow.Precondition(op, "instrument %s is redeemed", inst.Code)
	}
	acct := req.Account
	if acct.IsZero() {
		if !req.Role.Valid() {
			return nil, workflow.Precondition(op, "an account or a role is required")
		}
		if acct, err = s.wallets.Ensure(ctx, req.Role); err != nil {
			return nil, workflow.Wrap(op, err)
		}
	}
	return s.market.PlaceOffer(ctx, acct, req.Side, inst.CurrencyID, inst.IssuerAddress, req.TokenAmount, req.Price, req.Options)
}

// FetchOrderBook returns the normalized book of a tokenized instrument.
func (s *Service) FetchOrderBook(ctx context.Context, code string) (*market.OrderBook, error) {
	const op = "service.fetch_order_book"
	inst, err := s.lookup(ctx, op, code)
	if err != nil {
		return nil, err
	}
	if !inst.IsMinted() {
		return nil, workflow.Precondition(op, "instrument %s is not tokenized", inst.Code)
	}
	return s.market.FetchOrderBook(ctx, inst.CurrencyID, inst.IssuerAddress)
}

// RedeemRequest redeems every holder of one instrument.
type RedeemRequest struct {
	Code              string
	PayoutPerToken    decimal.Decimal
	HolderCredentials map[string]string
	RetireUnsold      bool
}

// acquire marks a redemption of id as running. It fails if one already is.
func (s *Service) acquire(op string, inst *instrument.Instrument) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[inst.ID] {
		return nil, workflow.Precondition(op, "a redemption of %s is already running", inst.Code)
	}
	s.running[inst.ID] = true
	return func() {
		s.mu.Lock()
		delete(s.running, inst.ID)
		s.mu.Unlock()
	}, nil
}

// Redeem runs a redemption of a PUBLISHED instrument, stores the report and
// marks the instrument REDEEMED. The transition happens even when some holders
// failed; their failures are returned as a partial-batch error alongside the
// report.
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (*redemption.Report, error) {
	const op = "service.redeem"
	inst, err := s.lookup(ctx, op, req.Code)
	if err != nil {
		return nil, err
	}
	if inst.State != instrument.StatePublished {
		return nil, workflow.Precondition(op, "instrument %s is %s, only PUBLISHED instruments can be redeemed", inst.Code, inst.State)
	}
	release, err := s.acquire(op, inst)
	if err != nil {
		return nil, err
	}
	defer release()
	// Another run may have finished between the lookup and the lock.
	if inst, err = s.lookup(ctx, op, req.Code); err != nil {
		return nil, err
	}
	if inst.State != instrument.StatePublished {
		return nil, workflow.Precondition(op, "instrument %s is %s, only PUBLISHED instruments can be redeemed", inst.Code, inst.State)
	}

	issuer, treasury, err := s.parties(ctx, op, inst)
	if err != nil {
		return nil, err
	}
	report, err := s.redeemer.RedeemAll(ctx, redemption.Request{
		Issuer:            issuer,
		Treasury:          treasury,
		Currency:          inst.CurrencyID,
		PayoutPerToken:    req.PayoutPerToken,
		HolderCredentials: req.HolderCredentials,
		RetireUnsold:      req.RetireUnsold,
	})
	if err != nil {
		return nil, err
	}

	// Tokens are already off the ledger: the instrument must leave PUBLISHED
	// even when the report cannot be stored.
	saveErr := s.saveReport(ctx, inst.ID, report)
	if saveErr != nil {
		s.logReportLoss(op, report, saveErr)
	}
	redeemedAt := report.FinishedAt
	extra := store.StateExtra{LastRunID: report.RunID, RedeemedAt: &redeemedAt}
	if err := s.store.UpdateInstrumentState(ctx, inst.ID, instrument.StateRedeemed, extra); err != nil {
		return report, storeErr(op, errors.Join(saveErr, err))
	}
	if saveErr != nil {
		return report, storeErr(op, saveErr)
	}
	s.logger.Printf("service: redeemed instrument code=%s run=%s failed=%d/%d",
		inst.Code, report.RunID, report.HoldersFailed, report.HoldersProcessed)
	return report, report.Err()
}

// logReportLoss writes a report that could not be stored to the log, so the
// run's ledger transactions can still be traced.
func (s *Service) logReportLoss(op string, report *redemption.Report, err error) {
	payload, _ := json.Marshal(report)
	s.logger.Printf("service: %s: storing report run=%s failed: %v; report=%s", op, report.RunID, err, payload)
}

// ResumePayouts finishes the unsettled holders of a stored run of a REDEEMED
// instrument and stores the resulting report as a new run.
func (s *Service) ResumePayouts(ctx context.Context, code, runID string) (*redemption.Report, error) {
	const op = "service.resume_payouts"
	inst, err := s.lookup(ctx, op, code)
	if err != nil {
		return nil, err
	}
	if inst.State != instrument.StateRedeemed {
		return nil, workflow.Precondition(op, "instrument %s is %s, not REDEEMED", inst.Code, inst.State)
	}
	prior, err := s.loadReport(ctx, inst.ID, runID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	release, err := s.acquire(op, inst)
	if err != nil {
		return nil, err
	}
	defer release()

	issuer, treasury, err := s.parties(ctx, op, inst)
	if err != nil {
		return nil, err
	}
	report, err := s.redeemer.ResumePayouts(ctx, redemption.Request{
		Issuer:         issuer,
		Treasury:       treasury,
		Currency:       inst.CurrencyID,
		PayoutPerToken: prior.PayoutPerToken,
	}, prior)
	if err != nil {
		return nil, err
	}
	if err := s.saveReport(ctx, inst.ID, report); err != nil {
		s.logReportLoss(op, report, err)
		return report, storeErr(op, err)
	}
	return report, report.Err()
}

// Reports returns the stored redemption reports of an instrument, oldest
// first.
func (s *Service) Reports(ctx context.Context, code string) ([]*redemption.Report, error) {
	const op = "service.reports"
	inst, err := s.lookup(ctx, op, code)
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ListReports(ctx, inst.ID)
	if err != nil {
		return nil, storeErr(op, err)
	}
	out := make([]*redemption.Report, 0, len(recs))
	for _, rec := range recs {
		var r redemption.Report
		if err := json.Unmarshal(rec.Payload, &r); err != nil {
			return nil, workflow.Wrap(op, fmt.Errorf("decode report %s: %w", rec.RunID, err))
		}
		out = append(out, &r)
	}
	return out, nil
}

func (s *Service) saveReport(ctx context.Context, instrumentID string, report *redemption.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return s.store.SaveReport(ctx, store.ReportRecord{
		RunID:        report.RunID,
		InstrumentID: instrumentID,
		CreatedAt:    report.FinishedAt,
		Payload:      payload,
	})
}

func (s *Service) loadReport(ctx context.Context, instrumentID, runID string) (*redemption.Report, error) {
	rec, err := s.store.GetReport(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", runID, err)
	}
	if rec.InstrumentID != instrumentID {
		return nil, fmt.Errorf("report %s: %w", runID, store.ErrNotFound)
	}
	var r redemption.Report
	if err := json.Unmarshal(rec.Payload, &r); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &r, nil
}

// MaturityResult is the outcome of redeeming one matured bond.
type MaturityResult struct {
	Code           string          `json:"code"`
	PayoutPerToken decimal.Decimal `json:"payout_per_token"`
	RunID          string          `json:"run_id,omitempty"`
	HoldersFailed  int             `json:"holders_failed"`
	Error          *workflow.Error `json:"error,omitempty"`
}

// MatureBonds redeems every PUBLISHED bond whose maturity is at or before now,
// paying principal plus profit per token. A bond that fails is reported and
// the sweep moves on.
func (s *Service) MatureBonds(ctx context.Context, now time.Time) ([]MaturityResult, error) {
	const op = "service.mature_bonds"
	list, err := s.store.ListInstruments(ctx, instrument.StatePublished)
	if err != nil {
		return nil, storeErr(op, err)
	}
	results := []MaturityResult{}
	for _, inst := range list {
		if !inst.Matured(now) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		res := MaturityResult{Code: inst.Code}
		payout, err := instrument.PayoutFromBond(inst.Principal, inst.ProfitRate)
		if err == nil {
			res.PayoutPerToken = payout
			var report *redemption.Report
			report, err = s.Redeem(ctx, RedeemRequest{Code: inst.Code, PayoutPerToken: payout})
			if report != nil {
				res.RunID = report.RunID
				res.HoldersFailed = report.HoldersFailed
			}
		}
		if err != nil {
			env := workflow.Result(nil, workflow.Wrap(op, err))
			res.Error = env.Error
			s.logger.Printf("service: maturing bond %s: %v", inst.Code, err)
		}
		results = append(results, res)
	}
	return results, nil
}
