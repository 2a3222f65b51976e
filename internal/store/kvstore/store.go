package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/store"
)

// Key layout:
//
//	role/<role>                          roleRecord
//	inst/<id>                            instrumentRecord
//	code/<code>                          instrument id
//	report/<run id>                      lz4(reportRecord)
//	report-by-inst/<inst id>/<ts>/<run>  run id
const (
	prefixRole       = "role/"
	prefixInstrument = "inst/"
	prefixCode       = "code/"
	prefixReport     = "report/"
	prefixReportIdx  = "report-by-inst/"
)

// Store implements store.Store over an Engine. Writes that check before they
// put are serialised by a process-wide mutex, which makes the store safe for
// one process only.
type Store struct {
	engine Engine
	mu     sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New wraps an open engine.
func New(engine Engine) *Store {
	return &Store{engine: engine}
}

// Close closes the engine.
func (s *Store) Close() error {
	return s.engine.Close()
}

func mapEngineErr(err error) error {
	switch {
	case errors.Is(err, ErrKeyNotFound):
		return store.ErrNotFound
	case errors.Is(err, ErrEngineClosed):
		return store.ErrClosed
	}
	return err
}

func toNanos(t *time.Time) int64 {
	if t == nil || t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) *time.Time {
	if n == 0 {
		return nil
	}
	t := time.Unix(0, n).UTC()
	return &t
}

func timeOf(n int64) time.Time {
	if t := fromNanos(n); t != nil {
		return *t
	}
	return time.Time{}
}

type roleRecord struct {
	Address   string `codec:"address"`
	Seed      string `codec:"seed"`
	CreatedAt int64  `codec:"created_at"`
}

// GetRoleBinding returns the binding of role or store.ErrNotFound.
func (s *Store) GetRoleBinding(ctx context.Context, role store.Role) (*store.RoleBinding, error) {
	raw, err := s.engine.Read(ctx, []byte(prefixRole+string(role)))
	if err != nil {
		return nil, mapEngineErr(err)
	}
	var rec roleRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	return &store.RoleBinding{
		Role:      role,
		Address:   rec.Address,
		Seed:      rec.Seed,
		CreatedAt: timeOf(rec.CreatedAt),
	}, nil
}

// SaveRoleBinding inserts the binding unless the role is already bound.
func (s *Store) SaveRoleBinding(ctx context.Context, binding store.RoleBinding) (store.RoleBinding, bool, error) {
	if !binding.Role.Valid() {
		return store.RoleBinding{}, false, store.ErrUnknownRole
	}
	if binding.CreatedAt.IsZero() {
		binding.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.GetRoleBinding(ctx, binding.Role)
	if err == nil {
		return *existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.RoleBinding{}, false, err
	}

	raw, err := encode(roleRecord{Address: binding.Address, Seed: binding.Seed, CreatedAt: binding.CreatedAt.UnixNano()})
	if err != nil {
		return store.RoleBinding{}, false, err
	}
	if err := s.engine.Write(ctx, []byte(prefixRole+string(binding.Role)), raw); err != nil {
		return store.RoleBinding{}, false, fmt.Errorf("failed to save role binding %s: %w", binding.Role, mapEngineErr(err))
	}
	return binding, true, nil
}

type instrumentRecord struct {
	ID              string `codec:"id"`
	Code            string `codec:"code"`
	Kind            string `codec:"kind"`
	TotalSupply     string `codec:"total_supply"`
	CurrencyID      string `codec:"currency_id"`
	State           string `codec:"state"`
	IssuerAddress   string `codec:"issuer"`
	TreasuryAddress string `codec:"treasury"`
	Principal       string `codec:"principal"`
	ProfitRate      string `codec:"profit_rate"`
	MaturityAt      int64  `codec:"maturity_at"`
	MintTxHash      string `codec:"mint_tx"`
	PublishTxHash   string `codec:"publish_tx"`
	LastRunID       string `codec:"last_run"`
	RedeemedAt      int64  `codec:"redeemed_at"`
	CreatedAt       int64  `codec:"created_at"`
	UpdatedAt       int64  `codec:"updated_at"`
}

func toRecord(i *instrument.Instrument) instrumentRecord {
	return instrumentRecord{
		ID:              i.ID,
		Code:            i.Code,
		Kind:            string(i.Kind),
		TotalSupply:     i.TotalSupply.String(),
		CurrencyID:      string(i.CurrencyID),
		State:           string(i.State),
		IssuerAddress:   i.IssuerAddress,
		TreasuryAddress: i.TreasuryAddress,
		Principal:       i.Principal.String(),
		ProfitRate:      i.ProfitRate.String(),
		MaturityAt:      toNanos(i.MaturityAt),
		MintTxHash:      i.MintTxHash,
		PublishTxHash:   i.PublishTxHash,
		LastRunID:       i.LastRunID,
		RedeemedAt:      toNanos(i.RedeemedAt),
		CreatedAt:       toNanos(&i.CreatedAt),
		UpdatedAt:       toNanos(&i.UpdatedAt),
	}
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("stored %s %q: %w", field, s, err)
	}
	return d, nil
}

func (r instrumentRecord) instrument() (*instrument.Instrument, error) {
	supply, err := parseDecimal("total_supply", r.TotalSupply)
	if err != nil {
		return nil, err
	}
	principal, err := parseDecimal("principal", r.Principal)
	if err != nil {
		return nil, err
	}
	rate, err := parseDecimal("profit_rate", r.ProfitRate)
	if err != nil {
		return nil, err
	}
	inst := &instrument.Instrument{
		ID:              r.ID,
		Code:            r.Code,
		Kind:            instrument.Kind(r.Kind),
		TotalSupply:     supply,
		CurrencyID:      ledger.Currency(r.CurrencyID),
		State:           instrument.State(r.State),
		IssuerAddress:   r.IssuerAddress,
		TreasuryAddress: r.TreasuryAddress,
		Principal:       principal,
		ProfitRate:      rate,
		MaturityAt:      fromNanos(r.MaturityAt),
		MintTxHash:      r.MintTxHash,
		PublishTxHash:   r.PublishTxHash,
		LastRunID:       r.LastRunID,
		RedeemedAt:      fromNanos(r.RedeemedAt),
	}
	inst.CreatedAt = timeOf(r.CreatedAt)
	inst.UpdatedAt = timeOf(r.UpdatedAt)
	return inst, nil
}

func (s *Store) putInstrument(ctx context.Context, inst *instrument.Instrument, extra ...BatchOperation) error {
	raw, err := encode(toRecord(inst))
	if err != nil {
		return err
	}
	ops := append([]BatchOperation{Put([]byte(prefixInstrument+inst.ID), raw)}, extra...)
	return mapEngineErr(s.engine.Batch(ctx, ops))
}

// CreateInstrument inserts a new instrument; a taken code is store.ErrDuplicate.
func (s *Store) CreateInstrument(ctx context.Context, inst *instrument.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.engine.Read(ctx, []byte(prefixCode+inst.Code)); err == nil {
		return fmt.Errorf("instrument %s: %w", inst.Code, store.ErrDuplicate)
	} else if !errors.Is(err, ErrKeyNotFound) {
		return mapEngineErr(err)
	}
	if _, err := s.engine.Read(ctx, []byte(prefixInstrument+inst.ID)); err == nil {
		return fmt.Errorf("instrument %s: %w", inst.ID, store.ErrDuplicate)
	}

	if err := s.putInstrument(ctx, inst, Put([]byte(prefixCode+inst.Code), []byte(inst.ID))); err != nil {
		return fmt.Errorf("failed to create instrument %s: %w", inst.Code, err)
	}
	return nil
}

// GetInstrument returns the instrument with id.
func (s *Store) GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error) {
	raw, err := s.engine.Read(ctx, []byte(prefixInstrument+id))
	if err != nil {
		return nil, mapEngineErr(err)
	}
	var rec instrumentRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	return rec.instrument()
}

// GetInstrumentByCode resolves the code index and loads the instrument.
func (s *Store) GetInstrumentByCode(ctx context.Context, code string) (*instrument.Instrument, error) {
	id, err := s.engine.Read(ctx, []byte(prefixCode+code))
	if err != nil {
		return nil, mapEngineErr(err)
	}
	return s.GetInstrument(ctx, string(id))
}

// ListInstruments returns instruments in state, or all when state is empty,
// ordered by creation time then code.
func (s *Store) ListInstruments(ctx context.Context, state instrument.State) ([]*instrument.Instrument, error) {
	prefix := []byte(prefixInstrument)
	it, err := s.engine.Iterator(ctx, prefix, prefixEnd(prefix))
	if err != nil {
		return nil, mapEngineErr(err)
	}
	defer it.Close()

	var out []*instrument.Instrument
	for it.Next() {
		var rec instrumentRecord
		if err := decode(it.Value(), &rec); err != nil {
			return nil, err
		}
		if state != "" && instrument.State(rec.State) != state {
			continue
		}
		inst, err := rec.instrument()
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Code < out[j].Code
	})
	return out, nil
}

// SetMinted stores the currency id once; an equal id is accepted again.
func (s *Store) SetMinted(ctx context.Context, id string, currency ledger.Currency, issuer, treasury, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, err := s.GetInstrument(ctx, id)
	if err != nil {
		return err
	}
	if inst.CurrencyID != "" && inst.CurrencyID != currency {
		return fmt.Errorf("currency id of %s: %w", id, store.ErrImmutable)
	}
	inst.CurrencyID = currency
	inst.IssuerAddress = issuer
	inst.TreasuryAddress = treasury
	inst.MintTxHash = txHash
	inst.UpdatedAt = time.Now().UTC()
	if err := s.putInstrument(ctx, inst); err != nil {
		return fmt.Errorf("failed to record mint of %s: %w", id, err)
	}
	return nil
}

// UpdateInstrumentState moves the instrument along its lifecycle.
func (s *Store) UpdateInstrumentState(ctx context.Context, id string, newState instrument.State, extra store.StateExtra) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inst, err := s.GetInstrument(ctx, id)
	if err != nil {
		return err
	}
	if err := store.CheckTransition(inst.State, newState); err != nil {
		return err
	}
	inst.State = newState
	if extra.PublishTxHash != "" {
		inst.PublishTxHash = extra.PublishTxHash
	}
	if extra.LastRunID != "" {
		inst.LastRunID = extra.LastRunID
	}
	if extra.RedeemedAt != nil {
		inst.RedeemedAt = extra.RedeemedAt
	}
	inst.UpdatedAt = time.Now().UTC()
	if err := s.putInstrument(ctx, inst); err != nil {
		return fmt.Errorf("failed to update state of %s: %w", id, err)
	}
	return nil
}

type reportRecord struct {
	InstrumentID string `codec:"instrument_id"`
	CreatedAt    int64  `codec:"created_at"`
	Payload      []byte `codec:"payload"`
}

func reportIndexKey(instrumentID string, createdAt int64, runID string) []byte {
	return []byte(fmt.Sprintf("%s%s/%020d/%s", prefixReportIdx, instrumentID, createdAt, runID))
}

// SaveReport stores a compressed redemption report; saving a run twice is
// store.ErrDuplicate.
func (s *Store) SaveReport(ctx context.Context, rec store.ReportRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := []byte(prefixReport + rec.RunID)
	if _, err := s.engine.Read(ctx, key); err == nil {
		return fmt.Errorf("report %s: %w", rec.RunID, store.ErrDuplicate)
	} else if !errors.Is(err, ErrKeyNotFound) {
		return mapEngineErr(err)
	}

	raw, err := encode(reportRecord{InstrumentID: rec.InstrumentID, CreatedAt: rec.CreatedAt.UnixNano(), Payload: rec.Payload})
	if err != nil {
		return err
	}
	block, err := compress(raw)
	if err != nil {
		return err
	}
	err = s.engine.Batch(ctx, []BatchOperation{
		Put(key, block),
		Put(reportIndexKey(rec.InstrumentID, rec.CreatedAt.UnixNano(), rec.RunID), []byte(rec.RunID)),
	})
	if err != nil {
		return fmt.Errorf("failed to save report %s: %w", rec.RunID, mapEngineErr(err))
	}
	return nil
}

// GetReport returns the report of one redemption run.
func (s *Store) GetReport(ctx context.Context, runID string) (*store.ReportRecord, error) {
	block, err := s.engine.Read(ctx, []byte(prefixReport+runID))
	if err != nil {
		return nil, mapEngineErr(err)
	}
	raw, err := decompress(block)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", runID, err)
	}
	var rec reportRecord
	if err := decode(raw, &rec); err != nil {
		return nil, err
	}
	return &store.ReportRecord{
		RunID:        runID,
		InstrumentID: rec.InstrumentID,
		CreatedAt:    timeOf(rec.CreatedAt),
		Payload:      rec.Payload,
	}, nil
}

// ListReports returns the reports of an instrument, oldest first.
func (s *Store) ListReports(ctx context.Context, instrumentID string) ([]store.ReportRecord, error) {
	prefix := []byte(prefixReportIdx + instrumentID + "/")
	it, err := s.engine.Iterator(ctx, prefix, prefixEnd(prefix))
	if err != nil {
		return nil, mapEngineErr(err)
	}
	var runIDs []string
	for it.Next() {
		runIDs = append(runIDs, string(it.Value()))
	}
	iterErr := it.Error()
	it.Close()
	if iterErr != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", instrumentID, iterErr)
	}

	out := make([]store.ReportRecord, 0, len(runIDs))
	for _, runID := range runIDs {
		rec, err := s.GetReport(ctx, runID)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}
