package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/instrument"
	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/store"
)

type instrumentRow struct {
	ID              string          `db:"id"`
	Code            string          `db:"code"`
	Kind            string          `db:"kind"`
	TotalSupply     decimal.Decimal `db:"total_supply"`
	CurrencyID      string          `db:"currency_id"`
	State           string          `db:"state"`
	IssuerAddress   string          `db:"issuer_address"`
	TreasuryAddress string          `db:"treasury_address"`
	Principal       decimal.Decimal `db:"principal"`
	ProfitRate      decimal.Decimal `db:"profit_rate"`
	MaturityAt      *time.Time      `db:"maturity_at"`
	MintTxHash      string          `db:"mint_tx_hash"`
	PublishTxHash   string          `db:"publish_tx_hash"`
	LastRunID       string          `db:"last_run_id"`
	RedeemedAt      *time.Time      `db:"redeemed_at"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

const instrumentColumns = `id, code, kind, total_supply, currency_id, state, issuer_address,
	treasury_address, principal, profit_rate, maturity_at, mint_tx_hash, publish_tx_hash,
	last_run_id, redeemed_at, created_at, updated_at`

func toRow(i *instrument.Instrument) instrumentRow {
	return instrumentRow{
		ID:              i.ID,
		Code:            i.Code,
		Kind:            string(i.Kind),
		TotalSupply:     i.TotalSupply,
		CurrencyID:      string(i.CurrencyID),
		State:           string(i.State),
		IssuerAddress:   i.IssuerAddress,
		TreasuryAddress: i.TreasuryAddress,
		Principal:       i.Principal,
		ProfitRate:      i.ProfitRate,
		MaturityAt:      i.MaturityAt,
		MintTxHash:      i.MintTxHash,
		PublishTxHash:   i.PublishTxHash,
		LastRunID:       i.LastRunID,
		RedeemedAt:      i.RedeemedAt,
		CreatedAt:       i.CreatedAt,
		UpdatedAt:       i.UpdatedAt,
	}
}

func (r instrumentRow) instrument() *instrument.Instrument {
	return &instrument.Instrument{
		ID:              r.ID,
		Code:            r.Code,
		Kind:            instrument.Kind(r.Kind),
		TotalSupply:     r.TotalSupply,
		CurrencyID:      ledger.Currency(r.CurrencyID),
		State:           instrument.State(r.State),
		IssuerAddress:   r.IssuerAddress,
		TreasuryAddress: r.TreasuryAddress,
		Principal:       r.Principal,
		ProfitRate:      r.ProfitRate,
		MaturityAt:      r.MaturityAt,
		MintTxHash:      r.MintTxHash,
		PublishTxHash:   r.PublishTxHash,
		LastRunID:       r.LastRunID,
		RedeemedAt:      r.RedeemedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// CreateInstrument inserts a new instrument; a taken code is store.ErrDuplicate.
func (s *DB) CreateInstrument(ctx context.Context, inst *instrument.Instrument) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	q := `INSERT INTO instruments (` + instrumentColumns + `) VALUES (
		:id, :code, :kind, :total_supply, :currency_id, :state, :issuer_address,
		:treasury_address, :principal, :profit_rate, :maturity_at, :mint_tx_hash, :publish_tx_hash,
		:last_run_id, :redeemed_at, :created_at, :updated_at)`
	if _, err := db.NamedExecContext(ctx, q, toRow(inst)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("instrument %s: %w", inst.Code, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to create instrument %s: %w", inst.Code, err)
	}
	return nil
}

func (s *DB) getInstrument(ctx context.Context, where string, arg interface{}) (*instrument.Instrument, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var row instrumentRow
	q := db.Rebind(`SELECT ` + instrumentColumns + ` FROM instruments WHERE ` + where + ` = ?`)
	if err := db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get instrument: %w", err)
	}
	return row.instrument(), nil
}

// GetInstrument returns the instrument with id.
func (s *DB) GetInstrument(ctx context.Context, id string) (*instrument.Instrument, error) {
	return s.getInstrument(ctx, "id", id)
}

// GetInstrumentByCode returns the instrument with the human code.
func (s *DB) GetInstrumentByCode(ctx context.Context, code string) (*instrument.Instrument, error) {
	return s.getInstrument(ctx, "code", code)
}

// ListInstruments returns instruments in state, or all when state is empty.
func (s *DB) ListInstruments(ctx context.Context, state instrument.State) ([]*instrument.Instrument, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var rows []instrumentRow
	if state == "" {
		err = db.SelectContext(ctx, &rows, `SELECT `+instrumentColumns+` FROM instruments ORDER BY created_at, code`)
	} else {
		q := db.Rebind(`SELECT ` + instrumentColumns + ` FROM instruments WHERE state = ? ORDER BY created_at, code`)
		err = db.SelectContext(ctx, &rows, q, string(state))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments: %w", err)
	}
	out := make([]*instrument.Instrument, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.instrument())
	}
	return out, nil
}

// SetMinted stores the currency id once; an equal id is accepted again.
func (s *DB) SetMinted(ctx context.Context, id string, currency ledger.Currency, issuer, treasury, txHash string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	q := db.Rebind(`UPDATE instruments
		SET currency_id = ?, issuer_address = ?, treasury_address = ?, mint_tx_hash = ?, updated_at = ?
		WHERE id = ? AND (currency_id = '' OR currency_id = ?)`)
	res, err := db.ExecContext(ctx, q, string(currency), issuer, treasury, txHash, time.Now().UTC(), id, string(currency))
	if err != nil {
		return fmt.Errorf("failed to record mint of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}
	if _, err := s.GetInstrument(ctx, id); err != nil {
		return err
	}
	return fmt.Errorf("currency id of %s: %w", id, store.ErrImmutable)
}

// UpdateInstrumentState performs a compare-and-set on the stored state.
func (s *DB) UpdateInstrumentState(ctx context.Context, id string, newState instrument.State, extra store.StateExtra) error {
	current, err := s.GetInstrument(ctx, id)
	if err != nil {
		return err
	}
	if err := store.CheckTransition(current.State, newState); err != nil {
		return err
	}

	db, err := s.conn()
	if err != nil {
		return err
	}
	q := db.Rebind(`UPDATE instruments
		SET state = ?,
			publish_tx_hash = CASE WHEN ? = '' THEN publish_tx_hash ELSE ? END,
			last_run_id = CASE WHEN ? = '' THEN last_run_id ELSE ? END,
			redeemed_at = COALESCE(?, redeemed_at),
			updated_at = ?
		WHERE id = ? AND state = ?`)
	res, err := db.ExecContext(ctx, q,
		string(newState),
		extra.PublishTxHash, extra.PublishTxHash,
		extra.LastRunID, extra.LastRunID,
		extra.RedeemedAt,
		time.Now().UTC(),
		id, string(current.State))
	if err != nil {
		return fmt.Errorf("failed to update state of %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		return fmt.Errorf("instrument %s: %w", id, store.ErrStateConflict)
	}
	return nil
}
