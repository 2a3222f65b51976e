package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LeJamon/goXRPLrwa/internal/store"
)

type reportRow struct {
	RunID        string    `db:"run_id"`
	InstrumentID string    `db:"instrument_id"`
	CreatedAt    time.Time `db:"created_at"`
	Payload      string    `db:"payload"`
}

func (r reportRow) record() store.ReportRecord {
	return store.ReportRecord{
		RunID:        r.RunID,
		InstrumentID: r.InstrumentID,
		CreatedAt:    r.CreatedAt,
		Payload:      []byte(r.Payload),
	}
}

// SaveReport stores a redemption report. Reports are immutable; saving the
// same run twice is store.ErrDuplicate.
func (s *DB) SaveReport(ctx context.Context, rec store.ReportRecord) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	q := db.Rebind(`INSERT INTO redemption_reports (run_id, instrument_id, created_at, payload) VALUES (?, ?, ?, ?)`)
	if _, err := db.ExecContext(ctx, q, rec.RunID, rec.InstrumentID, rec.CreatedAt, string(rec.Payload)); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("report %s: %w", rec.RunID, store.ErrDuplicate)
		}
		return fmt.Errorf("failed to save report %s: %w", rec.RunID, err)
	}
	return nil
}

// GetReport returns the report of one redemption run.
func (s *DB) GetReport(ctx context.Context, runID string) (*store.ReportRecord, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var row reportRow
	q := db.Rebind(`SELECT run_id, instrument_id, created_at, payload FROM redemption_reports WHERE run_id = ?`)
	if err := db.GetContext(ctx, &row, q, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get report %s: %w", runID, err)
	}
	rec := row.record()
	return &rec, nil
}

// ListReports returns the reports of an instrument, oldest first.
func (s *DB) ListReports(ctx context.Context, instrumentID string) ([]store.ReportRecord, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var rows []reportRow
	q := db.Rebind(`SELECT run_id, instrument_id, created_at, payload FROM redemption_reports
		WHERE instrument_id = ? ORDER BY created_at, run_id`)
	if err := db.SelectContext(ctx, &rows, q, instrumentID); err != nil {
		return nil, fmt.Errorf("failed to list reports of %s: %w", instrumentID, err)
	}
	out := make([]store.ReportRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}
