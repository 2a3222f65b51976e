// Package sqlstore implements store.Store on PostgreSQL or SQLite.
package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/LeJamon/goXRPLrwa/internal/store"
)

// DB is a relational store.
type DB struct {
	db     *sqlx.DB
	config *Config
}

var _ store.Store = (*DB)(nil)

// Open connects, verifies the connection and creates the schema.
func Open(ctx context.Context, config *Config) (*DB, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	db, err := sqlx.Open(config.Driver, config.BuildConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, config.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &DB{db: db, config: config}
	if err := s.initSchema(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *DB) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *DB) conn() (*sqlx.DB, error) {
	if s.db == nil {
		return nil, store.ErrClosed
	}
	return s.db, nil
}

func (s *DB) initSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS role_bindings (
			role TEXT PRIMARY KEY,
			address TEXT NOT NULL,
			seed TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS instruments (
			id TEXT PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			total_supply TEXT NOT NULL,
			currency_id TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL,
			issuer_address TEXT NOT NULL DEFAULT '',
			treasury_address TEXT NOT NULL DEFAULT '',
			principal TEXT NOT NULL DEFAULT '0',
			profit_rate TEXT NOT NULL DEFAULT '0',
			maturity_at TIMESTAMP NULL,
			mint_tx_hash TEXT NOT NULL DEFAULT '',
			publish_tx_hash TEXT NOT NULL DEFAULT '',
			last_run_id TEXT NOT NULL DEFAULT '',
			redeemed_at TIMESTAMP NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_instruments_state ON instruments(state)`,

		`CREATE TABLE IF NOT EXISTS redemption_reports (
			run_id TEXT PRIMARY KEY,
			instrument_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reports_instrument ON redemption_reports(instrument_id)`,
	}

	for _, q := range queries {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a unique or primary key conflict.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
