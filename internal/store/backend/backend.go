// Package backend opens the configured store.Store implementation.
package backend

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/LeJamon/goXRPLrwa/internal/store"
	"github.com/LeJamon/goXRPLrwa/internal/store/kvstore"
	"github.com/LeJamon/goXRPLrwa/internal/store/sqlstore"
)

// Driver names accepted in configuration.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPebble   = "pebble"
	DriverLevelDB  = "leveldb"
)

// Config selects and configures a backend. Path is the database file for
// SQLite and the directory for the embedded key-value engines.
type Config struct {
	Driver string
	Path   string
	SQL    *sqlstore.Config
}

// Open opens the store named by cfg.Driver.
func Open(ctx context.Context, cfg Config) (store.Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverSQLite, "sqlite3", "":
		sc := cfg.SQL
		if sc == nil {
			sc = sqlstore.SQLiteConfig(cfg.Path)
		} else {
			sc.Driver = sqlstore.DriverSQLite
			if sc.Database == "" || sc.Database == sqlstore.NewConfig().Database {
				sc.Database = cfg.Path
			}
		}
		return sqlstore.Open(ctx, sc)
	case DriverPostgres, "postgresql":
		sc := cfg.SQL
		if sc == nil {
			sc = sqlstore.NewConfig()
		}
		sc.Driver = sqlstore.DriverPostgres
		return sqlstore.Open(ctx, sc)
	case DriverPebble:
		engine, err := kvstore.OpenPebble(cfg.Path)
		if err != nil {
			return nil, err
		}
		return kvstore.New(engine), nil
	case DriverLevelDB:
		engine, err := kvstore.OpenLevelDB(cfg.Path)
		if err != nil {
			return nil, err
		}
		return kvstore.New(engine), nil
	}
	return nil, fmt.Errorf("%w: %s", store.ErrUnknownBackend, cfg.Driver)
}

// DefaultPath returns the conventional location of a backend under dataDir.
func DefaultPath(driver, dataDir string) string {
	switch strings.ToLower(driver) {
	case DriverPebble:
		return filepath.Join(dataDir, "pebble")
	case DriverLevelDB:
		return filepath.Join(dataDir, "leveldb")
	}
	return filepath.Join(dataDir, "rwa.db")
}
