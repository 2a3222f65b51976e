package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/LeJamon/goXRPLrwa/internal/store/backend"
	"github.com/LeJamon/goXRPLrwa/internal/store/sqlstore"
)

// StoreConfig represents the [store] section
// Selects the persistence backend for role bindings, instruments and reports
type StoreConfig struct {
	Driver string `toml:"driver" mapstructure:"driver"`
	// Path is the SQLite file or the Pebble/LevelDB directory.
	Path string `toml:"path" mapstructure:"path"`

	// PostgreSQL
	DSN      string `toml:"dsn" mapstructure:"dsn"`
	Host     string `toml:"host" mapstructure:"host"`
	Port     int    `toml:"port" mapstructure:"port"`
	Database string `toml:"database" mapstructure:"database"`
	Username string `toml:"username" mapstructure:"username"`
	Password string `toml:"password" mapstructure:"password"`
	SSLMode  string `toml:"ssl_mode" mapstructure:"ssl_mode"`

	MaxOpenConns    int           `toml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// Validate performs validation on the store configuration
func (s *StoreConfig) Validate() error {
	validDrivers := []string{backend.DriverSQLite, backend.DriverPostgres, backend.DriverPebble, backend.DriverLevelDB}
	if !containsSlice(validDrivers, strings.ToLower(s.Driver)) {
		return fmt.Errorf("invalid store driver: %s (valid options: %s)", s.Driver, strings.Join(validDrivers, ", "))
	}
	if strings.EqualFold(s.Driver, backend.DriverPostgres) {
		if err := s.sqlConfig().Validate(); err != nil {
			return err
		}
	}
	if s.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must be non-negative, got %d", s.MaxOpenConns)
	}
	return nil
}

func (s *StoreConfig) sqlConfig() *sqlstore.Config {
	c := sqlstore.NewConfig()
	c.Driver = strings.ToLower(s.Driver)
	c.ConnectionString = s.DSN
	c.Host = s.Host
	c.Port = s.Port
	c.Database = s.Database
	c.Username = s.Username
	c.Password = s.Password
	c.SSLMode = s.SSLMode
	c.MaxOpenConns = s.MaxOpenConns
	c.MaxIdleConns = s.MaxIdleConns
	c.ConnMaxLifetime = s.ConnMaxLifetime
	return c
}

// BackendConfig returns the settings for backend.Open with the store
// located at path.
func (s *StoreConfig) BackendConfig(path string) backend.Config {
	cfg := backend.Config{Driver: strings.ToLower(s.Driver), Path: path}
	if strings.EqualFold(s.Driver, backend.DriverPostgres) {
		cfg.SQL = s.sqlConfig()
	}
	return cfg
}
