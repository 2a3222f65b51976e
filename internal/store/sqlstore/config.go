package sqlstore

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

var (
	ErrMissingHost           = errors.New("database host is required")
	ErrMissingDatabase       = errors.New("database name is required")
	ErrMissingUsername       = errors.New("database username is required")
	ErrInvalidPort           = errors.New("invalid database port")
	ErrInvalidMaxOpenConns   = errors.New("max open connections must be >= 0")
	ErrMaxIdleExceedsMaxOpen = errors.New("max idle connections cannot exceed max open connections")
	ErrInvalidTimeout        = errors.New("timeout must be positive")
)

// Driver names as registered with database/sql.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config contains database configuration settings
type Config struct {
	Driver           string `mapstructure:"driver"`
	ConnectionString string `mapstructure:"dsn"`
	Host             string `mapstructure:"host"`
	Port             int    `mapstructure:"port"`
	Database         string `mapstructure:"database"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	SSLMode          string `mapstructure:"ssl_mode"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	DefaultTimeout  time.Duration `mapstructure:"default_timeout"`
}

// NewConfig creates a new Config with sensible defaults
func NewConfig() *Config {
	return &Config{
		Driver:          DriverPostgres,
		Host:            "localhost",
		Port:            5432,
		Database:        "rwa",
		Username:        "rwa",
		SSLMode:         "prefer",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: time.Hour,
		DefaultTimeout:  30 * time.Second,
	}
}

// SQLiteConfig creates a SQLite configuration for the file at dbPath.
func SQLiteConfig(dbPath string) *Config {
	c := NewConfig()
	c.Driver = DriverSQLite
	c.Database = dbPath
	c.MaxOpenConns = 1
	c.MaxIdleConns = 1
	return c
}

// Validate checks the configuration and normalizes the driver name.
func (c *Config) Validate() error {
	switch c.Driver {
	case "postgres", "postgresql":
		c.Driver = DriverPostgres
	case "sqlite", "sqlite3":
		c.Driver = DriverSQLite
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Driver)
	}

	if c.ConnectionString == "" {
		switch c.Driver {
		case DriverPostgres:
			if c.Host == "" {
				return ErrMissingHost
			}
			if c.Port <= 0 || c.Port > 65535 {
				return ErrInvalidPort
			}
			if c.Database == "" {
				return ErrMissingDatabase
			}
			if c.Username == "" {
				return ErrMissingUsername
			}
			switch c.SSLMode {
			case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
			default:
				return fmt.Errorf("invalid SSL mode: %s", c.SSLMode)
			}
		case DriverSQLite:
			if c.Database == "" {
				return ErrMissingDatabase
			}
		}
	}

	if c.MaxOpenConns < 0 {
		return ErrInvalidMaxOpenConns
	}
	if c.MaxIdleConns > c.MaxOpenConns && c.MaxOpenConns > 0 {
		return ErrMaxIdleExceedsMaxOpen
	}
	if c.DefaultTimeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// BuildConnectionString builds a connection string from the config
func (c *Config) BuildConnectionString() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	if c.Driver == DriverSQLite {
		return "file:" + c.Database + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	}

	params := url.Values{}
	params.Set("sslmode", c.SSLMode)
	params.Set("connect_timeout", "30")
	params.Set("application_name", "rwa-coordinator")

	u := url.URL{
		Scheme:   "postgres",
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: params.Encode(),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	} else {
		u.User = url.User(c.Username)
	}
	return u.String()
}
