package config

import (
	"path/filepath"
)

// Config represents the complete rwa configuration.
type Config struct {
	// DataDir holds the embedded stores when no explicit path is configured.
	DataDir string `toml:"data_dir" mapstructure:"data_dir"`

	Ledger     LedgerConfig     `toml:"ledger" mapstructure:"ledger"`
	Funding    FundingConfig    `toml:"funding" mapstructure:"funding"`
	Store      StoreConfig      `toml:"store" mapstructure:"store"`
	Issuer     IssuerConfig     `toml:"issuer" mapstructure:"issuer"`
	Redemption RedemptionConfig `toml:"redemption" mapstructure:"redemption"`
	Scheduler  SchedulerConfig  `toml:"scheduler" mapstructure:"scheduler"`

	configPath string `toml:"-" mapstructure:"-"`
}

// DefaultConfigName is the file base name searched for when no path is given.
const DefaultConfigName = "rwa"

// ConfigPathFromDir returns the conventional config file inside configDir.
func ConfigPathFromDir(configDir string) string {
	return filepath.Join(configDir, DefaultConfigName+".toml")
}

// GetConfigPath returns the file the configuration was read from, empty when
// only defaults and environment were used.
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// StorePath returns the store location, defaulting under DataDir.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Driver {
	case "pebble", "leveldb":
		return filepath.Join(c.DataDir, c.Store.Driver)
	}
	return filepath.Join(c.DataDir, "rwa.db")
}
