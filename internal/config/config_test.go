package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/store/backend"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rwa.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
data_dir = "/var/lib/rwa"

[ledger]
url = "wss://xrplcluster.com"
request_timeout = "10s"
key_type = "secp256k1"

[funding]
mode = "funder"
funder_seed = "sEdTestSeed"
amount_xrp = "25.5"

[store]
driver = "pebble"

[redemption]
workers = 8

[scheduler]
enabled = true
spec = "@every 5m"
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, path, config.GetConfigPath())

	assert.Equal(t, "wss://xrplcluster.com", config.Ledger.URL)
	assert.Equal(t, 10*time.Second, config.Ledger.RequestTimeout)
	assert.Equal(t, 90*time.Second, config.Ledger.ValidationTimeout, "default kept")
	assert.Equal(t, ledger.KeyTypeSECP256K1, config.Ledger.GetKeyType())

	amount, err := config.Funding.Amount()
	require.NoError(t, err)
	assert.Equal(t, "25.5", amount.String())

	assert.Equal(t, 8, config.Redemption.Workers)
	assert.Equal(t, 64, config.Redemption.CacheSize)
	assert.True(t, config.Issuer.DefaultRipple)
	assert.True(t, config.Scheduler.Enabled)
	assert.Equal(t, filepath.Join("/var/lib/rwa", "pebble"), config.StorePath())

	bc := config.Store.BackendConfig(config.StorePath())
	assert.Equal(t, backend.DriverPebble, bc.Driver)
	assert.Nil(t, bc.SQL)

	cc := config.Ledger.ClientConfig(nil)
	assert.Equal(t, config.Ledger.URL, cc.URL)
	assert.Equal(t, uint32(20), cc.LastLedgerOffset)
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, config.GetConfigPath())
	assert.Equal(t, "wss://s.altnet.rippletest.net:51233", config.Ledger.URL)
	assert.Equal(t, FundingFaucet, config.Funding.Mode)
	assert.Equal(t, "sqlite", config.Store.Driver)
	assert.Equal(t, filepath.Join("./data", "rwa.db"), config.StorePath())
	assert.Equal(t, 4, config.Redemption.Workers)
	assert.False(t, config.Scheduler.Enabled)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RWA_LEDGER_URL", "ws://localhost:6006")
	t.Setenv("RWA_STORE_DRIVER", "leveldb")
	t.Setenv("RWA_STORE_PATH", "/tmp/rwa-level")
	t.Setenv("RWA_REDEMPTION_WORKERS", "2")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:6006", config.Ledger.URL)
	assert.Equal(t, "leveldb", config.Store.Driver)
	assert.Equal(t, "/tmp/rwa-level", config.StorePath())
	assert.Equal(t, 2, config.Redemption.Workers)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := writeConfig(t, `
[store]
driver = "mongodb"
`)
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store validation failed")
}

func validConfig() *Config {
	return &Config{
		DataDir: "./data",
		Ledger: LedgerConfig{
			URL:               "wss://s.altnet.rippletest.net:51233",
			RequestTimeout:    30 * time.Second,
			ValidationTimeout: 90 * time.Second,
			PollInterval:      time.Second,
			MaxFeeDrops:       2000,
			LastLedgerOffset:  20,
			KeyType:           "ed25519",
		},
		Funding: FundingConfig{
			Mode:      FundingFaucet,
			FaucetURL: "https://faucet.altnet.rippletest.net/accounts",
			AmountXRP: "100",
		},
		Store: StoreConfig{
			Driver:   "sqlite",
			Host:     "localhost",
			Port:     5432,
			Database: "rwa",
			Username: "rwa",
			SSLMode:  "prefer",
		},
		Redemption: RedemptionConfig{Workers: 4, CacheSize: 64},
		Scheduler:  SchedulerConfig{Spec: "@every 1m"},
	}
}

func TestConfigValidation(t *testing.T) {
	require.NoError(t, ValidateConfig(validConfig()))

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "http ledger url", mutate: func(c *Config) { c.Ledger.URL = "https://example.com" }},
		{name: "empty ledger url", mutate: func(c *Config) { c.Ledger.URL = "" }},
		{name: "zero request timeout", mutate: func(c *Config) { c.Ledger.RequestTimeout = 0 }},
		{name: "validation shorter than request", mutate: func(c *Config) { c.Ledger.ValidationTimeout = time.Second }},
		{name: "fee above cap", mutate: func(c *Config) { c.Ledger.FeeDrops = 5000 }},
		{name: "zero ledger offset", mutate: func(c *Config) { c.Ledger.LastLedgerOffset = 0 }},
		{name: "bad key type", mutate: func(c *Config) { c.Ledger.KeyType = "rsa" }},
		{name: "unknown funding mode", mutate: func(c *Config) { c.Funding.Mode = "gift" }},
		{name: "funder without seed", mutate: func(c *Config) { c.Funding.Mode = FundingFunder }},
		{name: "funder with zero amount", mutate: func(c *Config) {
			c.Funding.Mode = FundingFunder
			c.Funding.FunderSeed = "sSeed"
			c.Funding.AmountXRP = "0"
		}},
		{name: "funder with bad amount", mutate: func(c *Config) {
			c.Funding.Mode = FundingFunder
			c.Funding.FunderSeed = "sSeed"
			c.Funding.AmountXRP = "lots"
		}},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mysql" }},
		{name: "postgres without host", mutate: func(c *Config) {
			c.Store.Driver = "postgres"
			c.Store.Host = ""
		}},
		{name: "zero workers", mutate: func(c *Config) { c.Redemption.Workers = 0 }},
		{name: "bad cron spec", mutate: func(c *Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.Spec = "whenever"
		}},
		{name: "no data dir", mutate: func(c *Config) { c.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, ValidateConfig(c))
		})
	}
}

func TestPostgresBackendConfig(t *testing.T) {
	c := validConfig()
	c.Store.Driver = "postgres"
	c.Store.DSN = "postgres://rwa@db/rwa"
	require.NoError(t, ValidateConfig(c))

	bc := c.Store.BackendConfig(c.StorePath())
	require.NotNil(t, bc.SQL)
	assert.Equal(t, "postgres://rwa@db/rwa", bc.SQL.BuildConnectionString())
}
