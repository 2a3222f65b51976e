package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets every key so environment overrides are always picked up.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./data")

	// Ledger
	v.SetDefault("ledger.url", "wss://s.altnet.rippletest.net:51233")
	v.SetDefault("ledger.request_timeout", 30*time.Second)
	v.SetDefault("ledger.validation_timeout", 90*time.Second)
	v.SetDefault("ledger.poll_interval", time.Second)
	v.SetDefault("ledger.fee_drops", 0) // 0 asks the node
	v.SetDefault("ledger.max_fee_drops", 2000)
	v.SetDefault("ledger.last_ledger_offset", 20)
	v.SetDefault("ledger.key_type", "ed25519")

	// Funding
	v.SetDefault("funding.mode", FundingFaucet)
	v.SetDefault("funding.faucet_url", "https://faucet.altnet.rippletest.net/accounts")
	v.SetDefault("funding.funder_seed", "")
	v.SetDefault("funding.amount_xrp", "100")
	v.SetDefault("funding.poll_interval", 2*time.Second)

	// Store
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.host", "localhost")
	v.SetDefault("store.port", 5432)
	v.SetDefault("store.database", "rwa")
	v.SetDefault("store.username", "rwa")
	v.SetDefault("store.password", "")
	v.SetDefault("store.ssl_mode", "prefer")
	v.SetDefault("store.max_open_conns", 10)
	v.SetDefault("store.max_idle_conns", 2)
	v.SetDefault("store.conn_max_lifetime", time.Hour)

	// Issuer
	v.SetDefault("issuer.default_ripple", true)

	// Redemption
	v.SetDefault("redemption.workers", 4)
	v.SetDefault("redemption.cache_size", 64)

	// Scheduler
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.spec", "@every 1m")
}
