package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLrwa/internal/ledger"
	"github.com/LeJamon/goXRPLrwa/internal/ledger/wsclient"
)

// Funding modes.
const (
	FundingFaucet = "faucet"
	FundingFunder = "funder"
)

// LedgerConfig represents the [ledger] section
// Connection and submission settings for the rippled WebSocket endpoint
type LedgerConfig struct {
	URL               string        `toml:"url" mapstructure:"url"`
	RequestTimeout    time.Duration `toml:"request_timeout" mapstructure:"request_timeout"`
	ValidationTimeout time.Duration `toml:"validation_timeout" mapstructure:"validation_timeout"`
	PollInterval      time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
	FeeDrops          uint64        `toml:"fee_drops" mapstructure:"fee_drops"`
	MaxFeeDrops       uint64        `toml:"max_fee_drops" mapstructure:"max_fee_drops"`
	LastLedgerOffset  uint32        `toml:"last_ledger_offset" mapstructure:"last_ledger_offset"`
	KeyType           string        `toml:"key_type" mapstructure:"key_type"`
}

// Validate performs validation on the ledger configuration
func (l *LedgerConfig) Validate() error {
	if l.URL == "" {
		return fmt.Errorf("ledger url is required")
	}
	u, err := url.Parse(l.URL)
	if err != nil {
		return fmt.Errorf("invalid ledger url %q: %w", l.URL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("ledger url must use ws or wss, got %q", u.Scheme)
	}
	if l.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", l.RequestTimeout)
	}
	if l.ValidationTimeout < l.RequestTimeout {
		return fmt.Errorf("validation_timeout (%s) cannot be shorter than request_timeout (%s)", l.ValidationTimeout, l.RequestTimeout)
	}
	if l.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", l.PollInterval)
	}
	if l.FeeDrops != 0 && l.MaxFeeDrops != 0 && l.FeeDrops > l.MaxFeeDrops {
		return fmt.Errorf("fee_drops %d exceeds max_fee_drops %d", l.FeeDrops, l.MaxFeeDrops)
	}
	if l.LastLedgerOffset == 0 {
		return fmt.Errorf("last_ledger_offset must be at least 1")
	}
	validKeyTypes := []string{string(ledger.KeyTypeED25519), string(ledger.KeyTypeSECP256K1)}
	if !containsSlice(validKeyTypes, strings.ToLower(l.KeyType)) {
		return fmt.Errorf("invalid key_type: %s (valid options: ed25519, secp256k1)", l.KeyType)
	}
	return nil
}

// GetKeyType returns the key type for generated accounts.
func (l *LedgerConfig) GetKeyType() ledger.KeyType {
	return ledger.KeyType(strings.ToLower(l.KeyType))
}

// ClientConfig returns the WebSocket client settings.
func (l *LedgerConfig) ClientConfig(logger *log.Logger) wsclient.Config {
	return wsclient.Config{
		URL:               l.URL,
		RequestTimeout:    l.RequestTimeout,
		ValidationTimeout: l.ValidationTimeout,
		PollInterval:      l.PollInterval,
		FeeDrops:          l.FeeDrops,
		MaxFeeDrops:       l.MaxFeeDrops,
		LastLedgerOffset:  l.LastLedgerOffset,
		Logger:            logger,
	}
}

// FundingConfig represents the [funding] section
// How freshly generated role accounts are brought onto the ledger
type FundingConfig struct {
	Mode         string        `toml:"mode" mapstructure:"mode"`
	FaucetURL    string        `toml:"faucet_url" mapstructure:"faucet_url"`
	FunderSeed   string        `toml:"funder_seed" mapstructure:"funder_seed"`
	AmountXRP    string        `toml:"amount_xrp" mapstructure:"amount_xrp"`
	PollInterval time.Duration `toml:"poll_interval" mapstructure:"poll_interval"`
}

// Validate performs validation on the funding configuration
func (f *FundingConfig) Validate() error {
	switch f.Mode {
	case FundingFaucet:
		if f.FaucetURL == "" {
			return fmt.Errorf("faucet_url is required in faucet mode")
		}
		if _, err := url.ParseRequestURI(f.FaucetURL); err != nil {
			return fmt.Errorf("invalid faucet_url %q: %w", f.FaucetURL, err)
		}
	case FundingFunder:
		if f.FunderSeed == "" {
			return fmt.Errorf("funder_seed is required in funder mode")
		}
		amount, err := f.Amount()
		if err != nil {
			return err
		}
		if !amount.IsPositive() {
			return fmt.Errorf("amount_xrp must be positive, got %s", amount)
		}
	default:
		return fmt.Errorf("invalid funding mode: %s (valid options: faucet, funder)", f.Mode)
	}
	if f.PollInterval < 0 {
		return fmt.Errorf("poll_interval must be non-negative, got %s", f.PollInterval)
	}
	return nil
}

// Amount returns the XRP paid to each new account in funder mode.
func (f *FundingConfig) Amount() (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(f.AmountXRP)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount_xrp %q: %w", f.AmountXRP, err)
	}
	return amount, nil
}
