package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// IssuerConfig represents the [issuer] section
type IssuerConfig struct {
	// DefaultRipple lets holders trade the token with each other.
	DefaultRipple bool `toml:"default_ripple" mapstructure:"default_ripple"`
}

// RedemptionConfig represents the [redemption] section
type RedemptionConfig struct {
	// Workers bounds concurrent holder-signed offer cancellations.
	Workers int `toml:"workers" mapstructure:"workers"`
	// CacheSize is the number of role bindings kept in memory.
	CacheSize int `toml:"cache_size" mapstructure:"cache_size"`
}

// SchedulerConfig represents the [scheduler] section
// Controls the periodic bond maturity sweep
type SchedulerConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Spec    string `toml:"spec" mapstructure:"spec"`
}

// Validate performs validation on the redemption configuration
func (r *RedemptionConfig) Validate() error {
	if r.Workers < 1 || r.Workers > 64 {
		return fmt.Errorf("workers must be between 1 and 64, got %d", r.Workers)
	}
	if r.CacheSize < 1 {
		return fmt.Errorf("cache_size must be positive, got %d", r.CacheSize)
	}
	return nil
}

// Validate performs validation on the scheduler configuration
func (s *SchedulerConfig) Validate() error {
	if !s.Enabled && s.Spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(s.Spec); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.Spec, err)
	}
	return nil
}
