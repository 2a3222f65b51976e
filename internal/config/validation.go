package config

import (
	"fmt"
)

// ValidateConfig performs comprehensive validation on the complete configuration
func ValidateConfig(config *Config) error {
	if err := config.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger validation failed: %w", err)
	}

	if err := config.Funding.Validate(); err != nil {
		return fmt.Errorf("funding validation failed: %w", err)
	}

	if err := config.Store.Validate(); err != nil {
		return fmt.Errorf("store validation failed: %w", err)
	}

	if err := config.Redemption.Validate(); err != nil {
		return fmt.Errorf("redemption validation failed: %w", err)
	}

	if err := config.Scheduler.Validate(); err != nil {
		return fmt.Errorf("scheduler validation failed: %w", err)
	}

	// Cross-validation checks
	if config.DataDir == "" && config.Store.Path == "" &&
		config.Store.Driver != "postgres" {
		return fmt.Errorf("data_dir or store.path is required for the %s store", config.Store.Driver)
	}

	return nil
}

// containsSlice reports whether slice contains item.
func containsSlice(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
