package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration from multiple sources in priority order:
// 1. Default values
// 2. Configuration file (rwa.toml, or any format viper reads)
// 3. Environment variables (RWA_ prefix, RWA_LEDGER_URL for ledger.url)
//
// An empty path searches the working directory and $HOME/.rwa and carries on
// with defaults when no file is found. An explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults first
	setDefaults(v)

	// 2. Load the configuration file
	used, err := loadMainConfig(v, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load main config: %w", err)
	}

	// 3. Set up environment variable support
	v.SetEnvPrefix("RWA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Unmarshal into struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.configPath = used

	// 5. Validate the complete configuration
	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// loadMainConfig reads the configuration file and returns the path used.
func loadMainConfig(v *viper.Viper, configPath string) (string, error) {
	if configPath == "" {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.rwa")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return "", nil
			}
			return "", fmt.Errorf("failed to read config file: %w", err)
		}
		return v.ConfigFileUsed(), nil
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}
	return configPath, nil
}
