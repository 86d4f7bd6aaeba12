// Package config provides Viper-based hierarchical configuration management.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Matching struct {
		FuzzyTokenCap      int `mapstructure:"fuzzy_token_cap" yaml:"fuzzy_token_cap"`
		CounterpartyHitCap int `mapstructure:"counterparty_hit_cap" yaml:"counterparty_hit_cap"`
	} `mapstructure:"matching" yaml:"matching"`

	Distribution struct {
		ObligationFetchCap int `mapstructure:"obligation_fetch_cap" yaml:"obligation_fetch_cap"`
	} `mapstructure:"distribution" yaml:"distribution"`

	Store struct {
		PortfoliosFile string `mapstructure:"portfolios_file" yaml:"portfolios_file"`
		FormatsFile    string `mapstructure:"formats_file" yaml:"formats_file"`
	} `mapstructure:"store" yaml:"store"`
}

// AITimeout returns the configured AI request timeout as a duration.
func (c *Config) AITimeout() time.Duration {
	if c.AI.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// InitializeConfig initializes Viper configuration with hierarchical loading:
// defaults, then an optional config file, then environment variables.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.statements")
	v.AddConfigPath(".statements")
	v.AddConfigPath(".")

	v.SetEnvPrefix("STATEMENTS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log and continue with defaults and env vars.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// API key always comes from the environment, never from a file.
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	v.SetDefault("matching.fuzzy_token_cap", 3)
	v.SetDefault("matching.counterparty_hit_cap", 5)

	v.SetDefault("distribution.obligation_fetch_cap", 25)

	v.SetDefault("store.portfolios_file", "portfolios.yaml")
	v.SetDefault("store.formats_file", "formats.yaml")
}

// validateConfig checks configuration values for consistency.
func validateConfig(c *Config) error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level: %s", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unknown log format: %s", c.Log.Format)
	}
	if c.Matching.FuzzyTokenCap <= 0 || c.Matching.CounterpartyHitCap <= 0 {
		return fmt.Errorf("matching caps must be positive")
	}
	if c.Distribution.ObligationFetchCap <= 0 {
		return fmt.Errorf("distribution.obligation_fetch_cap must be positive")
	}
	return nil
}
