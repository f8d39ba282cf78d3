package config

import (
	"time"

	"github.com/s0up4200/tokenmgmt/api"
)

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Presets PresetConfig  `mapstructure:"presets"`
}

// APIConfig holds the Token Management API connection details
type APIConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	AccessToken  string        `mapstructure:"access_token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	VerifySSL    bool          `mapstructure:"verify_ssl"`
}

// Gateway converts the connection settings to an api.Config
func (c APIConfig) Gateway() api.Config {
	return api.Config{
		BaseURL:       c.BaseURL,
		ClientID:      c.ClientID,
		ClientSecret:  c.ClientSecret,
		Timeout:       c.Timeout,
		SkipTLSVerify: !c.VerifySSL,
	}
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// MetricsConfig controls the metrics endpoint served by the watch command
type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// WatchConfig contains defaults for the watch command
type WatchConfig struct {
	Locations   []int64       `mapstructure:"locations"`
	Interval    time.Duration `mapstructure:"interval"`
	Concurrency int           `mapstructure:"concurrency"`
}

// PresetConfig maps preset names to filter expressions. Names are
// lowercased when loaded.
type PresetConfig map[string]string
