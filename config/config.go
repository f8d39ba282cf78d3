package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides, e.g. TOKENMGMT_API_BASE_URL
const EnvPrefix = "TOKENMGMT"

// Load reads configuration from configPath, or from tokenmgmt.{yaml,toml,json}
// in the standard locations when configPath is empty. A missing file is only
// an error when configPath was given. Environment variables override the
// file; overrides (typically command-line flags) override both.
func Load(configPath string, overrides map[string]any) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("tokenmgmt")

		// Check current directory first
		v.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".tokenmgmt"))
		}

		v.AddConfigPath("/etc/tokenmgmt/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values. Every key gets a default so
// that environment overrides are picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.client_id", "")
	v.SetDefault("api.client_secret", "")
	v.SetDefault("api.access_token", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.verify_ssl", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	// Metrics and watch defaults
	v.SetDefault("metrics.listen", "127.0.0.1:9310")
	v.SetDefault("watch.locations", []int64{})
	v.SetDefault("watch.interval", "10s")
	v.SetDefault("watch.concurrency", 4)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %s", cfg.API.Timeout)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	if cfg.Watch.Interval <= 0 {
		return fmt.Errorf("watch.interval must be positive, got %s", cfg.Watch.Interval)
	}
	if cfg.Watch.Concurrency < 1 {
		return fmt.Errorf("watch.concurrency must be at least 1, got %d", cfg.Watch.Concurrency)
	}

	for name, expression := range cfg.Presets {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("preset %q has an empty expression", name)
		}
	}

	return nil
}
