// Package config loads client settings from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/gigas/internal/api"
)

// Environment variables recognized by Load. Credentials usually arrive this
// way so they stay out of config files and shell history.
const (
	EnvEndpoint = "GIGAS_API_ENDPOINT"
	EnvUser     = "GIGAS_API_USER"
	EnvPassword = "GIGAS_API_PASSWORD"
)

// Config holds the client's runtime settings.
type Config struct {
	Endpoint string `yaml:"endpoint"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`

	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	PollIntervalSeconds   int `yaml:"poll_interval_seconds"`
	MaxPollAttempts       int `yaml:"max_poll_attempts"`

	MetricsAddr string `yaml:"metrics_addr,omitempty"` // Listen address for /metrics (default: disabled)
	NATSURL     string `yaml:"nats_url,omitempty"`     // NATS server for lifecycle events (default: disabled)
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Endpoint:              api.DefaultEndpoint,
		RequestTimeoutSeconds: 30,
		PollIntervalSeconds:   5,
		MaxPollAttempts:       24,
	}
}

// Load builds the effective configuration: defaults, overlaid by the YAML
// file at path when one is given, overlaid by environment variables. The
// result is normalized but not validated; callers apply their own overrides
// (flags) first and then call Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Unmarshal overlays only the fields present in the file.
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if v := os.Getenv(EnvEndpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv(EnvUser); v != "" {
		cfg.User = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		cfg.Password = v
	}

	cfg.Normalize()
	return &cfg, nil
}

// Normalize sanitizes user input to consistent formats.
func (c *Config) Normalize() {
	c.Endpoint = strings.TrimSpace(c.Endpoint)
	c.User = strings.TrimSpace(c.User)
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	c.NATSURL = strings.TrimSpace(c.NATSURL)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("endpoint is required")
	}
	if c.User == "" {
		return fmt.Errorf("user is required (set %s)", EnvUser)
	}
	if c.Password == "" {
		return fmt.Errorf("password is required (set %s)", EnvPassword)
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("request_timeout_seconds must be > 0, got %d", c.RequestTimeoutSeconds)
	}
	if c.PollIntervalSeconds <= 0 {
		return fmt.Errorf("poll_interval_seconds must be > 0, got %d", c.PollIntervalSeconds)
	}
	if c.MaxPollAttempts <= 0 {
		return fmt.Errorf("max_poll_attempts must be > 0, got %d", c.MaxPollAttempts)
	}
	return nil
}

// RequestTimeout returns the per-request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// PollInterval returns the transaction poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}
