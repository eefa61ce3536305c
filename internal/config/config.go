// Package config loads docreview settings from ~/.docreview/config.yaml,
// an optional .env file and DOCREVIEW_* environment variables, in that
// order of increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "DOCREVIEW_"

// Config is the complete docreview configuration
type Config struct {
	API         APIConfig         `yaml:"api" envPrefix:"API_"`
	Credentials CredentialsConfig `yaml:"credentials" envPrefix:"CREDENTIALS_"`
	Defaults    DefaultsConfig    `yaml:"defaults" envPrefix:"DEFAULTS_"`
	Logging     LoggingConfig     `yaml:"logging" envPrefix:"LOG_"`
	Telemetry   TelemetryConfig   `yaml:"telemetry" envPrefix:"TELEMETRY_"`
}

// APIConfig configures the document API client.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst     int     `yaml:"burst" env:"BURST"`

	Breaker         bool          `yaml:"breaker" env:"BREAKER"`
	BreakerFailures uint32        `yaml:"breaker_failures" env:"BREAKER_FAILURES"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout" env:"BREAKER_TIMEOUT"`
}

// CredentialsConfig selects where the token and cached profile live.
type CredentialsConfig struct {
	Backend     string `yaml:"backend" env:"BACKEND"` // "file", "memory", "redis"
	Path        string `yaml:"path,omitempty" env:"PATH"`
	RedisAddr   string `yaml:"redis_addr,omitempty" env:"REDIS_ADDR"`
	RedisPrefix string `yaml:"redis_prefix,omitempty" env:"REDIS_PREFIX"`
}

// DefaultsConfig holds listing defaults.
type DefaultsConfig struct {
	PageSize int    `yaml:"page_size" env:"PAGE_SIZE"`
	Sort     string `yaml:"sort" env:"SORT"`
}

// LoggingConfig configures internal/log.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" env:"FORMAT"` // "text", "json"
}

// TelemetryConfig configures tracing.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" env:"ENABLED"`
	ServiceName string  `yaml:"service_name" env:"SERVICE_NAME"`
	Endpoint    string  `yaml:"endpoint,omitempty" env:"ENDPOINT"`
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// Dir returns ~/.docreview.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".docreview"), nil
}

// DefaultPath returns ~/.docreview/config.yaml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg := &Config{
		API: APIConfig{
			BaseURL:         "http://localhost:3000",
			Timeout:         30 * time.Second,
			Burst:           1,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Credentials: CredentialsConfig{
			Backend:     "file",
			RedisPrefix: "docreview:",
		},
		Defaults: DefaultsConfig{
			PageSize: 10,
			Sort:     "name,asc",
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "docreview",
			SampleRate:  1.0,
		},
	}
	if dir, err := Dir(); err == nil {
		cfg.Credentials.Path = filepath.Join(dir, "credentials.json")
	}
	return cfg
}

// Sanitize applies guardrails to values loaded from file or environment.
func (c *Config) Sanitize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.Timeout <= 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.API.RateLimit < 0 {
		c.API.RateLimit = 0
	}
	if c.API.Burst < 1 {
		c.API.Burst = 1
	}
	if c.API.BreakerFailures == 0 {
		c.API.BreakerFailures = 5
	}
	if c.API.BreakerTimeout <= 0 {
		c.API.BreakerTimeout = 30 * time.Second
	}

	c.Credentials.Backend = strings.ToLower(strings.TrimSpace(c.Credentials.Backend))
	if c.Credentials.Backend == "" {
		c.Credentials.Backend = "file"
	}

	if c.Defaults.PageSize < 1 {
		c.Defaults.PageSize = 10
	}
	if c.Defaults.PageSize > 100 {
		c.Defaults.PageSize = 100
	}
	if strings.TrimSpace(c.Defaults.Sort) == "" {
		c.Defaults.Sort = "name,asc"
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = "warn"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "docreview"
	}
	if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
		c.Telemetry.SampleRate = 1.0
	}
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("api.base_url %q is not an http(s) URL", c.API.BaseURL)).
			WithSuggestion("Run 'docreview config set api.base_url https://api.example.com'")
	}

	switch c.Credentials.Backend {
	case "file":
		if c.Credentials.Path == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "credentials.path is required for the file backend")
		}
	case "memory":
	case "redis":
		if c.Credentials.RedisAddr == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "credentials.redis_addr is required for the redis backend").
				WithSuggestion("Set DOCREVIEW_CREDENTIALS_REDIS_ADDR=localhost:6379")
		}
	default:
		return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown credentials backend %q", c.Credentials.Backend)).
			WithSuggestion("Use one of: file, memory, redis")
	}
	return nil
}
