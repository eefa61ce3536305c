package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// LoadOptions controls where Load reads from.
type LoadOptions struct {
	// Path of the YAML file; empty means DefaultPath. A missing file is
	// not an error.
	Path string

	// DotEnv files to load before reading the environment. Missing files
	// are skipped.
	DotEnv []string

	// Environment replaces the process environment when non-nil.
	Environment map[string]string
}

// Load builds the configuration: defaults, then the YAML file, then the
// environment. The result is sanitized and validated.
func Load(opts LoadOptions) (*Config, error) {
	path := opts.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}

	if len(opts.DotEnv) > 0 {
		if err := godotenv.Load(opts.DotEnv...); err != nil {
			var pathErr *os.PathError
			if !stderrors.As(err, &pathErr) {
				return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to load .env file", err)
			}
		}
	}

	envOpts := env.Options{Prefix: EnvPrefix}
	if opts.Environment != nil {
		envOpts.Environment = opts.Environment
	}
	if err := env.ParseWithOptions(cfg, envOpts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, "failed to parse environment", err)
	}

	cfg.Sanitize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read config", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("failed to parse %s", path), err).
			WithSuggestion("Fix the YAML syntax or delete the file to start from defaults")
	}
	return nil
}

// ReadFile returns the file configuration over the defaults, without the
// environment overlay. Used by 'config set' so env values are never
// written back.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	if err := readFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to create config directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write config", err)
	}
	return nil
}
