package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/docreview/internal/errors"
)

// Keys lists every dotted key accepted by Get and Set.
func Keys() []string {
	return []string{
		"api.base_url",
		"api.timeout",
		"api.rate_limit",
		"api.burst",
		"api.breaker",
		"api.breaker_failures",
		"api.breaker_timeout",
		"credentials.backend",
		"credentials.path",
		"credentials.redis_addr",
		"credentials.redis_prefix",
		"defaults.page_size",
		"defaults.sort",
		"logging.level",
		"logging.format",
		"telemetry.enabled",
		"telemetry.service_name",
		"telemetry.endpoint",
		"telemetry.sample_rate",
	}
}

// Get retrieves a value using dot notation
func (c *Config) Get(key string) (string, error) {
	switch strings.ToLower(key) {
	case "api.base_url":
		return c.API.BaseURL, nil
	case "api.timeout":
		return c.API.Timeout.String(), nil
	case "api.rate_limit":
		return strconv.FormatFloat(c.API.RateLimit, 'f', -1, 64), nil
	case "api.burst":
		return strconv.Itoa(c.API.Burst), nil
	case "api.breaker":
		return strconv.FormatBool(c.API.Breaker), nil
	case "api.breaker_failures":
		return strconv.FormatUint(uint64(c.API.BreakerFailures), 10), nil
	case "api.breaker_timeout":
		return c.API.BreakerTimeout.String(), nil
	case "credentials.backend":
		return c.Credentials.Backend, nil
	case "credentials.path":
		return c.Credentials.Path, nil
	case "credentials.redis_addr":
		return c.Credentials.RedisAddr, nil
	case "credentials.redis_prefix":
		return c.Credentials.RedisPrefix, nil
	case "defaults.page_size":
		return strconv.Itoa(c.Defaults.PageSize), nil
	case "defaults.sort":
		return c.Defaults.Sort, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "telemetry.enabled":
		return strconv.FormatBool(c.Telemetry.Enabled), nil
	case "telemetry.service_name":
		return c.Telemetry.ServiceName, nil
	case "telemetry.endpoint":
		return c.Telemetry.Endpoint, nil
	case "telemetry.sample_rate":
		return strconv.FormatFloat(c.Telemetry.SampleRate, 'f', -1, 64), nil
	default:
		return "", unknownKey(key)
	}
}

// Set assigns a value using dot notation
func (c *Config) Set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.timeout":
		c.API.Timeout, err = time.ParseDuration(value)
	case "api.rate_limit":
		c.API.RateLimit, err = strconv.ParseFloat(value, 64)
	case "api.burst":
		c.API.Burst, err = strconv.Atoi(value)
	case "api.breaker":
		c.API.Breaker, err = strconv.ParseBool(value)
	case "api.breaker_failures":
		var n uint64
		n, err = strconv.ParseUint(value, 10, 32)
		c.API.BreakerFailures = uint32(n)
	case "api.breaker_timeout":
		c.API.BreakerTimeout, err = time.ParseDuration(value)
	case "credentials.backend":
		c.Credentials.Backend = value
	case "credentials.path":
		c.Credentials.Path = value
	case "credentials.redis_addr":
		c.Credentials.RedisAddr = value
	case "credentials.redis_prefix":
		c.Credentials.RedisPrefix = value
	case "defaults.page_size":
		c.Defaults.PageSize, err = strconv.Atoi(value)
	case "defaults.sort":
		c.Defaults.Sort = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "telemetry.enabled":
		c.Telemetry.Enabled, err = strconv.ParseBool(value)
	case "telemetry.service_name":
		c.Telemetry.ServiceName = value
	case "telemetry.endpoint":
		c.Telemetry.Endpoint = value
	case "telemetry.sample_rate":
		c.Telemetry.SampleRate, err = strconv.ParseFloat(value, 64)
	default:
		return unknownKey(key)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("invalid value %q for %s", value, key), err)
	}
	return nil
}

func unknownKey(key string) error {
	return errors.New(errors.ErrCodeConfigInvalid, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Run 'docreview config view' to list the available keys")
}
