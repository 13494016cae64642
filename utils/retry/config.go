package retry

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMaxRetries   = 3
	DefaultInitialDelay = 1000 * time.Millisecond
	DefaultMaxDelay     = 60000 * time.Millisecond // 1 minute
	DefaultJitterFactor = 0.1
)

// Environment variables read by FromEnv
const (
	EnvMaxRetries     = "ANTHROPIC_MAX_RETRIES"
	EnvInitialDelayMs = "ANTHROPIC_INITIAL_DELAY_MS"
	EnvMaxDelayMs     = "ANTHROPIC_MAX_DELAY_MS"
	EnvJitterFactor   = "ANTHROPIC_JITTER_FACTOR"
	EnvLogRateLimits  = "ANTHROPIC_LOG_RATE_LIMITS"
)

var ErrInvalidConfig = errors.New("invalid retry config")

// Config is the retry policy for one orchestrated call.
type Config struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	JitterFactor  float64
	LogRateLimits bool
}

// LookupFunc matches os.LookupEnv
type LookupFunc func(key string) (string, bool)

// fileConfig mirrors Config for YAML documents. Pointers tell unset keys apart.
type fileConfig struct {
	MaxRetries     *int     `yaml:"max_retries"`
	InitialDelayMs *int64   `yaml:"initial_delay_ms"`
	MaxDelayMs     *int64   `yaml:"max_delay_ms"`
	JitterFactor   *float64 `yaml:"jitter_factor"`
	LogRateLimits  *bool    `yaml:"log_rate_limits"`
}

// DefaultConfig returns the default retry policy
func DefaultConfig() Config {
	return Config{
		MaxRetries:    DefaultMaxRetries,
		InitialDelay:  DefaultInitialDelay,
		MaxDelay:      DefaultMaxDelay,
		JitterFactor:  DefaultJitterFactor,
		LogRateLimits: true,
	}
}

// MaxAttempts returns the total number of attempts allowed, first one included
func (c Config) MaxAttempts() int {
	return c.MaxRetries + 1
}

// Validate checks the invariants of the policy
func (c Config) Validate() error {
	switch {
	case c.MaxRetries < 0:
		return fmt.Errorf("%w: max retries must be non-negative, got %d", ErrInvalidConfig, c.MaxRetries)
	case c.InitialDelay <= 0:
		return fmt.Errorf("%w: initial delay must be positive, got %s", ErrInvalidConfig, c.InitialDelay)
	case c.MaxDelay <= 0:
		return fmt.Errorf("%w: max delay must be positive, got %s", ErrInvalidConfig, c.MaxDelay)
	case c.MaxDelay < c.InitialDelay:
		return fmt.Errorf("%w: max delay %s is below initial delay %s", ErrInvalidConfig, c.MaxDelay, c.InitialDelay)
	case c.JitterFactor < 0 || c.JitterFactor >= 1:
		return fmt.Errorf("%w: jitter factor must be in [0,1), got %v", ErrInvalidConfig, c.JitterFactor)
	}
	return nil
}

// FromEnv overlays the ANTHROPIC_* environment variables onto base.
// A nil lookup uses os.LookupEnv.
func FromEnv(base Config, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := base
	if v, ok := nonEmpty(lookup, EnvMaxRetries); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("parse %s: %w", EnvMaxRetries, err)
		}
		cfg.MaxRetries = n
	}
	if v, ok := nonEmpty(lookup, EnvInitialDelayMs); ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return base, fmt.Errorf("parse %s: %w", EnvInitialDelayMs, err)
		}
		cfg.InitialDelay = time.Duration(ms) * time.Millisecond
	}
	if v, ok := nonEmpty(lookup, EnvMaxDelayMs); ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return base, fmt.Errorf("parse %s: %w", EnvMaxDelayMs, err)
		}
		cfg.MaxDelay = time.Duration(ms) * time.Millisecond
	}
	if v, ok := nonEmpty(lookup, EnvJitterFactor); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return base, fmt.Errorf("parse %s: %w", EnvJitterFactor, err)
		}
		cfg.JitterFactor = f
	}
	// Logging stays on unless explicitly disabled
	if v, ok := lookup(EnvLogRateLimits); ok {
		cfg.LogRateLimits = v != "false"
	}

	return cfg, nil
}

// LoadFile overlays a YAML config file onto base
func LoadFile(base Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return base, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg := base
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.InitialDelayMs != nil {
		cfg.InitialDelay = time.Duration(*fc.InitialDelayMs) * time.Millisecond
	}
	if fc.MaxDelayMs != nil {
		cfg.MaxDelay = time.Duration(*fc.MaxDelayMs) * time.Millisecond
	}
	if fc.JitterFactor != nil {
		cfg.JitterFactor = *fc.JitterFactor
	}
	if fc.LogRateLimits != nil {
		cfg.LogRateLimits = *fc.LogRateLimits
	}
	return cfg, nil
}

// Resolve builds the policy from defaults, the optional file at path and the environment,
// in that order of precedence, and validates the result.
func Resolve(path string, lookup LookupFunc) (Config, error) {
	cfg := DefaultConfig()

	var err error
	if path != "" {
		if cfg, err = LoadFile(cfg, path); err != nil {
			return Config{}, err
		}
	}
	if cfg, err = FromEnv(cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// MarshalYAML renders the policy in the file format read by LoadFile
func (c Config) MarshalYAML() (any, error) {
	initial := c.InitialDelay.Milliseconds()
	maxDelay := c.MaxDelay.Milliseconds()
	return fileConfig{
		MaxRetries:     &c.MaxRetries,
		InitialDelayMs: &initial,
		MaxDelayMs:     &maxDelay,
		JitterFactor:   &c.JitterFactor,
		LogRateLimits:  &c.LogRateLimits,
	}, nil
}

func nonEmpty(lookup LookupFunc, key string) (string, bool) {
	v, ok := lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}
