package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every matchgate environment variable.
const EnvPrefix = "MATCHGATE_"

// MaxRetriesLimit bounds max_retries.
const MaxRetriesLimit = 10

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if MATCHGATE_CONFIG is set
//  3. bare provider secrets: OPENAI_API_KEY, GEMINI_API_KEY (and their _FILE forms)
//  4. env (prefix MATCHGATE_)
//
// A missing API key is not a load error; callers resolve it once at startup
// with ResolveAPIKey.
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// OPENAI_API_KEY -> openai_api_key, OPENAI_API_KEY_FILE -> openai_api_key_file
	for _, prefix := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY"} {
		if err := k.Load(env.Provider(prefix, ".", strings.ToLower), nil); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// MATCHGATE_MAX_RETRIES -> max_retries. Underscores are preserved to
	// match the flat koanf tags on the struct.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural settings. Secrets are checked separately.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Provider != ProviderOpenAI && c.Provider != ProviderGemini:
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, c.Provider)
	case c.Provider == ProviderOpenAI && strings.TrimSpace(c.BaseURL) == "":
		return fmt.Errorf("%w: base_url must not be empty", ErrInvalidConfig)
	case c.MaxRetries < 1 || c.MaxRetries > MaxRetriesLimit:
		return fmt.Errorf("%w: max_retries must be within [1, %d]", ErrInvalidConfig, MaxRetriesLimit)
	case c.Temperature < 0 || c.Temperature > 2:
		return fmt.Errorf("%w: temperature must be within [0, 2]", ErrInvalidConfig)
	case c.BackoffBaseMS < 0 || c.BackoffJitterMS < 0:
		return fmt.Errorf("%w: backoff settings must not be negative", ErrInvalidConfig)
	case c.AttemptTimeoutMS <= 0 || c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: timeouts must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
