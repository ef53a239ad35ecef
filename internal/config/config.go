// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"context"
	"time"
)

// Supported upstream providers.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Provider selects the upstream completion backend: openai or gemini.
	Provider string `koanf:"provider"`

	// Model is the upstream model name. Empty picks the provider default.
	Model string `koanf:"model"`

	// BaseURL is the OpenAI-compatible API root, e.g. https://api.openai.com/v1.
	BaseURL string `koanf:"base_url"`

	// OpenAIAPIKey and OpenAIAPIKeyFile supply the OpenAI secret.
	// The file wins when both are set.
	OpenAIAPIKey     string `koanf:"openai_api_key"`
	OpenAIAPIKeyFile string `koanf:"openai_api_key_file"`

	// GeminiAPIKey and GeminiAPIKeyFile supply the Gemini secret.
	GeminiAPIKey     string `koanf:"gemini_api_key"`
	GeminiAPIKeyFile string `koanf:"gemini_api_key_file"`

	// Temperature is sent with every completion request.
	Temperature float64 `koanf:"temperature"`

	// MaxRetries is the number of attempts made while upstream answers 429.
	MaxRetries int `koanf:"max_retries"`

	// BackoffBaseMS and BackoffJitterMS shape the wait between attempts:
	// 2^attempt * base + rand[0, jitter).
	BackoffBaseMS   int `koanf:"backoff_base_ms"`
	BackoffJitterMS int `koanf:"backoff_jitter_ms"`

	// AttemptTimeoutMS bounds a single upstream attempt.
	AttemptTimeoutMS int `koanf:"attempt_timeout_ms"`

	// RequestTimeoutMS bounds a whole scoring request including backoff.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Provider:         ProviderOpenAI,
		Model:            "",
		BaseURL:          "https://api.openai.com/v1",
		Temperature:      0.2,
		MaxRetries:       3,
		BackoffBaseMS:    1000,
		BackoffJitterMS:  500,
		AttemptTimeoutMS: 30_000,
		RequestTimeoutMS: 120_000,
	}
}

// APIKey returns the inline key of the selected provider.
func (c *Config) APIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// APIKeyName names the secret of the selected provider for error messages.
func (c *Config) APIKeyName() string {
	if c.Provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "OPENAI_API_KEY"
}

// BackoffBase returns the exponential backoff base as a duration.
func (c *Config) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMS) * time.Millisecond
}

// BackoffJitter returns the jitter ceiling as a duration.
func (c *Config) BackoffJitter() time.Duration {
	return time.Duration(c.BackoffJitterMS) * time.Millisecond
}

// AttemptTimeout returns the per-attempt deadline.
func (c *Config) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutMS) * time.Millisecond
}

// RequestTimeout returns the whole-request deadline.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
