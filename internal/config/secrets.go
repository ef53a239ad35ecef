package config

import (
	"fmt"
	"os"
	"strings"
)

// SecretSource describes how to load a secret value.
type SecretSource struct {
	// Name is used in error messages, e.g. OPENAI_API_KEY.
	Name string
	// Value is an inline secret from configuration or env.
	Value string
	// File points to a file holding the secret. It takes precedence over Value.
	File string
}

// LoadSecret resolves src to a trimmed secret. A missing secret yields an
// error wrapping ErrMissingSecret whose text is "<name> is not configured".
func LoadSecret(src SecretSource) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("%w: reading %s from file %q: %w", ErrLoadConfig, name, file, err)
		}
		src.Value = string(data)
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", &missingSecretError{name: name}
	}

	return secret, nil
}

type missingSecretError struct {
	name string
}

func (e *missingSecretError) Error() string { return e.name + " is not configured" }

func (e *missingSecretError) Unwrap() error { return ErrMissingSecret }

// ResolveAPIKey loads the secret of the selected provider. The returned error
// is meant to be surfaced once at startup, not per request.
func (c *Config) ResolveAPIKey() (string, error) {
	src := SecretSource{Name: c.APIKeyName(), Value: c.OpenAIAPIKey, File: c.OpenAIAPIKeyFile}
	if c.Provider == ProviderGemini {
		src = SecretSource{Name: c.APIKeyName(), Value: c.GeminiAPIKey, File: c.GeminiAPIKeyFile}
	}
	return LoadSecret(src)
}
