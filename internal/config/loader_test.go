package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/matchgate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.Provider, convey.ShouldEqual, config.ProviderOpenAI)
				convey.So(cfg.MaxRetries, convey.ShouldEqual, 3)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "")
			})
		})

		convey.Convey("When the bare OPENAI_API_KEY is set", func() {
			_ = os.Setenv("OPENAI_API_KEY", "sk-bare")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it lands in the config", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-bare")
			})

			convey.Convey("And the prefixed variable overrides it", func() {
				_ = os.Setenv("MATCHGATE_OPENAI_API_KEY", "sk-prefixed")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-prefixed")
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MATCHGATE_ADDR", ":8080")
			_ = os.Setenv("MATCHGATE_PROVIDER", "Gemini")
			_ = os.Setenv("MATCHGATE_MODEL", "gemini-2.5-flash")
			_ = os.Setenv("MATCHGATE_MAX_RETRIES", "5")
			_ = os.Setenv("MATCHGATE_TEMPERATURE", "0.4")
			_ = os.Setenv("MATCHGATE_BACKOFF_BASE_MS", "250")
			_ = os.Setenv("MATCHGATE_ATTEMPT_TIMEOUT_MS", "1000")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Provider, convey.ShouldEqual, config.ProviderGemini)
				convey.So(cfg.Model, convey.ShouldEqual, "gemini-2.5-flash")
				convey.So(cfg.MaxRetries, convey.ShouldEqual, 5)
				convey.So(cfg.Temperature, convey.ShouldEqual, 0.4)
				convey.So(cfg.BackoffBaseMS, convey.ShouldEqual, 250)
				convey.So(cfg.AttemptTimeoutMS, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
provider: openai
base_url: "http://localhost:4010/v1"
model: gpt-4o-mini
max_retries: 4
backoff_jitter_ms: 100
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MATCHGATE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.BaseURL, convey.ShouldEqual, "http://localhost:4010/v1")
				convey.So(cfg.Model, convey.ShouldEqual, "gpt-4o-mini")
				convey.So(cfg.MaxRetries, convey.ShouldEqual, 4)
				convey.So(cfg.BackoffJitterMS, convey.ShouldEqual, 100)
				convey.So(cfg.BackoffBaseMS, convey.ShouldEqual, 1000) // From defaults
			})

			convey.Convey("And environment variables should override file values", func() {
				_ = os.Setenv("MATCHGATE_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.MaxRetries, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("MATCHGATE_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("MATCHGATE_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("MATCHGATE_MAX_RETRIES", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidation(t *testing.T) {
	convey.Convey("Given invalid settings", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		cases := map[string]string{
			"MATCHGATE_ADDR":               "",
			"MATCHGATE_PROVIDER":           "anthropic",
			"MATCHGATE_MAX_RETRIES":        "0",
			"MATCHGATE_TEMPERATURE":        "3",
			"MATCHGATE_BACKOFF_BASE_MS":    "-1",
			"MATCHGATE_REQUEST_TIMEOUT_MS": "0",
			"MATCHGATE_LOG_FORMAT":         "xml",
			"MATCHGATE_BASE_URL":           "",
		}

		for key, value := range cases {
			_ = os.Setenv(key, value)
			cfg, err := config.Load(ctx)
			_ = os.Unsetenv(key)

			convey.So(cfg, convey.ShouldBeNil)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Given max_retries above the limit", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()
		_ = os.Setenv("MATCHGATE_MAX_RETRIES", "40")

		cfg, err := config.Load(context.Background())

		convey.So(cfg, convey.ShouldBeNil)
		convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)

		_ = os.Setenv("MATCHGATE_MAX_RETRIES", "10")
		cfg, err = config.Load(context.Background())
		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.MaxRetries, convey.ShouldEqual, 10)
	})

	convey.Convey("Given an empty base url with the gemini provider", t, func() {
		clearConfigEnvVars()
		defer clearConfigEnvVars()
		_ = os.Setenv("MATCHGATE_PROVIDER", "gemini")
		_ = os.Setenv("MATCHGATE_BASE_URL", "")

		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Provider, convey.ShouldEqual, config.ProviderGemini)
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MATCHGATE_CONFIG",
		"MATCHGATE_ADDR",
		"MATCHGATE_PROVIDER",
		"MATCHGATE_MODEL",
		"MATCHGATE_BASE_URL",
		"MATCHGATE_MAX_RETRIES",
		"MATCHGATE_TEMPERATURE",
		"MATCHGATE_BACKOFF_BASE_MS",
		"MATCHGATE_BACKOFF_JITTER_MS",
		"MATCHGATE_ATTEMPT_TIMEOUT_MS",
		"MATCHGATE_REQUEST_TIMEOUT_MS",
		"MATCHGATE_LOG_FORMAT",
		"MATCHGATE_OPENAI_API_KEY",
		"OPENAI_API_KEY",
		"OPENAI_API_KEY_FILE",
		"GEMINI_API_KEY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "matchgate-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
