package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/matchgate/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.Provider, convey.ShouldEqual, config.ProviderOpenAI)
			convey.So(cfg.Temperature, convey.ShouldEqual, 0.2)
			convey.So(cfg.MaxRetries, convey.ShouldEqual, 3)
			convey.So(cfg.BackoffBase(), convey.ShouldEqual, time.Second)
			convey.So(cfg.BackoffJitter(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.AttemptTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.RequestTimeout(), convey.ShouldEqual, 2*time.Minute)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the key name follows the provider", func() {
			convey.So(cfg.APIKeyName(), convey.ShouldEqual, "OPENAI_API_KEY")
			cfg.Provider = config.ProviderGemini
			convey.So(cfg.APIKeyName(), convey.ShouldEqual, "GEMINI_API_KEY")
		})
	})
}

func TestResolveAPIKey(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When no key is set", func() {
			_, err := cfg.ResolveAPIKey()

			convey.Convey("Then it reports the missing key by name", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrMissingSecret), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldEqual, "OPENAI_API_KEY is not configured")
			})
		})

		convey.Convey("When an inline key is padded with whitespace", func() {
			cfg.OpenAIAPIKey = "  sk-inline \n"
			key, err := cfg.ResolveAPIKey()

			convey.Convey("Then it is trimmed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(key, convey.ShouldEqual, "sk-inline")
			})
		})

		convey.Convey("When a key file is set alongside an inline key", func() {
			path := filepath.Join(t.TempDir(), "key")
			convey.So(os.WriteFile(path, []byte("sk-from-file\n"), 0o600), convey.ShouldBeNil)
			cfg.OpenAIAPIKey = "sk-inline"
			cfg.OpenAIAPIKeyFile = path
			key, err := cfg.ResolveAPIKey()

			convey.Convey("Then the file wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(key, convey.ShouldEqual, "sk-from-file")
			})
		})

		convey.Convey("When the key file is empty", func() {
			path := filepath.Join(t.TempDir(), "empty")
			convey.So(os.WriteFile(path, []byte("  "), 0o600), convey.ShouldBeNil)
			cfg.OpenAIAPIKeyFile = path
			_, err := cfg.ResolveAPIKey()

			convey.Convey("Then it is reported as missing", func() {
				convey.So(errors.Is(err, config.ErrMissingSecret), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the key file does not exist", func() {
			cfg.OpenAIAPIKeyFile = "/non/existent/key"
			_, err := cfg.ResolveAPIKey()

			convey.Convey("Then it is a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the gemini provider is selected", func() {
			cfg.Provider = config.ProviderGemini
			cfg.OpenAIAPIKey = "sk-openai"
			cfg.GeminiAPIKey = "gm-key"
			key, err := cfg.ResolveAPIKey()

			convey.Convey("Then the gemini key is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(key, convey.ShouldEqual, "gm-key")
			})
		})
	})
}
