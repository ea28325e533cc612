package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"TIMEPIECE_SERVER_PORT",
	"TIMEPIECE_SERVER_ENVIRONMENT",
	"TIMEPIECE_WEBSITE_BASE_URL",
	"TIMEPIECE_WEBSITE_FETCH_TIMEOUT",
	"TIMEPIECE_WEBSITE_SEARCH_TIMEOUT",
	"TIMEPIECE_WEBSITE_REQUESTS_PER_SECOND",
	"TIMEPIECE_WEBSITE_MAX_RETRIES",
	"TIMEPIECE_CATALOG_TTL",
	"TIMEPIECE_CLASSIFIER_API_KEY",
	"TIMEPIECE_CLASSIFIER_MODEL",
	"TIMEPIECE_CLASSIFIER_CACHE_TTL",
	"TIMEPIECE_LOGGING_LEVEL",
}

// clearEnv unsets every config variable for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		if value, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, value) })
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "5000", cfg.Server.Port)
		assert.Equal(t, "development", cfg.Server.Environment)
		assert.Equal(t, "https://timepiece.cartpe.in", cfg.Website.BaseURL)
		assert.Equal(t, 15*time.Second, cfg.Website.FetchTimeout)
		assert.Equal(t, 10*time.Second, cfg.Website.SearchTimeout)
		assert.Equal(t, 2, cfg.Website.MaxRetries)
		assert.Equal(t, 6*time.Hour, cfg.Catalog.TTL)
		assert.Equal(t, "gpt-4o", cfg.Classifier.Model)
		assert.Equal(t, 30*time.Second, cfg.Classifier.Timeout)
		assert.Empty(t, cfg.Classifier.APIKey)
		assert.Equal(t, time.Hour, cfg.Classifier.CacheTTL)
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "Yes Timepiece", cfg.Reply.Prefix)
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIMEPIECE_SERVER_PORT", "9090")
		t.Setenv("TIMEPIECE_SERVER_ENVIRONMENT", "production")
		t.Setenv("TIMEPIECE_WEBSITE_BASE_URL", "https://shop.example.com")
		t.Setenv("TIMEPIECE_WEBSITE_FETCH_TIMEOUT", "5s")
		t.Setenv("TIMEPIECE_CATALOG_TTL", "1h")
		t.Setenv("TIMEPIECE_CLASSIFIER_API_KEY", "sk-test")
		t.Setenv("TIMEPIECE_LOGGING_LEVEL", "debug")

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.Server.Port)
		assert.Equal(t, "production", cfg.Server.Environment)
		assert.Equal(t, "https://shop.example.com", cfg.Website.BaseURL)
		assert.Equal(t, 5*time.Second, cfg.Website.FetchTimeout)
		assert.Equal(t, time.Hour, cfg.Catalog.TTL)
		assert.Equal(t, "sk-test", cfg.Classifier.APIKey)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("reads explicit config file", func(t *testing.T) {
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "timepiece.yaml")
		content := "website:\n  base_url: https://file.example.com\ncatalog:\n  ttl: 30m\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "https://file.example.com", cfg.Website.BaseURL)
		assert.Equal(t, 30*time.Minute, cfg.Catalog.TTL)
	})

	t.Run("fails on missing explicit config file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})

	t.Run("rejects relative base url", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TIMEPIECE_WEBSITE_BASE_URL", "/shop")

		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Website: WebsiteConfig{
				BaseURL:           "https://shop.example.com",
				FetchTimeout:      15 * time.Second,
				SearchTimeout:     10 * time.Second,
				RequestsPerSecond: 2,
			},
			Catalog:    CatalogConfig{TTL: 6 * time.Hour},
			Classifier: ClassifierConfig{Timeout: 30 * time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid config", func(*Config) {}, false},
		{"zero fetch timeout", func(c *Config) { c.Website.FetchTimeout = 0 }, true},
		{"zero rate", func(c *Config) { c.Website.RequestsPerSecond = 0 }, true},
		{"negative retries", func(c *Config) { c.Website.MaxRetries = -1 }, true},
		{"zero ttl", func(c *Config) { c.Catalog.TTL = 0 }, true},
		{"zero classifier timeout", func(c *Config) { c.Classifier.Timeout = 0 }, true},
		{"zero classifier cache ttl", func(c *Config) { c.Classifier.CacheTTL = 0 }, false},
		{"negative classifier cache ttl", func(c *Config) { c.Classifier.CacheTTL = -time.Second }, true},
		{"base url without host", func(c *Config) { c.Website.BaseURL = "https://" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
