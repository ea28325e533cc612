package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Website    WebsiteConfig
	Catalog    CatalogConfig
	Classifier ClassifierConfig
	Logging    LoggingConfig
	Reply      ReplyConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WebsiteConfig holds merchant website configuration
type WebsiteConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	SearchTimeout     time.Duration `mapstructure:"search_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// CatalogConfig holds catalog cache configuration
type CatalogConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// ClassifierConfig holds image classifier API configuration
type ClassifierConfig struct {
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"` // 0 disables the guess cache
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// ReplyConfig holds the outbound reply wording
type ReplyConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// Load loads configuration from environment variables and config files.
// configFile may be empty, in which case the standard search paths are used.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/timepiece/")
	}

	// TIMEPIECE_WEBSITE_BASE_URL -> website.base_url
	v.SetEnvPrefix("TIMEPIECE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Website defaults
	v.SetDefault("website.base_url", "https://timepiece.cartpe.in")
	v.SetDefault("website.fetch_timeout", "15s")
	v.SetDefault("website.search_timeout", "10s")
	v.SetDefault("website.user_agent", "TimepieceBot/1.0")
	v.SetDefault("website.requests_per_second", 2.0)
	v.SetDefault("website.max_retries", 2)

	// Catalog defaults
	v.SetDefault("catalog.ttl", "6h")

	// Classifier defaults
	v.SetDefault("classifier.api_key", "")
	v.SetDefault("classifier.base_url", "https://api.openai.com/v1")
	v.SetDefault("classifier.model", "gpt-4o")
	v.SetDefault("classifier.timeout", "30s")
	v.SetDefault("classifier.cache_ttl", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("reply.prefix", "Yes Timepiece")
}

// validate validates the configuration
func validate(config *Config) error {
	u, err := url.Parse(config.Website.BaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("website base URL must be an absolute URL, got: %q", config.Website.BaseURL)
	}

	if config.Website.FetchTimeout <= 0 || config.Website.SearchTimeout <= 0 {
		return fmt.Errorf("website timeouts must be positive")
	}

	if config.Website.RequestsPerSecond <= 0 {
		return fmt.Errorf("website requests per second must be positive, got: %v", config.Website.RequestsPerSecond)
	}

	if config.Website.MaxRetries < 0 {
		return fmt.Errorf("website max retries cannot be negative, got: %d", config.Website.MaxRetries)
	}

	if config.Catalog.TTL <= 0 {
		return fmt.Errorf("catalog TTL must be positive, got: %s", config.Catalog.TTL)
	}

	if config.Classifier.Timeout <= 0 {
		return fmt.Errorf("classifier timeout must be positive, got: %s", config.Classifier.Timeout)
	}

	if config.Classifier.CacheTTL < 0 {
		return fmt.Errorf("classifier cache TTL cannot be negative, got: %s", config.Classifier.CacheTTL)
	}

	return nil
}
