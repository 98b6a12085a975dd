package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// Load loads the configuration from file and environment. Without an
// explicit path a missing config file is not an error, so a bare TMDB_TOKEN
// in the environment or a .env file is enough to run.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".cinesearch"))
		}

		// Check /etc
		v.AddConfigPath("/etc/cinesearch/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Source = v.ConfigFileUsed()

	if err := applyEnvironment(&cfg); err != nil {
		return nil, err
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// TMDB defaults
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.timeout", "30s")
	v.SetDefault("tmdb.rate_limit", 0)
	v.SetDefault("tmdb.burst", 1)

	// Cache defaults
	v.SetDefault("cache.stale_time", "3m")
	v.SetDefault("cache.retries", 1)
	v.SetDefault("cache.retry_delay", "1s")
	v.SetDefault("cache.max_entries", 256)

	// Radarr defaults
	v.SetDefault("radarr.enabled", false)
	v.SetDefault("radarr.url", "http://localhost:7878")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// applyEnvironment loads .env and lets environment variables override the file
func applyEnvironment(cfg *Config) error {
	// load default .env file, ignore the error
	_ = godotenv.Load()

	var env environment
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("error reading environment: %w", err)
	}

	switch {
	case env.Token != "":
		cfg.TMDB.Token = env.Token
	case env.ViteToken != "" && cfg.TMDB.Token == "":
		cfg.TMDB.Token = env.ViteToken
	}
	if env.BaseURL != "" {
		cfg.TMDB.BaseURL = env.BaseURL
	}
	if env.RedisURL != "" {
		cfg.Cache.RedisURL = env.RedisURL
	}
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}

	return nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.TMDB.Token == "" {
		return fmt.Errorf("tmdb.token is required (or set TMDB_TOKEN)")
	}

	if u, err := url.Parse(cfg.TMDB.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid tmdb.base_url: %s", cfg.TMDB.BaseURL)
	}

	if cfg.TMDB.RateLimit < 0 {
		return fmt.Errorf("tmdb.rate_limit must not be negative")
	}

	if cfg.Cache.StaleTime <= 0 {
		return fmt.Errorf("cache.stale_time must be positive")
	}

	if cfg.Cache.Retries < 0 {
		return fmt.Errorf("cache.retries must not be negative")
	}

	if cfg.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be at least 1")
	}

	if cfg.Radarr.Enabled {
		if cfg.Radarr.URL == "" {
			return fmt.Errorf("radarr.url is required when radarr is enabled")
		}
		if cfg.Radarr.APIKey == "" || cfg.Radarr.APIKey == "your-api-key-here" {
			return fmt.Errorf("radarr.api_key must be set to a valid API key")
		}
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
