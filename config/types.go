package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	TMDB    TMDBConfig    `mapstructure:"tmdb"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Radarr  RadarrConfig  `mapstructure:"radarr"`
	Filter  FilterConfig  `mapstructure:"filter"`
	Logging LoggingConfig `mapstructure:"logging"`

	// Source is the config file that was read, empty when none was found
	Source string `mapstructure:"-"`
}

// TMDBConfig holds TMDB API connection details
type TMDBConfig struct {
	Token    string        `mapstructure:"token"`
	BaseURL  string        `mapstructure:"base_url"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// RateLimit is the number of requests per second, 0 for unlimited
	RateLimit float64 `mapstructure:"rate_limit"`
	Burst     int     `mapstructure:"burst"`
}

// CacheConfig controls how search results are cached and retried
type CacheConfig struct {
	StaleTime  time.Duration `mapstructure:"stale_time"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	MaxEntries int           `mapstructure:"max_entries"`
	// RedisURL enables a shared result cache when set
	RedisURL string `mapstructure:"redis_url"`
}

// RadarrConfig holds Radarr API connection details
type RadarrConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	APIKey  string `mapstructure:"api_key"`
}

// FilterConfig contains named filter definitions
type FilterConfig map[string]string

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// environment holds the variables that override the config file
type environment struct {
	Token     string `envconfig:"TMDB_TOKEN"`
	ViteToken string `envconfig:"VITE_TMDB_TOKEN"`
	BaseURL   string `envconfig:"TMDB_BASE_URL"`
	RedisURL  string `envconfig:"CINESEARCH_REDIS_URL"`
	LogLevel  string `envconfig:"CINESEARCH_LOG_LEVEL"`
}
