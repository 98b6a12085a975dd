package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv isolates a test from the caller's environment and home directory
func clearEnv(t *testing.T) {
	t.Helper()

	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"TMDB_TOKEN", "VITE_TMDB_TOKEN", "TMDB_BASE_URL", "CINESEARCH_REDIS_URL", "CINESEARCH_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
tmdb:
  token: file-token
cache:
  stale_time: 5m
filter:
  acclaimed: "Rating >= 8"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDB.Token != "file-token" {
		t.Errorf("token = %q, want file-token", cfg.TMDB.Token)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("base_url = %q", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.Language != "en-US" {
		t.Errorf("language = %q", cfg.TMDB.Language)
	}
	if cfg.TMDB.Timeout != 30*time.Second {
		t.Errorf("timeout = %v", cfg.TMDB.Timeout)
	}
	if cfg.Cache.StaleTime != 5*time.Minute {
		t.Errorf("stale_time = %v, want 5m", cfg.Cache.StaleTime)
	}
	if cfg.Cache.Retries != 1 || cfg.Cache.RetryDelay != time.Second {
		t.Errorf("retries = %d, retry_delay = %v", cfg.Cache.Retries, cfg.Cache.RetryDelay)
	}
	if cfg.Cache.MaxEntries != 256 {
		t.Errorf("max_entries = %d", cfg.Cache.MaxEntries)
	}
	if cfg.Filter["acclaimed"] != "Rating >= 8" {
		t.Errorf("filter = %v", cfg.Filter)
	}
	if cfg.Source != path {
		t.Errorf("source = %q, want %q", cfg.Source, path)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMDB_TOKEN", "env-token")
	t.Setenv("TMDB_BASE_URL", "http://localhost:8080/3")
	t.Setenv("CINESEARCH_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CINESEARCH_LOG_LEVEL", "debug")

	path := writeConfig(t, "tmdb:\n  token: file-token\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.TMDB.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.TMDB.Token)
	}
	if cfg.TMDB.BaseURL != "http://localhost:8080/3" {
		t.Errorf("base_url = %q", cfg.TMDB.BaseURL)
	}
	if cfg.Cache.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("redis_url = %q", cfg.Cache.RedisURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoad_WithoutConfigFile(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())
	t.Setenv("VITE_TMDB_TOKEN", "vite-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TMDB.Token != "vite-token" {
		t.Errorf("token = %q, want vite-token", cfg.TMDB.Token)
	}
	if cfg.Source != "" {
		t.Errorf("source = %q, want none", cfg.Source)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	_, err := Load("")
	if err == nil {
		t.Fatal("expected error for missing token")
	}
	if !strings.Contains(err.Error(), "tmdb.token is required") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	clearEnv(t)
	t.Setenv("TMDB_TOKEN", "env-token")

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			TMDB: TMDBConfig{
				Token:   "token",
				BaseURL: "https://api.themoviedb.org/3",
			},
			Cache: CacheConfig{
				StaleTime:  3 * time.Minute,
				Retries:    1,
				MaxEntries: 256,
			},
			Logging: LoggingConfig{
				Level:  "info",
				Format: "console",
			},
		}
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:    "missing token",
			modify:  func(c *Config) { c.TMDB.Token = "" },
			wantErr: "tmdb.token is required",
		},
		{
			name:    "relative base url",
			modify:  func(c *Config) { c.TMDB.BaseURL = "api.themoviedb.org" },
			wantErr: "invalid tmdb.base_url",
		},
		{
			name:    "negative rate limit",
			modify:  func(c *Config) { c.TMDB.RateLimit = -1 },
			wantErr: "tmdb.rate_limit",
		},
		{
			name:    "zero stale time",
			modify:  func(c *Config) { c.Cache.StaleTime = 0 },
			wantErr: "cache.stale_time",
		},
		{
			name:    "negative retries",
			modify:  func(c *Config) { c.Cache.Retries = -1 },
			wantErr: "cache.retries",
		},
		{
			name:    "no cache entries",
			modify:  func(c *Config) { c.Cache.MaxEntries = 0 },
			wantErr: "cache.max_entries",
		},
		{
			name: "radarr enabled without key",
			modify: func(c *Config) {
				c.Radarr = RadarrConfig{Enabled: true, URL: "http://localhost:7878", APIKey: "your-api-key-here"}
			},
			wantErr: "radarr.api_key",
		},
		{
			name: "radarr disabled without key",
			modify: func(c *Config) {
				c.Radarr = RadarrConfig{URL: "http://localhost:7878"}
			},
		},
		{
			name:    "invalid level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level",
		},
		{
			name:    "invalid format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(cfg)

			err := validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
