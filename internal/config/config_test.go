package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// loadInDir runs Load with cwd moved to dir so tests control which config
// files are visible.
func loadInDir(t *testing.T, dir string) *Config {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "")
	t.Setenv("NEWS_API_KEY", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("MEMCACHED_ADDRS", "")

	cfg := loadInDir(t, t.TempDir())

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.WeatherAPITimeout != 10*time.Second {
		t.Errorf("WeatherAPITimeout = %v, want 10s", cfg.WeatherAPITimeout)
	}
	if cfg.WeatherCacheTTL != 10*time.Minute {
		t.Errorf("WeatherCacheTTL = %v, want 10m", cfg.WeatherCacheTTL)
	}
	if cfg.NewsCacheTTL != 5*time.Minute {
		t.Errorf("NewsCacheTTL = %v, want 5m", cfg.NewsCacheTTL)
	}
	if cfg.CacheBackend != "in_memory" {
		t.Errorf("CacheBackend = %q, want in_memory", cfg.CacheBackend)
	}
	if !cfg.BreakerEnabled {
		t.Error("BreakerEnabled = false, want true by default")
	}
	if cfg.DefaultCity != "Cape Town" || cfg.DefaultCountry != "South Africa" {
		t.Errorf("defaults = %q/%q", cfg.DefaultCity, cfg.DefaultCountry)
	}
	if cfg.RefreshEnabled {
		t.Error("RefreshEnabled = true, want false by default")
	}
	if cfg.LocationMinLength != 2 || cfg.LocationMaxLength != 80 || cfg.QueryMaxLength != 120 {
		t.Errorf("validation limits = %d/%d/%d",
			cfg.LocationMinLength, cfg.LocationMaxLength, cfg.QueryMaxLength)
	}
	if cfg.WeatherConfigured() || cfg.NewsConfigured() {
		t.Error("expected unconfigured providers without keys")
	}
}

func TestLoad_YamlOverrides(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	yaml := `
server:
  port: "9090"
cache:
  backend: memcached
  weather_ttl: 2m
  news_ttl: 90s
reliability:
  breaker_enabled: false
  rate_limit_rps: 10
refresh:
  enabled: true
  interval: 5m
  tracked_locations:
    - "Cape Town,South Africa"
    - "London,GB"
`
	if err := os.WriteFile(filepath.Join(configDir, "test.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("ENV_NAME", "test")
	t.Setenv("WEATHER_API_KEY", "real-key-abc123")
	t.Setenv("NEWS_API_KEY", "")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("MEMCACHED_ADDRS", "")

	cfg := loadInDir(t, dir)

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("CacheBackend = %q, want memcached", cfg.CacheBackend)
	}
	if cfg.WeatherCacheTTL != 2*time.Minute {
		t.Errorf("WeatherCacheTTL = %v, want 2m", cfg.WeatherCacheTTL)
	}
	if cfg.NewsCacheTTL != 90*time.Second {
		t.Errorf("NewsCacheTTL = %v, want 90s", cfg.NewsCacheTTL)
	}
	if cfg.BreakerEnabled {
		t.Error("BreakerEnabled = true, want yaml override to false")
	}
	if cfg.RateLimitRPS != 10 {
		t.Errorf("RateLimitRPS = %d, want 10", cfg.RateLimitRPS)
	}
	if !cfg.RefreshEnabled || cfg.RefreshInterval != 5*time.Minute {
		t.Errorf("refresh = %v/%v", cfg.RefreshEnabled, cfg.RefreshInterval)
	}
	if len(cfg.TrackedLocations) != 2 || cfg.TrackedLocations[0] != "Cape Town,South Africa" {
		t.Errorf("TrackedLocations = %v", cfg.TrackedLocations)
	}
	if !cfg.WeatherConfigured() {
		t.Error("expected weather configured from env key")
	}
}

func TestLoad_PlaceholderKeysCollapse(t *testing.T) {
	t.Setenv("ENV_NAME", "dev")
	t.Setenv("WEATHER_API_KEY", "YOUR_API_KEY_HERE")
	t.Setenv("NEWS_API_KEY", "changeme")
	t.Setenv("CACHE_BACKEND", "")
	t.Setenv("MEMCACHED_ADDRS", "")

	cfg := loadInDir(t, t.TempDir())

	if cfg.WeatherAPIKey != "" || cfg.NewsAPIKey != "" {
		t.Errorf("keys = %q/%q, want placeholders collapsed to empty",
			cfg.WeatherAPIKey, cfg.NewsAPIKey)
	}
}

func TestIsPlaceholderKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"YOUR_API_KEY", true},
		{"your-key-here", true},
		{"changeme", true},
		{"replace-me", true},
		{"PLACEHOLDER", true},
		{"xxx", true},
		{"todo", true},
		{"a1b2c3d4e5f6", false},
		{"sk-live-0123456789", false},
	}

	for _, tt := range tests {
		if got := IsPlaceholderKey(tt.key); got != tt.want {
			t.Errorf("IsPlaceholderKey(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	def := 10 * time.Second
	tests := []struct {
		input string
		want  time.Duration
	}{
		{"", def},
		{"  ", def},
		{"garbage", def},
		{"-5s", def},
		{"0s", def},
		{"30s", 30 * time.Second},
		{"2m", 2 * time.Minute},
	}

	for _, tt := range tests {
		if got := parseDuration(tt.input, def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
