package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML, .env and env vars.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	NewsAPIKey     string
	NewsAPIURL     string
	NewsAPITimeout time.Duration

	WeatherCacheTTL time.Duration
	NewsCacheTTL    time.Duration
	CacheBackend    string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	BreakerEnabled bool
	BreakerTimeout time.Duration

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	DefaultCity    string
	DefaultCountry string

	RefreshEnabled   bool
	RefreshInterval  time.Duration
	TrackedLocations []string

	LocationMinLength int
	LocationMaxLength int
	QueryMaxLength    int
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	NewsAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"news_api"`

	Cache struct {
		Backend    string `yaml:"backend"`
		WeatherTTL string `yaml:"weather_ttl"`
		NewsTTL    string `yaml:"news_ttl"`
		Memcached  struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Reliability struct {
		BreakerEnabled *bool  `yaml:"breaker_enabled"`
		BreakerTimeout string `yaml:"breaker_timeout"`
		RateLimitRPS   int    `yaml:"rate_limit_rps"`
		RateLimitBurst int    `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Dashboard struct {
		DefaultCity    string `yaml:"default_city"`
		DefaultCountry string `yaml:"default_country"`
	} `yaml:"dashboard"`

	Refresh struct {
		Enabled          *bool    `yaml:"enabled"`
		Interval         string   `yaml:"interval"`
		TrackedLocations []string `yaml:"tracked_locations"`
	} `yaml:"refresh"`

	Validation struct {
		LocationMinLength int `yaml:"location_min_length"`
		LocationMaxLength int `yaml:"location_max_length"`
		QueryMaxLength    int `yaml:"query_max_length"`
	} `yaml:"validation"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	NewsAPIKey    string `yaml:"news_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), a .env
// file when present, and env vars. A missing config file is not an error;
// defaults apply. API keys come from WEATHER_API_KEY / NEWS_API_KEY env or
// config/secrets.yaml. Missing or placeholder keys do NOT fail the load;
// they leave the provider unconfigured so only its panels degrade.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	var secrets secretsFile
	secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
	secretsData, err := os.ReadFile(secretsPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read secrets file: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(secretsData, &secrets); err != nil {
			return nil, fmt.Errorf("parse secrets file: %w", err)
		}
	}

	cfg.WeatherAPIKey = sanitizeKey(firstNonEmpty(os.Getenv("WEATHER_API_KEY"), secrets.WeatherAPIKey))
	cfg.NewsAPIKey = sanitizeKey(firstNonEmpty(os.Getenv("NEWS_API_KEY"), secrets.NewsAPIKey))

	cfg.WeatherAPIURL = fc.WeatherAPI.URL
	if cfg.WeatherAPIURL == "" {
		cfg.WeatherAPIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.WeatherAPITimeout = parseDuration(fc.WeatherAPI.Timeout, 10*time.Second)

	cfg.NewsAPIURL = fc.NewsAPI.URL
	if cfg.NewsAPIURL == "" {
		cfg.NewsAPIURL = "https://newsapi.org/v2/top-headlines"
	}
	cfg.NewsAPITimeout = parseDuration(fc.NewsAPI.Timeout, 10*time.Second)

	cfg.WeatherCacheTTL = parseDuration(fc.Cache.WeatherTTL, 10*time.Minute)
	cfg.NewsCacheTTL = parseDuration(fc.Cache.NewsTTL, 5*time.Minute)
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.BreakerEnabled = true
	if fc.Reliability.BreakerEnabled != nil {
		cfg.BreakerEnabled = *fc.Reliability.BreakerEnabled
	}
	cfg.BreakerTimeout = parseDuration(fc.Reliability.BreakerTimeout, 30*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.DefaultCity = fc.Dashboard.DefaultCity
	if cfg.DefaultCity == "" {
		cfg.DefaultCity = "Cape Town"
	}
	cfg.DefaultCountry = fc.Dashboard.DefaultCountry
	if cfg.DefaultCountry == "" {
		cfg.DefaultCountry = "South Africa"
	}

	cfg.RefreshEnabled = false
	if fc.Refresh.Enabled != nil {
		cfg.RefreshEnabled = *fc.Refresh.Enabled
	}
	cfg.RefreshInterval = parseDuration(fc.Refresh.Interval, 60*time.Second)
	cfg.TrackedLocations = fc.Refresh.TrackedLocations

	cfg.LocationMinLength = fc.Validation.LocationMinLength
	if cfg.LocationMinLength <= 0 {
		cfg.LocationMinLength = 2
	}
	cfg.LocationMaxLength = fc.Validation.LocationMaxLength
	if cfg.LocationMaxLength <= 0 {
		cfg.LocationMaxLength = 80
	}
	cfg.QueryMaxLength = fc.Validation.QueryMaxLength
	if cfg.QueryMaxLength <= 0 {
		cfg.QueryMaxLength = 120
	}

	return cfg, nil
}

// WeatherConfigured reports whether a usable weather API key is present.
func (c *Config) WeatherConfigured() bool { return c.WeatherAPIKey != "" }

// NewsConfigured reports whether a usable news API key is present.
func (c *Config) NewsConfigured() bool { return c.NewsAPIKey != "" }

// sanitizeKey collapses placeholder keys to empty so the unconfigured state
// is distinguishable from a runtime fetch failure everywhere downstream.
func sanitizeKey(key string) string {
	if IsPlaceholderKey(key) {
		return ""
	}
	return strings.TrimSpace(key)
}

// IsPlaceholderKey reports whether key is absent or an obvious stand-in
// ("YOUR_API_KEY", "changeme", "replace-me", ...).
func IsPlaceholderKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return true
	}
	if strings.HasPrefix(k, "your_") || strings.HasPrefix(k, "your-") {
		return true
	}
	switch k {
	case "changeme", "change-me", "replaceme", "replace-me", "placeholder", "xxx", "todo":
		return true
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses s as a Go duration, returning def when s is empty or
// invalid.
func parseDuration(s string, def time.Duration) time.Duration {
	if strings.TrimSpace(s) == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
