// Package config holds the service configuration and its layered loader.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds for this package.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

const (
	ProviderModeMock = "mock"
	ProviderModeLive = "live"

	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds the SQLite database file.
	DataDir string `koanf:"data_dir"`

	Environment string `koanf:"environment"`

	CORS      CORSConfig      `koanf:"cors"`
	Auth      AuthConfig      `koanf:"auth"`
	Redis     RedisConfig     `koanf:"redis"`
	Cache     CacheConfig     `koanf:"cache"`
	Providers ProvidersConfig `koanf:"providers"`
	Refresh   RefreshConfig   `koanf:"refresh"`
	RateLimit RateLimitConfig `koanf:"ratelimit"`
}

type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// AuthConfig carries the shared secrets. JWTSecret verifies identity tokens
// issued by the external identity provider; CronSecret guards the scheduler
// trigger.
type AuthConfig struct {
	JWTSecret  string `koanf:"jwt_secret"`
	CronSecret string `koanf:"cron_secret"`
}

// RedisConfig is optional; an empty Addr selects the in-memory cache.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// CacheConfig sets the three TTL tiers.
type CacheConfig struct {
	UserScoreTTL   time.Duration `koanf:"user_score_ttl"`
	LeaderboardTTL time.Duration `koanf:"leaderboard_ttl"`
	ProviderTTL    time.Duration `koanf:"provider_ttl"`
}

type ProvidersConfig struct {
	// Mode selects mock or live fetchers.
	Mode    string        `koanf:"mode"`
	Timeout time.Duration `koanf:"timeout"`

	GitHubToken      string `koanf:"github_token"`
	GitHubURL        string `koanf:"github_url"`
	StackExchangeURL string `koanf:"stackexchange_url"`
	StackExchangeKey string `koanf:"stackexchange_key"`
	LeetCodeURL      string `koanf:"leetcode_url"`
	GeminiURL        string `koanf:"gemini_url"`
	GeminiKey        string `koanf:"gemini_key"`
}

type RefreshConfig struct {
	StaleAfter time.Duration `koanf:"stale_after"`
	BatchSize  int           `koanf:"batch_size"`
	// Interval enables the in-process scheduler loop when positive.
	Interval time.Duration `koanf:"interval"`
}

type RateLimitConfig struct {
	RefreshPerHour int `koanf:"refresh_per_hour"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:        ":8080",
		LogLevel:    "info",
		DataDir:     "./data",
		Environment: EnvironmentDevelopment,
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cache: CacheConfig{
			UserScoreTTL:   3 * time.Hour,
			LeaderboardTTL: 30 * time.Minute,
			ProviderTTL:    2 * time.Hour,
		},
		Providers: ProvidersConfig{
			Mode:             ProviderModeMock,
			Timeout:          10 * time.Second,
			GitHubURL:        "https://api.github.com",
			StackExchangeURL: "https://api.stackexchange.com/2.3",
			LeetCodeURL:      "https://leetcode.com/graphql",
			GeminiURL:        "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent",
		},
		Refresh: RefreshConfig{
			StaleAfter: 3 * time.Hour,
			BatchSize:  100,
		},
		RateLimit: RateLimitConfig{
			RefreshPerHour: 10,
		},
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	ttls := map[string]time.Duration{
		"cache.user_score_ttl":  c.Cache.UserScoreTTL,
		"cache.leaderboard_ttl": c.Cache.LeaderboardTTL,
		"cache.provider_ttl":    c.Cache.ProviderTTL,
		"providers.timeout":     c.Providers.Timeout,
		"refresh.stale_after":   c.Refresh.StaleAfter,
	}
	for key, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidConfig, key, ttl)
		}
	}
	switch c.Providers.Mode {
	case ProviderModeMock, ProviderModeLive:
	default:
		return fmt.Errorf("%w: unknown providers.mode %q", ErrInvalidConfig, c.Providers.Mode)
	}
	if c.Refresh.BatchSize <= 0 {
		return fmt.Errorf("%w: refresh.batch_size must be positive", ErrInvalidConfig)
	}
	if c.Refresh.Interval < 0 {
		return fmt.Errorf("%w: refresh.interval must not be negative", ErrInvalidConfig)
	}
	if c.RateLimit.RefreshPerHour <= 0 {
		return fmt.Errorf("%w: ratelimit.refresh_per_hour must be positive", ErrInvalidConfig)
	}
	if c.Auth.JWTSecret == "" && c.Environment != EnvironmentDevelopment {
		return fmt.Errorf("%w: auth.jwt_secret is required outside development", ErrInvalidConfig)
	}
	return nil
}
