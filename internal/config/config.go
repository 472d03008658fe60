package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries every tunable the hub reads at startup. It is built once in
// main and passed by value into component constructors; nothing reads the
// environment after Load returns.
type Config struct {
	ListenAddr string

	// Postgres DSN. Empty disables persistence (useful for smoke runs).
	PostgresDSN string

	// Redis address for the affiliation search cache. Empty disables caching.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TokenSecret string
	TokenIssuer string
	TokenTTL    time.Duration

	RORBaseURL     string
	ROREnabled     bool
	RORRatePerSec  float64
	SearchCacheTTL time.Duration

	RateBurst  int
	RatePerSec int

	MaxBodyBytes int64
}

const envPrefix = "DMPHUB_"

// Load reads configuration from the environment, applying defaults where a
// variable is unset.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:     getenv("LISTEN_ADDR", ":8080"),
		PostgresDSN:    getenv("PG_DSN", ""),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		RedisPassword:  getenv("REDIS_PASSWORD", ""),
		TokenSecret:    getenv("TOKEN_SECRET", ""),
		TokenIssuer:    getenv("TOKEN_ISSUER", "dmphub"),
		RORBaseURL:     getenv("ROR_BASE_URL", "https://api.ror.org"),
		TokenTTL:       24 * time.Hour,
		SearchCacheTTL: 24 * time.Hour,
		RORRatePerSec:  2,
		RateBurst:      20,
		RatePerSec:     10,
		MaxBodyBytes:   1 << 20,
	}

	var err error
	if cfg.RedisDB, err = getenvInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getenvDuration("TOKEN_TTL", cfg.TokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.SearchCacheTTL, err = getenvDuration("SEARCH_CACHE_TTL", cfg.SearchCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = getenvInt("RATE_BURST", cfg.RateBurst); err != nil {
		return Config{}, err
	}
	if cfg.RatePerSec, err = getenvInt("RATE_PER_SEC", cfg.RatePerSec); err != nil {
		return Config{}, err
	}
	cfg.ROREnabled = getenv("ROR_ENABLED", "true") == "true"

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the server cannot run with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return errors.New("config: listen address is required")
	}
	if strings.TrimSpace(c.TokenSecret) == "" {
		return errors.New("config: " + envPrefix + "TOKEN_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token ttl must be positive, got %s", c.TokenTTL)
	}
	if c.SearchCacheTTL <= 0 {
		return fmt.Errorf("config: search cache ttl must be positive, got %s", c.SearchCacheTTL)
	}
	if c.ROREnabled && strings.TrimSpace(c.RORBaseURL) == "" {
		return errors.New("config: ROR base URL is required when the registry is enabled")
	}
	if c.RateBurst < 1 || c.RatePerSec < 1 {
		return errors.New("config: rate limit burst and per-second values must be >= 1")
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(envPrefix + key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s must be an integer: %w", envPrefix, key, err)
	}
	return v, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(envPrefix + key))
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s%s must be a duration: %w", envPrefix, key, err)
	}
	return v, nil
}
