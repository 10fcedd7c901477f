package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string
	Env  string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// SessionSecret signs the console cookie.
	SessionSecret string

	Backend BackendConfig
	Storage StorageConfig
	Cache   CacheConfig
}

// BackendConfig locates the inventory REST backend.
type BackendConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
}

// StorageConfig holds the preference store DSN: a sqlite file path by
// default, or a postgres URL / key=value list.
type StorageConfig struct {
	DSN   string
	Debug bool
}

// CacheConfig holds the staleness windows per entity.
type CacheConfig struct {
	SitesTTL      time.Duration
	ClientsTTL    time.Duration
	ActivitiesTTL time.Duration
	DashboardTTL  time.Duration
	ReadRetries   int
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by main) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.SessionSecret = getEnv("SESSION_SECRET", "dev-secret-change-me")
	cfg.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	// Exports and cold loads may wait on the backend for its full timeout.
	cfg.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second)
	cfg.IdleTimeout = getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second)

	cfg.Backend = BackendConfig{
		BaseURL:   getEnv("BACKEND_URL", "http://localhost:3001/api"),
		Timeout:   getEnvDuration("BACKEND_TIMEOUT", 30*time.Second),
		RateLimit: getEnvFloat("BACKEND_RATE_LIMIT", 20),
		RateBurst: getEnvInt("BACKEND_RATE_BURST", 10),
	}
	cfg.Storage = StorageConfig{
		DSN:   getEnv("PREFS_DSN", "hoardings.db"),
		Debug: ParseBool("DB_DEBUG", false),
	}
	cfg.Cache = CacheConfig{
		SitesTTL:      getEnvDuration("CACHE_SITES_TTL", 5*time.Minute),
		ClientsTTL:    getEnvDuration("CACHE_CLIENTS_TTL", 5*time.Minute),
		ActivitiesTTL: getEnvDuration("CACHE_ACTIVITIES_TTL", 3*time.Minute),
		DashboardTTL:  getEnvDuration("CACHE_DASHBOARD_TTL", 3*time.Minute),
		ReadRetries:   getEnvInt("CACHE_READ_RETRIES", 2),
	}
	return cfg
}

// IsProduction reports whether secure cookies and terse errors apply.
func (c Config) IsProduction() bool { return c.Env == "production" }

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Printf("invalid integer for %s: %s", key, v)
			return def
		}
		return n
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Printf("invalid number for %s: %s", key, v)
			return def
		}
		return f
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid duration for %s: %s", key, v)
			return def
		}
		return d
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			log.Printf("invalid boolean for %s: %s", key, v)
			return def
		}
		return b
	}
	return def
}
