package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "BACKEND_URL", "PREFS_DSN", "CACHE_SITES_TTL", "CACHE_ACTIVITIES_TTL", "CACHE_READ_RETRIES"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s", cfg.Backend.Timeout)
	}
	if cfg.Cache.SitesTTL != 5*time.Minute || cfg.Cache.ActivitiesTTL != 3*time.Minute {
		t.Errorf("cache windows = %+v", cfg.Cache)
	}
	if cfg.Cache.ReadRetries != 2 {
		t.Errorf("ReadRetries = %d", cfg.Cache.ReadRetries)
	}
	if cfg.WriteTimeout != 60*time.Second || cfg.ReadTimeout != 15*time.Second {
		t.Errorf("server timeouts = %s / %s", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if cfg.Storage.DSN != "hoardings.db" {
		t.Errorf("DSN = %q", cfg.Storage.DSN)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "https://inventory.example.com/api")
	t.Setenv("CACHE_SITES_TTL", "90s")
	t.Setenv("CACHE_READ_RETRIES", "oops")
	t.Setenv("APP_ENV", "production")
	cfg := Load()
	if cfg.Backend.BaseURL != "https://inventory.example.com/api" {
		t.Errorf("BaseURL = %q", cfg.Backend.BaseURL)
	}
	if cfg.Cache.SitesTTL != 90*time.Second {
		t.Errorf("SitesTTL = %s", cfg.Cache.SitesTTL)
	}
	if cfg.Cache.ReadRetries != 2 {
		t.Errorf("invalid int should fall back, got %d", cfg.Cache.ReadRetries)
	}
	if !cfg.IsProduction() {
		t.Error("expected production")
	}
}

func TestParseBool(t *testing.T) {
	t.Setenv("FLAG_A", "true")
	t.Setenv("FLAG_B", "maybe")
	if !ParseBool("FLAG_A", false) {
		t.Error("FLAG_A")
	}
	if !ParseBool("FLAG_B", true) {
		t.Error("invalid bool should return default")
	}
	if ParseBool("FLAG_UNSET_X", false) {
		t.Error("unset should return default")
	}
}
