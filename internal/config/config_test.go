package config

import (
	"os"
	"testing"
)

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when DATABASE_URL is unset")
	}
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/farmacia")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "3001" {
		t.Errorf("expected default port 3001, got %s", cfg.Port)
	}
	if cfg.DBMaxConns != 20 || cfg.DBMinConns != 5 {
		t.Errorf("unexpected pool defaults: max=%d min=%d", cfg.DBMaxConns, cfg.DBMinConns)
	}
	if !cfg.IsDev() {
		t.Error("expected development mode by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/farmacia")
	setEnv(t, "PORT", "9090")
	setEnv(t, "ENV", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("expected production mode")
	}
}

func TestLoad_RejectsInvalidPoolBounds(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost:5432/farmacia")
	setEnv(t, "DB_MAX_CONNS", "2")
	setEnv(t, "DB_MIN_CONNS", "5")
	if _, err := Load(); err == nil {
		t.Fatal("expected Load to reject DB_MAX_CONNS < DB_MIN_CONNS")
	}
}

func TestValidate_PoolBounds(t *testing.T) {
	cfg := &Config{DBMaxConns: 2, DBMinConns: 5}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when max conns < min conns")
	}
	cfg = &Config{DBMaxConns: 10, DBMinConns: 5}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_NegativeRateLimit(t *testing.T) {
	cfg := &Config{DBMaxConns: 10, DBMinConns: 5, RateLimitRPS: -1}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative rate limit")
	}
}
