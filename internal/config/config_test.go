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

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "DATABASE_URL", "postgres://localhost/kneecare_test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("expected default env development, got %s", cfg.Env)
	}
	if cfg.ClinicTimezone != "UTC" {
		t.Errorf("expected default timezone UTC, got %s", cfg.ClinicTimezone)
	}
	if !cfg.IsDev() {
		t.Error("expected IsDev true for development env")
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	setEnv(t, "DATABASE_URL", "")

	if _, err := Load(); err == nil {
		t.Error("expected error for missing DATABASE_URL")
	}
}

func TestValidate_ProductionRequiresAuth(t *testing.T) {
	cfg := &Config{Env: "production", ClinicTimezone: "UTC"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for production without JWT_SECRET or AUTH_ISSUER")
	}

	cfg.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error with JWT_SECRET set: %v", err)
	}
}

func TestValidate_BadTimezone(t *testing.T) {
	cfg := &Config{Env: "development", ClinicTimezone: "Mars/Olympus"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown timezone")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{ClinicTimezone: "Asia/Kolkata"}
	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loc.String() != "Asia/Kolkata" {
		t.Errorf("expected Asia/Kolkata, got %s", loc)
	}
}

func TestValidate_ConnBounds(t *testing.T) {
	cfg := &Config{Env: "development", ClinicTimezone: "UTC", DBMaxConns: 5, DBMinConns: 10}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when DB_MIN_CONNS exceeds DB_MAX_CONNS")
	}
}
