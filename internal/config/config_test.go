package config

import (
	"testing"
	"time"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "forty")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_BOOL", "false")

	if got := envInt("TEST_INT", 1); got != 42 {
		t.Fatalf("envInt = %d, want 42", got)
	}
	if got := envInt("TEST_BAD_INT", 7); got != 7 {
		t.Fatalf("envInt with bad value = %d, want default 7", got)
	}
	if got := envDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Fatalf("envDuration = %v, want 90s", got)
	}
	if got := envBool("TEST_BOOL", true); got {
		t.Fatalf("envBool = true, want false")
	}
	if got := envString("TEST_UNSET_STRING", "fallback"); got != "fallback" {
		t.Fatalf("envString = %q, want fallback", got)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_URL", "http://localhost:8090")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg := Load()
	if !cfg.IsDevelopment() || cfg.IsProduction() {
		t.Fatalf("unexpected environment %q", cfg.AppEnv)
	}
	if cfg.TokenResendInterval != time.Minute || cfg.WalletChallengeExpiry != 5*time.Minute {
		t.Fatalf("unexpected token defaults: %+v", cfg)
	}
	if cfg.DBDriver != "sqlite" || cfg.PasswordHasher != "bcrypt" {
		t.Fatalf("unexpected defaults: driver=%s hasher=%s", cfg.DBDriver, cfg.PasswordHasher)
	}
}
