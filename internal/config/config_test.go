package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.SessionTTL != 3*time.Minute {
		t.Errorf("SessionTTL = %v, want 3m", cfg.SessionTTL)
	}
	if cfg.SessionBackend != "postgres" {
		t.Errorf("SessionBackend = %q, want postgres", cfg.SessionBackend)
	}
	if cfg.HTTPPort == "" {
		t.Error("HTTPPort must default to something")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("RATE_LIMIT_WRITE_PER_MIN", "7")
	t.Setenv("RATE_LIMIT_READ_PER_MIN", "30")

	cfg := Load()
	if cfg.SessionTTL != 5*time.Minute {
		t.Errorf("SessionTTL = %v, want 5m", cfg.SessionTTL)
	}
	if cfg.SessionBackend != "redis" {
		t.Errorf("SessionBackend = %q, want redis", cfg.SessionBackend)
	}
	if cfg.RateLimitWritePerMin != 7 {
		t.Errorf("RateLimitWritePerMin = %d, want 7", cfg.RateLimitWritePerMin)
	}
	if cfg.RateLimitReadPerMin != 30 {
		t.Errorf("RateLimitReadPerMin = %d, want 30", cfg.RateLimitReadPerMin)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_TTL", "soon")
	t.Setenv("RATE_LIMIT_WRITE_PER_MIN", "many")

	cfg := Load()
	if cfg.SessionTTL != 3*time.Minute {
		t.Errorf("SessionTTL = %v, want fallback 3m", cfg.SessionTTL)
	}
	if cfg.RateLimitWritePerMin != 60 {
		t.Errorf("RateLimitWritePerMin = %d, want fallback 60", cfg.RateLimitWritePerMin)
	}
}
