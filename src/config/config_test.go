package config

import (
	"testing"
	"time"
)

// TestLoadDefaults tests fallback values with an empty environment
func TestLoadDefaults(t *testing.T) {
	t.Setenv("EXPIRY_HOUR", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")

	cfg := Load()

	if cfg.ExpiryHour != DefaultExpiryHour {
		t.Errorf("Expected default expiry hour %d, got: %d", DefaultExpiryHour, cfg.ExpiryHour)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("Expected default shutdown timeout 10s, got: %v", cfg.ShutdownTimeout)
	}
}

// TestLoadFromEnvironment tests env var overrides
func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("EXPIRY_HOUR", "9")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := Load()

	if cfg.ExpiryHour != 9 {
		t.Errorf("Expected expiry hour 9, got: %d", cfg.ExpiryHour)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("Expected shutdown timeout 3s, got: %v", cfg.ShutdownTimeout)
	}
}

// TestLoadRejectsInvalidExpiryHour tests that out-of-range hours fall back
func TestLoadRejectsInvalidExpiryHour(t *testing.T) {
	t.Setenv("EXPIRY_HOUR", "25")

	cfg := Load()

	if cfg.ExpiryHour != DefaultExpiryHour {
		t.Errorf("Expected default expiry hour for invalid input, got: %d", cfg.ExpiryHour)
	}
}
