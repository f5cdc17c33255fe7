package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// DefaultExpiryHour is the 4pm trading-day close used when EXPIRY_HOUR is
// not set.
const DefaultExpiryHour = 16

type Config struct {
	// ExpiryHour is the local hour-of-day (0-23) at which GOOD_FOR_DAY
	// orders are swept from the book.
	ExpiryHour int
	// ShutdownTimeout bounds how long shutdown waits for the sweeper.
	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, after loading a .env
// file when one is present.
func Load() Config {
	// edge case: a missing .env file is fine, the environment still applies
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded configuration from .env")
	}

	cfg := Config{
		ExpiryHour:      DefaultExpiryHour,
		ShutdownTimeout: 10 * time.Second,
	}

	if envHour := os.Getenv("EXPIRY_HOUR"); envHour != "" {
		if parsed, err := strconv.Atoi(envHour); err == nil && parsed >= 0 && parsed <= 23 {
			cfg.ExpiryHour = parsed
		} else {
			log.Warn().
				Str("expiry_hour", envHour).
				Int("default", DefaultExpiryHour).
				Msg("Invalid EXPIRY_HOUR, using default")
		}
	}

	if envTimeout := os.Getenv("SHUTDOWN_TIMEOUT"); envTimeout != "" {
		if parsed, err := time.ParseDuration(envTimeout); err == nil && parsed > 0 {
			cfg.ShutdownTimeout = parsed
		}
	}

	return cfg
}
