package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port       string
	JwtSecret  string
	CORSOrigin string
	BcryptCost int
	TokenTTL   time.Duration
	LogLevel   string
	LogDev     bool
}

// Load reads the configuration from a .env file or environment variables and returns a Config struct.
// It returns an error if JWT_SECRET is missing or a value cannot be parsed.
func Load() (*Config, error) {
	// Try to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:       getEnv("PORT", "3001"),
		JwtSecret:  os.Getenv("JWT_SECRET"),
		CORSOrigin: getEnv("CORS_ORIGIN", "http://localhost:3002"),
		BcryptCost: bcrypt.DefaultCost,
		TokenTTL:   24 * time.Hour,
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogDev:     os.Getenv("LOG_DEV") == "1",
	}

	if cfg.JwtSecret == "" {
		return nil, fmt.Errorf("missing required environment variable JWT_SECRET")
	}

	if v := os.Getenv("BCRYPT_COST"); v != "" {
		cost, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST %q: %w", v, err)
		}
		if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
		}
		cfg.BcryptCost = cost
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl)
		}
		cfg.TokenTTL = ttl
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
