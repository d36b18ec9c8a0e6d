package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath          string
	MigrationsURL   string
	ServerPort      int
	SessionLifetime time.Duration
}

// Load reads the configuration from the environment, after loading .env when one exists.
func Load() (*Config, error) {
	// A missing .env is fine, the environment may carry everything
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:        getenv("DB_PATH", "pingpong.db"),
		MigrationsURL: getenv("MIGRATIONS_URL", "file://migrations"),
	}

	port, err := strconv.Atoi(getenv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}
	cfg.ServerPort = port

	lifetime, err := time.ParseDuration(getenv("SESSION_LIFETIME", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_LIFETIME environment variable: %w", err)
	}
	if lifetime <= 0 {
		return nil, fmt.Errorf("SESSION_LIFETIME must be positive, got %s", lifetime)
	}
	cfg.SessionLifetime = lifetime

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
