// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration loading from environment
// variables. Config is used by the inkpostd backend; ClientConfig by the
// inkpost command line client.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultDBPassword = "changeme"
	defaultJWTSecret  = "inkpost-dev-secret"
)

// Config holds all backend configuration values loaded from the environment.
type Config struct {
	// Server settings
	Host string
	Port string
	Env  string // "development", "production", "testing"

	// PostgreSQL connection
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Valkey (Redis-compatible cache + session records)
	ValkeyHost     string
	ValkeyPort     string
	ValkeyPassword string

	// Identity
	JWTSecret  string
	SessionTTL time.Duration

	// ListCacheTTL bounds how long a cached list window may be served.
	ListCacheTTL time.Duration

	// AuthRateLimit is the number of auth requests allowed per client IP per minute.
	AuthRateLimit int

	// LogFile, when set, receives a rotated copy of the log output.
	LogFile string
}

// LoadDotEnv reads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults
// for development where appropriate. Returns an error if critical values
// are missing or malformed in production mode.
func Load() (*Config, error) {
	cfg := &Config{
		Host: envOrDefault("APP_HOST", "0.0.0.0"),
		Port: envOrDefault("APP_PORT", "8080"),
		Env:  envOrDefault("APP_ENV", "development"),

		DBHost:     envOrDefault("POSTGRES_HOST", "localhost"),
		DBPort:     envOrDefault("POSTGRES_PORT", "5432"),
		DBUser:     envOrDefault("POSTGRES_USER", "inkpost"),
		DBPassword: envOrDefault("POSTGRES_PASSWORD", defaultDBPassword),
		DBName:     envOrDefault("POSTGRES_DB", "inkpost"),

		ValkeyHost:     envOrDefault("VALKEY_HOST", "localhost"),
		ValkeyPort:     envOrDefault("VALKEY_PORT", "6379"),
		ValkeyPassword: os.Getenv("VALKEY_PASSWORD"),

		JWTSecret: envOrDefault("JWT_SECRET", defaultJWTSecret),
		LogFile:   os.Getenv("LOG_FILE"),
	}

	var err error
	if cfg.SessionTTL, err = durationOrDefault("SESSION_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.ListCacheTTL, err = durationOrDefault("LIST_CACHE_TTL", time.Minute); err != nil {
		return nil, err
	}
	if cfg.AuthRateLimit, err = intOrDefault("AUTH_RATE_LIMIT", 20); err != nil {
		return nil, err
	}

	if cfg.Env == "production" {
		if cfg.DBPassword == defaultDBPassword {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
		if cfg.JWTSecret == defaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
	}

	return cfg, nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ClientConfig holds the settings of the inkpost command line client.
type ClientConfig struct {
	// APIURL is the base URL of the inkpostd backend.
	APIURL string
	// TokenFile is where the session token survives between runs.
	TokenFile string
	// Timeout applies to every request made to the backend.
	Timeout time.Duration
	// Debug enables debug level logging.
	Debug bool
}

// LoadClient reads the client configuration from the environment.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{
		APIURL:    envOrDefault("INKPOST_API_URL", "http://localhost:8080"),
		TokenFile: os.Getenv("INKPOST_TOKEN_FILE"),
		Debug:     os.Getenv("INKPOST_DEBUG") != "",
	}

	if cfg.TokenFile == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("locate config dir: %w", err)
		}
		cfg.TokenFile = filepath.Join(dir, "inkpost", "session")
	}

	var err error
	if cfg.Timeout, err = durationOrDefault("INKPOST_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, v)
	}
	return d, nil
}

func intOrDefault(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}
