package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config captures the runtime configuration for the HPP backend.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        string
	GinMode     string
	CORSOrigins []string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// AuthConfig holds token and invitation settings.
type AuthConfig struct {
	JWTSecret     string
	TokenTTL      time.Duration
	InvitationTTL time.Duration
}

// RateLimitConfig is the per-IP token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load reads .env when present and builds a Config from the environment.
func Load() (Config, error) {
	// a missing .env is fine, the variables may come from the process environment
	_ = godotenv.Load()

	cfg := Config{
		Server: ServerConfig{
			Port:        firstNonEmpty(os.Getenv("PORT"), "8080"),
			GinMode:     firstNonEmpty(os.Getenv("GIN_MODE"), "debug"),
			CORSOrigins: splitList(firstNonEmpty(os.Getenv("CORS_ORIGINS"), "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(firstNonEmpty(os.Getenv("DB_DRIVER"), DriverMySQL)),
			DSN:             firstNonEmpty(os.Getenv("DB_DSN"), os.Getenv("DATABASE_URL")),
			MaxIdleConns:    parseIntWithDefault(os.Getenv("DB_MAX_IDLE_CONNS"), 10),
			MaxOpenConns:    parseIntWithDefault(os.Getenv("DB_MAX_OPEN_CONNS"), 50),
			ConnMaxLifetime: parseDurationWithDefault(os.Getenv("DB_CONN_MAX_LIFETIME"), time.Hour),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			TokenTTL:      parseDurationWithDefault(os.Getenv("JWT_TTL"), 24*time.Hour),
			InvitationTTL: parseDurationWithDefault(os.Getenv("INVITATION_TTL"), 7*24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			RPS:   parseFloatWithDefault(os.Getenv("RATE_LIMIT_RPS"), 20),
			Burst: parseIntWithDefault(os.Getenv("RATE_LIMIT_BURST"), 50),
		},
		LogLevel: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return fmt.Errorf("DB_DSN must be set for driver %s", c.Database.Driver)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIntWithDefault(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return n
}

func parseFloatWithDefault(value string, def float64) float64 {
	if strings.TrimSpace(value) == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return def
	}
	return f
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return d
}
