// Package config loads runtime configuration from environment variables.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.
type Config struct {
	AppEnv string
	Port   string

	Database  DatabaseConfig
	Airtable  AirtableConfig
	Sync      SyncConfig
	Redis     RedisConfig
	Email     EmailConfig
	HTTP      HTTPConfig
	AdminAuth AdminAuthConfig

	IdempotencyTTL time.Duration
}

type DatabaseConfig struct {
	Driver     string // "postgres" or "sqlite"
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

// DSN builds the postgres connection string the same way for sqlx and GORM.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", d.User, d.Password, d.Host, d.Port, d.Name)
}

type AirtableConfig struct {
	APIKey    string
	BaseID    string
	TableName string
	BaseURL   string
	Timeout   time.Duration
	RPS       float64
}

type SyncConfig struct {
	Policy         string // "remote" or "local"
	DeletionPolicy string // "keep" or "prune"
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// Enabled reports whether a Redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type EmailConfig struct {
	SendGridAPIKey    string
	SendGridBaseURL   string
	FromEmail         string
	TicketFallbackURL string
}

type HTTPConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

type AdminAuthConfig struct {
	TokenSecret string
}

// Enabled reports whether write routes require an admin token.
func (a AdminAuthConfig) Enabled() bool {
	return a.TokenSecret != ""
}

// Load reads the environment (after an optional .env file) and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "development"),
		Port:   getEnv("APP_PORT", "8080"),
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("PG_HOST", "localhost"),
			Port:       getEnv("PG_PORT", "5432"),
			User:       os.Getenv("PG_USER"),
			Password:   os.Getenv("PG_PASSWORD"),
			Name:       os.Getenv("PG_DB"),
			SQLitePath: getEnv("SQLITE_PATH", "shows.db"),
		},
		Airtable: AirtableConfig{
			APIKey:    os.Getenv("AIRTABLE_API_KEY"),
			BaseID:    os.Getenv("AIRTABLE_BASE_ID"),
			TableName: getEnv("AIRTABLE_TABLE_NAME", "Shows"),
			BaseURL:   getEnv("AIRTABLE_BASE_URL", "https://api.airtable.com/v0"),
		},
		Sync: SyncConfig{
			Policy:         strings.ToLower(getEnv("SYNC_POLICY", "remote")),
			DeletionPolicy: strings.ToLower(getEnv("SYNC_DELETION_POLICY", "keep")),
		},
		Redis: RedisConfig{
			Host:     os.Getenv("REDIS_HOST"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		Email: EmailConfig{
			SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
			SendGridBaseURL:   getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			FromEmail:         getEnv("FROM_EMAIL", "noreply@comedyshows.com"),
			TicketFallbackURL: os.Getenv("TICKET_FALLBACK_URL"),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://*,http://localhost:3000,http://localhost:5173")),
		},
		AdminAuth: AdminAuthConfig{
			TokenSecret: os.Getenv("ADMIN_TOKEN_SECRET"),
		},
	}

	var err error
	if cfg.Airtable.Timeout, err = getDuration("AIRTABLE_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.Airtable.RPS, err = getFloat("AIRTABLE_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.HTTP.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 5); err != nil {
		return nil, err
	}
	if cfg.HTTP.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings. Missing Airtable credentials are allowed so the
// service can still serve the local mirror; remote calls will fail with INVALID_API_KEY.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Sync.Policy {
	case "remote", "local":
	default:
		return fmt.Errorf("SYNC_POLICY must be remote or local, got %q", c.Sync.Policy)
	}
	switch c.Sync.DeletionPolicy {
	case "keep", "prune":
	default:
		return fmt.Errorf("SYNC_DELETION_POLICY must be keep or prune, got %q", c.Sync.DeletionPolicy)
	}
	if c.Airtable.RPS <= 0 {
		return fmt.Errorf("AIRTABLE_RPS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
