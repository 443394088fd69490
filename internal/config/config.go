package config

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"unitrack"`
		Port int    `envconfig:"PORT" default:"8080"`
		// LogLevel is one of debug, info, warn, error.
		LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
		// OperatorID is the user the TUI acts as.
		OperatorID string `envconfig:"OPERATOR_ID"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"unitrack"`
		Migrate  bool   `envconfig:"DB_MIGRATE" default:"true"`
	}

	Server struct {
		Timeout        time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		AllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
		// TrustProxy honours X-Forwarded-For / X-Real-IP for the client address.
		TrustProxy bool `envconfig:"TRUST_PROXY" default:"false"`
	}

	Auth struct {
		JWTSecret string `envconfig:"JWT_SECRET"`
		Issuer    string `envconfig:"JWT_ISSUER" default:"unitrack"`
	}

	Redis struct {
		Addr     string        `envconfig:"REDIS_ADDR"`
		Password string        `envconfig:"REDIS_PASSWORD"`
		DB       int           `envconfig:"REDIS_DB" default:"0"`
		TTL      time.Duration `envconfig:"REDIS_TTL" default:"10m"`
	}

	Documents struct {
		Token string `envconfig:"DOCUMENTS_TOKEN"`
	}

	RateLimit struct {
		// Rate uses the limiter format, e.g. "100-M" for 100 requests per minute.
		// Empty disables rate limiting.
		Rate string `envconfig:"RATE_LIMIT" default:"300-M"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

// Validate reports settings the API cannot start without.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	return nil
}

// Operator parses OPERATOR_ID.
func (c *Config) Operator() (uuid.UUID, error) {
	if c.App.OperatorID == "" {
		return uuid.Nil, fmt.Errorf("OPERATOR_ID is required")
	}

	id, err := uuid.Parse(c.App.OperatorID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid OPERATOR_ID: %w", err)
	}

	return id, nil
}
