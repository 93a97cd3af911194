// Package config loads the gateway configuration from QTUT_ prefixed
// environment variables, optionally read from a .env file.
//
// The first underscore after the prefix separates the section from the key,
// so QTUT_SERVER_HTTP_ADDR maps to Config.Server.HTTPAddr.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const EnvPrefix = "QTUT_"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"
)

type Config struct {
	Primary  Primary        `koanf:"primary" validate:"required"`
	Server   ServerConfig   `koanf:"server" validate:"required"`
	Database DatabaseConfig `koanf:"database" validate:"required"`
	Redis    RedisConfig    `koanf:"redis" validate:"required"`
	Auth     AuthConfig     `koanf:"auth" validate:"required"`
	Mail     MailConfig     `koanf:"mail"`
	NATS     NATSConfig     `koanf:"nats"`
	Logging  LoggingConfig  `koanf:"logging"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=development staging production test"`
}

type ServerConfig struct {
	HTTPAddr string `koanf:"http_addr" validate:"required"`
	// TCPAddr enables the binary TCP transport when set.
	TCPAddr               string        `koanf:"tcp_addr"`
	HandlerTimeout        time.Duration `koanf:"handler_timeout" validate:"min=1ms"`
	RateLimit             float64       `koanf:"rate_limit" validate:"gt=0"`
	RateBurst             int           `koanf:"rate_burst" validate:"min=1"`
	MaxConcurrentRequests int64         `koanf:"max_concurrent_requests" validate:"min=1"`
	ShutdownTimeout       time.Duration `koanf:"shutdown_timeout" validate:"min=1ms"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=postgres sqlite mongodb"`
	DSN    string `koanf:"dsn" validate:"required"`
	// Name is the MongoDB database name.
	Name string `koanf:"name" validate:"required_if=Driver mongodb"`
}

type RedisConfig struct {
	URL string `koanf:"url" validate:"required"`
}

type AuthConfig struct {
	SecretKey       string        `koanf:"secret_key" validate:"required,min=16"`
	SessionTTL      time.Duration `koanf:"session_ttl" validate:"min=1m"`
	ResetTokenTTL   time.Duration `koanf:"reset_token_ttl" validate:"min=1m"`
	ResetRateWindow time.Duration `koanf:"reset_rate_window" validate:"min=1s"`
	ResetRateLimit  int           `koanf:"reset_rate_limit" validate:"min=1"`
}

type MailConfig struct {
	Provider string `koanf:"provider" validate:"omitempty,oneof=sendgrid resend log"`
	APIKey   string `koanf:"api_key"`
	Sender   string `koanf:"sender" validate:"omitempty,email"`
}

// NATSConfig enables the NATS transport when URL is set.
type NATSConfig struct {
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix" validate:"required_with=URL"`
	QueueGroup    string `koanf:"queue_group" validate:"required_with=URL"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
}

func Default() *Config {
	return &Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			HTTPAddr:              ":8080",
			HandlerTimeout:        5 * time.Second,
			RateLimit:             5000,
			RateBurst:             1000,
			MaxConcurrentRequests: 10000,
			ShutdownTimeout:       10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverPostgres,
			Name:   "qtut",
		},
		Redis: RedisConfig{URL: "redis://localhost:6379/0"},
		Auth: AuthConfig{
			SessionTTL:      24 * time.Hour,
			ResetTokenTTL:   time.Hour,
			ResetRateWindow: time.Hour,
			ResetRateLimit:  3,
		},
		Mail: MailConfig{Provider: "log"},
		NATS: NATSConfig{
			SubjectPrefix: "gateway",
			QueueGroup:    "gateway-workers",
		},
	}
}

// Load reads the environment over the defaults and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if err := cfg.Mail.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// validate requires credentials for the providers that send real mail.
func (m MailConfig) validate() error {
	switch m.Provider {
	case "sendgrid", "resend":
		if m.APIKey == "" {
			return fmt.Errorf("mail.api_key is required for provider %s", m.Provider)
		}
		if m.Sender == "" {
			return fmt.Errorf("mail.sender is required for provider %s", m.Provider)
		}
	}
	return nil
}

// envKey maps QTUT_AUTH_SESSION_TTL to auth.session_ttl.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}
