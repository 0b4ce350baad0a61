package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int    `envconfig:"PORT" default:"8080"`
	DatabasePath string `envconfig:"DATABASE_PATH" default:"./replydesk.db"`

	JWTSecret          string `envconfig:"JWT_SECRET"`
	TokenExpireMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"10080"` // 7 days
	BcryptCost         int    `envconfig:"BCRYPT_COST" default:"10"`

	// OpenAIKey toggles the reply generator into external mode when set.
	OpenAIKey      string        `envconfig:"OPENAI_API_KEY"`
	OpenAIEndpoint string        `envconfig:"OPENAI_ENDPOINT" default:"https://api.openai.com/v1/chat/completions"`
	OpenAIModel    string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	ReplyMaxTokens int           `envconfig:"REPLY_MAX_TOKENS" default:"250"`
	ReplyTimeout   time.Duration `envconfig:"REPLY_TIMEOUT" default:"30s"`

	CORSOrigins       []string `envconfig:"CORS_ORIGINS" default:"*"`
	LogLevel          string   `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty         bool     `envconfig:"LOG_PRETTY" default:"true"`
	AuthRatePerMinute int      `envconfig:"AUTH_RATE_PER_MINUTE" default:"20"`
	MaintenanceCron   string   `envconfig:"MAINTENANCE_CRON" default:"@daily"`
}

// TokenTTL returns the configured access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenExpireMinutes) * time.Minute
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.TokenExpireMinutes <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", c.TokenExpireMinutes)
	}
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.ServerPort)
	}
	if c.ReplyTimeout <= 0 {
		return fmt.Errorf("REPLY_TIMEOUT must be positive, got %s", c.ReplyTimeout)
	}
	return nil
}
