// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// prefix is prepended to every variable name, e.g. CREDPANEL_DB_PATH.
const prefix = "CREDPANEL"

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr    string        `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8080"`
	DBPath        string        `envconfig:"DB_PATH" default:"credpanel.db"`
	SecretKey     string        `envconfig:"SECRET_KEY" required:"true"`
	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"168h"`
	ResetTokenTTL time.Duration `envconfig:"RESET_TOKEN_TTL" default:"30m"`
	CORSOrigins   []string      `envconfig:"CORS_ORIGINS"`
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat     string        `envconfig:"LOG_FORMAT" default:"text"`
	ResetURL      string        `envconfig:"RESET_URL" default:"http://localhost:8080/reset-password"`
}

// Load reads configuration from a .env file in the working directory, if
// present, and then from CREDPANEL_* environment variables. Variables already
// set in the environment win over the file.
//
// Required: CREDPANEL_SECRET_KEY (field encryption key material) and
// CREDPANEL_JWT_SECRET (token signing key).
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return fmt.Errorf("%s_SECRET_KEY must not be blank", prefix)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("%s_JWT_SECRET must not be blank", prefix)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("%s_TOKEN_TTL must be positive, got %s", prefix, c.TokenTTL)
	}
	if c.ResetTokenTTL <= 0 {
		return fmt.Errorf("%s_RESET_TOKEN_TTL must be positive, got %s", prefix, c.ResetTokenTTL)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%s_LOG_FORMAT must be text or json, got %q", prefix, c.LogFormat)
	}

	origins := c.CORSOrigins[:0]
	for _, o := range c.CORSOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSOrigins = origins

	return nil
}

// SlogLevel parses LogLevel into a slog.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%s_LOG_LEVEL has invalid level %q: %w", prefix, c.LogLevel, err)
	}
	return level, nil
}
