package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

type EmailConfig struct {
	ServiceURL string
	From       string
}

type Config struct {
	App struct {
		Port           string
		CompanyName    string
		ExpiryInterval time.Duration
	}
	Postgres PostgresConfig
	Email    EmailConfig
}

// Load reads configuration from the environment, optionally seeded from a
// .env file. Database settings are required; everything else has defaults.
func Load(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.App.Port = env("APP_PORT", "8080")
	cfg.App.CompanyName = env("COMPANY_NAME", "QuoteGen")

	interval, err := time.ParseDuration(env("QUOTE_EXPIRY_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid QUOTE_EXPIRY_INTERVAL: %w", err)
	}
	cfg.App.ExpiryInterval = interval

	cfg.Postgres.Host, err = mustEnv("DB_HOST")
	if err != nil {
		return nil, err
	}
	cfg.Postgres.Port, err = mustEnv("DB_PORT")
	if err != nil {
		return nil, err
	}
	cfg.Postgres.User, err = mustEnv("DB_USER")
	if err != nil {
		return nil, err
	}
	cfg.Postgres.Password, err = mustEnv("DB_PASSWORD")
	if err != nil {
		return nil, err
	}
	cfg.Postgres.DBName, err = mustEnv("DB_NAME")
	if err != nil {
		return nil, err
	}
	cfg.Postgres.SSLMode = env("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = env("DB_MIGRATIONS_PATH", "migrations")

	cfg.Email.ServiceURL = env("EMAIL_SERVICE_URL", "")
	cfg.Email.From = env("EMAIL_FROM", "quotes@quotegen.example")

	return cfg, nil
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func mustEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
