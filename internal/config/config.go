package config // package config loads application configuration from environment variables

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The storage dialect is picked by DBDriver: the
// MySQL fields are used for "mysql" and SQLitePath for "sqlite".
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"dev"`
	Port     string `env:"APP_PORT" envDefault:"8001"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser     string `env:"DB_USER"`
	DBPass     string `env:"DB_PASS"` // empty allowed
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"3306"`
	DBName     string `env:"DB_NAME" envDefault:"leaderboard"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"leaderboard.db"`

	JWTSecret  string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL   time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
	BcryptCost int           `env:"BCRYPT_COST" envDefault:"10"`

	// RabbitMQURL enables new-record events when set.
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

// Load reads configuration values from the environment.  Missing required
// variables and unparsable values are reported as a single error.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case "mysql":
		if cfg.DBUser == "" {
			return Config{}, fmt.Errorf("missing required env var: DB_USER")
		}
	case "sqlite":
	default:
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TOKEN_TTL must be positive")
	}
	return cfg, nil
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
