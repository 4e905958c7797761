package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Lease backends accepted by LEASE_BACKEND.
const (
	LeaseLocal    = "local"
	LeaseDatabase = "database"
	LeaseRedis    = "redis"
)

// Config keeps runtime settings for the bot and the reset scheduler.
type Config struct {
	TelegramToken   string `envconfig:"TELEGRAM_TOKEN"`
	DatabaseDriver  string `envconfig:"DATABASE_DRIVER" default:"sqlite" validate:"oneof=sqlite postgres"`
	DatabaseURL     string `envconfig:"DATABASE_URL" default:"taskmaster.db" validate:"required"`
	LogLevel        string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	DefaultTimeZone string `envconfig:"DEFAULT_TIME_ZONE" default:"UTC" validate:"required,timezone"`

	Reset  ResetConfig
	Lease  LeaseConfig
	Redis  RedisConfig
	Report ReportConfig
}

// ResetConfig tunes the scheduler driver.
type ResetConfig struct {
	TickInterval time.Duration `envconfig:"RESET_TICK_INTERVAL" default:"1m" validate:"gt=0"`
	TickTimeout  time.Duration `envconfig:"RESET_TICK_TIMEOUT" default:"50s" validate:"gt=0"`
	Workers      int           `envconfig:"RESET_WORKERS" default:"4" validate:"min=1"`
	MaxCatchUp   int           `envconfig:"RESET_MAX_CATCH_UP" default:"366" validate:"min=1"`
}

// LeaseConfig selects how overlapping ticks are prevented.
type LeaseConfig struct {
	Backend string        `envconfig:"LEASE_BACKEND" default:"database" validate:"oneof=local database redis"`
	TTL     time.Duration `envconfig:"LEASE_TTL" default:"2m" validate:"gt=0"`
}

type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0" validate:"min=0"`
}

// ReportConfig controls the periodic progress report. Zero disables it.
type ReportConfig struct {
	Interval time.Duration `envconfig:"REPORT_INTERVAL" default:"5h" validate:"min=0"`
}

// Error reports which loading step failed.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads configuration from an optional .env file and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, &Error{Op: "parse", Err: err}
	}
	cfg.TelegramToken = strings.TrimSpace(cfg.TelegramToken)

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, &Error{Op: "validate", Err: err}
	}
	if cfg.Lease.Backend == LeaseRedis && cfg.Redis.Addr == "" {
		return Config{}, &Error{Op: "validate", Err: fmt.Errorf("REDIS_ADDR is required for the redis lease")}
	}
	return cfg, nil
}

// Location loads the configured default zone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.DefaultTimeZone)
	if err != nil {
		return nil, &Error{Op: "time zone", Err: err}
	}
	return loc, nil
}

// Logger builds a text logger at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
