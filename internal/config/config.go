// Package config loads runtime settings from the environment.
//
// A .env file in the working directory is read first when present; values
// already set in the real environment win over the file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/foodgram/internal/shoppinglist"
)

// Config holds every setting the server and the admin CLI need.
type Config struct {
	Port                 int
	DBPath               string
	JWTSecret            string
	TokenTTL             time.Duration
	LogLevel             slog.Level
	LogFormat            string
	ShoppingListFileName string
}

// Defaults.
const (
	DefaultPort      = 8080
	DefaultDBPath    = "data/foodgram.db"
	DefaultTokenTTL  = 720 * time.Hour
	DefaultLogFormat = "text"

	minSecretLen = 16
)

// Load reads .env (if it exists) and then the environment.
func Load() (Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an
// error; a malformed one is.
func LoadFile(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only. Every problem
// found is reported, each naming its key.
func FromEnv() (Config, error) {
	cfg := Config{
		Port:                 DefaultPort,
		DBPath:               DefaultDBPath,
		TokenTTL:             DefaultTokenTTL,
		LogLevel:             slog.LevelInfo,
		LogFormat:            DefaultLogFormat,
		ShoppingListFileName: shoppinglist.DefaultFileName,
	}
	var errs []error

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT: %q is not a valid port", v))
		} else {
			cfg.Port = port
		}
	}

	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	switch {
	case cfg.JWTSecret == "":
		errs = append(errs, errors.New("JWT_SECRET: must be set"))
	case len(cfg.JWTSecret) < minSecretLen:
		errs = append(errs, fmt.Errorf("JWT_SECRET: must be at least %d characters", minSecretLen))
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil || ttl <= 0 {
			errs = append(errs, fmt.Errorf("TOKEN_TTL: %q is not a positive duration", v))
		} else {
			cfg.TokenTTL = ttl
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		// slog.Level understands debug, info, warn and error (any case).
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %q is not one of debug, info, warn, error", v))
		}
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch f := strings.ToLower(v); f {
		case "text", "json":
			cfg.LogFormat = f
		default:
			errs = append(errs, fmt.Errorf("LOG_FORMAT: %q is not text or json", v))
		}
	}

	if v := os.Getenv("SHOPPING_LIST_FILENAME"); v != "" {
		cfg.ShoppingListFileName = v
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// NewLogger builds the process logger described by LogLevel and LogFormat,
// writing to stdout.
func (c Config) NewLogger() *slog.Logger {
	return c.NewLoggerTo(os.Stdout)
}

// NewLoggerTo is NewLogger with an explicit destination.
func (c Config) NewLoggerTo(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
