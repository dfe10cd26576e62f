// Package main is the entry point for the foodgram API server.
//
// main stays minimal: read configuration, build the logger, make sure the
// database directory exists, then hand everything to internal/server.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env is optional; real environment variables win over it.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
