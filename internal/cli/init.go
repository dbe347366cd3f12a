// Package cli holds the start-up steps shared by every subcommand.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"investtracker/internal/config"
	applog "investtracker/internal/log"
)

// LoadEnvFile loads the .env file for local development.
// A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads the environment, lets adjust override values
// (command line flags), and validates the result. adjust may be nil.
func LoadAndValidateConfig(adjust func(*config.Config)) (*config.Config, error) {
	cfg := config.Load()
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetupLogger builds the application logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}
	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = strings.ToLower(cfg.LogFormat)
	lc.Output = os.Stdout

	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
