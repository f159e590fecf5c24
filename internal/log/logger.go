// Package log wraps slog with per-component child loggers and the field name
// constants used across the service.
package log

import (
	"log/slog"
	"os"
)

// Config holds logger configuration.
type Config struct {
	Level   slog.Level
	JSON    bool
	Handler slog.Handler
}

func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo}
}

// New builds a logger from config. Text output by default, JSON when asked.
func New(config Config) *slog.Logger {
	handler := config.Handler
	if handler == nil {
		opts := &slog.HandlerOptions{Level: config.Level}
		if config.JSON {
			handler = slog.NewJSONHandler(os.Stdout, opts)
		} else {
			handler = slog.NewTextHandler(os.Stdout, opts)
		}
	}
	return slog.New(handler)
}

// Setup installs a logger built from config as the process default.
func Setup(config Config) *slog.Logger {
	logger := New(config)
	slog.SetDefault(logger)
	return logger
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With(FieldComponent, component)
}
