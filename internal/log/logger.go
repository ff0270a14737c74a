// Package log wraps slog with a component-tagged logger shared by the
// fintrack binaries.
package log

import (
	"log/slog"
	"os"
)

// Component names used by the fintrack binaries.
const (
	ComponentAPI    = "api"
	ComponentWorker = "worker"
)

// Logger is a slog.Logger whose records always carry a component
// attribute.
type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler // overrides the default text handler; used in tests
}

// New builds a logger for one binary. The component attribute is attached
// to the underlying logger, so it survives SetDefault and package-level
// slog calls.
func New(config Config) *Logger {
	handler := config.Handler
	if handler == nil {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: config.Level,
		})
	}
	l := slog.New(handler)
	if config.Component != "" {
		l = l.With("component", config.Component)
	}
	return &Logger{Logger: l}
}

// SetDefault routes package-level slog calls through this logger.
func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
