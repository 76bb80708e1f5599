package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a slog.Logger in the configured format.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg != nil && !cfg.IsProdLike() {
		opts.Level = slog.LevelDebug
	}
	if cfg != nil && cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// Loggerf adapts a slog.Logger to the printf hook services accept.
// A leading "level=error" or "level=warn" selects the level.
func Loggerf(l *slog.Logger) func(format string, args ...interface{}) {
	return func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		switch {
		case strings.HasPrefix(msg, "level=error"):
			l.Error(strings.TrimSpace(strings.TrimPrefix(msg, "level=error")))
		case strings.HasPrefix(msg, "level=warn"):
			l.Warn(strings.TrimSpace(strings.TrimPrefix(msg, "level=warn")))
		default:
			l.Info(strings.TrimSpace(strings.TrimPrefix(msg, "level=info")))
		}
	}
}
