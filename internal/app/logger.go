// Package app holds process-level wiring shared by the binaries.
package app

import (
	"io"
	"log/slog"
	"strings"

	"github.com/mindease/backend/internal/config"
)

// NewLogger builds a slog logger writing to w. Format "text" is human
// readable with source locations; anything else is JSON. Unknown levels fall
// back to info.
func NewLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	text := strings.EqualFold(cfg.Format, "text")
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: text,
	}

	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "mindease")
}

// ParseLevel maps debug|info|warn|error onto slog levels.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
