// Package logging builds the slog loggers used across the commands.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// New returns a slog.Logger writing to w with the provided level string
// (debug, info, warn, error). format may be "json" or "text".
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// LogRunStart logs the beginning of a reconstruction.
func LogRunStart(logger *slog.Logger, source string, strips int) {
	logger.Info("run started", "source", source, "strips", strips)
}

// LogRunComplete logs a successful reconstruction.
func LogRunComplete(logger *slog.Logger, id, source string, duration time.Duration, seam int) {
	logger.Info("run completed",
		"id", id,
		"source", source,
		"duration_ms", duration.Milliseconds(),
		"seam_strip", seam,
	)
}

// LogRunError logs a failed reconstruction.
func LogRunError(logger *slog.Logger, id, source string, duration time.Duration, err error) {
	logger.Error("run failed",
		"id", id,
		"source", source,
		"duration_ms", duration.Milliseconds(),
		"error", err.Error(),
	)
}
