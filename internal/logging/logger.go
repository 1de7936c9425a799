// Package logging builds the slog.Logger every episode-binger command runs
// with, the same console/json handler switch five82-spindle's own logging
// package offers its daemon.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a slog.Logger writing to w (os.Stderr when nil) at the
// given level, in either "console" (slog's built-in text handler) or
// "json" form.
func New(format, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
