// Package logging provides structured logging setup for verdict.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Options configure the logger built by New.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string

	// JSON selects the JSON handler instead of the text handler.
	JSON bool
}

// New creates a *slog.Logger writing to w with the given options.
func New(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(w, handlerOpts)
	} else {
		handler = slog.NewTextHandler(w, handlerOpts)
	}

	return slog.New(handler)
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
