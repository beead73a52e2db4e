// Package logging provides structured logging for the swath tools.
//
// This package wraps the standard library's log/slog package to provide
// consistent logging across the command and its services. The format
// drivers and sessions never log; errors are returned to the caller, who
// decides what to report.
//
// Usage:
//
//	// Initialize at startup
//	logging.Init(slog.LevelInfo, false) // Text format
//	logging.Init(slog.LevelDebug, true) // JSON format
//
//	// Get a component logger
//	log := logging.Component("export")
//	log.Info("file exported", "pings", 1200)
//
//	// Log with stream context
//	ctx = logging.ContextWithPath(ctx, "line0001.gsf")
//	logging.WithContext(ctx).Warn("skipped record", "error", err)
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and format.
// Output goes to stderr so command results on stdout stay machine-readable.
func Init(level slog.Level, jsonFormat bool) {
	InitWriter(os.Stderr, level, jsonFormat)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, level slog.Level, jsonFormat bool) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	if jsonFormat {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func current() *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger
}

// ParseLevel maps a config string to a slog level. Unknown strings map to info.
func ParseLevel(s string) slog.Level {
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

// Component returns a logger for a specific component.
// The component name is added as an attribute to all log entries.
func Component(name string) *slog.Logger {
	return current().With("component", name)
}

// WithContext returns a logger that includes stream values from ctx.
func WithContext(ctx context.Context) *slog.Logger {
	logger := current()

	if sessionID, ok := ctx.Value(contextKeySessionID).(string); ok {
		logger = logger.With("session_id", sessionID)
	}
	if path, ok := ctx.Value(contextKeyPath).(string); ok {
		logger = logger.With("path", path)
	}
	if format, ok := ctx.Value(contextKeyFormat).(string); ok {
		logger = logger.With("format", format)
	}

	return logger
}

type contextKey int

const (
	contextKeySessionID contextKey = iota
	contextKeyPath
	contextKeyFormat
)

// ContextWithSessionID adds a session ID to the context for logging.
func ContextWithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID, sessionID)
}

// ContextWithPath adds a file path to the context for logging.
func ContextWithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, contextKeyPath, path)
}

// ContextWithFormat adds a format name to the context for logging.
func ContextWithFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, contextKeyFormat, format)
}
