package logger

import (
	"context"
	"log/slog"
	"os"
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

// Init initializes the global logger
func Init(level, format string) {
	var handler slog.Handler
	
	logLevel := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level: logLevel,
		AddSource: true,
	}

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// parseLevel converts string level to slog.Level
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithContext returns a logger annotated with per-location tracing fields
func WithContext(ctx context.Context) *slog.Logger {
	return defaultLogger.With(
		"location", ctx.Value(ctxKeyLocation),
		"batch_id", ctx.Value(ctxKeyBatchID),
	)
}

type ctxKey string

const (
	ctxKeyLocation ctxKey = "location"
	ctxKeyBatchID  ctxKey = "batch_id"
)

// WithLocation attaches a location name to the context for logging.
func WithLocation(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ctxKeyLocation, name)
}

// WithBatchID attaches a batch correlation id to the context for logging.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyBatchID, id)
}

// Info logs an info message
func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
	os.Exit(1)
}