package events

import (
	"context"
	"os"
)

type contextKey int

const loggerKey contextKey = iota

var defaultLogger = NewTestLogger(InfoLevel, "text", os.Stderr)

// FromContext extracts the logger from ctx, falling back to a default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(loggerKey).(*Logger); ok {
		return l
	}
	return defaultLogger
}

// WithLogger attaches a logger to ctx.
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
