package ctxlogger

import (
	"context"
	"log/slog"
)

// key is an unexported type used as the key for the logger in the context.
// Using an unexported type prevents key collisions with other packages
type key string

const loggerKey key = "logger"

// SetLogger returns a new context that carries the provided slog.Logger
func SetLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLogger retrieves the slog.Logger from the provided context.
// If no logger is found it falls back to the global default logger,
// so callers always get a usable logger back
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
