package pixelcanvas

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/opd-ai/go-pixelcanvas/internal/client"
)

// CorrelationID represents a unique identifier for tracing operations.
// It is used to correlate log entries, events, and store requests across
// different components and goroutines within a single logical operation.
// IDs placed on a context with WithCorrelationID travel with Paint calls
// all the way to the store as the X-Request-ID header.
type CorrelationID = client.CorrelationID

// NewCorrelationID generates a new random correlation ID.
// The ID is a 16-character hex string (64 bits of randomness).
func NewCorrelationID() CorrelationID {
	return client.NewCorrelationID()
}

// WithCorrelationID returns a new context with the given correlation ID.
// If id is empty, a new correlation ID is generated.
func WithCorrelationID(ctx context.Context, id CorrelationID) context.Context {
	return client.WithCorrelationID(ctx, id)
}

// CorrelationIDFromContext retrieves the correlation ID from the context.
// Returns an empty string if no correlation ID is present.
func CorrelationIDFromContext(ctx context.Context) CorrelationID {
	return client.CorrelationIDFromContext(ctx)
}

// EnsureCorrelationID returns the context with a correlation ID,
// generating a new one if the context doesn't already have one.
// This is useful for ensuring all operations have a correlation ID.
func EnsureCorrelationID(ctx context.Context) context.Context {
	return client.EnsureCorrelationID(ctx)
}

// CorrelatedLogger wraps a Logger to automatically include correlation IDs
// in all log messages when available from the context.
type CorrelatedLogger struct {
	logger Logger
	ctx    context.Context
}

// NewCorrelatedLogger creates a CorrelatedLogger that includes the correlation ID
// from the context in all log messages.
func NewCorrelatedLogger(ctx context.Context, logger Logger) *CorrelatedLogger {
	if logger == nil {
		logger = NopLogger()
	}
	return &CorrelatedLogger{
		logger: logger,
		ctx:    ctx,
	}
}

// withCorrelation prepends the correlation ID to the args if present.
func (c *CorrelatedLogger) withCorrelation(args []any) []any {
	id := CorrelationIDFromContext(c.ctx)
	if id != "" {
		return append([]any{"correlation_id", string(id)}, args...)
	}
	return args
}

// Debug logs a debug-level message with optional key-value pairs.
func (c *CorrelatedLogger) Debug(msg string, args ...any) {
	c.logger.Debug(msg, c.withCorrelation(args)...)
}

// Info logs an info-level message with optional key-value pairs.
func (c *CorrelatedLogger) Info(msg string, args ...any) {
	c.logger.Info(msg, c.withCorrelation(args)...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (c *CorrelatedLogger) Warn(msg string, args ...any) {
	c.logger.Warn(msg, c.withCorrelation(args)...)
}

// Error logs an error-level message with optional key-value pairs.
func (c *CorrelatedLogger) Error(msg string, args ...any) {
	c.logger.Error(msg, c.withCorrelation(args)...)
}

// WithContext returns a new CorrelatedLogger with the given context.
// This is useful for updating the correlation ID as operations flow through.
func (c *CorrelatedLogger) WithContext(ctx context.Context) *CorrelatedLogger {
	return &CorrelatedLogger{
		logger: c.logger,
		ctx:    ctx,
	}
}

// CorrelatedSlogHandler wraps an slog.Handler to automatically extract and add
// correlation IDs from context. This integrates with Go's native context handling
// in slog when using slog.InfoContext, slog.DebugContext, etc.
type CorrelatedSlogHandler = client.CorrelatedSlogHandler

// NewCorrelatedSlogHandler creates a new handler that adds correlation IDs.
func NewCorrelatedSlogHandler(inner slog.Handler) *CorrelatedSlogHandler {
	return client.NewCorrelatedSlogHandler(inner)
}

// CorrelatedJSONLogger returns a *slog.Logger that outputs JSON-formatted
// logs with automatic correlation ID extraction from context. A nil
// writer defaults to stderr. Use slog.InfoContext, slog.DebugContext,
// etc. to include correlation IDs.
func CorrelatedJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewCorrelatedSlogHandler(handler))
}
