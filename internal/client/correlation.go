package client

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
)

// correlationIDKey is the context key for storing correlation IDs.
type correlationIDKey struct{}

// CorrelationID identifies one logical operation across components. It
// travels in the context, lands in every log record, and crosses the
// wire as the X-Request-ID header so store-side logs line up with ours.
type CorrelationID string

// String returns the string representation of the correlation ID.
func (c CorrelationID) String() string {
	return string(c)
}

// NewCorrelationID generates a new random correlation ID.
// The ID is a 16-character hex string (64 bits of randomness).
func NewCorrelationID() CorrelationID {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		// Fallback to a deterministic ID if random generation fails
		return CorrelationID("00000000-fallback")
	}
	return CorrelationID(hex.EncodeToString(b))
}

// WithCorrelationID returns a new context with the given correlation ID.
// If id is empty, a new correlation ID is generated.
func WithCorrelationID(ctx context.Context, id CorrelationID) context.Context {
	if id == "" {
		id = NewCorrelationID()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFromContext retrieves the correlation ID from the context.
// Returns an empty string if no correlation ID is present.
func CorrelationIDFromContext(ctx context.Context) CorrelationID {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(correlationIDKey{}).(CorrelationID); ok {
		return id
	}
	return ""
}

// EnsureCorrelationID returns the context with a correlation ID,
// generating a new one if the context doesn't already have one.
func EnsureCorrelationID(ctx context.Context) context.Context {
	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return WithCorrelationID(ctx, NewCorrelationID())
}

// CorrelatedSlogHandler wraps an slog.Handler to automatically extract
// and add correlation IDs from context. Use slog.InfoContext and
// friends to benefit.
type CorrelatedSlogHandler struct {
	inner slog.Handler
}

// NewCorrelatedSlogHandler creates a new handler that adds correlation IDs.
func NewCorrelatedSlogHandler(inner slog.Handler) *CorrelatedSlogHandler {
	return &CorrelatedSlogHandler{inner: inner}
}

// Enabled reports whether the handler handles records at the given level.
func (h *CorrelatedSlogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle processes the log record, adding correlation ID if present in context.
func (h *CorrelatedSlogHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationIDFromContext(ctx); id != "" {
		r = r.Clone()
		r.AddAttrs(slog.String("correlation_id", string(id)))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new handler with the given attributes.
func (h *CorrelatedSlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelatedSlogHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a new handler with the given group name.
func (h *CorrelatedSlogHandler) WithGroup(name string) slog.Handler {
	return &CorrelatedSlogHandler{inner: h.inner.WithGroup(name)}
}
