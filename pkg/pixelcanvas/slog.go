package pixelcanvas

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// SlogAdapter wraps a *slog.Logger to implement the Logger interface.
// This enables integration with Go's structured logging facilities.
//
// Example:
//
//	// Use default slog logger
//	opts := pixelcanvas.DefaultOptions()
//	opts.Logger = pixelcanvas.NewSlogAdapter(slog.Default())
//
//	// Use a custom slog handler
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	opts.Logger = pixelcanvas.NewSlogAdapter(slog.New(handler))
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger adapter from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug-level message with optional key-value pairs.
func (s *SlogAdapter) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Info logs an info-level message with optional key-value pairs.
func (s *SlogAdapter) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (s *SlogAdapter) Warn(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

// Error logs an error-level message with optional key-value pairs.
func (s *SlogAdapter) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// DefaultLogger returns a Logger configured for typical use cases.
// It logs to stderr with text format at Info level.
// For more control, use NewSlogAdapter with a custom slog.Handler.
func DefaultLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// DebugLogger returns a Logger configured for debugging.
// It logs to stderr with text format at Debug level, including source location.
func DebugLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// JSONLogger returns a Logger that outputs JSON-formatted logs.
// This is suitable for production environments with log aggregation systems.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// NopLogger returns a Logger that discards all log messages.
// Use this when logging should be completely disabled.
func NopLogger() Logger {
	return &nopLogger{}
}

// nopLogger implements Logger but discards all messages.
type nopLogger struct{}

func (n *nopLogger) Debug(msg string, args ...any) {}
func (n *nopLogger) Info(msg string, args ...any)  {}
func (n *nopLogger) Warn(msg string, args ...any)  {}
func (n *nopLogger) Error(msg string, args ...any) {}

// slogFrom extracts or builds the *slog.Logger behind a Logger so the
// internal packages, which speak *slog.Logger, log through whatever the
// host installed. A SlogAdapter unwraps to its own logger; a nil or nop
// Logger discards; anything else is bridged through loggerHandler.
func slogFrom(l Logger) *slog.Logger {
	switch v := l.(type) {
	case nil:
		return slog.New(slog.DiscardHandler)
	case *SlogAdapter:
		return v.logger
	case *nopLogger:
		return slog.New(slog.DiscardHandler)
	default:
		return slog.New(&loggerHandler{logger: v})
	}
}

// loggerHandler adapts a custom Logger implementation back into a
// slog.Handler. Attributes flatten to alternating key-value args; group
// names qualify keys with dots.
type loggerHandler struct {
	logger Logger
	attrs  []slog.Attr // keys pre-qualified at bind time
	groups []string
}

// Enabled reports true for every level; filtering is the Logger's job.
func (h *loggerHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

// Handle forwards the record to the Logger method matching its level.
func (h *loggerHandler) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, (len(h.attrs)+r.NumAttrs())*2)
	for _, a := range h.attrs {
		args = append(args, a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		args = append(args, h.qualify(a.Key), a.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, args...)
	default:
		h.logger.Debug(r.Message, args...)
	}
	return nil
}

// WithAttrs returns a handler with the attributes bound under the
// currently open groups.
func (h *loggerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		a.Key = h2.qualify(a.Key)
		h2.attrs = append(h2.attrs, a)
	}
	return h2
}

// WithGroup returns a handler that qualifies subsequent keys with name.
func (h *loggerHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	h2.groups = append(h2.groups, name)
	return h2
}

func (h *loggerHandler) clone() *loggerHandler {
	return &loggerHandler{
		logger: h.logger,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: append([]string(nil), h.groups...),
	}
}

func (h *loggerHandler) qualify(key string) string {
	if len(h.groups) == 0 {
		return key
	}
	return strings.Join(h.groups, ".") + "." + key
}
