package pixelcanvas

import "time"

// DefaultShutdownTimeout is the default timeout for graceful shutdown.
// This can be overridden via Options.ShutdownTimeout.
const DefaultShutdownTimeout = 5 * time.Second

// Options configures the Canvas instance behavior.
type Options struct {
	// UpdateInterval overrides the settings file's sync refresh interval.
	// Zero means use the settings file's value.
	UpdateInterval time.Duration

	// WindowTitle overrides the window title.
	// Empty string means use the settings file's value.
	WindowTitle string

	// ServerURL overrides the settings file's store URL.
	// Empty string means use the settings file's value.
	ServerURL string

	// UserID overrides the settings file's user identity.
	// Empty string means use the settings file's value.
	UserID string

	// Headless runs without creating a window. The session still loads
	// the canvas, syncs statistics in the background, and accepts
	// programmatic paints through Canvas.Paint.
	Headless bool

	// ShutdownTimeout sets the maximum time to wait for graceful shutdown.
	// Zero means use DefaultShutdownTimeout (5 seconds).
	ShutdownTimeout time.Duration

	// Logger sets a custom logger for debug/info messages.
	// If nil, no logging is performed.
	Logger Logger

	// Metrics sets a custom metrics collector for operational metrics.
	// If nil, DefaultMetrics() is used.
	// Metrics can be exposed via /debug/vars by calling Metrics.RegisterExpvar().
	Metrics *Metrics

	// ErrorTracker sets a custom error tracker for error aggregation and alerting.
	// If nil, DefaultErrorTracker() is used.
	// Use ErrorTracker.AddCondition() to set up alerts.
	// Use ErrorTracker.SetAlertHandler() to receive alert notifications.
	ErrorTracker *ErrorTracker

	// WatchConfig enables automatic hot-reloading when the settings file
	// changes on disk. When enabled, file modifications trigger an
	// in-place reload (via ReloadConfig) without restarting. Only
	// file-backed instances created with New can be watched.
	WatchConfig bool

	// WatchDebounce sets the debounce interval for file change events.
	// Multiple rapid file modifications within this window trigger only
	// a single reload. Zero means use the default (500ms).
	WatchDebounce time.Duration
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		UpdateInterval:  0, // Use settings file value
		Headless:        false,
		ShutdownTimeout: 0, // Use DefaultShutdownTimeout
	}
}

// Logger interface for custom logging.
// It follows the slog-style signature for compatibility with Go's structured logging.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, args ...any)
	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, args ...any)
	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, args ...any)
	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, args ...any)
}
