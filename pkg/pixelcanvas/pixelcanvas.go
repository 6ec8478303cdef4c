package pixelcanvas

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/opd-ai/go-pixelcanvas/internal/config"
)

// Canvas represents an embedded pixelcanvas-go session with full
// lifecycle control. It is safe for concurrent use from multiple
// goroutines.
type Canvas interface {
	// Start connects to the store, loads the full canvas state, and
	// begins the session. It returns after the initial load; the window
	// loop (or, in headless mode, just the background sync) runs in
	// background goroutines. Returns an error if already running, if
	// the store is unreachable, or if its canvas does not match the
	// configured dimensions.
	Start() error

	// Stop gracefully shuts down the session.
	// It waits for all goroutines to complete before returning.
	// Safe to call multiple times; subsequent calls are no-ops.
	Stop() error

	// Restart performs a stop followed by a start.
	// Configuration is reloaded from the original source.
	// Returns an error if restart fails; the instance will be in a
	// stopped state.
	Restart() error

	// ReloadConfig reloads the configuration in-place without stopping.
	// Live-tunable values (palette, refresh interval, magnifier mode)
	// take effect immediately; session-immutable values (canvas
	// dimensions, cell size, server URL) require Restart and are
	// reported through the error handler when they change on disk.
	// Returns an error if the reload fails; the previous configuration
	// remains active.
	ReloadConfig() error

	// IsRunning returns true if the session is currently active.
	IsRunning() bool

	// Status returns detailed status information about the instance.
	Status() Status

	// Paint submits one programmatic paint through the same flow a
	// click takes: bounds check, color validation, cooldown gate, store
	// call, and local apply of the confirmed result. Intended for
	// headless embedding; in windowed mode it coexists safely with
	// interactive painting.
	Paint(ctx context.Context, x, y int, color string) (PaintReceipt, error)

	// CellColor returns the canonical color of a painted cell and
	// whether it has been painted. It reads the local cache; results
	// reflect the last confirmed state, not in-flight requests.
	CellColor(x, y int) (string, bool)

	// CanvasSize returns the session's canvas dimensions in cells.
	CanvasSize() (width, height int)

	// SetErrorHandler registers a callback for runtime errors.
	// The handler is invoked asynchronously; do not block in the
	// handler. Implementations of Canvas MUST recover from panics in
	// the handler so that a buggy handler cannot crash the embedding
	// application.
	SetErrorHandler(handler ErrorHandler)

	// SetEventHandler registers a callback for lifecycle events.
	SetEventHandler(handler EventHandler)

	// Health returns a health check result for the session.
	// This can be used for monitoring, alerting, and debugging.
	Health() HealthCheck

	// Metrics returns the metrics collector for this instance.
	// Use Metrics().Snapshot() for a point-in-time copy of all metrics.
	// Use Metrics().RegisterExpvar() to expose metrics via /debug/vars.
	Metrics() *Metrics
}

// PaintReceipt is the confirmed outcome of a successful Paint: the cell
// and color the store actually recorded, plus the cooldown it imposed.
type PaintReceipt struct {
	// X and Y are the confirmed cell coordinates.
	X, Y int
	// Color is the recorded color in canonical #RRGGBB form.
	Color string
	// CooldownSeconds is how long the store will decline further paints.
	CooldownSeconds int
}

// New creates a new Canvas instance from a settings file on disk. The
// file is a Lua settings file (a canvas.config table); defaults, an
// optional .env file, and environment variables fill in everything it
// does not set. An empty path skips the file and runs on the
// environment layers alone.
//
// The instance is created but not started; call Start() to begin.
//
// Example:
//
//	c, err := pixelcanvas.New("canvas.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Stop()
//	if err := c.Start(); err != nil {
//		log.Fatal(err)
//	}
func New(configPath string, opts *Options) (Canvas, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	source := configPath
	if source == "" {
		source = "environment"
	}
	return newCanvas(settings, source, configPath, func() (*config.Settings, error) {
		return config.Load(configPath)
	}, opts), nil
}

// NewFromFS creates a new Canvas instance using a settings file from an
// embedded filesystem. This enables bundling settings within the
// application binary using Go's embed package.
//
// Example:
//
//	//go:embed configs/*
//	var configFS embed.FS
//
//	c, err := pixelcanvas.NewFromFS(configFS, "configs/canvas.lua", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
func NewFromFS(fsys fs.FS, configPath string, opts *Options) (Canvas, error) {
	settings, err := config.LoadFS(fsys, configPath)
	if err != nil {
		return nil, fmt.Errorf("parse settings from FS: %w", err)
	}

	return newCanvas(settings, "embedded:"+configPath, "", func() (*config.Settings, error) {
		return config.LoadFS(fsys, configPath)
	}, opts), nil
}

// NewFromReader creates a new Canvas instance from settings content
// provided as an io.Reader. This is useful for dynamically generated or
// network-loaded settings.
//
// Example:
//
//	settings := strings.NewReader(`
//		canvas.config = { cell_size = 16 }
//		canvas.palette = { "#FF0000", "#00FF00" }
//	`)
//	c, err := pixelcanvas.NewFromReader(settings, nil)
func NewFromReader(r io.Reader, opts *Options) (Canvas, error) {
	// Read content once (can't re-read a Reader)
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	settings, err := config.LoadReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	return newCanvas(settings, "reader", "", func() (*config.Settings, error) {
		return config.LoadReader(bytes.NewReader(content))
	}, opts), nil
}

// NewWithDefaults creates a new Canvas instance without a settings
// file: built-in defaults, the .env file, environment variables, and
// the Options overrides decide everything. This is the constructor for
// programmatic embedding, where the host application owns configuration.
func NewWithDefaults(opts *Options) (Canvas, error) {
	settings, err := config.Load("")
	if err != nil {
		return nil, fmt.Errorf("assemble settings: %w", err)
	}

	return newCanvas(settings, "programmatic", "", func() (*config.Settings, error) {
		return config.Load("")
	}, opts), nil
}
