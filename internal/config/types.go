// Package config provides layered configuration for pixelcanvas-go.
// Settings are assembled from built-in defaults, an optional .env file,
// process environment variables, and an optional Lua settings file, in
// that order. Later layers override earlier ones only for the values
// they actually set.
package config

import "time"

// Settings represents the complete pixelcanvas-go configuration.
// It aggregates remote-store, canvas, rendering, magnifier, sync, and
// window settings.
type Settings struct {
	// Remote contains the connection settings for the pixel store.
	Remote RemoteConfig
	// Canvas contains pre-sync canvas fallbacks.
	Canvas CanvasConfig
	// Render contains board rendering settings.
	Render RenderConfig
	// Magnifier contains zoomed-preview settings.
	Magnifier MagnifierConfig
	// Sync contains background refresh settings.
	Sync SyncConfig
	// Window contains window and session settings.
	Window WindowConfig
}

// RemoteConfig holds connection settings for the pixel store.
type RemoteConfig struct {
	// ServerURL is the base URL of the store, e.g. "http://localhost:8000".
	ServerURL string
	// UserID identifies this client to the store. Empty selects the
	// store's anonymous placeholder identity.
	UserID string
}

// CanvasConfig holds the canvas dimensions and cooldown used before the
// first sync. The store's state response is authoritative; these values
// only size the grid and the cooldown display until it arrives.
type CanvasConfig struct {
	// Width is the fallback canvas width in cells.
	Width int
	// Height is the fallback canvas height in cells.
	Height int
	// CooldownSeconds is the fallback paint cooldown shown before the
	// store reports the real one.
	CooldownSeconds int
}

// RenderConfig holds board rendering settings.
type RenderConfig struct {
	// CellSize is the on-screen edge length of one cell in pixels.
	CellSize int
	// BackgroundColor is the unpainted-cell color as a hex string.
	BackgroundColor string
	// GridLineColor is the cell-boundary line color as a hex string.
	GridLineColor string
	// Palette is the set of paint colors offered to the user. The first
	// nine entries are bound to the digit keys.
	Palette []string
}

// Magnifier content modes accepted by MagnifierConfig.Mode.
const (
	// MagnifierModeSample scales a region of the rendered board.
	MagnifierModeSample = "sample"
	// MagnifierModeRaster redraws cells at zoomed scale.
	MagnifierModeRaster = "raster"
)

// MagnifierConfig holds zoomed-preview settings.
type MagnifierConfig struct {
	// Radius is the lens radius in pixels.
	Radius int
	// Zoom is the magnification factor.
	Zoom float64
	// Mode selects how lens content is produced, "sample" or "raster".
	Mode string
	// CrosshairColor is the lens crosshair color as a hex string.
	CrosshairColor string
}

// SyncConfig holds background refresh settings.
type SyncConfig struct {
	// RefreshInterval is the period between background refreshes of
	// recent activity and stats.
	RefreshInterval time.Duration
	// ActivityLimit is the number of recent paints requested per
	// refresh. The store caps this at 500.
	ActivityLimit int
}

// WindowConfig holds window and session settings.
type WindowConfig struct {
	// Title is the window title.
	Title string
	// Headless disables the interactive window; the session still syncs
	// and accepts programmatic paints.
	Headless bool
}

// Validate checks the settings with default strictness. It returns nil
// when the settings are usable, or an error describing every problem
// found.
func (s *Settings) Validate() error {
	return ValidateSettings(s)
}
