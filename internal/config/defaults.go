package config

import "time"

// Default values for configuration options.
const (
	// DefaultServerURL is the store URL used when none is configured.
	DefaultServerURL = "http://localhost:8000"
	// DefaultCanvasWidth is the fallback canvas width in cells.
	DefaultCanvasWidth = 32
	// DefaultCanvasHeight is the fallback canvas height in cells.
	DefaultCanvasHeight = 32
	// DefaultCooldownSeconds is the fallback paint cooldown.
	DefaultCooldownSeconds = 30
	// DefaultCellSize is the on-screen cell edge length in pixels.
	DefaultCellSize = 20
	// DefaultRefreshInterval is the period between background refreshes.
	DefaultRefreshInterval = 10 * time.Second
	// DefaultActivityLimit is the number of recent paints fetched per refresh.
	DefaultActivityLimit = 50
	// DefaultMagnifierRadius is the lens radius in pixels.
	DefaultMagnifierRadius = 80
	// DefaultMagnifierZoom is the lens magnification factor.
	DefaultMagnifierZoom = 4.0
	// DefaultMagnifierMode is the lens content mode.
	DefaultMagnifierMode = MagnifierModeSample
	// DefaultWindowTitle is the window title.
	DefaultWindowTitle = "pixel canvas"
)

// Default colors, in canonical #RRGGBB form.
const (
	// DefaultBackgroundColor is the unpainted-cell color (white).
	DefaultBackgroundColor = "#FFFFFF"
	// DefaultGridLineColor is the cell-boundary line color (light grey).
	DefaultGridLineColor = "#DDDDDD"
	// DefaultCrosshairColor is the magnifier crosshair color (red).
	DefaultCrosshairColor = "#FF0000"
)

// DefaultPalette returns the starter set of paint colors bound to the
// digit keys. It returns a fresh slice so callers can modify it freely.
func DefaultPalette() []string {
	return []string{
		"#FF6B6B",
		"#4ECDC4",
		"#FFE66D",
		"#1A1A2E",
		"#FFFFFF",
		"#000000",
	}
}

// DefaultSettings returns Settings with sensible default values. The
// defaults match the store's own canvas defaults, so an unconfigured
// client lines up with an unconfigured store.
func DefaultSettings() Settings {
	return Settings{
		Remote: RemoteConfig{
			ServerURL: DefaultServerURL,
			UserID:    "",
		},
		Canvas: CanvasConfig{
			Width:           DefaultCanvasWidth,
			Height:          DefaultCanvasHeight,
			CooldownSeconds: DefaultCooldownSeconds,
		},
		Render: RenderConfig{
			CellSize:        DefaultCellSize,
			BackgroundColor: DefaultBackgroundColor,
			GridLineColor:   DefaultGridLineColor,
			Palette:         DefaultPalette(),
		},
		Magnifier: MagnifierConfig{
			Radius:         DefaultMagnifierRadius,
			Zoom:           DefaultMagnifierZoom,
			Mode:           DefaultMagnifierMode,
			CrosshairColor: DefaultCrosshairColor,
		},
		Sync: SyncConfig{
			RefreshInterval: DefaultRefreshInterval,
			ActivityLimit:   DefaultActivityLimit,
		},
		Window: WindowConfig{
			Title:    DefaultWindowTitle,
			Headless: false,
		},
	}
}

// DefaultRenderConfig returns a RenderConfig with default values.
func DefaultRenderConfig() RenderConfig {
	return DefaultSettings().Render
}

// DefaultMagnifierConfig returns a MagnifierConfig with default values.
func DefaultMagnifierConfig() MagnifierConfig {
	return DefaultSettings().Magnifier
}
