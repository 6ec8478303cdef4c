package ui

import (
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// WidgetStyle defines the visual appearance of HUD widgets.
type WidgetStyle struct {
	// FillColor is the color used to fill the progress portion.
	FillColor color.RGBA
	// BackgroundColor is the background color of the widget area.
	BackgroundColor color.RGBA
	// BorderColor is the color used for the widget border.
	BorderColor color.RGBA
	// BorderWidth is the width of the border in pixels.
	BorderWidth float32
	// ShowBorder indicates whether to draw the border.
	ShowBorder bool
	// ShowBackground indicates whether to draw the background.
	ShowBackground bool
}

// DefaultWidgetStyle returns a WidgetStyle with sensible defaults.
func DefaultWidgetStyle() WidgetStyle {
	return WidgetStyle{
		FillColor:       color.RGBA{R: 100, G: 200, B: 100, A: 255},
		BackgroundColor: color.RGBA{R: 50, G: 50, B: 50, A: 200},
		BorderColor:     color.RGBA{R: 150, G: 150, B: 150, A: 255},
		BorderWidth:     1.0,
		ShowBorder:      true,
		ShowBackground:  true,
	}
}

// ProgressBar displays a horizontal fill representing a value between a
// minimum and a maximum. The HUD uses one for the cooldown countdown:
// full right after a paint, draining to empty as the cooldown runs out.
type ProgressBar struct {
	x, y          float64
	width, height float64
	style         WidgetStyle
	value         float64
	minValue      float64
	maxValue      float64
	mu            sync.RWMutex
}

// NewProgressBar creates a progress bar at the given position with the
// given size and a 0 to 100 range.
func NewProgressBar(x, y, width, height float64) *ProgressBar {
	return &ProgressBar{
		x:        x,
		y:        y,
		width:    width,
		height:   height,
		style:    DefaultWidgetStyle(),
		minValue: 0,
		maxValue: 100,
	}
}

// SetStyle sets the visual style of the progress bar.
func (pb *ProgressBar) SetStyle(style WidgetStyle) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.style = style
}

// SetPosition sets the top-left position of the progress bar.
func (pb *ProgressBar) SetPosition(x, y float64) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.x = x
	pb.y = y
}

// SetSize sets the width and height of the progress bar.
func (pb *ProgressBar) SetSize(width, height float64) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.width = width
	pb.height = height
}

// SetValue sets the current value. Values outside the range draw
// clamped but are stored as given.
func (pb *ProgressBar) SetValue(value float64) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.value = value
}

// SetRange sets the minimum and maximum values. If maxVal <= minVal,
// the values are swapped to ensure a valid range.
func (pb *ProgressBar) SetRange(minVal, maxVal float64) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if maxVal <= minVal {
		minVal, maxVal = maxVal, minVal
		if maxVal == minVal {
			maxVal = minVal + 1
		}
	}
	pb.minValue = minVal
	pb.maxValue = maxVal
}

// Value returns the current value of the progress bar.
func (pb *ProgressBar) Value() float64 {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.value
}

// Percentage returns the current value as a percentage (0-100).
func (pb *ProgressBar) Percentage() float64 {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.calculatePercentage()
}

// calculatePercentage returns the normalized percentage (0-100) without locking.
func (pb *ProgressBar) calculatePercentage() float64 {
	valueRange := pb.maxValue - pb.minValue
	if valueRange == 0 {
		return 0
	}
	pct := ((pb.value - pb.minValue) / valueRange) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Draw renders the progress bar onto the given screen.
func (pb *ProgressBar) Draw(screen *ebiten.Image) {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	if pb.style.ShowBackground {
		vector.DrawFilledRect(
			screen,
			float32(pb.x), float32(pb.y),
			float32(pb.width), float32(pb.height),
			pb.style.BackgroundColor,
			false,
		)
	}

	fillWidth := pb.calculatePercentage() / 100.0 * pb.width
	if fillWidth > 0 {
		vector.DrawFilledRect(
			screen,
			float32(pb.x), float32(pb.y),
			float32(fillWidth), float32(pb.height),
			pb.style.FillColor,
			false,
		)
	}

	if pb.style.ShowBorder && pb.style.BorderWidth > 0 {
		vector.StrokeRect(
			screen,
			float32(pb.x), float32(pb.y),
			float32(pb.width), float32(pb.height),
			pb.style.BorderWidth,
			pb.style.BorderColor,
			false,
		)
	}
}
