package ui

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// InputSource abstracts the polled keyboard and mouse state so the
// update logic can be driven by tests without a display.
type InputSource interface {
	// CursorPosition returns the pointer position in logical pixels.
	CursorPosition() (x, y int)
	// MagnifierHeld reports whether the magnifier key is held down.
	MagnifierHeld() bool
	// StrategyToggled reports a just-pressed strategy toggle.
	StrategyToggled() bool
	// PaletteDigit returns the just-pressed digit key, 1 through 9,
	// or zero when none was pressed this tick.
	PaletteDigit() int
	// ExportPressed reports a just-pressed export key.
	ExportPressed() bool
	// PaintClicked reports a just-pressed left mouse button.
	PaintClicked() bool
}

// ebitenInput reads the live input state through Ebiten. Hold M for the
// magnifier, Tab to switch its strategy, digits to pick a color, E to
// export a PNG, left click to paint.
type ebitenInput struct{}

var digitKeys = [...]ebiten.Key{
	ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3,
	ebiten.KeyDigit4, ebiten.KeyDigit5, ebiten.KeyDigit6,
	ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

func (ebitenInput) CursorPosition() (int, int) {
	return ebiten.CursorPosition()
}

func (ebitenInput) MagnifierHeld() bool {
	return ebiten.IsKeyPressed(ebiten.KeyM)
}

func (ebitenInput) StrategyToggled() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyTab)
}

func (ebitenInput) PaletteDigit() int {
	for i, k := range digitKeys {
		if inpututil.IsKeyJustPressed(k) {
			return i + 1
		}
	}
	return 0
}

func (ebitenInput) ExportPressed() bool {
	return inpututil.IsKeyJustPressed(ebiten.KeyE)
}

func (ebitenInput) PaintClicked() bool {
	return inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}
