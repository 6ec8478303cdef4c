//go:build !noebiten

package pixelcanvas

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-pixelcanvas/internal/ui"
)

// runRenderLoop builds the window around the current session and runs
// the Ebiten loop. It blocks until the window closes or the session
// context is cancelled.
//
// The window is constructed here rather than in initSession so builds
// with the noebiten tag never instantiate Ebiten state.
func (c *canvasImpl) runRenderLoop() {
	c.mu.Lock()
	settings := c.sessionSettings
	controller := c.controller
	model := c.grid
	board := c.board
	lens := c.lens
	ctx := c.ctx
	c.mu.Unlock()

	game, err := ui.New(controller, model, board, lens, ui.Config{
		Title:           settings.Window.Title,
		Palette:         settings.Render.Palette,
		CooldownSeconds: settings.Canvas.CooldownSeconds,
	})
	if err != nil {
		c.notifyError(fmt.Errorf("create window: %w", err))
		return
	}
	game.SetContext(ctx)
	game.SetErrorHandler(c.notifyError)
	game.SetFrameObserver(c.metrics.IncrementFramesPresented)

	c.mu.Lock()
	c.game = game
	c.mu.Unlock()

	// Blocks until window close or context cancel.
	if err := game.Run(); err != nil {
		// ErrGameTerminated is the expected result of Stop.
		if !errors.Is(err, ui.ErrGameTerminated) {
			c.notifyError(fmt.Errorf("render loop error: %w", err))
		}
	}
}
