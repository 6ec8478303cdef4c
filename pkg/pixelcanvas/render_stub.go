//go:build noebiten

package pixelcanvas

// runRenderLoop substitutes for the Ebiten loop in noebiten builds.
// The session behaves as if headless: the sync controller keeps
// running until the context cancels.
func (c *canvasImpl) runRenderLoop() {
	c.mu.RLock()
	ctx := c.ctx
	c.mu.RUnlock()
	<-ctx.Done()
}
