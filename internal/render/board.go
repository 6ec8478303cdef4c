// Package render draws the canvas onto CPU-side surfaces. The Board keeps
// a persistent surface reconciled with the grid model; the Magnifier
// composites a zoomed circular viewport over it. Surfaces are plain pixel
// buffers, so every drawing path is testable without a display.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"sync/atomic"

	"github.com/gogpu/gg"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

// Board renders the grid model onto a persistent surface. One pixel row
// and column beyond the cell area carry the outer boundary lines.
//
// A Board is not safe for concurrent use; it belongs to the render loop.
// Other goroutines mutate the grid and the board catches up on the next
// RedrawAll.
type Board struct {
	ctx    *gg.Context
	mapper grid.Mapper
	bg     color.RGBA
	line   color.RGBA

	gen atomic.Uint64
}

// NewBoard creates a board for the mapper's surface size and paints the
// empty background so a fresh board is immediately presentable.
func NewBoard(m grid.Mapper, background, gridLine color.RGBA) (*Board, error) {
	w, h := m.SurfaceSize()
	b := &Board{
		ctx:    gg.NewContext(w, h),
		mapper: m,
		bg:     background,
		line:   gridLine,
	}
	if err := b.DrawBackground(); err != nil {
		return nil, err
	}
	return b, nil
}

// Mapper returns the coordinate mapper the board draws with.
func (b *Board) Mapper() grid.Mapper { return b.mapper }

// Size returns the surface dimensions in pixels.
func (b *Board) Size() (w, h int) { return b.ctx.Width(), b.ctx.Height() }

// Background returns the background color.
func (b *Board) Background() color.RGBA { return b.bg }

// LineColor returns the grid separator color.
func (b *Board) LineColor() color.RGBA { return b.line }

// DrawBackground clears the surface to the background color and draws a
// separator line at every cell boundary, including both outer edges.
func (b *Board) DrawBackground() error {
	b.ctx.ClearWithColor(gg.FromColor(b.bg))

	w, h := b.Size()
	s := b.mapper.CellSize()

	b.ctx.SetColor(b.line)
	for i := 0; i <= b.mapper.Cols(); i++ {
		b.ctx.DrawRectangle(float64(i*s), 0, 1, float64(h))
	}
	for j := 0; j <= b.mapper.Rows(); j++ {
		b.ctx.DrawRectangle(0, float64(j*s), float64(w), 1)
	}
	if err := b.ctx.Fill(); err != nil {
		return fmt.Errorf("draw background: %w", err)
	}
	return nil
}

// DrawCell fills one cell's square region with the given color and
// redraws its border so painted cells stay visually separated.
func (b *Board) DrawCell(c grid.Cell, colorStr string) error {
	rgba, err := grid.ParseColor(colorStr)
	if err != nil {
		return fmt.Errorf("draw cell (%d,%d): %w", c.X, c.Y, err)
	}
	px, py := b.mapper.CellToScreen(c)
	fx, fy := float64(px), float64(py)
	fs := float64(b.mapper.CellSize())

	b.ctx.SetColor(rgba)
	b.ctx.DrawRectangle(fx, fy, fs+1, fs+1)
	if err := b.ctx.Fill(); err != nil {
		return fmt.Errorf("fill cell (%d,%d): %w", c.X, c.Y, err)
	}

	b.ctx.SetColor(b.line)
	b.ctx.DrawRectangle(fx, fy, fs+1, 1)
	b.ctx.DrawRectangle(fx, fy+fs, fs+1, 1)
	b.ctx.DrawRectangle(fx, fy, 1, fs+1)
	b.ctx.DrawRectangle(fx+fs, fy, 1, fs+1)
	if err := b.ctx.Fill(); err != nil {
		return fmt.Errorf("border cell (%d,%d): %w", c.X, c.Y, err)
	}
	return nil
}

// RedrawAll reconciles the surface with the grid model: background first,
// then every painted cell. This is the only correct way to catch up after
// a bulk load; the board never diffs incrementally. Repeated calls with
// an unchanged grid produce identical pixels.
func (b *Board) RedrawAll(g *grid.Grid) error {
	// Record the generation before reading cells, so a write landing
	// mid-redraw forces another pass rather than being skipped.
	gen := g.Generation()

	if err := b.DrawBackground(); err != nil {
		return err
	}
	for c, clr := range g.Snapshot() {
		if err := b.DrawCell(c, clr); err != nil {
			return err
		}
	}
	b.gen.Store(gen)
	return nil
}

// Generation returns the grid generation last rendered by RedrawAll.
func (b *Board) Generation() uint64 { return b.gen.Load() }

// Image returns a copy of the surface contents.
func (b *Board) Image() image.Image { return b.ctx.Image() }

// Snapshot returns the surface contents as an RGBA image for per-pixel
// access. The magnifier's sampling strategy reads from this.
func (b *Board) Snapshot() *image.RGBA {
	return toRGBA(b.ctx.Image())
}

// ColorAt returns the color of one surface pixel. Out-of-range
// coordinates return the zero color.
func (b *Board) ColorAt(px, py int) color.RGBA {
	w, h := b.Size()
	if px < 0 || px >= w || py < 0 || py >= h {
		return color.RGBA{}
	}
	return color.RGBAModel.Convert(b.ctx.Image().At(px, py)).(color.RGBA)
}

// WritePNG encodes the current surface as PNG.
func (b *Board) WritePNG(w io.Writer) error {
	if err := b.ctx.EncodePNG(w); err != nil {
		return fmt.Errorf("encode board png: %w", err)
	}
	return nil
}

// toRGBA returns img as *image.RGBA without copying when possible.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	draw.Draw(out, bounds, img, bounds.Min, draw.Src)
	return out
}
