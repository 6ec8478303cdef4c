package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/gogpu/gg"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

// Strategy selects how the magnifier produces its zoomed content.
type Strategy int

const (
	// StrategySample scales a region of the already-rendered board
	// surface into the lens.
	StrategySample Strategy = iota
	// StrategyRaster re-rasterizes grid lines and painted cells from
	// the model at the zoomed scale, without reading board pixels.
	StrategyRaster
)

func (s Strategy) String() string {
	switch s {
	case StrategySample:
		return "sample"
	case StrategyRaster:
		return "raster"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ParseStrategy converts a settings value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sample", "sampling", "image":
		return StrategySample, nil
	case "raster", "rasterize", "direct":
		return StrategyRaster, nil
	default:
		return StrategySample, fmt.Errorf("unknown magnifier strategy %q", s)
	}
}

const (
	crosshairArm   = 8.0
	crosshairWidth = 2.0
	borderWidth    = 3.0
	shadowOffset   = 2.0
)

var (
	borderColor = color.RGBA{R: 60, G: 60, B: 60, A: 255}
	shadowColor = color.RGBA{A: 70}
)

// Magnifier renders a zoomed circular viewport of the board around the
// pointer. It is inactive until an activation gesture and holds no
// position once deactivated.
//
// Content is produced into a square lens buffer covering the circle's
// bounding box, then composited pixel-by-pixel into the destination so
// nothing leaks outside the circle. Like the Board, a Magnifier belongs
// to the render loop and is not safe for concurrent use.
type Magnifier struct {
	radius    int
	zoom      float64
	strategy  Strategy
	crosshair color.RGBA

	active bool
	cx, cy int

	lens  *gg.Context
	frame *gg.Context
}

// NewMagnifier creates an inactive magnifier with a fixed radius and
// zoom factor.
func NewMagnifier(radius int, zoom float64, strategy Strategy, crosshair color.RGBA) (*Magnifier, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("invalid magnifier radius %d: must be positive", radius)
	}
	if zoom <= 0 {
		return nil, fmt.Errorf("invalid magnifier zoom %g: must be positive", zoom)
	}
	return &Magnifier{
		radius:    radius,
		zoom:      zoom,
		strategy:  strategy,
		crosshair: crosshair,
		lens:      gg.NewContext(2*radius, 2*radius),
	}, nil
}

// Activate turns the magnifier on at the given surface position.
func (m *Magnifier) Activate(px, py int) {
	m.active = true
	m.cx, m.cy = px, py
}

// Move updates the tracked position. Ignored while inactive; position
// is viewport state that only exists between activation and release.
func (m *Magnifier) Move(px, py int) {
	if !m.active {
		return
	}
	m.cx, m.cy = px, py
}

// Deactivate turns the magnifier off and discards its position.
func (m *Magnifier) Deactivate() {
	m.active = false
	m.cx, m.cy = 0, 0
}

// Active reports whether the magnifier is rendering.
func (m *Magnifier) Active() bool { return m.active }

// Position returns the tracked center in surface coordinates.
func (m *Magnifier) Position() (int, int) { return m.cx, m.cy }

// Radius returns the lens radius in pixels.
func (m *Magnifier) Radius() int { return m.radius }

// Zoom returns the magnification factor.
func (m *Magnifier) Zoom() float64 { return m.zoom }

// Strategy returns the current content strategy.
func (m *Magnifier) Strategy() Strategy { return m.strategy }

// SetStrategy switches the content strategy.
func (m *Magnifier) SetStrategy(s Strategy) { m.strategy = s }

// ToggleStrategy flips between sampling and re-rasterizing.
func (m *Magnifier) ToggleStrategy() {
	if m.strategy == StrategySample {
		m.strategy = StrategyRaster
	} else {
		m.strategy = StrategySample
	}
}

// Render draws the magnifier onto dst, which is expected to already hold
// the current board frame. While inactive, dst is left untouched. A
// tracked center outside the board renders nothing; stale positions
// survive deactivation races harmlessly.
//
// Content failures are collected rather than aborting: whatever steps
// completed stay on the frame and the joined error goes to the caller
// for logging. Panics from the drawing layer are recovered into errors.
func (m *Magnifier) Render(dst *gg.Context, board *Board, g *grid.Grid) (err error) {
	if !m.active {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("magnifier render: %v", r)
		}
	}()

	w, h := board.Size()
	if m.cx < 0 || m.cx >= w || m.cy < 0 || m.cy >= h {
		return nil
	}

	var errs []error
	r := float64(m.radius)
	cx, cy := float64(m.cx), float64(m.cy)

	// Circular clip, then background so a failed content step still
	// leaves a clean lens.
	dst.Push()
	dst.DrawCircle(cx, cy, r)
	dst.Clip()
	dst.SetColor(board.Background())
	dst.DrawRectangle(cx-r, cy-r, 2*r, 2*r)
	if ferr := dst.Fill(); ferr != nil {
		errs = append(errs, fmt.Errorf("lens background: %w", ferr))
	}
	dst.Pop()

	srcSide := 2 * r / m.zoom
	srcX := cx - srcSide/2
	srcY := cy - srcSide/2
	if srcX < 0 {
		srcX = 0
	}
	if srcY < 0 {
		srcY = 0
	}

	var contentErr error
	switch m.strategy {
	case StrategyRaster:
		contentErr = m.rasterInto(board, g, srcX, srcY, srcSide)
	default:
		contentErr = m.sampleInto(board, srcX, srcY, srcSide)
	}
	if contentErr != nil {
		errs = append(errs, contentErr)
	} else {
		m.compositeLens(dst, w, h)
	}

	// Crosshair at the exact tracked center, after the clip is gone so
	// the marker is never cut by the circle's edge.
	dst.SetColor(m.crosshair)
	dst.SetLineWidth(crosshairWidth)
	dst.DrawLine(cx-crosshairArm, cy, cx+crosshairArm, cy)
	dst.DrawLine(cx, cy-crosshairArm, cx, cy+crosshairArm)
	if serr := dst.Stroke(); serr != nil {
		errs = append(errs, fmt.Errorf("crosshair: %w", serr))
	}

	// Border rings last: shadow offset down-right, then the rim.
	dst.SetColor(shadowColor)
	dst.SetLineWidth(borderWidth)
	dst.DrawCircle(cx+shadowOffset, cy+shadowOffset, r)
	if serr := dst.Stroke(); serr != nil {
		errs = append(errs, fmt.Errorf("border shadow: %w", serr))
	}
	dst.SetColor(borderColor)
	dst.DrawCircle(cx, cy, r)
	if serr := dst.Stroke(); serr != nil {
		errs = append(errs, fmt.Errorf("border: %w", serr))
	}

	return errors.Join(errs...)
}

// Frame composites the board and the magnifier overlay into a reusable
// frame buffer and returns its image along with the board generation it
// was built from. The render error, if any, is reported but the frame
// remains presentable.
func (m *Magnifier) Frame(board *Board, g *grid.Grid) (image.Image, uint64, error) {
	w, h := board.Size()
	if m.frame == nil || m.frame.Width() != w || m.frame.Height() != h {
		m.frame = gg.NewContext(w, h)
	}

	buf := gg.ImageBufFromImage(board.Snapshot())
	m.frame.DrawImageEx(buf, gg.DrawImageOptions{
		DstWidth:      float64(w),
		DstHeight:     float64(h),
		Interpolation: gg.InterpNearest,
		Opacity:       1.0,
		BlendMode:     gg.BlendNormal,
	})

	err := m.Render(m.frame, board, g)
	return m.frame.Image(), board.Generation(), err
}

// sampleInto scales the source rectangle from the board surface into the
// lens buffer using nearest-neighbor sampling.
func (m *Magnifier) sampleInto(board *Board, srcX, srcY, srcSide float64) error {
	side := int(srcSide + 0.5)
	if side < 1 {
		return fmt.Errorf("source rect side %g smaller than one pixel", srcSide)
	}

	snap := board.Snapshot()
	rect := image.Rect(int(srcX), int(srcY), int(srcX)+side, int(srcY)+side)
	rect = rect.Intersect(snap.Bounds())
	if rect.Empty() {
		return fmt.Errorf("source rect %v outside surface %v", rect, snap.Bounds())
	}

	m.lens.ClearWithColor(gg.FromColor(board.Background()))
	m.lens.DrawImageEx(gg.ImageBufFromImage(snap), gg.DrawImageOptions{
		X:             (float64(rect.Min.X) - srcX) * m.zoom,
		Y:             (float64(rect.Min.Y) - srcY) * m.zoom,
		DstWidth:      float64(rect.Dx()) * m.zoom,
		DstHeight:     float64(rect.Dy()) * m.zoom,
		SrcRect:       &rect,
		Interpolation: gg.InterpNearest,
		Opacity:       1.0,
		BlendMode:     gg.BlendNormal,
	})
	return nil
}

// rasterInto redraws the portion of the grid covered by the source
// rectangle directly into the lens at the zoomed scale. Candidate cell
// indices come from the rectangle bounds, so only visible cells are
// considered. Board pixels are never read.
func (m *Magnifier) rasterInto(board *Board, g *grid.Grid, srcX, srcY, srcSide float64) error {
	if srcSide < 1 {
		return fmt.Errorf("source rect side %g smaller than one pixel", srcSide)
	}

	mp := board.Mapper()
	s := float64(mp.CellSize())
	zs := s * m.zoom

	m.lens.ClearWithColor(gg.FromColor(board.Background()))

	minCol := int(srcX / s)
	maxCol := int((srcX + srcSide) / s)
	minRow := int(srcY / s)
	maxRow := int((srcY + srcSide) / s)

	var errs []error
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			c := grid.Cell{X: col, Y: row}
			if !g.InBounds(c) {
				continue
			}
			clr, ok := g.Get(c)
			if !ok {
				continue
			}
			rgba, err := grid.ParseColor(clr)
			if err != nil {
				errs = append(errs, fmt.Errorf("cell (%d,%d): %w", col, row, err))
				continue
			}
			m.lens.SetColor(rgba)
			m.lens.DrawRectangle((float64(col)*s-srcX)*m.zoom, (float64(row)*s-srcY)*m.zoom, zs, zs)
			if err := m.lens.Fill(); err != nil {
				errs = append(errs, fmt.Errorf("cell (%d,%d): %w", col, row, err))
			}
		}
	}

	// Boundary lines go on top, matching the board's separator layering.
	lensSide := float64(2 * m.radius)
	m.lens.SetColor(board.LineColor())
	for i := minCol; i <= maxCol+1; i++ {
		lx := (float64(i)*s - srcX) * m.zoom
		m.lens.DrawRectangle(lx, 0, m.zoom, lensSide)
	}
	for j := minRow; j <= maxRow+1; j++ {
		ly := (float64(j)*s - srcY) * m.zoom
		m.lens.DrawRectangle(0, ly, lensSide, m.zoom)
	}
	if err := m.lens.Fill(); err != nil {
		errs = append(errs, fmt.Errorf("zoomed grid lines: %w", err))
	}
	return errors.Join(errs...)
}

// compositeLens copies the lens disc onto dst. The copy stops one pixel
// short of the radius so the border ring stays clean, and skips pixels
// outside the destination surface.
func (m *Magnifier) compositeLens(dst *gg.Context, w, h int) {
	lensImg := toRGBA(m.lens.Image())
	maxDist := float64((m.radius - 1) * (m.radius - 1))

	for dy := -m.radius; dy <= m.radius; dy++ {
		for dx := -m.radius; dx <= m.radius; dx++ {
			if float64(dx*dx+dy*dy) > maxDist {
				continue
			}
			px, py := m.cx+dx, m.cy+dy
			if px < 0 || px >= w || py < 0 || py >= h {
				continue
			}
			c := lensImg.RGBAAt(m.radius+dx, m.radius+dy)
			dst.SetPixel(px, py, gg.RGBA{
				R: float64(c.R) / 255,
				G: float64(c.G) / 255,
				B: float64(c.B) / 255,
				A: 1,
			})
		}
	}
}
