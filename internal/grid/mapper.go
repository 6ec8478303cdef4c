package grid

import "fmt"

// Mapper converts between render-surface pixel coordinates and cell
// coordinates. The cell-to-pixel scale is fixed at construction and
// shared by the renderer and the magnifier.
//
// Mapper is a value type with no internal state; its methods are pure
// and allocation-free, since ScreenToCell runs on every pointer move.
type Mapper struct {
	cellSize int
	cols     int
	rows     int
}

// NewMapper creates a mapper for a cols x rows canvas drawn at
// cellSize pixels per cell.
func NewMapper(cellSize, cols, rows int) (Mapper, error) {
	if cellSize <= 0 {
		return Mapper{}, fmt.Errorf("invalid cell size %d: must be positive", cellSize)
	}
	if cols <= 0 || rows <= 0 {
		return Mapper{}, fmt.Errorf("invalid canvas dimensions %dx%d: both must be positive", cols, rows)
	}
	return Mapper{cellSize: cellSize, cols: cols, rows: rows}, nil
}

// CellSize returns the edge length of one cell in pixels.
func (m Mapper) CellSize() int { return m.cellSize }

// Cols returns the canvas width in cells.
func (m Mapper) Cols() int { return m.cols }

// Rows returns the canvas height in cells.
func (m Mapper) Rows() int { return m.rows }

// ScreenToCell maps a pixel offset relative to the surface's top-left
// corner to the cell under it. The second return value is false when
// the offset falls outside the canvas. Offsets are never negative in
// normal use, but negative values are still reported as out of bounds.
func (m Mapper) ScreenToCell(px, py int) (Cell, bool) {
	if px < 0 || py < 0 {
		return Cell{}, false
	}
	c := Cell{X: px / m.cellSize, Y: py / m.cellSize}
	if c.X >= m.cols || c.Y >= m.rows {
		return Cell{}, false
	}
	return c, true
}

// CellToScreen returns the top-left pixel of the cell's square region.
// It does not bounds-check; callers pass cells they already validated.
func (m Mapper) CellToScreen(c Cell) (px, py int) {
	return c.X * m.cellSize, c.Y * m.cellSize
}

// SurfaceSize returns the pixel dimensions of the render surface.
// The extra pixel in each direction carries the final boundary line.
func (m Mapper) SurfaceSize() (w, h int) {
	return m.cols*m.cellSize + 1, m.rows*m.cellSize + 1
}
