package grid

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrOutOfBounds indicates a cell coordinate outside the canvas dimensions.
var ErrOutOfBounds = errors.New("cell out of bounds")

// Cell identifies one canvas cell by its integer coordinates.
// (0,0) is the top-left cell.
type Cell struct {
	X int
	Y int
}

// Entry pairs a cell with its color, as delivered by a bulk state load.
type Entry struct {
	Cell  Cell
	Color string
}

// Grid is the client-side cache of painted cells. It stores only cells
// that have been painted; unpainted cells are absent and render as
// background. All colors held by the grid are in canonical "#RRGGBB" form.
//
// A Grid is safe for concurrent use. The render loop reads while the
// sync controller writes, so reads take a snapshot rather than holding
// the lock across drawing.
type Grid struct {
	width  int
	height int

	mu    sync.RWMutex
	cells map[Cell]string

	gen atomic.Uint64
}

// New creates an empty grid with the given dimensions in cells.
func New(width, height int) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions %dx%d: both must be positive", width, height)
	}
	return &Grid{
		width:  width,
		height: height,
		cells:  make(map[Cell]string),
	}, nil
}

// Width returns the canvas width in cells.
func (g *Grid) Width() int { return g.width }

// Height returns the canvas height in cells.
func (g *Grid) Height() int { return g.height }

// InBounds reports whether the cell lies within the canvas.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.X < g.width && c.Y >= 0 && c.Y < g.height
}

// Get returns the color of a painted cell in canonical form.
// The second return value is false if the cell has never been painted.
func (g *Grid) Get(c Cell) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	clr, ok := g.cells[c]
	return clr, ok
}

// Set records a color for a cell, overwriting any previous value.
// The color is normalized to canonical form before storing. Set performs
// no cooldown or ownership checks; those belong to the paint flow.
func (g *Grid) Set(c Cell, colorStr string) error {
	if !g.InBounds(c) {
		return fmt.Errorf("set (%d,%d) on %dx%d canvas: %w", c.X, c.Y, g.width, g.height, ErrOutOfBounds)
	}
	normalized, err := Normalize(colorStr)
	if err != nil {
		return fmt.Errorf("set (%d,%d): %w", c.X, c.Y, err)
	}

	g.mu.Lock()
	g.cells[c] = normalized
	g.mu.Unlock()
	g.gen.Add(1)
	return nil
}

// LoadBulk replaces the entire cell map with the given entries.
// Every entry is validated and normalized before any state changes;
// on error the grid keeps its previous contents.
func (g *Grid) LoadBulk(entries []Entry) error {
	next := make(map[Cell]string, len(entries))
	for _, e := range entries {
		if !g.InBounds(e.Cell) {
			return fmt.Errorf("bulk load entry (%d,%d) on %dx%d canvas: %w",
				e.Cell.X, e.Cell.Y, g.width, g.height, ErrOutOfBounds)
		}
		normalized, err := Normalize(e.Color)
		if err != nil {
			return fmt.Errorf("bulk load entry (%d,%d): %w", e.Cell.X, e.Cell.Y, err)
		}
		next[e.Cell] = normalized
	}

	g.mu.Lock()
	g.cells = next
	g.mu.Unlock()
	g.gen.Add(1)
	return nil
}

// Len returns the number of painted cells.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}

// Snapshot returns a copy of the painted cells. The copy is safe to
// iterate without holding any lock.
func (g *Grid) Snapshot() map[Cell]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make(map[Cell]string, len(g.cells))
	for c, clr := range g.cells {
		out[c] = clr
	}
	return out
}

// Each calls fn for every painted cell in no particular order.
// fn runs against a snapshot, so it may call back into the grid freely.
func (g *Grid) Each(fn func(Cell, string)) {
	for c, clr := range g.Snapshot() {
		fn(c, clr)
	}
}

// Generation returns a counter that increases on every successful
// mutation. Renderers compare generations to skip redundant redraws.
func (g *Grid) Generation() uint64 {
	return g.gen.Load()
}
