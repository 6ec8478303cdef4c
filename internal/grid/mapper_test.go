package grid

import "testing"

func TestNewMapper(t *testing.T) {
	tests := []struct {
		name     string
		cellSize int
		cols     int
		rows     int
		wantErr  bool
	}{
		{"standard", 20, 32, 32, false},
		{"tiny cells", 1, 100, 100, false},
		{"zero cell size", 0, 32, 32, true},
		{"negative cell size", -5, 32, 32, true},
		{"zero cols", 20, 0, 32, true},
		{"zero rows", 20, 32, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewMapper(tt.cellSize, tt.cols, tt.rows)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMapper(%d, %d, %d) error = %v, wantErr %v",
					tt.cellSize, tt.cols, tt.rows, err, tt.wantErr)
			}
		})
	}
}

func TestScreenToCell(t *testing.T) {
	m, err := NewMapper(20, 32, 32)
	if err != nil {
		t.Fatalf("NewMapper() error = %v", err)
	}

	tests := []struct {
		name   string
		px, py int
		want   Cell
		wantOK bool
	}{
		{"origin", 0, 0, Cell{X: 0, Y: 0}, true},
		{"click at 65,85", 65, 85, Cell{X: 3, Y: 4}, true},
		{"last pixel of first cell", 19, 19, Cell{X: 0, Y: 0}, true},
		{"first pixel of second cell", 20, 0, Cell{X: 1, Y: 0}, true},
		{"last cell", 639, 639, Cell{X: 31, Y: 31}, true},
		{"right edge boundary", 640, 100, Cell{}, false},
		{"bottom edge boundary", 100, 640, Cell{}, false},
		{"far outside", 1000, 1000, Cell{}, false},
		{"negative x", -1, 10, Cell{}, false},
		{"negative y", 10, -1, Cell{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.ScreenToCell(tt.px, tt.py)
			if ok != tt.wantOK {
				t.Errorf("ScreenToCell(%d, %d) ok = %v, want %v", tt.px, tt.py, ok, tt.wantOK)
				return
			}
			if ok && got != tt.want {
				t.Errorf("ScreenToCell(%d, %d) = %v, want %v", tt.px, tt.py, got, tt.want)
			}
		})
	}
}

func TestCellToScreen(t *testing.T) {
	m, _ := NewMapper(20, 32, 32)

	tests := []struct {
		cell   Cell
		px, py int
	}{
		{Cell{X: 0, Y: 0}, 0, 0},
		{Cell{X: 3, Y: 4}, 60, 80},
		{Cell{X: 31, Y: 31}, 620, 620},
	}

	for _, tt := range tests {
		px, py := m.CellToScreen(tt.cell)
		if px != tt.px || py != tt.py {
			t.Errorf("CellToScreen(%v) = (%d, %d), want (%d, %d)", tt.cell, px, py, tt.px, tt.py)
		}
	}
}

func TestMapperRoundTrip(t *testing.T) {
	m, _ := NewMapper(20, 32, 32)

	for x := 0; x < 32; x++ {
		for y := 0; y < 32; y++ {
			c := Cell{X: x, Y: y}
			px, py := m.CellToScreen(c)
			got, ok := m.ScreenToCell(px, py)
			if !ok {
				t.Fatalf("ScreenToCell(CellToScreen(%v)) reported out of bounds", c)
			}
			if got != c {
				t.Fatalf("round trip %v -> (%d, %d) -> %v", c, px, py, got)
			}
		}
	}
}

func TestSurfaceSize(t *testing.T) {
	tests := []struct {
		name     string
		cellSize int
		cols     int
		rows     int
		wantW    int
		wantH    int
	}{
		{"32x32 at 20", 20, 32, 32, 641, 641},
		{"16x8 at 10", 10, 16, 8, 161, 81},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMapper(tt.cellSize, tt.cols, tt.rows)
			if err != nil {
				t.Fatalf("NewMapper() error = %v", err)
			}
			w, h := m.SurfaceSize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("SurfaceSize() = (%d, %d), want (%d, %d)", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestScreenToCellAllocs(t *testing.T) {
	m, _ := NewMapper(20, 32, 32)

	allocs := testing.AllocsPerRun(1000, func() {
		m.ScreenToCell(65, 85)
		m.CellToScreen(Cell{X: 3, Y: 4})
	})
	if allocs != 0 {
		t.Errorf("coordinate mapping allocates %v per call, want 0", allocs)
	}
}
