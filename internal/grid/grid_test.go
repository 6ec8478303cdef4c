package grid

import (
	"errors"
	"testing"
)

func TestNewGrid(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		wantErr bool
	}{
		{"standard canvas", 32, 32, false},
		{"non-square", 64, 16, false},
		{"single cell", 1, 1, false},
		{"zero width", 0, 32, true},
		{"zero height", 32, 0, true},
		{"negative width", -1, 32, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(tt.width, tt.height)
			if (err != nil) != tt.wantErr {
				t.Errorf("New(%d, %d) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}
			if g.Width() != tt.width || g.Height() != tt.height {
				t.Errorf("dimensions = %dx%d, want %dx%d", g.Width(), g.Height(), tt.width, tt.height)
			}
			if g.Len() != 0 {
				t.Errorf("new grid Len() = %d, want 0", g.Len())
			}
		})
	}
}

func TestGridSetNormalizes(t *testing.T) {
	g, err := New(32, 32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := g.Set(Cell{X: 3, Y: 4}, "#ff6b6b"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok := g.Get(Cell{X: 3, Y: 4})
	if !ok {
		t.Fatal("Get() after Set() reports cell absent")
	}
	if got != "#FF6B6B" {
		t.Errorf("Get() = %q, want %q", got, "#FF6B6B")
	}
}

func TestGridSetOverwrites(t *testing.T) {
	g, _ := New(8, 8)
	c := Cell{X: 2, Y: 2}

	if err := g.Set(c, "#FF0000"); err != nil {
		t.Fatalf("first Set() error = %v", err)
	}
	if err := g.Set(c, "#00ff00"); err != nil {
		t.Fatalf("second Set() error = %v", err)
	}

	got, _ := g.Get(c)
	if got != "#00FF00" {
		t.Errorf("Get() after overwrite = %q, want %q", got, "#00FF00")
	}
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
}

func TestGridSetOutOfBounds(t *testing.T) {
	g, _ := New(32, 32)

	tests := []struct {
		name string
		cell Cell
	}{
		{"x too large", Cell{X: 32, Y: 0}},
		{"y too large", Cell{X: 0, Y: 32}},
		{"negative x", Cell{X: -1, Y: 0}},
		{"negative y", Cell{X: 0, Y: -1}},
		{"far outside", Cell{X: 100, Y: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Set(tt.cell, "#FF0000")
			if !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("Set(%v) error = %v, want ErrOutOfBounds", tt.cell, err)
			}
			if g.Len() != 0 {
				t.Errorf("Len() = %d after rejected Set, want 0", g.Len())
			}
		})
	}
}

func TestGridSetInvalidColor(t *testing.T) {
	g, _ := New(8, 8)

	if err := g.Set(Cell{X: 1, Y: 1}, "not-a-color"); err == nil {
		t.Error("Set() with invalid color returned nil error")
	}
	if g.Len() != 0 {
		t.Errorf("Len() = %d after rejected Set, want 0", g.Len())
	}
}

func TestGridInBounds(t *testing.T) {
	g, _ := New(32, 32)

	tests := []struct {
		cell Cell
		want bool
	}{
		{Cell{X: 0, Y: 0}, true},
		{Cell{X: 31, Y: 31}, true},
		{Cell{X: 32, Y: 0}, false},
		{Cell{X: 0, Y: 32}, false},
		{Cell{X: -1, Y: 5}, false},
	}

	for _, tt := range tests {
		if got := g.InBounds(tt.cell); got != tt.want {
			t.Errorf("InBounds(%v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestGridLoadBulkReplaces(t *testing.T) {
	g, _ := New(32, 32)

	if err := g.Set(Cell{X: 0, Y: 0}, "#111111"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	entries := []Entry{
		{Cell: Cell{X: 3, Y: 4}, Color: "#ff6b6b"},
		{Cell: Cell{X: 5, Y: 6}, Color: "#4ecdc4"},
	}
	if err := g.LoadBulk(entries); err != nil {
		t.Fatalf("LoadBulk() error = %v", err)
	}

	if _, ok := g.Get(Cell{X: 0, Y: 0}); ok {
		t.Error("cell from before LoadBulk still present; bulk load must replace the map")
	}
	if g.Len() != 2 {
		t.Errorf("Len() = %d, want 2", g.Len())
	}
	got, _ := g.Get(Cell{X: 3, Y: 4})
	if got != "#FF6B6B" {
		t.Errorf("Get(3,4) = %q, want %q", got, "#FF6B6B")
	}
}

func TestGridLoadBulkRejectsBadEntry(t *testing.T) {
	g, _ := New(32, 32)
	if err := g.Set(Cell{X: 1, Y: 1}, "#ABCDEF"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	tests := []struct {
		name    string
		entries []Entry
	}{
		{"out of bounds entry", []Entry{
			{Cell: Cell{X: 2, Y: 2}, Color: "#FF0000"},
			{Cell: Cell{X: 99, Y: 0}, Color: "#00FF00"},
		}},
		{"invalid color entry", []Entry{
			{Cell: Cell{X: 2, Y: 2}, Color: "#FF0000"},
			{Cell: Cell{X: 3, Y: 3}, Color: "chartreuse-ish"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.LoadBulk(tt.entries); err == nil {
				t.Fatal("LoadBulk() with bad entry returned nil error")
			}
			// Previous contents survive a failed load.
			got, ok := g.Get(Cell{X: 1, Y: 1})
			if !ok || got != "#ABCDEF" {
				t.Errorf("Get(1,1) after failed load = %q, %v; want %q, true", got, ok, "#ABCDEF")
			}
			if g.Len() != 1 {
				t.Errorf("Len() = %d after failed load, want 1", g.Len())
			}
		})
	}
}

func TestGridLoadBulkEmpty(t *testing.T) {
	g, _ := New(8, 8)
	if err := g.Set(Cell{X: 1, Y: 1}, "#FF0000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if err := g.LoadBulk(nil); err != nil {
		t.Fatalf("LoadBulk(nil) error = %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("Len() = %d after empty load, want 0", g.Len())
	}
}

func TestGridSnapshotIsCopy(t *testing.T) {
	g, _ := New(8, 8)
	if err := g.Set(Cell{X: 1, Y: 1}, "#FF0000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	snap := g.Snapshot()
	snap[Cell{X: 2, Y: 2}] = "#00FF00"

	if g.Len() != 1 {
		t.Errorf("mutating snapshot changed grid: Len() = %d, want 1", g.Len())
	}
}

func TestGridEach(t *testing.T) {
	g, _ := New(8, 8)
	want := map[Cell]string{
		{X: 0, Y: 0}: "#FF0000",
		{X: 7, Y: 7}: "#00FF00",
	}
	for c, clr := range want {
		if err := g.Set(c, clr); err != nil {
			t.Fatalf("Set(%v) error = %v", c, err)
		}
	}

	got := make(map[Cell]string)
	g.Each(func(c Cell, clr string) {
		got[c] = clr
	})

	if len(got) != len(want) {
		t.Fatalf("Each visited %d cells, want %d", len(got), len(want))
	}
	for c, clr := range want {
		if got[c] != clr {
			t.Errorf("Each visited %v = %q, want %q", c, got[c], clr)
		}
	}
}

func TestGridGeneration(t *testing.T) {
	g, _ := New(8, 8)
	gen0 := g.Generation()

	if err := g.Set(Cell{X: 1, Y: 1}, "#FF0000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	gen1 := g.Generation()
	if gen1 <= gen0 {
		t.Errorf("Generation() after Set = %d, want > %d", gen1, gen0)
	}

	g.Get(Cell{X: 1, Y: 1})
	if g.Generation() != gen1 {
		t.Errorf("Generation() changed on read: %d, want %d", g.Generation(), gen1)
	}

	if err := g.LoadBulk([]Entry{{Cell: Cell{X: 2, Y: 2}, Color: "#00FF00"}}); err != nil {
		t.Fatalf("LoadBulk() error = %v", err)
	}
	if g.Generation() <= gen1 {
		t.Errorf("Generation() after LoadBulk = %d, want > %d", g.Generation(), gen1)
	}

	// Rejected mutations leave the generation untouched.
	_ = g.Set(Cell{X: 99, Y: 99}, "#FF0000")
	gen2 := g.Generation()
	_ = g.Set(Cell{X: 1, Y: 1}, "bogus")
	if g.Generation() != gen2 {
		t.Errorf("Generation() changed on rejected Set: %d, want %d", g.Generation(), gen2)
	}
}
