// Package config provides layered configuration for pixelcanvas-go.
// This file implements the Lua settings parser.

package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

// LuaConfigParser parses Lua settings files. It uses the Golua runtime
// to execute the file and extract values from the canvas.config table
// and the canvas.palette array.
type LuaConfigParser struct {
	runtime *rt.Runtime
	cleanup func()
	mu      sync.Mutex
}

// NewLuaConfigParser creates a new LuaConfigParser with a fresh Lua runtime.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser with custom output.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	if stdout == nil {
		stdout = os.Stdout
	}

	runtime := rt.New(stdout)
	cleanup := lib.LoadAll(runtime)

	return &LuaConfigParser{
		runtime: runtime,
		cleanup: cleanup,
	}, nil
}

// Parse parses a Lua settings chunk, starting from DefaultSettings.
func (p *LuaConfigParser) Parse(content []byte) (*Settings, error) {
	s := DefaultSettings()
	if err := p.Apply(&s, content); err != nil {
		return nil, err
	}
	return &s, nil
}

// Apply executes a Lua settings chunk and overlays the values it sets
// onto s. Keys absent from canvas.config leave the corresponding fields
// untouched, which is what lets the Lua layer sit above the environment
// layer without clobbering it.
func (p *LuaConfigParser) Apply(s *Settings, content []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	// Initialize canvas global table
	p.initCanvasGlobal()

	// Compile and execute the Lua settings
	closure, err := p.runtime.CompileAndLoadLuaChunk(
		"settings",
		content,
		rt.TableValue(p.runtime.GlobalEnv()),
	)
	if err != nil {
		return fmt.Errorf("failed to compile Lua settings: %w", err)
	}

	// Execute with resource limits
	ctx := rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    10_000_000,
			Memory: 50 * 1024 * 1024, // 50 MB
		},
	}
	p.runtime.PushContext(ctx)
	defer p.runtime.PopContext()

	thread := p.runtime.MainThread()
	_, err = rt.Call1(thread, rt.FunctionValue(closure))
	if err != nil {
		return fmt.Errorf("failed to execute Lua settings: %w", err)
	}

	// Extract values from the canvas global table
	return p.extractSettings(s)
}

// initCanvasGlobal initializes the canvas global table for settings parsing.
func (p *LuaConfigParser) initCanvasGlobal() {
	canvasTable := rt.NewTable()

	// Initialize empty config table
	configTable := rt.NewTable()
	canvasTable.Set(rt.StringValue("config"), rt.TableValue(configTable))

	// Initialize empty palette array
	paletteTable := rt.NewTable()
	canvasTable.Set(rt.StringValue("palette"), rt.TableValue(paletteTable))

	p.runtime.GlobalEnv().Set(rt.StringValue("canvas"), rt.TableValue(canvasTable))
}

// extractSettings extracts settings values from the canvas global table.
func (p *LuaConfigParser) extractSettings(s *Settings) error {
	canvasVal := p.runtime.GlobalEnv().Get(rt.StringValue("canvas"))
	if canvasVal == rt.NilValue {
		return nil // chunk wiped the global, keep the base values
	}

	canvasTable, ok := canvasVal.TryTable()
	if !ok {
		return fmt.Errorf("canvas is not a table")
	}

	// Extract canvas.config table
	configVal := canvasTable.Get(rt.StringValue("config"))
	if configTable, ok := configVal.TryTable(); ok {
		if err := p.extractConfigTable(s, configTable); err != nil {
			return err
		}
	}

	// Extract canvas.palette array
	paletteVal := canvasTable.Get(rt.StringValue("palette"))
	if paletteTable, ok := paletteVal.TryTable(); ok {
		palette, err := extractPalette(paletteTable)
		if err != nil {
			return err
		}
		if len(palette) > 0 {
			s.Render.Palette = palette
		}
	}

	return nil
}

// extractConfigTable extracts settings values from the canvas.config table.
// String values go through ExpandEnv, so a settings file can reference
// environment variables with ${VAR} and ${VAR:-default}.
func (p *LuaConfigParser) extractConfigTable(s *Settings, table *rt.Table) error {
	// String settings
	if val := getTableString(table, "server_url"); val != nil {
		s.Remote.ServerURL = ExpandEnv(*val)
	}
	if val := getTableString(table, "user_id"); val != nil {
		s.Remote.UserID = ExpandEnv(*val)
	}
	if val := getTableString(table, "window_title"); val != nil {
		s.Window.Title = ExpandEnv(*val)
	}

	// Boolean settings
	if val := getTableBool(table, "headless"); val != nil {
		s.Window.Headless = *val
	}

	// Numeric settings
	if val := getTableInt(table, "cell_size"); val != nil {
		s.Render.CellSize = *val
	}
	if val := getTableFloat(table, "refresh_interval"); val != nil {
		s.Sync.RefreshInterval = time.Duration(*val * float64(time.Second))
	}
	if val := getTableInt(table, "activity_limit"); val != nil {
		s.Sync.ActivityLimit = *val
	}
	if val := getTableInt(table, "magnifier_radius"); val != nil {
		s.Magnifier.Radius = *val
	}
	if val := getTableFloat(table, "magnifier_zoom"); val != nil {
		s.Magnifier.Zoom = *val
	}

	// Magnifier mode
	if val := getTableString(table, "magnifier_mode"); val != nil {
		mode := strings.ToLower(strings.TrimSpace(*val))
		if mode != MagnifierModeSample && mode != MagnifierModeRaster {
			return fmt.Errorf("invalid magnifier_mode: %q", *val)
		}
		s.Magnifier.Mode = mode
	}

	// Color settings
	return p.extractColors(s, table)
}

// extractColors extracts color settings from the table, storing them in
// canonical #RRGGBB form.
func (p *LuaConfigParser) extractColors(s *Settings, table *rt.Table) error {
	colorFields := []struct {
		key    string
		target *string
	}{
		{"background_color", &s.Render.BackgroundColor},
		{"grid_line_color", &s.Render.GridLineColor},
		{"crosshair_color", &s.Magnifier.CrosshairColor},
	}

	for _, cf := range colorFields {
		if val := getTableString(table, cf.key); val != nil {
			hex, err := grid.Normalize(*val)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", cf.key, err)
			}
			*cf.target = hex
		}
	}

	return nil
}

// extractPalette reads the canvas.palette array, normalizing each entry.
func extractPalette(table *rt.Table) ([]string, error) {
	var palette []string
	for i := int64(1); ; i++ {
		val := table.Get(rt.IntValue(i))
		if val == rt.NilValue {
			break
		}
		str, ok := val.TryString()
		if !ok {
			return nil, fmt.Errorf("palette entry %d is not a string", i)
		}
		hex, err := grid.Normalize(str)
		if err != nil {
			return nil, fmt.Errorf("invalid palette entry %d: %w", i, err)
		}
		palette = append(palette, hex)
	}
	return palette, nil
}

// Close releases resources associated with the parser's Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return nil
}

// getTableBool retrieves a boolean value from a Lua table.
// Returns nil if the key doesn't exist or is not a boolean.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	// Handle actual booleans
	if b, ok := val.TryBool(); ok {
		return &b
	}

	// Handle string "true"/"false" for compatibility
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}

	return nil
}

// getTableString retrieves a string value from a Lua table.
// Returns nil if the key doesn't exist or is not a string.
func getTableString(table *rt.Table, key string) *string {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if s, ok := val.TryString(); ok {
		return &s
	}

	return nil
}

// getTableFloat retrieves a float64 value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if n, ok := val.TryFloat(); ok {
		return &n
	}

	// Try int conversion
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}

	return nil
}

// getTableInt retrieves an int value from a Lua table.
// Returns nil if the key doesn't exist or is not a number.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if val == rt.NilValue {
		return nil
	}

	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}

	// Try float conversion (truncate)
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}

	return nil
}
