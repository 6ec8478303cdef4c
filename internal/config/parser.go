// Package config provides layered configuration for pixelcanvas-go.
// This file implements the unified loader that assembles all layers.

package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
)

// Load assembles Settings from every layer in order: built-in defaults,
// a .env file in the working directory, process environment variables,
// and the Lua settings file at path. An empty path skips the Lua layer.
// The result is validated before it is returned.
func Load(path string) (*Settings, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	s := DefaultSettings()
	if err := ApplyEnv(&s); err != nil {
		return nil, err
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
		if err := applyLua(&s, content); err != nil {
			return nil, err
		}
	}

	if err := ValidateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadReader assembles Settings like Load but reads the Lua layer from r.
// Use this for dynamically generated or network-loaded settings.
func LoadReader(r io.Reader) (*Settings, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}
	return loadContent(content)
}

// LoadFS assembles Settings like Load but reads the Lua layer from an
// embedded or test filesystem.
func LoadFS(fsys fs.FS, path string) (*Settings, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings from FS %s: %w", path, err)
	}
	return loadContent(content)
}

func loadContent(content []byte) (*Settings, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	s := DefaultSettings()
	if err := ApplyEnv(&s); err != nil {
		return nil, err
	}
	if err := applyLua(&s, content); err != nil {
		return nil, err
	}

	if err := ValidateSettings(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// applyLua runs content through a fresh Lua parser and overlays the
// values it sets onto s.
func applyLua(s *Settings, content []byte) error {
	p, err := NewLuaConfigParser()
	if err != nil {
		return fmt.Errorf("failed to create Lua parser: %w", err)
	}
	defer p.Close()

	return p.Apply(s, content)
}
