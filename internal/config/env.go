// Package config provides layered configuration for pixelcanvas-go.
// This file implements the environment layers: .env file loading,
// environment variable overrides, and ${VAR} expansion inside settings
// values.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names recognized by ApplyEnv.
const (
	// EnvServerURL overrides the store base URL.
	EnvServerURL = "PIXELCANVAS_SERVER"
	// EnvUserID overrides the client identity.
	EnvUserID = "PIXELCANVAS_USER_ID"
	// EnvCanvasWidth overrides the fallback canvas width.
	EnvCanvasWidth = "CANVAS_WIDTH"
	// EnvCanvasHeight overrides the fallback canvas height.
	EnvCanvasHeight = "CANVAS_HEIGHT"
	// EnvCooldownSeconds overrides the fallback paint cooldown.
	EnvCooldownSeconds = "PIXEL_COOLDOWN_SECONDS"
	// EnvCellSize overrides the on-screen cell size.
	EnvCellSize = "PIXELCANVAS_CELL_SIZE"
	// EnvRefreshInterval overrides the background refresh period.
	// Accepts a bare number of seconds or a Go duration string.
	EnvRefreshInterval = "PIXELCANVAS_REFRESH_INTERVAL"
	// EnvHeadless disables the interactive window.
	EnvHeadless = "PIXELCANVAS_HEADLESS"
)

// LoadDotEnv loads variables from a .env file into the process
// environment. Variables already set in the environment keep their
// values, matching the usual twelve-factor precedence. A missing file
// is not an error.
func LoadDotEnv(paths ...string) error {
	err := godotenv.Load(paths...)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays recognized environment variables onto s. Unset or
// empty variables leave the corresponding fields untouched. A set but
// unparseable numeric variable is an error rather than a silent skip.
func ApplyEnv(s *Settings) error {
	if v := os.Getenv(EnvServerURL); v != "" {
		s.Remote.ServerURL = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		s.Remote.UserID = v
	}
	if v := os.Getenv(EnvCanvasWidth); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCanvasWidth, v, err)
		}
		s.Canvas.Width = n
	}
	if v := os.Getenv(EnvCanvasHeight); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCanvasHeight, v, err)
		}
		s.Canvas.Height = n
	}
	if v := os.Getenv(EnvCooldownSeconds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCooldownSeconds, v, err)
		}
		s.Canvas.CooldownSeconds = n
	}
	if v := os.Getenv(EnvCellSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvCellSize, v, err)
		}
		s.Render.CellSize = n
	}
	if v := os.Getenv(EnvRefreshInterval); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvRefreshInterval, v, err)
		}
		s.Sync.RefreshInterval = d
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		s.Window.Headless = parseBool(v)
	}
	return nil
}

// parseInterval accepts either a bare number of seconds or a Go
// duration string such as "1m30s".
func parseInterval(v string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// parseBool interprets the truthy spellings common in shell environments.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "yes", "true", "1":
		return true
	default:
		return false
	}
}

// envVarPattern matches environment variable references in settings values.
// Supports formats:
//   - ${VAR_NAME} - standard shell-like format
//   - ${VAR_NAME:-default} - with default value if unset or empty
//   - $VAR_NAME - simple format (word characters only)
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in a string.
// It supports the following formats:
//   - ${VAR_NAME} - replaced with value of VAR_NAME
//   - ${VAR_NAME:-default} - replaced with VAR_NAME's value, or "default" if unset/empty
//   - $VAR_NAME - replaced with value of VAR_NAME (simple format)
//
// Unknown or unset variables without defaults are replaced with empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Check for ${VAR} or ${VAR:-default} format
		if strings.HasPrefix(match, "${") && strings.HasSuffix(match, "}") {
			inner := match[2 : len(match)-1]

			// Check for default value syntax: VAR:-default
			if idx := strings.Index(inner, ":-"); idx >= 0 {
				varName := inner[:idx]
				defaultVal := inner[idx+2:]
				if val := os.Getenv(varName); val != "" {
					return val
				}
				return defaultVal
			}

			// Simple variable reference
			return os.Getenv(inner)
		}

		// Handle $VAR format (simple variable)
		if strings.HasPrefix(match, "$") {
			varName := match[1:]
			return os.Getenv(varName)
		}

		return match
	})
}
