// Package config provides layered configuration for pixelcanvas-go.
// This file implements validation for assembled settings.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

// ValidationError represents a settings validation error.
// It contains the field name and a description of the issue.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a settings validation.
type ValidationResult struct {
	// Errors contains all validation errors found.
	Errors []ValidationError
	// Warnings contains non-fatal issues (e.g., values that work but
	// will behave oddly).
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error message if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}

	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator provides comprehensive settings validation.
type Validator struct {
	// strictMode promotes warnings to errors.
	strictMode bool
}

// NewValidator creates a new Validator with default settings.
func NewValidator() *Validator {
	return &Validator{strictMode: false}
}

// WithStrictMode enables strict validation where warnings are errors.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// Validate performs comprehensive validation of Settings.
func (v *Validator) Validate(s *Settings) *ValidationResult {
	result := &ValidationResult{}

	v.validateRemote(&s.Remote, result)
	v.validateCanvas(&s.Canvas, result)
	v.validateRender(&s.Render, result)
	v.validateMagnifier(&s.Magnifier, result)
	v.validateSync(&s.Sync, result)

	if v.strictMode && len(result.Warnings) > 0 {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}

	return result
}

// validateRemote validates RemoteConfig settings.
func (v *Validator) validateRemote(rc *RemoteConfig, result *ValidationResult) {
	if strings.TrimSpace(rc.ServerURL) == "" {
		result.AddError("remote.server_url", "must not be empty")
		return
	}

	u, err := url.Parse(strings.TrimSpace(rc.ServerURL))
	if err != nil {
		result.AddError("remote.server_url", fmt.Sprintf("invalid URL: %v", err))
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		result.AddError("remote.server_url",
			fmt.Sprintf("unsupported scheme %q (expected http or https)", u.Scheme))
	}
	if u.Host == "" {
		result.AddError("remote.server_url", "missing host")
	}
}

// validateCanvas validates CanvasConfig settings.
func (v *Validator) validateCanvas(cc *CanvasConfig, result *ValidationResult) {
	if cc.Width <= 0 {
		result.AddError("canvas.width", fmt.Sprintf("must be positive, got %d", cc.Width))
	}
	if cc.Height <= 0 {
		result.AddError("canvas.height", fmt.Sprintf("must be positive, got %d", cc.Height))
	}

	// Warn on dimensions far beyond what the store ships with
	const maxDimension = 1000
	if cc.Width > maxDimension {
		result.AddWarning("canvas.width", fmt.Sprintf("unusually large value %d", cc.Width))
	}
	if cc.Height > maxDimension {
		result.AddWarning("canvas.height", fmt.Sprintf("unusually large value %d", cc.Height))
	}

	if cc.CooldownSeconds < 0 {
		result.AddError("canvas.cooldown_seconds",
			fmt.Sprintf("must be non-negative, got %d", cc.CooldownSeconds))
	}
}

// validateRender validates RenderConfig settings.
func (v *Validator) validateRender(rc *RenderConfig, result *ValidationResult) {
	if rc.CellSize <= 0 {
		result.AddError("render.cell_size", fmt.Sprintf("must be positive, got %d", rc.CellSize))
	}
	if rc.CellSize > 100 {
		result.AddWarning("render.cell_size", fmt.Sprintf("unusually large value %d", rc.CellSize))
	}

	v.checkColor("render.background_color", rc.BackgroundColor, result)
	v.checkColor("render.grid_line_color", rc.GridLineColor, result)

	if len(rc.Palette) == 0 {
		result.AddError("render.palette", "must contain at least one color")
	}
	for i, entry := range rc.Palette {
		v.checkColor(fmt.Sprintf("render.palette[%d]", i), entry, result)
	}
	if len(rc.Palette) > 9 {
		result.AddWarning("render.palette",
			fmt.Sprintf("%d entries, only the first 9 are reachable from the digit keys", len(rc.Palette)))
	}
}

// validateMagnifier validates MagnifierConfig settings.
func (v *Validator) validateMagnifier(mc *MagnifierConfig, result *ValidationResult) {
	if mc.Radius <= 0 {
		result.AddError("magnifier.radius", fmt.Sprintf("must be positive, got %d", mc.Radius))
	}
	if mc.Radius > 400 {
		result.AddWarning("magnifier.radius", fmt.Sprintf("unusually large value %d", mc.Radius))
	}

	if mc.Zoom <= 0 {
		result.AddError("magnifier.zoom", fmt.Sprintf("must be positive, got %g", mc.Zoom))
	} else if mc.Zoom < 1 {
		result.AddWarning("magnifier.zoom",
			fmt.Sprintf("factor %g shrinks the preview instead of magnifying it", mc.Zoom))
	}

	switch mc.Mode {
	case MagnifierModeSample, MagnifierModeRaster:
	default:
		result.AddError("magnifier.mode",
			fmt.Sprintf("unknown mode %q (expected %q or %q)",
				mc.Mode, MagnifierModeSample, MagnifierModeRaster))
	}

	v.checkColor("magnifier.crosshair_color", mc.CrosshairColor, result)
}

// validateSync validates SyncConfig settings.
func (v *Validator) validateSync(sc *SyncConfig, result *ValidationResult) {
	if sc.RefreshInterval <= 0 {
		result.AddError("sync.refresh_interval",
			fmt.Sprintf("must be positive, got %v", sc.RefreshInterval))
	}

	// Warn on very fast refresh intervals (< 1s)
	if sc.RefreshInterval > 0 && sc.RefreshInterval < time.Second {
		result.AddWarning("sync.refresh_interval",
			fmt.Sprintf("very fast interval %v may flood the store", sc.RefreshInterval))
	}

	if sc.ActivityLimit <= 0 {
		result.AddError("sync.activity_limit",
			fmt.Sprintf("must be positive, got %d", sc.ActivityLimit))
	}
	if sc.ActivityLimit > 500 {
		result.AddWarning("sync.activity_limit",
			fmt.Sprintf("store caps recent activity at 500, got %d", sc.ActivityLimit))
	}
}

// checkColor validates a single color value.
func (v *Validator) checkColor(field, value string, result *ValidationResult) {
	if _, err := grid.Normalize(value); err != nil {
		result.AddError(field, fmt.Sprintf("invalid color %q: %v", value, err))
	}
}

// ValidateSettings is a convenience function to validate Settings with
// default strictness. Returns nil if the settings are valid, or an
// error describing validation failures.
func ValidateSettings(s *Settings) error {
	if s == nil {
		return fmt.Errorf("settings is nil")
	}

	validator := NewValidator()
	result := validator.Validate(s)
	return result.Error()
}

// ValidateSettingsStrict validates Settings with strict mode enabled.
// Warnings are treated as errors.
func ValidateSettingsStrict(s *Settings) error {
	if s == nil {
		return fmt.Errorf("settings is nil")
	}

	validator := NewValidator().WithStrictMode(true)
	result := validator.Validate(s)
	return result.Error()
}
