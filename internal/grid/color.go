// Package grid holds the client-side canvas state: the painted-cell cache,
// the screen/cell coordinate mapping, and the canonical color form shared
// with the wire protocol.
package grid

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// NamedColors maps common CSS color names to their RGBA values, for use in
// settings files and palettes. Cell colors on the wire are always hex.
var NamedColors = map[string]color.RGBA{
	"black":   {R: 0, G: 0, B: 0, A: 255},
	"white":   {R: 255, G: 255, B: 255, A: 255},
	"red":     {R: 255, G: 0, B: 0, A: 255},
	"green":   {R: 0, G: 128, B: 0, A: 255},
	"blue":    {R: 0, G: 0, B: 255, A: 255},
	"yellow":  {R: 255, G: 255, B: 0, A: 255},
	"cyan":    {R: 0, G: 255, B: 255, A: 255},
	"magenta": {R: 255, G: 0, B: 255, A: 255},
	"gray":    {R: 128, G: 128, B: 128, A: 255},
	"grey":    {R: 128, G: 128, B: 128, A: 255},
	"silver":  {R: 192, G: 192, B: 192, A: 255},
	"maroon":  {R: 128, G: 0, B: 0, A: 255},
	"olive":   {R: 128, G: 128, B: 0, A: 255},
	"lime":    {R: 0, G: 255, B: 0, A: 255},
	"teal":    {R: 0, G: 128, B: 128, A: 255},
	"navy":    {R: 0, G: 0, B: 128, A: 255},
	"purple":  {R: 128, G: 0, B: 128, A: 255},
	"orange":  {R: 255, G: 165, B: 0, A: 255},
	"pink":    {R: 255, G: 192, B: 203, A: 255},
	"brown":   {R: 165, G: 42, B: 42, A: 255},
	"coral":   {R: 255, G: 127, B: 80, A: 255},
	"gold":    {R: 255, G: 215, B: 0, A: 255},
	"crimson": {R: 220, G: 20, B: 60, A: 255},

	"transparent": {R: 0, G: 0, B: 0, A: 0},
}

// ParseColor parses a color string and returns an RGBA color.
// Supported formats:
//   - Named colors: "red", "blue", "green", etc.
//   - Hex formats: "#RGB", "#RGBA", "#RRGGBB", "#RRGGBBAA" (with or without #)
//   - RGB function: "rgb(255, 0, 0)"
//   - RGBA function: "rgba(255, 0, 0, 0.5)" or "rgba(255, 0, 0, 128)"
//
// Returns an error if the color string cannot be parsed.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.RGBA{}, fmt.Errorf("empty color string")
	}

	if clr, ok := NamedColors[strings.ToLower(s)]; ok {
		return clr, nil
	}

	if strings.HasPrefix(s, "#") || isHexString(s) {
		return parseHexColor(s)
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rgba(") {
		return parseRGBAFunc(s)
	}
	if strings.HasPrefix(lower, "rgb(") {
		return parseRGBFunc(s)
	}

	return color.RGBA{}, fmt.Errorf("unrecognized color format: %q", s)
}

// MustParseColor parses a color string and panics if parsing fails.
// Use this only for known-good color values in initialization code.
func MustParseColor(s string) color.RGBA {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FormatColor renders a color in the canonical wire form: "#RRGGBB" with
// upper-case hex digits. Alpha is dropped; cells are always opaque.
func FormatColor(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// Normalize parses a color string and returns its canonical wire form.
// The remote store accepts and emits 6-digit hex in any case; everything
// the client stores or sends goes through here first.
func Normalize(s string) (string, error) {
	c, err := ParseColor(s)
	if err != nil {
		return "", err
	}
	return FormatColor(c), nil
}

// isHexString checks if the string looks like a hex color (without #).
func isHexString(s string) bool {
	if len(s) != 3 && len(s) != 4 && len(s) != 6 && len(s) != 8 {
		return false
	}
	for _, c := range s {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

// isHexDigit checks if a rune is a valid hexadecimal digit.
func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') ||
		(c >= 'a' && c <= 'f') ||
		(c >= 'A' && c <= 'F')
}

// parseHexColor parses a hex color string.
func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")

	switch len(s) {
	case 3: // RGB shorthand
		return parseHexChannels(s[0:1]+s[0:1], s[1:2]+s[1:2], s[2:3]+s[2:3], "FF")
	case 4: // RGBA shorthand
		return parseHexChannels(s[0:1]+s[0:1], s[1:2]+s[1:2], s[2:3]+s[2:3], s[3:4]+s[3:4])
	case 6: // RRGGBB
		return parseHexChannels(s[0:2], s[2:4], s[4:6], "FF")
	case 8: // RRGGBBAA
		return parseHexChannels(s[0:2], s[2:4], s[4:6], s[6:8])
	default:
		return color.RGBA{}, fmt.Errorf("invalid hex color length: %d", len(s))
	}
}

// parseHexChannels assembles a color from two-digit hex channel strings.
func parseHexChannels(rs, gs, bs, as string) (color.RGBA, error) {
	r, err := parseHexByte(rs)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid red component: %w", err)
	}
	g, err := parseHexByte(gs)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid green component: %w", err)
	}
	b, err := parseHexByte(bs)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid blue component: %w", err)
	}
	a, err := parseHexByte(as)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid alpha component: %w", err)
	}
	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// parseHexByte parses a two-character hex string to a byte.
func parseHexByte(s string) (uint8, error) {
	val, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, err
	}
	return uint8(val), nil
}

// parseRGBFunc parses an "rgb(r, g, b)" format string.
func parseRGBFunc(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(s), "rgb(") || !strings.HasSuffix(s, ")") {
		return color.RGBA{}, fmt.Errorf("invalid rgb() format: %q", s)
	}

	parts := strings.Split(s[4:len(s)-1], ",")
	if len(parts) != 3 {
		return color.RGBA{}, fmt.Errorf("rgb() requires exactly 3 values, got %d", len(parts))
	}

	r, err := parseColorComponent(strings.TrimSpace(parts[0]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid red value: %w", err)
	}
	g, err := parseColorComponent(strings.TrimSpace(parts[1]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid green value: %w", err)
	}
	b, err := parseColorComponent(strings.TrimSpace(parts[2]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid blue value: %w", err)
	}

	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// parseRGBAFunc parses an "rgba(r, g, b, a)" format string.
func parseRGBAFunc(s string) (color.RGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToLower(s), "rgba(") || !strings.HasSuffix(s, ")") {
		return color.RGBA{}, fmt.Errorf("invalid rgba() format: %q", s)
	}

	parts := strings.Split(s[5:len(s)-1], ",")
	if len(parts) != 4 {
		return color.RGBA{}, fmt.Errorf("rgba() requires exactly 4 values, got %d", len(parts))
	}

	r, err := parseColorComponent(strings.TrimSpace(parts[0]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid red value: %w", err)
	}
	g, err := parseColorComponent(strings.TrimSpace(parts[1]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid green value: %w", err)
	}
	b, err := parseColorComponent(strings.TrimSpace(parts[2]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid blue value: %w", err)
	}
	a, err := parseAlphaComponent(strings.TrimSpace(parts[3]))
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid alpha value: %w", err)
	}

	return color.RGBA{R: r, G: g, B: b, A: a}, nil
}

// parseColorComponent parses a color component value (0-255).
func parseColorComponent(s string) (uint8, error) {
	val, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(val), nil
}

// parseAlphaComponent parses an alpha value.
// Accepts both 0-255 integer and 0.0-1.0 float formats.
func parseAlphaComponent(s string) (uint8, error) {
	if strings.Contains(s, ".") {
		val, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, err
		}
		if val < 0 {
			val = 0
		}
		if val > 1 {
			val = 1
		}
		return uint8(val * 255), nil
	}

	val, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(val), nil
}

// WithAlpha returns a new color with the specified alpha value (0-255).
func WithAlpha(c color.RGBA, alpha uint8) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: alpha}
}

// Blend blends two colors together with the specified ratio (0.0-1.0).
// A ratio of 0.0 returns c1, 1.0 returns c2, 0.5 returns an even mix.
func Blend(c1, c2 color.RGBA, ratio float64) color.RGBA {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}

	return color.RGBA{
		R: blendChannel(c1.R, c2.R, ratio),
		G: blendChannel(c1.G, c2.G, ratio),
		B: blendChannel(c1.B, c2.B, ratio),
		A: blendChannel(c1.A, c2.A, ratio),
	}
}

// blendChannel blends two channel values with the given ratio.
func blendChannel(a, b uint8, ratio float64) uint8 {
	return uint8(float64(a)*(1-ratio) + float64(b)*ratio)
}

// Darken returns a darker version of the color.
// Amount is a value from 0.0-1.0, where 0.0 returns the original color
// and 1.0 returns black.
func Darken(c color.RGBA, amount float64) color.RGBA {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}

	return color.RGBA{
		R: uint8(float64(c.R) * (1 - amount)),
		G: uint8(float64(c.G) * (1 - amount)),
		B: uint8(float64(c.B) * (1 - amount)),
		A: c.A,
	}
}

// Lighten returns a lighter version of the color.
// Amount is a value from 0.0-1.0, where 0.0 returns the original color
// and 1.0 returns white.
func Lighten(c color.RGBA, amount float64) color.RGBA {
	if amount < 0 {
		amount = 0
	}
	if amount > 1 {
		amount = 1
	}

	return color.RGBA{
		R: uint8(float64(c.R) + (255-float64(c.R))*amount),
		G: uint8(float64(c.G) + (255-float64(c.G))*amount),
		B: uint8(float64(c.B) + (255-float64(c.B))*amount),
		A: c.A,
	}
}

// Luminance returns the relative luminance of a color (0.0-1.0).
// This is useful for determining if a color is "light" or "dark".
func Luminance(c color.RGBA) float64 {
	r := sRGBToLinear(float64(c.R) / 255.0)
	g := sRGBToLinear(float64(c.G) / 255.0)
	b := sRGBToLinear(float64(c.B) / 255.0)

	// ITU-R BT.709 coefficients
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// sRGBToLinear converts an sRGB component to linear RGB.
func sRGBToLinear(c float64) float64 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// IsDark returns true if the color is considered "dark" (luminance <= 0.5).
// The HUD uses this to pick a readable label color over palette swatches.
func IsDark(c color.RGBA) bool {
	return Luminance(c) <= 0.5
}
