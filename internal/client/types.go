package client

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

// apiTime decodes the store's timestamps. The store emits RFC 3339 when
// a timezone is attached but plain "2006-01-02T15:04:05.999999" for
// naive datetimes, which encoding/json's time.Time refuses. Naive values
// are taken as UTC.
type apiTime struct {
	time.Time
}

var apiTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
}

func (t *apiTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range apiTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

// Wire shapes, matching the store's JSON exactly. Domain types below
// carry validated, normalized values into the rest of the app.

type pixelWire struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Color     string  `json:"color"`
	UserID    string  `json:"user_id"`
	Timestamp apiTime `json:"timestamp"`
}

type stateWire struct {
	Width       int         `json:"width"`
	Height      int         `json:"height"`
	Pixels      []pixelWire `json:"pixels"`
	TotalPixels int         `json:"total_pixels"`
}

type paintWire struct {
	Success           bool       `json:"success"`
	Message           string     `json:"message"`
	Pixel             *pixelWire `json:"pixel"`
	CooldownRemaining int        `json:"cooldown_remaining"`
}

// errorDetailWire is the store's rejection payload: a machine code, a
// human message and optional extras such as the cooldown seconds.
type errorDetailWire struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Details struct {
		CooldownRemaining int `json:"cooldown_remaining"`
	} `json:"details"`
}

// errorEnvelope is the collapsed view of an error body, whatever shape
// it arrived in.
type errorEnvelope struct {
	Code              string
	Message           string
	CooldownRemaining int
}

// parseErrorEnvelope extracts code, message and cooldown seconds from an
// error body. The store emits three shapes: the documented flat form,
// the handler-wrapped form with the payload nested under "error", and
// the framework default under "detail". Unrecognized bodies collapse to
// an empty envelope; the HTTP status still decides the error type.
func parseErrorEnvelope(body []byte) errorEnvelope {
	var outer struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Details struct {
			CooldownRemaining int `json:"cooldown_remaining"`
		} `json:"details"`
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &outer); err != nil {
		return errorEnvelope{}
	}
	env := errorEnvelope{
		Message:           outer.Message,
		CooldownRemaining: outer.Details.CooldownRemaining,
	}

	// "error" is either the code itself or a nested payload carrying it.
	if len(outer.Error) > 0 {
		var code string
		if json.Unmarshal(outer.Error, &code) == nil {
			env.Code = code
		} else {
			var nested errorDetailWire
			if json.Unmarshal(outer.Error, &nested) == nil {
				env.Code = nested.Code
				if nested.Message != "" {
					env.Message = nested.Message
				}
				if nested.Details.CooldownRemaining > 0 {
					env.CooldownRemaining = nested.Details.CooldownRemaining
				}
			}
		}
	}

	if env.Code == "" && env.Message == "" && len(outer.Detail) > 0 {
		var s string
		if json.Unmarshal(outer.Detail, &s) == nil {
			env.Message = s
		} else {
			var nested errorDetailWire
			if json.Unmarshal(outer.Detail, &nested) == nil {
				env.Code = nested.Code
				env.Message = nested.Message
				env.CooldownRemaining = nested.Details.CooldownRemaining
			}
		}
	}
	return env
}

type infoWire struct {
	Width              int `json:"width"`
	Height             int `json:"height"`
	TotalPixelsPainted int `json:"total_pixels_painted"`
	ActiveUsers24h     int `json:"active_users_24h"`
	CooldownSeconds    int `json:"cooldown_seconds"`
}

type userStatsWire struct {
	UserID            string   `json:"user_id"`
	Username          string   `json:"username"`
	TotalPixelsPlaced int      `json:"total_pixels_placed"`
	LastPixelAt       *apiTime `json:"last_pixel_at"`
	MemberSince       apiTime  `json:"member_since"`
}

type historyEventWire struct {
	Color     string  `json:"color"`
	UserID    string  `json:"user_id"`
	Timestamp apiTime `json:"timestamp"`
}

type historyWire struct {
	X            int                `json:"x"`
	Y            int                `json:"y"`
	History      []historyEventWire `json:"history"`
	TotalChanges int                `json:"total_changes"`
}

type healthWire struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	CanvasSize string `json:"canvas_size"`
}

// Pixel is one painted cell as reported by the store, with the color in
// canonical form.
type Pixel struct {
	Cell      grid.Cell
	Color     string
	UserID    string
	PaintedAt time.Time
}

// CanvasState is the full snapshot used for the one-time bulk load.
type CanvasState struct {
	Width       int
	Height      int
	Pixels      []Pixel
	TotalPixels int
}

// Entries converts the snapshot into grid bulk-load entries.
func (s CanvasState) Entries() []grid.Entry {
	entries := make([]grid.Entry, len(s.Pixels))
	for i, p := range s.Pixels {
		entries[i] = grid.Entry{Cell: p.Cell, Color: p.Color}
	}
	return entries
}

// PaintResult is a confirmed paint: the cell and color the store
// actually recorded, plus the server's cooldown.
type PaintResult struct {
	Cell            grid.Cell
	Color           string
	CooldownSeconds int
	Message         string
}

// CanvasInfo is the store's aggregate canvas statistics.
type CanvasInfo struct {
	Width           int
	Height          int
	TotalPainted    int
	ActiveUsers     int
	CooldownSeconds int
}

// UserStats is per-user paint history. The store reports only raw
// counters and timestamps; readiness is derived locally so the display
// self-corrects from "now" instead of trusting a stale flag.
type UserStats struct {
	UserID      string
	Username    string
	TotalPlaced int
	LastPixelAt time.Time
	MemberSince time.Time
}

// CooldownRemaining derives the seconds left before this user may paint
// again, given the canvas cooldown. Zero when ready.
func (s UserStats) CooldownRemaining(cooldownSeconds int, now time.Time) int {
	if s.LastPixelAt.IsZero() {
		return 0
	}
	elapsed := now.Sub(s.LastPixelAt)
	remaining := time.Duration(cooldownSeconds)*time.Second - elapsed
	if remaining <= 0 {
		return 0
	}
	secs := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return secs
}

// CanPaint reports whether this user's cooldown has expired.
func (s UserStats) CanPaint(cooldownSeconds int, now time.Time) bool {
	return s.CooldownRemaining(cooldownSeconds, now) == 0
}

// HistoryEvent is one past paint of a cell.
type HistoryEvent struct {
	Color     string
	UserID    string
	PaintedAt time.Time
}

// PixelHistory lists a cell's paint events, most recent first.
type PixelHistory struct {
	Cell         grid.Cell
	Events       []HistoryEvent
	TotalChanges int
}

// Health is the store's own liveness report.
type Health struct {
	Status     string
	Database   string
	CanvasSize string
}

// Healthy reports whether the store considers itself fully operational.
func (h Health) Healthy() bool {
	return h.Status == "healthy"
}

// toPixel validates and normalizes one wire pixel.
func (p pixelWire) toPixel() (Pixel, error) {
	normalized, err := grid.Normalize(p.Color)
	if err != nil {
		return Pixel{}, fmt.Errorf("pixel (%d,%d): %w", p.X, p.Y, err)
	}
	return Pixel{
		Cell:      grid.Cell{X: p.X, Y: p.Y},
		Color:     normalized,
		UserID:    p.UserID,
		PaintedAt: p.Timestamp.Time,
	}, nil
}
