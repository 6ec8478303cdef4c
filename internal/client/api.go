// Package client implements the store-facing half of the app: a typed
// HTTP client for the shared canvas API, the cooldown gate that meters
// paint attempts, and the sync controller that keeps the local grid
// following the store.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "pixelcanvas-go/1.0"
	defaultUserID    = "anonymous_user"

	// maxRecentLimit mirrors the store's cap on /api/pixels/recent.
	maxRecentLimit = 500
)

// Client is a typed HTTP client for the canvas store. All methods take a
// context and return either decoded domain values or one of the typed
// errors in this package; callers never see raw HTTP details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     string
	userAgent  string
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout). Useful
// for tests and for callers that need custom transports.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserID sets the identity sent with paint requests. The store
// treats it as an opaque string; empty keeps the anonymous default.
func WithUserID(id string) ClientOption {
	return func(c *Client) {
		if id != "" {
			c.userID = id
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger attaches a logger for request-level debug records. Without
// it the client is silent.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the store at baseURL, for example
// "http://localhost:8000". A trailing slash is tolerated.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", baseURL)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userID:     defaultUserID,
		userAgent:  defaultUserAgent,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UserID returns the identity sent with paint requests.
func (c *Client) UserID() string { return c.userID }

// BaseURL returns the store URL this client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// LoadState fetches the full canvas snapshot for the one-time bulk load.
func (c *Client) LoadState(ctx context.Context) (CanvasState, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/canvas/state", nil, nil)
	if err != nil {
		return CanvasState{}, err
	}

	var wire stateWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return CanvasState{}, &MalformedResponseError{Endpoint: "/api/canvas/state", Reason: err.Error()}
	}
	if wire.Width <= 0 || wire.Height <= 0 {
		return CanvasState{}, &MalformedResponseError{
			Endpoint: "/api/canvas/state",
			Reason:   fmt.Sprintf("non-positive dimensions %dx%d", wire.Width, wire.Height),
		}
	}

	state := CanvasState{
		Width:       wire.Width,
		Height:      wire.Height,
		Pixels:      make([]Pixel, 0, len(wire.Pixels)),
		TotalPixels: wire.TotalPixels,
	}
	for _, pw := range wire.Pixels {
		p, err := pw.toPixel()
		if err != nil {
			return CanvasState{}, &MalformedResponseError{Endpoint: "/api/canvas/state", Reason: err.Error()}
		}
		state.Pixels = append(state.Pixels, p)
	}
	return state, nil
}

// Paint asks the store to record one pixel. The color is normalized
// before sending; a color that fails to parse returns ErrInvalidColor
// without any request. The result carries the store's echo, which is
// what the caller should apply locally, not the requested values.
func (c *Client) Paint(ctx context.Context, cell grid.Cell, colorHex string) (PaintResult, error) {
	normalized, err := grid.Normalize(colorHex)
	if err != nil {
		return PaintResult{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}

	payload := struct {
		X     int    `json:"x"`
		Y     int    `json:"y"`
		Color string `json:"color"`
	}{X: cell.X, Y: cell.Y, Color: normalized}

	query := url.Values{"user_id": {c.userID}}
	body, err := c.do(ctx, http.MethodPost, "/api/pixels", query, payload)
	if err != nil {
		return PaintResult{}, err
	}

	var wire paintWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return PaintResult{}, &MalformedResponseError{Endpoint: "/api/pixels", Reason: err.Error()}
	}
	if !wire.Success || wire.Pixel == nil {
		return PaintResult{}, &MalformedResponseError{Endpoint: "/api/pixels", Reason: "success response without pixel echo"}
	}
	echo, err := wire.Pixel.toPixel()
	if err != nil {
		return PaintResult{}, &MalformedResponseError{Endpoint: "/api/pixels", Reason: err.Error()}
	}

	return PaintResult{
		Cell:            echo.Cell,
		Color:           echo.Color,
		CooldownSeconds: wire.CooldownRemaining,
		Message:         wire.Message,
	}, nil
}

// RecentActivity fetches the latest paint events, most recent first.
// limit <= 0 uses the store default; values above the store cap are
// clamped.
func (c *Client) RecentActivity(ctx context.Context, limit int) ([]Pixel, error) {
	query := url.Values{}
	if limit > 0 {
		if limit > maxRecentLimit {
			limit = maxRecentLimit
		}
		query.Set("limit", fmt.Sprint(limit))
	}

	body, err := c.do(ctx, http.MethodGet, "/api/pixels/recent", query, nil)
	if err != nil {
		return nil, err
	}

	var wire []pixelWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &MalformedResponseError{Endpoint: "/api/pixels/recent", Reason: err.Error()}
	}
	pixels := make([]Pixel, 0, len(wire))
	for _, pw := range wire {
		p, err := pw.toPixel()
		if err != nil {
			return nil, &MalformedResponseError{Endpoint: "/api/pixels/recent", Reason: err.Error()}
		}
		pixels = append(pixels, p)
	}
	return pixels, nil
}

// CanvasStats fetches aggregate canvas statistics without pixel data.
func (c *Client) CanvasStats(ctx context.Context) (CanvasInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/canvas/info", nil, nil)
	if err != nil {
		return CanvasInfo{}, err
	}

	var wire infoWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return CanvasInfo{}, &MalformedResponseError{Endpoint: "/api/canvas/info", Reason: err.Error()}
	}
	if wire.Width <= 0 || wire.Height <= 0 {
		return CanvasInfo{}, &MalformedResponseError{
			Endpoint: "/api/canvas/info",
			Reason:   fmt.Sprintf("non-positive dimensions %dx%d", wire.Width, wire.Height),
		}
	}
	return CanvasInfo{
		Width:           wire.Width,
		Height:          wire.Height,
		TotalPainted:    wire.TotalPixelsPainted,
		ActiveUsers:     wire.ActiveUsers24h,
		CooldownSeconds: wire.CooldownSeconds,
	}, nil
}

// UserStats fetches paint statistics for userID, defaulting to this
// client's own identity when empty. An unknown user is ErrNotFound.
func (c *Client) UserStats(ctx context.Context, userID string) (UserStats, error) {
	if userID == "" {
		userID = c.userID
	}
	path := "/api/users/" + url.PathEscape(userID) + "/stats"
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return UserStats{}, err
	}

	var wire userStatsWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return UserStats{}, &MalformedResponseError{Endpoint: path, Reason: err.Error()}
	}
	stats := UserStats{
		UserID:      wire.UserID,
		Username:    wire.Username,
		TotalPlaced: wire.TotalPixelsPlaced,
		MemberSince: wire.MemberSince.Time,
	}
	if wire.LastPixelAt != nil {
		stats.LastPixelAt = wire.LastPixelAt.Time
	}
	return stats, nil
}

// PixelInfo fetches the current state of one cell. A cell that has never
// been painted is ErrNotFound.
func (c *Client) PixelInfo(ctx context.Context, cell grid.Cell) (Pixel, error) {
	path := fmt.Sprintf("/api/canvas/pixel/%d/%d", cell.X, cell.Y)
	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return Pixel{}, err
	}

	var wire pixelWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return Pixel{}, &MalformedResponseError{Endpoint: path, Reason: err.Error()}
	}
	p, err := wire.toPixel()
	if err != nil {
		return Pixel{}, &MalformedResponseError{Endpoint: path, Reason: err.Error()}
	}
	return p, nil
}

// PixelHistory fetches past paints of one cell, most recent first.
// limit <= 0 uses the store default.
func (c *Client) PixelHistory(ctx context.Context, cell grid.Cell, limit int) (PixelHistory, error) {
	path := fmt.Sprintf("/api/pixels/history/%d/%d", cell.X, cell.Y)
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}

	body, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return PixelHistory{}, err
	}

	var wire historyWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return PixelHistory{}, &MalformedResponseError{Endpoint: path, Reason: err.Error()}
	}
	history := PixelHistory{
		Cell:         grid.Cell{X: wire.X, Y: wire.Y},
		Events:       make([]HistoryEvent, 0, len(wire.History)),
		TotalChanges: wire.TotalChanges,
	}
	for _, ev := range wire.History {
		normalized, err := grid.Normalize(ev.Color)
		if err != nil {
			return PixelHistory{}, &MalformedResponseError{Endpoint: path, Reason: err.Error()}
		}
		history.Events = append(history.Events, HistoryEvent{
			Color:     normalized,
			UserID:    ev.UserID,
			PaintedAt: ev.Timestamp.Time,
		})
	}
	return history, nil
}

// Health fetches the store's own liveness report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/health", nil, nil)
	if err != nil {
		return Health{}, err
	}

	var wire healthWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return Health{}, &MalformedResponseError{Endpoint: "/api/health", Reason: err.Error()}
	}
	if wire.Status == "" {
		return Health{}, &MalformedResponseError{Endpoint: "/api/health", Reason: "missing status"}
	}
	return Health{
		Status:     wire.Status,
		Database:   wire.Database,
		CanvasSize: wire.CanvasSize,
	}, nil
}

// do issues one request and returns the success body. Non-2xx statuses
// are mapped to the package's typed errors; the body is read fully so
// the connection can be reused.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	op := method + " " + path
	ctx = EnsureCorrelationID(ctx)

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &TransportError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", CorrelationIDFromContext(ctx).String())
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.DebugContext(ctx, "store request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode/100 != 2 {
		return nil, c.statusError(op, resp.StatusCode, body)
	}
	return body, nil
}

// statusError maps a non-success status to a typed error, pulling code,
// message and cooldown seconds out of the body when present.
func (c *Client) statusError(op string, status int, body []byte) error {
	env := parseErrorEnvelope(body)
	switch status {
	case http.StatusNotFound:
		if env.Message != "" {
			return fmt.Errorf("%s: %s: %w", op, env.Message, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusTooManyRequests:
		msg := env.Message
		if msg == "" {
			msg = "cooldown active"
		}
		return &RateLimitError{Message: msg, Remaining: env.CooldownRemaining}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", status)
		}
		return &RejectionError{Code: env.Code, Message: msg}
	default:
		return &TransportError{Op: op, Err: fmt.Errorf("HTTP %d", status)}
	}
}
