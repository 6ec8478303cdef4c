package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-pixelcanvas/internal/grid"
)

const (
	// DefaultRefreshInterval is how often the refresh loop polls the store.
	DefaultRefreshInterval = 10 * time.Second

	// DefaultActivityLimit is how many recent paint events each refresh pulls.
	DefaultActivityLimit = 50
)

// Breaker gates refresh calls when the store is misbehaving. It is the
// slice of the facade's circuit breaker this package needs, kept as a
// local interface so the dependency points downward. Nil means calls go
// out unguarded.
type Breaker interface {
	Execute(fn func() error) error
}

// Snapshot is the controller's latest view of store-side statistics for
// the HUD. Activity is most recent first. LastError holds the failures
// of the most recent refresh pass, nil after a clean one.
type Snapshot struct {
	Activity  []Pixel
	Stats     CanvasInfo
	User      UserStats
	LastSync  time.Time
	LastError error
}

// Controller runs one editing session against the store: the one-time
// state load into the grid, user paints through the cooldown gate, and
// the periodic refresh of HUD statistics. The refresh loop never writes
// the grid; after the initial load only confirmed paint echoes do.
//
// A Controller is single-use: Start once, Stop once. A new session
// needs a new Controller.
type Controller struct {
	api  *Client
	grid *grid.Grid
	gate *CooldownGate

	refreshInterval time.Duration
	activityLimit   int
	clock           func() time.Time
	breaker         Breaker
	onError         func(error)
	onRefresh       func(elapsed time.Duration)
	logger          *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
	ticker  *time.Ticker

	// inFlight holds the gate closed while a paint request is on the
	// wire, so a double click cannot race two paints past one cooldown.
	inFlight atomic.Bool

	snapMu sync.RWMutex
	snap   Snapshot
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithRefreshInterval sets how often the refresh loop polls the store.
// Non-positive values keep the default.
func WithRefreshInterval(d time.Duration) ControllerOption {
	return func(c *Controller) {
		if d > 0 {
			c.refreshInterval = d
		}
	}
}

// WithActivityLimit sets how many recent paint events each refresh
// fetches for the HUD.
func WithActivityLimit(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.activityLimit = n
		}
	}
}

// WithClock substitutes the controller's time source, for tests.
func WithClock(clock func() time.Time) ControllerOption {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBreaker routes background refresh calls through b. Paints are
// user-initiated and always go out directly.
func WithBreaker(b Breaker) ControllerOption {
	return func(c *Controller) {
		c.breaker = b
	}
}

// WithErrorHandler installs a callback invoked with each failed refresh
// pass. Paint errors return to the caller instead. The handler runs on
// the refresh goroutine and must not block.
func WithErrorHandler(handler func(error)) ControllerOption {
	return func(c *Controller) {
		c.onError = handler
	}
}

// WithRefreshObserver installs a callback invoked after every refresh
// pass, clean or failed, with the wall time the pass took. Meant for
// liveness and latency accounting. Runs on the refresh goroutine and
// must not block.
func WithRefreshObserver(fn func(elapsed time.Duration)) ControllerOption {
	return func(c *Controller) {
		c.onRefresh = fn
	}
}

// NewController creates a controller for the given store client and
// local grid. The grid's dimensions must match the store's canvas; the
// initial load verifies this.
func NewController(api *Client, g *grid.Grid, opts ...ControllerOption) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	ctl := &Controller{
		api:             api,
		grid:            g,
		gate:            &CooldownGate{},
		refreshInterval: DefaultRefreshInterval,
		activityLimit:   DefaultActivityLimit,
		clock:           time.Now,
		logger:          api.logger,
		ctx:             ctx,
		cancel:          cancel,
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

// Start loads the full canvas into the grid, then begins the refresh
// loop in a background goroutine. It errors if the controller is
// already running or if the initial load fails; a failed load leaves
// the controller stopped so Start can be retried.
func (ctl *Controller) Start() error {
	ctl.mu.Lock()
	if ctl.running {
		ctl.mu.Unlock()
		return fmt.Errorf("controller already running")
	}
	ctl.running = true
	ctl.mu.Unlock()

	if err := ctl.loadInitial(); err != nil {
		ctl.mu.Lock()
		ctl.running = false
		ctl.mu.Unlock()
		return fmt.Errorf("initial load failed: %w", err)
	}

	ctl.wg.Add(1)
	go ctl.refreshLoop()

	return nil
}

// Stop halts the refresh loop and waits for it to finish. Safe to call
// more than once.
func (ctl *Controller) Stop() {
	ctl.mu.Lock()
	if !ctl.running {
		ctl.mu.Unlock()
		return
	}
	ctl.mu.Unlock()

	ctl.cancel()
	ctl.wg.Wait()

	ctl.mu.Lock()
	ctl.running = false
	ctl.mu.Unlock()
}

// IsRunning reports whether the refresh loop is active.
func (ctl *Controller) IsRunning() bool {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	return ctl.running
}

// SetRefreshInterval changes the polling period. A running loop adopts
// it from the next tick; non-positive values are ignored.
func (ctl *Controller) SetRefreshInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	ctl.refreshInterval = d
	if ctl.ticker != nil {
		ctl.ticker.Reset(d)
	}
}

// loadInitial fetches the full canvas state and replaces the grid
// contents. A store whose dimensions differ from the local grid is a
// configuration fault, reported rather than partially loaded.
func (ctl *Controller) loadInitial() error {
	ctx := EnsureCorrelationID(ctl.ctx)

	state, err := ctl.api.LoadState(ctx)
	if err != nil {
		return NewFeedError(FeedState, err)
	}
	if state.Width != ctl.grid.Width() || state.Height != ctl.grid.Height() {
		return NewFeedError(FeedState, fmt.Errorf("store canvas is %dx%d, local grid is %dx%d",
			state.Width, state.Height, ctl.grid.Width(), ctl.grid.Height()))
	}
	if err := ctl.grid.LoadBulk(state.Entries()); err != nil {
		return NewFeedError(FeedState, err)
	}

	ctl.logger.InfoContext(ctx, "canvas loaded",
		"width", state.Width,
		"height", state.Height,
		"painted", len(state.Pixels))
	return nil
}

// refreshLoop runs the periodic statistics refresh until Stop.
func (ctl *Controller) refreshLoop() {
	defer ctl.wg.Done()

	ctl.mu.Lock()
	ticker := time.NewTicker(ctl.refreshInterval)
	ctl.ticker = ticker
	ctl.mu.Unlock()
	defer func() {
		ticker.Stop()
		ctl.mu.Lock()
		ctl.ticker = nil
		ctl.mu.Unlock()
	}()

	// First pass up front so the HUD has data before the first interval.
	ctl.refreshOnce()

	for {
		select {
		case <-ticker.C:
			ctl.refreshOnce()
		case <-ctl.ctx.Done():
			return
		}
	}
}

// refreshOnce fetches all HUD feeds, keeping going when one fails so a
// flaky endpoint cannot starve the others. Failures are recorded in the
// snapshot and handed to the error callback, never surfaced as a fault.
func (ctl *Controller) refreshOnce() {
	ctx := EnsureCorrelationID(ctl.ctx)
	started := time.Now()

	var (
		errs      []*FeedError
		succeeded bool
		activity  []Pixel
		stats     CanvasInfo
		user      UserStats
		userOK    bool
	)

	if err := ctl.guard(func() error {
		var err error
		activity, err = ctl.api.RecentActivity(ctx, ctl.activityLimit)
		return err
	}); err != nil {
		errs = append(errs, NewFeedError(FeedActivity, err))
	} else {
		succeeded = true
	}

	if err := ctl.guard(func() error {
		var err error
		stats, err = ctl.api.CanvasStats(ctx)
		return err
	}); err != nil {
		errs = append(errs, NewFeedError(FeedCanvasInfo, err))
	} else {
		succeeded = true
	}

	if err := ctl.guard(func() error {
		var err error
		user, err = ctl.api.UserStats(ctx, "")
		return err
	}); err != nil {
		// A store that has never seen this user is not a failure.
		if !errors.Is(err, ErrNotFound) {
			errs = append(errs, NewFeedError(FeedUserStats, err))
		}
	} else {
		succeeded = true
		userOK = true
	}

	var refreshErr error
	if len(errs) > 0 {
		refreshErr = &RefreshError{Errors: errs}
	}

	ctl.snapMu.Lock()
	if activity != nil {
		ctl.snap.Activity = activity
	}
	if stats.Width > 0 {
		ctl.snap.Stats = stats
	}
	if userOK {
		ctl.snap.User = user
	}
	if succeeded {
		ctl.snap.LastSync = ctl.clock()
	}
	ctl.snap.LastError = refreshErr
	ctl.snapMu.Unlock()

	if refreshErr != nil {
		ctl.logger.WarnContext(ctx, "refresh failed", "error", refreshErr)
		if ctl.onError != nil {
			ctl.onError(refreshErr)
		}
	}
	if ctl.onRefresh != nil {
		ctl.onRefresh(time.Since(started))
	}
}

// guard runs fn through the circuit breaker when one is installed.
func (ctl *Controller) guard(fn func() error) error {
	if ctl.breaker == nil {
		return fn()
	}
	return ctl.breaker.Execute(fn)
}

// Data returns a copy of the latest HUD snapshot.
func (ctl *Controller) Data() Snapshot {
	ctl.snapMu.RLock()
	defer ctl.snapMu.RUnlock()
	snap := ctl.snap
	snap.Activity = append([]Pixel(nil), ctl.snap.Activity...)
	return snap
}

// Paint sends one paint attempt through the full flow: bounds check,
// color validation, cooldown gate, in-flight latch, then the store
// call. On success the store's echo, not the request, lands in the grid
// and the gate restarts from the store's cooldown. On a rate-limit
// decline the gate adopts the store's remaining seconds; any other
// failure leaves grid and gate unchanged.
func (ctl *Controller) Paint(ctx context.Context, cell grid.Cell, colorHex string) (PaintResult, error) {
	if !ctl.grid.InBounds(cell) {
		return PaintResult{}, fmt.Errorf("paint (%d,%d) on %dx%d canvas: %w",
			cell.X, cell.Y, ctl.grid.Width(), ctl.grid.Height(), grid.ErrOutOfBounds)
	}
	if _, err := grid.Normalize(colorHex); err != nil {
		return PaintResult{}, fmt.Errorf("%w: %v", ErrInvalidColor, err)
	}

	now := ctl.clock()
	if !ctl.gate.Ready(now) {
		return PaintResult{}, fmt.Errorf("%w: %ds remaining", ErrCooldownActive, ctl.gate.RemainingSeconds(now))
	}
	if !ctl.inFlight.CompareAndSwap(false, true) {
		return PaintResult{}, fmt.Errorf("%w: request in flight", ErrCooldownActive)
	}
	defer ctl.inFlight.Store(false)

	ctx = EnsureCorrelationID(ctx)
	result, err := ctl.api.Paint(ctx, cell, colorHex)
	if err != nil {
		var rle *RateLimitError
		if errors.As(err, &rle) {
			// The local gate drifted behind the store; adopt its countdown.
			ctl.gate.Start(rle.Remaining, ctl.clock())
		}
		return PaintResult{}, err
	}

	// The session may have been stopped while the request was out.
	if ctl.ctx.Err() != nil {
		return PaintResult{}, fmt.Errorf("session stopped: %w", ctl.ctx.Err())
	}

	ctl.gate.Start(result.CooldownSeconds, ctl.clock())
	if err := ctl.grid.Set(result.Cell, result.Color); err != nil {
		return PaintResult{}, fmt.Errorf("apply confirmed pixel: %w", err)
	}

	ctl.logger.InfoContext(ctx, "pixel painted",
		"x", result.Cell.X,
		"y", result.Cell.Y,
		"color", result.Color,
		"cooldown", result.CooldownSeconds)
	return result, nil
}

// CanPaint reports whether a paint attempt would pass the local gate
// right now.
func (ctl *Controller) CanPaint(now time.Time) bool {
	return ctl.gate.Ready(now) && !ctl.inFlight.Load()
}

// CooldownRemaining returns whole seconds until painting is allowed
// again, rounded up for countdown display.
func (ctl *Controller) CooldownRemaining(now time.Time) int {
	return ctl.gate.RemainingSeconds(now)
}
