package pixelcanvas

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gg"

	"github.com/opd-ai/go-pixelcanvas/internal/client"
	"github.com/opd-ai/go-pixelcanvas/internal/config"
	"github.com/opd-ai/go-pixelcanvas/internal/grid"
	"github.com/opd-ai/go-pixelcanvas/internal/render"
	"github.com/opd-ai/go-pixelcanvas/internal/ui"
)

// canvasImpl is the private implementation of the Canvas interface.
type canvasImpl struct {
	// Configuration
	settings     *config.Settings
	opts         Options
	configSource string
	watchPath    string // Disk path for the file watcher; empty disables watching
	configLoader func() (*config.Settings, error)

	// sessionSettings is the effective configuration of the current
	// session, frozen at Start after Options overrides.
	sessionSettings config.Settings

	// Session components, rebuilt on every Start
	grid       *grid.Grid
	board      *render.Board
	lens       *render.Magnifier
	api        *client.Client
	controller *client.Controller
	game       *ui.Game // nil in headless mode
	breaker    *CircuitBreaker
	watcher    *configWatcher

	// Observability
	metrics *Metrics
	tracker *ErrorTracker
	slogger *slog.Logger

	// State
	running     atomic.Bool
	startTime   time.Time
	updateCount atomic.Uint64
	lastError   atomic.Value // stores error

	// Handlers
	errorHandler ErrorHandler
	eventHandler EventHandler

	// Synchronization
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Verify interface implementation at compile time.
var _ Canvas = (*canvasImpl)(nil)

// newCanvas assembles an unstarted instance around parsed settings.
func newCanvas(settings *config.Settings, source, watchPath string, loader func() (*config.Settings, error), opts *Options) *canvasImpl {
	if opts == nil {
		defaultOpts := DefaultOptions()
		opts = &defaultOpts
	}

	c := &canvasImpl{
		settings:     settings,
		opts:         *opts,
		configSource: source,
		watchPath:    watchPath,
		configLoader: loader,
	}

	if c.opts.Metrics != nil {
		c.metrics = c.opts.Metrics
	} else {
		c.metrics = DefaultMetrics()
	}
	if c.opts.ErrorTracker != nil {
		c.tracker = c.opts.ErrorTracker
	} else {
		c.tracker = DefaultErrorTracker()
	}
	// Every internal log record flows through the host's Logger, with
	// correlation IDs stamped on for request tracing.
	c.slogger = slog.New(client.NewCorrelatedSlogHandler(slogFrom(c.opts.Logger).Handler()))

	return c
}

// storeBreaker adapts the circuit breaker for store calls: only
// connectivity failures count against the circuit. A store that
// answers, even with an error status, is reachable, so application
// errors pass through without tripping it.
type storeBreaker struct {
	cb *CircuitBreaker
}

func (b storeBreaker) Execute(fn func() error) error {
	var appErr error
	err := b.cb.Execute(func() error {
		err := fn()
		if err != nil && !client.IsTransport(err) {
			appErr = err
			return nil
		}
		return err
	})
	if err == nil && appErr != nil {
		return appErr
	}
	return err
}

// effectiveSettings returns a copy of the parsed settings with the
// Options overrides applied. Overrides win over every file and
// environment layer.
func (c *canvasImpl) effectiveSettings() config.Settings {
	s := *c.settings
	if c.opts.ServerURL != "" {
		s.Remote.ServerURL = c.opts.ServerURL
	}
	if c.opts.UserID != "" {
		s.Remote.UserID = c.opts.UserID
	}
	if c.opts.UpdateInterval > 0 {
		s.Sync.RefreshInterval = c.opts.UpdateInterval
	}
	if c.opts.WindowTitle != "" {
		s.Window.Title = c.opts.WindowTitle
	}
	if c.opts.Headless {
		s.Window.Headless = true
	}
	return s
}

// Start connects to the store, loads the canvas, and begins the session.
func (c *canvasImpl) Start() error {
	c.mu.Lock()

	if c.running.Load() {
		c.mu.Unlock()
		return fmt.Errorf("canvas instance already running")
	}

	// Create cancellable context
	c.ctx, c.cancel = context.WithCancel(context.Background())

	settings := c.effectiveSettings()
	c.sessionSettings = settings
	if err := c.initSession(settings); err != nil {
		c.cancel()
		c.mu.Unlock()
		return fmt.Errorf("failed to initialize: %w", err)
	}

	// The initial load is the one blocking step: a session that cannot
	// reach the store or disagrees with it about dimensions never starts.
	if err := c.controller.Start(); err != nil {
		c.cancel()
		c.mu.Unlock()
		return fmt.Errorf("failed to start session: %w", err)
	}

	if c.opts.WatchConfig && c.watchPath != "" {
		watcher, err := newConfigWatcher(c.watchPath, c.opts.WatchDebounce, c.ReloadConfig, c.notifyError)
		if err != nil {
			c.slogger.Warn("settings watch unavailable", "error", err)
		} else {
			c.watcher = watcher
			watcher.Start()
		}
	}

	// Set running state BEFORE starting goroutine to avoid race
	c.running.Store(true)
	c.startTime = time.Now()

	c.metrics.IncrementStarts()
	c.metrics.SetRunning(true)
	c.metrics.SetActiveSessions(1)

	headless := settings.Window.Headless

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.cleanup()
		defer c.running.Store(false)
		defer c.metrics.SetRunning(false)
		defer c.metrics.SetActiveSessions(0)

		if headless {
			// Headless mode: the sync controller is the whole session.
			<-c.ctx.Done()
		} else {
			// Windowed mode: run the Ebiten loop until the window
			// closes or the context cancels.
			c.runRenderLoop()

			// The window closing must also end the sync loop, or the
			// cleanup goroutines would leak.
			c.mu.RLock()
			cancel := c.cancel
			c.mu.RUnlock()
			if cancel != nil {
				cancel()
			}
		}

		c.emitEvent(EventStopped, "Session stopped")
	}()

	// Release lock before emitting event to avoid deadlock
	c.mu.Unlock()

	c.emitEvent(EventStarted, "Session started")

	return nil
}

// initSession builds the per-session components from settings.
// Caller holds c.mu.
func (c *canvasImpl) initSession(settings config.Settings) error {
	// The drawing layer shares the session logger.
	gg.SetLogger(c.slogger)

	g, err := grid.New(settings.Canvas.Width, settings.Canvas.Height)
	if err != nil {
		return fmt.Errorf("create grid: %w", err)
	}

	api, err := client.NewClient(settings.Remote.ServerURL,
		client.WithUserID(settings.Remote.UserID),
		client.WithLogger(c.slogger),
	)
	if err != nil {
		return fmt.Errorf("create store client: %w", err)
	}

	c.breaker = NewCircuitBreaker(DefaultCircuitBreakerConfig())
	controller := client.NewController(api, g,
		client.WithRefreshInterval(settings.Sync.RefreshInterval),
		client.WithActivityLimit(settings.Sync.ActivityLimit),
		client.WithBreaker(storeBreaker{cb: c.breaker}),
		client.WithErrorHandler(func(err error) {
			// Background refresh failures are logged and tracked, never
			// surfaced into the session.
			c.trackError(err)
		}),
		client.WithRefreshObserver(func(elapsed time.Duration) {
			c.updateCount.Add(1)
			c.metrics.IncrementRefreshes()
			c.metrics.RecordRefreshLatency(elapsed)
		}),
	)

	mapper, err := grid.NewMapper(settings.Render.CellSize, settings.Canvas.Width, settings.Canvas.Height)
	if err != nil {
		return fmt.Errorf("create mapper: %w", err)
	}
	background, err := grid.ParseColor(settings.Render.BackgroundColor)
	if err != nil {
		return fmt.Errorf("background color: %w", err)
	}
	gridLine, err := grid.ParseColor(settings.Render.GridLineColor)
	if err != nil {
		return fmt.Errorf("grid line color: %w", err)
	}
	crosshair, err := grid.ParseColor(settings.Magnifier.CrosshairColor)
	if err != nil {
		return fmt.Errorf("crosshair color: %w", err)
	}

	board, err := render.NewBoard(mapper, background, gridLine)
	if err != nil {
		return fmt.Errorf("create board: %w", err)
	}

	strategy, err := render.ParseStrategy(settings.Magnifier.Mode)
	if err != nil {
		return fmt.Errorf("magnifier mode: %w", err)
	}
	lens, err := render.NewMagnifier(settings.Magnifier.Radius, settings.Magnifier.Zoom, strategy, crosshair)
	if err != nil {
		return fmt.Errorf("create magnifier: %w", err)
	}

	c.grid = g
	c.api = api
	c.controller = controller
	c.board = board
	c.lens = lens
	// The window is built inside the render loop so that headless and
	// display-free builds never touch Ebiten.
	c.game = nil
	return nil
}

// cleanup releases all session resources.
func (c *canvasImpl) cleanup() {
	c.mu.RLock()
	controller := c.controller
	watcher := c.watcher
	c.mu.RUnlock()

	if watcher != nil {
		watcher.Stop()
	}
	if controller != nil {
		controller.Stop()
	}
}

// Stop gracefully shuts down the session.
func (c *canvasImpl) Stop() error {
	if !c.running.Load() {
		return nil // Already stopped
	}

	// Signal stop
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()

	// Wait for goroutines with timeout
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	timeout := c.opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	select {
	case <-done:
		c.metrics.IncrementStops()
		return nil
	case <-time.After(timeout):
		err := fmt.Errorf("shutdown timeout after %v: some goroutines did not stop", timeout)
		c.notifyError(err)
		return err
	}
}

// Restart performs a stop followed by a start.
func (c *canvasImpl) Restart() error {
	if err := c.Stop(); err != nil {
		wrappedErr := fmt.Errorf("stop failed: %w", err)
		c.notifyError(wrappedErr)
		return wrappedErr
	}

	// Reload configuration from the original source
	if c.configLoader != nil {
		settings, err := c.configLoader()
		if err != nil {
			wrappedErr := fmt.Errorf("settings reload failed: %w", err)
			c.notifyError(wrappedErr)
			return wrappedErr
		}
		c.mu.Lock()
		c.settings = settings
		c.mu.Unlock()
		c.emitEvent(EventConfigReloaded, "Settings reloaded")
	}

	if err := c.Start(); err != nil {
		wrappedErr := fmt.Errorf("start failed: %w", err)
		c.notifyError(wrappedErr)
		return wrappedErr
	}

	c.metrics.IncrementRestarts()
	c.emitEvent(EventRestarted, "Session restarted")
	return nil
}

// ReloadConfig reloads the configuration in-place without stopping.
// The session keeps painting while palette, refresh interval, and
// magnifier mode changes take effect immediately.
func (c *canvasImpl) ReloadConfig() error {
	if !c.running.Load() {
		return fmt.Errorf("canvas instance not running")
	}

	if c.configLoader == nil {
		return fmt.Errorf("no settings loader available")
	}

	newSettings, err := c.configLoader()
	if err != nil {
		wrappedErr := fmt.Errorf("settings reload failed: %w", err)
		c.notifyError(wrappedErr)
		return wrappedErr
	}

	c.mu.Lock()
	oldSettings := c.settings
	c.settings = newSettings
	effective := c.effectiveSettings()
	c.mu.Unlock()

	c.applyLiveSettings(effective, oldSettings)

	c.metrics.IncrementConfigReloads()
	c.emitEvent(EventConfigReloaded, "Settings reloaded in-place")
	return nil
}

// applyLiveSettings pushes the live-tunable values of a reloaded
// configuration into the running session. Session-immutable values
// (dimensions, cell size, server, identity) are only diagnosed: honoring
// them would invalidate the mapper, the surfaces, and the store
// connection mid-session, so they wait for Restart.
func (c *canvasImpl) applyLiveSettings(settings config.Settings, old *config.Settings) {
	c.mu.RLock()
	controller := c.controller
	game := c.game
	lens := c.lens
	c.mu.RUnlock()

	if controller != nil {
		controller.SetRefreshInterval(settings.Sync.RefreshInterval)
	}

	if strategy, err := render.ParseStrategy(settings.Magnifier.Mode); err == nil && lens != nil {
		lens.SetStrategy(strategy)
	}

	if game != nil {
		if err := game.SetPalette(settings.Render.Palette); err != nil {
			c.notifyError(fmt.Errorf("reload palette: %w", err))
		}
	}

	if old != nil {
		if settings.Canvas.Width != old.Canvas.Width ||
			settings.Canvas.Height != old.Canvas.Height ||
			settings.Render.CellSize != old.Render.CellSize ||
			settings.Remote.ServerURL != old.Remote.ServerURL {
			c.slogger.Warn("settings change requires restart",
				"reason", "canvas geometry or store connection changed")
		}
	}
}

// IsRunning returns true if the session is currently active.
func (c *canvasImpl) IsRunning() bool {
	return c.running.Load()
}

// Status returns detailed status information about the instance.
func (c *canvasImpl) Status() Status {
	c.mu.RLock()
	startTime := c.startTime
	configSource := c.configSource
	controller := c.controller
	c.mu.RUnlock()

	cooldown := 0
	if controller != nil {
		cooldown = controller.CooldownRemaining(time.Now())
	}

	return Status{
		Running:           c.running.Load(),
		StartTime:         startTime,
		UpdateCount:       c.updateCount.Load(),
		LastError:         c.getError(),
		ConfigSource:      configSource,
		CooldownRemaining: cooldown,
	}
}

// Paint submits one programmatic paint through the session.
func (c *canvasImpl) Paint(ctx context.Context, x, y int, color string) (PaintReceipt, error) {
	c.mu.RLock()
	controller := c.controller
	c.mu.RUnlock()

	if !c.running.Load() || controller == nil {
		return PaintReceipt{}, fmt.Errorf("canvas instance not running")
	}

	c.metrics.IncrementPaintsAttempted()
	started := time.Now()
	result, err := controller.Paint(ctx, grid.Cell{X: x, Y: y}, color)
	c.metrics.RecordPaintLatency(time.Since(started))

	if err != nil {
		ce := Categorize(err)
		switch ce.Category {
		case ErrorCategoryGrid, ErrorCategoryCooldown, ErrorCategoryRemote:
			c.metrics.IncrementPaintsRejected()
		}
		c.tracker.Record(ce)
		if ce.Severity >= SeverityWarning {
			c.notifyError(err)
		}
		return PaintReceipt{}, err
	}

	c.metrics.IncrementPaintsApplied()
	return PaintReceipt{
		X:               result.Cell.X,
		Y:               result.Cell.Y,
		Color:           result.Color,
		CooldownSeconds: result.CooldownSeconds,
	}, nil
}

// CellColor returns the canonical color of a painted cell.
func (c *canvasImpl) CellColor(x, y int) (string, bool) {
	c.mu.RLock()
	g := c.grid
	c.mu.RUnlock()
	if g == nil {
		return "", false
	}
	return g.Get(grid.Cell{X: x, Y: y})
}

// CanvasSize returns the session's canvas dimensions in cells.
func (c *canvasImpl) CanvasSize() (int, int) {
	c.mu.RLock()
	g := c.grid
	settings := c.settings
	c.mu.RUnlock()
	if g != nil {
		return g.Width(), g.Height()
	}
	return settings.Canvas.Width, settings.Canvas.Height
}

// SetErrorHandler registers a callback for runtime errors.
func (c *canvasImpl) SetErrorHandler(handler ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorHandler = handler
}

// SetEventHandler registers a callback for lifecycle events.
func (c *canvasImpl) SetEventHandler(handler EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventHandler = handler
}

// getError retrieves the last error.
func (c *canvasImpl) getError() error {
	if v := c.lastError.Load(); v != nil {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}

// trackError categorizes an error into the tracker and forwards it to
// the error handler when it is worth the host's attention. Routine
// declines (cooldowns, out-of-bounds clicks) are counted but never
// surfaced.
func (c *canvasImpl) trackError(err error) {
	if err == nil {
		return
	}
	ce := Categorize(err)
	c.tracker.Record(ce)
	if ce.Severity >= SeverityWarning {
		c.notifyError(err)
	}
}

// notifyError stores an error and invokes the error handler if registered.
// This method should be called when runtime errors occur during operation.
func (c *canvasImpl) notifyError(err error) {
	// Store the error for Status() retrieval
	c.lastError.Store(err)

	c.metrics.IncrementErrors()

	c.mu.RLock()
	handler := c.errorHandler
	c.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				// Recover from panics in error handler to prevent crashing
				if r := recover(); r != nil {
					c.slogger.Error("error handler panicked", "panic", r, "original_error", err)
				}
			}()
			handler(err)
		}()
	}

	// Also emit an error event
	c.emitEvent(EventError, err.Error())
}

// emitEvent sends an event to the event handler if configured.
func (c *canvasImpl) emitEvent(eventType EventType, message string) {
	c.metrics.IncrementEventsEmitted()

	c.mu.RLock()
	handler := c.eventHandler
	c.mu.RUnlock()

	if handler != nil {
		go func() {
			defer func() {
				if r := recover(); r != nil {
					// Recover from panics in the handler to avoid crashing the embedding application.
					c.mu.RLock()
					errHandler := c.errorHandler
					c.mu.RUnlock()
					if errHandler != nil {
						if err, ok := r.(error); ok {
							errHandler(fmt.Errorf("panic in event handler: %w", err))
						} else {
							errHandler(fmt.Errorf("panic in event handler: %v", r))
						}
					}
				}
			}()

			handler(Event{
				Type:      eventType,
				Timestamp: time.Now(),
				Message:   message,
			})
		}()
	}
}

// Health returns a health check result for the session.
func (c *canvasImpl) Health() HealthCheck {
	now := time.Now()
	components := make(map[string]ComponentHealth)

	running := c.running.Load()

	var uptime time.Duration
	c.mu.RLock()
	if running && !c.startTime.IsZero() {
		uptime = now.Sub(c.startTime)
	}
	controller := c.controller
	breaker := c.breaker
	refreshInterval := c.sessionSettings.Sync.RefreshInterval
	c.mu.RUnlock()

	// Instance component
	if running {
		components["instance"] = ComponentHealth{
			Status:      HealthOK,
			Message:     "Session is running",
			LastUpdated: now,
		}
	} else {
		components["instance"] = ComponentHealth{
			Status:      HealthUnhealthy,
			Message:     "Session is not running",
			LastUpdated: now,
		}
	}

	// Sync component: the refresh loop plus the age of its last success.
	switch {
	case controller != nil && controller.IsRunning():
		snap := controller.Data()
		health := ComponentHealth{
			Status:      HealthOK,
			Message:     fmt.Sprintf("Sync active, %d refreshes completed", c.updateCount.Load()),
			LastUpdated: snap.LastSync,
		}
		if refreshInterval > 0 && !snap.LastSync.IsZero() && now.Sub(snap.LastSync) > 3*refreshInterval {
			health.Status = HealthDegraded
			health.Message = fmt.Sprintf("Last successful sync %v ago", now.Sub(snap.LastSync).Round(time.Second))
		}
		components["sync"] = health
	case controller != nil:
		components["sync"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     "Sync initialized but not active",
			LastUpdated: now,
		}
	default:
		components["sync"] = ComponentHealth{
			Status:      HealthUnhealthy,
			Message:     "Sync not initialized",
			LastUpdated: now,
		}
	}

	// Store component: reachability as the circuit breaker sees it.
	if breaker != nil {
		switch breaker.State() {
		case CircuitClosed:
			components["store"] = ComponentHealth{
				Status:      HealthOK,
				Message:     "Store reachable",
				LastUpdated: now,
			}
		case CircuitHalfOpen:
			components["store"] = ComponentHealth{
				Status:      HealthDegraded,
				Message:     "Store recovering, probing",
				LastUpdated: now,
			}
		default:
			stats := breaker.Stats()
			components["store"] = ComponentHealth{
				Status:      HealthUnhealthy,
				Message:     fmt.Sprintf("Store unreachable, %d consecutive failures", stats.ConsecutiveErrors),
				LastUpdated: stats.LastFailure,
			}
		}
	}

	// Recent errors
	lastErr := c.getError()
	if lastErr != nil {
		components["errors"] = ComponentHealth{
			Status:      HealthDegraded,
			Message:     lastErr.Error(),
			LastUpdated: now,
		}
	} else {
		components["errors"] = ComponentHealth{
			Status:      HealthOK,
			Message:     "No recent errors",
			LastUpdated: now,
		}
	}

	// Determine overall status
	overallStatus := HealthOK
	var message string

	switch {
	case !running:
		overallStatus = HealthUnhealthy
		message = "Session is not running"
	case breaker != nil && breaker.State() == CircuitOpen:
		overallStatus = HealthDegraded
		message = "Running but the store is unreachable"
	case lastErr != nil:
		overallStatus = HealthDegraded
		message = "Running with recent errors"
	default:
		message = "All components healthy"
	}

	return HealthCheck{
		Status:     overallStatus,
		Timestamp:  now,
		Uptime:     uptime,
		Components: components,
		Message:    message,
	}
}

// Metrics returns the metrics collector for this instance.
func (c *canvasImpl) Metrics() *Metrics {
	return c.metrics
}
