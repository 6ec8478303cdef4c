package pixelcanvas

import (
	"expvar"
	"sync/atomic"
	"time"
)

// Metrics provides application-level metrics collection for the canvas
// session. It uses Go's expvar package for exposition, which can be
// accessed via the /debug/vars HTTP endpoint when an HTTP server is
// running.
//
// Thread-safe for concurrent use.
//
// Example usage:
//
//	metrics := pixelcanvas.NewMetrics()
//	metrics.IncrementPaintsAttempted()
//	metrics.RecordPaintLatency(15 * time.Millisecond)
//
//	// For HTTP exposition, import expvar's HTTP handler:
//	// import _ "expvar"
//	// This registers /debug/vars automatically.
type Metrics struct {
	// Counters
	starts          atomic.Int64
	stops           atomic.Int64
	restarts        atomic.Int64
	configReloads   atomic.Int64
	paintsAttempted atomic.Int64
	paintsApplied   atomic.Int64
	paintsRejected  atomic.Int64
	refreshes       atomic.Int64
	framesPresented atomic.Int64
	errorsTotal     atomic.Int64
	eventsEmitted   atomic.Int64

	// Latency tracking (stored as nanoseconds)
	paintLatencyNs       atomic.Int64
	paintLatencyCount    atomic.Int64
	refreshLatencyNs     atomic.Int64
	refreshLatencyCount  atomic.Int64

	// Current state gauges
	currentlyRunning atomic.Int32
	activeSessions   atomic.Int32

	// Registration tracking to prevent duplicate expvar registration
	registered atomic.Bool
}

// NewMetrics creates a new Metrics instance.
// Call RegisterExpvar() to expose metrics via the /debug/vars endpoint.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar registers all metrics with Go's expvar package.
// This makes metrics available at /debug/vars when an HTTP server is running.
// Safe to call multiple times; subsequent calls are no-ops.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return // Already registered
	}

	// Counters
	expvar.Publish("pixelcanvas_starts_total", expvar.Func(func() any { return m.starts.Load() }))
	expvar.Publish("pixelcanvas_stops_total", expvar.Func(func() any { return m.stops.Load() }))
	expvar.Publish("pixelcanvas_restarts_total", expvar.Func(func() any { return m.restarts.Load() }))
	expvar.Publish("pixelcanvas_config_reloads_total", expvar.Func(func() any { return m.configReloads.Load() }))
	expvar.Publish("pixelcanvas_paints_attempted_total", expvar.Func(func() any { return m.paintsAttempted.Load() }))
	expvar.Publish("pixelcanvas_paints_applied_total", expvar.Func(func() any { return m.paintsApplied.Load() }))
	expvar.Publish("pixelcanvas_paints_rejected_total", expvar.Func(func() any { return m.paintsRejected.Load() }))
	expvar.Publish("pixelcanvas_refreshes_total", expvar.Func(func() any { return m.refreshes.Load() }))
	expvar.Publish("pixelcanvas_frames_presented_total", expvar.Func(func() any { return m.framesPresented.Load() }))
	expvar.Publish("pixelcanvas_errors_total", expvar.Func(func() any { return m.errorsTotal.Load() }))
	expvar.Publish("pixelcanvas_events_emitted_total", expvar.Func(func() any { return m.eventsEmitted.Load() }))

	// Gauges
	expvar.Publish("pixelcanvas_running", expvar.Func(func() any { return m.currentlyRunning.Load() }))
	expvar.Publish("pixelcanvas_active_sessions", expvar.Func(func() any { return m.activeSessions.Load() }))

	// Latency averages (milliseconds)
	expvar.Publish("pixelcanvas_paint_latency_avg_ms", expvar.Func(func() any {
		count := m.paintLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.paintLatencyNs.Load()) / float64(count) / 1e6
	}))
	expvar.Publish("pixelcanvas_refresh_latency_avg_ms", expvar.Func(func() any {
		count := m.refreshLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.refreshLatencyNs.Load()) / float64(count) / 1e6
	}))
}

// Snapshot returns a point-in-time copy of all metrics.
// Useful for testing or custom metric exposition.
func (m *Metrics) Snapshot() MetricsSnapshot {
	paintCount := m.paintLatencyCount.Load()
	refreshCount := m.refreshLatencyCount.Load()

	return MetricsSnapshot{
		Starts:          m.starts.Load(),
		Stops:           m.stops.Load(),
		Restarts:        m.restarts.Load(),
		ConfigReloads:   m.configReloads.Load(),
		PaintsAttempted: m.paintsAttempted.Load(),
		PaintsApplied:   m.paintsApplied.Load(),
		PaintsRejected:  m.paintsRejected.Load(),
		Refreshes:       m.refreshes.Load(),
		FramesPresented: m.framesPresented.Load(),
		ErrorsTotal:     m.errorsTotal.Load(),
		EventsEmitted:   m.eventsEmitted.Load(),

		Running:        m.currentlyRunning.Load() > 0,
		ActiveSessions: int(m.activeSessions.Load()),

		PaintLatencyAvg:   safeDivide(m.paintLatencyNs.Load(), paintCount),
		RefreshLatencyAvg: safeDivide(m.refreshLatencyNs.Load(), refreshCount),
	}
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	// Counters
	Starts          int64
	Stops           int64
	Restarts        int64
	ConfigReloads   int64
	PaintsAttempted int64
	PaintsApplied   int64
	PaintsRejected  int64
	Refreshes       int64
	FramesPresented int64
	ErrorsTotal     int64
	EventsEmitted   int64

	// Gauges
	Running        bool
	ActiveSessions int

	// Latency averages
	PaintLatencyAvg   time.Duration
	RefreshLatencyAvg time.Duration
}

// Counter increment methods

// IncrementStarts records a start operation.
func (m *Metrics) IncrementStarts() {
	m.starts.Add(1)
}

// IncrementStops records a stop operation.
func (m *Metrics) IncrementStops() {
	m.stops.Add(1)
}

// IncrementRestarts records a restart operation.
func (m *Metrics) IncrementRestarts() {
	m.restarts.Add(1)
}

// IncrementConfigReloads records a settings reload.
func (m *Metrics) IncrementConfigReloads() {
	m.configReloads.Add(1)
}

// IncrementPaintsAttempted records a paint submission entering the session.
func (m *Metrics) IncrementPaintsAttempted() {
	m.paintsAttempted.Add(1)
}

// IncrementPaintsApplied records a paint the store confirmed.
func (m *Metrics) IncrementPaintsApplied() {
	m.paintsApplied.Add(1)
}

// IncrementPaintsRejected records a paint the store declined.
func (m *Metrics) IncrementPaintsRejected() {
	m.paintsRejected.Add(1)
}

// IncrementRefreshes records a completed statistics refresh pass.
func (m *Metrics) IncrementRefreshes() {
	m.refreshes.Add(1)
}

// IncrementFramesPresented records a presented frame.
func (m *Metrics) IncrementFramesPresented() {
	m.framesPresented.Add(1)
}

// IncrementErrors records an error occurrence.
func (m *Metrics) IncrementErrors() {
	m.errorsTotal.Add(1)
}

// IncrementEventsEmitted records an event emission.
func (m *Metrics) IncrementEventsEmitted() {
	m.eventsEmitted.Add(1)
}

// Gauge methods

// SetRunning updates the running state gauge.
func (m *Metrics) SetRunning(running bool) {
	if running {
		m.currentlyRunning.Store(1)
	} else {
		m.currentlyRunning.Store(0)
	}
}

// SetActiveSessions updates the active sessions gauge.
func (m *Metrics) SetActiveSessions(count int) {
	m.activeSessions.Store(int32(count))
}

// Latency recording methods

// RecordPaintLatency records the duration of a paint round trip.
func (m *Metrics) RecordPaintLatency(d time.Duration) {
	m.paintLatencyNs.Add(d.Nanoseconds())
	m.paintLatencyCount.Add(1)
}

// RecordRefreshLatency records the duration of a refresh pass.
func (m *Metrics) RecordRefreshLatency(d time.Duration) {
	m.refreshLatencyNs.Add(d.Nanoseconds())
	m.refreshLatencyCount.Add(1)
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	m.starts.Store(0)
	m.stops.Store(0)
	m.restarts.Store(0)
	m.configReloads.Store(0)
	m.paintsAttempted.Store(0)
	m.paintsApplied.Store(0)
	m.paintsRejected.Store(0)
	m.refreshes.Store(0)
	m.framesPresented.Store(0)
	m.errorsTotal.Store(0)
	m.eventsEmitted.Store(0)

	m.paintLatencyNs.Store(0)
	m.paintLatencyCount.Store(0)
	m.refreshLatencyNs.Store(0)
	m.refreshLatencyCount.Store(0)

	m.currentlyRunning.Store(0)
	m.activeSessions.Store(0)
}

// safeDivide performs safe division, returning 0 for divide by zero.
func safeDivide(total, count int64) time.Duration {
	if count == 0 {
		return 0
	}
	return time.Duration(total / count)
}

// defaultMetrics is a global metrics instance for convenience.
var defaultMetrics = NewMetrics()

// DefaultMetrics returns the global default Metrics instance.
// This can be used when a single application-wide metrics collector is sufficient.
func DefaultMetrics() *Metrics {
	return defaultMetrics
}
