package pixelcanvas

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/go-pixelcanvas/internal/client"
)

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrorCategoryUnknown, "unknown"},
		{ErrorCategoryGrid, "grid"},
		{ErrorCategoryRender, "render"},
		{ErrorCategoryMagnifier, "magnifier"},
		{ErrorCategoryCooldown, "cooldown"},
		{ErrorCategoryRemote, "remote"},
		{ErrorCategoryTransport, "transport"},
		{ErrorCategoryProtocol, "protocol"},
		{ErrorCategoryConfig, "config"},
		{ErrorCategoryLifecycle, "lifecycle"},
		{ErrorCategory(99), "unknown"}, // Invalid category
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.category.String(); got != tt.want {
				t.Errorf("ErrorCategory.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorSeverity_String(t *testing.T) {
	tests := []struct {
		severity ErrorSeverity
		want     string
	}{
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{ErrorSeverity(99), "unknown"}, // Invalid severity
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("ErrorSeverity.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCategorizedError(t *testing.T) {
	t.Run("Error method", func(t *testing.T) {
		err := NewCategorizedError(
			errors.New("test error"),
			ErrorCategoryConfig,
			SeverityError,
		)

		got := err.Error()
		if got != "[error/config] test error" {
			t.Errorf("CategorizedError.Error() = %v, want [error/config] test error", got)
		}
	})

	t.Run("Error method with nil error", func(t *testing.T) {
		err := &CategorizedError{
			Category: ErrorCategoryRender,
			Severity: SeverityWarning,
		}

		got := err.Error()
		if got != "[warning/render] (no error)" {
			t.Errorf("CategorizedError.Error() = %v, want [warning/render] (no error)", got)
		}
	})

	t.Run("Unwrap returns underlying error", func(t *testing.T) {
		underlying := errors.New("underlying")
		err := NewCategorizedError(underlying, ErrorCategoryTransport, SeverityCritical)

		if !errors.Is(err, underlying) {
			t.Error("errors.Is failed to match underlying error")
		}
	})

	t.Run("WithContext adds metadata", func(t *testing.T) {
		err := NewCategorizedError(errors.New("test"), ErrorCategoryRemote, SeverityError).
			WithContext("server", "paint.example.com").
			WithContext("user", "alice")

		if err.Context["server"] != "paint.example.com" {
			t.Errorf("Context[server] = %v, want paint.example.com", err.Context["server"])
		}
		if err.Context["user"] != "alice" {
			t.Errorf("Context[user] = %v, want alice", err.Context["user"])
		}
	})

	t.Run("WithContext handles nil context", func(t *testing.T) {
		err := &CategorizedError{}
		err = err.WithContext("key", "value")

		if err.Context["key"] != "value" {
			t.Errorf("Context[key] = %v, want value", err.Context["key"])
		}
	})
}

func TestCategorize(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		if got := Categorize(nil); got != nil {
			t.Errorf("Categorize(nil) = %v, want nil", got)
		}
	})

	t.Run("passes through categorized errors", func(t *testing.T) {
		original := NewCategorizedError(errors.New("already tagged"), ErrorCategoryLifecycle, SeverityCritical)
		wrapped := fmt.Errorf("outer: %w", original)

		got := Categorize(wrapped)
		if got != original {
			t.Errorf("Categorize() = %v, want the original categorized error", got)
		}
	})

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		severity ErrorSeverity
	}{
		{
			name:     "out of bounds",
			err:      fmt.Errorf("paint (99,99): %w", ErrOutOfBounds),
			category: ErrorCategoryGrid,
			severity: SeverityInfo,
		},
		{
			name:     "invalid color",
			err:      fmt.Errorf("%w: bad hex", ErrInvalidColor),
			category: ErrorCategoryGrid,
			severity: SeverityInfo,
		},
		{
			name:     "local cooldown",
			err:      fmt.Errorf("%w: 12s remaining", ErrCooldownActive),
			category: ErrorCategoryCooldown,
			severity: SeverityInfo,
		},
		{
			name:     "server cooldown",
			err:      &client.RateLimitError{Message: "wait", Remaining: 25},
			category: ErrorCategoryCooldown,
			severity: SeverityInfo,
		},
		{
			name:     "store rejection",
			err:      &client.RejectionError{Code: client.CodeInvalidCoordinates, Message: "off canvas"},
			category: ErrorCategoryRemote,
			severity: SeverityWarning,
		},
		{
			name:     "not found",
			err:      fmt.Errorf("user stats: %w", client.ErrNotFound),
			category: ErrorCategoryRemote,
			severity: SeverityInfo,
		},
		{
			name:     "malformed response",
			err:      &client.MalformedResponseError{Endpoint: "/api/canvas/state", Reason: "missing width"},
			category: ErrorCategoryProtocol,
			severity: SeverityError,
		},
		{
			name:     "circuit open",
			err:      fmt.Errorf("refresh: %w", ErrCircuitOpen),
			category: ErrorCategoryTransport,
			severity: SeverityWarning,
		},
		{
			name:     "transport failure",
			err:      &client.TransportError{Op: "GET /api/canvas/info", Err: errors.New("refused")},
			category: ErrorCategoryTransport,
			severity: SeverityWarning,
		},
		{
			name:     "unrecognized",
			err:      errors.New("something else"),
			category: ErrorCategoryUnknown,
			severity: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.err)
			if got == nil {
				t.Fatal("Categorize() = nil, want categorized error")
			}
			if got.Category != tt.category {
				t.Errorf("Category = %v, want %v", got.Category, tt.category)
			}
			if got.Severity != tt.severity {
				t.Errorf("Severity = %v, want %v", got.Severity, tt.severity)
			}
			if !errors.Is(got, tt.err) && got.Err != tt.err {
				t.Error("categorized error lost the original")
			}
		})
	}
}

func TestDeepCopyContext(t *testing.T) {
	t.Run("returns nil for nil input", func(t *testing.T) {
		result := deepCopyContext(nil)
		if result != nil {
			t.Errorf("deepCopyContext(nil) = %v, want nil", result)
		}
	})

	t.Run("creates independent copy", func(t *testing.T) {
		original := map[string]string{"key": "value"}
		copied := deepCopyContext(original)

		// Modify original
		original["key"] = "modified"
		original["new"] = "added"

		// Copied should be unaffected
		if copied["key"] != "value" {
			t.Errorf("copied[key] = %v, want value", copied["key"])
		}
		if _, exists := copied["new"]; exists {
			t.Error("copied should not have 'new' key")
		}
	})
}

func TestCategorizedErrorDeepCopy(t *testing.T) {
	t.Run("creates independent copy of Context", func(t *testing.T) {
		original := NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError).
			WithContext("server", "original")

		copied := original.deepCopy()

		// Modify original
		original.Context["server"] = "modified"
		original.Context["new"] = "added"

		// Copied should be unaffected
		if copied.Context["server"] != "original" {
			t.Errorf("copied.Context[server] = %v, want original", copied.Context["server"])
		}
		if _, exists := copied.Context["new"]; exists {
			t.Error("copied.Context should not have 'new' key")
		}
	})
}

func TestErrorTracker_DeepCopyOnRecord(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	err := NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError).
		WithContext("key", "original")

	tracker.Record(err)

	// Modify original after recording
	err.Context["key"] = "modified"

	// Tracker should have independent copy
	recent := tracker.RecentErrors(1)
	if len(recent) != 1 {
		t.Fatalf("Expected 1 recent error, got %d", len(recent))
	}
	if recent[0].Context["key"] != "original" {
		t.Errorf("Tracker error context[key] = %v, want original", recent[0].Context["key"])
	}
}

func TestErrorTracker_DeepCopyOnRecentErrors(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError).
		WithContext("key", "original"))

	// Get recent errors
	recent1 := tracker.RecentErrors(1)
	recent1[0].Context["key"] = "modified"

	// Get recent errors again
	recent2 := tracker.RecentErrors(1)

	// Second retrieval should have original value
	if recent2[0].Context["key"] != "original" {
		t.Errorf("recent2[0].Context[key] = %v, want original", recent2[0].Context["key"])
	}
}

func TestNewErrorTracker(t *testing.T) {
	t.Run("default configuration", func(t *testing.T) {
		cfg := DefaultErrorTrackerConfig()
		tracker := NewErrorTracker(cfg)

		if tracker.maxErrors != 1000 {
			t.Errorf("maxErrors = %d, want 1000", tracker.maxErrors)
		}
		if tracker.retentionTime != time.Hour {
			t.Errorf("retentionTime = %v, want 1h", tracker.retentionTime)
		}
		if tracker.alertCooldown != 5*time.Minute {
			t.Errorf("alertCooldown = %v, want 5m", tracker.alertCooldown)
		}
	})

	t.Run("zero values use defaults", func(t *testing.T) {
		tracker := NewErrorTracker(ErrorTrackerConfig{})

		if tracker.maxErrors != 1000 {
			t.Errorf("maxErrors = %d, want 1000", tracker.maxErrors)
		}
	})
}

func TestErrorTracker_Record(t *testing.T) {
	t.Run("records error", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())
		err := NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError)

		tracker.Record(err)

		stats := tracker.Stats()
		if stats.TotalErrors != 1 {
			t.Errorf("TotalErrors = %d, want 1", stats.TotalErrors)
		}
		if stats.ErrorsByCategory[ErrorCategoryConfig] != 1 {
			t.Errorf("ErrorsByCategory[Config] = %d, want 1", stats.ErrorsByCategory[ErrorCategoryConfig])
		}
	})

	t.Run("ignores nil error", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())
		tracker.Record(nil)

		stats := tracker.Stats()
		if stats.TotalErrors != 0 {
			t.Errorf("TotalErrors = %d, want 0", stats.TotalErrors)
		}
	})

	t.Run("updates category counters", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		tracker.Record(NewCategorizedError(errors.New("1"), ErrorCategoryTransport, SeverityError))
		tracker.Record(NewCategorizedError(errors.New("2"), ErrorCategoryTransport, SeverityError))
		tracker.Record(NewCategorizedError(errors.New("3"), ErrorCategoryConfig, SeverityError))

		stats := tracker.Stats()
		var transportCount, configCount int64
		for _, cc := range stats.TotalByCategory {
			if cc.Category == ErrorCategoryTransport {
				transportCount = cc.Count
			}
			if cc.Category == ErrorCategoryConfig {
				configCount = cc.Count
			}
		}

		if transportCount != 2 {
			t.Errorf("Transport count = %d, want 2", transportCount)
		}
		if configCount != 1 {
			t.Errorf("Config count = %d, want 1", configCount)
		}
	})

	t.Run("prunes when over capacity", func(t *testing.T) {
		cfg := DefaultErrorTrackerConfig()
		cfg.MaxErrors = 5
		tracker := NewErrorTracker(cfg)

		for i := 0; i < 10; i++ {
			tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
		}

		stats := tracker.Stats()
		if stats.TotalErrors > 5 {
			t.Errorf("TotalErrors = %d, want <= 5", stats.TotalErrors)
		}
	})
}

func TestErrorTracker_AlertConditions(t *testing.T) {
	t.Run("triggers alert when threshold met", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		var alertTriggered atomic.Bool
		var alertCount atomic.Int32

		tracker.AddCondition(AlertCondition{
			Category:    ErrorCategoryConfig,
			MinSeverity: SeverityError,
			Threshold:   3,
			Window:      time.Minute,
		})

		tracker.SetAlertHandler(func(cond AlertCondition, count int, recent []CategorizedError) {
			alertTriggered.Store(true)
			alertCount.Store(int32(count))
		})

		// Record errors below threshold
		tracker.Record(NewCategorizedError(errors.New("1"), ErrorCategoryConfig, SeverityError))
		tracker.Record(NewCategorizedError(errors.New("2"), ErrorCategoryConfig, SeverityError))

		time.Sleep(10 * time.Millisecond)
		if alertTriggered.Load() {
			t.Error("Alert triggered before threshold")
		}

		// Record error to meet threshold
		tracker.Record(NewCategorizedError(errors.New("3"), ErrorCategoryConfig, SeverityError))

		time.Sleep(50 * time.Millisecond) // Wait for async handler
		if !alertTriggered.Load() {
			t.Error("Alert not triggered after threshold met")
		}
		if alertCount.Load() != 3 {
			t.Errorf("Alert count = %d, want 3", alertCount.Load())
		}
	})

	t.Run("respects category filter", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		var alertTriggered atomic.Bool

		tracker.AddCondition(AlertCondition{
			Category:    ErrorCategoryTransport,
			MinSeverity: SeverityError,
			Threshold:   2,
			Window:      time.Minute,
		})

		tracker.SetAlertHandler(func(cond AlertCondition, count int, recent []CategorizedError) {
			alertTriggered.Store(true)
		})

		// Record non-matching category
		tracker.Record(NewCategorizedError(errors.New("1"), ErrorCategoryConfig, SeverityError))
		tracker.Record(NewCategorizedError(errors.New("2"), ErrorCategoryConfig, SeverityError))
		tracker.Record(NewCategorizedError(errors.New("3"), ErrorCategoryConfig, SeverityError))

		time.Sleep(50 * time.Millisecond)
		if alertTriggered.Load() {
			t.Error("Alert triggered for non-matching category")
		}
	})

	t.Run("respects severity filter", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		var alertTriggered atomic.Bool

		tracker.AddCondition(AlertCondition{
			Category:    ErrorCategoryUnknown, // Any category
			MinSeverity: SeverityCritical,
			Threshold:   2,
			Window:      time.Minute,
		})

		tracker.SetAlertHandler(func(cond AlertCondition, count int, recent []CategorizedError) {
			alertTriggered.Store(true)
		})

		// Record lower severity errors
		tracker.Record(NewCategorizedError(errors.New("1"), ErrorCategoryConfig, SeverityWarning))
		tracker.Record(NewCategorizedError(errors.New("2"), ErrorCategoryConfig, SeverityError))
		tracker.Record(NewCategorizedError(errors.New("3"), ErrorCategoryConfig, SeverityError))

		time.Sleep(50 * time.Millisecond)
		if alertTriggered.Load() {
			t.Error("Alert triggered for lower severity errors")
		}
	})

	t.Run("respects cooldown", func(t *testing.T) {
		cfg := DefaultErrorTrackerConfig()
		cfg.AlertCooldown = 100 * time.Millisecond
		tracker := NewErrorTracker(cfg)

		var alertCount atomic.Int32

		tracker.AddCondition(AlertCondition{
			Category:    ErrorCategoryUnknown,
			MinSeverity: SeverityError,
			Threshold:   1,
			Window:      time.Minute,
		})

		tracker.SetAlertHandler(func(cond AlertCondition, count int, recent []CategorizedError) {
			alertCount.Add(1)
		})

		// Trigger multiple alerts quickly
		for i := 0; i < 5; i++ {
			tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
		}

		time.Sleep(50 * time.Millisecond)
		if alertCount.Load() > 1 {
			t.Errorf("Alert count = %d, want 1 (cooldown should prevent more)", alertCount.Load())
		}
	})
}

func TestErrorTracker_ErrorRate(t *testing.T) {
	t.Run("calculates rate correctly", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		// Record 10 errors
		for i := 0; i < 10; i++ {
			tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
		}

		rate := tracker.ErrorRate(time.Second)
		// Rate should be approximately 10 errors per second (but >= 10 since window is tiny)
		if rate < 10 {
			t.Errorf("ErrorRate = %f, want >= 10", rate)
		}
	})

	t.Run("returns zero for zero window", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())
		tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))

		rate := tracker.ErrorRate(0)
		if rate != 0 {
			t.Errorf("ErrorRate(0) = %f, want 0", rate)
		}
	})
}

func TestErrorTracker_ErrorRateByCategory(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	// Record mixed category errors
	for i := 0; i < 5; i++ {
		tracker.Record(NewCategorizedError(errors.New("transport"), ErrorCategoryTransport, SeverityError))
	}
	for i := 0; i < 3; i++ {
		tracker.Record(NewCategorizedError(errors.New("protocol"), ErrorCategoryProtocol, SeverityError))
	}

	transportRate := tracker.ErrorRateByCategory(ErrorCategoryTransport, time.Second)
	protocolRate := tracker.ErrorRateByCategory(ErrorCategoryProtocol, time.Second)

	if transportRate < 5 {
		t.Errorf("Transport rate = %f, want >= 5", transportRate)
	}
	if protocolRate < 3 {
		t.Errorf("Protocol rate = %f, want >= 3", protocolRate)
	}
}

func TestErrorTracker_RecentErrors(t *testing.T) {
	t.Run("returns recent errors", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		for i := 0; i < 10; i++ {
			tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
		}

		recent := tracker.RecentErrors(5)
		if len(recent) != 5 {
			t.Errorf("len(recent) = %d, want 5", len(recent))
		}
	})

	t.Run("handles empty tracker", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		recent := tracker.RecentErrors(5)
		if recent != nil {
			t.Errorf("RecentErrors on empty tracker = %v, want nil", recent)
		}
	})

	t.Run("handles zero limit", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())
		tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))

		recent := tracker.RecentErrors(0)
		if recent != nil {
			t.Errorf("RecentErrors(0) = %v, want nil", recent)
		}
	})

	t.Run("returns all when limit exceeds count", func(t *testing.T) {
		tracker := NewErrorTracker(DefaultErrorTrackerConfig())

		for i := 0; i < 3; i++ {
			tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
		}

		recent := tracker.RecentErrors(10)
		if len(recent) != 3 {
			t.Errorf("len(recent) = %d, want 3", len(recent))
		}
	})
}

func TestErrorTracker_Clear(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	for i := 0; i < 5; i++ {
		tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
	}

	tracker.Clear()

	stats := tracker.Stats()
	if stats.TotalErrors != 0 {
		t.Errorf("TotalErrors after Clear = %d, want 0", stats.TotalErrors)
	}

	// Lifetime counters should NOT be reset by Clear
	var totalLifetime int64
	for _, cc := range stats.TotalByCategory {
		totalLifetime += cc.Count
	}
	if totalLifetime != 5 {
		t.Errorf("Lifetime total after Clear = %d, want 5 (lifetime counters should be preserved)", totalLifetime)
	}
}

func TestErrorTracker_ClearAll(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	for i := 0; i < 5; i++ {
		tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
	}

	tracker.ClearAll()

	stats := tracker.Stats()
	if stats.TotalErrors != 0 {
		t.Errorf("TotalErrors after ClearAll = %d, want 0", stats.TotalErrors)
	}

	// Lifetime counters SHOULD be reset by ClearAll
	var totalLifetime int64
	for _, cc := range stats.TotalByCategory {
		totalLifetime += cc.Count
	}
	if totalLifetime != 0 {
		t.Errorf("Lifetime total after ClearAll = %d, want 0", totalLifetime)
	}
}

func TestErrorTracker_ConcurrentAccess(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	var wg sync.WaitGroup
	const goroutines = 10
	const errorsPerGoroutine = 100

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < errorsPerGoroutine; j++ {
				tracker.Record(NewCategorizedError(errors.New("test"), ErrorCategoryConfig, SeverityError))
				_ = tracker.Stats()
				_ = tracker.ErrorRate(time.Second)
				_ = tracker.RecentErrors(5)
			}
		}()
	}

	wg.Wait()

	stats := tracker.Stats()
	// Some errors may be pruned, but counters should be accurate
	var totalCount int64
	for _, cc := range stats.TotalByCategory {
		totalCount += cc.Count
	}

	expected := int64(goroutines * errorsPerGoroutine)
	if totalCount != expected {
		t.Errorf("Total count = %d, want %d", totalCount, expected)
	}
}

func TestDefaultErrorTracker(t *testing.T) {
	// DefaultErrorTracker should return the same instance
	t1 := DefaultErrorTracker()
	t2 := DefaultErrorTracker()

	if t1 != t2 {
		t.Error("DefaultErrorTracker returned different instances")
	}
}

func TestErrorStats(t *testing.T) {
	tracker := NewErrorTracker(DefaultErrorTrackerConfig())

	tracker.Record(NewCategorizedError(errors.New("1"), ErrorCategoryTransport, SeverityError))
	tracker.Record(NewCategorizedError(errors.New("2"), ErrorCategoryTransport, SeverityCritical))
	tracker.Record(NewCategorizedError(errors.New("3"), ErrorCategoryConfig, SeverityWarning))

	stats := tracker.Stats()

	if stats.TotalErrors != 3 {
		t.Errorf("TotalErrors = %d, want 3", stats.TotalErrors)
	}

	if stats.ErrorsByCategory[ErrorCategoryTransport] != 2 {
		t.Errorf("ErrorsByCategory[Transport] = %d, want 2", stats.ErrorsByCategory[ErrorCategoryTransport])
	}
	if stats.ErrorsByCategory[ErrorCategoryConfig] != 1 {
		t.Errorf("ErrorsByCategory[Config] = %d, want 1", stats.ErrorsByCategory[ErrorCategoryConfig])
	}

	if stats.ErrorsBySeverity[SeverityError] != 1 {
		t.Errorf("ErrorsBySeverity[Error] = %d, want 1", stats.ErrorsBySeverity[SeverityError])
	}
	if stats.ErrorsBySeverity[SeverityCritical] != 1 {
		t.Errorf("ErrorsBySeverity[Critical] = %d, want 1", stats.ErrorsBySeverity[SeverityCritical])
	}
	if stats.ErrorsBySeverity[SeverityWarning] != 1 {
		t.Errorf("ErrorsBySeverity[Warning] = %d, want 1", stats.ErrorsBySeverity[SeverityWarning])
	}
}
