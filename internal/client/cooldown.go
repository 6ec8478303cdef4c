package client

import (
	"sync"
	"time"
)

// CooldownGate meters paint attempts between confirmations. It stores
// only the expiry instant and answers every query from the caller's
// "now", so a stalled UI tick or a paused process can never leave the
// gate stuck: the next query self-corrects.
//
// The zero value is an open gate. Safe for concurrent use; the input
// handler polls Ready while paint completions call Start.
type CooldownGate struct {
	mu     sync.Mutex
	expiry time.Time
	armed  bool
}

// Start arms the gate to stay closed for the given number of seconds
// from now. A non-positive duration clears the gate instead. Restarting
// an armed gate replaces the previous deadline.
func (g *CooldownGate) Start(seconds int, now time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if seconds <= 0 {
		g.armed = false
		g.expiry = time.Time{}
		return
	}
	g.armed = true
	g.expiry = now.Add(time.Duration(seconds) * time.Second)
}

// Ready reports whether a paint attempt may proceed. The gate is closed
// on [start, expiry) and open from the expiry instant onward.
func (g *CooldownGate) Ready(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.armed || !now.Before(g.expiry)
}

// Remaining returns the time left until the gate opens, zero when it
// already is open.
func (g *CooldownGate) Remaining(now time.Time) time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.armed {
		return 0
	}
	remaining := g.expiry.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingSeconds returns Remaining rounded up to whole seconds, for
// countdown display. A closed gate never reads 0: it reports 1 until
// the expiry instant.
func (g *CooldownGate) RemainingSeconds(now time.Time) int {
	remaining := g.Remaining(now)
	if remaining <= 0 {
		return 0
	}
	secs := int(remaining / time.Second)
	if remaining%time.Second != 0 {
		secs++
	}
	return secs
}

// Deadline returns the instant the gate opens and whether it is armed.
// An expired deadline still reports armed until Start or Clear runs
// again; callers decide readiness through Ready.
func (g *CooldownGate) Deadline() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expiry, g.armed
}

// Clear opens the gate immediately, discarding any pending deadline.
func (g *CooldownGate) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = false
	g.expiry = time.Time{}
}
