// Package ratelimit provides sliding-window admission control per caller
// identity. State is process-local; clearing it only loosens limits briefly.
package ratelimit

import (
	"math/rand"
	"sync"
	"time"
)

// cleanupProbability is the chance a TryAcquire sweeps idle identities.
const cleanupProbability = 0.01

// Config holds the window parameters.
type Config struct {
	Window      time.Duration
	MaxRequests int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Limiter admits at most MaxRequests events per identity within a trailing
// window. Safe for concurrent use; guarded by its own lock only.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	windows map[string][]time.Time
}

// New creates a limiter.
func New(cfg Config) *Limiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Limiter{
		cfg:     cfg,
		windows: make(map[string][]time.Time),
	}
}

// TryAcquire records one event for identity if it is under the limit.
// A rejection leaves the window untouched, so a refused caller does not
// push back its own recovery.
func (l *Limiter) TryAcquire(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.cfg.Now()
	window := l.prune(l.windows[identity], now)

	if len(window) >= l.cfg.MaxRequests {
		l.windows[identity] = window
		return false
	}

	l.windows[identity] = append(window, now)

	if rand.Float64() < cleanupProbability {
		l.cleanup(now)
	}
	return true
}

// InWindow returns the number of admitted events currently inside the window.
func (l *Limiter) InWindow(identity string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prune(l.windows[identity], l.cfg.Now()))
}

// prune drops timestamps older than the window start. Timestamps are
// appended in order, so the suffix after the cutoff is the live window.
func (l *Limiter) prune(window []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-l.cfg.Window)
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	return window[i:]
}

// cleanup removes identities with no in-window events, bounding memory for
// callers that go quiet. Caller holds the lock.
func (l *Limiter) cleanup(now time.Time) {
	for id, window := range l.windows {
		if len(l.prune(window, now)) == 0 {
			delete(l.windows, id)
		}
	}
}
