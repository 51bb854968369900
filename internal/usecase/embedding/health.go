package embedding

import (
	"sync"
	"time"
)

// healthState gates provider calls after a terminal failure. An unhealthy
// verdict suppresses calls until it goes stale, so a known-down provider is
// not hammered by every ranking request.
type healthState struct {
	mu        sync.Mutex
	healthy   bool
	known     bool
	checkedAt time.Time
	freshness time.Duration
	now       func() time.Time
}

func newHealthState(freshness time.Duration, now func() time.Time) *healthState {
	return &healthState{freshness: freshness, now: now}
}

// allow reports whether a provider call may proceed. Unknown or stale
// verdicts allow the attempt; only a fresh unhealthy verdict blocks.
func (h *healthState) allow() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.known || h.healthy {
		return true
	}
	return h.now().Sub(h.checkedAt) >= h.freshness
}

func (h *healthState) markHealthy() { h.record(true) }

func (h *healthState) markUnhealthy() { h.record(false) }

func (h *healthState) record(healthy bool) {
	h.mu.Lock()
	h.healthy = healthy
	h.known = true
	h.checkedAt = h.now()
	h.mu.Unlock()
}
