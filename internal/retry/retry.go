// Package retry executes operations with exponential backoff and exposes
// per-operation retry state to observers. It knows nothing about any
// particular API shape; retryability is decided by a caller-supplied predicate.
package retry

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hireloop/matchrank/internal/metrics"
)

// Config controls the backoff schedule for one operation.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	// Retryable decides whether a failed attempt is worth repeating.
	// When nil, every error is treated as permanent.
	Retryable func(error) bool
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 1
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 10 * time.Second
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2
	}
	return c
}

// State is an observer snapshot of an in-flight operation.
type State struct {
	OperationID string
	Attempt     int
	LastErr     error
	Retrying    bool
}

// Controller tracks in-flight operation state by operation id. Safe for
// concurrent use; it holds its own lock, independent of any cache or limiter.
type Controller struct {
	mu     sync.Mutex
	states map[string]*State
	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewController creates an empty controller.
func NewController() *Controller {
	return &Controller{
		states: make(map[string]*State),
		sleep:  sleepCtx,
	}
}

// State returns the current snapshot for an operation id.
func (c *Controller) State(id string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.states[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// IsRetrying reports whether an operation with the given id is in flight.
func (c *Controller) IsRetrying(id string) bool {
	_, ok := c.State(id)
	return ok
}

// begin registers a fresh state object for id and returns it as the owner
// token. A concurrent call with the same id replaces the visible snapshot
// but each invocation keeps mutating only its own object.
func (c *Controller) begin(id string) *State {
	st := &State{OperationID: id, Attempt: 1, Retrying: true}
	c.mu.Lock()
	c.states[id] = st
	c.mu.Unlock()
	return st
}

func (c *Controller) update(st *State, attempt int, err error) {
	c.mu.Lock()
	st.Attempt = attempt
	st.LastErr = err
	c.mu.Unlock()
}

// finish removes the registry entry on terminal success or failure, but only
// if this invocation still owns it.
func (c *Controller) finish(id string, owner *State) {
	c.mu.Lock()
	if c.states[id] == owner {
		delete(c.states, id)
	}
	c.mu.Unlock()
}

// Do runs fn with the controller's bookkeeping and the given backoff config.
// Attempts are numbered from 1; before attempt k > 1 it sleeps
// min(BaseDelay*Multiplier^(k-2), MaxDelay). A false predicate or exhausted
// attempts propagate the last error; context cancellation aborts the wait.
func Do[T any](ctx context.Context, c *Controller, id string, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	st := c.begin(id)
	defer c.finish(id, st)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := c.sleep(ctx, backoffDelay(cfg, attempt)); err != nil {
				return zero, err
			}
		}

		result, err := fn(ctx)
		if err == nil {
			metrics.RetryAttemptsTotal.WithLabelValues(opClass(id), "success").Inc()
			return result, nil
		}

		lastErr = err
		c.update(st, attempt, err)

		if cfg.Retryable == nil || !cfg.Retryable(err) {
			metrics.RetryAttemptsTotal.WithLabelValues(opClass(id), "exhausted").Inc()
			return zero, err
		}
		metrics.RetryAttemptsTotal.WithLabelValues(opClass(id), "retried").Inc()
	}
	metrics.RetryAttemptsTotal.WithLabelValues(opClass(id), "exhausted").Inc()
	return zero, lastErr
}

// opClass strips the per-call suffix from an operation id ("embed:a1b2" ->
// "embed") so the metric cardinality stays bounded.
func opClass(id string) string {
	class, _, ok := strings.Cut(id, ":")
	if !ok {
		return id
	}
	return class
}

// backoffDelay returns the sleep before the given attempt (attempt >= 2).
func backoffDelay(cfg Config, attempt int) time.Duration {
	d := cfg.BaseDelay
	for i := 0; i < attempt-2; i++ {
		d = time.Duration(float64(d) * cfg.Multiplier)
		if d >= cfg.MaxDelay {
			return cfg.MaxDelay
		}
	}
	if d > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
