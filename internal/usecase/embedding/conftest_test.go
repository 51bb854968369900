package embedding

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/cache"
	"github.com/hireloop/matchrank/internal/domain"
	"github.com/hireloop/matchrank/internal/ratelimit"
	"github.com/hireloop/matchrank/internal/retry"
)

// --- Mocks ---

type mockEmbedder struct {
	vecs  [][]float32
	errs  []error
	calls int
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	i := m.calls
	m.calls++
	m.texts = append(m.texts, text)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.vecs) {
		return m.vecs[i], nil
	}
	if len(m.vecs) > 0 {
		return m.vecs[len(m.vecs)-1], nil
	}
	return []float32{1, 0, 0}, nil
}

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(context.Context) error { return m.err }

type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	return m.getFn(ctx, key)
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	return m.setFn(ctx, key, value, 0)
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.setFn(ctx, key, value, ttl)
}

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

// newTestProvider wires a provider with fast retries and a fake clock.
// Overrides mutate cfg before construction.
func newTestProvider(t *testing.T, inner *mockEmbedder, overrides ...func(*ProviderConfig)) (*Provider, *fakeClock) {
	t.Helper()

	clk := &fakeClock{now: time.Unix(1700000000, 0)}
	ctrl := retry.NewController()

	cfg := ProviderConfig{
		Inner:      inner,
		Memory:     cache.New(cache.Config[[]float32]{MaxEntries: 100}),
		Retries:    ctrl,
		Identity:   "embedding-provider",
		Dimensions: 3,
		RetryConfig: retry.Config{
			MaxAttempts: 3,
			BaseDelay:   time.Microsecond,
			MaxDelay:    time.Microsecond,
			Multiplier:  2,
			Retryable:   domain.Retryable,
		},
		Logger: zap.NewNop(),
		Now:    clk.Now,
	}
	for _, o := range overrides {
		o(&cfg)
	}
	return NewProvider(cfg), clk
}

func withLimiter(maxRequests int, window time.Duration) func(*ProviderConfig) {
	return func(cfg *ProviderConfig) {
		cfg.Limiter = ratelimit.New(ratelimit.Config{
			Window:      window,
			MaxRequests: maxRequests,
		})
	}
}
