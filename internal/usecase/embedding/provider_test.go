package embedding

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hireloop/matchrank/internal/db"
	"github.com/hireloop/matchrank/internal/domain"
)

func TestEmbed_CachesResult(t *testing.T) {
	inner := &mockEmbedder{vecs: [][]float32{{0.1, 0.2, 0.3}}}
	p, _ := newTestProvider(t, inner)
	ctx := context.Background()

	vec, err := p.Embed(ctx, "golang engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}

	// Second call must be served from the memory cache.
	if _, err := p.Embed(ctx, "golang engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single provider call, got %d", inner.calls)
	}
}

func TestEmbed_NormalizationUnifiesCacheKeys(t *testing.T) {
	inner := &mockEmbedder{vecs: [][]float32{{1, 0, 0}}}
	p, _ := newTestProvider(t, inner)
	ctx := context.Background()

	if _, err := p.Embed(ctx, "  golang   engineer  "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Embed(ctx, "golang engineer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("whitespace variants must share a cache entry, got %d calls", inner.calls)
	}
	if inner.texts[0] != "golang engineer" {
		t.Fatalf("provider must receive normalized text, got %q", inner.texts[0])
	}
}

func TestEmbed_EmptyTextUnavailable(t *testing.T) {
	inner := &mockEmbedder{}
	p, _ := newTestProvider(t, inner)

	_, err := p.Embed(context.Background(), "   \t  ")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if inner.calls != 0 {
		t.Fatal("empty input must not reach the provider")
	}
}

func TestEmbed_TruncatesLongInput(t *testing.T) {
	inner := &mockEmbedder{vecs: [][]float32{{1, 0, 0}}}
	p, _ := newTestProvider(t, inner, func(cfg *ProviderConfig) {
		cfg.MaxInputChars = 10
	})

	if _, err := p.Embed(context.Background(), "aaaa bbbb cccc dddd"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := inner.texts[0]; len(got) > 10 {
		t.Fatalf("input not truncated: %q", got)
	}
}

func TestEmbed_RetriesRateLimit(t *testing.T) {
	inner := &mockEmbedder{
		errs: []error{
			fmt.Errorf("429: %w", domain.ErrRateLimited),
			fmt.Errorf("503: %w", domain.ErrProviderTransient),
		},
		vecs: [][]float32{nil, nil, {0.5, 0.5, 0}},
	}
	p, _ := newTestProvider(t, inner)

	vec, err := p.Embed(context.Background(), "retry me")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", inner.calls)
	}
	if vec[0] != 0.5 {
		t.Fatalf("unexpected vector: %v", vec)
	}
}

func TestEmbed_AuthErrorNotRetried(t *testing.T) {
	inner := &mockEmbedder{
		errs: []error{fmt.Errorf("401: %w", domain.ErrAuthFailed)},
	}
	p, _ := newTestProvider(t, inner)

	_, err := p.Embed(context.Background(), "bad key")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected unavailability, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("auth errors must not be retried, got %d calls", inner.calls)
	}
}

func TestEmbed_HealthGateSuppressesCalls(t *testing.T) {
	inner := &mockEmbedder{
		errs: []error{fmt.Errorf("401: %w", domain.ErrAuthFailed)},
		vecs: [][]float32{nil, {1, 0, 0}},
	}
	p, clk := newTestProvider(t, inner)
	ctx := context.Background()

	// Terminal failure marks the provider unhealthy.
	if _, err := p.Embed(ctx, "first"); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected unavailability, got %v", err)
	}

	// While the verdict is fresh, no provider call is made.
	if _, err := p.Embed(ctx, "second"); !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected gate to report unavailability, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("gate must suppress provider calls, got %d", inner.calls)
	}

	// After the freshness window the provider is probed again.
	clk.Advance(5*time.Minute + time.Second)
	if _, err := p.Embed(ctx, "third"); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("expected one more call after gate expiry, got %d", inner.calls)
	}

	// Success resets the gate.
	if !p.Healthy() {
		t.Fatal("provider should be healthy after a successful call")
	}
}

func TestEmbed_LocalRateLimitUnavailable(t *testing.T) {
	inner := &mockEmbedder{vecs: [][]float32{{1, 0, 0}}}
	p, _ := newTestProvider(t, inner, withLimiter(1, time.Minute))
	ctx := context.Background()

	if _, err := p.Embed(ctx, "first"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := p.Embed(ctx, "second uncached")
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected unavailability on local rate limit, got %v", err)
	}
	if !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected rate limit cause, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("rejected call must not reach the provider, got %d", inner.calls)
	}

	// Cached text is still served while limited.
	if _, err := p.Embed(ctx, "first"); err != nil {
		t.Fatalf("cache must bypass the limiter: %v", err)
	}
}

func TestEmbed_DimensionMismatchAccepted(t *testing.T) {
	inner := &mockEmbedder{vecs: [][]float32{{1, 0, 0, 0, 0}}} // expected dims: 3
	p, _ := newTestProvider(t, inner)

	vec, err := p.Embed(context.Background(), "odd shape")
	if err != nil {
		t.Fatalf("mismatched vector must still be accepted: %v", err)
	}
	if len(vec) != 5 {
		t.Fatalf("vector must be kept as returned, got len %d", len(vec))
	}
}

func TestEmbed_SharedCacheHitSkipsProvider(t *testing.T) {
	inner := &mockEmbedder{}
	stored := vectorToBytes([]float32{0.7, 0.1, 0.2})
	kv := &mockKVStore{
		getFn: func(_ context.Context, _ string) ([]byte, error) { return stored, nil },
		setFn: func(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil },
	}
	p, _ := newTestProvider(t, inner, func(cfg *ProviderConfig) {
		cfg.Shared = kv
	})

	vec, err := p.Embed(context.Background(), "shared hit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vec[0] != 0.7 {
		t.Fatalf("unexpected vector: %v", vec)
	}
	if inner.calls != 0 {
		t.Fatal("shared cache hit must not call the provider")
	}
}

func TestEmbed_SharedCacheMissPopulates(t *testing.T) {
	inner := &mockEmbedder{vecs: [][]float32{{0.3, 0.3, 0.3}}}
	var wrote []byte
	var wroteTTL time.Duration
	kv := &mockKVStore{
		getFn: func(_ context.Context, _ string) ([]byte, error) { return nil, db.ErrKeyNotFound },
		setFn: func(_ context.Context, _ string, value []byte, ttl time.Duration) error {
			wrote = value
			wroteTTL = ttl
			return nil
		},
	}
	p, _ := newTestProvider(t, inner, func(cfg *ProviderConfig) {
		cfg.Shared = kv
		cfg.SharedTTL = time.Hour
	})

	if _, err := p.Embed(context.Background(), "miss"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vec, err := bytesToVector(wrote)
	if err != nil || vec[0] != 0.3 {
		t.Fatalf("shared cache not populated correctly: %v %v", vec, err)
	}
	if wroteTTL != time.Hour {
		t.Fatalf("expected TTL write, got %v", wroteTTL)
	}
}

func TestEmbed_CancellationDoesNotMarkUnhealthy(t *testing.T) {
	inner := &mockEmbedder{
		errs: []error{fmt.Errorf("503: %w", domain.ErrProviderTransient)},
	}
	p, _ := newTestProvider(t, inner, func(cfg *ProviderConfig) {
		cfg.RetryConfig.MaxAttempts = 2
		cfg.RetryConfig.BaseDelay = time.Minute // force a long backoff we will cancel
		cfg.RetryConfig.MaxDelay = time.Minute  // keep the cap from shrinking the backoff
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := p.Embed(ctx, "cancelled")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if !p.Healthy() {
		t.Fatal("caller cancellation must not mark the provider unhealthy")
	}
}

func TestCacheKeyIncludesDimensions(t *testing.T) {
	inner := &mockEmbedder{}
	p3, _ := newTestProvider(t, inner)
	p4, _ := newTestProvider(t, inner, func(cfg *ProviderConfig) { cfg.Dimensions = 4 })

	k3 := p3.cacheKey("same text")
	k4 := p4.cacheKey("same text")
	if k3 == k4 {
		t.Fatal("cache key must change when target dimensionality changes")
	}
}

func TestHealthCheckRecordsVerdict(t *testing.T) {
	inner := &mockEmbedder{}
	checker := &mockChecker{err: errors.New("down")}
	p, _ := newTestProvider(t, inner, func(cfg *ProviderConfig) {
		cfg.Checker = checker
	})

	if err := p.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected probe failure")
	}
	if p.Healthy() {
		t.Fatal("failed probe must gate the provider")
	}

	checker.err = nil
	if err := p.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Healthy() {
		t.Fatal("successful probe must clear the gate")
	}
}

func TestBytesToVectorRejectsGarbage(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for non-multiple-of-4 payload")
	}
	if _, err := bytesToVector(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}
