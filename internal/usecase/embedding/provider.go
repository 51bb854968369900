// Package embedding wraps the raw provider transport with normalization,
// caching, health gating, local rate limiting, and retries. Every failure
// surfaces as domain.ErrEmbeddingUnavailable so ranking can degrade instead
// of erroring.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/cache"
	"github.com/hireloop/matchrank/internal/db"
	"github.com/hireloop/matchrank/internal/domain"
	"github.com/hireloop/matchrank/internal/metrics"
	"github.com/hireloop/matchrank/internal/ratelimit"
	"github.com/hireloop/matchrank/internal/retry"
)

const sharedCacheKeyPrefix = "matchrank:emb_cache:"

// Provider implements domain.Embedder over a raw transport embedder.
type Provider struct {
	inner    domain.Embedder
	checker  domain.HealthChecker
	memory   *cache.Cache[[]float32]
	shared   db.KVStore // optional L2, nil when not configured
	limiter  *ratelimit.Limiter
	retries  *retry.Controller
	retryCfg retry.Config

	identity      string
	dimensions    int
	maxInputChars int
	sharedTTL     time.Duration
	health        *healthState
	logger        *zap.Logger
}

// ProviderConfig holds adapter settings.
type ProviderConfig struct {
	Inner         domain.Embedder
	Checker       domain.HealthChecker
	Memory        *cache.Cache[[]float32]
	Shared        db.KVStore
	SharedTTL     time.Duration
	Limiter       *ratelimit.Limiter
	Retries       *retry.Controller
	RetryConfig   retry.Config
	Identity      string
	Dimensions    int
	MaxInputChars int
	// HealthFreshness is how long an unhealthy verdict suppresses provider
	// calls. Zero means the 5 minute default.
	HealthFreshness time.Duration
	Logger          *zap.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewProvider creates the embedding adapter.
func NewProvider(cfg ProviderConfig) *Provider {
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 8000
	}
	if cfg.HealthFreshness <= 0 {
		cfg.HealthFreshness = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RetryConfig.Retryable == nil {
		cfg.RetryConfig.Retryable = domain.Retryable
	}
	return &Provider{
		inner:         cfg.Inner,
		checker:       cfg.Checker,
		memory:        cfg.Memory,
		shared:        cfg.Shared,
		sharedTTL:     cfg.SharedTTL,
		limiter:       cfg.Limiter,
		retries:       cfg.Retries,
		retryCfg:      cfg.RetryConfig,
		identity:      cfg.Identity,
		dimensions:    cfg.Dimensions,
		maxInputChars: cfg.MaxInputChars,
		health:        newHealthState(cfg.HealthFreshness, cfg.Now),
		logger:        cfg.Logger,
	}
}

// Embed returns the embedding for text, from cache when possible. The only
// error it returns wraps domain.ErrEmbeddingUnavailable (or the caller's
// context error); transient provider trouble never escapes as a failure.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	normalized := p.normalize(text)
	if normalized == "" {
		// Absence of input is not a provider failure; callers must still
		// treat the result as "no vector".
		return nil, fmt.Errorf("empty text after normalization: %w", domain.ErrEmbeddingUnavailable)
	}

	key := p.cacheKey(normalized)

	if vec, ok := p.memory.Get(key); ok {
		metrics.EmbeddingCacheTotal.WithLabelValues("memory", "hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("memory", "miss").Inc()

	if vec, ok := p.fromShared(ctx, key); ok {
		p.memory.Set(key, vec)
		return vec, nil
	}

	if !p.health.allow() {
		return nil, fmt.Errorf("provider marked unhealthy: %w", domain.ErrEmbeddingUnavailable)
	}

	if p.limiter != nil && !p.limiter.TryAcquire(p.identity) {
		metrics.RateLimitRejectionsTotal.WithLabelValues(p.identity).Inc()
		return nil, fmt.Errorf("local rate limit: %w: %w", domain.ErrRateLimited, domain.ErrEmbeddingUnavailable)
	}

	opID := "embed:" + key[len(sharedCacheKeyPrefix):len(sharedCacheKeyPrefix)+12]
	vec, err := retry.Do(ctx, p.retries, opID, p.retryCfg, func(ctx context.Context) ([]float32, error) {
		return p.inner.Embed(ctx, normalized)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// The caller abandoned the wait; that says nothing about the
			// provider's health.
			return nil, ctxErr
		}
		p.health.markUnhealthy()
		return nil, fmt.Errorf("embed failed terminally: %w: %w", err, domain.ErrEmbeddingUnavailable)
	}

	if p.dimensions > 0 && len(vec) != p.dimensions {
		// Keep the vector: a usable embedding with a surprising shape beats
		// no embedding. Scoring guards against mismatched comparisons.
		p.logger.Warn("Embedding dimensionality mismatch",
			zap.Int("expected", p.dimensions),
			zap.Int("got", len(vec)),
		)
	}

	p.health.markHealthy()
	p.memory.Set(key, vec)
	p.toShared(ctx, key, vec)
	return vec, nil
}

// HealthCheck probes the provider and records the verdict for the gate.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.checker == nil {
		return nil
	}
	if err := p.checker.HealthCheck(ctx); err != nil {
		p.health.markUnhealthy()
		return fmt.Errorf("embedding provider: %w", err)
	}
	p.health.markHealthy()
	return nil
}

// Healthy reports the last recorded provider verdict without a network call.
func (p *Provider) Healthy() bool {
	return p.health.allow()
}

// normalize collapses whitespace and truncates to the provider's input limit.
func (p *Provider) normalize(text string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	if len(normalized) > p.maxInputChars {
		cut := normalized[:p.maxInputChars]
		// Do not split a multi-byte rune at the boundary.
		for len(cut) > 0 && !isRuneStart(cut[len(cut)-1]) {
			cut = cut[:len(cut)-1]
		}
		normalized = cut
	}
	return normalized
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// cacheKey hashes the normalized text together with the target
// dimensionality, so a model or dimension change never serves a
// stale-shaped vector.
func (p *Provider) cacheKey(normalized string) string {
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%s%s:%d", sharedCacheKeyPrefix, hex.EncodeToString(h[:]), p.dimensions)
}

func (p *Provider) fromShared(ctx context.Context, key string) ([]float32, bool) {
	if p.shared == nil {
		return nil, false
	}

	data, err := p.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			p.logger.Warn("Failed to get shared cached embedding", zap.String("key", key), zap.Error(err))
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		p.logger.Warn("Failed to parse shared cached embedding", zap.String("key", key), zap.Error(err))
		metrics.EmbeddingCacheTotal.WithLabelValues("shared", "miss").Inc()
		return nil, false
	}

	metrics.EmbeddingCacheTotal.WithLabelValues("shared", "hit").Inc()
	return vec, true
}

// toShared writes through to the shared cache. The write survives caller
// cancellation: an abandoned rank call may still populate the cache.
func (p *Provider) toShared(ctx context.Context, key string, vec []float32) {
	if p.shared == nil {
		return
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var err error
	if p.sharedTTL > 0 {
		err = p.shared.SetWithTTL(writeCtx, key, vectorToBytes(vec), p.sharedTTL)
	} else {
		err = p.shared.Set(writeCtx, key, vectorToBytes(vec))
	}
	if err != nil {
		p.logger.Warn("Failed to cache embedding in shared store", zap.String("key", key), zap.Error(err))
	}
}
