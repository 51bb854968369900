// Package rank combines vector similarity and lexical overlap into a ranked
// list of candidate documents. When the embedding provider is unavailable it
// degrades to lexical-only ranking instead of failing the caller.
package rank

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/domain"
	"github.com/hireloop/matchrank/internal/lexical"
	"github.com/hireloop/matchrank/internal/metrics"
)

// minLexicalScore is the relevance floor for fallback mode. Hybrid mode
// keeps zero-lexical documents because the vector signal still orders them.
const minLexicalScore = 0.01

// Weights balances the two similarity signals. They should sum to 1.
type Weights struct {
	Vector  float64
	Lexical float64
}

// DefaultWeights favor the semantic signal.
var DefaultWeights = Weights{Vector: 0.7, Lexical: 0.3}

// Service is the hybrid ranking engine.
type Service struct {
	docs    Repository
	embed   Embedder
	weights Weights
	logger  *zap.Logger
}

// New creates a ranking service. Zero weights fall back to the defaults.
func New(docs Repository, embed Embedder, weights Weights, logger *zap.Logger) *Service {
	if weights.Vector == 0 && weights.Lexical == 0 {
		weights = DefaultWeights
	}
	return &Service{docs: docs, embed: embed, weights: weights, logger: logger}
}

// Rank scores the scope's documents against the query. The result mode tells
// callers whether the scores came from the hybrid or the lexical-fallback
// strategy; scores are not comparable across modes.
func (s *Service) Rank(ctx context.Context, query domain.Query) (domain.Ranking, error) {
	docs, err := s.docs.List(query.ScopeKey)
	if err != nil {
		return domain.Ranking{}, fmt.Errorf("list documents: %w", err)
	}

	count := resolveCount(query.RequestedCount, query.RawText)

	queryVec, err := s.embed.Embed(ctx, query.RawText)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Ranking{}, ctxErr
		}
		if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
			// Defensive: the adapter contract promises unavailability, but
			// an unexpected error must still degrade, not fail the caller.
			s.logger.Warn("Unexpected embed error, degrading to lexical ranking", zap.Error(err))
		}
		return s.rankLexical(query, docs, count), nil
	}

	return s.rankHybrid(query, queryVec, docs, count), nil
}

// rankHybrid scores documents that carry an embedding; documents without one
// are excluded outright (the count is logged) rather than silently scored as
// vector-zero.
func (s *Service) rankHybrid(query domain.Query, queryVec []float32, docs []domain.Document, count int) domain.Ranking {
	results := make([]domain.MatchResult, 0, len(docs))
	skipped := 0

	for _, doc := range docs {
		if !doc.HasEmbedding() {
			skipped++
			continue
		}

		cos, err := cosine(queryVec, doc.Embedding)
		if err != nil {
			metrics.RankDimensionMismatchTotal.Inc()
			s.logger.Warn("Skipping similarity for mismatched vector",
				zap.String("document_id", doc.ID),
				zap.Int("query_dims", len(queryVec)),
				zap.Int("doc_dims", len(doc.Embedding)),
			)
			cos = -1 // normalizes to a vector score of 0
		}

		vectorScore := normalizeCosine(cos)
		lexicalScore := lexical.Score(query.RawText, doc.Text)
		results = append(results, domain.MatchResult{
			DocumentID:   doc.ID,
			Score:        s.weights.Vector*vectorScore + s.weights.Lexical*lexicalScore,
			VectorScore:  vectorScore,
			LexicalScore: lexicalScore,
		})
	}

	if skipped > 0 {
		s.logger.Debug("Excluded documents without embeddings from hybrid ranking",
			zap.String("scope_key", query.ScopeKey),
			zap.Int("skipped", skipped),
		)
	}

	metrics.RankRequestsTotal.WithLabelValues(string(domain.ModeHybrid)).Inc()
	return domain.Ranking{Mode: domain.ModeHybrid, Results: sortAndTruncate(results, count)}
}

// rankLexical is the fallback used when no query embedding is available.
// Every document participates; a relevance floor drops pure noise.
func (s *Service) rankLexical(query domain.Query, docs []domain.Document, count int) domain.Ranking {
	results := make([]domain.MatchResult, 0, len(docs))
	for _, doc := range docs {
		score := lexical.Score(query.RawText, doc.Text)
		if score <= minLexicalScore {
			continue
		}
		results = append(results, domain.MatchResult{
			DocumentID:   doc.ID,
			Score:        score,
			LexicalScore: score,
		})
	}

	metrics.RankRequestsTotal.WithLabelValues(string(domain.ModeLexical)).Inc()
	return domain.Ranking{Mode: domain.ModeLexical, Results: sortAndTruncate(results, count)}
}

// sortAndTruncate orders by score descending. The sort is stable so ties
// keep the input (document id) order and identical requests return
// identical rankings.
func sortAndTruncate(results []domain.MatchResult, count int) []domain.MatchResult {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > count {
		results = results[:count]
	}
	return results
}
