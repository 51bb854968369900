// Package document handles candidate document ingestion. Documents
// arriving without a precomputed embedding are embedded on the way in,
// best-effort: an unavailable provider leaves the document stored
// without a vector rather than failing the batch.
package document

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/domain"
)

// Repository stores candidate documents.
type Repository interface {
	Put(docs ...domain.Document) error
	List(scopeKey string) ([]domain.Document, error)
	Delete(scopeKey, id string) error
	Count(scopeKey string) int
}

// Result summarizes one ingestion batch.
type Result struct {
	Ingested int
	Embedded int
	Pending  int // stored without an embedding
}

// Service coordinates document ingestion.
type Service struct {
	repo     Repository
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates a document service.
func New(repo Repository, embedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{repo: repo, embedder: embedder, logger: logger}
}

// Ingest validates, embeds and stores a batch of documents for a scope.
// The batch is atomic with respect to validation: one invalid document
// rejects the whole batch before anything is stored.
func (s *Service) Ingest(ctx context.Context, scopeKey string, docs []domain.Document) (Result, error) {
	if len(docs) == 0 {
		return Result{}, fmt.Errorf("%w: empty batch", domain.ErrInvalidDocument)
	}

	for i := range docs {
		docs[i].ScopeKey = scopeKey
		if err := docs[i].Validate(); err != nil {
			return Result{}, fmt.Errorf("document %q: %w", docs[i].ID, err)
		}
	}

	var res Result
	for i := range docs {
		if docs[i].HasEmbedding() {
			res.Embedded++
			continue
		}
		vec, err := s.embedder.Embed(ctx, docs[i].Text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Result{}, ctxErr
			}
			if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
				return Result{}, fmt.Errorf("embed document %q: %w", docs[i].ID, err)
			}
			s.logger.Warn("Storing document without embedding",
				zap.String("scope_key", scopeKey),
				zap.String("document_id", docs[i].ID),
				zap.Error(err),
			)
			res.Pending++
			continue
		}
		docs[i].Embedding = vec
		res.Embedded++
	}

	if err := s.repo.Put(docs...); err != nil {
		return Result{}, fmt.Errorf("store documents: %w", err)
	}
	res.Ingested = len(docs)

	return res, nil
}

// List returns the documents of a scope.
func (s *Service) List(scopeKey string) ([]domain.Document, error) {
	return s.repo.List(scopeKey)
}

// Delete removes one document from a scope.
func (s *Service) Delete(scopeKey, id string) error {
	return s.repo.Delete(scopeKey, id)
}

// Count returns how many documents a scope holds.
func (s *Service) Count(scopeKey string) int {
	return s.repo.Count(scopeKey)
}
