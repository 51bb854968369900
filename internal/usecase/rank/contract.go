package rank

import (
	"context"

	"github.com/hireloop/matchrank/internal/domain"
)

// Repository is the consumer interface for reading candidate documents.
type Repository interface {
	List(scopeKey string) ([]domain.Document, error)
}

// Embedder vectorizes the query text. An ErrEmbeddingUnavailable result
// switches the engine into lexical fallback mode.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
