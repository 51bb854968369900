package chat

import (
	"context"

	"github.com/hireloop/matchrank/internal/domain"
)

// Ranker produces the candidate ranking the answer is grounded in.
type Ranker interface {
	Rank(ctx context.Context, query domain.Query) (domain.Ranking, error)
}

// DocumentReader resolves ranked document ids back to their text.
type DocumentReader interface {
	List(scopeKey string) ([]domain.Document, error)
}
