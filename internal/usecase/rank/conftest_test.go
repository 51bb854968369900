package rank

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hireloop/matchrank/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	docs []domain.Document
	err  error
}

func (m *mockRepo) List(_ string) ([]domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.docs, nil
}

type mockEmbedder struct {
	vec    []float32
	err    error
	called int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.called++
	if m.err != nil {
		return nil, m.err
	}
	return m.vec, nil
}

func unavailableEmbedder() *mockEmbedder {
	return &mockEmbedder{err: fmt.Errorf("provider down: %w", domain.ErrEmbeddingUnavailable)}
}

func newTestService(repo *mockRepo, embed *mockEmbedder, weights Weights) *Service {
	return New(repo, embed, weights, zap.NewNop())
}

func doc(id, text string, embedding []float32) domain.Document {
	return domain.Document{ID: id, ScopeKey: "scope", Text: text, Embedding: embedding}
}
