package document

import (
	"errors"
	"testing"

	"github.com/hireloop/matchrank/internal/domain"
)

func doc(id, scope, text string, embedding []float32) domain.Document {
	return domain.Document{ID: id, ScopeKey: scope, Text: text, Embedding: embedding}
}

func TestPutAndList(t *testing.T) {
	s := NewStore()

	if err := s.Put(
		doc("b", "team1", "python dev", nil),
		doc("a", "team1", "go dev", []float32{1, 0}),
	); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := s.List("team1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].ID != "a" || docs[1].ID != "b" {
		t.Fatalf("expected deterministic id order, got %v %v", docs[0].ID, docs[1].ID)
	}
}

func TestListUnknownScope(t *testing.T) {
	s := NewStore()
	if _, err := s.List("nope"); !errors.Is(err, domain.ErrScopeNotFound) {
		t.Fatalf("expected ErrScopeNotFound, got %v", err)
	}
}

func TestPutRejectsInvalidDocument(t *testing.T) {
	s := NewStore()
	err := s.Put(domain.Document{ID: "x", ScopeKey: "s"}) // missing text
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if s.Count("s") != 0 {
		t.Fatal("invalid batch must not be partially applied")
	}
}

func TestSnapshotsDoNotAlias(t *testing.T) {
	s := NewStore()
	original := doc("a", "team1", "go dev", []float32{1, 0})
	if err := s.Put(original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, _ := s.List("team1")
	docs[0].Embedding[0] = 99

	again, _ := s.List("team1")
	if again[0].Embedding[0] != 1 {
		t.Fatal("caller mutation leaked into the store")
	}
}

func TestReembeddingReplacesSnapshot(t *testing.T) {
	s := NewStore()
	_ = s.Put(doc("a", "team1", "go dev", []float32{1, 0}))
	_ = s.Put(doc("a", "team1", "go dev", []float32{0, 1}))

	docs, _ := s.List("team1")
	if len(docs) != 1 {
		t.Fatalf("expected replacement, got %d documents", len(docs))
	}
	if docs[0].Embedding[1] != 1 {
		t.Fatalf("expected new embedding, got %v", docs[0].Embedding)
	}
}

func TestDelete(t *testing.T) {
	s := NewStore()
	_ = s.Put(doc("a", "team1", "go dev", nil))

	if err := s.Delete("team1", "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Delete("team1", "a"); !errors.Is(err, domain.ErrScopeNotFound) {
		t.Fatalf("expected empty scope to vanish, got %v", err)
	}

	_ = s.Put(doc("a", "team1", "go dev", nil))
	if err := s.Delete("team1", "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
