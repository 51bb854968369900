// Package document holds ingested candidate documents in memory, keyed by
// scope. The ranking engine reads immutable snapshots; persistence belongs
// to the upstream storage service.
package document

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hireloop/matchrank/internal/domain"
)

// Store is an in-memory scoped document collection. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	scopes map[string]map[string]domain.Document
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{scopes: make(map[string]map[string]domain.Document)}
}

// Put validates and upserts documents. A document carrying a new embedding
// replaces the stored one wholesale; embeddings are never mutated in place.
func (s *Store) Put(docs ...domain.Document) error {
	for _, d := range docs {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("put document %q: %w", d.ID, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range docs {
		scope := s.scopes[d.ScopeKey]
		if scope == nil {
			scope = make(map[string]domain.Document)
			s.scopes[d.ScopeKey] = scope
		}
		scope[d.ID] = d.Clone()
	}
	return nil
}

// List returns snapshots of all documents in a scope, ordered by id for
// deterministic downstream ranking.
func (s *Store) List(scopeKey string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	scope, ok := s.scopes[scopeKey]
	if !ok {
		return nil, fmt.Errorf("scope %q: %w", scopeKey, domain.ErrScopeNotFound)
	}

	docs := make([]domain.Document, 0, len(scope))
	for _, d := range scope {
		docs = append(docs, d.Clone())
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Delete removes one document.
func (s *Store) Delete(scopeKey, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope, ok := s.scopes[scopeKey]
	if !ok {
		return fmt.Errorf("scope %q: %w", scopeKey, domain.ErrScopeNotFound)
	}
	if _, ok := scope[id]; !ok {
		return fmt.Errorf("document %q: %w", id, domain.ErrDocumentNotFound)
	}
	delete(scope, id)
	if len(scope) == 0 {
		delete(s.scopes, scopeKey)
	}
	return nil
}

// Count returns the number of documents in a scope (0 for unknown scopes).
func (s *Store) Count(scopeKey string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scopes[scopeKey])
}
