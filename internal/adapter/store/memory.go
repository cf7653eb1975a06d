package store

import (
	"context"
	"fmt"
	"sync"

	"healthrag/internal/domain"
	"healthrag/internal/port"
)

// MemoryDocStore is an in-process DocumentStore with the same search
// semantics as BoltDocStore but no persistence. Used in tests and for
// ephemeral indexes.
type MemoryDocStore struct {
	embedder port.Embedder

	mu      sync.RWMutex
	entries []entry
}

func NewMemoryDocStore(embedder port.Embedder) *MemoryDocStore {
	return &MemoryDocStore{embedder: embedder}
}

func (s *MemoryDocStore) Add(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range docs {
		s.entries = append(s.entries, entry{doc: doc, vector: vectors[i]})
	}
	return nil
}

func (s *MemoryDocStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryDocStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query == "" {
		return scanByFilter(s.entries, k, filter), nil
	}

	scored, err := s.scoreByQuery(query, filter)
	if err != nil {
		return nil, err
	}
	if len(scored) > k {
		scored = scored[:k]
	}
	docs := make([]domain.Document, len(scored))
	for i, sc := range scored {
		docs[i] = sc.doc
	}
	return docs, nil
}

func (s *MemoryDocStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, filter map[string]string) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if query == "" {
		return scanByFilter(s.entries, k, filter), nil
	}

	scored, err := s.scoreByQuery(query, filter)
	if err != nil {
		return nil, err
	}
	if len(scored) > fetchK {
		scored = scored[:fetchK]
	}
	selected := mmrSelect(scored, k, mmrLambda)

	docs := make([]domain.Document, len(selected))
	for i, sc := range selected {
		docs[i] = sc.doc
	}
	return docs, nil
}

func (s *MemoryDocStore) scoreByQuery(query string, filter map[string]string) ([]scoredEntry, error) {
	embeddings, err := s.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	return scoreEntries(s.entries, embeddings[0], filter), nil
}
