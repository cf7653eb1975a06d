package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.etcd.io/bbolt"

	"healthrag/internal/domain"
	"healthrag/internal/port"
)

var bucketDocuments = []byte("documents")

// mmrLambda balances relevance against diversity in MMR selection.
const mmrLambda = 0.5

// BoltDocStore persists documents with their embeddings in BoltDB and keeps
// an in-memory mirror for search. Brute-force cosine scan; the corpus is a
// few documents per warehouse row, which stays comfortably in memory.
//
// The store is written once by the indexing pass and read-only at query
// time, so concurrent searches share the handle safely.
type BoltDocStore struct {
	db       *bbolt.DB
	embedder port.Embedder

	mu      sync.RWMutex
	entries []entry
}

type entry struct {
	doc    domain.Document
	vector []float32
}

type storedDocument struct {
	Content  string            `json:"c"`
	Metadata map[string]string `json:"m,omitempty"`
	Vector   []float32         `json:"v"`
	Seq      uint64            `json:"s"`
}

// NewBoltDocStore opens (or creates) the document database at path and loads
// all documents into memory in insertion order.
func NewBoltDocStore(path string, embedder port.Embedder) (*BoltDocStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open document db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketDocuments)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create documents bucket: %w", err)
	}

	s := &BoltDocStore{db: db, embedder: embedder}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	return s, nil
}

func (s *BoltDocStore) load() error {
	type seqEntry struct {
		e   entry
		seq uint64
	}
	var loaded []seqEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedDocument
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			loaded = append(loaded, seqEntry{
				e: entry{
					doc: domain.Document{
						ID:       string(k),
						Content:  stored.Content,
						Metadata: stored.Metadata,
					},
					vector: stored.Vector,
				},
				seq: stored.Seq,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}

	// Bucket iteration is keyed by ID; restore insertion order from the
	// sequence recorded at write time so filter scans are stable.
	for i := 1; i < len(loaded); i++ {
		for j := i; j > 0 && loaded[j].seq < loaded[j-1].seq; j-- {
			loaded[j], loaded[j-1] = loaded[j-1], loaded[j]
		}
	}

	s.entries = make([]entry, len(loaded))
	for i, le := range loaded {
		s.entries[i] = le.e
	}
	return nil
}

// Add persists docs with their vectors. vectors[i] belongs to docs[i].
func (s *BoltDocStore) Add(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("document/vector count mismatch: %d vs %d", len(docs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocuments)
		if b == nil {
			return fmt.Errorf("documents bucket not found")
		}
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			data, err := json.Marshal(storedDocument{
				Content:  doc.Content,
				Metadata: doc.Metadata,
				Vector:   vectors[i],
				Seq:      seq,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(doc.ID), data); err != nil {
				return err
			}
			s.entries = append(s.entries, entry{doc: doc, vector: vectors[i]})
		}
		return nil
	})
}

// Count returns the number of stored documents.
func (s *BoltDocStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// SimilaritySearch returns up to k documents nearest to the query. An empty
// query is a filter scan in insertion order.
func (s *BoltDocStore) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]domain.Document, error) {
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

// MaxMarginalRelevanceSearch fetches the fetchK nearest documents and picks
// k of them balancing query relevance against similarity to documents
// already selected.
func (s *BoltDocStore) MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, filter map[string]string) ([]domain.Document, error) {
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

// Close closes the underlying database.
func (s *BoltDocStore) Close() error {
	return s.db.Close()
}

type scoredEntry struct {
	doc    domain.Document
	vector []float32
	score  float64
}

func (s *BoltDocStore) scoreByQuery(query string, filter map[string]string) ([]scoredEntry, error) {
	embeddings, err := s.embedder.Embed([]string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	return scoreEntries(s.entries, embeddings[0], filter), nil
}
