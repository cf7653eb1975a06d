package port

import (
	"context"

	"healthrag/internal/domain"
)

// DocumentStore is the retrieval-time view of the vector index. It is built
// once by the offline indexing pass and read-only afterwards; concurrent
// queries may share one handle.
//
// Filter semantics: exact-match AND across all provided key/value pairs;
// a nil filter means unrestricted. An empty query string means "scan by
// filter, bounded at k, in insertion order" rather than a nearest-neighbor
// search.
type DocumentStore interface {
	// SimilaritySearch returns up to k documents nearest to the query by
	// embedding similarity, restricted to documents matching filter.
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]domain.Document, error)

	// MaxMarginalRelevanceSearch fetches the fetchK nearest documents and
	// re-ranks them for diversity before returning the top k.
	MaxMarginalRelevanceSearch(ctx context.Context, query string, k, fetchK int, filter map[string]string) ([]domain.Document, error)
}

// DocumentWriter is the indexing-time surface of the store. Retrieval code
// never sees it.
type DocumentWriter interface {
	Add(ctx context.Context, docs []domain.Document, vectors [][]float32) error
	Count() (int, error)
}
