package port

import (
	"context"

	"healthrag/internal/domain"
)

// Retriever produces a ranked, deduplicated document list for a query.
// A retriever never fails outright: individual search strategies that error
// are logged and contribute nothing, so the worst case is an empty result.
type Retriever interface {
	Retrieve(ctx context.Context, query string, scope domain.ActorScope) []domain.Document
}
