package retriever

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/phuslu/log"

	"healthrag/internal/adapter/analyzer"
	"healthrag/internal/domain"
	"healthrag/internal/port"
)

// Search sizes per strategy. Scoped searches cast a wider net because the
// filter already bounds them to one actor's documents.
const (
	scopedSemanticK    = 150
	unscopedSemanticK  = 100
	scopedMMRK         = 100
	scopedMMRFetchK    = 300
	unscopedMMRK       = 50
	unscopedMMRFetchK  = 150
	actorSweepLimit    = 1000
	fuzzyFallbackBelow = 50
	fuzzyFallbackTop   = 50
	fuzzyFallbackMin   = 50
	profileLimit       = 10
	relatedSearchK     = 50
)

// HybridRetriever unions several independent search strategies against the
// document store and reorders the merged result. Strategies are isolated: a
// failing strategy is logged and contributes zero documents, so retrieval as
// a whole never fails, it only degrades.
type HybridRetriever struct {
	store         port.DocumentStore
	logger        log.Logger
	searchTimeout time.Duration
}

func NewHybridRetriever(store port.DocumentStore, logger log.Logger, searchTimeout time.Duration) *HybridRetriever {
	return &HybridRetriever{
		store:         store,
		logger:        logger,
		searchTimeout: searchTimeout,
	}
}

// Retrieve runs all strategies in fixed order and returns the deduplicated,
// reordered document list. Deduplication is by content hash: two documents
// with identical text collapse into one, keeping the first copy's metadata.
func (r *HybridRetriever) Retrieve(ctx context.Context, query string, scope domain.ActorScope) []domain.Document {
	acc := newAccumulator()
	expanded := analyzer.ExpandQuery(query)
	filter := scope.Filter()

	// Strategy 1: semantic search with the expanded query.
	r.runStrategy(ctx, "semantic", acc, func(ctx context.Context) ([]domain.Document, error) {
		if scope.Scoped() {
			return r.store.SimilaritySearch(ctx, expanded, scopedSemanticK, filter)
		}
		return r.store.SimilaritySearch(ctx, expanded, unscopedSemanticK, nil)
	})

	// Strategy 2: diversity search with the original query.
	r.runStrategy(ctx, "mmr", acc, func(ctx context.Context) ([]domain.Document, error) {
		if scope.Scoped() {
			return r.store.MaxMarginalRelevanceSearch(ctx, query, scopedMMRK, scopedMMRFetchK, filter)
		}
		return r.store.MaxMarginalRelevanceSearch(ctx, query, unscopedMMRK, unscopedMMRFetchK, nil)
	})

	// Strategy 3: keyword sweep over everything the actor has. Guarantees
	// all of an actor's event records surface even when embedding similarity
	// misses lexically-distinctive events.
	if scope.Scoped() {
		r.runStrategy(ctx, "keyword_sweep", acc, func(ctx context.Context) ([]domain.Document, error) {
			actorDocs, err := r.store.SimilaritySearch(ctx, "", actorSweepLimit, filter)
			if err != nil {
				return nil, err
			}
			keywords := queryKeywords(query)
			var kept []domain.Document
			for _, doc := range actorDocs {
				if matchesAnyKeyword(doc.Content, keywords) || doc.IsEvent() {
					kept = append(kept, doc)
				}
			}
			return kept, nil
		})
	}

	// Strategy 4: fuzzy fallback when strategies 1-3 came back thin.
	if scope.Scoped() && acc.len() < fuzzyFallbackBelow {
		r.runStrategy(ctx, "fuzzy_fallback", acc, func(ctx context.Context) ([]domain.Document, error) {
			actorDocs, err := r.store.SimilaritySearch(ctx, "", actorSweepLimit, filter)
			if err != nil {
				return nil, err
			}
			type scoredDoc struct {
				doc   domain.Document
				score float64
			}
			var scored []scoredDoc
			for _, doc := range actorDocs {
				if s := analyzer.MatchScore(query, doc.Content, fuzzyFallbackMin); s > 0 {
					scored = append(scored, scoredDoc{doc, s})
				}
			}
			sort.SliceStable(scored, func(i, j int) bool {
				return scored[i].score > scored[j].score
			})
			if len(scored) > fuzzyFallbackTop {
				scored = scored[:fuzzyFallbackTop]
			}
			docs := make([]domain.Document, len(scored))
			for i, sd := range scored {
				docs[i] = sd.doc
			}
			return docs, nil
		})
	}

	// Strategy 5: the actor's own profile document, in case everything
	// above missed it.
	if scope.Scoped() {
		r.runStrategy(ctx, "profile", acc, func(ctx context.Context) ([]domain.Document, error) {
			profileFilter := map[string]string{
				scope.Type.FilterKey(): scope.ID,
				domain.MetaType:        scope.Type.ProfileType(),
			}
			return r.store.SimilaritySearch(ctx, "", profileLimit, profileFilter)
		})
	}

	// Strategy 6: broad search kept only for documents cross-referencing
	// this actor type.
	if scope.Scoped() {
		relatedKey := "related_" + string(scope.Type)
		r.runStrategy(ctx, "related_actor", acc, func(ctx context.Context) ([]domain.Document, error) {
			docs, err := r.store.SimilaritySearch(ctx, expanded, relatedSearchK, nil)
			if err != nil {
				return nil, err
			}
			var kept []domain.Document
			for _, doc := range docs {
				if _, ok := doc.Metadata[relatedKey]; ok {
					kept = append(kept, doc)
				}
			}
			return kept, nil
		})
	}

	return r.order(query, scope, acc.docs)
}

// order applies the final ranking. Under actor scope events come first in
// accumulation order, then everything else; without a scope all documents
// are re-scored lexically against the raw query. The asymmetry is
// deliberate: a known actor gets guaranteed event coverage, an open-ended
// query gets pure lexical relevance.
func (r *HybridRetriever) order(query string, scope domain.ActorScope, docs []domain.Document) []domain.Document {
	if !scope.Scoped() {
		type scoredDoc struct {
			doc   domain.Document
			score float64
		}
		scored := make([]scoredDoc, len(docs))
		for i, doc := range docs {
			scored[i] = scoredDoc{doc, analyzer.MatchScore(query, doc.Content, 0)}
		}
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].score > scored[j].score
		})
		out := make([]domain.Document, len(docs))
		for i, sd := range scored {
			out[i] = sd.doc
		}
		return out
	}

	ordered := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if doc.IsEvent() {
			ordered = append(ordered, doc)
		}
	}
	for _, doc := range docs {
		if !doc.IsEvent() {
			ordered = append(ordered, doc)
		}
	}
	return ordered
}

type strategyFunc func(ctx context.Context) ([]domain.Document, error)

// runStrategy isolates one strategy invocation: a per-call timeout, an
// error swallowed into a warning log, and results folded into the
// accumulator.
func (r *HybridRetriever) runStrategy(ctx context.Context, name string, acc *accumulator, fn strategyFunc) {
	if r.searchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.searchTimeout)
		defer cancel()
	}

	docs, err := fn(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Str("strategy", name).Msg("retrieval strategy failed")
		return
	}
	added := 0
	for _, doc := range docs {
		if acc.add(doc) {
			added++
		}
	}
	r.logger.Debug().Str("strategy", name).Int("returned", len(docs)).Int("added", added).Msg("retrieval strategy done")
}

// accumulator keeps the running deduplicated document set in accumulation
// order.
type accumulator struct {
	seen map[string]struct{}
	docs []domain.Document
}

func newAccumulator() *accumulator {
	return &accumulator{seen: make(map[string]struct{})}
}

func (a *accumulator) add(doc domain.Document) bool {
	hash := doc.ContentHash()
	if _, dup := a.seen[hash]; dup {
		return false
	}
	a.seen[hash] = struct{}{}
	a.docs = append(a.docs, doc)
	return true
}

func (a *accumulator) len() int {
	return len(a.docs)
}

func queryKeywords(query string) []string {
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if len(word) > 2 {
			keywords = append(keywords, word)
		}
	}
	return keywords
}

func matchesAnyKeyword(content string, keywords []string) bool {
	lower := strings.ToLower(content)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
