package store

import (
	"math"
	"sort"

	"healthrag/internal/domain"
)

// Shared brute-force search primitives over in-memory entries.

func matchesFilter(meta map[string]string, filter map[string]string) bool {
	for key, want := range filter {
		if meta[key] != want {
			return false
		}
	}
	return true
}

func scanByFilter(entries []entry, k int, filter map[string]string) []domain.Document {
	docs := make([]domain.Document, 0, k)
	for _, e := range entries {
		if !matchesFilter(e.doc.Metadata, filter) {
			continue
		}
		docs = append(docs, e.doc)
		if len(docs) >= k {
			break
		}
	}
	return docs
}

func scoreEntries(entries []entry, queryVec []float32, filter map[string]string) []scoredEntry {
	scored := make([]scoredEntry, 0, len(entries))
	for _, e := range entries {
		if !matchesFilter(e.doc.Metadata, filter) {
			continue
		}
		scored = append(scored, scoredEntry{
			doc:    e.doc,
			vector: e.vector,
			score:  cosineSimilarity(queryVec, e.vector),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	return scored
}

// mmrSelect greedily picks k candidates maximizing
// lambda*relevance - (1-lambda)*max_similarity(candidate, selected).
// Candidates arrive sorted by relevance.
func mmrSelect(candidates []scoredEntry, k int, lambda float64) []scoredEntry {
	if len(candidates) == 0 {
		return nil
	}
	if k > len(candidates) {
		k = len(candidates)
	}

	maxScore := candidates[0].score
	if maxScore == 0 {
		maxScore = 1
	}

	selected := make([]scoredEntry, 0, k)
	remaining := make([]scoredEntry, len(candidates))
	copy(remaining, candidates)

	for len(selected) < k && len(remaining) > 0 {
		bestIdx := -1
		bestMMR := math.Inf(-1)

		for i, candidate := range remaining {
			relevance := candidate.score / maxScore

			maxSim := 0.0
			for _, sel := range selected {
				sim := cosineSimilarity(candidate.vector, sel.vector)
				if sim > maxSim {
					maxSim = sim
				}
			}

			mmr := lambda*relevance - (1-lambda)*maxSim
			if mmr > bestMMR {
				bestMMR = mmr
				bestIdx = i
			}
		}

		if bestIdx == -1 {
			break
		}
		selected = append(selected, remaining[bestIdx])
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
