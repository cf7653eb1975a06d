package analyzer

import (
	"sort"
	"strings"
)

// synonymTable maps trigger words to the domain synonyms appended to the
// query. Semantic search over clinical narratives misses records phrased
// with a sibling term ("drug" vs "prescription"), so expansion trades a
// longer query for recall.
var synonymTable = map[string][]string{
	"medication":  {"medication", "drug", "prescription", "medicine", "pharmaceutical"},
	"observation": {"observation", "test", "measurement", "result", "reading", "lab"},
	"procedure":   {"procedure", "surgery", "operation", "treatment", "intervention"},
	"diagnosis":   {"diagnosis", "condition", "disease", "disorder", "illness"},
	"event":       {"event", "encounter", "visit", "record", "entry"},
	"doctor":      {"doctor", "physician", "provider", "clinician", "dr"},
	"hospital":    {"hospital", "organization", "facility", "clinic", "center"},
	"insurance":   {"insurance", "payer", "coverage", "insurer"},
}

// ExpandQuery appends the deduplicated synonym set of every trigger word
// found in the lowercased query. The query comes back unchanged when no
// trigger fires. Synonyms are sorted before appending so expansion is
// deterministic; the set is order-insensitive downstream.
func ExpandQuery(query string) string {
	lower := strings.ToLower(query)

	seen := make(map[string]struct{})
	for trigger, synonyms := range synonymTable {
		if !strings.Contains(lower, trigger) {
			continue
		}
		for _, syn := range synonyms {
			seen[syn] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return query
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	return query + " " + strings.Join(terms, " ")
}
