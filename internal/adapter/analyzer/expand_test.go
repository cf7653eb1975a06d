package analyzer

import (
	"strings"
	"testing"
)

func TestExpandQueryAppendsSynonyms(t *testing.T) {
	query := "What medications does patient 3 have?"
	expanded := ExpandQuery(query)

	if !strings.HasPrefix(expanded, query) {
		t.Fatalf("expanded query should keep the original prefix, got %q", expanded)
	}
	for _, want := range []string{"drug", "prescription", "medicine", "pharmaceutical"} {
		if !strings.Contains(expanded, want) {
			t.Errorf("expanded query missing synonym %q: %q", want, expanded)
		}
	}
}

func TestExpandQueryNoTrigger(t *testing.T) {
	query := "who is covered by payer 2"
	if got := ExpandQuery(query); got != query {
		t.Fatalf("query without trigger words should pass through unchanged, got %q", got)
	}
}

func TestExpandQueryMultipleTriggersDeduplicated(t *testing.T) {
	// "doctor" and "hospital" both trigger; the synonym set is deduplicated
	// so no term appears twice in the appended tail.
	query := "which doctor works at the hospital"
	expanded := ExpandQuery(query)

	tail := strings.TrimPrefix(expanded, query+" ")
	seen := make(map[string]int)
	for _, term := range strings.Fields(tail) {
		seen[term]++
	}
	for term, n := range seen {
		if n > 1 {
			t.Errorf("synonym %q appended %d times", term, n)
		}
	}
	if _, ok := seen["physician"]; !ok {
		t.Errorf("expected doctor synonyms in tail %q", tail)
	}
	if _, ok := seen["clinic"]; !ok {
		t.Errorf("expected hospital synonyms in tail %q", tail)
	}
}

func TestExpandQueryDeterministic(t *testing.T) {
	query := "diagnosis and procedure history for patient 4"
	first := ExpandQuery(query)
	for i := 0; i < 5; i++ {
		if got := ExpandQuery(query); got != first {
			t.Fatalf("expansion not deterministic: %q then %q", first, got)
		}
	}
}
