package analyzer

import (
	"sort"
	"strings"
)

// Fuzzy string scoring in the 0-100 range. Two measures are combined: a
// token-set similarity that ignores word order and duplicates, and a partial
// similarity that finds the best-aligning substring. Both ride on an edit
// distance where substitutions cost 2, which keeps scores aligned with the
// common ratio definition (matched characters over total characters).

// DefaultFuzzyThreshold is the acceptance threshold below which a score is
// reported as zero.
const DefaultFuzzyThreshold = 60

// MatchScore scores a candidate text against a query. The result is
// 0.7*token-set + 0.3*partial, in [0,100]. Scores below threshold collapse
// to exactly 0, which makes "no match" and "weak match" indistinguishable;
// callers use the score for filtering and ordering, not as a confidence.
func MatchScore(query, text string, threshold float64) float64 {
	q := strings.ToLower(query)
	t := strings.ToLower(text)

	combined := 0.7*float64(TokenSetRatio(q, t)) + 0.3*float64(PartialRatio(q, t))
	if combined < threshold {
		return 0
	}
	return combined
}

// Ratio is the plain similarity of two strings in [0,100].
func Ratio(a, b string) int {
	lensum := len([]rune(a)) + len([]rune(b))
	if lensum == 0 {
		return 100
	}
	dist := editDistance([]rune(a), []rune(b))
	return int(100 * float64(lensum-dist) / float64(lensum))
}

// PartialRatio is the best Ratio between the shorter string and any
// equal-length window of the longer one.
func PartialRatio(a, b string) int {
	shorter, longer := []rune(a), []rune(b)
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		return 100
	}

	best := 0
	for start := 0; start+len(shorter) <= len(longer); start++ {
		window := longer[start : start+len(shorter)]
		score := ratioRunes(shorter, window)
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// TokenSetRatio compares the unique sorted token sets of both strings. The
// shared-token core is compared against each full set, so a query whose
// words all occur in the candidate scores 100 regardless of extra words or
// ordering in the candidate.
func TokenSetRatio(a, b string) int {
	setA := tokenSet(a)
	setB := tokenSet(b)

	var shared, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared = append(shared, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	sort.Strings(shared)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	core := strings.Join(shared, " ")
	full1 := joinNonEmpty(core, strings.Join(onlyA, " "))
	full2 := joinNonEmpty(core, strings.Join(onlyB, " "))

	best := Ratio(core, full1)
	if s := Ratio(core, full2); s > best {
		best = s
	}
	if s := Ratio(full1, full2); s > best {
		best = s
	}
	return best
}

func joinNonEmpty(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	return a + " " + b
}

// tokenSet lowercases, strips non-alphanumeric runes to spaces, and collects
// the unique whitespace-split tokens.
func tokenSet(s string) map[string]struct{} {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, strings.ToLower(s))

	set := make(map[string]struct{})
	for _, tok := range strings.Fields(cleaned) {
		set[tok] = struct{}{}
	}
	return set
}

func ratioRunes(a, b []rune) int {
	lensum := len(a) + len(b)
	if lensum == 0 {
		return 100
	}
	dist := editDistance(a, b)
	return int(100 * float64(lensum-dist) / float64(lensum))
}

// editDistance is Levenshtein with substitution weighted 2, so a mismatch
// costs as much as a delete plus an insert.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			sub := prev[j-1]
			if a[i-1] != b[j-1] {
				sub += 2
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			curr[j] = min3(sub, del, ins)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
