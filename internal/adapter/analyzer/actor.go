package analyzer

import (
	"regexp"
	"strings"

	"healthrag/internal/domain"
)

// actorPatterns are tried in priority order: patient first, then provider,
// organization, payer. The first id-bearing match wins, so a query naming
// both "patient 3" and "provider 7" resolves to the patient.
var actorPatterns = []struct {
	actor    domain.ActorType
	patterns []*regexp.Regexp
}{
	{domain.ActorPatient, compileAll(
		`patient\s*(\d+)`,
		`patient\s+id\s*(\d+)`,
		`patient\s+number\s*(\d+)`,
	)},
	{domain.ActorProvider, compileAll(
		`provider\s*(\d+)`,
		`provider\s+id\s*(\d+)`,
		`doctor\s*(\d+)`,
		`physician\s*(\d+)`,
	)},
	{domain.ActorOrganization, compileAll(
		`organization\s*(\d+)`,
		`org\s*(\d+)`,
		`hospital\s*(\d+)`,
		`facility\s*(\d+)`,
	)},
	{domain.ActorPayer, compileAll(
		`payer\s*(\d+)`,
		`insurance\s*(\d+)`,
	)},
}

// actorKeywords back the fallback containment check when no pattern captured
// a numeric id. Order matters the same way the patterns do.
var actorKeywords = []struct {
	actor domain.ActorType
	words []string
}{
	{domain.ActorPatient, []string{"patient"}},
	{domain.ActorProvider, []string{"doctor", "physician", "provider", "dr."}},
	{domain.ActorOrganization, []string{"hospital", "organization", "facility", "clinic"}},
	{domain.ActorPayer, []string{"insurance", "payer", "coverage"}},
}

func compileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		compiled[i] = regexp.MustCompile(expr)
	}
	return compiled
}

// DetectActor infers which entity a query concerns. It returns the actor
// type plus a normalized id when a pattern captures one, the type alone when
// only a bare keyword appears, and a zero scope otherwise. Absence of a
// match is a normal outcome, not a failure.
func DetectActor(query string) domain.ActorScope {
	lower := strings.ToLower(query)

	for _, group := range actorPatterns {
		for _, pattern := range group.patterns {
			if m := pattern.FindStringSubmatch(lower); m != nil {
				return domain.ActorScope{Type: group.actor, ID: NormalizeID(m[1])}
			}
		}
	}

	for _, group := range actorKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return domain.ActorScope{Type: group.actor}
			}
		}
	}

	return domain.ActorScope{}
}
