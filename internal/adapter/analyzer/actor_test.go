package analyzer

import (
	"testing"

	"healthrag/internal/domain"
)

func TestDetectActorWithID(t *testing.T) {
	cases := []struct {
		query    string
		wantType domain.ActorType
		wantID   string
	}{
		{"What medications does patient 3 have?", domain.ActorPatient, "3"},
		{"Tell me about Patient ID 12", domain.ActorPatient, "12"},
		{"patient number 7 history", domain.ActorPatient, "7"},
		{"Tell me about provider 1", domain.ActorProvider, "1"},
		{"which patients did doctor 5 treat", domain.ActorProvider, "5"},
		{"physician 9 specialty", domain.ActorProvider, "9"},
		{"services at organization 3", domain.ActorOrganization, "3"},
		{"what happened at hospital 2", domain.ActorOrganization, "2"},
		{"facility 8 locations", domain.ActorOrganization, "8"},
		{"who is covered by payer 2", domain.ActorPayer, "2"},
		{"insurance 4 members", domain.ActorPayer, "4"},
	}

	for _, c := range cases {
		scope := DetectActor(c.query)
		if scope.Type != c.wantType || scope.ID != c.wantID {
			t.Errorf("DetectActor(%q) = (%s, %q), want (%s, %q)",
				c.query, scope.Type, scope.ID, c.wantType, c.wantID)
		}
	}
}

func TestDetectActorPriorityOrder(t *testing.T) {
	// Patient patterns are checked before provider patterns, so a query
	// naming both resolves to the patient.
	scope := DetectActor("did patient 3 ever see provider 7?")
	if scope.Type != domain.ActorPatient || scope.ID != "3" {
		t.Fatalf("got (%s, %q), want (patient, \"3\")", scope.Type, scope.ID)
	}
}

func TestDetectActorDeterministic(t *testing.T) {
	query := "compare hospital 2 and payer 5"
	first := DetectActor(query)
	for i := 0; i < 10; i++ {
		if got := DetectActor(query); got != first {
			t.Fatalf("DetectActor not deterministic: %v then %v", first, got)
		}
	}
}

func TestDetectActorKeywordFallback(t *testing.T) {
	cases := []struct {
		query    string
		wantType domain.ActorType
	}{
		{"how many patients are there", domain.ActorPatient},
		{"list every doctor", domain.ActorProvider},
		{"all hospital locations", domain.ActorOrganization},
		{"insurance coverage summary", domain.ActorPayer},
	}

	for _, c := range cases {
		scope := DetectActor(c.query)
		if scope.Type != c.wantType {
			t.Errorf("DetectActor(%q) type = %s, want %s", c.query, scope.Type, c.wantType)
		}
		if scope.ID != "" {
			t.Errorf("DetectActor(%q) id = %q, want empty", c.query, scope.ID)
		}
		if scope.Scoped() {
			t.Errorf("DetectActor(%q) should not be fully scoped", c.query)
		}
	}
}

func TestDetectActorNoMatch(t *testing.T) {
	scope := DetectActor("what procedures happened in 2020?")
	if scope.Type != "" || scope.ID != "" {
		t.Fatalf("expected zero scope, got (%s, %q)", scope.Type, scope.ID)
	}
}
