package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// ActorType identifies which kind of warehouse entity a query concerns.
type ActorType string

const (
	ActorPatient      ActorType = "patient"
	ActorProvider     ActorType = "provider"
	ActorOrganization ActorType = "organization"
	ActorPayer        ActorType = "payer"
)

// FilterKey returns the metadata key carrying this actor's identifier,
// e.g. "patient_id" for ActorPatient.
func (a ActorType) FilterKey() string {
	return string(a) + "_id"
}

// ProfileType returns the metadata type value for this actor's profile
// document, e.g. "patient_profile".
func (a ActorType) ProfileType() string {
	return string(a) + "_profile"
}

// Valid reports whether a is one of the four known actor types.
func (a ActorType) Valid() bool {
	switch a {
	case ActorPatient, ActorProvider, ActorOrganization, ActorPayer:
		return true
	}
	return false
}

// Document metadata keys and type values used throughout the corpus.
const (
	MetaType     = "type"
	MetaCategory = "category"
	MetaSource   = "source"
	MetaDate     = "date"

	TypeEvent = "event"
)

// Document is an immutable unit of retrievable text with the metadata tags
// attached at indexing time. Content is never mutated after creation.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Type returns the document's type metadata, or "" when untagged.
func (d Document) Type() string {
	return d.Metadata[MetaType]
}

// IsEvent reports whether the document describes a single clinical event
// rather than an aggregate profile.
func (d Document) IsEvent() bool {
	return d.Type() == TypeEvent
}

// ContentHash is the document's dedup identity: sha256 over the UTF-8 bytes
// of content. Two documents with identical text are the same document for
// retrieval purposes regardless of metadata. The hash is stable across
// processes so test fixtures reproduce.
func (d Document) ContentHash() string {
	return HashContent(d.Content)
}

// HashContent hashes free text the same way Document.ContentHash does.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:16])
}

// ActorScope is the optional (type, id) pair derived from a query by pattern
// matching. Scoped reports whether both halves are present; only then do the
// actor-restricted retrieval strategies run.
type ActorScope struct {
	Type ActorType
	ID   string
}

func (s ActorScope) Scoped() bool {
	return s.Type != "" && s.ID != ""
}

// Filter returns the metadata filter selecting this scope's documents,
// or nil when the scope is unset.
func (s ActorScope) Filter() map[string]string {
	if !s.Scoped() {
		return nil
	}
	return map[string]string{s.Type.FilterKey(): s.ID}
}

// Answer is the composed result of one question-answering pass.
type Answer struct {
	Text      string
	Scope     ActorScope
	Documents []Document
	NumEvents int
}

// CorpusStats summarizes the indexed corpus for the stats surfaces.
type CorpusStats struct {
	TotalDocuments      int `json:"total_documents"`
	UniquePatients      int `json:"unique_patients"`
	UniqueProviders     int `json:"unique_providers"`
	UniqueOrganizations int `json:"unique_organizations"`
	UniquePayers        int `json:"unique_payers"`
	TotalEvents         int `json:"total_events"`
}
