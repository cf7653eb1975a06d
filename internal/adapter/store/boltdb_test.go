package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"healthrag/internal/adapter/embedding"
	"healthrag/internal/domain"
)

func testDocs() []domain.Document {
	return []domain.Document{
		{
			ID:       "e1",
			Content:  "Lab Result for Patient 3. Description: Glucose test.",
			Metadata: map[string]string{domain.MetaType: domain.TypeEvent, "patient_id": "3"},
		},
		{
			ID:       "e2",
			Content:  "Encounter for Patient 5. Description: Annual checkup.",
			Metadata: map[string]string{domain.MetaType: domain.TypeEvent, "patient_id": "5"},
		},
		{
			ID:       "p1",
			Content:  "Patient 3: F, born 1985-03-02, lives in Springfield.",
			Metadata: map[string]string{domain.MetaType: "patient_profile", "patient_id": "3"},
		},
	}
}

func addAll(t *testing.T, s *BoltDocStore, docs []domain.Document) {
	t.Helper()
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := embedding.NewHashEmbedder(64).Embed(texts)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Add(context.Background(), docs, vectors); err != nil {
		t.Fatal(err)
	}
}

func openTestStore(t *testing.T, path string) *BoltDocStore {
	t.Helper()
	s, err := NewBoltDocStore(path, embedding.NewHashEmbedder(64))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestBoltDocStoreAddAndCount(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "index.db"))
	defer s.Close()
	addAll(t, s, testDocs())

	count, err := s.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestBoltDocStoreSimilaritySearch(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "index.db"))
	defer s.Close()
	addAll(t, s, testDocs())

	docs, err := s.SimilaritySearch(context.Background(), "glucose lab test", 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs", len(docs))
	}
	if docs[0].ID != "e1" {
		t.Errorf("expected the glucose event first, got %s", docs[0].ID)
	}
}

func TestBoltDocStoreFilter(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "index.db"))
	defer s.Close()
	addAll(t, s, testDocs())

	docs, err := s.SimilaritySearch(context.Background(), "anything", 10, map[string]string{"patient_id": "3"})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs for patient 3", len(docs))
	}
	for _, d := range docs {
		if d.Metadata["patient_id"] != "3" {
			t.Errorf("filter leaked document %s", d.ID)
		}
	}
}

func TestBoltDocStoreEmptyQueryScansInInsertionOrder(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "index.db"))
	defer s.Close()

	// IDs chosen so key order disagrees with insertion order.
	var docs []domain.Document
	for i := 9; i >= 0; i-- {
		docs = append(docs, domain.Document{
			ID:       fmt.Sprintf("doc-%d", i),
			Content:  fmt.Sprintf("content %d", i),
			Metadata: map[string]string{domain.MetaType: domain.TypeEvent},
		})
	}
	addAll(t, s, docs)

	got, err := s.SimilaritySearch(context.Background(), "", 10, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range got {
		if d.ID != docs[i].ID {
			t.Fatalf("position %d: got %s, want %s", i, d.ID, docs[i].ID)
		}
	}

	// Bounded scan stops early.
	got, err = s.SimilaritySearch(context.Background(), "", 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Errorf("bounded scan returned %d docs", len(got))
	}
}

func TestBoltDocStorePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s := openTestStore(t, path)
	var docs []domain.Document
	for i := 4; i >= 0; i-- {
		docs = append(docs, domain.Document{
			ID:      fmt.Sprintf("doc-%d", i),
			Content: fmt.Sprintf("content %d", i),
		})
	}
	addAll(t, s, docs)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened := openTestStore(t, path)
	defer reopened.Close()

	count, err := reopened.Count()
	if err != nil {
		t.Fatal(err)
	}
	if count != 5 {
		t.Fatalf("count after reload = %d, want 5", count)
	}

	// Insertion order survives the reload even though bucket keys sort
	// differently.
	got, err := reopened.SimilaritySearch(context.Background(), "", 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, d := range got {
		if d.ID != docs[i].ID {
			t.Fatalf("position %d after reload: got %s, want %s", i, d.ID, docs[i].ID)
		}
	}
}

func TestBoltDocStoreMMRReturnsDiverseSet(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "index.db"))
	defer s.Close()

	docs := []domain.Document{
		{ID: "a", Content: "glucose lab result glucose test"},
		{ID: "b", Content: "glucose lab result glucose test repeated"},
		{ID: "c", Content: "blood pressure reading hypertension"},
	}
	addAll(t, s, docs)

	got, err := s.MaxMarginalRelevanceSearch(context.Background(), "glucose lab", 2, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d docs", len(got))
	}
	if got[0].ID == got[1].ID {
		t.Error("MMR returned the same document twice")
	}
}

func TestBoltDocStoreVectorCountMismatch(t *testing.T) {
	s := openTestStore(t, filepath.Join(t.TempDir(), "index.db"))
	defer s.Close()

	err := s.Add(context.Background(), testDocs(), nil)
	if err == nil {
		t.Fatal("expected an error on document/vector mismatch")
	}
}
