package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"healthrag/internal/domain"
)

type fakeRetriever struct {
	docs      []domain.Document
	lastScope domain.ActorScope
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, scope domain.ActorScope) []domain.Document {
	f.lastScope = scope
	return f.docs
}

type fakeCompleter struct {
	answer     string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.answer, f.err
}

func (f *fakeCompleter) ModelName() string { return "fake" }

func eventDoc(id, content string) domain.Document {
	return domain.Document{
		ID:       id,
		Content:  content,
		Metadata: map[string]string{domain.MetaType: domain.TypeEvent},
	}
}

func TestAskNoDocumentsSkipsModel(t *testing.T) {
	completer := &fakeCompleter{answer: "should never be used"}
	ask := NewAskUseCase(&fakeRetriever{}, completer, 100, 0)

	answer, err := ask.Ask(context.Background(), "what happened to patient 1?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Text != NoAnswerText {
		t.Errorf("expected the fixed no-answer text, got %q", answer.Text)
	}
	if completer.calls != 0 {
		t.Errorf("model was called %d times on an empty retrieval", completer.calls)
	}
	if answer.NumEvents != 0 || len(answer.Documents) != 0 {
		t.Errorf("unexpected answer payload: %+v", answer)
	}
}

func TestAskBuildsPromptFromRetrievedDocs(t *testing.T) {
	retriever := &fakeRetriever{docs: []domain.Document{
		eventDoc("a", "Lab Result for Patient 1."),
		{ID: "b", Content: "Patient 1: F, born 1985.", Metadata: map[string]string{domain.MetaType: "patient_profile"}},
	}}
	completer := &fakeCompleter{answer: "Patient 1 had a lab result."}
	ask := NewAskUseCase(retriever, completer, 100, 0)

	answer, err := ask.Ask(context.Background(), "what labs does patient 1 have?")
	if err != nil {
		t.Fatal(err)
	}
	if answer.Text != completer.answer {
		t.Errorf("answer text = %q", answer.Text)
	}
	if answer.NumEvents != 1 {
		t.Errorf("NumEvents = %d, want 1", answer.NumEvents)
	}
	if retriever.lastScope.Type != domain.ActorPatient || retriever.lastScope.ID != "1" {
		t.Errorf("scope not passed through: %+v", retriever.lastScope)
	}
	if !strings.Contains(completer.lastPrompt, "Lab Result for Patient 1.\n\nPatient 1: F, born 1985.") {
		t.Errorf("prompt context malformed:\n%s", completer.lastPrompt)
	}
	if !strings.Contains(completer.lastPrompt, "Question: what labs does patient 1 have?") {
		t.Errorf("prompt missing question:\n%s", completer.lastPrompt)
	}
}

func TestAskCapsDocumentsFedToPrompt(t *testing.T) {
	retriever := &fakeRetriever{docs: []domain.Document{
		eventDoc("a", "first"),
		eventDoc("b", "second"),
		eventDoc("c", "third"),
	}}
	completer := &fakeCompleter{answer: "ok"}
	ask := NewAskUseCase(retriever, completer, 2, 0)

	answer, err := ask.Ask(context.Background(), "events for patient 5")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(completer.lastPrompt, "third") {
		t.Error("document past the cap leaked into the prompt")
	}
	if answer.NumEvents != 2 {
		t.Errorf("NumEvents = %d, want 2 (counted within the cap)", answer.NumEvents)
	}
	// Full retrieval set is still reported.
	if len(answer.Documents) != 3 {
		t.Errorf("Documents = %d, want 3", len(answer.Documents))
	}
}

func TestAskPropagatesCompleterError(t *testing.T) {
	retriever := &fakeRetriever{docs: []domain.Document{eventDoc("a", "x")}}
	completer := &fakeCompleter{err: errors.New("rate limited")}
	ask := NewAskUseCase(retriever, completer, 100, 0)

	if _, err := ask.Ask(context.Background(), "anything for patient 1"); err == nil {
		t.Fatal("expected an error from the completer")
	}
}
