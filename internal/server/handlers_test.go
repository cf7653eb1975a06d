package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phuslu/log"

	"healthrag/internal/adapter/embedding"
	"healthrag/internal/adapter/retriever"
	"healthrag/internal/adapter/store"
	"healthrag/internal/domain"
	"healthrag/internal/usecase"
)

type cannedCompleter struct {
	answer string
}

func (c *cannedCompleter) Complete(context.Context, string) (string, error) {
	return c.answer, nil
}

func (c *cannedCompleter) ModelName() string { return "canned" }

func quietLogger() log.Logger {
	return log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func seedStore(t *testing.T) *store.MemoryDocStore {
	t.Helper()
	docStore := store.NewMemoryDocStore(embedding.NewHashEmbedder(64))
	docs := []domain.Document{
		{
			ID:      "e1",
			Content: "Lab Result for Patient 3. Description: Glucose test. Date: 2023-01-15.",
			Metadata: map[string]string{
				domain.MetaType: domain.TypeEvent,
				"patient_id":    "3",
				"provider_id":   "7",
			},
		},
		{
			ID:      "p1",
			Content: "Patient 3: F, born 1985-03-02, lives in Springfield, IL 62701. Has 1 medical events.",
			Metadata: map[string]string{
				domain.MetaType: domain.ActorPatient.ProfileType(),
				"patient_id":    "3",
			},
		},
	}
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Content
	}
	vectors, err := embedding.NewHashEmbedder(64).Embed(texts)
	if err != nil {
		t.Fatal(err)
	}
	if err := docStore.Add(context.Background(), docs, vectors); err != nil {
		t.Fatal(err)
	}
	return docStore
}

func testApp(t *testing.T, docStore *store.MemoryDocStore, withLLM bool) *Server {
	t.Helper()
	logger := quietLogger()

	var ask *usecase.AskUseCase
	if docStore != nil && withLLM {
		hybrid := retriever.NewHybridRetriever(docStore, logger, time.Second)
		ask = usecase.NewAskUseCase(hybrid, &cannedCompleter{answer: "Patient 3 had a glucose test."}, 100, 0)
	}

	var handler *Handler
	if docStore == nil {
		handler = NewHandler(nil, ask, logger)
	} else {
		handler = NewHandler(docStore, ask, logger)
	}
	return New("127.0.0.1:0", handler, logger)
}

func postQuery(t *testing.T, srv *Server, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/query", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	srv := testApp(t, seedStore(t), true)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	health := decode[HealthResponse](t, resp)
	if health.Status != "online" || !health.DatabaseLoaded || !health.LLMConnected {
		t.Errorf("unexpected health payload: %+v", health)
	}
}

func TestHandleQueryScoped(t *testing.T) {
	srv := testApp(t, seedStore(t), true)
	resp := postQuery(t, srv, `{"query": "what labs does patient 3 have?"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode[QueryResponse](t, resp)
	if out.ActorType != "patient" || out.ActorID != "3" {
		t.Errorf("actor scope not reported: %+v", out)
	}
	if out.Answer != "Patient 3 had a glucose test." {
		t.Errorf("answer = %q", out.Answer)
	}
	if out.NumDocumentsRetrieved == 0 || out.NumEvents == 0 {
		t.Errorf("retrieval counters empty: %+v", out)
	}
	for _, d := range out.Documents {
		if len(d.Content) > queryContentLimit {
			t.Errorf("document content not truncated: %d bytes", len(d.Content))
		}
		if d.Type == "" {
			t.Error("document type missing")
		}
	}
}

func TestHandleQueryValidation(t *testing.T) {
	srv := testApp(t, seedStore(t), true)

	resp := postQuery(t, srv, `{"max_results": 5}`)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("missing query: status = %d", resp.StatusCode)
	}
	verr := decode[ValidationError](t, resp)
	if _, ok := verr.Errors["Query"]; !ok {
		t.Errorf("expected a Query field error: %+v", verr)
	}

	resp = postQuery(t, srv, `{not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("malformed body: status = %d", resp.StatusCode)
	}
}

func TestHandleQueryUnavailable(t *testing.T) {
	// No index at all.
	srv := testApp(t, nil, false)
	resp := postQuery(t, srv, `{"query": "anything"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("no store: status = %d", resp.StatusCode)
	}

	// Index present, no model.
	srv = testApp(t, seedStore(t), false)
	resp = postQuery(t, srv, `{"query": "anything"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("no model: status = %d", resp.StatusCode)
	}
}

func TestHandleDebugActor(t *testing.T) {
	srv := testApp(t, seedStore(t), true)
	req := httptest.NewRequest(http.MethodGet, "/debug/patient/3", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	out := decode[DebugResponse](t, resp)
	if out.TotalDocuments != 2 || out.EventDocuments != 1 || out.ProfileDocuments != 1 {
		t.Errorf("unexpected debug counts: %+v", out)
	}
	for _, d := range out.SampleDocuments {
		if len(d.Content) > debugContentLimit {
			t.Errorf("sample content not truncated: %d bytes", len(d.Content))
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/debug/alien/3", nil)
	resp, err = srv.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown actor type: status = %d", resp.StatusCode)
	}
}

func TestHandleStats(t *testing.T) {
	srv := testApp(t, seedStore(t), true)
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	resp, err := srv.App().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	var stats map[string]int
	if err := json.Unmarshal(body, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["total_documents"] != 2 || stats["unique_patients"] != 1 || stats["total_events"] != 1 {
		t.Errorf("unexpected stats: %s", strings.TrimSpace(string(body)))
	}
}
