package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/phuslu/log"

	"healthrag/internal/domain"
	"healthrag/internal/port"
	"healthrag/internal/usecase"
)

const (
	// Document text is truncated in API responses.
	queryContentLimit = 500
	debugContentLimit = 200

	queryDocumentLimit = 20
	debugScanLimit     = 1000
	debugSampleLimit   = 5
)

// Handler serves the HTTP API. A nil store means no index has been built
// yet; a nil ask use case means no model is configured. Both surface as 503
// rather than startup failures so /health stays reachable.
type Handler struct {
	store  port.DocumentStore
	ask    *usecase.AskUseCase
	logger log.Logger
}

func NewHandler(store port.DocumentStore, ask *usecase.AskUseCase, logger log.Logger) *Handler {
	return &Handler{store: store, ask: ask, logger: logger}
}

func (h *Handler) HandleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:         "online",
		DatabaseLoaded: h.store != nil,
		LLMConnected:   h.ask != nil,
	})
}

func (h *Handler) HandleQuery(c *fiber.Ctx) error {
	if h.store == nil {
		return ErrDatabaseNotLoaded()
	}
	if h.ask == nil {
		return ErrLLMNotConnected()
	}

	var req QueryRequest
	if c.BodyParser(&req) != nil {
		return ErrBadRequest()
	}
	if errors := req.Validate(); len(errors) > 0 {
		return NewValidationError(errors)
	}

	answer, err := h.ask.AskN(c.Context(), req.Query, req.MaxResults)
	if err != nil {
		h.logger.Error().Err(err).Str("query", req.Query).Msg("query failed")
		return NewError(fiber.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	resp := QueryResponse{
		Answer:                answer.Text,
		NumDocumentsRetrieved: len(answer.Documents),
		NumEvents:             answer.NumEvents,
		Documents:             documentInfos(answer.Documents, queryDocumentLimit, queryContentLimit),
	}
	if answer.Scope.Type != "" {
		resp.ActorType = string(answer.Scope.Type)
		resp.ActorID = answer.Scope.ID
	}
	return c.JSON(resp)
}

func (h *Handler) HandleDebugActor(c *fiber.Ctx) error {
	if h.store == nil {
		return ErrDatabaseNotLoaded()
	}

	actorType := domain.ActorType(c.Params("actor_type"))
	if !actorType.Valid() {
		return NewError(fiber.StatusBadRequest, fmt.Sprintf("unknown actor type %q", actorType))
	}
	actorID := c.Params("actor_id")

	scope := domain.ActorScope{Type: actorType, ID: actorID}
	docs, err := h.store.SimilaritySearch(c.Context(), "", debugScanLimit, scope.Filter())
	if err != nil {
		h.logger.Error().Err(err).Str("actor_type", string(actorType)).Str("actor_id", actorID).Msg("debug scan failed")
		return NewError(fiber.StatusInternalServerError, fmt.Sprintf("debug failed: %v", err))
	}

	events := 0
	for _, d := range docs {
		if d.IsEvent() {
			events++
		}
	}

	return c.JSON(DebugResponse{
		ActorType:        string(actorType),
		ActorID:          actorID,
		TotalDocuments:   len(docs),
		EventDocuments:   events,
		ProfileDocuments: len(docs) - events,
		SampleDocuments:  documentInfos(docs, debugSampleLimit, debugContentLimit),
	})
}

func (h *Handler) HandleStats(c *fiber.Ctx) error {
	if h.store == nil {
		return ErrDatabaseNotLoaded()
	}

	stats, err := usecase.Stats(c.Context(), h.store)
	if err != nil {
		h.logger.Error().Err(err).Msg("stats scan failed")
		return NewError(fiber.StatusInternalServerError, fmt.Sprintf("stats failed: %v", err))
	}
	return c.JSON(stats)
}

func documentInfos(docs []domain.Document, docLimit, contentLimit int) []DocumentInfo {
	if len(docs) > docLimit {
		docs = docs[:docLimit]
	}
	infos := make([]DocumentInfo, len(docs))
	for i, d := range docs {
		content := d.Content
		if len(content) > contentLimit {
			content = content[:contentLimit]
		}
		docType := d.Type()
		if docType == "" {
			docType = "unknown"
		}
		infos[i] = DocumentInfo{
			Content:  content,
			Metadata: d.Metadata,
			Type:     docType,
		}
	}
	return infos
}
