package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Query      string `json:"query" validate:"required"`
	MaxResults int    `json:"max_results" validate:"omitempty,gte=1"`
}

func (r *QueryRequest) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

// DocumentInfo is the wire form of a retrieved document. Content is
// truncated before it gets here.
type DocumentInfo struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Type     string            `json:"type"`
}

type QueryResponse struct {
	Answer                string         `json:"answer"`
	ActorType             string         `json:"actor_type,omitempty"`
	ActorID               string         `json:"actor_id,omitempty"`
	NumDocumentsRetrieved int            `json:"num_documents_retrieved"`
	NumEvents             int            `json:"num_events"`
	Documents             []DocumentInfo `json:"documents"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	DatabaseLoaded bool   `json:"database_loaded"`
	LLMConnected   bool   `json:"llm_connected"`
}

type DebugResponse struct {
	ActorType        string         `json:"actor_type"`
	ActorID          string         `json:"actor_id"`
	TotalDocuments   int            `json:"total_documents"`
	EventDocuments   int            `json:"event_documents"`
	ProfileDocuments int            `json:"profile_documents"`
	SampleDocuments  []DocumentInfo `json:"sample_documents"`
}

// Error is the JSON error envelope for every non-2xx response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e Error) Error() string { return e.Message }

func NewError(code int, msg string) Error {
	return Error{Code: code, Message: msg}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string { return "validation failed" }

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{Status: fiber.StatusUnprocessableEntity, Errors: errors}
}

func ErrBadRequest() Error {
	return NewError(fiber.StatusBadRequest, "invalid JSON request")
}

func ErrDatabaseNotLoaded() Error {
	return NewError(fiber.StatusServiceUnavailable, "database not loaded, build the index first")
}

func ErrLLMNotConnected() Error {
	return NewError(fiber.StatusServiceUnavailable, "model not connected, check the API key")
}
