package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"healthrag/internal/adapter/analyzer"
	"healthrag/internal/domain"
	"healthrag/internal/port"
)

// NoAnswerText is returned verbatim when retrieval produces nothing. The
// model is never called in that case.
const NoAnswerText = "I don't know - no relevant documents found."

const promptTemplate = `You are a Healthcare Data Warehouse Analyst with comprehensive access to patient records.
Answer using ONLY the provided context below.
If information is not in the context, say "I don't know".

IMPORTANT INSTRUCTIONS:
1. The context contains multiple document chunks - read ALL of them carefully
2. Event documents contain detailed information about specific medical events
3. Profile documents provide summary statistics and demographics
4. Provide specific details from events when available, not just summaries

Context:
%s

Question: %s

Answer (be specific, detailed, and use information from the context):
`

const contextEncoding = "cl100k_base"

// AskUseCase answers a natural language question over the indexed warehouse.
type AskUseCase struct {
	retriever port.Retriever
	completer port.Completer

	maxResults  int
	tokenBudget int
}

// NewAskUseCase creates a new ask use case. maxResults bounds how many
// retrieved documents feed the prompt; tokenBudget additionally caps the
// context in model tokens (0 disables the cap).
func NewAskUseCase(retriever port.Retriever, completer port.Completer, maxResults, tokenBudget int) *AskUseCase {
	if maxResults <= 0 {
		maxResults = 100
	}
	return &AskUseCase{
		retriever:   retriever,
		completer:   completer,
		maxResults:  maxResults,
		tokenBudget: tokenBudget,
	}
}

// Ask detects the actor scope in the question, retrieves supporting
// documents and asks the model for an answer grounded in them.
func (u *AskUseCase) Ask(ctx context.Context, query string) (*domain.Answer, error) {
	return u.AskN(ctx, query, u.maxResults)
}

// AskN is Ask with a per-call document cap, used by the HTTP API where the
// caller can override max_results.
func (u *AskUseCase) AskN(ctx context.Context, query string, maxResults int) (*domain.Answer, error) {
	if maxResults <= 0 {
		maxResults = u.maxResults
	}

	scope := analyzer.DetectActor(query)
	docs := u.retriever.Retrieve(ctx, query, scope)

	answer := &domain.Answer{
		Scope:     scope,
		Documents: docs,
	}

	kept := docs
	if len(kept) > maxResults {
		kept = kept[:maxResults]
	}
	for _, d := range kept {
		if d.IsEvent() {
			answer.NumEvents++
		}
	}

	if len(docs) == 0 {
		answer.Text = NoAnswerText
		return answer, nil
	}

	contextText, err := u.buildContext(kept)
	if err != nil {
		return nil, err
	}

	text, err := u.completer.Complete(ctx, fmt.Sprintf(promptTemplate, contextText, query))
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	answer.Text = text
	return answer, nil
}

// buildContext joins document contents, dropping the tail once the token
// budget is spent. At least one document always survives.
func (u *AskUseCase) buildContext(docs []domain.Document) (string, error) {
	if u.tokenBudget <= 0 {
		return joinContents(docs), nil
	}

	enc, err := tiktoken.GetEncoding(contextEncoding)
	if err != nil {
		return "", fmt.Errorf("failed to load tokenizer: %w", err)
	}

	used := 0
	kept := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		n := len(enc.Encode(d.Content, nil, nil))
		if len(kept) > 0 && used+n > u.tokenBudget {
			break
		}
		kept = append(kept, d)
		used += n
	}
	return joinContents(kept), nil
}

func joinContents(docs []domain.Document) string {
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content
	}
	return strings.Join(parts, "\n\n")
}
