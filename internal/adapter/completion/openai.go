package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// OpenAICompleter calls an OpenAI-compatible /chat/completions endpoint.
// The same client covers OpenAI, Groq, and local Ollama deployments.
type OpenAICompleter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *chatError   `json:"error,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAICompleter(apiKeyEnv, model string) (*OpenAICompleter, error) {
	return NewOpenAICompatibleCompleter(apiKeyEnv, model, "https://api.openai.com/v1")
}

// NewGroqCompleter targets Groq's hosted endpoint, which speaks the OpenAI
// chat protocol.
func NewGroqCompleter(apiKeyEnv, model string) (*OpenAICompleter, error) {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	return NewOpenAICompatibleCompleter(apiKeyEnv, model, "https://api.groq.com/openai/v1")
}

func NewOllamaCompleter(model, baseURL string) *OpenAICompleter {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return &OpenAICompleter{
		apiKey:  "ollama",
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

func NewOpenAICompatibleCompleter(apiKeyEnv, model, baseURL string) (*OpenAICompleter, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return &OpenAICompleter{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	jsonData, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("API error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func (c *OpenAICompleter) ModelName() string {
	return c.model
}
