package cli

import (
	"fmt"
	"os"
	"time"

	"healthrag/config"
	"healthrag/internal/adapter/completion"
	"healthrag/internal/adapter/embedding"
	"healthrag/internal/adapter/retriever"
	"healthrag/internal/adapter/store"
	"healthrag/internal/port"
	"healthrag/internal/usecase"
)

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e := cfg.Embedding
	switch e.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model)
	case "jina":
		return embedding.NewJinaEmbedder(e.APIKeyEnv, e.Model)
	case "ollama":
		return embedding.NewOllamaEmbedder(e.Model, "")
	case "hash":
		return embedding.NewHashEmbedder(e.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
}

func newCompleter(cfg *config.Config) (port.Completer, error) {
	c := cfg.Completion
	switch c.Provider {
	case "anthropic":
		return completion.NewAnthropicCompleter(c.APIKeyEnv, c.Model, c.MaxTokens)
	case "groq":
		return completion.NewGroqCompleter(c.APIKeyEnv, c.Model)
	case "openai":
		return completion.NewOpenAICompleter(c.APIKeyEnv, c.Model)
	case "ollama":
		return completion.NewOllamaCompleter(c.Model, ""), nil
	default:
		return nil, fmt.Errorf("unsupported completion provider: %s", c.Provider)
	}
}

func openStore(cfg *config.Config, embedder port.Embedder) (*store.BoltDocStore, error) {
	return store.NewBoltDocStore(cfg.Store.Path, embedder)
}

func requireIndex(cfg *config.Config) error {
	if _, err := os.Stat(cfg.Store.Path); os.IsNotExist(err) {
		return fmt.Errorf("no index found at %s. Run 'healthrag index' first", cfg.Store.Path)
	}
	return nil
}

func newAskUseCase(cfg *config.Config, docStore port.DocumentStore) (*usecase.AskUseCase, error) {
	completer, err := newCompleter(cfg)
	if err != nil {
		return nil, err
	}
	hybrid := retriever.NewHybridRetriever(docStore, logger,
		time.Duration(cfg.Retrieve.SearchTimeoutSeconds)*time.Second)
	return usecase.NewAskUseCase(hybrid, completer, cfg.Retrieve.MaxResults, cfg.Retrieve.ContextTokenBudget), nil
}
