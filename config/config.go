package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the healthcare RAG service.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Completion CompletionConfig `yaml:"completion"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig holds vector store configuration.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "jina", "ollama", "hash"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for the API key
	Dimension int    `yaml:"dimension"`
}

// CompletionConfig holds answer model configuration.
type CompletionConfig struct {
	Provider  string `yaml:"provider"` // "anthropic", "groq", "ollama", "openai"
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	MaxTokens int    `yaml:"max_tokens"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	SearchTimeoutSeconds int `yaml:"search_timeout_seconds"` // Per-strategy timeout
	MaxResults           int `yaml:"max_results"`            // Documents fed to the prompt
	ContextTokenBudget   int `yaml:"context_token_budget"`   // 0 = unlimited
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: filepath.Join(".healthrag", "index.db"),
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
		Completion: CompletionConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			MaxTokens: 2048,
		},
		Retrieve: RetrieveConfig{
			SearchTimeoutSeconds: 30,
			MaxResults:           100,
			ContextTokenBudget:   0,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for healthrag.yaml,
// then .healthrag/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "healthrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".healthrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// APIKey resolves the embedding API key from the environment.
func (e EmbeddingConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// APIKey resolves the completion API key from the environment.
func (c CompletionConfig) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}

// EnsureStateDir ensures the directory holding the index database exists.
func EnsureStateDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
