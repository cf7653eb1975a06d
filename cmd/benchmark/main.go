package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"

	"healthrag/config"
	"healthrag/internal/adapter/analyzer"
	"healthrag/internal/adapter/embedding"
	"healthrag/internal/adapter/retriever"
	"healthrag/internal/adapter/store"
	"healthrag/internal/port"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	query := flag.String("q", "", "Query to test")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run cmd/benchmark/main.go -q \"what labs does patient 3 have?\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Store infrastructure (index present, embedder connection)")
		fmt.Println("  2. Actor detection and query expansion")
		fmt.Println("  3. Hybrid retrieval (per-query timing and event split)")
		os.Exit(1)
	}

	var cfg *config.Config
	var err error
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating embedder: %v\n", err)
		os.Exit(1)
	}

	docStore, err := store.NewBoltDocStore(cfg.Store.Path, embedder)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	defer docStore.Close()

	fmt.Println("HYBRID RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))

	count, _ := docStore.Count()
	fmt.Printf("Documents indexed: %d\n", count)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", embedder.Dimension())
	fmt.Println()

	scope := analyzer.DetectActor(*query)
	expanded := analyzer.ExpandQuery(*query)

	fmt.Printf("Query: %q\n", *query)
	if scope.Scoped() {
		fmt.Printf("Scope: %s %s\n", scope.Type, scope.ID)
	} else {
		fmt.Println("Scope: none (corpus-wide)")
	}
	if expanded != *query {
		fmt.Printf("Expanded: %q\n", expanded)
	}
	fmt.Println(strings.Repeat("-", 70))

	quiet := log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
	hybrid := retriever.NewHybridRetriever(docStore, quiet,
		time.Duration(cfg.Retrieve.SearchTimeoutSeconds)*time.Second)

	start := time.Now()
	docs := hybrid.Retrieve(context.Background(), *query, scope)
	elapsed := time.Since(start)

	events := 0
	for _, d := range docs {
		if d.IsEvent() {
			events++
		}
	}

	fmt.Printf("Retrieved: %d documents (%d events, %d profiles)\n", len(docs), events, len(docs)-events)
	fmt.Printf("Elapsed:   %s\n\n", elapsed)

	for i, d := range docs {
		if i >= 10 {
			fmt.Printf("... and %d more\n", len(docs)-i)
			break
		}
		content := d.Content
		if len(content) > 120 {
			content = content[:120] + "..."
		}
		fmt.Printf("%2d. (%s) %s\n", i+1, d.Type(), content)
	}
}

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
