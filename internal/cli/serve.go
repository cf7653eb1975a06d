package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"healthrag/internal/server"
	"healthrag/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API serving query, debug, stats and health endpoints.
A missing index or model key does not prevent startup; the affected
endpoints answer 503 until the dependency is available.

Example:
  healthrag serve --addr :8080`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	var handler *server.Handler
	if err := requireIndex(cfg); err != nil {
		logger.Warn().Err(err).Msg("starting without an index")
		handler = server.NewHandler(nil, nil, logger)
	} else {
		embedder, err := newEmbedder(cfg)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		docStore, err := openStore(cfg, embedder)
		if err != nil {
			return fmt.Errorf("failed to open index: %w", err)
		}
		defer docStore.Close()

		var askUC *usecase.AskUseCase
		if cfg.Completion.APIKey() == "" && cfg.Completion.Provider != "ollama" {
			logger.Warn().Str("env", cfg.Completion.APIKeyEnv).Msg("model key not set, starting without a model")
		} else {
			askUC, err = newAskUseCase(cfg, docStore)
			if err != nil {
				return fmt.Errorf("failed to create model client: %w", err)
			}
		}
		handler = server.NewHandler(docStore, askUC, logger)
	}

	srv := server.New(addr, handler, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		srv.Shutdown()
	}()

	return srv.Run()
}
