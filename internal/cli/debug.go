package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"healthrag/internal/domain"
)

var debugCmd = &cobra.Command{
	Use:   "debug <actor-type> <actor-id>",
	Short: "Dump indexed documents for one actor",
	Long: `List every indexed document carrying the given actor's id, split into
events and profiles. Useful for checking what the retriever can see.

Example:
  healthrag debug patient 3`,
	Args: cobra.ExactArgs(2),
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	actorType := domain.ActorType(args[0])
	if !actorType.Valid() {
		return fmt.Errorf("unknown actor type %q (patient, provider, organization or payer)", args[0])
	}
	scope := domain.ActorScope{Type: actorType, ID: args[1]}

	if err := requireIndex(cfg); err != nil {
		return err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}
	docStore, err := openStore(cfg, embedder)
	if err != nil {
		return fmt.Errorf("failed to open index: %w", err)
	}
	defer docStore.Close()

	docs, err := docStore.SimilaritySearch(cmd.Context(), "", 1000, scope.Filter())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	events := 0
	for _, d := range docs {
		if d.IsEvent() {
			events++
		}
	}

	fmt.Printf("%s %s: %d documents (%d events, %d profiles)\n\n",
		actorType, scope.ID, len(docs), events, len(docs)-events)
	for i, d := range docs {
		fmt.Printf("[%d] (%s) %s\n", i+1, d.Type(), d.Content)
	}
	return nil
}
