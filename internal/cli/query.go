package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	queryText     string
	queryJSON     bool
	queryShowDocs bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Ask a question over the indexed warehouse",
	Long: `Ask a natural language question. The question is scoped to the actor it
mentions (patient, provider, organization or payer) and answered from the
retrieved documents only.

Examples:
  healthrag query -q "what medications does patient 3 have?"
  healthrag query -q "tell me about provider 1" --show-docs
  healthrag query -q "who is covered by payer 2?" --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "question to ask (required)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.Flags().BoolVar(&queryShowDocs, "show-docs", false, "print retrieved documents")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

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

	askUC, err := newAskUseCase(cfg, docStore)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	answer, err := askUC.Ask(cmd.Context(), queryText)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		out := map[string]any{
			"answer":                  answer.Text,
			"num_documents_retrieved": len(answer.Documents),
			"num_events":              answer.NumEvents,
		}
		if answer.Scope.Scoped() {
			out["actor_type"] = string(answer.Scope.Type)
			out["actor_id"] = answer.Scope.ID
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return nil
	}

	if answer.Scope.Scoped() {
		fmt.Printf("Scope: %s %s\n\n", answer.Scope.Type, answer.Scope.ID)
	}
	fmt.Println(answer.Text)
	fmt.Printf("\nRetrieved %d documents (%d events)\n", len(answer.Documents), answer.NumEvents)

	if queryShowDocs {
		fmt.Println()
		for i, d := range answer.Documents {
			if i >= 20 {
				fmt.Printf("... and %d more\n", len(answer.Documents)-i)
				break
			}
			fmt.Printf("[%d] (%s) %s\n", i+1, d.Type(), d.Content)
		}
	}
	return nil
}
