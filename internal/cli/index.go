package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"healthrag/config"
	"healthrag/internal/usecase"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Build the index from a warehouse export",
	Long: `Build the vector index from a healthcare warehouse export directory
containing the star-schema CSV tables (fact_patient_events.csv plus the
patient, provider, organization and payer dimensions).

Examples:
  healthrag index ./export
  healthrag index /data/warehouse/2023-06-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()

	if err := config.EnsureStateDir(cfg.Store.Path); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	docStore, err := openStore(cfg, embedder)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer docStore.Close()

	indexUC := usecase.NewIndexUseCase(docStore, embedder)

	fmt.Printf("Loading warehouse export from %s...\n", path)

	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var initialized bool

	progressCallback := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()

		if !initialized {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
			initialized = true
		}
		bar.Set(done)
	}

	result, err := indexUC.Index(cmd.Context(), path, progressCallback)
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Printf("\nIndexing complete:\n")
	fmt.Printf("  Event rows:         %d\n", result.EventRows)
	fmt.Printf("  Documents indexed:  %d\n", result.DocumentsIndexed)
	fmt.Printf("  Patient profiles:   %d\n", result.PatientProfiles)
	fmt.Printf("  Provider profiles:  %d\n", result.ProviderProfiles)
	fmt.Printf("  Org profiles:       %d\n", result.OrgProfiles)
	fmt.Printf("  Payer profiles:     %d\n", result.PayerProfiles)

	fmt.Printf("\nIndex stored at: %s\n", cfg.Store.Path)
	return nil
}
