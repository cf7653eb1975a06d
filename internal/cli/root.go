package cli

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"healthrag/config"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	logger  log.Logger
)

var rootCmd = &cobra.Command{
	Use:   "healthrag",
	Short: "Healthcare warehouse RAG - index patient data and answer questions over it",
	Long: `healthrag indexes a healthcare data warehouse export (star-schema CSVs)
into a vector store and answers natural language questions over it with
hybrid retrieval scoped to the patient, provider, organization or payer
mentioned in the question.

Example usage:
  healthrag index ./export               # Build the index from warehouse CSVs
  healthrag query -q "tell me about patient 3"
  healthrag serve                        # Start the HTTP API`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = log.Logger{
			Level:  log.ParseLevel(cfg.Logging.Level),
			Writer: &log.ConsoleWriter{Writer: os.Stderr},
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./healthrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
