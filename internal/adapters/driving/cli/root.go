// Package cli provides the cobra command tree for the citeline binary.
package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeline/internal/core/ports/driven"
	"github.com/custodia-labs/citeline/internal/core/ports/driving"
	"github.com/custodia-labs/citeline/internal/logger"
)

// version is set by Execute from the build.
var version = "dev"

// Persistent flags.
var (
	cfgPath string
	dataDir string
	verbose bool
)

// Wired services, populated by initServices (or by tests).
var (
	ingestService driving.Ingestor
	askService    driving.Asker
	vectorStore   driven.VectorStore
	sourceCatalog driven.SourceCatalog
	defaultTopK   int
	listenAddr    string

	closers []io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "citeline",
	Short: "Question answering over your documents, with citations",
	Long: `Citeline ingests plain-text documents into a local vector index and
answers questions about them using only the retrieved context. Every
answer carries citations back to the chunks it was grounded on, and
questions the corpus cannot support are refused rather than guessed.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		logger.SetOutput(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.citeline/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.citeline/data)")
}

// Execute runs the root command. v is the build version string.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	defer closeServices()
	return rootCmd.Execute()
}

func closeServices() {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("Closing service: %v", err)
		}
	}
	closers = nil
}
