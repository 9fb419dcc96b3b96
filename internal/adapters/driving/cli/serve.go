package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeline/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serves the ingestion and question-answering API over HTTP.

Endpoints:
  GET  /health   index statistics
  POST /ingest   ingest a document
  POST /ask      ask a question, answers carry citations
  GET  /sources  ingestion history`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := initServices(true); err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = listenAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := httpapi.New(ingestService, askService, vectorStore, sourceCatalog)
	return server.Run(ctx, addr)
}
