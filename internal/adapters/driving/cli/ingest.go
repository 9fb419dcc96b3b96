package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestSourceID string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest plain-text documents into the index",
	Long: `Reads each file, splits it into overlapping chunks, embeds the chunks
and appends them to the local vector index. The source ID defaults to the
file name; ingesting the same source twice appends new chunks rather than
replacing the old ones.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSourceID, "source-id", "", "source ID (single file only, default: file name)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		if err := initServices(false); err != nil {
			return err
		}
	}
	if ingestSourceID != "" && len(args) > 1 {
		return errors.New("--source-id is only valid with a single file")
	}

	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		sourceID := ingestSourceID
		if sourceID == "" {
			sourceID = filepath.Base(path)
		}

		metadata := map[string]any{"path": path}
		result, err := ingestService.Ingest(cmd.Context(), sourceID, string(data), metadata)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}
		cmd.Printf("Ingested %s: %d chunks\n", result.SourceID, result.ChunksAdded)
	}
	return nil
}
