package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List ingestion history",
	Long: `Lists every recorded ingestion, most recent first. A source ID that
appears more than once was ingested multiple times; all of its chunks
remain in the index.`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, _ []string) error {
	if sourceCatalog == nil {
		if err := initServices(false); err != nil {
			return err
		}
	}
	if sourceCatalog == nil {
		return errors.New("source catalog not available")
	}

	records, err := sourceCatalog.ListSources(cmd.Context())
	if err != nil {
		return err
	}

	if len(records) == 0 {
		cmd.Println("No sources ingested yet.")
		return nil
	}

	for _, r := range records {
		cmd.Printf("  %s  %-30s %d chunks\n", r.IngestedAt.Local().Format(time.DateTime), r.SourceID, r.ChunksAdded)
	}
	return nil
}
