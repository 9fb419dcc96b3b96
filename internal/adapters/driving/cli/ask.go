package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeline/internal/core/domain"
)

var (
	askTopK int
	askJSON bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the ingested documents",
	Long: `Retrieves the most relevant chunks for the question and generates an
answer grounded in them. Each answer lists the chunks it cites. When the
retrieved context is too thin to answer from, the command reports a
refusal instead of guessing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		if err := initServices(true); err != nil {
			return err
		}
	}
	if askService == nil {
		return errors.New("ask service not configured")
	}

	answer, err := askService.Ask(cmd.Context(), args[0], askTopK)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}
	return outputAnswerText(cmd, answer)
}

func outputAnswerJSON(cmd *cobra.Command, answer domain.Answer) error {
	data, err := json.MarshalIndent(answer, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswerText(cmd *cobra.Command, answer domain.Answer) error {
	cmd.Println(answer.Answer)

	switch answer.RefusalReason {
	case domain.RefusalInsufficientContext:
		cmd.Println("\n(refused: not enough relevant context in the index)")
	case domain.RefusalModelRefused:
		cmd.Println("\n(refused: the model declined to answer from the context)")
	}

	if len(answer.Citations) == 0 {
		return nil
	}

	cmd.Println("\nCitations:")
	for i, c := range answer.Citations {
		cmd.Printf("  [%d] %s (source=%s, score=%.3f)\n", i+1, c.ChunkID, c.SourceID, c.Score)
		if c.Quote != "" {
			cmd.Printf("      %s\n", c.Quote)
		}
	}
	return nil
}
