package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/citeline/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive ask session",
	Long: `Launch an interactive terminal session for asking questions over the
ingested documents.

Controls:
  Enter       - Ask the typed question
  ↑/↓, PgUp/PgDn - Scroll the answer
  Ctrl-C      - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Panic recovery so a TUI crash still prints a usable stack trace.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	if askService == nil {
		if err := initServices(true); err != nil {
			return err
		}
	}

	summary := "index ready"
	if vectorStore != nil {
		summary = fmt.Sprintf("%d chunks indexed", vectorStore.Len())
	}
	model := tui.New(cmd.Context(), askService, summary)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
