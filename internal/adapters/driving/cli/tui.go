package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui"
)

var tuiReadOnly bool

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui [subject-id]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for Marginalia.

Without an argument the TUI starts on the subject list. With a subject ID it
opens that subject directly.

Controls:
  ↑/k, ↓/j - Navigate
  Enter    - Open / Confirm
  v        - Start a selection (text)
  a        - Annotate the selection (text)
  s        - Place a stamp (document)
  Esc      - Back / Cancel
  ?        - Toggle help
  q        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().BoolVar(&tuiReadOnly, "read-only", false, "open subjects without allowing changes")
	rootCmd.AddCommand(tuiCmd)
}

// newTUIApp builds the application for the given arguments.
func newTUIApp(cmd *cobra.Command, args []string) (*tui.App, error) {
	review, err := requireReview()
	if err != nil {
		return nil, err
	}

	app, err := tui.NewApp(tui.NewPorts(review, settingsService))
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithReadOnly(tuiReadOnly)
	if len(args) == 1 {
		app.WithSubject(args[0])
	}
	return app, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newTUIApp(cmd, args)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
