package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

var (
	annotateStart       int
	annotateEnd         int
	annotatePhrase      string
	annotateOccurrence  int
	annotateKind        string
	annotateReplacement string
	annotateNote        string
	annotateJSON        bool
	renderPlain         bool
	renderFollow        bool
)

const clearScreen = "\033[H\033[2J"

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Manage annotations on a text subject",
	Long: `Create, list, update, delete and render annotations on a text subject.

Offsets count characters (not bytes) from the start of the text. A range is
half-open: --start 3 --end 8 covers characters 3 through 7.`,
}

var annotateAddCmd = &cobra.Command{
	Use:   "add [subject-id]",
	Short: "Annotate a range of a text",
	Long: `Annotate a character range, given either as --start/--end offsets or as
the --occurrence-th occurrence of --phrase.

Examples:
  marginalia annotate add s-1 --phrase tiene --replacement tengo --kind grammar
  marginalia annotate add s-1 --start 0 --end 10 --kind coherence --note "too long"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotateAdd,
}

var annotateListCmd = &cobra.Command{
	Use:   "list [subject-id]",
	Short: "List annotations in insertion order",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotateList,
}

var annotateUpdateCmd = &cobra.Command{
	Use:   "update [subject-id] [annotation-id]",
	Short: "Change kind, replacement or note of an annotation",
	Long:  `Only the flags that are given are changed. The range never changes.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runAnnotateUpdate,
}

var annotateDeleteCmd = &cobra.Command{
	Use:   "delete [subject-id] [annotation-id]",
	Short: "Delete an annotation",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnnotateDelete,
}

var annotateRenderCmd = &cobra.Command{
	Use:   "render [subject-id]",
	Short: "Print the text with its annotations",
	Long: `Print the text with annotated runs highlighted. On a terminal the runs are
colored; otherwise (or with --plain) they are bracketed, for example
"Yo [tiene → tengo|grammar] un gato".

With --follow the text is re-rendered whenever the subject changes, including
changes made by another process when the file backend is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotateRender,
}

func init() {
	annotateAddCmd.Flags().IntVar(&annotateStart, "start", -1, "start offset (inclusive)")
	annotateAddCmd.Flags().IntVar(&annotateEnd, "end", -1, "end offset (exclusive)")
	annotateAddCmd.Flags().StringVarP(&annotatePhrase, "phrase", "p", "", "annotate an occurrence of this phrase")
	annotateAddCmd.Flags().IntVar(&annotateOccurrence, "occurrence", 1, "which occurrence of --phrase")
	annotateAddCmd.Flags().StringVarP(&annotateKind, "kind", "k", "", "annotation kind (default from settings)")
	annotateAddCmd.Flags().StringVarP(&annotateReplacement, "replacement", "r", "", "replacement text")
	annotateAddCmd.Flags().StringVarP(&annotateNote, "note", "n", "", "explanatory note")

	annotateUpdateCmd.Flags().StringVarP(&annotateKind, "kind", "k", "", "annotation kind")
	annotateUpdateCmd.Flags().StringVarP(&annotateReplacement, "replacement", "r", "", "replacement text")
	annotateUpdateCmd.Flags().StringVarP(&annotateNote, "note", "n", "", "explanatory note")

	annotateListCmd.Flags().BoolVar(&annotateJSON, "json", false, "output as JSON")
	annotateRenderCmd.Flags().BoolVar(&renderPlain, "plain", false, "bracket annotations instead of coloring them")
	annotateRenderCmd.Flags().BoolVarP(&renderFollow, "follow", "f", false, "re-render when the subject changes")

	annotateCmd.AddCommand(annotateAddCmd)
	annotateCmd.AddCommand(annotateListCmd)
	annotateCmd.AddCommand(annotateUpdateCmd)
	annotateCmd.AddCommand(annotateDeleteCmd)
	annotateCmd.AddCommand(annotateRenderCmd)
	rootCmd.AddCommand(annotateCmd)
}

func openTextSession(cmd *cobra.Command, id string, readOnly bool) (driving.TextSession, error) {
	review, err := requireReview()
	if err != nil {
		return nil, err
	}
	session, err := review.OpenText(cmd.Context(), id, driving.SessionOptions{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("failed to open subject: %w", err)
	}
	if session.Stale() {
		cmd.PrintErrln("Warning: the subject text changed since it was stored; offsets may drift")
	}
	return session, nil
}

func runAnnotateAdd(cmd *cobra.Command, args []string) error {
	session, err := openTextSession(cmd, args[0], false)
	if err != nil {
		return err
	}
	annotator := session.Annotator()

	start, end, err := annotationRange(annotator.Text())
	if err != nil {
		return err
	}

	// The whole text is one rendered segment.
	surface := geometry.NewSegmentMap([]domain.Segment{{ID: 0, Text: annotator.Text()}})
	sel := domain.Selection{
		Anchor: domain.SurfacePosition{Segment: 0, Offset: start},
		Focus:  domain.SurfacePosition{Segment: 0, Offset: end},
	}
	if _, ok := annotator.CaptureSelection(surface, sel); !ok {
		return fmt.Errorf("%w: range [%d, %d) is empty or outside the text", domain.ErrNoSelection, start, end)
	}

	kind, err := resolveKind(annotateKind)
	if err != nil {
		return err
	}

	a, err := annotator.Create(kind, annotateReplacement, annotateNote)
	if err != nil {
		return fmt.Errorf("failed to add annotation: %w", err)
	}
	if err := session.Err(); err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}

	cmd.Printf("Added annotation %s [%d, %d) %q\n", a.ID, a.Start, a.End, a.OriginalText)
	return nil
}

func runAnnotateList(cmd *cobra.Command, args []string) error {
	session, err := openTextSession(cmd, args[0], true)
	if err != nil {
		return err
	}
	annotations := session.Annotator().Annotations()

	if annotateJSON {
		return printJSON(cmd, annotations)
	}

	if len(annotations) == 0 {
		cmd.Println("No annotations.")
		return nil
	}

	cmd.Printf("Annotations on %s:\n", session.Subject().Title)
	cmd.Println()
	for i := range annotations {
		a := &annotations[i]
		cmd.Printf("  %s  %-10s [%d, %d)  %q", a.ID, a.Kind, a.Start, a.End, a.OriginalText)
		if a.Replacement != "" {
			cmd.Printf(" → %q", a.Replacement)
		}
		cmd.Println()
		if a.Note != "" {
			cmd.Printf("      %s\n", a.Note)
		}
	}
	return nil
}

func runAnnotateUpdate(cmd *cobra.Command, args []string) error {
	session, err := openTextSession(cmd, args[0], false)
	if err != nil {
		return err
	}
	annotator := session.Annotator()

	current, ok := annotator.Get(args[1])
	if !ok {
		return fmt.Errorf("annotation %s: %w", args[1], domain.ErrNotFound)
	}

	kind := current.Kind
	if cmd.Flags().Changed("kind") {
		kind = domain.Kind(annotateKind)
	}
	replacement := current.Replacement
	if cmd.Flags().Changed("replacement") {
		replacement = annotateReplacement
	}
	note := current.Note
	if cmd.Flags().Changed("note") {
		note = annotateNote
	}

	a, err := annotator.Update(current.ID, kind, replacement, note)
	if err != nil {
		return fmt.Errorf("failed to update annotation: %w", err)
	}
	if err := session.Err(); err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}

	cmd.Printf("Updated annotation %s\n", a.ID)
	return nil
}

func runAnnotateDelete(cmd *cobra.Command, args []string) error {
	session, err := openTextSession(cmd, args[0], false)
	if err != nil {
		return err
	}
	annotator := session.Annotator()

	if _, ok := annotator.Get(args[1]); !ok {
		return fmt.Errorf("annotation %s: %w", args[1], domain.ErrNotFound)
	}
	if err := annotator.Delete(args[1]); err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}
	if err := session.Err(); err != nil {
		return fmt.Errorf("failed to save annotations: %w", err)
	}

	cmd.Printf("Deleted annotation %s\n", args[1])
	return nil
}

func runAnnotateRender(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var st *markerStyles
	ansi := !renderPlain && isTerminal(out)
	if ansi {
		st = newMarkerStyles(lipgloss.NewRenderer(out))
	}

	render := func() error {
		session, err := openTextSession(cmd, args[0], true)
		if err != nil {
			return err
		}
		annotator := session.Annotator()
		cmd.Println(formatRuns(annotator.Render(), st))
		if notes := formatNotes(annotator.Annotations(), st); notes != "" {
			cmd.Println()
			cmd.Print(notes)
		}
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if !renderFollow {
		return nil
	}

	review, err := requireReview()
	if err != nil {
		return err
	}
	changes, err := review.Watch(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to follow subject: %w", err)
	}
	for range changes {
		logger.Debug("subject %s changed, re-rendering", args[0])
		if ansi {
			cmd.Print(clearScreen)
		} else {
			cmd.Println("---")
		}
		if err := render(); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				cmd.Println("Subject removed.")
				return nil
			}
			return err
		}
	}
	return nil
}

// annotationRange resolves the range flags against text.
func annotationRange(text string) (int, int, error) {
	if annotatePhrase != "" {
		start, end, ok := geometry.FindPhrase(text, annotatePhrase, annotateOccurrence)
		if !ok {
			return 0, 0, fmt.Errorf("%w: phrase %q (occurrence %d) not found",
				domain.ErrNoSelection, annotatePhrase, annotateOccurrence)
		}
		return start, end, nil
	}
	if annotateStart < 0 || annotateEnd < 0 {
		return 0, 0, errors.New("give --start and --end, or --phrase")
	}
	return annotateStart, annotateEnd, nil
}

// resolveKind parses a kind flag, falling back to the configured default.
func resolveKind(value string) (domain.Kind, error) {
	if value == "" {
		if settingsService != nil {
			if settings, err := settingsService.Get(); err == nil {
				return settings.Text.DefaultKind, nil
			}
		}
		return domain.KindGrammar, nil
	}
	kind := domain.Kind(value)
	if !kind.IsValid() {
		return "", fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidInput, value)
	}
	return kind, nil
}
