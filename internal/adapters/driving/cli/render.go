package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

// markerStyles are the ANSI styles for annotated runs. Annotated text is
// coloured by kind with the TUI palette.
type markerStyles struct {
	theme       *styles.Theme
	original    lipgloss.Style
	replacement lipgloss.Style
	comment     lipgloss.Style
	note        lipgloss.Style
}

func newMarkerStyles(r *lipgloss.Renderer) *markerStyles {
	theme := styles.DefaultTheme()
	return &markerStyles{
		theme:       theme,
		original:    r.NewStyle().Foreground(theme.Correction).Strikethrough(true),
		replacement: r.NewStyle().Foreground(lipgloss.Color("#22C55E")).Bold(true),
		comment:     r.NewStyle().Foreground(theme.Comment).Underline(true),
		note:        r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).Italic(true),
	}
}

// forRun returns the style for annotated text of a.
func (st *markerStyles) forRun(a *domain.Annotation) lipgloss.Style {
	if a.Replacement == "" {
		return st.comment.Foreground(st.theme.KindColor(a.Kind, st.theme.Comment))
	}
	return st.original.Foreground(st.theme.KindColor(a.Kind, st.theme.Correction))
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatRuns renders runs as text, bracketed when st is nil.
func formatRuns(runs []domain.Run, st *markerStyles) string {
	if st == nil {
		return services.PlainMarkup(runs)
	}

	var sb strings.Builder
	for _, run := range runs {
		if !run.Styled() {
			sb.WriteString(run.Text)
			continue
		}

		a := run.Annotation
		sb.WriteString(st.forRun(a).Render(run.Text))
		if a.Replacement != "" && run.End == a.End {
			sb.WriteString(st.replacement.Render(a.Replacement))
		}
	}
	return sb.String()
}

// formatNotes lists the notes of the annotations in list order.
func formatNotes(annotations []domain.Annotation, st *markerStyles) string {
	var sb strings.Builder
	for i := range annotations {
		a := &annotations[i]
		if a.Note == "" {
			continue
		}
		line := "  * " + a.OriginalText + " (" + a.Kind.String() + "): " + a.Note
		if st != nil {
			line = st.note.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
