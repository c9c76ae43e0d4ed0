// Package styles provides colour themes and styling for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Theme defines the colour palette and styling for the TUI.
type Theme struct {
	// Primary is the main accent colour.
	Primary lipgloss.Color

	// Secondary is the secondary accent colour.
	Secondary lipgloss.Color

	// Foreground is the default text colour.
	Foreground lipgloss.Color

	// Muted is for less important text.
	Muted lipgloss.Color

	// Success indicates positive outcomes.
	Success lipgloss.Color

	// Warning indicates caution.
	Warning lipgloss.Color

	// Error indicates problems.
	Error lipgloss.Color

	// Border is the border colour.
	Border lipgloss.Color

	// Correction paints replaced text.
	Correction lipgloss.Color

	// Comment paints text that only carries a note.
	Comment lipgloss.Color

	// Selection highlights the range being selected.
	Selection lipgloss.Color

	// Kinds colours annotated text by annotation kind. A kind missing here
	// falls back to Correction or Comment.
	Kinds map[domain.Kind]lipgloss.Color
}

// DefaultTheme returns the default colour theme.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"), // Purple
		Secondary:  lipgloss.Color("#06B6D4"), // Cyan
		Foreground: lipgloss.Color("#CDD6F4"), // Light gray
		Muted:      lipgloss.Color("#6C7086"), // Medium gray
		Success:    lipgloss.Color("#A6E3A1"), // Green
		Warning:    lipgloss.Color("#F9E2AF"), // Yellow
		Error:      lipgloss.Color("#F38BA8"), // Red
		Border:     lipgloss.Color("#45475A"), // Border gray
		Correction: lipgloss.Color("#E11D48"), // Rose
		Comment:    lipgloss.Color("#FAB387"), // Peach
		Selection:  lipgloss.Color("#313244"), // Surface gray
		Kinds: map[domain.Kind]lipgloss.Color{
			domain.KindGrammar:    lipgloss.Color("#E11D48"), // Rose
			domain.KindVocabulary: lipgloss.Color("#89B4FA"), // Blue
			domain.KindSpelling:   lipgloss.Color("#F97316"), // Orange
			domain.KindStyle:      lipgloss.Color("#CBA6F7"), // Mauve
			domain.KindCoherence:  lipgloss.Color("#94E2D5"), // Teal
			domain.KindSuggestion: lipgloss.Color("#74C7EC"), // Sapphire
			domain.KindComment:    lipgloss.Color("#FAB387"), // Peach
		},
	}
}

// KindColor returns the colour for kind, or fallback when the theme has none.
func (t *Theme) KindColor(kind domain.Kind, fallback lipgloss.Color) lipgloss.Color {
	if c, ok := t.Kinds[kind]; ok {
		return c
	}
	return fallback
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	// Title style for headers.
	Title lipgloss.Style

	// Subtitle style for secondary headers.
	Subtitle lipgloss.Style

	// Normal style for regular text.
	Normal lipgloss.Style

	// Muted style for less important text.
	Muted lipgloss.Style

	// Selected style for highlighted items.
	Selected lipgloss.Style

	// Error style for error messages.
	Error lipgloss.Style

	// Success style for success messages.
	Success lipgloss.Style

	// Warning style for warning messages.
	Warning lipgloss.Style

	// InputField style for input areas.
	InputField lipgloss.Style

	// StatusBar style for the status bar.
	StatusBar lipgloss.Style

	// Help style for help text.
	Help lipgloss.Style

	// Correction style for original text that has a replacement.
	Correction lipgloss.Style

	// Replacement style for the replacement shown after a correction.
	Replacement lipgloss.Style

	// Comment style for annotated text without a replacement.
	Comment lipgloss.Style

	// Cursor style for the character under the cursor.
	Cursor lipgloss.Style

	// Selection style for the range between anchor and cursor.
	Selection lipgloss.Style

	// Note style for the note panel.
	Note lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Primary),

		Subtitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Secondary),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Primary),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(lipgloss.Color("#181825")).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Correction: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(theme.Correction),

		Replacement: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Success),

		Comment: lipgloss.NewStyle().
			Underline(true).
			Foreground(theme.Comment),

		Cursor: lipgloss.NewStyle().
			Reverse(true),

		Selection: lipgloss.NewStyle().
			Background(theme.Selection),

		Note: lipgloss.NewStyle().
			Italic(true).
			Foreground(theme.Secondary),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// ForAnnotation returns the style that paints text covered by a: struck
// through when it has a replacement, underlined otherwise, coloured by kind.
func (s *Styles) ForAnnotation(a *domain.Annotation) lipgloss.Style {
	if a == nil {
		return s.Normal
	}
	if a.Replacement != "" {
		return s.Correction.Foreground(s.theme.KindColor(a.Kind, s.theme.Correction))
	}
	return s.Comment.Foreground(s.theme.KindColor(a.Kind, s.theme.Comment))
}
