// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// SubjectList displays subjects in a navigable list.
type SubjectList struct {
	subjects []domain.Subject
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSubjectList creates a new subject list component.
func NewSubjectList(s *styles.Styles) *SubjectList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SubjectList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (l *SubjectList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SubjectList) Update(msg tea.Msg) (*SubjectList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the list.
func (l *SubjectList) View() string {
	if len(l.subjects) == 0 {
		return l.styles.Muted.Render("No subjects. Add one with 'marginalia subject add'.")
	}

	// Two lines per subject, keep the selection visible
	visibleCount := (l.height - 2) / 2
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if l.selected >= visibleCount {
		start = l.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(l.subjects))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, l.renderSubject(i, &l.subjects[i]))
	}
	return strings.Join(lines, "\n")
}

// renderSubject formats one subject with a preview line.
func (l *SubjectList) renderSubject(index int, subject *domain.Subject) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := subject.Title
	if title == "" {
		title = "(Untitled)"
	}
	maxTitleLen := max(l.width-16, 10)
	title = truncate(title, maxTitleLen)

	kind := fmt.Sprintf("[%s]", subject.Kind)

	var titleLine string
	if index == l.selected {
		titleLine = l.styles.Selected.Render(fmt.Sprintf("%s%-10s %s", indicator, kind, title))
	} else {
		titleLine = l.styles.Normal.Render(indicator) +
			l.styles.Subtitle.Render(fmt.Sprintf("%-10s ", kind)) +
			l.styles.Normal.Render(title)
	}

	var preview string
	switch subject.Kind {
	case domain.SubjectDocument:
		preview = fmt.Sprintf("%s, %d pages", subject.DocumentPath, subject.PageCount)
	default:
		preview = strings.Join(strings.Fields(subject.Text), " ")
	}
	preview = truncate(preview, max(l.width-6, 20))

	return titleLine + "\n" + l.styles.Muted.Render("    "+preview)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// SetSubjects replaces the list, keeping the selection in range.
func (l *SubjectList) SetSubjects(subjects []domain.Subject) {
	l.subjects = subjects
	if l.selected >= len(subjects) {
		l.selected = max(len(subjects)-1, 0)
	}
}

// Subjects returns the current subjects.
func (l *SubjectList) Subjects() []domain.Subject {
	return l.subjects
}

// Selected returns the index of the selected subject.
func (l *SubjectList) Selected() int {
	return l.selected
}

// SetSelected sets the selected index.
func (l *SubjectList) SetSelected(index int) {
	if index >= 0 && index < len(l.subjects) {
		l.selected = index
	}
}

// SelectedSubject returns the selected subject, or nil if the list is empty.
func (l *SubjectList) SelectedSubject() *domain.Subject {
	if len(l.subjects) == 0 || l.selected < 0 || l.selected >= len(l.subjects) {
		return nil
	}
	return &l.subjects[l.selected]
}

// MoveUp moves selection up.
func (l *SubjectList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves selection down.
func (l *SubjectList) MoveDown() {
	if l.selected < len(l.subjects)-1 {
		l.selected++
	}
}

// SetDimensions sets the component dimensions.
func (l *SubjectList) SetDimensions(width, height int) {
	l.width = width
	l.height = height
}

// Count returns the number of subjects.
func (l *SubjectList) Count() int {
	return len(l.subjects)
}

// IsEmpty returns whether the list is empty.
func (l *SubjectList) IsEmpty() bool {
	return len(l.subjects) == 0
}
