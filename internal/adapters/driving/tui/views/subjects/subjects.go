// Package subjects provides the subject list view for the TUI.
package subjects

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
)

// View lists subjects and opens the selected one.
type View struct {
	ctx     context.Context
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	review  driving.ReviewService
	list    *list.SubjectList
	width   int
	height  int
	err     error
	loading bool
}

// NewView creates a new subjects view.
func NewView(s *styles.Styles, review driving.ReviewService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		ctx:    context.Background(),
		styles: s,
		keymap: keymap.DefaultKeyMap(),
		review: review,
		list:   list.NewSubjectList(s),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads subjects.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.loadSubjects()
}

// loadSubjects returns a command that loads subjects from the service.
func (v *View) loadSubjects() tea.Cmd {
	return func() tea.Msg {
		if v.review == nil {
			return messages.SubjectsLoaded{Err: fmt.Errorf("review service not available")}
		}
		subjects, err := v.review.List(v.ctx)
		return messages.SubjectsLoaded{Subjects: subjects, Err: err}
	}
}

// removeSubject returns a command that removes a subject.
func (v *View) removeSubject(id string) tea.Cmd {
	return func() tea.Msg {
		if v.review == nil {
			return messages.SubjectRemoved{ID: id, Err: fmt.Errorf("review service not available")}
		}
		return messages.SubjectRemoved{ID: id, Err: v.review.Remove(v.ctx, id)}
	}
}

// Update handles messages for the subjects view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.SubjectsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.list.SetSubjects(msg.Subjects)
		return v, nil

	case messages.SubjectRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		return v, v.loadSubjects()
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up), keymap.Matches(key, v.keymap.Down):
		v.list, _ = v.list.Update(msg)
	case keymap.Matches(key, v.keymap.Select):
		if subject := v.list.SelectedSubject(); subject != nil {
			selected := *subject
			return v, func() tea.Msg {
				return messages.SubjectSelected{Subject: selected}
			}
		}
	case keymap.Matches(key, v.keymap.Delete):
		if subject := v.list.SelectedSubject(); subject != nil {
			return v, v.removeSubject(subject.ID)
		}
	case keymap.Matches(key, v.keymap.Reload):
		v.loading = true
		return v, v.loadSubjects()
	case keymap.Matches(key, v.keymap.Help):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewHelp}
		}
	case keymap.Matches(key, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }
	}
	return v, nil
}

// View renders the subjects view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Marginalia"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading subjects..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	default:
		b.WriteString(v.list.View())
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[enter] open  [d] delete  [r] reload  [?] help  [q] quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.list.SetDimensions(width, height-4)
}

// List returns the underlying subject list.
func (v *View) List() *list.SubjectList {
	return v.list
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}
