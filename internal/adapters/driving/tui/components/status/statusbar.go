// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

// State represents the current annotator state for display.
type State string

const (
	StateReady     State = "ready"
	StateSelecting State = "selecting"
	StateEditing   State = "editing"
	StateReadOnly  State = "read-only"
	StateError     State = "error"
)

// Bar displays annotator status and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	state   State
	message string
	count   int
	offset  int
	length  int
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// View renders the bar as one line of the configured width: state on the
// left, key hints on the right.
func (s *Bar) View() string {
	left := s.renderLeft()
	if s.length > 0 {
		left += s.styles.Muted.Render(fmt.Sprintf("  %d/%d", s.offset+1, s.length))
	}
	right := s.renderRight()

	// Width includes the style's padding, so the content gets less.
	style := s.styles.StatusBar.Width(s.width).MaxHeight(1)
	inner := s.width - style.GetHorizontalPadding()
	if lipgloss.Width(left)+1+lipgloss.Width(right) > inner {
		right = ""
	}

	gap := max(1, inner-lipgloss.Width(left)-lipgloss.Width(right))
	return style.Render(left + strings.Repeat(" ", gap) + right)
}

// renderLeft renders the state and message.
func (s *Bar) renderLeft() string {
	switch s.state {
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateSelecting:
		return s.styles.Warning.Render("-- SELECT --")
	case StateEditing:
		return s.styles.Warning.Render("-- EDIT --")
	case StateReadOnly:
		return s.styles.Muted.Render(fmt.Sprintf("read-only | %s", s.countLabel()))
	case StateReady:
	}
	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	return s.styles.Muted.Render(s.countLabel())
}

func (s *Bar) countLabel() string {
	if s.count == 1 {
		return "1 annotation"
	}
	return fmt.Sprintf("%d annotations", s.count)
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding

	switch s.state {
	case StateSelecting:
		bindings = s.keymap.SelectingHelp()
	case StateReady, StateError:
		bindings = s.keymap.AnnotateHelp()
	default:
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetCount sets the annotation count.
func (s *Bar) SetCount(count int) {
	s.count = count
}

// Count returns the annotation count.
func (s *Bar) Count() int {
	return s.count
}

// SetPosition records the cursor offset within a text of length characters.
// A zero length hides the position.
func (s *Bar) SetPosition(offset, length int) {
	s.offset, s.length = offset, length
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar state and message.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
