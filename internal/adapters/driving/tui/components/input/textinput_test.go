package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
)

func TestNewField(t *testing.T) {
	s := styles.DefaultStyles()
	field := NewField(s, "Replacement", "corrected text")

	require.NotNil(t, field)
	assert.Equal(t, "", field.Value())
	assert.Equal(t, "Replacement", field.Label())
	assert.False(t, field.Focused())
}

func TestNewField_NilStyles(t *testing.T) {
	field := NewField(nil, "Note", "")

	require.NotNil(t, field)
	assert.NotNil(t, field.styles)
}

func TestField_Init(t *testing.T) {
	field := NewField(nil, "Note", "")

	cmd := field.Init()

	// Blink command should be returned
	assert.NotNil(t, cmd)
}

func TestField_Update(t *testing.T) {
	field := NewField(nil, "Note", "")
	field.Focus()

	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'ñ'}}
	updated, _ := field.Update(msg)

	assert.Equal(t, field, updated)
	assert.Equal(t, "ñ", field.Value())
}

func TestField_UpdateIgnoredWhenBlurred(t *testing.T) {
	field := NewField(nil, "Note", "")

	field.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})

	assert.Equal(t, "", field.Value())
}

func TestField_View(t *testing.T) {
	field := NewField(nil, "Replacement", "")

	view := field.View()

	assert.Contains(t, view, "Replacement")
}

func TestField_SetValue(t *testing.T) {
	field := NewField(nil, "Note", "")

	field.SetValue("concordancia")

	assert.Equal(t, "concordancia", field.Value())
}

func TestField_FocusAndBlur(t *testing.T) {
	field := NewField(nil, "Note", "")

	field.Focus()
	assert.True(t, field.Focused())

	field.Blur()
	assert.False(t, field.Focused())
}

func TestField_SetWidth(t *testing.T) {
	field := NewField(nil, "Note", "")

	field.SetWidth(100)
	assert.Equal(t, 100, field.Width())

	// Narrow widths keep a usable input
	field.SetWidth(5)
	assert.Equal(t, 5, field.Width())
	assert.Equal(t, 20, field.textinput.Width)
}

func TestField_Reset(t *testing.T) {
	field := NewField(nil, "Note", "")
	field.SetValue("draft")

	field.Reset()

	assert.Equal(t, "", field.Value())
}
