package list

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

func sampleSubjects() []domain.Subject {
	return []domain.Subject{
		{ID: "s-1", Title: "Ensayo", Kind: domain.SubjectText, Text: "Yo tiene\nun gato"},
		{ID: "s-2", Title: "Worksheet", Kind: domain.SubjectDocument, DocumentPath: "ws.pdf", PageCount: 3},
		{ID: "s-3", Kind: domain.SubjectText, Text: "Sin título"},
	}
}

func TestNewSubjectList(t *testing.T) {
	list := NewSubjectList(styles.DefaultStyles())

	require.NotNil(t, list)
	assert.Equal(t, 0, list.Selected())
	assert.True(t, list.IsEmpty())
	assert.Nil(t, list.SelectedSubject())
	assert.Nil(t, list.Init())
}

func TestNewSubjectList_NilStyles(t *testing.T) {
	list := NewSubjectList(nil)

	require.NotNil(t, list)
	assert.NotNil(t, list.styles)
}

func TestSubjectList_Navigation(t *testing.T) {
	list := NewSubjectList(nil)
	list.SetSubjects(sampleSubjects())

	list.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, 2, list.Selected())

	// Stops at the last subject
	list.MoveDown()
	assert.Equal(t, 2, list.Selected())

	list.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'k'}})
	list.Update(tea.KeyMsg{Type: tea.KeyUp})
	list.MoveUp()
	assert.Equal(t, 0, list.Selected())
	assert.Equal(t, "s-1", list.SelectedSubject().ID)
}

func TestSubjectList_SetSelected(t *testing.T) {
	list := NewSubjectList(nil)
	list.SetSubjects(sampleSubjects())

	list.SetSelected(1)
	assert.Equal(t, 1, list.Selected())

	list.SetSelected(10)
	assert.Equal(t, 1, list.Selected())

	list.SetSelected(-1)
	assert.Equal(t, 1, list.Selected())
}

func TestSubjectList_SetSubjectsClampsSelection(t *testing.T) {
	list := NewSubjectList(nil)
	list.SetSubjects(sampleSubjects())
	list.SetSelected(2)

	list.SetSubjects(sampleSubjects()[:1])

	assert.Equal(t, 0, list.Selected())
	assert.Equal(t, 1, list.Count())
}

func TestSubjectList_View(t *testing.T) {
	list := NewSubjectList(nil)
	list.SetDimensions(80, 20)

	assert.Contains(t, list.View(), "No subjects")

	list.SetSubjects(sampleSubjects())
	view := list.View()

	assert.Contains(t, view, "Ensayo")
	assert.Contains(t, view, "[document]")
	assert.Contains(t, view, "ws.pdf, 3 pages")
	assert.Contains(t, view, "Yo tiene un gato")
	assert.Contains(t, view, "(Untitled)")
}

func TestSubjectList_ViewScrollsToSelection(t *testing.T) {
	list := NewSubjectList(nil)
	list.SetDimensions(80, 4)
	list.SetSubjects(sampleSubjects())
	list.SetSelected(2)

	view := list.View()

	assert.NotContains(t, view, "Ensayo")
	assert.Contains(t, view, "(Untitled)")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "corto", truncate("corto", 10))
	assert.Equal(t, "canció...", truncate("canciónes largas", 9))
}
