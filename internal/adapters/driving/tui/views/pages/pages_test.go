package pages

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	driven "github.com/custodia-labs/marginalia/internal/adapters/driven/pages"
	"github.com/custodia-labs/marginalia/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/marginalia/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/core/services"
)

func newTestView(t *testing.T, geometry *driven.Static, readOnly bool) (*View, *services.ReviewService, string) {
	t.Helper()

	review := services.NewReviewService(
		memory.NewAnnotationStore(), nil, driven.FixedSource{Pages: geometry}, nil, nil, nil,
	)
	subject, err := review.AddDocument(context.Background(), "Worksheet", "worksheet.pdf")
	require.NoError(t, err)

	session, err := review.OpenDocument(context.Background(), subject.ID, driving.SessionOptions{ReadOnly: readOnly})
	require.NoError(t, err)

	v := NewView(nil)
	v.SetSession(session)
	return v, review, subject.ID
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
}

func press(v *View, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = v.Update(keyMsg(k))
	}
	return cmd
}

func storedMarks(t *testing.T, review *services.ReviewService, id string) []domain.Mark {
	t.Helper()
	session, err := review.OpenDocument(context.Background(), id, driving.SessionOptions{ReadOnly: true})
	require.NoError(t, err)
	return session.Annotator().Marks()
}

func TestView_EmptyBeforeSession(t *testing.T) {
	v := NewView(nil)

	assert.Contains(t, v.View(), "No document open")
	_, cmd := v.Update(keyMsg("s"))
	assert.Nil(t, cmd)
}

func TestView_PageNavigation(t *testing.T) {
	v, _, _ := newTestView(t, driven.Uniform(3, driven.Letter), false)

	assert.Contains(t, v.View(), "page 1 of 3")

	press(v, "n", "n")
	assert.Contains(t, v.View(), "page 3 of 3")

	press(v, "n")
	assert.ErrorIs(t, v.Err(), domain.ErrInvalidPage)
	assert.Contains(t, v.View(), "page 3 of 3")

	press(v, "p")
	assert.NoError(t, v.Err())
	assert.Contains(t, v.View(), "page 2 of 3")
}

func TestView_Zoom(t *testing.T) {
	v, _, _ := newTestView(t, driven.Uniform(1, driven.Letter), false)

	press(v, "+")
	assert.InDelta(t, 2.0, v.annotator.Viewport().Zoom, 1e-9)

	press(v, "-", "-")
	assert.InDelta(t, 0.5, v.annotator.Viewport().Zoom, 1e-9)
}

func TestView_PlaceStamp(t *testing.T) {
	v, review, id := newTestView(t, driven.Uniform(2, driven.Letter), false)
	press(v, "n", "+")

	press(v, "s")
	require.True(t, v.Stamping())
	press(v, "¡Bien!", "enter")

	assert.False(t, v.Stamping())
	assert.Contains(t, v.Message(), "Placed")
	assert.Equal(t, domain.ToolMove, v.annotator.Tool())

	marks := storedMarks(t, review, id)
	require.Len(t, marks, 1)
	assert.Equal(t, domain.MarkStamp, marks[0].Kind)
	assert.Equal(t, 2, marks[0].Page)
	assert.Equal(t, "¡Bien!", marks[0].Content)
	// Placed in document units regardless of zoom
	assert.InDelta(t, stampMargin, marks[0].X, 1e-9)
	assert.InDelta(t, stampMargin, marks[0].Y, 1e-9)

	// The next stamp goes below the first one
	press(v, "s", "otra", "enter")
	marks = storedMarks(t, review, id)
	require.Len(t, marks, 2)
	assert.InDelta(t, stampMargin+stampStep, marks[1].Y, 1e-9)
	assert.Contains(t, v.View(), `stamp "otra"`)
}

func TestView_StampCancelAndEmpty(t *testing.T) {
	v, review, id := newTestView(t, driven.Uniform(1, driven.Letter), false)

	press(v, "s", "borrador", "esc")
	assert.False(t, v.Stamping())
	assert.Empty(t, storedMarks(t, review, id))

	press(v, "s", "enter")
	assert.Equal(t, "empty stamp discarded", v.Message())
	assert.Empty(t, storedMarks(t, review, id))
}

func TestView_StampOnUnsizedPage(t *testing.T) {
	v, _, _ := newTestView(t, driven.NewStatic(domain.PageSize{}), false)

	press(v, "s")

	assert.False(t, v.Stamping())
	assert.ErrorIs(t, v.Err(), domain.ErrPageNotReady)
	assert.Equal(t, domain.ToolMove, v.annotator.Tool())
}

func TestView_EraseSelected(t *testing.T) {
	v, review, id := newTestView(t, driven.Uniform(1, driven.Letter), false)
	press(v, "s", "uno", "enter")
	press(v, "s", "dos", "enter")

	press(v, "j", "x")

	marks := storedMarks(t, review, id)
	require.Len(t, marks, 1)
	assert.Equal(t, "uno", marks[0].Content)
	assert.Equal(t, "Erased mark", v.Message())
	assert.Equal(t, domain.ToolMove, v.annotator.Tool())

	press(v, "x")
	assert.Empty(t, storedMarks(t, review, id))

	// Nothing left to erase
	press(v, "x")
	assert.Contains(t, v.View(), "No marks on this page")
}

func TestView_ReadOnly(t *testing.T) {
	v, _, _ := newTestView(t, driven.Uniform(1, driven.Letter), true)

	press(v, "s")

	assert.False(t, v.Stamping())
	assert.ErrorIs(t, v.Err(), domain.ErrReadOnly)
}

func TestView_BackAndQuit(t *testing.T) {
	v, _, _ := newTestView(t, driven.Uniform(1, driven.Letter), false)

	cmd := press(v, "esc")
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewSubjects}, cmd())

	cmd = press(v, "q")
	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}
