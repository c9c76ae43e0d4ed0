package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
	"github.com/custodia-labs/marginalia/internal/core/ports/driving"
	"github.com/custodia-labs/marginalia/internal/logger"
)

// Ensure TextAnnotator implements the interface.
var _ driving.TextAnnotator = (*TextAnnotator)(nil)

// TextAnnotatorOptions configures a TextAnnotator.
type TextAnnotatorOptions struct {
	// Style defaults to domain.StyleCorrection.
	Style domain.Style

	// ReadOnly suppresses all mutations.
	ReadOnly bool

	// Listener is notified after every mutation. May be nil.
	Listener driven.TextListener

	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// TextAnnotator maps selections to absolute offsets and manages the
// annotations of one logical buffer.
type TextAnnotator struct {
	text        string
	length      int
	style       domain.Style
	readOnly    bool
	listener    driven.TextListener
	newID       func() string
	now         func() time.Time
	annotations []domain.Annotation
	pending     *domain.Range
	editing     string
}

// NewTextAnnotator creates an annotator over text seeded with initial.
// The initial slice is copied and never modified.
func NewTextAnnotator(text string, initial []domain.Annotation, opts TextAnnotatorOptions) *TextAnnotator {
	style := opts.Style
	if !style.IsValid() {
		style = domain.StyleCorrection
	}
	newID := opts.NewID
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &TextAnnotator{
		text:        text,
		length:      geometry.RuneCount(text),
		style:       style,
		readOnly:    opts.ReadOnly,
		listener:    opts.Listener,
		newID:       newID,
		now:         now,
		annotations: slices.Clone(initial),
	}
}

// Text returns the logical buffer.
func (t *TextAnnotator) Text() string {
	return t.text
}

// Style returns the annotator style.
func (t *TextAnnotator) Style() domain.Style {
	return t.style
}

// ReadOnly reports whether mutations are suppressed.
func (t *TextAnnotator) ReadOnly() bool {
	return t.readOnly
}

// CaptureSelection turns a surface selection into an absolute range.
func (t *TextAnnotator) CaptureSelection(mapper driven.OffsetMapper, sel domain.Selection) (domain.Range, bool) {
	if mapper == nil || sel.Collapsed() {
		return domain.Range{}, false
	}

	anchor, ok := mapper.AbsoluteOffset(sel.Anchor)
	if !ok {
		logger.Debug("selection anchor %+v is outside the surface", sel.Anchor)
		return domain.Range{}, false
	}
	focus, ok := mapper.AbsoluteOffset(sel.Focus)
	if !ok {
		logger.Debug("selection focus %+v is outside the surface", sel.Focus)
		return domain.Range{}, false
	}

	start, end := anchor, focus
	if end < start {
		start, end = end, start
	}
	if start == end || start < 0 || end > t.length {
		return domain.Range{}, false
	}

	r := domain.Range{Start: start, End: end, Text: geometry.Substring(t.text, start, end)}
	logger.Debug("captured selection [%d,%d) %q", r.Start, r.End, r.Text)

	if !t.readOnly && t.editing == "" {
		t.pending = &r
	}
	return r, true
}

// Pending returns the armed selection, if any.
func (t *TextAnnotator) Pending() (domain.Range, bool) {
	if t.pending == nil {
		return domain.Range{}, false
	}
	return *t.pending, true
}

// ClearPending drops the armed selection.
func (t *TextAnnotator) ClearPending() {
	t.pending = nil
}

// Create annotates the pending selection.
func (t *TextAnnotator) Create(kind domain.Kind, replacement, note string) (*domain.Annotation, error) {
	if t.readOnly {
		return nil, domain.ErrReadOnly
	}
	if t.pending == nil {
		return nil, domain.ErrNoSelection
	}
	if err := t.validate(kind, replacement); err != nil {
		return nil, err
	}

	a := domain.Annotation{
		ID:           t.newID(),
		Start:        t.pending.Start,
		End:          t.pending.End,
		Kind:         kind,
		OriginalText: t.pending.Text,
		Replacement:  replacement,
		Note:         note,
		CreatedAt:    t.now(),
	}
	t.annotations = append(t.annotations, a)
	t.pending = nil

	if t.listener != nil {
		t.listener.OnAdd(a, t.Annotations())
	}
	return &a, nil
}

// Update changes kind, replacement and note in place. The range and the
// stored original text are left untouched.
func (t *TextAnnotator) Update(id string, kind domain.Kind, replacement, note string) (*domain.Annotation, error) {
	if t.readOnly {
		return nil, domain.ErrReadOnly
	}
	if err := t.validate(kind, replacement); err != nil {
		return nil, err
	}

	i := t.index(id)
	if i < 0 {
		return nil, fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
	}
	t.annotations[i].Kind = kind
	t.annotations[i].Replacement = replacement
	t.annotations[i].Note = note

	a := t.annotations[i]
	if t.listener != nil {
		t.listener.OnUpdate(a, t.Annotations())
	}
	return &a, nil
}

// Delete removes an annotation. An unknown ID is a no-op and does not
// notify the listener.
func (t *TextAnnotator) Delete(id string) error {
	if t.readOnly {
		return domain.ErrReadOnly
	}
	i := t.index(id)
	if i < 0 {
		return nil
	}
	t.annotations = slices.Delete(t.annotations, i, i+1)
	if t.editing == id {
		t.editing = ""
	}

	if t.listener != nil {
		t.listener.OnRemove(id, t.Annotations())
	}
	return nil
}

// Get returns an annotation by ID.
func (t *TextAnnotator) Get(id string) (*domain.Annotation, bool) {
	i := t.index(id)
	if i < 0 {
		return nil, false
	}
	a := t.annotations[i]
	return &a, true
}

// Annotations returns a copy of the current list in insertion order.
func (t *TextAnnotator) Annotations() []domain.Annotation {
	return slices.Clone(t.annotations)
}

// At returns the annotation painted at offset.
func (t *TextAnnotator) At(offset int) (*domain.Annotation, bool) {
	if offset < 0 || offset >= t.length {
		return nil, false
	}
	owner := paintOwners(t.length, t.annotations)
	if owner[offset] < 0 {
		return nil, false
	}
	a := t.annotations[owner[offset]]
	return &a, true
}

// Open marks an annotation as being edited. While it is open, captured
// selections are not armed.
func (t *TextAnnotator) Open(id string) error {
	if t.readOnly {
		return domain.ErrReadOnly
	}
	if t.index(id) < 0 {
		return fmt.Errorf("annotation %s: %w", id, domain.ErrNotFound)
	}
	t.editing = id
	t.pending = nil
	return nil
}

// CloseEditor ends editing.
func (t *TextAnnotator) CloseEditor() {
	t.editing = ""
}

// Editing returns the ID of the annotation open for editing.
func (t *TextAnnotator) Editing() (string, bool) {
	return t.editing, t.editing != ""
}

// Render splits the buffer into plain and annotated runs.
func (t *TextAnnotator) Render() []domain.Run {
	return RenderText(t.text, t.annotations)
}

func (t *TextAnnotator) validate(kind domain.Kind, replacement string) error {
	if !kind.IsValid() {
		return fmt.Errorf("kind %q: %w", kind, domain.ErrInvalidInput)
	}
	if t.style == domain.StyleCorrection && strings.TrimSpace(replacement) == "" {
		return fmt.Errorf("correction requires a replacement: %w", domain.ErrInvalidInput)
	}
	return nil
}

func (t *TextAnnotator) index(id string) int {
	return slices.IndexFunc(t.annotations, func(a domain.Annotation) bool {
		return a.ID == id
	})
}
