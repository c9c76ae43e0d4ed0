package driving

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// TextAnnotator manages the annotations of one logical text buffer.
type TextAnnotator interface {
	// Text returns the logical buffer.
	Text() string

	// Style returns the annotator style.
	Style() domain.Style

	// ReadOnly reports whether mutations are suppressed.
	ReadOnly() bool

	// CaptureSelection turns a surface selection into an absolute range.
	// It returns false for collapsed selections and positions outside the
	// surface. A captured range becomes the pending selection unless the
	// annotator is read-only or an annotation is open for editing.
	CaptureSelection(mapper driven.OffsetMapper, sel domain.Selection) (domain.Range, bool)

	// Pending returns the armed selection, if any.
	Pending() (domain.Range, bool)

	// ClearPending drops the armed selection.
	ClearPending()

	// Create annotates the pending selection.
	Create(kind domain.Kind, replacement, note string) (*domain.Annotation, error)

	// Update changes kind, replacement and note of an annotation in place.
	Update(id string, kind domain.Kind, replacement, note string) (*domain.Annotation, error)

	// Delete removes an annotation. Unknown IDs are a no-op.
	Delete(id string) error

	// Get returns an annotation by ID.
	Get(id string) (*domain.Annotation, bool)

	// Annotations returns a copy of the current list in insertion order.
	Annotations() []domain.Annotation

	// At returns the annotation painted at offset, as Render would show it.
	At(offset int) (*domain.Annotation, bool)

	// Open marks an annotation as being edited.
	Open(id string) error

	// CloseEditor ends editing.
	CloseEditor()

	// Editing returns the ID of the annotation open for editing.
	Editing() (string, bool)

	// Render splits the buffer into plain and annotated runs.
	Render() []domain.Run
}
