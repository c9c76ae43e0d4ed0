package driven

import (
	"context"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// AnnotationStore persists subjects together with their annotation and
// mark lists. Lists are always saved and returned whole, in order.
type AnnotationStore interface {
	// SaveSubject stores or updates a subject.
	SaveSubject(ctx context.Context, subject *domain.Subject) error

	// GetSubject retrieves a subject by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetSubject(ctx context.Context, id string) (*domain.Subject, error)

	// ListSubjects returns all subjects ordered by creation time.
	ListSubjects(ctx context.Context) ([]domain.Subject, error)

	// DeleteSubject removes a subject with its annotations and marks.
	DeleteSubject(ctx context.Context, id string) error

	// SaveAnnotations replaces the annotation list of a subject.
	SaveAnnotations(ctx context.Context, subjectID string, annotations []domain.Annotation) error

	// GetAnnotations returns the annotation list of a subject.
	GetAnnotations(ctx context.Context, subjectID string) ([]domain.Annotation, error)

	// SaveMarks replaces the mark list of a subject.
	SaveMarks(ctx context.Context, subjectID string, marks []domain.Mark) error

	// GetMarks returns the mark list of a subject.
	GetMarks(ctx context.Context, subjectID string) ([]domain.Mark, error)

	// Close releases any resources held by the store.
	Close() error
}

// StoreWatcher notifies about external changes to a subject's lists.
type StoreWatcher interface {
	// Watch sends on the returned channel whenever the subject changes.
	// The channel is closed when ctx is cancelled.
	Watch(ctx context.Context, subjectID string) (<-chan struct{}, error)
}
