package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// ReviewService manages subjects and the annotator sessions over them.
type ReviewService interface {
	// AddText stores a new text subject.
	AddText(ctx context.Context, title, text string) (*domain.Subject, error)

	// AddDocument stores a new document subject read from path.
	AddDocument(ctx context.Context, title, path string) (*domain.Subject, error)

	// List returns all subjects.
	List(ctx context.Context) ([]domain.Subject, error)

	// Get retrieves a subject by ID.
	Get(ctx context.Context, id string) (*domain.Subject, error)

	// Remove deletes a subject and everything attached to it.
	Remove(ctx context.Context, id string) error

	// OpenText opens a text annotator seeded from the store.
	OpenText(ctx context.Context, id string, opts SessionOptions) (TextSession, error)

	// OpenDocument opens a spatial annotator seeded from the store.
	OpenDocument(ctx context.Context, id string, opts SessionOptions) (DocumentSession, error)

	// Export writes a subject bundle to w.
	Export(ctx context.Context, id string, w io.Writer, compress bool) error

	// Import reads a bundle from r and stores it.
	Import(ctx context.Context, r io.Reader) (*domain.Subject, error)

	// Watch notifies when a subject changes outside this process.
	Watch(ctx context.Context, id string) (<-chan struct{}, error)
}

// SessionOptions configures an annotator session.
type SessionOptions struct {
	// ReadOnly suppresses all mutations.
	ReadOnly bool
}

// TextSession is a mounted text annotator whose mutations are persisted.
type TextSession interface {
	Subject() domain.Subject
	Annotator() TextAnnotator

	// Stale reports whether the subject text changed since it was stored.
	Stale() bool

	// Err returns the last persistence failure, if any.
	Err() error
}

// DocumentSession is a mounted spatial annotator whose mutations are persisted.
type DocumentSession interface {
	Subject() domain.Subject
	Annotator() SpatialAnnotator

	// Err returns the last persistence failure, if any.
	Err() error
}
