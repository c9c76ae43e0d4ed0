package driven

import "github.com/custodia-labs/marginalia/internal/core/domain"

// Normaliser extracts reviewable plain text from a source file.
type Normaliser interface {
	// Format names the source format ("markdown").
	Format() string

	// Extensions returns the lower-case file extensions handled, dot included.
	Extensions() []string

	// Normalise converts content read from path to plain text.
	Normalise(path string, content []byte) (*domain.SourceText, error)
}
