package driven

import (
	"io"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Digester computes a stable content digest.
type Digester interface {
	// Digest returns the hex digest of text.
	Digest(text string) string
}

// BundleCodec reads and writes portable bundles.
type BundleCodec interface {
	// Encode writes b to w, compressed when compress is set.
	Encode(w io.Writer, b *domain.Bundle, compress bool) error

	// Decode reads a bundle, detecting compression automatically.
	Decode(r io.Reader) (*domain.Bundle, error)
}
