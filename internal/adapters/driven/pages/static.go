package pages

import (
	"slices"

	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/ports/driven"
)

// Ensure Static implements the interface.
var _ driven.PageGeometry = (*Static)(nil)

// Letter is US Letter in PDF points.
var Letter = domain.PageSize{Width: 612, Height: 792}

// Static is a PageGeometry with known page sizes. A zero size marks a page
// whose size is not known yet.
type Static struct {
	sizes []domain.PageSize
}

// NewStatic creates a geometry from per-page sizes.
func NewStatic(sizes ...domain.PageSize) *Static {
	return &Static{sizes: slices.Clone(sizes)}
}

// Uniform creates a geometry of n pages of the same size.
func Uniform(n int, size domain.PageSize) *Static {
	sizes := make([]domain.PageSize, max(n, 0))
	for i := range sizes {
		sizes[i] = size
	}
	return &Static{sizes: sizes}
}

// PageCount returns the number of pages.
func (s *Static) PageCount() int {
	return len(s.sizes)
}

// NativeSize returns the size of a 1-based page.
func (s *Static) NativeSize(page int) (domain.PageSize, bool) {
	if page < 1 || page > len(s.sizes) || s.sizes[page-1].IsZero() {
		return domain.PageSize{}, false
	}
	return s.sizes[page-1], true
}

// Ensure FixedSource implements the interface.
var _ driven.PageSource = FixedSource{}

// FixedSource opens every path as the same geometry. It serves documents
// whose pages are described out of band, and tests.
type FixedSource struct {
	Pages *Static
}

// Open returns the fixed geometry.
func (s FixedSource) Open(_ string) (driven.PageGeometry, error) {
	if s.Pages == nil {
		return NewStatic(), nil
	}
	return s.Pages, nil
}
