package driven

import "github.com/custodia-labs/marginalia/internal/core/domain"

// OffsetMapper is supplied by the rendering surface. It maps a position
// inside something the surface drew to an absolute offset of the logical
// buffer, however many pieces the surface split the text into.
type OffsetMapper interface {
	// AbsoluteOffset returns false when pos is not part of the surface.
	AbsoluteOffset(pos domain.SurfacePosition) (int, bool)
}

// PageGeometry describes the pages of a document.
type PageGeometry interface {
	// PageCount returns the number of pages.
	PageCount() int

	// NativeSize returns the size of a 1-based page at zoom 1.0.
	// It reports false while the size is not known yet.
	NativeSize(page int) (domain.PageSize, bool)
}

// PageSource opens the page geometry of a document file.
type PageSource interface {
	Open(path string) (PageGeometry, error)
}
