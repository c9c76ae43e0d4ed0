package driving

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
)

// SpatialAnnotator manages the marks of one paginated document.
type SpatialAnnotator interface {
	// Tool returns the active tool.
	Tool() domain.Tool

	// SelectTool switches the active tool.
	SelectTool(tool domain.Tool) error

	// Page returns the displayed 1-based page.
	Page() int

	// PageCount returns the number of pages.
	PageCount() int

	// SetPage displays another page, discarding any stroke in progress.
	SetPage(page int) error

	// Viewport returns the current viewport.
	Viewport() geometry.Viewport

	// SetViewport updates the host-controlled origin and zoom.
	SetViewport(origin domain.Point, zoom float64)

	// ReadOnly reports whether mutations are suppressed.
	ReadOnly() bool

	// HandlePointer dispatches a viewport-space pointer event to the active tool.
	HandlePointer(ev domain.PointerEvent) domain.Outcome

	// CommitStamp places a stamp captured by a previous pointer event.
	// Empty content is discarded and returns false.
	CommitStamp(req domain.StampRequest, content string) (*domain.Mark, bool)

	// CancelStamp abandons a stamp prompt; the tool is left unchanged.
	CancelStamp()

	// Erase removes the first mark on the current page near a viewport point.
	Erase(at domain.Point) (string, bool)

	// Marks returns a copy of all marks in list order.
	Marks() []domain.Mark

	// MarksOnPage returns the marks of one page.
	MarksOnPage(page int) []domain.Mark

	// Render returns the viewport-space scene for the current page.
	Render() domain.Scene
}
