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

// Ensure SpatialAnnotator implements the interface.
var _ driving.SpatialAnnotator = (*SpatialAnnotator)(nil)

// defaultStampFontSize is the stamp text size in document units.
const defaultStampFontSize = 14

// SpatialAnnotatorOptions configures a SpatialAnnotator.
// Zero values fall back to domain.DefaultAppSettings.
type SpatialAnnotatorOptions struct {
	ReadOnly       bool
	Listener       driven.MarkListener
	Color          string
	StrokeWidth    float64
	EraseThreshold float64
	Zoom           float64

	// NewID and Now are overridable for tests.
	NewID func() string
	Now   func() time.Time
}

// SpatialAnnotator manages freehand paths and text stamps over a paginated
// document. All stored coordinates are unscaled document units.
type SpatialAnnotator struct {
	pages     driven.PageGeometry
	readOnly  bool
	listener  driven.MarkListener
	color     string
	width     float64
	threshold float64
	newID     func() string
	now       func() time.Time

	marks    []domain.Mark
	tool     domain.Tool
	page     int
	viewport geometry.Viewport

	drawing bool
	draft   []domain.Point
	stamp   *domain.StampRequest
}

// NewSpatialAnnotator creates an annotator over pages seeded with initial.
// The initial slice is copied and never modified.
func NewSpatialAnnotator(pages driven.PageGeometry, initial []domain.Mark, opts SpatialAnnotatorOptions) *SpatialAnnotator {
	defaults := domain.DefaultAppSettings().Spatial
	if opts.Color == "" {
		opts.Color = defaults.Color
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = defaults.StrokeWidth
	}
	if opts.EraseThreshold <= 0 {
		opts.EraseThreshold = defaults.EraseThreshold
	}
	if opts.Zoom <= 0 {
		opts.Zoom = defaults.DefaultZoom
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.New().String() }
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	page := 0
	if pages != nil && pages.PageCount() > 0 {
		page = 1
	}

	return &SpatialAnnotator{
		pages:     pages,
		readOnly:  opts.ReadOnly,
		listener:  opts.Listener,
		color:     opts.Color,
		width:     opts.StrokeWidth,
		threshold: opts.EraseThreshold,
		newID:     opts.NewID,
		now:       opts.Now,
		marks:     slices.Clone(initial),
		tool:      domain.ToolMove,
		page:      page,
		viewport:  geometry.NewViewport(domain.Point{}, opts.Zoom),
	}
}

// Tool returns the active tool.
func (s *SpatialAnnotator) Tool() domain.Tool {
	return s.tool
}

// SelectTool switches the active tool. Read-only annotators only accept
// ToolMove. Switching discards a stroke in progress.
func (s *SpatialAnnotator) SelectTool(tool domain.Tool) error {
	if !tool.IsValid() {
		return fmt.Errorf("tool %q: %w", tool, domain.ErrUnsupportedType)
	}
	if s.readOnly && tool != domain.ToolMove {
		return domain.ErrReadOnly
	}
	s.discardDraft()
	s.stamp = nil
	s.tool = tool
	return nil
}

// Page returns the displayed 1-based page, or 0 for an empty document.
func (s *SpatialAnnotator) Page() int {
	return s.page
}

// PageCount returns the number of pages.
func (s *SpatialAnnotator) PageCount() int {
	if s.pages == nil {
		return 0
	}
	return s.pages.PageCount()
}

// SetPage displays another page, discarding any stroke in progress.
func (s *SpatialAnnotator) SetPage(page int) error {
	if page < 1 || page > s.PageCount() {
		return fmt.Errorf("page %d of %d: %w", page, s.PageCount(), domain.ErrInvalidPage)
	}
	if page != s.page {
		s.discardDraft()
		s.stamp = nil
	}
	s.page = page
	return nil
}

// Viewport returns the current viewport.
func (s *SpatialAnnotator) Viewport() geometry.Viewport {
	return s.viewport
}

// SetViewport updates the host-controlled origin and zoom.
func (s *SpatialAnnotator) SetViewport(origin domain.Point, zoom float64) {
	s.viewport = geometry.NewViewport(origin, zoom)
}

// ReadOnly reports whether mutations are suppressed.
func (s *SpatialAnnotator) ReadOnly() bool {
	return s.readOnly
}

// HandlePointer dispatches a viewport-space pointer event to the active tool.
func (s *SpatialAnnotator) HandlePointer(ev domain.PointerEvent) domain.Outcome {
	switch s.tool {
	case domain.ToolPen:
		if !s.pageReady() {
			return domain.Outcome{Ignored: true}
		}
		return s.handlePen(ev)

	case domain.ToolStamp:
		if ev.Type != domain.PointerDown {
			return domain.Outcome{}
		}
		if !s.pageReady() {
			return domain.Outcome{Ignored: true}
		}
		// captured before the prompt opens; the prompt may scroll the page
		req := domain.StampRequest{Page: s.page, At: s.viewport.ToUnscaled(ev.At)}
		s.stamp = &req
		return domain.Outcome{Stamp: &req}

	case domain.ToolErase:
		if ev.Type != domain.PointerDown {
			return domain.Outcome{}
		}
		id, _ := s.Erase(ev.At)
		return domain.Outcome{Erased: id}

	default:
		return domain.Outcome{Passthrough: true}
	}
}

func (s *SpatialAnnotator) handlePen(ev domain.PointerEvent) domain.Outcome {
	p := s.viewport.ToUnscaled(ev.At)

	switch ev.Type {
	case domain.PointerDown:
		s.drawing = true
		s.draft = []domain.Point{p}

	case domain.PointerMove:
		if s.drawing {
			s.draft = append(s.draft, p)
		}

	case domain.PointerUp, domain.PointerLeave:
		if !s.drawing {
			return domain.Outcome{}
		}
		if ev.Type == domain.PointerUp && s.draft[len(s.draft)-1] != p {
			s.draft = append(s.draft, p)
		}
		points := s.draft
		s.discardDraft()

		if len(points) < 2 || geometry.PathLength(points) == 0 {
			logger.Debug("discarding empty stroke on page %d", s.page)
			return domain.Outcome{}
		}
		m := s.appendMark(domain.Mark{
			Page:   s.page,
			Kind:   domain.MarkPath,
			Points: points,
		})
		logger.Debug("finalised stroke %s with %d points on page %d", m.ID, len(points), m.Page)
		return domain.Outcome{Created: &m}
	}
	return domain.Outcome{}
}

// CommitStamp places the stamp of the open prompt and reverts the tool to
// ToolMove. It only accepts the request returned by the pointer event that
// opened the prompt, while the stamp tool is still active. Anything else,
// and empty content, closes the prompt without a mark.
func (s *SpatialAnnotator) CommitStamp(req domain.StampRequest, content string) (*domain.Mark, bool) {
	pending := s.stamp
	s.stamp = nil
	if pending == nil || *pending != req || s.tool != domain.ToolStamp {
		logger.Debug("discarding stamp on page %d: no matching prompt", req.Page)
		return nil, false
	}
	if s.readOnly || strings.TrimSpace(content) == "" {
		return nil, false
	}
	if !s.pageSizeKnown(req.Page) {
		return nil, false
	}

	m := s.appendMark(domain.Mark{
		Page:    req.Page,
		Kind:    domain.MarkStamp,
		X:       req.At.X,
		Y:       req.At.Y,
		Content: content,
	})
	s.tool = domain.ToolMove
	logger.Debug("placed stamp %s at (%.1f, %.1f) on page %d", m.ID, m.X, m.Y, m.Page)
	return &m, true
}

// CancelStamp abandons a stamp prompt.
func (s *SpatialAnnotator) CancelStamp() {
	s.stamp = nil
}

// PendingStamp returns the stamp awaiting content, if any.
func (s *SpatialAnnotator) PendingStamp() (domain.StampRequest, bool) {
	if s.stamp == nil {
		return domain.StampRequest{}, false
	}
	return *s.stamp, true
}

// Erase removes the first mark on the current page near a viewport point.
// The threshold is in document units, so it scales with zoom.
func (s *SpatialAnnotator) Erase(at domain.Point) (string, bool) {
	if s.readOnly {
		return "", false
	}
	p := s.viewport.ToUnscaled(at)
	for i, m := range s.marks {
		if m.Page != s.page || !geometry.HitsMark(m, p, s.threshold) {
			continue
		}
		s.marks = slices.Delete(s.marks, i, i+1)
		logger.Debug("erased mark %s on page %d", m.ID, m.Page)
		s.notify()
		return m.ID, true
	}
	logger.Debug("erase at (%.1f, %.1f) on page %d hit nothing", p.X, p.Y, s.page)
	return "", false
}

// Marks returns a copy of all marks in list order.
func (s *SpatialAnnotator) Marks() []domain.Mark {
	return slices.Clone(s.marks)
}

// MarksOnPage returns the marks of one page in list order.
func (s *SpatialAnnotator) MarksOnPage(page int) []domain.Mark {
	var out []domain.Mark
	for _, m := range s.marks {
		if m.Page == page {
			out = append(out, m)
		}
	}
	return out
}

// Render returns the viewport-space scene for the current page.
func (s *SpatialAnnotator) Render() domain.Scene {
	scene := domain.Scene{Page: s.page, Zoom: s.viewport.Zoom}
	width := s.viewport.ScaleLength(s.width)

	for _, m := range s.MarksOnPage(s.page) {
		switch m.Kind {
		case domain.MarkPath:
			scene.Strokes = append(scene.Strokes, domain.Stroke{
				MarkID: m.ID,
				Points: s.toViewport(m.Points),
				Color:  m.Color,
				Width:  width,
			})
		case domain.MarkStamp:
			scene.Stamps = append(scene.Stamps, domain.Stamp{
				MarkID:   m.ID,
				At:       s.viewport.ToViewport(domain.Point{X: m.X, Y: m.Y}),
				Content:  m.Content,
				Color:    m.Color,
				FontSize: s.viewport.ScaleLength(defaultStampFontSize),
			})
		}
	}

	if s.drawing && len(s.draft) > 0 {
		scene.Draft = &domain.Stroke{
			Points: s.toViewport(s.draft),
			Color:  s.color,
			Width:  width,
		}
	}
	return scene
}

// pageReady reports whether the current page accepts drawing input.
func (s *SpatialAnnotator) pageReady() bool {
	return !s.readOnly && s.pageSizeKnown(s.page)
}

// pageSizeKnown reports whether the native size of page is known.
func (s *SpatialAnnotator) pageSizeKnown(page int) bool {
	if s.pages == nil || page < 1 || page > s.PageCount() {
		return false
	}
	size, ok := s.pages.NativeSize(page)
	if !ok || size.IsZero() {
		logger.Debug("ignoring input: page %d size not known yet", page)
		return false
	}
	return true
}

func (s *SpatialAnnotator) appendMark(m domain.Mark) domain.Mark {
	m.ID = s.newID()
	m.Color = s.color
	m.CreatedAt = s.now()
	s.marks = append(s.marks, m)
	s.notify()
	return m
}

func (s *SpatialAnnotator) notify() {
	if s.listener != nil {
		s.listener.OnChange(s.Marks())
	}
}

func (s *SpatialAnnotator) discardDraft() {
	s.drawing = false
	s.draft = nil
}

func (s *SpatialAnnotator) toViewport(points []domain.Point) []domain.Point {
	out := make([]domain.Point, len(points))
	for i, p := range points {
		out[i] = s.viewport.ToViewport(p)
	}
	return out
}
