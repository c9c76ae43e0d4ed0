package domain

// Segment is one contiguous piece of text as a rendering surface drew it.
// A buffer already sliced into annotation spans, wrapped lines or both is
// reported as many segments in reading order.
type Segment struct {
	// ID identifies the segment within one render pass.
	ID int

	// Text is the characters the segment displays from the logical buffer.
	Text string
}

// SurfacePosition is a position inside a rendered segment.
type SurfacePosition struct {
	// Segment is the ID of the segment.
	Segment int

	// Offset is the rune offset inside the segment's text.
	Offset int
}

// Selection is what a surface reports when the pointer is released.
// Anchor is where the drag started and Focus where it ended, so Focus
// may precede Anchor when the user dragged backward.
type Selection struct {
	Anchor SurfacePosition
	Focus  SurfacePosition
}

// Collapsed reports whether anchor and focus are the same position.
func (s Selection) Collapsed() bool {
	return s.Anchor == s.Focus
}

// Run is a contiguous slice of the rendered buffer.
// Plain runs have a nil Annotation.
type Run struct {
	// Start and End are absolute offsets of the run in the buffer.
	Start int
	End   int

	// Text is the buffer slice covered by the run.
	Text string

	// Annotation is the annotation painted over the run, if any.
	Annotation *Annotation
}

// Styled reports whether the run is painted by an annotation.
func (r Run) Styled() bool {
	return r.Annotation != nil
}

// WholeAnnotation reports whether the run covers its annotation's full range.
// Overlapping annotations may leave only part of an earlier range visible.
func (r Run) WholeAnnotation() bool {
	return r.Annotation != nil && r.Start == r.Annotation.Start && r.End == r.Annotation.End
}
