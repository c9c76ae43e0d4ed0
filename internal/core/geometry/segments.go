package geometry

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// SegmentMap resolves positions inside rendered segments to absolute
// offsets of the logical buffer. Segments are kept in reading order and
// their texts concatenate to the buffer they were rendered from.
type SegmentMap struct {
	segments []domain.Segment
	starts   map[int]int
	lengths  map[int]int
	total    int
}

// NewSegmentMap walks the segments once with a running character counter.
// Duplicate segment IDs keep their first occurrence.
func NewSegmentMap(segments []domain.Segment) *SegmentMap {
	m := &SegmentMap{
		segments: append([]domain.Segment(nil), segments...),
		starts:   make(map[int]int, len(segments)),
		lengths:  make(map[int]int, len(segments)),
	}

	running := 0
	for _, seg := range m.segments {
		n := RuneCount(seg.Text)
		if _, dup := m.starts[seg.ID]; !dup {
			m.starts[seg.ID] = running
			m.lengths[seg.ID] = n
		}
		running += n
	}
	m.total = running
	return m
}

// AbsoluteOffset returns the buffer offset of pos.
// It reports false when the segment is not part of the surface or the
// offset falls outside it.
func (m *SegmentMap) AbsoluteOffset(pos domain.SurfacePosition) (int, bool) {
	start, ok := m.starts[pos.Segment]
	if !ok {
		return 0, false
	}
	if pos.Offset < 0 || pos.Offset > m.lengths[pos.Segment] {
		return 0, false
	}
	return start + pos.Offset, true
}

// Position is the inverse of AbsoluteOffset. An offset sitting on a
// boundary resolves to the start of the following segment, except at the
// very end of the buffer.
func (m *SegmentMap) Position(offset int) (domain.SurfacePosition, bool) {
	if offset < 0 || offset > m.total || len(m.segments) == 0 {
		return domain.SurfacePosition{}, false
	}
	running := 0
	for _, seg := range m.segments {
		n := RuneCount(seg.Text)
		if offset < running+n {
			return domain.SurfacePosition{Segment: seg.ID, Offset: offset - running}, true
		}
		running += n
	}
	last := m.segments[len(m.segments)-1]
	return domain.SurfacePosition{Segment: last.ID, Offset: RuneCount(last.Text)}, true
}

// Len returns the number of characters across all segments.
func (m *SegmentMap) Len() int {
	return m.total
}

// Text returns the concatenated segment text.
func (m *SegmentMap) Text() string {
	var b []byte
	for _, seg := range m.segments {
		b = append(b, seg.Text...)
	}
	return string(b)
}
