package annotate

import (
	"github.com/custodia-labs/marginalia/internal/core/domain"
	"github.com/custodia-labs/marginalia/internal/core/geometry"
)

// line is a wrapped display line of the buffer: runes [start, end).
// A line ended by a newline keeps the newline as its last rune.
type line struct {
	start int
	end   int
}

// span is one rendered segment: the part of a run that falls on a line.
type span struct {
	id         int
	start      int
	end        int
	annotation *domain.Annotation
}

// layout is one render pass of the buffer at a given width.
type layout struct {
	lines   []line
	spans   [][]span
	surface *geometry.SegmentMap
}

// wrap breaks runes into lines no wider than width, preferring to break
// after a space. Newlines always end a line.
func wrap(runes []rune, width int) []line {
	if width < 1 {
		width = 1
	}

	var lines []line
	start, lastSpace := 0, -1
	for i, r := range runes {
		if i-start >= width {
			end := i
			if lastSpace >= start {
				end = lastSpace + 1
			}
			lines = append(lines, line{start: start, end: end})
			start, lastSpace = end, -1
			for j := start; j < i; j++ {
				if runes[j] == ' ' {
					lastSpace = j
				}
			}
		}
		switch r {
		case '\n':
			lines = append(lines, line{start: start, end: i + 1})
			start, lastSpace = i+1, -1
		case ' ':
			lastSpace = i
		}
	}
	if start < len(runes) || len(lines) == 0 {
		lines = append(lines, line{start: start, end: len(runes)})
	}
	return lines
}

// buildLayout splits every line at run boundaries and numbers the pieces
// as surface segments in reading order.
func buildLayout(runes []rune, runs []domain.Run, width int) *layout {
	l := &layout{lines: wrap(runes, width)}
	l.spans = make([][]span, len(l.lines))

	var segments []domain.Segment
	next := 0
	r := 0
	for i, ln := range l.lines {
		for r < len(runs) && runs[r].End <= ln.start {
			r++
		}
		for k := r; k < len(runs) && runs[k].Start < ln.end; k++ {
			sp := span{
				id:         next,
				start:      max(runs[k].Start, ln.start),
				end:        min(runs[k].End, ln.end),
				annotation: runs[k].Annotation,
			}
			if sp.start >= sp.end {
				continue
			}
			l.spans[i] = append(l.spans[i], sp)
			segments = append(segments, domain.Segment{ID: sp.id, Text: string(runes[sp.start:sp.end])})
			next++
		}
	}
	l.surface = geometry.NewSegmentMap(segments)
	return l
}

// lineOf returns the index of the line holding offset.
func (l *layout) lineOf(offset int) int {
	for i, ln := range l.lines {
		if offset < ln.end {
			return i
		}
	}
	return len(l.lines) - 1
}
