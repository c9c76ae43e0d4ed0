package geometry

import (
	"math"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Near reports whether a and b are within threshold on both axes.
// The test is strict, so points exactly threshold apart do not match.
func Near(a, b domain.Point, threshold float64) bool {
	d := toVec(a).Sub(toVec(b))
	return math.Abs(d.X) < threshold && math.Abs(d.Y) < threshold
}

// HitsMark reports whether p is near the mark: its anchor for a stamp,
// any point of the path for a freehand mark.
func HitsMark(m domain.Mark, p domain.Point, threshold float64) bool {
	switch m.Kind {
	case domain.MarkStamp:
		return Near(domain.Point{X: m.X, Y: m.Y}, p, threshold)
	case domain.MarkPath:
		for _, q := range m.Points {
			if Near(q, p, threshold) {
				return true
			}
		}
	}
	return false
}

// PathLength returns the total length of a polyline.
func PathLength(points []domain.Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += toVec(points[i]).Sub(toVec(points[i-1])).Length()
	}
	return total
}
