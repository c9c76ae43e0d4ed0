package geometry

import (
	"math"

	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/vec"

	"github.com/custodia-labs/marginalia/internal/core/domain"
)

// Viewport relates viewport coordinates to unscaled document units.
//
//	unscaled = (viewport - Origin) / Zoom
//	viewport = unscaled * Zoom + Origin
type Viewport struct {
	// Origin is the top-left corner of the annotation surface in the viewport.
	Origin domain.Point

	// Zoom is the host-controlled scale factor; 1.0 means unscaled.
	Zoom float64
}

// NewViewport returns a viewport with the given origin and zoom.
// Non-positive or non-finite zoom falls back to 1.
func NewViewport(origin domain.Point, zoom float64) Viewport {
	if zoom <= 0 || math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		zoom = 1
	}
	return Viewport{Origin: origin, Zoom: zoom}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// toViewport scales first, then shifts by the origin.
func (v Viewport) toViewport() matrix.Matrix {
	z := v.zoom()
	return matrix.Scale(z, z).Mul(matrix.Translate(v.Origin.X, v.Origin.Y))
}

// toUnscaled is the exact inverse of toViewport.
func (v Viewport) toUnscaled() matrix.Matrix {
	z := v.zoom()
	return matrix.Translate(-v.Origin.X, -v.Origin.Y).Mul(matrix.Scale(1/z, 1/z))
}

// ToUnscaled converts a viewport point to document units.
func (v Viewport) ToUnscaled(p domain.Point) domain.Point {
	x, y := v.toUnscaled().Apply(p.X, p.Y)
	return domain.Point{X: x, Y: y}
}

// ToViewport converts a document point to viewport coordinates.
func (v Viewport) ToViewport(p domain.Point) domain.Point {
	x, y := v.toViewport().Apply(p.X, p.Y)
	return domain.Point{X: x, Y: y}
}

// ScaleLength converts a document length to viewport units.
func (v Viewport) ScaleLength(l float64) float64 {
	return l * v.zoom()
}

func toVec(p domain.Point) vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}
