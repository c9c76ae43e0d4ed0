package domain

import "time"

// MarkKind distinguishes the two spatial annotation shapes.
type MarkKind string

// Available mark kinds.
const (
	MarkPath  MarkKind = "path"
	MarkStamp MarkKind = "stamp"
)

// IsValid returns true if the mark kind is recognised.
func (k MarkKind) IsValid() bool {
	return k == MarkPath || k == MarkStamp
}

// Point is a position in unscaled document units unless stated otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Mark is a spatial annotation bound to one page of a document.
// Coordinates are unscaled document units, i.e. as they appear at zoom 1.0.
// Marks are never edited in place.
type Mark struct {
	// ID is the unique identifier.
	ID string `json:"id"`

	// Page is the 1-based page the mark belongs to.
	Page int `json:"page"`

	// Kind selects which of the shape fields below is meaningful.
	Kind MarkKind `json:"kind"`

	// Points is the freehand path, in drawing order.
	Points []Point `json:"points,omitempty"`

	// X and Y anchor a text stamp.
	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`

	// Content is the stamp text.
	Content string `json:"content,omitempty"`

	// Color is a CSS-style colour such as "#E11D48".
	Color string `json:"color"`

	// CreatedAt is when the mark was finalised.
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// PageSize is the native size of a page in document units.
type PageSize struct {
	Width  float64
	Height float64
}

// IsZero reports whether the size is still unknown.
func (s PageSize) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}
