package domain

// Scene is what a spatial surface paints for the current page.
// All coordinates and widths are in viewport units.
type Scene struct {
	// Page is the page the scene belongs to.
	Page int

	// Zoom is the scale the scene was computed at.
	Zoom float64

	// Strokes are the finalised freehand marks in list order.
	Strokes []Stroke

	// Stamps are the text stamps in list order.
	Stamps []Stamp

	// Draft is the in-progress stroke, nil when nothing is being drawn.
	Draft *Stroke
}

// Stroke is a freehand path ready to paint.
type Stroke struct {
	MarkID string
	Points []Point
	Color  string
	Width  float64
}

// Stamp is a text stamp ready to paint.
type Stamp struct {
	MarkID   string
	At       Point
	Content  string
	Color    string
	FontSize float64
}
