package domain

// Tool is the active tool of a spatial annotator.
type Tool string

// Available tools. Transitions only happen on explicit selection, except
// that a committed stamp reverts to ToolMove.
const (
	// ToolMove passes pointer events through to the page viewer.
	ToolMove Tool = "move"

	// ToolPen captures freehand paths.
	ToolPen Tool = "pen"

	// ToolStamp places text stamps.
	ToolStamp Tool = "stamp-text"

	// ToolErase removes the nearest mark under the pointer.
	ToolErase Tool = "erase"
)

// IsValid returns true if the tool is recognised.
func (t Tool) IsValid() bool {
	switch t {
	case ToolMove, ToolPen, ToolStamp, ToolErase:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (t Tool) String() string {
	return string(t)
}

// PointerType identifies a pointer event.
type PointerType int

// Pointer event types.
const (
	PointerDown PointerType = iota
	PointerMove
	PointerUp
	PointerLeave
)

// PointerEvent is a pointer event in viewport coordinates.
type PointerEvent struct {
	Type PointerType
	At   Point
}

// StampRequest is a pending text stamp whose content is still being prompted.
// The position is captured before the prompt opens.
type StampRequest struct {
	Page int
	At   Point
}

// Outcome reports what a pointer event did.
type Outcome struct {
	// Passthrough is set when the event belongs to the page viewer.
	Passthrough bool

	// Stamp is set when a stamp prompt should be opened.
	Stamp *StampRequest

	// Created is set when the event finalised a mark.
	Created *Mark

	// Erased is the ID of a mark removed by the event.
	Erased string

	// Ignored is set when the event was dropped, e.g. page not ready.
	Ignored bool
}
