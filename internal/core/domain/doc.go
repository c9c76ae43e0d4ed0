// Package domain holds the value types shared by every layer of marginalia.
//
//   - Annotation: a typed correction or comment over a [start,end) range
//   - Mark: a freehand path or a text stamp bound to one document page
//   - Subject: the text or document under review
//   - Run: one slice of rendered text, plain or annotated
//   - Segment, Selection: what a rendering surface reports back
//
// Types here carry no behaviour beyond validation and formatting. Offsets
// are character offsets, never bytes.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
