// Package geometry holds the offset and coordinate arithmetic shared by the
// text and spatial annotators.
//
//   - Rune offsets: counting, clamping and slicing by character, not byte
//   - SegmentMap: which maps a position in fragmented rendered text to an
//     absolute offset in the logical buffer
//   - Viewport: the zoom transform between viewport and unscaled document units
//   - Near: the two-axis proximity test used by erase
//
// # Import Rules
//
//   - Can Import: core/domain, seehuhn.de/go/geom
//   - Cannot Import: ports, services, adapters
package geometry
