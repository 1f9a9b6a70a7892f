package editor

import "golang.org/x/image/math/fixed"

// Shaper is the layout oracle the engine consults for every horizontal
// position. The engine never assumes fixed-width glyphs; a real
// implementation delegates to a text shaping engine, and tests use the
// monospace reference shaper.
//
// Implementations must be deterministic for a fixed font configuration.
// When font parameters change, cached X coordinates held by the engine are
// rescaled via [Editor.RescaleX].
type Shaper interface {
	// XInLine returns the visual X of the given byte offset within the line.
	// line holds the visible line bytes, without the trailing line break.
	XInLine(line []byte, offset int) fixed.Int26_6

	// OffsetForX maps a target X back to a byte offset in the line, snapping
	// to grapheme cluster boundaries. It returns 0 for an empty line and the
	// trailing edge when x exceeds the line width.
	OffsetForX(line []byte, x fixed.Int26_6) int

	// GraphemeStep moves offset by one grapheme cluster in the given
	// direction, clamped to the line bounds. For plain ASCII this
	// degenerates to a single byte.
	GraphemeStep(line []byte, offset int, forward bool) int

	// CellWidth reports the advance of '0' in the current font. It is the
	// reference width for virtual-space padding.
	CellWidth() fixed.Int26_6
}
