// Package shaper provides the reference layout oracle: a monospaced layout
// over grapheme clusters. Real text shaping belongs to the host; this
// implementation is what tests and the terminal front end use.
package shaper

import (
	"unicode/utf8"

	"github.com/go-text/typesetting/segmenter"
	"github.com/mattn/go-runewidth"
	"golang.org/x/image/math/fixed"
)

// Monospace lays a line out as a run of grapheme clusters, each advancing
// an integer number of terminal cells. Cluster boundaries come from the
// Unicode segmenter, cell counts from go-runewidth, so combining marks,
// emoji and wide CJK behave like a terminal renders them.
type Monospace struct {
	cell fixed.Int26_6
	seg  segmenter.Segmenter

	// scratch for cluster boundary computation
	runes  []rune
	bounds []int
}

// NewMonospace builds a shaper whose reference cell ('0') is cell wide.
func NewMonospace(cell fixed.Int26_6) *Monospace {
	return &Monospace{cell: cell}
}

// CellWidth implements the oracle contract: the advance of '0'.
func (m *Monospace) CellWidth() fixed.Int26_6 {
	return m.cell
}

// SetCellWidth updates the reference cell, as on a font-size change.
// Callers must rescale any cached X coordinates alongside.
func (m *Monospace) SetCellWidth(cell fixed.Int26_6) {
	m.cell = cell
}

// clusters fills m.bounds with the byte offsets of every grapheme cluster
// boundary in line, including 0 and len(line).
func (m *Monospace) clusters(line []byte) []int {
	m.runes = m.runes[:0]
	m.bounds = m.bounds[:0]
	m.bounds = append(m.bounds, 0)
	if len(line) == 0 {
		return m.bounds
	}

	// map rune indices back to byte offsets as we decode
	byteOff := make([]int, 0, len(line)+1)
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRune(line[i:])
		m.runes = append(m.runes, r)
		byteOff = append(byteOff, i)
		i += size
	}
	byteOff = append(byteOff, len(line))

	m.seg.Init(m.runes)
	iter := m.seg.GraphemeIterator()
	runeIdx := 0
	for iter.Next() {
		g := iter.Grapheme()
		runeIdx += len(g.Text)
		m.bounds = append(m.bounds, byteOff[runeIdx])
	}
	if m.bounds[len(m.bounds)-1] != len(line) {
		m.bounds = append(m.bounds, len(line))
	}
	return m.bounds
}

// clusterAdvance returns the visual advance of one cluster.
func (m *Monospace) clusterAdvance(cluster []byte) fixed.Int26_6 {
	cells := runewidth.StringWidth(string(cluster))
	if cells < 1 {
		cells = 1
	}
	return fixed.Int26_6(cells) * m.cell
}

// XInLine returns the visual X of the byte offset within line, snapped to
// the nearest cluster boundary at or before it.
func (m *Monospace) XInLine(line []byte, offset int) fixed.Int26_6 {
	if offset <= 0 || len(line) == 0 {
		return 0
	}
	if offset > len(line) {
		offset = len(line)
	}

	bounds := m.clusters(line)
	var x fixed.Int26_6
	for i := 1; i < len(bounds); i++ {
		if bounds[i] > offset {
			break
		}
		x += m.clusterAdvance(line[bounds[i-1]:bounds[i]])
	}
	return x
}

// OffsetForX maps x back to the byte offset of the nearest cluster
// boundary. Positions past the line end return the trailing edge.
func (m *Monospace) OffsetForX(line []byte, x fixed.Int26_6) int {
	if len(line) == 0 || x <= 0 {
		return 0
	}

	bounds := m.clusters(line)
	var cur fixed.Int26_6
	for i := 1; i < len(bounds); i++ {
		adv := m.clusterAdvance(line[bounds[i-1]:bounds[i]])
		if x < cur+adv/2 {
			return bounds[i-1]
		}
		cur += adv
	}
	return len(line)
}

// GraphemeStep moves offset one cluster forward or backward, clamped to
// the line.
func (m *Monospace) GraphemeStep(line []byte, offset int, forward bool) int {
	if len(line) == 0 {
		return 0
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(line) {
		offset = len(line)
	}

	bounds := m.clusters(line)
	if forward {
		for _, b := range bounds {
			if b > offset {
				return b
			}
		}
		return len(line)
	}
	prev := 0
	for _, b := range bounds {
		if b >= offset {
			break
		}
		prev = b
	}
	return prev
}
