package editor

import (
	"golang.org/x/exp/slices"
	"golang.org/x/image/math/fixed"
)

// Cursor is a caret with an optional selection. Head is the moving end,
// Anchor the fixed end; the selected range is [Start, End). DesiredX is the
// visual X the cursor wants to be at, preserved across vertical movement and
// possibly to the right of the physical line end; Virtual is set only in
// that case. AnchorX remembers the visual X the anchor had when the cursor
// was created or last reset.
type Cursor struct {
	Head     int
	Anchor   int
	DesiredX fixed.Int26_6
	AnchorX  fixed.Int26_6
	Virtual  bool
}

func (c Cursor) Start() int {
	return min(c.Head, c.Anchor)
}

func (c Cursor) End() int {
	return max(c.Head, c.Anchor)
}

func (c Cursor) HasSelection() bool {
	return c.Head != c.Anchor
}

// forward reports whether the selection grows toward the document end.
func (c Cursor) forward() bool {
	return c.Head >= c.Anchor
}

func (c *Cursor) collapseTo(p int) {
	c.Head = p
	c.Anchor = p
}

// CursorSet is the non-empty ordered collection of carets driving every
// edit. Rectangular records whether the set was created by a rectangular
// selection gesture; the shape of the set alone cannot tell a rectangular
// selection from independent multi-carets, and copy/paste semantics differ.
type CursorSet struct {
	list []Cursor

	Rectangular bool
}

func newCursorSet() CursorSet {
	return CursorSet{list: []Cursor{{}}}
}

func (s *CursorSet) Len() int {
	return len(s.list)
}

func (s *CursorSet) At(i int) *Cursor {
	return &s.list[i]
}

// Primary returns the last cursor in the set: the most recently added one,
// unless a Merge has since reordered the set ascending by head.
func (s *CursorSet) Primary() *Cursor {
	return &s.list[len(s.list)-1]
}

func (s *CursorSet) All() []Cursor {
	return s.list
}

// Reset replaces the whole set with the single cursor c.
func (s *CursorSet) Reset(c Cursor) {
	s.list = append(s.list[:0], c)
	s.Rectangular = false
}

func (s *CursorSet) Add(c Cursor) {
	s.list = append(s.list, c)
}

func (s *CursorSet) clone() CursorSet {
	return CursorSet{
		list:        append([]Cursor(nil), s.list...),
		Rectangular: s.Rectangular,
	}
}

func (s *CursorSet) anySelection() bool {
	for i := range s.list {
		if s.list[i].HasSelection() {
			return true
		}
	}
	return false
}

// indicesByStartDesc returns cursor indices ordered by selection start,
// highest first. Edits are applied in this order so an edit at offset p does
// not perturb pending edits at offsets greater than p.
func (s *CursorSet) indicesByStartDesc() []int {
	order := make([]int, len(s.list))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return s.list[b].Start() - s.list[a].Start()
	})
	return order
}

// Merge coalesces overlapping cursors, preserving the directionality of the
// earlier one. Cursor order becomes ascending by head.
func (s *CursorSet) Merge() {
	if len(s.list) < 2 {
		return
	}

	slices.SortFunc(s.list, func(a, b Cursor) int {
		return a.Head - b.Head
	})

	merged := s.list[:1]
	for _, cur := range s.list[1:] {
		prev := &merged[len(merged)-1]
		if cur.Start() <= prev.End() {
			start := min(prev.Start(), cur.Start())
			end := max(prev.End(), cur.End())
			if prev.forward() {
				prev.Anchor, prev.Head = start, end
			} else {
				prev.Anchor, prev.Head = end, start
			}
		} else {
			merged = append(merged, cur)
		}
	}
	s.list = merged
}

// shiftInsert applies the cursor shift policy for an insertion of n bytes at
// pos: positions at or after pos move forward.
func (s *CursorSet) shiftInsert(pos, n int) {
	for i := range s.list {
		c := &s.list[i]
		if c.Head >= pos {
			c.Head += n
		}
		if c.Anchor >= pos {
			c.Anchor += n
		}
	}
}

// shiftErase applies the cursor shift policy for an erase of n bytes at pos:
// positions after pos move back, clamped to pos when they sat inside the
// erased range.
func (s *CursorSet) shiftErase(pos, n int) {
	for i := range s.list {
		c := &s.list[i]
		if c.Head > pos {
			c.Head = max(c.Head-n, pos)
		}
		if c.Anchor > pos {
			c.Anchor = max(c.Anchor-n, pos)
		}
	}
}

func (s *CursorSet) clamp(docLen int) {
	for i := range s.list {
		c := &s.list[i]
		c.Head = min(max(c.Head, 0), docLen)
		c.Anchor = min(max(c.Anchor, 0), docLen)
	}
}
