package editor

import (
	"golang.org/x/image/math/fixed"
)

// isWordChar reports whether b belongs to a word: ASCII alphanumerics,
// underscore, and any byte of a multi-byte UTF-8 sequence.
func isWordChar(b byte) bool {
	return b >= 0x80 ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9') ||
		b == '_'
}

// SetCaret replaces the cursor set with a single cursor selecting
// [anchor, head). Positions are clamped to the document.
func (ed *Editor) SetCaret(head, anchor int) {
	ed.rollbackPadding()
	head = min(max(head, 0), ed.src.Len())
	anchor = min(max(anchor, 0), ed.src.Len())
	x := ed.XOf(head)
	ed.cursors.Reset(Cursor{Head: head, Anchor: anchor, DesiredX: x, AnchorX: ed.XOf(anchor)})
}

// AddCaret appends an independent caret at p, as from a ctrl-click.
func (ed *Editor) AddCaret(p int) {
	ed.rollbackPadding()
	p = min(max(p, 0), ed.src.Len())
	x := ed.XOf(p)
	ed.cursors.Add(Cursor{Head: p, Anchor: p, DesiredX: x, AnchorX: x})
	ed.cursors.Rectangular = false
	ed.cursors.Merge()
}

// SetCaretAt places a single caret from a click at visual position
// (line, x). With virtual space enabled and x beyond the line end, the
// caret floats in virtual space.
func (ed *Editor) SetCaretAt(line int, x fixed.Int26_6, virtual bool) {
	ed.rollbackPadding()
	p := ed.PosFromLineX(line, x)
	c := Cursor{Head: p, Anchor: p, DesiredX: ed.XOf(p), AnchorX: ed.XOf(p)}
	if virtual && line < ed.lines.Count() {
		endX := ed.lineEndX(min(line, ed.lines.Count()-1))
		if x > endX+ed.shaper.CellWidth()/2 {
			_, end := ed.visibleLine(min(line, ed.lines.Count()-1))
			c.Head, c.Anchor = end, end
			c.DesiredX = x
			c.AnchorX = x
			c.Virtual = true
		}
	}
	ed.cursors.Reset(c)
}

// MoveLeft moves every cursor one grapheme cluster left; without extend an
// existing selection collapses to its start instead.
func (ed *Editor) MoveLeft(extend bool) {
	ed.horizontalMove(extend, false)
}

// MoveRight is the mirror of MoveLeft.
func (ed *Editor) MoveRight(extend bool) {
	ed.horizontalMove(extend, true)
}

func (ed *Editor) horizontalMove(extend, forward bool) {
	ed.rollbackPadding()
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.Virtual = false
		if c.HasSelection() && !extend {
			if forward {
				c.collapseTo(c.End())
			} else {
				c.collapseTo(c.Start())
			}
		} else {
			if forward {
				c.Head = ed.graphemeRight(c.Head)
			} else {
				c.Head = ed.graphemeLeft(c.Head)
			}
			if !extend {
				c.Anchor = c.Head
			}
		}
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = ed.XOf(c.Anchor)
	}
	ed.cursors.Merge()
}

// MoveWordLeft moves every cursor to the previous word boundary.
func (ed *Editor) MoveWordLeft(extend bool) {
	ed.wordMove(extend, false)
}

// MoveWordRight moves every cursor to the next word boundary.
func (ed *Editor) MoveWordRight(extend bool) {
	ed.wordMove(extend, true)
}

func (ed *Editor) wordMove(extend, forward bool) {
	ed.rollbackPadding()
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.Virtual = false
		if forward {
			c.Head = ed.wordRight(c.Head)
		} else {
			c.Head = ed.wordLeft(c.Head)
		}
		if !extend {
			c.Anchor = c.Head
		}
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = ed.XOf(c.Anchor)
	}
	ed.cursors.Merge()
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}

func (ed *Editor) wordLeft(pos int) int {
	if pos == 0 {
		return 0
	}
	if ed.src.ByteAt(pos-1) == '\n' {
		return pos - 1
	}
	cur := pos
	for cur > 0 {
		b := ed.src.ByteAt(cur - 1)
		if b == '\n' || !isASCIISpace(b) {
			break
		}
		cur--
	}
	if cur == 0 || ed.src.ByteAt(cur-1) == '\n' {
		return cur
	}
	kind := isWordChar(ed.src.ByteAt(cur - 1))
	for cur > 0 {
		b := ed.src.ByteAt(cur - 1)
		if b == '\n' || isASCIISpace(b) || isWordChar(b) != kind {
			break
		}
		cur--
	}
	return cur
}

func (ed *Editor) wordRight(pos int) int {
	length := ed.src.Len()
	if pos >= length {
		return length
	}
	if ed.src.ByteAt(pos) == '\n' {
		return pos + 1
	}
	cur := pos
	if !isASCIISpace(ed.src.ByteAt(cur)) {
		kind := isWordChar(ed.src.ByteAt(cur))
		for cur < length {
			b := ed.src.ByteAt(cur)
			if b == '\n' || isASCIISpace(b) || isWordChar(b) != kind {
				break
			}
			cur++
		}
	}
	for cur < length {
		b := ed.src.ByteAt(cur)
		if b == '\n' || !isASCIISpace(b) {
			break
		}
		cur++
	}
	return cur
}

// MoveVertical moves every cursor delta lines, re-entering the remembered
// DesiredX column on lines long enough to reach it.
func (ed *Editor) MoveVertical(delta int, extend bool) {
	ed.rollbackPadding()
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.Virtual = false
		line := ed.lines.LineOf(c.Head) + delta
		if line < 0 {
			line = 0
		}
		if line >= ed.lines.Count() {
			line = ed.lines.Count() - 1
		}
		c.Head = ed.PosFromLineX(line, c.DesiredX)
		if !extend {
			c.Anchor = c.Head
		}
	}
	ed.cursors.Merge()
}

// MoveLineStart moves every cursor to the start of its line.
func (ed *Editor) MoveLineStart(extend bool) {
	ed.rollbackPadding()
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.Virtual = false
		start, _ := ed.visibleLine(ed.lines.LineOf(c.Head))
		c.Head = start
		if !extend {
			c.Anchor = c.Head
		}
		c.DesiredX = ed.XOf(c.Head)
	}
	ed.cursors.Merge()
}

// MoveLineEnd moves every cursor to the visible end of its line.
func (ed *Editor) MoveLineEnd(extend bool) {
	ed.rollbackPadding()
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.Virtual = false
		_, end := ed.visibleLine(ed.lines.LineOf(c.Head))
		c.Head = end
		if !extend {
			c.Anchor = c.Head
		}
		c.DesiredX = ed.XOf(c.Head)
	}
	ed.cursors.Merge()
}

// MoveDocStart replaces the set with a single cursor whose head is at
// position 0; with extend it keeps the primary cursor's anchor.
func (ed *Editor) MoveDocStart(extend bool) {
	ed.rollbackPadding()
	anchor := 0
	if extend && ed.cursors.Len() > 0 {
		anchor = ed.cursors.Primary().Anchor
	}
	ed.cursors.Reset(Cursor{Head: 0, Anchor: anchor, DesiredX: 0, AnchorX: ed.XOf(anchor)})
}

// MoveDocEnd replaces the set with a single cursor whose head is at the
// document end; with extend it keeps the primary cursor's anchor.
func (ed *Editor) MoveDocEnd(extend bool) {
	ed.rollbackPadding()
	end := ed.src.Len()
	anchor := end
	if extend && ed.cursors.Len() > 0 {
		anchor = ed.cursors.Primary().Anchor
	}
	x := ed.XOf(end)
	ed.cursors.Reset(Cursor{Head: end, Anchor: anchor, DesiredX: x, AnchorX: ed.XOf(anchor)})
}

// SelectAll selects the whole document with a single cursor.
func (ed *Editor) SelectAll() {
	ed.rollbackPadding()
	end := ed.src.Len()
	ed.cursors.Reset(Cursor{Head: end, Anchor: 0, DesiredX: ed.XOf(end)})
}

// ClearSelection keeps only the primary cursor and collapses it, as from
// an escape press.
func (ed *Editor) ClearSelection() {
	ed.rollbackPadding()
	c := *ed.cursors.Primary()
	c.Anchor = c.Head
	c.Virtual = false
	ed.cursors.Reset(c)
	ed.rect = rectState{}
}

// wordAt expands p to the word range around it by isWordChar.
func (ed *Editor) wordAt(p int) (int, int) {
	length := ed.src.Len()
	if length == 0 {
		return 0, 0
	}
	if p >= length {
		p = length - 1
	}
	kind := isWordChar(ed.src.ByteAt(p))
	start := p
	for start > 0 {
		b := ed.src.ByteAt(start - 1)
		if b == '\n' || isWordChar(b) != kind {
			break
		}
		start--
	}
	end := p
	for end < length {
		b := ed.src.ByteAt(end)
		if b == '\n' || isWordChar(b) != kind {
			break
		}
		end++
	}
	return start, end
}

// SelectWordAt selects the word under p, as from a double-click.
func (ed *Editor) SelectWordAt(p int) {
	ed.rollbackPadding()
	p = min(max(p, 0), ed.src.Len())
	if p == ed.src.Len() || ed.src.ByteAt(p) == '\n' {
		ed.SetCaret(p, p)
		return
	}
	start, end := ed.wordAt(p)
	ed.cursors.Reset(Cursor{Head: end, Anchor: start, DesiredX: ed.XOf(end), AnchorX: ed.XOf(start)})
}

// SelectLineAt selects the whole line containing p, including its line
// break, as from a triple-click or a gutter click.
func (ed *Editor) SelectLineAt(p int) {
	ed.rollbackPadding()
	line := ed.lines.LineOf(min(max(p, 0), ed.src.Len()))
	start, end := ed.lines.LineRange(line)
	ed.cursors.Reset(Cursor{Head: end, Anchor: start, DesiredX: ed.XOf(end), AnchorX: ed.XOf(start)})
}

// DeleteWordLeft erases from each cursor to the previous word boundary.
func (ed *Editor) DeleteWordLeft() {
	ed.commitPadding()
	if ed.cursors.anySelection() {
		ed.deleteSelections()
		return
	}
	batch := EditBatch{before: ed.cursors.clone()}
	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		c.Virtual = false
		target := ed.wordLeft(c.Head)
		if target < c.Head {
			ed.applyErase(target, c.Head-target, &batch)
			c.collapseTo(target)
			ed.reindex()
			c.DesiredX = ed.XOf(c.Head)
			c.AnchorX = c.DesiredX
		}
	}
	if len(batch.ops) == 0 {
		return
	}
	ed.commit(batch)
}

// DeleteWordRight erases from each cursor to the next word boundary.
func (ed *Editor) DeleteWordRight() {
	ed.commitPadding()
	if ed.cursors.anySelection() {
		ed.deleteSelections()
		return
	}
	batch := EditBatch{before: ed.cursors.clone()}
	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		c.Virtual = false
		target := ed.wordRight(c.Head)
		if target > c.Head {
			ed.applyErase(c.Head, target-c.Head, &batch)
			c.collapseTo(c.Head)
			ed.reindex()
			c.DesiredX = ed.XOf(c.Head)
			c.AnchorX = c.DesiredX
		}
	}
	if len(batch.ops) == 0 {
		return
	}
	ed.commit(batch)
}
