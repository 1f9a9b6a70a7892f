package editor

import "golang.org/x/exp/slices"

// coveredLines returns the sorted unique line indices touched by any
// cursor. A selection ending exactly at a line's start does not include
// that final line.
func (ed *Editor) coveredLines() []int {
	seen := map[int]bool{}
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		first := ed.lines.LineOf(c.Start())
		last := ed.lines.LineOf(c.End())
		if c.HasSelection() && last > first && c.End() == ed.lines.Start(last) {
			last--
		}
		for l := first; l <= last; l++ {
			seen[l] = true
		}
	}

	lines := make([]int, 0, len(seen))
	for l := range seen {
		lines = append(lines, l)
	}
	slices.Sort(lines)
	return lines
}

// lineBlocks groups sorted line indices into contiguous [first, last]
// blocks.
func lineBlocks(lines []int) [][2]int {
	var blocks [][2]int
	for _, l := range lines {
		if len(blocks) > 0 && blocks[len(blocks)-1][1] == l-1 {
			blocks[len(blocks)-1][1] = l
		} else {
			blocks = append(blocks, [2]int{l, l})
		}
	}
	return blocks
}

// DeleteLines removes every line touched by a cursor. Cursors collapse to
// the surviving neighbor. One undo step.
func (ed *Editor) DeleteLines() {
	ed.commitPadding()
	if ed.src.Len() == 0 {
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}
	lines := ed.coveredLines()

	for i := len(lines) - 1; i >= 0; i-- {
		start, end := ed.lines.LineRange(lines[i])
		if start == end {
			// empty final line: erase the preceding line break sequence
			if lines[i] == 0 {
				continue
			}
			del := 1
			if start >= 2 && ed.src.ByteAt(start-2) == '\r' {
				del = 2
			}
			ed.applyErase(start-del, del, &batch)
		} else {
			ed.applyErase(start, end-start, &batch)
		}
	}

	if len(batch.ops) == 0 {
		return
	}
	ed.reindex()
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.collapseTo(min(c.Head, ed.src.Len()))
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = c.DesiredX
		c.Virtual = false
	}
	ed.cursors.Merge()
	ed.commit(batch)
}

// cursorShift moves cursor positions inside [lo, hi) by delta.
type cursorShift struct {
	lo, hi, delta int
}

// translateCursors applies the given shifts simultaneously: each position
// is matched against the original, pre-shift ranges. Used by line swaps and
// duplication, where the generic shift policy does not express the block
// movement.
func (ed *Editor) translateCursors(shifts ...cursorShift) {
	move := func(p int) int {
		for _, s := range shifts {
			if p >= s.lo && p < s.hi {
				return p + s.delta
			}
		}
		return p
	}
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.Head = move(c.Head)
		c.Anchor = move(c.Anchor)
	}
}

// ensureTrailingNewline appends a final '\n' when the document lacks one,
// recording the op into batch without shifting cursors. Line movement
// requires it so the swap of the final line stays symmetric.
func (ed *Editor) ensureTrailingNewline(batch *EditBatch) {
	n := ed.src.Len()
	if n > 0 && ed.src.ByteAt(n-1) != '\n' {
		ed.rawInsert(n, []byte{'\n'}, batch)
		ed.reindex()
	}
}

// MoveLines swaps the blocks of lines under the cursors with their
// neighbor line above (dir < 0) or below (dir > 0). Cursors attached to a
// moving block travel with it; cursors in the swapped neighbor travel the
// opposite way. One undo step.
func (ed *Editor) MoveLines(dir int) {
	ed.commitPadding()
	if dir == 0 || ed.src.Len() == 0 {
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}
	ed.ensureTrailingNewline(&batch)

	// Every content line now ends with '\n'; the entry after the final
	// break is an empty pseudo-line that never moves.
	lastContent := ed.lines.Count() - 2
	blocks := lineBlocks(ed.coveredLines())

	apply := func(first, last int) {
		blockStart := ed.lines.Start(first)
		blockEnd := ed.lines.Start(last + 1)
		if dir > 0 {
			nStart, nEnd := ed.lines.LineRange(last + 1)
			text := ed.rawErase(nStart, nEnd-nStart, &batch)
			ed.rawInsert(blockStart, text, &batch)
			ed.translateCursors(
				cursorShift{blockEnd, nEnd, -(blockEnd - blockStart)},
				cursorShift{blockStart, blockEnd, len(text)},
			)
		} else {
			nStart := ed.lines.Start(first - 1)
			text := ed.rawErase(nStart, blockStart-nStart, &batch)
			ed.rawInsert(nStart+(blockEnd-blockStart), text, &batch)
			ed.translateCursors(
				cursorShift{nStart, blockStart, blockEnd - blockStart},
				cursorShift{blockStart, blockEnd, -len(text)},
			)
		}
		ed.reindex()
	}

	if dir > 0 {
		for i := len(blocks) - 1; i >= 0; i-- {
			if blocks[i][1] >= lastContent {
				continue
			}
			apply(blocks[i][0], blocks[i][1])
		}
	} else {
		for _, b := range blocks {
			if b[0] == 0 || b[0] > lastContent {
				continue
			}
			apply(b[0], min(b[1], lastContent))
		}
	}

	if len(batch.ops) == 0 {
		return
	}
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = ed.XOf(c.Anchor)
	}
	ed.cursors.Merge()
	ed.commit(batch)
}

// DuplicateLines copies the blocks of lines under the cursors, inserting
// the copy above (below == false) or below each block. Cursors land on the
// new copy, so repeating the operation duplicates again.
func (ed *Editor) DuplicateLines(below bool) {
	ed.commitPadding()
	if ed.src.Len() == 0 {
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}
	ed.ensureTrailingNewline(&batch)

	blocks := lineBlocks(ed.coveredLines())
	lastContent := ed.lines.Count() - 2

	for i := len(blocks) - 1; i >= 0; i-- {
		first, last := blocks[i][0], blocks[i][1]
		if first > lastContent {
			continue
		}
		last = min(last, lastContent)
		blockStart := ed.lines.Start(first)
		blockEnd := ed.lines.Start(last + 1)
		text := ed.src.Range(blockStart, blockEnd-blockStart)
		size := len(text)

		if below {
			ed.applyInsert(blockEnd, text, &batch)
			ed.translateCursors(cursorShift{blockStart, blockEnd, size})
		} else {
			ed.applyInsert(blockStart, text, &batch)
			// the generic shift moved block cursors onto the original;
			// bring them back onto the fresh copy above it.
			ed.translateCursors(cursorShift{blockStart + size, blockEnd + size, -size})
		}
		ed.reindex()
	}

	if len(batch.ops) == 0 {
		return
	}
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = ed.XOf(c.Anchor)
		c.Virtual = false
	}
	ed.commit(batch)
}
