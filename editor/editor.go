package editor

import (
	"io"

	"golang.org/x/image/math/fixed"

	"github.com/mosaictext/mosaic/buffer"
)

// Editor is the edit engine: it receives intents, consults the layout
// oracle and the line index, mutates the piece table, and keeps the cursor
// set and the undo log consistent. It is single-threaded cooperative: every
// intent completes fully before returning, and no intent ever fails —
// out-of-range inputs are clamped and empty inputs are no-ops.
type Editor struct {
	src    *buffer.PieceTableReader
	lines  buffer.LineIndex
	shaper Shaper

	cursors CursorSet
	history UndoLog

	// auto-inserted spaces backing a live rectangular selection; rolled
	// back if the gesture is cancelled, committed as a batch otherwise.
	pendingPadding []EditOp
	rect           rectState

	drag dragState

	matches MatchSet

	scratch []byte
}

// New returns an empty editor using sh as its layout oracle.
func New(sh Shaper) *Editor {
	ed := &Editor{
		src:     buffer.NewTextSource(),
		shaper:  sh,
		cursors: newCursorSet(),
	}
	ed.lines.Rebuild(ed.src.PieceTable)
	return ed
}

// Load replaces the document wholesale, as on open/new: the undo log is
// cleared, the save point reset, and the caret moved to the start. The byte
// slice is adopted, not copied; it may alias a read-only file mapping that
// must stay valid for the document's lifetime.
func (ed *Editor) Load(text []byte) {
	ed.src = buffer.NewTextSourceFrom(text)
	ed.history.clear()
	ed.cursors = newCursorSet()
	ed.pendingPadding = nil
	ed.rect = rectState{}
	ed.drag = dragState{}
	ed.matches.clear()
	ed.lines.Rebuild(ed.src.PieceTable)
}

// SetText is Load for string content.
func (ed *Editor) SetText(s string) {
	ed.Load([]byte(s))
}

// Text returns the whole document.
func (ed *Editor) Text() string {
	ed.scratch = ed.src.Text(ed.scratch)
	return string(ed.scratch)
}

// Len is the document length in bytes.
func (ed *Editor) Len() int {
	return ed.src.Len()
}

// Range copies at most n document bytes starting at p.
func (ed *Editor) Range(p, n int) []byte {
	return ed.src.Range(p, n)
}

// Reader returns a reader over the whole document, positioned at the
// start. It streams straight from the piece chain, so saving never
// materializes the document in the heap.
func (ed *Editor) Reader() io.Reader {
	ed.src.Seek(0, io.SeekStart)
	return ed.src
}

// Rebase swaps the document's backing store for an identical byte
// sequence, typically the freshly written file mapping after a save.
// Cursors, the undo log and the save point are preserved.
func (ed *Editor) Rebase(text []byte) {
	ed.src = buffer.NewTextSourceFrom(text)
	ed.reindex()
}

// Cursors exposes the cursor set, mainly for rendering.
func (ed *Editor) Cursors() *CursorSet {
	return &ed.cursors
}

// Lines exposes the line index, mainly for rendering.
func (ed *Editor) Lines() *buffer.LineIndex {
	return &ed.lines
}

// IsModified reports whether the document differs from its save point.
func (ed *Editor) IsModified() bool {
	return ed.history.isModified()
}

// MarkSaved advances the save point to the current undo stack height.
func (ed *Editor) MarkSaved() {
	ed.history.markSaved()
}

func (ed *Editor) reindex() {
	ed.lines.Rebuild(ed.src.PieceTable)
}

// visibleLine returns the byte range of line i without its trailing line
// break sequence.
func (ed *Editor) visibleLine(i int) (start, end int) {
	start, end = ed.lines.LineRange(i)
	if end > start && ed.src.ByteAt(end-1) == '\n' {
		end--
		if end > start && ed.src.ByteAt(end-1) == '\r' {
			end--
		}
	}
	return start, end
}

// XOf returns the visual X of byte position p on its line.
func (ed *Editor) XOf(p int) fixed.Int26_6 {
	line := ed.lines.LineOf(p)
	start, end := ed.visibleLine(line)
	off := p - start
	if off > end-start {
		off = end - start
	}
	return ed.shaper.XInLine(ed.src.Range(start, end-start), off)
}

// PosFromLineX maps a visual X on line i back to a document byte position.
func (ed *Editor) PosFromLineX(i int, x fixed.Int26_6) int {
	if i < 0 {
		i = 0
	}
	if i >= ed.lines.Count() {
		i = ed.lines.Count() - 1
	}
	start, end := ed.visibleLine(i)
	return start + ed.shaper.OffsetForX(ed.src.Range(start, end-start), x)
}

func (ed *Editor) lineEndX(i int) fixed.Int26_6 {
	start, end := ed.visibleLine(i)
	return ed.shaper.XInLine(ed.src.Range(start, end-start), end-start)
}

// applyInsert mutates the table, records the op, and shifts every cursor
// per the insert policy. The owning cursor is repositioned by the caller.
func (ed *Editor) applyInsert(pos int, text []byte, batch *EditBatch) {
	if len(text) == 0 {
		return
	}
	ed.src.Insert(pos, string(text))
	batch.recordInsert(pos, text)
	ed.cursors.shiftInsert(pos, len(text))
}

// applyErase mutates the table, records the op with the removed bytes, and
// shifts every cursor per the erase policy.
func (ed *Editor) applyErase(pos, n int, batch *EditBatch) {
	if n <= 0 {
		return
	}
	removed := ed.src.Range(pos, n)
	if len(removed) == 0 {
		return
	}
	ed.src.Erase(pos, len(removed))
	batch.recordErase(pos, removed)
	ed.cursors.shiftErase(pos, len(removed))
}

// rawInsert and rawErase record and mutate without the generic cursor
// shift; callers translate cursors explicitly (line swaps, duplication).
func (ed *Editor) rawInsert(pos int, text []byte, batch *EditBatch) {
	if len(text) == 0 {
		return
	}
	ed.src.Insert(pos, string(text))
	batch.recordInsert(pos, text)
}

func (ed *Editor) rawErase(pos, n int, batch *EditBatch) []byte {
	removed := ed.src.Range(pos, n)
	if len(removed) == 0 {
		return nil
	}
	ed.src.Erase(pos, len(removed))
	batch.recordErase(pos, removed)
	return removed
}

// commit finalizes a batch: after-cursors snapshot, undo push (clearing the
// redo stack), line index rebuild.
func (ed *Editor) commit(batch EditBatch) {
	batch.after = ed.cursors.clone()
	ed.history.push(batch)
	ed.reindex()
}

// Insert replaces every cursor's selection with text, padding virtual-space
// cursors with ASCII spaces first. An empty payload still erases the
// selections (this is how cut is expressed). The
// whole operation is one undo step.
func (ed *Editor) Insert(text string) {
	ed.commitPadding()
	if len(text) == 0 && !ed.cursors.anySelection() {
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}

	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		if c.HasSelection() {
			start := c.Start()
			ed.applyErase(start, c.End()-start, &batch)
			c.collapseTo(start)
			ed.reindex()
		}
		if c.Virtual {
			ed.padToDesired(c, &batch)
		}
		if len(text) > 0 {
			pos := c.Head
			ed.applyInsert(pos, []byte(text), &batch)
			c.collapseTo(pos + len(text))
			ed.reindex()
		}
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = c.DesiredX
		c.Virtual = false
	}

	if len(batch.ops) == 0 {
		return
	}
	ed.commit(batch)
}

// padToDesired inserts the spaces that realize a virtual-space cursor's
// DesiredX, leaving the cursor at the new physical line end. The padding
// ops land in the caller's batch so a single undo removes padding and
// payload together.
func (ed *Editor) padToDesired(c *Cursor, batch *EditBatch) {
	line := ed.lines.LineOf(c.Head)
	_, end := ed.visibleLine(line)
	endX := ed.lineEndX(line)
	cell := ed.shaper.CellWidth()

	if c.DesiredX <= endX+cell/2 {
		c.collapseTo(end)
		return
	}

	spaces := int((c.DesiredX - endX + cell/2) / cell)
	pad := make([]byte, spaces)
	for i := range pad {
		pad[i] = ' '
	}
	ed.applyInsert(end, pad, batch)
	c.collapseTo(end + spaces)
	ed.reindex()
}

// Backspace deletes selections if any cursor has one; otherwise each cursor
// either retracts its virtual-space column (no text change, not undoable)
// or erases one grapheme cluster to the left.
func (ed *Editor) Backspace() {
	ed.commitPadding()

	if ed.cursors.anySelection() {
		ed.deleteSelections()
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}
	cell := ed.shaper.CellWidth()

	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		if c.Virtual {
			endX := ed.lineEndX(ed.lines.LineOf(c.Head))
			c.DesiredX -= cell
			if c.DesiredX <= endX {
				c.DesiredX = endX
				c.Virtual = false
			}
			continue
		}
		prev := ed.graphemeLeft(c.Head)
		if prev < c.Head {
			ed.applyErase(prev, c.Head-prev, &batch)
			c.collapseTo(prev)
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

// DeleteForward deletes selections if any cursor has one; otherwise each
// cursor erases one grapheme cluster to the right. Virtual flags reset.
func (ed *Editor) DeleteForward() {
	ed.commitPadding()

	if ed.cursors.anySelection() {
		ed.deleteSelections()
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}

	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		c.Virtual = false
		next := ed.graphemeRight(c.Head)
		if next > c.Head {
			ed.applyErase(c.Head, next-c.Head, &batch)
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

func (ed *Editor) deleteSelections() {
	batch := EditBatch{before: ed.cursors.clone()}

	for _, idx := range ed.cursors.indicesByStartDesc() {
		c := ed.cursors.At(idx)
		if !c.HasSelection() {
			c.Virtual = false
			continue
		}
		start := c.Start()
		ed.applyErase(start, c.End()-start, &batch)
		c.collapseTo(start)
		ed.reindex()
		c.DesiredX = ed.XOf(c.Head)
		c.AnchorX = c.DesiredX
		c.Virtual = false
	}

	if len(batch.ops) == 0 {
		return
	}
	ed.commit(batch)
}

// graphemeLeft returns the position one grapheme cluster to the left of p.
// Crossing a line boundary steps over the line break as a single unit.
func (ed *Editor) graphemeLeft(p int) int {
	if p <= 0 {
		return 0
	}
	if ed.src.ByteAt(p-1) == '\n' {
		if p >= 2 && ed.src.ByteAt(p-2) == '\r' {
			return p - 2
		}
		return p - 1
	}
	line := ed.lines.LineOf(p)
	start, end := ed.visibleLine(line)
	off := p - start
	if off > end-start {
		off = end - start
	}
	return start + ed.shaper.GraphemeStep(ed.src.Range(start, end-start), off, false)
}

func (ed *Editor) graphemeRight(p int) int {
	if p >= ed.src.Len() {
		return ed.src.Len()
	}
	line := ed.lines.LineOf(p)
	start, vend := ed.visibleLine(line)
	if p >= vend {
		// step over the line break sequence
		_, end := ed.lines.LineRange(line)
		return end
	}
	return start + ed.shaper.GraphemeStep(ed.src.Range(start, vend-start), p-start, true)
}

// Undo reverts the most recent batch: ops are replayed inverted in reverse
// order and the before-cursors restored.
func (ed *Editor) Undo() bool {
	ed.rollbackPadding()
	if !ed.history.canUndo() {
		return false
	}

	b := ed.history.popUndo()
	for i := len(b.ops) - 1; i >= 0; i-- {
		op := b.ops[i]
		if op.kind == opInsert {
			ed.src.Erase(op.pos, len(op.text))
		} else {
			ed.src.Insert(op.pos, string(op.text))
		}
	}
	ed.cursors = b.before.clone()
	ed.reindex()
	return true
}

// Redo reapplies the most recently undone batch in stored order and
// restores the after-cursors.
func (ed *Editor) Redo() bool {
	ed.rollbackPadding()
	if !ed.history.canRedo() {
		return false
	}

	b := ed.history.popRedo()
	for _, op := range b.ops {
		if op.kind == opInsert {
			ed.src.Insert(op.pos, string(op.text))
		} else {
			ed.src.Erase(op.pos, len(op.text))
		}
	}
	ed.cursors = b.after.clone()
	ed.reindex()
	return true
}

// ApplyBatch applies an externally produced batch verbatim, provided its
// positions are valid at apply time. The host may use this to run expensive
// operations off-thread and ship the result back.
func (ed *Editor) ApplyBatch(b EditBatch) {
	for _, op := range b.ops {
		if op.kind == opInsert {
			ed.src.Insert(op.pos, string(op.text))
		} else {
			ed.src.Erase(op.pos, len(op.text))
		}
	}
	if b.after.Len() > 0 {
		ed.cursors = b.after.clone()
		ed.cursors.clamp(ed.src.Len())
	} else {
		ed.cursors.clamp(ed.src.Len())
	}
	ed.history.push(b)
	ed.reindex()
}

// RescaleX rescales every cached visual X after a font size change so
// cursors stay on their column.
func (ed *Editor) RescaleX(oldCell, newCell fixed.Int26_6) {
	if oldCell == 0 || oldCell == newCell {
		return
	}
	scale := func(x fixed.Int26_6) fixed.Int26_6 {
		return fixed.Int26_6(int64(x) * int64(newCell) / int64(oldCell))
	}
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		c.DesiredX = scale(c.DesiredX)
		c.AnchorX = scale(c.AnchorX)
	}
	ed.rect.anchorX = scale(ed.rect.anchorX)
	ed.rect.headX = scale(ed.rect.headX)
}
