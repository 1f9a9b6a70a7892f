package editor

import (
	"strings"

	"golang.org/x/image/math/fixed"
)

// rectState tracks an in-progress rectangular selection in document-space
// visual coordinates: a fixed anchor corner and a moving head corner.
type rectState struct {
	active               bool
	anchorLine, headLine int
	anchorX, headX       fixed.Int26_6
}

// BeginRectSelection starts a rectangular selection gesture (Alt-drag or
// Alt-Shift-arrow) anchored at the given line and visual X.
func (ed *Editor) BeginRectSelection(line int, x fixed.Int26_6) {
	ed.rect = rectState{
		active:     true,
		anchorLine: line, headLine: line,
		anchorX: x, headX: x,
	}
	ed.updateRectSelection()
}

// DragRectSelection moves the head corner to (line, x).
func (ed *Editor) DragRectSelection(line int, x fixed.Int26_6) {
	if !ed.rect.active {
		ed.BeginRectSelection(line, x)
		return
	}
	ed.rect.headLine = line
	ed.rect.headX = x
	ed.updateRectSelection()
}

// ExtendRectSelection moves the head corner by whole lines and cells, for
// the keyboard gesture. When no rectangular selection is active one starts
// at the primary caret.
func (ed *Editor) ExtendRectSelection(dLines int, dCells int) {
	if !ed.rect.active {
		c := ed.cursors.Primary()
		ed.rect = rectState{
			active:     true,
			anchorLine: ed.lines.LineOf(c.Head), headLine: ed.lines.LineOf(c.Head),
			anchorX: ed.XOf(c.Head), headX: ed.XOf(c.Head),
		}
	}
	ed.rect.headLine += dLines
	ed.rect.headX += fixed.Int26_6(dCells) * ed.shaper.CellWidth()
	if ed.rect.headLine < 0 {
		ed.rect.headLine = 0
	}
	if ed.rect.headX < 0 {
		ed.rect.headX = 0
	}
	ed.updateRectSelection()
}

// EndRectSelection finishes the gesture, keeping the cursors. The pending
// padding stays live until the next edit commits it or a cancelling
// movement rolls it back.
func (ed *Editor) EndRectSelection() {
	ed.rect.active = false
	ed.cursors.Merge()
}

// IsRectSelecting reports whether a rectangular gesture is in progress.
func (ed *Editor) IsRectSelecting() bool {
	return ed.rect.active
}

// updateRectSelection rebuilds the cursor set from the rect corners: one
// cursor per spanned line, each selecting the byte range between the two
// visual columns. Lines shorter than the needed column are padded with
// spaces; the padding is provisional until an edit commits it.
func (ed *Editor) updateRectSelection() {
	ed.rollbackPadding()

	first := min(ed.rect.anchorLine, ed.rect.headLine)
	last := max(ed.rect.anchorLine, ed.rect.headLine)
	if first < 0 {
		first = 0
	}
	if last >= ed.lines.Count() {
		last = ed.lines.Count() - 1
	}

	needX := max(ed.rect.anchorX, ed.rect.headX)
	cell := ed.shaper.CellWidth()

	// pad from the bottom up so earlier line offsets stay valid
	var padBatch EditBatch
	for i := last; i >= first; i-- {
		_, end := ed.visibleLine(i)
		endX := ed.lineEndX(i)
		if needX > endX {
			spaces := int((needX - endX + cell - 1) / cell)
			pad := make([]byte, spaces)
			for j := range pad {
				pad[j] = ' '
			}
			ed.src.Insert(end, string(pad))
			padBatch.recordInsert(end, pad)
		}
	}
	if len(padBatch.ops) > 0 {
		ed.pendingPadding = append(ed.pendingPadding, padBatch.ops...)
		ed.reindex()
	}

	ed.cursors.list = ed.cursors.list[:0]
	for i := first; i <= last; i++ {
		anchor := ed.PosFromLineX(i, ed.rect.anchorX)
		head := ed.PosFromLineX(i, ed.rect.headX)
		ed.cursors.list = append(ed.cursors.list, Cursor{
			Head: head, Anchor: anchor,
			DesiredX: ed.rect.headX,
			AnchorX:  ed.rect.anchorX,
		})
	}
	ed.cursors.Rectangular = true
}

// rollbackPadding removes provisional rectangular-selection padding; the
// gesture was cancelled, so the spaces never existed.
func (ed *Editor) rollbackPadding() {
	if len(ed.pendingPadding) == 0 {
		return
	}
	for i := len(ed.pendingPadding) - 1; i >= 0; i-- {
		op := ed.pendingPadding[i]
		ed.src.Erase(op.pos, len(op.text))
	}
	ed.pendingPadding = ed.pendingPadding[:0]
	ed.reindex()
	ed.cursors.clamp(ed.src.Len())
}

// commitPadding turns provisional padding into its own undo step, run
// before any edit that builds on the padded text.
func (ed *Editor) commitPadding() {
	if len(ed.pendingPadding) == 0 {
		return
	}
	batch := EditBatch{
		ops:    append([]EditOp(nil), ed.pendingPadding...),
		before: ed.cursors.clone(),
		after:  ed.cursors.clone(),
	}
	ed.pendingPadding = ed.pendingPadding[:0]
	ed.history.push(batch)
}

// Copy serializes the selections in document order. rect reports whether
// the payload came from a rectangular selection; the host stores it
// alongside the text so a later paste restores the spatial shape.
func (ed *Editor) Copy() (text string, rect bool) {
	ordered := ed.cursors.clone()
	ordered.Merge()

	var sb strings.Builder
	wrote := false
	for i := range ordered.list {
		c := &ordered.list[i]
		if !c.HasSelection() {
			continue
		}
		if wrote {
			sb.WriteByte('\n')
		}
		sb.Write(ed.src.Range(c.Start(), c.End()-c.Start()))
		wrote = true
	}
	return sb.String(), ed.cursors.Rectangular && wrote
}

// Cut is Copy followed by deleting the selections as one undo step.
func (ed *Editor) Cut() (string, bool) {
	text, rect := ed.Copy()
	if text != "" {
		ed.Insert("")
	}
	return text, rect
}

// Paste inserts clipboard content. A rectangular payload is spatially
// pasted; otherwise a payload with exactly one line per cursor distributes
// line-wise, and anything else is inserted whole at every cursor.
func (ed *Editor) Paste(text string, rect bool) {
	if text == "" {
		return
	}
	if rect {
		ed.PasteBlock(text)
		return
	}
	if ed.cursors.Len() > 1 {
		lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
		if len(lines) == ed.cursors.Len() {
			ed.insertPerCursor(lines)
			return
		}
	}
	ed.Insert(text)
}

// insertPerCursor gives each cursor (in document order) its own line of the
// payload, as one undo step.
func (ed *Editor) insertPerCursor(lines []string) {
	ed.commitPadding()
	batch := EditBatch{before: ed.cursors.clone()}

	order := ed.cursors.indicesByStartDesc()
	// order is descending; payload lines pair with cursors ascending
	for rank, idx := range order {
		c := ed.cursors.At(idx)
		line := lines[len(order)-1-rank]
		if c.HasSelection() {
			start := c.Start()
			ed.applyErase(start, c.End()-start, &batch)
			c.collapseTo(start)
		}
		if c.Virtual {
			ed.padToDesired(c, &batch)
		}
		pos := c.Head
		ed.applyInsert(pos, []byte(line), &batch)
		c.collapseTo(pos + len(line))
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

// PasteBlock pastes a rectangular payload spatially: line i of the payload
// lands on baseLine+i at the base cursor's visual X, padding short lines
// and extending the document with synthetic newlines as needed. The cursor
// set is replaced with one caret at the right edge of each pasted line.
func (ed *Editor) PasteBlock(text string) {
	if text == "" {
		return
	}
	ed.commitPadding()
	batch := EditBatch{before: ed.cursors.clone()}

	// base is the first cursor by position
	base := ed.cursors.list[0].Head
	for i := range ed.cursors.list {
		base = min(base, ed.cursors.list[i].Head)
	}
	baseLine := ed.lines.LineOf(base)
	baseX := ed.XOf(base)
	cell := ed.shaper.CellWidth()

	payload := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	carets := make([]Cursor, 0, len(payload))

	for i, lineText := range payload {
		target := baseLine + i
		for target >= ed.lines.Count() {
			ed.applyInsert(ed.src.Len(), []byte{'\n'}, &batch)
			ed.reindex()
		}

		// pad when the base column is beyond this line's end
		endX := ed.lineEndX(target)
		if baseX > endX {
			spaces := int((baseX - endX + cell - 1) / cell)
			pad := make([]byte, spaces)
			for j := range pad {
				pad[j] = ' '
			}
			_, end := ed.visibleLine(target)
			ed.applyInsert(end, pad, &batch)
			ed.reindex()
		}

		pos := ed.PosFromLineX(target, baseX)
		ed.applyInsert(pos, []byte(lineText), &batch)
		ed.reindex()

		head := pos + len(lineText)
		x := ed.XOf(head)
		carets = append(carets, Cursor{Head: head, Anchor: head, DesiredX: x, AnchorX: x})
	}

	ed.cursors = CursorSet{list: carets}
	ed.commit(batch)
}
