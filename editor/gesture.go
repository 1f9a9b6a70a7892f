package editor

type dragPhase uint8

const (
	dragIdle dragPhase = iota
	// the press landed inside a selection; waiting to see whether it
	// becomes a text drag or a plain click
	dragPending
	dragMoving
)

// dragThresholdPx is the pointer travel, in pixels, that turns a pending
// press into a text drag.
const dragThresholdPx = 5

type dragState struct {
	phase            dragPhase
	srcStart, srcEnd int
	dest             int
	startX, startY   float32
}

// PointerDown reports whether the press at document position pos landed
// inside an existing selection and therefore starts the drag-move state
// machine. When it returns false the host performs ordinary caret
// placement instead.
func (ed *Editor) PointerDown(pos int, x, y float32) bool {
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		if c.HasSelection() && pos >= c.Start() && pos < c.End() {
			ed.drag = dragState{
				phase:    dragPending,
				srcStart: c.Start(),
				srcEnd:   c.End(),
				dest:     pos,
				startX:   x,
				startY:   y,
			}
			return true
		}
	}
	return false
}

// PointerMove advances the drag state machine. pos is the document
// position under the pointer; x, y are window pixels for the travel
// threshold.
func (ed *Editor) PointerMove(pos int, x, y float32) {
	switch ed.drag.phase {
	case dragPending:
		dx, dy := x-ed.drag.startX, y-ed.drag.startY
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		if dx >= dragThresholdPx || dy >= dragThresholdPx {
			ed.drag.phase = dragMoving
			ed.drag.dest = pos
		}
	case dragMoving:
		ed.drag.dest = pos
	}
}

// Dragging reports whether a text drag is in flight, and the current drop
// position.
func (ed *Editor) Dragging() (int, bool) {
	return ed.drag.dest, ed.drag.phase == dragMoving
}

// PointerUp finishes the gesture: a pending press that never moved
// collapses the selection at the click; a completed drag moves the
// selected text to the drop position as one undo step.
func (ed *Editor) PointerUp(pos int) {
	switch ed.drag.phase {
	case dragPending:
		ed.SetCaret(pos, pos)
	case dragMoving:
		ed.commitDragMove(pos)
	}
	ed.drag = dragState{}
}

func (ed *Editor) commitDragMove(dest int) {
	st := ed.drag
	if dest >= st.srcStart && dest <= st.srcEnd {
		return
	}

	text := ed.src.Range(st.srcStart, st.srcEnd-st.srcStart)
	if len(text) == 0 {
		return
	}

	batch := EditBatch{before: ed.cursors.clone()}
	ed.rawErase(st.srcStart, len(text), &batch)

	insertPos := dest
	if insertPos > st.srcStart {
		insertPos -= len(text)
	}
	ed.rawInsert(insertPos, text, &batch)
	ed.reindex()

	end := insertPos + len(text)
	ed.cursors.Reset(Cursor{
		Head: end, Anchor: insertPos,
		DesiredX: ed.XOf(end), AnchorX: ed.XOf(insertPos),
	})
	ed.commit(batch)
}
