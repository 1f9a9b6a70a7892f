package editor

import (
	"testing"

	"golang.org/x/image/math/fixed"

	"github.com/mosaictext/mosaic/shaper"
)

var cell = fixed.I(8)

func newTestEditor(text string) *Editor {
	ed := New(shaper.NewMonospace(cell))
	ed.SetText(text)
	return ed
}

func cursorPositions(ed *Editor) []int {
	set := ed.Cursors().clone()
	set.Merge()
	out := make([]int, 0, set.Len())
	for i := range set.list {
		out = append(out, set.list[i].Head)
	}
	return out
}

func checkInvariants(t *testing.T, ed *Editor) {
	t.Helper()

	length := ed.Len()
	if ed.lines.Start(0) != 0 {
		t.Fatal("line index does not start at 0")
	}
	for i := 1; i < ed.lines.Count(); i++ {
		if ed.lines.Start(i) <= ed.lines.Start(i-1) {
			t.Fatal("line index not strictly increasing")
		}
	}
	if ed.lines.Start(ed.lines.Count()-1) > length {
		t.Fatal("line start past document end")
	}
	for i := range ed.cursors.list {
		c := &ed.cursors.list[i]
		if c.Head < 0 || c.Head > length || c.Anchor < 0 || c.Anchor > length {
			t.Fatalf("cursor out of range: %+v (len %d)", c, length)
		}
		if c.Virtual && c.DesiredX <= ed.XOf(c.Head) {
			t.Fatalf("virtual cursor without excess X: %+v", c)
		}
	}
}

// S1: basic edit plus undo back to the save point.
func TestBasicEditUndo(t *testing.T) {
	ed := newTestEditor("")

	ed.Insert("hello world")
	ed.SetCaret(5, 5)
	ed.Insert(",")
	if ed.Text() != "hello, world" {
		t.Fatalf("text = %q", ed.Text())
	}
	if !ed.IsModified() {
		t.Fatal("expected modified")
	}

	ed.Undo()
	if ed.Text() != "hello world" {
		t.Fatalf("text = %q", ed.Text())
	}
	ed.Undo()
	if ed.Text() != "" {
		t.Fatalf("text = %q", ed.Text())
	}
	if ed.IsModified() {
		t.Fatal("expected unmodified at save point")
	}
	checkInvariants(t, ed)
}

// S2: multi-caret paste of a single-line payload.
func TestMultiCaretPaste(t *testing.T) {
	ed := newTestEditor("a\nb\nc\n")
	ed.SetCaret(0, 0)
	ed.AddCaret(2)
	ed.AddCaret(4)

	ed.Paste("X", false)

	if ed.Text() != "Xa\nXb\nXc\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	got := cursorPositions(ed)
	want := []int{1, 4, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cursors = %v, want %v", got, want)
		}
	}
	checkInvariants(t, ed)
}

// S3: rectangular paste lands each payload line at the base column.
func TestRectangularPaste(t *testing.T) {
	ed := newTestEditor("abc\ndef\nghi\n")
	ed.SetCaret(1, 1)

	ed.Paste("PQ\nRS\nTU", true)

	if ed.Text() != "aPQbc\ndRSef\ngTUhi\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	got := cursorPositions(ed)
	want := []int{3, 9, 15}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cursors = %v, want %v", got, want)
		}
	}
	// one undo removes the whole paste
	ed.Undo()
	if ed.Text() != "abc\ndef\nghi\n" {
		t.Fatalf("after undo: %q", ed.Text())
	}
	checkInvariants(t, ed)
}

// S4: typing in virtual space pads with spaces first, in the same batch.
func TestVirtualSpaceType(t *testing.T) {
	ed := newTestEditor("ab\n")
	ed.SetCaretAt(0, 6*cell, true)

	c := ed.Cursors().Primary()
	if !c.Virtual || c.DesiredX != 6*cell {
		t.Fatalf("cursor = %+v", c)
	}

	ed.Insert("X")
	if ed.Text() != "ab    X\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	c = ed.Cursors().Primary()
	if c.Head != 7 || c.Virtual {
		t.Fatalf("cursor = %+v", c)
	}

	// padding and payload undo together
	ed.Undo()
	if ed.Text() != "ab\n" {
		t.Fatalf("after undo: %q", ed.Text())
	}
	checkInvariants(t, ed)
}

// S5: moving the final line down synthesizes the trailing newline.
func TestMoveLineDownAcrossEOF(t *testing.T) {
	ed := newTestEditor("A\nB")
	ed.SetCaret(0, 0)

	ed.MoveLines(1)

	if ed.Text() != "B\nA\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	c := ed.Cursors().Primary()
	if ed.lines.LineOf(c.Head) != 1 {
		t.Fatalf("cursor on line %d", ed.lines.LineOf(c.Head))
	}
	checkInvariants(t, ed)
}

// S6: regex replace-all with group references, one undo step.
func TestReplaceAllRegex(t *testing.T) {
	ed := newTestEditor("foo1 foo2 foo3")
	ed.MarkSaved()

	n := ed.ReplaceAll(`foo(\d)`, "bar$1", FindOptions{Regex: true})
	if n != 3 {
		t.Fatalf("n = %d", n)
	}
	if ed.Text() != "bar1 bar2 bar3" {
		t.Fatalf("text = %q", ed.Text())
	}
	if !ed.IsModified() {
		t.Fatal("expected modified")
	}

	ed.Undo()
	if ed.Text() != "foo1 foo2 foo3" {
		t.Fatalf("after undo: %q", ed.Text())
	}
	if ed.IsModified() {
		t.Fatal("expected unmodified after undo to save point")
	}
	checkInvariants(t, ed)
}

func TestReplaceAllInvalidRegex(t *testing.T) {
	ed := newTestEditor("abc")
	ed.SetCaret(1, 1)

	if n := ed.ReplaceAll("(", "x", FindOptions{Regex: true}); n != 0 {
		t.Fatalf("n = %d", n)
	}
	if ed.Text() != "abc" || ed.Cursors().Primary().Head != 1 {
		t.Fatal("invalid regex must leave document and cursors untouched")
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	ed := newTestEditor("one\ntwo\nthree\n")
	ed.SetCaret(4, 4)
	ed.Insert("2.5\n")
	after := ed.Text()

	ed.Undo()
	ed.Redo()
	if ed.Text() != after {
		t.Fatalf("undo+redo changed text: %q", ed.Text())
	}
	ed.Redo() // no-op
	if ed.Text() != after {
		t.Fail()
	}
	ed.Undo()
	if ed.Text() != "one\ntwo\nthree\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	checkInvariants(t, ed)
}

func TestBackspaceBoundaries(t *testing.T) {
	ed := newTestEditor("ab")
	ed.SetCaret(0, 0)

	ed.Backspace() // position 0 is a no-op
	if ed.Text() != "ab" {
		t.Fail()
	}
	if ed.history.canUndo() {
		t.Fatal("no-op backspace must not create a batch")
	}

	ed.SetCaret(2, 2)
	ed.DeleteForward() // at length is a no-op
	if ed.Text() != "ab" || ed.history.canUndo() {
		t.Fail()
	}

	ed.Backspace()
	if ed.Text() != "a" {
		t.Fatalf("text = %q", ed.Text())
	}
}

func TestBackspaceGrapheme(t *testing.T) {
	ed := newTestEditor("a日b")
	ed.SetCaret(4, 4)

	ed.Backspace()
	if ed.Text() != "ab" {
		t.Fatalf("text = %q", ed.Text())
	}
	if ed.Cursors().Primary().Head != 1 {
		t.Fail()
	}
}

func TestBackspaceAcrossNewline(t *testing.T) {
	ed := newTestEditor("a\nb")
	ed.SetCaret(2, 2)

	ed.Backspace()
	if ed.Text() != "ab" {
		t.Fatalf("text = %q", ed.Text())
	}
}

func TestVirtualBackspaceRetractsWithoutBatch(t *testing.T) {
	ed := newTestEditor("ab\n")
	ed.SetCaretAt(0, 6*cell, true)

	ed.Backspace()
	c := ed.Cursors().Primary()
	if ed.Text() != "ab\n" || c.DesiredX != 5*cell || !c.Virtual {
		t.Fatalf("text = %q, cursor = %+v", ed.Text(), c)
	}
	if ed.history.canUndo() {
		t.Fatal("virtual retract must not be undoable")
	}

	// retract all the way back to the physical line end
	ed.Backspace()
	ed.Backspace()
	ed.Backspace()
	c = ed.Cursors().Primary()
	if c.Virtual || c.DesiredX != 2*cell {
		t.Fatalf("cursor = %+v", c)
	}
}

func TestSelectionBackspace(t *testing.T) {
	ed := newTestEditor("hello world")
	ed.SetCaret(5, 0)

	ed.Backspace()
	if ed.Text() != " world" {
		t.Fatalf("text = %q", ed.Text())
	}
	if ed.Cursors().Primary().Head != 0 {
		t.Fail()
	}
}

func TestInsertReplacesSelections(t *testing.T) {
	ed := newTestEditor("aaa bbb aaa")
	ed.SetCaret(3, 0)
	ed.AddCaret(8)
	c := ed.Cursors().Primary()
	c.Anchor = 8
	c.Head = 11

	ed.Insert("X")
	if ed.Text() != "X bbb X" {
		t.Fatalf("text = %q", ed.Text())
	}
	checkInvariants(t, ed)
}

func TestMergeOverlapping(t *testing.T) {
	ed := newTestEditor("abcdefgh")
	ed.SetCaret(4, 0)
	ed.Cursors().Add(Cursor{Head: 6, Anchor: 2})
	ed.Cursors().Merge()

	if ed.Cursors().Len() != 1 {
		t.Fatalf("cursors = %d", ed.Cursors().Len())
	}
	c := ed.Cursors().Primary()
	if c.Start() != 0 || c.End() != 6 {
		t.Fatalf("merged = [%d, %d)", c.Start(), c.End())
	}
	// directionality of the earlier cursor is preserved (forward)
	if !c.forward() {
		t.Fail()
	}
}

func TestCursorShiftOnOtherEdit(t *testing.T) {
	ed := newTestEditor("aaaa")
	ed.SetCaret(1, 1)
	ed.AddCaret(3)

	ed.Insert("XY")
	// both carets insert; positions reconcile without overlap
	if ed.Text() != "aXYaaXYa" {
		t.Fatalf("text = %q", ed.Text())
	}
	got := cursorPositions(ed)
	if got[0] != 3 || got[1] != 7 {
		t.Fatalf("cursors = %v", got)
	}
}

func TestDeleteLines(t *testing.T) {
	ed := newTestEditor("one\ntwo\nthree\n")
	ed.SetCaret(5, 5) // on "two"

	ed.DeleteLines()
	if ed.Text() != "one\nthree\n" {
		t.Fatalf("text = %q", ed.Text())
	}

	// selection spanning a line boundary deletes both lines, but a
	// selection ending exactly at a line start spares that line
	ed.SetText("a\nb\nc\n")
	ed.SetCaret(4, 1) // head at start of "c" line, anchor inside "a" line
	ed.DeleteLines()
	if ed.Text() != "c\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	checkInvariants(t, ed)
}

func TestMoveLinesUp(t *testing.T) {
	ed := newTestEditor("one\ntwo\nthree\n")
	ed.SetCaret(5, 5)

	ed.MoveLines(-1)
	if ed.Text() != "two\none\nthree\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	// cursor rode along with its line
	c := ed.Cursors().Primary()
	if ed.lines.LineOf(c.Head) != 0 {
		t.Fail()
	}

	// the first line cannot move further up
	ed.MoveLines(-1)
	if ed.Text() != "two\none\nthree\n" {
		t.Fatalf("text = %q", ed.Text())
	}
}

func TestMoveLinesBlock(t *testing.T) {
	ed := newTestEditor("a\nb\nc\nd\n")
	// select lines b and c
	ed.SetCaret(5, 2)

	ed.MoveLines(1)
	if ed.Text() != "a\nd\nb\nc\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	checkInvariants(t, ed)
}

func TestDuplicateLinesDown(t *testing.T) {
	ed := newTestEditor("one\ntwo\n")
	ed.SetCaret(0, 0)

	ed.DuplicateLines(true)
	if ed.Text() != "one\none\ntwo\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	// cursor sits on the copy: repeating duplicates again
	ed.DuplicateLines(true)
	if ed.Text() != "one\none\none\ntwo\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	checkInvariants(t, ed)
}

func TestDuplicateLinesUp(t *testing.T) {
	ed := newTestEditor("one\ntwo\n")
	ed.SetCaret(4, 4) // on "two"

	ed.DuplicateLines(false)
	if ed.Text() != "one\ntwo\ntwo\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	c := ed.Cursors().Primary()
	if ed.lines.LineOf(c.Head) != 1 {
		t.Fatalf("cursor on line %d", ed.lines.LineOf(c.Head))
	}
}

func TestConvertCase(t *testing.T) {
	ed := newTestEditor("straße and MORE")
	ed.SetCaret(7, 0)

	ed.ConvertCase(true)
	if ed.Text() != "STRASSE and MORE" {
		t.Fatalf("text = %q", ed.Text())
	}
	// ß expanded to SS; the selection covers the full mapped text
	c := ed.Cursors().Primary()
	if c.Start() != 0 || c.End() != 7 {
		t.Fatalf("selection = [%d, %d)", c.Start(), c.End())
	}

	ed.Undo()
	if ed.Text() != "straße and MORE" {
		t.Fatalf("after undo: %q", ed.Text())
	}
}

func TestFindWrapAround(t *testing.T) {
	ed := newTestEditor("alpha beta alpha")

	r, ok := ed.Find(7, "alpha", true, FindOptions{})
	if !ok || r.Start != 11 {
		t.Fatalf("r = %+v ok = %v", r, ok)
	}
	// wraps exactly once
	r, ok = ed.Find(12, "alpha", true, FindOptions{})
	if !ok || r.Start != 0 {
		t.Fatalf("r = %+v", r)
	}
	if _, ok := ed.Find(0, "gamma", true, FindOptions{}); ok {
		t.Fatal("absent query must report no match")
	}
}

func TestFindOptions(t *testing.T) {
	ed := newTestEditor("Cat catalog cat")

	if rs := ed.FindAll("cat", FindOptions{MatchCase: true}); len(rs) != 2 {
		t.Fatalf("case-sensitive matches = %d", len(rs))
	}
	if rs := ed.FindAll("cat", FindOptions{}); len(rs) != 3 {
		t.Fatalf("case-insensitive matches = %d", len(rs))
	}
	rs := ed.FindAll("cat", FindOptions{WholeWord: true})
	if len(rs) != 2 || rs[0].Start != 0 || rs[1].Start != 12 {
		t.Fatalf("whole-word matches = %v", rs)
	}
}

func TestMatchesInRange(t *testing.T) {
	ed := newTestEditor("x x x x")
	ed.FindAll("x", FindOptions{})

	in := ed.Matches().InRange(2, 5)
	if len(in) != 2 {
		t.Fatalf("in range = %v", in)
	}
}

func TestSelectNextOccurrence(t *testing.T) {
	ed := newTestEditor("foo bar foo baz foo")
	ed.SetCaret(1, 1)

	ed.SelectNextOccurrence()
	c := ed.Cursors().Primary()
	if c.Start() != 0 || c.End() != 3 {
		t.Fatalf("word select = [%d, %d)", c.Start(), c.End())
	}

	ed.SelectNextOccurrence()
	if ed.Cursors().Len() != 2 {
		t.Fatalf("cursors = %d", ed.Cursors().Len())
	}
	ed.SelectNextOccurrence()
	if ed.Cursors().Len() != 3 {
		t.Fatalf("cursors = %d", ed.Cursors().Len())
	}
	// every occurrence covered: the gesture stops adding
	ed.SelectNextOccurrence()
	if ed.Cursors().Len() != 3 {
		t.Fatalf("cursors = %d", ed.Cursors().Len())
	}
}

func TestRectSelectionCopy(t *testing.T) {
	ed := newTestEditor("abc\ndef\nghi\n")

	ed.BeginRectSelection(0, 1*cell)
	ed.DragRectSelection(2, 3*cell)
	ed.EndRectSelection()

	if ed.Cursors().Len() != 3 {
		t.Fatalf("cursors = %d", ed.Cursors().Len())
	}
	text, rect := ed.Copy()
	if !rect || text != "bc\nef\nhi" {
		t.Fatalf("copy = %q rect = %v", text, rect)
	}
}

func TestRectCopyPasteRoundTrip(t *testing.T) {
	ed := newTestEditor("abc\ndef\nghi\n")
	ed.BeginRectSelection(0, 0)
	ed.DragRectSelection(2, 2*cell)
	ed.EndRectSelection()
	text, rect := ed.Copy()

	ed2 := newTestEditor("XX\nYY\nZZ\n")
	ed2.SetCaret(2, 2)
	ed2.Paste(text, rect)
	if ed2.Text() != "XXab\nYYde\nZZgh\n" {
		t.Fatalf("text = %q", ed2.Text())
	}
	checkInvariants(t, ed2)
}

func TestRectSelectionPadsShortLines(t *testing.T) {
	ed := newTestEditor("long line\nab\nlonger\n")

	ed.BeginRectSelection(0, 8*cell)
	ed.DragRectSelection(2, 8*cell)
	// the short middle line gained provisional padding
	if ed.Text() == "long line\nab\nlonger\n" {
		t.Fatal("expected provisional padding")
	}

	// cancelling the gesture rolls the padding back
	ed.SetCaret(0, 0)
	if ed.Text() != "long line\nab\nlonger\n" {
		t.Fatalf("text = %q", ed.Text())
	}
	if ed.history.canUndo() {
		t.Fatal("rolled-back padding must not reach the undo log")
	}
}

func TestRectSelectionPaddingCommits(t *testing.T) {
	ed := newTestEditor("long line\nab\n")

	ed.BeginRectSelection(0, 8*cell)
	ed.DragRectSelection(1, 8*cell)
	ed.EndRectSelection()

	ed.Insert("X")
	if !ed.history.canUndo() {
		t.Fatal("expected batches")
	}
	// undoing twice removes the typed text and then the padding
	ed.Undo()
	ed.Undo()
	if ed.Text() != "long line\nab\n" {
		t.Fatalf("text = %q", ed.Text())
	}
}

func TestDragMove(t *testing.T) {
	ed := newTestEditor("hello world")
	ed.SetCaret(5, 0)

	if !ed.PointerDown(2, 10, 10) {
		t.Fatal("press inside selection must arm the drag")
	}
	ed.PointerMove(8, 30, 10)
	if _, moving := ed.Dragging(); !moving {
		t.Fatal("expected drag in flight")
	}
	ed.PointerUp(8)

	if ed.Text() != " wohellorld" {
		t.Fatalf("text = %q", ed.Text())
	}
	ed.Undo()
	if ed.Text() != "hello world" {
		t.Fatalf("after undo: %q", ed.Text())
	}
}

func TestDragClickCollapses(t *testing.T) {
	ed := newTestEditor("hello world")
	ed.SetCaret(5, 0)

	ed.PointerDown(2, 10, 10)
	ed.PointerUp(2) // never moved: collapse at the click

	c := ed.Cursors().Primary()
	if c.HasSelection() || c.Head != 2 {
		t.Fatalf("cursor = %+v", c)
	}
}

func TestSavePointUnreachable(t *testing.T) {
	ed := newTestEditor("")
	ed.Insert("a")
	ed.Insert("b")
	ed.MarkSaved()

	ed.Undo()
	ed.Insert("c") // diverged: the save point is gone
	if !ed.IsModified() {
		t.Fatal("expected modified")
	}
	ed.Undo()
	ed.Undo()
	if !ed.IsModified() {
		t.Fatal("save point must stay unreachable")
	}
}

func TestRescaleX(t *testing.T) {
	ed := newTestEditor("ab\n")
	ed.SetCaretAt(0, 6*cell, true)

	ed.RescaleX(cell, 2*cell)
	c := ed.Cursors().Primary()
	if c.DesiredX != 12*cell {
		t.Fatalf("desiredX = %v", c.DesiredX)
	}
}

func TestWordMovement(t *testing.T) {
	ed := newTestEditor("foo bar_baz  qux")
	ed.SetCaret(0, 0)

	ed.MoveWordRight(false)
	if ed.Cursors().Primary().Head != 4 {
		t.Fatalf("head = %d", ed.Cursors().Primary().Head)
	}
	ed.MoveWordRight(false)
	if ed.Cursors().Primary().Head != 13 {
		t.Fatalf("head = %d", ed.Cursors().Primary().Head)
	}
	ed.MoveWordLeft(false)
	if ed.Cursors().Primary().Head != 4 {
		t.Fatalf("head = %d", ed.Cursors().Primary().Head)
	}
}

func TestVerticalMovementKeepsColumn(t *testing.T) {
	ed := newTestEditor("longest line\nab\nanother long\n")
	ed.SetCaret(8, 8) // column 8 on line 0

	ed.MoveVertical(1, false)
	// line "ab" is short: clamped to its end
	if ed.Cursors().Primary().Head != 15 {
		t.Fatalf("head = %d", ed.Cursors().Primary().Head)
	}
	ed.MoveVertical(1, false)
	// the remembered column is re-entered on a long enough line
	if got := ed.Cursors().Primary().Head - ed.lines.Start(2); got != 8 {
		t.Fatalf("column = %d", got)
	}
}

func TestApplyExternalBatch(t *testing.T) {
	ed := newTestEditor("abc")

	var b EditBatch
	b.before = ed.Cursors().clone()
	b.recordInsert(3, []byte("def"))
	b.after = ed.Cursors().clone()
	b.after.list[0].collapseTo(6)

	ed.ApplyBatch(b)
	if ed.Text() != "abcdef" || ed.Cursors().Primary().Head != 6 {
		t.Fatalf("text = %q", ed.Text())
	}
	ed.Undo()
	if ed.Text() != "abc" {
		t.Fatalf("after undo: %q", ed.Text())
	}
}
