package shaper

import (
	"testing"

	"golang.org/x/image/math/fixed"
)

var cell = fixed.I(8)

func TestXInLineASCII(t *testing.T) {
	m := NewMonospace(cell)

	if m.XInLine([]byte("abc"), 0) != 0 {
		t.Fail()
	}
	if m.XInLine([]byte("abc"), 2) != 2*cell {
		t.Fail()
	}
	if m.XInLine([]byte("abc"), 3) != 3*cell {
		t.Fail()
	}
	// past the end snaps to the trailing edge
	if m.XInLine([]byte("abc"), 10) != 3*cell {
		t.Fail()
	}
}

func TestXInLineWide(t *testing.T) {
	m := NewMonospace(cell)

	// CJK is two cells wide
	line := []byte("a日b")
	if m.XInLine(line, 1) != cell {
		t.Fail()
	}
	if m.XInLine(line, 4) != 3*cell {
		t.Fail()
	}
}

func TestOffsetForX(t *testing.T) {
	m := NewMonospace(cell)
	line := []byte("abc")

	if m.OffsetForX(line, 0) != 0 {
		t.Fail()
	}
	// snaps to the nearer boundary
	if m.OffsetForX(line, cell+cell/4) != 1 {
		t.Fail()
	}
	if m.OffsetForX(line, cell+3*cell/4) != 2 {
		t.Fail()
	}
	// beyond the line returns the trailing edge
	if m.OffsetForX(line, 100*cell) != 3 {
		t.Fail()
	}
	if m.OffsetForX(nil, 5*cell) != 0 {
		t.Fail()
	}
}

func TestGraphemeStep(t *testing.T) {
	m := NewMonospace(cell)

	line := []byte("ab")
	if m.GraphemeStep(line, 0, true) != 1 {
		t.Fail()
	}
	if m.GraphemeStep(line, 2, true) != 2 {
		t.Fail()
	}
	if m.GraphemeStep(line, 1, false) != 0 {
		t.Fail()
	}

	// multi-byte rune steps whole
	line = []byte("a日b")
	if m.GraphemeStep(line, 1, true) != 4 {
		t.Fail()
	}
	if m.GraphemeStep(line, 4, false) != 1 {
		t.Fail()
	}
}

func TestGraphemeStepCombining(t *testing.T) {
	m := NewMonospace(cell)

	// "e" + combining acute is one cluster of 3 bytes
	line := []byte("éx")
	if m.GraphemeStep(line, 0, true) != 3 {
		t.Fail()
	}
	if m.GraphemeStep(line, 3, false) != 0 {
		t.Fail()
	}
}
