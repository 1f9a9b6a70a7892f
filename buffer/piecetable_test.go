package buffer

import (
	"bytes"
	"testing"
)

func TestInsert(t *testing.T) {
	pt := NewPieceTable(nil)
	reader := PieceTableReader{PieceTable: pt}
	pt.Insert(0, "Hello, world")
	pt.Insert(6, " Go")

	if string(reader.Text(nil)) != "Hello, Go world" {
		t.Fail()
	}

	pt = NewPieceTable([]byte("Hello, world"))
	reader = PieceTableReader{PieceTable: pt}
	pt.Insert(6, " Go")
	pt.Insert(6, " welcome to the")

	if string(reader.Text(nil)) != "Hello, welcome to the Go world" {
		t.Fail()
	}
}

func TestAppendInsert(t *testing.T) {
	pt := NewPieceTable(nil)
	reader := PieceTableReader{PieceTable: pt}
	pt.Insert(0, "H")
	pt.Insert(1, "e")
	pt.Insert(2, "l")
	pt.Insert(3, "l")
	pt.Insert(4, "o")

	if string(reader.Text(nil)) != "Hello" {
		t.Fail()
	}

	// consecutive typing extends the last piece instead of adding new ones.
	if pt.pieces.Length() != 1 {
		t.Fail()
	}

	pt.Insert(2, "X")
	if string(reader.Text(nil)) != "HeXllo" {
		t.Fail()
	}
	if pt.pieces.Length() != 3 {
		t.Fail()
	}
}

func TestInsertClamp(t *testing.T) {
	pt := NewPieceTable([]byte("abc"))
	reader := PieceTableReader{PieceTable: pt}

	pt.Insert(100, "!")
	if string(reader.Text(nil)) != "abc!" {
		t.Fail()
	}

	if pt.Insert(0, "") {
		t.Fail()
	}
}

func TestErase(t *testing.T) {
	pt := NewPieceTable([]byte("Hello, Go world"))
	reader := PieceTableReader{PieceTable: pt}

	// erase inside a single piece
	pt.Erase(5, 2)
	if string(reader.Text(nil)) != "HelloGo world" {
		t.Fail()
	}

	// erase across piece boundaries
	pt.Insert(5, ", little")
	if string(reader.Text(nil)) != "Hello, littleGo world" {
		t.Fail()
	}
	pt.Erase(3, 12)
	if string(reader.Text(nil)) != "Hel world" {
		t.Fail()
	}

	if pt.Len() != 9 {
		t.Fail()
	}
}

func TestEraseClamp(t *testing.T) {
	pt := NewPieceTable([]byte("abc"))
	reader := PieceTableReader{PieceTable: pt}

	// erasing at or past the end is a no-op
	if pt.Erase(3, 10) {
		t.Fail()
	}
	if pt.Erase(0, 0) {
		t.Fail()
	}

	pt.Erase(1, 100)
	if string(reader.Text(nil)) != "a" {
		t.Fail()
	}
}

func TestInsertEraseRoundTrip(t *testing.T) {
	pt := NewPieceTable([]byte("one\ntwo\nthree\n"))
	reader := PieceTableReader{PieceTable: pt}
	before := append([]byte(nil), reader.Text(nil)...)

	payload := "inserted\ntext"
	for _, p := range []int{0, 4, 14, pt.Len()} {
		pt.Insert(p, payload)
		pt.Erase(p, len(payload))
		if !bytes.Equal(reader.Text(nil), before) {
			t.Fatalf("round trip at %d: got %q", p, reader.Text(nil))
		}
	}
}

func TestPieceLengthInvariant(t *testing.T) {
	pt := NewPieceTable([]byte("abcdefgh"))
	pt.Insert(4, "1234")
	pt.Erase(2, 8)
	pt.Insert(0, "x")
	pt.Erase(0, 1)

	total := 0
	for n := pt.pieces.Head(); n != pt.pieces.tail; n = n.next {
		if n.length <= 0 {
			t.Fatalf("piece with non-positive length %d", n.length)
		}
		total += n.length
	}
	if total != pt.Len() {
		t.Fatalf("piece lengths sum to %d, Len is %d", total, pt.Len())
	}
}

func TestByteAt(t *testing.T) {
	pt := NewPieceTable([]byte("abc"))
	pt.Insert(3, "def")

	want := "abcdef"
	for i := 0; i < len(want); i++ {
		if pt.ByteAt(i) != want[i] {
			t.Fail()
		}
	}
}

func TestRange(t *testing.T) {
	pt := NewPieceTable([]byte("abc"))
	pt.Insert(3, "def")
	pt.Insert(0, "--")

	if string(pt.Range(2, 6)) != "abcdef" {
		t.Fail()
	}
	// clamped
	if string(pt.Range(6, 100)) != "ef" {
		t.Fail()
	}
	if pt.Range(8, 1) != nil {
		t.Fail()
	}
}
