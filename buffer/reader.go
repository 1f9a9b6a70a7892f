package buffer

import (
	"io"
	"unicode/utf8"
)

var _ TextSource = (*PieceTableReader)(nil)

// TextSource is the read-only view of a document that layout and search
// code consumes.
type TextSource interface {
	io.Reader
	io.ReaderAt
	io.Seeker

	// Len returns the document length in bytes.
	Len() int
	// Text appends the whole document to buf and returns it.
	Text(buf []byte) []byte
}

// PieceTableReader implements [TextSource] over a [PieceTable].
type PieceTableReader struct {
	*PieceTable

	seekCursor int64
}

// NewTextSource returns a reader over a fresh empty piece table.
func NewTextSource() *PieceTableReader {
	return NewTextSourceFrom(nil)
}

// NewTextSourceFrom returns a reader over a piece table seeded with text.
// The slice is adopted, not copied.
func NewTextSourceFrom(text []byte) *PieceTableReader {
	return &PieceTableReader{
		PieceTable: NewPieceTable(text),
	}
}

// ReadAt implements [io.ReaderAt].
func (r *PieceTableReader) ReadAt(p []byte, offset int64) (total int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	if offset >= int64(r.seqBytes) {
		return 0, io.EOF
	}

	expected := len(p)
	var bytes int64
	for n := r.pieces.Head(); n != r.pieces.tail; n = n.next {
		bytes += int64(n.length)

		if bytes > offset {
			fragment := r.getBuf(n.source).slice(
				n.offset+n.length-int(bytes-offset),
				int(bytes-offset))

			c := copy(p, fragment)
			p = p[c:]
			total += c
			offset += int64(c)

			if total >= expected {
				break
			}
		}
	}

	if total < expected {
		err = io.EOF
	}

	return
}

// Seek implements [io.Seeker].
func (r *PieceTableReader) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		r.seekCursor = offset
	case io.SeekCurrent:
		r.seekCursor += offset
	case io.SeekEnd:
		r.seekCursor = int64(r.seqBytes) + offset
	}
	return r.seekCursor, nil
}

// Read implements [io.Reader].
func (r *PieceTableReader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.seekCursor)
	r.seekCursor += int64(n)
	return n, err
}

// Text returns the whole document, reusing buf when it is large enough.
func (r *PieceTableReader) Text(buf []byte) []byte {
	if cap(buf) < r.seqBytes {
		buf = make([]byte, r.seqBytes)
	}
	buf = buf[:r.seqBytes]
	r.Seek(0, io.SeekStart)
	n, _ := io.ReadFull(r, buf)
	buf = buf[:n]
	return buf
}

// ReadRuneAt decodes the rune starting at the given byte offset, if any.
func (r *PieceTableReader) ReadRuneAt(off int64) (rune, int, error) {
	var buf [utf8.UTFMax]byte
	b := buf[:]
	n, err := r.ReadAt(b, off)
	b = b[:n]
	if n > 0 {
		err = nil
	}
	c, s := utf8.DecodeRune(b)
	return c, s, err
}

// ReadRuneBefore decodes the rune ending just before the given byte offset,
// if any.
func (r *PieceTableReader) ReadRuneBefore(off int64) (rune, int, error) {
	var buf [utf8.UTFMax]byte
	b := buf[:]
	if off < utf8.UTFMax {
		b = b[:off]
		off = 0
	} else {
		off -= utf8.UTFMax
	}
	n, err := r.ReadAt(b, off)
	b = b[:n]
	if n > 0 {
		err = nil
	}
	c, s := utf8.DecodeLastRune(b)
	return c, s, err
}
