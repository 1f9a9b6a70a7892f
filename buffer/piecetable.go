package buffer

// PieceTable is an append-only text sequence over two byte stores: the
// immutable original content (usually a read-only file mapping) and a
// growable add buffer holding every byte ever inserted. All positions are
// byte offsets into the logical document.
type PieceTable struct {
	originalBuf *textBuffer
	modifyBuf   *textBuffer

	// byte size of the text sequence.
	seqBytes int

	// piece list
	pieces *pieceList

	// last inserted piece and its end offset in the sequence, for
	// consecutive-typing optimization.
	lastInsertPiece *piece
	lastInsertEnd   int
}

// NewPieceTable builds a piece table seeded with text. The slice is adopted,
// not copied; it must remain valid and unmodified for the table's lifetime.
func NewPieceTable(text []byte) *PieceTable {
	pt := &PieceTable{
		originalBuf: &textBuffer{},
		modifyBuf:   &textBuffer{},
		pieces:      newPieceList(),
	}
	pt.init(text)

	return pt
}

// Initialize the piece table with the text by adopting it as the original
// buffer, and create the first piece pointing at it.
func (pt *PieceTable) init(text []byte) {
	n := pt.originalBuf.set(text)
	if n <= 0 {
		return
	}

	pt.pieces.Append(&piece{
		source: original,
		offset: 0,
		length: n,
	})
	pt.seqBytes = n
}

func (pt *PieceTable) getBuf(source bufSrc) *textBuffer {
	if source == original {
		return pt.originalBuf
	}

	return pt.modifyBuf
}

// Len returns the total length of the document in bytes.
func (pt *PieceTable) Len() int {
	return pt.seqBytes
}

// ByteAt returns the byte at logical position p. It walks the piece chain,
// so callers reading sequentially should prefer Range or the reader.
func (pt *PieceTable) ByteAt(p int) byte {
	if p < 0 || p >= pt.seqBytes {
		return 0
	}

	node, off := pt.pieces.FindPiece(p)
	return pt.getBuf(node.source).byteAt(node.offset + off)
}

// Range copies at most n bytes starting at p into a fresh buffer, crossing
// piece boundaries as needed. n is clamped to the document end.
func (pt *PieceTable) Range(p, n int) []byte {
	if p < 0 {
		p = 0
	}
	if p > pt.seqBytes {
		p = pt.seqBytes
	}
	if n > pt.seqBytes-p {
		n = pt.seqBytes - p
	}
	if n <= 0 {
		return nil
	}

	out := make([]byte, 0, n)
	node, off := pt.pieces.FindPiece(p)
	for node != pt.pieces.tail && len(out) < n {
		take := node.length - off
		if take > n-len(out) {
			take = n - len(out)
		}
		out = append(out, pt.getBuf(node.source).slice(node.offset+off, take)...)
		off = 0
		node = node.next
	}

	return out
}

// Insert places text at the logical byte position p. Out-of-range positions
// are clamped; inserting at Len appends. Empty inserts are no-ops.
// There are two scenarios to handle:
//  1. Insert at the boundary of two pieces.
//  2. Insert in the middle of a piece, which splits it.
func (pt *PieceTable) Insert(p int, text string) bool {
	if len(text) == 0 {
		return false
	}
	if p < 0 {
		p = 0
	}
	if p > pt.seqBytes {
		p = pt.seqBytes
	}

	// special-case: typing right after a prior insertion extends its piece.
	if pt.tryAppendToLastPiece(p, text) {
		return true
	}

	off := pt.modifyBuf.append([]byte(text))
	newPiece := &piece{
		source: modify,
		offset: off,
		length: len(text),
	}

	oldPiece, inOff := pt.pieces.FindPiece(p)
	switch {
	case oldPiece == pt.pieces.tail:
		pt.pieces.Append(newPiece)
	case inOff == 0:
		pt.pieces.InsertBefore(oldPiece, newPiece)
	default:
		// split the old piece and place the new one between the halves.
		right := &piece{
			source: oldPiece.source,
			offset: oldPiece.offset + inOff,
			length: oldPiece.length - inOff,
		}
		oldPiece.length = inOff
		pt.pieces.InsertAfter(oldPiece, newPiece)
		pt.pieces.InsertAfter(newPiece, right)
	}

	pt.seqBytes += len(text)
	pt.lastInsertPiece = newPiece
	pt.lastInsertEnd = p + len(text)

	return true
}

// Check whether this insert lands exactly at the end of the previous one and
// the previous piece is still the tail of the add buffer; if so the piece is
// simply extended in place.
func (pt *PieceTable) tryAppendToLastPiece(p int, text string) bool {
	lp := pt.lastInsertPiece
	if lp == nil ||
		p != pt.lastInsertEnd ||
		lp.offset+lp.length != len(pt.modifyBuf.data) {
		return false
	}

	pt.modifyBuf.append([]byte(text))
	lp.length += len(text)
	pt.seqBytes += len(text)
	pt.lastInsertEnd = p + len(text)

	return true
}

// Erase removes n bytes starting at p. The range is clamped to the document;
// zero-length erases are no-ops.
func (pt *PieceTable) Erase(p, n int) bool {
	if p < 0 {
		n += p
		p = 0
	}
	if p > pt.seqBytes {
		p = pt.seqBytes
	}
	if n > pt.seqBytes-p {
		n = pt.seqBytes - p
	}
	if n <= 0 {
		return false
	}

	// The extension optimization must not survive an erase: the last insert
	// piece may be trimmed or unlinked below.
	pt.lastInsertPiece = nil

	node, inOff := pt.pieces.FindPiece(p)
	if inOff > 0 {
		// Split the start piece and keep its left part.
		right := &piece{
			source: node.source,
			offset: node.offset + inOff,
			length: node.length - inOff,
		}
		node.length = inOff
		pt.pieces.InsertAfter(node, right)
		node = right
	}

	remaining := n
	for node != pt.pieces.tail && remaining > 0 {
		if node.length <= remaining {
			remaining -= node.length
			next := node.next
			pt.pieces.Remove(node)
			node = next
		} else {
			// The erase stops in the middle of this piece: trim its head.
			node.offset += remaining
			node.length -= remaining
			remaining = 0
		}
	}

	pt.seqBytes -= n
	return true
}
