package buffer

// piece is a single piece of text in the piece table.
// We use a doubly linked list to represent the piece sequence here.
type piece struct {
	next *piece
	prev *piece

	// offset is the byte offset in the source buffer.
	offset int
	// length is the byte length of the text the piece covers.
	length int
	// source specifies which buffer this piece points to.
	source bufSrc
}

// Use sentinel nodes as head and tail, as pointed out in
// https://www.catch22.net/tuts/neatpad/piece-chains/.
type pieceList struct {
	head, tail *piece
}

func newPieceList() *pieceList {
	p := &pieceList{
		head: &piece{},
		tail: &piece{},
	}
	p.head.next = p.tail
	p.tail.prev = p.head

	return p
}

func (pl *pieceList) Head() *piece {
	return pl.head.next
}

func (pl *pieceList) Tail() *piece {
	return pl.tail.prev
}

func (pl *pieceList) InsertBefore(existing *piece, newPiece *piece) {
	newPiece.next = existing
	newPiece.prev = existing.prev
	existing.prev.next = newPiece
	existing.prev = newPiece
}

func (pl *pieceList) InsertAfter(existing *piece, newPiece *piece) {
	newPiece.prev = existing
	newPiece.next = existing.next
	existing.next.prev = newPiece
	existing.next = newPiece
}

func (pl *pieceList) Append(newPiece *piece) {
	pl.InsertBefore(pl.tail, newPiece)
}

// FindPiece finds a piece by a byte offset in the sequence, returning
// the found piece and the local offset of byteIndex within it. When
// byteIndex equals the sequence length the tail sentinel is returned
// with a zero local offset.
func (pl *pieceList) FindPiece(byteIndex int) (p *piece, offset int) {
	if byteIndex <= 0 {
		return pl.head.next, 0
	}

	pieceOff := 0
	for n := pl.head.next; n != pl.tail; n = n.next {
		if pieceOff+n.length > byteIndex {
			return n, byteIndex - pieceOff
		}
		pieceOff += n.length
	}

	return pl.tail, 0
}

// Remove a piece from the chain.
func (pl *pieceList) Remove(piece *piece) {
	if piece == nil || piece == pl.head || piece == pl.tail {
		return
	}

	piece.prev.next = piece.next
	piece.next.prev = piece.prev
	piece.next = nil
	piece.prev = nil
}

// Length returns the total number of pieces in the chain.
func (pl *pieceList) Length() int {
	t := 0
	for n := pl.head.next; n != pl.tail; n = n.next {
		t++
	}

	return t
}
