package chess

// Zobrist keys over piece placement and side to move only. Castling rights
// and the en passant square do not enter the key.
var (
	zobristPiece       [12][64]uint64
	zobristBlackToMove uint64
	pieceIndex         [256]int8
)

type prng struct{ state uint64 }

// xorshift64*
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func init() {
	for i := range pieceIndex {
		pieceIndex[i] = -1
	}
	for i, p := range []Piece{
		WhitePawn, WhiteKnight, WhiteBishop, WhiteRook, WhiteQueen, WhiteKing,
		BlackPawn, BlackKnight, BlackBishop, BlackRook, BlackQueen, BlackKing,
	} {
		pieceIndex[p] = int8(i)
	}

	rng := prng{state: 0x98F107A2BEEF1234}
	for p := range zobristPiece {
		for sq := range zobristPiece[p] {
			zobristPiece[p][sq] = rng.next()
		}
	}
	zobristBlackToMove = rng.next()
}

func pieceKey(p Piece, sq Square) uint64 {
	i := pieceIndex[p]
	if i < 0 || sq < 0 {
		return 0
	}
	return zobristPiece[i][sq]
}

// Hash computes the position key from scratch.
func (b *Board) Hash() uint64 {
	var h uint64
	for sq := A1; sq <= H8; sq++ {
		if p := b.Squares[sq]; p != NoPiece {
			h ^= pieceKey(p, sq)
		}
	}
	if b.SideToMove() == Black {
		h ^= zobristBlackToMove
	}
	return h
}

// UpdateHash returns the key of the position reached by playing m from a
// position whose key is h. It needs only the move, never the board.
func UpdateHash(h uint64, m Move) uint64 {
	h ^= pieceKey(m.Piece, m.From)
	if m.Flag == FlagPromotion {
		h ^= pieceKey(m.Promo, m.To)
	} else {
		h ^= pieceKey(m.Piece, m.To)
	}
	if m.Captured != NoPiece {
		h ^= pieceKey(m.Captured, m.CaptureSquare())
	}
	if m.IsCastle() {
		rook := WhiteRook.Of(m.Piece.Color())
		rf, rt := CastleRookSquares(m.Piece.Color(), m.Flag)
		h ^= pieceKey(rook, rf) ^ pieceKey(rook, rt)
	}
	return h ^ zobristBlackToMove
}
