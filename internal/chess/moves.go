package chess

import "github.com/freeeve/pgn/v3"

type delta struct{ df, dr int }

var (
	knightDeltas = [8]delta{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingDeltas   = [8]delta{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
)

// KingDelta and KnightDelta expose the fixed vector orders; the move codec
// addresses king and knight moves by index into them.
func KingDelta(i int) (df, dr int)   { d := kingDeltas[i]; return d.df, d.dr }
func KnightDelta(i int) (df, dr int) { d := knightDeltas[i]; return d.df, d.dr }

// promoPieces is indexed by pgn.PromoPiece.
var promoPieces = [...]Piece{NoPiece, WhiteQueen, WhiteRook, WhiteBishop, WhiteKnight}

// pgn move flag bits.
const (
	mvDoubleStep = 1
	mvEnPassant  = 2
	mvCastle     = 4
)

// LegalMoves returns every legal move for the side to move.
func (b *Board) LegalMoves() []Move {
	mvs := pgn.GenerateLegalMoves(&b.pos)
	moves := make([]Move, len(mvs))
	for i, mv := range mvs {
		moves[i] = b.move(mv)
	}
	return moves
}

// InCheck reports whether the side to move is in check.
func (b *Board) InCheck() bool {
	return b.pos.IsInCheck()
}

// Find returns the legal move from -> to with the given promotion kind
// (NoPiece when not promoting).
func (b *Board) Find(from, to Square, promo Piece) (Move, error) {
	for _, m := range b.LegalMoves() {
		if m.From != from || m.To != to {
			continue
		}
		if m.Flag == FlagPromotion && m.Promo.Kind() != promo.Kind() {
			continue
		}
		return m, nil
	}
	return Move{}, ErrIllegalMove
}

// FromPGN resolves a pgn parser move against the legal moves of b. A castle
// may name the rook's square as its destination; the king lands on the g
// or c file either way.
func (b *Board) FromPGN(mv pgn.Mv) (Move, error) {
	from, to := Square(mv.From), Square(mv.To)
	if mv.Flags&mvCastle != 0 {
		file := 2
		if mv.To > mv.From {
			file = 6
		}
		to = Sq(file, from.Rank())
	}
	promo := NoPiece
	if mv.Promo >= 0 && int(mv.Promo) < len(promoPieces) {
		promo = promoPieces[mv.Promo]
	}
	return b.Find(from, to, promo)
}

// move fills in the mailbox details of a pgn move played from b.
func (b *Board) move(mv pgn.Mv) Move {
	m := Move{From: Square(mv.From), To: Square(mv.To), Piece: b.Squares[mv.From]}
	us := m.Piece.Color()
	switch {
	case mv.Flags&mvCastle != 0:
		m.Flag = FlagCastleShort
		if m.To.File() == 2 {
			m.Flag = FlagCastleLong
		}
	case mv.Flags&mvEnPassant != 0 && m.Piece.Kind() == WhitePawn:
		m.Flag = FlagEnPassant
		m.Captured = WhitePawn.Of(us.Other())
	default:
		m.Captured = b.Squares[m.To]
		if mv.Promo != pgn.NoPromo {
			m.Flag = FlagPromotion
			m.Promo = promoPieces[mv.Promo].Of(us)
		} else if m.Piece.Kind() == WhitePawn && (m.To-m.From == 16 || m.From-m.To == 16) {
			m.Flag = FlagDoubleStep
		}
	}
	return m
}

// mv converts m to the pgn engine's move.
func (m Move) mv() pgn.Mv {
	mv := pgn.Mv{From: pgn.Square(m.From), To: pgn.Square(m.To)}
	switch m.Flag {
	case FlagDoubleStep:
		mv.Flags = mvDoubleStep
	case FlagEnPassant:
		mv.Flags = mvEnPassant
	case FlagCastleShort, FlagCastleLong:
		mv.Flags = mvCastle
	case FlagPromotion:
		switch m.Promo.Kind() {
		case WhiteQueen:
			mv.Promo = pgn.PromoQueen
		case WhiteRook:
			mv.Promo = pgn.PromoRook
		case WhiteBishop:
			mv.Promo = pgn.PromoBishop
		case WhiteKnight:
			mv.Promo = pgn.PromoKnight
		}
	}
	return mv
}
