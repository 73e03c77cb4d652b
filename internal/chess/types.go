// Package chess adapts the pgn rules engine to the game search: a mailbox
// view of the position for the move codec and pattern matchers, Zobrist
// hashing and move text.
package chess

import "github.com/freeeve/pgn/v3"

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

// Other returns the opposing color.
func (c Color) Other() Color { return c ^ 1 }

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Piece is a FEN piece letter: uppercase for White, lowercase for Black,
// zero for an empty square.
type Piece byte

const (
	NoPiece Piece = 0

	WhitePawn   Piece = 'P'
	WhiteKnight Piece = 'N'
	WhiteBishop Piece = 'B'
	WhiteRook   Piece = 'R'
	WhiteQueen  Piece = 'Q'
	WhiteKing   Piece = 'K'
	BlackPawn   Piece = 'p'
	BlackKnight Piece = 'n'
	BlackBishop Piece = 'b'
	BlackRook   Piece = 'r'
	BlackQueen  Piece = 'q'
	BlackKing   Piece = 'k'
)

// Color returns the owner of a non-empty piece.
func (p Piece) Color() Color {
	if p >= 'a' && p <= 'z' {
		return Black
	}
	return White
}

// Kind returns the uppercase (White) form of the piece, which identifies
// its type regardless of color.
func (p Piece) Kind() Piece {
	if p >= 'a' && p <= 'z' {
		return p - ('a' - 'A')
	}
	return p
}

// Of returns the piece of this kind owned by c.
func (p Piece) Of(c Color) Piece {
	k := p.Kind()
	if c == Black && k != NoPiece {
		return k + ('a' - 'A')
	}
	return k
}

// Reverse swaps the piece color.
func (p Piece) Reverse() Piece {
	if p == NoPiece {
		return p
	}
	return p.Of(p.Color().Other())
}

func (p Piece) String() string {
	if p == NoPiece {
		return "."
	}
	return string(rune(p))
}

// Square is a board index: a1=0, b1=1, ..., h8=63.
type Square int8

const (
	A1, B1, C1, D1, E1, F1, G1, H1 Square = 8*iota + 0, 8*iota + 1, 8*iota + 2,
		8*iota + 3, 8*iota + 4, 8*iota + 5, 8*iota + 6, 8*iota + 7
	A2, B2, C2, D2, E2, F2, G2, H2
	A3, B3, C3, D3, E3, F3, G3, H3
	A4, B4, C4, D4, E4, F4, G4, H4
	A5, B5, C5, D5, E5, F5, G5, H5
	A6, B6, C6, D6, E6, F6, G6, H6
	A7, B7, C7, D7, E7, F7, G7, H7
	A8, B8, C8, D8, E8, F8, G8, H8

	NoSquare Square = -1
)

// Sq returns the square on the given file and rank (both 0-7), or NoSquare
// when either is off the board.
func Sq(file, rank int) Square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare
	}
	return Square(rank*8 + file)
}

func (s Square) File() int { return int(s) % 8 }
func (s Square) Rank() int { return int(s) / 8 }

// IsDark reports whether the square is a dark square (a1 is dark).
func (s Square) IsDark() bool { return (s.File()+s.Rank())%2 == 0 }

// Mirror reflects the square across the d/e file boundary (a1 <-> h1).
func (s Square) Mirror() Square { return Sq(7-s.File(), s.Rank()) }

func (s Square) String() string { return pgn.Square(s).String() }

// CastleRights is a bitmask of the four castling options.
type CastleRights uint8

const (
	WhiteShort CastleRights = 1 << iota
	WhiteLong
	BlackShort
	BlackLong

	NoCastling  CastleRights = 0
	AllCastling              = WhiteShort | WhiteLong | BlackShort | BlackLong
)

// MoveFlag tags the special kinds of move.
type MoveFlag uint8

const (
	FlagNone MoveFlag = iota
	FlagDoubleStep
	FlagEnPassant
	FlagCastleShort
	FlagCastleLong
	FlagPromotion
)

// Move is a fully described move: the decoded form of one compressed byte.
type Move struct {
	From     Square
	To       Square
	Piece    Piece // moving piece
	Captured Piece // NoPiece unless the move captures
	Promo    Piece // promoted-to piece (colored) for FlagPromotion
	Flag     MoveFlag
}

// IsZero reports whether m is the zero Move, used for "no move".
func (m Move) IsZero() bool { return m == Move{} }

// IsCastle reports whether m castles on either wing.
func (m Move) IsCastle() bool { return m.Flag == FlagCastleShort || m.Flag == FlagCastleLong }

// CaptureSquare is where the captured piece stood; it differs from To only
// for en passant.
func (m Move) CaptureSquare() Square {
	if m.Flag == FlagEnPassant {
		return Sq(m.To.File(), m.From.Rank())
	}
	return m.To
}

// CastleRookSquares returns the rook's origin and destination for a castle
// by color c.
func CastleRookSquares(c Color, flag MoveFlag) (from, to Square) {
	back := 0
	if c == Black {
		back = 7
	}
	if flag == FlagCastleShort {
		return Sq(7, back), Sq(5, back)
	}
	return Sq(0, back), Sq(3, back)
}
