package chess

import (
	"errors"
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

var (
	ErrInvalidFEN  = errors.New("invalid FEN")
	ErrIllegalMove = errors.New("illegal move")
)

// Board is a pgn position plus the mailbox view the codec reads. Squares
// is kept in step with the position by Apply; boards are values, so a copy
// is an independent position.
type Board struct {
	Squares [64]Piece
	pos     pgn.GameState
}

// NewBoard returns the standard starting position.
func NewBoard() *Board {
	b := startBoard
	return &b
}

// Reset puts b in the starting position.
func (b *Board) Reset() {
	*b = startBoard
}

var startBoard = func() Board {
	b, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return *b
}()

// PieceAt returns the piece on sq.
func (b *Board) PieceAt(sq Square) Piece {
	return b.Squares[sq]
}

// SideToMove returns the color to play.
func (b *Board) SideToMove() Color {
	return Color(b.pos.SideToMove)
}

func (b *Board) Castling() CastleRights {
	return CastleRights(b.pos.Castle)
}

// SetCastling overrides the castling rights of the position.
func (b *Board) SetCastling(r CastleRights) {
	b.pos.Castle = uint8(r)
}

// EP returns the en passant target square, NoSquare if none.
func (b *Board) EP() Square {
	if b.pos.EP < 0 || b.pos.EP > 63 {
		return NoSquare
	}
	return Square(b.pos.EP)
}

// PackedRanks packs each rank into a word, one byte per square with the
// a-file in the low byte. Empty squares pack as zero.
func (b *Board) PackedRanks() [8]uint64 {
	return PackSquares(&b.Squares)
}

// PackSquares is PackedRanks for a bare placement.
func PackSquares(sq *[64]Piece) [8]uint64 {
	var words [8]uint64
	for rank := 0; rank < 8; rank++ {
		var w uint64
		for file := 7; file >= 0; file-- {
			w = w<<8 | uint64(sq[rank*8+file])
		}
		words[rank] = w
	}
	return words
}

// Apply plays m without checking legality. m must carry the moving piece
// and flag, as produced by LegalMoves or the move decoders. A move from an
// empty square is ignored.
func (b *Board) Apply(m Move) {
	piece := b.Squares[m.From]
	if piece == NoPiece {
		return
	}
	if err := pgn.ApplyMove(&b.pos, m.mv()); err != nil {
		return
	}

	switch m.Flag {
	case FlagEnPassant:
		b.Squares[m.CaptureSquare()] = NoPiece
	case FlagCastleShort, FlagCastleLong:
		rf, rt := CastleRookSquares(piece.Color(), m.Flag)
		b.Squares[rt] = b.Squares[rf]
		b.Squares[rf] = NoPiece
	}
	b.Squares[m.From] = NoPiece
	if m.Flag == FlagPromotion {
		b.Squares[m.To] = m.Promo
	} else {
		b.Squares[m.To] = piece
	}
}

// ParseFEN parses a FEN string. Missing trailing fields default to the
// values of a fresh game, so a bare placement is accepted.
func ParseFEN(fen string) (*Board, error) {
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidFEN)
	}
	if err := checkPlacement(fields[0]); err != nil {
		return nil, err
	}
	defaults := []string{"", "w", "-", "-", "0", "1"}
	for len(fields) < len(defaults) {
		fields = append(fields, defaults[len(fields)])
	}

	pos, err := pgn.NewGame(strings.Join(fields, " "))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFEN, err)
	}
	b := &Board{pos: *pos}
	for sq := A1; sq <= H8; sq++ {
		b.Squares[sq] = Piece(b.pos.PieceAt(pgn.Square(sq)))
	}
	return b, nil
}

// checkPlacement rejects placements that do not describe exactly eight
// ranks of eight files; the pgn parser is lenient about both.
func checkPlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: %d ranks", ErrInvalidFEN, len(ranks))
	}
	for i, rank := range ranks {
		files := 0
		for j := 0; j < len(rank); j++ {
			if c := rank[j]; c >= '1' && c <= '8' {
				files += int(c - '0')
			} else {
				files++
			}
		}
		if files != 8 {
			return fmt.Errorf("%w: rank %d has %d files", ErrInvalidFEN, 8-i, files)
		}
	}
	return nil
}

// Placement returns the first FEN field.
func (b *Board) Placement() string {
	fen := b.FEN()
	if i := strings.IndexByte(fen, ' '); i >= 0 {
		return fen[:i]
	}
	return fen
}

// FEN returns the full FEN string of the position.
func (b *Board) FEN() string {
	return b.pos.ToFEN()
}

func (b *Board) String() string { return b.FEN() }
