package codec

import "github.com/freeeve/chessgraph/gamesearch/internal/chess"

// Fast codes: the high nibble selects a piece, the low nibble a geometric
// offset from its current square.
const (
	slotKing        = 0x0
	slotKnights     = 0x1 // low nibble bit 3 selects the knight
	slotRook0       = 0x2
	slotRook1       = 0x3
	slotDarkBishop  = 0x4
	slotLightBishop = 0x5
	slotQueenRook   = 0x6
	slotQueenBishop = 0x7
	slotPawn0       = 0x8 // pawns 0..7 use 0x8..0xF

	// With two queens the second queen borrows the slots of pawns 6 and 7.
	slotQueen2Rook   = 0xE
	slotQueen2Bishop = 0xF
)

// King low-nibble codes beyond the eight compass directions.
const (
	kingWhiteShort = 9
	kingWhiteLong  = 10
	kingBlackShort = 11
	kingBlackLong  = 12
)

// Pawn low-nibble codes. Promotions come in blocks of four ordered
// queen, rook, bishop, knight.
const (
	pawnSingle       = 0
	pawnDouble       = 1
	pawnCaptureDown  = 2 // toward the a-file
	pawnCaptureUp    = 3 // toward the h-file
	pawnPromoAdvance = 4
	pawnPromoDown    = 8
	pawnPromoUp      = 12
)

var promoOrder = [4]chess.Piece{chess.WhiteQueen, chess.WhiteRook, chess.WhiteBishop, chess.WhiteKnight}

// secondQueenSlot reports whether hi addresses the second queen and, if so,
// whether the move is diagonal. Precondition for the reuse: the side has
// exactly two queens, and TryFastMode guarantees it then has at most six
// pawns, so pawn slots 6 and 7 can never be meant.
func secondQueenSlot(hi byte, p *Pieces) (diagonal, ok bool) {
	if p.Queens.Len() != maxQueens {
		return false, false
	}
	switch hi {
	case slotQueen2Rook:
		return false, true
	case slotQueen2Bishop:
		return true, true
	}
	return false, false
}

// decodeFast turns one code into a move for the side whose pieces are p.
// The board supplies what stands on the destination square; nothing is
// generated. The zero Move is returned for a code that does not address a
// piece the side has.
func decodeFast(code byte, b *chess.Board, p *Pieces, us chess.Color) chess.Move {
	hi, lo := code>>4, code&0x0F

	if diagonal, ok := secondQueenSlot(hi, p); ok {
		return lineMove(b, p.Queens.At(1), lo, diagonal)
	}

	switch {
	case hi == slotKing:
		return kingMove(b, p.King, lo, us)
	case hi == slotKnights:
		i := int(lo >> 3)
		if i >= p.Knights.Len() {
			return chess.Move{}
		}
		from := p.Knights.At(i)
		df, dr := chess.KnightDelta(int(lo & 7))
		return stepTo(b, from, chess.Sq(from.File()+df, from.Rank()+dr))
	case hi == slotRook0 || hi == slotRook1:
		i := int(hi - slotRook0)
		if i >= p.Rooks.Len() {
			return chess.Move{}
		}
		return lineMove(b, p.Rooks.At(i), lo, false)
	case hi == slotDarkBishop:
		return lineMove(b, p.DarkBishop, lo, true)
	case hi == slotLightBishop:
		return lineMove(b, p.LightBishop, lo, true)
	case hi == slotQueenRook || hi == slotQueenBishop:
		if p.Queens.Len() == 0 {
			return chess.Move{}
		}
		return lineMove(b, p.Queens.At(0), lo, hi == slotQueenBishop)
	default:
		i := int(hi - slotPawn0)
		if i >= p.Pawns.Len() {
			return chess.Move{}
		}
		return pawnMove(b, p.Pawns.At(i), lo, us)
	}
}

func stepTo(b *chess.Board, from, to chess.Square) chess.Move {
	if from == chess.NoSquare || to == chess.NoSquare {
		return chess.Move{}
	}
	return chess.Move{From: from, To: to, Piece: b.Squares[from], Captured: b.Squares[to]}
}

func kingMove(b *chess.Board, from chess.Square, lo byte, us chess.Color) chess.Move {
	if lo < 8 {
		df, dr := chess.KingDelta(int(lo))
		return stepTo(b, from, chess.Sq(from.File()+df, from.Rank()+dr))
	}
	var flag chess.MoveFlag
	switch {
	case lo == kingWhiteShort && us == chess.White, lo == kingBlackShort && us == chess.Black:
		flag = chess.FlagCastleShort
	case lo == kingWhiteLong && us == chess.White, lo == kingBlackLong && us == chess.Black:
		flag = chess.FlagCastleLong
	default:
		return chess.Move{}
	}
	to := chess.Sq(6, from.Rank())
	if flag == chess.FlagCastleLong {
		to = chess.Sq(2, from.Rank())
	}
	return chess.Move{From: from, To: to, Piece: b.Squares[from], Flag: flag}
}

// lineMove decodes a rook-like or bishop-like low nibble.
//
// Rook-like: bit 3 clear moves along the rank to file lo&7, set moves along
// the file to rank lo&7. Bishop-like: bit 3 clear stays on the a1-h8
// diagonal, set on the a8-h1 diagonal, arriving on file lo&7.
func lineMove(b *chess.Board, from chess.Square, lo byte, diagonal bool) chess.Move {
	if from == chess.NoSquare {
		return chess.Move{}
	}
	n := int(lo & 7)
	var to chess.Square
	switch {
	case !diagonal && lo&8 == 0:
		to = chess.Sq(n, from.Rank())
	case !diagonal:
		to = chess.Sq(from.File(), n)
	case lo&8 == 0:
		to = chess.Sq(n, from.Rank()+n-from.File())
	default:
		to = chess.Sq(n, from.Rank()-(n-from.File()))
	}
	if to == from {
		return chess.Move{}
	}
	return stepTo(b, from, to)
}

func pawnMove(b *chess.Board, from chess.Square, lo byte, us chess.Color) chess.Move {
	dir := 1
	if us == chess.Black {
		dir = -1
	}
	m := chess.Move{From: from, Piece: b.Squares[from]}

	var df int
	switch {
	case lo == pawnSingle:
	case lo == pawnDouble:
		m.To = chess.Sq(from.File(), from.Rank()+2*dir)
		m.Flag = chess.FlagDoubleStep
		if m.To == chess.NoSquare {
			return chess.Move{}
		}
		return m
	case lo == pawnCaptureDown:
		df = -1
	case lo == pawnCaptureUp:
		df = 1
	default:
		block := (lo - pawnPromoAdvance) / 4
		switch block {
		case 1:
			df = -1
		case 2:
			df = 1
		}
		m.Flag = chess.FlagPromotion
		m.Promo = promoOrder[lo&3].Of(us)
	}

	m.To = chess.Sq(from.File()+df, from.Rank()+dir)
	if m.To == chess.NoSquare {
		return chess.Move{}
	}
	m.Captured = b.Squares[m.To]
	if df != 0 && m.Captured == chess.NoPiece {
		// A diagonal step onto an empty square can only be en passant.
		m.Flag = chess.FlagEnPassant
		m.Captured = chess.WhitePawn.Of(us.Other())
	}
	return m
}

// encodeFast is the inverse of decodeFast for a legal move m by the side
// whose pieces are p. ok is false when p does not hold the moving piece,
// which means the tracker has drifted from the board.
func encodeFast(m chess.Move, p *Pieces) (code byte, ok bool) {
	df := m.To.File() - m.From.File()
	dr := m.To.Rank() - m.From.Rank()

	switch m.Piece.Kind() {
	case chess.WhiteKing:
		if m.From != p.King {
			return 0, false
		}
		switch {
		case m.Flag == chess.FlagCastleShort && m.Piece.Color() == chess.White:
			return kingWhiteShort, true
		case m.Flag == chess.FlagCastleLong && m.Piece.Color() == chess.White:
			return kingWhiteLong, true
		case m.Flag == chess.FlagCastleShort:
			return kingBlackShort, true
		case m.Flag == chess.FlagCastleLong:
			return kingBlackLong, true
		}
		for i := 0; i < 8; i++ {
			if kdf, kdr := chess.KingDelta(i); kdf == df && kdr == dr {
				return byte(slotKing<<4 | i), true
			}
		}
	case chess.WhiteKnight:
		i := p.Knights.index(m.From)
		if i < 0 {
			return 0, false
		}
		for v := 0; v < 8; v++ {
			if ndf, ndr := chess.KnightDelta(v); ndf == df && ndr == dr {
				return byte(slotKnights<<4 | i<<3 | v), true
			}
		}
	case chess.WhiteRook:
		i := p.Rooks.index(m.From)
		if i < 0 {
			return 0, false
		}
		return byte(slotRook0+i)<<4 | rookNibble(m), true
	case chess.WhiteBishop:
		if m.From == p.DarkBishop {
			return slotDarkBishop<<4 | bishopNibble(m), true
		}
		if m.From == p.LightBishop {
			return slotLightBishop<<4 | bishopNibble(m), true
		}
	case chess.WhiteQueen:
		i := p.Queens.index(m.From)
		if i < 0 {
			return 0, false
		}
		diagonal := df != 0 && dr != 0
		var hi byte
		switch {
		case i == 0 && !diagonal:
			hi = slotQueenRook
		case i == 0:
			hi = slotQueenBishop
		case !diagonal:
			hi = slotQueen2Rook
		default:
			hi = slotQueen2Bishop
		}
		if diagonal {
			return hi<<4 | bishopNibble(m), true
		}
		return hi<<4 | rookNibble(m), true
	case chess.WhitePawn:
		i := p.Pawns.index(m.From)
		if i < 0 {
			return 0, false
		}
		return byte(slotPawn0+i)<<4 | pawnNibble(m, df), true
	}
	return 0, false
}

func rookNibble(m chess.Move) byte {
	if m.From.Rank() == m.To.Rank() {
		return byte(m.To.File())
	}
	return 8 | byte(m.To.Rank())
}

func bishopNibble(m chess.Move) byte {
	if m.To.File()-m.From.File() == m.To.Rank()-m.From.Rank() {
		return byte(m.To.File())
	}
	return 8 | byte(m.To.File())
}

func pawnNibble(m chess.Move, df int) byte {
	if m.Flag == chess.FlagPromotion {
		var promo byte
		for i, k := range promoOrder {
			if m.Promo.Kind() == k {
				promo = byte(i)
			}
		}
		switch df {
		case -1:
			return pawnPromoDown + promo
		case 1:
			return pawnPromoUp + promo
		}
		return pawnPromoAdvance + promo
	}
	switch {
	case m.Flag == chess.FlagDoubleStep:
		return pawnDouble
	case df == -1:
		return pawnCaptureDown
	case df == 1:
		return pawnCaptureUp
	}
	return pawnSingle
}
