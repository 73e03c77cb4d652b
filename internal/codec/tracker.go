package codec

import "github.com/freeeve/chessgraph/gamesearch/internal/chess"

// Per-class capacities of the fast representation.
const (
	maxPairs  = 2
	maxPawns  = 8
	maxQueens = 2
)

// squareList is a fixed-capacity inline list of squares. Rooks, knights and
// queens use it with a bound of two, pawns with a bound of eight.
type squareList struct {
	sq [maxPawns]chess.Square
	n  int
}

func (l *squareList) Len() int                  { return l.n }
func (l *squareList) At(i int) chess.Square     { return l.sq[i] }
func (l *squareList) Slice() []chess.Square     { return l.sq[:l.n] }
func (l *squareList) push(sq chess.Square) bool { return l.insertAt(l.n, sq) }

func (l *squareList) insertAt(i int, sq chess.Square) bool {
	if l.n == len(l.sq) {
		return false
	}
	copy(l.sq[i+1:l.n+1], l.sq[i:l.n])
	l.sq[i] = sq
	l.n++
	return true
}

func (l *squareList) index(sq chess.Square) int {
	for i := 0; i < l.n; i++ {
		if l.sq[i] == sq {
			return i
		}
	}
	return -1
}

func (l *squareList) removeAt(i int) {
	copy(l.sq[i:l.n-1], l.sq[i+1:l.n])
	l.n--
	l.sq[l.n] = 0
}

// resort restores ascending key order after element i changed, with one
// pass of adjacent swaps in whichever direction it is out of place.
func (l *squareList) resort(i int, key func(chess.Square) int) {
	for i > 0 && key(l.sq[i-1]) > key(l.sq[i]) {
		l.sq[i-1], l.sq[i] = l.sq[i], l.sq[i-1]
		i--
	}
	for i+1 < l.n && key(l.sq[i+1]) < key(l.sq[i]) {
		l.sq[i+1], l.sq[i] = l.sq[i], l.sq[i+1]
		i++
	}
}

func squareKey(sq chess.Square) int { return int(sq) }

// pawnOrder is the canonical pawn order: file-major, then rank counted from
// the side's own back rank.
func pawnOrder(c chess.Color) func(chess.Square) int {
	if c == chess.White {
		return func(sq chess.Square) int { return sq.File()*8 + sq.Rank() }
	}
	return func(sq chess.Square) int { return sq.File()*8 + 7 - sq.Rank() }
}

// Pieces is the fast-mode state of one side: where each tracked piece
// stands, in a stable order the move codec can address by index.
//
// Rooks, Knights and Queens are sorted by ascending square. Pawns follow
// the canonical pawn order.
type Pieces struct {
	King        chess.Square
	Queens      squareList
	Rooks       squareList
	Knights     squareList
	Pawns       squareList
	DarkBishop  chess.Square // NoSquare when absent
	LightBishop chess.Square // NoSquare when absent
}

// Tracker follows one side's pieces through a game. It is either in fast
// mode, holding Pieces that mirror the board exactly, or in slow mode,
// holding nothing usable until TryFastMode rebuilds it from a board.
type Tracker struct {
	color  chess.Color
	pieces Pieces
	fast   bool
}

// NewTracker returns a slow-mode tracker for c.
func NewTracker(c chess.Color) Tracker {
	return Tracker{color: c}
}

// Color returns the side being tracked.
func (t *Tracker) Color() chess.Color { return t.color }

// Fast returns the piece state when the tracker is in fast mode. The
// returned pointer must not be used after the tracker leaves fast mode.
func (t *Tracker) Fast() (*Pieces, bool) {
	if !t.fast {
		return nil, false
	}
	return &t.pieces, true
}

// Invalidate drops the tracker to slow mode.
func (t *Tracker) Invalidate() { t.fast = false }

// TryFastMode rebuilds the tracker from the board. It fails, leaving the
// tracker in slow mode, when the side's material does not fit the fast
// representation: more than two rooks, knights or queens, more than one
// bishop on a square color, or two queens alongside more than six pawns.
func (t *Tracker) TryFastMode(b *chess.Board) bool {
	t.fast = false
	p := Pieces{King: chess.NoSquare, DarkBishop: chess.NoSquare, LightBishop: chess.NoSquare}

	// Visiting squares in canonical pawn order fills Pawns already sorted.
	for file := 0; file < 8; file++ {
		for rel := 0; rel < 8; rel++ {
			rank := rel
			if t.color == chess.Black {
				rank = 7 - rel
			}
			sq := chess.Sq(file, rank)
			piece := b.Squares[sq]
			if piece == chess.NoPiece || piece.Color() != t.color {
				continue
			}
			ok := true
			switch piece.Kind() {
			case chess.WhiteKing:
				p.King = sq
			case chess.WhiteQueen:
				ok = p.Queens.Len() < maxQueens && p.Queens.push(sq)
			case chess.WhiteRook:
				ok = p.Rooks.Len() < maxPairs && p.Rooks.push(sq)
			case chess.WhiteKnight:
				ok = p.Knights.Len() < maxPairs && p.Knights.push(sq)
			case chess.WhiteBishop:
				if sq.IsDark() {
					ok = p.DarkBishop == chess.NoSquare
					p.DarkBishop = sq
				} else {
					ok = p.LightBishop == chess.NoSquare
					p.LightBishop = sq
				}
			case chess.WhitePawn:
				ok = p.Pawns.push(sq)
			}
			if !ok {
				return false
			}
		}
	}
	if p.King == chess.NoSquare {
		return false
	}
	if p.Queens.Len() == maxQueens && p.Pawns.Len() > 6 {
		return false
	}

	for _, l := range []*squareList{&p.Queens, &p.Rooks, &p.Knights} {
		for i := 1; i < l.Len(); i++ {
			l.resort(i, squareKey)
		}
	}

	t.pieces = p
	t.fast = true
	return true
}

// track moves the tracker's piece for m, played by this side. Promotions
// leave fast mode: the new piece's multiplicity is only known after the
// next rebuild.
func (t *Tracker) track(m chess.Move) {
	if !t.fast {
		return
	}
	p := &t.pieces
	switch m.Piece.Kind() {
	case chess.WhiteKing:
		p.King = m.To
		if m.IsCastle() {
			rf, rt := chess.CastleRookSquares(t.color, m.Flag)
			if i := p.Rooks.index(rf); i >= 0 {
				p.Rooks.sq[i] = rt
				p.Rooks.resort(i, squareKey)
			}
		}
	case chess.WhiteQueen:
		moveIn(&p.Queens, m.From, m.To, squareKey)
	case chess.WhiteRook:
		moveIn(&p.Rooks, m.From, m.To, squareKey)
	case chess.WhiteKnight:
		moveIn(&p.Knights, m.From, m.To, squareKey)
	case chess.WhiteBishop:
		if m.From.IsDark() {
			p.DarkBishop = m.To
		} else {
			p.LightBishop = m.To
		}
	case chess.WhitePawn:
		i := p.Pawns.index(m.From)
		if i < 0 {
			t.fast = false
			return
		}
		if m.Flag == chess.FlagPromotion {
			p.Pawns.removeAt(i)
			t.fast = false
			return
		}
		p.Pawns.sq[i] = m.To
		p.Pawns.resort(i, pawnOrder(t.color))
	}
}

// capture removes this side's piece captured on sq.
func (t *Tracker) capture(sq chess.Square, captured chess.Piece) {
	if !t.fast {
		return
	}
	p := &t.pieces
	var l *squareList
	switch captured.Kind() {
	case chess.WhiteQueen:
		l = &p.Queens
	case chess.WhiteRook:
		l = &p.Rooks
	case chess.WhiteKnight:
		l = &p.Knights
	case chess.WhitePawn:
		l = &p.Pawns
	case chess.WhiteBishop:
		if p.DarkBishop == sq {
			p.DarkBishop = chess.NoSquare
		} else if p.LightBishop == sq {
			p.LightBishop = chess.NoSquare
		}
		return
	default:
		t.fast = false
		return
	}
	if i := l.index(sq); i >= 0 {
		l.removeAt(i)
		return
	}
	t.fast = false
}

func moveIn(l *squareList, from, to chess.Square, key func(chess.Square) int) {
	if i := l.index(from); i >= 0 {
		l.sq[i] = to
		l.resort(i, key)
	}
}
