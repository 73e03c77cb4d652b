package chess

import (
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// UCI returns long algebraic text such as "e2e4" or "e7e8q". It is the
// canonical move text: unique among the legal moves of a position.
func (m Move) UCI() string {
	if m.IsZero() {
		return "0000"
	}
	return m.mv().String()
}

func (m Move) String() string { return m.UCI() }

// ParseUCI resolves long algebraic text against the legal moves of b.
func (b *Board) ParseUCI(s string) (Move, error) {
	mv, err := pgn.ParseUCI(s)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	m, err := b.FromPGN(mv)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %s", err, s)
	}
	return m, nil
}

// SAN returns the standard algebraic text of m, which must be legal in b.
func (b *Board) SAN(m Move) string {
	return b.san(m, b.LegalMoves())
}

func (b *Board) san(m Move, legal []Move) string {
	var sb strings.Builder
	switch {
	case m.Flag == FlagCastleShort:
		sb.WriteString("O-O")
	case m.Flag == FlagCastleLong:
		sb.WriteString("O-O-O")
	case m.Piece.Kind() == WhitePawn:
		if m.Captured != NoPiece {
			sb.WriteByte(byte('a' + m.From.File()))
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
		if m.Flag == FlagPromotion {
			sb.WriteByte('=')
			sb.WriteByte(byte(m.Promo.Kind()))
		}
	default:
		sb.WriteByte(byte(m.Piece.Kind()))
		sameFile, sameRank, ambiguous := false, false, false
		for _, o := range legal {
			if o.Piece != m.Piece || o.To != m.To || o.From == m.From {
				continue
			}
			ambiguous = true
			if o.From.File() == m.From.File() {
				sameFile = true
			}
			if o.From.Rank() == m.From.Rank() {
				sameRank = true
			}
		}
		if ambiguous {
			switch {
			case !sameFile:
				sb.WriteByte(byte('a' + m.From.File()))
			case !sameRank:
				sb.WriteByte(byte('1' + m.From.Rank()))
			default:
				sb.WriteString(m.From.String())
			}
		}
		if m.Captured != NoPiece {
			sb.WriteByte('x')
		}
		sb.WriteString(m.To.String())
	}

	next := *b
	next.Apply(m)
	if next.InCheck() {
		if len(next.LegalMoves()) == 0 {
			sb.WriteByte('#')
		} else {
			sb.WriteByte('+')
		}
	}
	return sb.String()
}

// ParseSAN resolves standard algebraic text against the legal moves of b.
// Check, mate and annotation suffixes are ignored.
func (b *Board) ParseSAN(s string) (Move, error) {
	mv, err := pgn.ParseSAN(&b.pos, strings.TrimSpace(s))
	if err != nil {
		return Move{}, fmt.Errorf("%w: %s: %v", ErrIllegalMove, s, err)
	}
	m, err := b.FromPGN(mv)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %s", err, s)
	}
	return m, nil
}

// PlaySAN applies a sequence of SAN moves to a fresh board and returns the
// moves and the final position.
func PlaySAN(sans ...string) ([]Move, *Board, error) {
	b := NewBoard()
	moves := make([]Move, 0, len(sans))
	for _, s := range sans {
		m, err := b.ParseSAN(s)
		if err != nil {
			return nil, nil, err
		}
		b.Apply(m)
		moves = append(moves, m)
	}
	return moves, b, nil
}
