package codec

import (
	"sort"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
)

// slowCandidates lists the legal moves of b in canonical order: sorted by
// UCI text. Castling rights are forced on for generation; the stream only
// ever holds moves that were legal when encoded, so a castle that comes
// back through this list was legal in the game.
func slowCandidates(b *chess.Board) []chess.Move {
	scratch := *b
	scratch.SetCastling(chess.AllCastling)
	moves := scratch.LegalMoves()
	sort.Slice(moves, func(i, j int) bool { return moves[i].UCI() < moves[j].UCI() })
	return moves
}

// decodeSlow returns the move addressed by code, which holds 255 minus the
// candidate index. An index past the end of the list falls back to the
// first candidate. The zero Move is returned only when the side to move has
// no legal move.
func decodeSlow(code byte, b *chess.Board) chess.Move {
	moves := slowCandidates(b)
	if len(moves) == 0 {
		return chess.Move{}
	}
	idx := 255 - int(code)
	if idx >= len(moves) {
		idx = 0
	}
	return moves[idx]
}

// encodeSlow returns the code of m among the candidates of b. ok is false
// when m is not one of them.
func encodeSlow(m chess.Move, b *chess.Board) (code byte, ok bool) {
	for i, c := range slowCandidates(b) {
		if c == m {
			if i > 255 {
				return 0, false
			}
			return byte(255 - i), true
		}
	}
	return 0, false
}
