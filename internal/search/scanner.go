// Package search scans a corpus of compressed games for a target position,
// a board pattern or a material balance.
package search

import "github.com/freeeve/chessgraph/gamesearch/internal/codec"

// Scanner replays compressed games and watches the running position hash.
// A Scanner holds per-game scratch state and must not be shared between
// goroutines.
type Scanner struct {
	d     *codec.Decompressor
	stats codec.Stats
}

// NewScanner returns a scanner ready for SearchGame.
func NewScanner() *Scanner {
	return &Scanner{d: codec.NewDecompressor()}
}

// SearchGame reports whether the game passes through the position with the
// given hash. The starting position counts.
func (s *Scanner) SearchGame(moves []byte, target uint64) bool {
	_, ok := s.Find(moves, target)
	return ok
}

// Find returns the first ply after which the position hash equals target,
// 0 for the starting position. Decoding stops at the match, or at the first
// byte that does not decode to a move.
func (s *Scanner) Find(moves []byte, target uint64) (ply int, ok bool) {
	s.d.Reset()
	defer s.collect()

	if s.d.Hash() == target {
		return 0, true
	}
	for i, code := range moves {
		if s.d.UncompressMove(code).IsZero() {
			return 0, false
		}
		if s.d.Hash() == target {
			return i + 1, true
		}
	}
	return 0, false
}

// sweep replays the game and calls visit after every position, the starting
// position included, until visit returns true.
func (s *Scanner) sweep(moves []byte, visit func(ply int, d *codec.Decompressor) bool) (ply int, ok bool) {
	s.d.Reset()
	defer s.collect()

	if visit(0, s.d) {
		return 0, true
	}
	for i, code := range moves {
		if s.d.UncompressMove(code).IsZero() {
			return 0, false
		}
		if visit(i+1, s.d) {
			return i + 1, true
		}
	}
	return 0, false
}

func (s *Scanner) collect() {
	st := s.d.Stats()
	s.stats.FastPlies += st.FastPlies
	s.stats.SlowPlies += st.SlowPlies
}

// Stats returns the plies decoded on each path since the scanner was made.
func (s *Scanner) Stats() codec.Stats { return s.stats }

// Replay decodes a whole game and returns its moves in SAN.
func Replay(moves []byte) ([]string, error) {
	d := codec.NewDecompressor()
	out := make([]string, 0, len(moves))
	for i, code := range moves {
		before := *d.Board()
		m := d.UncompressMove(code)
		if m.IsZero() {
			return out, &DecodeError{Ply: i + 1, Code: code, FEN: before.FEN()}
		}
		out = append(out, before.SAN(m))
	}
	return out, nil
}
