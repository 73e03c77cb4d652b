package search

import (
	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
)

// Profile is one side's material: piece counts by class, bishops split by
// square colour, and pawns per file.
type Profile struct {
	Queens       int
	Rooks        int
	Knights      int
	DarkBishops  int
	LightBishops int
	Pawns        int
	PawnFiles    [8]int
}

func (p *Profile) add(piece chess.Piece, sq chess.Square) {
	switch piece.Kind() {
	case chess.WhiteQueen:
		p.Queens++
	case chess.WhiteRook:
		p.Rooks++
	case chess.WhiteKnight:
		p.Knights++
	case chess.WhiteBishop:
		if sq.IsDark() {
			p.DarkBishops++
		} else {
			p.LightBishops++
		}
	case chess.WhitePawn:
		p.Pawns++
		p.PawnFiles[sq.File()]++
	}
}

// ProfileOf scans a placement and returns both sides' profiles, indexed
// by colour.
func ProfileOf(sq *[64]chess.Piece) [2]Profile {
	var out [2]Profile
	for s := chess.A1; s <= chess.H8; s++ {
		if p := sq[s]; p != chess.NoPiece {
			out[p.Color()].add(p, s)
		}
	}
	return out
}

// profileFromPieces reads a fast tracker without touching the board.
func profileFromPieces(p *codec.Pieces) Profile {
	prof := Profile{
		Queens:  p.Queens.Len(),
		Rooks:   p.Rooks.Len(),
		Knights: p.Knights.Len(),
		Pawns:   p.Pawns.Len(),
	}
	if p.DarkBishop != chess.NoSquare {
		prof.DarkBishops = 1
	}
	if p.LightBishop != chess.NoSquare {
		prof.LightBishops = 1
	}
	for _, sq := range p.Pawns.Slice() {
		prof.PawnFiles[sq.File()]++
	}
	return prof
}

// MaterialOptions loosen the material comparison.
type MaterialOptions struct {
	AllowMorePieces         bool
	BishopsMustBeSameColour bool
	PawnsMustBeOnSameFiles  bool
	// Plies is how many consecutive positions must match before a match is
	// reported. Values below 1 mean 1.
	Plies int
}

// MaterialMatcher compares candidate material against a target in each
// primed symmetry variant and requires the match to hold for a number of
// consecutive calls.
type MaterialMatcher struct {
	opts    MaterialOptions
	targets [][2]Profile
	run     int
}

// Prime precomputes the target profile for each variant and resets the run
// counter.
func (m *MaterialMatcher) Prime(target *[64]chess.Piece, variants []Variant, opts MaterialOptions) {
	m.opts = opts
	m.targets = m.targets[:0]
	for _, v := range variants {
		sq := Transform(v, target)
		m.targets = append(m.targets, ProfileOf(&sq))
	}
	m.run = 0
}

// Reset clears the run counter, at the start of each game.
func (m *MaterialMatcher) Reset() { m.run = 0 }

// TestMaterialBalance tests one candidate position. A side whose tracker is
// fast is profiled from the tracker; otherwise the placement is scanned.
func (m *MaterialMatcher) TestMaterialBalance(white, black *codec.Tracker, candidate *[64]chess.Piece) bool {
	var cand [2]Profile
	var scanned *[2]Profile
	for i, t := range [2]*codec.Tracker{white, black} {
		if t != nil {
			if p, ok := t.Fast(); ok {
				cand[i] = profileFromPieces(p)
				continue
			}
		}
		if scanned == nil {
			all := ProfileOf(candidate)
			scanned = &all
		}
		cand[i] = scanned[i]
	}

	if !m.anyVariant(&cand) {
		m.run = 0
		return false
	}
	m.run++
	need := m.opts.Plies
	if need < 1 {
		need = 1
	}
	return m.run >= need
}

func (m *MaterialMatcher) anyVariant(cand *[2]Profile) bool {
	for i := range m.targets {
		if m.sideMatches(&m.targets[i][chess.White], &cand[chess.White]) &&
			m.sideMatches(&m.targets[i][chess.Black], &cand[chess.Black]) {
			return true
		}
	}
	return false
}

func (m *MaterialMatcher) sideMatches(want, got *Profile) bool {
	cmp := func(w, g int) bool {
		if m.opts.AllowMorePieces {
			return g >= w
		}
		return g == w
	}
	if !cmp(want.Queens, got.Queens) || !cmp(want.Rooks, got.Rooks) ||
		!cmp(want.Knights, got.Knights) || !cmp(want.Pawns, got.Pawns) {
		return false
	}
	if m.opts.BishopsMustBeSameColour {
		if !cmp(want.DarkBishops, got.DarkBishops) || !cmp(want.LightBishops, got.LightBishops) {
			return false
		}
	} else if !cmp(want.DarkBishops+want.LightBishops, got.DarkBishops+got.LightBishops) {
		return false
	}
	if m.opts.PawnsMustBeOnSameFiles {
		for f := 0; f < 8; f++ {
			if m.opts.AllowMorePieces {
				if want.PawnFiles[f] > 0 && got.PawnFiles[f] == 0 {
					return false
				}
			} else if want.PawnFiles[f] != got.PawnFiles[f] {
				return false
			}
		}
	}
	return true
}
