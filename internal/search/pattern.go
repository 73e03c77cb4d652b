package search

import "github.com/freeeve/chessgraph/gamesearch/internal/chess"

// Variant is one of the symmetry transforms a pattern search can widen to.
type Variant uint8

const (
	Identity Variant = iota
	Mirror
	Reversed
	MirrorReversed
)

func (v Variant) String() string {
	switch v {
	case Identity:
		return "identity"
	case Mirror:
		return "mirror"
	case Reversed:
		return "reversed"
	case MirrorReversed:
		return "mirror+reversed"
	}
	return "unknown"
}

func (v Variant) mirrors() bool  { return v == Mirror || v == MirrorReversed }
func (v Variant) reverses() bool { return v == Reversed || v == MirrorReversed }

// Variants returns the symmetry set to search for the given flags.
func Variants(reflections, reverseColours bool) []Variant {
	switch {
	case reflections && reverseColours:
		return []Variant{Identity, Mirror, Reversed, MirrorReversed}
	case reflections:
		return []Variant{Identity, Mirror}
	case reverseColours:
		return []Variant{Identity, Reversed}
	}
	return []Variant{Identity}
}

// Transform applies v to a placement. Mirroring swaps the a- and h-files;
// reversing swaps piece colours where they stand.
func Transform(v Variant, in *[64]chess.Piece) [64]chess.Piece {
	var out [64]chess.Piece
	for sq := chess.A1; sq <= chess.H8; sq++ {
		p := in[sq]
		if p == chess.NoPiece {
			continue
		}
		dst := sq
		if v.mirrors() {
			dst = sq.Mirror()
		}
		if v.reverses() {
			p = p.Reverse()
		}
		out[dst] = p
	}
	return out
}

// maskOf sets a byte of ones on every occupied square.
func maskOf(sq *[64]chess.Piece) [8]uint64 {
	var m [8]uint64
	for s := chess.A1; s <= chess.H8; s++ {
		if sq[s] != chess.NoPiece {
			m[s.Rank()] |= uint64(0xFF) << (8 * uint(s.File()))
		}
	}
	return m
}

type patternMask struct {
	variant Variant
	target  [8]uint64
	mask    [8]uint64
}

// PatternMatcher tests candidate boards against a target placement and its
// symmetry variants. Squares the target leaves empty match anything.
type PatternMatcher struct {
	masks []patternMask
}

// Prime precomputes the packed target and mask for each variant.
func (m *PatternMatcher) Prime(target *[64]chess.Piece, variants []Variant) {
	m.masks = m.masks[:0]
	for _, v := range variants {
		sq := Transform(v, target)
		m.masks = append(m.masks, patternMask{
			variant: v,
			target:  chess.PackSquares(&sq),
			mask:    maskOf(&sq),
		})
	}
}

// TestPattern reports whether the packed candidate matches any primed
// variant.
func (m *PatternMatcher) TestPattern(candidate *[8]uint64) bool {
	_, ok := m.Match(candidate)
	return ok
}

// Match is TestPattern that also names the variant that matched.
func (m *PatternMatcher) Match(candidate *[8]uint64) (Variant, bool) {
next:
	for _, pm := range m.masks {
		for r := 0; r < 8; r++ {
			if candidate[r]&pm.mask[r] != pm.target[r] {
				continue next
			}
		}
		return pm.variant, true
	}
	return 0, false
}
