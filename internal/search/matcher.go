package search

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
)

// ErrEmptyTarget is returned for a pattern with no pieces on it.
var ErrEmptyTarget = errors.New("search: target has no pieces")

// Criteria describe one pattern or material query. They are not modified
// once a Matcher is built from them.
type Criteria struct {
	Target                [64]chess.Piece
	IncludeReflections    bool
	IncludeReverseColours bool
	// ByMaterial switches from placement matching to material-balance
	// matching under Material.
	ByMaterial bool
	Material   MaterialOptions
}

// Variants returns the symmetry set the criteria ask for.
func (c *Criteria) Variants() []Variant {
	return Variants(c.IncludeReflections, c.IncludeReverseColours)
}

// Matcher is the per-position test of a pattern search. It carries the
// material run counter, so each goroutine needs its own.
type Matcher struct {
	byMaterial bool
	pattern    PatternMatcher
	material   MaterialMatcher
}

// NewMatcher primes a matcher for c.
func NewMatcher(c *Criteria) (*Matcher, error) {
	m := &Matcher{}
	if err := m.Prime(c); err != nil {
		return nil, err
	}
	return m, nil
}

// Prime precomputes the symmetry variants of c.
func (m *Matcher) Prime(c *Criteria) error {
	empty := true
	for _, p := range c.Target {
		if p != chess.NoPiece {
			empty = false
			break
		}
	}
	if empty && !c.ByMaterial {
		return ErrEmptyTarget
	}
	m.byMaterial = c.ByMaterial
	variants := c.Variants()
	if c.ByMaterial {
		m.material.Prime(&c.Target, variants, c.Material)
	} else {
		m.pattern.Prime(&c.Target, variants)
	}
	return nil
}

// Test checks the position on b. white and black are the trackers of the
// game being walked; either may be nil.
func (m *Matcher) Test(white, black *codec.Tracker, b *chess.Board) bool {
	if m.byMaterial {
		return m.material.TestMaterialBalance(white, black, &b.Squares)
	}
	words := b.PackedRanks()
	return m.pattern.TestPattern(&words)
}

// Reset prepares the matcher for a new game.
func (m *Matcher) Reset() { m.material.Reset() }

// PatternMatch is a game that matched and the first ply at which it did.
type PatternMatch struct {
	Game GameID `json:"game"`
	Ply  int    `json:"ply"`
}

// SweepGame walks one game and returns the first ply whose position
// satisfies m.
func (s *Scanner) SweepGame(moves []byte, m *Matcher) (ply int, ok bool) {
	m.Reset()
	return s.sweep(moves, func(_ int, d *codec.Decompressor) bool {
		return m.Test(d.Tracker(chess.White), d.Tracker(chess.Black), d.Board())
	})
}

// PatternSearch sweeps every game of c, returning matches in reverse
// storage order.
func PatternSearch(c *Corpus, crit *Criteria) ([]PatternMatch, codec.Stats, error) {
	return ParallelPatternSearch(context.Background(), c, crit, 1)
}

// ParallelPatternSearch is PatternSearch over workers goroutines, each with
// its own scanner and matcher. The stats sum the plies every scanner
// decoded.
func ParallelPatternSearch(ctx context.Context, c *Corpus, crit *Criteria, workers int) ([]PatternMatch, codec.Stats, error) {
	if _, err := NewMatcher(crit); err != nil {
		return nil, codec.Stats{}, err
	}
	games := c.Games()
	parts := chunks(len(games), workers)
	found := make([][]PatternMatch, len(parts))
	stats := make([]codec.Stats, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			m, err := NewMatcher(crit)
			if err != nil {
				return err
			}
			sc := NewScanner()
			defer func() { stats[i] = sc.Stats() }()
			for row := part[1] - 1; row >= part[0]; row-- {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("pattern search rows %d-%d: %w", part[0], part[1], err)
				}
				if ply, ok := sc.SweepGame(games[row].Moves, m); ok {
					found[i] = append(found[i], PatternMatch{Game: games[row].ID, Ply: ply})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, codec.Stats{}, err
	}

	var (
		out   []PatternMatch
		total codec.Stats
	)
	for i := len(parts) - 1; i >= 0; i-- {
		out = append(out, found[i]...)
		total.FastPlies += stats[i].FastPlies
		total.SlowPlies += stats[i].SlowPlies
	}
	return out, total, nil
}
