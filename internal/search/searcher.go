package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
)

// Searcher runs position searches over a corpus and keeps the result of the
// last one.
type Searcher struct {
	corpus  *Corpus
	scanner *Scanner
	found   []GameID // storage order
}

// NewSearcher returns a searcher over c.
func NewSearcher(c *Corpus) *Searcher {
	return &Searcher{corpus: c, scanner: NewScanner()}
}

// Search scans every game for the position with hash target and returns
// the number of matching games.
func (s *Searcher) Search(target uint64) int {
	s.found = s.found[:0]
	for _, g := range s.corpus.Games() {
		if s.scanner.SearchGame(g.Moves, target) {
			s.found = append(s.found, g.ID)
		}
	}
	return len(s.found)
}

// GameIDFromRow returns the row-th result of the last search. Rows run in
// reverse storage order, so row 0 is the most recently added match. ok is
// false when row is outside [0, n) for the n the search returned.
func (s *Searcher) GameIDFromRow(row int) (id GameID, ok bool) {
	if row < 0 || row >= len(s.found) {
		return 0, false
	}
	return s.found[len(s.found)-1-row], true
}

// Results returns the IDs of the last search in row order.
func (s *Searcher) Results() []GameID {
	out := make([]GameID, len(s.found))
	for row := range out {
		out[row], _ = s.GameIDFromRow(row)
	}
	return out
}

// Stats returns the plies decoded on each path by this searcher.
func (s *Searcher) Stats() codec.Stats { return s.scanner.Stats() }

// chunks splits n rows into at most workers contiguous ranges.
func chunks(n, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}
	var out [][2]int
	for w := 0; w < workers; w++ {
		lo, hi := n*w/workers, n*(w+1)/workers
		if lo < hi {
			out = append(out, [2]int{lo, hi})
		}
	}
	return out
}

// ParallelSearch is Search spread over workers goroutines, each with its own
// scanner over a contiguous slice of the corpus. Results come back in the
// same reverse storage order as Searcher.Results. Cancellation is checked
// between games.
func ParallelSearch(ctx context.Context, c *Corpus, target uint64, workers int) ([]GameID, codec.Stats, error) {
	games := c.Games()
	parts := chunks(len(games), workers)
	found := make([][]GameID, len(parts))
	stats := make([]codec.Stats, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			sc := NewScanner()
			defer func() { stats[i] = sc.Stats() }()
			for row := part[1] - 1; row >= part[0]; row-- {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("search rows %d-%d: %w", part[0], part[1], err)
				}
				if sc.SearchGame(games[row].Moves, target) {
					found[i] = append(found[i], games[row].ID)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, codec.Stats{}, err
	}

	var (
		out   []GameID
		total codec.Stats
	)
	for i := len(parts) - 1; i >= 0; i-- {
		out = append(out, found[i]...)
		total.FastPlies += stats[i].FastPlies
		total.SlowPlies += stats[i].SlowPlies
	}
	return out, total, nil
}
