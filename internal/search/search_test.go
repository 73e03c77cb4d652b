package search

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
)

func compressSAN(t *testing.T, sans ...string) []byte {
	t.Helper()
	moves, _, err := chess.PlaySAN(sans...)
	if err != nil {
		t.Fatalf("PlaySAN(%v): %v", sans, err)
	}
	codes, err := codec.CompressGame(moves)
	if err != nil {
		t.Fatalf("CompressGame: %v", err)
	}
	return codes
}

func hashAfter(t *testing.T, sans ...string) uint64 {
	t.Helper()
	_, b, err := chess.PlaySAN(sans...)
	if err != nil {
		t.Fatalf("PlaySAN(%v): %v", sans, err)
	}
	return b.Hash()
}

func randomCorpus(t *testing.T, seed int64, games, plies int) *Corpus {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	c := NewCorpus()
	for g := 0; g < games; g++ {
		b := chess.NewBoard()
		var moves []chess.Move
		for i := 0; i < plies; i++ {
			legal := b.LegalMoves()
			if len(legal) == 0 {
				break
			}
			m := legal[rng.Intn(len(legal))]
			b.Apply(m)
			moves = append(moves, m)
		}
		codes, err := codec.CompressGame(moves)
		if err != nil {
			t.Fatalf("CompressGame: %v", err)
		}
		c.Add(Game{ID: GameID(g + 1), Moves: codes})
	}
	return c
}

func TestSearchScenario(t *testing.T) {
	c := NewCorpus()
	c.Add(Game{ID: 10, Moves: compressSAN(t, "e4", "e5", "Nf3")})
	c.Add(Game{ID: 20, Moves: compressSAN(t, "d4", "d5")})
	target := hashAfter(t, "e4", "e5")

	s := NewSearcher(c)
	if n := s.Search(target); n != 1 {
		t.Fatalf("Search = %d, want 1", n)
	}
	if id, ok := s.GameIDFromRow(0); !ok || id != 10 {
		t.Fatalf("GameIDFromRow(0) = %d, %v; want 10, true", id, ok)
	}
	for _, row := range []int{-1, 1, 5} {
		if id, ok := s.GameIDFromRow(row); ok {
			t.Fatalf("GameIDFromRow(%d) = %d, true; want out of range", row, id)
		}
	}

	sc := NewScanner()
	ply, ok := sc.Find(c.Games()[0].Moves, target)
	if !ok || ply != 2 {
		t.Fatalf("Find = %d, %v; want 2, true", ply, ok)
	}
	if st := sc.Stats(); st.FastPlies+st.SlowPlies != 2 {
		t.Fatalf("decoded %d plies, want 2", st.FastPlies+st.SlowPlies)
	}
}

func TestSearchStartingPosition(t *testing.T) {
	sc := NewScanner()
	ply, ok := sc.Find(compressSAN(t, "e4"), chess.NewBoard().Hash())
	if !ok || ply != 0 {
		t.Fatalf("Find = %d, %v; want 0, true", ply, ok)
	}
	if sc.SearchGame(nil, hashAfter(t, "e4")) {
		t.Fatal("empty game matched a later position")
	}
}

func TestRunningHashMatchesEveryPly(t *testing.T) {
	line := []string{"d4", "Nf6", "c4", "e6", "Nc3", "Bb4", "e3", "O-O", "Bd3", "d5",
		"Nf3", "c5", "O-O", "Nc6", "a3", "Bxc3", "bxc3", "dxc4", "Bxc4", "Qc7"}
	codes := compressSAN(t, line...)
	sc := NewScanner()
	for i := 1; i <= len(line); i++ {
		ply, ok := sc.Find(codes, hashAfter(t, line[:i]...))
		if !ok || ply != i {
			t.Fatalf("target after ply %d: Find = %d, %v", i, ply, ok)
		}
	}
}

func TestResultsInReverseStorageOrder(t *testing.T) {
	c := NewCorpus()
	c.AddAll([]Game{
		{ID: 1, Moves: compressSAN(t, "e4", "c5")},
		{ID: 2, Moves: compressSAN(t, "d4", "d5")},
		{ID: 3, Moves: compressSAN(t, "e4", "c5", "Nf3")},
		{ID: 4, Moves: compressSAN(t, "e4", "c5", "Nc3")},
	})
	s := NewSearcher(c)
	if n := s.Search(hashAfter(t, "e4", "c5")); n != 3 {
		t.Fatalf("Search = %d, want 3", n)
	}
	if got, want := s.Results(), []GameID{4, 3, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Results = %v, want %v", got, want)
	}
}

func TestParallelSearchAgreesWithSerial(t *testing.T) {
	c := randomCorpus(t, 3, 60, 12)
	// Targets: positions a few games reach, plus the starting position
	// every game shares.
	var targets []uint64
	for _, g := range c.Games()[:5] {
		d := codec.NewDecompressor()
		for _, code := range g.Moves[:4] {
			d.UncompressMove(code)
		}
		targets = append(targets, d.Hash())
	}
	targets = append(targets, chess.NewBoard().Hash())

	s := NewSearcher(c)
	for _, target := range targets {
		s.Search(target)
		want := s.Results()
		for _, workers := range []int{1, 2, 3, 7, 100} {
			got, _, err := ParallelSearch(context.Background(), c, target, workers)
			if err != nil {
				t.Fatalf("ParallelSearch: %v", err)
			}
			if len(got) != len(want) || (len(want) > 0 && !reflect.DeepEqual(got, want)) {
				t.Fatalf("workers=%d: got %v, want %v", workers, got, want)
			}
		}
	}
}

func TestParallelSearchCancelled(t *testing.T) {
	c := randomCorpus(t, 5, 8, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := ParallelSearch(ctx, c, 0, 2)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestReplay(t *testing.T) {
	line := []string{"e4", "e5", "Nf3", "Nc6", "Bb5", "a6", "Bxc6", "dxc6", "O-O"}
	got, err := Replay(compressSAN(t, line...))
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !reflect.DeepEqual(got, line) {
		t.Fatalf("Replay = %v, want %v", got, line)
	}

	_, err = Replay([]byte{0x1D})
	var de *DecodeError
	if !errors.As(err, &de) || de.Ply != 1 {
		t.Fatalf("err = %v, want DecodeError at ply 1", err)
	}
}
