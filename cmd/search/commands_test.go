package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
	"github.com/freeeve/chessgraph/gamesearch/internal/store"
)

func writeSnapshot(t *testing.T) string {
	t.Helper()
	var games []search.Game
	for i, line := range [][]string{{"e4", "e5"}, {"d4", "d5"}, {"e4", "c5"}} {
		moves, _, err := chess.PlaySAN(line...)
		if err != nil {
			t.Fatal(err)
		}
		codes, err := codec.CompressGame(moves)
		if err != nil {
			t.Fatal(err)
		}
		games = append(games, search.Game{
			ID:    search.GameID(i + 1),
			Meta:  search.Meta{White: "W" + strings.Repeat("x", i), Black: "B", Result: "*"},
			Moves: codes,
		})
	}
	w, err := store.NewWriter(zstd.SpeedDefault)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	path := filepath.Join(t.TempDir(), "corpus.gsnp")
	if _, err := w.WriteFile(path, games); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestCommands(t *testing.T) {
	path := writeSnapshot(t)

	out := run(t, "position", "--corpus", path, "--workers", "2", "e4")
	if lines := strings.Count(out, "\n"); lines != 2 {
		t.Fatalf("position output has %d lines:\n%s", lines, out)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "3") || !strings.Contains(out, "ply 1") {
		t.Fatalf("position output:\n%s", out)
	}

	out = run(t, "pattern", "--corpus", path, "8/8/8/8/3P4/8/8/8 w - - 0 1")
	if !strings.Contains(out, "Wx - B") || strings.Count(out, "\n") != 1 {
		t.Fatalf("pattern output:\n%s", out)
	}

	out = run(t, "game", "--corpus", path, "3")
	if !strings.Contains(out, "e4 c5") {
		t.Fatalf("game output:\n%s", out)
	}
}
