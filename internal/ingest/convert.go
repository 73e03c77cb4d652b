package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/freeeve/pgn/v3"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/codec"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
)

// ErrCustomStart rejects games that begin from a set-up position; the corpus
// only holds games from the standard start.
var ErrCustomStart = errors.New("ingest: game does not start from the initial position")

// compressGame replays a parsed game and returns its compressed move stream.
func compressGame(game *pgn.Game) ([]byte, error) {
	if fen := game.Tags["FEN"]; fen != "" && fen != chess.StartFEN {
		return nil, ErrCustomStart
	}
	c := codec.NewCompressor()
	out := make([]byte, 0, len(game.Moves))
	for i, mv := range game.Moves {
		m, err := c.Board().FromPGN(mv)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		code, err := c.CompressMove(m)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		out = append(out, code)
	}
	return out, nil
}

func metaFromTags(tags map[string]string) search.Meta {
	return search.Meta{
		White:    tags["White"],
		Black:    tags["Black"],
		WhiteElo: parseRating(tags["WhiteElo"]),
		BlackElo: parseRating(tags["BlackElo"]),
		Result:   tags["Result"],
		Event:    tags["Event"],
		Date:     tags["Date"],
	}
}

func isPGNFile(name string) bool {
	ext := filepath.Ext(name)
	if ext == ".pgn" {
		return true
	}
	if ext == ".zst" {
		return filepath.Ext(strings.TrimSuffix(name, ext)) == ".pgn"
	}
	return false
}

func parseRating(s string) int {
	if s == "" || s == "?" || s == "-" {
		return 0
	}
	r, _ := strconv.Atoi(s)
	return r
}
