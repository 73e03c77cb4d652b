package main

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/logx"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
	"github.com/freeeve/chessgraph/gamesearch/internal/store"
)

var (
	corpusPath string
	workers    int
	limit      int

	fen string

	reflections    bool
	reverseColours bool
	material       search.MaterialOptions
	byMaterial     bool

	logger = logx.NewLogger()

	rootCmd = &cobra.Command{
		Use:          "search",
		Short:        "Search a corpus snapshot for positions and patterns",
		SilenceUsage: true,
	}

	positionCmd = &cobra.Command{
		Use:   "position [san...]",
		Short: "Find games reaching a position, given as --fen or as SAN moves from the start",
		RunE:  runPosition,
	}

	patternCmd = &cobra.Command{
		Use:   "pattern <fen>",
		Short: "Find games whose position matches a placement; empty squares are wildcards",
		Args:  cobra.ExactArgs(1),
		RunE:  runPattern,
	}

	gameCmd = &cobra.Command{
		Use:   "game <id>",
		Short: "Print the moves of one game",
		Args:  cobra.ExactArgs(1),
		RunE:  runGame,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&corpusPath, "corpus", "./data/corpus.gsnp", "corpus snapshot")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", runtime.NumCPU(), "search goroutines")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 20, "games to print")

	rootCmd.AddCommand(positionCmd)
	positionCmd.Flags().StringVar(&fen, "fen", "", "position as FEN instead of moves")

	rootCmd.AddCommand(patternCmd)
	patternCmd.Flags().BoolVar(&reflections, "reflections", false, "also match the pattern mirrored a<->h")
	patternCmd.Flags().BoolVar(&reverseColours, "reverse-colours", false, "also match the pattern with colours swapped")
	patternCmd.Flags().BoolVar(&byMaterial, "material", false, "match the material balance instead of placement")
	patternCmd.Flags().BoolVar(&material.AllowMorePieces, "allow-more", false, "material: candidate may have extra pieces")
	patternCmd.Flags().BoolVar(&material.BishopsMustBeSameColour, "same-colour-bishops", false, "material: bishops must match square colour")
	patternCmd.Flags().BoolVar(&material.PawnsMustBeOnSameFiles, "same-pawn-files", false, "material: pawns must stand on the same files")
	patternCmd.Flags().IntVar(&material.Plies, "plies", 1, "material: consecutive positions that must match")

	rootCmd.AddCommand(gameCmd)
}

func loadCorpus() (*search.Corpus, error) {
	r, err := store.NewReader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	games, err := r.ReadFile(corpusPath)
	if err != nil {
		return nil, err
	}
	c := search.NewCorpus()
	c.AddAll(games)
	return c, nil
}

func runPosition(cmd *cobra.Command, args []string) error {
	var (
		b   *chess.Board
		err error
	)
	if fen != "" {
		b, err = chess.ParseFEN(fen)
	} else {
		_, b, err = chess.PlaySAN(args...)
	}
	if err != nil {
		return err
	}
	corpus, err := loadCorpus()
	if err != nil {
		return err
	}

	start := time.Now()
	target := b.Hash()
	ids, stats, err := search.ParallelSearch(cmd.Context(), corpus, target, workers)
	if err != nil {
		return err
	}
	logger.Info().
		Int("games", corpus.Len()).
		Int("matches", len(ids)).
		Int("fast_plies", stats.FastPlies).
		Int("slow_plies", stats.SlowPlies).
		Dur("elapsed", time.Since(start)).
		Msg("position search complete")

	sc := search.NewScanner()
	for i, id := range ids {
		if i == limit {
			break
		}
		g, _ := corpus.Game(id)
		ply, _ := sc.Find(g.Moves, target)
		printGame(cmd, g, ply)
	}
	return nil
}

func runPattern(cmd *cobra.Command, args []string) error {
	b, err := chess.ParseFEN(args[0])
	if err != nil {
		return err
	}
	corpus, err := loadCorpus()
	if err != nil {
		return err
	}
	crit := &search.Criteria{
		Target:                b.Squares,
		IncludeReflections:    reflections,
		IncludeReverseColours: reverseColours,
		ByMaterial:            byMaterial,
		Material:              material,
	}

	start := time.Now()
	matches, stats, err := search.ParallelPatternSearch(cmd.Context(), corpus, crit, workers)
	if err != nil {
		return err
	}
	logger.Info().
		Int("games", corpus.Len()).
		Int("matches", len(matches)).
		Int("fast_plies", stats.FastPlies).
		Int("slow_plies", stats.SlowPlies).
		Dur("elapsed", time.Since(start)).
		Msg("pattern search complete")

	for i, m := range matches {
		if i == limit {
			break
		}
		g, _ := corpus.Game(m.Game)
		printGame(cmd, g, m.Ply)
	}
	return nil
}

func runGame(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("game id %q: %w", args[0], err)
	}
	corpus, err := loadCorpus()
	if err != nil {
		return err
	}
	g, ok := corpus.Game(search.GameID(id))
	if !ok {
		return fmt.Errorf("game %d not in %s", id, corpusPath)
	}
	sans, err := search.Replay(g.Moves)
	printGame(cmd, g, len(sans))
	cmd.Println(strings.Join(sans, " "))
	return err
}

func printGame(cmd *cobra.Command, g search.Game, ply int) {
	cmd.Printf("%8d  %s - %s  %s  ply %d\n", g.ID, g.Meta.White, g.Meta.Black, g.Meta.Result, ply)
}
