package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/chessgraph/gamesearch/internal/ingest"
	"github.com/freeeve/chessgraph/gamesearch/internal/logx"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
	"github.com/freeeve/chessgraph/gamesearch/internal/store"
)

func main() {
	defaultRatingMin := 0
	if envRating := os.Getenv("GAMESEARCH_RATING_MIN"); envRating != "" {
		if rating, err := strconv.Atoi(envRating); err == nil {
			defaultRatingMin = rating
		}
	}

	var (
		inputPath = flag.String("pgn", "", "PGN file (supports .zst) or directory of PGN files")
		outPath   = flag.String("out", "./data/corpus.gsnp", "corpus snapshot to write")
		appendTo  = flag.Bool("append", false, "keep the games already in -out")
		ratingMin = flag.Int("rating-min", defaultRatingMin, "Rating floor for games")
		maxGames  = flag.Int("max-games", 0, "Maximum games per file (0 = unlimited)")
		workers   = flag.Int("workers", 0, "files parsed in parallel (default NumCPU)")
		level     = flag.String("zstd", "best", "zstd level: fastest, default, better, best")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: ingest --pgn <file.pgn[.zst]|dir> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}
	ok, encLevel := zstd.EncoderLevelFromString(*level)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown zstd level %q\n", *level)
		os.Exit(1)
	}

	logger := logx.NewLogger()
	logger.Info().
		Str("pgn", *inputPath).
		Str("out", *outPath).
		Int("rating_min", *ratingMin).
		Msg("starting ingest")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	corpus := search.NewCorpus()
	if *appendTo {
		if _, err := os.Stat(*outPath); err == nil {
			r, err := store.NewReader()
			if err != nil {
				logger.Fatal().Err(err).Msg("zstd decoder")
			}
			games, err := r.ReadFile(*outPath)
			r.Close()
			if err != nil {
				logger.Fatal().Err(err).Msg("read existing snapshot")
			}
			corpus.AddAll(games)
			logger.Info().Int("games", len(games)).Msg("existing snapshot loaded")
		}
	}

	start := time.Now()
	loader := ingest.NewLoader(ingest.Config{
		RatingMin: *ratingMin,
		MaxGames:  *maxGames,
		Workers:   *workers,
		Logger:    logger,
	}, corpus)

	var stats ingest.FileStats
	info, err := os.Stat(*inputPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("stat input")
	}
	if info.IsDir() {
		stats, err = loader.LoadDir(ctx, *inputPath)
	} else {
		stats, _, err = loader.LoadFiles(ctx, []string{*inputPath})
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("ingest")
	}
	if stats.Failed > 0 && stats.Loaded == 0 {
		logger.Fatal().Int("failed", stats.Failed).Msg("no input file could be read")
	}

	w, err := store.NewWriter(encLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("zstd encoder")
	}
	defer w.Close()
	ws, err := w.WriteFile(*outPath, corpus.Games())
	if err != nil {
		logger.Fatal().Err(err).Msg("write snapshot")
	}

	ratio := 0.0
	if ws.CompressedSize > 0 {
		ratio = float64(ws.UncompressedSize) / float64(ws.CompressedSize)
	}
	logger.Info().
		Int("games", ws.Games).
		Int("new_games", stats.Loaded).
		Int("filtered", stats.Filtered).
		Int("rejected", stats.Rejected).
		Int("failed", stats.Failed).
		Int("plies", ws.Plies).
		Int("bytes", ws.CompressedSize+store.SnapshotHeaderSize).
		Float64("ratio", ratio).
		Dur("elapsed", time.Since(start)).
		Msg("ingest complete")
}
