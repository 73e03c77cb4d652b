package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/freeeve/chessgraph/gamesearch/internal/config"
	"github.com/freeeve/chessgraph/gamesearch/internal/httpapi"
	"github.com/freeeve/chessgraph/gamesearch/internal/ingest"
	"github.com/freeeve/chessgraph/gamesearch/internal/logx"
	"github.com/freeeve/chessgraph/gamesearch/internal/metrics"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
	"github.com/freeeve/chessgraph/gamesearch/internal/store"
)

func main() {
	logger := logx.NewLogger()

	cfg, err := loadSettings(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	level, err := logx.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("log level")
	}
	logger = logx.New(os.Stdout, level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	corpus := search.NewCorpus()
	if err := loadCorpus(ctx, logger, cfg, corpus); err != nil {
		logger.Fatal().Err(err).Msg("load corpus")
	}
	metrics.CorpusGames.Set(float64(corpus.Len()))
	logger.Info().Int("games", corpus.Len()).Int("workers", cfg.Workers).Msg("corpus loaded")

	// Start HTTP server
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.NewRouter(logger, corpus, httpapi.Options{
			Workers:    cfg.Workers,
			MaxResults: cfg.MaxResults,
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("api server")
		}
	}()

	// Start ingest worker if configured
	worker, err := ingest.NewWorker(ingest.Config{
		WatchDir:  cfg.IngestDir,
		RatingMin: cfg.RatingMin,
		MaxGames:  cfg.MaxGames,
		Workers:   cfg.Workers,
		Logger:    logger,
	}, corpus)
	if err != nil {
		logger.Fatal().Err(err).Msg("create ingest worker")
	}
	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("ingest worker stopped")
			}
		}()
	}

	<-ctx.Done()
	logger.Info().Msg("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown error")
	}
	logger.Info().Msg("shutdown complete")
}

// loadSettings parses the command line into fs, loads the config file it
// names and applies every flag that was set on top of the file.
func loadSettings(fs *flag.FlagSet, args []string) (config.Config, error) {
	var (
		configPath = fs.String("config", os.Getenv("GAMESEARCH_CONFIG"), "YAML config file")

		// Server
		addr       = fs.String("addr", "", "listen address (default :8007)")
		workers    = fs.Int("workers", 0, "goroutines per search (default NumCPU)")
		maxResults = fs.Int("max-results", 0, "games returned per search (default 1000)")
		logLevel   = fs.String("log-level", "", "debug, info, warn, error")

		// Corpus
		corpusPath = fs.String("corpus", "", "corpus snapshot written by ingest")
		pgnDir     = fs.String("pgn-dir", "", "load every PGN file in this directory at startup")
		ratingMin  = fs.Int("rating-min", 0, "minimum rating for games loaded from PGN")
		maxGames   = fs.Int("max-games", 0, "maximum games per PGN file (0 = unlimited)")

		// Ingest settings
		ingestDir = fs.String("ingest-dir", "", "Directory to watch for PGN files (empty = disabled)")
	)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return config.Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "workers":
			cfg.Workers = *workers
		case "max-results":
			cfg.MaxResults = *maxResults
		case "log-level":
			cfg.LogLevel = *logLevel
		case "corpus":
			cfg.CorpusPath = *corpusPath
		case "pgn-dir":
			cfg.PGNDir = *pgnDir
		case "rating-min":
			cfg.RatingMin = *ratingMin
		case "max-games":
			cfg.MaxGames = *maxGames
		case "ingest-dir":
			cfg.IngestDir = *ingestDir
		}
	})
	return cfg, nil
}

// loadCorpus fills corpus from the snapshot, then from the PGN directory.
func loadCorpus(ctx context.Context, logger zerolog.Logger, cfg config.Config, corpus *search.Corpus) error {
	if cfg.CorpusPath != "" {
		r, err := store.NewReader()
		if err != nil {
			return err
		}
		defer r.Close()
		start := time.Now()
		games, err := r.ReadFile(cfg.CorpusPath)
		if err != nil {
			return err
		}
		corpus.AddAll(games)
		logger.Info().
			Str("path", cfg.CorpusPath).
			Int("games", len(games)).
			Dur("elapsed", time.Since(start)).
			Msg("snapshot loaded")
	}
	if cfg.PGNDir != "" {
		l := ingest.NewLoader(ingest.Config{
			RatingMin: cfg.RatingMin,
			MaxGames:  cfg.MaxGames,
			Workers:   cfg.Workers,
			Logger:    logger,
		}, corpus)
		stats, err := l.LoadDir(ctx, cfg.PGNDir)
		if err != nil {
			return err
		}
		logger.Info().
			Str("dir", cfg.PGNDir).
			Int("games", stats.Loaded).
			Int("filtered", stats.Filtered).
			Int("rejected", stats.Rejected).
			Int("failed", stats.Failed).
			Msg("PGN directory loaded")
	}
	return nil
}
