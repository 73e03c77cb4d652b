// Package ingest turns PGN files into compressed corpus games.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/freeeve/pgn/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/freeeve/chessgraph/gamesearch/internal/metrics"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
)

// Config configures loading and the folder watcher.
type Config struct {
	WatchDir     string         // Directory to watch for PGN files
	ProcessedDir string         // Directory to move processed files to
	RatingMin    int            // Both players must be rated at least this
	MaxGames     int            // Stop after this many games per file, 0 = no limit
	Workers      int            // Files parsed in parallel
	PollInterval time.Duration  // How often to check for new files
	Settle       time.Duration  // Quiet period after a file event before loading
	Logger       zerolog.Logger // Logger
}

func (c *Config) withDefaults() {
	if c.ProcessedDir == "" && c.WatchDir != "" {
		c.ProcessedDir = filepath.Join(c.WatchDir, "processed")
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.PollInterval == 0 {
		c.PollInterval = 10 * time.Second
	}
	if c.Settle == 0 {
		c.Settle = 2 * time.Second
	}
}

// FileStats counts what one file produced.
type FileStats struct {
	Loaded   int
	Filtered int // below RatingMin
	Rejected int // moves that could not be replayed or encoded
	Failed   int // files that could not be read
	Elapsed  time.Duration
}

func (s *FileStats) add(o FileStats) {
	s.Loaded += o.Loaded
	s.Filtered += o.Filtered
	s.Rejected += o.Rejected
	s.Failed += o.Failed
	s.Elapsed += o.Elapsed
}

// Loader parses PGN files into a corpus.
type Loader struct {
	cfg    Config
	corpus *search.Corpus
	log    zerolog.Logger
}

// NewLoader returns a loader filling corpus.
func NewLoader(cfg Config, corpus *search.Corpus) *Loader {
	cfg.withDefaults()
	return &Loader{
		cfg:    cfg,
		corpus: corpus,
		log:    cfg.Logger.With().Str("component", "ingest").Logger(),
	}
}

// LoadFile parses one PGN file. The returned games have no IDs yet.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]search.Game, FileStats, error) {
	start := time.Now()
	var stats FileStats
	var games []search.Game

	parser := pgn.Games(path)
	lastLog := time.Now()
	capped := false

gameLoop:
	for game := range parser.Games {
		if ctx.Err() != nil {
			parser.Stop()
			break gameLoop
		}
		whiteRating := parseRating(game.Tags["WhiteElo"])
		blackRating := parseRating(game.Tags["BlackElo"])
		if whiteRating < l.cfg.RatingMin || blackRating < l.cfg.RatingMin {
			stats.Filtered++
			continue
		}

		moves, err := compressGame(game)
		if err != nil {
			stats.Rejected++
			l.log.Debug().Err(err).Str("file", filepath.Base(path)).
				Str("white", game.Tags["White"]).Str("black", game.Tags["Black"]).
				Msg("game rejected")
			continue
		}
		games = append(games, search.Game{Meta: metaFromTags(game.Tags), Moves: moves})
		stats.Loaded++
		if l.cfg.MaxGames > 0 && stats.Loaded >= l.cfg.MaxGames {
			capped = true
			parser.Stop()
			break gameLoop
		}

		if time.Since(lastLog) > 10*time.Second {
			l.log.Info().
				Str("file", filepath.Base(path)).
				Int("games", stats.Loaded).
				Int("filtered", stats.Filtered).
				Int("rejected", stats.Rejected).
				Msg("ingest progress")
			lastLog = time.Now()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if err := parser.Err(); err != nil && !capped {
		return nil, stats, fmt.Errorf("parse %s: %w", path, err)
	}

	stats.Elapsed = time.Since(start)
	metrics.IngestGames.WithLabelValues("loaded").Add(float64(stats.Loaded))
	metrics.IngestGames.WithLabelValues("filtered").Add(float64(stats.Filtered))
	metrics.IngestGames.WithLabelValues("rejected").Add(float64(stats.Rejected))
	return games, stats, nil
}

// LoadFiles parses paths in parallel and appends the games to the corpus
// in path order, numbering them after the corpus's current largest ID. A
// file that fails to load is logged, counted in Failed and skipped; loaded
// lists the paths whose games were added. err is set only when ctx ends.
func (l *Loader) LoadFiles(ctx context.Context, paths []string) (total FileStats, loaded []string, err error) {
	results := make([][]search.Game, len(paths))
	perFile := make([]FileStats, len(paths))
	ok := make([]bool, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.cfg.Workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			games, stats, err := l.LoadFile(gctx, path)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				l.log.Error().Err(err).Str("file", filepath.Base(path)).Msg("ingest failed")
				return nil
			}
			results[i], perFile[i], ok[i] = games, stats, true
			l.log.Info().
				Str("file", filepath.Base(path)).
				Int("games", stats.Loaded).
				Int("filtered", stats.Filtered).
				Int("rejected", stats.Rejected).
				Dur("elapsed", stats.Elapsed).
				Msg("file ingest complete")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return FileStats{}, nil, err
	}

	next := l.corpus.NextID()
	if next == 0 {
		next = 1
	}
	for i := range results {
		if !ok[i] {
			total.Failed++
			continue
		}
		for j := range results[i] {
			results[i][j].ID = next
			next++
		}
		l.corpus.AddAll(results[i])
		total.add(perFile[i])
		loaded = append(loaded, paths[i])
	}
	metrics.CorpusGames.Set(float64(l.corpus.Len()))
	return total, loaded, nil
}

// LoadDir loads every PGN file directly inside dir.
func (l *Loader) LoadDir(ctx context.Context, dir string) (FileStats, error) {
	names, err := pgnFiles(dir)
	if err != nil {
		return FileStats{}, err
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, name)
	}
	stats, _, err := l.LoadFiles(ctx, paths)
	return stats, err
}

func pgnFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && isPGNFile(e.Name()) {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}
