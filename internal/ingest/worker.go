package ingest

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/freeeve/chessgraph/gamesearch/internal/search"
)

// Worker watches a folder, loads new PGN files into the corpus and moves
// them to the processed folder. Searches already running keep scanning the
// games they started with.
type Worker struct {
	cfg    Config
	loader *Loader
	log    zerolog.Logger
}

// NewWorker creates a new ingest worker. It returns nil when no watch
// directory is configured.
func NewWorker(cfg Config, corpus *search.Corpus) (*Worker, error) {
	if cfg.WatchDir == "" {
		return nil, nil // Disabled
	}
	cfg.withDefaults()

	if err := os.MkdirAll(cfg.WatchDir, 0755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ProcessedDir, 0755); err != nil {
		return nil, err
	}

	l := NewLoader(cfg, corpus)
	return &Worker{cfg: cfg, loader: l, log: l.log}, nil
}

// Run watches the folder until ctx is done. New PGN files are picked up
// once the directory has been quiet for Settle, and on every PollInterval
// tick in case a notification was missed.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().
		Str("watch_dir", w.cfg.WatchDir).
		Str("processed_dir", w.cfg.ProcessedDir).
		Int("rating_min", w.cfg.RatingMin).
		Msg("ingest worker started")

	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		defer watcher.Close()
		err = watcher.Add(w.cfg.WatchDir)
	}
	if err != nil {
		w.log.Warn().Err(err).Msg("file notifications unavailable, polling only")
	} else {
		events, errs = watcher.Events, watcher.Errors
	}

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()
	settle := time.NewTimer(w.cfg.Settle)
	settle.Stop()
	defer settle.Stop()

	process := func() {
		if _, err := w.ProcessNewFiles(ctx); err != nil && ctx.Err() == nil {
			w.log.Warn().Err(err).Msg("process files failed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 && isPGNFile(filepath.Base(ev.Name)) {
				settle.Reset(w.cfg.Settle)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			w.log.Warn().Err(err).Msg("watch error")
		case <-settle.C:
			process()
		case <-ticker.C:
			process()
		}
	}
}

// ProcessNewFiles loads the PGN files currently in the watch directory and
// moves each loaded file to the processed directory. A file that fails is
// left in place.
func (w *Worker) ProcessNewFiles(ctx context.Context) (FileStats, error) {
	if err := ctx.Err(); err != nil {
		return FileStats{}, err
	}
	names, err := pgnFiles(w.cfg.WatchDir)
	if err != nil || len(names) == 0 {
		return FileStats{}, err
	}
	w.log.Info().Int("files", len(names)).Int("workers", w.cfg.Workers).Msg("found PGN files to process")

	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(w.cfg.WatchDir, name)
	}
	stats, loaded, err := w.loader.LoadFiles(ctx, paths)
	if err != nil {
		return stats, err
	}

	// Files that failed stay in the watch directory.
	for _, src := range loaded {
		name := filepath.Base(src)
		dst := filepath.Join(w.cfg.ProcessedDir, name)
		if err := os.Rename(src, dst); err != nil {
			w.log.Warn().Err(err).Str("file", name).Msg("move to processed failed")
		} else {
			w.log.Info().Str("file", name).Msg("moved to processed")
		}
	}
	w.log.Info().
		Int("processed", len(loaded)).
		Int("failed", stats.Failed).
		Int("games", stats.Loaded).
		Msg("batch complete")
	return stats, nil
}
