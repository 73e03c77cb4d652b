package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/metrics"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
)

const maxBodyBytes = 1 << 16

// Options configure the router.
type Options struct {
	Workers    int // goroutines per search
	MaxResults int // games returned per search, 0 = all
}

// Handler serves searches over an in-memory corpus.
type Handler struct {
	corpus *search.Corpus
	opts   Options
	log    zerolog.Logger
}

// NewRouter creates the HTTP router over corpus.
func NewRouter(log zerolog.Logger, corpus *search.Corpus, opts Options) http.Handler {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	h := &Handler{corpus: corpus, opts: opts, log: log}

	mux := http.NewServeMux()
	mux.Handle("/health", http.HandlerFunc(h.health))
	mux.Handle("/v1/stats", http.HandlerFunc(h.stats))
	mux.Handle("/search/position", http.HandlerFunc(h.searchPosition))
	mux.Handle("/search/pattern", http.HandlerFunc(h.searchPattern))
	mux.Handle("/games/", http.HandlerFunc(h.game))
	mux.Handle("/metrics", promhttp.Handler())

	// pprof endpoints
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return CORS(RequestID(AccessLog(log, mux)))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	games := h.corpus.Games()
	plies := 0
	for i := range games {
		plies += len(games[i].Moves)
	}
	writeJSON(w, map[string]any{
		"games":   len(games),
		"plies":   plies,
		"workers": h.opts.Workers,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "use POST")
		return false
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// positionFrom resolves the request to a board.
func positionFrom(req *PositionRequest) (*chess.Board, error) {
	if req.FEN != "" {
		return chess.ParseFEN(req.FEN)
	}
	_, b, err := chess.PlaySAN(req.Moves...)
	return b, err
}

func (h *Handler) searchPosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !h.decode(w, r, &req) {
		return
	}
	b, err := positionFrom(&req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	target := b.Hash()

	start := time.Now()
	ids, stats, err := search.ParallelSearch(r.Context(), h.corpus, target, h.opts.Workers)
	metrics.ObserveSearch("position", start, len(ids), stats, err)
	if err != nil {
		h.searchFailed(w, r, err)
		return
	}

	resp := PositionResponse{Hash: fmt.Sprintf("%016x", target), Count: len(ids)}
	resp.Games, resp.Truncated = capped(ids, h.opts.MaxResults)
	h.log.Debug().
		Str("rid", GetRequestID(r.Context())).
		Int("count", resp.Count).
		Int("fast_plies", stats.FastPlies).
		Int("slow_plies", stats.SlowPlies).
		Dur("elapsed", time.Since(start)).
		Msg("position search")
	writeJSON(w, resp)
}

func (h *Handler) searchPattern(w http.ResponseWriter, r *http.Request) {
	var req PatternRequest
	if !h.decode(w, r, &req) {
		return
	}
	b, err := chess.ParseFEN(req.FEN)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	kind := "pattern"
	if req.Material {
		kind = "material"
	}

	start := time.Now()
	matches, stats, err := search.ParallelPatternSearch(r.Context(), h.corpus, req.criteria(b), h.opts.Workers)
	metrics.ObserveSearch(kind, start, len(matches), stats, err)
	if errors.Is(err, search.ErrEmptyTarget) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.searchFailed(w, r, err)
		return
	}

	resp := PatternResponse{Count: len(matches)}
	resp.Matches, resp.Truncated = capped(matches, h.opts.MaxResults)
	writeJSON(w, resp)
}

func (h *Handler) searchFailed(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		// Client went away; nobody reads the response.
		h.log.Info().Str("rid", GetRequestID(r.Context())).Err(err).Msg("search cancelled")
		return
	}
	h.log.Error().Str("rid", GetRequestID(r.Context())).Err(err).Msg("search failed")
	writeError(w, r, http.StatusInternalServerError, "internal error")
}

func (h *Handler) game(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	if len(parts) != 2 {
		writeError(w, r, http.StatusBadRequest, "missing game id")
		return
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid game id: "+parts[1])
		return
	}
	g, ok := h.corpus.Game(search.GameID(id))
	if !ok {
		writeError(w, r, http.StatusNotFound, "game not found")
		return
	}
	moves, err := search.Replay(g.Moves)
	if err != nil {
		h.log.Error().Str("rid", GetRequestID(r.Context())).Uint32("game", uint32(g.ID)).Err(err).Msg("replay")
		writeError(w, r, http.StatusInternalServerError, "game does not decode")
		return
	}
	writeJSON(w, GameResponse{ID: g.ID, Meta: g.Meta, Moves: moves})
}

func capped[T any](s []T, n int) ([]T, bool) {
	if s == nil {
		s = []T{}
	}
	if n > 0 && len(s) > n {
		return s[:n], true
	}
	return s, false
}
