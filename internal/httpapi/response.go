package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
	"github.com/freeeve/chessgraph/gamesearch/internal/search"
)

// PositionRequest selects a position by FEN or by a SAN line from the
// starting position. FEN wins when both are set.
type PositionRequest struct {
	FEN   string   `json:"fen,omitempty"`
	Moves []string `json:"moves,omitempty"`
}

// PositionResponse lists the games reaching a position, most recently
// added first.
type PositionResponse struct {
	Hash  string          `json:"hash"` // hex Zobrist key
	Count int             `json:"count"`
	Games []search.GameID `json:"games"`
	// Truncated is set when Count exceeds the returned games.
	Truncated bool `json:"truncated,omitempty"`
}

// PatternRequest describes a placement or material query. Empty squares of
// FEN are wildcards.
type PatternRequest struct {
	FEN               string `json:"fen"`
	Reflections       bool   `json:"reflections"`
	ReverseColours    bool   `json:"reverse_colours"`
	Material          bool   `json:"material"`
	AllowMore         bool   `json:"allow_more"`
	SameColourBishops bool   `json:"same_colour_bishops"`
	SamePawnFiles     bool   `json:"same_pawn_files"`
	Plies             int    `json:"plies"`
}

func (r *PatternRequest) criteria(target *chess.Board) *search.Criteria {
	return &search.Criteria{
		Target:                target.Squares,
		IncludeReflections:    r.Reflections,
		IncludeReverseColours: r.ReverseColours,
		ByMaterial:            r.Material,
		Material: search.MaterialOptions{
			AllowMorePieces:         r.AllowMore,
			BishopsMustBeSameColour: r.SameColourBishops,
			PawnsMustBeOnSameFiles:  r.SamePawnFiles,
			Plies:                   r.Plies,
		},
	}
}

type PatternResponse struct {
	Count     int                   `json:"count"`
	Matches   []search.PatternMatch `json:"matches"`
	Truncated bool                  `json:"truncated,omitempty"`
}

type GameResponse struct {
	ID search.GameID `json:"id"`
	search.Meta
	Moves []string `json:"moves"`
}

type errorResponse struct {
	Error string `json:"error"`
	RID   string `json:"rid,omitempty"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg, RID: GetRequestID(r.Context())})
}

// splitPath splits a URL path into parts
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
