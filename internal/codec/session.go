package codec

import (
	"fmt"

	"github.com/freeeve/chessgraph/gamesearch/internal/chess"
)

// Stats counts how the plies of a game were served.
type Stats struct {
	FastPlies int
	SlowPlies int
}

// Outcome reports the side effects of one decoded ply that the caller must
// act on.
type Outcome struct {
	// Slow is set when the ply went through full move generation.
	Slow bool
	// InvalidatesOpponent is set when the opponent's tracker can no longer be
	// trusted and must be rebuilt before its next fast ply.
	InvalidatesOpponent bool
}

// DecodePly decodes one byte for the side to move on b, using t as that
// side's tracker. It neither applies the move nor touches the opponent; the
// returned Outcome says what the caller must do next. A zero Move means the
// code addresses nothing.
func DecodePly(code byte, b *chess.Board, t *Tracker) (chess.Move, Outcome) {
	if !t.fast {
		t.TryFastMode(b)
	}
	if p, ok := t.Fast(); ok {
		return decodeFast(code, b, p, t.color), Outcome{}
	}
	return decodeSlow(code, b), Outcome{Slow: true, InvalidatesOpponent: true}
}

// game is the state shared by the encoder and decoder: the true board, one
// tracker per side and the running position hash.
type game struct {
	board    chess.Board
	trackers [2]Tracker
	hash     uint64
	stats    Stats
}

func (g *game) reset(start *chess.Board) {
	g.board = *start
	g.trackers = [2]Tracker{NewTracker(chess.White), NewTracker(chess.Black)}
	g.hash = g.board.Hash()
	g.stats = Stats{}
}

// advance plays m for the side to move and brings both trackers and the
// hash along.
func (g *game) advance(m chess.Move, out Outcome) {
	us := g.board.SideToMove()
	mover, opp := &g.trackers[us], &g.trackers[us.Other()]

	if out.Slow {
		g.stats.SlowPlies++
	} else {
		g.stats.FastPlies++
	}

	g.hash = chess.UpdateHash(g.hash, m)
	g.board.Apply(m)
	mover.track(m)
	if m.Captured != chess.NoPiece {
		opp.capture(m.CaptureSquare(), m.Captured)
	}
	if out.InvalidatesOpponent {
		opp.Invalidate()
	}
}

// Decompressor replays a compressed game one ply at a time.
type Decompressor struct {
	g game
}

// NewDecompressor returns a decompressor positioned at the standard
// starting position.
func NewDecompressor() *Decompressor {
	d := &Decompressor{}
	d.Reset()
	return d
}

// Reset rewinds to the standard starting position.
func (d *Decompressor) Reset() { d.g.reset(chess.NewBoard()) }

// ResetTo rewinds to an arbitrary starting position.
func (d *Decompressor) ResetTo(b *chess.Board) { d.g.reset(b) }

// UncompressMove decodes the next ply and advances the position. It returns
// the zero Move, leaving the state unchanged, when the byte does not decode
// to a move in the current position.
func (d *Decompressor) UncompressMove(code byte) chess.Move {
	m, out := DecodePly(code, &d.g.board, &d.g.trackers[d.g.board.SideToMove()])
	if m.IsZero() {
		return m
	}
	d.g.advance(m, out)
	return m
}

// Board returns the current position. It must not be modified.
func (d *Decompressor) Board() *chess.Board { return &d.g.board }

// Hash returns the running position hash.
func (d *Decompressor) Hash() uint64 { return d.g.hash }

// Tracker returns the tracker of side c.
func (d *Decompressor) Tracker(c chess.Color) *Tracker { return &d.g.trackers[c] }

// Stats returns the fast/slow ply counts since the last reset.
func (d *Decompressor) Stats() Stats { return d.g.stats }

// Compressor produces the byte stream a Decompressor consumes. It keeps the
// same tracker state as the decoder, so every mode decision matches.
type Compressor struct {
	g game
}

// NewCompressor returns a compressor positioned at the standard starting
// position.
func NewCompressor() *Compressor {
	c := &Compressor{}
	c.g.reset(chess.NewBoard())
	return c
}

// ResetTo rewinds to an arbitrary starting position.
func (c *Compressor) ResetTo(b *chess.Board) { c.g.reset(b) }

// Board returns the current position. It must not be modified.
func (c *Compressor) Board() *chess.Board { return &c.g.board }

// CompressMove encodes m, which must be legal in the current position, and
// advances. Illegal moves are rejected with chess.ErrIllegalMove and leave
// the state unchanged; nothing downstream checks legality again.
func (c *Compressor) CompressMove(m chess.Move) (byte, error) {
	b := &c.g.board
	legal, err := b.Find(m.From, m.To, m.Promo.Kind())
	if err != nil {
		return 0, err
	}
	t := &c.g.trackers[b.SideToMove()]
	if !t.fast {
		t.TryFastMode(b)
	}

	var (
		code byte
		ok   bool
		out  Outcome
	)
	if p, fast := t.Fast(); fast {
		code, ok = encodeFast(legal, p)
	} else {
		code, ok = encodeSlow(legal, b)
		out = Outcome{Slow: true, InvalidatesOpponent: true}
	}
	if !ok {
		return 0, fmt.Errorf("encode %s in %s: no code", legal.UCI(), b.FEN())
	}
	c.g.advance(legal, out)
	return code, nil
}

// CompressGame encodes a whole move sequence from the starting position.
func CompressGame(moves []chess.Move) ([]byte, error) {
	c := NewCompressor()
	out := make([]byte, 0, len(moves))
	for i, m := range moves {
		code, err := c.CompressMove(m)
		if err != nil {
			return nil, fmt.Errorf("ply %d: %w", i+1, err)
		}
		out = append(out, code)
	}
	return out, nil
}
