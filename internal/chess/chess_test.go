package chess

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/freeeve/pgn/v3"
)

func perft(b *Board, depth int) int {
	if depth == 0 {
		return 1
	}
	moves := b.LegalMoves()
	if depth == 1 {
		return len(moves)
	}
	n := 0
	for _, m := range moves {
		next := *b
		next.Apply(m)
		n += perft(&next, depth-1)
	}
	return n
}

func TestPerft(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		depth int
		nodes int
	}{
		{"start d1", StartFEN, 1, 20},
		{"start d2", StartFEN, 2, 400},
		{"start d3", StartFEN, 3, 8902},
		{"kiwipete d1", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 1, 48},
		{"kiwipete d2", "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1", 2, 2039},
		{"endgame d3", "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1", 3, 2812},
		{"promotions d2", "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", 2, 264},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := ParseFEN(tt.fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			if got := perft(b, tt.depth); got != tt.nodes {
				t.Errorf("perft(%d) = %d, want %d", tt.depth, got, tt.nodes)
			}
		})
	}
}

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/8/8/8/8/8/8/4K2k w - - 12 40",
	}
	for _, fen := range fens {
		b, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		if got := b.FEN(); got != fen {
			t.Errorf("FEN() = %q, want %q", got, fen)
		}
	}
}

func TestParseFENErrors(t *testing.T) {
	bad := []string{
		"",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
	}
	for _, fen := range bad {
		if _, err := ParseFEN(fen); !errors.Is(err, ErrInvalidFEN) {
			t.Errorf("ParseFEN(%q) err = %v, want ErrInvalidFEN", fen, err)
		}
	}
}

func TestUpdateHashMatchesFullHash(t *testing.T) {
	// Covers castling both ways, en passant and a promotion with capture.
	lines := [][]string{
		{"e4", "d5", "exd5", "c5", "dxc6", "Nf6", "cxb7", "e6", "bxa8=Q", "Be7", "Nf3", "O-O", "Bc4", "Nc6", "O-O"},
		{"d4", "d5", "Nc3", "Nc6", "Bf4", "Bf5", "Qd2", "Qd7", "O-O-O", "O-O-O"},
	}
	for _, line := range lines {
		b := NewBoard()
		h := b.Hash()
		for _, san := range line {
			m, err := b.ParseSAN(san)
			if err != nil {
				t.Fatalf("ParseSAN(%q) in %s: %v", san, b.FEN(), err)
			}
			h = UpdateHash(h, m)
			b.Apply(m)
			if full := b.Hash(); full != h {
				t.Fatalf("after %s: incremental %x != full %x", san, h, full)
			}
		}
	}
}

func TestSAN(t *testing.T) {
	b, err := ParseFEN("r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		uci string
		san string
	}{
		{"e1g1", "O-O"},
		{"e1c1", "O-O-O"},
		{"e5f7", "Nxf7"},
		{"d5e6", "dxe6"},
		{"c3b1", "Nb1"},
		{"e2a6", "Bxa6"},
		{"f3f6", "Qxf6"},
	}
	for _, tt := range tests {
		t.Run(tt.uci, func(t *testing.T) {
			m, err := b.ParseUCI(tt.uci)
			if err != nil {
				t.Fatalf("ParseUCI: %v", err)
			}
			if got := b.SAN(m); strings.TrimRight(got, "+#") != tt.san {
				t.Errorf("SAN = %q, want %q", got, tt.san)
			}
			back, err := b.ParseSAN(tt.san)
			if err != nil {
				t.Fatalf("ParseSAN: %v", err)
			}
			if back != m {
				t.Errorf("ParseSAN(%q) = %v, want %v", tt.san, back, m)
			}
		})
	}
}

func TestSANDisambiguationAndMate(t *testing.T) {
	b, err := ParseFEN("6k1/5ppp/8/8/8/8/8/R5KR w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m, err := b.ParseUCI("a1a8")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.SAN(m); got != "Ra8#" {
		t.Errorf("SAN = %q, want Ra8#", got)
	}

	b, err = ParseFEN("3k4/8/8/8/8/8/4K3/R6R w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m, err = b.ParseUCI("a1d1")
	if err != nil {
		t.Fatal(err)
	}
	if got := b.SAN(m); got != "Rad1+" {
		t.Errorf("SAN = %q, want Rad1+", got)
	}
}

func TestIllegalMoves(t *testing.T) {
	b := NewBoard()
	for _, s := range []string{"e2e5", "e1g1", "a1a3", "zz", "e7e8x"} {
		if _, err := b.ParseUCI(s); !errors.Is(err, ErrIllegalMove) {
			t.Errorf("ParseUCI(%q) err = %v, want ErrIllegalMove", s, err)
		}
	}
	if _, err := b.ParseSAN("Ke2"); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("ParseSAN(Ke2) err = %v, want ErrIllegalMove", err)
	}
}

func TestPackedRanks(t *testing.T) {
	b := NewBoard()
	words := b.PackedRanks()
	// a1 is the low byte of rank 1
	if got := Piece(words[0] & 0xFF); got != WhiteRook {
		t.Errorf("a1 = %v, want R", got)
	}
	if got := Piece(words[0] >> 32 & 0xFF); got != WhiteKing {
		t.Errorf("e1 = %v, want K", got)
	}
	if words[3] != 0 {
		t.Errorf("rank 4 = %x, want 0", words[3])
	}
}

// Squares is a second copy of the position; random playouts through every
// kind of move must keep it identical to the engine's placement.
func TestMailboxTracksPosition(t *testing.T) {
	starts := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	}
	rng := rand.New(rand.NewSource(7))
	for _, fen := range starts {
		for game := 0; game < 20; game++ {
			b, err := ParseFEN(fen)
			if err != nil {
				t.Fatalf("ParseFEN: %v", err)
			}
			for ply := 0; ply < 120; ply++ {
				legal := b.LegalMoves()
				if len(legal) == 0 {
					break
				}
				m := legal[rng.Intn(len(legal))]
				b.Apply(m)
				for sq := A1; sq <= H8; sq++ {
					if got, want := b.Squares[sq], Piece(b.pos.PieceAt(pgn.Square(sq))); got != want {
						t.Fatalf("after %s in %s: %s holds %v, engine has %v", m, b.FEN(), sq, got, want)
					}
				}
			}
		}
	}
}

func TestFromPGN(t *testing.T) {
	b := NewBoard()
	m, err := b.FromPGN(pgn.Mv{From: 12, To: 28})
	if err != nil || m.From != E2 || m.To != E4 || m.Flag != FlagDoubleStep {
		t.Fatalf("e2e4 = %+v, %v", m, err)
	}
	if _, err := b.FromPGN(pgn.Mv{From: 12, To: 36}); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("e2e5 err = %v", err)
	}

	castle, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	// King-to-rook as well as king-to-destination; the flags are a bitmask,
	// so extra bits must not hide the castle bit.
	for _, mv := range []pgn.Mv{
		{From: 4, To: 6, Flags: mvCastle},
		{From: 4, To: 7, Flags: mvCastle},
		{From: 4, To: 7, Flags: mvCastle | 8},
	} {
		m, err := castle.FromPGN(mv)
		if err != nil || m.Flag != FlagCastleShort {
			t.Fatalf("O-O via %v flags %b = %+v, %v", mv.To, mv.Flags, m, err)
		}
	}
	m, err = castle.FromPGN(pgn.Mv{From: 4, To: 0, Flags: mvCastle})
	if err != nil || m.Flag != FlagCastleLong {
		t.Fatalf("O-O-O = %+v, %v", m, err)
	}

	promo, err := ParseFEN("1n2k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	m, err = promo.FromPGN(pgn.Mv{From: 48, To: 57, Promo: pgn.PromoKnight})
	if err != nil || m.Promo != WhiteKnight || m.Captured != BlackKnight || m.Flag != FlagPromotion {
		t.Fatalf("axb8=N = %+v, %v", m, err)
	}
}

func TestParsePlacementOnly(t *testing.T) {
	b, err := ParseFEN("8/8/8/8/4P3/8/8/8")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if b.Squares[E4] != WhitePawn || b.SideToMove() != White || b.Castling() != NoCastling || b.EP() != NoSquare {
		t.Errorf("board = %s", b.FEN())
	}
	if got := b.FEN(); got != "8/8/8/8/4P3/8/8/8 w - - 0 1" {
		t.Errorf("FEN() = %q", got)
	}
}
