package search

import "fmt"

// DecodeError reports a byte that does not decode to a move. Searches treat
// such a game as ending there; Replay surfaces it.
type DecodeError struct {
	Ply  int
	Code byte
	FEN  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ply %d: code %#02x does not decode in %s", e.Ply, e.Code, e.FEN)
}
