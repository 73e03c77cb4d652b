package search

import "sync"

// GameID identifies a game in the corpus.
type GameID uint32

// Meta is the descriptive part of a game record.
type Meta struct {
	White    string `json:"white"`
	Black    string `json:"black"`
	WhiteElo int    `json:"white_elo,omitempty"`
	BlackElo int    `json:"black_elo,omitempty"`
	Result   string `json:"result"`
	Event    string `json:"event,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Game is one corpus entry: its compressed move stream, one byte per ply.
type Game struct {
	ID    GameID
	Meta  Meta
	Moves []byte
}

// Corpus is the in-memory game cache. Loaders append under its mutex;
// searches read the slice returned by Games without locking and see the
// games present when they started.
type Corpus struct {
	mu    sync.RWMutex
	games []Game
	byID  map[GameID]int
}

// NewCorpus returns an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{byID: make(map[GameID]int)}
}

// Add appends a game. A game whose ID is already present replaces the
// index entry but keeps both rows.
func (c *Corpus) Add(g Game) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(g)
}

// AddAll appends games in order under a single lock.
func (c *Corpus) AddAll(games []Game) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range games {
		c.add(g)
	}
}

func (c *Corpus) add(g Game) {
	c.byID[g.ID] = len(c.games)
	c.games = append(c.games, g)
}

// Len returns the number of games.
func (c *Corpus) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.games)
}

// Games returns the games in storage order. The slice is shared; callers
// must not modify it.
func (c *Corpus) Games() []Game {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.games[:len(c.games):len(c.games)]
}

// Game looks a game up by ID.
func (c *Corpus) Game(id GameID) (Game, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return Game{}, false
	}
	return c.games[i], true
}

// NextID returns one past the largest ID in the corpus.
func (c *Corpus) NextID() GameID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var next GameID
	for id := range c.byID {
		if id >= next {
			next = id + 1
		}
	}
	return next
}
