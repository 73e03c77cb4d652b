// Package store persists a game corpus as a single zstd-compressed snapshot
// file: a fixed header followed by one varint-framed record per game, each
// carrying the game's metadata and its compressed move bytes.
//
// Snapshots are written whole and read whole. The ingest command writes
// them; the API server and the search command load them into a corpus.
package store
