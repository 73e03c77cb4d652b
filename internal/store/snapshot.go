package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/freeeve/chessgraph/gamesearch/internal/search"
)

// Snapshot format: one file holding a whole corpus.
//
// File structure:
//   Header (32 bytes):
//     - Magic (4): "GSNP"
//     - Version (2): 1
//     - Flags (2): reserved
//     - GameCount (4): number of records
//     - Checksum (4): CRC32 of uncompressed body
//     - BodySize (8): uncompressed body length
//     - Reserved (8)
//   Body (compressed with zstd), GameCount records of:
//     - ID (uvarint)
//     - White, Black, Result, Event, Date (uvarint length + bytes each)
//     - WhiteElo, BlackElo (uvarint)
//     - Moves (uvarint length + one byte per ply)

const (
	SnapshotMagic      = "GSNP"
	SnapshotVersion    = 1
	SnapshotHeaderSize = 32

	maxPrealloc = 64 << 20
)

var (
	ErrBadMagic = errors.New("store: not a snapshot file")
	ErrVersion  = errors.New("store: unsupported snapshot version")
	ErrChecksum = errors.New("store: checksum mismatch")
	ErrCorrupt  = errors.New("store: corrupt snapshot body")
)

// SnapshotHeader is the fixed-size file header.
type SnapshotHeader struct {
	Magic     [4]byte
	Version   uint16
	Flags     uint16
	GameCount uint32
	Checksum  uint32
	BodySize  uint64
}

func encodeSnapshotHeader(h *SnapshotHeader) []byte {
	buf := make([]byte, SnapshotHeaderSize)
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:12], h.GameCount)
	binary.LittleEndian.PutUint32(buf[12:16], h.Checksum)
	binary.LittleEndian.PutUint64(buf[16:24], h.BodySize)
	return buf
}

func decodeSnapshotHeader(buf []byte) (*SnapshotHeader, error) {
	if len(buf) < SnapshotHeaderSize {
		return nil, fmt.Errorf("%w: header too short", ErrBadMagic)
	}
	h := &SnapshotHeader{}
	copy(h.Magic[:], buf[0:4])
	if string(h.Magic[:]) != SnapshotMagic {
		return nil, fmt.Errorf("%w: magic %q", ErrBadMagic, h.Magic)
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	if h.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	h.Flags = binary.LittleEndian.Uint16(buf[6:8])
	h.GameCount = binary.LittleEndian.Uint32(buf[8:12])
	h.Checksum = binary.LittleEndian.Uint32(buf[12:16])
	h.BodySize = binary.LittleEndian.Uint64(buf[16:24])
	return h, nil
}

// WriteStats describes a written snapshot.
type WriteStats struct {
	Games            int
	Plies            int
	UncompressedSize int
	CompressedSize   int
	CompressTime     time.Duration
}

// Writer encodes snapshots. It holds a zstd encoder and may be reused, but
// not concurrently.
type Writer struct {
	encoder *zstd.Encoder
}

// NewWriter returns a snapshot writer at the given zstd level.
func NewWriter(level zstd.EncoderLevel) (*Writer, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	return &Writer{encoder: enc}, nil
}

// Close releases the encoder.
func (w *Writer) Close() error { return w.encoder.Close() }

// Encode returns the snapshot bytes for games.
func (w *Writer) Encode(games []search.Game) ([]byte, WriteStats) {
	var stats WriteStats
	body := make([]byte, 0, 64*len(games))
	for i := range games {
		g := &games[i]
		body = binary.AppendUvarint(body, uint64(g.ID))
		for _, s := range []string{g.Meta.White, g.Meta.Black, g.Meta.Result, g.Meta.Event, g.Meta.Date} {
			body = appendBytes(body, []byte(s))
		}
		body = binary.AppendUvarint(body, uint64(g.Meta.WhiteElo))
		body = binary.AppendUvarint(body, uint64(g.Meta.BlackElo))
		body = appendBytes(body, g.Moves)
		stats.Plies += len(g.Moves)
	}

	h := SnapshotHeader{
		Version:   SnapshotVersion,
		GameCount: uint32(len(games)),
		Checksum:  crc32.ChecksumIEEE(body),
		BodySize:  uint64(len(body)),
	}
	copy(h.Magic[:], SnapshotMagic)

	start := time.Now()
	out := encodeSnapshotHeader(&h)
	out = w.encoder.EncodeAll(body, out)
	stats.CompressTime = time.Since(start)
	stats.Games = len(games)
	stats.UncompressedSize = len(body)
	stats.CompressedSize = len(out) - SnapshotHeaderSize
	return out, stats
}

// WriteFile writes a snapshot to path, replacing any existing file only
// once the new one is complete.
func (w *Writer) WriteFile(path string, games []search.Game) (WriteStats, error) {
	data, stats := w.Encode(games)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return stats, err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return stats, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return stats, err
	}
	return stats, nil
}

func appendBytes(dst, b []byte) []byte {
	dst = binary.AppendUvarint(dst, uint64(len(b)))
	return append(dst, b...)
}

// Reader decodes snapshots.
type Reader struct {
	decoder *zstd.Decoder
}

// NewReader returns a snapshot reader.
func NewReader() (*Reader, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}
	return &Reader{decoder: dec}, nil
}

// Close releases the decoder.
func (r *Reader) Close() { r.decoder.Close() }

// ReadFile loads every game of the snapshot at path.
func (r *Reader) ReadFile(path string) ([]search.Game, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	games, err := r.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return games, nil
}

// Decode parses snapshot bytes.
func (r *Reader) Decode(data []byte) ([]search.Game, error) {
	h, err := decodeSnapshotHeader(data)
	if err != nil {
		return nil, err
	}
	body, err := r.decoder.DecodeAll(data[SnapshotHeaderSize:], make([]byte, 0, min(h.BodySize, maxPrealloc)))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if uint64(len(body)) != h.BodySize {
		return nil, fmt.Errorf("%w: body size %d, want %d", ErrCorrupt, len(body), h.BodySize)
	}
	if crc32.ChecksumIEEE(body) != h.Checksum {
		return nil, ErrChecksum
	}

	games := make([]search.Game, 0, min(int(h.GameCount), len(body)))
	d := bodyDecoder{buf: body}
	for i := uint32(0); i < h.GameCount; i++ {
		var g search.Game
		g.ID = search.GameID(d.uvarint())
		g.Meta.White = string(d.bytes())
		g.Meta.Black = string(d.bytes())
		g.Meta.Result = string(d.bytes())
		g.Meta.Event = string(d.bytes())
		g.Meta.Date = string(d.bytes())
		g.Meta.WhiteElo = int(d.uvarint())
		g.Meta.BlackElo = int(d.uvarint())
		g.Moves = d.bytes()
		if d.err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrCorrupt, i, d.err)
		}
		games = append(games, g)
	}
	if len(d.buf) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(d.buf))
	}
	return games, nil
}

// bodyDecoder reads uvarint-framed fields, remembering the first error.
type bodyDecoder struct {
	buf []byte
	err error
}

func (d *bodyDecoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf)
	if n <= 0 {
		d.err = errors.New("bad varint")
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *bodyDecoder) bytes() []byte {
	n := d.uvarint()
	if d.err != nil {
		return nil
	}
	if n > uint64(len(d.buf)) {
		d.err = fmt.Errorf("field of %d bytes past end", n)
		return nil
	}
	b := d.buf[:n:n]
	d.buf = d.buf[n:]
	return b
}
