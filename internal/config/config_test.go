package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Addr != ":8007" || c.LogLevel != "info" || c.Workers != runtime.NumCPU() || c.MaxResults != 1000 {
		t.Fatalf("defaults = %+v", c)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamesearch.yaml")
	data := "addr: \":9000\"\ncorpus_path: /data/corpus.gsnp\ningest_dir: /data/incoming\nrating_min: 2200\nworkers: 3\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Addr != ":9000" || c.CorpusPath != "/data/corpus.gsnp" || c.IngestDir != "/data/incoming" || c.RatingMin != 2200 || c.Workers != 3 {
		t.Fatalf("loaded = %+v", c)
	}
	if c.LogLevel != "info" {
		t.Fatalf("unset log level not defaulted: %q", c.LogLevel)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	want := Default()
	want.PGNDir = "/pgn"
	want.MaxGames = 500
	want.IngestDir = "/incoming"
	if err := Write(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("missing file: want error")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("workers: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("bad yaml: want error")
	}
}
