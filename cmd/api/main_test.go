package main

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/chessgraph/gamesearch/internal/config"
)

func TestLoadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gamesearch.yaml")
	data := "addr: \":9000\"\ningest_dir: /data/incoming\nrating_min: 2200\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		args  []string
		check func(c config.Config) bool
	}{
		{"defaults", nil, func(c config.Config) bool {
			return c.Addr == ":8007" && c.IngestDir == "" && c.MaxResults == 1000
		}},
		{"file", []string{"-config", path}, func(c config.Config) bool {
			return c.Addr == ":9000" && c.IngestDir == "/data/incoming" && c.RatingMin == 2200
		}},
		{"flags override file", []string{"-config", path, "-ingest-dir", "/tmp/watch", "-rating-min", "1800"}, func(c config.Config) bool {
			return c.Addr == ":9000" && c.IngestDir == "/tmp/watch" && c.RatingMin == 1800
		}},
		{"flags without file", []string{"-ingest-dir", "/tmp/watch", "-workers", "2"}, func(c config.Config) bool {
			return c.IngestDir == "/tmp/watch" && c.Workers == 2
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GAMESEARCH_CONFIG", "")
			c, err := loadSettings(flag.NewFlagSet("api", flag.ContinueOnError), tt.args)
			if err != nil {
				t.Fatalf("loadSettings: %v", err)
			}
			if !tt.check(c) {
				t.Fatalf("config = %+v", c)
			}
		})
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	t.Setenv("GAMESEARCH_CONFIG", "")
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if _, err := loadSettings(fs, []string{"-workers", "many"}); err == nil {
		t.Fatal("bad flag: want error")
	}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadSettings(flag.NewFlagSet("api", flag.ContinueOnError), []string{"-config", missing}); err == nil {
		t.Fatal("missing config: want error")
	}
}
