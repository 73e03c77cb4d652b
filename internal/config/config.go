// Package config loads the server configuration from an optional YAML file.
// Command-line flags override whatever the file sets.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Addr       string `yaml:"addr"`
	CorpusPath string `yaml:"corpus_path"` // snapshot written by the ingest command
	PGNDir     string `yaml:"pgn_dir"`     // PGN files loaded at startup
	IngestDir  string `yaml:"ingest_dir"`  // watched for new PGN files; empty disables
	RatingMin  int    `yaml:"rating_min"`
	MaxGames   int    `yaml:"max_games"` // 0 = no limit
	Workers    int    `yaml:"workers"`
	LogLevel   string `yaml:"log_level"`
	// MaxResults caps the game IDs returned by one search request.
	MaxResults int `yaml:"max_results"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var c Config
	c.withDefaults()
	return c
}

func (c *Config) withDefaults() {
	if c.Addr == "" {
		c.Addr = ":8007"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 1000
	}
}

// Load reads path and fills unset fields with defaults. An empty path
// yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	c.withDefaults()
	return c, nil
}

// Write saves c to path as YAML.
func Write(path string, c Config) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
