// Package config holds recall's configuration: file locations for the
// fact store and the journal directory, with env overrides for both.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all recall configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Journal  JournalConfig  `yaml:"journal"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type JournalConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns a Config with sensible defaults: everything lives
// under ~/.recall/.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Config{
		Database: DatabaseConfig{
			Path: filepath.Join(home, ".recall", "facts.db"),
		},
		Journal: JournalConfig{
			Dir: filepath.Join(home, ".recall", "journal"),
		},
	}
}

// DefaultPath is where Load looks when no explicit path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".recall", "config.yaml")
}

// Load reads configuration in layers: defaults, then the YAML file at
// path (a missing file is fine), then the RECALL_DB and RECALL_JOURNAL
// environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if v := os.Getenv("RECALL_DB"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("RECALL_JOURNAL"); v != "" {
		cfg.Journal.Dir = v
	}
	return cfg, nil
}
