// Package manifest handles ember.toml project configuration, following
// manifest/manifest.go's toml-backed Load/FindAndLoad shape, trimmed down
// from maggie's multi-package dependency graph to the single-entry-file
// layout spec.md's toolchain actually needs.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest is the parsed contents of an ember.toml file.
type Manifest struct {
	Project Project     `toml:"project"`
	Source  Source      `toml:"source"`
	Run     RunConfig   `toml:"run"`

	// Dir is the directory containing ember.toml, set at load time.
	Dir string `toml:"-"`
}

// Project carries project metadata, unused by the toolchain itself but
// surfaced by `ember-lsp` and any future packaging command.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where the entry file lives.
type Source struct {
	Entry string `toml:"entry"`
}

// RunConfig configures execution limits for `ember run`.
type RunConfig struct {
	MaxCycles  int `toml:"max-cycles"`
	HeapLimit  int `toml:"heap-limit"`
}

// defaultEntry is used when Source.Entry is left unset.
const defaultEntry = "main.ember"

// defaultMaxCycles and defaultHeapLimit bound a run when ember.toml
// doesn't specify one, cheap insurance against an accidentally infinite
// while loop hanging the CLI forever.
const (
	defaultMaxCycles = 50_000_000
	defaultHeapLimit = 1 << 16
)

// Load parses an ember.toml file from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "ember.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Source.Entry == "" {
		m.Source.Entry = defaultEntry
	}
	if m.Run.MaxCycles == 0 {
		m.Run.MaxCycles = defaultMaxCycles
	}
	if m.Run.HeapLimit == 0 {
		m.Run.HeapLimit = defaultHeapLimit
	}

	return &m, nil
}

// FindAndLoad walks up from startDir looking for ember.toml, returning nil
// (not an error) if none is found — running a single .ember file directly
// is the common case and shouldn't require a manifest.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, "ember.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path to the configured entry file.
func (m *Manifest) EntryPath() string {
	return filepath.Join(m.Dir, m.Source.Entry)
}
