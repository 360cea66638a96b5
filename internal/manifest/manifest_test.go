package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "ember.toml"), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[project]\nname = \"demo\"\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source.Entry != defaultEntry {
		t.Fatalf("expected default entry %q, got %q", defaultEntry, m.Source.Entry)
	}
	if m.Run.MaxCycles != defaultMaxCycles {
		t.Fatalf("expected default max cycles, got %d", m.Run.MaxCycles)
	}
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[source]\nentry = \"program.ember\"\n[run]\nmax-cycles = 10\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Source.Entry != "program.ember" {
		t.Fatalf("expected explicit entry, got %q", m.Source.Entry)
	}
	if m.Run.MaxCycles != 10 {
		t.Fatalf("expected explicit max cycles, got %d", m.Run.MaxCycles)
	}
}

func TestFindAndLoadWalksUpward(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"demo\"\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil {
		t.Fatalf("expected to find ember.toml in an ancestor directory")
	}
}

func TestFindAndLoadReturnsNilWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Fatalf("expected nil manifest, got %+v", m)
	}
}
