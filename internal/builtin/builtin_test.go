package builtin

import (
	"testing"

	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gc"
)

func findEntry(t *testing.T, name string) Entry {
	t.Helper()
	for _, e := range All() {
		if e.Name == name {
			return e
		}
	}
	t.Fatalf("no builtin named %q", name)
	return Entry{}
}

func TestRandRespectsBound(t *testing.T) {
	rand := findEntry(t, "rand")
	result, err := rand.Fn(nil, []gc.Value{gc.Int(10)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Int < 0 || result.Int >= 10 {
		t.Fatalf("expected result in [0, 10), got %d", result.Int)
	}
}

func TestRandRejectsNonPositiveBound(t *testing.T) {
	rand := findEntry(t, "rand")
	_, err := rand.Fn(nil, []gc.Value{gc.Int(0)})
	if err == nil || err.Kind != diag.BadNumArgs {
		t.Fatalf("expected BadNumArgs, got %v", err)
	}
}

func TestLenRejectsWrongArgCount(t *testing.T) {
	length := findEntry(t, "len")
	_, err := length.Fn(nil, nil)
	if err == nil || err.Kind != diag.BadNumArgs {
		t.Fatalf("expected BadNumArgs, got %v", err)
	}
}

func TestLenRejectsScalarArgument(t *testing.T) {
	length := findEntry(t, "len")
	_, err := length.Fn(nil, []gc.Value{gc.Int(5)})
	if err == nil || err.Kind != diag.BadTypeOperation {
		t.Fatalf("expected BadTypeOperation, got %v", err)
	}
}
