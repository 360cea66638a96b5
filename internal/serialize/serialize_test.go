package serialize

import (
	"testing"

	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/sema"
)

func TestRoundTrip(t *testing.T) {
	diags := &diag.Manager{}
	prog := parser.ParseProgram("var g = 5\nfunction main()\nreturn g + 1\nend\n", diags)
	sema.Analyze(prog, diags, nil)
	img := codegen.Generate(prog, diags)
	if diags.Failed() {
		t.Fatalf("unexpected error: %v", diags.Err())
	}

	data, err := Marshal(img)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}

	if len(got.Code) != len(img.Code) {
		t.Fatalf("code length mismatch: got %d want %d", len(got.Code), len(img.Code))
	}
	if got.MainFunc != img.MainFunc {
		t.Fatalf("MainFunc mismatch: got %d want %d", got.MainFunc, img.MainFunc)
	}
	if len(got.Globals) != 1 || got.Globals[0].Name != "g" {
		t.Fatalf("unexpected globals: %+v", got.Globals)
	}
	for offset, line := range img.Lines {
		if got.Lines[offset] != line {
			t.Fatalf("line map mismatch at offset %d: got %d want %d", offset, got.Lines[offset], line)
		}
	}
}
