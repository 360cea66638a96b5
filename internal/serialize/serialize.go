// Package serialize round-trips an image.Program to a compact binary form,
// following vm/dist/wire.go's canonical-CBOR marshal/unmarshal pattern so
// a compiled program can be cached to disk and loaded again without
// recompiling — the "program image" spec.md's toolchain naming implies
// but the distilled spec left as an in-memory-only artifact.
package serialize

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/emberlang/ember/internal/image"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("serialize: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// wireProgram mirrors image.Program's exported fields; Lines uses a
// slice-of-pairs form because CBOR map keys must be strings or a fixed
// scalar type friendlier than Go's map[int]int for interop with the LSP
// client's TypeScript decoder.
type wireProgram struct {
	Code     []byte
	Strings  []string
	Funcs    []image.FuncInfo
	Globals  []image.GlobalInfo
	MainFunc int
	Lines    []lineEntry
}

type lineEntry struct {
	Offset int
	Line   int
}

// Marshal serializes prog to canonical CBOR bytes.
func Marshal(prog *image.Program) ([]byte, error) {
	w := wireProgram{
		Code: prog.Code, Strings: prog.Strings, Funcs: prog.Funcs,
		Globals: prog.Globals, MainFunc: prog.MainFunc,
	}
	for offset, line := range prog.Lines {
		w.Lines = append(w.Lines, lineEntry{Offset: offset, Line: line})
	}
	data, err := encMode.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("serialize: marshal program: %w", err)
	}
	return data, nil
}

// Unmarshal deserializes a program image produced by Marshal.
func Unmarshal(data []byte) (*image.Program, error) {
	var w wireProgram
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("serialize: unmarshal program: %w", err)
	}
	prog := &image.Program{
		Code: w.Code, Strings: w.Strings, Funcs: w.Funcs,
		Globals: w.Globals, MainFunc: w.MainFunc,
		Lines: make(map[int]int, len(w.Lines)),
	}
	for _, e := range w.Lines {
		prog.Lines[e.Offset] = e.Line
	}
	return prog, nil
}
