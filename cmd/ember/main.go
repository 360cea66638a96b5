// Command ember is the CLI driver for the toolchain: it loads a source
// file, registers the builtin syscalls, builds the program, and runs its
// entry function to completion, per spec.md §6's CLI driver contract.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/emberlang/ember/internal/builtin"
	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gc"
	"github.com/emberlang/ember/internal/manifest"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/sema"
	"github.com/emberlang/ember/internal/vm"
)

const (
	exitOK           = 0
	exitCompileError = 1
	exitRuntimeError = 2
	exitUsageError   = 3
)

func main() {
	entryPoint := flag.String("m", "main", "entry function to run")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ember [options] <source-file>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(exitUsageError)
	}
	path := flag.Arg(0)

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		os.Exit(exitUsageError)
	}

	m, err := manifest.FindAndLoad(filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		os.Exit(exitUsageError)
	}

	result, runErr := run(string(source), *entryPoint, m)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr.err)
		os.Exit(runErr.exitCode)
	}

	fmt.Printf("exit: %d\n", result)
	os.Exit(exitOK)
}

// runError pairs a failure with the exit code the CLI contract requires for
// it (distinct codes for a build-time vs. a run-time failure).
type runError struct {
	exitCode int
	err      error
}

// run builds source and executes entryPoint to completion, returning its
// integer result. m may be nil, meaning no ember.toml was found; defaults
// from internal/manifest apply in that case exactly as if an empty manifest
// had been loaded.
func run(source, entryPoint string, m *manifest.Manifest) (int32, *runError) {
	maxCycles, heapLimit := 50_000_000, 1<<16
	if m != nil {
		maxCycles, heapLimit = m.Run.MaxCycles, m.Run.HeapLimit
	}

	entries := builtin.All()
	specs := make([]sema.SyscallSpec, len(entries))
	fns := make([]vm.Syscall, len(entries))
	for i, e := range entries {
		specs[i] = sema.SyscallSpec{Name: e.Name, Arity: e.Arity}
		fns[i] = e.Fn
	}

	diags := &diag.Manager{}
	prog := parser.ParseProgram(source, diags)
	if !diags.Failed() {
		sema.Analyze(prog, diags, specs)
	}
	if diags.Failed() {
		return 0, &runError{exitCompileError, diags.Err()}
	}

	built := codegen.Generate(prog, diags)
	if diags.Failed() {
		return 0, &runError{exitCompileError, diags.Err()}
	}

	funcIndex := -1
	for i, fn := range built.Funcs {
		if fn.Name == entryPoint && !fn.IsSyscall {
			funcIndex = i
		}
	}
	if funcIndex < 0 {
		return 0, &runError{exitCompileError, fmt.Errorf("entry function %q not found", entryPoint)}
	}

	heap := gc.NewHeap(heapLimit)
	th := vm.NewThread(built, heap, fns)

	th.Start(0) // @init
	for th.Resume(maxCycles) {
	}
	if th.Err() != nil {
		return 0, &runError{exitRuntimeError, th.Err()}
	}

	th.Start(funcIndex)
	for th.Resume(maxCycles) {
	}
	if th.Err() != nil {
		return 0, &runError{exitRuntimeError, th.Err()}
	}

	return th.Result.Int, nil
}
