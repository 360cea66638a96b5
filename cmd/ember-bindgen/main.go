// Command ember-bindgen introspects a Go package and writes a generated
// RegisterSyscalls wrapper exposing its scalar-signature exported functions
// as Ember syscalls, so embedders can bind a Go library without hand-writing
// gc.Value conversion glue for every function.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/emberlang/ember/internal/bind"
)

func main() {
	pkg := flag.String("pkg", "bindings", "package name for the generated file")
	out := flag.String("out", "", "output file path (default: stdout)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ember-bindgen [-pkg name] [-out file] <go-import-path>")
		os.Exit(1)
	}
	importPath := flag.Arg(0)

	bindings, err := bind.Discover(importPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember-bindgen: %v\n", err)
		os.Exit(1)
	}
	if len(bindings) == 0 {
		fmt.Fprintf(os.Stderr, "ember-bindgen: no bindable functions found in %s\n", importPath)
		os.Exit(1)
	}

	src := bind.Generate(*pkg, importPath, bindings)

	if *out == "" {
		fmt.Print(src)
		return
	}
	if err := os.WriteFile(*out, []byte(src), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "ember-bindgen: writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "wrote %d bindings to %s\n", len(bindings), *out)
}
