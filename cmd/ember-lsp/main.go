// Command ember-lsp is a Language Server Protocol server for Ember,
// providing live diagnostics as a document is edited.
package main

import (
	"fmt"
	"os"

	"github.com/emberlang/ember/internal/langserver"
)

func main() {
	if err := langserver.New().Run(); err != nil {
		fmt.Fprintln(os.Stderr, "ember-lsp:", err)
		os.Exit(1)
	}
}
