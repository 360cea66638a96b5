// Package langserver implements an LSP server over the Ember toolchain,
// following server/lsp.go's glsp.Handler wiring and worker/document-store
// shape, cut down to the one feature the distilled toolchain actually
// supports: publishing diagnostics from the compile pipeline on
// didOpen/didChange. There is no running VM instance to serialize access
// to here (compiling is stateless and cheap), so this drops lsp.go's
// VMWorker indirection rather than carry it forward unused.
package langserver

import (
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/sema"
)

const name = "ember-lsp"

// Server bridges LSP editor requests to Ember's compile pipeline.
type Server struct {
	mu   sync.Mutex
	docs map[string]string

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates a Server ready to Run.
func New() *Server {
	s := &Server{docs: make(map[string]string), version: "0.1.0"}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,
	}
	s.server = glspserver.NewServer(&s.handler, name, false)
	return s
}

// Run starts the server on stdio, blocking until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "ember-lsp initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo:   &protocol.InitializeResultServerInfo{Name: name, Version: &s.version},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error { return nil }
func (s *Server) shutdown(ctx *glsp.Context) error                                        { return nil }
func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error        { return nil }

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// publishDiagnostics runs the parse+sema pipeline over text and reports
// the first error, if any, at its recorded source line.
func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	var diagnostics []protocol.Diagnostic
	if compileErr := compile(text); compileErr != nil {
		severity := protocol.DiagnosticSeverityError
		source := name
		line := compileErr.Line
		if line > 0 {
			line--
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: 0},
				End:   protocol.Position{Line: uint32(line), Character: 1 << 10},
			},
			Severity: &severity,
			Source:   &source,
			Message:  compileErr.Msg,
		})
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func compile(text string) *diag.Error {
	diags := &diag.Manager{}
	prog := parser.ParseProgram(text, diags)
	if diags.Failed() {
		return diags.Err()
	}
	sema.Analyze(prog, diags, nil)
	if diags.Failed() {
		return diags.Err()
	}
	return nil
}

// extractWord is kept for a future hover/definition feature; unused
// today but small enough not to warrant deleting ahead of need.
func extractWord(text string, line, col int) string {
	lines := strings.Split(text, "\n")
	if line >= len(lines) {
		return ""
	}
	l := lines[line]
	if col > len(l) {
		col = len(l)
	}
	start, end := col, col
	isWord := func(r rune) bool { return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') }
	for start > 0 && isWord(rune(l[start-1])) {
		start--
	}
	for end < len(l) && isWord(rune(l[end])) {
		end++
	}
	return l[start:end]
}

func boolPtr(b bool) *bool { return &b }
