package lexer

import (
	"testing"

	"github.com/emberlang/ember/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKeywordsAndPunctuation(t *testing.T) {
	src := "function main() end"
	toks := Tokenize(src)
	want := []token.Kind{token.FUNCTION, token.IDENT, token.LPAREN, token.RPAREN, token.END, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewlineIsSignificant(t *testing.T) {
	toks := Tokenize("var x\nvar y")
	var newlines int
	for _, tok := range toks {
		if tok.Kind == token.NEWLINE {
			newlines++
		}
	}
	if newlines != 1 {
		t.Fatalf("expected 1 newline token, got %d", newlines)
	}
}

func TestIntegerLiteral(t *testing.T) {
	toks := Tokenize("42")
	if toks[0].Kind != token.INT || toks[0].IntVal != 42 {
		t.Fatalf("unexpected token: %+v", toks[0])
	}
}

func TestFloatLiteral(t *testing.T) {
	toks := Tokenize("3.5")
	if toks[0].Kind != token.FLOAT || toks[0].Lexeme != "3.5" {
		t.Fatalf("unexpected token: %+v", toks[0])
	}
}

func TestStringLiteralWithEscapes(t *testing.T) {
	toks := Tokenize(`"hi\n\"there\""`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("unexpected kind: %v", toks[0].Kind)
	}
	if toks[0].Str != "hi\n\"there\"" {
		t.Fatalf("unexpected decoded string: %q", toks[0].Str)
	}
}

func TestUnterminatedString(t *testing.T) {
	toks := Tokenize(`"oops`)
	if toks[len(toks)-1].Kind != token.ERROR {
		t.Fatalf("expected trailing ERROR token, got %+v", toks[len(toks)-1])
	}
}

func TestComment(t *testing.T) {
	toks := Tokenize("var x # this is ignored\n")
	want := []token.Kind{token.VAR, token.IDENT, token.NEWLINE, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
}

func TestOperators(t *testing.T) {
	toks := Tokenize("+= == <= >= < >")
	want := []token.Kind{token.PLUS_ASSIGN, token.EQ, token.LE, token.GE, token.LT, token.GT, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestUnexpectedCharacter(t *testing.T) {
	toks := Tokenize("@")
	if toks[0].Kind != token.ERROR {
		t.Fatalf("expected ERROR token for '@', got %+v", toks[0])
	}
}

func TestLineNumbersAdvance(t *testing.T) {
	toks := Tokenize("var x\nvar y\nvar z")
	var lines []int
	for _, tok := range toks {
		if tok.Kind == token.VAR {
			lines = append(lines, tok.Line)
		}
	}
	if len(lines) != 3 || lines[0] != 1 || lines[1] != 2 || lines[2] != 3 {
		t.Fatalf("unexpected line numbers: %v", lines)
	}
}
