package parser

import (
	"testing"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	diags := &diag.Manager{}
	prog := ParseProgram(src, diags)
	if diags.Failed() {
		t.Fatalf("unexpected parse error: %v", diags.Err())
	}
	return prog
}

func TestParseGlobalsAndFuncs(t *testing.T) {
	prog := parse(t, "var x\nvar y = 3\nfunction main()\nreturn 0\nend\n")
	if len(prog.Globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(prog.Globals))
	}
	if len(prog.Funcs) != 1 || prog.Funcs[0].Name != "main" {
		t.Fatalf("expected one function named main, got %+v", prog.Funcs)
	}
}

func TestParseArrayDecl(t *testing.T) {
	prog := parse(t, "var xs[10]\nfunction main()\nreturn 0\nend\n")
	if !prog.Globals[0].IsArray() || prog.Globals[0].ArraySize != 10 {
		t.Fatalf("expected array decl of size 10, got %+v", prog.Globals[0])
	}
}

func TestPlusAssignDesugars(t *testing.T) {
	prog := parse(t, "function main()\nvar x = 1\nx += 2\nreturn x\nend\n")
	stmts := prog.Funcs[0].Body
	assign, ok := stmts[1].(*ast.AssignVar)
	if !ok {
		t.Fatalf("expected AssignVar, got %T", stmts[1])
	}
	bin, ok := assign.Value.(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected desugared BinaryExpr, got %T", assign.Value)
	}
	if _, ok := bin.Left.(*ast.Ident); !ok {
		t.Fatalf("expected left operand to be Ident, got %T", bin.Left)
	}
}

func TestNotBindsBelowComparison(t *testing.T) {
	// `not a == b` should parse as `not (a == b)`, not `(not a) == b`.
	prog := parse(t, "function main()\nif (not x == 1)\nreturn 1\nend\nreturn 0\nend\n")
	ifs := prog.Funcs[0].Body[0].(*ast.IfStmt)
	un, ok := ifs.Cond.(*ast.UnaryExpr)
	if !ok {
		t.Fatalf("expected top-level UnaryExpr, got %T", ifs.Cond)
	}
	if _, ok := un.Operand.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected BinaryExpr operand of not, got %T", un.Operand)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	// `1 + 2 * 3` should parse as `1 + (2 * 3)`.
	prog := parse(t, "function main()\nreturn 1 + 2 * 3\nend\n")
	ret := prog.Funcs[0].Body[0].(*ast.ReturnStmt)
	bin := ret.Value.(*ast.BinaryExpr)
	if _, ok := bin.Right.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected right operand to be the multiplication, got %T", bin.Right)
	}
}

func TestIfElse(t *testing.T) {
	prog := parse(t, "function main()\nif (1)\nreturn 1\nelse\nreturn 2\nend\nend\n")
	ifs := prog.Funcs[0].Body[0].(*ast.IfStmt)
	if len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Fatalf("expected one statement in each branch, got %+v", ifs)
	}
}

func TestWhileLoop(t *testing.T) {
	prog := parse(t, "function main()\nwhile (1)\nreturn 0\nend\nreturn 1\nend\n")
	if _, ok := prog.Funcs[0].Body[0].(*ast.WhileStmt); !ok {
		t.Fatalf("expected WhileStmt, got %T", prog.Funcs[0].Body[0])
	}
}

func TestCallStatementAndArgs(t *testing.T) {
	prog := parse(t, "function helper(a, b)\nreturn a\nend\nfunction main()\nhelper(1, 2)\nreturn 0\nend\n")
	call, ok := prog.Funcs[1].Body[0].(*ast.CallStmt)
	if !ok {
		t.Fatalf("expected CallStmt, got %T", prog.Funcs[1].Body[0])
	}
	if len(call.Call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Call.Args))
	}
}

func TestArrayIndexAssign(t *testing.T) {
	prog := parse(t, "function main()\nvar xs[3]\nxs[0] = 5\nreturn 0\nend\n")
	_, ok := prog.Funcs[0].Body[1].(*ast.AssignIndex)
	if !ok {
		t.Fatalf("expected AssignIndex, got %T", prog.Funcs[0].Body[1])
	}
}

func TestSyntaxErrorRecorded(t *testing.T) {
	diags := &diag.Manager{}
	ParseProgram("function main(\nend\n", diags)
	if !diags.Failed() {
		t.Fatalf("expected a parse error")
	}
}
