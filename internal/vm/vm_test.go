package vm

import (
	"testing"

	"github.com/emberlang/ember/internal/codegen"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gc"
	"github.com/emberlang/ember/internal/parser"
	"github.com/emberlang/ember/internal/sema"
)

func run(t *testing.T, src string) (gc.Value, *Thread) {
	t.Helper()
	diags := &diag.Manager{}
	prog := parser.ParseProgram(src, diags)
	if diags.Failed() {
		t.Fatalf("parse error: %v", diags.Err())
	}
	sema.Analyze(prog, diags, nil)
	if diags.Failed() {
		t.Fatalf("sema error: %v", diags.Err())
	}
	img := codegen.Generate(prog, diags)
	if diags.Failed() {
		t.Fatalf("codegen error: %v", diags.Err())
	}

	heap := gc.NewHeap(1024)
	th := NewThread(img, heap, nil)
	th.Start(0) // @init
	for th.Resume(10000) {
	}
	if th.Err() != nil {
		t.Fatalf("unexpected runtime error during @init: %v", th.Err())
	}
	th.Start(img.MainFunc)
	for th.Resume(100000) {
	}
	if th.Err() != nil {
		t.Fatalf("unexpected runtime error: %v", th.Err())
	}
	return th.Result, th
}

func TestReturnsIntegerLiteral(t *testing.T) {
	result, _ := run(t, "function main()\nreturn 42\nend\n")
	if result.Tag != gc.TagInt || result.Int != 42 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestArithmeticPrecedence(t *testing.T) {
	result, _ := run(t, "function main()\nreturn 1 + 2 * 3\nend\n")
	if result.Int != 7 {
		t.Fatalf("expected 7, got %d", result.Int)
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	src := "function main()\nvar sum = 0\nvar i = 0\nwhile (i < 5)\nsum = sum + i\ni = i + 1\nend\nreturn sum\nend\n"
	result, _ := run(t, src)
	if result.Int != 10 {
		t.Fatalf("expected 10, got %d", result.Int)
	}
}

func TestIfElseBranches(t *testing.T) {
	result, _ := run(t, "function main()\nif (0)\nreturn 1\nelse\nreturn 2\nend\nend\n")
	if result.Int != 2 {
		t.Fatalf("expected else branch taken, got %d", result.Int)
	}
}

func TestRecursiveFibonacci(t *testing.T) {
	src := `function fib(n)
if (n < 2)
return n
end
return fib(n - 1) + fib(n - 2)
end
function main()
return fib(10)
end
`
	result, _ := run(t, src)
	if result.Int != 55 {
		t.Fatalf("expected fib(10) = 55, got %d", result.Int)
	}
}

func TestArrayReadWrite(t *testing.T) {
	src := "function main()\nvar xs[3]\nxs[0] = 10\nxs[1] = 20\nreturn xs[0] + xs[1]\nend\n"
	result, _ := run(t, src)
	if result.Int != 30 {
		t.Fatalf("expected 30, got %d", result.Int)
	}
}

func TestGlobalConstantInitializer(t *testing.T) {
	src := "var limit = 100\nfunction main()\nreturn limit\nend\n"
	result, _ := run(t, src)
	if result.Int != 100 {
		t.Fatalf("expected 100, got %d", result.Int)
	}
}

func TestStringConcatenation(t *testing.T) {
	src := `function main()
var s = "a" + "b"
return s
end
`
	result, th := run(t, src)
	if result.Tag != gc.TagString || th.Heap.String(result) != "ab" {
		t.Fatalf("expected concatenated string, got %+v", result)
	}
}

func TestSyscallInvokesRegisteredFunction(t *testing.T) {
	diags := &diag.Manager{}
	prog := parser.ParseProgram("function main()\nreturn double(21)\nend\n", diags)
	if diags.Failed() {
		t.Fatalf("parse error: %v", diags.Err())
	}
	sema.Analyze(prog, diags, []sema.SyscallSpec{{Name: "double", Arity: 1}})
	if diags.Failed() {
		t.Fatalf("sema error: %v", diags.Err())
	}
	img := codegen.Generate(prog, diags)
	if diags.Failed() {
		t.Fatalf("codegen error: %v", diags.Err())
	}

	double := func(t *Thread, args []gc.Value) (gc.Value, *diag.Error) {
		return gc.Int(args[0].Int * 2), nil
	}

	heap := gc.NewHeap(1024)
	th := NewThread(img, heap, []Syscall{double})
	th.Start(0)
	for th.Resume(1000) {
	}
	if th.Err() != nil {
		t.Fatalf("unexpected error during @init: %v", th.Err())
	}
	th.Start(img.MainFunc)
	for th.Resume(1000) {
	}
	if th.Err() != nil {
		t.Fatalf("unexpected runtime error: %v", th.Err())
	}
	if th.Result.Int != 42 {
		t.Fatalf("expected 42, got %d", th.Result.Int)
	}
}

func TestDivideByZeroIsRuntimeError(t *testing.T) {
	diags := &diag.Manager{}
	prog := parser.ParseProgram("function main()\nvar z = 0\nreturn 1 / z\nend\n", diags)
	sema.Analyze(prog, diags, nil)
	img := codegen.Generate(prog, diags)
	heap := gc.NewHeap(1024)
	th := NewThread(img, heap, nil)
	th.Start(0)
	for th.Resume(1000) {
	}
	th.Start(img.MainFunc)
	for th.Resume(1000) {
	}
	if th.Err() == nil || th.Err().Kind != diag.BadDivideByZero {
		t.Fatalf("expected BadDivideByZero, got %v", th.Err())
	}
}
