package main

import "testing"

func TestRunArithmeticPrecedence(t *testing.T) {
	result, err := run("function main()\nreturn 2 + 3 * 4 + 5 * (6 + 3)\nend\n", "main", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.err)
	}
	if result != 59 {
		t.Fatalf("expected 59, got %d", result)
	}
}

func TestRunComparisonYieldsBoolInt(t *testing.T) {
	result, err := run("function main()\nreturn 2 * 3 > 4\nend\n", "main", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.err)
	}
	if result != 1 {
		t.Fatalf("expected 1, got %d", result)
	}
}

func TestRunFibonacci(t *testing.T) {
	src := `function fib(n)
var a=0
var b=1
while (n>=2)
var c=a+b
a=b
b=c
n=n-1
end
return b
end
function main()
return fib(9)
end
`
	result, err := run(src, "main", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.err)
	}
	if result != 34 {
		t.Fatalf("expected 34, got %d", result)
	}
}

func TestRunIsPrime(t *testing.T) {
	src := `function is_prime(x)
var i=2
while (i<(x/2))
if ((x%i)==0)
return 0
end
i=i+1
end
return 1
end
function main()
return is_prime(9973)
end
`
	result, err := run(src, "main", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.err)
	}
	if result != 1 {
		t.Fatalf("expected is_prime(9973) = 1, got %d", result)
	}
}

func TestRunRecursiveAccumulator(t *testing.T) {
	src := `var g=0
function r(n)
if (not n==0)
g=g+1
return r(n-1)
else
return g
end
end
function main()
return r(15)
end
`
	result, err := run(src, "main", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.err)
	}
	if result != 15 {
		t.Fatalf("expected 15, got %d", result)
	}
}

func TestRunMissingEntryFunction(t *testing.T) {
	_, err := run("function main()\nreturn 0\nend\n", "start", nil)
	if err == nil {
		t.Fatal("expected an error for a missing entry function")
	}
	if err.exitCode != exitCompileError {
		t.Fatalf("expected exitCompileError, got %d", err.exitCode)
	}
}

func TestRunCompileErrorReportsCompileExitCode(t *testing.T) {
	_, err := run("function main()\nreturn missing_var\nend\n", "main", nil)
	if err == nil {
		t.Fatal("expected a semantic error for an unresolved identifier")
	}
	if err.exitCode != exitCompileError {
		t.Fatalf("expected exitCompileError, got %d", err.exitCode)
	}
}

func TestRunBuiltinSyscall(t *testing.T) {
	result, err := run("function main()\nreturn len(\"hello\")\nend\n", "main", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err.err)
	}
	if result != 5 {
		t.Fatalf("expected 5, got %d", result)
	}
}
