// Package sema resolves names and checks an ast.Program for the semantic
// errors spec.md §4.5 and §7 enumerate, following chazu-maggie's
// compiler/semantic.go SemanticAnalyzer: a scope-stack-of-maps analyzer
// that walks the tree recording errorAt-style diagnostics, generalized
// here from Smalltalk method/block scoping to plain block scoping.
//
// Analyze runs six passes in order, bailing out early if diags already
// carries an error (later passes assume earlier ones left the tree sane):
//  1. fold global initializers (must be constant expressions, spec.md §4.5)
//  2. annotate: resolve every Ident/IndexExpr/CallExpr/AssignVar/AssignIndex
//     to its declaring node, and check arity
//  3. duplicate declarations (vars, functions)
//  4. array size (> 1 required)
//  5. type-shape checks (array used without subscript, scalar used with one)
//  6. synthesize the implicit `@init` function
package sema

import (
	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/token"
)

// scope is one lexical block: a fresh map per if/while/function body, per
// the block-scoping decision recorded for this analyzer (see DESIGN.md).
type scope struct {
	vars   map[string]*ast.VarDecl
	parent *scope
}

func newScope(parent *scope) *scope {
	return &scope{vars: make(map[string]*ast.VarDecl), parent: parent}
}

func (s *scope) declare(decl *ast.VarDecl) bool {
	if _, exists := s.vars[decl.Name]; exists {
		return false
	}
	s.vars[decl.Name] = decl
	return true
}

func (s *scope) lookup(name string) *ast.VarDecl {
	for cur := s; cur != nil; cur = cur.parent {
		if decl, ok := cur.vars[name]; ok {
			return decl
		}
	}
	return nil
}

// SyscallSpec names one embedder-registered syscall and the argument count
// scripts must call it with. The CLI driver derives these from whatever
// builtin/bind packages it links in before compiling a source file (spec.md
// §4.7: "embedder registers syscalls by name before build").
type SyscallSpec struct {
	Name  string
	Arity int
}

// Analyzer holds the whole-program context needed while walking functions:
// the global scope and the function table for call resolution.
type Analyzer struct {
	diags   *diag.Manager
	globals *scope
	funcs   map[string]*ast.FuncDecl
}

// Analyze runs the full pass pipeline over prog, mutating it in place
// (filling Decl pointers and appending the synthesized @init function).
// syscalls are registered into the function namespace ahead of the user's
// own declarations, so a call to a syscall resolves exactly like a call to
// a user function except that call.Decl.IsSyscall ends up true. Errors are
// reported through diags; callers should stop after the first failing
// phase rather than trust a partially annotated tree.
func Analyze(prog *ast.Program, diags *diag.Manager, syscalls []SyscallSpec) {
	a := &Analyzer{diags: diags, globals: newScope(nil), funcs: make(map[string]*ast.FuncDecl)}

	a.declareGlobals(prog)
	if diags.Failed() {
		return
	}
	a.declareSyscalls(syscalls)
	if diags.Failed() {
		return
	}
	a.declareFuncs(prog)
	if diags.Failed() {
		return
	}
	a.checkArraySizes(prog)
	if diags.Failed() {
		return
	}
	for _, fn := range prog.Funcs {
		a.analyzeFunc(fn)
		if diags.Failed() {
			return
		}
	}
	a.synthesizeInit(prog)
}

// declareGlobals is passes 1 and 3 for globals: fold the constant
// initializer and reject duplicate names.
func (a *Analyzer) declareGlobals(prog *ast.Program) {
	for _, g := range prog.Globals {
		g.Kind = ast.KindGlobal
		if !a.globals.declare(g) {
			a.diags.Report(diag.VarAlreadyExists, g.Pos().Line, "global %q already declared", g.Name)
			return
		}
		if g.Init != nil && !isConstExpr(g.Init) {
			a.diags.Report(diag.GlobalVarConstExpr, g.Init.Pos().Line, "global %q initializer must be a constant expression", g.Name)
			return
		}
		if g.Init != nil {
			a.checkConstDivideByZero(g.Init)
			if a.diags.Failed() {
				return
			}
		}
	}
}

// checkConstDivideByZero walks a constant expression looking for a literal
// zero divisor, the same check analyzeExpr applies to a BinaryExpr inside a
// function body (spec.md §4.5 pass 1: reject this in a global initializer
// at build time rather than letting it fault the VM at @init time).
func (a *Analyzer) checkConstDivideByZero(e ast.Expr) {
	switch n := e.(type) {
	case *ast.UnaryExpr:
		a.checkConstDivideByZero(n.Operand)
	case *ast.BinaryExpr:
		a.checkConstDivideByZero(n.Left)
		if a.diags.Failed() {
			return
		}
		if n.Op == token.SLASH || n.Op == token.PERCENT {
			if lit, ok := n.Right.(*ast.IntLit); ok && lit.Value == 0 {
				a.diags.Report(diag.ConstantDivideByZero, n.Pos().Line, "division by constant zero")
				return
			}
		}
		a.checkConstDivideByZero(n.Right)
	}
}

// isConstExpr reports whether e can be evaluated without any runtime
// state: literals and arithmetic/logical combinations of literals.
func isConstExpr(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.NoneLit:
		return true
	case *ast.UnaryExpr:
		return isConstExpr(n.Operand)
	case *ast.BinaryExpr:
		return isConstExpr(n.Left) && isConstExpr(n.Right)
	default:
		return false
	}
}

// declareSyscalls registers each embedder-provided syscall as a synthetic,
// bodyless FuncDecl so ordinary call resolution (analyzeCall) finds it the
// same way it finds a user function. A script may not redeclare a syscall
// name as its own function; declareFuncs catches that as a duplicate.
func (a *Analyzer) declareSyscalls(syscalls []SyscallSpec) {
	for i, sc := range syscalls {
		fn := &ast.FuncDecl{PosVal: ast.Pos{Line: 0}, Name: sc.Name, IsSyscall: true, SyscallIndex: i}
		fn.Params = make([]*ast.VarDecl, sc.Arity)
		for j := range fn.Params {
			fn.Params[j] = &ast.VarDecl{PosVal: fn.PosVal, Name: sc.Name, Kind: ast.KindArg, Slot: j}
		}
		a.funcs[sc.Name] = fn
	}
}

func (a *Analyzer) declareFuncs(prog *ast.Program) {
	for _, fn := range prog.Funcs {
		if _, exists := a.funcs[fn.Name]; exists {
			a.diags.Report(diag.FunctionAlreadyExists, fn.Pos().Line, "function %q already declared", fn.Name)
			return
		}
		a.funcs[fn.Name] = fn
	}
}

// checkArraySizes enforces spec.md's "array size must be greater than 1"
// rule for every global and, via analyzeFunc, local array declaration.
func (a *Analyzer) checkArraySizes(prog *ast.Program) {
	for _, g := range prog.Globals {
		if g.IsArray() && g.ArraySize <= 1 {
			a.diags.Report(diag.ArraySizeMustBeGreaterThan, g.Pos().Line, "array %q size must be greater than 1", g.Name)
			return
		}
	}
}

func (a *Analyzer) analyzeFunc(fn *ast.FuncDecl) {
	local := newScope(a.globals)
	for i, p := range fn.Params {
		p.Kind = ast.KindArg
		p.Slot = i
		if !local.declare(p) {
			a.diags.Report(diag.VarAlreadyExists, p.Pos().Line, "parameter %q already declared", p.Name)
			return
		}
	}
	a.analyzeBlock(fn.Body, local)
}

func (a *Analyzer) analyzeBlock(stmts []ast.Stmt, parent *scope) {
	local := newScope(parent)
	for _, stmt := range stmts {
		a.analyzeStmt(stmt, local)
		if a.diags.Failed() {
			return
		}
	}
}

func (a *Analyzer) analyzeStmt(stmt ast.Stmt, sc *scope) {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		n.Kind = ast.KindLocal
		if n.IsArray() && n.ArraySize <= 1 {
			a.diags.Report(diag.ArraySizeMustBeGreaterThan, n.Pos().Line, "array %q size must be greater than 1", n.Name)
			return
		}
		if n.Init != nil {
			a.analyzeExpr(n.Init, sc)
		}
		if !sc.declare(n) {
			a.diags.Report(diag.VarAlreadyExists, n.Pos().Line, "variable %q already declared in this scope", n.Name)
		}

	case *ast.AssignVar:
		decl := sc.lookup(n.Name)
		if decl == nil {
			a.diags.Report(diag.UnknownVariable, n.Pos().Line, "unknown variable %q", n.Name)
			return
		}
		if decl.IsArray() {
			a.diags.Report(diag.IdentIsArrayNotVar, n.Pos().Line, "%q is an array, not a scalar variable", n.Name)
			return
		}
		n.Decl = decl
		a.analyzeExpr(n.Value, sc)

	case *ast.AssignIndex:
		decl := sc.lookup(n.Name)
		if decl == nil {
			a.diags.Report(diag.UnknownArray, n.Pos().Line, "unknown array %q", n.Name)
			return
		}
		if !decl.IsArray() {
			a.diags.Report(diag.VariableIsNotArray, n.Pos().Line, "%q is not an array", n.Name)
			return
		}
		n.Decl = decl
		a.analyzeExpr(n.Index, sc)
		a.analyzeExpr(n.Value, sc)

	case *ast.IfStmt:
		a.analyzeExpr(n.Cond, sc)
		if a.diags.Failed() {
			return
		}
		a.analyzeBlock(n.Then, sc)
		if a.diags.Failed() {
			return
		}
		if n.Else != nil {
			a.analyzeBlock(n.Else, sc)
		}

	case *ast.WhileStmt:
		a.analyzeExpr(n.Cond, sc)
		if a.diags.Failed() {
			return
		}
		a.analyzeBlock(n.Body, sc)

	case *ast.ReturnStmt:
		if n.Value != nil {
			a.analyzeExpr(n.Value, sc)
		}

	case *ast.CallStmt:
		a.analyzeCall(n.Call, sc)
	}
}

func (a *Analyzer) analyzeExpr(e ast.Expr, sc *scope) {
	switch n := e.(type) {
	case *ast.IntLit, *ast.FloatLit, *ast.StringLit, *ast.NoneLit:
		// Nothing to resolve.

	case *ast.Ident:
		decl := sc.lookup(n.Name)
		if decl == nil {
			a.diags.Report(diag.UnknownIdentifier, n.Pos().Line, "unknown identifier %q", n.Name)
			return
		}
		if decl.IsArray() {
			a.diags.Report(diag.ArrayRequiresSubscript, n.Pos().Line, "%q is an array; use a subscript", n.Name)
			return
		}
		n.Decl = decl

	case *ast.IndexExpr:
		decl := sc.lookup(n.Name)
		if decl == nil {
			a.diags.Report(diag.UnknownArray, n.Pos().Line, "unknown array %q", n.Name)
			return
		}
		if !decl.IsArray() {
			a.diags.Report(diag.VariableIsNotArray, n.Pos().Line, "%q is not an array", n.Name)
			return
		}
		n.Decl = decl
		a.analyzeExpr(n.Index, sc)

	case *ast.CallExpr:
		a.analyzeCall(n, sc)

	case *ast.BinaryExpr:
		a.analyzeExpr(n.Left, sc)
		if a.diags.Failed() {
			return
		}
		if n.Op == token.SLASH || n.Op == token.PERCENT {
			if lit, ok := n.Right.(*ast.IntLit); ok && lit.Value == 0 {
				a.diags.Report(diag.ConstantDivideByZero, n.Pos().Line, "division by constant zero")
				return
			}
		}
		a.analyzeExpr(n.Right, sc)

	case *ast.UnaryExpr:
		a.analyzeExpr(n.Operand, sc)
	}
}

func (a *Analyzer) analyzeCall(call *ast.CallExpr, sc *scope) {
	fn, ok := a.funcs[call.Callee]
	if !ok {
		a.diags.Report(diag.UnknownFunction, call.Pos().Line, "unknown function %q", call.Callee)
		return
	}
	call.Decl = fn
	// Syscall arity is validated dynamically at the VM boundary (spec.md
	// §4.5): a script may call a syscall with any argument count and the
	// mismatch surfaces as a BadNumArgs runtime error, not a build error.
	if !fn.IsSyscall {
		if len(call.Args) > len(fn.Params) {
			a.diags.Report(diag.TooManyArgs, call.Pos().Line, "too many arguments to %q: want %d, got %d", call.Callee, len(fn.Params), len(call.Args))
			return
		}
		if len(call.Args) < len(fn.Params) {
			a.diags.Report(diag.NotEnoughArgs, call.Pos().Line, "not enough arguments to %q: want %d, got %d", call.Callee, len(fn.Params), len(call.Args))
			return
		}
	}
	for _, arg := range call.Args {
		a.analyzeExpr(arg, sc)
		if a.diags.Failed() {
			return
		}
	}
}

// synthesizeInit builds the `@init` function codegen will call before
// `main`: it assigns every global's initializer (in declaration order) and
// zero-fills every fixed-size array to `none`. This keeps codegen from
// needing any special-cased "top level" emission path — globals are
// initialized by ordinary statement codegen, just like a function body.
func (a *Analyzer) synthesizeInit(prog *ast.Program) {
	init := &ast.FuncDecl{PosVal: ast.Pos{Line: 0}, Name: "@init"}
	for _, g := range prog.Globals {
		switch {
		case g.IsArray():
			elems := make([]ast.Expr, g.ArraySize)
			for i := range elems {
				elems[i] = &ast.NoneLit{PosVal: g.PosVal}
			}
			init.Body = append(init.Body, &ast.AssignVar{
				PosVal: g.PosVal, Name: g.Name, Decl: g,
				Value: &ast.ArrayInitLit{PosVal: g.PosVal, Elements: elems},
			})
		case g.Init != nil:
			init.Body = append(init.Body, &ast.AssignVar{PosVal: g.PosVal, Name: g.Name, Decl: g, Value: g.Init})
		}
	}
	prog.Funcs = append([]*ast.FuncDecl{init}, prog.Funcs...)
}
