// Package codegen lowers a resolved ast.Program to an image.Program,
// following the two-pass shape of chazu-maggie's compiler/codegen.go
// Compiler (a stack-layout pass assigning slots, then a tree-walking emit
// pass) adapted from Smalltalk method/block compilation to spec.md §4.6's
// function/statement lowering table.
package codegen

import (
	"math"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/image"
	"github.com/emberlang/ember/internal/opcode"
	"github.com/emberlang/ember/internal/token"
)

// Generate lowers prog (already annotated by sema.Analyze, @init
// synthesized and prepended) into a linked, executable image.Program.
func Generate(prog *ast.Program, diags *diag.Manager) *image.Program {
	img := image.NewProgram()
	g := &generator{img: img, b: image.NewBuilder(img), diags: diags}

	for _, gl := range prog.Globals {
		img.Globals = append(img.Globals, image.GlobalInfo{
			Name: gl.Name, IsArray: gl.IsArray(), ArraySize: gl.ArraySize,
		})
		gl.Slot = len(img.Globals) - 1
	}

	// Reserve a FuncInfo per function up front so forward calls (any
	// function may call any other, regardless of declaration order) can
	// be resolved to an index before that function's body is emitted.
	funcIndex := make(map[*ast.FuncDecl]int)
	for _, fn := range prog.Funcs {
		funcIndex[fn] = len(img.Funcs)
		img.Funcs = append(img.Funcs, image.FuncInfo{Name: fn.Name, NumArgs: len(fn.Params)})
		if fn.Name == "main" {
			img.MainFunc = funcIndex[fn]
		}
	}
	g.funcIndex = funcIndex

	// Syscalls never appear in prog.Funcs (sema resolves calls to them
	// through a synthetic table that lives only inside the analyzer), so
	// their FuncInfo entries are recovered here from the call sites that
	// reference them. These entries exist purely as metadata for the VM's
	// syscallArity lookup and the disassembler's name lookup; the SYSCALL
	// opcode's operand is the stable SyscallIndex, not a position in Funcs.
	for _, info := range collectSyscallInfo(prog) {
		img.Funcs = append(img.Funcs, info)
	}

	for _, fn := range prog.Funcs {
		if fn.IsSyscall {
			continue
		}
		g.genFunc(fn)
		if diags.Failed() {
			return img
		}
	}
	return img
}

type generator struct {
	img       *image.Program
	b         *image.Builder
	diags     *diag.Manager
	funcIndex map[*ast.FuncDecl]int

	// Per-function state, reset by genFunc.
	locals    map[*ast.VarDecl]int
	numLocals int
	fn        *ast.FuncDecl
}

// genFunc assigns a monotonically increasing local slot to every VarDecl
// encountered in the body (no cross-branch slot reuse — a simpler, if
// slightly less compact, layout than chazu-maggie's temp-slot packing)
// and then emits its bytecode.
func (g *generator) genFunc(fn *ast.FuncDecl) {
	g.fn = fn
	g.locals = make(map[*ast.VarDecl]int)
	g.numLocals = 0

	start := g.b.Offset()
	g.genBlock(fn.Body)
	// Every path must end in a return; if control can fall off the end,
	// return none implicitly.
	g.b.Emit(opcode.RetNone, fn.Pos().Line)

	info := g.img.Funcs[g.funcIndex[fn]]
	info.CodeStart = start
	info.MaxLocals = g.numLocals
	g.img.Funcs[g.funcIndex[fn]] = info
}

func (g *generator) localSlot(decl *ast.VarDecl) int {
	if slot, ok := g.locals[decl]; ok {
		return slot
	}
	slot := g.numLocals
	g.locals[decl] = slot
	g.numLocals++
	return slot
}

func (g *generator) argSlot(decl *ast.VarDecl) int {
	for i, p := range g.fn.Params {
		if p == decl {
			return i
		}
	}
	return 0
}

func (g *generator) genBlock(stmts []ast.Stmt) {
	for _, stmt := range stmts {
		g.genStmt(stmt)
		if g.diags.Failed() {
			return
		}
	}
}

func (g *generator) genStmt(stmt ast.Stmt) {
	line := stmt.Pos().Line
	switch n := stmt.(type) {
	case *ast.VarDecl:
		slot := g.localSlot(n)
		if n.IsArray() {
			g.b.EmitOperand(opcode.NewArray, int32(n.ArraySize), line)
		} else if n.Init != nil {
			g.genExpr(n.Init)
		} else {
			g.b.Emit(opcode.PushNone, line)
		}
		g.b.EmitOperand(opcode.StoreLocal, int32(slot), line)

	case *ast.AssignVar:
		if arr, ok := n.Value.(*ast.ArrayInitLit); ok {
			// Synthesized global array zero-fill from sema's @init pass:
			// build the array then store it once, element writes folded
			// into NEW_ARRAY's zero-initialization at the VM level.
			g.b.EmitOperand(opcode.NewArray, int32(len(arr.Elements)), line)
		} else {
			g.genExpr(n.Value)
		}
		g.storeVar(n.Decl, line)

	case *ast.AssignIndex:
		g.loadVar(n.Decl, line)
		g.genExpr(n.Index)
		g.genExpr(n.Value)
		g.b.Emit(opcode.ArraySet, line)

	case *ast.IfStmt:
		g.genExpr(n.Cond)
		elseJumpOperand := g.b.EmitJump(opcode.JumpFalse, line)
		g.genBlock(n.Then)
		if n.Else != nil {
			endJumpOperand := g.b.EmitJump(opcode.Jump, line)
			g.b.PatchJump(elseJumpOperand, g.b.Offset())
			g.genBlock(n.Else)
			g.b.PatchJump(endJumpOperand, g.b.Offset())
		} else {
			g.b.PatchJump(elseJumpOperand, g.b.Offset())
		}

	case *ast.WhileStmt:
		condStart := g.b.Offset()
		g.genExpr(n.Cond)
		exitJumpOperand := g.b.EmitJump(opcode.JumpFalse, line)
		g.genBlock(n.Body)
		g.b.EmitOperand(opcode.Jump, int32(condStart), line)
		g.b.PatchJump(exitJumpOperand, g.b.Offset())

	case *ast.ReturnStmt:
		if n.Value != nil {
			g.genExpr(n.Value)
			g.b.Emit(opcode.Ret, line)
		} else {
			g.b.Emit(opcode.RetNone, line)
		}

	case *ast.CallStmt:
		g.genCall(n.Call)
		g.b.Emit(opcode.Pop, line)
	}
}

func (g *generator) storeVar(decl *ast.VarDecl, line int) {
	if decl.Kind == ast.KindGlobal {
		g.b.EmitOperand(opcode.StoreGlobal, int32(decl.Slot), line)
		return
	}
	g.b.EmitOperand(opcode.StoreLocal, int32(g.localSlot(decl)), line)
}

func (g *generator) loadVar(decl *ast.VarDecl, line int) {
	switch decl.Kind {
	case ast.KindGlobal:
		g.b.EmitOperand(opcode.LoadGlobal, int32(decl.Slot), line)
	case ast.KindArg:
		g.b.EmitOperand(opcode.LoadArg, int32(g.argSlot(decl)), line)
	default:
		g.b.EmitOperand(opcode.LoadLocal, int32(g.localSlot(decl)), line)
	}
}

func (g *generator) genExpr(e ast.Expr) {
	line := e.Pos().Line
	switch n := e.(type) {
	case *ast.IntLit:
		g.b.EmitOperand(opcode.PushInt, n.Value, line)
	case *ast.FloatLit:
		g.b.EmitOperand(opcode.PushFloat, int32(math.Float32bits(n.Value)), line)
	case *ast.StringLit:
		idx := g.img.AddString(n.Value)
		g.b.EmitOperand(opcode.PushString, int32(idx), line)
	case *ast.NoneLit:
		g.b.Emit(opcode.PushNone, line)
	case *ast.Ident:
		g.loadVar(n.Decl, line)
	case *ast.IndexExpr:
		g.loadVar(n.Decl, line)
		g.genExpr(n.Index)
		g.b.Emit(opcode.ArrayGet, line)
	case *ast.CallExpr:
		g.genCall(n)
	case *ast.UnaryExpr:
		g.genExpr(n.Operand)
		if n.Op == token.MINUS {
			g.b.Emit(opcode.Neg, line)
		} else {
			g.b.Emit(opcode.Not, line)
		}
	case *ast.BinaryExpr:
		g.genExpr(n.Left)
		g.genExpr(n.Right)
		g.b.Emit(binOp(n.Op), line)
	}
}

func (g *generator) genCall(call *ast.CallExpr) {
	line := call.Pos().Line
	for _, arg := range call.Args {
		g.genExpr(arg)
	}
	if call.Decl.IsSyscall {
		g.b.EmitOperand(opcode.Syscall, int32(call.Decl.SyscallIndex), line)
	} else {
		g.b.EmitOperand(opcode.Call, int32(g.funcIndex[call.Decl]), line)
	}
}

// collectSyscallInfo walks every function body for calls that resolved to
// a syscall and returns one FuncInfo per distinct SyscallIndex encountered,
// in first-use order.
func collectSyscallInfo(prog *ast.Program) []image.FuncInfo {
	seen := make(map[int]bool)
	var infos []image.FuncInfo
	record := func(decl *ast.FuncDecl) {
		if !decl.IsSyscall || seen[decl.SyscallIndex] {
			return
		}
		seen[decl.SyscallIndex] = true
		infos = append(infos, image.FuncInfo{
			Name: decl.Name, IsSyscall: true,
			NumArgs: len(decl.Params), SyscallIndex: decl.SyscallIndex,
		})
	}
	for _, fn := range prog.Funcs {
		walkStmts(fn.Body, record)
	}
	return infos
}

func walkStmts(stmts []ast.Stmt, record func(*ast.FuncDecl)) {
	for _, stmt := range stmts {
		walkStmt(stmt, record)
	}
}

func walkStmt(stmt ast.Stmt, record func(*ast.FuncDecl)) {
	switch n := stmt.(type) {
	case *ast.VarDecl:
		if n.Init != nil {
			walkExpr(n.Init, record)
		}
	case *ast.AssignVar:
		walkExpr(n.Value, record)
	case *ast.AssignIndex:
		walkExpr(n.Index, record)
		walkExpr(n.Value, record)
	case *ast.IfStmt:
		walkExpr(n.Cond, record)
		walkStmts(n.Then, record)
		walkStmts(n.Else, record)
	case *ast.WhileStmt:
		walkExpr(n.Cond, record)
		walkStmts(n.Body, record)
	case *ast.ReturnStmt:
		if n.Value != nil {
			walkExpr(n.Value, record)
		}
	case *ast.CallStmt:
		walkExpr(n.Call, record)
	}
}

func walkExpr(e ast.Expr, record func(*ast.FuncDecl)) {
	switch n := e.(type) {
	case *ast.IndexExpr:
		walkExpr(n.Index, record)
	case *ast.CallExpr:
		record(n.Decl)
		for _, arg := range n.Args {
			walkExpr(arg, record)
		}
	case *ast.UnaryExpr:
		walkExpr(n.Operand, record)
	case *ast.BinaryExpr:
		walkExpr(n.Left, record)
		walkExpr(n.Right, record)
	}
}

func binOp(op token.Kind) opcode.Op {
	switch op {
	case token.PLUS:
		return opcode.Add
	case token.MINUS:
		return opcode.Sub
	case token.STAR:
		return opcode.Mul
	case token.SLASH:
		return opcode.Div
	case token.PERCENT:
		return opcode.Mod
	case token.EQ:
		return opcode.Eq
	case token.LT:
		return opcode.Lt
	case token.GT:
		return opcode.Gt
	case token.LE:
		return opcode.Le
	case token.GE:
		return opcode.Ge
	case token.AND:
		return opcode.And
	case token.OR:
		return opcode.Or
	default:
		return opcode.Nop
	}
}
