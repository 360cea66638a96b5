// Package ast defines the Ember abstract syntax tree.
//
// Nodes are tagged variants, not a polymorphic class hierarchy: each kind is
// its own Go struct implementing a small marker-method interface (Node,
// and either Expr or Stmt). After semantic analysis, identifier / array /
// call / assignment nodes carry a resolved pointer (Decl) to their
// declaring node — see spec.md §3 and §9's note on modeling declaring-node
// references as indices/pointers into an arena that outlives codegen rather
// than as owning pointers.
package ast

import "github.com/emberlang/ember/internal/token"

// Pos is the source line a node was produced from, used for error reporting.
type Pos struct {
	Line int
}

// Node is implemented by every AST node.
type Node interface {
	Pos() Pos
	node()
}

// Expr is implemented by expression nodes.
type Expr interface {
	Node
	expr()
}

// Stmt is implemented by statement nodes.
type Stmt interface {
	Node
	stmt()
}

// VarKind distinguishes the three contexts a VarDecl can appear in.
type VarKind int

const (
	KindLocal VarKind = iota
	KindArg
	KindGlobal
)

// VarDecl declares a variable, array, global, or function argument.
// Local and global declarations double as statements; argument declarations
// appear only in a FuncDecl's Params. Slot is filled in by the code
// generator's stack-layout pass (spec.md §4.6): a non-negative local offset,
// a negative argument offset, or a global table index, depending on Kind.
type VarDecl struct {
	PosVal    Pos
	Name      string
	Kind      VarKind
	ArraySize int  // > 0 if this declares an array of fixed size
	Init      Expr // nil if no initializer
	Slot      int
}

func (n *VarDecl) Pos() Pos { return n.PosVal }
func (n *VarDecl) node()    {}
func (n *VarDecl) stmt()    {}

func (n *VarDecl) IsArray() bool { return n.ArraySize > 0 }

// FuncDecl declares a user function or a resolved reference to an
// embedder-registered syscall (IsSyscall true, SyscallIndex valid).
type FuncDecl struct {
	PosVal       Pos
	Name         string
	Params       []*VarDecl
	Body         []Stmt
	IsSyscall    bool
	SyscallIndex int

	// Filled in by codegen.
	CodeStart int
	CodeEnd   int
	MaxLocals int
}

func (n *FuncDecl) Pos() Pos { return n.PosVal }
func (n *FuncDecl) node()    {}

// Program is the root of a parsed source file.
type Program struct {
	PosVal  Pos
	Globals []*VarDecl
	Funcs   []*FuncDecl // includes the synthesized @init function after sema
}

func (n *Program) Pos() Pos { return n.PosVal }
func (n *Program) node()    {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// AssignVar is `name = expr`.
type AssignVar struct {
	PosVal Pos
	Name   string
	Decl   *VarDecl
	Value  Expr
}

func (n *AssignVar) Pos() Pos { return n.PosVal }
func (n *AssignVar) node()    {}
func (n *AssignVar) stmt()    {}

// AssignIndex is `name[index] = expr`.
type AssignIndex struct {
	PosVal Pos
	Name   string
	Decl   *VarDecl
	Index  Expr
	Value  Expr
}

func (n *AssignIndex) Pos() Pos { return n.PosVal }
func (n *AssignIndex) node()    {}
func (n *AssignIndex) stmt()    {}

// IfStmt is `if (cond) then [else else_] end`.
type IfStmt struct {
	PosVal Pos
	Cond   Expr
	Then   []Stmt
	Else   []Stmt // nil if there is no else branch
}

func (n *IfStmt) Pos() Pos { return n.PosVal }
func (n *IfStmt) node()    {}
func (n *IfStmt) stmt()    {}

// WhileStmt is `while (cond) body end`.
type WhileStmt struct {
	PosVal Pos
	Cond   Expr
	Body   []Stmt
}

func (n *WhileStmt) Pos() Pos { return n.PosVal }
func (n *WhileStmt) node()    {}
func (n *WhileStmt) stmt()    {}

// ReturnStmt is `return expr`.
type ReturnStmt struct {
	PosVal Pos
	Value  Expr
}

func (n *ReturnStmt) Pos() Pos { return n.PosVal }
func (n *ReturnStmt) node()    {}
func (n *ReturnStmt) stmt()    {}

// CallStmt is a call expression used as a statement; its result is discarded.
type CallStmt struct {
	PosVal Pos
	Call   *CallExpr
}

func (n *CallStmt) Pos() Pos { return n.PosVal }
func (n *CallStmt) node()    {}
func (n *CallStmt) stmt()    {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// BinaryExpr is a two-operand arithmetic, comparison, or logical expression.
type BinaryExpr struct {
	PosVal Pos
	Op     token.Kind
	Left   Expr
	Right  Expr
}

func (n *BinaryExpr) Pos() Pos { return n.PosVal }
func (n *BinaryExpr) node()    {}
func (n *BinaryExpr) expr()    {}

// UnaryExpr is unary '-' (negation) or 'not'.
type UnaryExpr struct {
	PosVal  Pos
	Op      token.Kind
	Operand Expr
}

func (n *UnaryExpr) Pos() Pos { return n.PosVal }
func (n *UnaryExpr) node()    {}
func (n *UnaryExpr) expr()    {}

// Ident is a reference to a local, argument, or global variable.
type Ident struct {
	PosVal Pos
	Name   string
	Decl   *VarDecl
}

func (n *Ident) Pos() Pos { return n.PosVal }
func (n *Ident) node()    {}
func (n *Ident) expr()    {}

// IndexExpr is `name[index]`, reading one array element.
type IndexExpr struct {
	PosVal Pos
	Name   string
	Decl   *VarDecl
	Index  Expr
}

func (n *IndexExpr) Pos() Pos { return n.PosVal }
func (n *IndexExpr) node()    {}
func (n *IndexExpr) expr()    {}

// CallExpr is `name(args...)`, calling a user function or a syscall.
type CallExpr struct {
	PosVal Pos
	Callee string
	Args   []Expr
	Decl   *FuncDecl
}

func (n *CallExpr) Pos() Pos { return n.PosVal }
func (n *CallExpr) node()    {}
func (n *CallExpr) expr()    {}

// IntLit is an integer literal.
type IntLit struct {
	PosVal Pos
	Value  int32
}

func (n *IntLit) Pos() Pos { return n.PosVal }
func (n *IntLit) node()    {}
func (n *IntLit) expr()    {}

// FloatLit is a floating point literal (spec.md §4.6 extension).
type FloatLit struct {
	PosVal Pos
	Value  float32
}

func (n *FloatLit) Pos() Pos { return n.PosVal }
func (n *FloatLit) node()    {}
func (n *FloatLit) expr()    {}

// StringLit is a string literal.
type StringLit struct {
	PosVal Pos
	Value  string
}

func (n *StringLit) Pos() Pos { return n.PosVal }
func (n *StringLit) node()    {}
func (n *StringLit) expr()    {}

// NoneLit is the literal `none`.
type NoneLit struct {
	PosVal Pos
}

func (n *NoneLit) Pos() Pos { return n.PosVal }
func (n *NoneLit) node()    {}
func (n *NoneLit) expr()    {}

// ArrayInitLit builds an array value from a fixed list of element
// expressions. Surface syntax never produces one directly (spec.md's
// grammar only allows `var x[N]`); the semantic pass synthesizes one per
// fixed-size array declaration to initialize its slots to `none` in @init.
type ArrayInitLit struct {
	PosVal   Pos
	Elements []Expr
}

func (n *ArrayInitLit) Pos() Pos { return n.PosVal }
func (n *ArrayInitLit) node()    {}
func (n *ArrayInitLit) expr()    {}
