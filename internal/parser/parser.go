// Package parser builds an ast.Program from a token stream using recursive
// descent for statements and precedence climbing for expressions, the same
// split chazu-maggie's compiler/parser.go uses. Declaration resolution
// (binding idents to their VarDecl/FuncDecl) happens later, in sema.
package parser

import (
	"strconv"

	"github.com/emberlang/ember/internal/ast"
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/lexer"
	"github.com/emberlang/ember/internal/token"
)

// precedence table from spec.md §4.4. `not` sits deliberately below the
// comparison operators: `not a == b` parses as `not (a == b)`.
const (
	precLowest = 0
	precOr     = 1
	precAnd    = 1
	precNot    = 2
	precCmp    = 3
	precAdd    = 4
	precMul    = 5
)

func binPrec(k token.Kind) int {
	switch k {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQ, token.LT, token.GT, token.LE, token.GE:
		return precCmp
	case token.PLUS, token.MINUS:
		return precAdd
	case token.STAR, token.SLASH, token.PERCENT:
		return precMul
	default:
		return precLowest
	}
}

// Parser consumes a fixed token slice produced by lexer.Tokenize.
type Parser struct {
	toks  []token.Token
	pos   int
	diags *diag.Manager
}

// New creates a Parser over src's token stream.
func New(src string, diags *diag.Manager) *Parser {
	return &Parser{toks: lexer.Tokenize(src), diags: diags}
}

func (p *Parser) cur() token.Token  { return p.toks[p.pos] }
func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(token.ERROR) {
		p.errorf(diag.UnexpectedToken, "%s", p.cur().Lexeme)
		return p.cur()
	}
	if !p.at(k) {
		p.errorf(diag.UnexpectedToken, "expected %s, found %s", k, p.cur())
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorf(kind diag.Kind, format string, args ...interface{}) {
	p.diags.Report(kind, p.cur().Line, format, args...)
}

// skipNewlines consumes zero or more NEWLINE tokens; blank lines between
// statements are insignificant.
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// ParseProgram parses a full source file: a run of global var declarations
// followed by a run of function declarations.
func ParseProgram(src string, diags *diag.Manager) *ast.Program {
	p := New(src, diags)
	prog := &ast.Program{PosVal: ast.Pos{Line: 1}}

	p.skipNewlines()
	for p.at(token.VAR) && !diags.Failed() {
		prog.Globals = append(prog.Globals, p.parseVarDecl(ast.KindGlobal))
		p.skipNewlines()
	}
	for p.at(token.FUNCTION) && !diags.Failed() {
		prog.Funcs = append(prog.Funcs, p.parseFuncDecl())
		p.skipNewlines()
	}
	if !p.at(token.EOF) && !diags.Failed() {
		p.errorf(diag.StatementExpected, "unexpected token at top level: %s", p.cur())
	}
	return prog
}

func (p *Parser) parseVarDecl(kind ast.VarKind) *ast.VarDecl {
	line := p.cur().Line
	p.expect(token.VAR)
	name := p.expect(token.IDENT).Lexeme

	decl := &ast.VarDecl{PosVal: ast.Pos{Line: line}, Name: name, Kind: kind}

	if p.at(token.LBRACKET) {
		p.advance()
		sizeTok := p.expect(token.INT)
		decl.ArraySize = int(sizeTok.IntVal)
		p.expect(token.RBRACKET)
	} else if p.at(token.ASSIGN) {
		p.advance()
		decl.Init = p.parseExpr(precLowest)
	}

	if kind != ast.KindArg {
		p.expect(token.NEWLINE)
	}
	return decl
}

func (p *Parser) parseFuncDecl() *ast.FuncDecl {
	line := p.cur().Line
	p.expect(token.FUNCTION)
	name := p.expect(token.IDENT).Lexeme

	fn := &ast.FuncDecl{PosVal: ast.Pos{Line: line}, Name: name}

	p.expect(token.LPAREN)
	if !p.at(token.RPAREN) {
		fn.Params = append(fn.Params, p.parseParam())
		for p.at(token.COMMA) {
			p.advance()
			fn.Params = append(fn.Params, p.parseParam())
		}
	}
	p.expect(token.RPAREN)
	p.expect(token.NEWLINE)

	fn.Body = p.parseStmtList(token.END)
	p.expect(token.END)
	p.expect(token.NEWLINE)
	return fn
}

func (p *Parser) parseParam() *ast.VarDecl {
	tok := p.expect(token.IDENT)
	return &ast.VarDecl{PosVal: ast.Pos{Line: tok.Line}, Name: tok.Lexeme, Kind: ast.KindArg}
}

// parseStmtList parses statements until a NEWLINE-preceded `end`/`else`, or
// EOF, or a diagnostic has already been recorded.
func (p *Parser) parseStmtList(terminators ...token.Kind) []ast.Stmt {
	var stmts []ast.Stmt
	p.skipNewlines()
	for !p.atAny(terminators...) && !p.at(token.EOF) && !p.diags.Failed() {
		stmts = append(stmts, p.parseStmt())
		p.skipNewlines()
	}
	return stmts
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.at(k) {
			return true
		}
	}
	return false
}

func (p *Parser) parseStmt() ast.Stmt {
	line := p.cur().Line
	switch p.cur().Kind {
	case token.VAR:
		return p.parseVarDecl(ast.KindLocal)
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.RETURN:
		p.advance()
		var val ast.Expr
		if !p.at(token.NEWLINE) {
			val = p.parseExpr(precLowest)
		}
		p.expect(token.NEWLINE)
		return &ast.ReturnStmt{PosVal: ast.Pos{Line: line}, Value: val}
	case token.IDENT:
		return p.parseIdentLedStmt(line)
	default:
		p.errorf(diag.StatementExpected, "expected statement, found %s", p.cur())
		p.advance()
		return &ast.ReturnStmt{PosVal: ast.Pos{Line: line}}
	}
}

func (p *Parser) parseIf() ast.Stmt {
	line := p.cur().Line
	p.advance()
	p.expect(token.LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(token.RPAREN)
	p.expect(token.NEWLINE)

	then := p.parseStmtList(token.ELSE, token.END)
	var els []ast.Stmt
	if p.at(token.ELSE) {
		p.advance()
		p.expect(token.NEWLINE)
		els = p.parseStmtList(token.END)
	}
	p.expect(token.END)
	p.expect(token.NEWLINE)
	return &ast.IfStmt{PosVal: ast.Pos{Line: line}, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() ast.Stmt {
	line := p.cur().Line
	p.advance()
	p.expect(token.LPAREN)
	cond := p.parseExpr(precLowest)
	p.expect(token.RPAREN)
	p.expect(token.NEWLINE)

	body := p.parseStmtList(token.END)
	p.expect(token.END)
	p.expect(token.NEWLINE)
	return &ast.WhileStmt{PosVal: ast.Pos{Line: line}, Cond: cond, Body: body}
}

// parseIdentLedStmt disambiguates `name = expr`, `name[i] = expr`, and
// `name(args)` used as a statement — the three surface forms that begin
// with an identifier.
func (p *Parser) parseIdentLedStmt(line int) ast.Stmt {
	name := p.advance().Lexeme

	switch p.cur().Kind {
	case token.ASSIGN:
		p.advance()
		val := p.parseExpr(precLowest)
		p.expect(token.NEWLINE)
		return &ast.AssignVar{PosVal: ast.Pos{Line: line}, Name: name, Value: val}

	case token.PLUS_ASSIGN:
		// Desugared at parse time: `x += e` becomes `x = x + e`.
		p.advance()
		rhs := p.parseExpr(precLowest)
		p.expect(token.NEWLINE)
		sum := &ast.BinaryExpr{PosVal: ast.Pos{Line: line}, Op: token.PLUS,
			Left: &ast.Ident{PosVal: ast.Pos{Line: line}, Name: name}, Right: rhs}
		return &ast.AssignVar{PosVal: ast.Pos{Line: line}, Name: name, Value: sum}

	case token.LBRACKET:
		p.advance()
		idx := p.parseExpr(precLowest)
		p.expect(token.RBRACKET)
		if p.at(token.ASSIGN) {
			p.advance()
			val := p.parseExpr(precLowest)
			p.expect(token.NEWLINE)
			return &ast.AssignIndex{PosVal: ast.Pos{Line: line}, Name: name, Index: idx, Value: val}
		}
		p.errorf(diag.AssignOrCallExpected, "expected '=' after array subscript")
		p.expect(token.NEWLINE)
		return &ast.ReturnStmt{PosVal: ast.Pos{Line: line}}

	case token.LPAREN:
		call := p.finishCall(name, line)
		p.expect(token.NEWLINE)
		return &ast.CallStmt{PosVal: ast.Pos{Line: line}, Call: call}

	default:
		p.errorf(diag.AssignOrCallExpected, "expected '=' or '(' after identifier, found %s", p.cur())
		p.expect(token.NEWLINE)
		return &ast.ReturnStmt{PosVal: ast.Pos{Line: line}}
	}
}

func (p *Parser) finishCall(name string, line int) *ast.CallExpr {
	p.expect(token.LPAREN)
	call := &ast.CallExpr{PosVal: ast.Pos{Line: line}, Callee: name}
	if !p.at(token.RPAREN) {
		call.Args = append(call.Args, p.parseExpr(precLowest))
		for p.at(token.COMMA) {
			p.advance()
			call.Args = append(call.Args, p.parseExpr(precLowest))
		}
	}
	p.expect(token.RPAREN)
	return call
}

// parseExpr implements precedence climbing: parse a prefix/unary term, then
// keep absorbing infix operators whose precedence is >= minPrec.
func (p *Parser) parseExpr(minPrec int) ast.Expr {
	left := p.parseUnary()

	for {
		prec := binPrec(p.cur().Kind)
		if prec < minPrec || prec == precLowest {
			break
		}
		op := p.advance()
		right := p.parseExpr(prec + 1)
		left = &ast.BinaryExpr{PosVal: ast.Pos{Line: op.Line}, Op: op.Kind, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.MINUS:
		p.advance()
		return &ast.UnaryExpr{PosVal: ast.Pos{Line: tok.Line}, Op: token.MINUS, Operand: p.parseExpr(precMul)}
	case token.NOT:
		p.advance()
		return &ast.UnaryExpr{PosVal: ast.Pos{Line: tok.Line}, Op: token.NOT, Operand: p.parseExpr(precNot)}
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.cur()
	switch tok.Kind {
	case token.INT:
		p.advance()
		return &ast.IntLit{PosVal: ast.Pos{Line: tok.Line}, Value: int32(tok.IntVal)}
	case token.FLOAT:
		p.advance()
		// Lexeme is already validated digits '.' digits by the lexer.
		f, _ := strconv.ParseFloat(tok.Lexeme, 32)
		return &ast.FloatLit{PosVal: ast.Pos{Line: tok.Line}, Value: float32(f)}
	case token.STRING:
		p.advance()
		return &ast.StringLit{PosVal: ast.Pos{Line: tok.Line}, Value: tok.Str}
	case token.NONE:
		p.advance()
		return &ast.NoneLit{PosVal: ast.Pos{Line: tok.Line}}
	case token.LPAREN:
		p.advance()
		e := p.parseExpr(precLowest)
		p.expect(token.RPAREN)
		return e
	case token.IDENT:
		name := p.advance().Lexeme
		switch p.cur().Kind {
		case token.LPAREN:
			return p.finishCall(name, tok.Line)
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr(precLowest)
			p.expect(token.RBRACKET)
			return &ast.IndexExpr{PosVal: ast.Pos{Line: tok.Line}, Name: name, Index: idx}
		default:
			return &ast.Ident{PosVal: ast.Pos{Line: tok.Line}, Name: name}
		}
	default:
		p.errorf(diag.ExpectingLitOrIdent, "expected expression, found %s", tok)
		p.advance()
		return &ast.NoneLit{PosVal: ast.Pos{Line: tok.Line}}
	}
}
