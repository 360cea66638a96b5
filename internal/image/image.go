// Package image holds the compiled form of an Ember program: a flat code
// buffer, a string pool, a function table, and debug metadata, the same
// shape as chazu-maggie's pkg/bytecode.Chunk generalized from one
// block/method at a time to a whole linked program (spec.md §4.5/§4.7).
package image

import (
	"encoding/binary"

	"github.com/emberlang/ember/internal/opcode"
)

// FuncInfo describes one callable entry point: a user function's code
// range and frame size, or an embedder syscall's binding index.
type FuncInfo struct {
	Name      string
	IsSyscall bool

	// User function fields.
	CodeStart int
	NumArgs   int
	MaxLocals int

	// Syscall field.
	SyscallIndex int
}

// GlobalInfo describes one global slot, used by the VM to size and name
// the global table and by disasm to annotate LOAD_GLOBAL/STORE_GLOBAL.
type GlobalInfo struct {
	Name      string
	IsArray   bool
	ArraySize int
}

// Program is a fully linked, executable Ember image.
type Program struct {
	Code      []byte
	Strings   []string
	Funcs     []FuncInfo
	Globals   []GlobalInfo
	MainFunc  int // index into Funcs, -1 if no `main`

	// Lines[i] is the source line the instruction starting at byte offset i
	// was generated from; sparse, indexed by code offset like
	// chazu-maggie's Chunk.SourceMap.
	Lines map[int]int
}

// NewProgram returns an empty, writable Program.
func NewProgram() *Program {
	return &Program{MainFunc: -1, Lines: make(map[int]int)}
}

// AddString interns s in the string pool, returning its index.
func (p *Program) AddString(s string) int {
	for i, existing := range p.Strings {
		if existing == s {
			return i
		}
	}
	p.Strings = append(p.Strings, s)
	return len(p.Strings) - 1
}

// Builder appends instructions to a Program's code buffer and tracks jump
// fix-ups by instruction index (spec.md §9), not raw byte offset, so a
// later pass can resolve a jump's target after code for both sides of a
// branch has been emitted.
type Builder struct {
	Prog *Program
}

// NewBuilder wraps prog for sequential code emission.
func NewBuilder(prog *Program) *Builder {
	return &Builder{Prog: prog}
}

// Offset returns the current code length, usable as a jump target.
func (b *Builder) Offset() int { return len(b.Prog.Code) }

// Emit appends op with no operand.
func (b *Builder) Emit(op opcode.Op, line int) int {
	at := b.Offset()
	b.Prog.Lines[at] = line
	b.Prog.Code = append(b.Prog.Code, byte(op))
	return at
}

// EmitOperand appends op followed by a 32-bit little-endian operand.
func (b *Builder) EmitOperand(op opcode.Op, operand int32, line int) int {
	at := b.Offset()
	b.Prog.Lines[at] = line
	b.Prog.Code = append(b.Prog.Code, byte(op))
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(operand))
	b.Prog.Code = append(b.Prog.Code, buf[:]...)
	return at
}

// EmitJump appends a jump opcode with a placeholder target, returning the
// byte offset of the operand for PatchJump to fill in later.
func (b *Builder) EmitJump(op opcode.Op, line int) int {
	at := b.Emit(op, line)
	b.Prog.Code = append(b.Prog.Code, 0, 0, 0, 0)
	return at + 1
}

// PatchJump writes target as the 32-bit operand at operandOffset, the
// offset EmitJump returned.
func (b *Builder) PatchJump(operandOffset int, target int) {
	binary.LittleEndian.PutUint32(b.Prog.Code[operandOffset:operandOffset+4], uint32(target))
}

// ReadOperand reads the 32-bit little-endian operand following the opcode
// at pc (i.e. at byte pc+1).
func ReadOperand(code []byte, pc int) int32 {
	return int32(binary.LittleEndian.Uint32(code[pc+1 : pc+5]))
}
