// Package opcode defines the Ember bytecode instruction set: one-byte
// opcodes with 32-bit little-endian operands, following the encoding shape
// of chazu-maggie's pkg/bytecode/opcodes.go but with the operand width and
// instruction table spec.md §4.7 specifies.
package opcode

import "fmt"

type Op byte

const (
	Nop Op = iota

	// Stack manipulation.
	Pop
	Dup

	// Constants and literals.
	PushInt    // operand: int32 value
	PushFloat  // operand: int32 bit pattern of a float32
	PushString // operand: index into the string pool
	PushNone

	// Locals, args, globals.
	LoadLocal  // operand: local slot
	StoreLocal // operand: local slot
	LoadArg    // operand: argument slot
	LoadGlobal // operand: global index
	StoreGlobal

	// Arrays.
	NewArray  // operand: fixed size
	ArrayGet  // no operand: pops index, array
	ArraySet  // no operand: pops value, index, array

	// Arithmetic and comparison.
	Add
	Sub
	Mul
	Div
	Mod
	Neg
	Eq
	Lt
	Gt
	Le
	Ge

	// Logical.
	And
	Or
	Not

	// Control flow. Jump targets are absolute instruction indices, patched
	// by index fix-up rather than raw pointer patching — spec.md §9's note
	// on avoiding the original implementation's self-relative byte offsets.
	Jump      // operand: target instruction index
	JumpFalse // operand: target instruction index; pops condition

	// Calls.
	Call    // operand: function index
	Syscall // operand: syscall index
	Ret     // pops return value, discards frame
	RetNone // returns none

	NumOpcodes
)

// Info describes one opcode's stack effect and operand width, mirroring
// chazu-maggie's OpcodeInfo table.
type Info struct {
	Name       string
	StackPop   int // -1 means variable (depends on a preceding operand)
	StackPush  int
	OperandLen int // operand bytes following the opcode, 0 or 4
}

var table = map[Op]Info{
	Nop:         {"NOP", 0, 0, 0},
	Pop:         {"POP", 1, 0, 0},
	Dup:         {"DUP", 1, 2, 0},
	PushInt:     {"PUSH_INT", 0, 1, 4},
	PushFloat:   {"PUSH_FLOAT", 0, 1, 4},
	PushString:  {"PUSH_STRING", 0, 1, 4},
	PushNone:    {"PUSH_NONE", 0, 1, 0},
	LoadLocal:   {"LOAD_LOCAL", 0, 1, 4},
	StoreLocal:  {"STORE_LOCAL", 1, 0, 4},
	LoadArg:     {"LOAD_ARG", 0, 1, 4},
	LoadGlobal:  {"LOAD_GLOBAL", 0, 1, 4},
	StoreGlobal: {"STORE_GLOBAL", 1, 0, 4},
	NewArray:    {"NEW_ARRAY", 0, 1, 4},
	ArrayGet:    {"ARRAY_GET", 2, 1, 0},
	ArraySet:    {"ARRAY_SET", 3, 0, 0},
	Add:         {"ADD", 2, 1, 0},
	Sub:         {"SUB", 2, 1, 0},
	Mul:         {"MUL", 2, 1, 0},
	Div:         {"DIV", 2, 1, 0},
	Mod:         {"MOD", 2, 1, 0},
	Neg:         {"NEG", 1, 1, 0},
	Eq:          {"EQ", 2, 1, 0},
	Lt:          {"LT", 2, 1, 0},
	Gt:          {"GT", 2, 1, 0},
	Le:          {"LE", 2, 1, 0},
	Ge:          {"GE", 2, 1, 0},
	And:         {"AND", 2, 1, 0},
	Or:          {"OR", 2, 1, 0},
	Not:         {"NOT", 1, 1, 0},
	Jump:        {"JUMP", 0, 0, 4},
	JumpFalse:   {"JUMP_FALSE", 1, 0, 4},
	Call:        {"CALL", -1, 1, 4},
	Syscall:     {"SYSCALL", -1, 1, 4},
	Ret:         {"RET", 1, 0, 0},
	RetNone:     {"RET_NONE", 0, 0, 0},
}

// Describe returns op's metadata. Unknown opcodes return a zero Info.
func Describe(op Op) Info { return table[op] }

func (op Op) String() string {
	if info, ok := table[op]; ok {
		return info.Name
	}
	return fmt.Sprintf("Op(%d)", byte(op))
}

// OperandLen is the number of operand bytes following op in the code stream.
func OperandLen(op Op) int { return table[op].OperandLen }
