// Package disasm renders an image.Program's code buffer as human-readable
// listing lines, interleaving the source line each instruction was
// generated from — the same PC/MNEMONIC/OPERANDS shape as
// pkg/bytecode/disasm.go, generalized to the whole-program function table
// instead of one chunk, and with a line-number column since Ember's
// source map is sparse (indexed by code offset) rather than attached to
// every instruction.
package disasm

import (
	"fmt"
	"strings"

	"github.com/emberlang/ember/internal/image"
	"github.com/emberlang/ember/internal/opcode"
)

// Listing returns the full disassembly of prog: one line per instruction,
// plus a "func NAME:" header at each function's entry point.
func Listing(prog *image.Program) string {
	var b strings.Builder

	funcAt := make(map[int]string)
	for _, fn := range prog.Funcs {
		if !fn.IsSyscall {
			funcAt[fn.CodeStart] = fn.Name
		}
	}

	pc := 0
	lastLine := -1
	for pc < len(prog.Code) {
		if name, ok := funcAt[pc]; ok {
			fmt.Fprintf(&b, "func %s:\n", name)
		}
		op := opcode.Op(prog.Code[pc])
		info := opcode.Describe(op)

		line := lastLine
		if l, ok := prog.Lines[pc]; ok {
			line = l
			lastLine = l
		}

		fmt.Fprintf(&b, "%04d  line %-4d  %-12s", pc, line, info.Name)
		if info.OperandLen > 0 {
			operand := image.ReadOperand(prog.Code, pc)
			fmt.Fprintf(&b, " %s", operandString(op, operand, prog))
		}
		b.WriteByte('\n')

		pc += 1 + info.OperandLen
	}
	return b.String()
}

func operandString(op opcode.Op, operand int32, prog *image.Program) string {
	switch op {
	case opcode.PushString:
		if int(operand) < len(prog.Strings) {
			return fmt.Sprintf("%d ; %q", operand, prog.Strings[operand])
		}
	case opcode.Call:
		if int(operand) < len(prog.Funcs) {
			return fmt.Sprintf("%d ; %s", operand, prog.Funcs[operand].Name)
		}
	case opcode.Syscall:
		for _, fn := range prog.Funcs {
			if fn.IsSyscall && fn.SyscallIndex == int(operand) {
				return fmt.Sprintf("%d ; %s", operand, fn.Name)
			}
		}
	case opcode.LoadGlobal, opcode.StoreGlobal:
		if int(operand) < len(prog.Globals) {
			return fmt.Sprintf("%d ; %s", operand, prog.Globals[operand].Name)
		}
	}
	return fmt.Sprintf("%d", operand)
}
