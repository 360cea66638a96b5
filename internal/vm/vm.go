// Package vm is the stack machine that executes an image.Program. It
// follows chazu-maggie's pkg/bytecode.VM fetch-decode-dispatch loop and
// CallFrame shape, generalized from a single-chunk method interpreter to
// one that calls across a whole program's function table, and from a
// string-only value stack to gc.Value's tagged union.
//
// Execution is cooperative: Resume runs at most a caller-supplied number
// of instructions and returns, so an embedder (a REPL, a debugger, a
// language server evaluating a snippet under a deadline) can interleave
// its own work between slices rather than blocking on a single call.
package vm

import (
	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gc"
	"github.com/emberlang/ember/internal/image"
	"github.com/emberlang/ember/internal/opcode"
)

// Syscall is an embedder-registered native function, reached via the
// SYSCALL opcode. args are in call order; the returned Value becomes the
// call expression's result.
type Syscall func(t *Thread, args []gc.Value) (gc.Value, *diag.Error)

// Handlers lets an embedder intercept operations the VM can't give
// sensible built-in semantics to — mixed-type arithmetic the core
// int/float/string rules don't cover, and thread lifecycle notifications.
// Any field left nil falls back to a BadTypeOperation diagnostic (for the
// arithmetic hooks) or is simply not called (for the lifecycle hooks).
type Handlers struct {
	OnAdd, OnSub, OnMul, OnDiv, OnMod func(a, b gc.Value) (gc.Value, *diag.Error)
	OnThreadError                     func(err *diag.Error)
	OnThreadFinish                    func(result gc.Value)
}

// frame is one activation record. Args live below FrameBase at negative
// offsets, locals at non-negative offsets — spec.md's calling convention.
// Terminal frames (the ones Start pushes directly, not via CALL) end
// execution rather than returning to a caller when they RET.
type frame struct {
	returnPC   int
	frameBase  int
	numArgs    int
	funcIndex  int
	terminal   bool
}

// Thread is one cooperative execution context: one value stack, one call
// stack, a reference to the shared program image and heap.
type Thread struct {
	Prog     *image.Program
	Heap     *gc.Heap
	Globals  []gc.Value
	Syscalls []Syscall
	Handlers Handlers

	stack  []gc.Value
	frames []frame
	pc     int

	halted   bool
	finished bool
	Result   gc.Value

	Breakpoints map[int]bool

	CyclesRun uint64
	err       *diag.Error
}

// NewThread creates a Thread ready to run prog. globals is sized to
// len(prog.Globals), every slot starting as none; the @init function
// (always prog.Funcs[0] after sema synthesizes it) fills them in.
func NewThread(prog *image.Program, heap *gc.Heap, syscalls []Syscall) *Thread {
	globals := make([]gc.Value, len(prog.Globals))
	for i := range globals {
		globals[i] = gc.None()
	}
	return &Thread{
		Prog:     prog,
		Heap:     heap,
		Globals:  globals,
		Syscalls: syscalls,
		stack:    make([]gc.Value, 0, 256),
	}
}

// Start pushes a terminal call to prog.Funcs[funcIndex] with no arguments
// (used for both @init, index 0, and main) and positions pc at its entry.
// Start may be called again once the prior terminal call has Finished, to
// chain @init into main.
func (t *Thread) Start(funcIndex int) {
	fn := t.Prog.Funcs[funcIndex]
	base := len(t.stack)
	for i := 0; i < fn.MaxLocals; i++ {
		t.stack = append(t.stack, gc.None())
	}
	t.frames = append(t.frames, frame{frameBase: base, numArgs: 0, funcIndex: funcIndex, terminal: true})
	t.pc = fn.CodeStart
	t.finished = false
	t.halted = false
}

// Finished reports whether the current terminal call has returned.
func (t *Thread) Finished() bool { return t.finished }

// Halt cooperatively stops Resume at the next instruction boundary.
func (t *Thread) Halt() { t.halted = true }

// Err returns the runtime diagnostic that stopped execution, if any.
func (t *Thread) Err() *diag.Error { return t.err }

// Resume executes up to cycles instructions (one instruction = one cycle),
// fewer if the thread halts, finishes, or hits a breakpoint or a runtime
// error first. It returns true if execution should continue (more to do,
// no error, not halted).
func (t *Thread) Resume(cycles int) bool {
	t.halted = false
	for i := 0; i < cycles; i++ {
		if t.finished || t.err != nil {
			return false
		}
		if t.Breakpoints != nil && t.Breakpoints[t.pc] {
			return false
		}
		if !t.step() {
			return false
		}
		t.CyclesRun++
	}
	return !t.halted && !t.finished && t.err == nil
}

func (t *Thread) fail(kind diag.Kind, format string, args ...interface{}) bool {
	t.err = &diag.Error{Kind: kind, Msg: sprintf(format, args...)}
	if t.Handlers.OnThreadError != nil {
		t.Handlers.OnThreadError(t.err)
	}
	return false
}

func (t *Thread) push(v gc.Value) { t.stack = append(t.stack, v) }

func (t *Thread) pop() gc.Value {
	v := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return v
}

func (t *Thread) curFrame() *frame { return &t.frames[len(t.frames)-1] }

// step decodes and executes exactly one instruction.
func (t *Thread) step() bool {
	code := t.Prog.Code
	if t.pc >= len(code) {
		return t.fail(diag.BadOpcode, "program counter ran off the end of the code buffer")
	}
	op := opcode.Op(code[t.pc])
	pc := t.pc
	t.pc += 1 + opcode.OperandLen(op)

	switch op {
	case opcode.Nop:
		// Nothing.

	case opcode.Pop:
		if len(t.stack) == 0 {
			return t.fail(diag.BadPop, "pop on empty stack")
		}
		t.pop()

	case opcode.Dup:
		t.push(t.stack[len(t.stack)-1])

	case opcode.PushInt:
		t.push(gc.Int(image.ReadOperand(code, pc)))
	case opcode.PushFloat:
		t.push(gc.Float(float32FromBits(image.ReadOperand(code, pc))))
	case opcode.PushString:
		idx := image.ReadOperand(code, pc)
		v, err := t.Heap.NewString(t.Prog.Strings[idx], t.roots())
		if err != nil {
			t.err = err
			return false
		}
		t.push(v)
	case opcode.PushNone:
		t.push(gc.None())

	case opcode.LoadLocal:
		slot := int(image.ReadOperand(code, pc))
		t.push(t.stack[t.curFrame().frameBase+slot])
	case opcode.StoreLocal:
		slot := int(image.ReadOperand(code, pc))
		t.stack[t.curFrame().frameBase+slot] = t.pop()
	case opcode.LoadArg:
		slot := int(image.ReadOperand(code, pc))
		fr := t.curFrame()
		t.push(t.stack[fr.frameBase-fr.numArgs+slot])
	case opcode.LoadGlobal:
		t.push(t.Globals[image.ReadOperand(code, pc)])
	case opcode.StoreGlobal:
		t.Globals[image.ReadOperand(code, pc)] = t.pop()

	case opcode.NewArray:
		n := int(image.ReadOperand(code, pc))
		v, err := t.Heap.NewArray(n, t.roots())
		if err != nil {
			t.err = err
			return false
		}
		t.push(v)
	case opcode.ArrayGet:
		idx := t.pop()
		arr := t.pop()
		if arr.Tag != gc.TagArray {
			return t.fail(diag.BadArrayObject, "indexed value is not an array")
		}
		if idx.Tag != gc.TagInt || int(idx.Int) < 0 || int(idx.Int) >= t.Heap.ArrayLen(arr) {
			return t.fail(diag.BadArrayIndex, "array index out of bounds")
		}
		t.push(t.Heap.ArrayGet(arr, int(idx.Int)))
	case opcode.ArraySet:
		val := t.pop()
		idx := t.pop()
		arr := t.pop()
		if arr.Tag != gc.TagArray {
			return t.fail(diag.BadArrayObject, "indexed value is not an array")
		}
		if idx.Tag != gc.TagInt || int(idx.Int) < 0 || int(idx.Int) >= t.Heap.ArrayLen(arr) {
			return t.fail(diag.BadArrayBounds, "array index out of bounds")
		}
		t.Heap.ArraySet(arr, int(idx.Int), val)

	case opcode.Add:
		return t.binArith(op, t.Handlers.OnAdd)
	case opcode.Sub:
		return t.binArith(op, t.Handlers.OnSub)
	case opcode.Mul:
		return t.binArith(op, t.Handlers.OnMul)
	case opcode.Div:
		return t.binArith(op, t.Handlers.OnDiv)
	case opcode.Mod:
		return t.binArith(op, t.Handlers.OnMod)
	case opcode.Neg:
		return t.unaryNeg()

	case opcode.Eq, opcode.Lt, opcode.Gt, opcode.Le, opcode.Ge:
		return t.compare(op)

	case opcode.And:
		b, a := t.pop(), t.pop()
		t.push(boolValue(truthy(a) && truthy(b)))
	case opcode.Or:
		b, a := t.pop(), t.pop()
		t.push(boolValue(truthy(a) || truthy(b)))
	case opcode.Not:
		t.push(boolValue(!truthy(t.pop())))

	case opcode.Jump:
		t.pc = int(image.ReadOperand(code, pc))
	case opcode.JumpFalse:
		target := int(image.ReadOperand(code, pc))
		if !truthy(t.pop()) {
			t.pc = target
		}

	case opcode.Call:
		return t.call(int(image.ReadOperand(code, pc)))
	case opcode.Syscall:
		return t.syscall(int(image.ReadOperand(code, pc)))
	case opcode.Ret:
		return t.ret(t.pop())
	case opcode.RetNone:
		return t.ret(gc.None())

	default:
		return t.fail(diag.BadOpcode, "unknown opcode %d", byte(op))
	}
	return true
}

func (t *Thread) roots() gc.Roots { return gc.Roots{Stack: t.stack, Globals: t.Globals} }

// Roots exposes the thread's current GC roots to syscalls that need to
// allocate heap objects (e.g. a generated binding returning a Go string).
func (t *Thread) Roots() gc.Roots { return t.roots() }

func (t *Thread) call(funcIndex int) bool {
	if funcIndex < 0 || funcIndex >= len(t.Prog.Funcs) {
		return t.fail(diag.BadOpcode, "call to unknown function index %d", funcIndex)
	}
	fn := t.Prog.Funcs[funcIndex]
	if fn.IsSyscall {
		return t.invokeSyscallFunc(fn)
	}
	if len(t.frames) >= maxCallDepth {
		return t.fail(diag.StackOverflow, "call stack exceeded depth %d", maxCallDepth)
	}
	base := len(t.stack)
	for i := 0; i < fn.MaxLocals; i++ {
		t.push(gc.None())
	}
	t.frames = append(t.frames, frame{returnPC: t.pc, frameBase: base, numArgs: fn.NumArgs, funcIndex: funcIndex})
	t.pc = fn.CodeStart
	return true
}

// invokeSyscallFunc handles a user FuncDecl that sema resolved to a
// syscall binding (called through the normal CALL table entry rather
// than the SYSCALL opcode, which codegen only emits for direct calls
// already known to be syscalls at compile time).
func (t *Thread) invokeSyscallFunc(fn image.FuncInfo) bool {
	return t.syscall(fn.SyscallIndex)
}

func (t *Thread) syscall(index int) bool {
	if index < 0 || index >= len(t.Syscalls) || t.Syscalls[index] == nil {
		return t.fail(diag.BadSyscall, "call to unregistered syscall index %d", index)
	}
	fn := t.Syscalls[index]
	// Caller pushed its args; we don't know argc from the syscall table
	// alone, so the FuncInfo the CALL path resolved carries it. For the
	// SYSCALL opcode (no FuncInfo), argc comes from the syscall's own
	// declared arity via the program's Funcs table lookup by SyscallIndex.
	numArgs := t.syscallArity(index)
	args := make([]gc.Value, numArgs)
	for i := numArgs - 1; i >= 0; i-- {
		args[i] = t.pop()
	}
	result, err := fn(t, args)
	if err != nil {
		t.err = err
		return false
	}
	t.push(result)
	return true
}

func (t *Thread) syscallArity(index int) int {
	for _, fn := range t.Prog.Funcs {
		if fn.IsSyscall && fn.SyscallIndex == index {
			return fn.NumArgs
		}
	}
	return 0
}

func (t *Thread) ret(result gc.Value) bool {
	fr := t.frames[len(t.frames)-1]
	t.frames = t.frames[:len(t.frames)-1]
	t.stack = t.stack[:fr.frameBase-fr.numArgs]

	if fr.terminal {
		t.finished = true
		t.Result = result
		if t.Handlers.OnThreadFinish != nil {
			t.Handlers.OnThreadFinish(result)
		}
		return false
	}
	t.push(result)
	t.pc = fr.returnPC
	return true
}

const maxCallDepth = 4096
