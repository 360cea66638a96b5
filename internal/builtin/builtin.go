// Package builtin provides the small set of host syscalls the ember CLI
// registers before building a program: the minimal I/O and math primitives
// spec.md §1 names as examples of embedder-supplied syscalls (putc, plot,
// rand) without specifying their behavior, since syscalls are explicitly an
// external collaborator rather than core-spec surface.
package builtin

import (
	"fmt"
	"math/rand"

	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gc"
	"github.com/emberlang/ember/internal/vm"
)

// Entry names one syscall, the argument count scripts must call it with
// (used to size the synthetic declaration sema resolves calls against),
// and its implementation.
type Entry struct {
	Name  string
	Arity int
	Fn    vm.Syscall
}

// All returns the standard builtin syscalls in a stable order, so the
// caller can derive matching sema.SyscallSpec and vm.Syscall slices by
// index without a second lookup step.
func All() []Entry {
	return []Entry{
		{Name: "putc", Arity: 1, Fn: putc},
		{Name: "print", Arity: 1, Fn: print_},
		{Name: "rand", Arity: 1, Fn: randInt},
		{Name: "len", Arity: 1, Fn: length},
	}
}

func putc(t *vm.Thread, args []gc.Value) (gc.Value, *diag.Error) {
	if len(args) != 1 {
		return gc.None(), &diag.Error{Kind: diag.BadNumArgs, Msg: "putc expects 1 argument"}
	}
	fmt.Printf("%c", byte(args[0].Int))
	return gc.None(), nil
}

func print_(t *vm.Thread, args []gc.Value) (gc.Value, *diag.Error) {
	if len(args) != 1 {
		return gc.None(), &diag.Error{Kind: diag.BadNumArgs, Msg: "print expects 1 argument"}
	}
	v := args[0]
	switch v.Tag {
	case gc.TagInt:
		fmt.Println(v.Int)
	case gc.TagFloat:
		fmt.Println(v.Float)
	case gc.TagString:
		fmt.Println(t.Heap.String(v))
	case gc.TagNone:
		fmt.Println("none")
	default:
		fmt.Println(v)
	}
	return gc.None(), nil
}

func randInt(t *vm.Thread, args []gc.Value) (gc.Value, *diag.Error) {
	if len(args) != 1 {
		return gc.None(), &diag.Error{Kind: diag.BadNumArgs, Msg: "rand expects 1 argument"}
	}
	bound := args[0].Int
	if bound <= 0 {
		return gc.None(), &diag.Error{Kind: diag.BadNumArgs, Msg: "rand bound must be positive"}
	}
	return gc.Int(rand.Int31n(bound)), nil
}

func length(t *vm.Thread, args []gc.Value) (gc.Value, *diag.Error) {
	if len(args) != 1 {
		return gc.None(), &diag.Error{Kind: diag.BadNumArgs, Msg: "len expects 1 argument"}
	}
	v := args[0]
	switch v.Tag {
	case gc.TagString:
		return gc.Int(int32(len(t.Heap.String(v)))), nil
	case gc.TagArray:
		return gc.Int(int32(t.Heap.ArrayLen(v))), nil
	default:
		return gc.None(), &diag.Error{Kind: diag.BadTypeOperation, Msg: "len requires a string or array"}
	}
}
