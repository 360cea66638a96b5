package vm

import (
	"fmt"
	"math"

	"github.com/emberlang/ember/internal/diag"
	"github.com/emberlang/ember/internal/gc"
	"github.com/emberlang/ember/internal/opcode"
)

func sprintf(format string, args ...interface{}) string { return fmt.Sprintf(format, args...) }

func float32FromBits(bits int32) float32 { return math.Float32frombits(uint32(bits)) }

func boolValue(b bool) gc.Value {
	if b {
		return gc.Int(1)
	}
	return gc.Int(0)
}

// truthy follows spec.md's truthiness rule: none and integer zero are
// false, everything else (including the float 0.0 and the empty string)
// is true — truthiness is a property of `none`/`0`, not of emptiness.
func truthy(v gc.Value) bool {
	switch v.Tag {
	case gc.TagNone:
		return false
	case gc.TagInt:
		return v.Int != 0
	default:
		return true
	}
}

func asFloat(v gc.Value) (float32, bool) {
	switch v.Tag {
	case gc.TagInt:
		return float32(v.Int), true
	case gc.TagFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// binArith implements ADD/SUB/MUL/DIV/MOD over int/int, float-involving,
// and (ADD only) string-concatenation operand pairs. Any other type
// combination is handed to the matching embedder hook, or reported as
// BadTypeOperation if none is registered.
func (t *Thread) binArith(op opcode.Op, hook func(a, b gc.Value) (gc.Value, *diag.Error)) bool {
	b := t.pop()
	a := t.pop()

	if a.Tag == gc.TagInt && b.Tag == gc.TagInt {
		v, err := intArith(op, a.Int, b.Int)
		if err != nil {
			t.err = err
			return false
		}
		t.push(v)
		return true
	}

	if af, aok := asFloat(a); aok {
		if bf, bok := asFloat(b); bok {
			t.push(gc.Float(floatArith(op, af, bf)))
			return true
		}
	}

	if op == opcode.Add && (a.Tag == gc.TagString || b.Tag == gc.TagString) {
		v, err := t.Heap.NewString(t.stringify(a)+t.stringify(b), t.roots())
		if err != nil {
			t.err = err
			return false
		}
		t.push(v)
		return true
	}

	if hook != nil {
		v, err := hook(a, b)
		if err != nil {
			t.err = err
			return false
		}
		t.push(v)
		return true
	}
	return t.fail(diag.BadTypeOperation, "unsupported operand types for %s", op)
}

// stringify renders v the way '+' stringifies a non-string operand against
// a string one (spec.md §4.7: string+anything concatenates the other
// operand's textual form), matching the builtin print syscall's formatting.
func (t *Thread) stringify(v gc.Value) string {
	switch v.Tag {
	case gc.TagString:
		return t.Heap.String(v)
	case gc.TagInt:
		return sprintf("%d", v.Int)
	case gc.TagFloat:
		return sprintf("%v", v.Float)
	case gc.TagNone:
		return "none"
	default:
		return sprintf("%v", v)
	}
}

func intArith(op opcode.Op, a, b int32) (gc.Value, *diag.Error) {
	switch op {
	case opcode.Add:
		return gc.Int(a + b), nil
	case opcode.Sub:
		return gc.Int(a - b), nil
	case opcode.Mul:
		return gc.Int(a * b), nil
	case opcode.Div:
		if b == 0 {
			return gc.Value{}, &diag.Error{Kind: diag.BadDivideByZero, Msg: "integer division by zero"}
		}
		return gc.Int(a / b), nil
	case opcode.Mod:
		if b == 0 {
			return gc.Value{}, &diag.Error{Kind: diag.BadDivideByZero, Msg: "integer modulo by zero"}
		}
		return gc.Int(a % b), nil
	default:
		return gc.Value{}, &diag.Error{Kind: diag.BadOpcode, Msg: "not an arithmetic opcode"}
	}
}

func floatArith(op opcode.Op, a, b float32) float32 {
	switch op {
	case opcode.Add:
		return a + b
	case opcode.Sub:
		return a - b
	case opcode.Mul:
		return a * b
	case opcode.Div:
		return a / b
	case opcode.Mod:
		return float32(math.Mod(float64(a), float64(b)))
	default:
		return 0
	}
}

func (t *Thread) unaryNeg() bool {
	v := t.pop()
	switch v.Tag {
	case gc.TagInt:
		t.push(gc.Int(-v.Int))
	case gc.TagFloat:
		t.push(gc.Float(-v.Float))
	default:
		return t.fail(diag.BadTypeOperation, "unary '-' requires a number")
	}
	return true
}

func (t *Thread) compare(op opcode.Op) bool {
	b := t.pop()
	a := t.pop()

	if op == opcode.Eq {
		t.push(boolValue(valuesEqual(t, a, b)))
		return true
	}

	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return t.fail(diag.BadTypeOperation, "relational operator requires numeric operands")
	}
	var result bool
	switch op {
	case opcode.Lt:
		result = af < bf
	case opcode.Gt:
		result = af > bf
	case opcode.Le:
		result = af <= bf
	case opcode.Ge:
		result = af >= bf
	}
	t.push(boolValue(result))
	return true
}

func valuesEqual(t *Thread, a, b gc.Value) bool {
	if a.Tag != b.Tag {
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			return af == bf
		}
		return false
	}
	switch a.Tag {
	case gc.TagNone:
		return true
	case gc.TagInt:
		return a.Int == b.Int
	case gc.TagFloat:
		return a.Float == b.Float
	case gc.TagString:
		return t.Heap.String(a) == t.Heap.String(b)
	case gc.TagFunc, gc.TagSyscall:
		return a.FuncIndex == b.FuncIndex
	case gc.TagArray:
		return a.Ref == b.Ref
	default:
		return false
	}
}
