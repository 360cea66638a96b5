// Package gc implements the heap backing Ember's string and array values:
// a two-space copying collector in the Cheney style. There is no pack
// example implementing a moving garbage collector (see DESIGN.md), so this
// package follows the algorithm description directly rather than a
// specific teacher file; its API shape (an explicit Heap the VM drives,
// rather than relying on Go's own GC for interpreted-language values)
// still follows this codebase's habit of making resource lifetimes
// explicit types instead of implicit ambient state.
package gc

import "github.com/emberlang/ember/internal/diag"

// Tag identifies the variant a Value holds.
type Tag byte

const (
	TagNone Tag = iota
	TagInt
	TagFloat
	TagString
	TagArray
	TagFunc
	TagSyscall
)

// Value is the tagged union every Ember runtime slot holds. Scalars (none,
// int, float, function/syscall references) are stored inline; strings and
// arrays are heap objects, referenced by Ref, an index into the Heap's
// current space.
type Value struct {
	Tag       Tag
	Int       int32
	Float     float32
	FuncIndex int32 // valid when Tag is TagFunc or TagSyscall
	Ref       int32 // valid when Tag is TagString or TagArray; -1 otherwise
}

func None() Value                 { return Value{Tag: TagNone, Ref: -1} }
func Int(v int32) Value           { return Value{Tag: TagInt, Int: v, Ref: -1} }
func Float(v float32) Value       { return Value{Tag: TagFloat, Float: v, Ref: -1} }
func Func(idx int32) Value        { return Value{Tag: TagFunc, FuncIndex: idx, Ref: -1} }
func Syscall(idx int32) Value     { return Value{Tag: TagSyscall, FuncIndex: idx, Ref: -1} }

// object is the payload of a heap-allocated value. Only stringObj and
// arrayObj exist; arrayObj.Elems may itself hold TagArray/TagString values,
// so tracing must recurse.
type object interface{ isObject() }

type stringObj struct{ s string }
type arrayObj struct{ elems []Value }

func (stringObj) isObject() {}
func (arrayObj) isObject()  {}

// Heap is a two-space copying collector. Alloc* methods bump-allocate into
// the current (from-)space and trigger Collect automatically when the
// space fills; Collect traces every live object reachable from the roots
// passed to it, copies each into the other space exactly once (via a
// forwarding table keyed by old index, which also dedups repeated
// references to the same array/string), and swaps spaces.
type Heap struct {
	space     []object
	limit     int
	forwarded map[int32]int32
}

// NewHeap creates a Heap whose from-space holds at most limit live objects
// before a Collect is required.
func NewHeap(limit int) *Heap {
	return &Heap{space: make([]object, 0, limit), limit: limit}
}

// Roots bundles every place a Value can live outside the heap itself: the
// VM's operand stack (sliced per active frame or whole, caller's choice)
// and the global table. Collect rewrites Refs in place across both.
type Roots struct {
	Stack   []Value
	Globals []Value
}

// NewString allocates a string object, collecting first if the heap is
// full. Returns diag.OutOfMemory if the live set still doesn't fit after
// a collection.
func (h *Heap) NewString(s string, roots Roots) (Value, *diag.Error) {
	if len(h.space) >= h.limit {
		h.Collect(roots)
		if len(h.space) >= h.limit {
			return Value{}, &diag.Error{Kind: diag.OutOfMemory, Msg: "heap exhausted allocating string"}
		}
	}
	idx := len(h.space)
	h.space = append(h.space, stringObj{s: s})
	return Value{Tag: TagString, Ref: int32(idx)}, nil
}

// NewArray allocates an array of n none-initialized elements.
func (h *Heap) NewArray(n int, roots Roots) (Value, *diag.Error) {
	if len(h.space) >= h.limit {
		h.Collect(roots)
		if len(h.space) >= h.limit {
			return Value{}, &diag.Error{Kind: diag.OutOfMemory, Msg: "heap exhausted allocating array"}
		}
	}
	elems := make([]Value, n)
	for i := range elems {
		elems[i] = None()
	}
	idx := len(h.space)
	h.space = append(h.space, arrayObj{elems: elems})
	return Value{Tag: TagArray, Ref: int32(idx)}, nil
}

// String dereferences a TagString value.
func (h *Heap) String(v Value) string {
	return h.space[v.Ref].(stringObj).s
}

// ArrayLen returns the element count of a TagArray value.
func (h *Heap) ArrayLen(v Value) int {
	return len(h.space[v.Ref].(arrayObj).elems)
}

// ArrayGet and ArraySet access one element of a TagArray value.
func (h *Heap) ArrayGet(v Value, i int) Value {
	return h.space[v.Ref].(arrayObj).elems[i]
}

func (h *Heap) ArraySet(v Value, i int, val Value) {
	h.space[v.Ref].(arrayObj).elems[i] = val
}

// Collect runs one copying collection: trace every heap reference
// transitively reachable from roots, copy each reached object into a
// fresh to-space exactly once, rewrite every Ref that pointed at it (in
// roots and in already-copied arrays), then swap the to-space in as the
// new from-space.
func (h *Heap) Collect(roots Roots) {
	to := make([]object, 0, h.limit)
	h.forwarded = make(map[int32]int32, len(h.space))

	for i := range roots.Stack {
		roots.Stack[i] = h.copyValue(roots.Stack[i], &to)
	}
	for i := range roots.Globals {
		roots.Globals[i] = h.copyValue(roots.Globals[i], &to)
	}

	h.space = to
	h.forwarded = nil
}

// copyValue copies v's referent (if any) into *to, returning v with Ref
// updated to the new location. Scalars pass through unchanged.
func (h *Heap) copyValue(v Value, to *[]object) Value {
	if v.Tag != TagString && v.Tag != TagArray {
		return v
	}
	if newIdx, ok := h.forwarded[v.Ref]; ok {
		v.Ref = newIdx
		return v
	}

	oldIdx := v.Ref
	switch obj := h.space[oldIdx].(type) {
	case stringObj:
		newIdx := int32(len(*to))
		h.forwarded[oldIdx] = newIdx
		*to = append(*to, obj)
		v.Ref = newIdx

	case arrayObj:
		// Reserve the slot before recursing so a cycle or a repeated
		// self-reference sees the forwarding entry rather than looping.
		newIdx := int32(len(*to))
		h.forwarded[oldIdx] = newIdx
		copied := arrayObj{elems: make([]Value, len(obj.elems))}
		*to = append(*to, copied)
		for i, elem := range obj.elems {
			copied.elems[i] = h.copyValue(elem, to)
		}
		(*to)[newIdx] = copied
		v.Ref = newIdx
	}
	return v
}

// Live reports the number of objects in the current space, for tests and
// diagnostics.
func (h *Heap) Live() int { return len(h.space) }
