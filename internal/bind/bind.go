// Package bind introspects a Go package and produces Ember syscall
// bindings for its eligible exported functions, following
// gowrap/introspect.go's use of golang.org/x/tools/go/packages type
// information to build a language-neutral function model, restricted
// here to the scalar shapes Ember's Value can actually carry (spec.md's
// syscall interface only exchanges int/float/string, never Go structs).
package bind

import (
	"fmt"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// ParamKind is one of the argument/result shapes bindgen knows how to
// convert to and from an Ember Value.
type ParamKind int

const (
	KindInt ParamKind = iota
	KindFloat
	KindString
)

// Param pairs the broad conversion category (used to pick the gc.Value
// field to read or the constructor to call) with the exact Go type string
// the call site must cast to or from, since a category like KindFloat
// covers both float32 and float64.
type Param struct {
	Kind   ParamKind
	GoType string
}

// Binding describes one exported function eligible for syscall glue.
type Binding struct {
	GoName  string
	Params  []Param
	Result  Param
	HasVoid bool // true if the Go func returns nothing; bound as returning none
}

// Discover loads importPath and returns a Binding for every exported
// top-level function whose signature is entirely int32/float32/string
// parameters with zero or one int32/float32/string result. Functions with
// any other parameter or result type, multiple results, or a trailing
// error result are silently skipped — spec.md's syscalls have no
// exception channel, so a Go function that can fail isn't bindable
// without a wrapper the embedder writes by hand.
func Discover(importPath string) ([]Binding, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax}
	pkgs, err := packages.Load(cfg, importPath)
	if err != nil {
		return nil, fmt.Errorf("bind: loading %s: %w", importPath, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("bind: no packages found for %s", importPath)
	}
	pkg := pkgs[0]
	if len(pkg.Errors) > 0 {
		return nil, fmt.Errorf("bind: package errors in %s: %v", importPath, pkg.Errors)
	}
	if pkg.Types == nil {
		return nil, fmt.Errorf("bind: no type information for %s", importPath)
	}

	scope := pkg.Types.Scope()
	var bindings []Binding
	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		fn, ok := obj.(*types.Func)
		if !ok || !fn.Exported() {
			continue
		}
		if b, ok := bindingFor(fn); ok {
			bindings = append(bindings, b)
		}
	}
	return bindings, nil
}

func bindingFor(fn *types.Func) (Binding, bool) {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() != nil || sig.Variadic() {
		return Binding{}, false
	}

	b := Binding{GoName: fn.Name()}
	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p, ok := paramOf(params.At(i).Type())
		if !ok {
			return Binding{}, false
		}
		b.Params = append(b.Params, p)
	}

	switch sig.Results().Len() {
	case 0:
		b.HasVoid = true
	case 1:
		p, ok := paramOf(sig.Results().At(0).Type())
		if !ok {
			return Binding{}, false
		}
		b.Result = p
	default:
		return Binding{}, false
	}
	return b, true
}

func paramOf(t types.Type) (Param, bool) {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return Param{}, false
	}
	goType := basic.Name()
	switch basic.Kind() {
	case types.Int, types.Int8, types.Int16, types.Int32, types.Int64,
		types.Uint, types.Uint8, types.Uint16, types.Uint32, types.Uint64:
		return Param{Kind: KindInt, GoType: goType}, true
	case types.Float32, types.Float64:
		return Param{Kind: KindFloat, GoType: goType}, true
	case types.String:
		return Param{Kind: KindString, GoType: goType}, true
	default:
		return Param{}, false
	}
}
