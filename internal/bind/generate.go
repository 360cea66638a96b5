package bind

import (
	"fmt"
	"sort"
	"strings"
)

// Generate emits Go source for a package-level RegisterSyscalls function
// that wires each discovered binding into a vm.Syscall closure converting
// between gc.Value and the Go function's native argument types.
func Generate(pkgName, importPath string, bindings []Binding) string {
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].GoName < bindings[j].GoName })

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by ember-bindgen from %s. DO NOT EDIT.\n", importPath)
	fmt.Fprintf(&b, "package %s\n\n", pkgName)
	b.WriteString("import (\n")
	fmt.Fprintf(&b, "\t%q\n\n", importPath)
	b.WriteString("\t\"github.com/emberlang/ember/internal/diag\"\n")
	b.WriteString("\t\"github.com/emberlang/ember/internal/gc\"\n")
	b.WriteString("\t\"github.com/emberlang/ember/internal/vm\"\n")
	b.WriteString(")\n\n")

	b.WriteString("// RegisterSyscalls binds every eligible exported function of the wrapped\n")
	b.WriteString("// package as an Ember syscall under its Go name.\n")
	b.WriteString("func RegisterSyscalls(syscalls map[string]vm.Syscall) {\n")
	for _, bd := range bindings {
		fmt.Fprintf(&b, "\tsyscalls[%q] = %s\n", bd.GoName, wrapperName(bd.GoName))
	}
	b.WriteString("}\n\n")

	for _, bd := range bindings {
		writeWrapper(&b, importPath, bd)
	}
	return b.String()
}

func wrapperName(goName string) string {
	return "wrap" + goName
}

func writeWrapper(b *strings.Builder, importPath string, bd Binding) {
	pkgRef := pkgRefOf(importPath)
	fmt.Fprintf(b, "func %s(t *vm.Thread, args []gc.Value) (gc.Value, *diag.Error) {\n", wrapperName(bd.GoName))
	fmt.Fprintf(b, "\tif len(args) != %d {\n", len(bd.Params))
	fmt.Fprintf(b, "\t\treturn gc.None(), &diag.Error{Kind: diag.BadNumArgs, Msg: \"%s expects %d arguments\"}\n", bd.GoName, len(bd.Params))
	b.WriteString("\t}\n")

	callArgs := make([]string, len(bd.Params))
	for i, p := range bd.Params {
		name := fmt.Sprintf("a%d", i)
		callArgs[i] = name
		switch p.Kind {
		case KindInt:
			fmt.Fprintf(b, "\t%s := %s(args[%d].Int)\n", name, p.GoType, i)
		case KindFloat:
			fmt.Fprintf(b, "\t%s := %s(args[%d].Float)\n", name, p.GoType, i)
		case KindString:
			fmt.Fprintf(b, "\t%s := t.Heap.String(args[%d])\n", name, i)
		}
	}

	call := fmt.Sprintf("%s.%s(%s)", pkgRef, bd.GoName, strings.Join(callArgs, ", "))
	switch {
	case bd.HasVoid:
		fmt.Fprintf(b, "\t%s\n", call)
		b.WriteString("\treturn gc.None(), nil\n")
	case bd.Result.Kind == KindString:
		fmt.Fprintf(b, "\tresult := %s\n", call)
		b.WriteString("\treturn t.Heap.NewString(result, t.Roots())\n")
	case bd.Result.Kind == KindFloat:
		fmt.Fprintf(b, "\tresult := %s\n", call)
		b.WriteString("\treturn gc.Float(float32(result)), nil\n")
	default:
		fmt.Fprintf(b, "\tresult := %s\n", call)
		b.WriteString("\treturn gc.Int(int32(result)), nil\n")
	}
	b.WriteString("}\n\n")
}

func pkgRefOf(importPath string) string {
	parts := strings.Split(importPath, "/")
	return parts[len(parts)-1]
}
