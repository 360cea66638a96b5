// Package diag is the shared error manager used by every compiler phase and
// by the VM. It records the first failure and a phase-aborted flag — spec.md
// §7's propagation policy — instead of throwing through FFI-incompatible
// exception layers the way the source implementation this spec was distilled
// from does (see spec.md §9).
package diag

import "fmt"

// Kind is the closed set of error kinds from spec.md §7.
type Kind int

const (
	// Lex errors.
	UnexpectedCharacter Kind = iota

	// Parse errors.
	UnexpectedToken
	ExpectingLitOrIdent
	AssignOrCallExpected
	StatementExpected

	// Semantic errors.
	UnknownVariable
	UnknownArray
	UnknownFunction
	UnknownIdentifier
	VarAlreadyExists
	FunctionAlreadyExists
	IdentIsArrayNotVar
	VariableIsNotArray
	ArrayRequiresSubscript
	ExpectedFuncCall
	TooManyArgs
	NotEnoughArgs
	ArraySizeMustBeGreaterThan
	BadArrayInitValue
	GlobalVarConstExpr
	ConstantDivideByZero

	// Assembler error.
	ProgramTooLarge

	// Runtime errors.
	BadGetV
	BadSetV
	BadNumArgs
	BadSyscall
	BadOpcode
	BadGetGlobal
	BadSetGlobal
	BadPop
	BadDivideByZero
	BadTypeOperation
	BadArrayObject
	BadArrayIndex
	BadArrayBounds
	StackOverflow
	StackUnderflow
	MaxCycleCount
	BadMemberAccess
	OutOfMemory
)

var names = map[Kind]string{
	UnexpectedCharacter:        "unexpected_character",
	UnexpectedToken:            "unexpected_token",
	ExpectingLitOrIdent:        "expecting_lit_or_ident",
	AssignOrCallExpected:       "assign_or_call_expected",
	StatementExpected:          "statement_expected",
	UnknownVariable:            "unknown_variable",
	UnknownArray:               "unknown_array",
	UnknownFunction:            "unknown_function",
	UnknownIdentifier:          "unknown_identifier",
	VarAlreadyExists:           "var_already_exists",
	FunctionAlreadyExists:      "function_already_exists",
	IdentIsArrayNotVar:         "ident_is_array_not_var",
	VariableIsNotArray:         "variable_is_not_array",
	ArrayRequiresSubscript:     "array_requires_subscript",
	ExpectedFuncCall:           "expected_func_call",
	TooManyArgs:                "too_many_args",
	NotEnoughArgs:              "not_enough_args",
	ArraySizeMustBeGreaterThan: "array_size_must_be_greater_than",
	BadArrayInitValue:          "bad_array_init_value",
	GlobalVarConstExpr:         "global_var_const_expr",
	ConstantDivideByZero:       "constant_divide_by_zero",
	ProgramTooLarge:            "program_too_large",
	BadGetV:                    "bad_getv",
	BadSetV:                    "bad_setv",
	BadNumArgs:                 "bad_num_args",
	BadSyscall:                 "bad_syscall",
	BadOpcode:                  "bad_opcode",
	BadGetGlobal:               "bad_get_global",
	BadSetGlobal:               "bad_set_global",
	BadPop:                     "bad_pop",
	BadDivideByZero:            "bad_divide_by_zero",
	BadTypeOperation:           "bad_type_operation",
	BadArrayObject:             "bad_array_object",
	BadArrayIndex:              "bad_array_index",
	BadArrayBounds:             "bad_array_bounds",
	StackOverflow:              "stack_overflow",
	StackUnderflow:             "stack_underflow",
	MaxCycleCount:              "max_cycle_count",
	BadMemberAccess:            "bad_member_access",
	OutOfMemory:                "out_of_memory",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is a single diagnostic: a kind, the source line it occurred at (0 if
// unknown), and a rendered message.
type Error struct {
	Kind Kind
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line:%d - %s", e.Line, e.Msg)
	}
	return e.Msg
}

// Manager accumulates diagnostics for one compiler phase, keeping only the
// first. Downstream phases should not run once a Manager has an error.
type Manager struct {
	first *Error
}

// Report records err as the phase's diagnostic if none has been recorded yet.
// Later calls are no-ops: the manager always keeps the FIRST failure.
func (m *Manager) Report(kind Kind, line int, format string, args ...interface{}) {
	if m.first != nil {
		return
	}
	m.first = &Error{Kind: kind, Line: line, Msg: fmt.Sprintf(format, args...)}
}

// Failed reports whether any diagnostic has been recorded.
func (m *Manager) Failed() bool { return m.first != nil }

// Err returns the first recorded diagnostic, or nil.
func (m *Manager) Err() *Error { return m.first }
