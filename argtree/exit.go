package argtree

import (
	"errors"
	"reflect"
	"slices"

	"github.com/dzonerzy/go-argtree/middleware"
)

// ExitError requests a specific exit code from inside a handler.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "exit"
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCodeDefaults holds common default codes.
type ExitCodeDefaults struct {
	Success         int // default: 0
	GeneralError    int // default: 1
	MisusageError   int // default: 2
	ValidationError int // default: 3
}

func defaultExitDefaults() ExitCodeDefaults {
	return ExitCodeDefaults{Success: 0, GeneralError: 1, MisusageError: 2, ValidationError: 3}
}

type typeCode struct {
	typ  reflect.Type
	code int
}

// ExitCodeManager maps errors and categories to process exit codes.
type ExitCodeManager struct {
	codesByKind map[ErrorType]int
	// codesByType is kept in definition order; the latest definition is
	// tried first.
	codesByType []typeCode
	defaults    ExitCodeDefaults
}

// NewExitCodeManager returns a manager prewired for parse errors and
// middleware failures.
func NewExitCodeManager() *ExitCodeManager {
	m := &ExitCodeManager{
		codesByKind: make(map[ErrorType]int),
	}
	m.Default(defaultExitDefaults())
	return m
}

// DefineError maps the dynamic type of err to code. Ignored for nil.
func (e *ExitCodeManager) DefineError(err error, code int) *ExitCodeManager {
	if err == nil {
		return e
	}
	e.defineType(reflect.TypeOf(err), code)
	return e
}

// defineType moves t to the end of the definition order.
func (e *ExitCodeManager) defineType(t reflect.Type, code int) {
	e.codesByType = slices.DeleteFunc(e.codesByType, func(tc typeCode) bool { return tc.typ == t })
	e.codesByType = append(e.codesByType, typeCode{typ: t, code: code})
}

// DefineKind overrides the code of one parse error category.
func (e *ExitCodeManager) DefineKind(kind ErrorType, code int) *ExitCodeManager {
	e.codesByKind[kind] = code
	return e
}

// Default replaces the default codes and rewires the built-in categories.
func (e *ExitCodeManager) Default(d ExitCodeDefaults) *ExitCodeManager {
	e.defaults = d
	e.codesByKind[ErrorTypeUnknownCommand] = d.MisusageError
	e.codesByKind[ErrorTypeMissingRequired] = d.MisusageError
	e.codesByKind[ErrorTypeValidation] = d.ValidationError
	e.codesByKind[ErrorTypeConfiguration] = d.GeneralError
	e.codesByKind[ErrorTypeConfigFile] = d.GeneralError
	e.defineType(reflect.TypeOf(&middleware.TimeoutError{}), d.GeneralError)
	e.defineType(reflect.TypeOf(&middleware.RecoveryError{}), d.GeneralError)
	return e
}

// Resolve converts an error to an exit code.
// Precedence:
//  1. nil and ErrHelpShown (success)
//  2. ExitError (requested code)
//  3. ParseError category (DefineKind)
//  4. Concrete error type (DefineError), latest definition first
//  5. GeneralError
func (e *ExitCodeManager) Resolve(err error) int {
	if err == nil || errors.Is(err, ErrHelpShown) {
		return e.defaults.Success
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var pe ParseError
	if errors.As(err, &pe) {
		if code, ok := e.codesByKind[pe.Kind()]; ok {
			return code
		}
	}

	for i := len(e.codesByType) - 1; i >= 0; i-- {
		tc := e.codesByType[i]
		if errors.As(err, reflect.New(tc.typ).Interface()) {
			return tc.code
		}
	}
	return e.defaults.GeneralError
}
