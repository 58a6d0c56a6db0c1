/*
File    : go-ifj21/errs/errs.go
*/

// Package errs defines the compiler's diagnostic kinds and the single error
// type every pipeline stage returns. The first error aborts compilation and
// its kind becomes the process exit code.
package errs

import "fmt"

// Kind classifies a diagnostic. Undef and Redef are distinct kinds that share
// an exit code; the collapse happens only at the process boundary.
type Kind int

const (
	KindLex Kind = iota
	KindSyntax
	KindUndef
	KindRedef
	KindAssign
	KindCallType
	KindExprType
	KindSemantic
	KindNil
	KindZeroDiv
	KindInternal
)

// ExitCode maps a kind to the process exit code.
func (k Kind) ExitCode() int {
	switch k {
	case KindLex:
		return 1
	case KindSyntax:
		return 2
	case KindUndef, KindRedef:
		return 3
	case KindAssign:
		return 4
	case KindCallType:
		return 5
	case KindExprType:
		return 6
	case KindSemantic:
		return 7
	case KindNil:
		return 8
	case KindZeroDiv:
		return 9
	}
	return 99
}

func (k Kind) String() string {
	switch k {
	case KindLex:
		return "lexical error"
	case KindSyntax:
		return "syntax error"
	case KindUndef:
		return "undefined identifier"
	case KindRedef:
		return "redefinition"
	case KindAssign:
		return "assignment type mismatch"
	case KindCallType:
		return "call type mismatch"
	case KindExprType:
		return "expression type mismatch"
	case KindSemantic:
		return "semantic error"
	case KindNil:
		return "unexpected nil"
	case KindZeroDiv:
		return "division by zero"
	}
	return "internal error"
}

// Error is the one concrete error the pipeline produces. Row and Column are
// 1-based source coordinates; zero means the position is unknown.
type Error struct {
	Kind    Kind
	Row     int
	Column  int
	Message string
}

func (e *Error) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("error%d:%d: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("error: %s", e.Message)
}

// New builds a positioned error.
func New(kind Kind, row, column int, format string, args ...any) *Error {
	return &Error{Kind: kind, Row: row, Column: column, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an internal-compiler error with no position.
func Internal(format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the kind from an error, defaulting to internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	if e, ok := err.(*Error); ok {
		return e.Kind
	}
	return KindInternal
}
