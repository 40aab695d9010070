package parser

import (
	"errors"
	"fmt"

	"github.com/supaloboto/sisuo/pkg/token"
)

// Sentinel errors wrapped by ParseError; match them with errors.Is.
var (
	ErrUndefinedFunction    = errors.New("undefined function")
	ErrUnknownStatement     = errors.New("unknown statement")
	ErrUnrecognizedOperator = errors.New("unrecognized operator")
	ErrMissingOperand       = errors.New("missing operand")
	ErrDuplicateDeclaration = errors.New("duplicate declaration")
	ErrUndefinedVariable    = errors.New("undefined variable")
)

// ParseError represents a parsing error with position information.
type ParseError struct {
	Span    token.Span
	Err     error
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Span.Start.Row+1, e.Span.Start.Col+1, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func errorAt(tok *token.Token, kind error, format string, args ...any) *ParseError {
	var span token.Span
	if tok != nil {
		span = tok.Span
	}
	return &ParseError{Span: span, Err: kind, Message: fmt.Sprintf(format, args...)}
}

// Annotation codes attached to tokens for diagnostics.
const (
	CodeUnresolvedName = "unresolved-name"
	CodeStubStatement  = "stub-statement"
	CodeShadowed       = "shadowed-name"
)
