package lexer

import (
	"errors"
	"fmt"

	"github.com/supaloboto/sisuo/pkg/token"
)

// Sentinel errors wrapped by LexError; match them with errors.Is.
var (
	ErrUnbalancedBracket = errors.New("unbalanced bracket")
	ErrUnterminatedQuote = errors.New("unterminated quote")
)

// LexError represents a lexical analysis error.
type LexError struct {
	Span    token.Span
	Err     error
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lexer error at line %d, column %d: %s", e.Span.Start.Row+1, e.Span.Start.Col+1, e.Message)
}

func (e *LexError) Unwrap() error {
	return e.Err
}
