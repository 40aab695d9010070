// Package token defines the lexical units of the formula language.
//
// Tokens form a tree: after bracket matching, every bracket pair is
// collapsed into a single composite token that owns the enclosed tokens
// as children.
package token

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token.
//
//nolint:revive // token.TokenType mirrors the naming used across the parser packages
type TokenType int

const (
	// ELEMENT is an identifier, number or other literal run of characters.
	ELEMENT TokenType = iota
	// OPERATOR is an arithmetic, comparison or logical operator.
	OPERATOR
	// SPLIT separates arguments (, or ，).
	SPLIT
	// END terminates a statement (; or ；).
	END
	// QUOTE is a quoted literal including its delimiters.
	QUOTE
	// BRACKET is a matched ( ) pair.
	BRACKET
	// ARRAY is a matched [ ] pair.
	ARRAY
	// FUNCTION is a matched { } pair, used for function bodies.
	FUNCTION

	// DELIMITER is an unmatched bracket character produced by the flat
	// scan. It never survives the bracket matching pass.
	DELIMITER
)

var tokenNames = map[TokenType]string{
	ELEMENT:   "element",
	OPERATOR:  "operator",
	SPLIT:     "split",
	END:       "end",
	QUOTE:     "quote",
	BRACKET:   "bracket",
	ARRAY:     "array",
	FUNCTION:  "function",
	DELIMITER: "delimiter",
}

// String returns a human-readable representation of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TOKEN(%d)", t)
}

// IsGroup reports whether the type is one of the composite bracket types.
func (t TokenType) IsGroup() bool {
	return t == BRACKET || t == ARRAY || t == FUNCTION
}

// Keywords recognized at the start of a statement.
const (
	KeywordVar      = "var"
	KeywordRef      = "ref"
	KeywordGlobal   = "global"
	KeywordFunction = "function"
	KeywordReturn   = "return"
	KeywordIf       = "if"
	KeywordElseIf   = "elseif"
	KeywordElse     = "else"
	KeywordFor      = "for"
)

// IsStubKeyword reports whether kw is a control-flow keyword that is parsed
// but never executed.
func IsStubKeyword(kw string) bool {
	switch kw {
	case KeywordIf, KeywordElseIf, KeywordElse, KeywordFor:
		return true
	}
	return false
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Content string
	// Name identifies a bracket token by kind and nesting path, for example
	// "bracket-0/array-1". Empty for other tokens.
	Name     string
	Span     Span
	Children []*Token
	Notes    []Note
}

// Is reports whether the token is of type typ with the given content.
func (t *Token) Is(typ TokenType, content string) bool {
	return t != nil && t.Type == typ && t.Content == content
}

// String renders the token for debugging.
func (t *Token) String() string {
	if t.Type.IsGroup() {
		parts := make([]string, len(t.Children))
		for i, c := range t.Children {
			parts[i] = c.String()
		}
		return fmt.Sprintf("%s[%s]", t.Type, strings.Join(parts, " "))
	}
	return t.Content
}

// Contents returns the Content of each token in toks.
func Contents(toks []*Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Content
	}
	return out
}
