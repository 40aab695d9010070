package lexer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supaloboto/sisuo/pkg/token"
)

func TestTokenize_BracketGroup(t *testing.T) {
	src := "(1+2)"
	toks, err := Tokenize(src)
	require.NoError(t, err)
	require.Len(t, toks, 1)

	group := toks[0]
	assert.Equal(t, token.BRACKET, group.Type)
	assert.Equal(t, "bracket-0", group.Name)
	assert.Equal(t, []string{"1", "+", "2"}, token.Contents(group.Children))
	assert.Equal(t, token.Position{Row: 0, Col: 0, Offset: 0}, group.Span.Start)
	assert.Equal(t, token.Position{Row: 0, Col: 5, Offset: 5}, group.Span.End)
	assert.Equal(t, src, group.Span.Text(src))

	for _, c := range group.Children {
		assert.Equal(t, c.Content, c.Span.Text(src))
	}
}

func TestTokenize_Delimiters(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		types    []token.TokenType
		contents []string
	}{
		{
			name:     "declaration",
			input:    "var x = 1 + 2;",
			types:    []token.TokenType{token.ELEMENT, token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT, token.END},
			contents: []string{"var", "x", "=", "1", "+", "2", ";"},
		},
		{
			name:     "two char operators",
			input:    "a>=b<>c!=d==e<=f",
			types:    []token.TokenType{token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT},
			contents: []string{"a", ">=", "b", "<>", "c", "!=", "d", "==", "e", "<=", "f"},
		},
		{
			name:     "logical operators",
			input:    "a&&b||c&d",
			types:    []token.TokenType{token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT, token.OPERATOR, token.ELEMENT},
			contents: []string{"a", "&&", "b", "||", "c", "&", "d"},
		},
		{
			name:     "full width punctuation",
			input:    "a，b；",
			types:    []token.TokenType{token.ELEMENT, token.SPLIT, token.ELEMENT, token.END},
			contents: []string{"a", "，", "b", "；"},
		},
		{
			name:     "quotes keep delimiters",
			input:    `"a b" 'c' “d e”`,
			types:    []token.TokenType{token.QUOTE, token.QUOTE, token.QUOTE},
			contents: []string{`"a b"`, `'c'`, `“d e”`},
		},
		{
			name:     "unknown run stays an element",
			input:    "1 @@ 2",
			types:    []token.TokenType{token.ELEMENT, token.ELEMENT, token.ELEMENT},
			contents: []string{"1", "@@", "2"},
		},
		{
			name:     "decimal and reference",
			input:    "@price*0.5",
			types:    []token.TokenType{token.ELEMENT, token.OPERATOR, token.ELEMENT},
			contents: []string{"@price", "*", "0.5"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			require.NoError(t, err)
			types := make([]token.TokenType, len(toks))
			for i, tok := range toks {
				types[i] = tok.Type
			}
			assert.Equal(t, tt.types, types)
			assert.Equal(t, tt.contents, token.Contents(toks))
		})
	}
}

func TestTokenize_Positions(t *testing.T) {
	src := "var a = 1;\n  ref b = a;"
	toks, err := Tokenize(src)
	require.NoError(t, err)
	require.Len(t, toks, 10)

	b := toks[6]
	assert.Equal(t, "b", b.Content)
	assert.Equal(t, token.Position{Row: 1, Col: 6, Offset: 17}, b.Span.Start)
	assert.Equal(t, token.Position{Row: 1, Col: 7, Offset: 18}, b.Span.End)

	for _, tok := range toks {
		assert.Equal(t, tok.Content, tok.Span.Text(src))
	}
}

func TestTokenize_NestedNames(t *testing.T) {
	toks, err := Tokenize("f((a)[b]){c}")
	require.NoError(t, err)
	require.Len(t, toks, 3)

	assert.Equal(t, "bracket-0", toks[1].Name)
	require.Len(t, toks[1].Children, 2)
	assert.Equal(t, "bracket-0/bracket-0", toks[1].Children[0].Name)
	assert.Equal(t, "bracket-0/array-1", toks[1].Children[1].Name)
	assert.Equal(t, token.ARRAY, toks[1].Children[1].Type)
	assert.Equal(t, token.FUNCTION, toks[2].Type)
	assert.Equal(t, "function-1", toks[2].Name)
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"unclosed", "(1+2", ErrUnbalancedBracket},
		{"stray closer", "1+2)", ErrUnbalancedBracket},
		{"mismatched", "(1+2]", ErrUnbalancedBracket},
		{"nested unclosed", "((1)", ErrUnbalancedBracket},
		{"unterminated quote", `"abc`, ErrUnterminatedQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var lexErr *LexError
			require.ErrorAs(t, err, &lexErr)
		})
	}
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "abc", Unquote(`"abc"`))
	assert.Equal(t, "abc", Unquote(`'abc'`))
	assert.Equal(t, "中文", Unquote(`“中文”`))
	assert.Equal(t, "", Unquote(`""`))
	assert.Equal(t, "x", Unquote("x"))
}
