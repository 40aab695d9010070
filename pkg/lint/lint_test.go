package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/lint"
	"github.com/supaloboto/sisuo/pkg/logic"
	"github.com/supaloboto/sisuo/pkg/parser"
	"github.com/supaloboto/sisuo/pkg/token"
)

func codes(diags []lint.Diagnostic) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code
	}
	return out
}

func TestCollect(t *testing.T) {
	toks, err := lexer.Tokenize("var a = b + 1")
	require.NoError(t, err)
	_, err = parser.NewAnalyser().GetAST(toks)
	require.NoError(t, err)

	diags := lint.Collect(toks)
	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, parser.CodeUnresolvedName, d.Code)
	assert.Equal(t, core.SeverityWarning, d.Severity)
	assert.Equal(t, token.Position{Row: 0, Col: 8, Offset: 8}, d.From)
	assert.Equal(t, token.Position{Row: 0, Col: 9, Offset: 9}, d.To)
	assert.Equal(t, "1:9: warning: 'b' is not declared before this point and is read as text [unresolved-name]", d.String())
}

func TestCheck_Clean(t *testing.T) {
	diags := lint.Check("var a = 1; ref b = a * 2;")
	assert.Empty(t, diags)
	assert.False(t, lint.HasErrors(diags))
}

func TestCheck_Resolution(t *testing.T) {
	src := "var a = b + 1; var b = 2;"

	single := lint.Check(src)
	assert.Equal(t, []string{parser.CodeUnresolvedName}, codes(single))

	two := lint.Check(src, lint.WithResolution(logic.TwoPass))
	assert.Empty(t, two, "two-pass resolution binds the forward reference")
}

func TestCheck_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		row  int
		col  int
	}{
		{"unbalanced bracket", "var a = (1 + 2", 0, 8},
		{"unknown statement", "var x = 1;\nfoo bar;", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := lint.Check(tt.src)
			require.NotEmpty(t, diags)
			last := diags[len(diags)-1]
			assert.Equal(t, lint.CodeSyntax, last.Code)
			assert.Equal(t, core.SeverityError, last.Severity)
			assert.Equal(t, tt.row, last.From.Row)
			assert.Equal(t, tt.col, last.From.Col)
			assert.True(t, lint.HasErrors(diags))
		})
	}
}

func TestCheck_Cycles(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		message string
	}{
		{"mutual", "ref a = b + 1; ref b = a + 1;", "dependency cycle: a -> b -> a"},
		{"self", "var x = x + 1", "dependency cycle: x -> x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := lint.Check(tt.src, lint.WithResolution(logic.TwoPass))
			require.Len(t, diags, 1)
			assert.Equal(t, lint.CodeDependencyCycle, diags[0].Code)
			assert.Equal(t, core.SeverityError, diags[0].Severity)
			assert.Equal(t, tt.message, diags[0].Message)
		})
	}
}

func TestCheck_Functions(t *testing.T) {
	t.Run("unused parameter", func(t *testing.T) {
		diags := lint.Check("function f(a, b) { return a * 2 } var z = f(1, 2);")
		require.Len(t, diags, 1)
		assert.Equal(t, lint.CodeUnusedParam, diags[0].Code)
		assert.Contains(t, diags[0].Message, "'b'")
	})

	t.Run("never called", func(t *testing.T) {
		diags := lint.Check("function g() { return 1 }")
		assert.Equal(t, []string{lint.CodeUnusedFunction}, codes(diags))
		assert.Equal(t, core.SeverityInfo, diags[0].Severity)
	})

	t.Run("recursion alone is not a use", func(t *testing.T) {
		diags := lint.Check("function f(n) { return IF(n < 1, 0, f(n - 1)) }")
		assert.Equal(t, []string{lint.CodeUnusedFunction}, codes(diags))
	})
}

func TestCheck_Stub(t *testing.T) {
	diags := lint.Check("if x > 1")
	assert.Contains(t, codes(diags), parser.CodeStubStatement)
}

func TestCheck_SortedByPosition(t *testing.T) {
	diags := lint.Check("var a = q; function g(p) { return 1 } var b = r;")
	require.Len(t, diags, 4)
	for i := 1; i < len(diags); i++ {
		assert.LessOrEqual(t, diags[i-1].From.Offset, diags[i].From.Offset)
	}
}

func TestConfig(t *testing.T) {
	src := "var a = q; function f(p) { return 1 } var z = f(1);"

	cfg := lint.NewConfig().
		Disable(lint.CodeUnusedParam).
		SetSeverity(parser.CodeUnresolvedName, core.SeverityError)

	diags := lint.Check(src, lint.WithConfig(cfg))
	require.Len(t, diags, 1)
	assert.Equal(t, parser.CodeUnresolvedName, diags[0].Code)
	assert.Equal(t, core.SeverityError, diags[0].Severity)

	counts := lint.Count(diags)
	assert.Equal(t, 1, counts[core.SeverityError])
}
