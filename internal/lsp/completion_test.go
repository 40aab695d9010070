package lsp

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/token"
)

const invoiceScript = `var qty = @qty;
var price = 12.5;
ref total = qty * price;
function sq(a) { var inner = a; return inner * inner }
var area = sq(3);`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServerWithLogger(strings.NewReader(""), io.Discard, slog.New(slog.DiscardHandler))
	s.params = map[string]formula.Value{"@qty": formula.Number(4)}
	return s
}

func labels(items []CompletionItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestScanSymbols(t *testing.T) {
	toks, err := lexer.Tokenize(invoiceScript)
	require.NoError(t, err)

	syms := scanSymbols(toks)
	var got []string
	for _, s := range syms {
		got = append(got, s.Kind+" "+s.Name)
	}
	assert.Equal(t, []string{
		"var qty", "var price", "ref total", "function sq", "param a", "var inner", "var area",
	}, got)

	assert.Equal(t, token.Position{Row: 1, Col: 4, Offset: len("var qty = @qty;\nvar ")}, syms[1].Span.Start)
	assert.Equal(t, []string{"@qty"}, scanParams(toks))
}

func TestGetCompletions(t *testing.T) {
	s := newTestServer(t)
	doc := newDocument("file:///inv.ss", invoiceScript+"\nref x = @other + @q", 1)

	t.Run("declared names first", func(t *testing.T) {
		items := s.getCompletions(doc, "")
		got := labels(items)
		require.GreaterOrEqual(t, len(got), 12)
		assert.Equal(t, []string{"a", "area", "inner", "price", "qty", "sq", "total", "x"}, got[:8])
		assert.Contains(t, got, "function")
		assert.Contains(t, got, "ROUND")
	})

	t.Run("prefix filter", func(t *testing.T) {
		items := s.getCompletions(doc, "r")
		got := labels(items)
		assert.Contains(t, got, "ref")
		assert.Contains(t, got, "return")
		assert.Contains(t, got, "ROUND")
		assert.NotContains(t, got, "total")
		for _, it := range items {
			if it.Label == "ROUND" {
				assert.Equal(t, "math function", it.Detail)
				assert.Empty(t, it.InsertText)
			}
		}
	})

	t.Run("function snippets", func(t *testing.T) {
		s.snippets = true
		defer func() { s.snippets = false }()
		for _, it := range s.getCompletions(doc, "roun") {
			assert.Equal(t, it.Label+"($1)", it.InsertText)
			assert.Equal(t, InsertTextFormatSnippet, it.InsertTextFormat)
		}
	})

	t.Run("parameters", func(t *testing.T) {
		items := s.getCompletions(doc, "@")
		assert.Equal(t, []string{"@other", "@q", "@qty"}, labels(items))
		assert.Equal(t, "parameter = 4", items[2].Detail)
		assert.Equal(t, "parameter", items[0].Detail)

		assert.Equal(t, []string{"@q", "@qty"}, labels(s.getCompletions(doc, "@q")))
	})

	t.Run("unlexable document", func(t *testing.T) {
		broken := newDocument("file:///b.ss", "var a = (1", 1)
		assert.Equal(t, []string{"var", "VAR"}, labels(s.getCompletions(broken, "va")))
	})
}

func TestHoverText(t *testing.T) {
	s := newTestServer(t)
	doc := newDocument("file:///inv.ss", invoiceScript, 1)

	tests := []struct {
		word string
		want string
	}{
		{"total", "**total** (ref)\n\nvalue: `50`\n\nreads: qty, price"},
		{"area", "**area** (var)\n\nvalue: `9`"},
		{"sq", "**sq** (function)"},
		{"a", "**a** (param)"},
		{"@qty", "**@qty** (parameter)\n\nvalue: `4`"},
		{"@nope", "**@nope** (parameter)\n\nnot bound"},
		{"round", "**ROUND** (math function)"},
		{"nothing", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, s.hoverText(doc, tt.word))
		})
	}
}

func TestFindDefinition(t *testing.T) {
	doc := newDocument("file:///inv.ss", invoiceScript, 1)

	loc := findDefinition(doc, "total")
	require.NotNil(t, loc)
	assert.Equal(t, "file:///inv.ss", loc.URI)
	assert.Equal(t, Range{Start: Position{2, 4}, End: Position{2, 9}}, loc.Range)

	loc = findDefinition(doc, "inner")
	require.NotNil(t, loc)
	assert.Equal(t, Position{3, 21}, loc.Range.Start)

	assert.Nil(t, findDefinition(doc, "missing"))
	assert.Nil(t, findDefinition(doc, ""))
}
