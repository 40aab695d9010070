package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/internal/cli/testutil"
	"github.com/supaloboto/sisuo/internal/engine"
	"github.com/supaloboto/sisuo/pkg/formula"
)

func newTestREPL(t *testing.T, params map[string]formula.Value) (*replState, *testutil.TestRenderer) {
	t.Helper()
	tr := testutil.NewTestRendererMarkdown()
	sess := engine.New(engine.Config{}).NewSession(params)
	return newREPLState(context.Background(), tr.Renderer, sess), tr
}

func TestREPL_StatementsAndExpressions(t *testing.T) {
	st, tr := newTestREPL(t, map[string]formula.Value{"@rate": formula.Number(2)})

	assert.False(t, st.handleLine("var base = 5;"))
	assert.Contains(t, tr.Output(), "declared base")

	tr.Reset()
	assert.False(t, st.handleLine("ref scaled = base * @rate;"))
	assert.False(t, st.handleLine("scaled + 1"))
	assert.Contains(t, tr.Output(), "11\n")

	tr.Reset()
	st.handleLine(".set base 7")
	st.handleLine("scaled")
	assert.Contains(t, tr.Output(), "base = 7")
	assert.Contains(t, tr.Output(), "recomputed: scaled")
	assert.Contains(t, tr.Output(), "14\n")

	tr.Reset()
	st.handleLine(".set @rate=3")
	st.handleLine("scaled")
	assert.Contains(t, tr.Output(), "recomputed: scaled")
	assert.Contains(t, tr.Output(), "21\n")
	assert.Empty(t, tr.ErrorOutput())
}

func TestREPL_Continuation(t *testing.T) {
	st, tr := newTestREPL(t, nil)

	st.handleLine("function sq(a) {")
	assert.Positive(t, st.pending.Len())
	assert.Empty(t, tr.Output())

	st.handleLine("  return a * a")
	st.handleLine("}")
	assert.Zero(t, st.pending.Len())

	tr.Reset()
	st.handleLine("sq(4)")
	assert.Contains(t, tr.Output(), "16\n")
}

func TestREPL_DotCommands(t *testing.T) {
	st, tr := newTestREPL(t, map[string]formula.Value{"@qty": formula.Number(3)})

	st.handleLine(".vars")
	assert.Contains(t, tr.Output(), "no declarations")

	tr.Reset()
	st.handleLine("var price = 2;")
	st.handleLine("ref total = price * @qty;")
	st.handleLine(".vars")
	out := tr.Output()
	assert.Contains(t, out, "| Name")
	assert.Contains(t, out, "total")
	assert.Contains(t, out, "6")

	tr.Reset()
	st.handleLine(".params")
	assert.Contains(t, tr.Output(), "@qty")

	tr.Reset()
	st.handleLine(".reset")
	st.handleLine(".vars")
	assert.Contains(t, tr.Output(), "session reset")
	assert.Contains(t, tr.Output(), "no declarations")

	tr.Reset()
	st.handleLine(".help")
	assert.Contains(t, tr.Output(), ".load <file>")

	assert.True(t, st.handleLine(".quit"))
	assert.True(t, st.handleLine(".EXIT"))
}

func TestREPL_Errors(t *testing.T) {
	st, tr := newTestREPL(t, nil)

	tests := []struct {
		line string
		want string
	}{
		{".bogus", "unknown command: .bogus"},
		{".set", "usage: .set"},
		{".load", "usage: .load"},
		{".load /does/not/exist.ss", "failed to read"},
		{".set missing 1", "missing"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tr.Reset()
			assert.False(t, st.handleLine(tt.line))
			assert.Contains(t, tr.ErrorOutput(), tt.want)
		})
	}
}

func TestREPL_Load(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "lib.ss", "var x = 4; ref y = x * 10;")

	st, tr := newTestREPL(t, nil)
	st.handleLine(".load " + path)
	assert.Contains(t, tr.Output(), "loaded "+path)

	tr.Reset()
	st.handleLine("y")
	assert.Contains(t, tr.Output(), "40\n")
}

func TestOpenGroups(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"var a = 1;", 0},
		{"function f(a) {", 1},
		{"ROUND((1 + 2", 2},
		{"[1, 2]", 0},
		{`CONCAT("(", x`, 1},
		{`"{" + '['`, 0},
		{"“(”", 0},
		{"a)", -1},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, openGroups(tt.in))
		})
	}
}

func TestNewREPLCompleter(t *testing.T) {
	c := newREPLCompleter(formula.Default())
	children := c.GetChildren()
	require.NotEmpty(t, children)

	var names []string
	for _, ch := range children {
		names = append(names, string(ch.GetName()))
	}
	assert.Contains(t, names, ".vars ")
	assert.Contains(t, names, "ROUND( ")
}
