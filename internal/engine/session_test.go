package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/parser"
)

func evalText(t *testing.T, s *Session, src string) string {
	t.Helper()
	res, err := s.Eval(src)
	require.NoError(t, err)
	require.True(t, res.HasValue, "%q should produce a value", src)
	return formula.Format(res.Value)
}

func TestSession_ChunksShareScope(t *testing.T) {
	e := newTestEngine(t, Config{})
	s := e.NewSession(nil)

	require.NoError(t, s.Load("var x = 3;"))
	require.NoError(t, s.Load("ref y = x * 2;"))

	outs, err := s.Outputs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "3", "y": "6"}, outputText(outs))

	require.NoError(t, s.Set("x", formula.Number(10)))
	names, err := s.Recomputed("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, names)
	o, err := s.Lookup("y")
	require.NoError(t, err)
	assert.Equal(t, "20", o.Text())

	_, err = s.Lookup("zzz")
	require.ErrorIs(t, err, exec.ErrUnknownName)
}

func TestSession_Eval(t *testing.T) {
	e := newTestEngine(t, Config{})
	s := e.NewSession(map[string]formula.Value{"rate": formula.Number(2)})

	res, err := s.Eval("var base = 5")
	require.NoError(t, err)
	assert.False(t, res.HasValue)
	assert.Equal(t, []string{"base"}, res.Declared)

	res, err = s.Eval("ref scaled = base * @rate;")
	require.NoError(t, err)
	assert.Equal(t, []string{"scaled"}, res.Declared)

	assert.Equal(t, "10", evalText(t, s, "scaled"))
	assert.Equal(t, "13", evalText(t, s, "scaled + 3"))
	assert.Equal(t, "13", evalText(t, s, "scaled + 3;"))
	assert.Equal(t, "HELLO", evalText(t, s, `UPPER("hello")`))

	// assignment statement
	_, err = s.Eval("base = 7")
	require.NoError(t, err)
	assert.Equal(t, "14", evalText(t, s, "scaled"))

	// parameters
	require.NoError(t, s.Set("@rate", formula.Number(3)))
	assert.Equal(t, "21", evalText(t, s, "scaled"))
	assert.Equal(t, "3", formula.Format(s.Params()["@rate"]))

	// a parameter first seen in an expression reads as NaN until set
	assert.Equal(t, "NaN", evalText(t, s, "@later + 1"))
	require.NoError(t, s.Set("@later", formula.Number(1)))
	assert.Equal(t, "2", evalText(t, s, "@later + 1"))
}

func TestSession_Functions(t *testing.T) {
	e := newTestEngine(t, Config{})
	s := e.NewSession(nil)

	_, err := s.Eval("function sq(a) { return a * a }")
	require.NoError(t, err)
	assert.Equal(t, "49", evalText(t, s, "sq(7)"))
}

func TestSession_Errors(t *testing.T) {
	e := newTestEngine(t, Config{})
	s := e.NewSession(nil)

	_, err := s.Eval("   ")
	require.ErrorIs(t, err, ErrEmptyInput)

	_, err = s.Eval("var a = 1")
	require.NoError(t, err)
	_, err = s.Eval("var a = 2")
	require.ErrorIs(t, err, parser.ErrDuplicateDeclaration)

	_, err = s.Eval("nothere(1)")
	require.ErrorIs(t, err, parser.ErrUndefinedFunction)

	_, err = s.Eval("1 +")
	require.ErrorIs(t, err, parser.ErrMissingOperand)
}

func TestSession_Reset(t *testing.T) {
	e := newTestEngine(t, Config{})
	s := e.NewSession(map[string]formula.Value{"p": formula.Number(1)})
	first := s.ID()

	require.NoError(t, s.Load("var a = 1;"))
	s.Reset()
	assert.NotEqual(t, first, s.ID())

	outs, err := s.Outputs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outs)

	// the name is free again and parameters are rebound
	require.NoError(t, s.Load("var a = 2;"))
	assert.Equal(t, "1", evalText(t, s, "@p"))
}
