package exec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/logic"
)

// eval computes the value of n in frame f.
func (x *Execution) eval(f *frame, n logic.Node) (formula.Value, error) {
	x.depth++
	defer func() { x.depth-- }()
	if x.depth > x.exec.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrDepthExceeded, x.exec.maxDepth)
	}

	switch n := n.(type) {
	case *logic.Constant:
		return constantValue(n), nil
	case *logic.Reference:
		c, ok := x.inputs[n.Name]
		if !ok {
			return formula.NaN, nil
		}
		return c.Get()
	case *logic.Variable:
		c, ok := f.lookup(n)
		if !ok {
			return formula.NaN, nil
		}
		return c.Get()
	case *logic.Calc:
		return x.calc(f, n)
	}
	return nil, fmt.Errorf("cannot evaluate %T", n)
}

// constantValue reads an unquoted numeric literal as a number and anything
// else as text.
func constantValue(c *logic.Constant) formula.Value {
	if c.Quoted || c.Value == "" {
		return c.Value
	}
	if d, ok := formula.ParseNumber(c.Value); ok {
		return d
	}
	return c.Value
}

func (x *Execution) calc(f *frame, n *logic.Calc) (formula.Value, error) {
	if n.Op != formula.OpNone {
		return x.operator(f, n)
	}
	if n.Callee != nil {
		return x.call(f, n)
	}

	switch strings.ToUpper(n.Func) {
	case "IF":
		return x.ifFn(f, n)
	case "IFERROR":
		return x.ifError(f, n)
	}

	args, err := x.args(f, n.Params)
	if err != nil {
		return nil, err
	}
	return x.exec.runtime.Run(n.Func, args)
}

func (x *Execution) args(f *frame, params []logic.Node) ([]formula.Value, error) {
	args := make([]formula.Value, len(params))
	for i, p := range params {
		v, err := x.eval(f, p)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (x *Execution) operator(f *frame, n *logic.Calc) (formula.Value, error) {
	if len(n.Params) != 2 {
		return nil, fmt.Errorf("operator %s needs 2 operands, got %d", n.Func, len(n.Params))
	}
	a, err := x.eval(f, n.Params[0])
	if err != nil {
		return nil, err
	}
	switch {
	case n.Op == formula.OpAnd && !formula.ToBool(a):
		return false, nil
	case n.Op == formula.OpOr && formula.ToBool(a):
		return true, nil
	}
	b, err := x.eval(f, n.Params[1])
	if err != nil {
		return nil, err
	}
	return x.exec.runtime.Apply(n.Op, a, b)
}

// ifFn evaluates only the branch that is taken.
func (x *Execution) ifFn(f *frame, n *logic.Calc) (formula.Value, error) {
	if len(n.Params) < 2 || len(n.Params) > 3 {
		return "", nil
	}
	cond, err := x.eval(f, n.Params[0])
	if err != nil {
		return nil, err
	}
	if formula.ToBool(cond) {
		return x.eval(f, n.Params[1])
	}
	if len(n.Params) == 3 {
		return x.eval(f, n.Params[2])
	}
	return "", nil
}

// ifError falls back when the first argument is empty, NaN, or fails with
// an argument or date error.
func (x *Execution) ifError(f *frame, n *logic.Calc) (formula.Value, error) {
	if len(n.Params) != 2 {
		return "", nil
	}
	v, err := x.eval(f, n.Params[0])
	var argErr *formula.ArgError
	var dateErr *formula.DateError
	switch {
	case errors.As(err, &argErr), errors.As(err, &dateErr):
	case err != nil:
		return nil, err
	case !formula.IsEmpty(v):
		return v, nil
	}
	return x.eval(f, n.Params[1])
}

// call runs a user function in a new frame chained to the frame the
// function was declared in.
func (x *Execution) call(f *frame, n *logic.Calc) (formula.Value, error) {
	fn := n.Callee
	args, err := x.args(f, n.Params)
	if err != nil {
		return nil, err
	}

	inner := newFrame(f.definer(fn))
	for i, p := range fn.Params {
		var v formula.Value = formula.NaN
		if i < len(args) {
			v = args[i]
		}
		inner.cells[p] = x.exec.graph.NewSource(v)
	}
	for _, nested := range fn.Functions {
		inner.funcs[nested] = true
	}
	if err := x.materialize(inner, fn.Defines); err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name, err)
	}

	ret, returned, err := x.run(inner, fn.Body)
	if err != nil {
		return nil, err
	}
	if !returned {
		return formula.NaN, nil
	}
	return ret, nil
}
