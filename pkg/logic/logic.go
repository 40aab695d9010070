// Package logic defines the executable graph that statement trees are
// lowered into, and the renderer that performs the lowering.
//
// Names are resolved here: every declaration becomes one Variable that all
// of its uses share, every @name becomes one Reference, and every other
// leaf becomes a Constant.
package logic

import (
	"strings"

	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/token"
)

// Node is a node of the logic graph.
type Node interface {
	String() string
	logicNode()
}

// Calc applies an operator or calls a function.
type Calc struct {
	// Func is the operator symbol or the function name as written.
	Func string
	// Op is set when Func is an operator.
	Op     formula.Op
	Params []Node
	// Callee is the user function being called, nil for operators and
	// formula calls.
	Callee *Function
	Span   token.Span
}

func (*Calc) logicNode() {}

func (c *Calc) String() string {
	if c.Op != formula.OpNone && len(c.Params) == 2 {
		return "(" + c.Params[0].String() + " " + c.Func + " " + c.Params[1].String() + ")"
	}
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.String()
	}
	return c.Func + "(" + strings.Join(parts, ", ") + ")"
}

// Constant is a literal.
type Constant struct {
	Value  string
	Quoted bool
	// Ident marks a bare word that did not resolve to a declaration.
	Ident bool
	Span  token.Span
}

func (*Constant) logicNode() {}

func (c *Constant) String() string {
	if c.Quoted {
		return `"` + c.Value + `"`
	}
	return c.Value
}

// Variable is a declared name. Every use of the declaration shares the
// same Variable.
type Variable struct {
	Name  string
	Kind  ast.DeclKind
	Value Node
	Span  token.Span

	listeners []func()
}

func (*Variable) logicNode() {}

func (v *Variable) String() string { return v.Name }

// OnChange registers fn to run whenever the variable's cell changes once
// it is materialized.
func (v *Variable) OnChange(fn func()) {
	v.listeners = append(v.listeners, fn)
}

// Listeners returns the registered change listeners.
func (v *Variable) Listeners() []func() {
	return v.listeners
}

// Derived reports whether the variable is recomputed from its value
// expression on demand.
func (v *Variable) Derived() bool {
	return v.Kind == ast.DeclRef
}

// Reference is an external parameter, named with a leading '@'.
type Reference struct {
	Name string
}

func (*Reference) logicNode() {}

func (r *Reference) String() string { return r.Name }

// Function is a user function declaration.
type Function struct {
	Name      string
	Params    []*Variable
	Defines   []*Variable
	Body      []Node
	Functions []*Function
	Span      token.Span
}

func (*Function) logicNode() {}

func (f *Function) String() string {
	names := make([]string, len(f.Params))
	for i, p := range f.Params {
		names[i] = p.Name
	}
	return "function " + f.Name + "(" + strings.Join(names, ", ") + ")"
}

// Assign sets a declared variable.
type Assign struct {
	Target *Variable
	Value  Node
}

func (*Assign) logicNode() {}

func (a *Assign) String() string { return a.Target.Name + " = " + a.Value.String() }

// Return ends a statement list with a value. Value is nil for a bare
// return.
type Return struct {
	Value Node
}

func (*Return) logicNode() {}

func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}
