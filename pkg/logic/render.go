package logic

import (
	"fmt"

	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/formula"
)

// Resolution selects how bare identifiers are matched to declarations.
type Resolution int

const (
	// SinglePass resolves a name only against declarations made before
	// the statement that uses it. A use of a later declaration stays a
	// Constant.
	SinglePass Resolution = iota
	// TwoPass collects every declaration of a scope first, then resolves
	// names that the parser left as literals against the full scope.
	TwoPass
)

func (r Resolution) String() string {
	if r == TwoPass {
		return "two-pass"
	}
	return "single-pass"
}

// ParseResolution parses "single", "single-pass", "two" or "two-pass".
func ParseResolution(s string) (Resolution, error) {
	switch s {
	case "", "single", "single-pass":
		return SinglePass, nil
	case "two", "two-pass":
		return TwoPass, nil
	}
	return SinglePass, fmt.Errorf("unknown resolution mode %q", s)
}

// Result is the lowered form of a statement list.
type Result struct {
	// Defines holds one Variable per declaration, in declaration order.
	Defines []*Variable
	// Params holds one Reference per distinct @name, in order of first use.
	Params []*Reference
	// ExecNodes are the statements that run after the declarations are
	// materialized: assignments, calls and returns.
	ExecNodes []Node
	// Functions are the user functions declared at this level.
	Functions []*Function
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithResolution sets the name resolution mode.
func WithResolution(r Resolution) Option {
	return func(rd *Renderer) { rd.resolution = r }
}

// Renderer lowers statement trees. It remembers what it has lowered, so a
// host that parses a script in several chunks with one analyser can render
// each chunk with one renderer and get shared Variables across chunks.
type Renderer struct {
	resolution Resolution
	vars       map[*ast.VarNode]*Variable
	funcs      map[*ast.FuncNode]*Function
	refs       map[string]*Reference
	root       *scope
}

// scope maps declared names for two-pass resolution.
type scope struct {
	parent *scope
	names  map[string]*Variable
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, names: make(map[string]*Variable)}
}

func (s *scope) lookup(name string) (*Variable, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.names[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// NewRenderer creates a renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		vars:  make(map[*ast.VarNode]*Variable),
		funcs: make(map[*ast.FuncNode]*Function),
		refs:  make(map[string]*Reference),
		root:  newScope(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lowers node with a new renderer.
func Render(node ast.Node, opts ...Option) (*Result, error) {
	return NewRenderer(opts...).Render(node)
}

// Render lowers node. A *ast.TreeNodeSet is a statement list and a
// function declaration is a single statement; any other node is an
// expression and becomes the only exec node.
func (r *Renderer) Render(node ast.Node) (*Result, error) {
	res := &Result{}
	if fn, ok := node.(*ast.FuncNode); ok && fn.IsDeclaration() {
		if err := r.statements(r.root, []ast.Node{fn}, res); err != nil {
			return nil, err
		}
		return res, nil
	}
	if set, ok := node.(*ast.TreeNodeSet); ok {
		if err := r.statements(r.root, set.Nodes, res); err != nil {
			return nil, err
		}
		return res, nil
	}
	e, err := r.expr(r.root, node, res)
	if err != nil {
		return nil, err
	}
	res.ExecNodes = append(res.ExecNodes, e)
	return res, nil
}

func declaration(n ast.Node) (*ast.TreeNode, *ast.VarNode, bool) {
	tn, ok := n.(*ast.TreeNode)
	if !ok {
		return nil, nil, false
	}
	decl, ok := tn.Left().(*ast.VarNode)
	if !ok || decl.Kind == ast.DeclNone || decl.Kind == ast.DeclParam {
		return nil, nil, false
	}
	return tn, decl, true
}

func (r *Renderer) declare(sc *scope, decl *ast.VarNode) *Variable {
	v := &Variable{Name: decl.Name, Kind: decl.Kind, Span: decl.Span}
	r.vars[decl] = v
	sc.names[decl.Name] = v
	return v
}

// statements lowers one statement list into res.
func (r *Renderer) statements(sc *scope, nodes []ast.Node, res *Result) error {
	// In two-pass mode every declaration of the list is known before any
	// value is lowered.
	if r.resolution == TwoPass {
		for _, n := range nodes {
			if _, decl, ok := declaration(n); ok {
				r.declare(sc, decl)
			}
		}
	}

	for _, n := range nodes {
		if tn, decl, ok := declaration(n); ok {
			v, seen := r.vars[decl]
			if !seen {
				v = r.declare(sc, decl)
			}
			res.Defines = append(res.Defines, v)
			value, err := r.expr(sc, tn.Right(), res)
			if err != nil {
				return err
			}
			v.Value = value
			continue
		}

		switch n := n.(type) {
		case *ast.StubNode:
			// parsed only
		case *ast.FuncNode:
			if !n.IsDeclaration() {
				e, err := r.expr(sc, n, res)
				if err != nil {
					return err
				}
				res.ExecNodes = append(res.ExecNodes, e)
				continue
			}
			fn, err := r.function(sc, n, res)
			if err != nil {
				return err
			}
			res.Functions = append(res.Functions, fn)
		case *ast.TreeNode:
			e, err := r.statement(sc, n, res)
			if err != nil {
				return err
			}
			res.ExecNodes = append(res.ExecNodes, e)
		default:
			e, err := r.expr(sc, n, res)
			if err != nil {
				return err
			}
			res.ExecNodes = append(res.ExecNodes, e)
		}
	}
	return nil
}

// statement lowers an assignment, a return or an expression statement.
func (r *Renderer) statement(sc *scope, n *ast.TreeNode, res *Result) (Node, error) {
	switch n.Operator {
	case "return":
		if n.Left() == nil {
			return &Return{}, nil
		}
		v, err := r.expr(sc, n.Left(), res)
		if err != nil {
			return nil, err
		}
		return &Return{Value: v}, nil
	case "=":
		target, ok := n.Left().(*ast.VarNode)
		if ok && target.Decl != nil {
			v, ok := r.vars[target.Decl]
			if !ok {
				return nil, fmt.Errorf("assignment to %q: declaration was not rendered", target.Name)
			}
			value, err := r.expr(sc, n.Right(), res)
			if err != nil {
				return nil, err
			}
			return &Assign{Target: v, Value: value}, nil
		}
	}
	return r.expr(sc, n, res)
}

func (r *Renderer) function(sc *scope, n *ast.FuncNode, outer *Result) (*Function, error) {
	fn := &Function{Name: n.Func, Span: n.GetSpan()}
	r.funcs[n] = fn

	inner := newScope(sc)
	for _, p := range n.Params.Nodes {
		pv, ok := p.(*ast.VarNode)
		if !ok {
			continue
		}
		fn.Params = append(fn.Params, r.declare(inner, pv))
	}

	body := &Result{}
	if err := r.statements(inner, n.Body.Nodes, body); err != nil {
		return nil, err
	}
	fn.Defines = body.Defines
	fn.Body = body.ExecNodes
	fn.Functions = body.Functions
	// references used inside the body are parameters of the whole program
	outer.Params = append(outer.Params, body.Params...)
	return fn, nil
}

// expr lowers an expression tree.
func (r *Renderer) expr(sc *scope, n ast.Node, res *Result) (Node, error) {
	switch n := n.(type) {
	case nil:
		return &Constant{}, nil
	case *ast.ConstNode:
		if r.resolution == TwoPass && n.Ident {
			if v, ok := sc.lookup(n.Value); ok {
				return v, nil
			}
		}
		return &Constant{Value: n.Value, Quoted: n.Quoted, Ident: n.Ident, Span: n.Span}, nil
	case *ast.VarNode:
		if n.IsReference() {
			return r.reference(n.Name, res), nil
		}
		if n.Decl != nil {
			if v, ok := r.vars[n.Decl]; ok {
				return v, nil
			}
		}
		return nil, fmt.Errorf("variable %q used outside its scope", n.Name)
	case *ast.FuncNode:
		if n.IsDeclaration() {
			return nil, fmt.Errorf("function %q declared inside an expression", n.Func)
		}
		c := &Calc{Func: n.Func, Span: n.Span}
		if n.Decl != nil {
			callee, ok := r.funcs[n.Decl]
			if !ok {
				return nil, fmt.Errorf("call of %q: declaration was not rendered", n.Func)
			}
			c.Callee = callee
		}
		for _, p := range n.Params.Nodes {
			pn, err := r.expr(sc, p, res)
			if err != nil {
				return nil, err
			}
			c.Params = append(c.Params, pn)
		}
		return c, nil
	case *ast.TreeNode:
		op, ok := formula.LookupOp(n.Operator)
		if !ok {
			return nil, fmt.Errorf("unexpected %q node in expression", n.Operator)
		}
		c := &Calc{Func: n.Operator, Op: op, Span: n.Span}
		for _, child := range []ast.Node{n.Left(), n.Right()} {
			cn, err := r.expr(sc, child, res)
			if err != nil {
				return nil, err
			}
			c.Params = append(c.Params, cn)
		}
		return c, nil
	}
	return nil, fmt.Errorf("cannot lower %T", n)
}

// reference returns the shared Reference for name, adding it to res.Params
// the first time the renderer sees it.
func (r *Renderer) reference(name string, res *Result) *Reference {
	if ref, ok := r.refs[name]; ok {
		return ref
	}
	ref := &Reference{Name: name}
	r.refs[name] = ref
	res.Params = append(res.Params, ref)
	return ref
}
