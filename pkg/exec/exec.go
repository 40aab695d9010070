// Package exec materializes logic graphs into cells and evaluates them.
//
// Declarations become cells: var and global declarations are evaluated
// once into a cell.Source that callers may set later, ref declarations
// become a cell.Derived that recomputes on read after something it read
// has changed. External parameters are supplied as cells too.
package exec

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/supaloboto/sisuo/internal/dag"
	"github.com/supaloboto/sisuo/pkg/cell"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/logic"
)

// DefaultMaxDepth bounds nested evaluation, including recursion through
// user functions.
const DefaultMaxDepth = 256

// Binding pairs a name with a cell.
type Binding struct {
	Name string
	Cell cell.Cell
}

// Executor evaluates logic graphs. Cells created by one executor share a
// cell.Graph; input cells should be created with Graph so that derived
// values follow changes to them. An Executor is not safe for concurrent
// use.
type Executor struct {
	runtime  *formula.Runtime
	graph    *cell.Graph
	maxDepth int
	logger   *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithRuntime sets the formula runtime.
func WithRuntime(rt *formula.Runtime) Option {
	return func(e *Executor) { e.runtime = rt }
}

// WithMaxDepth sets the evaluation depth limit.
func WithMaxDepth(depth int) Option {
	return func(e *Executor) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// New creates an executor.
func New(opts ...Option) *Executor {
	e := &Executor{
		runtime:  formula.New(),
		graph:    cell.NewGraph(),
		maxDepth: DefaultMaxDepth,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph returns the cell graph of the executor.
func (e *Executor) Graph() *cell.Graph {
	return e.graph
}

// Input creates an input binding holding v.
func (e *Executor) Input(name string, v formula.Value) Binding {
	return Binding{Name: name, Cell: e.graph.NewSource(v)}
}

// GetValueRefs materializes defs against inputs and returns one binding per
// declaration, in declaration order.
func (e *Executor) GetValueRefs(defs []*logic.Variable, inputs []Binding) ([]Binding, error) {
	x := e.newExecution(inputs)
	if err := x.materialize(x.root, defs); err != nil {
		return nil, err
	}
	x.export(defs)
	return x.Outputs(), nil
}

// Execute materializes the declarations of res and runs its statements.
func (e *Executor) Execute(res *logic.Result, inputs []Binding) (*Execution, error) {
	x := e.newExecution(inputs)
	if err := x.Extend(res); err != nil {
		return nil, err
	}
	return x, nil
}

func (e *Executor) newExecution(inputs []Binding) *Execution {
	x := &Execution{
		exec:   e,
		root:   newFrame(nil),
		inputs: make(map[string]cell.Cell, len(inputs)),
		byName: make(map[string]*logic.Variable),
	}
	for _, in := range inputs {
		x.inputs[in.Name] = in.Cell
	}
	return x
}

// Execution is the state of one evaluated program: its cells, inputs and
// return value.
type Execution struct {
	exec   *Executor
	root   *frame
	inputs map[string]cell.Cell

	outputs  []Binding
	byName   map[string]*logic.Variable
	ret      formula.Value
	returned bool
	depth    int
}

// Extend adds the declarations and statements of res to the execution.
// Hosts that render a script in chunks call it once per chunk.
func (x *Execution) Extend(res *logic.Result) error {
	for _, ref := range res.Params {
		if _, ok := x.inputs[ref.Name]; !ok {
			// Reading a missing parameter yields NaN; a source lets a later
			// SetInput reach the cells that read it.
			x.inputs[ref.Name] = x.exec.graph.NewSource(formula.NaN)
		}
	}
	for _, fn := range res.Functions {
		x.root.funcs[fn] = true
	}
	if err := x.materialize(x.root, res.Defines); err != nil {
		return err
	}
	x.export(res.Defines)

	ret, returned, err := x.run(x.root, res.ExecNodes)
	if err != nil {
		return err
	}
	if returned && !x.returned {
		x.ret, x.returned = ret, true
	}
	return nil
}

func (x *Execution) export(defs []*logic.Variable) {
	for _, v := range defs {
		x.outputs = append(x.outputs, Binding{Name: v.Name, Cell: x.root.cells[v]})
		x.byName[v.Name] = v
	}
}

// Outputs returns one binding per top-level declaration, in declaration
// order.
func (x *Execution) Outputs() []Binding {
	return x.outputs
}

// Lookup returns the cell of a top-level declaration.
func (x *Execution) Lookup(name string) (cell.Cell, bool) {
	v, ok := x.byName[name]
	if !ok {
		return nil, false
	}
	c, ok := x.root.cells[v]
	return c, ok
}

// Return returns the value of the first top-level return statement.
func (x *Execution) Return() (formula.Value, bool) {
	return x.ret, x.returned
}

// Set assigns a top-level var or global declaration.
func (x *Execution) Set(name string, v formula.Value) error {
	c, ok := x.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownName, name)
	}
	src, ok := c.(*cell.Source)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssignDerived, name)
	}
	src.Set(v)
	x.exec.logger.Debug("variable set", "name", name, "value", formula.Format(v))
	return nil
}

// SetInput updates an external parameter, creating it if needed.
func (x *Execution) SetInput(name string, v formula.Value) error {
	c, ok := x.inputs[name]
	if !ok {
		x.inputs[name] = x.exec.graph.NewSource(v)
		return nil
	}
	src, ok := c.(*cell.Source)
	if !ok {
		return fmt.Errorf("input %s is not settable", name)
	}
	src.Set(v)
	return nil
}

// Inputs returns the external parameter cells by name.
func (x *Execution) Inputs() map[string]cell.Cell {
	return x.inputs
}

// Eval evaluates an expression in the top-level scope.
func (x *Execution) Eval(n logic.Node) (formula.Value, error) {
	return x.eval(x.root, n)
}

// frame holds the cells of one scope. Function frames chain to the frame
// the function was declared in.
type frame struct {
	parent *frame
	cells  map[*logic.Variable]cell.Cell
	funcs  map[*logic.Function]bool
}

func newFrame(parent *frame) *frame {
	return &frame{
		parent: parent,
		cells:  make(map[*logic.Variable]cell.Cell),
		funcs:  make(map[*logic.Function]bool),
	}
}

func (f *frame) lookup(v *logic.Variable) (cell.Cell, bool) {
	for cur := f; cur != nil; cur = cur.parent {
		if c, ok := cur.cells[v]; ok {
			return c, true
		}
	}
	return nil, false
}

// definer returns the frame fn was declared in.
func (f *frame) definer(fn *logic.Function) *frame {
	cur := f
	for ; cur.parent != nil; cur = cur.parent {
		if cur.funcs[fn] {
			return cur
		}
	}
	return cur
}

// order sorts defs so that each comes after the declarations it reads,
// keeping declaration order otherwise.
func order(defs []*logic.Variable) ([]*logic.Variable, error) {
	g, err := DependencyGraph(defs)
	if err != nil {
		return nil, err
	}
	nodes, err := g.TopologicalSort()
	if err != nil {
		return nil, cycleError(err)
	}
	out := make([]*logic.Variable, len(nodes))
	for i, n := range nodes {
		out[i] = n.Data.(*logic.Variable)
	}
	return out, nil
}

// DependencyGraph builds the graph of defs with an edge from each
// declaration to the declarations of defs that read it. Node data is the
// *logic.Variable. A dependency cycle is reported as a *CycleError.
func DependencyGraph(defs []*logic.Variable) (*dag.Graph, error) {
	g := dag.NewGraph()
	for _, v := range defs {
		g.AddNode(v.Name, v)
	}
	for _, v := range defs {
		for _, dep := range logic.Deps(v.Value) {
			// only declarations of this list, not outer ones of the same name
			if node, ok := g.GetNode(dep.Name); !ok || node.Data != dep {
				continue
			}
			if err := g.AddEdge(dep.Name, v.Name); err != nil {
				return nil, cycleError(err)
			}
		}
	}
	return g, nil
}

func cycleError(err error) error {
	var cycle *dag.CycleError
	if errors.As(err, &cycle) {
		return &CycleError{Path: cycle.Path}
	}
	return err
}

// materialize creates the cells of defs in f.
func (x *Execution) materialize(f *frame, defs []*logic.Variable) error {
	ordered, err := order(defs)
	if err != nil {
		return err
	}
	g := x.exec.graph
	for _, v := range ordered {
		var c cell.Cell
		if v.Derived() {
			c = g.NewDerived(func() (cell.Value, error) {
				return x.eval(f, v.Value)
			})
		} else {
			val, err := x.eval(f, v.Value)
			if err != nil {
				return fmt.Errorf("evaluating %s: %w", v.Name, err)
			}
			c = g.NewSource(val)
		}
		for _, fn := range v.Listeners() {
			c.OnChange(fn)
		}
		f.cells[v] = c
		x.exec.logger.Debug("materialized", "name", v.Name, "kind", v.Kind.String())
	}
	return nil
}

// run executes statements in f and stops at the first return.
func (x *Execution) run(f *frame, nodes []logic.Node) (formula.Value, bool, error) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *logic.Assign:
			c, ok := f.lookup(n.Target)
			if !ok {
				return nil, false, fmt.Errorf("%w: %s", ErrUnknownName, n.Target.Name)
			}
			src, ok := c.(*cell.Source)
			if !ok {
				return nil, false, fmt.Errorf("%w: %s", ErrAssignDerived, n.Target.Name)
			}
			v, err := x.eval(f, n.Value)
			if err != nil {
				return nil, false, err
			}
			src.Set(v)
		case *logic.Return:
			if n.Value == nil {
				return formula.NaN, true, nil
			}
			v, err := x.eval(f, n.Value)
			if err != nil {
				return nil, false, err
			}
			return v, true, nil
		default:
			if _, err := x.eval(f, n); err != nil {
				return nil, false, err
			}
		}
	}
	return nil, false, nil
}
