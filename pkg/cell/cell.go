// Package cell provides reactive value cells.
//
// A Source holds a value that callers set directly. A Derived holds a
// computation over other cells: it runs the computation on first read,
// remembers which cells were read, and reuses the result until one of
// them changes. Changes propagate by marking dependents dirty; nothing is
// recomputed until it is read again.
//
// Cells belong to a Graph, which tracks the derivation currently being
// computed. A Graph is not safe for concurrent use.
package cell

import (
	"errors"
)

// Value is the content of a cell.
type Value = any

// ErrCycle is returned when a derived cell reads itself while computing.
var ErrCycle = errors.New("cell depends on itself")

// Cell is a readable value that can be observed.
type Cell interface {
	Get() (Value, error)
	// OnChange registers fn to run after the cell's value was set or
	// invalidated.
	OnChange(fn func())
}

// Graph owns a set of cells and their dependency links.
type Graph struct {
	computing []*Derived
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// track records that the derivation being computed read c.
func (g *Graph) track(c *base) {
	if len(g.computing) == 0 {
		return
	}
	d := g.computing[len(g.computing)-1]
	if &d.base == c {
		return
	}
	d.deps[c] = struct{}{}
	c.dependents[d] = struct{}{}
}

// base holds what sources and derivations share.
type base struct {
	graph      *Graph
	dependents map[*Derived]struct{}
	listeners  []func()
}

func newBase(g *Graph) base {
	return base{graph: g, dependents: make(map[*Derived]struct{})}
}

func (b *base) OnChange(fn func()) {
	b.listeners = append(b.listeners, fn)
}

func (b *base) notify() {
	for _, fn := range b.listeners {
		fn()
	}
}

// invalidateDependents marks every transitive dependent dirty.
func (b *base) invalidateDependents() {
	for d := range b.dependents {
		d.invalidate()
	}
}

// Source is an eagerly set, externally mutable cell.
type Source struct {
	base
	value Value
}

// NewSource creates a source cell holding v.
func (g *Graph) NewSource(v Value) *Source {
	return &Source{base: newBase(g), value: v}
}

// Get returns the current value.
func (s *Source) Get() (Value, error) {
	s.graph.track(&s.base)
	return s.value, nil
}

// Set replaces the value and invalidates every dependent derivation.
func (s *Source) Set(v Value) {
	s.value = v
	s.invalidateDependents()
	s.notify()
}

// Derived is a memoized computation over other cells.
type Derived struct {
	base
	compute    func() (Value, error)
	value      Value
	err        error
	dirty      bool
	computing  bool
	deps       map[*base]struct{}
	recomputes int
}

// NewDerived creates a lazily computed cell.
func (g *Graph) NewDerived(compute func() (Value, error)) *Derived {
	return &Derived{
		base:    newBase(g),
		compute: compute,
		dirty:   true,
		deps:    make(map[*base]struct{}),
	}
}

// Get returns the memoized value, recomputing it first if any cell read by
// the last computation has changed since.
func (d *Derived) Get() (Value, error) {
	if d.computing {
		return nil, ErrCycle
	}
	d.graph.track(&d.base)
	if d.dirty {
		d.recompute()
	}
	return d.value, d.err
}

func (d *Derived) recompute() {
	for dep := range d.deps {
		delete(dep.dependents, d)
	}
	clear(d.deps)

	g := d.graph
	d.computing = true
	g.computing = append(g.computing, d)
	defer func() {
		g.computing = g.computing[:len(g.computing)-1]
		d.computing = false
	}()

	d.value, d.err = d.compute()
	d.dirty = false
	d.recomputes++
}

func (d *Derived) invalidate() {
	if d.dirty {
		return
	}
	d.dirty = true
	d.invalidateDependents()
	d.notify()
}

// Dirty reports whether the next Get will recompute.
func (d *Derived) Dirty() bool {
	return d.dirty
}

// Recomputes returns how many times the computation has run.
func (d *Derived) Recomputes() int {
	return d.recomputes
}
