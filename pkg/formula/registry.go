package formula

import (
	"sort"
	"strings"
)

// Func implements a named formula function.
type Func func(rt *Runtime, args []Value) (Value, error)

// Function families.
const (
	FamilyMath   = "math"
	FamilyDate   = "date"
	FamilyString = "string"
	FamilyLogic  = "logic"
)

type entry struct {
	fn     Func
	family string
}

// Registry maps upper-case function names to implementations.
type Registry struct {
	funcs map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]entry)}
}

// defaultRegistry is built once at process start.
var defaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	registerMath(r)
	registerDate(r)
	registerString(r)
	registerLogic(r)
	return r
}

// Default returns the built-in registry. Hosts that add functions should
// Clone it first.
func Default() *Registry {
	return defaultRegistry
}

// Register adds or replaces a function.
func (r *Registry) Register(name, family string, fn Func) {
	r.funcs[strings.ToUpper(name)] = entry{fn: fn, family: family}
}

// Lookup finds a function by case-insensitive name.
func (r *Registry) Lookup(name string) (Func, bool) {
	e, ok := r.funcs[strings.ToUpper(name)]
	return e.fn, ok
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[strings.ToUpper(name)]
	return ok
}

// Family returns the family a function was registered under.
func (r *Registry) Family(name string) string {
	return r.funcs[strings.ToUpper(name)].family
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.funcs))
	for n := range r.funcs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, v := range r.funcs {
		c.funcs[k] = v
	}
	return c
}
