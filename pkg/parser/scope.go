package parser

import (
	"slices"

	"github.com/supaloboto/sisuo/pkg/ast"
)

// Scope is a symbol table of declared variables and functions.
//
// A child scope starts from a copy of its parent's tables. Declarations made
// in the child never reach the parent, and declarations the parent makes
// after the child was created are not visible to the child.
type Scope struct {
	Variables []*ast.VarNode
	Functions []*ast.FuncNode

	// local names declared directly in this scope, for duplicate checks
	localVars  map[string]bool
	localFuncs map[string]bool
}

// NewScope creates an empty root scope.
func NewScope() *Scope {
	return &Scope{
		localVars:  make(map[string]bool),
		localFuncs: make(map[string]bool),
	}
}

// Child creates a scope seeded with a snapshot of s.
func (s *Scope) Child() *Scope {
	c := NewScope()
	c.Variables = slices.Clone(s.Variables)
	c.Functions = slices.Clone(s.Functions)
	return c
}

// DeclareVar registers v. It reports false if the name was already declared
// in this scope.
func (s *Scope) DeclareVar(v *ast.VarNode) bool {
	if s.localVars[v.Name] {
		return false
	}
	s.localVars[v.Name] = true
	s.Variables = append(s.Variables, v)
	return true
}

// DeclareFunc registers f. It reports false if the name was already declared
// in this scope.
func (s *Scope) DeclareFunc(f *ast.FuncNode) bool {
	if s.localFuncs[f.Func] {
		return false
	}
	s.localFuncs[f.Func] = true
	s.Functions = append(s.Functions, f)
	return true
}

// LookupVar finds the innermost declaration of name.
func (s *Scope) LookupVar(name string) (*ast.VarNode, bool) {
	for i := len(s.Variables) - 1; i >= 0; i-- {
		if s.Variables[i].Name == name {
			return s.Variables[i], true
		}
	}
	return nil, false
}

// LookupFunc finds the innermost declaration of a user function.
func (s *Scope) LookupFunc(name string) (*ast.FuncNode, bool) {
	for i := len(s.Functions) - 1; i >= 0; i-- {
		if s.Functions[i].Func == name {
			return s.Functions[i], true
		}
	}
	return nil, false
}

// IsLocal reports whether name was declared directly in this scope.
func (s *Scope) IsLocal(name string) bool {
	return s.localVars[name]
}
