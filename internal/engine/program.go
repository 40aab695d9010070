package engine

import (
	"fmt"
	"slices"

	"github.com/supaloboto/sisuo/internal/dag"
	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/lint"
	"github.com/supaloboto/sisuo/pkg/logic"
	"github.com/supaloboto/sisuo/pkg/parser"
	"github.com/supaloboto/sisuo/pkg/token"
)

// Program is a compiled script.
type Program struct {
	engine *Engine

	Name       string
	Source     string
	Tokens     []*token.Token
	Statements *ast.TreeNodeSet
	Logic      *logic.Result
	// Diagnostics holds the non-fatal findings of the compile.
	Diagnostics []lint.Diagnostic
}

// Compile tokenizes, parses and renders src. Name identifies the program
// in logs and errors, usually a file path.
func (e *Engine) Compile(name, src string) (*Program, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	stmts, err := parser.NewAnalyser(parser.WithRegistry(e.runtime.Registry())).GetAST(toks)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	res, err := logic.Render(stmts, logic.WithResolution(e.resolution))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	diags := e.Lint(src)

	e.logger.Debug("compiled program",
		"program", name,
		"statements", stmts.Len(),
		"declarations", len(res.Defines),
		"params", len(res.Params),
		"functions", len(res.Functions),
		"diagnostics", len(diags))

	return &Program{
		engine:      e,
		Name:        name,
		Source:      src,
		Tokens:      toks,
		Statements:  stmts,
		Logic:       res,
		Diagnostics: diags,
	}, nil
}

// Lint returns the diagnostics of src under the engine's resolution mode,
// function registry and lint configuration. It never fails: syntax errors
// are reported as diagnostics.
func (e *Engine) Lint(src string) []lint.Diagnostic {
	return lint.Check(src,
		lint.WithConfig(e.lint),
		lint.WithResolution(e.resolution),
		lint.WithRegistry(e.runtime.Registry()))
}

// Params returns the external parameter names the program reads, sorted.
func (p *Program) Params() []string {
	names := make([]string, len(p.Logic.Params))
	for i, r := range p.Logic.Params {
		names[i] = r.Name
	}
	slices.Sort(names)
	return names
}

// Graph returns the dependency graph of the top-level declarations. An
// edge runs from a declaration to each declaration that reads it.
func (p *Program) Graph() (*dag.Graph, error) {
	return exec.DependencyGraph(p.Logic.Defines)
}

// Levels groups the top-level declarations into dependency levels. Every
// declaration of a level depends only on declarations of earlier levels.
func (p *Program) Levels() ([][]string, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	return g.GetExecutionLevels()
}

// Dependencies returns, for each top-level declaration, the declarations it
// reads directly.
func (p *Program) Dependencies() (map[string][]string, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]string, len(p.Logic.Defines))
	for _, v := range p.Logic.Defines {
		out[v.Name] = g.GetParents(v.Name)
	}
	return out, nil
}

// Upstream returns every declaration name reads, directly or through
// other declarations, in declaration order.
func (p *Program) Upstream(name string) ([]string, error) {
	g, err := p.Graph()
	if err != nil {
		return nil, err
	}
	return g.GetUpstreamNodes(name), nil
}

// Recomputed returns the ref declarations whose value changes when the
// given declarations or '@' parameters are assigned. var declarations keep
// their first value, so a change does not propagate through them.
func (p *Program) Recomputed(names ...string) ([]string, error) {
	return recomputed(p.Logic.Defines, names)
}

// recomputed walks a graph of defs that only keeps the edges into ref
// declarations, with parameters as extra nodes.
func recomputed(defs []*logic.Variable, names []string) ([]string, error) {
	g := dag.NewGraph()
	for _, v := range defs {
		g.AddNode(v.Name, v)
	}
	for _, v := range defs {
		if !v.Derived() {
			continue
		}
		for _, dep := range logic.Deps(v.Value) {
			if node, ok := g.GetNode(dep.Name); !ok || node.Data != dep {
				continue
			}
			if err := g.AddEdge(dep.Name, v.Name); err != nil {
				return nil, err
			}
		}
		for _, ref := range logic.References(v.Value) {
			if _, ok := g.GetNode(ref.Name); !ok {
				g.AddNode(ref.Name, ref)
			}
			if err := g.AddEdge(ref.Name, v.Name); err != nil {
				return nil, err
			}
		}
	}

	var out []string
	for _, id := range g.GetAffectedNodes(names) {
		node, _ := g.GetNode(id)
		if v, ok := node.Data.(*logic.Variable); ok && v.Derived() && !slices.Contains(names, id) {
			out = append(out, id)
		}
	}
	return out, nil
}
