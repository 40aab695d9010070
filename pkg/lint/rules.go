package lint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/logic"
)

// checkGraph runs the checks over the rendered program.
func checkGraph(res *logic.Result) []Diagnostic {
	var out []Diagnostic
	out = append(out, checkCycles(res.Defines)...)

	called := make(map[*logic.Function]bool)
	visitCalls(res.Defines, res.ExecNodes, nil, called)

	var walk func(fns []*logic.Function)
	walk = func(fns []*logic.Function) {
		for _, f := range fns {
			out = append(out, checkCycles(f.Defines)...)
			out = append(out, checkParams(f)...)
			visitCalls(f.Defines, f.Body, f, called)
			walk(f.Functions)
		}
	}
	walk(res.Functions)

	var unused func(fns []*logic.Function)
	unused = func(fns []*logic.Function) {
		for _, f := range fns {
			if !called[f] {
				out = append(out, Diagnostic{
					From:     f.Span.Start,
					To:       f.Span.End,
					Severity: core.SeverityInfo,
					Message:  fmt.Sprintf("function '%s' is never called", f.Name),
					Code:     CodeUnusedFunction,
				})
			}
			unused(f.Functions)
		}
	}
	unused(res.Functions)
	return out
}

func checkCycles(defs []*logic.Variable) []Diagnostic {
	g, err := exec.DependencyGraph(defs)
	if err != nil {
		// self-loop, reported while adding edges
		var path []string
		var ce *exec.CycleError
		if errors.As(err, &ce) {
			path = ce.Path
		}
		return cycleDiagnostic(defs, path)
	}
	if found, path := g.HasCycle(); found {
		return cycleDiagnostic(defs, path)
	}
	return nil
}

func cycleDiagnostic(defs []*logic.Variable, path []string) []Diagnostic {
	if len(path) == 0 {
		return nil
	}
	d := Diagnostic{
		Severity: core.SeverityError,
		Message:  "dependency cycle: " + strings.Join(path, " -> "),
		Code:     CodeDependencyCycle,
	}
	for _, v := range defs {
		if v.Name == path[0] {
			d.From, d.To = v.Span.Start, v.Span.End
			break
		}
	}
	return []Diagnostic{d}
}

func checkParams(f *logic.Function) []Diagnostic {
	used := make(map[*logic.Variable]bool)
	for _, v := range f.FreeVars() {
		used[v] = true
	}
	// FreeVars drops locals, so collect the direct reads as well
	mark := func(n logic.Node) {
		for _, v := range logic.Deps(n) {
			used[v] = true
		}
	}
	for _, d := range f.Defines {
		mark(d.Value)
	}
	for _, b := range f.Body {
		mark(b)
	}
	for _, nested := range f.Functions {
		for _, v := range nested.FreeVars() {
			used[v] = true
		}
	}

	var out []Diagnostic
	for _, p := range f.Params {
		if used[p] {
			continue
		}
		out = append(out, Diagnostic{
			From:     p.Span.Start,
			To:       p.Span.End,
			Severity: core.SeverityWarning,
			Message:  fmt.Sprintf("parameter '%s' of '%s' is never used", p.Name, f.Name),
			Code:     CodeUnusedParam,
		})
	}
	return out
}

// visitCalls marks the user functions called from defs and nodes. Calls
// of a function from its own body do not count.
func visitCalls(defs []*logic.Variable, nodes []logic.Node, self *logic.Function, called map[*logic.Function]bool) {
	visit := func(n logic.Node) {
		logic.Walk(n, func(m logic.Node) bool {
			if c, ok := m.(*logic.Calc); ok && c.Callee != nil && c.Callee != self {
				called[c.Callee] = true
			}
			return true
		})
	}
	for _, d := range defs {
		visit(d.Value)
	}
	for _, n := range nodes {
		visit(n)
	}
}

// visitProgram calls fn for every node of res, function bodies included.
func visitProgram(res *logic.Result, fn func(logic.Node)) {
	each := func(n logic.Node) {
		logic.Walk(n, func(m logic.Node) bool {
			fn(m)
			return true
		})
	}
	var fns func([]*logic.Function)
	fns = func(list []*logic.Function) {
		for _, f := range list {
			for _, d := range f.Defines {
				each(d.Value)
			}
			for _, b := range f.Body {
				each(b)
			}
			fns(f.Functions)
		}
	}
	for _, d := range res.Defines {
		each(d.Value)
	}
	for _, n := range res.ExecNodes {
		each(n)
	}
	fns(res.Functions)
}
