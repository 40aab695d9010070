// Package parser builds statement trees from nested tokens.
//
// # Usage
//
//	toks, err := lexer.Tokenize("var x = 1 + 2; ref y = x * 3;")
//	if err != nil {
//	    // handle error
//	}
//	stmts, err := parser.NewAnalyser().GetAST(toks)
//
// # Grammar Overview
//
// A script is a list of statements separated by ';'. The first token of a
// statement selects its shape:
//
//	var|ref|global name [= expr]
//	function name(params) { statements }
//	return expr
//	name = expr
//	name(args) [expr tail]
//	if|elseif|else|for ...        parsed, not executed
//
// Expressions are handled by AssembleCalcNode (calc.go).
package parser

import (
	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/token"
)

// Analyser turns token lists into statement trees. It keeps the symbol
// table of the scope it parses, so statements parsed later see the
// declarations of earlier ones, including across calls to GetAST.
type Analyser struct {
	scope    *Scope
	registry *formula.Registry
}

// Option configures an Analyser.
type Option func(*Analyser)

// WithRegistry sets the formula registry used to recognize built-in
// function calls.
func WithRegistry(r *formula.Registry) Option {
	return func(a *Analyser) { a.registry = r }
}

// NewAnalyser creates an analyser with an empty root scope.
func NewAnalyser(opts ...Option) *Analyser {
	a := &Analyser{
		scope:    NewScope(),
		registry: formula.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scope returns the analyser's symbol table.
func (a *Analyser) Scope() *Scope {
	return a.scope
}

// child creates an analyser for a nested function body.
func (a *Analyser) child() *Analyser {
	return &Analyser{scope: a.scope.Child(), registry: a.registry}
}

// Parse tokenizes text and builds its statements with a fresh analyser.
func Parse(text string, opts ...Option) (*ast.TreeNodeSet, []*token.Token, error) {
	toks, err := lexer.Tokenize(text)
	if err != nil {
		return nil, nil, err
	}
	stmts, err := NewAnalyser(opts...).GetAST(toks)
	if err != nil {
		return nil, toks, err
	}
	return stmts, toks, nil
}

// GetAST builds one node per statement. The first fatal error aborts the
// parse and no partial result is returned.
func (a *Analyser) GetAST(toks []*token.Token) (*ast.TreeNodeSet, error) {
	set := ast.NewTreeNodeSet()
	for _, stmt := range splitStatements(toks) {
		n, err := a.parseStatement(stmt)
		if err != nil {
			return nil, err
		}
		set.Append(n)
	}
	return set, nil
}

// splitStatements splits toks on top-level end tokens. A function
// declaration also ends after its body block.
func splitStatements(toks []*token.Token) [][]*token.Token {
	var (
		out [][]*token.Token
		cur []*token.Token
	)
	for _, t := range toks {
		if t.Type == token.END {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, t)
		if t.Type == token.FUNCTION && cur[0].Is(token.ELEMENT, token.KeywordFunction) {
			out = append(out, cur)
			cur = nil
		}
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func (a *Analyser) parseStatement(toks []*token.Token) (ast.Node, error) {
	first := toks[0]
	if first.Type == token.ELEMENT {
		switch kw := first.Content; {
		case kw == token.KeywordVar || kw == token.KeywordRef || kw == token.KeywordGlobal:
			return a.parseDeclaration(toks)
		case kw == token.KeywordFunction:
			return a.parseFunction(toks)
		case kw == token.KeywordReturn:
			return a.parseReturn(toks)
		case token.IsStubKeyword(kw):
			first.Annotate(CodeStubStatement, core.SeverityWarning, "'"+kw+"' statements are not executed")
			stub := &ast.StubNode{Keyword: kw, Tokens: toks}
			stub.Span = toks[0].Span.Join(toks[len(toks)-1].Span)
			stub.Token = first
			return stub, nil
		}
	}

	if len(toks) >= 2 {
		second := toks[1]
		switch {
		case second.Is(token.OPERATOR, "="):
			return a.parseAssignment(toks)
		case first.Type == token.ELEMENT && second.Type == token.BRACKET:
			if _, ok := a.scope.LookupFunc(first.Content); !ok {
				return nil, errorAt(first, ErrUndefinedFunction, "undefined function %q", first.Content)
			}
			return a.AssembleCalcNode(toks)
		}
	}
	return nil, errorAt(first, ErrUnknownStatement, "unknown statement starting with %q", first.Content)
}

// var|ref|global name [= expr]
func (a *Analyser) parseDeclaration(toks []*token.Token) (ast.Node, error) {
	kw := toks[0]
	kind, _ := ast.DeclKindFor(kw.Content)
	if len(toks) < 2 || toks[1].Type != token.ELEMENT {
		return nil, errorAt(kw, ErrUnknownStatement, "%s must be followed by a name", kw.Content)
	}
	nameTok := toks[1]
	if nameTok.Content[0] == '@' {
		return nil, errorAt(nameTok, ErrUnknownStatement, "cannot declare external reference %q", nameTok.Content)
	}
	if a.scope.IsLocal(nameTok.Content) {
		return nil, errorAt(nameTok, ErrDuplicateDeclaration, "%q is already declared", nameTok.Content)
	}

	var value ast.Node
	switch {
	case len(toks) == 2:
		value = &ast.ConstNode{NodeInfo: ast.NodeInfo{Span: nameTok.Span}}
	case toks[2].Is(token.OPERATOR, "="):
		if len(toks) == 3 {
			return nil, errorAt(toks[2], ErrMissingOperand, "missing value after '='")
		}
		v, err := a.AssembleCalcNode(toks[3:])
		if err != nil {
			return nil, err
		}
		value = v
	default:
		return nil, errorAt(toks[2], ErrUnknownStatement, "expected '=' after %q", nameTok.Content)
	}

	if _, ok := a.scope.LookupVar(nameTok.Content); ok {
		nameTok.Annotate(CodeShadowed, core.SeverityInfo, "'"+nameTok.Content+"' shadows an outer declaration")
	}
	decl := &ast.VarNode{Name: nameTok.Content, Kind: kind}
	decl.Span, decl.Token = nameTok.Span, nameTok
	a.scope.DeclareVar(decl)

	n := ast.NewTreeNode(kw.Content)
	n.Span = kw.Span
	n.SetLeft(decl)
	n.SetRight(value)
	return n, nil
}

// function name(params) { body }
func (a *Analyser) parseFunction(toks []*token.Token) (ast.Node, error) {
	kw := toks[0]
	if len(toks) != 4 || toks[1].Type != token.ELEMENT || toks[2].Type != token.BRACKET || toks[3].Type != token.FUNCTION {
		return nil, errorAt(kw, ErrUnknownStatement, "malformed function declaration")
	}
	nameTok, paramsTok, bodyTok := toks[1], toks[2], toks[3]
	if a.scope.localFuncs[nameTok.Content] {
		return nil, errorAt(nameTok, ErrDuplicateDeclaration, "function %q is already declared", nameTok.Content)
	}

	fn := ast.NewFuncNode(nameTok.Content)
	fn.Span = kw.Span.Join(bodyTok.Span)
	fn.Token = nameTok

	inner := a.child()
	for _, group := range splitArgs(paramsTok.Children) {
		if len(group) != 1 || group[0].Type != token.ELEMENT {
			return nil, errorAt(paramsTok, ErrUnknownStatement, "function parameters must be plain names")
		}
		p := &ast.VarNode{Name: group[0].Content, Kind: ast.DeclParam}
		p.Span, p.Token = group[0].Span, group[0]
		if !inner.scope.DeclareVar(p) {
			return nil, errorAt(group[0], ErrDuplicateDeclaration, "parameter %q is repeated", p.Name)
		}
		fn.Params.Append(p)
	}
	// self reference for recursion
	inner.scope.DeclareFunc(fn)

	body, err := inner.GetAST(bodyTok.Children)
	if err != nil {
		return nil, err
	}
	fn.Body = body
	a.scope.DeclareFunc(fn)
	return fn, nil
}

// return expr
func (a *Analyser) parseReturn(toks []*token.Token) (ast.Node, error) {
	n := ast.NewTreeNode(token.KeywordReturn)
	n.Span = toks[0].Span
	if len(toks) == 1 {
		return n, nil
	}
	v, err := a.AssembleCalcNode(toks[1:])
	if err != nil {
		return nil, err
	}
	n.SetLeft(v)
	return n, nil
}

// name = expr
func (a *Analyser) parseAssignment(toks []*token.Token) (ast.Node, error) {
	nameTok := toks[0]
	if nameTok.Type != token.ELEMENT {
		return nil, errorAt(nameTok, ErrUnknownStatement, "cannot assign to %q", nameTok.Content)
	}
	decl, ok := a.scope.LookupVar(nameTok.Content)
	if !ok {
		return nil, errorAt(nameTok, ErrUndefinedVariable, "assignment to undeclared variable %q", nameTok.Content)
	}
	if len(toks) == 2 {
		return nil, errorAt(toks[1], ErrMissingOperand, "missing value after '='")
	}
	value, err := a.AssembleCalcNode(toks[2:])
	if err != nil {
		return nil, err
	}
	target := &ast.VarNode{Name: decl.Name, Decl: decl}
	target.Span, target.Token = nameTok.Span, nameTok

	n := ast.NewTreeNode("=")
	n.SetLeft(target)
	n.SetRight(value)
	return n, nil
}

// splitArgs splits the children of a bracket on split and end tokens.
// An empty bracket has no groups; an empty group between two separators is
// kept as an empty slice.
func splitArgs(toks []*token.Token) [][]*token.Token {
	if len(toks) == 0 {
		return nil
	}
	groups := [][]*token.Token{{}}
	for _, t := range toks {
		if t.Type == token.SPLIT || t.Type == token.END {
			groups = append(groups, []*token.Token{})
			continue
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], t)
	}
	return groups
}
