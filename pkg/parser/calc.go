package parser

import (
	"strings"
	"unicode"

	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/token"
)

// AssembleCalcNode parses one expression into an operator tree.
//
// The expression is read left to right with a single pending operator.
// Multiplicative operators that follow an additive node take over that
// node's right operand, which gives them tighter binding without a
// precedence table. A comparison takes everything read so far as its left
// operand and the tokens up to the next && or || as its right operand.
//
// It returns nil for an empty slice. The result depends only on toks and
// the analyser's symbol table.
func (a *Analyser) AssembleCalcNode(toks []*token.Token) (ast.Node, error) {
	if len(toks) == 0 {
		return nil, nil
	}
	b := &calcBuilder{a: a, cur: ast.NewTreeNode("")}
	return b.build(toks)
}

type calcBuilder struct {
	a   *Analyser
	cur *ast.TreeNode

	pending    formula.Op
	pendingTok *token.Token
	negate     bool
	signTok    *token.Token
	// started is set once the first operand is in place.
	started bool
}

func (b *calcBuilder) expectOperand() bool {
	return !b.started || b.pending != formula.OpNone
}

func (b *calcBuilder) build(toks []*token.Token) (ast.Node, error) {
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		switch tok.Type {
		case token.OPERATOR:
			op, ok := formula.LookupOp(tok.Content)
			if !ok {
				return nil, errorAt(tok, ErrUnrecognizedOperator, "unrecognized operator %q", tok.Content)
			}
			if op.IsComparison() || op.IsLogical() {
				next, err := b.combine(op, tok, toks, i)
				if err != nil {
					return nil, err
				}
				i = next - 1
				continue
			}
			if b.expectOperand() {
				if !op.IsAdditive() {
					return nil, errorAt(tok, ErrMissingOperand, "operator %q has no left operand", tok.Content)
				}
				if op == formula.OpSub {
					b.negate = !b.negate
				}
				if b.signTok == nil {
					b.signTok = tok
				}
				continue
			}
			b.pending, b.pendingTok = op, tok

		case token.SPLIT, token.END, token.FUNCTION:
			return nil, errorAt(tok, ErrUnrecognizedOperator, "unexpected %s in expression", tok.Type)

		default:
			if !b.expectOperand() {
				return nil, errorAt(tok, ErrUnrecognizedOperator, "expected an operator before %q", tok.Content)
			}
			operand, used, err := b.operand(toks, i)
			if err != nil {
				return nil, err
			}
			i += used - 1
			b.apply(operand)
		}
	}
	return b.finish(toks[len(toks)-1])
}

// combine handles a comparison or logical operator at toks[i] and returns
// the index of the first token it did not consume.
func (b *calcBuilder) combine(op formula.Op, tok *token.Token, toks []*token.Token, i int) (int, error) {
	if b.expectOperand() {
		return 0, errorAt(tok, ErrMissingOperand, "operator %q has no left operand", tok.Content)
	}
	end := i + 1
	for end < len(toks) && !isLogical(toks[end]) {
		end++
	}
	if end == i+1 {
		return 0, errorAt(tok, ErrMissingOperand, "operator %q has no right operand", tok.Content)
	}
	right, err := b.a.AssembleCalcNode(toks[i+1 : end])
	if err != nil {
		return 0, err
	}
	left := b.result()
	n := ast.NewTreeNode(tok.Content)
	n.SetLeft(left)
	n.SetRight(right)
	b.cur = n
	return end, nil
}

func isLogical(t *token.Token) bool {
	if t.Type != token.OPERATOR {
		return false
	}
	op, ok := formula.LookupOp(t.Content)
	return ok && op.IsLogical()
}

// apply attaches an operand using the pending operator.
func (b *calcBuilder) apply(operand ast.Node) {
	if b.negate {
		neg := ast.NewTreeNode("-")
		neg.SetLeft(zeroAt(b.signTok))
		neg.SetRight(operand)
		operand = neg
	}
	b.negate, b.signTok = false, nil

	op := b.pending
	b.pending, b.pendingTok = formula.OpNone, nil
	if !b.started {
		b.cur.SetLeft(operand)
		b.started = true
		return
	}

	cur := b.cur
	curOp, _ := formula.LookupOp(cur.Operator)
	switch {
	case cur.Right() == nil:
		cur.Operator = op.String()
		cur.SetRight(operand)
	case op.IsMultiplicative() && curOp.IsAdditive():
		// take over the right operand of the additive node
		m := ast.NewTreeNode(op.String())
		m.SetLeft(cur.Right())
		m.SetRight(operand)
		cur.SetRight(m)
	default:
		n := ast.NewTreeNode(op.String())
		n.SetLeft(cur)
		n.SetRight(operand)
		b.cur = n
	}
}

// result returns the tree built so far, detached from the working node
// when it is a bare operand.
func (b *calcBuilder) result() ast.Node {
	if b.cur.Operator == "" && b.cur.Right() == nil {
		left := b.cur.Left()
		if left != nil {
			ast.Detach(left)
		}
		return left
	}
	return ast.Root(b.cur)
}

func (b *calcBuilder) finish(last *token.Token) (ast.Node, error) {
	if b.pending != formula.OpNone {
		return nil, errorAt(b.pendingTok, ErrMissingOperand, "operator %q has no right operand", b.pendingTok.Content)
	}
	if b.signTok != nil {
		return nil, errorAt(b.signTok, ErrMissingOperand, "sign %q has no operand", b.signTok.Content)
	}
	if !b.started {
		return nil, errorAt(last, ErrMissingOperand, "empty expression")
	}
	return b.result(), nil
}

// operand builds the operand starting at toks[i] and reports how many
// tokens it used.
func (b *calcBuilder) operand(toks []*token.Token, i int) (ast.Node, int, error) {
	tok := toks[i]
	switch tok.Type {
	case token.ELEMENT:
		if i+1 < len(toks) && toks[i+1].Type == token.BRACKET {
			call, err := b.a.call(tok, toks[i+1])
			return call, 2, err
		}
		return b.a.leaf(tok), 1, nil
	case token.QUOTE:
		c := &ast.ConstNode{Value: lexer.Unquote(tok.Content), Quoted: true}
		c.Span, c.Token = tok.Span, tok
		return c, 1, nil
	case token.BRACKET:
		if len(tok.Children) == 0 {
			return nil, 0, errorAt(tok, ErrMissingOperand, "empty brackets")
		}
		sub, err := b.a.AssembleCalcNode(tok.Children)
		return sub, 1, err
	case token.ARRAY:
		arr := ast.NewFuncNode("ARRAY")
		arr.Span, arr.Token = tok.Span, tok
		if err := b.a.args(arr, tok); err != nil {
			return nil, 0, err
		}
		return arr, 1, nil
	}
	return nil, 0, errorAt(tok, ErrUnrecognizedOperator, "unexpected %s %q", tok.Type, tok.Content)
}

// call builds a call of a user function or a registered formula.
func (a *Analyser) call(nameTok, argsTok *token.Token) (ast.Node, error) {
	fn := ast.NewFuncNode(nameTok.Content)
	fn.Span = nameTok.Span.Join(argsTok.Span)
	fn.Token = nameTok
	if decl, ok := a.scope.LookupFunc(nameTok.Content); ok {
		fn.Decl = decl
	} else if !a.registry.Has(nameTok.Content) {
		return nil, errorAt(nameTok, ErrUndefinedFunction, "undefined function %q", nameTok.Content)
	}
	if err := a.args(fn, argsTok); err != nil {
		return nil, err
	}
	return fn, nil
}

// args parses the comma separated groups of a bracket token into fn.Params.
func (a *Analyser) args(fn *ast.FuncNode, group *token.Token) error {
	for _, arg := range splitArgs(group.Children) {
		if len(arg) == 0 {
			empty := &ast.ConstNode{}
			empty.Span = token.Span{Start: group.Span.Start, End: group.Span.Start}
			fn.Params.Nodes = append(fn.Params.Nodes, empty)
			continue
		}
		n, err := a.AssembleCalcNode(arg)
		if err != nil {
			return err
		}
		fn.Params.Append(n)
	}
	return nil
}

// leaf resolves a bare word: an external reference, a declared variable,
// or a literal.
func (a *Analyser) leaf(tok *token.Token) ast.Node {
	name := tok.Content
	if strings.HasPrefix(name, "@") {
		v := &ast.VarNode{Name: name}
		v.Span, v.Token = tok.Span, tok
		return v
	}
	if decl, ok := a.scope.LookupVar(name); ok {
		v := &ast.VarNode{Name: name, Decl: decl}
		v.Span, v.Token = tok.Span, tok
		return v
	}
	c := &ast.ConstNode{Value: name, Ident: looksLikeIdent(name)}
	c.Span, c.Token = tok.Span, tok
	if c.Ident {
		tok.Annotate(CodeUnresolvedName, core.SeverityWarning, "'"+name+"' is not declared before this point and is read as text")
	}
	return c
}

func zeroAt(tok *token.Token) *ast.ConstNode {
	z := &ast.ConstNode{Value: "0"}
	z.Span = token.Span{Start: tok.Span.Start, End: tok.Span.Start}
	return z
}

// looksLikeIdent reports whether s reads as a name rather than a number or
// a boolean literal.
func looksLikeIdent(s string) bool {
	if s == "true" || s == "false" {
		return false
	}
	if _, ok := formula.ParseNumber(s); ok {
		return false
	}
	r := []rune(s)[0]
	return unicode.IsLetter(r) || r == '_'
}
