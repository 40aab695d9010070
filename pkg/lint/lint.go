package lint

import (
	"errors"
	"slices"

	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/logic"
	"github.com/supaloboto/sisuo/pkg/parser"
	"github.com/supaloboto/sisuo/pkg/token"
)

// Option configures Check.
type Option func(*options)

type options struct {
	config     *Config
	resolution logic.Resolution
	registry   *formula.Registry
}

// WithConfig filters and re-grades the diagnostics.
func WithConfig(c *Config) Option {
	return func(o *options) { o.config = c }
}

// WithResolution selects the name resolution used when rendering.
func WithResolution(r logic.Resolution) Option {
	return func(o *options) { o.resolution = r }
}

// WithRegistry sets the function registry the parser resolves calls
// against.
func WithRegistry(r *formula.Registry) Option {
	return func(o *options) { o.registry = r }
}

// Collect converts the notes attached to toks and their children into
// diagnostics, in token order.
func Collect(toks []*token.Token) []Diagnostic {
	var out []Diagnostic
	token.Walk(toks, func(t *token.Token) bool {
		for _, n := range t.Notes {
			out = append(out, Diagnostic{
				From:     t.Span.Start,
				To:       t.Span.End,
				Severity: n.Severity,
				Message:  n.Message,
				Code:     n.Code,
			})
		}
		return true
	})
	return out
}

// FromError converts a fatal lexer or parser error into a diagnostic.
// Errors without a position are reported at the start of the text.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: core.SeverityError, Message: err.Error(), Code: CodeSyntax}
	var lexErr *lexer.LexError
	var parseErr *parser.ParseError
	switch {
	case errors.As(err, &lexErr):
		d.From, d.To, d.Message = lexErr.Span.Start, lexErr.Span.End, lexErr.Message
	case errors.As(err, &parseErr):
		d.From, d.To, d.Message = parseErr.Span.Start, parseErr.Span.End, parseErr.Message
	}
	if d.To.Offset < d.From.Offset {
		d.To = d.From
	}
	return d
}

// Check tokenizes, parses and renders text and returns every diagnostic
// sorted by position. A fatal error ends the check with one syntax
// diagnostic after the notes collected so far.
func Check(text string, opts ...Option) []Diagnostic {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	toks, err := lexer.Tokenize(text)
	if err != nil {
		return o.config.apply([]Diagnostic{FromError(err)})
	}

	var popts []parser.Option
	if o.registry != nil {
		popts = append(popts, parser.WithRegistry(o.registry))
	}
	set, err := parser.NewAnalyser(popts...).GetAST(toks)
	if err != nil {
		diags := append(Collect(toks), FromError(err))
		return finish(o, diags)
	}

	res, err := logic.Render(set, logic.WithResolution(o.resolution))
	if err != nil {
		diags := append(Collect(toks), FromError(err))
		return finish(o, diags)
	}

	diags := dropResolved(Collect(toks), res)
	diags = append(diags, checkGraph(res)...)
	return finish(o, diags)
}

func finish(o *options, diags []Diagnostic) []Diagnostic {
	diags = o.config.apply(diags)
	slices.SortStableFunc(diags, func(a, b Diagnostic) int {
		return a.From.Offset - b.From.Offset
	})
	return diags
}

// dropResolved removes unresolved-name notes for identifiers that the
// renderer bound to a declaration after all.
func dropResolved(diags []Diagnostic, res *logic.Result) []Diagnostic {
	unresolved := make(map[int]bool)
	visitProgram(res, func(n logic.Node) {
		if c, ok := n.(*logic.Constant); ok && c.Ident {
			unresolved[c.Span.Start.Offset] = true
		}
	})
	out := diags[:0]
	for _, d := range diags {
		if d.Code == parser.CodeUnresolvedName && !unresolved[d.From.Offset] {
			continue
		}
		out = append(out, d)
	}
	return out
}
