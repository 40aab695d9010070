package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/logic"
	"github.com/supaloboto/sisuo/pkg/parser"
	"github.com/supaloboto/sisuo/pkg/token"
)

// ErrEmptyInput is returned by Eval for blank input.
var ErrEmptyInput = errors.New("empty input")

// Session evaluates a script chunk by chunk. Declarations of earlier
// chunks stay visible to later ones, values can be changed, and every
// change propagates to the cells that read it.
type Session struct {
	engine *Engine
	id     string
	logger *slog.Logger
	params map[string]formula.Value

	executor *exec.Executor
	analyser *parser.Analyser
	renderer *logic.Renderer
	exec     *exec.Execution
	defs     []*logic.Variable
}

// NewSession starts a session with the given external parameters bound.
func (e *Engine) NewSession(params map[string]formula.Value) *Session {
	s := &Session{engine: e, params: params}
	s.Reset()
	return s
}

// ID returns the session id used in logs.
func (s *Session) ID() string {
	return s.id
}

// Reset drops every declaration and value of the session and rebinds the
// parameters it was created with.
func (s *Session) Reset() {
	e := s.engine
	s.id = uuid.New().String()
	s.logger = e.logger.With("session_id", s.id)
	s.executor = e.executor(s.logger)
	s.analyser = parser.NewAnalyser(parser.WithRegistry(e.runtime.Registry()))
	s.renderer = logic.NewRenderer(logic.WithResolution(e.resolution))
	s.defs = nil

	// an empty result cannot fail
	s.exec, _ = s.executor.Execute(&logic.Result{}, bindings(s.executor, s.params))
	s.logger.Debug("session started", "params", len(s.params))
}

// Load adds the statements of src to the session.
func (s *Session) Load(src string) error {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return err
	}
	return s.load(toks)
}

func (s *Session) load(toks []*token.Token) error {
	stmts, err := s.analyser.GetAST(toks)
	if err != nil {
		return err
	}
	res, err := s.renderer.Render(stmts)
	if err != nil {
		return err
	}
	if err := s.exec.Extend(res); err != nil {
		return err
	}
	s.defs = append(s.defs, res.Defines...)
	s.logger.Debug("chunk loaded", "declarations", len(res.Defines), "statements", len(res.ExecNodes))
	return nil
}

// EvalResult is what one line of input produced.
type EvalResult struct {
	// Value is set when the input was an expression.
	Value    formula.Value
	HasValue bool
	// Declared lists the names the input declared.
	Declared []string
}

// Eval runs one line of input. Statements are loaded into the session;
// anything else is evaluated as an expression in the session scope.
func (s *Session) Eval(src string) (*EvalResult, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	if n := len(toks); n > 0 && toks[n-1].Type == token.END {
		toks = toks[:n-1]
	}
	if len(toks) == 0 {
		return nil, ErrEmptyInput
	}

	if isStatement(toks) {
		before := len(s.defs)
		if err := s.load(toks); err != nil {
			return nil, err
		}
		out := &EvalResult{}
		for _, v := range s.defs[before:] {
			out.Declared = append(out.Declared, v.Name)
		}
		return out, nil
	}

	node, err := s.analyser.AssembleCalcNode(toks)
	if err != nil {
		return nil, err
	}
	res, err := s.renderer.Render(node)
	if err != nil {
		return nil, err
	}
	// new parameters only; the expression itself is evaluated below
	if err := s.exec.Extend(&logic.Result{Params: res.Params}); err != nil {
		return nil, err
	}
	if len(res.ExecNodes) == 0 {
		return nil, ErrEmptyInput
	}
	v, err := s.exec.Eval(res.ExecNodes[0])
	if err != nil {
		return nil, err
	}
	return &EvalResult{Value: v, HasValue: true}, nil
}

// isStatement reports whether toks must go through the statement builder
// rather than be evaluated as a single expression.
func isStatement(toks []*token.Token) bool {
	for _, t := range toks {
		if t.Type == token.END {
			return true
		}
	}
	first := toks[0]
	if first.Type == token.ELEMENT {
		switch first.Content {
		case token.KeywordVar, token.KeywordRef, token.KeywordGlobal, token.KeywordFunction, token.KeywordReturn:
			return true
		}
		if token.IsStubKeyword(first.Content) {
			return true
		}
	}
	return len(toks) > 1 && toks[1].Is(token.OPERATOR, "=")
}

// Set assigns a var or global declaration, or an external parameter when
// name starts with '@'.
func (s *Session) Set(name string, v formula.Value) error {
	if err := assign(s.exec, Assignment{Name: name, Value: v}); err != nil {
		return err
	}
	s.logger.Debug("value set", "name", name, "value", formula.Format(v))
	return nil
}

// Recomputed returns the ref declarations of the session whose value
// changes when the given names are assigned.
func (s *Session) Recomputed(names ...string) ([]string, error) {
	return recomputed(s.defs, names)
}

// Outputs reads every declaration of the session in declaration order.
func (s *Session) Outputs(ctx context.Context) ([]Output, error) {
	return readOutputs(ctx, s.exec, s.defs)
}

// Lookup reads one declaration.
func (s *Session) Lookup(name string) (Output, error) {
	c, ok := s.exec.Lookup(name)
	if !ok {
		return Output{}, fmt.Errorf("%w: %s", exec.ErrUnknownName, name)
	}
	o := Output{Name: name}
	for _, v := range s.defs {
		if v.Name == name {
			o.Kind = v.Kind
		}
	}
	o.Value, o.Err = c.Get()
	return o, nil
}

// Params returns the current values of the external parameters by name.
func (s *Session) Params() map[string]formula.Value {
	out := make(map[string]formula.Value)
	for name, c := range s.exec.Inputs() {
		v, err := c.Get()
		if err != nil {
			continue
		}
		out[name] = v
	}
	return out
}
