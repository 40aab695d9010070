package engine

// run.go - running compiled programs and reading their outputs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/logic"
)

// RunStatus is the outcome of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Output is the value of one declaration.
type Output struct {
	Name  string
	Kind  ast.DeclKind
	Value formula.Value
	// Err is the hard error raised while computing the value.
	Err error
}

// Text renders the value, or the error when there is one.
func (o Output) Text() string {
	if o.Err != nil {
		return "error: " + o.Err.Error()
	}
	return formula.Format(o.Value)
}

// Run records one evaluation of a program.
type Run struct {
	ID          string
	Program     string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt time.Time
	Outputs     []Output
	Return      formula.Value
	HasReturn   bool
	// Recomputed lists the ref declarations the assignments of the run
	// invalidated.
	Recomputed []string
	Error      string
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// Assignment sets a declaration or a parameter after the program is
// materialized.
type Assignment struct {
	Name  string
	Value formula.Value
}

// RunOption configures a run.
type RunOption func(*runOptions)

type runOptions struct {
	params map[string]formula.Value
	sets   []Assignment
}

// WithParams binds external parameters. Names may omit the '@'.
func WithParams(params map[string]formula.Value) RunOption {
	return func(o *runOptions) {
		if o.params == nil {
			o.params = make(map[string]formula.Value, len(params))
		}
		for k, v := range params {
			o.params[k] = v
		}
	}
}

// WithSet assigns a var or global declaration, or a parameter when name
// starts with '@', before outputs are read.
func WithSet(name string, v formula.Value) RunOption {
	return func(o *runOptions) {
		o.sets = append(o.sets, Assignment{Name: name, Value: v})
	}
}

// Run evaluates the program and reads every output. A hard error in one
// output marks the run failed but the other outputs are still read.
func (p *Program) Run(ctx context.Context, opts ...RunOption) (*Run, error) {
	ro := &runOptions{}
	for _, opt := range opts {
		opt(ro)
	}

	run := &Run{
		ID:        uuid.New().String(),
		Program:   p.Name,
		StartedAt: time.Now(),
	}
	logger := p.engine.logger.With("run_id", run.ID)
	logger.Info("starting run", "program", p.Name, "params", len(ro.params))

	if err := ctx.Err(); err != nil {
		return p.complete(run, logger, err)
	}

	ex := p.engine.executor(logger)
	x, err := ex.Execute(p.Logic, bindings(ex, ro.params))
	if err != nil {
		return p.complete(run, logger, err)
	}

	if len(ro.sets) > 0 {
		names := make([]string, len(ro.sets))
		for i, s := range ro.sets {
			if err := assign(x, s); err != nil {
				return p.complete(run, logger, err)
			}
			names[i] = s.Name
		}
		if run.Recomputed, err = p.Recomputed(names...); err != nil {
			return p.complete(run, logger, err)
		}
		logger.Debug("values set", "sets", len(names), "recomputed", len(run.Recomputed))
	}

	outs, err := readOutputs(ctx, x, p.Logic.Defines)
	run.Outputs = outs
	run.Return, run.HasReturn = x.Return()
	return p.complete(run, logger, err)
}

func (p *Program) complete(run *Run, logger *slog.Logger, err error) (*Run, error) {
	run.CompletedAt = time.Now()
	if err != nil {
		run.Status = RunStatusFailed
		run.Error = err.Error()
		logger.Info("run failed", "error", err.Error())
		return run, fmt.Errorf("%s: %w", p.Name, err)
	}
	run.Status = RunStatusCompleted
	logger.Info("run completed", "outputs", len(run.Outputs), "duration", run.Duration())
	return run, nil
}

func assign(x *exec.Execution, a Assignment) error {
	if len(a.Name) > 0 && a.Name[0] == '@' {
		return x.SetInput(a.Name, a.Value)
	}
	return x.Set(a.Name, a.Value)
}

// readOutputs reads the outputs of x. defs are the declarations the
// outputs were exported from, in the same order.
func readOutputs(ctx context.Context, x *exec.Execution, defs []*logic.Variable) ([]Output, error) {
	bound := x.Outputs()
	out := make([]Output, 0, len(bound))
	var errs []error
	for i, b := range bound {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		o := Output{Name: b.Name}
		if i < len(defs) {
			o.Kind = defs[i].Kind
		}
		o.Value, o.Err = b.Cell.Get()
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("evaluating %s: %w", b.Name, o.Err))
		}
		out = append(out, o)
	}
	return out, errors.Join(errs...)
}
