package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/internal/engine"
	"github.com/supaloboto/sisuo/pkg/formula"
	"golang.org/x/sync/errgroup"
)

// DefaultJobs is the default number of scripts evaluated at once.
const DefaultJobs = 4

// EvalOptions holds options for the eval command.
type EvalOptions struct {
	Params     []string // name=value parameter bindings
	ParamsFile string   // YAML file of parameter bindings
	Sets       []string // name=value assignments applied after evaluation
	Exprs      []string // expressions evaluated in the scope of the scripts
	Jobs       int      // scripts evaluated concurrently
}

// NewEvalCommand creates the eval command.
func NewEvalCommand() *cobra.Command {
	opts := &EvalOptions{}
	cmd := &cobra.Command{
		Use:   "eval [files...]",
		Short: "Evaluate scripts and print their declarations",
		Long: `Evaluate one or more scripts and print the value of every declaration.

External @parameters are bound from, in increasing precedence, the params
section of sisuo.yaml, a YAML params file and --param flags. A parameter
that is read but never bound evaluates to NaN.

--set assigns a var or global declaration (or an @parameter) after the
script is evaluated. ref declarations that read it are recomputed before
the outputs are printed; var declarations that read it keep the value
they took when the script was evaluated.

With --expr the scripts are loaded into one session and only the
expressions are printed.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Evaluate a script
  sisuo eval invoice.ss --param qty=3

  # Bind parameters from a file and override one
  sisuo eval invoice.ss --params params.yaml --param rate=0.2

  # Change a var after evaluation
  sisuo eval invoice.ss --param qty=3 --set price=10

  # Evaluate an expression against a script
  sisuo eval invoice.ss --param qty=3 -e "total / qty"

  # Evaluate several scripts concurrently, as JSON
  sisuo eval scripts/*.ss -j 8 -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, args, opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "Bind an external parameter (name=value, repeatable)")
	cmd.Flags().StringVar(&opts.ParamsFile, "params", "", "YAML file of parameter bindings")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "Assign a declaration after evaluation (name=value, repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Exprs, "expr", "e", nil, "Evaluate an expression in the scope of the scripts (repeatable)")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", DefaultJobs, "Number of scripts evaluated concurrently")

	return cmd
}

// evalResult is the outcome of one script.
type evalResult struct {
	Path    string
	Program *engine.Program
	Run     *engine.Run
	Err     error
}

func runEval(cmd *cobra.Command, paths []string, opts *EvalOptions) error {
	if len(paths) == 0 && len(opts.Exprs) == 0 {
		return fmt.Errorf("nothing to evaluate: give script files or --expr")
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	params, err := loadParams(cmdCtx.Cfg, opts.ParamsFile, opts.Params)
	if err != nil {
		return err
	}
	sets, err := parseSets(opts.Sets)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if len(opts.Exprs) > 0 {
		return evalExprs(cmdCtx, paths, params, sets, opts.Exprs)
	}

	results, err := evalFiles(ctx, cmdCtx.Engine, paths, params, sets, opts.Jobs)
	if err != nil {
		return err
	}

	renderEvalResults(cmdCtx.Renderer, results)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scripts failed", failed, len(results))
	}
	return nil
}

// evalFiles compiles and runs every script, at most jobs at a time.
// Script errors are recorded per result; only I/O errors abort.
func evalFiles(ctx context.Context, eng *engine.Engine, paths []string, params map[string]formula.Value, sets []engine.Assignment, jobs int) ([]evalResult, error) {
	if jobs < 1 {
		jobs = 1
	}

	runOpts := []engine.RunOption{engine.WithParams(params)}
	for _, s := range sets {
		runOpts = append(runOpts, engine.WithSet(s.Name, s.Value))
	}

	results := make([]evalResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, path := range paths {
		g.Go(func() error {
			src, err := readScript(path)
			if err != nil {
				return err
			}
			res := evalResult{Path: path}
			res.Program, res.Err = eng.Compile(path, src)
			if res.Err == nil {
				res.Run, res.Err = res.Program.Run(gctx, runOpts...)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func renderEvalResults(r *output.Renderer, results []evalResult) {
	if r.EffectiveMode() == output.ModeJSON {
		outs := make([]output.EvalOutput, 0, len(results))
		for _, res := range results {
			outs = append(outs, evalOutput(res))
		}
		_ = r.JSON(outs)
		return
	}

	for _, res := range results {
		r.Header(2, res.Path)

		if res.Program != nil {
			for _, d := range res.Program.Diagnostics {
				r.Warning(res.Path + ":" + d.String())
			}
		}

		if res.Run != nil {
			rows := make([][]string, 0, len(res.Run.Outputs))
			for _, o := range res.Run.Outputs {
				rows = append(rows, []string{o.Name, o.Kind.String(), o.Text()})
			}
			if len(rows) > 0 {
				r.Table([]string{"Name", "Kind", "Value"}, rows)
			}
			if res.Run.HasReturn {
				r.Println("return: " + formula.Format(res.Run.Return))
			}
			if len(res.Run.Recomputed) > 0 {
				r.Println("recomputed: " + strings.Join(res.Run.Recomputed, ", "))
			}
		}

		if res.Err != nil {
			r.Error(res.Err.Error())
		}
		r.Println("")
	}
}

// evalOutput converts a result into its JSON form.
func evalOutput(res evalResult) output.EvalOutput {
	out := output.EvalOutput{
		File:    res.Path,
		Status:  string(engine.RunStatusFailed),
		Outputs: []output.OutputValue{},
	}
	if res.Program != nil {
		out.Diagnostics = diagnosticInfos(res.Program.Diagnostics)
	}
	if run := res.Run; run != nil {
		out.RunID = run.ID
		out.Status = string(run.Status)
		out.DurationMS = run.Duration().Milliseconds()
		for _, o := range run.Outputs {
			ov := output.OutputValue{Name: o.Name, Kind: o.Kind.String()}
			if o.Err != nil {
				ov.Error = o.Err.Error()
			} else {
				ov.Value = formula.Format(o.Value)
			}
			out.Outputs = append(out.Outputs, ov)
		}
		if run.HasReturn {
			v := formula.Format(run.Return)
			out.Return = &v
		}
		out.Recomputed = run.Recomputed
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}

// evalExprs loads every script into one session and evaluates exprs in it.
func evalExprs(cmdCtx *CommandContext, paths []string, params map[string]formula.Value, sets []engine.Assignment, exprs []string) error {
	r := cmdCtx.Renderer
	sess := cmdCtx.Engine.NewSession(params)

	for _, path := range paths {
		src, err := readScript(path)
		if err != nil {
			return err
		}
		if err := sess.Load(src); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, s := range sets {
		if err := sess.Set(s.Name, s.Value); err != nil {
			return fmt.Errorf("--set %s: %w", s.Name, err)
		}
	}

	type exprOutput struct {
		Expr  string `json:"expr"`
		Value string `json:"value,omitempty"`
		Error string `json:"error,omitempty"`
	}
	outs := make([]exprOutput, 0, len(exprs))
	var failed int
	for _, expr := range exprs {
		o := exprOutput{Expr: strings.TrimSpace(expr)}
		res, err := sess.Eval(expr)
		switch {
		case err != nil:
			o.Error = err.Error()
			failed++
		case res.HasValue:
			o.Value = formula.Format(res.Value)
		default:
			o.Value = strings.Join(res.Declared, ", ")
		}
		outs = append(outs, o)
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(outs); err != nil {
			return err
		}
	} else {
		for _, o := range outs {
			if o.Error != "" {
				r.Error(o.Expr + ": " + o.Error)
				continue
			}
			r.Printf("%s = %s\n", r.Styles().Name.Render(o.Expr), o.Value)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d expressions failed", failed, len(exprs))
	}
	return nil
}
