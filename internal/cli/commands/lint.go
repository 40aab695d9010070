package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/lint"
)

// errLintFailed is returned when at least one error diagnostic was found.
var errLintFailed = errors.New("lint errors found")

// LintOptions holds options for the lint command.
type LintOptions struct {
	Disable  []string // Codes to disable
	Severity []string // code=severity overrides
}

// NewLintCommand creates the lint command.
func NewLintCommand() *cobra.Command {
	opts := &LintOptions{}
	cmd := &cobra.Command{
		Use:   "lint <file>...",
		Short: "Report diagnostics for scripts",
		Long: `Analyze scripts for problems without evaluating them.

Reports syntax errors, names read before they are declared, dependency
cycles, unused function parameters and functions that are never called. Codes can be disabled or re-graded in sisuo.yaml under
lint, or with flags.

Exits with a non-zero status when an error diagnostic is found.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Lint a script
  sisuo lint invoice.ss

  # Disable a code
  sisuo lint invoice.ss --disable unused-function

  # Treat unused parameters as errors
  sisuo lint invoice.ss --severity unused-param=error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Disable, "disable", nil, "Diagnostic codes to disable")
	cmd.Flags().StringSliceVar(&opts.Severity, "severity", nil, "Severity overrides as code=error|warning|info")

	return cmd
}

func runLint(cmd *cobra.Command, paths []string, opts *LintOptions) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	r := cmdCtx.Renderer

	lintCfg, err := buildLintConfig(cmdCtx, opts)
	if err != nil {
		return err
	}
	eng, err := createEngine(cmdCtx.Cfg, cmdCtx.Logger, lintCfg)
	if err != nil {
		return err
	}

	results := make([]lintFileResult, 0, len(paths))
	for _, path := range paths {
		src, err := readScript(path)
		if err != nil {
			return err
		}
		results = append(results, lintFileResult{
			Path:        path,
			Diagnostics: eng.Lint(src),
		})
	}

	if renderLintResults(r, results) {
		return errLintFailed
	}
	return nil
}

// buildLintConfig merges the project lint config with CLI overrides.
func buildLintConfig(cmdCtx *CommandContext, opts *LintOptions) (*lint.Config, error) {
	// Project config first (lower precedence)
	lintCfg, err := cmdCtx.Cfg.Lint.Build()
	if err != nil {
		return nil, err
	}

	// CLI overrides (higher precedence)
	for _, code := range opts.Disable {
		lintCfg.Disable(strings.TrimSpace(code))
	}
	for _, o := range opts.Severity {
		code, name, ok := strings.Cut(o, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --severity %q: want code=severity", o)
		}
		sev, ok := core.ParseSeverity(strings.TrimSpace(name))
		if !ok {
			return nil, fmt.Errorf("invalid --severity %q: unknown severity %q", o, name)
		}
		lintCfg.SetSeverity(strings.TrimSpace(code), sev)
	}

	return lintCfg, nil
}

// lintFileResult holds lint results for a single file.
type lintFileResult struct {
	Path        string
	Diagnostics []lint.Diagnostic
}

// renderLintResults renders results and reports whether any error was found.
func renderLintResults(r *output.Renderer, results []lintFileResult) bool {
	// Calculate summary stats
	summary := output.LintSummary{
		FilesAnalyzed: len(results),
	}
	for _, res := range results {
		summary.TotalIssues += len(res.Diagnostics)
		counts := lint.Count(res.Diagnostics)
		summary.Errors += counts[core.SeverityError]
		summary.Warnings += counts[core.SeverityWarning]
		summary.Info += counts[core.SeverityInfo]
	}
	failed := summary.Errors > 0

	if r.EffectiveMode() == output.ModeJSON {
		jsonOutput := output.LintOutput{
			Summary: summary,
			Files:   make([]output.LintFileResult, 0, len(results)),
		}
		for _, res := range results {
			jsonOutput.Files = append(jsonOutput.Files, output.LintFileResult{
				Path:        res.Path,
				Diagnostics: diagnosticInfos(res.Diagnostics),
			})
		}
		_ = r.JSON(jsonOutput)
		return failed
	}

	if summary.TotalIssues == 0 {
		r.Success("No lint issues found")
		return false
	}

	// Text/Markdown output
	for _, res := range results {
		if len(res.Diagnostics) == 0 {
			continue
		}
		r.Println(r.Styles().Name.Render(res.Path))
		for _, d := range res.Diagnostics {
			loc := fmt.Sprintf("%d:%d", d.From.Row+1, d.From.Col+1)
			r.Printf("  %s  %s  %s  %s\n",
				r.Styles().Muted.Render(fmt.Sprintf("%-5s", loc)),
				severityStyle(r, d.Severity),
				r.Styles().Bold.Render(d.Code),
				d.Message,
			)
		}
		r.Println("")
	}

	// Print summary
	summaryParts := []string{fmt.Sprintf("%d issues", summary.TotalIssues)}
	if summary.Errors > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d errors", summary.Errors))
	}
	if summary.Warnings > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d warnings", summary.Warnings))
	}
	if summary.Info > 0 {
		summaryParts = append(summaryParts, fmt.Sprintf("%d info", summary.Info))
	}
	r.Printf("Summary: %s in %d files\n", strings.Join(summaryParts, ", "), summary.FilesAnalyzed)

	return failed
}

func severityStyle(r *output.Renderer, sev core.Severity) string {
	switch sev {
	case core.SeverityError:
		return r.Styles().Error.Render("error  ")
	case core.SeverityWarning:
		return r.Styles().Warning.Render("warning")
	case core.SeverityInfo:
		return r.Styles().Info.Render("info   ")
	default:
		return r.Styles().Muted.Render("unknown")
	}
}

// diagnosticInfos converts diagnostics to their 1-based JSON form.
func diagnosticInfos(diags []lint.Diagnostic) []output.DiagnosticInfo {
	out := make([]output.DiagnosticInfo, 0, len(diags))
	for _, d := range diags {
		out = append(out, output.DiagnosticInfo{
			Line:     d.From.Row + 1,
			Column:   d.From.Col + 1,
			EndLine:  d.To.Row + 1,
			EndCol:   d.To.Col + 1,
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
		})
	}
	return out
}
