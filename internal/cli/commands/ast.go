package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/pkg/ast"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/parser"
)

// NewASTCommand creates the ast command.
func NewASTCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ast <file>",
		Short: "Dump the syntax tree of a script",
		Long: `Parse a script and print one syntax tree per statement.

Variable uses show the kind of the declaration they resolve to;
function declarations show their parameters and body.`,
		Example: `  sisuo ast invoice.ss
  sisuo ast invoice.ss -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAST(cmd, args[0])
		},
	}
	return cmd
}

func runAST(cmd *cobra.Command, path string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	src, err := readScript(path)
	if err != nil {
		return err
	}
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	stmts, err := parser.NewAnalyser(parser.WithRegistry(cmdCtx.Engine.Runtime().Registry())).GetAST(toks)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	descs := make([]*ast.Description, 0, stmts.Len())
	for _, n := range stmts.Nodes {
		descs = append(descs, ast.Describe(n))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(descs)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Syntax tree: "+path))
		r.Println("")
		r.Println("```")
		for _, d := range descs {
			writeDescription(r, d, 0)
		}
		r.Println("```")
	default:
		r.Header(1, "Syntax tree: "+path)
		for _, d := range descs {
			writeDescription(r, d, 0)
		}
	}
	return nil
}

// writeDescription prints d and its children, one node per line.
func writeDescription(r *output.Renderer, d *ast.Description, depth int) {
	if d == nil {
		return
	}
	r.Println(strings.Repeat("  ", depth) + describeLine(d))
	for _, c := range d.Children {
		writeDescription(r, c, depth+1)
	}
}

func describeLine(d *ast.Description) string {
	parts := []string{d.Kind}
	if d.Operator != "" {
		parts = append(parts, d.Operator)
	}
	if d.Decl != "" {
		parts = append(parts, d.Decl)
	}
	if d.Name != "" {
		parts = append(parts, d.Name)
	}
	if d.Value != "" {
		parts = append(parts, fmt.Sprintf("%q", d.Value))
	}
	return strings.Join(parts, " ")
}
