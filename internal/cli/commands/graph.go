package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
)

// GraphQuerier provides read-only access to the dependency graph.
type GraphQuerier interface {
	GetParents(string) []string
	GetChildren(string) []string
	GetRoots() []string
	GetLeaves() []string
	NodeCount() int
	EdgeCount() int
}

// NewGraphCommand creates the graph command.
func NewGraphCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Show the dependency graph of a script",
		Long: `Display the dependency graph of the top-level declarations of a script.

Declarations are grouped by level: every declaration only reads
declarations of earlier levels. Inputs are the declarations that read
no other declaration, outputs the ones nothing else reads. A dependency
cycle is reported as an error.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format (agent-friendly)`,
		Example: `  # Show the graph
  sisuo graph invoice.ss

  # Output as JSON
  sisuo graph invoice.ss --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraph(cmd, args[0])
		},
	}

	return cmd
}

func runGraph(cmd *cobra.Command, path string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	src, err := readScript(path)
	if err != nil {
		return err
	}
	prog, err := cmdCtx.Engine.Compile(path, src)
	if err != nil {
		return err
	}

	graph, err := prog.Graph()
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	levels, err := graph.GetExecutionLevels()
	if err != nil {
		return fmt.Errorf("failed to get dependency levels: %w", err)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return graphJSON(r, path, graph, levels)
	case output.ModeMarkdown:
		return graphMarkdown(r, graph, levels)
	default:
		return graphText(r, graph, levels)
	}
}

// graphText outputs the graph in styled text format.
func graphText(r *output.Renderer, graph GraphQuerier, levels [][]string) error {
	styles := r.Styles()

	r.Header(1, "Dependency Graph")

	for i, level := range levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", i)))
		for _, name := range level {
			deps := graph.GetParents(name)
			children := graph.GetChildren(name)

			r.Printf("  %s\n", styles.Name.Render(name))
			if len(deps) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("depends on:"), strings.Join(deps, ", "))
			}
			if len(children) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("used by:"), strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Printf("%s %s\n", styles.Muted.Render("inputs:"), strings.Join(graph.GetRoots(), ", "))
	r.Printf("%s %s\n", styles.Muted.Render("outputs:"), strings.Join(graph.GetLeaves(), ", "))
	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d declarations, %d dependencies", graph.NodeCount(), graph.EdgeCount())))

	return nil
}

// graphMarkdown outputs the graph in markdown format.
func graphMarkdown(r *output.Renderer, graph GraphQuerier, levels [][]string) error {
	r.Println(output.FormatHeader(1, "Dependency Graph"))
	r.Println("")

	for i, level := range levels {
		levelName := fmt.Sprintf("Level %d", i)
		if i == 0 {
			levelName = "Level 0 (Inputs)"
		}
		r.Println(output.FormatHeader(2, levelName))

		for _, name := range level {
			deps := graph.GetParents(name)
			children := graph.GetChildren(name)

			r.Printf("- %s\n", name)
			if len(deps) > 0 {
				r.Printf("  - depends on: %s\n", strings.Join(deps, ", "))
			}
			if len(children) > 0 {
				r.Printf("  - used by: %s\n", strings.Join(children, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Inputs", strings.Join(graph.GetRoots(), ", ")))
	r.Println(output.FormatKeyValue("Outputs", strings.Join(graph.GetLeaves(), ", ")))
	r.Println(output.FormatKeyValue("Total Declarations", fmt.Sprintf("%d", graph.NodeCount())))
	r.Println(output.FormatKeyValue("Total Dependencies", fmt.Sprintf("%d", graph.EdgeCount())))

	return nil
}

// graphJSON outputs the graph in JSON format.
func graphJSON(r *output.Renderer, path string, graph GraphQuerier, levels [][]string) error {
	out := output.DAGOutput{
		File:              path,
		Levels:            make([]output.DAGLevel, 0, len(levels)),
		Inputs:            nonNil(graph.GetRoots()),
		Outputs:           nonNil(graph.GetLeaves()),
		TotalDeclarations: graph.NodeCount(),
		TotalEdges:        graph.EdgeCount(),
	}

	for i, level := range levels {
		dagLevel := output.DAGLevel{
			Level:        i,
			Declarations: make([]output.DAGNode, 0, len(level)),
		}
		for _, name := range level {
			dagLevel.Declarations = append(dagLevel.Declarations, output.DAGNode{
				Name:      name,
				DependsOn: nonNil(graph.GetParents(name)),
				UsedBy:    nonNil(graph.GetChildren(name)),
			})
		}
		out.Levels = append(out.Levels, dagLevel)
	}

	return r.JSON(out)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
