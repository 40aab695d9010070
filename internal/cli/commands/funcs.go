package commands

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/pkg/formula"
)

var functionFamilies = []string{
	formula.FamilyMath,
	formula.FamilyDate,
	formula.FamilyString,
	formula.FamilyLogic,
}

// NewFuncsCommand creates the funcs command.
func NewFuncsCommand() *cobra.Command {
	var family string
	cmd := &cobra.Command{
		Use:   "funcs",
		Short: "List the registered formula functions",
		Long: `List every function a script can call, with the family it belongs to.

Function names are case-insensitive in scripts.`,
		Example: `  sisuo funcs
  sisuo funcs --family date`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFuncs(cmd, family)
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "Only list one family (math|date|string|logic)")
	_ = cmd.RegisterFlagCompletionFunc("family", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return functionFamilies, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runFuncs(cmd *cobra.Command, family string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	family = strings.ToLower(strings.TrimSpace(family))
	if family != "" && !slices.Contains(functionFamilies, family) {
		return fmt.Errorf("unknown family %q (want %s)", family, strings.Join(functionFamilies, ", "))
	}

	funcs := listFunctions(cmdCtx.Engine.Runtime().Registry(), family)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(funcs)
	}

	rows := make([][]string, 0, len(funcs))
	for _, f := range funcs {
		rows = append(rows, []string{f.Name, f.Family})
	}
	r.Header(1, "Functions")
	r.Table([]string{"Name", "Family"}, rows)
	r.Muted(fmt.Sprintf("%d functions", len(funcs)))
	return nil
}

// listFunctions returns the functions of reg sorted by name, optionally
// limited to one family.
func listFunctions(reg *formula.Registry, family string) []output.FunctionInfo {
	names := reg.Names()
	out := make([]output.FunctionInfo, 0, len(names))
	for _, name := range names {
		fam := reg.Family(name)
		if family != "" && fam != family {
			continue
		}
		out = append(out, output.FunctionInfo{Name: name, Family: fam})
	}
	slices.SortFunc(out, func(a, b output.FunctionInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
