package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/internal/cli/config"
	"github.com/supaloboto/sisuo/internal/cli/output"
	"github.com/supaloboto/sisuo/internal/cli/testutil"
)

const graphScript = "var a = 1; var b = 2; ref c = a + b; ref d = c * 2; var e = a;"

func TestGraph_JSON(t *testing.T) {
	dir := setupProject(t, "json")
	script := testutil.WriteFile(t, dir, "g.ss", graphScript)

	stdout, _, err := runCommand(t, NewGraphCommand(), script)
	require.NoError(t, err)

	var out output.DAGOutput
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, 5, out.TotalDeclarations)
	assert.Equal(t, 4, out.TotalEdges)
	assert.Equal(t, []string{"a", "b"}, out.Inputs)
	assert.Equal(t, []string{"d", "e"}, out.Outputs)

	levels := make([][]string, 0, len(out.Levels))
	for _, l := range out.Levels {
		names := make([]string, 0, len(l.Declarations))
		for _, d := range l.Declarations {
			names = append(names, d.Name)
		}
		levels = append(levels, names)
	}
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "e"}, {"d"}}, levels)

	c := out.Levels[1].Declarations[0]
	assert.Equal(t, []string{"a", "b"}, c.DependsOn)
	assert.Equal(t, []string{"d"}, c.UsedBy)
}

func TestGraph_Markdown(t *testing.T) {
	dir := setupProject(t, "markdown")
	script := testutil.WriteFile(t, dir, "g.ss", graphScript)

	stdout, _, err := runCommand(t, NewGraphCommand(), script)
	require.NoError(t, err)
	testutil.AssertValidMarkdown(t, stdout)
	assert.Contains(t, stdout, "# Dependency Graph")
	assert.Contains(t, stdout, "## Level 0 (Inputs)")
	assert.Contains(t, stdout, "  - depends on: a, b")
	assert.Contains(t, stdout, output.FormatKeyValue("Inputs", "a, b"))
	assert.Contains(t, stdout, output.FormatKeyValue("Outputs", "d, e"))
	assert.Contains(t, stdout, output.FormatKeyValue("Total Declarations", "5"))
}

func TestGraph_Text(t *testing.T) {
	dir := setupProject(t, "text")
	script := testutil.WriteFile(t, dir, "g.ss", graphScript)

	stdout, _, err := runCommand(t, NewGraphCommand(), script)
	require.NoError(t, err)
	testutil.AssertNoANSI(t, stdout)
	assert.Contains(t, stdout, "Level 2:")
	assert.Contains(t, stdout, "inputs: a, b")
	assert.Contains(t, stdout, "outputs: d, e")
	assert.Contains(t, stdout, "Total: 5 declarations, 4 dependencies")
}

func TestGraph_Cycle(t *testing.T) {
	dir := setupProject(t, "json")
	cfgPath := testutil.WriteFile(t, dir, "sisuo.yaml", "resolution: two-pass\n")
	config.ResetConfig()
	_, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	script := testutil.WriteFile(t, dir, "cycle.ss", "ref a = b + 1; ref b = a + 1;")

	_, _, err = runCommand(t, NewGraphCommand(), script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}
