package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supaloboto/sisuo/internal/cli/config"
	"github.com/supaloboto/sisuo/internal/cli/testutil"
)

// setupProject creates a test project and loads its config with the
// given output mode, the way the root command does before running.
func setupProject(t *testing.T, outputMode string) string {
	t.Helper()

	dir := testutil.SetupTestProject(t)
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Setenv("SISUO_OUTPUT", outputMode)

	_, err := config.LoadConfig(filepath.Join(dir, "sisuo.yaml"), nil)
	require.NoError(t, err)
	return dir
}

// runCommand executes cmd with args and returns stdout and stderr.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandMetadata(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewEvalCommand(), "eval [files...]", []string{"param", "params", "set", "expr", "jobs"}},
		{NewTokensCommand(), "tokens <file>", nil},
		{NewASTCommand(), "ast <file>", nil},
		{NewLintCommand(), "lint <file>...", []string{"disable", "severity"}},
		{NewGraphCommand(), "graph <file>", nil},
		{NewFuncsCommand(), "funcs", []string{"family"}},
		{NewREPLCommand(), "repl", []string{"param", "params", "load", "history"}},
		{NewWatchCommand(), "watch <file>", []string{"param", "params", "set"}},
		{NewLSPCommand(), "lsp", nil},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short, "Short should not be empty")
			assert.NotEmpty(t, tt.cmd.Long, "Long should not be empty")
			assert.NotEmpty(t, tt.cmd.Example, "Example should not be empty")

			// output is a global flag on root, not local
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}
}

func TestGetConfig_Fallback(t *testing.T) {
	config.ResetConfig()
	t.Setenv("SISUO_OUTPUT", "json")
	t.Setenv("SISUO_RESOLUTION", "two-pass")

	cfg := getConfig()
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "two-pass", cfg.Resolution)
	assert.Equal(t, config.DefaultMaxDepth, cfg.MaxDepth)
}
