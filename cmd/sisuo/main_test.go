// Package main provides tests for the SiSuo CLI.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/supaloboto/sisuo/internal/cli"
)

func testdataDir(t *testing.T) string {
	t.Helper()
	// Get the absolute path to testdata directory
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}
	return filepath.Join(wd, "..", "..", "testdata")
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(out, "SiSuo") {
		t.Errorf("version output should contain 'SiSuo', got: %s", out)
	}
}

func TestHelpCommand(t *testing.T) {
	out, _, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"eval", "tokens", "ast", "lint", "graph", "funcs", "repl", "watch", "init", "lsp", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(out, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, out)
		}
	}
}

func TestEvalCommandJSON(t *testing.T) {
	td := testdataDir(t)

	out, _, err := execute(t,
		"eval", filepath.Join(td, "scripts", "invoice.ss"),
		"--config", filepath.Join(td, "sisuo.yaml"),
		"--param", "qty=4",
		"--output", "json",
	)
	if err != nil {
		t.Fatalf("eval command error = %v", err)
	}

	var results []struct {
		Status  string `json:"status"`
		Outputs []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("eval output is not JSON: %v\n%s", err, out)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	got := map[string]string{}
	for _, o := range results[0].Outputs {
		got[o.Name] = o.Value
	}
	if got["total"] != "54" {
		t.Errorf("total = %q, want 54 (outputs: %v)", got["total"], got)
	}
	if got["tax"] != "4" {
		t.Errorf("tax = %q, want 4", got["tax"])
	}
}

func TestEvalCommandForwardReference(t *testing.T) {
	td := testdataDir(t)

	out, _, err := execute(t,
		"eval", filepath.Join(td, "scripts", "forward.ss"),
		"--config", filepath.Join(td, "sisuo.yaml"),
		"--output", "markdown",
	)
	if err != nil {
		t.Fatalf("eval command error = %v", err)
	}
	if !strings.Contains(out, "return: 102.5") {
		t.Errorf("eval output should contain the return value, got: %s", out)
	}
}

func TestEvalCommandFailure(t *testing.T) {
	td := testdataDir(t)

	_, _, err := execute(t,
		"eval", filepath.Join(td, "scripts", "broken.ss"),
		"--config", filepath.Join(td, "sisuo.yaml"),
		"--output", "json",
	)
	if err == nil {
		t.Error("eval of a broken script should fail")
	}
}

func TestLintCommand(t *testing.T) {
	td := testdataDir(t)

	out, _, err := execute(t,
		"lint", filepath.Join(td, "scripts", "invoice.ss"),
		"--config", filepath.Join(td, "sisuo.yaml"),
		"--output", "markdown",
	)
	if err != nil {
		t.Errorf("lint command error = %v", err)
	}
	if !strings.Contains(out, "No lint issues found") {
		t.Errorf("lint output should report no issues, got: %s", out)
	}
}

func TestGraphCommand(t *testing.T) {
	td := testdataDir(t)

	out, _, err := execute(t,
		"graph", filepath.Join(td, "scripts", "invoice.ss"),
		"--config", filepath.Join(td, "sisuo.yaml"),
		"--output", "markdown",
	)
	if err != nil {
		t.Errorf("graph command error = %v", err)
	}
	if !strings.Contains(out, "Level 0 (Inputs)") {
		t.Errorf("graph output should list levels, got: %s", out)
	}
}

func TestFuncsCommand(t *testing.T) {
	out, _, err := execute(t, "funcs", "--family", "string", "--output", "markdown")
	if err != nil {
		t.Errorf("funcs command error = %v", err)
	}
	if !strings.Contains(out, "UPPER") {
		t.Errorf("funcs output should contain 'UPPER', got: %s", out)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		out, _, err := execute(t, "completion", shell)
		if err != nil {
			t.Errorf("completion %s error = %v", shell, err)
		}
		if !strings.Contains(out, "sisuo") {
			t.Errorf("completion %s output should mention sisuo", shell)
		}
	}

	if _, _, err := execute(t, "completion", "tcsh"); err == nil {
		t.Error("completion should reject unknown shells")
	}
}

func TestInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sisuo.yaml")
	if err := os.WriteFile(path, []byte("resolution: sideways\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := execute(t, "funcs", "--config", path)
	if err == nil {
		t.Fatal("an invalid config should fail")
	}
	if !strings.Contains(err.Error(), "resolution") {
		t.Errorf("error should mention the bad key, got: %v", err)
	}
}

func TestLSPCommand(t *testing.T) {
	body := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	exit := `{"jsonrpc":"2.0","method":"exit"}`
	in := fmt.Sprintf("Content-Length: %d\r\n\r\n%sContent-Length: %d\r\n\r\n%s", len(body), body, len(exit), exit)

	cmd := cli.NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetIn(strings.NewReader(in))
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"lsp", "--log-level", "error"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("lsp command error = %v", err)
	}

	if !strings.HasPrefix(out.String(), "Content-Length: ") {
		t.Errorf("lsp output should be framed, got: %s", out.String())
	}
	if !strings.Contains(out.String(), `"hoverProvider":true`) {
		t.Errorf("lsp output should advertise hover, got: %s", out.String())
	}
}
