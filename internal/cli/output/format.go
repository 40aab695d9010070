package output

import (
	"fmt"
	"strings"
)

// FormatHeader formats a markdown header.
func FormatHeader(level int, text string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + text
}

// FormatKeyValue formats a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// OutputValue is one declaration of an evaluated script.
//
//nolint:revive // output.OutputValue mirrors engine.Output
type OutputValue struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
	Error string `json:"error,omitempty"`
}

// DiagnosticInfo is a diagnostic with 1-based positions.
type DiagnosticInfo struct {
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	EndLine  int    `json:"end_line"`
	EndCol   int    `json:"end_column"`
	Severity string `json:"severity"`
	Code     string `json:"code"`
	Message  string `json:"message"`
}

// EvalOutput is the JSON form of one evaluated file.
type EvalOutput struct {
	File        string           `json:"file"`
	RunID       string           `json:"run_id,omitempty"`
	Status      string           `json:"status"`
	DurationMS  int64            `json:"duration_ms"`
	Outputs     []OutputValue    `json:"outputs"`
	Return      *string          `json:"return,omitempty"`
	Recomputed  []string         `json:"recomputed,omitempty"`
	Diagnostics []DiagnosticInfo `json:"diagnostics,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// LintSummary counts diagnostics by severity.
type LintSummary struct {
	FilesAnalyzed int `json:"files_analyzed"`
	TotalIssues   int `json:"total_issues"`
	Errors        int `json:"errors"`
	Warnings      int `json:"warnings"`
	Info          int `json:"info"`
}

// LintFileResult holds the diagnostics of one file.
type LintFileResult struct {
	Path        string           `json:"path"`
	Diagnostics []DiagnosticInfo `json:"diagnostics"`
}

// LintOutput is the JSON form of a lint run.
type LintOutput struct {
	Summary LintSummary      `json:"summary"`
	Files   []LintFileResult `json:"files"`
}

// DAGNode is one declaration in the dependency graph.
type DAGNode struct {
	Name      string   `json:"name"`
	DependsOn []string `json:"depends_on"`
	UsedBy    []string `json:"used_by"`
}

// DAGLevel groups declarations that only depend on earlier levels.
type DAGLevel struct {
	Level        int       `json:"level"`
	Declarations []DAGNode `json:"declarations"`
}

// DAGOutput is the JSON form of the dependency graph.
type DAGOutput struct {
	File              string     `json:"file"`
	Levels            []DAGLevel `json:"levels"`
	Inputs            []string   `json:"inputs"`
	Outputs           []string   `json:"outputs"`
	TotalDeclarations int        `json:"total_declarations"`
	TotalEdges        int        `json:"total_edges"`
}

// FunctionInfo describes a registered formula function.
type FunctionInfo struct {
	Name   string `json:"name"`
	Family string `json:"family"`
}

// TokenInfo is the JSON form of a token.
type TokenInfo struct {
	Type     string       `json:"type"`
	Content  string       `json:"content"`
	Name     string       `json:"name,omitempty"`
	Line     int          `json:"line"`
	Column   int          `json:"column"`
	Children []*TokenInfo `json:"children,omitempty"`
}
