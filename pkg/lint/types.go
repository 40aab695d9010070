package lint

import (
	"fmt"

	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/token"
)

// Codes produced by this package. Token note codes are defined by the
// stage that attaches them, see the parser package.
const (
	CodeSyntax          = "syntax"
	CodeDependencyCycle = "dependency-cycle"
	CodeUnusedParam     = "unused-param"
	CodeUnusedFunction  = "unused-function"
)

// Diagnostic is a positioned message about the source text. To is
// exclusive.
type Diagnostic struct {
	From     token.Position `json:"from"`
	To       token.Position `json:"to"`
	Severity core.Severity  `json:"severity"`
	Message  string         `json:"message"`
	Code     string         `json:"code"`
}

// String renders the diagnostic as "line:col: severity: message [code]"
// with 1-based line and column.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%d:%d: %s: %s [%s]", d.From.Row+1, d.From.Col+1, d.Severity, d.Message, d.Code)
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == core.SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of diagnostics per severity.
func Count(diags []Diagnostic) map[core.Severity]int {
	out := make(map[core.Severity]int)
	for _, d := range diags {
		out[d.Severity]++
	}
	return out
}
