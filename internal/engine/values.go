package engine

import (
	"slices"
	"strings"

	"github.com/supaloboto/sisuo/internal/config"
	"github.com/supaloboto/sisuo/pkg/exec"
	"github.com/supaloboto/sisuo/pkg/formula"
)

// ParseValue converts text from a flag, a file or a prompt into a value.
// Numbers (full-width digits included) become decimals, true and false
// become booleans, a double-quoted string loses its quotes, and anything
// else stays text.
func ParseValue(s string) formula.Value {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}
	if len(trimmed) >= 2 && strings.HasPrefix(trimmed, `"`) && strings.HasSuffix(trimmed, `"`) {
		return trimmed[1 : len(trimmed)-1]
	}
	if d, ok := formula.ParseNumber(trimmed); ok {
		return d
	}
	return trimmed
}

// ParseAssignment splits "name=value" into its parts.
func ParseAssignment(s string) (name string, value formula.Value, ok bool) {
	name, raw, found := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", nil, false
	}
	return name, ParseValue(raw), true
}

// bindings creates one input per parameter, sorted by name. Names are
// normalized to their '@' form.
func bindings(ex *exec.Executor, params map[string]formula.Value) []exec.Binding {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]exec.Binding, 0, len(names))
	for _, name := range names {
		out = append(out, ex.Input(config.ParamName(name), params[name]))
	}
	return out
}
