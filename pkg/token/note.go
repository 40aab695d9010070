package token

import "github.com/supaloboto/sisuo/pkg/core"

// Note is an annotation attached to a token by a later stage, such as an
// identifier that resolved to a literal. Notes are turned into diagnostics
// by the lint package.
type Note struct {
	Code     string
	Severity core.Severity
	Message  string
}

// Annotate attaches a note to the token. A note identical to one already
// attached is ignored, so re-parsing the same tokens is harmless.
func (t *Token) Annotate(code string, sev core.Severity, msg string) {
	n := Note{Code: code, Severity: sev, Message: msg}
	for _, existing := range t.Notes {
		if existing == n {
			return
		}
	}
	t.Notes = append(t.Notes, n)
}

// Walk calls fn for every token in toks, depth first, children after their
// bracket token. Walking stops early if fn returns false.
func Walk(toks []*Token, fn func(*Token) bool) bool {
	for _, t := range toks {
		if !fn(t) {
			return false
		}
		if !Walk(t.Children, fn) {
			return false
		}
	}
	return true
}
