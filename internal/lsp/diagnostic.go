package lsp

import (
	"strings"

	"github.com/supaloboto/sisuo/pkg/core"
	"github.com/supaloboto/sisuo/pkg/lint"
)

// ScriptExt is the extension of SiSuo scripts.
const ScriptExt = ".ss"

// publishDiagnostics lints an open script and sends the results.
func (s *Server) publishDiagnostics(uri string) {
	doc := s.documents.Get(uri)
	if doc == nil || !strings.HasSuffix(URIToPath(uri), ScriptExt) {
		return
	}

	s.sendNotification("textDocument/publishDiagnostics", &PublishDiagnosticsParams{
		URI:         uri,
		Version:     doc.Version,
		Diagnostics: s.computeDiagnostics(doc),
	})
}

func (s *Server) computeDiagnostics(doc *Document) []Diagnostic {
	eng, _ := s.current()
	found := eng.Lint(doc.Content)

	out := make([]Diagnostic, 0, len(found))
	for _, d := range found {
		out = append(out, toDiagnostic(doc, d))
	}
	return out
}

func toDiagnostic(doc *Document, d lint.Diagnostic) Diagnostic {
	start := doc.OffsetToPosition(d.From.Offset)
	end := doc.OffsetToPosition(max(d.To.Offset, d.From.Offset))
	return Diagnostic{
		Range:    Range{Start: start, End: end},
		Severity: toSeverity(d.Severity),
		Code:     d.Code,
		Source:   "sisuo",
		Message:  d.Message,
	}
}

func toSeverity(sev core.Severity) DiagnosticSeverity {
	switch sev {
	case core.SeverityError:
		return DiagnosticSeverityError
	case core.SeverityWarning:
		return DiagnosticSeverityWarning
	case core.SeverityInfo:
		return DiagnosticSeverityInformation
	default:
		return DiagnosticSeverityHint
	}
}
