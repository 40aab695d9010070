// Package lint turns the notes that parsing attaches to tokens, fatal
// lexer and parser errors, and a few checks over the rendered logic graph
// into positioned diagnostics.
//
// # Sources
//
// Diagnostics come from three places:
//
//  1. Token notes, such as a bare word that resolved to a literal
//     ("unresolved-name") or a control-flow stub ("stub-statement").
//  2. The first fatal error of the lexer or the parser ("syntax").
//  3. Graph checks over the lowered program ("dependency-cycle",
//     "unused-param", "unused-function").
//
// # Configuration
//
// Use Config to skip codes or change their severity:
//
//	cfg := lint.NewConfig()
//	cfg.Disable(lint.CodeUnusedParam)
//	cfg.SetSeverity(parser.CodeUnresolvedName, core.SeverityError)
//	diags := lint.Check(src, lint.WithConfig(cfg))
package lint
