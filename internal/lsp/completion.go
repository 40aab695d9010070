package lsp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/supaloboto/sisuo/internal/engine"
	"github.com/supaloboto/sisuo/pkg/formula"
	"github.com/supaloboto/sisuo/pkg/lexer"
	"github.com/supaloboto/sisuo/pkg/token"
)

// keywords offered at statement starts.
var keywords = []string{
	token.KeywordVar,
	token.KeywordRef,
	token.KeywordGlobal,
	token.KeywordFunction,
	token.KeywordReturn,
}

// symbol is a name declared in a script.
type symbol struct {
	Name string
	// Kind is the declaring keyword, or "param" for function parameters
	Kind string
	Span token.Span
}

// scanSymbols finds the declarations of a tokenized script, function
// bodies included. Later declarations of the same name are kept after
// earlier ones.
func scanSymbols(toks []*token.Token) []symbol {
	var out []symbol
	var scan func(list []*token.Token)
	scan = func(list []*token.Token) {
		for i, t := range list {
			if t.Type.IsGroup() {
				scan(t.Children)
				continue
			}
			if t.Type != token.ELEMENT || i+1 >= len(list) {
				continue
			}
			name := list[i+1]
			if name.Type != token.ELEMENT {
				continue
			}
			switch t.Content {
			case token.KeywordVar, token.KeywordRef, token.KeywordGlobal, token.KeywordFunction:
				out = append(out, symbol{Name: name.Content, Kind: t.Content, Span: name.Span})
			}
			if t.Content == token.KeywordFunction && i+2 < len(list) && list[i+2].Type == token.BRACKET {
				for _, p := range list[i+2].Children {
					if p.Type == token.ELEMENT {
						out = append(out, symbol{Name: p.Content, Kind: "param", Span: p.Span})
					}
				}
			}
		}
	}
	scan(toks)
	return out
}

// scanParams returns the '@' parameters read by a tokenized script.
func scanParams(toks []*token.Token) []string {
	seen := make(map[string]bool)
	token.Walk(toks, func(t *token.Token) bool {
		if t.Type == token.ELEMENT && len(t.Content) > 1 && t.Content[0] == '@' {
			seen[t.Content] = true
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// tokenize lexes a document for symbol lookups. A script that does not
// lex yields no tokens.
func tokenize(doc *Document) []*token.Token {
	toks, err := lexer.Tokenize(doc.Content)
	if err != nil {
		return nil
	}
	return toks
}

func (s *Server) handleCompletion(msg *JSONRPCMessage) error {
	var params CompletionParams
	doc, ok := s.documentFor(msg, &params, func() string { return params.TextDocument.URI })
	if !ok {
		return nil
	}

	prefix := doc.GetWordBefore(params.Position)
	items := s.getCompletions(doc, prefix)
	s.sendResponse(msg.ID, CompletionList{IsIncomplete: false, Items: items}, nil)
	return nil
}

// getCompletions returns the items matching prefix: parameters when the
// prefix starts with '@', otherwise declared names, keywords and functions.
func (s *Server) getCompletions(doc *Document, prefix string) []CompletionItem {
	eng, bound := s.current()
	toks := tokenize(doc)
	var items []CompletionItem

	if strings.HasPrefix(prefix, "@") {
		seen := make(map[string]bool)
		for _, name := range scanParams(toks) {
			seen[name] = true
		}
		for name := range bound {
			seen[name] = true
		}
		for name := range seen {
			if !matchPrefix(name, prefix) {
				continue
			}
			item := CompletionItem{
				Label:    name,
				Kind:     CompletionItemKindValue,
				Detail:   "parameter",
				SortText: "0" + name,
			}
			if v, ok := bound[name]; ok {
				item.Detail = "parameter = " + formula.Format(v)
			}
			items = append(items, item)
		}
		sortItems(items)
		return items
	}

	seen := make(map[string]bool)
	for _, sym := range scanSymbols(toks) {
		if seen[sym.Name] || !matchPrefix(sym.Name, prefix) {
			continue
		}
		seen[sym.Name] = true
		kind := CompletionItemKindVariable
		if sym.Kind == token.KeywordFunction {
			kind = CompletionItemKindFunction
		}
		items = append(items, CompletionItem{
			Label:    sym.Name,
			Kind:     kind,
			Detail:   sym.Kind,
			SortText: "1" + sym.Name,
		})
	}

	for _, kw := range keywords {
		if matchPrefix(kw, prefix) {
			items = append(items, CompletionItem{
				Label:    kw,
				Kind:     CompletionItemKindKeyword,
				Detail:   "keyword",
				SortText: "2" + kw,
			})
		}
	}

	reg := eng.Runtime().Registry()
	for _, name := range reg.Names() {
		if !matchPrefix(name, prefix) {
			continue
		}
		item := CompletionItem{
			Label:    name,
			Kind:     CompletionItemKindFunction,
			Detail:   reg.Family(name) + " function",
			SortText: "3" + name,
		}
		if s.snippets {
			item.InsertText = name + "($1)"
			item.InsertTextFormat = InsertTextFormatSnippet
		}
		items = append(items, item)
	}

	sortItems(items)
	return items
}

func matchPrefix(name, prefix string) bool {
	return prefix == "" || strings.HasPrefix(strings.ToLower(name), strings.ToLower(prefix))
}

func sortItems(items []CompletionItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].SortText < items[j].SortText })
}

// --- Hover ---

func (s *Server) handleHover(msg *JSONRPCMessage) error {
	var params HoverParams
	doc, ok := s.documentFor(msg, &params, func() string { return params.TextDocument.URI })
	if !ok {
		return nil
	}

	word, rng := doc.GetWordAtPosition(params.Position)
	text := s.hoverText(doc, word)
	if text == "" {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}

	s.sendResponse(msg.ID, Hover{
		Contents: MarkupContent{Kind: MarkupKindMarkdown, Value: text},
		Range:    &rng,
	}, nil)
	return nil
}

// hoverText describes word: a parameter with its bound value, a declared
// name with its kind, current value and the declarations it reads, or a
// built-in function.
func (s *Server) hoverText(doc *Document, word string) string {
	if word == "" {
		return ""
	}
	eng, bound := s.current()

	if strings.HasPrefix(word, "@") {
		if v, ok := bound[word]; ok {
			return fmt.Sprintf("**%s** (parameter)\n\nvalue: `%s`", word, formula.Format(v))
		}
		return fmt.Sprintf("**%s** (parameter)\n\nnot bound", word)
	}

	for _, sym := range scanSymbols(tokenize(doc)) {
		if sym.Name != word {
			continue
		}
		text := fmt.Sprintf("**%s** (%s)", word, sym.Kind)
		if sym.Kind == token.KeywordFunction || sym.Kind == "param" {
			return text
		}
		if value, reads, ok := evaluate(eng, bound, doc, word); ok {
			text += "\n\nvalue: `" + value + "`"
			if len(reads) > 0 {
				text += "\n\nreads: " + strings.Join(reads, ", ")
			}
		}
		return text
	}

	reg := eng.Runtime().Registry()
	if reg.Has(word) {
		return fmt.Sprintf("**%s** (%s function)", strings.ToUpper(word), reg.Family(word))
	}
	return ""
}

// evaluate runs the document and returns the rendered value of a
// top-level declaration and the declarations it reads, transitively.
func evaluate(eng *engine.Engine, params map[string]formula.Value, doc *Document, name string) (string, []string, bool) {
	prog, err := eng.Compile(URIToPath(doc.URI), doc.Content)
	if err != nil {
		return "", nil, false
	}
	run, _ := prog.Run(context.Background(), engine.WithParams(params))
	if run == nil {
		return "", nil, false
	}
	for _, o := range run.Outputs {
		if o.Name == name {
			reads, _ := prog.Upstream(name)
			return o.Text(), reads, true
		}
	}
	return "", nil, false
}

// --- Definition ---

func (s *Server) handleDefinition(msg *JSONRPCMessage) error {
	var params DefinitionParams
	doc, ok := s.documentFor(msg, &params, func() string { return params.TextDocument.URI })
	if !ok {
		return nil
	}

	word, _ := doc.GetWordAtPosition(params.Position)
	loc := findDefinition(doc, word)
	if loc == nil {
		s.sendResponse(msg.ID, nil, nil)
		return nil
	}
	s.sendResponse(msg.ID, loc, nil)
	return nil
}

// findDefinition locates the first declaration of word in doc.
func findDefinition(doc *Document, word string) *Location {
	if word == "" {
		return nil
	}
	for _, sym := range scanSymbols(tokenize(doc)) {
		if sym.Name == word {
			return &Location{
				URI: doc.URI,
				Range: Range{
					Start: doc.OffsetToPosition(sym.Span.Start.Offset),
					End:   doc.OffsetToPosition(sym.Span.End.Offset),
				},
			}
		}
	}
	return nil
}

