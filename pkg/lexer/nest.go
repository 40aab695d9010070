package lexer

import (
	"fmt"

	"github.com/supaloboto/sisuo/pkg/token"
)

var groupTypes = map[string]token.TokenType{
	"(": token.BRACKET,
	"[": token.ARRAY,
	"{": token.FUNCTION,
}

var closers = map[string]string{
	"(": ")",
	"[": "]",
	"{": "}",
}

// Nest runs the bracket pass over a flat token list, replacing every matched
// bracket pair by one composite token that owns the enclosed tokens.
func Nest(src string, flat []*token.Token) ([]*token.Token, error) {
	n := &nester{src: src, toks: flat}
	out, _, err := n.collect("", nil)
	return out, err
}

type nester struct {
	src  string
	toks []*token.Token
	i    int
}

// collect gathers tokens until the closer matching open, or the end of input
// when open is nil. It returns the collected tokens and the closing token.
func (n *nester) collect(path string, open *token.Token) ([]*token.Token, *token.Token, error) {
	var out []*token.Token
	groups := 0
	for n.i < len(n.toks) {
		t := n.toks[n.i]
		n.i++
		if t.Type != token.DELIMITER {
			out = append(out, t)
			continue
		}

		if typ, ok := groupTypes[t.Content]; ok {
			name := fmt.Sprintf("%s-%d", typ, groups)
			if path != "" {
				name = path + "/" + name
			}
			groups++

			children, end, err := n.collect(name, t)
			if err != nil {
				return nil, nil, err
			}
			span := token.Span{Start: t.Span.Start, End: end.Span.End}
			out = append(out, &token.Token{
				Type:     typ,
				Content:  span.Text(n.src),
				Name:     name,
				Span:     span,
				Children: children,
			})
			continue
		}

		// closing character
		if open == nil {
			return nil, nil, &LexError{
				Span:    t.Span,
				Err:     ErrUnbalancedBracket,
				Message: fmt.Sprintf("unbalanced bracket: unexpected %q", t.Content),
			}
		}
		if closers[open.Content] != t.Content {
			return nil, nil, &LexError{
				Span:    t.Span,
				Err:     ErrUnbalancedBracket,
				Message: fmt.Sprintf("unbalanced bracket: %q closed by %q", open.Content, t.Content),
			}
		}
		return out, t, nil
	}

	if open != nil {
		return nil, nil, &LexError{
			Span:    open.Span,
			Err:     ErrUnbalancedBracket,
			Message: fmt.Sprintf("unbalanced bracket: %q is never closed", open.Content),
		}
	}
	return out, nil, nil
}
