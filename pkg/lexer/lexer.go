// Package lexer turns formula source text into a token tree.
//
// Tokenizing happens in two passes: a flat left-to-right scan that
// accumulates literal characters in a buffer until a delimiter flushes them,
// and a bracket pass that collapses every matched bracket pair into one
// composite token owning its contents.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/supaloboto/sisuo/pkg/token"
)

// Lexer performs the flat scan over the input.
type Lexer struct {
	input   string
	pos     int  // byte offset of ch
	readPos int  // byte offset after ch
	ch      rune // current char under examination
	eof     bool
	started bool
	row     int
	col     int

	buf      strings.Builder
	bufStart token.Position

	tokens []*token.Token
}

// NewLexer creates a new Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// Tokenize scans text and returns its token tree.
func Tokenize(text string) ([]*token.Token, error) {
	flat, err := NewLexer(text).Scan()
	if err != nil {
		return nil, err
	}
	return Nest(text, flat)
}

// readChar advances to the next character.
func (l *Lexer) readChar() {
	if l.started && !l.eof {
		if l.ch == '\n' {
			l.row++
			l.col = 0
		} else {
			l.col++
		}
	}
	l.started = true
	l.pos = l.readPos
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.eof = true
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.readPos += w
}

// peekChar returns the next character without advancing.
func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// currentPos returns the position of the current character.
func (l *Lexer) currentPos() token.Position {
	return token.Position{Row: l.row, Col: l.col, Offset: l.pos}
}

// Scan runs the flat pass. Bracket characters come back as DELIMITER tokens.
func (l *Lexer) Scan() ([]*token.Token, error) {
	for !l.eof {
		switch ch := l.ch; {
		case unicode.IsSpace(ch):
			l.flush()
			l.readChar()
		case ch == ',' || ch == '，':
			l.flush()
			l.emitRun(token.SPLIT, 1)
		case ch == ';' || ch == '；':
			l.flush()
			l.emitRun(token.END, 1)
		case ch == '"' || ch == '\'' || ch == '“':
			l.flush()
			if err := l.readQuote(); err != nil {
				return nil, err
			}
		case strings.ContainsRune("()[]{}", ch):
			l.flush()
			l.emitRun(token.DELIMITER, 1)
		case strings.ContainsRune("+-*/%", ch):
			l.flush()
			l.emitRun(token.OPERATOR, 1)
		case strings.ContainsRune("<>=!", ch):
			l.flush()
			next := l.peekChar()
			if next == '=' || (ch == '<' && next == '>') {
				l.emitRun(token.OPERATOR, 2)
			} else {
				l.emitRun(token.OPERATOR, 1)
			}
		case ch == '&' || ch == '|':
			l.flush()
			if l.peekChar() == ch {
				l.emitRun(token.OPERATOR, 2)
			} else {
				l.emitRun(token.OPERATOR, 1)
			}
		default:
			if l.buf.Len() == 0 {
				l.bufStart = l.currentPos()
			}
			l.buf.WriteRune(ch)
			l.readChar()
		}
	}
	l.flush()
	return l.tokens, nil
}

// flush turns the buffered characters into an element token.
func (l *Lexer) flush() {
	if l.buf.Len() == 0 {
		return
	}
	l.tokens = append(l.tokens, &token.Token{
		Type:    token.ELEMENT,
		Content: l.buf.String(),
		Span:    token.Span{Start: l.bufStart, End: l.currentPos()},
	})
	l.buf.Reset()
}

// emitRun consumes n characters and emits them as one token.
func (l *Lexer) emitRun(typ token.TokenType, n int) {
	start := l.currentPos()
	for i := 0; i < n && !l.eof; i++ {
		l.readChar()
	}
	end := l.currentPos()
	l.tokens = append(l.tokens, &token.Token{
		Type:    typ,
		Content: l.input[start.Offset:end.Offset],
		Span:    token.Span{Start: start, End: end},
	})
}

// readQuote reads a quoted literal verbatim up to the matching close quote.
func (l *Lexer) readQuote() error {
	start := l.currentPos()
	closer := l.ch
	if closer == '“' {
		closer = '”'
	}
	l.readChar() // skip opening quote
	for !l.eof && l.ch != closer {
		l.readChar()
	}
	if l.eof {
		return &LexError{
			Span:    token.Span{Start: start, End: l.currentPos()},
			Err:     ErrUnterminatedQuote,
			Message: "unterminated quote " + l.input[start.Offset:l.pos],
		}
	}
	l.readChar() // skip closing quote
	end := l.currentPos()
	l.tokens = append(l.tokens, &token.Token{
		Type:    token.QUOTE,
		Content: l.input[start.Offset:end.Offset],
		Span:    token.Span{Start: start, End: end},
	})
	return nil
}

// Unquote strips the delimiters from a quote token's content.
func Unquote(s string) string {
	r, w := utf8.DecodeRuneInString(s)
	if w == 0 || w == len(s) {
		return s
	}
	closer := r
	if r == '“' {
		closer = '”'
	}
	last, lw := utf8.DecodeLastRuneInString(s)
	if last != closer {
		return s
	}
	return s[w : len(s)-lw]
}
