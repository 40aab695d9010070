package token

// Position represents a location in the source text.
type Position struct {
	Row    int // 0-based line number
	Col    int // 0-based column, counted in runes
	Offset int // 0-based byte offset
}

// Before reports whether p comes strictly before o.
func (p Position) Before(o Position) bool {
	return p.Offset < o.Offset
}

// Span represents a range in source text. End is exclusive.
type Span struct {
	Start Position
	End   Position
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	out := s
	if o.Start.Before(out.Start) {
		out.Start = o.Start
	}
	if out.End.Before(o.End) {
		out.End = o.End
	}
	return out
}

// Text returns the part of src covered by the span.
func (s Span) Text(src string) string {
	if s.Start.Offset < 0 || s.End.Offset > len(src) || s.Start.Offset > s.End.Offset {
		return ""
	}
	return src[s.Start.Offset:s.End.Offset]
}
