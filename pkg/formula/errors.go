package formula

import (
	"errors"
	"fmt"
)

// ErrUnknownFunction is returned when a name matches neither an operator
// nor a registered function.
var ErrUnknownFunction = errors.New("unknown function")

// ArgError reports an argument that could not be coerced to what the
// function requires.
type ArgError struct {
	Func   string
	Index  int
	Value  Value
	Reason string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("%s: argument %d (%q): %s", e.Func, e.Index+1, Format(e.Value), e.Reason)
}

// DateError reports a date or time string that failed to parse.
type DateError struct {
	Func  string
	Input string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("%s: cannot parse %q as a date", e.Func, e.Input)
}
