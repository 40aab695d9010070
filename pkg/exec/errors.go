package exec

import (
	"errors"
	"strings"
)

// Sentinel errors; match them with errors.Is.
var (
	ErrDepthExceeded = errors.New("maximum evaluation depth exceeded")
	ErrAssignDerived = errors.New("cannot assign to a derived variable")
	ErrUnknownName   = errors.New("unknown name")
)

// CycleError reports declarations that depend on each other. Path starts
// and ends with the same name.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Path, " -> ")
}
