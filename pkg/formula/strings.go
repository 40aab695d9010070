package formula

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

func registerString(r *Registry) {
	r.Register("LEFT", FamilyString, left)
	r.Register("RIGHT", FamilyString, right)
	r.Register("MID", FamilyString, mid)
	r.Register("LEN", FamilyString, length)
	r.Register("CONCAT", FamilyString, concat)
	r.Register("FIND", FamilyString, find)
	r.Register("UPPER", FamilyString, textFn(strings.ToUpper))
	r.Register("LOWER", FamilyString, textFn(strings.ToLower))
	r.Register("TRIM", FamilyString, textFn(strings.TrimSpace))
	r.Register("SUBSTITUTE", FamilyString, substitute)
}

// maxIntArg bounds integer arguments such as lengths and positions.
const maxIntArg = math.MaxInt32

// intArg reads an optional integer argument, defaulting to def. Values
// outside ±maxIntArg are clamped.
func intArg(fn string, args []Value, idx, def int) (int, error) {
	if idx >= len(args) || IsEmpty(args[idx]) {
		return def, nil
	}
	d, ok := ToNumber(args[idx])
	if !ok {
		return 0, &ArgError{Func: fn, Index: idx, Value: args[idx], Reason: "not a number"}
	}
	switch {
	case d.GreaterThan(decimal.NewFromInt(maxIntArg)):
		return maxIntArg, nil
	case d.LessThan(decimal.NewFromInt(-maxIntArg)):
		return -maxIntArg, nil
	}
	return int(d.IntPart()), nil
}

// LEFT(text[, n])
func left(_ *Runtime, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", nil
	}
	n, err := intArg("LEFT", args, 1, 1)
	if err != nil || n < 0 {
		return "", err
	}
	r := []rune(Format(args[0]))
	return string(r[:min(n, len(r))]), nil
}

// RIGHT(text[, n])
func right(_ *Runtime, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", nil
	}
	n, err := intArg("RIGHT", args, 1, 1)
	if err != nil || n < 0 {
		return "", err
	}
	r := []rune(Format(args[0]))
	return string(r[len(r)-min(n, len(r)):]), nil
}

// MID(text, start, n) with a 1-based start.
func mid(_ *Runtime, args []Value) (Value, error) {
	if len(args) != 3 {
		return "", nil
	}
	start, err := intArg("MID", args, 1, 1)
	if err != nil {
		return nil, err
	}
	n, err := intArg("MID", args, 2, 0)
	if err != nil {
		return nil, err
	}
	if start < 1 || n < 0 {
		return "", nil
	}
	r := []rune(Format(args[0]))
	if start > len(r) {
		return "", nil
	}
	end := len(r)
	if n < len(r)-(start-1) {
		end = start - 1 + n
	}
	return string(r[start-1 : end]), nil
}

func length(_ *Runtime, args []Value) (Value, error) {
	if len(args) != 1 {
		return "", nil
	}
	return Number(int64(utf8.RuneCountInString(Format(args[0])))), nil
}

func concat(_ *Runtime, args []Value) (Value, error) {
	var b strings.Builder
	for _, a := range RemoveEmptyArgs(Flatten(args)) {
		b.WriteString(Format(a))
	}
	return b.String(), nil
}

// FIND(needle, haystack[, start]) returns the 1-based rune position of
// needle, or "" when it does not occur.
func find(_ *Runtime, args []Value) (Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return "", nil
	}
	start, err := intArg("FIND", args, 2, 1)
	if err != nil {
		return nil, err
	}
	hay := []rune(Format(args[1]))
	if start < 1 || start > len(hay)+1 {
		return "", nil
	}
	idx := strings.Index(string(hay[start-1:]), Format(args[0]))
	if idx < 0 {
		return "", nil
	}
	pos := start + utf8.RuneCountInString(string(hay[start-1:])[:idx])
	return Number(int64(pos)), nil
}

func textFn(f func(string) string) Func {
	return func(_ *Runtime, args []Value) (Value, error) {
		if len(args) != 1 {
			return "", nil
		}
		return f(Format(args[0])), nil
	}
}

// SUBSTITUTE(text, old, new)
func substitute(_ *Runtime, args []Value) (Value, error) {
	if len(args) != 3 {
		return "", nil
	}
	old := Format(args[1])
	if old == "" {
		return Format(args[0]), nil
	}
	return strings.ReplaceAll(Format(args[0]), old, Format(args[2])), nil
}
