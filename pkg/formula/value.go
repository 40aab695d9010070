package formula

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// Value is a runtime value: decimal.Decimal, string, bool, time.Time,
// []Value, nil or NaN.
type Value = any

// NaNValue is the type of the NaN sentinel.
type NaNValue struct{}

func (NaNValue) String() string { return "NaN" }

// NaN marks a value that could not be resolved.
var NaN Value = NaNValue{}

// IsNaN reports whether v is the NaN sentinel.
func IsNaN(v Value) bool {
	_, ok := v.(NaNValue)
	return ok
}

// IsEmpty reports whether v is absent: nil, "", or NaN.
func IsEmpty(v Value) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case NaNValue:
		return true
	}
	return false
}

// RemoveEmptyArgs drops nil, "" and NaN from args.
func RemoveEmptyArgs(args []Value) []Value {
	out := make([]Value, 0, len(args))
	for _, a := range args {
		if !IsEmpty(a) {
			out = append(out, a)
		}
	}
	return out
}

// Flatten expands nested []Value arguments into one list.
func Flatten(args []Value) []Value {
	out := make([]Value, 0, len(args))
	for _, a := range args {
		if arr, ok := a.([]Value); ok {
			out = append(out, Flatten(arr)...)
			continue
		}
		out = append(out, a)
	}
	return out
}

// Number builds a decimal value from an int.
func Number(i int64) Value {
	return decimal.NewFromInt(i)
}

// ToNumber coerces v to a decimal. Strings are trimmed and full-width
// digits are folded to ASCII before parsing.
func ToNumber(v Value) (decimal.Decimal, bool) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case bool:
		if v {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case string:
		return ParseNumber(v)
	}
	return decimal.Zero, false
}

// ParseNumber parses a numeric literal.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(width.Narrow.String(s))
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// IsNumeric reports whether v coerces to a number.
func IsNumeric(v Value) bool {
	if _, ok := v.(bool); ok {
		return false
	}
	_, ok := ToNumber(v)
	return ok
}

// ArgsToNumber coerces every argument to a decimal. A non-numeric argument
// is a hard error.
func ArgsToNumber(fn string, args []Value) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(args))
	for i, a := range args {
		d, ok := ToNumber(a)
		if !ok {
			return nil, &ArgError{Func: fn, Index: i, Value: a, Reason: "not a number"}
		}
		out[i] = d
	}
	return out, nil
}

// ToBool coerces v to a boolean.
func ToBool(v Value) bool {
	switch v := v.(type) {
	case bool:
		return v
	case decimal.Decimal:
		return !v.IsZero()
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "0":
			return false
		}
		if d, ok := ParseNumber(v); ok {
			return !d.IsZero()
		}
		return true
	case nil, NaNValue:
		return false
	case []Value:
		return len(v) > 0
	}
	return true
}

// Format renders v as display text.
func Format(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case decimal.Decimal:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 && v.Nanosecond() == 0 {
			return v.Format(dateLayout)
		}
		return v.Format(dateTimeLayout)
	case []Value:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = Format(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// Equal compares two values the way the = operator does.
func Equal(a, b Value) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}
