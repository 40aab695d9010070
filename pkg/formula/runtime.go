package formula

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultDivisionPrecision is the number of decimal places kept by
// division when the quotient does not terminate.
const DefaultDivisionPrecision = 16

// Clock provides the current time to NOW and TODAY.
type Clock interface {
	Now() time.Time
}

// WallClock is the default clock using system time.
type WallClock struct{}

// Now returns the current local time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// Runtime evaluates operators and registered functions.
type Runtime struct {
	registry  *Registry
	clock     Clock
	precision int32
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithClock sets the clock used by date functions.
func WithClock(c Clock) Option {
	return func(rt *Runtime) { rt.clock = c }
}

// WithRegistry replaces the function registry.
func WithRegistry(r *Registry) Option {
	return func(rt *Runtime) { rt.registry = r }
}

// WithDivisionPrecision sets the places kept by non-terminating division.
func WithDivisionPrecision(places int32) Option {
	return func(rt *Runtime) {
		if places > 0 {
			rt.precision = places
		}
	}
}

// New creates a Runtime backed by the default registry.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		registry:  Default(),
		clock:     WallClock{},
		precision: DefaultDivisionPrecision,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Registry returns the registry the runtime dispatches to.
func (rt *Runtime) Registry() *Registry {
	return rt.registry
}

// Now returns the runtime clock's current time.
func (rt *Runtime) Now() time.Time {
	return rt.clock.Now()
}

// Run dispatches an operator symbol or a function name.
func (rt *Runtime) Run(name string, args []Value) (Value, error) {
	if op, ok := LookupOp(name); ok {
		if len(args) != 2 {
			return nil, fmt.Errorf("operator %s needs 2 operands, got %d", name, len(args))
		}
		return rt.Apply(op, args[0], args[1])
	}
	fn, ok := rt.registry.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	return fn(rt, args)
}

// Apply evaluates a binary operator.
func (rt *Runtime) Apply(op Op, a, b Value) (Value, error) {
	switch {
	case op.IsArithmetic():
		return rt.arith(op, a, b)
	case op.IsComparison():
		return compareOp(op, a, b), nil
	case op == OpAnd:
		return ToBool(a) && ToBool(b), nil
	case op == OpOr:
		return ToBool(a) || ToBool(b), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func (rt *Runtime) arith(op Op, a, b Value) (Value, error) {
	if IsNaN(a) || IsNaN(b) {
		return NaN, nil
	}
	if IsEmpty(a) || IsEmpty(b) {
		return "", nil
	}
	nums, err := ArgsToNumber(op.String(), []Value{a, b})
	if err != nil {
		return nil, err
	}
	x, y := nums[0], nums[1]
	switch op {
	case OpAdd:
		return x.Add(y), nil
	case OpSub:
		return x.Sub(y), nil
	case OpMul:
		return x.Mul(y), nil
	case OpDiv:
		if y.IsZero() {
			return "", nil
		}
		return rt.div(x, y), nil
	case OpMod:
		if y.IsZero() {
			return "", nil
		}
		return x.Mod(y), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func (rt *Runtime) div(x, y decimal.Decimal) decimal.Decimal {
	return x.DivRound(y, rt.precision)
}

func compareOp(op Op, a, b Value) bool {
	c, ok := compare(a, b)
	if !ok {
		return op == OpNe
	}
	switch op {
	case OpEq:
		return c == 0
	case OpNe:
		return c != 0
	case OpLt:
		return c < 0
	case OpLe:
		return c <= 0
	case OpGt:
		return c > 0
	case OpGe:
		return c >= 0
	}
	return false
}

// compare orders two values. Numbers compare numerically, times
// chronologically, everything else by display text. NaN is unordered.
func compare(a, b Value) (int, bool) {
	if IsNaN(a) || IsNaN(b) {
		return 0, false
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb), true
		}
	}
	if IsNumeric(a) && IsNumeric(b) {
		x, _ := ToNumber(a)
		y, _ := ToNumber(b)
		return x.Cmp(y), true
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0, true
			case !ba:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return strings.Compare(Format(a), Format(b)), true
}
