package formula

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

func registerMath(r *Registry) {
	r.Register("SUM", FamilyMath, sum)
	r.Register("AVERAGE", FamilyMath, average)
	r.Register("COUNT", FamilyMath, count)
	r.Register("PRODUCT", FamilyMath, product)
	r.Register("MAX", FamilyMath, maxFn)
	r.Register("MIN", FamilyMath, minFn)
	r.Register("ABS", FamilyMath, unary("ABS", func(d decimal.Decimal) (Value, bool) { return d.Abs(), true }))
	r.Register("INT", FamilyMath, unary("INT", func(d decimal.Decimal) (Value, bool) { return d.Floor(), true }))
	r.Register("CEIL", FamilyMath, unary("CEIL", func(d decimal.Decimal) (Value, bool) { return d.Ceil(), true }))
	r.Register("FLOOR", FamilyMath, unary("FLOOR", func(d decimal.Decimal) (Value, bool) { return d.Floor(), true }))
	r.Register("SQRT", FamilyMath, unary("SQRT", func(d decimal.Decimal) (Value, bool) {
		if d.IsNegative() {
			return nil, false
		}
		return floatOp(d, math.Sqrt)
	}))
	r.Register("LN", FamilyMath, unary("LN", func(d decimal.Decimal) (Value, bool) {
		if !d.IsPositive() {
			return nil, false
		}
		return floatOp(d, math.Log)
	}))
	r.Register("EXP", FamilyMath, unary("EXP", func(d decimal.Decimal) (Value, bool) {
		return floatOp(d, math.Exp)
	}))
	r.Register("LOG", FamilyMath, logFn)
	r.Register("MOD", FamilyMath, modFn)
	r.Register("DIV", FamilyMath, divFn)
	r.Register("POWER", FamilyMath, power)
	r.Register("ROUND", FamilyMath, rounding("ROUND", func(d decimal.Decimal, p int32) Value { return d.Round(p) }))
	r.Register("ROUNDUP", FamilyMath, rounding("ROUNDUP", func(d decimal.Decimal, p int32) Value { return d.RoundUp(p) }))
	r.Register("ROUNDDOWN", FamilyMath, rounding("ROUNDDOWN", func(d decimal.Decimal, p int32) Value { return d.RoundDown(p) }))
	r.Register("ROUND_HALF_UP", FamilyMath, rounding("ROUND_HALF_UP", roundHalfUp))
	r.Register("ROUND_HALF_EVEN", FamilyMath, rounding("ROUND_HALF_EVEN", roundHalfEven))
	r.Register("SLOPE", FamilyMath, slope)
	r.Register("INTERCEPT", FamilyMath, intercept)
	r.Register("STDEV", FamilyMath, stdev(true))
	r.Register("STDEVP", FamilyMath, stdev(false))
	r.Register("VAR", FamilyMath, variance)
	r.Register("MEDIAN", FamilyMath, median)
}

// numbers flattens args, drops empty values and coerces the rest.
func numbers(fn string, args []Value) ([]decimal.Decimal, error) {
	return ArgsToNumber(fn, RemoveEmptyArgs(Flatten(args)))
}

func sum(_ *Runtime, args []Value) (Value, error) {
	nums, err := numbers("SUM", args)
	if err != nil {
		return nil, err
	}
	return decimal.Sum(decimal.Zero, nums...), nil
}

func average(rt *Runtime, args []Value) (Value, error) {
	nums, err := numbers("AVERAGE", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return "", nil
	}
	return mean(rt, nums), nil
}

func mean(rt *Runtime, nums []decimal.Decimal) decimal.Decimal {
	return rt.div(decimal.Sum(decimal.Zero, nums...), decimal.NewFromInt(int64(len(nums))))
}

func count(_ *Runtime, args []Value) (Value, error) {
	n := 0
	for _, a := range RemoveEmptyArgs(Flatten(args)) {
		if IsNumeric(a) {
			n++
		}
	}
	return Number(int64(n)), nil
}

func product(_ *Runtime, args []Value) (Value, error) {
	nums, err := numbers("PRODUCT", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return "", nil
	}
	p := decimal.NewFromInt(1)
	for _, n := range nums {
		p = p.Mul(n)
	}
	return p, nil
}

func maxFn(_ *Runtime, args []Value) (Value, error) {
	nums, err := numbers("MAX", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return "", nil
	}
	return decimal.Max(nums[0], nums[1:]...), nil
}

func minFn(_ *Runtime, args []Value) (Value, error) {
	nums, err := numbers("MIN", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return "", nil
	}
	return decimal.Min(nums[0], nums[1:]...), nil
}

// unary wraps a one-argument function. A wrong argument count or an
// out-of-domain input (ok == false) yields "".
func unary(name string, f func(decimal.Decimal) (Value, bool)) Func {
	return func(_ *Runtime, args []Value) (Value, error) {
		args = RemoveEmptyArgs(args)
		if len(args) != 1 {
			return "", nil
		}
		nums, err := ArgsToNumber(name, args)
		if err != nil {
			return nil, err
		}
		v, ok := f(nums[0])
		if !ok {
			return "", nil
		}
		return v, nil
	}
}

func floatOp(d decimal.Decimal, f func(float64) float64) (Value, bool) {
	x, _ := d.Float64()
	y := f(x)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return nil, false
	}
	return decimal.NewFromFloat(y), true
}

// LOG(x) is base 10; LOG(x, base) uses the given base.
func logFn(_ *Runtime, args []Value) (Value, error) {
	args = RemoveEmptyArgs(args)
	if len(args) != 1 && len(args) != 2 {
		return "", nil
	}
	nums, err := ArgsToNumber("LOG", args)
	if err != nil {
		return nil, err
	}
	if !nums[0].IsPositive() {
		return "", nil
	}
	x, _ := nums[0].Float64()
	if len(nums) == 1 {
		v, _ := floatOp(nums[0], math.Log10)
		return v, nil
	}
	base, _ := nums[1].Float64()
	if base <= 0 || base == 1 {
		return "", nil
	}
	return decimal.NewFromFloat(math.Log(x) / math.Log(base)), nil
}

// binary returns the two operands of MOD/DIV style functions, or ok=false
// when the call should soft-fail.
func binary(name string, args []Value) (decimal.Decimal, decimal.Decimal, bool, error) {
	args = RemoveEmptyArgs(args)
	if len(args) != 2 {
		return decimal.Zero, decimal.Zero, false, nil
	}
	nums, err := ArgsToNumber(name, args)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	if nums[1].IsZero() {
		return decimal.Zero, decimal.Zero, false, nil
	}
	return nums[0], nums[1], true, nil
}

func modFn(_ *Runtime, args []Value) (Value, error) {
	x, y, ok, err := binary("MOD", args)
	if err != nil || !ok {
		return "", err
	}
	return x.Mod(y), nil
}

func divFn(rt *Runtime, args []Value) (Value, error) {
	x, y, ok, err := binary("DIV", args)
	if err != nil || !ok {
		return "", err
	}
	return rt.div(x, y), nil
}

func power(rt *Runtime, args []Value) (Value, error) {
	args = RemoveEmptyArgs(args)
	if len(args) != 2 {
		return "", nil
	}
	nums, err := ArgsToNumber("POWER", args)
	if err != nil {
		return nil, err
	}
	base, exp := nums[0], nums[1]
	if exp.IsInteger() {
		if exp.IsNegative() {
			if base.IsZero() {
				return "", nil
			}
			return rt.div(decimal.NewFromInt(1), base.Pow(exp.Neg())), nil
		}
		return base.Pow(exp), nil
	}
	b, _ := base.Float64()
	e, _ := exp.Float64()
	y := math.Pow(b, e)
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return "", nil
	}
	return decimal.NewFromFloat(y), nil
}

// MaxRoundPlaces bounds the places argument of the ROUND family.
const MaxRoundPlaces = 100

// rounding wraps ROUND-style functions taking (number[, places]).
func rounding(name string, f func(decimal.Decimal, int32) Value) Func {
	return func(_ *Runtime, args []Value) (Value, error) {
		args = RemoveEmptyArgs(args)
		if len(args) != 1 && len(args) != 2 {
			return "", nil
		}
		nums, err := ArgsToNumber(name, args)
		if err != nil {
			return nil, err
		}
		places := int32(0)
		if len(nums) == 2 {
			p := nums[1].IntPart()
			if nums[1].Abs().GreaterThan(decimal.NewFromInt(MaxRoundPlaces)) {
				return "", nil
			}
			places = int32(p)
		}
		return f(nums[0], places), nil
	}
}

// roundHalfUp rounds half away from zero and renders fixed places.
func roundHalfUp(d decimal.Decimal, places int32) Value {
	return d.StringFixed(places)
}

// roundHalfEven is banker's rounding rendered with fixed places. The
// decimal keeps the exact digits of its input, so a value whose digits past
// places are exactly 5 followed by zeros is treated as a tie and goes to
// the even neighbour, even when it originally came from a float64.
func roundHalfEven(d decimal.Decimal, places int32) Value {
	return d.StringFixedBank(places)
}

// pairs reads two equally sized numeric arrays.
func pairs(name string, args []Value) (ys, xs []decimal.Decimal, ok bool, err error) {
	if len(args) != 2 {
		return nil, nil, false, nil
	}
	ys, err = ArgsToNumber(name, Flatten([]Value{args[0]}))
	if err != nil {
		return nil, nil, false, err
	}
	xs, err = ArgsToNumber(name, Flatten([]Value{args[1]}))
	if err != nil {
		return nil, nil, false, err
	}
	if len(xs) != len(ys) || len(xs) < 2 {
		return nil, nil, false, nil
	}
	return ys, xs, true, nil
}

// regression returns slope and intercept of the least-squares line.
func regression(rt *Runtime, ys, xs []decimal.Decimal) (decimal.Decimal, decimal.Decimal, bool) {
	mx, my := mean(rt, xs), mean(rt, ys)
	num, den := decimal.Zero, decimal.Zero
	for i := range xs {
		dx := xs[i].Sub(mx)
		num = num.Add(dx.Mul(ys[i].Sub(my)))
		den = den.Add(dx.Mul(dx))
	}
	if den.IsZero() {
		return decimal.Zero, decimal.Zero, false
	}
	m := rt.div(num, den)
	return m, my.Sub(m.Mul(mx)), true
}

// SLOPE(known_ys, known_xs)
func slope(rt *Runtime, args []Value) (Value, error) {
	ys, xs, ok, err := pairs("SLOPE", args)
	if err != nil || !ok {
		return "", err
	}
	m, _, ok := regression(rt, ys, xs)
	if !ok {
		return "", nil
	}
	return m, nil
}

// INTERCEPT(known_ys, known_xs)
func intercept(rt *Runtime, args []Value) (Value, error) {
	ys, xs, ok, err := pairs("INTERCEPT", args)
	if err != nil || !ok {
		return "", err
	}
	_, b, ok := regression(rt, ys, xs)
	if !ok {
		return "", nil
	}
	return b, nil
}

func sumSquares(rt *Runtime, nums []decimal.Decimal) decimal.Decimal {
	m := mean(rt, nums)
	ss := decimal.Zero
	for _, n := range nums {
		d := n.Sub(m)
		ss = ss.Add(d.Mul(d))
	}
	return ss
}

func stdev(sample bool) Func {
	name := "STDEVP"
	if sample {
		name = "STDEV"
	}
	return func(rt *Runtime, args []Value) (Value, error) {
		nums, err := numbers(name, args)
		if err != nil {
			return nil, err
		}
		n := len(nums)
		if sample {
			n--
		}
		if n < 1 {
			return "", nil
		}
		v := rt.div(sumSquares(rt, nums), decimal.NewFromInt(int64(n)))
		out, _ := floatOp(v, math.Sqrt)
		return out, nil
	}
}

func variance(rt *Runtime, args []Value) (Value, error) {
	nums, err := numbers("VAR", args)
	if err != nil {
		return nil, err
	}
	if len(nums) < 2 {
		return "", nil
	}
	return rt.div(sumSquares(rt, nums), decimal.NewFromInt(int64(len(nums)-1))), nil
}

func median(rt *Runtime, args []Value) (Value, error) {
	nums, err := numbers("MEDIAN", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return "", nil
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i].LessThan(nums[j]) })
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return nums[mid], nil
	}
	return rt.div(nums[mid-1].Add(nums[mid]), decimal.NewFromInt(2)), nil
}
