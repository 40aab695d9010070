package formula

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
	timeLayout     = "15:04:05"
)

// dateLayouts are tried in order when a string is used as a date.
var dateLayouts = []string{
	dateTimeLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	dateLayout,
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	timeLayout,
	"15:04",
}

func registerDate(r *Registry) {
	r.Register("DATE", FamilyDate, dateFn)
	r.Register("TIME", FamilyDate, timeFn)
	r.Register("NOW", FamilyDate, func(rt *Runtime, _ []Value) (Value, error) {
		return rt.Now(), nil
	})
	r.Register("TODAY", FamilyDate, func(rt *Runtime, _ []Value) (Value, error) {
		now := rt.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	})
	r.Register("YEAR", FamilyDate, datePart("YEAR", func(t time.Time) int { return t.Year() }))
	r.Register("MONTH", FamilyDate, datePart("MONTH", func(t time.Time) int { return int(t.Month()) }))
	r.Register("DAY", FamilyDate, datePart("DAY", func(t time.Time) int { return t.Day() }))
	r.Register("HOUR", FamilyDate, datePart("HOUR", func(t time.Time) int { return t.Hour() }))
	r.Register("MINUTE", FamilyDate, datePart("MINUTE", func(t time.Time) int { return t.Minute() }))
	r.Register("SECOND", FamilyDate, datePart("SECOND", func(t time.Time) int { return t.Second() }))
	r.Register("WEEKDAY", FamilyDate, datePart("WEEKDAY", func(t time.Time) int { return int(t.Weekday()) + 1 }))
	r.Register("CALC_TIME", FamilyDate, calcTime)
	r.Register("DATEDIF", FamilyDate, dateDif)
}

// ParseDate converts a value to a time. Strings must match one of the
// accepted layouts; anything else is a *DateError.
func ParseDate(fn string, v Value) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, nil
			}
		}
		return time.Time{}, &DateError{Func: fn, Input: v}
	}
	return time.Time{}, &DateError{Func: fn, Input: Format(v)}
}

// DATE(year, month, day[, hour, minute, second])
func dateFn(_ *Runtime, args []Value) (Value, error) {
	args = RemoveEmptyArgs(args)
	if len(args) < 3 || len(args) > 6 {
		return "", nil
	}
	nums, err := ArgsToNumber("DATE", args)
	if err != nil {
		return nil, err
	}
	parts := make([]int, 6)
	for i, n := range nums {
		parts[i] = int(n.IntPart())
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.Local), nil
}

// TIME(hour, minute, second) renders a clock time.
func timeFn(_ *Runtime, args []Value) (Value, error) {
	args = RemoveEmptyArgs(args)
	if len(args) != 3 {
		return "", nil
	}
	nums, err := ArgsToNumber("TIME", args)
	if err != nil {
		return nil, err
	}
	t := time.Date(2000, 1, 1, int(nums[0].IntPart()), int(nums[1].IntPart()), int(nums[2].IntPart()), 0, time.Local)
	return t.Format(timeLayout), nil
}

func datePart(name string, part func(time.Time) int) Func {
	return func(_ *Runtime, args []Value) (Value, error) {
		args = RemoveEmptyArgs(args)
		if len(args) != 1 {
			return "", nil
		}
		t, err := ParseDate(name, args[0])
		if err != nil {
			return nil, err
		}
		return Number(int64(part(t))), nil
	}
}

type timeUnit int

const (
	unitYear timeUnit = iota
	unitMonth
	unitDay
	unitHour
	unitMinute
	unitSecond
)

var unitNames = map[string]timeUnit{
	"y": unitYear, "year": unitYear, "years": unitYear,
	"M": unitMonth, "month": unitMonth, "months": unitMonth,
	"d": unitDay, "day": unitDay, "days": unitDay,
	"h": unitHour, "hour": unitHour, "hours": unitHour,
	"m": unitMinute, "minute": unitMinute, "minutes": unitMinute,
	"s": unitSecond, "second": unitSecond, "seconds": unitSecond,
}

var unitDurations = map[timeUnit]time.Duration{
	unitDay:    24 * time.Hour,
	unitHour:   time.Hour,
	unitMinute: time.Minute,
	unitSecond: time.Second,
}

func lookupUnit(fn string, idx int, v Value) (timeUnit, error) {
	s := Format(v)
	if u, ok := unitNames[s]; ok {
		return u, nil
	}
	if u, ok := unitNames[strings.ToLower(s)]; ok {
		return u, nil
	}
	return 0, &ArgError{Func: fn, Index: idx, Value: v, Reason: "unknown time unit"}
}

// CALC_TIME(date, amount, unit) shifts a date by amount units.
func calcTime(_ *Runtime, args []Value) (Value, error) {
	args = RemoveEmptyArgs(args)
	if len(args) != 3 {
		return "", nil
	}
	t, err := ParseDate("CALC_TIME", args[0])
	if err != nil {
		return nil, err
	}
	nums, err := ArgsToNumber("CALC_TIME", args[1:2])
	if err != nil {
		return nil, err
	}
	unit, err := lookupUnit("CALC_TIME", 2, args[2])
	if err != nil {
		return nil, err
	}
	amount := nums[0]
	switch unit {
	case unitYear:
		return t.AddDate(int(amount.IntPart()), 0, 0), nil
	case unitMonth:
		return t.AddDate(0, int(amount.IntPart()), 0), nil
	case unitDay:
		if amount.IsInteger() {
			return t.AddDate(0, 0, int(amount.IntPart())), nil
		}
	}
	nanos := amount.Mul(decimal.NewFromInt(int64(unitDurations[unit]))).IntPart()
	return t.Add(time.Duration(nanos)), nil
}

// DATEDIF(start, end, unit) counts whole units from start to end.
func dateDif(_ *Runtime, args []Value) (Value, error) {
	args = RemoveEmptyArgs(args)
	if len(args) != 3 {
		return "", nil
	}
	start, err := ParseDate("DATEDIF", args[0])
	if err != nil {
		return nil, err
	}
	end, err := ParseDate("DATEDIF", args[1])
	if err != nil {
		return nil, err
	}
	unit, err := lookupUnit("DATEDIF", 2, args[2])
	if err != nil {
		return nil, err
	}
	switch unit {
	case unitYear, unitMonth:
		months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
		if end.Day() < start.Day() {
			months--
		}
		if unit == unitYear {
			return Number(int64(months / 12)), nil
		}
		return Number(int64(months)), nil
	}
	return Number(int64(end.Sub(start) / unitDurations[unit])), nil
}
