package testutil

import "time"

// FixedClock is a formula clock that always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time {
	return time.Time(c)
}

// Date returns a FixedClock at midnight local time on the given day.
func Date(year int, month time.Month, day int) FixedClock {
	return FixedClock(time.Date(year, month, day, 0, 0, 0, 0, time.Local))
}
