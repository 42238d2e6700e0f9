// Package dates holds the calendar arithmetic for yearly recurring dates.
// Everything here is pure: results depend only on the inputs and the
// supplied location, never on the wall clock.
package dates

import (
	"fmt"
	"time"
)

// ErrInvalidMonthDay indicates a month/day pair outside the valid calendar range.
var ErrInvalidMonthDay = fmt.Errorf("invalid month/day combination")

// MonthDay is a year-independent calendar date, e.g. a birthday.
type MonthDay struct {
	Month time.Month
	Day   int
}

// daysInMonth uses the longest form of each month: Feb 29 is a valid
// MonthDay even though not every year contains it.
var daysInMonth = map[time.Month]int{
	time.January: 31, time.February: 29, time.March: 31, time.April: 30,
	time.May: 31, time.June: 30, time.July: 31, time.August: 31,
	time.September: 30, time.October: 31, time.November: 30, time.December: 31,
}

// NewMonthDay validates and constructs a MonthDay. Out-of-range input is
// rejected rather than normalized, so a bad record upstream cannot silently
// shift to a different date.
func NewMonthDay(month, day int) (MonthDay, error) {
	m := time.Month(month)
	max, ok := daysInMonth[m]
	if !ok {
		return MonthDay{}, fmt.Errorf("%w: month %d", ErrInvalidMonthDay, month)
	}
	if day < 1 || day > max {
		return MonthDay{}, fmt.Errorf("%w: day %d of %s", ErrInvalidMonthDay, day, m)
	}
	return MonthDay{Month: m, Day: day}, nil
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d.%02d", md.Day, md.Month)
}

// IsLeapYear reports whether year is a Gregorian leap year.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// NextOccurrence returns the soonest calendar date, at or after ref's local
// date in loc, whose month and day match md. A Feb 29 MonthDay resolves to
// March 1 in non-leap target years: the celebration is never early and at
// most one day late.
func NextOccurrence(md MonthDay, ref time.Time, loc *time.Location) (time.Time, error) {
	if _, err := NewMonthDay(int(md.Month), md.Day); err != nil {
		return time.Time{}, err
	}

	today := BeginningOfDay(ref.In(loc))
	candidate := resolveInYear(md, today.Year(), loc)
	if candidate.Before(today) {
		candidate = resolveInYear(md, today.Year()+1, loc)
	}
	return candidate, nil
}

// resolveInYear pins md to a concrete year, applying the Feb 29 fallback.
func resolveInYear(md MonthDay, year int, loc *time.Location) time.Time {
	if md.Month == time.February && md.Day == 29 && !IsLeapYear(year) {
		return time.Date(year, time.March, 1, 0, 0, 0, 0, loc)
	}
	return time.Date(year, md.Month, md.Day, 0, 0, 0, 0, loc)
}

// DaysUntil returns the whole-day difference between target's and ref's local
// calendar dates in loc. Time of day is ignored on both sides.
func DaysUntil(target, ref time.Time, loc *time.Location) int {
	from := BeginningOfDay(ref.In(loc))
	to := BeginningOfDay(target.In(loc))
	// Compare via date components rather than durations so DST transitions
	// cannot skew the count by an hour.
	days := 0
	for from.Before(to) {
		from = from.AddDate(0, 0, 1)
		days++
	}
	for to.Before(from) {
		to = to.AddDate(0, 0, 1)
		days--
	}
	return days
}

// BeginningOfDay truncates t to midnight in its own location.
func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
