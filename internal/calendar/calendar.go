package calendar

import "time"

// Calendar decides which dates are holidays. Implementations must be safe
// for concurrent use and must not change their answers after construction.
type Calendar interface {
	// Name identifies the calendar, e.g. "TARGET".
	Name() string

	// IsHoliday reports whether d is a non-business day. Weekends count.
	IsHoliday(d Date) bool
}

// WeekendCalendar is implemented by calendars with a weekend other than
// Saturday and Sunday.
type WeekendCalendar interface {
	Calendar
	IsWeekend(w time.Weekday) bool
}

// IsBusinessDay reports whether d is a business day for cal.
func IsBusinessDay(cal Calendar, d Date) bool {
	return !cal.IsHoliday(d)
}

// IsLastBusinessDayOfMonth reports whether d is a business day and the next
// business day falls in a later month.
func IsLastBusinessDayOfMonth(cal Calendar, d Date) bool {
	if cal.IsHoliday(d) {
		return false
	}
	month := d.Month()
	next := d.Next()
	for next.Month() == month && cal.IsHoliday(next) {
		next = next.Next()
	}
	return next.Month() != month
}

// EndOfMonth returns the last business day of d's month.
func EndOfMonth(cal Calendar, d Date) (Date, error) {
	return Roll(cal, d.EndOfMonth(), Preceding, NullDate)
}

// BusinessDaysBetween counts business days in (from, to]. When to is before
// from the count is negative, so that for n > 0
// BusinessDaysBetween(cal, d, Advance(cal, d, n, Days, c)) == n.
func BusinessDaysBetween(cal Calendar, from, to Date) int {
	sign := 1
	if to < from {
		from, to = to, from
		sign = -1
	}
	count := 0
	for d := from.Next(); d <= to; d++ {
		if !cal.IsHoliday(d) {
			count++
		}
	}
	return sign * count
}

// HolidayList returns the holidays of cal in [from, to]. Weekend days are
// left out unless includeWeekends is set.
func HolidayList(cal Calendar, from, to Date, includeWeekends bool) []Date {
	var result []Date
	for d := from; d <= to; d++ {
		if !cal.IsHoliday(d) {
			continue
		}
		if !includeWeekends && isWeekendFor(cal, d.Weekday()) {
			continue
		}
		result = append(result, d)
	}
	return result
}

func isWeekendFor(cal Calendar, w time.Weekday) bool {
	if wc, ok := cal.(WeekendCalendar); ok {
		return wc.IsWeekend(w)
	}
	return isSaturdayOrSunday(w)
}

func isSaturdayOrSunday(w time.Weekday) bool {
	return w == time.Saturday || w == time.Sunday
}
