// Package calendar provides business-day calendars and the date rolling
// rules used to build settlement and coupon schedules.
package calendar

import (
	"fmt"
	"time"
)

// Date is a calendar date stored as a serial day number.
// Serial 1 is January 1st, 1900. The zero value is NullDate.
//
// Dates compare with the ordinary integer operators.
type Date int32

// NullDate marks an absent date.
const NullDate Date = 0

// dateLayout is the ISO 8601 form used for parsing and formatting.
const dateLayout = "2006-01-02"

const (
	minYear = 1900
	maxYear = 2199
)

// epoch is the day before serial 1.
var epoch = time.Date(1899, time.December, 31, 0, 0, 0, 0, time.UTC)

var (
	// MinDate is the earliest supported date, 1900-01-01.
	MinDate = Date(1)
	// MaxDate is the latest supported date, 2199-12-31.
	MaxDate = serialOf(maxYear, time.December, 31)
)

func serialOf(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date((t.Unix() - epoch.Unix()) / (24 * 60 * 60))
}

// NewDate returns the date for the given year, month and day.
// Components that do not name a real day return ErrInvalidDate;
// years outside 1900-2199 return ErrDateOutOfRange.
func NewDate(year int, month time.Month, day int) (Date, error) {
	if month < time.January || month > time.December {
		return NullDate, fmt.Errorf("%w: month %d", ErrInvalidDate, month)
	}
	if year < minYear || year > maxYear {
		return NullDate, fmt.Errorf("%w: year %d", ErrDateOutOfRange, year)
	}
	if day < 1 || day > daysIn(month, year) {
		return NullDate, fmt.Errorf("%w: %04d-%02d-%02d", ErrInvalidDate, year, month, day)
	}
	return serialOf(year, month, day), nil
}

// MustDate is like NewDate but panics on error. Intended for tables and tests.
func MustDate(year int, month time.Month, day int) Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

// FromTime returns the calendar date of t in t's own location.
func FromTime(t time.Time) (Date, error) {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return NullDate, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t)
}

// IsNull reports whether d is the null date.
func (d Date) IsNull() bool { return d == NullDate }

// valid reports whether d lies inside the supported range.
func (d Date) valid() bool { return d >= MinDate && d <= MaxDate }

// Time returns midnight UTC on d.
func (d Date) Time() time.Time {
	return epoch.AddDate(0, 0, int(d))
}

func (d Date) ymd() (int, time.Month, int) {
	return d.Time().Date()
}

// Year returns the year of d.
func (d Date) Year() int {
	y, _, _ := d.ymd()
	return y
}

// Month returns the month of d.
func (d Date) Month() time.Month {
	_, m, _ := d.ymd()
	return m
}

// Day returns the day of the month.
func (d Date) Day() int {
	_, _, day := d.ymd()
	return day
}

// Weekday returns the day of the week. Serial 1 was a Monday.
func (d Date) Weekday() time.Weekday {
	return time.Weekday(int(d) % 7)
}

// DayOfYear returns the 1-based day of the year.
func (d Date) DayOfYear() int {
	return d.Time().YearDay()
}

// Next returns the following calendar day.
func (d Date) Next() Date { return d + 1 }

// Prev returns the preceding calendar day.
func (d Date) Prev() Date { return d - 1 }

// LastDayOfMonth returns the number of days in d's month.
func (d Date) LastDayOfMonth() int {
	y, m, _ := d.ymd()
	return daysIn(m, y)
}

// EndOfMonth returns the last calendar day of d's month.
func (d Date) EndOfMonth() Date {
	y, m, day := d.ymd()
	return d + Date(daysIn(m, y)-day)
}

// IsEndOfMonth reports whether d is the last calendar day of its month.
func (d Date) IsEndOfMonth() bool {
	return d.EndOfMonth() == d
}

// Plus adds n units to d with plain calendar arithmetic.
// Months and years keep the day of month, clamped to the length of the
// target month, so Jan 31 plus one month is the last day of February.
func (d Date) Plus(n int, unit TimeUnit) (Date, error) {
	if d.IsNull() {
		return NullDate, ErrInvalidDate
	}
	if unit >= Days && unit <= Years && !inSpan(n) {
		return NullDate, fmt.Errorf("%w: %s %+d%s", ErrDateOutOfRange, d, n, unit)
	}
	switch unit {
	case Days:
		return d.addDays(n)
	case Weeks:
		return d.addDays(7 * n)
	case Months:
		return d.addMonths(n)
	case Years:
		return d.addMonths(12 * n)
	default:
		return NullDate, fmt.Errorf("%w: unknown time unit %d", ErrInvalidPeriod, int(unit))
	}
}

// inSpan reports whether a move of n units could stay within the supported
// range. Every unit is at least a day long, so |n| is bounded by the number
// of days in the range.
func inSpan(n int) bool {
	span := int(MaxDate - MinDate)
	return n >= -span && n <= span
}

func (d Date) addDays(n int) (Date, error) {
	r := int64(d) + int64(n)
	if r < int64(MinDate) || r > int64(MaxDate) {
		return NullDate, fmt.Errorf("%w: %s %+d days", ErrDateOutOfRange, d, n)
	}
	return Date(r), nil
}

func (d Date) addMonths(n int) (Date, error) {
	y, m, day := d.ymd()
	total := int64(y)*12 + int64(m-1) + int64(n)
	if total < minYear*12 || total > maxYear*12+11 {
		return NullDate, fmt.Errorf("%w: %s %+d months", ErrDateOutOfRange, d, n)
	}
	ny, nm := int(total/12), time.Month(total%12)+1
	if last := daysIn(nm, ny); day > last {
		day = last
	}
	return serialOf(ny, nm, day), nil
}

// String returns d as YYYY-MM-DD, or "null" for the null date.
func (d Date) String() string {
	if d.IsNull() {
		return "null"
	}
	return d.Time().Format(dateLayout)
}

// MarshalText implements encoding.TextMarshaler. The null date encodes as
// an empty string.
func (d Date) MarshalText() ([]byte, error) {
	if d.IsNull() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = NullDate
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// daysIn returns the number of days in month m of year y.
func daysIn(m time.Month, y int) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
