package calendar

import (
	"fmt"
	"strconv"
	"strings"
)

// TimeUnit is the unit of a Period.
type TimeUnit int

const (
	Days TimeUnit = iota
	Weeks
	Months
	Years
)

// String returns the single-letter tenor suffix of u.
func (u TimeUnit) String() string {
	switch u {
	case Days:
		return "D"
	case Weeks:
		return "W"
	case Months:
		return "M"
	case Years:
		return "Y"
	default:
		return fmt.Sprintf("TimeUnit(%d)", int(u))
	}
}

// ParseTimeUnit accepts a tenor suffix ("D", "w") or a unit name ("days",
// "Month").
func ParseTimeUnit(s string) (TimeUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "day", "days":
		return Days, nil
	case "w", "week", "weeks":
		return Weeks, nil
	case "m", "month", "months":
		return Months, nil
	case "y", "year", "years":
		return Years, nil
	}
	return Days, fmt.Errorf("%w: unknown time unit %q", ErrInvalidPeriod, s)
}

// Period is a signed length of time, such as 3 months or -2 weeks.
type Period struct {
	Length int
	Unit   TimeUnit
}

// NewPeriod returns a Period of n units.
func NewPeriod(n int, unit TimeUnit) Period {
	return Period{Length: n, Unit: unit}
}

// ParsePeriod parses a tenor such as "3M", "-2W", "10d" or "1Y".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	unit, err := ParseTimeUnit(s[len(s)-1:])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Period{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
	}
	return Period{Length: n, Unit: unit}, nil
}

// String renders p in tenor form, e.g. "3M".
func (p Period) String() string {
	return strconv.Itoa(p.Length) + p.Unit.String()
}
