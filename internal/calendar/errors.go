package calendar

import "errors"

var (
	// ErrInvalidDate is returned for a null date or a malformed one.
	ErrInvalidDate = errors.New("invalid date")

	// ErrUnknownConvention is returned for a rolling convention outside the
	// closed set defined by this package.
	ErrUnknownConvention = errors.New("unknown rolling convention")

	// ErrCalendarInconsistency is returned when a holiday walk finds more than
	// MaxHolidayRun consecutive holidays.
	ErrCalendarInconsistency = errors.New("calendar inconsistency")

	// ErrYearOutOfRange is returned by EasterMonday outside 1900-2099.
	ErrYearOutOfRange = errors.New("year out of range")

	// ErrDateOutOfRange is returned when arithmetic leaves 1900-2199.
	ErrDateOutOfRange = errors.New("date out of range")

	// ErrInvalidPeriod is returned for a malformed period or time unit.
	ErrInvalidPeriod = errors.New("invalid period")

	// ErrUnknownCalendar is returned when a calendar name cannot be resolved.
	ErrUnknownCalendar = errors.New("unknown calendar")
)
