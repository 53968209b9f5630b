package calendar

import "fmt"

// MaxHolidayRun is the longest run of consecutive holidays a walk will
// step over before giving up with ErrCalendarInconsistency.
const MaxHolidayRun = 366

// Roll adjusts d to a business day of cal under convention c.
//
// origin is only read by MonthEndReference: when it is the last business day
// of its month, the result is moved to the last business day of its own
// month. Pass NullDate when there is no origin.
func Roll(cal Calendar, d Date, c RollingConvention, origin Date) (Date, error) {
	if d.IsNull() {
		return NullDate, fmt.Errorf("roll: %w: null date", ErrInvalidDate)
	}

	switch c {
	case Unadjusted:
		return d, nil

	case Following, ModifiedFollowing, MonthEndReference:
		d1, err := skipHolidays(cal, d, 1)
		if err != nil {
			return NullDate, err
		}
		if c == Following {
			return d1, nil
		}
		if d1.Month() != d.Month() {
			return Roll(cal, d, Preceding, NullDate)
		}
		if c == MonthEndReference && !origin.IsNull() &&
			IsLastBusinessDayOfMonth(cal, origin) && !IsLastBusinessDayOfMonth(cal, d1) {
			return Roll(cal, d1.EndOfMonth(), Preceding, NullDate)
		}
		return d1, nil

	case Preceding, ModifiedPreceding:
		d1, err := skipHolidays(cal, d, -1)
		if err != nil {
			return NullDate, err
		}
		if c == ModifiedPreceding && d1.Month() != d.Month() {
			return Roll(cal, d, Following, NullDate)
		}
		return d1, nil

	default:
		return NullDate, fmt.Errorf("roll: %w: %d", ErrUnknownConvention, int(c))
	}
}

// Advance moves d by n units and adjusts the result under c.
//
// With unit Days the move counts business days, each step landing on the
// next (or previous) business day, and c is not applied afterwards. Other
// units use plain calendar arithmetic followed by Roll with d as origin.
// n == 0 is the same as Roll(cal, d, c, NullDate).
func Advance(cal Calendar, d Date, n int, unit TimeUnit, c RollingConvention) (Date, error) {
	if d.IsNull() {
		return NullDate, fmt.Errorf("advance: %w: null date", ErrInvalidDate)
	}
	if !c.IsValid() {
		return NullDate, fmt.Errorf("advance: %w: %d", ErrUnknownConvention, int(c))
	}
	if n == 0 {
		return Roll(cal, d, c, NullDate)
	}

	if unit == Days {
		if !inSpan(n) {
			return NullDate, fmt.Errorf("advance %s by %d business days: %w", d, n, ErrDateOutOfRange)
		}
		step := Date(1)
		if n < 0 {
			step, n = -1, -n
		}
		d1 := d
		for ; n > 0; n-- {
			next, err := skipHolidays(cal, d1+step, step)
			if err != nil {
				return NullDate, err
			}
			d1 = next
		}
		return d1, nil
	}

	d1, err := d.Plus(n, unit)
	if err != nil {
		return NullDate, fmt.Errorf("advance %s by %d%s: %w", d, n, unit, err)
	}
	return Roll(cal, d1, c, d)
}

// AdvancePeriod is Advance by p.Length units of p.Unit.
func AdvancePeriod(cal Calendar, d Date, p Period, c RollingConvention) (Date, error) {
	return Advance(cal, d, p.Length, p.Unit, c)
}

// skipHolidays walks from d in steps of step while the current day is a
// holiday and returns the first business day reached.
func skipHolidays(cal Calendar, d Date, step Date) (Date, error) {
	start := d
	for run := 0; ; run++ {
		if !d.valid() {
			return NullDate, fmt.Errorf("%w: holiday walk from %s left the supported range", ErrDateOutOfRange, start)
		}
		if !cal.IsHoliday(d) {
			return d, nil
		}
		if run == MaxHolidayRun {
			return NullDate, fmt.Errorf("%w: %s has more than %d consecutive holidays from %s",
				ErrCalendarInconsistency, cal.Name(), MaxHolidayRun, start)
		}
		d += step
	}
}
