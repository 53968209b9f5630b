package calendar

import (
	"errors"
	"fmt"
)

// Schedule returns the adjusted dates from start to end, one per tenor.
//
// Each intermediate date is start advanced by a whole number of tenors, so
// under MonthEndReference a month-end start keeps every date on the last
// business day of its month. Day tenors count business days from the
// previous date. The first and last entries are start and end rolled under
// c; dates that roll onto or past the rolled end are dropped.
func Schedule(cal Calendar, start, end Date, tenor Period, c RollingConvention) ([]Date, error) {
	if start.IsNull() || end.IsNull() {
		return nil, fmt.Errorf("schedule: %w: null date", ErrInvalidDate)
	}
	if end <= start {
		return nil, fmt.Errorf("schedule: %w: end %s is not after start %s", ErrInvalidDate, end, start)
	}
	if tenor.Length <= 0 {
		return nil, fmt.Errorf("schedule: %w: tenor %s must be positive", ErrInvalidPeriod, tenor)
	}

	first, err := Roll(cal, start, c, NullDate)
	if err != nil {
		return nil, err
	}
	last, err := Roll(cal, end, c, NullDate)
	if err != nil {
		return nil, err
	}

	dates := []Date{first}
	prev := start
	for i := 1; inSpan(i * tenor.Length); i++ {
		var next Date
		if tenor.Unit == Days {
			next, err = Advance(cal, prev, tenor.Length, Days, c)
			if err != nil {
				return nil, err
			}
			prev = next
		} else {
			unadjusted, err := start.Plus(i*tenor.Length, tenor.Unit)
			if errors.Is(err, ErrDateOutOfRange) {
				break
			}
			if err != nil {
				return nil, err
			}
			if unadjusted >= end {
				break
			}
			next, err = Advance(cal, start, i*tenor.Length, tenor.Unit, c)
			if err != nil {
				return nil, err
			}
		}
		if next >= last {
			break
		}
		if next > dates[len(dates)-1] {
			dates = append(dates, next)
		}
	}

	if last > dates[len(dates)-1] {
		dates = append(dates, last)
	}
	return dates, nil
}
