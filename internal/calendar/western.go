package calendar

import "time"

// westernDay carries the fields the Western holiday rules test against.
// easterMonday is in the numbering of dayOfYear.
type westernDay struct {
	weekday      time.Weekday
	day          int
	month        time.Month
	year         int
	dayOfYear    int
	easterMonday int
}

func western(d Date) westernDay {
	t := d.Time()
	y, m, day := t.Date()
	return westernDay{
		weekday:      t.Weekday(),
		day:          day,
		month:        m,
		year:         y,
		dayOfYear:    t.YearDay(),
		easterMonday: easterMondayOf(y),
	}
}

func (w westernDay) weekend() bool { return isSaturdayOrSunday(w.weekday) }

// easterOffset reports whether the day lies n days after Easter Monday.
func (w westernDay) easterOffset(n int) bool { return w.dayOfYear == w.easterMonday+n }

func (w westernDay) goodFriday() bool { return w.easterOffset(-3) }
func (w westernDay) eastMonday() bool { return w.easterOffset(0) }
func (w westernDay) ascension() bool { return w.easterOffset(38) }
func (w westernDay) whitMonday() bool { return w.easterOffset(49) }
func (w westernDay) corpusDomini() bool { return w.easterOffset(59) }

func (w westernDay) on(m time.Month, day int) bool { return w.month == m && w.day == day }

// TARGET is the calendar of the Trans-European Automated Real-time Gross
// settlement Express Transfer system.
type TARGET struct{}

func (TARGET) Name() string { return "TARGET" }

func (TARGET) IsHoliday(d Date) bool {
	w := western(d)
	return w.weekend() ||
		w.on(time.January, 1) ||
		(w.goodFriday() && w.year >= 2000) ||
		(w.eastMonday() && w.year >= 2000) ||
		(w.on(time.May, 1) && w.year >= 2000) ||
		w.on(time.December, 25) ||
		(w.on(time.December, 26) && w.year >= 2000) ||
		(w.on(time.December, 31) && (w.year == 1998 || w.year == 1999 || w.year == 2001))
}

// London is the United Kingdom settlement calendar.
type London struct{}

func (London) Name() string { return "London" }

func (London) IsHoliday(d Date) bool {
	w := western(d)
	monTue := w.weekday == time.Monday || w.weekday == time.Tuesday
	switch {
	case w.weekend():
		return true
	// New Year's Day, possibly moved to Monday
	case w.month == time.January && (w.day == 1 || ((w.day == 2 || w.day == 3) && w.weekday == time.Monday)):
		return true
	case w.goodFriday(), w.eastMonday():
		return true
	// Early May bank holiday, moved to VE day in 1995 and 2020
	case w.month == time.May && w.day <= 7 && w.weekday == time.Monday && w.year != 1995 && w.year != 2020:
		return true
	case w.on(time.May, 8) && (w.year == 1995 || w.year == 2020):
		return true
	// Spring bank holiday, moved for the 2002, 2012 and 2022 jubilees
	case w.month == time.May && w.day >= 25 && w.weekday == time.Monday && w.year != 2002 && w.year != 2012 && w.year != 2022:
		return true
	case w.year == 2002 && (w.on(time.June, 3) || w.on(time.June, 4)):
		return true
	case w.year == 2012 && (w.on(time.June, 4) || w.on(time.June, 5)):
		return true
	case w.year == 2022 && (w.on(time.June, 2) || w.on(time.June, 3)):
		return true
	// Summer bank holiday
	case w.month == time.August && w.day >= 25 && w.weekday == time.Monday:
		return true
	// Christmas and Boxing Day, possibly moved to Monday or Tuesday
	case w.month == time.December && (w.day == 25 || (w.day == 27 && monTue)):
		return true
	case w.month == time.December && (w.day == 26 || (w.day == 28 && monTue)):
		return true
	// one-off closures
	case w.year == 1999 && w.on(time.December, 31),
		w.year == 2011 && w.on(time.April, 29),
		w.year == 2022 && w.on(time.September, 19),
		w.year == 2023 && w.on(time.May, 8):
		return true
	}
	return false
}

// Frankfurt is the Frankfurt stock exchange calendar.
type Frankfurt struct{}

func (Frankfurt) Name() string { return "Frankfurt" }

func (Frankfurt) IsHoliday(d Date) bool {
	w := western(d)
	return w.weekend() ||
		w.on(time.January, 1) ||
		w.goodFriday() ||
		w.eastMonday() ||
		w.ascension() ||
		w.whitMonday() ||
		w.corpusDomini() ||
		w.on(time.May, 1) ||
		w.on(time.October, 3) ||
		w.on(time.December, 24) ||
		w.on(time.December, 25) ||
		w.on(time.December, 26) ||
		w.on(time.December, 31)
}

// Zurich is the Swiss banking calendar.
type Zurich struct{}

func (Zurich) Name() string { return "Zurich" }

func (Zurich) IsHoliday(d Date) bool {
	w := western(d)
	return w.weekend() ||
		w.on(time.January, 1) ||
		w.on(time.January, 2) ||
		w.goodFriday() ||
		w.eastMonday() ||
		w.ascension() ||
		w.whitMonday() ||
		w.on(time.May, 1) ||
		w.on(time.August, 1) ||
		w.on(time.December, 25) ||
		w.on(time.December, 26)
}
