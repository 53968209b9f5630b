package calendar

import (
	"strings"
	"time"
)

// NullCalendar has no holidays at all, not even weekends.
type NullCalendar struct{}

func (NullCalendar) Name() string { return "Null" }
func (NullCalendar) IsHoliday(Date) bool { return false }
func (NullCalendar) IsWeekend(time.Weekday) bool { return false }

// WeekendsOnly treats Saturdays and Sundays as the only holidays.
type WeekendsOnly struct{}

func (WeekendsOnly) Name() string { return "WeekendsOnly" }
func (WeekendsOnly) IsHoliday(d Date) bool { return isSaturdayOrSunday(d.Weekday()) }

// NewYork is the United States settlement calendar. It has no holidays
// tied to Easter.
type NewYork struct{}

func (NewYork) Name() string { return "NewYork" }

func (NewYork) IsHoliday(d Date) bool {
	y, m, day := d.ymd()
	wd := d.Weekday()
	mon, fri := wd == time.Monday, wd == time.Friday
	switch {
	case isSaturdayOrSunday(wd):
		return true
	// New Year's Day, possibly moved to Monday or to the Friday before
	case m == time.January && (day == 1 || (day == 2 && mon)):
		return true
	case m == time.December && day == 31 && fri:
		return true
	// Martin Luther King's birthday, third Monday in January
	case m == time.January && day >= 15 && day <= 21 && mon && y >= 1983:
		return true
	// Washington's birthday, third Monday in February
	case m == time.February && day >= 15 && day <= 21 && mon:
		return true
	// Memorial Day, last Monday in May
	case m == time.May && day >= 25 && mon:
		return true
	// Juneteenth
	case m == time.June && y >= 2022 && (day == 19 || (day == 20 && mon) || (day == 18 && fri)):
		return true
	// Independence Day
	case m == time.July && (day == 4 || (day == 5 && mon) || (day == 3 && fri)):
		return true
	// Labor Day, first Monday in September
	case m == time.September && day <= 7 && mon:
		return true
	// Columbus Day, second Monday in October
	case m == time.October && day >= 8 && day <= 14 && mon:
		return true
	// Veterans' Day
	case m == time.November && (day == 11 || (day == 12 && mon) || (day == 10 && fri)):
		return true
	// Thanksgiving, fourth Thursday in November
	case m == time.November && day >= 22 && day <= 28 && wd == time.Thursday:
		return true
	// Christmas
	case m == time.December && (day == 25 || (day == 26 && mon) || (day == 24 && fri)):
		return true
	}
	return false
}

// Custom overlays extra holidays and extra business days on a base calendar.
// It is read-only once built.
type Custom struct {
	name    string
	base    Calendar
	added   map[Date]string
	removed map[Date]struct{}
}

// NewCustom builds a calendar named name on top of base. Dates in added
// become holidays with the given names; dates in removed become business
// days. A date in both is a holiday.
func NewCustom(name string, base Calendar, added map[Date]string, removed []Date) *Custom {
	c := &Custom{
		name:    name,
		base:    base,
		added:   make(map[Date]string, len(added)),
		removed: make(map[Date]struct{}, len(removed)),
	}
	for d, holiday := range added {
		c.added[d] = holiday
	}
	for _, d := range removed {
		c.removed[d] = struct{}{}
	}
	return c
}

func (c *Custom) Name() string { return c.name }

// Base returns the calendar c was built on.
func (c *Custom) Base() Calendar { return c.base }

func (c *Custom) IsHoliday(d Date) bool {
	if _, ok := c.added[d]; ok {
		return true
	}
	if _, ok := c.removed[d]; ok {
		return false
	}
	return c.base.IsHoliday(d)
}

// HolidayName returns the name given to an added holiday, or "".
func (c *Custom) HolidayName(d Date) string {
	return c.added[d]
}

func (c *Custom) IsWeekend(w time.Weekday) bool {
	return isWeekendFor(c.base, w)
}

// JoinRule selects how a Joint calendar combines its members.
type JoinRule int

const (
	// JoinHolidays makes a day a holiday if any member says so.
	JoinHolidays JoinRule = iota
	// JoinBusinessDays makes a day a business day if any member says so.
	JoinBusinessDays
)

// Joint combines several calendars under a JoinRule.
type Joint struct {
	rule    JoinRule
	members []Calendar
}

// NewJoint returns the combination of members under rule.
func NewJoint(rule JoinRule, members ...Calendar) *Joint {
	return &Joint{rule: rule, members: append([]Calendar(nil), members...)}
}

// Name is "A+B" for JoinHolidays, matching what the registry resolves.
func (j *Joint) Name() string {
	names := make([]string, len(j.members))
	for i, m := range j.members {
		names[i] = m.Name()
	}
	if j.rule == JoinHolidays {
		return strings.Join(names, "+")
	}
	return "JoinBusinessDays(" + strings.Join(names, ", ") + ")"
}

// Members returns the combined calendars in join order.
func (j *Joint) Members() []Calendar {
	return append([]Calendar(nil), j.members...)
}

func (j *Joint) IsHoliday(d Date) bool {
	for _, m := range j.members {
		h := m.IsHoliday(d)
		if h && j.rule == JoinHolidays {
			return true
		}
		if !h && j.rule == JoinBusinessDays {
			return false
		}
	}
	return j.rule == JoinBusinessDays && len(j.members) > 0
}

func (j *Joint) IsWeekend(w time.Weekday) bool {
	for _, m := range j.members {
		weekend := isWeekendFor(m, w)
		if weekend && j.rule == JoinHolidays {
			return true
		}
		if !weekend && j.rule == JoinBusinessDays {
			return false
		}
	}
	return j.rule == JoinBusinessDays && len(j.members) > 0
}

// Builtins returns one instance of every predefined calendar.
func Builtins() []Calendar {
	return []Calendar{
		NullCalendar{},
		WeekendsOnly{},
		TARGET{},
		London{},
		Frankfurt{},
		Zurich{},
		NewYork{},
	}
}
