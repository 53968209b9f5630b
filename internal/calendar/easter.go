package calendar

import (
	"fmt"
	"time"
)

// easterMondays holds the day of year of Easter Monday for 1900-2099,
// indexed by year-1900. The 1900 entry counts that year as a leap year.
// 2079 holds 114; older copies of this table carried 107 there.
var easterMondays = [200]int{
	107, 98, 90, 103, 95, 114, 106, 91, 111, 102, // 1900-1909
	87, 107, 99, 83, 103, 95, 115, 99, 91, 111, // 1910-1919
	96, 87, 107, 92, 112, 103, 95, 108, 100, 91, // 1920-1929
	111, 96, 88, 107, 92, 112, 104, 88, 108, 100, // 1930-1939
	85, 104, 96, 116, 101, 92, 112, 97, 89, 108, // 1940-1949
	100, 85, 105, 96, 109, 101, 93, 112, 97, 89, // 1950-1959
	109, 93, 113, 105, 90, 109, 101, 86, 106, 97, // 1960-1969
	89, 102, 94, 113, 105, 90, 110, 101, 86, 106, // 1970-1979
	98, 110, 102, 94, 114, 98, 90, 110, 95, 86, // 1980-1989
	106, 91, 111, 102, 94, 107, 99, 90, 103, 95, // 1990-1999
	115, 106, 91, 111, 103, 87, 107, 99, 84, 103, // 2000-2009
	95, 115, 100, 91, 111, 96, 88, 107, 92, 112, // 2010-2019
	104, 95, 108, 100, 92, 111, 96, 88, 108, 92, // 2020-2029
	112, 104, 89, 108, 100, 85, 105, 96, 116, 101, // 2030-2039
	93, 112, 97, 89, 109, 100, 85, 105, 97, 109, // 2040-2049
	101, 93, 113, 97, 89, 109, 94, 113, 105, 90, // 2050-2059
	110, 101, 86, 106, 98, 89, 102, 94, 114, 105, // 2060-2069
	90, 110, 102, 86, 106, 98, 111, 102, 94, 114, // 2070-2079
	99, 90, 110, 95, 87, 106, 91, 111, 103, 94, // 2080-2089
	107, 99, 91, 103, 95, 115, 107, 91, 111, 103, // 2090-2099
}

const (
	easterFirstYear = 1900
	easterLastYear  = easterFirstYear + len(easterMondays) - 1
)

// EasterMonday returns the day of year on which Easter Monday falls.
// Only 1900-2099 are covered; other years return ErrYearOutOfRange.
func EasterMonday(year int) (int, error) {
	if year < easterFirstYear || year > easterLastYear {
		return 0, fmt.Errorf("%w: easter monday for %d (table covers %d-%d)",
			ErrYearOutOfRange, year, easterFirstYear, easterLastYear)
	}
	return easterMondays[year-easterFirstYear], nil
}

// EasterSunday calculates the date of Easter Sunday for a given year
// using the computus algorithm for the Gregorian calendar.
//
// The algorithm is based on the method described by J.M. Oudin (1940)
// and is valid for all years in the Gregorian calendar.
func EasterSunday(year int) (Date, error) {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	return NewDate(year, time.Month(month), day)
}

// easterMondayOf returns Easter Monday's day of year in the numbering of
// Date.DayOfYear. Years past the table fall back to the computus.
func easterMondayOf(year int) int {
	em, err := EasterMonday(year)
	if err != nil {
		sunday, err := EasterSunday(year)
		if err != nil {
			return 0
		}
		return sunday.DayOfYear() + 1
	}
	if year == easterFirstYear {
		em--
	}
	return em
}
