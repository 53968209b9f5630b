// Package holidayfile reads and writes holiday-set files in YAML or TOML.
//
// A file describes a custom calendar as a base calendar plus overrides:
//
//	name: ACME
//	base: TARGET
//	description: ACME settlement calendar
//	holidays:
//	  - date: 2024-12-24
//	    name: Christmas Eve
//	removed:
//	  - 2024-05-01
//
// The TOML form uses the same keys, with [[holidays]] tables. Dates are
// strings in both formats, so TOML dates must be quoted.
package holidayfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/database"
)

// DefaultBase is used when a file names no base calendar.
const DefaultBase = "WeekendsOnly"

// ErrInvalidFile is returned for files that do not parse or validate.
var ErrInvalidFile = errors.New("invalid holiday file")

// Holiday is one extra holiday.
type Holiday struct {
	Date string `yaml:"date" toml:"date"`
	Name string `yaml:"name,omitempty" toml:"name,omitempty"`
}

// File is the serialized form of a custom calendar.
type File struct {
	Name        string    `yaml:"name" toml:"name"`
	Base        string    `yaml:"base" toml:"base"`
	Description string    `yaml:"description,omitempty" toml:"description,omitempty"`
	Holidays    []Holiday `yaml:"holidays,omitempty" toml:"holidays,omitempty"`
	Removed     []string  `yaml:"removed,omitempty" toml:"removed,omitempty"`

	// SourceFile is the path the file was loaded from.
	SourceFile string `yaml:"-" toml:"-"`
}

// Defaults fills in optional fields.
func (f *File) Defaults() {
	if f.Base == "" {
		f.Base = DefaultBase
	}
}

// Validate checks the name and every date. A date may appear only once
// across holidays and removed.
func (f *File) Validate() error {
	if err := calendar.ValidateName(f.Name); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	seen := make(map[calendar.Date]bool)
	check := func(s string) error {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidFile, f.Name, err)
		}
		if seen[d] {
			return fmt.Errorf("%w: %s: date %s listed twice", ErrInvalidFile, f.Name, s)
		}
		seen[d] = true
		return nil
	}

	for _, h := range f.Holidays {
		if err := check(h.Date); err != nil {
			return err
		}
	}
	for _, s := range f.Removed {
		if err := check(s); err != nil {
			return err
		}
	}
	return nil
}

// Build returns the calendar described by f on top of base.
func (f *File) Build(base calendar.Calendar) (*calendar.Custom, error) {
	added := make(map[calendar.Date]string, len(f.Holidays))
	for _, h := range f.Holidays {
		d, err := calendar.ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, f.Name, err)
		}
		added[d] = h.Name
	}

	removed := make([]calendar.Date, 0, len(f.Removed))
	for _, s := range f.Removed {
		d, err := calendar.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFile, f.Name, err)
		}
		removed = append(removed, d)
	}

	return calendar.NewCustom(f.Name, base, added, removed), nil
}

// Record returns the rows that store f. The overrides carry no CalendarID;
// the caller sets it once the calendar row exists. Dates are normalised to
// YYYY-MM-DD, so f must have passed Validate.
func (f *File) Record() (database.CustomCalendar, []database.CalendarHoliday) {
	c := database.CustomCalendar{Name: f.Name, Base: f.Base}
	if f.Description != "" {
		desc := f.Description
		c.Description = &desc
	}

	holidays := make([]database.CalendarHoliday, 0, len(f.Holidays)+len(f.Removed))
	for _, h := range f.Holidays {
		row := database.CalendarHoliday{Date: normalise(h.Date), Kind: database.HolidayKindAdd}
		if h.Name != "" {
			name := h.Name
			row.Name = &name
		}
		holidays = append(holidays, row)
	}
	for _, s := range f.Removed {
		holidays = append(holidays, database.CalendarHoliday{Date: normalise(s), Kind: database.HolidayKindRemove})
	}
	return c, holidays
}

// FromRecord converts a stored calendar back to file form.
func FromRecord(c *database.CalendarWithHolidays) *File {
	f := &File{Name: c.Calendar.Name, Base: c.Calendar.Base}
	if c.Calendar.Description != nil {
		f.Description = *c.Calendar.Description
	}
	for _, h := range c.Holidays {
		if h.Kind == database.HolidayKindRemove {
			f.Removed = append(f.Removed, h.Date)
			continue
		}
		holiday := Holiday{Date: h.Date}
		if h.Name != nil {
			holiday.Name = *h.Name
		}
		f.Holidays = append(f.Holidays, holiday)
	}
	return f
}

func normalise(s string) string {
	d, err := calendar.ParseDate(s)
	if err != nil {
		return s
	}
	return d.String()
}

// RegisterAll builds every file and registers it with reg. A file may use
// another file's calendar as its base regardless of order.
func RegisterAll(ctx context.Context, reg *calendar.Registry, files []*File) error {
	pending := append([]*File(nil), files...)
	for len(pending) > 0 {
		var next []*File
		var lastErr error
		for _, f := range pending {
			base, err := reg.Lookup(ctx, f.Base)
			if err != nil {
				lastErr = fmt.Errorf("%s: base %s: %w", f.Name, f.Base, err)
				next = append(next, f)
				continue
			}
			cal, err := f.Build(base)
			if err != nil {
				return err
			}
			if err := reg.Register(cal); err != nil {
				return err
			}
		}
		if len(next) == len(pending) {
			return lastErr
		}
		pending = next
	}
	return nil
}
