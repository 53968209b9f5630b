package database

import (
	"time"
)

// CustomCalendar is a user-defined calendar layered on a base calendar.
type CustomCalendar struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Base        string    `json:"base"`
	Description *string   `json:"description,omitempty"` // nullable
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HolidayKind says whether an override adds or removes a holiday.
type HolidayKind string

const (
	HolidayKindAdd    HolidayKind = "add"
	HolidayKindRemove HolidayKind = "remove"
)

// ValidHolidayKinds returns all valid holiday kinds.
func ValidHolidayKinds() []HolidayKind {
	return []HolidayKind{
		HolidayKindAdd,
		HolidayKindRemove,
	}
}

// IsValid checks if a holiday kind is valid.
func (k HolidayKind) IsValid() bool {
	for _, valid := range ValidHolidayKinds() {
		if k == valid {
			return true
		}
	}
	return false
}

// CalendarHoliday is one date override of a custom calendar.
type CalendarHoliday struct {
	ID         int64       `json:"id"`
	CalendarID int64       `json:"calendar_id"`
	Date       string      `json:"date"` // ISO 8601 format: YYYY-MM-DD
	Name       *string     `json:"name,omitempty"`
	Kind       HolidayKind `json:"kind"`
	CreatedAt  time.Time   `json:"created_at"`
}

// -----------------------------------------------------------------
// Composite types for API responses
// -----------------------------------------------------------------

// CalendarWithHolidays combines a custom calendar with its overrides.
type CalendarWithHolidays struct {
	Calendar CustomCalendar    `json:"calendar"`
	Holidays []CalendarHoliday `json:"holidays"`
}
