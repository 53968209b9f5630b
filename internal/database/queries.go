package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// querier is the subset of *sql.DB and *sql.Tx the queries need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}

	// Try RFC3339 format first (with timezone)
	t, err := time.Parse(time.RFC3339, ns.String)
	if err == nil {
		return &t
	}

	// Try SQLite datetime format (no timezone)
	t, err = time.Parse("2006-01-02 15:04:05", ns.String)
	if err == nil {
		return &t
	}

	return nil
}

// nullableString converts a sql.NullString to a *string.
func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// =============================================================================
// Calendar Queries
// =============================================================================

const calendarColumns = `id, name, base, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCalendar(row rowScanner) (*CustomCalendar, error) {
	var c CustomCalendar
	var description, createdAt, updatedAt sql.NullString

	if err := row.Scan(&c.ID, &c.Name, &c.Base, &description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	c.Description = nullableString(description)
	if t := parseTimestamp(createdAt); t != nil {
		c.CreatedAt = *t
	}
	if t := parseTimestamp(updatedAt); t != nil {
		c.UpdatedAt = *t
	}
	return &c, nil
}

func createCalendar(ctx context.Context, q querier, c *CustomCalendar) error {
	result, err := q.ExecContext(ctx,
		`INSERT INTO calendars (name, base, description) VALUES (?, ?, ?)`,
		c.Name, c.Base, c.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert calendar: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get calendar id: %w", err)
	}
	c.ID = id
	return nil
}

func getCalendarByName(ctx context.Context, q querier, name string) (*CustomCalendar, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars WHERE name = ?`, name)

	c, err := scanCalendar(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query calendar %q: %w", name, err)
	}
	return c, nil
}

// CreateCalendar inserts a custom calendar and sets its ID.
// Returns ErrDuplicate if the name is taken.
func (db *DB) CreateCalendar(ctx context.Context, c *CustomCalendar) error {
	return createCalendar(ctx, db.DB, c)
}

// CreateCalendar inserts a custom calendar within the transaction.
func (tx *Tx) CreateCalendar(ctx context.Context, c *CustomCalendar) error {
	return createCalendar(ctx, tx.Tx, c)
}

// GetCalendarByName retrieves a custom calendar by case-insensitive name.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) GetCalendarByName(ctx context.Context, name string) (*CustomCalendar, error) {
	return getCalendarByName(ctx, db.DB, name)
}

// GetCalendarByName retrieves a custom calendar within the transaction.
func (tx *Tx) GetCalendarByName(ctx context.Context, name string) (*CustomCalendar, error) {
	return getCalendarByName(ctx, tx.Tx, name)
}

// ListCalendars returns all custom calendars ordered by name.
func (db *DB) ListCalendars(ctx context.Context) ([]CustomCalendar, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+calendarColumns+` FROM calendars ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query calendars: %w", err)
	}
	defer rows.Close()

	var calendars []CustomCalendar
	for rows.Next() {
		c, err := scanCalendar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar row: %w", err)
		}
		calendars = append(calendars, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendars: %w", err)
	}

	return calendars, nil
}

// DeleteCalendar removes a custom calendar and, by cascade, its overrides.
// Returns ErrNotFound if it doesn't exist.
func (db *DB) DeleteCalendar(ctx context.Context, name string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM calendars WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete calendar: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================================================
// Holiday Queries
// =============================================================================

func addHoliday(ctx context.Context, q querier, h *CalendarHoliday) error {
	if h.Kind == "" {
		h.Kind = HolidayKindAdd
	}
	if !h.Kind.IsValid() {
		return fmt.Errorf("invalid holiday kind %q", h.Kind)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO calendar_holidays (calendar_id, date, name, kind) VALUES (?, ?, ?, ?)`,
		h.CalendarID, h.Date, h.Name, string(h.Kind),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert holiday: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get holiday id: %w", err)
	}
	h.ID = id
	return nil
}

// AddHoliday records a date override for a custom calendar and sets its ID.
// An empty Kind means HolidayKindAdd. Returns ErrDuplicate if the calendar
// already has an override on that date.
func (db *DB) AddHoliday(ctx context.Context, h *CalendarHoliday) error {
	return addHoliday(ctx, db.DB, h)
}

// AddHoliday records a date override within the transaction.
func (tx *Tx) AddHoliday(ctx context.Context, h *CalendarHoliday) error {
	return addHoliday(ctx, tx.Tx, h)
}

// ListHolidays returns the overrides of a calendar in date order.
func (db *DB) ListHolidays(ctx context.Context, calendarID int64) ([]CalendarHoliday, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, calendar_id, date, name, kind, created_at
		FROM calendar_holidays
		WHERE calendar_id = ?
		ORDER BY date ASC
	`, calendarID)
	if err != nil {
		return nil, fmt.Errorf("query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []CalendarHoliday
	for rows.Next() {
		var h CalendarHoliday
		var name, createdAt sql.NullString
		var kind string

		if err := rows.Scan(&h.ID, &h.CalendarID, &h.Date, &name, &kind, &createdAt); err != nil {
			return nil, fmt.Errorf("scan holiday row: %w", err)
		}

		h.Kind = HolidayKind(kind)
		h.Name = nullableString(name)
		if t := parseTimestamp(createdAt); t != nil {
			h.CreatedAt = *t
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holidays: %w", err)
	}

	return holidays, nil
}

// DeleteHoliday removes the override of a calendar on a date.
// Returns ErrNotFound if there is none.
func (db *DB) DeleteHoliday(ctx context.Context, calendarID int64, date string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM calendar_holidays WHERE calendar_id = ? AND date = ?`,
		calendarID, date,
	)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCalendarWithHolidays loads a custom calendar together with its overrides.
func (db *DB) GetCalendarWithHolidays(ctx context.Context, name string) (*CalendarWithHolidays, error) {
	c, err := db.GetCalendarByName(ctx, name)
	if err != nil {
		return nil, err
	}

	holidays, err := db.ListHolidays(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return &CalendarWithHolidays{Calendar: *c, Holidays: holidays}, nil
}

// CountCalendars returns the number of stored calendars.
func (db *DB) CountCalendars(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM calendars`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count calendars: %w", err)
	}
	return count, nil
}
