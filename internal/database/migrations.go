package database

// migrationsSQL contains all database migrations.
// Migrations are applied in order by version number.
// Each migration should be idempotent (safe to run multiple times).
var migrationsSQL = map[int]string{
	1: migrationV1Calendars,
	2: migrationV2CalendarHolidays,
}

// migrationV1Calendars creates the table of user-defined calendars.
//
// A stored calendar never lists weekends or standard holidays itself; it
// names a base calendar (a built-in such as TARGET, or another stored
// calendar) and only records its differences from that base.
const migrationV1Calendars = `
-- Migration 001: custom calendars

CREATE TABLE IF NOT EXISTS calendars (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    -- Lookup name, unique regardless of case
    name TEXT NOT NULL COLLATE NOCASE,

    -- Name of the calendar this one is layered on
    base TEXT NOT NULL,

    description TEXT,

    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE (name)
);
`

// migrationV2CalendarHolidays creates the per-calendar date overrides.
//
// kind = 'add' marks an extra holiday; kind = 'remove' turns a base
// holiday into a business day. Dates are stored as YYYY-MM-DD text so they
// sort and compare correctly in SQL.
const migrationV2CalendarHolidays = `
-- Migration 002: calendar holiday overrides

CREATE TABLE IF NOT EXISTS calendar_holidays (
    id INTEGER PRIMARY KEY AUTOINCREMENT,

    calendar_id INTEGER NOT NULL,

    date TEXT NOT NULL,

    name TEXT,

    kind TEXT NOT NULL DEFAULT 'add' CHECK (kind IN ('add', 'remove')),

    created_at TEXT NOT NULL DEFAULT (datetime('now')),

    FOREIGN KEY (calendar_id) REFERENCES calendars(id) ON DELETE CASCADE,

    -- One override per date per calendar
    UNIQUE (calendar_id, date)
);

-- Primary lookup: all overrides of a calendar in date order
CREATE INDEX IF NOT EXISTS idx_calendar_holidays_calendar
    ON calendar_holidays(calendar_id, date);
`
