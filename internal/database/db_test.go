package database

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"
)

// testDB creates a temporary in-memory database for testing.
func testDB(t *testing.T) *DB {
	t.Helper()

	// Use in-memory database for tests
	cfg := Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	// Quiet logger for tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	db, err := Open(cfg, logger)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	// Run migrations
	ctx := context.Background()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// seedTestData stores an ACME calendar on TARGET with two overrides.
func seedTestData(t *testing.T, db *DB) *CustomCalendar {
	t.Helper()
	ctx := context.Background()

	cal := &CustomCalendar{
		Name:        "ACME",
		Base:        "TARGET",
		Description: strPtr("ACME settlement calendar"),
	}
	if err := db.CreateCalendar(ctx, cal); err != nil {
		t.Fatalf("create test calendar: %v", err)
	}

	holidays := []CalendarHoliday{
		{CalendarID: cal.ID, Date: "2024-12-24", Name: strPtr("Christmas Eve"), Kind: HolidayKindAdd},
		{CalendarID: cal.ID, Date: "2024-05-01", Kind: HolidayKindRemove},
	}
	for i := range holidays {
		if err := db.AddHoliday(ctx, &holidays[i]); err != nil {
			t.Fatalf("create test holiday: %v", err)
		}
	}
	return cal
}

func strPtr(s string) *string {
	return &s
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestOpen(t *testing.T) {
	db := testDB(t)

	// Verify connection works
	ctx := context.Background()
	if err := db.Health(ctx); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/dir/bizcal.db"

	db, err := Open(DefaultConfig(path), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestMigrate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// Migrations should have run (in testDB)
	// Running again should be a no-op
	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != 0 {
		t.Errorf("Migrate() count = %d, want 0 (already applied)", count)
	}
}

func TestMigrate_FreshStore(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"), nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	// No calendars table yet
	if err := db.Health(ctx); err == nil {
		t.Error("Health() before Migrate() succeeded")
	}

	count, err := db.Migrate(ctx)
	if err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if count != len(migrationsSQL) {
		t.Errorf("Migrate() count = %d, want %d", count, len(migrationsSQL))
	}
	if err := db.Health(ctx); err != nil {
		t.Errorf("Health() after Migrate() error = %v", err)
	}

	var fk int
	if err := db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

// -----------------------------------------------------------------
// Calendar tests
// -----------------------------------------------------------------

func TestCreateCalendar(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	cal := &CustomCalendar{Name: "Settlement", Base: "TARGET+London"}
	if err := db.CreateCalendar(ctx, cal); err != nil {
		t.Fatalf("CreateCalendar() error = %v", err)
	}
	if cal.ID == 0 {
		t.Error("CreateCalendar() did not set ID")
	}
}

func TestCreateCalendar_Duplicate(t *testing.T) {
	db := testDB(t)
	seedTestData(t, db)
	ctx := context.Background()

	// Names are unique regardless of case
	err := db.CreateCalendar(ctx, &CustomCalendar{Name: "acme", Base: "London"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateCalendar() duplicate error = %v, want ErrDuplicate", err)
	}
}

func TestGetCalendarByName(t *testing.T) {
	db := testDB(t)
	seeded := seedTestData(t, db)
	ctx := context.Background()

	cal, err := db.GetCalendarByName(ctx, "acme")
	if err != nil {
		t.Fatalf("GetCalendarByName() error = %v", err)
	}

	if cal.ID != seeded.ID {
		t.Errorf("GetCalendarByName() id = %d, want %d", cal.ID, seeded.ID)
	}
	if cal.Name != "ACME" {
		t.Errorf("GetCalendarByName() name = %q, want %q", cal.Name, "ACME")
	}
	if cal.Base != "TARGET" {
		t.Errorf("GetCalendarByName() base = %q, want %q", cal.Base, "TARGET")
	}
	if cal.Description == nil || *cal.Description != "ACME settlement calendar" {
		t.Errorf("GetCalendarByName() description = %v", cal.Description)
	}
	if cal.CreatedAt.IsZero() {
		t.Error("GetCalendarByName() created_at not parsed")
	}
}

func TestGetCalendarByName_NotFound(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.GetCalendarByName(ctx, "Nowhere")
	if !IsNotFound(err) {
		t.Errorf("GetCalendarByName() error = %v, want ErrNotFound", err)
	}
}

func TestListCalendars(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "alpha", "Mid"} {
		if err := db.CreateCalendar(ctx, &CustomCalendar{Name: name, Base: "WeekendsOnly"}); err != nil {
			t.Fatalf("CreateCalendar(%s) error = %v", name, err)
		}
	}

	cals, err := db.ListCalendars(ctx)
	if err != nil {
		t.Fatalf("ListCalendars() error = %v", err)
	}

	want := []string{"alpha", "Mid", "Zeta"}
	if len(cals) != len(want) {
		t.Fatalf("ListCalendars() returned %d calendars, want %d", len(cals), len(want))
	}
	for i, c := range cals {
		if c.Name != want[i] {
			t.Errorf("ListCalendars()[%d] = %q, want %q", i, c.Name, want[i])
		}
	}
}

func TestDeleteCalendar(t *testing.T) {
	db := testDB(t)
	cal := seedTestData(t, db)
	ctx := context.Background()

	if err := db.DeleteCalendar(ctx, "Acme"); err != nil {
		t.Fatalf("DeleteCalendar() error = %v", err)
	}

	if _, err := db.GetCalendarByName(ctx, "ACME"); !IsNotFound(err) {
		t.Errorf("calendar still present after delete: %v", err)
	}

	// Overrides go with the calendar
	holidays, err := db.ListHolidays(ctx, cal.ID)
	if err != nil {
		t.Fatalf("ListHolidays() error = %v", err)
	}
	if len(holidays) != 0 {
		t.Errorf("ListHolidays() after delete = %d rows, want 0", len(holidays))
	}

	if err := db.DeleteCalendar(ctx, "ACME"); !IsNotFound(err) {
		t.Errorf("second DeleteCalendar() error = %v, want ErrNotFound", err)
	}
}

func TestCountCalendars(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	count, err := db.CountCalendars(ctx)
	if err != nil {
		t.Fatalf("CountCalendars() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountCalendars() on empty db = %d, want 0", count)
	}

	seedTestData(t, db)

	count, err = db.CountCalendars(ctx)
	if err != nil {
		t.Fatalf("CountCalendars() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountCalendars() = %d, want 1", count)
	}
}

// -----------------------------------------------------------------
// Holiday tests
// -----------------------------------------------------------------

func TestListHolidays(t *testing.T) {
	db := testDB(t)
	cal := seedTestData(t, db)
	ctx := context.Background()

	holidays, err := db.ListHolidays(ctx, cal.ID)
	if err != nil {
		t.Fatalf("ListHolidays() error = %v", err)
	}
	if len(holidays) != 2 {
		t.Fatalf("ListHolidays() returned %d rows, want 2", len(holidays))
	}

	// Date order, not insertion order
	first, second := holidays[0], holidays[1]
	if first.Date != "2024-05-01" || first.Kind != HolidayKindRemove || first.Name != nil {
		t.Errorf("ListHolidays()[0] = %+v, want unnamed removal on 2024-05-01", first)
	}
	if second.Date != "2024-12-24" || second.Kind != HolidayKindAdd {
		t.Errorf("ListHolidays()[1] = %+v, want addition on 2024-12-24", second)
	}
	if second.Name == nil || *second.Name != "Christmas Eve" {
		t.Errorf("ListHolidays()[1].Name = %v, want %q", second.Name, "Christmas Eve")
	}
}

func TestAddHoliday(t *testing.T) {
	db := testDB(t)
	cal := seedTestData(t, db)
	ctx := context.Background()

	tests := []struct {
		name    string
		holiday CalendarHoliday
		wantErr error
	}{
		{
			name:    "empty kind defaults to add",
			holiday: CalendarHoliday{CalendarID: cal.ID, Date: "2024-12-31"},
		},
		{
			name:    "duplicate date",
			holiday: CalendarHoliday{CalendarID: cal.ID, Date: "2024-12-24", Kind: HolidayKindRemove},
			wantErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.holiday
			err := db.AddHoliday(ctx, &h)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddHoliday() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && h.Kind != HolidayKindAdd {
				t.Errorf("AddHoliday() kind = %q, want %q", h.Kind, HolidayKindAdd)
			}
		})
	}

	t.Run("invalid kind", func(t *testing.T) {
		h := CalendarHoliday{CalendarID: cal.ID, Date: "2024-11-01", Kind: "skip"}
		if err := db.AddHoliday(ctx, &h); err == nil {
			t.Error("AddHoliday() with invalid kind succeeded")
		}
	})

	t.Run("unknown calendar", func(t *testing.T) {
		h := CalendarHoliday{CalendarID: cal.ID + 100, Date: "2024-11-01"}
		if err := db.AddHoliday(ctx, &h); err == nil {
			t.Error("AddHoliday() for missing calendar succeeded")
		}
	})
}

func TestDeleteHoliday(t *testing.T) {
	db := testDB(t)
	cal := seedTestData(t, db)
	ctx := context.Background()

	if err := db.DeleteHoliday(ctx, cal.ID, "2024-12-24"); err != nil {
		t.Fatalf("DeleteHoliday() error = %v", err)
	}

	holidays, err := db.ListHolidays(ctx, cal.ID)
	if err != nil {
		t.Fatalf("ListHolidays() error = %v", err)
	}
	if len(holidays) != 1 || holidays[0].Date != "2024-05-01" {
		t.Errorf("ListHolidays() after delete = %+v", holidays)
	}

	if err := db.DeleteHoliday(ctx, cal.ID, "2024-12-24"); !IsNotFound(err) {
		t.Errorf("second DeleteHoliday() error = %v, want ErrNotFound", err)
	}
}

func TestGetCalendarWithHolidays(t *testing.T) {
	db := testDB(t)
	seedTestData(t, db)
	ctx := context.Background()

	result, err := db.GetCalendarWithHolidays(ctx, "ACME")
	if err != nil {
		t.Fatalf("GetCalendarWithHolidays() error = %v", err)
	}
	if result.Calendar.Name != "ACME" {
		t.Errorf("calendar name = %q, want %q", result.Calendar.Name, "ACME")
	}
	if len(result.Holidays) != 2 {
		t.Errorf("holidays = %d, want 2", len(result.Holidays))
	}

	if _, err := db.GetCalendarWithHolidays(ctx, "Nowhere"); !IsNotFound(err) {
		t.Errorf("GetCalendarWithHolidays() missing error = %v, want ErrNotFound", err)
	}
}

// -----------------------------------------------------------------
// Transaction tests
// -----------------------------------------------------------------

func TestWithTx_Commit(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		cal := &CustomCalendar{Name: "Desk", Base: "London"}
		if err := tx.CreateCalendar(ctx, cal); err != nil {
			return err
		}
		stored, err := tx.GetCalendarByName(ctx, "desk")
		if err != nil {
			return err
		}
		return tx.AddHoliday(ctx, &CalendarHoliday{CalendarID: stored.ID, Date: "2024-06-14"})
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}

	result, err := db.GetCalendarWithHolidays(ctx, "Desk")
	if err != nil {
		t.Fatalf("GetCalendarWithHolidays() error = %v", err)
	}
	if len(result.Holidays) != 1 {
		t.Errorf("holidays = %d, want 1", len(result.Holidays))
	}
}

func TestWithTx_Rollback(t *testing.T) {
	db := testDB(t)
	seedTestData(t, db)
	ctx := context.Background()

	// The second calendar collides, so the first must not survive either
	err := db.WithTx(ctx, func(tx *Tx) error {
		if err := tx.CreateCalendar(ctx, &CustomCalendar{Name: "Desk", Base: "London"}); err != nil {
			return err
		}
		return tx.CreateCalendar(ctx, &CustomCalendar{Name: "ACME", Base: "London"})
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("WithTx() error = %v, want ErrDuplicate", err)
	}

	if _, err := db.GetCalendarByName(ctx, "Desk"); !IsNotFound(err) {
		t.Errorf("rolled back calendar still present: %v", err)
	}
	count, err := db.CountCalendars(ctx)
	if err != nil {
		t.Fatalf("CountCalendars() error = %v", err)
	}
	if count != 1 {
		t.Errorf("CountCalendars() = %d, want 1", count)
	}
}

// -----------------------------------------------------------------
// Model tests
// -----------------------------------------------------------------

func TestHolidayKind_IsValid(t *testing.T) {
	tests := []struct {
		kind HolidayKind
		want bool
	}{
		{HolidayKindAdd, true},
		{HolidayKindRemove, true},
		{"", false},
		{"ADD", false},
		{"skip", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsValid(); got != tt.want {
				t.Errorf("HolidayKind(%q).IsValid() = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}
