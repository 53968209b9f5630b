package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/database"
	"github.com/zapponejosh/bizcal/internal/holidayfile"
)

// cleanEnv pins the variables config.Load reads so the host environment
// cannot leak into a test.
func cleanEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "development")
	t.Setenv("DEFAULT_CALENDAR", "TARGET")
	t.Setenv("HOLIDAYS_DIR", "")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "missing.db"))
	t.Setenv("LOG_LEVEL", "info")
	t.Setenv("LOG_FORMAT", "text")
}

// execute runs the command tree with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cleanEnv(t)

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("bizcal %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func lines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}

func TestRoll(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"roll", "2024-12-25", "--calendar", "London"}, "2024-12-27"},
		{[]string{"roll", "2024-12-25", "-c", "Preceding"}, "2024-12-24"},
		{[]string{"roll", "2024-03-30", "-c", "ModifiedFollowing"}, "2024-03-28"},
		{[]string{"roll", "2024-06-29", "-c", "MonthEndReference", "--origin", "2024-01-31"}, "2024-06-28"},
		{[]string{"roll", "2024-12-25", "--calendar", "Null"}, "2024-12-25"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got := strings.TrimSpace(mustExecute(t, tt.args...))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoll_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"bad convention", []string{"roll", "2024-12-25", "-c", "Sideways"}, calendar.ErrUnknownConvention},
		{"bad date", []string{"roll", "2024-02-30"}, calendar.ErrInvalidDate},
		{"unknown calendar", []string{"roll", "2024-12-25", "--calendar", "Atlantis"}, calendar.ErrUnknownCalendar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"advance", "2024-12-24", "1D"}, "2024-12-27"},
		{[]string{"advance", "2024-12-27", "-1D"}, "2024-12-24"},
		{[]string{"advance", "2024-01-31", "1M", "-c", "ModifiedFollowing"}, "2024-02-29"},
		{[]string{"advance", "2024-03-15", "2W"}, "2024-04-02"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got := strings.TrimSpace(mustExecute(t, tt.args...))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := execute(t, "advance", "2024-01-31", "3X"); !errors.Is(err, calendar.ErrInvalidPeriod) {
		t.Errorf("bad period error = %v, want ErrInvalidPeriod", err)
	}
}

func TestSchedule(t *testing.T) {
	out := mustExecute(t, "schedule", "2024-01-31", "2024-07-31", "1M", "-c", "MonthEndReference")

	want := []string{"2024-01-31", "2024-02-29", "2024-03-28", "2024-04-30", "2024-05-31", "2024-06-28", "2024-07-31"}
	got := lines(out)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("schedule = %v, want %v", got, want)
	}
}

func TestHolidays(t *testing.T) {
	out := mustExecute(t, "holidays", "2024-01-01", "2024-12-31")

	got := lines(out)
	if len(got) != 6 {
		t.Fatalf("got %d TARGET holidays, want 6:\n%s", len(got), out)
	}
	if got[1] != "2024-03-29 Friday" {
		t.Errorf("second holiday = %q, want Good Friday", got[1])
	}

	withWeekends := lines(mustExecute(t, "holidays", "2024-01-01", "2024-12-31", "--weekends"))
	if len(withWeekends) != 110 {
		t.Errorf("got %d days with weekends, want 110", len(withWeekends))
	}
}

func TestDay(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"day", "2024-12-25"}, "2024-12-25 Wednesday holiday (TARGET)"},
		{[]string{"day", "2024-05-31"}, "2024-05-31 Friday business day, last of month (TARGET)"},
		{[]string{"day", "2024-07-04", "--calendar", "NewYork"}, "2024-07-04 Thursday holiday (NewYork)"},
		{[]string{"day", "2024-05-01", "--calendar", "TARGET+London"}, "2024-05-01 Wednesday holiday (TARGET+London)"},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			got := strings.TrimSpace(mustExecute(t, tt.args...))
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEaster(t *testing.T) {
	out := mustExecute(t, "easter", "2024")
	for _, want := range []string{"Easter Sunday: 2024-03-31", "Easter Monday: 2024-04-01", "Day of year:   92"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out = mustExecute(t, "easter", "2150")
	if strings.Contains(out, "Day of year") {
		t.Errorf("years past the table should not print a day of year:\n%s", out)
	}

	if _, err := execute(t, "easter", "1850"); !errors.Is(err, calendar.ErrDateOutOfRange) {
		t.Errorf("easter 1850 error = %v, want ErrDateOutOfRange", err)
	}
}

func TestCalendars(t *testing.T) {
	out := mustExecute(t, "calendars")

	got := lines(out)
	if !strings.HasPrefix(got[0], "NAME") {
		t.Errorf("header = %q", got[0])
	}
	for _, name := range []string{"TARGET", "London", "WeekendsOnly", "Null"} {
		if !strings.Contains(out, name) {
			t.Errorf("calendars output missing %s", name)
		}
	}
}

func TestHolidayFiles(t *testing.T) {
	dir := t.TempDir()
	yaml := `name: ACME
base: TARGET
holidays:
  - date: 2024-12-24
    name: Christmas Eve
removed:
  - 2024-05-01
`
	if err := os.WriteFile(filepath.Join(dir, "acme.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	got := strings.TrimSpace(mustExecute(t, "day", "2024-12-24", "--calendar", "ACME", "--holidays", dir))
	if got != "2024-12-24 Tuesday holiday (ACME)" {
		t.Errorf("day = %q", got)
	}

	out := mustExecute(t, "holidays", "2024-12-01", "2024-12-31", "--calendar", "ACME", "--holidays", dir)
	if !strings.Contains(out, "2024-12-24 Tuesday Christmas Eve") {
		t.Errorf("holidays output missing named override:\n%s", out)
	}

	got = strings.TrimSpace(mustExecute(t, "roll", "2024-05-01", "--calendar", "ACME", "--holidays", dir))
	if got != "2024-05-01" {
		t.Errorf("removed holiday rolled to %q", got)
	}
}

// seedDB writes an ACME calendar to a fresh database file.
func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bizcal.db")
	ctx := context.Background()

	db, err := database.Open(database.DefaultConfig(path), nil)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if _, err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	f, err := holidayfile.Parse([]byte("name: ACME\nbase: TARGET\ndescription: Settlement\nholidays:\n  - date: 2024-12-24\n    name: Christmas Eve\nremoved:\n  - 2024-05-01\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cal, holidays := f.Record()
	if err := db.CreateCalendar(ctx, &cal); err != nil {
		t.Fatalf("create calendar: %v", err)
	}
	for i := range holidays {
		holidays[i].CalendarID = cal.ID
		if err := db.AddHoliday(ctx, &holidays[i]); err != nil {
			t.Fatalf("add holiday: %v", err)
		}
	}
	return path
}

func TestStoredCalendar(t *testing.T) {
	path := seedDB(t)

	got := strings.TrimSpace(mustExecute(t, "advance", "2024-12-23", "1D", "--calendar", "ACME", "--db", path))
	if got != "2024-12-27" {
		t.Errorf("advance over stored holidays = %q, want 2024-12-27", got)
	}

	out := mustExecute(t, "calendars", "--db", path)
	if !strings.Contains(out, "ACME") || !strings.Contains(out, "stored") {
		t.Errorf("calendars output missing stored calendar:\n%s", out)
	}
}

func TestExport(t *testing.T) {
	path := seedDB(t)

	out := mustExecute(t, "export", "ACME", "--db", path)
	f, err := holidayfile.Parse([]byte(out))
	if err != nil {
		t.Fatalf("exported YAML does not parse: %v\n%s", err, out)
	}
	if f.Name != "ACME" || f.Base != "TARGET" || f.Description != "Settlement" {
		t.Errorf("exported header = %+v", f)
	}
	if len(f.Holidays) != 1 || f.Holidays[0].Name != "Christmas Eve" {
		t.Errorf("exported holidays = %+v", f.Holidays)
	}
	if len(f.Removed) != 1 || f.Removed[0] != "2024-05-01" {
		t.Errorf("exported removed = %v", f.Removed)
	}

	file := filepath.Join(t.TempDir(), "acme.yaml")
	mustExecute(t, "export", "ACME", file, "--db", path)
	saved, err := holidayfile.Load(file)
	if err != nil {
		t.Fatalf("load exported file: %v", err)
	}
	if saved.Name != "ACME" {
		t.Errorf("saved name = %q", saved.Name)
	}

	tomlFile := filepath.Join(t.TempDir(), "acme.toml")
	mustExecute(t, "export", "ACME", tomlFile, "--db", path)
	data, err := os.ReadFile(tomlFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[[holidays]]") {
		t.Errorf("acme.toml is not TOML:\n%s", data)
	}

	out = mustExecute(t, "export", "ACME", "--format", "toml", "--db", path)
	if _, err := holidayfile.Decode([]byte(out), holidayfile.FormatTOML); err != nil {
		t.Errorf("exported TOML does not decode: %v\n%s", err, out)
	}

	if _, err := execute(t, "export", "Nope", "--db", path); !errors.Is(err, calendar.ErrUnknownCalendar) {
		t.Errorf("export unknown error = %v, want ErrUnknownCalendar", err)
	}
}

func TestExport_NoDatabase(t *testing.T) {
	_, err := execute(t, "export", "ACME")
	if err == nil || !strings.Contains(err.Error(), "no calendar database") {
		t.Errorf("error = %v, want missing database", err)
	}
}

func TestProductionWithoutAPIKey(t *testing.T) {
	cleanEnv(t)
	t.Setenv("ENV", "production")
	t.Setenv("API_KEY", "")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"roll", "2024-12-25", "--calendar", "TARGET"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("roll in production: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "2024-12-27" {
		t.Errorf("roll = %q, want 2024-12-27", got)
	}
}

func TestVersion(t *testing.T) {
	// An invalid default calendar would fail setup; version skips it.
	t.Setenv("DEFAULT_CALENDAR", "Atlantis")
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "bizcal v"+Version) {
		t.Errorf("version output = %q", out.String())
	}
}
