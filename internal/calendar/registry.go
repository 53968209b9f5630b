package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zapponejosh/bizcal/internal/database"
)

// DefaultAlias resolves to the calendar set with Registry.SetDefault.
const DefaultAlias = "default"

// maxBaseDepth bounds chains of stored calendars built on each other.
const maxBaseDepth = 8

// Calendar sources reported by Registry.List.
const (
	SourceBuiltin = "builtin"
	SourceFile    = "file"
	SourceStored  = "stored"
)

// Queryable is the storage the registry reads custom calendars from.
// Both *database.DB and *database.Tx satisfy the lookup methods.
type Queryable interface {
	GetCalendarByName(ctx context.Context, name string) (*database.CustomCalendar, error)
	ListCalendars(ctx context.Context) ([]database.CustomCalendar, error)
	ListHolidays(ctx context.Context, calendarID int64) ([]database.CalendarHoliday, error)
}

// Info describes a calendar known to a Registry.
type Info struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Base   string `json:"base,omitempty"`
}

// Registry resolves calendar names: built-ins, calendars registered at
// startup, stored custom calendars, and "A+B" joins of any of those.
// It is safe for concurrent use.
type Registry struct {
	mu          sync.RWMutex
	calendars   map[string]Calendar // keyed by lower-case name
	sources     map[string]string
	defaultName string
	db          Queryable
}

// NewRegistry returns a registry holding the built-in calendars. db may be
// nil, in which case stored calendars are not available.
func NewRegistry(db Queryable) *Registry {
	r := &Registry{
		calendars: make(map[string]Calendar),
		sources:   make(map[string]string),
		db:        db,
	}
	for _, cal := range Builtins() {
		key := strings.ToLower(cal.Name())
		r.calendars[key] = cal
		r.sources[key] = SourceBuiltin
	}
	return r
}

// IsBuiltin reports whether name is a predefined calendar.
func (r *Registry) IsBuiltin(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[strings.ToLower(name)] == SourceBuiltin
}

// Register adds a calendar, typically one loaded from a holiday file.
// Built-in names cannot be replaced.
func (r *Registry) Register(cal Calendar) error {
	name := cal.Name()
	if err := ValidateName(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(name)
	if r.sources[key] == SourceBuiltin {
		return fmt.Errorf("register %s: cannot replace a built-in calendar", name)
	}
	r.calendars[key] = cal
	r.sources[key] = SourceFile
	return nil
}

// SetDefault makes name the target of DefaultAlias. The name must resolve.
func (r *Registry) SetDefault(ctx context.Context, name string) error {
	if _, err := r.Lookup(ctx, name); err != nil {
		return err
	}
	r.mu.Lock()
	r.defaultName = name
	r.mu.Unlock()
	return nil
}

// Lookup resolves name to a calendar. Unknown names return ErrUnknownCalendar.
func (r *Registry) Lookup(ctx context.Context, name string) (Calendar, error) {
	return r.lookup(ctx, name, 0)
}

func (r *Registry) lookup(ctx context.Context, name string, depth int) (Calendar, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrUnknownCalendar)
	}
	if depth > maxBaseDepth {
		return nil, fmt.Errorf("%w: %s: base chain deeper than %d", ErrUnknownCalendar, name, maxBaseDepth)
	}

	if strings.EqualFold(name, DefaultAlias) {
		r.mu.RLock()
		name = r.defaultName
		r.mu.RUnlock()
		if name == "" {
			return nil, fmt.Errorf("%w: no default calendar set", ErrUnknownCalendar)
		}
	}

	if strings.Contains(name, "+") {
		parts := strings.Split(name, "+")
		members := make([]Calendar, 0, len(parts))
		for _, part := range parts {
			cal, err := r.lookup(ctx, part, depth+1)
			if err != nil {
				return nil, err
			}
			members = append(members, cal)
		}
		return NewJoint(JoinHolidays, members...), nil
	}

	r.mu.RLock()
	cal, ok := r.calendars[strings.ToLower(name)]
	r.mu.RUnlock()
	if ok {
		return cal, nil
	}

	if r.db == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCalendar, name)
	}
	return r.loadStored(ctx, name, depth)
}

// loadStored assembles a stored custom calendar and its base chain.
func (r *Registry) loadStored(ctx context.Context, name string, depth int) (Calendar, error) {
	stored, err := r.db.GetCalendarByName(ctx, name)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCalendar, name)
		}
		return nil, fmt.Errorf("load calendar %s: %w", name, err)
	}

	base, err := r.lookup(ctx, stored.Base, depth+1)
	if err != nil {
		return nil, fmt.Errorf("base of %s: %w", stored.Name, err)
	}

	holidays, err := r.db.ListHolidays(ctx, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("load holidays of %s: %w", stored.Name, err)
	}

	added := make(map[Date]string)
	var removed []Date
	for _, h := range holidays {
		d, err := ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("calendar %s: %w", stored.Name, err)
		}
		if h.Kind == database.HolidayKindRemove {
			removed = append(removed, d)
			continue
		}
		var holidayName string
		if h.Name != nil {
			holidayName = *h.Name
		}
		added[d] = holidayName
	}

	return NewCustom(stored.Name, base, added, removed), nil
}

// List describes every calendar the registry can resolve by name, sorted
// by name. Joins are not listed.
func (r *Registry) List(ctx context.Context) ([]Info, error) {
	r.mu.RLock()
	infos := make([]Info, 0, len(r.calendars))
	for key, cal := range r.calendars {
		info := Info{Name: cal.Name(), Source: r.sources[key]}
		if custom, ok := cal.(*Custom); ok {
			info.Base = custom.Base().Name()
		}
		infos = append(infos, info)
	}
	r.mu.RUnlock()

	if r.db != nil {
		stored, err := r.db.ListCalendars(ctx)
		if err != nil {
			return nil, fmt.Errorf("list stored calendars: %w", err)
		}
		for _, c := range stored {
			infos = append(infos, Info{Name: c.Name, Source: SourceStored, Base: c.Base})
		}
	}

	sort.Slice(infos, func(i, j int) bool {
		return strings.ToLower(infos[i].Name) < strings.ToLower(infos[j].Name)
	})
	return infos, nil
}

// ValidateName checks that name can be used for a new calendar.
func ValidateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("calendar name is required")
	case strings.ContainsAny(name, "+/"):
		return fmt.Errorf("calendar name %q must not contain '+' or '/'", name)
	case strings.EqualFold(name, DefaultAlias):
		return fmt.Errorf("calendar name %q is reserved", name)
	}
	return nil
}
