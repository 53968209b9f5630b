package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/config"
	"github.com/zapponejosh/bizcal/internal/database"
	"github.com/zapponejosh/bizcal/internal/holidayfile"
	"github.com/zapponejosh/bizcal/internal/logger"
)

// maxHolidayRange bounds GET .../holidays to roughly ten years.
const maxHolidayRange = 3660

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db       *database.DB
	registry *calendar.Registry
	cfg      *config.Config
	logger   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, registry *calendar.Registry, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		db:       db,
		registry: registry,
		cfg:      cfg,
		logger:   logger,
	}
}

// =============================================================================
// Response Types
// =============================================================================

type easterResponse struct {
	Year         int           `json:"year"`
	EasterSunday calendar.Date `json:"easter_sunday"`
	EasterMonday calendar.Date `json:"easter_monday"`
	// DayOfYear is the table value and is omitted past 2099.
	DayOfYear int `json:"easter_monday_day_of_year,omitempty"`
}

type calendarResponse struct {
	Name        string                     `json:"name"`
	Source      string                     `json:"source"`
	Base        string                     `json:"base,omitempty"`
	Description *string                    `json:"description,omitempty"`
	Overrides   []database.CalendarHoliday `json:"overrides,omitempty"`
}

type dayResponse struct {
	Calendar               string        `json:"calendar"`
	Date                   calendar.Date `json:"date"`
	Weekday                string        `json:"weekday"`
	BusinessDay            bool          `json:"business_day"`
	Holiday                bool          `json:"holiday"`
	HolidayName            string        `json:"holiday_name,omitempty"`
	LastBusinessDayOfMonth bool          `json:"last_business_day_of_month"`
	NextBusinessDay        calendar.Date `json:"next_business_day"`
	PreviousBusinessDay    calendar.Date `json:"previous_business_day"`
}

type rollResponse struct {
	Calendar   string        `json:"calendar"`
	Date       calendar.Date `json:"date"`
	Convention string        `json:"convention"`
	Origin     calendar.Date `json:"origin,omitempty"`
	Result     calendar.Date `json:"result"`
}

type advanceResponse struct {
	Calendar     string        `json:"calendar"`
	Date         calendar.Date `json:"date"`
	Period       string        `json:"period"`
	Convention   string        `json:"convention"`
	Result       calendar.Date `json:"result"`
	BusinessDays int           `json:"business_days"`
}

type scheduleResponse struct {
	Calendar   string          `json:"calendar"`
	Start      calendar.Date   `json:"start"`
	End        calendar.Date   `json:"end"`
	Period     string          `json:"period"`
	Convention string          `json:"convention"`
	Dates      []calendar.Date `json:"dates"`
}

type holidayEntry struct {
	Date    calendar.Date `json:"date"`
	Weekday string        `json:"weekday"`
	Name    string        `json:"name,omitempty"`
}

type holidaysResponse struct {
	Calendar string         `json:"calendar"`
	From     calendar.Date  `json:"from"`
	To       calendar.Date  `json:"to"`
	Count    int            `json:"count"`
	Holidays []holidayEntry `json:"holidays"`
}

// =============================================================================
// Request Types
// =============================================================================

type holidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind,omitempty"`
}

type createCalendarRequest struct {
	Name        string           `json:"name"`
	Base        string           `json:"base"`
	Description string           `json:"description,omitempty"`
	Holidays    []holidayRequest `json:"holidays,omitempty"`
}

// =============================================================================
// Health and Reference Data
// =============================================================================

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status":           "healthy",
		"default_calendar": h.cfg.DefaultCalendar,
	})
}

// GetEaster handles GET /api/v1/easter/{year}
func (h *Handlers) GetEaster(w http.ResponseWriter, r *http.Request) {
	yearStr := chi.URLParam(r, "year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", yearStr))
		return
	}

	sunday, err := calendar.EasterSunday(year)
	if err != nil {
		h.writeCalendarError(w, r, err)
		return
	}

	resp := easterResponse{
		Year:         year,
		EasterSunday: sunday,
		EasterMonday: sunday.Next(),
	}
	if doy, err := calendar.EasterMonday(year); err == nil {
		resp.DayOfYear = doy
	}

	WriteSuccess(w, resp)
}

// =============================================================================
// Calendar Queries
// =============================================================================

// ListCalendars handles GET /api/v1/calendars
func (h *Handlers) ListCalendars(w http.ResponseWriter, r *http.Request) {
	infos, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list calendars", slog.Any("error", err))
		WriteInternalError(w, "Failed to list calendars")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"calendars":   infos,
		"count":       len(infos),
		"conventions": conventionNames(),
	})
}

// GetCalendar handles GET /api/v1/calendars/{name}
func (h *Handlers) GetCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cal, ok := h.lookup(w, r)
	if !ok {
		return
	}

	resp := calendarResponse{Name: cal.Name(), Source: calendar.SourceFile}
	if h.registry.IsBuiltin(cal.Name()) {
		resp.Source = calendar.SourceBuiltin
	}
	if custom, isCustom := cal.(*calendar.Custom); isCustom {
		resp.Base = custom.Base().Name()
	}
	if _, isJoint := cal.(*calendar.Joint); isJoint {
		resp.Source = "joint"
	}

	stored, err := h.db.GetCalendarWithHolidays(ctx, cal.Name())
	switch {
	case err == nil:
		resp.Source = calendar.SourceStored
		resp.Description = stored.Calendar.Description
		resp.Overrides = stored.Holidays
	case !database.IsNotFound(err):
		h.logger.Error("failed to load stored calendar",
			slog.String("calendar", cal.Name()),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to retrieve calendar")
		return
	}

	WriteSuccess(w, resp)
}

// GetDay handles GET /api/v1/calendars/{name}/days/{date}
func (h *Handlers) GetDay(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.lookup(w, r)
	if !ok {
		return
	}

	dateStr := chi.URLParam(r, "date")
	d, err := calendar.ParseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	resp := dayResponse{
		Calendar:               cal.Name(),
		Date:                   d,
		Weekday:                d.Weekday().String(),
		BusinessDay:            calendar.IsBusinessDay(cal, d),
		Holiday:                cal.IsHoliday(d),
		HolidayName:            holidayName(cal, d),
		LastBusinessDayOfMonth: calendar.IsLastBusinessDayOfMonth(cal, d),
	}

	// Neighbours may fall outside the supported range; leave them null.
	if next, err := calendar.Advance(cal, d, 1, calendar.Days, calendar.Following); err == nil {
		resp.NextBusinessDay = next
	} else if !errors.Is(err, calendar.ErrDateOutOfRange) {
		h.writeCalendarError(w, r, err)
		return
	}
	if prev, err := calendar.Advance(cal, d, -1, calendar.Days, calendar.Following); err == nil {
		resp.PreviousBusinessDay = prev
	} else if !errors.Is(err, calendar.ErrDateOutOfRange) {
		h.writeCalendarError(w, r, err)
		return
	}

	WriteSuccess(w, resp)
}

// Roll handles GET /api/v1/calendars/{name}/roll?date=&convention=&origin=
func (h *Handlers) Roll(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.lookup(w, r)
	if !ok {
		return
	}

	d, err := dateParam(r, "date")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	conv, err := conventionParam(r, calendar.Following)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	origin := calendar.NullDate
	if r.URL.Query().Get("origin") != "" {
		if origin, err = dateParam(r, "origin"); err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	result, err := calendar.Roll(cal, d, conv, origin)
	if err != nil {
		h.writeCalendarError(w, r, err)
		return
	}

	WriteSuccess(w, rollResponse{
		Calendar:   cal.Name(),
		Date:       d,
		Convention: conv.String(),
		Origin:     origin,
		Result:     result,
	})
}

// Advance handles GET /api/v1/calendars/{name}/advance
//
// The move is either ?period=3M or ?n=3&unit=M; unit defaults to days.
func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.lookup(w, r)
	if !ok {
		return
	}

	d, err := dateParam(r, "date")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	conv, err := conventionParam(r, calendar.Following)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	period, err := periodParam(r)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	result, err := calendar.AdvancePeriod(cal, d, period, conv)
	if err != nil {
		h.writeCalendarError(w, r, err)
		return
	}

	WriteSuccess(w, advanceResponse{
		Calendar:     cal.Name(),
		Date:         d,
		Period:       period.String(),
		Convention:   conv.String(),
		Result:       result,
		BusinessDays: calendar.BusinessDaysBetween(cal, d, result),
	})
}

// Schedule handles GET /api/v1/calendars/{name}/schedule?start=&end=&period=&convention=
func (h *Handlers) Schedule(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.lookup(w, r)
	if !ok {
		return
	}

	start, err := dateParam(r, "start")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	end, err := dateParam(r, "end")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	conv, err := conventionParam(r, calendar.ModifiedFollowing)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	periodStr := r.URL.Query().Get("period")
	if periodStr == "" {
		WriteBadRequest(w, "period parameter is required")
		return
	}
	period, err := calendar.ParsePeriod(periodStr)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	dates, err := calendar.Schedule(cal, start, end, period, conv)
	if err != nil {
		h.writeCalendarError(w, r, err)
		return
	}

	WriteSuccess(w, scheduleResponse{
		Calendar:   cal.Name(),
		Start:      start,
		End:        end,
		Period:     period.String(),
		Convention: conv.String(),
		Dates:      dates,
	})
}

// ListHolidays handles GET /api/v1/calendars/{name}/holidays?from=&to=&weekends=
func (h *Handlers) ListHolidays(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.lookup(w, r)
	if !ok {
		return
	}

	from, err := dateParam(r, "from")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	to, err := dateParam(r, "to")
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if to < from {
		WriteBadRequest(w, "from must be before or equal to to")
		return
	}
	if int(to-from) > maxHolidayRange {
		WriteBadRequest(w, fmt.Sprintf("Date range cannot exceed %d days", maxHolidayRange))
		return
	}

	var includeWeekends bool
	if s := r.URL.Query().Get("weekends"); s != "" {
		if includeWeekends, err = strconv.ParseBool(s); err != nil {
			WriteBadRequest(w, fmt.Sprintf("Invalid weekends flag: %s", s))
			return
		}
	}

	dates := calendar.HolidayList(cal, from, to, includeWeekends)
	entries := make([]holidayEntry, 0, len(dates))
	for _, d := range dates {
		entries = append(entries, holidayEntry{
			Date:    d,
			Weekday: d.Weekday().String(),
			Name:    holidayName(cal, d),
		})
	}

	WriteSuccess(w, holidaysResponse{
		Calendar: cal.Name(),
		From:     from,
		To:       to,
		Count:    len(entries),
		Holidays: entries,
	})
}

// =============================================================================
// Stored Calendar Management
// =============================================================================

// CreateCalendar handles POST /api/v1/calendars
func (h *Handlers) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createCalendarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Base == "" {
		req.Base = holidayfile.DefaultBase
	}

	if err := calendar.ValidateName(req.Name); err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	if _, err := h.registry.Lookup(ctx, req.Name); err == nil {
		WriteConflict(w, fmt.Sprintf("Calendar %s already exists", req.Name))
		return
	} else if !errors.Is(err, calendar.ErrUnknownCalendar) {
		h.writeCalendarError(w, r, err)
		return
	}
	if _, err := h.registry.Lookup(ctx, req.Base); err != nil {
		if errors.Is(err, calendar.ErrUnknownCalendar) {
			WriteBadRequest(w, fmt.Sprintf("Unknown base calendar: %s", req.Base))
			return
		}
		h.writeCalendarError(w, r, err)
		return
	}

	holidays := make([]database.CalendarHoliday, 0, len(req.Holidays))
	for _, hr := range req.Holidays {
		holiday, err := holidayFromRequest(hr)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
		holidays = append(holidays, holiday)
	}

	created := database.CalendarWithHolidays{
		Calendar: database.CustomCalendar{Name: req.Name, Base: req.Base},
	}
	if req.Description != "" {
		created.Calendar.Description = &req.Description
	}

	err := h.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := tx.CreateCalendar(ctx, &created.Calendar); err != nil {
			return err
		}
		for i := range holidays {
			holidays[i].CalendarID = created.Calendar.ID
			if err := tx.AddHoliday(ctx, &holidays[i]); err != nil {
				return fmt.Errorf("holiday %s: %w", holidays[i].Date, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			WriteConflict(w, fmt.Sprintf("Duplicate calendar or holiday date: %v", err))
			return
		}
		h.logger.Error("failed to create calendar",
			slog.String("calendar", req.Name),
			slog.String("request_id", logger.RequestID(ctx)),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to create calendar")
		return
	}
	created.Holidays = holidays

	h.logger.Info("calendar created",
		slog.String("calendar", req.Name),
		slog.String("base", req.Base),
		slog.Int("overrides", len(holidays)))

	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: created})
}

// DeleteCalendar handles DELETE /api/v1/calendars/{name}
func (h *Handlers) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	if h.registry.IsBuiltin(name) {
		WriteConflict(w, fmt.Sprintf("Calendar %s is built in and cannot be deleted", name))
		return
	}

	stored, err := h.db.ListCalendars(ctx)
	if err != nil {
		h.logger.Error("failed to list calendars", slog.Any("error", err))
		WriteInternalError(w, "Failed to delete calendar")
		return
	}
	for _, c := range stored {
		if strings.EqualFold(c.Base, name) {
			WriteConflict(w, fmt.Sprintf("Calendar %s is the base of %s", name, c.Name))
			return
		}
	}

	if err := h.db.DeleteCalendar(ctx, name); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Stored calendar not found: %s", name))
			return
		}
		h.logger.Error("failed to delete calendar",
			slog.String("calendar", name),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to delete calendar")
		return
	}

	h.logger.Info("calendar deleted", slog.String("calendar", name))
	WriteSuccess(w, map[string]string{"deleted": name})
}

// AddHoliday handles POST /api/v1/calendars/{name}/holidays
func (h *Handlers) AddHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stored, ok := h.storedCalendar(w, r)
	if !ok {
		return
	}

	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}
	holiday, err := holidayFromRequest(req)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}
	holiday.CalendarID = stored.ID

	if err := h.db.AddHoliday(ctx, &holiday); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			WriteConflict(w, fmt.Sprintf("Calendar %s already has an override on %s", stored.Name, holiday.Date))
			return
		}
		h.logger.Error("failed to add holiday",
			slog.String("calendar", stored.Name),
			slog.String("date", holiday.Date),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to add holiday")
		return
	}

	WriteJSON(w, http.StatusCreated, Response{Success: true, Data: holiday})
}

// DeleteHoliday handles DELETE /api/v1/calendars/{name}/holidays/{date}
func (h *Handlers) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stored, ok := h.storedCalendar(w, r)
	if !ok {
		return
	}

	dateStr := chi.URLParam(r, "date")
	d, err := calendar.ParseDate(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	if err := h.db.DeleteHoliday(ctx, stored.ID, d.String()); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("No override on %s", d))
			return
		}
		h.logger.Error("failed to delete holiday",
			slog.String("calendar", stored.Name),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to delete holiday")
		return
	}

	WriteSuccess(w, map[string]string{"calendar": stored.Name, "deleted": d.String()})
}

// =============================================================================
// Helpers
// =============================================================================

// lookup resolves the {name} URL parameter, writing the error response
// itself when it fails.
func (h *Handlers) lookup(w http.ResponseWriter, r *http.Request) (calendar.Calendar, bool) {
	cal, err := h.registry.Lookup(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeCalendarError(w, r, err)
		return nil, false
	}
	return cal, true
}

func (h *Handlers) storedCalendar(w http.ResponseWriter, r *http.Request) (*database.CustomCalendar, bool) {
	name := chi.URLParam(r, "name")
	stored, err := h.db.GetCalendarByName(r.Context(), name)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Stored calendar not found: %s", name))
			return nil, false
		}
		h.logger.Error("failed to load calendar",
			slog.String("calendar", name),
			slog.Any("error", err))
		WriteInternalError(w, "Failed to load calendar")
		return nil, false
	}
	return stored, true
}

// writeCalendarError maps engine errors to HTTP statuses.
func (h *Handlers) writeCalendarError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, calendar.ErrUnknownCalendar):
		WriteNotFound(w, err.Error())
	case errors.Is(err, calendar.ErrInvalidDate),
		errors.Is(err, calendar.ErrUnknownConvention),
		errors.Is(err, calendar.ErrInvalidPeriod),
		errors.Is(err, calendar.ErrDateOutOfRange),
		errors.Is(err, calendar.ErrYearOutOfRange):
		WriteBadRequest(w, err.Error())
	case errors.Is(err, calendar.ErrCalendarInconsistency):
		logger.Warn(r.Context(), "calendar inconsistency",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
		WriteUnprocessable(w, err.Error())
	default:
		logger.Error(r.Context(), "calendar request failed", err,
			slog.String("path", r.URL.Path))
		WriteInternalError(w, "Failed to process request")
	}
}

func dateParam(r *http.Request, key string) (calendar.Date, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return calendar.NullDate, fmt.Errorf("%s parameter is required", key)
	}
	d, err := calendar.ParseDate(s)
	if err != nil {
		return calendar.NullDate, fmt.Errorf("invalid %s: %s. Use YYYY-MM-DD", key, s)
	}
	return d, nil
}

func conventionParam(r *http.Request, def calendar.RollingConvention) (calendar.RollingConvention, error) {
	s := r.URL.Query().Get("convention")
	if s == "" {
		return def, nil
	}
	return calendar.ParseRollingConvention(s)
}

func periodParam(r *http.Request) (calendar.Period, error) {
	q := r.URL.Query()
	if s := q.Get("period"); s != "" {
		return calendar.ParsePeriod(s)
	}

	nStr := q.Get("n")
	if nStr == "" {
		return calendar.Period{}, errors.New("period or n parameter is required")
	}
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return calendar.Period{}, fmt.Errorf("invalid n: %s", nStr)
	}
	unit := calendar.Days
	if s := q.Get("unit"); s != "" {
		if unit, err = calendar.ParseTimeUnit(s); err != nil {
			return calendar.Period{}, err
		}
	}
	return calendar.NewPeriod(n, unit), nil
}

func holidayFromRequest(req holidayRequest) (database.CalendarHoliday, error) {
	d, err := calendar.ParseDate(req.Date)
	if err != nil {
		return database.CalendarHoliday{}, fmt.Errorf("invalid holiday date: %q. Use YYYY-MM-DD", req.Date)
	}
	kind := database.HolidayKind(strings.ToLower(req.Kind))
	if kind == "" {
		kind = database.HolidayKindAdd
	}
	if !kind.IsValid() {
		return database.CalendarHoliday{}, fmt.Errorf("invalid holiday kind: %q", req.Kind)
	}

	holiday := database.CalendarHoliday{Date: d.String(), Kind: kind}
	if req.Name != "" {
		holiday.Name = &req.Name
	}
	return holiday, nil
}

// holidayName reports the name of an added holiday on a custom calendar,
// looking through joins.
func holidayName(cal calendar.Calendar, d calendar.Date) string {
	if custom, ok := cal.(*calendar.Custom); ok {
		if name := custom.HolidayName(d); name != "" {
			return name
		}
		return holidayName(custom.Base(), d)
	}
	if joint, ok := cal.(*calendar.Joint); ok {
		for _, m := range joint.Members() {
			if name := holidayName(m, d); name != "" {
				return name
			}
		}
	}
	return ""
}

func conventionNames() []string {
	conventions := calendar.Conventions()
	names := make([]string, len(conventions))
	for i, c := range conventions {
		names[i] = c.String()
	}
	return names
}
