// Command apitest runs a smoke test suite against a running bizcal API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080
//	go run ./cmd/apitest -url http://localhost:8080 -key $API_KEY
//
// With -key the suite also creates, edits and deletes a scratch calendar.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status          string `json:"status"`
	DefaultCalendar string `json:"default_calendar"`
}

// EasterResponse is the response for /easter/{year}
type EasterResponse struct {
	Year         int    `json:"year"`
	EasterSunday string `json:"easter_sunday"`
	EasterMonday string `json:"easter_monday"`
}

// CalendarsResponse is the response for /calendars
type CalendarsResponse struct {
	Count     int `json:"count"`
	Calendars []struct {
		Name   string `json:"name"`
		Source string `json:"source"`
	} `json:"calendars"`
}

// DayResponse is the response for /calendars/{name}/days/{date}
type DayResponse struct {
	Calendar        string `json:"calendar"`
	Date            string `json:"date"`
	BusinessDay     bool   `json:"business_day"`
	HolidayName     string `json:"holiday_name,omitempty"`
	NextBusinessDay string `json:"next_business_day"`
}

// ResultResponse covers /roll and /advance
type ResultResponse struct {
	Result       string `json:"result"`
	BusinessDays int    `json:"business_days"`
}

// ScheduleResponse is the response for /schedule
type ScheduleResponse struct {
	Dates []string `json:"dates"`
}

// HolidaysResponse is the response for /holidays
type HolidaysResponse struct {
	Count int `json:"count"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("bizcal API Test Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Println()

	// Run test groups
	tr.testHealth()
	tr.testEaster()
	tr.testCalendars()
	tr.testDays()
	tr.testRolling()
	tr.testSchedule()
	tr.testEdgeCases()
	if tr.apiKey != "" {
		tr.testCustomCalendar()
	}

	// Print summary
	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.getAs("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (default calendar %s)", health.DefaultCalendar))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testEaster() {
	tr.printSection("Easter")

	testCases := []struct {
		year   int
		sunday string
	}{
		{1900, "1900-04-15"},
		{2000, "2000-04-23"},
		{2024, "2024-03-31"},
		{2025, "2025-04-20"},
		{2150, "2150-04-12"},
	}

	for _, tc := range testCases {
		var data EasterResponse
		if err := tr.getAs(fmt.Sprintf("/api/v1/easter/%d", tc.year), &data); err != nil {
			tr.recordError(fmt.Sprint(tc.year), err.Error())
			continue
		}
		if data.EasterSunday == tc.sunday {
			tr.recordSuccess(fmt.Sprintf("%d: Easter Sunday %s, Monday %s", tc.year, data.EasterSunday, data.EasterMonday))
		} else {
			tr.recordError(fmt.Sprint(tc.year), fmt.Sprintf("Expected %s, got %s", tc.sunday, data.EasterSunday))
		}
	}
}

func (tr *TestRunner) testCalendars() {
	tr.printSection("Calendars")

	var data CalendarsResponse
	if err := tr.getAs("/api/v1/calendars", &data); err != nil {
		tr.recordError("List calendars", err.Error())
		return
	}

	found := make(map[string]bool)
	for _, c := range data.Calendars {
		found[c.Name] = true
		if tr.verbose {
			fmt.Printf("    %s (%s)\n", c.Name, c.Source)
		}
	}
	for _, name := range []string{"TARGET", "London", "Frankfurt", "Zurich", "NewYork", "WeekendsOnly", "Null"} {
		if found[name] {
			tr.recordSuccess(fmt.Sprintf("Built-in calendar %s listed", name))
		} else {
			tr.recordError("List calendars", fmt.Sprintf("%s missing", name))
		}
	}
}

func (tr *TestRunner) testDays() {
	tr.printSection("Business Days")

	testCases := []struct {
		calendar    string
		date        string
		businessDay bool
		description string
	}{
		{"TARGET", "2024-12-25", false, "Christmas"},
		{"TARGET", "2024-03-29", false, "Good Friday"},
		{"TARGET", "2024-05-01", false, "Labour Day"},
		{"TARGET", "2024-12-24", true, "Christmas Eve"},
		{"London", "2024-05-27", false, "Spring bank holiday"},
		{"London", "2022-09-19", false, "State funeral"},
		{"Frankfurt", "2024-12-31", false, "New Year's Eve"},
		{"Zurich", "2024-08-01", false, "National Day"},
		{"NewYork", "2024-11-28", false, "Thanksgiving"},
		{"NewYork", "2024-07-05", true, "Day after Independence Day"},
		{"TARGET+London", "2024-08-26", false, "Joined summer bank holiday"},
		{"Null", "2024-12-28", true, "Null calendar Saturday"},
	}

	for _, tc := range testCases {
		var data DayResponse
		path := fmt.Sprintf("/api/v1/calendars/%s/days/%s", tc.calendar, tc.date)
		if err := tr.getAs(path, &data); err != nil {
			tr.recordError(tc.calendar+" "+tc.date, err.Error())
			continue
		}

		if data.BusinessDay == tc.businessDay {
			tr.recordSuccess(fmt.Sprintf("%s %s: business_day=%v (%s)",
				tc.calendar, tc.date, data.BusinessDay, tc.description))
		} else {
			tr.recordError(tc.calendar+" "+tc.date, fmt.Sprintf("Expected business_day=%v", tc.businessDay))
		}
	}
}

func (tr *TestRunner) testRolling() {
	tr.printSection("Roll and Advance")

	testCases := []struct {
		path string
		want string
	}{
		{"/api/v1/calendars/TARGET/roll?date=2024-12-25", "2024-12-27"},
		{"/api/v1/calendars/TARGET/roll?date=2024-12-25&convention=Preceding", "2024-12-24"},
		{"/api/v1/calendars/TARGET/roll?date=2024-03-30&convention=ModifiedFollowing", "2024-03-28"},
		{"/api/v1/calendars/TARGET/roll?date=2024-06-29&convention=MonthEndReference&origin=2024-01-31", "2024-06-28"},
		{"/api/v1/calendars/TARGET/advance?date=2024-12-24&period=1D", "2024-12-27"},
		{"/api/v1/calendars/TARGET/advance?date=2024-01-31&period=1M&convention=ModifiedFollowing", "2024-02-29"},
		{"/api/v1/calendars/London/advance?date=2024-12-20&n=3&unit=Days", "2024-12-27"},
	}

	for _, tc := range testCases {
		var data ResultResponse
		if err := tr.getAs(tc.path, &data); err != nil {
			tr.recordError(tc.path, err.Error())
			continue
		}
		if data.Result == tc.want {
			tr.recordSuccess(fmt.Sprintf("%s -> %s", tc.path, data.Result))
		} else {
			tr.recordError(tc.path, fmt.Sprintf("Expected %s, got %s", tc.want, data.Result))
		}
	}
}

func (tr *TestRunner) testSchedule() {
	tr.printSection("Schedules and Holiday Lists")

	var sched ScheduleResponse
	path := "/api/v1/calendars/TARGET/schedule?start=2024-01-31&end=2024-12-31&period=1M&convention=MonthEndReference"
	if err := tr.getAs(path, &sched); err != nil {
		tr.recordError("Schedule", err.Error())
	} else if len(sched.Dates) == 12 && sched.Dates[1] == "2024-02-29" {
		tr.recordSuccess(fmt.Sprintf("Monthly schedule returned %d dates", len(sched.Dates)))
		if tr.verbose {
			fmt.Printf("    %s\n", strings.Join(sched.Dates, " "))
		}
	} else {
		tr.recordError("Schedule", fmt.Sprintf("Unexpected dates %v", sched.Dates))
	}

	var holidays HolidaysResponse
	if err := tr.getAs("/api/v1/calendars/TARGET/holidays?from=2024-01-01&to=2024-12-31", &holidays); err != nil {
		tr.recordError("Holidays", err.Error())
	} else if holidays.Count == 6 {
		tr.recordSuccess("TARGET 2024 has 6 weekday holidays")
	} else {
		tr.recordError("Holidays", fmt.Sprintf("Expected 6 holidays, got %d", holidays.Count))
	}

	// Range limit
	resp, _ := tr.getRaw("/api/v1/calendars/TARGET/holidays?from=1900-01-01&to=2199-12-31")
	tr.expectStatus("Holiday range limit", resp, http.StatusBadRequest)
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		name   string
		path   string
		status int
	}{
		{"Invalid date format", "/api/v1/calendars/TARGET/days/invalid", http.StatusBadRequest},
		{"Impossible date", "/api/v1/calendars/TARGET/days/2023-02-29", http.StatusBadRequest},
		{"Date out of range", "/api/v1/calendars/TARGET/days/2200-01-01", http.StatusBadRequest},
		{"Unknown calendar", "/api/v1/calendars/Atlantis/days/2024-01-02", http.StatusNotFound},
		{"Unknown convention", "/api/v1/calendars/TARGET/roll?date=2024-01-02&convention=Sideways", http.StatusBadRequest},
		{"Missing period", "/api/v1/calendars/TARGET/advance?date=2024-01-02", http.StatusBadRequest},
		{"Easter out of range", "/api/v1/easter/1850", http.StatusBadRequest},
	}

	for _, tc := range testCases {
		resp, _ := tr.getRaw(tc.path)
		tr.expectStatus(tc.name, resp, tc.status)
	}
}

func (tr *TestRunner) testCustomCalendar() {
	tr.printSection("Custom Calendar Lifecycle")

	resp, _ := tr.do(http.MethodPost, "/api/v1/calendars", map[string]string{"name": "nokey"}, "")
	tr.expectStatus("Write without key", resp, http.StatusUnauthorized)

	// A unique name keeps repeated runs from colliding
	name := "apitest-" + uuid.NewString()[:8]
	base := "/api/v1/calendars/" + name

	resp, err := tr.do(http.MethodPost, "/api/v1/calendars", map[string]any{
		"name":        name,
		"base":        "TARGET",
		"description": "Created by apitest",
		"holidays": []map[string]string{
			{"date": "2024-12-24", "name": "Christmas Eve"},
		},
	}, tr.apiKey)
	if !tr.expectStatus("Create "+name, resp, http.StatusCreated) {
		return
	}
	// Clean up even when a later step fails
	defer func() {
		resp, _ := tr.do(http.MethodDelete, base, nil, tr.apiKey)
		tr.expectStatus("Delete "+name, resp, http.StatusOK)
	}()

	var day DayResponse
	if err = tr.getAs(base+"/days/2024-12-24", &day); err != nil {
		tr.recordError("Added holiday", err.Error())
	} else if !day.BusinessDay && day.HolidayName == "Christmas Eve" {
		tr.recordSuccess("Added holiday is observed")
	} else {
		tr.recordError("Added holiday", fmt.Sprintf("Unexpected day %+v", day))
	}

	resp, _ = tr.do(http.MethodPost, base+"/holidays", map[string]string{
		"date": "2024-05-01", "kind": "remove",
	}, tr.apiKey)
	tr.expectStatus("Remove base holiday", resp, http.StatusCreated)

	if err = tr.getAs(base+"/days/2024-05-01", &day); err != nil {
		tr.recordError("Removed holiday", err.Error())
	} else if day.BusinessDay {
		tr.recordSuccess("Removed holiday is a business day")
	} else {
		tr.recordError("Removed holiday", "2024-05-01 is still a holiday")
	}

	resp, _ = tr.do(http.MethodDelete, base+"/holidays/2024-05-01", nil, tr.apiKey)
	tr.expectStatus("Delete override", resp, http.StatusOK)
}

// =============================================================================
// Helper Methods
// =============================================================================

func (tr *TestRunner) getAs(path string, target interface{}) error {
	resp, err := tr.get(path)
	if err != nil {
		return err
	}
	return tr.parseDataAs(resp, target)
}

func (tr *TestRunner) get(path string) (*APIResponse, error) {
	resp, err := tr.getRaw(path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	if !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Message
		}
		return nil, fmt.Errorf("API error: %s", errMsg)
	}

	return &apiResp, nil
}

func (tr *TestRunner) getRaw(path string) (*http.Response, error) {
	url := tr.baseURL + path
	return tr.client.Get(url)
}

func (tr *TestRunner) do(method, path string, body any, apiKey string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return tr.client.Do(req)
}

func (tr *TestRunner) parseDataAs(resp *APIResponse, target interface{}) error {
	// Re-marshal and unmarshal to convert map to struct
	dataBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return json.Unmarshal(dataBytes, target)
}

// expectStatus records whether resp has the wanted status and closes it.
func (tr *TestRunner) expectStatus(name string, resp *http.Response, want int) bool {
	if resp == nil {
		tr.recordError(name, "no response")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		tr.recordError(name, fmt.Sprintf("Expected HTTP %d, got %d", want, resp.StatusCode))
		return false
	}
	tr.recordSuccess(fmt.Sprintf("%s (HTTP %d)", name, want))
	return true
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
	}

	if tr.errorCount == 0 {
		fmt.Println("All tests passed! ✓")
	} else {
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
	}
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", "", "API key; enables the custom calendar tests")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *verbose)
	runner.Run()

	// Exit with error code if tests failed
	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
