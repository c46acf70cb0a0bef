package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/slotwise/marketplace/internal/availability"
)

// CalendarDay is the server's verdict for one date.
type CalendarDay struct {
	Date            string `json:"date"`
	HasAvailability bool   `json:"has_availability"`
}

// ServiceCalendar is the server-side booking calendar of a service.
// DaysPresent distinguishes an omitted days array from an empty one.
type ServiceCalendar struct {
	StartDate   string
	EndDate     string
	Days        []CalendarDay
	DaysPresent bool
}

// Overrides returns the authoritative per-date table, or nil when the server
// sent no days array.
func (c *ServiceCalendar) Overrides() *DayOverrides {
	if c == nil || !c.DaysPresent {
		return nil
	}
	return NewDayOverrides(c.Days)
}

// DayOverrides is a per-date availability table that replaces weekday
// inference. Dates missing from the table are unavailable.
type DayOverrides struct {
	days map[string]bool
}

func NewDayOverrides(days []CalendarDay) *DayOverrides {
	o := &DayOverrides{days: make(map[string]bool, len(days))}
	for _, d := range days {
		o.days[strings.TrimSpace(d.Date)] = d.HasAvailability
	}
	return o
}

// HasAvailability looks the date up; absent dates default to false.
func (o *DayOverrides) HasAvailability(date string) bool {
	if o == nil {
		return false
	}
	return o.days[date]
}

func (o *DayOverrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.days)
}

// IsDateAvailable reports whether the date's weekday has at least one slot.
func IsDateAvailable(date string, schedule availability.Schedule) bool {
	return schedule.IsDateAvailable(date)
}

// resolvesAvailable applies the overrides when present and falls back to the
// weekly schedule otherwise.
func resolvesAvailable(date string, schedule availability.Schedule, overrides *DayOverrides) bool {
	if overrides != nil {
		return overrides.HasAvailability(date)
	}
	return IsDateAvailable(date, schedule)
}

// IsDateSelectable reports whether a date inside the window resolves to an
// available day.
func IsDateSelectable(date string, w Window, schedule availability.Schedule, overrides *DayOverrides) bool {
	if !w.Contains(date) {
		return false
	}
	return resolvesAvailable(date, schedule, overrides)
}

// Cell is one square of the month grid.
type Cell struct {
	Date       string `json:"date"`
	Day        int    `json:"day"`
	InMonth    bool   `json:"in_month"`
	Available  bool   `json:"available"`
	Selectable bool   `json:"selectable"`
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("booking: invalid month %q: %w", s, err)
	}
	return t.Year(), t.Month(), nil
}

// MonthOf returns the year and month of an ISO date.
func MonthOf(date string) (int, time.Month, bool) {
	t, err := time.Parse(availability.DateLayout, date)
	if err != nil {
		return 0, 0, false
	}
	return t.Year(), t.Month(), true
}

// MonthGrid lays out full Monday-first weeks covering the month. Leading and
// trailing cells belong to neighbouring months and are never selectable.
func MonthGrid(year int, month time.Month, w Window, schedule availability.Schedule, overrides *DayOverrides) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	lead := (int(first.Weekday()) + 6) % 7
	trail := 6 - (int(last.Weekday())+6)%7

	start := first.AddDate(0, 0, -lead)
	total := lead + last.Day() + trail

	cells := make([]Cell, 0, total)
	for i := 0; i < total; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format(availability.DateLayout)
		inMonth := day.Month() == month
		available := resolvesAvailable(date, schedule, overrides)
		cells = append(cells, Cell{
			Date:       date,
			Day:        day.Day(),
			InMonth:    inMonth,
			Available:  available,
			Selectable: inMonth && available && w.Contains(date),
		})
	}
	return cells
}
