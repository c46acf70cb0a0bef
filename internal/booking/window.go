package booking

import (
	"strings"
	"time"

	"github.com/slotwise/marketplace/internal/availability"
)

// DefaultWindowDays is how far ahead a booking may be made.
const DefaultWindowDays = 30

// Window is the inclusive range of dates a booking may target.
type Window struct {
	MinDate string `json:"min_date"`
	MaxDate string `json:"max_date"`
}

// TodayIn returns the calendar date of now in loc as YYYY-MM-DD.
func TodayIn(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(availability.DateLayout)
}

// ValidDate reports whether s is a zero-padded YYYY-MM-DD date. Only such
// strings compare correctly as text.
func ValidDate(s string) bool {
	t, err := time.Parse(availability.DateLayout, s)
	if err != nil {
		return false
	}
	return t.Format(availability.DateLayout) == s
}

// AddDays shifts an ISO date by n calendar days.
func AddDays(date string, n int) (string, bool) {
	t, err := time.Parse(availability.DateLayout, date)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, 0, n).Format(availability.DateLayout), true
}

// NewWindow computes the window for a flow opened on today. The server's
// end_date wins when present but never reaches past today+maxDays.
func NewWindow(today string, cal *ServiceCalendar, maxDays int) Window {
	if maxDays <= 0 {
		maxDays = DefaultWindowDays
	}
	limit, ok := AddDays(today, maxDays)
	if !ok {
		return Window{MinDate: today, MaxDate: today}
	}
	w := Window{MinDate: today, MaxDate: limit}
	if cal == nil {
		return w
	}
	end := strings.TrimSpace(cal.EndDate)
	if ValidDate(end) && end < limit {
		w.MaxDate = end
	}
	return w
}

// Contains reports whether date falls inside the window, bounds included.
func (w Window) Contains(date string) bool {
	if !ValidDate(date) {
		return false
	}
	return w.MinDate <= date && date <= w.MaxDate
}

// Empty reports whether no date can ever be inside the window.
func (w Window) Empty() bool {
	return w.MaxDate < w.MinDate
}
