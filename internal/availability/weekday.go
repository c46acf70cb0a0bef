// Package availability normalizes provider availability payloads into a
// canonical per-weekday schedule.
package availability

import (
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Weekday is a lowercase English weekday name used as a schedule key.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists every key in display order (Monday first).
var Weekdays = [7]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// ParseWeekday matches a key case-insensitively. Unknown names return false.
func ParseWeekday(name string) (Weekday, bool) {
	key := Weekday(strings.ToLower(strings.TrimSpace(name)))
	for _, day := range Weekdays {
		if day == key {
			return day, true
		}
	}
	return "", false
}

// WeekdayKeyFor returns the key for t's weekday (time.Sunday is 0).
func WeekdayKeyFor(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Sunday:
		return Sunday
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	default:
		return Saturday
	}
}

// WeekdayKeyForDate parses an ISO date and returns its weekday key.
func WeekdayKeyForDate(date string) (Weekday, bool) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", false
	}
	return WeekdayKeyFor(t), true
}

// Label returns the capitalized display name.
func (w Weekday) Label() string {
	if w == "" {
		return ""
	}
	return strings.ToUpper(string(w[:1])) + string(w[1:])
}
