package availability

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// TimeRange is a start/end time-of-day pair such as 09:00–17:00.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r TimeRange) String() string {
	return r.Start + " - " + r.End
}

// DaySchedule is the canonical availability of one weekday. TimeSlots is
// authoritative: an empty list means the day cannot be booked whatever
// Available says.
type DaySchedule struct {
	Available bool        `json:"available"`
	TimeSlots []TimeRange `json:"timeSlots"`
}

// Bookable reports whether at least one slot exists.
func (d DaySchedule) Bookable() bool {
	return len(d.TimeSlots) > 0
}

// Schedule maps every weekday key to its canonical availability.
type Schedule map[Weekday]DaySchedule

// NewSchedule returns the all-unavailable default with all seven keys.
func NewSchedule() Schedule {
	s := make(Schedule, len(Weekdays))
	for _, day := range Weekdays {
		s[day] = DaySchedule{Available: false, TimeSlots: []TimeRange{}}
	}
	return s
}

// Day returns the schedule for a weekday; missing keys read as closed.
func (s Schedule) Day(day Weekday) DaySchedule {
	d, ok := s[day]
	if !ok {
		return DaySchedule{TimeSlots: []TimeRange{}}
	}
	if d.TimeSlots == nil {
		d.TimeSlots = []TimeRange{}
	}
	return d
}

// IsBookable reports whether the weekday has at least one slot.
func (s Schedule) IsBookable(day Weekday) bool {
	return s.Day(day).Bookable()
}

// IsDateAvailable resolves an ISO date to its weekday and checks bookability.
// Unparseable dates are never available.
func (s Schedule) IsDateAvailable(date string) bool {
	day, ok := WeekdayKeyForDate(date)
	if !ok {
		return false
	}
	return s.IsBookable(day)
}

// Normalize decodes a raw availability payload keyed by weekday name. Input
// that is absent or not a JSON object yields the all-unavailable default.
func Normalize(raw []byte) Schedule {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return NewSchedule()
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return NewSchedule()
	}
	entries := make(map[string]RawEntry, len(fields))
	for key, value := range fields {
		entries[key] = DecodeEntry(value)
	}
	return Resolve(entries)
}

// Resolve builds a schedule from decoded entries. Entries carrying concrete
// slots are applied first; a bare available:false marker only closes a day
// that ended up with no slots, so source ordering never matters.
func Resolve(entries map[string]RawEntry) Schedule {
	schedule := NewSchedule()

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var flags []Weekday
	for _, key := range keys {
		day, ok := ParseWeekday(key)
		if !ok {
			continue
		}
		entry := entries[key]
		if entry.Flag() {
			flags = append(flags, day)
			continue
		}

		slots := collectSlots(entry)
		if len(slots) == 0 {
			continue
		}
		current := schedule[day]
		current.TimeSlots = append(current.TimeSlots, slots...)
		current.Available = true
		schedule[day] = current
	}

	for _, day := range flags {
		if len(schedule[day].TimeSlots) == 0 {
			schedule[day] = DaySchedule{Available: false, TimeSlots: []TimeRange{}}
		}
	}
	return schedule
}

func collectSlots(entry RawEntry) []TimeRange {
	var out []TimeRange
	for _, p := range entry.Candidates {
		start, end := strings.TrimSpace(p.Start), strings.TrimSpace(p.End)
		if start == "" || end == "" {
			continue
		}
		out = append(out, TimeRange{Start: start, End: end})
	}
	return out
}

// ParseRange splits "HH:MM-HH:MM" on the first '-'. Both sides are trimmed and
// must be non-empty.
func ParseRange(s string) (TimeRange, bool) {
	start, end, found := strings.Cut(s, "-")
	if !found {
		return TimeRange{}, false
	}
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return TimeRange{}, false
	}
	return TimeRange{Start: start, End: end}, true
}
