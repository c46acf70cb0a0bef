package availability

import "strings"

// DaySummary is one row of the weekly hours table shown on a service page.
type DaySummary struct {
	Day       Weekday     `json:"day"`
	Label     string      `json:"label"`
	Available bool        `json:"available"`
	Hours     string      `json:"hours"`
	TimeSlots []TimeRange `json:"timeSlots"`
}

// Summaries returns Monday-first rows. Availability follows the slot list,
// not the advisory flag.
func Summaries(s Schedule) []DaySummary {
	out := make([]DaySummary, 0, len(Weekdays))
	for _, day := range Weekdays {
		d := s.Day(day)
		row := DaySummary{
			Day:       day,
			Label:     day.Label(),
			Available: d.Bookable(),
			Hours:     "Closed",
			TimeSlots: d.TimeSlots,
		}
		if d.Bookable() {
			parts := make([]string, 0, len(d.TimeSlots))
			for _, r := range d.TimeSlots {
				parts = append(parts, r.String())
			}
			row.Hours = strings.Join(parts, ", ")
		}
		out = append(out, row)
	}
	return out
}
