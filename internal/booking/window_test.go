package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWindow_DefaultsToThirtyDays(t *testing.T) {
	w := NewWindow(testToday, nil, 0)
	assert.Equal(t, Window{MinDate: testToday, MaxDate: testMaxDate}, w)

	w = NewWindow(testToday, &ServiceCalendar{}, DefaultWindowDays)
	assert.Equal(t, testMaxDate, w.MaxDate)
}

func TestNewWindow_ServerEndDate(t *testing.T) {
	tests := []struct {
		name    string
		endDate string
		want    string
	}{
		{"earlier end date wins", "2026-11-01", "2026-11-01"},
		{"later end date is clamped", "2027-01-31", testMaxDate},
		{"garbage end date ignored", "next month", testMaxDate},
		{"unpadded end date ignored", "2026-11-1", testMaxDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindow(testToday, &ServiceCalendar{EndDate: tt.endDate}, DefaultWindowDays)
			assert.Equal(t, testToday, w.MinDate)
			assert.Equal(t, tt.want, w.MaxDate)
		})
	}
}

func TestWindow_ContainsIsInclusive(t *testing.T) {
	w := testWindow()

	assert.True(t, w.Contains(testToday))
	assert.True(t, w.Contains(testMaxDate))
	assert.True(t, w.Contains("2026-11-02"))
	assert.False(t, w.Contains("2026-10-18"))
	assert.False(t, w.Contains("2026-11-19"))
	assert.False(t, w.Contains("2026-10-2"))
	assert.False(t, w.Contains(""))
}

func TestWindow_EndDateInPastIsEmpty(t *testing.T) {
	w := NewWindow(testToday, &ServiceCalendar{EndDate: "2026-10-01"}, DefaultWindowDays)
	assert.True(t, w.Empty())
	assert.False(t, w.Contains(testToday))
}

func TestTodayIn_UsesLocation(t *testing.T) {
	now := time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC)
	pacific := time.FixedZone("PDT", -7*60*60)

	assert.Equal(t, "2026-10-18", TodayIn(now, pacific))
	assert.Equal(t, "2026-10-19", TodayIn(now, nil))
}

func TestAddDays_CrossesMonthAndYear(t *testing.T) {
	got, ok := AddDays("2026-12-20", 30)
	assert.True(t, ok)
	assert.Equal(t, "2027-01-19", got)

	_, ok = AddDays("bogus", 1)
	assert.False(t, ok)
}
