package booking

import (
	"context"
	"sync"
	"time"

	"github.com/slotwise/marketplace/internal/availability"
	"github.com/slotwise/marketplace/pkg/logging"
)

// 2026-10-19 is a Monday.
var testNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

const (
	testToday   = "2026-10-19"
	testMaxDate = "2026-11-18"
)

// weekdaysOnly is open Monday to Friday.
var weekdaysOnly = availability.Normalize([]byte(`{
	"monday": ["09:00-17:00"],
	"tuesday": ["09:00-17:00"],
	"wednesday": ["09:00-17:00"],
	"thursday": ["09:00-17:00"],
	"friday": ["09:00-17:00"],
	"saturday": {"available": false}
}`))

type fakeMarket struct {
	mu sync.Mutex

	calendar      *ServiceCalendar
	calendarErr   error
	calendarCalls int
	// refreshCalendar, when set, is served on every call after the first.
	refreshCalendar    *ServiceCalendar
	refreshCalendarErr error

	schedule    availability.Schedule
	scheduleErr error

	slots    map[string][]TimeSlot
	slotsErr error
	onSlots  func(date string)

	result    *AppointmentResult
	createErr error
	onCreate  func(req BookingRequest)
	requests  []BookingRequest
}

func (f *fakeMarket) GetServiceCalendar(_ context.Context, _ string) (*ServiceCalendar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calendarCalls++
	if f.calendarCalls > 1 && (f.refreshCalendar != nil || f.refreshCalendarErr != nil) {
		return f.refreshCalendar, f.refreshCalendarErr
	}
	if f.calendarErr != nil {
		return nil, f.calendarErr
	}
	if f.calendar == nil {
		return &ServiceCalendar{}, nil
	}
	return f.calendar, nil
}

func (f *fakeMarket) GetServiceSchedule(_ context.Context, _ string) (availability.Schedule, error) {
	if f.scheduleErr != nil {
		return nil, f.scheduleErr
	}
	return f.schedule, nil
}

func (f *fakeMarket) GetServiceAvailability(_ context.Context, _ string, date string) ([]TimeSlot, error) {
	if f.onSlots != nil {
		f.onSlots(date)
	}
	if f.slotsErr != nil {
		return nil, f.slotsErr
	}
	return f.slots[date], nil
}

func (f *fakeMarket) CreateAppointment(_ context.Context, req BookingRequest) (*AppointmentResult, error) {
	if f.onCreate != nil {
		f.onCreate(req)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.result == nil {
		return &AppointmentResult{Success: true}, nil
	}
	return f.result, nil
}

func (f *fakeMarket) createCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestService(m *fakeMarket) *Service {
	return NewService(m, logging.Discard(), WithClock(func() time.Time { return testNow }))
}

func testWindow() Window {
	return Window{MinDate: testToday, MaxDate: testMaxDate}
}
