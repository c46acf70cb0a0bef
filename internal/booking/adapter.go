// Package booking plans the booking window for a service and drives the
// two-step date then time selection flow up to appointment submission.
package booking

import (
	"context"

	"github.com/slotwise/marketplace/internal/availability"
)

// TimeSlot is one bookable time on a specific date.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// BookingRequest is the payload handed to the appointment creator.
type BookingRequest struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Notes     string `json:"notes,omitempty"`
}

// AppointmentResult is the creator's verdict on a booking request.
type AppointmentResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CalendarSource returns the server's per-service booking calendar.
type CalendarSource interface {
	GetServiceCalendar(ctx context.Context, serviceID string) (*ServiceCalendar, error)
}

// SlotSource returns the slots offered for a service on one date.
type SlotSource interface {
	GetServiceAvailability(ctx context.Context, serviceID, date string) ([]TimeSlot, error)
}

// AppointmentCreator submits a booking request.
type AppointmentCreator interface {
	CreateAppointment(ctx context.Context, req BookingRequest) (*AppointmentResult, error)
}

// ScheduleSource returns the normalized weekly schedule of a service.
type ScheduleSource interface {
	GetServiceSchedule(ctx context.Context, serviceID string) (availability.Schedule, error)
}

// Collaborators bundles everything the booking service talks to. The
// marketplace adapter implements it against the remote API.
type Collaborators interface {
	CalendarSource
	SlotSource
	AppointmentCreator
	ScheduleSource
}
