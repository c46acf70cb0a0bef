// Package marketplace contains the remote marketplace API client, its wire
// types and the adapter the booking flow talks through.
package marketplace

import (
	"encoding/json"
	"time"
)

// ServiceSummary is the short form of a service listed under a provider.
type ServiceSummary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category,omitempty"`
	DurationMinutes int     `json:"duration_minutes,omitempty"`
	Price           float64 `json:"price,omitempty"`
}

// Provider is a business offering bookable services.
type Provider struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Category    string           `json:"category,omitempty"`
	Description string           `json:"description,omitempty"`
	Location    string           `json:"location,omitempty"`
	Rating      float64          `json:"rating,omitempty"`
	ReviewCount int              `json:"review_count,omitempty"`
	Services    []ServiceSummary `json:"services,omitempty"`
}

// ProviderFilter narrows a provider listing.
type ProviderFilter struct {
	Category string
	Query    string
}

// Service is the full detail of a bookable service. Availability is kept raw;
// its shape varies across providers and is normalized by the availability
// package.
type Service struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Category        string          `json:"category,omitempty"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
	Price           float64         `json:"price,omitempty"`
	ProviderID      string          `json:"provider_id,omitempty"`
	ProviderName    string          `json:"provider_name,omitempty"`
	Rating          float64         `json:"rating,omitempty"`
	ReviewCount     int             `json:"review_count,omitempty"`
	Availability    json.RawMessage `json:"availability,omitempty"`
}

// Review is a user rating of a service.
type Review struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"service_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ReviewInput is the body of a new review. Rating is 1 to 5.
type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// Favorite is a service bookmarked by the current user.
type Favorite struct {
	ID           string    `json:"id"`
	ServiceID    string    `json:"service_id"`
	ServiceName  string    `json:"service_name,omitempty"`
	ProviderName string    `json:"provider_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CalendarDay is one entry of the calendar days array.
type CalendarDay struct {
	Date            string `json:"date"`
	HasAvailability bool   `json:"has_availability"`
}

// CalendarResponse is the body of GET /api/services/{id}/calendar. Days is a
// pointer so an omitted array can be told apart from an empty one.
type CalendarResponse struct {
	StartDate string         `json:"start_date"`
	EndDate   string         `json:"end_date"`
	Days      *[]CalendarDay `json:"days"`
}

// TimeSlot is one entry of the availability time_slots array.
type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// AvailabilityResponse is the body of GET /api/services/{id}/availability.
type AvailabilityResponse struct {
	TimeSlots *[]TimeSlot `json:"time_slots"`
}

// AppointmentRequest is the body of POST /api/appointments.
type AppointmentRequest struct {
	ServiceID string `json:"service_id"`
	Date      string `json:"date"`
	TimeSlot  string `json:"time_slot"`
	Notes     string `json:"notes,omitempty"`
}

// AppointmentResponse is the verdict on an appointment request.
type AppointmentResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
