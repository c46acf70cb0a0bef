// Package handlers serves the marketplace catalog and booking flow over HTTP.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/slotwise/marketplace/internal/booking"
	"github.com/slotwise/marketplace/internal/marketplace"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeError maps domain and upstream errors to responses.
func writeError(w http.ResponseWriter, err error) {
	var (
		ve     *booking.ValidationError
		se     *booking.SubmissionError
		apiErr *marketplace.APIError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": ve.Message, "code": ve.Code})
	case errors.As(err, &se):
		// A rejection carries no cause and is the marketplace's verdict.
		status := http.StatusConflict
		if se.Err != nil {
			status = http.StatusBadGateway
		}
		jsonError(w, se.Message, status)
	case errors.Is(err, booking.ErrSessionNotFound):
		jsonError(w, "booking session not found", http.StatusNotFound)
	case errors.Is(err, booking.ErrCalendarUnavailable):
		jsonError(w, "Unable to load the booking calendar. Please try again.", http.StatusBadGateway)
	case errors.Is(err, marketplace.ErrInvalidRating):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "Rating must be between 1 and 5.", "code": "invalid_rating"})
	case errors.As(err, &apiErr):
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.Status)
			}
			jsonError(w, msg, apiErr.Status)
			return
		}
		jsonError(w, "marketplace unavailable", http.StatusBadGateway)
	default:
		jsonError(w, "marketplace unavailable", http.StatusBadGateway)
	}
}
