package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/marketplace/pkg/logging"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", logging.Discard())
}

func TestClient_GetServiceCalendar(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/services/svc-1/calendar", r.URL.Path)
		_, _ = w.Write([]byte(`{"start_date":"2026-10-19","end_date":"2026-11-18","days":[{"date":"2026-10-20","has_availability":true}]}`))
	})

	cal, err := client.GetServiceCalendar(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-18", cal.EndDate)
	require.NotNil(t, cal.Days)
	assert.Equal(t, []CalendarDay{{Date: "2026-10-20", HasAvailability: true}}, *cal.Days)
}

func TestClient_GetServiceCalendar_DaysPresence(t *testing.T) {
	tests := []struct {
		body        string
		wantPresent bool
	}{
		{`{"start_date":"2026-10-19","end_date":"2026-11-18"}`, false},
		{`{"start_date":"2026-10-19","end_date":"2026-11-18","days":null}`, false},
		{`{"start_date":"2026-10-19","end_date":"2026-11-18","days":[]}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			cal, err := client.GetServiceCalendar(context.Background(), "svc-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantPresent, cal.Days != nil)
		})
	}
}

func TestClient_GetServiceAvailability(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/services/svc-1/availability", r.URL.Path)
		assert.Equal(t, "2026-10-20", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"time_slots":[{"time":"09:00","available":true},{"time":"10:00","available":false}]}`))
	})

	slots, err := client.GetServiceAvailability(context.Background(), "svc-1", "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, []TimeSlot{{Time: "09:00", Available: true}, {Time: "10:00", Available: false}}, slots)
}

func TestClient_GetServiceAvailability_Malformed(t *testing.T) {
	for _, body := range []string{`{}`, `{"slots":[]}`, `not json`, ``} {
		t.Run(body, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			_, err := client.GetServiceAvailability(context.Background(), "svc-1", "2026-10-20")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestClient_CreateAppointment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/appointments", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, map[string]any{"service_id": "svc-1", "date": "2026-10-20", "time_slot": "09:00"}, body, "notes omitted when empty")

		_, _ = w.Write([]byte(`{"success":true}`))
	})

	resp, err := client.CreateAppointment(context.Background(), AppointmentRequest{ServiceID: "svc-1", Date: "2026-10-20", TimeSlot: "09:00"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestClient_CreateAppointment_ClientErrorIsAVerdict(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"Slot already taken"}`))
	})

	resp, err := client.CreateAppointment(context.Background(), AppointmentRequest{ServiceID: "svc-1"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Slot already taken", resp.Error)
}

func TestClient_CreateAppointment_ServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failed", http.StatusBadGateway)
	})

	_, err := client.CreateAppointment(context.Background(), AppointmentRequest{ServiceID: "svc-1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "upstream failed", apiErr.Message)
}

func TestClient_ForwardsToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"favorites":[{"id":"fav-1","service_id":"svc-1"}]}`))
	})

	ctx := WithToken(context.Background(), "abc123")
	favs, err := client.ListFavorites(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "svc-1", favs[0].ServiceID)
}

func TestClient_ListProvidersQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/providers", r.URL.Path)
		assert.Equal(t, "spa", r.URL.Query().Get("category"))
		assert.Equal(t, "massage", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"providers":[{"id":"p-1","name":"Calm Spa"}]}`))
	})

	providers, err := client.ListProviders(context.Background(), ProviderFilter{Category: "spa", Query: " massage "})
	require.NoError(t, err)
	require.Len(t, providers, 1)
	assert.Equal(t, "Calm Spa", providers[0].Name)
}

func TestClient_GetServiceKeepsRawAvailability(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"svc-1","name":"Deep Tissue","availability":{"monday":["09:00-17:00"]}}`))
	})

	svc, err := client.GetService(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"monday":["09:00-17:00"]}`, string(svc.Availability))
}

func TestClient_RemoveFavorite(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/favorites/svc-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.RemoveFavorite(context.Background(), "svc-1"))
}

func TestTokenFromHeader(t *testing.T) {
	assert.Equal(t, "abc", TokenFromHeader("Bearer abc"))
	assert.Equal(t, "abc", TokenFromHeader("bearer  abc"))
	assert.Equal(t, "abc", TokenFromHeader("abc"))
	assert.Equal(t, "", TokenFromHeader(""))
	assert.Equal(t, "", TokenFromContext(WithToken(context.Background(), "  ")))
}
