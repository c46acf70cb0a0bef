package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slotwise/marketplace/internal/booking"
	"github.com/slotwise/marketplace/pkg/logging"
)

// BookingHandler exposes the two-step booking flow as session resources.
type BookingHandler struct {
	service  *booking.Service
	sessions *booking.SessionStore
	logger   *logging.Logger
}

func NewBookingHandler(service *booking.Service, sessions *booking.SessionStore, logger *logging.Logger) *BookingHandler {
	if service == nil {
		panic("handlers: booking service required")
	}
	if sessions == nil {
		sessions = booking.NewSessionStore(0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{service: service, sessions: sessions, logger: logger}
}

// FlowResponse is the JSON view of a booking session.
type FlowResponse struct {
	SessionID string            `json:"session_id"`
	Flow      booking.FlowState `json:"flow"`
}

type selectDateRequest struct {
	Date string `json:"date"`
}

type selectSlotRequest struct {
	Time string `json:"time"`
}

type submitRequest struct {
	Notes string `json:"notes"`
}

// Open handles POST /v1/services/{serviceID}/bookings
func (h *BookingHandler) Open(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	flow, err := h.service.Open(r.Context(), serviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	id := h.sessions.Create(flow)
	writeJSON(w, http.StatusCreated, FlowResponse{SessionID: id, Flow: flow.State()})
}

// Get handles GET /v1/bookings/{sessionID}
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, FlowResponse{SessionID: id, Flow: flow.State()})
}

// Cancel handles DELETE /v1/bookings/{sessionID}
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	flow.Reset()
	h.sessions.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

// Calendar handles GET /v1/bookings/{sessionID}/calendar?month=YYYY-MM
func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	_, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	month := r.URL.Query().Get("month")
	cells, err := h.service.Calendar(flow, month)
	if err != nil {
		jsonError(w, "month must be formatted YYYY-MM", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"window": flow.Window(),
		"cells":  cells,
	})
}

// SelectDate handles PUT /v1/bookings/{sessionID}/date
func (h *BookingHandler) SelectDate(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req selectDateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	state, err := h.service.SelectDate(r.Context(), flow, req.Date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FlowResponse{SessionID: id, Flow: state})
}

// Slots handles GET /v1/bookings/{sessionID}/slots. A degraded or loading
// list is refetched, which doubles as the retry action.
func (h *BookingHandler) Slots(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	state := flow.State()
	if state.SelectedDate != "" && state.SlotStatus != booking.SlotsReady {
		state = h.service.LoadSlots(r.Context(), flow)
	}
	writeJSON(w, http.StatusOK, FlowResponse{SessionID: id, Flow: state})
}

// Continue handles POST /v1/bookings/{sessionID}/continue
func (h *BookingHandler) Continue(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	if err := flow.Continue(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FlowResponse{SessionID: id, Flow: flow.State()})
}

// Back handles POST /v1/bookings/{sessionID}/back
func (h *BookingHandler) Back(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	flow.Back()
	writeJSON(w, http.StatusOK, FlowResponse{SessionID: id, Flow: flow.State()})
}

// SelectSlot handles PUT /v1/bookings/{sessionID}/slot
func (h *BookingHandler) SelectSlot(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req selectSlotRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := flow.SelectSlot(req.Time); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FlowResponse{SessionID: id, Flow: flow.State()})
}

// Submit handles POST /v1/bookings/{sessionID}/submit. A successful booking
// closes the session.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, flow, ok := h.flow(w, r)
	if !ok {
		return
	}
	var req submitRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	result, err := h.service.Submit(r.Context(), flow, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	h.sessions.Delete(id)
	writeJSON(w, http.StatusCreated, result)
}

func (h *BookingHandler) flow(w http.ResponseWriter, r *http.Request) (string, *booking.Flow, bool) {
	id := chi.URLParam(r, "sessionID")
	flow, err := h.sessions.Get(id)
	if err != nil {
		writeError(w, err)
		return "", nil, false
	}
	return id, flow, true
}
