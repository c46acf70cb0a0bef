package booking

import (
	"fmt"
	"strings"
	"sync"

	"github.com/slotwise/marketplace/internal/availability"
)

// Step is the position in the two-step booking flow.
type Step int

const (
	StepDate Step = 1
	StepTime Step = 2
)

func (s Step) String() string {
	if s == StepTime {
		return "time"
	}
	return "date"
}

// SlotStatus describes the slot list of the selected date.
type SlotStatus string

const (
	// SlotsIdle means no date has been selected yet.
	SlotsIdle SlotStatus = "idle"
	// SlotsLoading is entered the moment the date changes.
	SlotsLoading SlotStatus = "loading"
	SlotsReady   SlotStatus = "ready"
	// SlotsDegraded means the fetch failed and the list is empty; offer a retry.
	SlotsDegraded SlotStatus = "degraded"
)

// SlotResult is the outcome of a per-date slot fetch.
type SlotResult struct {
	Slots    []TimeSlot
	Degraded bool
}

// FlowState is a point-in-time copy of a flow.
type FlowState struct {
	ServiceID    string                `json:"service_id"`
	Step         Step                  `json:"step"`
	Window       Window                `json:"window"`
	SelectedDate string                `json:"selected_date,omitempty"`
	SelectedSlot string                `json:"selected_slot,omitempty"`
	SlotStatus   SlotStatus            `json:"slot_status"`
	Slots        []TimeSlot            `json:"slots"`
	Schedule     availability.Schedule `json:"-"`
}

// Flow holds one booking attempt. All methods are safe for concurrent use;
// remote calls happen outside the lock.
type Flow struct {
	mu         sync.Mutex
	serviceID  string
	window     Window
	schedule   availability.Schedule
	overrides  *DayOverrides
	step       Step
	date       string
	slot       string
	slots      []TimeSlot
	slotStatus SlotStatus
	submitting bool
}

func NewFlow(serviceID string, w Window, schedule availability.Schedule, overrides *DayOverrides) *Flow {
	if schedule == nil {
		schedule = availability.NewSchedule()
	}
	return &Flow{
		serviceID:  serviceID,
		window:     w,
		schedule:   schedule,
		overrides:  overrides,
		step:       StepDate,
		slotStatus: SlotsIdle,
	}
}

func (f *Flow) ServiceID() string { return f.serviceID }

func (f *Flow) Window() Window { return f.window }

func (f *Flow) Schedule() availability.Schedule { return f.schedule }

// Overrides returns the per-date table captured when the flow opened.
func (f *Flow) Overrides() *DayOverrides { return f.overrides }

func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	var slots []TimeSlot
	if f.slotStatus == SlotsReady || f.slotStatus == SlotsDegraded {
		slots = append([]TimeSlot{}, f.slots...)
	}
	return FlowState{
		ServiceID:    f.serviceID,
		Step:         f.step,
		Window:       f.window,
		SelectedDate: f.date,
		SelectedSlot: f.slot,
		SlotStatus:   f.slotStatus,
		Slots:        slots,
		Schedule:     f.schedule,
	}
}

func (f *Flow) SelectedDate() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date
}

// IsSelectable reports whether date may be picked in this flow.
func (f *Flow) IsSelectable(date string) bool {
	return IsDateSelectable(date, f.window, f.schedule, f.overrides)
}

// SelectDate records a new date. The slot selection is cleared and the slot
// list goes back to loading even when the same date is picked again.
func (f *Flow) SelectDate(date string) error {
	date = strings.TrimSpace(date)
	if date == "" {
		return newValidationError(CodeDateRequired, "Please select a date.")
	}
	if !f.IsSelectable(date) {
		if !f.window.Contains(date) {
			return newValidationError(CodeDateOutOfRange, f.rangeMessage())
		}
		return newValidationError(CodeDateUnavailable, "This date has no availability. Please choose another date.")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.date = date
	f.slot = ""
	f.slots = nil
	f.slotStatus = SlotsLoading
	return nil
}

// Continue moves from date selection to time selection.
func (f *Flow) Continue() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.date == "" {
		return newValidationError(CodeDateRequired, "Please select a date.")
	}
	f.step = StepTime
	return nil
}

// Back returns to date selection, keeping the date and dropping the slot.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepDate
	f.slot = ""
}

// ApplySlots installs a fetch result issued for forDate. Results for a date
// that is no longer selected are discarded and false is returned.
func (f *Flow) ApplySlots(forDate string, res SlotResult) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if forDate == "" || forDate != f.date {
		return false
	}
	f.slots = append([]TimeSlot{}, res.Slots...)
	if res.Degraded {
		f.slotStatus = SlotsDegraded
	} else {
		f.slotStatus = SlotsReady
	}
	return true
}

// SelectSlot picks a time from the loaded list of the selected date.
func (f *Flow) SelectSlot(slot string) error {
	slot = strings.TrimSpace(slot)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step != StepTime {
		return newValidationError(CodeWrongStep, "Please select a date and continue before choosing a time.")
	}
	if slot == "" {
		return newValidationError(CodeSlotRequired, "Please select a time slot.")
	}
	if f.slotStatus != SlotsReady {
		return newValidationError(CodeSlotUnavailable, "Time slots are not loaded yet.")
	}
	for _, s := range f.slots {
		if s.Time == slot && s.Available {
			f.slot = slot
			return nil
		}
	}
	return newValidationError(CodeSlotUnavailable, "This time slot is not available. Please choose another time.")
}

// PrepareSubmission runs the final checks and builds the request. overrides
// is the calendar fetched for this submission, or nil when none was fetched.
func (f *Flow) PrepareSubmission(notes string, overrides *DayOverrides) (BookingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.date == "" {
		return BookingRequest{}, newValidationError(CodeDateRequired, "Please select a date.")
	}
	if f.slot == "" {
		return BookingRequest{}, newValidationError(CodeSlotRequired, "Please select a time slot.")
	}
	if !f.window.Contains(f.date) {
		return BookingRequest{}, newValidationError(CodeDateOutOfRange, f.rangeMessage())
	}
	if overrides != nil && !overrides.HasAvailability(f.date) {
		return BookingRequest{}, newValidationError(CodeDateUnavailable, "The selected date is no longer available. Please choose another date.")
	}
	return BookingRequest{
		ServiceID: f.serviceID,
		Date:      f.date,
		TimeSlot:  f.slot,
		Notes:     strings.TrimSpace(notes),
	}, nil
}

// beginSubmit marks a submission in flight; a second concurrent call fails.
func (f *Flow) beginSubmit() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return newValidationError(CodeSubmissionInProgress, "Your booking is already being submitted.")
	}
	f.submitting = true
	return nil
}

func (f *Flow) endSubmit() {
	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()
}

// Reset clears every selection and returns to the first step.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.step = StepDate
	f.date = ""
	f.slot = ""
	f.slots = nil
	f.slotStatus = SlotsIdle
}

// resetIfSelected resets the flow only when date and slot are still the
// submitted selection.
func (f *Flow) resetIfSelected(date, slot string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.date != date || f.slot != slot {
		return false
	}
	f.step = StepDate
	f.date = ""
	f.slot = ""
	f.slots = nil
	f.slotStatus = SlotsIdle
	return true
}

func (f *Flow) rangeMessage() string {
	return fmt.Sprintf("Please select a date between %s and %s.", f.window.MinDate, f.window.MaxDate)
}
