package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotwise/marketplace/internal/observability/metrics"
	"github.com/slotwise/marketplace/pkg/logging"
)

func TestService_OpenComputesWindow(t *testing.T) {
	m := &fakeMarket{
		calendar: &ServiceCalendar{StartDate: testToday, EndDate: "2026-11-05", DaysPresent: true, Days: []CalendarDay{
			{Date: "2026-10-20", HasAvailability: true},
		}},
		schedule: weekdaysOnly,
	}
	flow, err := newTestService(m).Open(context.Background(), "svc-1")
	require.NoError(t, err)

	assert.Equal(t, Window{MinDate: testToday, MaxDate: "2026-11-05"}, flow.Window())
	assert.True(t, flow.IsSelectable("2026-10-20"))
	assert.False(t, flow.IsSelectable("2026-10-21"), "server table is authoritative")
	assert.Equal(t, StepDate, flow.State().Step)
}

func TestService_OpenFailsWithoutCalendar(t *testing.T) {
	m := &fakeMarket{calendarErr: errors.New("connection refused"), schedule: weekdaysOnly}

	flow, err := newTestService(m).Open(context.Background(), "svc-1")
	assert.Nil(t, flow)
	assert.ErrorIs(t, err, ErrCalendarUnavailable)
}

func TestService_OpenToleratesScheduleFailure(t *testing.T) {
	m := &fakeMarket{scheduleErr: errors.New("boom")}

	flow, err := newTestService(m).Open(context.Background(), "svc-1")
	require.NoError(t, err)
	assert.False(t, flow.IsSelectable("2026-10-20"), "closed week fallback")
	assert.Len(t, flow.Schedule(), 7)
}

func TestService_FetchSlotsDegrades(t *testing.T) {
	m := &fakeMarket{slotsErr: errors.New("malformed availability response")}

	res := newTestService(m).FetchSlotsForDate(context.Background(), "svc-1", "2026-10-20")
	assert.True(t, res.Degraded)
	assert.NotNil(t, res.Slots)
	assert.Empty(t, res.Slots)

	m = &fakeMarket{slots: map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}}}
	res = newTestService(m).FetchSlotsForDate(context.Background(), "svc-1", "2026-10-20")
	assert.False(t, res.Degraded)
	assert.Equal(t, []TimeSlot{{Time: "09:00", Available: true}}, res.Slots)
}

func TestService_SelectDateLoadsSlots(t *testing.T) {
	m := &fakeMarket{
		schedule: weekdaysOnly,
		slots:    map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}},
	}
	svc := newTestService(m)
	flow, err := svc.Open(context.Background(), "svc-1")
	require.NoError(t, err)

	state, err := svc.SelectDate(context.Background(), flow, "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, SlotsReady, state.SlotStatus)
	assert.Len(t, state.Slots, 1)
}

func TestService_LoadSlotsDropsStaleResponse(t *testing.T) {
	reg := prometheus.NewRegistry()
	bm := metrics.NewBookingMetrics(reg)

	m := &fakeMarket{
		schedule: weekdaysOnly,
		slots: map[string][]TimeSlot{
			"2026-10-20": {{Time: "09:00", Available: true}},
			"2026-10-21": {{Time: "15:00", Available: true}},
		},
	}
	svc := NewService(m, logging.Discard(), WithClock(func() time.Time { return testNow }), WithMetrics(bm))
	flow, err := svc.Open(context.Background(), "svc-1")
	require.NoError(t, err)

	// The user switches dates while the first fetch is in flight.
	m.onSlots = func(date string) {
		if date == "2026-10-20" {
			require.NoError(t, flow.SelectDate("2026-10-21"))
		}
	}
	state, err := svc.SelectDate(context.Background(), flow, "2026-10-20")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-21", state.SelectedDate)
	assert.Equal(t, SlotsLoading, state.SlotStatus, "old response must not populate the new date")

	m.onSlots = nil
	state = svc.LoadSlots(context.Background(), flow)
	assert.Equal(t, SlotsReady, state.SlotStatus)
	assert.Equal(t, "15:00", state.Slots[0].Time)
	assert.Equal(t, int64(1), metrics.TakeSnapshot(reg).StaleResponses)
}

func openAtSlot(t *testing.T, svc *Service, date, slot string) *Flow {
	t.Helper()
	flow, err := svc.Open(context.Background(), "svc-1")
	require.NoError(t, err)
	_, err = svc.SelectDate(context.Background(), flow, date)
	require.NoError(t, err)
	require.NoError(t, flow.Continue())
	require.NoError(t, flow.SelectSlot(slot))
	return flow
}

func TestService_SubmitSuccessResetsFlow(t *testing.T) {
	m := &fakeMarket{
		schedule: weekdaysOnly,
		slots:    map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}},
	}
	svc := newTestService(m)
	flow := openAtSlot(t, svc, "2026-10-20", "09:00")

	res, err := svc.Submit(context.Background(), flow, "allergic to latex")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, m.requests, 1)
	assert.Equal(t, BookingRequest{ServiceID: "svc-1", Date: "2026-10-20", TimeSlot: "09:00", Notes: "allergic to latex"}, m.requests[0])
	assert.Equal(t, StepDate, flow.State().Step)
	assert.Empty(t, flow.State().SelectedDate)
}

func TestService_SubmitRejectsDatesOutsideWindow(t *testing.T) {
	for _, date := range []string{"2026-10-18", "2026-11-19"} {
		t.Run(date, func(t *testing.T) {
			m := &fakeMarket{schedule: weekdaysOnly}
			svc := newTestService(m)
			flow, err := svc.Open(context.Background(), "svc-1")
			require.NoError(t, err)

			// Simulates a date that slipped past the picker.
			flow.date = date
			flow.slot = "09:00"
			flow.step = StepTime

			_, err = svc.Submit(context.Background(), flow, "")
			ve, ok := IsValidation(err)
			require.True(t, ok)
			assert.Equal(t, CodeDateOutOfRange, ve.Code)
			assert.Zero(t, m.createCalls(), "creator must not be called")
		})
	}
}

func TestService_SubmitRechecksFreshCalendar(t *testing.T) {
	m := &fakeMarket{
		schedule: weekdaysOnly,
		slots:    map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}},
		refreshCalendar: &ServiceCalendar{DaysPresent: true, Days: []CalendarDay{
			{Date: "2026-10-20", HasAvailability: false},
		}},
	}
	svc := newTestService(m)
	flow := openAtSlot(t, svc, "2026-10-20", "09:00")

	_, err := svc.Submit(context.Background(), flow, "")
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, CodeDateUnavailable, ve.Code)
	assert.Zero(t, m.createCalls())
	assert.Equal(t, "09:00", flow.State().SelectedSlot, "flow stays put")
}

func TestService_SubmitFallsBackWhenRefreshFails(t *testing.T) {
	m := &fakeMarket{
		schedule:           weekdaysOnly,
		slots:              map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}},
		refreshCalendarErr: errors.New("timeout"),
	}
	svc := newTestService(m)
	flow := openAtSlot(t, svc, "2026-10-20", "09:00")

	res, err := svc.Submit(context.Background(), flow, "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, m.createCalls())
}

func TestService_SubmitKeepsOpenCalendarWhenRefreshHasNoDays(t *testing.T) {
	m := &fakeMarket{
		schedule: weekdaysOnly,
		calendar: &ServiceCalendar{DaysPresent: true, Days: []CalendarDay{
			{Date: "2026-10-20", HasAvailability: true},
		}},
		slots:           map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}},
		refreshCalendar: &ServiceCalendar{StartDate: testToday, EndDate: testMaxDate},
	}
	svc := newTestService(m)
	flow := openAtSlot(t, svc, "2026-10-20", "09:00")
	// The day closed after the flow opened.
	flow.overrides = NewDayOverrides([]CalendarDay{{Date: "2026-10-20", HasAvailability: false}})

	_, err := svc.Submit(context.Background(), flow, "")
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, CodeDateUnavailable, ve.Code)
	assert.Zero(t, m.createCalls())
}

func TestService_SubmitKeepsSelectionChangedInFlight(t *testing.T) {
	m := &fakeMarket{
		schedule: weekdaysOnly,
		slots:    map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}},
	}
	svc := newTestService(m)
	flow := openAtSlot(t, svc, "2026-10-20", "09:00")
	m.onCreate = func(BookingRequest) {
		require.NoError(t, flow.SelectDate("2026-10-21"))
	}

	res, err := svc.Submit(context.Background(), flow, "")
	require.NoError(t, err)
	assert.True(t, res.Success)

	state := flow.State()
	assert.Equal(t, "2026-10-21", state.SelectedDate)
	assert.Equal(t, SlotsLoading, state.SlotStatus)
}

func TestService_SubmitFailureKeepsFlowOpen(t *testing.T) {
	tests := []struct {
		name    string
		market  *fakeMarket
		wantMsg string
	}{
		{
			name:    "transport error",
			market:  &fakeMarket{createErr: errors.New("502 bad gateway")},
			wantMsg: defaultSubmitFailure,
		},
		{
			name:    "rejected by server",
			market:  &fakeMarket{result: &AppointmentResult{Success: false, Error: "Slot already taken"}},
			wantMsg: "Slot already taken",
		},
		{
			name:    "rejected without reason",
			market:  &fakeMarket{result: &AppointmentResult{Success: false}},
			wantMsg: defaultSubmitFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.market
			m.schedule = weekdaysOnly
			m.slots = map[string][]TimeSlot{"2026-10-20": {{Time: "09:00", Available: true}}}
			svc := newTestService(m)
			flow := openAtSlot(t, svc, "2026-10-20", "09:00")

			_, err := svc.Submit(context.Background(), flow, "")
			var se *SubmissionError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantMsg, se.Message)

			state := flow.State()
			assert.Equal(t, StepTime, state.Step)
			assert.Equal(t, "2026-10-20", state.SelectedDate)
			assert.Equal(t, "09:00", state.SelectedSlot)
		})
	}
}

func TestService_SubmitInProgress(t *testing.T) {
	flow := NewFlow("svc-1", testWindow(), weekdaysOnly, nil)
	require.NoError(t, flow.beginSubmit())

	_, err := newTestService(&fakeMarket{}).Submit(context.Background(), flow, "")
	ve, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, CodeSubmissionInProgress, ve.Code)
}

func TestService_CalendarGrid(t *testing.T) {
	svc := newTestService(&fakeMarket{schedule: weekdaysOnly})
	flow, err := svc.Open(context.Background(), "svc-1")
	require.NoError(t, err)

	cells, err := svc.Calendar(flow, "")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-28", cells[0].Date)

	cells, err = svc.Calendar(flow, "2026-11")
	require.NoError(t, err)
	assert.Equal(t, "2026-10-26", cells[0].Date)

	_, err = svc.Calendar(flow, "11/2026")
	assert.Error(t, err)
}
