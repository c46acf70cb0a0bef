package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/slotwise/marketplace/internal/availability"
	"github.com/slotwise/marketplace/internal/observability/metrics"
	"github.com/slotwise/marketplace/pkg/logging"
)

var bookingTracer = otel.Tracer("marketplace.internal.booking")

const defaultSubmitFailure = "We couldn't submit your booking. Please try again."

// Service opens booking flows and talks to the marketplace on their behalf.
type Service struct {
	calendars    CalendarSource
	slots        SlotSource
	appointments AppointmentCreator
	schedules    ScheduleSource
	logger       *logging.Logger
	metrics      *metrics.BookingMetrics
	now          func() time.Time
	loc          *time.Location
	windowDays   int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock injects the clock used to compute today.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLocation sets the time zone in which today is computed.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithWindowDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs a booking service.
func NewService(c Collaborators, logger *logging.Logger, opts ...Option) *Service {
	if c == nil {
		panic("booking: collaborators required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		calendars:    c,
		slots:        c,
		appointments: c,
		schedules:    c,
		logger:       logger,
		now:          time.Now,
		loc:          time.UTC,
		windowDays:   DefaultWindowDays,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current date in the configured time zone.
func (s *Service) Today() string {
	return TodayIn(s.now(), s.loc)
}

// Open fetches the calendar and weekly schedule concurrently and starts a new
// flow. A calendar failure aborts; a schedule failure falls back to the
// all-closed schedule.
func (s *Service) Open(ctx context.Context, serviceID string) (*Flow, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.open")
	defer span.End()
	span.SetAttributes(attribute.String("marketplace.service_id", serviceID))

	var (
		cal      *ServiceCalendar
		schedule availability.Schedule
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.calendars.GetServiceCalendar(gctx, serviceID)
		if err != nil {
			return err
		}
		cal = c
		return nil
	})
	g.Go(func() error {
		sched, err := s.schedules.GetServiceSchedule(gctx, serviceID)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				s.logger.Warn("service schedule unavailable, using closed week", "service_id", serviceID, "error", err)
			}
			return nil
		}
		schedule = sched
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		s.metrics.ObserveCalendarFetch("error")
		s.logger.Error("service calendar fetch failed", "service_id", serviceID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrCalendarUnavailable, err)
	}
	s.metrics.ObserveCalendarFetch("ok")

	window := NewWindow(s.Today(), cal, s.windowDays)
	flow := NewFlow(serviceID, window, schedule, cal.Overrides())
	s.logger.Info("booking flow opened", "service_id", serviceID, "min_date", window.MinDate, "max_date", window.MaxDate, "overrides", cal.Overrides().Len())
	return flow, nil
}

// FetchSlotsForDate never fails: errors and malformed responses degrade to an
// empty list the caller can offer to retry.
func (s *Service) FetchSlotsForDate(ctx context.Context, serviceID, date string) SlotResult {
	ctx, span := bookingTracer.Start(ctx, "booking.fetch_slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("marketplace.service_id", serviceID),
		attribute.String("marketplace.date", date),
	)

	slots, err := s.slots.GetServiceAvailability(ctx, serviceID, date)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSlotFetch(true)
		s.logger.Warn("slot fetch failed", "service_id", serviceID, "date", date, "error", err)
		return SlotResult{Slots: []TimeSlot{}, Degraded: true}
	}
	if slots == nil {
		slots = []TimeSlot{}
	}
	s.metrics.ObserveSlotFetch(false)
	return SlotResult{Slots: slots}
}

// SelectDate picks a date and loads its slots.
func (s *Service) SelectDate(ctx context.Context, flow *Flow, date string) (FlowState, error) {
	if err := flow.SelectDate(date); err != nil {
		return flow.State(), err
	}
	return s.LoadSlots(ctx, flow), nil
}

// LoadSlots fetches slots for the currently selected date. A result that
// arrives after the date changed is dropped.
func (s *Service) LoadSlots(ctx context.Context, flow *Flow) FlowState {
	date := flow.SelectedDate()
	if date == "" {
		return flow.State()
	}
	res := s.FetchSlotsForDate(ctx, flow.ServiceID(), date)
	if !flow.ApplySlots(date, res) {
		s.metrics.ObserveStaleSlots()
		s.logger.Debug("discarded stale slot response", "service_id", flow.ServiceID(), "date", date)
	}
	return flow.State()
}

// Submit re-validates the flow against a freshly fetched calendar and creates
// the appointment. On success the flow is reset unless the user picked a
// different date or slot while the request was in flight; on failure it stays
// as is.
func (s *Service) Submit(ctx context.Context, flow *Flow, notes string) (*AppointmentResult, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.submit")
	defer span.End()
	span.SetAttributes(attribute.String("marketplace.service_id", flow.ServiceID()))

	if err := flow.beginSubmit(); err != nil {
		return nil, err
	}
	defer flow.endSubmit()

	overrides := flow.Overrides()
	cal, err := s.calendars.GetServiceCalendar(ctx, flow.ServiceID())
	switch {
	case err != nil:
		s.logger.Warn("calendar refresh before submit failed, using calendar from flow open", "service_id", flow.ServiceID(), "error", err)
	case cal == nil || cal.Overrides() == nil:
		s.logger.Debug("refreshed calendar has no days, using calendar from flow open", "service_id", flow.ServiceID())
	default:
		overrides = cal.Overrides()
	}

	req, err := flow.PrepareSubmission(notes, overrides)
	if err != nil {
		s.metrics.ObserveSubmission("rejected")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("marketplace.date", req.Date),
		attribute.String("marketplace.time_slot", req.TimeSlot),
	)

	result, err := s.appointments.CreateAppointment(ctx, req)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveSubmission("failed")
		s.logger.Error("appointment creation failed", "service_id", req.ServiceID, "date", req.Date, "error", err)
		return nil, &SubmissionError{Message: defaultSubmitFailure, Err: err}
	}
	if result == nil || !result.Success {
		msg := defaultSubmitFailure
		if result != nil && result.Error != "" {
			msg = result.Error
		}
		s.metrics.ObserveSubmission("failed")
		s.logger.Warn("appointment rejected by marketplace", "service_id", req.ServiceID, "date", req.Date, "reason", msg)
		return nil, &SubmissionError{Message: msg}
	}

	s.metrics.ObserveSubmission("created")
	s.logger.Info("appointment created", "service_id", req.ServiceID, "date", req.Date, "time_slot", req.TimeSlot)
	if !flow.resetIfSelected(req.Date, req.TimeSlot) {
		s.logger.Debug("selection changed during submit, flow kept", "service_id", req.ServiceID, "date", req.Date)
	}
	return result, nil
}

// Calendar returns the month grid for a flow. An empty month shows the month
// containing the window's first date.
func (s *Service) Calendar(flow *Flow, month string) ([]Cell, error) {
	w := flow.Window()
	var (
		year int
		mon  time.Month
	)
	if month == "" {
		y, m, ok := MonthOf(w.MinDate)
		if !ok {
			return nil, fmt.Errorf("booking: invalid window start %q", w.MinDate)
		}
		year, mon = y, m
	} else {
		y, m, err := ParseMonth(month)
		if err != nil {
			return nil, err
		}
		year, mon = y, m
	}
	return MonthGrid(year, mon, w, flow.Schedule(), flow.Overrides()), nil
}
