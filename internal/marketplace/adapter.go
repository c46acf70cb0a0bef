package marketplace

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/slotwise/marketplace/internal/availability"
	"github.com/slotwise/marketplace/internal/booking"
	"github.com/slotwise/marketplace/internal/observability/metrics"
	"github.com/slotwise/marketplace/pkg/logging"
)

// ErrInvalidRating rejects reviews outside the 1 to 5 range before they reach
// the API.
var ErrInvalidRating = errors.New("marketplace: rating must be between 1 and 5")

var _ booking.Collaborators = (*Adapter)(nil)

// Adapter implements booking.Collaborators on top of the REST client and adds
// a read-through catalog cache.
type Adapter struct {
	client  *Client
	cache   CatalogCache
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
}

// NewAdapter creates a marketplace adapter. cache may be nil.
func NewAdapter(client *Client, cache CatalogCache, logger *logging.Logger, m *metrics.BookingMetrics) *Adapter {
	if client == nil {
		panic("marketplace: client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Adapter{client: client, cache: cache, logger: logger, metrics: m}
}

// GetServiceCalendar satisfies booking.CalendarSource.
func (a *Adapter) GetServiceCalendar(ctx context.Context, serviceID string) (*booking.ServiceCalendar, error) {
	resp, err := a.client.GetServiceCalendar(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	cal := &booking.ServiceCalendar{
		StartDate: strings.TrimSpace(resp.StartDate),
		EndDate:   strings.TrimSpace(resp.EndDate),
	}
	if resp.Days != nil {
		cal.DaysPresent = true
		cal.Days = make([]booking.CalendarDay, 0, len(*resp.Days))
		for _, d := range *resp.Days {
			cal.Days = append(cal.Days, booking.CalendarDay{Date: d.Date, HasAvailability: d.HasAvailability})
		}
	}
	return cal, nil
}

// GetServiceAvailability satisfies booking.SlotSource.
func (a *Adapter) GetServiceAvailability(ctx context.Context, serviceID, date string) ([]booking.TimeSlot, error) {
	slots, err := a.client.GetServiceAvailability(ctx, serviceID, date)
	if err != nil {
		return nil, err
	}
	out := make([]booking.TimeSlot, 0, len(slots))
	for _, s := range slots {
		out = append(out, booking.TimeSlot{Time: s.Time, Available: s.Available})
	}
	return out, nil
}

// CreateAppointment satisfies booking.AppointmentCreator.
func (a *Adapter) CreateAppointment(ctx context.Context, req booking.BookingRequest) (*booking.AppointmentResult, error) {
	resp, err := a.client.CreateAppointment(ctx, AppointmentRequest{
		ServiceID: req.ServiceID,
		Date:      req.Date,
		TimeSlot:  req.TimeSlot,
		Notes:     req.Notes,
	})
	if err != nil {
		return nil, err
	}
	return &booking.AppointmentResult{Success: resp.Success, Error: resp.Error}, nil
}

// GetServiceSchedule satisfies booking.ScheduleSource by normalizing the
// service's raw availability.
func (a *Adapter) GetServiceSchedule(ctx context.Context, serviceID string) (availability.Schedule, error) {
	svc, err := a.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return availability.Normalize(svc.Availability), nil
}

// GetService returns service detail, served from the cache when possible.
func (a *Adapter) GetService(ctx context.Context, serviceID string) (*Service, error) {
	if a.cache != nil {
		svc, ok, err := a.cache.GetService(ctx, serviceID)
		switch {
		case err != nil:
			a.metrics.ObserveCache("error")
			a.logger.Warn("catalog cache read failed", "service_id", serviceID, "error", err)
		case ok:
			a.metrics.ObserveCache("hit")
			return svc, nil
		default:
			a.metrics.ObserveCache("miss")
		}
	}

	svc, err := a.client.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.SetService(ctx, svc); err != nil {
			a.logger.Warn("catalog cache write failed", "service_id", serviceID, "error", err)
		}
	}
	return svc, nil
}

// ListProviders returns providers, served from the cache when possible.
func (a *Adapter) ListProviders(ctx context.Context, filter ProviderFilter) ([]Provider, error) {
	if a.cache != nil {
		providers, ok, err := a.cache.GetProviders(ctx, filter)
		switch {
		case err != nil:
			a.metrics.ObserveCache("error")
			a.logger.Warn("catalog cache read failed", "category", filter.Category, "error", err)
		case ok:
			a.metrics.ObserveCache("hit")
			return providers, nil
		default:
			a.metrics.ObserveCache("miss")
		}
	}

	providers, err := a.client.ListProviders(ctx, filter)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.SetProviders(ctx, filter, providers); err != nil {
			a.logger.Warn("catalog cache write failed", "category", filter.Category, "error", err)
		}
	}
	return providers, nil
}

func (a *Adapter) ListReviews(ctx context.Context, serviceID string) ([]Review, error) {
	return a.client.ListReviews(ctx, serviceID)
}

// CreateReview validates and posts a review, then drops the cached service so
// its rating is refetched.
func (a *Adapter) CreateReview(ctx context.Context, serviceID string, in ReviewInput) (*Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}
	in.Comment = strings.TrimSpace(in.Comment)
	review, err := a.client.CreateReview(ctx, serviceID, in)
	if err != nil {
		return nil, err
	}
	if a.cache != nil {
		if err := a.cache.InvalidateService(ctx, serviceID); err != nil {
			a.logger.Warn("catalog cache invalidate failed", "service_id", serviceID, "error", err)
		}
	}
	return review, nil
}

func (a *Adapter) ListFavorites(ctx context.Context) ([]Favorite, error) {
	return a.client.ListFavorites(ctx)
}

func (a *Adapter) AddFavorite(ctx context.Context, serviceID string) (*Favorite, error) {
	if strings.TrimSpace(serviceID) == "" {
		return nil, fmt.Errorf("marketplace: service id is required")
	}
	return a.client.AddFavorite(ctx, serviceID)
}

func (a *Adapter) RemoveFavorite(ctx context.Context, serviceID string) error {
	return a.client.RemoveFavorite(ctx, serviceID)
}
