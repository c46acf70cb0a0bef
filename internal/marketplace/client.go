package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/slotwise/marketplace/internal/observability/metrics"
	"github.com/slotwise/marketplace/pkg/logging"
)

const (
	defaultBaseURL = "http://localhost:8000"
	defaultTimeout = 15 * time.Second
)

var marketplaceTracer = otel.Tracer("marketplace.internal.marketplace")

// ErrMalformedResponse is returned when a 2xx body is missing required fields.
var ErrMalformedResponse = errors.New("marketplace: malformed response")

// APIError is a non-2xx response from the marketplace API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace API returned %d: %s", e.Status, e.Message)
}

// Client wraps REST calls against the marketplace API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	metrics    *metrics.BookingMetrics
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithClientMetrics(m *metrics.BookingMetrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient constructs a marketplace REST client.
func NewClient(baseURL string, logger *logging.Logger, opts ...ClientOption) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if logger == nil {
		logger = logging.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetServiceCalendar returns the booking calendar of a service.
func (c *Client) GetServiceCalendar(ctx context.Context, serviceID string) (*CalendarResponse, error) {
	path := fmt.Sprintf("/api/services/%s/calendar", url.PathEscape(serviceID))

	var resp CalendarResponse
	if err := c.doJSON(ctx, "get_calendar", http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get service calendar: %w", err)
	}
	return &resp, nil
}

// GetServiceAvailability returns the time slots offered on one date. A body
// without time_slots is treated as malformed.
func (c *Client) GetServiceAvailability(ctx context.Context, serviceID, date string) ([]TimeSlot, error) {
	q := url.Values{}
	q.Set("date", date)
	path := fmt.Sprintf("/api/services/%s/availability?%s", url.PathEscape(serviceID), q.Encode())

	var resp AvailabilityResponse
	if err := c.doJSON(ctx, "get_availability", http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get service availability: %w", err)
	}
	if resp.TimeSlots == nil {
		return nil, fmt.Errorf("get service availability: %w: time_slots missing", ErrMalformedResponse)
	}
	return *resp.TimeSlots, nil
}

// CreateAppointment submits a booking. A 2xx with success=false is returned
// as a response, not an error.
func (c *Client) CreateAppointment(ctx context.Context, req AppointmentRequest) (*AppointmentResponse, error) {
	var resp AppointmentResponse
	if err := c.doJSON(ctx, "create_appointment", http.MethodPost, "/api/appointments", req, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return &AppointmentResponse{Success: false, Error: apiErr.Message}, nil
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &resp, nil
}

// ListProviders lists providers, optionally filtered by category or search text.
func (c *Client) ListProviders(ctx context.Context, filter ProviderFilter) ([]Provider, error) {
	q := url.Values{}
	if v := strings.TrimSpace(filter.Category); v != "" {
		q.Set("category", v)
	}
	if v := strings.TrimSpace(filter.Query); v != "" {
		q.Set("q", v)
	}
	path := "/api/providers"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var wrapped struct {
		Providers []Provider `json:"providers"`
	}
	if err := c.doJSON(ctx, "list_providers", http.MethodGet, path, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	if wrapped.Providers == nil {
		return []Provider{}, nil
	}
	return wrapped.Providers, nil
}

// GetService returns the detail of a service, including its raw availability.
func (c *Client) GetService(ctx context.Context, serviceID string) (*Service, error) {
	path := fmt.Sprintf("/api/services/%s", url.PathEscape(serviceID))

	var svc Service
	if err := c.doJSON(ctx, "get_service", http.MethodGet, path, nil, &svc); err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &svc, nil
}

func (c *Client) ListReviews(ctx context.Context, serviceID string) ([]Review, error) {
	path := fmt.Sprintf("/api/services/%s/reviews", url.PathEscape(serviceID))

	var wrapped struct {
		Reviews []Review `json:"reviews"`
	}
	if err := c.doJSON(ctx, "list_reviews", http.MethodGet, path, nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if wrapped.Reviews == nil {
		return []Review{}, nil
	}
	return wrapped.Reviews, nil
}

func (c *Client) CreateReview(ctx context.Context, serviceID string, in ReviewInput) (*Review, error) {
	path := fmt.Sprintf("/api/services/%s/reviews", url.PathEscape(serviceID))

	var review Review
	if err := c.doJSON(ctx, "create_review", http.MethodPost, path, in, &review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	return &review, nil
}

func (c *Client) ListFavorites(ctx context.Context) ([]Favorite, error) {
	var wrapped struct {
		Favorites []Favorite `json:"favorites"`
	}
	if err := c.doJSON(ctx, "list_favorites", http.MethodGet, "/api/favorites", nil, &wrapped); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if wrapped.Favorites == nil {
		return []Favorite{}, nil
	}
	return wrapped.Favorites, nil
}

func (c *Client) AddFavorite(ctx context.Context, serviceID string) (*Favorite, error) {
	body := map[string]string{"service_id": serviceID}
	var fav Favorite
	if err := c.doJSON(ctx, "add_favorite", http.MethodPost, "/api/favorites", body, &fav); err != nil {
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return &fav, nil
}

func (c *Client) RemoveFavorite(ctx context.Context, serviceID string) error {
	path := fmt.Sprintf("/api/favorites/%s", url.PathEscape(serviceID))
	if err := c.doJSON(ctx, "remove_favorite", http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, operation, method, path string, body interface{}, out interface{}) (err error) {
	ctx, span := marketplaceTracer.Start(ctx, "marketplace."+operation)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("marketplace.path", path),
	)

	started := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
		}
		c.metrics.ObserveUpstream(operation, status, time.Since(started).Seconds())
	}()

	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(respBody)
		c.logger.Warn("marketplace API non-2xx response", "status", resp.StatusCode, "path", path, "body", msg)
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if len(respBody) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// errorMessage prefers the API's {"error": "..."} field over the raw body.
func errorMessage(body []byte) string {
	var wrapped struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if wrapped.Error != "" {
			return wrapped.Error
		}
		if wrapped.Message != "" {
			return wrapped.Message
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
