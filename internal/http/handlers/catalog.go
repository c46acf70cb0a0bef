package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/slotwise/marketplace/internal/availability"
	"github.com/slotwise/marketplace/internal/marketplace"
	"github.com/slotwise/marketplace/pkg/logging"
)

// Catalog is the read/write surface of the marketplace used by the catalog
// endpoints. *marketplace.Adapter implements it.
type Catalog interface {
	ListProviders(ctx context.Context, filter marketplace.ProviderFilter) ([]marketplace.Provider, error)
	GetService(ctx context.Context, serviceID string) (*marketplace.Service, error)
	ListReviews(ctx context.Context, serviceID string) ([]marketplace.Review, error)
	CreateReview(ctx context.Context, serviceID string, in marketplace.ReviewInput) (*marketplace.Review, error)
	ListFavorites(ctx context.Context) ([]marketplace.Favorite, error)
	AddFavorite(ctx context.Context, serviceID string) (*marketplace.Favorite, error)
	RemoveFavorite(ctx context.Context, serviceID string) error
}

// CatalogHandler serves providers, service detail, reviews and favorites.
type CatalogHandler struct {
	catalog Catalog
	logger  *logging.Logger
}

func NewCatalogHandler(catalog Catalog, logger *logging.Logger) *CatalogHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// ServiceDetailResponse pairs the service with its normalized weekly schedule.
type ServiceDetailResponse struct {
	Service  *marketplace.Service      `json:"service"`
	Schedule availability.Schedule     `json:"schedule"`
	Hours    []availability.DaySummary `json:"hours"`
}

// ListProviders handles GET /v1/providers?category=&q=
func (h *CatalogHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	filter := marketplace.ProviderFilter{
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
	}
	providers, err := h.catalog.ListProviders(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list providers", "category", filter.Category, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

// GetService handles GET /v1/services/{serviceID}
func (h *CatalogHandler) GetService(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	svc, err := h.catalog.GetService(r.Context(), serviceID)
	if err != nil {
		h.logger.Error("failed to get service", "service_id", serviceID, "error", err)
		writeError(w, err)
		return
	}
	schedule := availability.Normalize(svc.Availability)
	writeJSON(w, http.StatusOK, ServiceDetailResponse{
		Service:  svc,
		Schedule: schedule,
		Hours:    availability.Summaries(schedule),
	})
}

// ListReviews handles GET /v1/services/{serviceID}/reviews
func (h *CatalogHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	reviews, err := h.catalog.ListReviews(r.Context(), serviceID)
	if err != nil {
		h.logger.Error("failed to list reviews", "service_id", serviceID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

// CreateReview handles POST /v1/services/{serviceID}/reviews
func (h *CatalogHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	var in marketplace.ReviewInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	review, err := h.catalog.CreateReview(r.Context(), serviceID, in)
	if err != nil {
		h.logger.Warn("failed to create review", "service_id", serviceID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// ListFavorites handles GET /v1/favorites
func (h *CatalogHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.catalog.ListFavorites(r.Context())
	if err != nil {
		h.logger.Error("failed to list favorites", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": favorites})
}

// AddFavorite handles PUT /v1/favorites/{serviceID}
func (h *CatalogHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	fav, err := h.catalog.AddFavorite(r.Context(), serviceID)
	if err != nil {
		h.logger.Error("failed to add favorite", "service_id", serviceID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fav)
}

// RemoveFavorite handles DELETE /v1/favorites/{serviceID}
func (h *CatalogHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	if err := h.catalog.RemoveFavorite(r.Context(), serviceID); err != nil {
		h.logger.Error("failed to remove favorite", "service_id", serviceID, "error", err)
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
