package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/slotwise/marketplace/internal/http/handlers"
	httpmiddleware "github.com/slotwise/marketplace/internal/http/middleware"
	"github.com/slotwise/marketplace/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Catalog        *handlers.CatalogHandler
	Bookings       *handlers.BookingHandler
	Stats          http.Handler
	MetricsHandler http.Handler

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Stats != nil {
		r.Handle("/stats", cfg.Stats)
	}

	r.Route("/v1", func(v1 chi.Router) {
		if cfg.RateLimitRPS > 0 {
			v1.Use(httpmiddleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.Logger))
		}
		v1.Use(httpmiddleware.ForwardToken)

		if cfg.Catalog != nil {
			v1.Get("/providers", cfg.Catalog.ListProviders)
			v1.Route("/services/{serviceID}", func(svc chi.Router) {
				svc.Get("/", cfg.Catalog.GetService)
				svc.Get("/reviews", cfg.Catalog.ListReviews)
				svc.Post("/reviews", cfg.Catalog.CreateReview)
				if cfg.Bookings != nil {
					svc.Post("/bookings", cfg.Bookings.Open)
				}
			})
			v1.Route("/favorites", func(fav chi.Router) {
				fav.Get("/", cfg.Catalog.ListFavorites)
				fav.Put("/{serviceID}", cfg.Catalog.AddFavorite)
				fav.Delete("/{serviceID}", cfg.Catalog.RemoveFavorite)
			})
		} else if cfg.Bookings != nil {
			v1.Post("/services/{serviceID}/bookings", cfg.Bookings.Open)
		}

		if cfg.Bookings != nil {
			v1.Route("/bookings/{sessionID}", func(b chi.Router) {
				b.Get("/", cfg.Bookings.Get)
				b.Delete("/", cfg.Bookings.Cancel)
				b.Get("/calendar", cfg.Bookings.Calendar)
				b.Put("/date", cfg.Bookings.SelectDate)
				b.Get("/slots", cfg.Bookings.Slots)
				b.Post("/continue", cfg.Bookings.Continue)
				b.Post("/back", cfg.Bookings.Back)
				b.Put("/slot", cfg.Bookings.SelectSlot)
				b.Post("/submit", cfg.Bookings.Submit)
			})
		}
	})

	return r
}
