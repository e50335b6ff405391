// Package httpapi exposes the cached reservation store over HTTP, together
// with the cache administration and metrics endpoints.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/cache"
	"github.com/goliatone/go-reservation-cache/store"
)

// API serves reads and writes through a store and administers its cache.
type API struct {
	store    store.Store
	cache    cache.CacheService
	gatherer prometheus.Gatherer
	logger   *zap.Logger
	validate *validator.Validate
}

type Option func(*API)

func WithLogger(logger *zap.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithGatherer selects the registry served on /metrics. Defaults to
// prometheus.DefaultGatherer.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *API) {
		if g != nil {
			a.gatherer = g
		}
	}
}

func New(st store.Store, cacheService cache.CacheService, opts ...Option) *API {
	a := &API{
		store:    st,
		cache:    cacheService,
		gatherer: prometheus.DefaultGatherer,
		logger:   zap.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(Logger(a.logger))

	router.Get("/health", a.health)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))

	router.Route("/api", func(r chi.Router) {
		r.Route("/restaurants/{restaurantID}", func(r chi.Router) {
			r.Get("/", a.getRestaurant)
			r.Put("/", a.saveRestaurant)
			r.Get("/tables", a.listTables)
			r.Put("/tables", a.saveTable)
			r.Delete("/tables/{tableID}", a.deleteTable)
			r.Get("/availability", a.tableAvailability)
			r.Get("/timeslots", a.availableTimeSlots)
			r.Get("/reservations", a.listReservations)
			r.Post("/reservations", a.createReservation)
			r.Get("/guests", a.listGuests)
			r.Get("/stats", a.reservationStats)
		})
		r.Route("/reservations/{reservationID}", func(r chi.Router) {
			r.Get("/", a.getReservation)
			r.Put("/", a.updateReservation)
			r.Post("/cancel", a.cancelReservation)
		})
		r.Put("/guests/{guestID}", a.saveGuest)
	})

	router.Route("/admin/cache", func(r chi.Router) {
		r.Get("/stats", a.cacheStats)
		r.Delete("/", a.clearCache)
		r.Post("/invalidate", a.invalidateCache)
	})

	return router
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
