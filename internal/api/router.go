package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"medication-refill-tracker/internal/metrics"
	"medication-refill-tracker/internal/tracker"
)

// Deps holds what the router serves.
type Deps struct {
	Tracker *tracker.Tracker
	Metrics *metrics.Metrics
	Loc     *time.Location
	Now     func() time.Time // defaults to time.Now
}

// NewRouter builds and returns the application router.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)

	h := newMedicationHandler(deps)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, MessageEnvelope{Message: "ok"})
		})

		r.Route("/medications", func(r chi.Router) {
			r.Get("/", h.List)
			r.Post("/", h.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Get)
				r.Put("/", h.Replace)
				r.Patch("/", h.Patch)
				r.Delete("/", h.Delete)
				r.Put("/stock", h.UpdateStock)
				r.Post("/taken", h.MarkTaken)
			})
		})

		r.Get("/dashboard", h.Dashboard)
		r.Get("/reminders", h.Reminders)
		r.Get("/upcoming", h.Upcoming)
		r.Get("/summary", h.Summary)
		r.Get("/banner", h.Banner)
		r.Post("/banner/dismiss", h.DismissBanner)
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}
	return r
}
