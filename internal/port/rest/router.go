package rest

import (
	"net/http"

	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type RouterOptions struct {
	AllowedOrigins []string
	Metrics        *metrics.MetricsManager
}

func NewRouter(h *Handler, opts RouterOptions, log *logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(Metrics(opts.Metrics))
	r.Use(Tracing)
	r.Use(AccessLog(log.Named("http")))
	r.Use(chimw.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	setupListingRoutes(r, h)
	r.Post("/contact", h.SubmitContact)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		h.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		h.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

func setupListingRoutes(r chi.Router, h *Handler) {
	r.Route("/roommates", func(r chi.Router) {
		r.Get("/", h.ListListings)
		r.Post("/", h.CreateListing)
		r.Get("/available", h.ListAvailable)
		r.Get("/mylistings", h.ListMine)
		r.Get("/count", h.CountListings)
		r.Get("/user/{email}", h.ListByUser)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetListing)
			r.Put("/", h.ReplaceListing)
			r.Delete("/", h.DeleteListing)
			r.Patch("/like", h.SetLikes)
			r.Patch("/like-tracked", h.LikeTracked)
			r.Get("/liked/{userEmail}", h.HasLiked)
			r.Post("/likes/reconcile", h.ReconcileLikes)
		})
	})
}
