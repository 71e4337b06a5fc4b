// Package httpapi wires the HTTP surface: middleware chain and route table.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/prylatief/latiefads/internal/http/handlers"
	"github.com/prylatief/latiefads/internal/infra"
	"github.com/prylatief/latiefads/internal/middleware"
)

func NewRouter(cfg *infra.Config, app *handlers.App) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(app.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.I18N(cfg.DefaultLocale))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/adcopy", app.AdCopyGenerate)
		r.Post("/batches", app.BatchCreate)
		r.Route("/batches/{batch_id}", func(r chi.Router) {
			r.Get("/", app.BatchStatus)
			r.Get("/results", app.BatchResults)
			r.Get("/results/{result_id}", app.ResultDownload)
			r.Get("/archive", app.BatchArchive)
			r.Get("/progress", app.BatchProgress)
		})
	})

	return r
}
