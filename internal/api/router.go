package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Psyche/internal/pipeline"
)

func NewRouter(svc *pipeline.Service, adminToken string, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rateLimit))

	assessments := NewAssessmentsHandler(svc)
	reports := NewReportsHandler(svc)
	templates := NewTemplatesHandler(svc)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Post("/assessments", assessments.Submit)
		r.Get("/assessments", assessments.List)
		r.Get("/assessments/{id}", assessments.Get)

		r.Get("/companies/{company_id}/results", reports.Results)
		r.Get("/companies/{company_id}/action-plans", reports.ActionPlans)
		r.Get("/companies/{company_id}/report", reports.Report)
		r.Get("/templates", templates.List)
		r.Get("/templates/{id}", templates.Get)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Patch("/assessments/{id}/demographics", assessments.Relabel)
			r.Post("/companies/{company_id}/report/export", reports.Export)

			r.Post("/templates", templates.Create)
			r.Patch("/templates/{id}", templates.Update)
			r.Delete("/templates/{id}", templates.Delete)
			r.Patch("/templates/{id}/sections/{section_id}", templates.UpdateSection)
			r.Post("/templates/{id}/duplicate", templates.Duplicate)
			r.Post("/templates/{id}/default", templates.SetDefault)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
