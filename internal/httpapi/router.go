package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/observability"
)

// ParseOrigins splits a comma-separated origin list into a slice, trimming
// spaces; an empty or "*" input means "allow everything".
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the full HTTP handler: middleware chain, the §6
// service surface, and the CV authoring endpoints that sit outside the
// core's own scope.
func BuildRouter(cfg config.Config, srv *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(Recoverer())
	r.Use(RequestID())
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Group(func(wr chi.Router) {
		wr.Use(httprate.LimitByIP(cfg.RateLimitPerMin, time.Minute))

		wr.Route("/v1/cvs", func(cv chi.Router) {
			cv.Post("/", srv.CreateHandler())
			cv.Get("/", srv.ListHandler())
			cv.Get("/{id}", srv.GetHandler())
			cv.Post("/{id}/file", srv.UploadFileHandler())
		})

		wr.Route("/v1/parsing", func(p chi.Router) {
			p.Post("/start", srv.ParsingStartHandler())
			p.Get("/{jobId}/status", srv.ParsingStatusHandler())
			p.Get("/{jobId}/result", srv.ParsingResultHandler())
		})

		wr.Post("/v1/optimize/start", srv.OptimizeStartHandler())

		wr.Route("/v1/ats", func(a chi.Router) {
			a.Post("/start", srv.ATSStartHandler())
			a.Get("/{jobId}/result", srv.ATSResultHandler())
		})

		wr.Route("/v1/generation", func(g chi.Router) {
			g.Post("/start", srv.GenerationStartHandler())
			g.Get("/{jobId}/download", srv.GenerationDownloadHandler())
		})

		wr.Route("/v1/jobs", func(j chi.Router) {
			j.Get("/", srv.JobListHandler())
			j.Get("/{jobId}", srv.JobGetHandler())
			j.Post("/{jobId}/cancel", srv.JobCancelHandler())
			j.Post("/{jobId}/retry", srv.JobRetryHandler())
		})

		wr.Route("/v1/webhooks", func(wh chi.Router) {
			wh.Post("/", srv.WebhookCreateHandler())
			wh.Get("/", srv.WebhookListHandler())
			wh.Put("/{id}", srv.WebhookUpdateHandler())
			wh.Delete("/{id}", srv.WebhookDeleteHandler())
			wh.Post("/{id}/test", srv.WebhookTestHandler())
			wh.Get("/{id}/stats", srv.WebhookStatsHandler())
			wh.Get("/{id}/deliveries", srv.WebhookDeliveriesHandler())
			wh.Post("/deliveries/{deliveryId}/retry", srv.WebhookRetryDeliveryHandler())
		})
	})

	r.Get("/healthz", srv.HealthzHandler())
	r.Get("/readyz", srv.ReadyzHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) { promhttp.Handler().ServeHTTP(w, r) })

	return SecurityHeaders(r)
}
