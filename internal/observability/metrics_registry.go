package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTPRequestsTotal counts API requests by route, method, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	// HTTPRequestDuration records request durations by route and method.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	// AIRequestsTotal counts calls to the parse/optimize/ATS LLM adapter by
	// task and provider.
	AIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_requests_total",
			Help: "Total number of AI requests by provider and task",
		},
		[]string{"provider", "task"},
	)
	// AIRequestDuration records durations of AI requests by provider and task.
	AIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_request_duration_seconds",
			Help:    "AI request duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
		},
		[]string{"provider", "task"},
	)
	// AITokenUsage tracks AI token consumption by provider, token type, and model.
	AITokenUsage = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Total AI tokens used",
		},
		[]string{"provider", "type", "model"},
	)

	// JobsEnqueuedTotal counts jobs enqueued by queue name.
	JobsEnqueuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_enqueued_total",
			Help: "Total number of jobs enqueued",
		},
		[]string{"queue"},
	)
	// JobsProcessing gauges jobs currently leased by queue name.
	JobsProcessing = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobs_processing",
			Help: "Number of jobs currently processing",
		},
		[]string{"queue"},
	)
	// JobsCompletedTotal counts jobs completed by queue name.
	JobsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_completed_total",
			Help: "Total number of jobs completed",
		},
		[]string{"queue"},
	)
	// JobsFailedTotal counts jobs terminally failed by queue name.
	JobsFailedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobs_failed_total",
			Help: "Total number of jobs failed",
		},
		[]string{"queue"},
	)

	// ATSScoreHistogram is the distribution of ats.result overall scores
	// (0-100), the domain signal analogous to the teacher's evaluation score
	// histograms.
	ATSScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ats_overall_score",
			Help:    "Distribution of ATS analysis overall scores (0-100)",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// WebhookDeliveriesTotal counts webhook delivery attempts by outcome.
	WebhookDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_deliveries_total",
			Help: "Total webhook delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	// CircuitBreakerStatus tracks circuit breaker state per service/operation.
	CircuitBreakerStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_status",
			Help: "Circuit breaker status (0=closed, 1=open, 2=half-open)",
		},
		[]string{"service", "operation"},
	)
)

// InitMetrics registers every Prometheus collector with the default
// registry; call once per process.
func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(AIRequestsTotal)
	prometheus.MustRegister(AIRequestDuration)
	prometheus.MustRegister(AITokenUsage)
	prometheus.MustRegister(JobsEnqueuedTotal)
	prometheus.MustRegister(JobsProcessing)
	prometheus.MustRegister(JobsCompletedTotal)
	prometheus.MustRegister(JobsFailedTotal)
	prometheus.MustRegister(ATSScoreHistogram)
	prometheus.MustRegister(WebhookDeliveriesTotal)
	prometheus.MustRegister(CircuitBreakerStatus)
}

// HTTPMetricsMiddleware records request counts and durations for every
// handled route.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, r.Method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(dur)
	})
}

// EnqueueJob increments the enqueued-jobs counter for queueName.
func EnqueueJob(queueName string) {
	JobsEnqueuedTotal.WithLabelValues(queueName).Inc()
}

// StartProcessingJob increments the processing gauge for queueName.
func StartProcessingJob(queueName string) {
	JobsProcessing.WithLabelValues(queueName).Inc()
}

// CompleteJob decrements the processing gauge and increments the completed
// counter for queueName.
func CompleteJob(queueName string) {
	JobsProcessing.WithLabelValues(queueName).Dec()
	JobsCompletedTotal.WithLabelValues(queueName).Inc()
}

// FailJob decrements the processing gauge and increments the failed counter
// for queueName.
func FailJob(queueName string) {
	JobsProcessing.WithLabelValues(queueName).Dec()
	JobsFailedTotal.WithLabelValues(queueName).Inc()
}

// ObserveATSScore records an ats.result overall score.
func ObserveATSScore(score float64) {
	if score >= 0 && score <= 100 {
		ATSScoreHistogram.Observe(score)
	}
}

// RecordAITokenUsage records AI token consumption.
func RecordAITokenUsage(provider, tokenType, model string, tokens int) {
	AITokenUsage.WithLabelValues(provider, tokenType, model).Add(float64(tokens))
}

// RecordWebhookDelivery records a webhook delivery attempt outcome
// ("success" or "failure").
func RecordWebhookDelivery(outcome string) {
	WebhookDeliveriesTotal.WithLabelValues(outcome).Inc()
}

// RecordCircuitBreakerStatus records circuit breaker state.
func RecordCircuitBreakerStatus(service, operation string, status int) {
	CircuitBreakerStatus.WithLabelValues(service, operation).Set(float64(status))
}
