package httpapi

import (
	"context"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/service"
)

// Server aggregates every dependency a handler needs: the six §6 services
// plus the CV/object-store pair the thin upload/create endpoints use
// directly (CV authoring itself sits outside the core's C1-C7 scope).
type Server struct {
	Cfg config.Config

	CVs     domain.CVRepository
	Objects domain.ObjectStore

	Parsing    *service.ParsingService
	Optimize   *service.OptimizeService
	ATS        *service.ATSService
	Generation *service.GenerationService
	Jobs       *service.JobService
	Webhooks   *service.WebhookService

	// ReadinessChecks names each dependency probed by /readyz: Postgres,
	// Redis, the object store and, when TIKA_URL is set, Tika.
	ReadinessChecks map[string]func(ctx context.Context) error
}

// NewServer constructs a Server with every handler dependency wired.
func NewServer(cfg config.Config, cvs domain.CVRepository, objects domain.ObjectStore,
	parsing *service.ParsingService, optimize *service.OptimizeService, ats *service.ATSService,
	generation *service.GenerationService, jobs *service.JobService, webhooks *service.WebhookService,
	checks map[string]func(ctx context.Context) error,
) *Server {
	return &Server{
		Cfg: cfg, CVs: cvs, Objects: objects,
		Parsing: parsing, Optimize: optimize, ATS: ats,
		Generation: generation, Jobs: jobs, Webhooks: webhooks,
		ReadinessChecks: checks,
	}
}
