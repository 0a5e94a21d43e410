package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/cvenhancer/core/internal/domain"
	obsctx "github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

// OptimizeOptions carries the caller-supplied knobs for an optimize.start call.
type OptimizeOptions struct {
	Priority     int
	Instructions string
}

// OptimizeService implements the §6 optimize.start surface.
type OptimizeService struct {
	CVs    domain.CVRepository
	Users  domain.UserRepository
	Engine *queue.Engine
}

// NewOptimizeService constructs an OptimizeService.
func NewOptimizeService(cvs domain.CVRepository, users domain.UserRepository, engine *queue.Engine) *OptimizeService {
	return &OptimizeService{CVs: cvs, Users: users, Engine: engine}
}

// Start implements optimize.start(userId, {cvId, targetRole, jobDescription,
// sections, options}) → {jobId}.
func (s *OptimizeService) Start(ctx domain.Context, userID, cvID, targetRole, jobDescription string, sections []string, opts OptimizeOptions) (domain.Job, error) {
	tr := otel.Tracer("service.optimize")
	ctx, span := tr.Start(ctx, "OptimizeService.Start")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	cv, err := s.CVs.FindByID(ctx, cvID)
	if err != nil {
		return domain.Job{}, err
	}
	if err := checkOwnership(cv, userID); err != nil {
		return domain.Job{}, err
	}
	if cv.Content.IsStructurallyEmpty() {
		return domain.Job{}, domain.ErrInvalid("cv has no content to optimize")
	}
	if _, err := checkQuota(s.Users, ctx, userID, "enhancements"); err != nil {
		return domain.Job{}, err
	}

	data := map[string]any{
		"cvId": cvID,
		"targetJob": domain.TargetJob{
			Title:        targetRole,
			Description:  jobDescription,
			Requirements: sections,
		},
		"instructions": opts.Instructions,
	}
	j, err := s.Engine.Create(ctx, domain.QueueOptimization, userID, data, opts.Priority, "")
	if err != nil {
		lg.Error("optimize.start failed", slog.String("cv_id", cvID), slog.Any("error", err))
		return domain.Job{}, err
	}
	lg.Info("optimize.start enqueued", slog.String("job_id", j.ID), slog.String("cv_id", cvID))
	return j, nil
}
