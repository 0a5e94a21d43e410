package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/cvenhancer/core/internal/domain"
	obsctx "github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

// ATSOptions carries the caller-supplied knobs for an ats.start call.
type ATSOptions struct {
	Priority int
}

// ATSService implements the §6 ats.{start,result} surface.
type ATSService struct {
	CVs    domain.CVRepository
	Users  domain.UserRepository
	Jobs   domain.JobRepository
	ATS    domain.ATSRepository
	Engine *queue.Engine
}

// NewATSService constructs an ATSService.
func NewATSService(cvs domain.CVRepository, users domain.UserRepository, jobs domain.JobRepository, ats domain.ATSRepository, engine *queue.Engine) *ATSService {
	return &ATSService{CVs: cvs, Users: users, Jobs: jobs, ATS: ats, Engine: engine}
}

// Start implements ats.start(userId, {cvId, type, targetJob, parameters}) → {jobId}.
func (s *ATSService) Start(ctx domain.Context, userID, cvID string, analysisType domain.ATSAnalysisType, target domain.TargetJob, opts ATSOptions) (domain.Job, error) {
	tr := otel.Tracer("service.ats")
	ctx, span := tr.Start(ctx, "ATSService.Start")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	cv, err := s.CVs.FindByID(ctx, cvID)
	if err != nil {
		return domain.Job{}, err
	}
	if err := checkOwnership(cv, userID); err != nil {
		return domain.Job{}, err
	}
	if target.Title == "" {
		return domain.Job{}, domain.ErrInvalid("targetJob.title is required")
	}
	if _, err := checkQuota(s.Users, ctx, userID, "analyses"); err != nil {
		return domain.Job{}, err
	}

	data := map[string]any{
		"cvId":         cvID,
		"analysisType": analysisType,
		"targetJob":    target,
	}
	j, err := s.Engine.Create(ctx, domain.QueueATS, userID, data, opts.Priority, "")
	if err != nil {
		lg.Error("ats.start failed", slog.String("cv_id", cvID), slog.Any("error", err))
		return domain.Job{}, err
	}
	lg.Info("ats.start enqueued", slog.String("job_id", j.ID), slog.String("cv_id", cvID))
	return j, nil
}

// Result implements ats.result(userId, jobId) → AtsAnalysis.results.
func (s *ATSService) Result(ctx domain.Context, userID, jobID string) (domain.ATSResults, error) {
	j, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return domain.ATSResults{}, err
	}
	if j.UserID != userID {
		return domain.ATSResults{}, domain.ErrForbidden("job")
	}
	if j.Status != domain.JobCompleted {
		return domain.ATSResults{}, domain.NewError(domain.CodeConflict, "job has not completed yet", 409)
	}
	a, err := s.ATS.FindByJobID(ctx, jobID)
	if err != nil {
		return domain.ATSResults{}, err
	}
	return a.Results, nil
}
