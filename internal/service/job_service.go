package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/cvenhancer/core/internal/domain"
	obsctx "github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

// JobFilters narrows job.list by the caller-supplied filter fields.
type JobFilters struct {
	Type   domain.QueueName
	Status domain.JobStatus
}

// JobService implements the §6 job.{get,cancel,retry,list} surface.
type JobService struct {
	Jobs   domain.JobRepository
	Engine *queue.Engine
}

// NewJobService constructs a JobService.
func NewJobService(jobs domain.JobRepository, engine *queue.Engine) *JobService {
	return &JobService{Jobs: jobs, Engine: engine}
}

// Get implements job.get(userId, jobId) → Job.
func (s *JobService) Get(ctx domain.Context, userID, jobID string) (domain.Job, error) {
	j, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if j.UserID != userID {
		return domain.Job{}, domain.ErrForbidden("job")
	}
	return j, nil
}

// Cancel implements job.cancel(userId, jobId).
func (s *JobService) Cancel(ctx domain.Context, userID, jobID string) error {
	lg := obsctx.LoggerFromContext(ctx)
	j, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.UserID != userID {
		return domain.ErrForbidden("job")
	}
	if j.Status.IsTerminal() {
		return domain.NewError(domain.CodeJobNotCancellable, "job has already reached a terminal state", 409)
	}
	if err := s.Engine.Cancel(ctx, jobID); err != nil {
		lg.Error("job.cancel failed", slog.String("job_id", jobID), slog.Any("error", err))
		return err
	}
	lg.Info("job.cancel requested", slog.String("job_id", jobID))
	return nil
}

// Retry implements job.retry(userId, jobId) → new Job.
func (s *JobService) Retry(ctx domain.Context, userID, jobID string) (domain.Job, error) {
	tr := otel.Tracer("service.job")
	ctx, span := tr.Start(ctx, "JobService.Retry")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	original, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if original.UserID != userID {
		return domain.Job{}, domain.ErrForbidden("job")
	}
	j, err := s.Engine.Retry(ctx, original)
	if err != nil {
		lg.Error("job.retry failed", slog.String("job_id", jobID), slog.Any("error", err))
		return domain.Job{}, err
	}
	lg.Info("job.retry enqueued", slog.String("original_job_id", jobID), slog.String("job_id", j.ID))
	return j, nil
}

// List implements job.list(userId, filters, pagination), newest first.
func (s *JobService) List(ctx domain.Context, userID string, filters JobFilters, limit, offset int) ([]domain.Job, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Jobs.FindByUser(ctx, userID, filters.Type, filters.Status, limit, offset)
}
