package service

import (
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/cvenhancer/core/internal/domain"
	obsctx "github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

// ParsingOptions carries the caller-supplied knobs for a parsing.start call.
type ParsingOptions struct {
	Priority int
}

// ParsingService implements the §6 parsing.{start,status,result} surface.
type ParsingService struct {
	CVs     domain.CVRepository
	Users   domain.UserRepository
	Jobs    domain.JobRepository
	Parsing domain.ParsingRepository
	Engine  *queue.Engine
}

// NewParsingService constructs a ParsingService.
func NewParsingService(cvs domain.CVRepository, users domain.UserRepository, jobs domain.JobRepository, parsing domain.ParsingRepository, engine *queue.Engine) *ParsingService {
	return &ParsingService{CVs: cvs, Users: users, Jobs: jobs, Parsing: parsing, Engine: engine}
}

// Start implements parsing.start(userId, {cvId, priority, options}) → {jobId}.
func (s *ParsingService) Start(ctx domain.Context, userID, cvID string, opts ParsingOptions) (domain.Job, error) {
	tr := otel.Tracer("service.parsing")
	ctx, span := tr.Start(ctx, "ParsingService.Start")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	cv, err := s.CVs.FindByID(ctx, cvID)
	if err != nil {
		return domain.Job{}, err
	}
	if err := checkOwnership(cv, userID); err != nil {
		return domain.Job{}, err
	}
	if cv.FileRef == "" {
		return domain.Job{}, domain.NewError(domain.CodeCVNoFileToParse, "cv has no uploaded file to parse", 400)
	}
	if _, err := checkActive(s.Users, ctx, userID); err != nil {
		return domain.Job{}, err
	}

	j, err := s.Engine.Create(ctx, domain.QueueParsing, userID,
		map[string]any{"cvId": cvID}, opts.Priority, fmt.Sprintf("parsing:%s", cvID))
	if err != nil {
		lg.Error("parsing.start failed", slog.String("cv_id", cvID), slog.Any("error", err))
		return domain.Job{}, err
	}
	if err := s.Parsing.Upsert(ctx, domain.CvParsingJob{JobID: j.ID, UserID: userID, CVID: cvID, Status: domain.JobPending}); err != nil {
		lg.Error("parsing.start companion row failed", slog.String("job_id", j.ID), slog.Any("error", err))
		return domain.Job{}, err
	}
	lg.Info("parsing.start enqueued", slog.String("job_id", j.ID), slog.String("cv_id", cvID))
	return j, nil
}

// Status implements parsing.status(userId, jobId) → {status, progress, currentStep}.
func (s *ParsingService) Status(ctx domain.Context, userID, jobID string) (domain.Job, error) {
	j, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return domain.Job{}, err
	}
	if j.UserID != userID {
		return domain.Job{}, domain.ErrForbidden("job")
	}
	return j, nil
}

// Result implements parsing.result(userId, jobId) → parsedContent | error.
func (s *ParsingService) Result(ctx domain.Context, userID, jobID string) (domain.CvParsingJob, error) {
	j, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return domain.CvParsingJob{}, err
	}
	if j.UserID != userID {
		return domain.CvParsingJob{}, domain.ErrForbidden("job")
	}
	if j.Status != domain.JobCompleted {
		return domain.CvParsingJob{}, domain.NewError(domain.CodeConflict, "job has not completed yet", 409)
	}
	return s.Parsing.FindByJobID(ctx, jobID)
}
