package service

import (
	"log/slog"

	"go.opentelemetry.io/otel"

	"github.com/cvenhancer/core/internal/domain"
	obsctx "github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

// GenerationOptions carries the caller-supplied knobs for a generation.start call.
type GenerationOptions struct {
	Priority int
}

// GenerationInput resolves to exactly one of CVID (+ optional VersionID) or
// InputData, matching §4.C5.4's resolve-input step.
type GenerationInput struct {
	CVID      string
	VersionID string
	InputData *domain.Content
}

// GenerationService implements the §6 generation.{start,download} surface.
type GenerationService struct {
	CVs         domain.CVRepository
	Users       domain.UserRepository
	Jobs        domain.JobRepository
	Generations domain.GenerationRepository
	Objects     domain.ObjectStore
	Engine      *queue.Engine
}

// NewGenerationService constructs a GenerationService.
func NewGenerationService(cvs domain.CVRepository, users domain.UserRepository, jobs domain.JobRepository, gens domain.GenerationRepository, objects domain.ObjectStore, engine *queue.Engine) *GenerationService {
	return &GenerationService{CVs: cvs, Users: users, Jobs: jobs, Generations: gens, Objects: objects, Engine: engine}
}

// Start implements generation.start(userId, {cvId|inputData, outputFormat,
// templateId, customization}) → {jobId}.
func (s *GenerationService) Start(ctx domain.Context, userID string, in GenerationInput, format domain.OutputFormat, tmpl domain.TemplateID, custom domain.Customization, opts GenerationOptions) (domain.Job, error) {
	tr := otel.Tracer("service.generation")
	ctx, span := tr.Start(ctx, "GenerationService.Start")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	if in.CVID == "" && in.InputData == nil {
		return domain.Job{}, domain.ErrInvalid("either cvId or inputData must be provided")
	}
	if in.CVID != "" {
		cv, err := s.CVs.FindByID(ctx, in.CVID)
		if err != nil {
			return domain.Job{}, err
		}
		if err := checkOwnership(cv, userID); err != nil {
			return domain.Job{}, err
		}
	}
	if _, err := checkQuota(s.Users, ctx, userID, "generations"); err != nil {
		return domain.Job{}, err
	}

	data := map[string]any{
		"outputFormat":  format,
		"templateId":    tmpl,
		"customization": custom,
	}
	if in.CVID != "" {
		data["cvId"] = in.CVID
	}
	if in.VersionID != "" {
		data["versionId"] = in.VersionID
	}
	if in.InputData != nil {
		data["inputData"] = in.InputData
	}

	j, err := s.Engine.Create(ctx, domain.QueueGeneration, userID, data, opts.Priority, "")
	if err != nil {
		lg.Error("generation.start failed", slog.Any("error", err))
		return domain.Job{}, err
	}
	lg.Info("generation.start enqueued", slog.String("job_id", j.ID))
	return j, nil
}

// DownloadResult is what generation.download hands the HTTP layer to stream
// back to the caller.
type DownloadResult struct {
	Stream      []byte
	ContentType string
	FileName    string
}

// Download implements generation.download(userId, jobId) → {stream,
// contentType, fileName}.
func (s *GenerationService) Download(ctx domain.Context, userID, jobID string) (DownloadResult, error) {
	j, err := s.Jobs.FindByID(ctx, jobID)
	if err != nil {
		return DownloadResult{}, err
	}
	if j.UserID != userID {
		return DownloadResult{}, domain.ErrForbidden("job")
	}
	if j.Status != domain.JobCompleted {
		return DownloadResult{}, domain.NewError(domain.CodeConflict, "job has not completed yet", 409)
	}
	gen, err := s.Generations.FindByJobID(ctx, jobID)
	if err != nil {
		return DownloadResult{}, err
	}
	raw, err := s.Objects.Get(ctx, gen.OutputFile.FilePath)
	if err != nil {
		return DownloadResult{}, err
	}
	return DownloadResult{Stream: raw, ContentType: gen.OutputFile.MimeType, FileName: gen.OutputFile.FileName}, nil
}
