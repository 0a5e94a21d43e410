package processor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/queue"
)

const generationTotalSteps = 3

type generationJobData struct {
	CVID          string               `json:"cvId,omitempty"`
	VersionID     string               `json:"versionId,omitempty"`
	InputData     *domain.Content      `json:"inputData,omitempty"`
	OutputFormat  domain.OutputFormat  `json:"outputFormat"`
	TemplateID    domain.TemplateID    `json:"templateId"`
	Customization domain.Customization `json:"customization"`
}

// Generation implements queue.Processor for §4.C5.4: render the CV's
// content (or a named prior version) into a downloadable PDF/DOCX and
// park it in the object store.
func (p *Processors) Generation(ctx context.Context, engine *queue.Engine, j domain.Job) error {
	var data generationJobData
	if err := decodeData(j.Data, &data); err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventGenerationFailed)
	}

	if _, err := engine.ReportProgress(ctx, j.ID, 1, generationTotalSteps, "loading content"); err != nil {
		return err
	}
	content, err := p.resolveContent(ctx, data)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventGenerationFailed)
	}

	if cancel, err := engine.ReportProgress(ctx, j.ID, 2, generationTotalSteps, "rendering document"); err != nil || cancel {
		if e := cancelOrErr(cancel, err); e != nil {
			return engine.SetError(ctx, j.ID, e, domain.EventGenerationFailed)
		}
	}
	out, stats, err := p.Rasterizer.Render(ctx, content, data.OutputFormat, data.TemplateID, data.Customization)
	if err != nil {
		return engine.SetError(ctx, j.ID, domain.Wrap(domain.CodeGenerationRenderFailed, "rasterization failed", 502, err), domain.EventGenerationFailed)
	}

	if cancel, err := engine.ReportProgress(ctx, j.ID, 3, generationTotalSteps, "storing output"); err != nil || cancel {
		if e := cancelOrErr(cancel, err); e != nil {
			return engine.SetError(ctx, j.ID, e, domain.EventGenerationFailed)
		}
	}
	fileName, mimeType := outputFileName(data.OutputFormat, content.Personal.Name)
	key := fmt.Sprintf("generations/%s/%s", j.UserID, uuid.NewString()+"-"+fileName)
	if err := p.Objects.Put(ctx, key, out, mimeType); err != nil {
		return engine.SetError(ctx, j.ID, fmt.Errorf("store generated file: %w", err), domain.EventGenerationFailed)
	}

	gen := domain.Generation{
		JobID:        j.ID,
		UserID:       j.UserID,
		CVID:         data.CVID,
		VersionID:    data.VersionID,
		InputData:    content,
		OutputFormat: data.OutputFormat,
		TemplateID:   data.TemplateID,
		Customization: data.Customization,
		OutputFile: domain.OutputFile{
			FileName: fileName,
			FilePath: key,
			FileSize: int64(len(out)),
			MimeType: mimeType,
		},
		Stats:  stats,
		Status: domain.JobCompleted,
	}
	if err := p.Generations.Upsert(ctx, gen); err != nil {
		return engine.SetError(ctx, j.ID, fmt.Errorf("persist generation row: %w", err), domain.EventGenerationFailed)
	}
	if p.Users != nil {
		if err := p.Users.IncrementUsage(ctx, j.UserID, "generations", 1); err != nil {
			return engine.SetError(ctx, j.ID, fmt.Errorf("increment usage: %w", err), domain.EventGenerationFailed)
		}
	}

	return engine.SetResult(ctx, j.ID, map[string]any{
		"cvId": data.CVID, "filePath": key, "fileName": fileName, "fileSize": len(out),
	}, domain.EventGenerationCompleted)
}

func (p *Processors) resolveContent(ctx context.Context, data generationJobData) (domain.Content, error) {
	if data.InputData != nil {
		return *data.InputData, nil
	}
	if data.VersionID != "" {
		v, err := p.VersionRepo.FindByID(ctx, data.VersionID)
		if err != nil {
			return domain.Content{}, err
		}
		return v.Content, nil
	}
	cv, err := p.CVs.FindByID(ctx, data.CVID)
	if err != nil {
		return domain.Content{}, err
	}
	return cv.Content, nil
}

func outputFileName(format domain.OutputFormat, name string) (fileName, mimeType string) {
	base := sanitizeFileBase(name)
	switch format {
	case domain.FormatDOCX:
		return base + ".docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return base + ".pdf", "application/pdf"
	}
}

func sanitizeFileBase(name string) string {
	if name == "" {
		return "cv"
	}
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '-')
		}
	}
	if len(out) == 0 {
		return "cv"
	}
	return string(out)
}
