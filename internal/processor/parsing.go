package processor

import (
	"context"
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/llm"
	"github.com/cvenhancer/core/internal/queue"
	"github.com/cvenhancer/core/internal/version"
)

const parsingTotalSteps = 4

type parsingJobData struct {
	CVID     string `json:"cvId"`
	FileKey  string `json:"fileKey"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
}

// parsedLLMResponse is the shape of the LLM's parse response; it is
// domain.Content itself, since the prompt asks for exactly that shape.
type parsedLLMResponse = domain.Content

// Parsing implements queue.Processor for §4.C5.1: extract text from the
// uploaded file, ask the configured AI provider to structure it, and stamp
// a new activated CVVersion from the result.
func (p *Processors) Parsing(ctx context.Context, engine *queue.Engine, j domain.Job) error {
	var data parsingJobData
	if err := decodeData(j.Data, &data); err != nil {
		return p.failParsing(ctx, engine, j, "", err)
	}

	if _, err := engine.ReportProgress(ctx, j.ID, 1, parsingTotalSteps, "loading file"); err != nil {
		return err
	}
	raw, err := p.Objects.Get(ctx, data.FileKey)
	if err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, fmt.Errorf("fetch uploaded file: %w", err))
	}

	if cancel, err := engine.ReportProgress(ctx, j.ID, 2, parsingTotalSteps, "extracting text"); err != nil || cancel {
		return p.failParsing(ctx, engine, j, data.CVID, cancelOrErr(cancel, err))
	}
	text, err := p.Extractor.Extract(ctx, data.FileName, raw)
	if err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, fmt.Errorf("extract text: %w", err))
	}
	if text == "" {
		return p.failParsing(ctx, engine, j, data.CVID, domain.NewError(domain.CodeCVNoFileToParse, "no extractable text found in uploaded file", 422))
	}

	if cancel, err := engine.ReportProgress(ctx, j.ID, 3, parsingTotalSteps, "parsing with AI"); err != nil || cancel {
		return p.failParsing(ctx, engine, j, data.CVID, cancelOrErr(cancel, err))
	}
	system, user, _, err := llm.Render("parse", map[string]any{"text": text, "mimeType": data.MimeType})
	if err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, err)
	}
	raw2, err := p.ParseAI.CompleteJSON(ctx, system, user, 4096)
	if err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, domain.Wrap(domain.CodeCVParsingFailed, "AI parse call failed", 502, err))
	}
	var content parsedLLMResponse
	if err := decodeJSON(raw2, &content); err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, err)
	}
	if content.IsStructurallyEmpty() {
		return p.failParsing(ctx, engine, j, data.CVID, domain.NewError(domain.CodeCVParsingFailed, "parsed content has no name and no experience, education, or skills", 422))
	}
	confidence := content.PopulatedSectionFraction()

	if cancel, err := engine.ReportProgress(ctx, j.ID, 4, parsingTotalSteps, "saving version"); err != nil || cancel {
		return p.failParsing(ctx, engine, j, data.CVID, cancelOrErr(cancel, err))
	}
	v, err := p.Versions.CreateVersion(ctx, version.NewVersionParams{
		CVID:       data.CVID,
		Content:    content,
		ChangeType: domain.ChangeParsing,
		Name:       "Parsed from upload",
		Confidence: confidence,
		Activate:   true,
	})
	if err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, fmt.Errorf("create version: %w", err))
	}

	cv, err := p.CVs.FindByID(ctx, data.CVID)
	if err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, err)
	}
	cv.ParsingStatus = domain.ParsingParsed
	if err := p.CVs.Update(ctx, cv); err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, fmt.Errorf("update cv parsing status: %w", err))
	}

	if err := p.Parsing.Upsert(ctx, domain.CvParsingJob{
		JobID:         j.ID,
		UserID:        j.UserID,
		CVID:          data.CVID,
		ParsedContent: content,
		Metadata:      domain.ParsedMetadata{Confidence: confidence},
		Status:        domain.JobCompleted,
	}); err != nil {
		return p.failParsing(ctx, engine, j, data.CVID, fmt.Errorf("persist parsing row: %w", err))
	}

	return engine.SetResult(ctx, j.ID, map[string]any{"versionId": v.ID, "cvId": data.CVID}, domain.EventParseCompleted)
}

func (p *Processors) failParsing(ctx context.Context, engine *queue.Engine, j domain.Job, cvID string, cause error) error {
	if cause == nil {
		return nil
	}
	if cvID != "" {
		if cv, err := p.CVs.FindByID(ctx, cvID); err == nil {
			cv.ParsingStatus = domain.ParsingFailed
			_ = p.CVs.Update(ctx, cv)
		}
	}
	return engine.SetError(ctx, j.ID, cause, domain.EventParseFailed)
}

// cancelOrErr turns a ReportProgress cancellation signal into the sentinel
// error every processor step surfaces up to its caller's SetError path.
func cancelOrErr(cancelRequested bool, err error) error {
	if err != nil {
		return err
	}
	if cancelRequested {
		return domain.ErrConflictf("job cancelled")
	}
	return nil
}
