package processor

import (
	"context"
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/llm"
	"github.com/cvenhancer/core/internal/queue"
	"github.com/cvenhancer/core/internal/version"
)

const optimizationTotalSteps = 3

type optimizationJobData struct {
	CVID         string           `json:"cvId"`
	TargetJob    domain.TargetJob `json:"targetJob"`
	Instructions string           `json:"instructions"`
}

// Optimization implements queue.Processor for §4.C5.2: rewrite the CV's
// active content against a target job description, stamping a new
// activated version unless the model's rewrite is identical to what's
// already active (§4.C7 NoChange).
func (p *Processors) Optimization(ctx context.Context, engine *queue.Engine, j domain.Job) error {
	var data optimizationJobData
	if err := decodeData(j.Data, &data); err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventOptimizeFailed)
	}

	if _, err := engine.ReportProgress(ctx, j.ID, 1, optimizationTotalSteps, "loading current content"); err != nil {
		return err
	}
	cv, err := p.CVs.FindByID(ctx, data.CVID)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventOptimizeFailed)
	}
	currentJSON, err := marshalContent(cv.Content)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventOptimizeFailed)
	}

	if cancel, err := engine.ReportProgress(ctx, j.ID, 2, optimizationTotalSteps, "optimizing with AI"); err != nil || cancel {
		if e := cancelOrErr(cancel, err); e != nil {
			return engine.SetError(ctx, j.ID, e, domain.EventOptimizeFailed)
		}
	}
	system, user, _, err := llm.Render("optimize", map[string]any{
		"jobTitle":       data.TargetJob.Title,
		"jobDescription": data.TargetJob.Description,
		"content":        currentJSON,
		"instructions":   data.Instructions,
	})
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventOptimizeFailed)
	}
	raw, err := p.OptimizeAI.CompleteJSON(ctx, system, user, 4096)
	if err != nil {
		return engine.SetError(ctx, j.ID, domain.Wrap(domain.CodeAIError, "AI optimize call failed", 502, err), domain.EventOptimizeFailed)
	}
	var optimized domain.Content
	if err := decodeJSON(raw, &optimized); err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventOptimizeFailed)
	}

	if cancel, err := engine.ReportProgress(ctx, j.ID, 3, optimizationTotalSteps, "saving version"); err != nil || cancel {
		if e := cancelOrErr(cancel, err); e != nil {
			return engine.SetError(ctx, j.ID, e, domain.EventOptimizeFailed)
		}
	}

	optimizedHash, currentHash := version.ContentHashOrNil(optimized), version.ContentHashOrNil(cv.Content)
	noChange := optimizedHash != nil && currentHash != nil && *optimizedHash == *currentHash

	v, err := p.Versions.CreateVersion(ctx, version.NewVersionParams{
		CVID:       data.CVID,
		Content:    optimized,
		ChangeType: domain.ChangeOptimization,
		Name:       fmt.Sprintf("Optimized for %s", data.TargetJob.Title),
		Confidence: 0.85,
		Activate:   !noChange,
	})
	if err != nil {
		return engine.SetError(ctx, j.ID, fmt.Errorf("create version: %w", err), domain.EventOptimizeFailed)
	}
	if p.Users != nil {
		if err := p.Users.IncrementUsage(ctx, j.UserID, "enhancements", 1); err != nil {
			return engine.SetError(ctx, j.ID, fmt.Errorf("increment usage: %w", err), domain.EventOptimizeFailed)
		}
	}

	// A no-change result is still success, not failure — result carries
	// noChange so subscribers don't mistake a stable rewrite for an error.
	result := map[string]any{"versionId": v.ID, "cvId": data.CVID, "noChange": noChange}
	return engine.SetResult(ctx, j.ID, result, domain.EventOptimizeCompleted)
}
