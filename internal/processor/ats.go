package processor

import (
	"context"
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/llm"
	"github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

type atsJobData struct {
	CVID      string                 `json:"cvId"`
	Type      domain.ATSAnalysisType `json:"analysisType"`
	TargetJob domain.TargetJob       `json:"targetJob"`
}

type compatibilityResponse struct {
	Score     float64            `json:"score"`
	Issues    []string           `json:"issues"`
	Breakdown map[string]float64 `json:"breakdown"`
}

type keywordResponse struct {
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matchedKeywords"`
	MissingKeywords []string `json:"missingKeywords"`
}

type comprehensiveResponse struct {
	OverallScore  float64 `json:"overallScore"`
	Compatibility struct {
		Score  float64  `json:"score"`
		Issues []string `json:"issues"`
	} `json:"compatibility"`
	Keywords struct {
		Score           float64  `json:"score"`
		MatchedKeywords []string `json:"matchedKeywords"`
		MissingKeywords []string `json:"missingKeywords"`
	} `json:"keywords"`
	JobFit struct {
		Score   float64 `json:"score"`
		Summary string  `json:"summary"`
	} `json:"jobFit"`
}

// ATS implements queue.Processor for §4.C5.3: runs the subset of ATS steps
// named by analysisType, reporting progress out of ATSAnalysisType.StepCount;
// format-check makes no AI call and every other type makes one.
func (p *Processors) ATS(ctx context.Context, engine *queue.Engine, j domain.Job) error {
	var data atsJobData
	if err := decodeData(j.Data, &data); err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventATSFailed)
	}
	totalSteps := data.Type.StepCount()

	if _, err := engine.ReportProgress(ctx, j.ID, 1, totalSteps, "loading content"); err != nil {
		return err
	}
	cv, err := p.CVs.FindByID(ctx, data.CVID)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventATSFailed)
	}
	contentJSON, err := marshalContent(cv.Content)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventATSFailed)
	}

	var results domain.ATSResults
	switch data.Type {
	case domain.ATSKeywordAnalysis:
		results, err = p.runKeywordAnalysis(ctx, engine, j.ID, totalSteps, contentJSON, data.TargetJob)
	case domain.ATSComprehensive:
		results, err = p.runComprehensive(ctx, engine, j.ID, totalSteps, contentJSON, data.TargetJob)
	case domain.ATSFormatCheck:
		results, err = p.runFormatCheck(ctx, engine, j.ID, totalSteps, contentJSON)
	default: // domain.ATSCompatibility
		results, err = p.runCompatibility(ctx, engine, j.ID, totalSteps, contentJSON)
	}
	if err != nil {
		return engine.SetError(ctx, j.ID, err, domain.EventATSFailed)
	}

	if err := p.ATSRepo.Upsert(ctx, domain.AtsAnalysis{
		JobID:         j.ID,
		UserID:        j.UserID,
		CVID:          data.CVID,
		Type:          data.Type,
		TargetJob:     data.TargetJob,
		InputSnapshot: cv.Content,
		Results:       results,
		Status:        domain.JobCompleted,
	}); err != nil {
		return engine.SetError(ctx, j.ID, fmt.Errorf("persist ats row: %w", err), domain.EventATSFailed)
	}
	if p.Users != nil {
		if err := p.Users.IncrementUsage(ctx, j.UserID, "analyses", 1); err != nil {
			return engine.SetError(ctx, j.ID, fmt.Errorf("increment usage: %w", err), domain.EventATSFailed)
		}
	}

	score := results.OverallScore
	observability.ObserveATSScore(score)
	return engine.SetResult(ctx, j.ID, map[string]any{"cvId": data.CVID, "overallScore": score}, domain.EventATSCompleted)
}

func (p *Processors) runCompatibility(ctx context.Context, engine *queue.Engine, jobID string, total int, contentJSON string) (domain.ATSResults, error) {
	if cancel, err := engine.ReportProgress(ctx, jobID, 2, total, "scoring compatibility"); err != nil || cancel {
		return domain.ATSResults{}, cancelOrErr(cancel, err)
	}
	system, user, _, err := llm.Render("ats_compatibility", map[string]any{"content": contentJSON})
	if err != nil {
		return domain.ATSResults{}, err
	}
	raw, err := p.ATSAI.CompleteJSON(ctx, system, user, 2048)
	if err != nil {
		return domain.ATSResults{}, domain.Wrap(domain.CodeAIError, "AI compatibility call failed", 502, err)
	}
	var resp compatibilityResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return domain.ATSResults{}, err
	}
	if _, err := engine.ReportProgress(ctx, jobID, 3, total, "finalizing"); err != nil {
		return domain.ATSResults{}, err
	}
	return domain.ATSResults{
		OverallScore: clampScore(resp.Score),
		Weaknesses:   resp.Issues,
		Breakdown: domain.ATSBreakdown{
			Structure:  resp.Breakdown["structure"],
			Formatting: resp.Breakdown["formatting"],
		},
	}, nil
}

func (p *Processors) runKeywordAnalysis(ctx context.Context, engine *queue.Engine, jobID string, total int, contentJSON string, target domain.TargetJob) (domain.ATSResults, error) {
	if cancel, err := engine.ReportProgress(ctx, jobID, 2, total, "matching keywords"); err != nil || cancel {
		return domain.ATSResults{}, cancelOrErr(cancel, err)
	}
	system, user, _, err := llm.Render("ats_keyword_analysis", map[string]any{
		"content":        contentJSON,
		"jobDescription": target.Description,
	})
	if err != nil {
		return domain.ATSResults{}, err
	}
	raw, err := p.ATSAI.CompleteJSON(ctx, system, user, 2048)
	if err != nil {
		return domain.ATSResults{}, domain.Wrap(domain.CodeAIError, "AI keyword analysis call failed", 502, err)
	}
	var resp keywordResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return domain.ATSResults{}, err
	}
	return domain.ATSResults{
		OverallScore:    clampScore(resp.Score),
		KeywordMatch:    clampScore(resp.Score),
		MissingKeywords: resp.MissingKeywords,
	}, nil
}

func (p *Processors) runFormatCheck(ctx context.Context, engine *queue.Engine, jobID string, total int, contentJSON string) (domain.ATSResults, error) {
	if cancel, err := engine.ReportProgress(ctx, jobID, 1, total, "checking format"); err != nil || cancel {
		return domain.ATSResults{}, cancelOrErr(cancel, err)
	}
	// Format-check needs no AI call: it scores 0 when the marshalled Content
	// is empty and 100 otherwise; individual sections are not checked.
	score := 100.0
	var issues []string
	if contentJSON == "{}" || contentJSON == "" {
		score = 0
		issues = append(issues, "content is empty")
	}
	return domain.ATSResults{OverallScore: score, Weaknesses: issues}, nil
}

func (p *Processors) runComprehensive(ctx context.Context, engine *queue.Engine, jobID string, total int, contentJSON string, target domain.TargetJob) (domain.ATSResults, error) {
	if cancel, err := engine.ReportProgress(ctx, jobID, 2, total, "compatibility pass"); err != nil || cancel {
		return domain.ATSResults{}, cancelOrErr(cancel, err)
	}
	system, user, _, err := llm.Render("ats_comprehensive", map[string]any{
		"content":        contentJSON,
		"jobTitle":       target.Title,
		"jobDescription": target.Description,
	})
	if err != nil {
		return domain.ATSResults{}, err
	}
	if _, err := engine.ReportProgress(ctx, jobID, 3, total, "keyword pass"); err != nil {
		return domain.ATSResults{}, err
	}
	raw, err := p.ATSAI.CompleteJSON(ctx, system, user, 3072)
	if err != nil {
		return domain.ATSResults{}, domain.Wrap(domain.CodeAIError, "AI comprehensive call failed", 502, err)
	}
	var resp comprehensiveResponse
	if err := decodeJSON(raw, &resp); err != nil {
		return domain.ATSResults{}, err
	}
	if _, err := engine.ReportProgress(ctx, jobID, 4, total, "job-fit pass"); err != nil {
		return domain.ATSResults{}, err
	}
	if _, err := engine.ReportProgress(ctx, jobID, 5, total, "finalizing"); err != nil {
		return domain.ATSResults{}, err
	}
	return domain.ATSResults{
		OverallScore:    clampScore(resp.OverallScore),
		KeywordMatch:    clampScore(resp.Keywords.Score),
		MissingKeywords: resp.Keywords.MissingKeywords,
		Weaknesses:      resp.Compatibility.Issues,
		JobCompatibility: domain.JobCompatibility{
			Score: clampScore(resp.JobFit.Score),
		},
	}, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
