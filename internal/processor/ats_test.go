package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
)

func TestATS_FormatCheckNeedsNoAICall(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueATS, map[string]any{"cvId": "cv1", "analysisType": domain.ATSFormatCheck})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1", Content: domain.Content{Summary: "x"}}, nil)
	h.ats.On("Upsert", mock.Anything, mock.MatchedBy(func(a domain.AtsAnalysis) bool {
		return a.Results.OverallScore == 100
	})).Return(nil)
	h.users.On("IncrementUsage", mock.Anything, "u1", "analyses", 1).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.ATS(context.Background(), h.engine, j)
	require.NoError(t, err)
	h.atsAI.AssertNotCalled(t, "CompleteJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestATS_CompatibilityCallsAI(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueATS, map[string]any{"cvId": "cv1", "analysisType": domain.ATSCompatibility})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1", Content: domain.Content{Summary: "x"}}, nil)
	h.atsAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 2048).
		Return(`{"score": 120, "issues": ["too long"], "breakdown": {"structure": 80, "formatting": 90}}`, nil)
	h.ats.On("Upsert", mock.Anything, mock.MatchedBy(func(a domain.AtsAnalysis) bool {
		return a.Results.OverallScore == 100 // clamped
	})).Return(nil)
	h.users.On("IncrementUsage", mock.Anything, "u1", "analyses", 1).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.ATS(context.Background(), h.engine, j)
	require.NoError(t, err)
}

func TestClampScore(t *testing.T) {
	require.Equal(t, 0.0, clampScore(-10))
	require.Equal(t, 100.0, clampScore(150))
	require.Equal(t, 42.0, clampScore(42))
}
