package processor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
)

func TestOptimization_HappyPath(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueOptimization, map[string]any{
		"cvId":         "cv1",
		"targetJob":    domain.TargetJob{Title: "Staff Engineer", Description: "Lead backend systems"},
		"instructions": "be concise",
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1", Content: domain.Content{Summary: "Engineer"}}, nil)
	h.optAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 4096).
		Return(`{"summary":"Staff engineer leading backend systems"}`, nil)
	h.versions.On("FindByContentHash", mock.Anything, "cv1", mock.Anything).Return(domain.CVVersion{}, assertNotFound)
	h.versions.On("NextVersionNumber", mock.Anything, "cv1").Return(2, nil)
	h.versions.On("CreateAndActivate", mock.Anything, mock.Anything).
		Return(domain.CVVersion{ID: "v2", CVID: "cv1", IsActive: true}, nil)
	h.users.On("IncrementUsage", mock.Anything, "u1", "enhancements", 1).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Optimization(context.Background(), h.engine, j)
	require.NoError(t, err)
}

func TestOptimization_NoChangeDoesNotActivate(t *testing.T) {
	p, h := newHarness()
	content := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}, Summary: "Engineer"}
	j := baseJob(domain.QueueOptimization, map[string]any{
		"cvId":      "cv1",
		"targetJob": domain.TargetJob{Title: "Engineer"},
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1", Content: content}, nil)
	h.optAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 4096).
		Return(`{"personal":{"name":"Jane Doe"},"summary":"Engineer"}`, nil)
	h.versions.On("FindByContentHash", mock.Anything, "cv1", mock.Anything).Return(domain.CVVersion{}, assertNotFound)
	h.versions.On("NextVersionNumber", mock.Anything, "cv1").Return(2, nil)
	h.versions.On("Create", mock.Anything, mock.Anything).Return("v2", nil)
	h.users.On("IncrementUsage", mock.Anything, "u1", "enhancements", 1).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Optimization(context.Background(), h.engine, j)
	require.NoError(t, err)
	h.versions.AssertNotCalled(t, "CreateAndActivate", mock.Anything, mock.Anything)
}

func TestOptimization_AIFailureIsTerminal(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueOptimization, map[string]any{"cvId": "cv1", "targetJob": domain.TargetJob{Title: "Engineer"}})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.optAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 4096).
		Return("", assertNotFound)
	h.broker.On("Nack", mock.Anything, "job1", false, mock.Anything).Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Optimization(context.Background(), h.engine, j)
	require.NoError(t, err)
}
