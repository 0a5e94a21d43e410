package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/domain/mocks"
)

func TestReaper_SweepRequeuesExpiredLease(t *testing.T) {
	broker, cleanup := newTestBroker(t)
	defer cleanup()
	broker.visibilityTime = -time.Second
	ctx := context.Background()

	_, err := broker.Enqueue(ctx, domain.Job{ID: "job1", Type: domain.QueueParsing, QueuedAt: time.Now()})
	require.NoError(t, err)
	_, ok, err := broker.Fetch(ctx, domain.QueueParsing)
	require.NoError(t, err)
	require.True(t, ok)

	jobs := &mocks.MockJobRepository{}
	jobs.On("FindByID", mock.Anything, "job1").
		Return(domain.Job{ID: "job1", Status: domain.JobProcessing, RetryCount: 0, MaxRetries: 3}, nil)
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil)

	events := &mocks.MockEventPublisher{}
	engine := NewEngine(jobs, broker, events, config.Config{RetryMaxDelay: time.Minute, RetryMultiplier: 2})

	reaper := NewReaper(engine, broker, time.Second)
	reaper.sweep(ctx)

	jobs.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(j domain.Job) bool {
		return j.Status == domain.JobPending && j.RetryCount == 1
	}))
}

func TestReaper_SweepNoExpiredLeases(t *testing.T) {
	broker, cleanup := newTestBroker(t)
	defer cleanup()
	ctx := context.Background()

	jobs := &mocks.MockJobRepository{}
	events := &mocks.MockEventPublisher{}
	engine := NewEngine(jobs, broker, events, config.Config{})

	reaper := NewReaper(engine, broker, time.Second)
	reaper.sweep(ctx)

	jobs.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestNewReaper_DefaultsInterval(t *testing.T) {
	r := NewReaper(nil, nil, 0)
	require.Equal(t, 30*time.Second, r.interval)
}
