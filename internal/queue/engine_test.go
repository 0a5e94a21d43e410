package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/domain/mocks"
)

func newTestEngine() (*Engine, *mocks.MockJobRepository, *mocks.MockQueue, *mocks.MockEventPublisher) {
	jobs := &mocks.MockJobRepository{}
	broker := &mocks.MockQueue{}
	events := &mocks.MockEventPublisher{}
	cfg := config.Config{RetryMaxRetries: 3, RetryMaxDelay: time.Minute, RetryMultiplier: 2}
	return NewEngine(jobs, broker, events, cfg), jobs, broker, events
}

func TestEngine_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a fresh job", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		jobs.On("Create", ctx, mock.Anything).Return("job1", nil)
		broker.On("Enqueue", ctx, mock.Anything).Return("job1", nil)

		j, err := engine.Create(ctx, domain.QueueParsing, "u1", map[string]any{"a": 1}, 0, "")
		require.NoError(t, err)
		require.Equal(t, domain.JobPending, j.Status)
		require.Equal(t, domain.QueueParsing, j.Type)
	})

	t.Run("dedup key returns the in-flight job instead of creating", func(t *testing.T) {
		engine, jobs, _, _ := newTestEngine()
		existing := domain.Job{ID: "existing", Status: domain.JobProcessing}
		jobs.On("FindByDedupKey", ctx, "dk1").Return(existing, nil)

		j, err := engine.Create(ctx, domain.QueueParsing, "u1", nil, 0, "dk1")
		require.NoError(t, err)
		require.Equal(t, "existing", j.ID)
		jobs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("dedup key ignored once the prior job reached a terminal state", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		done := domain.Job{ID: "done", Status: domain.JobCompleted}
		jobs.On("FindByDedupKey", ctx, "dk1").Return(done, nil)
		jobs.On("Create", ctx, mock.Anything).Return("job2", nil)
		broker.On("Enqueue", ctx, mock.Anything).Return("job2", nil)

		j, err := engine.Create(ctx, domain.QueueParsing, "u1", nil, 0, "dk1")
		require.NoError(t, err)
		require.NotEqual(t, "done", j.ID)
	})
}

func TestEngine_Fetch(t *testing.T) {
	ctx := context.Background()

	t.Run("no job ready", func(t *testing.T) {
		engine, _, broker, _ := newTestEngine()
		broker.On("Fetch", ctx, domain.QueueParsing).Return(domain.Job{}, false, nil)

		_, ok, err := engine.Fetch(ctx, domain.QueueParsing)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("broker and postgres agree", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		leased := domain.Job{ID: "job1"}
		broker.On("Fetch", ctx, domain.QueueParsing).Return(leased, true, nil)
		jobs.On("AtomicFindAndModify", ctx, domain.QueueParsing, mock.Anything).
			Return(domain.Job{ID: "job1", Status: domain.JobProcessing}, true, nil)

		j, ok, err := engine.Fetch(ctx, domain.QueueParsing)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "job1", j.ID)
	})
}

func TestEngine_SetResult(t *testing.T) {
	ctx := context.Background()
	engine, jobs, broker, events := newTestEngine()
	jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", UserID: "u1", Type: domain.QueueParsing}, nil)
	jobs.On("Update", ctx, mock.Anything).Return(nil)
	broker.On("Ack", ctx, "job1").Return(nil)
	events.On("Publish", ctx, mock.Anything).Return(nil)

	err := engine.SetResult(ctx, "job1", map[string]any{"ok": true}, "parsing.completed")
	require.NoError(t, err)
	events.AssertCalled(t, "Publish", ctx, mock.MatchedBy(func(evt domain.DomainEvent) bool {
		return evt.Type == "parsing.completed" && evt.JobID == "job1"
	}))
}

func TestEngine_SetError(t *testing.T) {
	ctx := context.Background()

	t.Run("retryable error reschedules the job", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", RetryCount: 0, MaxRetries: 3}, nil)
		jobs.On("Update", ctx, mock.Anything).Return(nil)
		broker.On("Nack", ctx, "job1", true, mock.Anything).Return(nil)

		err := engine.SetError(ctx, "job1", errors.New("connection refused"), "")
		require.NoError(t, err)
		jobs.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(j domain.Job) bool {
			return j.Status == domain.JobPending && j.RetryCount == 1
		}))
	})

	t.Run("retries exhausted marks the job permanently failed", func(t *testing.T) {
		engine, jobs, broker, events := newTestEngine()
		jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", RetryCount: 3, MaxRetries: 3}, nil)
		jobs.On("Update", ctx, mock.Anything).Return(nil)
		broker.On("Nack", ctx, "job1", false, time.Duration(0)).Return(nil)
		events.On("Publish", ctx, mock.Anything).Return(nil)

		err := engine.SetError(ctx, "job1", errors.New("connection refused"), "parsing.failed")
		require.NoError(t, err)
		jobs.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(j domain.Job) bool {
			return j.Status == domain.JobFailed
		}))
	})

	t.Run("non-retryable error fails immediately regardless of budget", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", RetryCount: 0, MaxRetries: 3}, nil)
		jobs.On("Update", ctx, mock.Anything).Return(nil)
		broker.On("Nack", ctx, "job1", false, time.Duration(0)).Return(nil)

		err := engine.SetError(ctx, "job1", errors.New("invalid argument: bad input"), "")
		require.NoError(t, err)
		jobs.AssertCalled(t, "Update", ctx, mock.MatchedBy(func(j domain.Job) bool {
			return j.Status == domain.JobFailed
		}))
	})
}

func TestEngine_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("pending job cancels outright", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", Status: domain.JobPending}, nil)
		jobs.On("Update", ctx, mock.Anything).Return(nil)
		broker.On("Cancel", ctx, "job1").Return(nil)

		require.NoError(t, engine.Cancel(ctx, "job1"))
	})

	t.Run("processing job is flagged, not removed", func(t *testing.T) {
		engine, jobs, _, _ := newTestEngine()
		jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", Status: domain.JobProcessing}, nil)
		jobs.On("Update", ctx, mock.MatchedBy(func(j domain.Job) bool { return j.CancelRequested })).Return(nil)

		require.NoError(t, engine.Cancel(ctx, "job1"))
	})

	t.Run("terminal job is a no-op", func(t *testing.T) {
		engine, jobs, _, _ := newTestEngine()
		jobs.On("FindByID", ctx, "job1").Return(domain.Job{ID: "job1", Status: domain.JobCompleted}, nil)

		require.NoError(t, engine.Cancel(ctx, "job1"))
		jobs.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestEngine_Retry(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects a non-terminal job", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		_, err := engine.Retry(ctx, domain.Job{ID: "job1", Status: domain.JobProcessing})
		require.Error(t, err)
	})

	t.Run("rejects retrying a completed job", func(t *testing.T) {
		engine, _, _, _ := newTestEngine()
		_, err := engine.Retry(ctx, domain.Job{ID: "job1", Status: domain.JobCompleted})
		require.Error(t, err)
	})

	t.Run("creates a fresh job pointing at the original", func(t *testing.T) {
		engine, jobs, broker, _ := newTestEngine()
		jobs.On("Create", ctx, mock.Anything).Return("job2", nil)
		broker.On("Enqueue", ctx, mock.Anything).Return("job2", nil)

		original := domain.Job{ID: "job1", Status: domain.JobFailed, Type: domain.QueueATS}
		j, err := engine.Retry(ctx, original)
		require.NoError(t, err)
		require.Equal(t, "job1", j.RetryOf)
		require.Equal(t, domain.JobPending, j.Status)
	})
}
