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

func newTestPool(cfg config.Config) (*Pool, *mocks.MockJobRepository, *mocks.MockQueue) {
	jobs := &mocks.MockJobRepository{}
	broker := &mocks.MockQueue{}
	events := &mocks.MockEventPublisher{}
	engine := NewEngine(jobs, broker, events, cfg)
	return NewPool(engine, cfg), jobs, broker
}

func TestPool_Register(t *testing.T) {
	pool, _, _ := newTestPool(config.Config{})
	var called bool
	pool.Register(domain.QueueParsing, func(ctx context.Context, engine *Engine, j domain.Job) error {
		called = true
		return nil
	})
	require.Contains(t, pool.processors, domain.QueueParsing)
	require.NoError(t, pool.processors[domain.QueueParsing](context.Background(), nil, domain.Job{}))
	require.True(t, called)
}

func TestPool_Tick_NoJobReady(t *testing.T) {
	pool, _, broker := newTestPool(config.Config{JobTimeout: time.Second})
	broker.On("Fetch", mock.Anything, domain.QueueParsing).Return(domain.Job{}, false, nil)

	var ran bool
	pool.tick(context.Background(), domain.QueueParsing, func(ctx context.Context, engine *Engine, j domain.Job) error {
		ran = true
		return nil
	})
	require.False(t, ran)
}

func TestPool_Tick_ProcessorSucceeds(t *testing.T) {
	pool, _, broker := newTestPool(config.Config{JobTimeout: time.Second})
	broker.On("Fetch", mock.Anything, domain.QueueParsing).Return(domain.Job{ID: "job1"}, true, nil)

	var ran bool
	pool.tick(context.Background(), domain.QueueParsing, func(ctx context.Context, engine *Engine, j domain.Job) error {
		ran = true
		require.Equal(t, "job1", j.ID)
		return nil
	})
	require.True(t, ran)
}

func TestPool_Tick_ProcessorErrorRecordsFailure(t *testing.T) {
	pool, jobs, broker := newTestPool(config.Config{JobTimeout: time.Second, RetryMaxRetries: 3})
	broker.On("Fetch", mock.Anything, domain.QueueParsing).Return(domain.Job{ID: "job1", RetryCount: 0, MaxRetries: 3}, true, nil)
	jobs.On("FindByID", mock.Anything, "job1").Return(domain.Job{ID: "job1", RetryCount: 0, MaxRetries: 3}, nil)
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	broker.On("Nack", mock.Anything, "job1", mock.Anything, mock.Anything).Return(nil)

	pool.tick(context.Background(), domain.QueueParsing, func(ctx context.Context, engine *Engine, j domain.Job) error {
		return errors.New("connection refused")
	})

	jobs.AssertCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPool_Tick_ProcessorTimeoutClassifiedAsJobTimeout(t *testing.T) {
	pool, jobs, broker := newTestPool(config.Config{JobTimeout: time.Millisecond, RetryMaxRetries: 3})
	broker.On("Fetch", mock.Anything, domain.QueueParsing).Return(domain.Job{ID: "job1"}, true, nil)
	jobs.On("FindByID", mock.Anything, "job1").Return(domain.Job{ID: "job1", RetryCount: 0, MaxRetries: 3}, nil)
	jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	broker.On("Nack", mock.Anything, "job1", mock.Anything, mock.Anything).Return(nil)

	pool.tick(context.Background(), domain.QueueParsing, func(ctx context.Context, engine *Engine, j domain.Job) error {
		<-ctx.Done()
		return ctx.Err()
	})

	jobs.AssertCalled(t, "FindByID", mock.Anything, "job1")
	jobs.AssertCalled(t, "Update", mock.Anything, mock.MatchedBy(func(j domain.Job) bool {
		return j.Error != nil && j.Error.Code == domain.CodeJobTimeout
	}))
}
