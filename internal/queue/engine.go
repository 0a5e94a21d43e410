package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/observability"
)

// Engine is the C4 job engine: Postgres (domain.JobRepository) remains the
// system of record for job state, while the Redis domain.Queue only tracks
// which job ids are ready to lease. Every state transition is written to
// Postgres first so a crashed broker never loses a job's history.
type Engine struct {
	jobs   domain.JobRepository
	broker domain.Queue
	events domain.EventPublisher
	cfg    config.Config
}

// NewEngine constructs an Engine.
func NewEngine(jobs domain.JobRepository, broker domain.Queue, events domain.EventPublisher, cfg config.Config) *Engine {
	return &Engine{jobs: jobs, broker: broker, events: events, cfg: cfg}
}

// Create implements §4.C4 job creation: dedup-key lookup short-circuits to
// the existing job when a matching one is still in flight, otherwise a new
// pending Job is persisted and handed to the broker.
func (e *Engine) Create(ctx domain.Context, queueName domain.QueueName, userID string, data map[string]any, priority int, dedupKey string) (domain.Job, error) {
	if dedupKey != "" {
		existing, err := e.jobs.FindByDedupKey(ctx, dedupKey)
		if err == nil && !existing.Status.IsTerminal() {
			return existing, nil
		}
	}
	j := domain.Job{
		ID:         uuid.NewString(),
		Type:       queueName,
		UserID:     userID,
		Status:     domain.JobPending,
		Priority:   priority,
		Data:       data,
		QueuedAt:   time.Now(),
		MaxRetries: e.cfg.RetryMaxRetries,
		DedupKey:   dedupKey,
	}
	if _, err := e.jobs.Create(ctx, j); err != nil {
		return domain.Job{}, fmt.Errorf("queue: create job: %w", err)
	}
	if _, err := e.broker.Enqueue(ctx, j); err != nil {
		return domain.Job{}, fmt.Errorf("queue: enqueue job: %w", err)
	}
	observability.EnqueueJob(string(queueName))
	return j, nil
}

// Fetch leases the next ready job for queueName, stamping it processing in
// Postgres via AtomicFindAndModify so two workers racing on the same
// broker-leased id still only get one winner.
func (e *Engine) Fetch(ctx domain.Context, queueName domain.QueueName) (domain.Job, bool, error) {
	leased, ok, err := e.broker.Fetch(ctx, queueName)
	if err != nil || !ok {
		return domain.Job{}, false, err
	}
	j, ok, err := e.jobs.AtomicFindAndModify(ctx, queueName, time.Now())
	if err != nil {
		return domain.Job{}, false, fmt.Errorf("queue: lease postgres record: %w", err)
	}
	if !ok || j.ID != leased.ID {
		// Broker and Postgres disagreed on which job is next-ready (a retry
		// requeue raced the lease); fall back to whichever Postgres granted.
		if ok {
			observability.StartProcessingJob(string(queueName))
			return j, true, nil
		}
		return domain.Job{}, false, nil
	}
	observability.StartProcessingJob(string(queueName))
	return j, true, nil
}

// ReportProgress implements §4.C5's progress checkpoint: persists progress
// and current step, and signals whether the caller should abort because
// cancellation was requested mid-run.
func (e *Engine) ReportProgress(ctx domain.Context, jobID string, stepDone, totalSteps int, step string) (cancelRequested bool, err error) {
	j, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return false, err
	}
	j.Progress = domain.ComputeProgress(stepDone, totalSteps)
	j.TotalSteps = totalSteps
	j.CurrentStep = step
	if err := e.jobs.Update(ctx, j); err != nil {
		return j.CancelRequested, err
	}
	return j.CancelRequested, nil
}

// SetResult marks jobID completed with result, acks it off the broker, and
// publishes its completion event.
func (e *Engine) SetResult(ctx domain.Context, jobID string, result map[string]any, completedEvent string) error {
	j, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	j.Status = domain.JobCompleted
	j.Result = result
	j.Progress = 100
	j.CompletedAt = time.Now()
	if err := e.jobs.Update(ctx, j); err != nil {
		return fmt.Errorf("queue: set result: %w", err)
	}
	if err := e.broker.Ack(ctx, jobID); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	if e.events != nil && completedEvent != "" {
		_ = e.events.Publish(ctx, domain.DomainEvent{
			Type: completedEvent, UserID: j.UserID, JobID: j.ID, JobType: string(j.Type), EmittedAt: time.Now(),
		})
	}
	observability.CompleteJob(string(j.Type))
	return nil
}

// SetError implements §4.C4's retry/fail decision: classifies causeErr as
// retryable or terminal, and either reinserts the job into the broker after
// a backoff delay or marks it permanently failed.
func (e *Engine) SetError(ctx domain.Context, jobID string, causeErr error, failedEvent string) error {
	j, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	retryable := IsRetryable(causeErr, j.RetryCount, j.MaxRetries)
	now := time.Now()
	if len(j.Attempts) > 0 {
		j.Attempts[len(j.Attempts)-1].FinishedAt = now
		j.Attempts[len(j.Attempts)-1].Error = causeErr.Error()
		j.Attempts[len(j.Attempts)-1].Retryable = retryable
	}
	j.Error = &domain.JobError{Code: domain.CodeOf(causeErr), Message: causeErr.Error()}

	if retryable {
		j.Status = domain.JobPending
		j.RetryCount++
		j.QueuedAt = now
		if err := e.jobs.Update(ctx, j); err != nil {
			return fmt.Errorf("queue: set error (retry): %w", err)
		}
		delay := BackoffDelay(e.cfg, j.RetryCount-1)
		return e.broker.Nack(ctx, jobID, true, delay)
	}

	j.Status = domain.JobFailed
	j.CompletedAt = now
	if err := e.jobs.Update(ctx, j); err != nil {
		return fmt.Errorf("queue: set error (terminal): %w", err)
	}
	if err := e.broker.Nack(ctx, jobID, false, 0); err != nil {
		return fmt.Errorf("queue: nack terminal: %w", err)
	}
	if e.events != nil && failedEvent != "" {
		_ = e.events.Publish(ctx, domain.DomainEvent{
			Type: failedEvent, UserID: j.UserID, JobID: j.ID, JobType: string(j.Type), EmittedAt: now,
			Extra: map[string]any{"error": causeErr.Error()},
		})
	}
	observability.FailJob(string(j.Type))
	return nil
}

// Cancel implements §4.C4 cooperative cancellation: a still-pending job is
// removed outright; a processing job is flagged so its worker observes
// CancelRequested at the next ReportProgress checkpoint.
func (e *Engine) Cancel(ctx domain.Context, jobID string) error {
	j, err := e.jobs.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status.IsTerminal() {
		return nil
	}
	if j.Status == domain.JobPending {
		j.Status = domain.JobCancelled
		j.CompletedAt = time.Now()
		if err := e.jobs.Update(ctx, j); err != nil {
			return err
		}
		return e.broker.Cancel(ctx, jobID)
	}
	j.CancelRequested = true
	return e.jobs.Update(ctx, j)
}

// Retry implements §4.C4's explicit user-triggered retry of a failed job: a
// fresh Job is created with RetryOf pointing at the original, independent of
// the exhausted job's own retry budget.
func (e *Engine) Retry(ctx domain.Context, original domain.Job) (domain.Job, error) {
	if !original.Status.IsTerminal() || original.Status == domain.JobCompleted {
		return domain.Job{}, domain.ErrConflictf("only a failed, cancelled, or timed-out job can be retried")
	}
	j := domain.Job{
		ID:         uuid.NewString(),
		Type:       original.Type,
		UserID:     original.UserID,
		Status:     domain.JobPending,
		Priority:   original.Priority,
		Data:       original.Data,
		QueuedAt:   time.Now(),
		MaxRetries: original.MaxRetries,
		RetryOf:    original.ID,
	}
	if _, err := e.jobs.Create(ctx, j); err != nil {
		return domain.Job{}, fmt.Errorf("queue: retry create: %w", err)
	}
	if _, err := e.broker.Enqueue(ctx, j); err != nil {
		return domain.Job{}, fmt.Errorf("queue: retry enqueue: %w", err)
	}
	return j, nil
}
