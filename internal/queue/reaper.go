package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/cvenhancer/core/internal/domain"
)

// Reaper periodically sweeps every queue's processing set for leases whose
// worker never acked or nacked in time — most likely because the worker
// process died mid-job — and routes them back through Engine.SetError so
// the usual retry/terminal-failure decision applies uniformly. Grounded on
// the teacher's app.NewStuckJobSweeper (internal/app/stuck_jobs.go), which
// polls Postgres directly for jobs stuck processing past a timeout; this
// sweeps the Redis lease instead since that's where the deadline lives,
// but reconciles state through the same Engine.SetError path a normal
// worker failure would take.
type Reaper struct {
	engine   *Engine
	broker   *Broker
	interval time.Duration
}

// NewReaper builds a Reaper. interval should be shorter than the broker's
// visibility timeout so an expired lease is noticed promptly.
func NewReaper(engine *Engine, broker *Broker, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Reaper{engine: engine, broker: broker, interval: interval}
}

// Run blocks, sweeping on each tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	for _, q := range domain.AllQueues {
		ids, err := r.broker.ExpiredLeases(ctx, q)
		if err != nil {
			slog.Error("reaper: list expired leases failed", slog.String("queue", string(q)), slog.Any("error", err))
			continue
		}
		for _, jobID := range ids {
			cause := domain.NewError(domain.CodeJobTimeout, "worker lease expired before the job finished", 504).WithRetry(0)
			if err := r.engine.SetError(ctx, jobID, cause, ""); err != nil {
				slog.Error("reaper: requeue failed", slog.String("job_id", jobID), slog.Any("error", err))
			} else {
				slog.Warn("reaper: requeued stuck job", slog.String("queue", string(q)), slog.String("job_id", jobID))
			}
		}
	}
}
