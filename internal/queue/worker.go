package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
)

// Processor handles one leased Job to completion, reporting progress and
// errors back through engine itself (ReportProgress/SetResult/SetError).
type Processor func(ctx context.Context, engine *Engine, j domain.Job) error

// Pool runs a fixed number of poll goroutines per queue, each leasing jobs
// from Engine and handing them to the queue's registered Processor.
type Pool struct {
	engine       *Engine
	pollInterval time.Duration
	jobTimeout   time.Duration
	processors   map[domain.QueueName]Processor
	concurrency  map[domain.QueueName]int

	wg sync.WaitGroup
}

// NewPool builds a worker Pool sized from cfg.
func NewPool(engine *Engine, cfg config.Config) *Pool {
	conc := map[domain.QueueName]int{}
	for _, q := range Queues(cfg) {
		conc[q.Name] = q.Concurrency
	}
	return &Pool{
		engine:       engine,
		pollInterval: cfg.WorkerPollInterval,
		jobTimeout:   cfg.JobTimeout,
		processors:   map[domain.QueueName]Processor{},
		concurrency:  conc,
	}
}

// Register attaches the Processor that handles jobs of queueName.
func (p *Pool) Register(queueName domain.QueueName, proc Processor) {
	p.processors[queueName] = proc
}

// Run starts every registered queue's poll goroutines and blocks until ctx
// is cancelled, then waits for in-flight jobs to finish.
func (p *Pool) Run(ctx context.Context) {
	for queueName, proc := range p.processors {
		n := p.concurrency[queueName]
		if n <= 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			p.wg.Add(1)
			go p.loop(ctx, queueName, proc)
		}
	}
	<-ctx.Done()
	p.wg.Wait()
}

func (p *Pool) loop(ctx context.Context, queueName domain.QueueName, proc Processor) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx, queueName, proc)
		}
	}
}

func (p *Pool) tick(ctx context.Context, queueName domain.QueueName, proc Processor) {
	j, ok, err := p.engine.Fetch(ctx, queueName)
	if err != nil {
		slog.Error("queue fetch failed", slog.String("queue", string(queueName)), slog.Any("error", err))
		return
	}
	if !ok {
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()

	log := slog.With(slog.String("queue", string(queueName)), slog.String("job_id", j.ID))
	log.Info("job picked up")
	if err := proc(runCtx, p.engine, j); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			err = domain.NewError(domain.CodeJobTimeout, "job exceeded its time budget", 504).WithRetry(0)
		}
		log.Error("job failed", slog.Any("error", err))
		if setErr := p.engine.SetError(ctx, j.ID, err, ""); setErr != nil {
			log.Error("failed to record job error", slog.Any("error", setErr))
		}
		return
	}
	log.Info("job completed")
}
