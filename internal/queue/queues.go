package queue

import (
	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
)

// QueueConfig is the static per-queue tuning the worker pool reads at
// startup: how many goroutines to run for it.
type QueueConfig struct {
	Name        domain.QueueName
	Concurrency int
}

// Queues returns the fixed C4 queue list sized from cfg, mirroring the
// teacher's per-queue worker-count environment knobs.
func Queues(cfg config.Config) []QueueConfig {
	return []QueueConfig{
		{Name: domain.QueueParsing, Concurrency: cfg.ParsingConcurrency},
		{Name: domain.QueueOptimization, Concurrency: cfg.OptimizationConcurrency},
		{Name: domain.QueueGeneration, Concurrency: cfg.GenerationConcurrency},
		{Name: domain.QueueATS, Concurrency: cfg.ATSConcurrency},
		{Name: domain.QueueWebhookDelivery, Concurrency: cfg.WebhookConcurrency},
	}
}
