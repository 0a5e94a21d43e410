package postgres

import (
	"fmt"
	"time"

	"github.com/cvenhancer/core/internal/domain"
)

// WebhookRepo persists domain.Webhook under the "webhooks" collection.
type WebhookRepo struct {
	col  *Collection[domain.Webhook]
	pool PgxPool
}

// NewWebhookRepo constructs a WebhookRepo.
func NewWebhookRepo(pool PgxPool) *WebhookRepo {
	return &WebhookRepo{col: NewCollection[domain.Webhook](pool, "webhooks"), pool: pool}
}

// Create implements domain.WebhookRepository.
func (r *WebhookRepo) Create(ctx domain.Context, w domain.Webhook) (string, error) {
	if err := r.col.Insert(ctx, w.ID, w); err != nil {
		return "", fmt.Errorf("webhooks: create: %w", err)
	}
	return w.ID, nil
}

// FindByID implements domain.WebhookRepository.
func (r *WebhookRepo) FindByID(ctx domain.Context, id string) (domain.Webhook, error) {
	return r.col.FindByID(ctx, id)
}

// FindActiveByUser implements domain.WebhookRepository.
func (r *WebhookRepo) FindActiveByUser(ctx domain.Context, userID string) ([]domain.Webhook, error) {
	return r.col.Find(ctx, map[string]any{"userId": userID, "status": string(domain.WebhookActive)}, FindOptions{})
}

// FindActiveByEvent returns every active webhook subscribed to eventType,
// the matcher's entry point into C6 fan-out.
func (r *WebhookRepo) FindActiveByEvent(ctx domain.Context, eventType string) ([]domain.Webhook, error) {
	all, err := r.col.Find(ctx, map[string]any{"status": string(domain.WebhookActive)}, FindOptions{})
	if err != nil {
		return nil, err
	}
	var matched []domain.Webhook
	for _, w := range all {
		for _, evt := range w.Events {
			if evt == eventType {
				matched = append(matched, w)
				break
			}
		}
	}
	return matched, nil
}

// Update implements domain.WebhookRepository.
func (r *WebhookRepo) Update(ctx domain.Context, w domain.Webhook) error {
	return r.col.UpdateOne(ctx, w.ID, w)
}

// Delete implements domain.WebhookRepository.
func (r *WebhookRepo) Delete(ctx domain.Context, id string) error {
	return r.col.Delete(ctx, id)
}

// RecordDeliveryOutcome atomically updates the webhook's running delivery
// statistics and flips status per the circuit-breaker invariant (§4.C6):
// 5 consecutive failures suspends, a recovered successRate >= 0.8 clears it.
func (r *WebhookRepo) RecordDeliveryOutcome(ctx domain.Context, id string, success bool, at time.Time) error {
	w, err := r.col.FindByID(ctx, id)
	if err != nil {
		return err
	}
	w.DeliveryStats.Total++
	w.DeliveryStats.LastDeliveryAt = at
	if success {
		w.DeliveryStats.Success++
		w.DeliveryStats.ConsecutiveFailures = 0
		w.DeliveryStats.LastSuccessAt = at
	} else {
		w.DeliveryStats.Failure++
		w.DeliveryStats.ConsecutiveFailures++
	}
	if w.ShouldSuspend() {
		w.Status = domain.WebhookSuspended
	} else if w.ShouldClearSuspension() {
		w.Status = domain.WebhookActive
	}
	w.UpdatedAt = at
	return r.col.UpdateOne(ctx, id, w)
}
