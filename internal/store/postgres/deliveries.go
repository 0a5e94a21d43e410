package postgres

import (
	"fmt"
	"time"

	"github.com/cvenhancer/core/internal/domain"
)

// DeliveryRepo persists domain.WebhookDelivery under the "webhook_deliveries" collection.
type DeliveryRepo struct {
	col *Collection[domain.WebhookDelivery]
}

// NewDeliveryRepo constructs a DeliveryRepo.
func NewDeliveryRepo(pool PgxPool) *DeliveryRepo {
	return &DeliveryRepo{col: NewCollection[domain.WebhookDelivery](pool, "webhook_deliveries")}
}

// Create implements domain.DeliveryRepository.
func (r *DeliveryRepo) Create(ctx domain.Context, d domain.WebhookDelivery) (string, error) {
	if err := r.col.Insert(ctx, d.ID, d); err != nil {
		return "", fmt.Errorf("webhook_deliveries: create: %w", err)
	}
	return d.ID, nil
}

// FindByID implements domain.DeliveryRepository.
func (r *DeliveryRepo) FindByID(ctx domain.Context, id string) (domain.WebhookDelivery, error) {
	return r.col.FindByID(ctx, id)
}

// Update implements domain.DeliveryRepository.
func (r *DeliveryRepo) Update(ctx domain.Context, d domain.WebhookDelivery) error {
	return r.col.UpdateOne(ctx, d.ID, d)
}

// FindDueRetries implements domain.DeliveryRepository: deliveries in
// "retrying" status whose nextRetryAt has elapsed, capped at limit rows per
// sweep so one dispatcher tick can't starve other queues.
func (r *DeliveryRepo) FindDueRetries(ctx domain.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error) {
	all, err := r.col.Find(ctx, map[string]any{"status": string(domain.DeliveryRetrying)}, FindOptions{
		SortBy: "doc->>'nextRetryAt'", Limit: limit * 4, // over-fetch; filter client-side on exact time comparison
	})
	if err != nil {
		return nil, err
	}
	var due []domain.WebhookDelivery
	for _, d := range all {
		if !d.NextRetryAt.After(now) {
			due = append(due, d)
			if len(due) >= limit {
				break
			}
		}
	}
	return due, nil
}

// FindByWebhook implements domain.DeliveryRepository's webhook.deliveries
// surface: newest first, paginated.
func (r *DeliveryRepo) FindByWebhook(ctx domain.Context, webhookID string, limit, offset int) ([]domain.WebhookDelivery, error) {
	return r.col.Find(ctx, map[string]any{"webhookId": webhookID}, FindOptions{
		SortBy: "doc->>'createdAt'", Desc: true, Limit: limit, Skip: offset,
	})
}
