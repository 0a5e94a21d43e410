package service

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/cvenhancer/core/internal/domain"
	obsctx "github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/webhook"
)

// WebhookService implements the §6
// webhook.{create,update,delete,list,test,stats,deliveries,retryDelivery}
// surface.
type WebhookService struct {
	Webhooks   domain.WebhookRepository
	Deliveries domain.DeliveryRepository
	Dispatcher *webhook.Dispatcher
}

// NewWebhookService constructs a WebhookService.
func NewWebhookService(webhooks domain.WebhookRepository, deliveries domain.DeliveryRepository, dispatcher *webhook.Dispatcher) *WebhookService {
	return &WebhookService{Webhooks: webhooks, Deliveries: deliveries, Dispatcher: dispatcher}
}

// CreateParams is the caller-supplied subset of Webhook fields the
// webhook.create call accepts; everything else is server-assigned.
type CreateParams struct {
	URL         string
	Events      []string
	RetryPolicy domain.RetryPolicy
	Timeout     time.Duration
	Filters     domain.WebhookFilters
	Headers     map[string]string
}

func (p CreateParams) withDefaults() CreateParams {
	if p.RetryPolicy.MaxRetries <= 0 {
		p.RetryPolicy.MaxRetries = 3
	}
	if p.RetryPolicy.MaxRetries > 6 {
		p.RetryPolicy.MaxRetries = 6
	}
	if p.RetryPolicy.RetryDelay <= 0 {
		p.RetryPolicy.RetryDelay = 5 * time.Second
	}
	if p.RetryPolicy.BackoffMultiplier <= 0 {
		p.RetryPolicy.BackoffMultiplier = 2
	}
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
	return p
}

// Create implements webhook.create; the generated secret is returned once on
// the newly-created Webhook and never again (§4.C6).
func (s *WebhookService) Create(ctx domain.Context, userID string, p CreateParams) (domain.Webhook, error) {
	tr := otel.Tracer("service.webhook")
	ctx, span := tr.Start(ctx, "WebhookService.Create")
	defer span.End()
	lg := obsctx.LoggerFromContext(ctx)

	if p.URL == "" || len(p.Events) == 0 {
		return domain.Webhook{}, domain.ErrInvalid("url and events[] are required")
	}
	p = p.withDefaults()
	secret, err := webhook.NewSecret()
	if err != nil {
		return domain.Webhook{}, err
	}
	now := time.Now()
	w := domain.Webhook{
		UserID:      userID,
		URL:         p.URL,
		Events:      p.Events,
		Status:      domain.WebhookActive,
		Secret:      secret,
		RetryPolicy: p.RetryPolicy,
		Timeout:     p.Timeout,
		Filters:     p.Filters,
		Headers:     p.Headers,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.Webhooks.Create(ctx, w)
	if err != nil {
		lg.Error("webhook.create failed", slog.Any("error", err))
		return domain.Webhook{}, err
	}
	w.ID = id
	lg.Info("webhook.create succeeded", slog.String("webhook_id", id))
	return w, nil
}

func (s *WebhookService) loadOwned(ctx domain.Context, userID, webhookID string) (domain.Webhook, error) {
	w, err := s.Webhooks.FindByID(ctx, webhookID)
	if err != nil {
		return domain.Webhook{}, err
	}
	if w.UserID != userID {
		return domain.Webhook{}, domain.ErrForbidden("webhook")
	}
	return w, nil
}

// Update implements webhook.update; mutable fields only, the secret and id
// are immutable after creation.
func (s *WebhookService) Update(ctx domain.Context, userID, webhookID string, p CreateParams, status domain.WebhookStatus) (domain.Webhook, error) {
	w, err := s.loadOwned(ctx, userID, webhookID)
	if err != nil {
		return domain.Webhook{}, err
	}
	if p.URL != "" {
		w.URL = p.URL
	}
	if len(p.Events) > 0 {
		w.Events = p.Events
	}
	if status != "" {
		if status == domain.WebhookActive && w.Status == domain.WebhookSuspended {
			// A manual activate clears the circuit breaker (§4.C6).
			w.DeliveryStats.ConsecutiveFailures = 0
		}
		w.Status = status
	}
	w.RetryPolicy = p.RetryPolicy
	w.Timeout = p.Timeout
	w.Filters = p.Filters
	w.Headers = p.Headers
	w.UpdatedAt = time.Now()
	if err := s.Webhooks.Update(ctx, w); err != nil {
		return domain.Webhook{}, err
	}
	return w, nil
}

// Delete implements webhook.delete.
func (s *WebhookService) Delete(ctx domain.Context, userID, webhookID string) error {
	if _, err := s.loadOwned(ctx, userID, webhookID); err != nil {
		return err
	}
	return s.Webhooks.Delete(ctx, webhookID)
}

// List implements webhook.list(userId) → []Webhook.
func (s *WebhookService) List(ctx domain.Context, userID string) ([]domain.Webhook, error) {
	return s.Webhooks.FindActiveByUser(ctx, userID)
}

// Test implements webhook.test: enqueues an immediate webhook.test delivery
// against the subscription, bypassing its event/filter match.
func (s *WebhookService) Test(ctx domain.Context, userID, webhookID string) error {
	w, err := s.loadOwned(ctx, userID, webhookID)
	if err != nil {
		return err
	}
	if w.Status == domain.WebhookSuspended {
		return domain.NewError(domain.CodeWebhookSuspended, "webhook is suspended", 409)
	}
	return s.Dispatcher.EnqueueTest(ctx, w)
}

// Stats implements webhook.stats(userId, webhookId) → DeliveryStats.
func (s *WebhookService) Stats(ctx domain.Context, userID, webhookID string) (domain.DeliveryStats, error) {
	w, err := s.loadOwned(ctx, userID, webhookID)
	if err != nil {
		return domain.DeliveryStats{}, err
	}
	return w.DeliveryStats, nil
}

// Deliveries implements webhook.deliveries(userId, webhookId, pagination).
func (s *WebhookService) Deliveries(ctx domain.Context, userID, webhookID string, limit, offset int) ([]domain.WebhookDelivery, error) {
	if _, err := s.loadOwned(ctx, userID, webhookID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.Deliveries.FindByWebhook(ctx, webhookID, limit, offset)
}

// RetryDelivery implements webhook.retryDelivery(userId, deliveryId): forces
// an immediate re-delivery regardless of the delivery's NextRetryAt.
func (s *WebhookService) RetryDelivery(ctx domain.Context, userID, deliveryID string) error {
	d, err := s.Deliveries.FindByID(ctx, deliveryID)
	if err != nil {
		return err
	}
	w, err := s.loadOwned(ctx, userID, d.WebhookID)
	if err != nil {
		return err
	}
	if w.Status == domain.WebhookSuspended {
		return domain.NewError(domain.CodeWebhookSuspended, "webhook is suspended", 409)
	}
	return s.Dispatcher.Requeue(ctx, d, w)
}
