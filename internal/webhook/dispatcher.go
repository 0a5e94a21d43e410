package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/observability"
	"github.com/cvenhancer/core/internal/queue"
)

// Dispatcher consumes the domain-event bus, matches each event against
// active subscriptions (Matches), and creates one WebhookDelivery + one
// webhook_delivery job per match — the fan-out half of §4.C6. The HTTP
// delivery itself happens in Deliver, the queue.Processor registered
// against QueueWebhookDelivery.
type Dispatcher struct {
	Webhooks   domain.WebhookRepository
	Deliveries domain.DeliveryRepository
	Engine     *queue.Engine
	HTTPClient *http.Client
}

// NewDispatcher builds a Dispatcher with a default HTTP client; webhook.timeout
// is applied per-request since it varies per subscription.
func NewDispatcher(webhooks domain.WebhookRepository, deliveries domain.DeliveryRepository, engine *queue.Engine) *Dispatcher {
	return &Dispatcher{
		Webhooks:   webhooks,
		Deliveries: deliveries,
		Engine:     engine,
		HTTPClient: &http.Client{},
	}
}

// HandleEvent is the EventBus.Consume callback: it fans evt out to every
// active, matching webhook.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt domain.DomainEvent) error {
	subs, err := d.Webhooks.FindActiveByEvent(ctx, evt.Type)
	if err != nil {
		return fmt.Errorf("webhook: find subscribers: %w", err)
	}
	for _, w := range subs {
		if !Matches(w, evt) {
			continue
		}
		if err := d.enqueueDelivery(ctx, w, evt); err != nil {
			return err
		}
	}
	return nil
}

// EnqueueTest implements webhook.test: it enqueues a webhook.test delivery
// directly against w, bypassing Matches so filters don't suppress a manual
// connectivity check.
func (d *Dispatcher) EnqueueTest(ctx context.Context, w domain.Webhook) error {
	evt := domain.DomainEvent{
		Type:      domain.EventWebhookTest,
		UserID:    w.UserID,
		EmittedAt: time.Now(),
	}
	return d.enqueueDelivery(ctx, w, evt)
}

func (d *Dispatcher) enqueueDelivery(ctx context.Context, w domain.Webhook, evt domain.DomainEvent) error {
	delivery := domain.WebhookDelivery{
		ID:        ulid.Make().String(),
		WebhookID: w.ID,
		EventType: evt.Type,
		Payload:   envelope(evt),
		Status:    domain.DeliveryPending,
		CreatedAt: time.Now(),
	}
	if _, err := d.Deliveries.Create(ctx, delivery); err != nil {
		return fmt.Errorf("webhook: persist delivery: %w", err)
	}
	if _, err := d.Engine.Create(ctx, domain.QueueWebhookDelivery, w.UserID,
		map[string]any{"deliveryId": delivery.ID}, 0, ""); err != nil {
		return fmt.Errorf("webhook: enqueue delivery job: %w", err)
	}
	return nil
}

// envelope builds the §4 wire payload: {event, timestamp, data}.
func envelope(evt domain.DomainEvent) map[string]any {
	data := map[string]any{
		"jobId":   evt.JobID,
		"userId":  evt.UserID,
		"jobType": evt.JobType,
	}
	if evt.CVID != "" {
		data["cvId"] = evt.CVID
	}
	if evt.Score != nil {
		data["score"] = *evt.Score
	}
	for k, v := range evt.Extra {
		data[k] = v
	}
	return map[string]any{
		"event":     evt.Type,
		"timestamp": evt.EmittedAt.Format(time.RFC3339),
		"data":      data,
	}
}

type deliveryJobData struct {
	DeliveryID string `json:"deliveryId"`
}

// Deliver is the queue.Processor registered against QueueWebhookDelivery: it
// looks up the persisted delivery and webhook, POSTs the signed payload, and
// records the attempt, scheduling a retry or marking the delivery exhausted
// per §4.C6's backoff law.
func (d *Dispatcher) Deliver(ctx context.Context, engine *queue.Engine, j domain.Job) error {
	var data deliveryJobData
	if err := json.Unmarshal(mustMarshal(j.Data), &data); err != nil {
		return engine.SetError(ctx, j.ID, fmt.Errorf("webhook: decode job data: %w", err), "")
	}
	delivery, err := d.Deliveries.FindByID(ctx, data.DeliveryID)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, "")
	}
	if delivery.Status == domain.DeliverySuccess {
		return engine.SetResult(ctx, j.ID, map[string]any{"alreadyDelivered": true}, "")
	}
	w, err := d.Webhooks.FindByID(ctx, delivery.WebhookID)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, "")
	}
	if w.Status == domain.WebhookSuspended {
		return engine.SetResult(ctx, j.ID, map[string]any{"skipped": "webhook suspended"}, "")
	}

	attemptNumber := len(delivery.Attempts) + 1
	payloadJSON, err := json.Marshal(delivery.Payload)
	if err != nil {
		return engine.SetError(ctx, j.ID, err, "")
	}
	statusCode, respBody, durationMs, reqErr := d.post(ctx, w, delivery.EventType, payloadJSON)

	attempt := domain.DeliveryAttempt{
		AttemptNumber: attemptNumber,
		Timestamp:     time.Now(),
		StatusCode:    statusCode,
		Response:      respBody,
		DurationMs:    durationMs,
	}
	success := reqErr == nil && statusCode >= 200 && statusCode <= 299
	if reqErr != nil {
		attempt.Error = reqErr.Error()
	}
	delivery.Attempts = append(delivery.Attempts, attempt)

	if success {
		delivery.Status = domain.DeliverySuccess
		delivery.DeliveredAt = time.Now()
		observability.RecordWebhookDelivery("success")
	} else if attemptNumber < w.RetryPolicy.MaxRetries {
		observability.RecordWebhookDelivery("failure")
		delivery.Status = domain.DeliveryRetrying
		delivery.NextRetryAt = time.Now().Add(backoffDelay(w.RetryPolicy, attemptNumber))
	} else {
		observability.RecordWebhookDelivery("failure")
		delivery.Status = domain.DeliveryExhausted
	}
	if err := d.Deliveries.Update(ctx, delivery); err != nil {
		return engine.SetError(ctx, j.ID, err, "")
	}
	if err := d.Webhooks.RecordDeliveryOutcome(ctx, w.ID, success, time.Now()); err != nil {
		return engine.SetError(ctx, j.ID, err, "")
	}

	// The job itself only represents one delivery attempt; a retry isn't a
	// job-level retry (that would restart from attempt 1 with the generic
	// backoff law) but a fresh job the retry scheduler enqueues once
	// delivery.NextRetryAt arrives, found via DeliveryRepository.FindDueRetries.
	return engine.SetResult(ctx, j.ID, map[string]any{"status": string(delivery.Status)}, "")
}

// RunRetryScheduler blocks, polling DeliveryRepository.FindDueRetries on
// every tick and enqueueing a fresh webhook_delivery job for each delivery
// whose NextRetryAt has arrived, until ctx is cancelled.
func (d *Dispatcher) RunRetryScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.scheduleDueRetries(ctx)
		}
	}
}

// Requeue implements webhook.retryDelivery: forces delivery back onto
// QueueWebhookDelivery immediately, independent of its NextRetryAt.
func (d *Dispatcher) Requeue(ctx context.Context, delivery domain.WebhookDelivery, w domain.Webhook) error {
	_, err := d.Engine.Create(ctx, domain.QueueWebhookDelivery, w.UserID,
		map[string]any{"deliveryId": delivery.ID}, 0, "")
	return err
}

func (d *Dispatcher) scheduleDueRetries(ctx context.Context) {
	due, err := d.Deliveries.FindDueRetries(ctx, time.Now(), 100)
	if err != nil {
		return
	}
	for _, delivery := range due {
		w, err := d.Webhooks.FindByID(ctx, delivery.WebhookID)
		if err != nil || w.Status == domain.WebhookSuspended {
			continue
		}
		_, _ = d.Engine.Create(ctx, domain.QueueWebhookDelivery, w.UserID,
			map[string]any{"deliveryId": delivery.ID}, 0, "")
	}
}

// backoffDelay implements §4.C6: clamp(baseDelay * multiplier^(attempt-1), baseDelay, maxDelay).
// maxDelay is fixed at 300s, the outer bound §3 places on retryDelay itself.
func backoffDelay(p domain.RetryPolicy, attemptNumber int) time.Duration {
	const maxDelay = 300 * time.Second
	delay := time.Duration(float64(p.RetryDelay) * math.Pow(p.BackoffMultiplier, float64(attemptNumber-1)))
	if delay < p.RetryDelay {
		delay = p.RetryDelay
	}
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

func (d *Dispatcher) post(ctx context.Context, w domain.Webhook, eventType string, payloadJSON []byte) (statusCode int, body string, durationMs int64, err error) {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	now := time.Now()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, w.URL, bytes.NewReader(payloadJSON))
	if err != nil {
		return 0, "", 0, fmt.Errorf("webhook: build request: %w", err)
	}
	ts := now.UnixMilli()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "CV-Enhancer-Webhook/1.0")
	req.Header.Set("X-Webhook-Event", eventType)
	req.Header.Set("X-Webhook-Timestamp", strconv.FormatInt(ts, 10))
	req.Header.Set("X-Webhook-Signature", Sign(w.Secret, ts, payloadJSON))
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	resp, reqErr := d.HTTPClient.Do(req)
	durationMs = time.Since(now).Milliseconds()
	if reqErr != nil {
		return 0, "", durationMs, fmt.Errorf("webhook: request failed: %w", reqErr)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(raw), durationMs, nil
}

func mustMarshal(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return raw
}
