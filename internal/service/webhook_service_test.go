package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/domain/mocks"
	"github.com/cvenhancer/core/internal/queue"
	"github.com/cvenhancer/core/internal/webhook"
)

func newWebhookService() (*WebhookService, *mocks.MockWebhookRepository, *mocks.MockDeliveryRepository, *mocks.MockJobRepository, *mocks.MockQueue) {
	webhooks := &mocks.MockWebhookRepository{}
	deliveries := &mocks.MockDeliveryRepository{}
	jobs := &mocks.MockJobRepository{}
	broker := &mocks.MockQueue{}
	events := &mocks.MockEventPublisher{}
	engine := queue.NewEngine(jobs, broker, events, config.Config{})
	dispatcher := webhook.NewDispatcher(webhooks, deliveries, engine)
	return NewWebhookService(webhooks, deliveries, dispatcher), webhooks, deliveries, jobs, broker
}

func TestWebhookService_Create(t *testing.T) {
	ctx := context.Background()
	svc, webhooks, _, _, _ := newWebhookService()
	webhooks.On("Create", ctx, mock.MatchedBy(func(w domain.Webhook) bool {
		return w.URL == "https://example.com/hook" && w.Secret != ""
	})).Return("wh1", nil)

	w, err := svc.Create(ctx, "u1", CreateParams{URL: "https://example.com/hook", Events: []string{"job.completed"}})
	require.NoError(t, err)
	assert.Equal(t, "wh1", w.ID)
	assert.NotEmpty(t, w.Secret)
	assert.Equal(t, 3, w.RetryPolicy.MaxRetries)
}

func TestWebhookService_Create_RequiresURLAndEvents(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _, _ := newWebhookService()
	_, err := svc.Create(ctx, "u1", CreateParams{})
	require.Error(t, err)
}

func TestWebhookService_Delete_RejectsCrossUser(t *testing.T) {
	ctx := context.Background()
	svc, webhooks, _, _, _ := newWebhookService()
	webhooks.On("FindByID", ctx, "wh1").Return(domain.Webhook{ID: "wh1", UserID: "other"}, nil)

	err := svc.Delete(ctx, "u1", "wh1")
	require.Error(t, err)
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, 404, derr.StatusCode)
}

func TestWebhookService_Test(t *testing.T) {
	ctx := context.Background()

	t.Run("enqueues a test delivery", func(t *testing.T) {
		svc, webhooks, deliveries, jobs, broker := newWebhookService()
		w := domain.Webhook{ID: "wh1", UserID: "u1", Status: domain.WebhookActive}
		webhooks.On("FindByID", ctx, "wh1").Return(w, nil)
		deliveries.On("Create", ctx, mock.Anything).Return("d1", nil)
		jobs.On("FindByDedupKey", ctx, "").Return(domain.Job{}, domain.ErrNotFound("job"))
		jobs.On("Create", ctx, mock.Anything).Return("job1", nil)
		broker.On("Enqueue", ctx, mock.Anything).Return("job1", nil)

		err := svc.Test(ctx, "u1", "wh1")
		require.NoError(t, err)
	})

	t.Run("rejects a suspended webhook", func(t *testing.T) {
		svc, webhooks, _, _, _ := newWebhookService()
		w := domain.Webhook{ID: "wh1", UserID: "u1", Status: domain.WebhookSuspended}
		webhooks.On("FindByID", ctx, "wh1").Return(w, nil)

		err := svc.Test(ctx, "u1", "wh1")
		require.Error(t, err)
		var derr *domain.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, domain.CodeWebhookSuspended, derr.Code)
	})
}

func TestWebhookService_RetryDelivery(t *testing.T) {
	ctx := context.Background()
	svc, webhooks, deliveries, jobs, broker := newWebhookService()
	d := domain.WebhookDelivery{ID: "d1", WebhookID: "wh1"}
	deliveries.On("FindByID", ctx, "d1").Return(d, nil)
	w := domain.Webhook{ID: "wh1", UserID: "u1", Status: domain.WebhookActive}
	webhooks.On("FindByID", ctx, "wh1").Return(w, nil)
	jobs.On("FindByDedupKey", ctx, "").Return(domain.Job{}, domain.ErrNotFound("job"))
	jobs.On("Create", ctx, mock.MatchedBy(func(j domain.Job) bool {
		return j.Data["deliveryId"] == "d1"
	})).Return("job2", nil)
	broker.On("Enqueue", ctx, mock.Anything).Return("job2", nil)

	err := svc.RetryDelivery(ctx, "u1", "d1")
	require.NoError(t, err)
}

func TestWebhookService_Deliveries(t *testing.T) {
	ctx := context.Background()
	svc, webhooks, deliveries, _, _ := newWebhookService()
	w := domain.Webhook{ID: "wh1", UserID: "u1"}
	webhooks.On("FindByID", ctx, "wh1").Return(w, nil)
	deliveries.On("FindByWebhook", ctx, "wh1", 20, 0).Return([]domain.WebhookDelivery{{ID: "d1"}}, nil)

	got, err := svc.Deliveries(ctx, "u1", "wh1", 0, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
