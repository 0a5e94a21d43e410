// Package mocks hand-writes expecter-style testify doubles for every port
// in internal/domain/ports.go, standing in for what `mockery --with-expecter`
// would otherwise generate from the //go:generate directives there.
package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/cvenhancer/core/internal/domain"
)

// MockUserRepository implements domain.UserRepository.
type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) FindByID(ctx domain.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserRepository) IncrementUsage(ctx domain.Context, id string, field string, delta int) error {
	args := m.Called(ctx, id, field, delta)
	return args.Error(0)
}

func (m *MockUserRepository) ResetUsageIfDue(ctx domain.Context, id string, now time.Time) error {
	args := m.Called(ctx, id, now)
	return args.Error(0)
}

// MockCVRepository implements domain.CVRepository.
type MockCVRepository struct{ mock.Mock }

func (m *MockCVRepository) Create(ctx domain.Context, cv domain.CV) (string, error) {
	args := m.Called(ctx, cv)
	return args.String(0), args.Error(1)
}

func (m *MockCVRepository) FindByID(ctx domain.Context, id string) (domain.CV, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.CV), args.Error(1)
}

func (m *MockCVRepository) FindByUser(ctx domain.Context, userID string, limit, offset int) ([]domain.CV, error) {
	args := m.Called(ctx, userID, limit, offset)
	out, _ := args.Get(0).([]domain.CV)
	return out, args.Error(1)
}

func (m *MockCVRepository) Update(ctx domain.Context, cv domain.CV) error {
	args := m.Called(ctx, cv)
	return args.Error(0)
}

func (m *MockCVRepository) SetActiveVersion(ctx domain.Context, cvID, versionID string) error {
	args := m.Called(ctx, cvID, versionID)
	return args.Error(0)
}

func (m *MockCVRepository) Delete(ctx domain.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockVersionRepository implements domain.VersionRepository.
type MockVersionRepository struct{ mock.Mock }

func (m *MockVersionRepository) Create(ctx domain.Context, v domain.CVVersion) (string, error) {
	args := m.Called(ctx, v)
	return args.String(0), args.Error(1)
}

func (m *MockVersionRepository) FindByID(ctx domain.Context, id string) (domain.CVVersion, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.CVVersion), args.Error(1)
}

func (m *MockVersionRepository) FindByCV(ctx domain.Context, cvID string) ([]domain.CVVersion, error) {
	args := m.Called(ctx, cvID)
	out, _ := args.Get(0).([]domain.CVVersion)
	return out, args.Error(1)
}

func (m *MockVersionRepository) NextVersionNumber(ctx domain.Context, cvID string) (int, error) {
	args := m.Called(ctx, cvID)
	return args.Int(0), args.Error(1)
}

func (m *MockVersionRepository) FindByContentHash(ctx domain.Context, cvID string, hash string) (domain.CVVersion, error) {
	args := m.Called(ctx, cvID, hash)
	return args.Get(0).(domain.CVVersion), args.Error(1)
}

func (m *MockVersionRepository) CreateAndActivate(ctx domain.Context, v domain.CVVersion) (domain.CVVersion, error) {
	args := m.Called(ctx, v)
	return args.Get(0).(domain.CVVersion), args.Error(1)
}

// MockJobRepository implements domain.JobRepository.
type MockJobRepository struct{ mock.Mock }

func (m *MockJobRepository) Create(ctx domain.Context, j domain.Job) (string, error) {
	args := m.Called(ctx, j)
	return args.String(0), args.Error(1)
}

func (m *MockJobRepository) FindByID(ctx domain.Context, id string) (domain.Job, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Job), args.Error(1)
}

func (m *MockJobRepository) FindByDedupKey(ctx domain.Context, dedupKey string) (domain.Job, error) {
	args := m.Called(ctx, dedupKey)
	return args.Get(0).(domain.Job), args.Error(1)
}

func (m *MockJobRepository) Update(ctx domain.Context, j domain.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJobRepository) AtomicFindAndModify(ctx domain.Context, queue domain.QueueName, now time.Time) (domain.Job, bool, error) {
	args := m.Called(ctx, queue, now)
	return args.Get(0).(domain.Job), args.Bool(1), args.Error(2)
}

func (m *MockJobRepository) CountByStatus(ctx domain.Context, userID string, status domain.JobStatus) (int, error) {
	args := m.Called(ctx, userID, status)
	return args.Int(0), args.Error(1)
}

func (m *MockJobRepository) FindByUser(ctx domain.Context, userID string, typ domain.QueueName, status domain.JobStatus, limit, offset int) ([]domain.Job, error) {
	args := m.Called(ctx, userID, typ, status, limit, offset)
	out, _ := args.Get(0).([]domain.Job)
	return out, args.Error(1)
}

// MockGenerationRepository implements domain.GenerationRepository.
type MockGenerationRepository struct{ mock.Mock }

func (m *MockGenerationRepository) Upsert(ctx domain.Context, g domain.Generation) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

func (m *MockGenerationRepository) FindByJobID(ctx domain.Context, jobID string) (domain.Generation, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(domain.Generation), args.Error(1)
}

// MockATSRepository implements domain.ATSRepository.
type MockATSRepository struct{ mock.Mock }

func (m *MockATSRepository) Upsert(ctx domain.Context, a domain.AtsAnalysis) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockATSRepository) FindByJobID(ctx domain.Context, jobID string) (domain.AtsAnalysis, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(domain.AtsAnalysis), args.Error(1)
}

// MockParsingRepository implements domain.ParsingRepository.
type MockParsingRepository struct{ mock.Mock }

func (m *MockParsingRepository) Upsert(ctx domain.Context, p domain.CvParsingJob) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockParsingRepository) FindByJobID(ctx domain.Context, jobID string) (domain.CvParsingJob, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).(domain.CvParsingJob), args.Error(1)
}

// MockWebhookRepository implements domain.WebhookRepository.
type MockWebhookRepository struct{ mock.Mock }

func (m *MockWebhookRepository) Create(ctx domain.Context, w domain.Webhook) (string, error) {
	args := m.Called(ctx, w)
	return args.String(0), args.Error(1)
}

func (m *MockWebhookRepository) FindByID(ctx domain.Context, id string) (domain.Webhook, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.Webhook), args.Error(1)
}

func (m *MockWebhookRepository) FindActiveByUser(ctx domain.Context, userID string) ([]domain.Webhook, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]domain.Webhook)
	return out, args.Error(1)
}

func (m *MockWebhookRepository) FindActiveByEvent(ctx domain.Context, eventType string) ([]domain.Webhook, error) {
	args := m.Called(ctx, eventType)
	out, _ := args.Get(0).([]domain.Webhook)
	return out, args.Error(1)
}

func (m *MockWebhookRepository) Update(ctx domain.Context, w domain.Webhook) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}

func (m *MockWebhookRepository) Delete(ctx domain.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockWebhookRepository) RecordDeliveryOutcome(ctx domain.Context, id string, success bool, at time.Time) error {
	args := m.Called(ctx, id, success, at)
	return args.Error(0)
}

// MockDeliveryRepository implements domain.DeliveryRepository.
type MockDeliveryRepository struct{ mock.Mock }

func (m *MockDeliveryRepository) Create(ctx domain.Context, d domain.WebhookDelivery) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func (m *MockDeliveryRepository) FindByID(ctx domain.Context, id string) (domain.WebhookDelivery, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.WebhookDelivery), args.Error(1)
}

func (m *MockDeliveryRepository) Update(ctx domain.Context, d domain.WebhookDelivery) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDeliveryRepository) FindDueRetries(ctx domain.Context, now time.Time, limit int) ([]domain.WebhookDelivery, error) {
	args := m.Called(ctx, now, limit)
	out, _ := args.Get(0).([]domain.WebhookDelivery)
	return out, args.Error(1)
}

func (m *MockDeliveryRepository) FindByWebhook(ctx domain.Context, webhookID string, limit, offset int) ([]domain.WebhookDelivery, error) {
	args := m.Called(ctx, webhookID, limit, offset)
	out, _ := args.Get(0).([]domain.WebhookDelivery)
	return out, args.Error(1)
}

// MockObjectStore implements domain.ObjectStore.
type MockObjectStore struct{ mock.Mock }

func (m *MockObjectStore) Put(ctx domain.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStore) Get(ctx domain.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	out, _ := args.Get(0).([]byte)
	return out, args.Error(1)
}

func (m *MockObjectStore) Delete(ctx domain.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStore) Exists(ctx domain.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStore) SignedURL(ctx domain.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

// MockQueue implements domain.Queue.
type MockQueue struct{ mock.Mock }

func (m *MockQueue) Enqueue(ctx domain.Context, j domain.Job) (string, error) {
	args := m.Called(ctx, j)
	return args.String(0), args.Error(1)
}

func (m *MockQueue) Fetch(ctx domain.Context, queue domain.QueueName) (domain.Job, bool, error) {
	args := m.Called(ctx, queue)
	return args.Get(0).(domain.Job), args.Bool(1), args.Error(2)
}

func (m *MockQueue) Ack(ctx domain.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockQueue) Nack(ctx domain.Context, jobID string, retryable bool, after time.Duration) error {
	args := m.Called(ctx, jobID, retryable, after)
	return args.Error(0)
}

func (m *MockQueue) Cancel(ctx domain.Context, jobID string) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockAIClient implements domain.AIClient.
type MockAIClient struct{ mock.Mock }

func (m *MockAIClient) CompleteJSON(ctx domain.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	args := m.Called(ctx, systemPrompt, userPrompt, maxTokens)
	return args.String(0), args.Error(1)
}

// MockEventPublisher implements domain.EventPublisher.
type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx domain.Context, evt domain.DomainEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

// MockRasterizer implements domain.Rasterizer.
type MockRasterizer struct{ mock.Mock }

func (m *MockRasterizer) Render(ctx domain.Context, content domain.Content, format domain.OutputFormat, tmpl domain.TemplateID, custom domain.Customization) ([]byte, domain.GenerationStats, error) {
	args := m.Called(ctx, content, format, tmpl, custom)
	out, _ := args.Get(0).([]byte)
	return out, args.Get(1).(domain.GenerationStats), args.Error(2)
}

// MockTextExtractor implements domain.TextExtractor.
type MockTextExtractor struct{ mock.Mock }

func (m *MockTextExtractor) Extract(ctx domain.Context, fileName string, data []byte) (string, error) {
	args := m.Called(ctx, fileName, data)
	return args.String(0), args.Error(1)
}
