package domain

import "time"

// Ports (repositories, queue, object store, AI client, webhook transport).
// Hand-written expecter-style fakes stand in for the mockery output these
// directives would normally generate.
//go:generate mockery --name=UserRepository --with-expecter --filename=user_repository_mock.go
//go:generate mockery --name=CVRepository --with-expecter --filename=cv_repository_mock.go
//go:generate mockery --name=VersionRepository --with-expecter --filename=version_repository_mock.go
//go:generate mockery --name=JobRepository --with-expecter --filename=job_repository_mock.go
//go:generate mockery --name=GenerationRepository --with-expecter --filename=generation_repository_mock.go
//go:generate mockery --name=ATSRepository --with-expecter --filename=ats_repository_mock.go
//go:generate mockery --name=ParsingRepository --with-expecter --filename=parsing_repository_mock.go
//go:generate mockery --name=WebhookRepository --with-expecter --filename=webhook_repository_mock.go
//go:generate mockery --name=DeliveryRepository --with-expecter --filename=delivery_repository_mock.go
//go:generate mockery --name=ObjectStore --with-expecter --filename=objectstore_mock.go
//go:generate mockery --name=Queue --with-expecter --filename=queue_mock.go
//go:generate mockery --name=AIClient --with-expecter --filename=aiclient_mock.go
//go:generate mockery --name=EventPublisher --with-expecter --filename=eventpublisher_mock.go

// UserRepository manages the single denormalized user/usage-counter row C2
// consults for quota and lockout checks.
type UserRepository interface {
	FindByID(ctx Context, id string) (User, error)
	IncrementUsage(ctx Context, id string, field string, delta int) error
	ResetUsageIfDue(ctx Context, id string, now time.Time) error
}

// CVRepository persists CV root documents.
type CVRepository interface {
	Create(ctx Context, cv CV) (string, error)
	FindByID(ctx Context, id string) (CV, error)
	FindByUser(ctx Context, userID string, limit, offset int) ([]CV, error)
	Update(ctx Context, cv CV) error
	SetActiveVersion(ctx Context, cvID, versionID string) error
	Delete(ctx Context, id string) error
}

// VersionRepository persists immutable CVVersion snapshots.
type VersionRepository interface {
	Create(ctx Context, v CVVersion) (string, error)
	FindByID(ctx Context, id string) (CVVersion, error)
	FindByCV(ctx Context, cvID string) ([]CVVersion, error)
	NextVersionNumber(ctx Context, cvID string) (int, error)
	FindByContentHash(ctx Context, cvID string, hash string) (CVVersion, error)
	// CreateAndActivate atomically inserts v, deactivates every sibling
	// version, and repoints the parent CV's activeVersionId/content at it.
	CreateAndActivate(ctx Context, v CVVersion) (CVVersion, error)
}

// JobRepository persists the generic job queue rows C4 operates on.
type JobRepository interface {
	Create(ctx Context, j Job) (string, error)
	FindByID(ctx Context, id string) (Job, error)
	FindByDedupKey(ctx Context, dedupKey string) (Job, error)
	Update(ctx Context, j Job) error
	// AtomicFindAndModify leases the next ready job from queue for a worker,
	// flipping it pending -> processing and stamping StartedAt/Attempts in
	// the same operation the caller's compare-and-swap relies on.
	AtomicFindAndModify(ctx Context, queue QueueName, now time.Time) (Job, bool, error)
	CountByStatus(ctx Context, userID string, status JobStatus) (int, error)
	// FindByUser implements job.list's filtered, paginated listing; typ and
	// status are applied only when non-empty.
	FindByUser(ctx Context, userID string, typ QueueName, status JobStatus, limit, offset int) ([]Job, error)
}

// GenerationRepository persists the C5.4 companion rows.
type GenerationRepository interface {
	Upsert(ctx Context, g Generation) error
	FindByJobID(ctx Context, jobID string) (Generation, error)
}

// ATSRepository persists the C5.3 companion rows.
type ATSRepository interface {
	Upsert(ctx Context, a AtsAnalysis) error
	FindByJobID(ctx Context, jobID string) (AtsAnalysis, error)
}

// ParsingRepository persists the C5.1 companion rows.
type ParsingRepository interface {
	Upsert(ctx Context, p CvParsingJob) error
	FindByJobID(ctx Context, jobID string) (CvParsingJob, error)
}

// WebhookRepository manages webhook subscriptions.
type WebhookRepository interface {
	Create(ctx Context, w Webhook) (string, error)
	FindByID(ctx Context, id string) (Webhook, error)
	FindActiveByUser(ctx Context, userID string) ([]Webhook, error)
	FindActiveByEvent(ctx Context, eventType string) ([]Webhook, error)
	Update(ctx Context, w Webhook) error
	Delete(ctx Context, id string) error
	RecordDeliveryOutcome(ctx Context, id string, success bool, at time.Time) error
}

// DeliveryRepository persists per-attempt WebhookDelivery records.
type DeliveryRepository interface {
	Create(ctx Context, d WebhookDelivery) (string, error)
	FindByID(ctx Context, id string) (WebhookDelivery, error)
	Update(ctx Context, d WebhookDelivery) error
	FindDueRetries(ctx Context, now time.Time, limit int) ([]WebhookDelivery, error)
	// FindByWebhook implements webhook.deliveries' paginated history listing,
	// newest first.
	FindByWebhook(ctx Context, webhookID string, limit, offset int) ([]WebhookDelivery, error)
}

// ObjectStore abstracts binary blob storage (C1); local and s3 backends
// both satisfy it.
type ObjectStore interface {
	Put(ctx Context, key string, data []byte, contentType string) error
	Get(ctx Context, key string) ([]byte, error)
	Delete(ctx Context, key string) error
	Exists(ctx Context, key string) (bool, error)
	// SignedURL returns a time-limited download URL when the backend
	// supports it; local backend returns ErrNotSupported.
	SignedURL(ctx Context, key string, ttl time.Duration) (string, error)
}

// Queue is the C4 broker port processors and services enqueue work through.
type Queue interface {
	Enqueue(ctx Context, j Job) (string, error)
	Fetch(ctx Context, queue QueueName) (Job, bool, error)
	Ack(ctx Context, jobID string) error
	Nack(ctx Context, jobID string, retryable bool, after time.Duration) error
	Cancel(ctx Context, jobID string) error
}

// AIClient abstracts the configured LLM provider for a given task.
type AIClient interface {
	// CompleteJSON sends a system+user prompt pair and returns the cleaned,
	// schema-validated JSON string the caller expects back.
	CompleteJSON(ctx Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// EventPublisher publishes DomainEvents to the C6 event bus.
type EventPublisher interface {
	Publish(ctx Context, evt DomainEvent) error
}

// Rasterizer renders a CV Content into a binary document (C5.4).
type Rasterizer interface {
	Render(ctx Context, content Content, format OutputFormat, tmpl TemplateID, custom Customization) ([]byte, GenerationStats, error)
}

// TextExtractor pulls plain text out of an uploaded CV file (C5.1).
type TextExtractor interface {
	Extract(ctx Context, fileName string, data []byte) (string, error)
}
