// Package domain defines core entities, ports, and domain-specific errors
// for the CV enhancement backend. It stays free of transport and storage
// concerns so every adapter (Postgres, Redis, HTTP, LLM providers) depends
// on it rather than the other way around.
package domain

import (
	"context"
	"math"
	"time"
)

// Context is an alias to stdlib context.Context, kept for symmetry with the
// rest of the port method signatures and to make call sites read uniformly.
type Context = context.Context

// --- User -------------------------------------------------------------

// UserStatus enumerates account states.
type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserSuspended UserStatus = "suspended"
	UserDeleted   UserStatus = "deleted"
)

// UsageLimits are subscription-derived monthly ceilings.
type UsageLimits struct {
	MonthlyGenerations  int `json:"monthlyGenerations"`
	MonthlyEnhancements int `json:"monthlyEnhancements"`
	MonthlyAnalyses     int `json:"monthlyAnalyses"`
	StorageMB           int `json:"storageMb"`
}

// UsageCounters track monthly consumption; reset atomically at the start of
// each calendar month. Callers must increment these with atomic `inc`
// operations at the store layer — never read-modify-write.
type UsageCounters struct {
	Generations  int       `json:"generations"`
	Enhancements int       `json:"enhancements"`
	Analyses     int       `json:"analyses"`
	ResetAt      time.Time `json:"resetAt"`
}

// User is the identity the core receives from the (out of scope) auth layer,
// enriched with usage counters and subscription limits.
type User struct {
	ID           string        `json:"id"`
	Status       UserStatus    `json:"status"`
	LockoutUntil time.Time     `json:"lockoutUntil,omitzero"`
	Limits       UsageLimits   `json:"limits"`
	Usage        UsageCounters `json:"usage"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
}

// CanStartJob reports whether the user is allowed to start new background
// work right now (§3: "A user with status ≠ active or with lockoutUntil >
// now cannot start new jobs").
func (u User) CanStartJob(now time.Time) bool {
	if u.Status != UserActive {
		return false
	}
	if !u.LockoutUntil.IsZero() && u.LockoutUntil.After(now) {
		return false
	}
	return true
}

// --- CV -----------------------------------------------------------------

// CVStatus is the soft lifecycle status of a CV document.
type CVStatus string

const (
	CVDraft     CVStatus = "draft"
	CVArchived  CVStatus = "archived"
	CVPublished CVStatus = "published"
)

// ParsingStatus tracks the CV's most recent parse attempt.
type ParsingStatus string

const (
	ParsingNone       ParsingStatus = "none"
	ParsingPending    ParsingStatus = "pending"
	ParsingProcessing ParsingStatus = "processing"
	ParsingParsed     ParsingStatus = "parsed"
	ParsingFailed     ParsingStatus = "failed"
)

// Personal holds contact/identity fields of a parsed or authored CV.
type Personal struct {
	Name     string            `json:"name"`
	Email    string            `json:"email,omitempty"`
	Phone    string            `json:"phone,omitempty"`
	Location string            `json:"location,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
}

// Experience is one employment entry.
type Experience struct {
	Company     string   `json:"company"`
	Title       string   `json:"title"`
	StartDate   string   `json:"startDate,omitempty"`
	EndDate     string   `json:"endDate,omitempty"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
}

// Education is one academic entry.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
}

// Project is a portfolio entry distinct from an Experience employment record.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Highlights  []string `json:"highlights,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Certification is a professional credential.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Date   string `json:"date,omitempty"`
}

// Language is a spoken/written language proficiency claim.
type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency,omitempty"`
}

// Content is the structured CV document shared by CV.content and every
// CVVersion snapshot. Its canonical-JSON hash is computed by the version
// service (C7); see internal/version.Hash.
type Content struct {
	Personal       Personal        `json:"personal"`
	Summary        string          `json:"summary,omitempty"`
	Experience     []Experience    `json:"experience,omitempty"`
	Education      []Education     `json:"education,omitempty"`
	Skills         []string        `json:"skills,omitempty"`
	Projects       []Project       `json:"projects,omitempty"`
	Certifications []Certification `json:"certifications,omitempty"`
	Languages      []Language      `json:"languages,omitempty"`
}

// IsStructurallyEmpty reports the §4.C5.1 structural-validate rejection
// condition: no name AND experience/education/skills are all empty.
func (c Content) IsStructurallyEmpty() bool {
	if c.Personal.Name != "" {
		return false
	}
	return len(c.Experience) == 0 && len(c.Education) == 0 && len(c.Skills) == 0
}

// PopulatedSectionFraction computes parsing confidence as the fraction of
// required top-level sections that carry content (§4.C5.1 LLM-parse step).
func (c Content) PopulatedSectionFraction() float64 {
	sections := []bool{
		c.Personal.Name != "",
		c.Summary != "",
		len(c.Experience) > 0,
		len(c.Education) > 0,
		len(c.Skills) > 0,
	}
	n := 0
	for _, ok := range sections {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(sections))
}

// CV is the root of user content.
type CV struct {
	ID              string        `json:"id"`
	UserID          string        `json:"userId"`
	Title           string        `json:"title"`
	Status          CVStatus      `json:"status"`
	ParsingStatus   ParsingStatus `json:"parsingStatus"`
	FileRef         string        `json:"fileRef,omitempty"` // key into the object store; empty if manually created
	Content         Content       `json:"content"`
	ActiveVersionID string        `json:"activeVersionId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// --- CVVersion ------------------------------------------------------------

// ChangeType records what produced a CVVersion snapshot.
type ChangeType string

const (
	ChangeManual       ChangeType = "manual"
	ChangeOptimization ChangeType = "optimization"
	ChangeParsing      ChangeType = "parsing"
	ChangeImport       ChangeType = "import"
	ChangeAutoSave     ChangeType = "auto_save"
)

// VersionMetadata carries derived statistics about a version's content.
type VersionMetadata struct {
	WordCount    int     `json:"wordCount"`
	SectionCount int     `json:"sectionCount"`
	AIConfidence float64 `json:"aiConfidence,omitempty"` // only meaningful for ChangeParsing/ChangeOptimization
}

// CVVersion is an immutable snapshot of a CV's content at a point in time.
type CVVersion struct {
	ID            string          `json:"id"`
	CVID          string          `json:"cvId"`
	VersionNumber int             `json:"versionNumber"`
	Name          string          `json:"name,omitempty"`
	Description   string          `json:"description,omitempty"`
	ChangeType    ChangeType      `json:"changeType"`
	Content       Content         `json:"content"`
	ContentHash   *string         `json:"contentHash,omitempty"` // nil for semantically-empty content
	Metadata      VersionMetadata `json:"metadata"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// --- Job --------------------------------------------------------------

// JobStatus is the job state machine's current node (§3: pending →
// processing → {completed|failed|cancelled|timeout}).
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobCancelled  JobStatus = "cancelled"
	JobTimeout    JobStatus = "timeout"
)

// IsTerminal reports whether status has no further legal transition other
// than an explicit retry (which creates a brand new Job).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled, JobTimeout:
		return true
	default:
		return false
	}
}

// QueueName identifies one of the fixed C4 queues.
type QueueName string

const (
	QueueParsing         QueueName = "parsing"
	QueueOptimization    QueueName = "optimization"
	QueueGeneration      QueueName = "generation"
	QueueATS             QueueName = "ats"
	QueueWebhookDelivery QueueName = "webhook_delivery"
)

// AllQueues enumerates every fixed C4 queue, used by the broker to sweep
// per-queue processing sets on ack/nack without tracking cross-queue state.
var AllQueues = []QueueName{
	QueueParsing, QueueOptimization, QueueGeneration, QueueATS, QueueWebhookDelivery,
}

// JobAttempt is one lease/execution record, retained for operator visibility
// even though the caller only ever sees the job's current terminal state.
type JobAttempt struct {
	AttemptNumber int       `json:"attemptNumber"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt,omitzero"`
	Error         string    `json:"error,omitempty"`
	Retryable     bool      `json:"retryable"`
}

// JobError is the single caller-visible failure summary; full history lives
// in Attempts.
type JobError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Job is the generic queued work record every C5 processor operates on.
type Job struct {
	ID              string         `json:"id"`
	Type            QueueName      `json:"type"`
	UserID          string         `json:"userId"`
	Status          JobStatus      `json:"status"`
	Priority        int            `json:"priority"` // 0-10, ties break by QueuedAt
	Progress        int            `json:"progress"` // 0-100
	CurrentStep     string         `json:"currentStep,omitempty"`
	TotalSteps      int            `json:"totalSteps,omitempty"`
	Attempts        []JobAttempt   `json:"attempts,omitempty"`
	Data            map[string]any `json:"data,omitempty"`
	Result          map[string]any `json:"result,omitempty"`
	Error           *JobError      `json:"error,omitempty"`
	QueuedAt        time.Time      `json:"queuedAt"`
	StartedAt       time.Time      `json:"startedAt,omitzero"`
	CompletedAt     time.Time      `json:"completedAt,omitzero"`
	MaxRetries      int            `json:"maxRetries"`
	RetryCount      int            `json:"retryCount"`
	RetryOf         string         `json:"retryOf,omitempty"` // set on the new Job created by an explicit retry
	DedupKey        string         `json:"dedupKey,omitempty"`
	CancelRequested bool           `json:"cancelRequested"`
}

// ComputeProgress implements §4.C5's `progress = round(100 × stepDone /
// totalSteps)` rule.
func ComputeProgress(stepDone, totalSteps int) int {
	if totalSteps <= 0 {
		return 0
	}
	p := int(math.Round(float64(stepDone) / float64(totalSteps) * 100.0))
	if p > 100 {
		p = 100
	}
	if p < 0 {
		p = 0
	}
	return p
}

// --- Generation / AtsAnalysis / CvParsingJob (companion rows) ------------

// OutputFormat is the rasterizer target for a generated document.
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatDOCX OutputFormat = "docx"
)

// TemplateID selects a generation layout.
type TemplateID string

const (
	TemplateModern       TemplateID = "modern"
	TemplateProfessional TemplateID = "professional"
	TemplateMinimal      TemplateID = "minimal"
)

// Customization overrides template defaults per §4.C5.4.
type Customization struct {
	PrimaryColor string   `json:"primaryColor,omitempty"`
	FontFamily   string   `json:"fontFamily,omitempty"`
	FontSize     int      `json:"fontSize,omitempty"`
	LineHeight   float64  `json:"lineHeight,omitempty"`
	SectionOrder []string `json:"sectionOrder,omitempty"`
}

// OutputFile describes the generated artifact stored in the object store.
type OutputFile struct {
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"` // relative key into the object store
	FileSize int64  `json:"fileSize"`
	MimeType string `json:"mimeType"`
}

// GenerationStats are statistics gathered during rasterization.
type GenerationStats struct {
	PageCount        int   `json:"pageCount"`
	WordCount        int   `json:"wordCount"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// Generation is the companion row for a `generation` job.
type Generation struct {
	JobID         string          `json:"jobId"`
	UserID        string          `json:"userId"`
	CVID          string          `json:"cvId"`
	VersionID     string          `json:"versionId,omitempty"`
	InputData     Content         `json:"inputData"`
	OutputFormat  OutputFormat    `json:"outputFormat"`
	TemplateID    TemplateID      `json:"templateId"`
	Customization Customization   `json:"customization,omitempty"`
	OutputFile    OutputFile      `json:"outputFile,omitzero"`
	Stats         GenerationStats `json:"stats,omitzero"`
	NoChange      bool            `json:"noChange,omitempty"`
	Status        JobStatus       `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   time.Time       `json:"completedAt,omitzero"`
}

// ATSAnalysisType selects which subset of ATS steps run (§4.C5.3).
type ATSAnalysisType string

const (
	ATSCompatibility   ATSAnalysisType = "compatibility"
	ATSKeywordAnalysis ATSAnalysisType = "keyword_analysis"
	ATSFormatCheck     ATSAnalysisType = "format_check"
	ATSComprehensive   ATSAnalysisType = "comprehensive"
)

// StepCount returns the declared step count for the analysis type.
func (t ATSAnalysisType) StepCount() int {
	switch t {
	case ATSCompatibility:
		return 3
	case ATSKeywordAnalysis:
		return 2
	case ATSFormatCheck:
		return 1
	case ATSComprehensive:
		return 5
	default:
		return 1
	}
}

// TargetJob describes the job posting an ATS analysis or optimization is run against.
type TargetJob struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
}

// ATSBreakdown is the per-section score breakdown, capped as spec'd.
type ATSBreakdown struct {
	Structure  float64 `json:"structure"`  // <= 40
	Skills     float64 `json:"skills"`     // <= 25
	Experience float64 `json:"experience"` // <= 25
	Formatting float64 `json:"formatting"` // <= 10
}

// JobCompatibility is the ATS prompt's job-fit sub-object.
type JobCompatibility struct {
	Score               float64  `json:"score"`
	MatchingSkills      []string `json:"matchingSkills,omitempty"`
	MissingRequirements []string `json:"missingRequirements,omitempty"`
}

// ATSResults is the full ATS output shape mandated by §4.C3/§4.C5.3.
type ATSResults struct {
	OverallScore     float64          `json:"overallScore"`
	KeywordMatch     float64          `json:"keywordMatch"`
	ExperienceMatch  float64          `json:"experienceMatch"`
	SkillsMatch      float64          `json:"skillsMatch"`
	Breakdown        ATSBreakdown     `json:"breakdown"`
	Strengths        []string         `json:"strengths,omitempty"`
	Weaknesses       []string         `json:"weaknesses,omitempty"`
	Recommendations  []string         `json:"recommendations,omitempty"`
	MissingKeywords  []string         `json:"missingKeywords,omitempty"`
	JobCompatibility JobCompatibility `json:"jobCompatibility"`
}

// AtsAnalysis is the companion row for an `ats` job.
type AtsAnalysis struct {
	JobID         string          `json:"jobId"`
	UserID        string          `json:"userId"`
	CVID          string          `json:"cvId"`
	Type          ATSAnalysisType `json:"type"`
	TargetJob     TargetJob       `json:"targetJob"`
	InputSnapshot Content         `json:"inputSnapshot"`
	Results       ATSResults      `json:"results,omitzero"`
	Status        JobStatus       `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   time.Time       `json:"completedAt,omitzero"`
}

// ParsedMetadata carries extraction-time stats from the parsing processor.
type ParsedMetadata struct {
	PageCount  int     `json:"pageCount"`
	Confidence float64 `json:"confidence"`
}

// CvParsingJob is the companion row for a `parsing` job.
type CvParsingJob struct {
	JobID         string         `json:"jobId"`
	UserID        string         `json:"userId"`
	CVID          string         `json:"cvId"`
	ParsedContent Content        `json:"parsedContent"`
	Metadata      ParsedMetadata `json:"metadata"`
	Status        JobStatus      `json:"status"`
	CreatedAt     time.Time      `json:"createdAt"`
	CompletedAt   time.Time      `json:"completedAt,omitzero"`
}

// --- Webhook ----------------------------------------------------------

// WebhookStatus is the subscription's lifecycle state.
type WebhookStatus string

const (
	WebhookActive    WebhookStatus = "active"
	WebhookInactive  WebhookStatus = "inactive"
	WebhookSuspended WebhookStatus = "suspended"
)

// RetryPolicy bounds a webhook's delivery retry behavior.
type RetryPolicy struct {
	MaxRetries        int           `json:"maxRetries"` // <= 6
	RetryDelay        time.Duration `json:"retryDelay"` // 1s..300s
	BackoffMultiplier float64       `json:"backoffMultiplier"` // 1..8
}

// WebhookFilters narrow which events a subscription actually receives.
type WebhookFilters struct {
	JobTypes []string `json:"jobTypes,omitempty"`
	MinScore *float64 `json:"minScore,omitempty"`
	MaxScore *float64 `json:"maxScore,omitempty"`
	CVIDs    []string `json:"cvIds,omitempty"`
}

// DeliveryStats are running counters maintained on every delivery attempt.
type DeliveryStats struct {
	Total               int       `json:"total"`
	Success             int       `json:"success"`
	Failure             int       `json:"failure"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastDeliveryAt      time.Time `json:"lastDeliveryAt,omitzero"`
	LastSuccessAt       time.Time `json:"lastSuccessAt,omitzero"`
}

// SuccessRate returns Success/Total, or 1.0 if there have been no deliveries yet.
func (d DeliveryStats) SuccessRate() float64 {
	if d.Total == 0 {
		return 1.0
	}
	return float64(d.Success) / float64(d.Total)
}

// Webhook is a user's event subscription.
type Webhook struct {
	ID            string            `json:"id"`
	UserID        string            `json:"userId"`
	URL           string            `json:"url"`
	Events        []string          `json:"events"`
	Status        WebhookStatus     `json:"status"`
	Secret        string            `json:"secret"` // 32 random bytes, hex-encoded; revealed only on creation
	RetryPolicy   RetryPolicy       `json:"retryPolicy"`
	Timeout       time.Duration     `json:"timeout"` // 5s..120s
	Filters       WebhookFilters    `json:"filters,omitempty"`
	Headers       map[string]string `json:"headers,omitempty"`
	DeliveryStats DeliveryStats     `json:"deliveryStats"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// ShouldSuspend implements the circuit-breaker invariant (§3/§4.C6):
// consecutiveFailures >= 5 forces suspension.
func (w Webhook) ShouldSuspend() bool { return w.DeliveryStats.ConsecutiveFailures >= 5 }

// ShouldClearSuspension implements the recovery half of the invariant: a
// successful delivery that raises successRate >= 0.8 clears suspension.
func (w Webhook) ShouldClearSuspension() bool {
	return w.Status == WebhookSuspended && w.DeliveryStats.SuccessRate() >= 0.8
}

// --- WebhookDelivery ----------------------------------------------------

// DeliveryStatus is one WebhookDelivery's lifecycle state.
type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryRetrying  DeliveryStatus = "retrying"
	DeliverySuccess   DeliveryStatus = "success"
	DeliveryExhausted DeliveryStatus = "exhausted"
	DeliveryFailed    DeliveryStatus = "failed"
)

// DeliveryAttempt is one HTTP POST attempt to the subscriber endpoint.
type DeliveryAttempt struct {
	AttemptNumber int       `json:"attemptNumber"`
	Timestamp     time.Time `json:"timestamp"`
	StatusCode    int       `json:"statusCode,omitempty"`
	Response      string    `json:"response,omitempty"`
	Error         string    `json:"error,omitempty"`
	DurationMs    int64     `json:"durationMs"`
}

// WebhookDelivery is a single persisted attempt chain for one event.
type WebhookDelivery struct {
	ID          string           `json:"id"`
	WebhookID   string           `json:"webhookId"`
	EventType   string           `json:"eventType"`
	Payload     map[string]any   `json:"payload"`
	Status      DeliveryStatus   `json:"status"`
	Attempts    []DeliveryAttempt `json:"attempts,omitempty"`
	NextRetryAt time.Time        `json:"nextRetryAt,omitzero"`
	DeliveredAt time.Time        `json:"deliveredAt,omitzero"`
	Signature   string           `json:"signature,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// --- Events emitted on the webhook bus (§6) ------------------------------

const (
	EventParseCompleted      = "parse.completed"
	EventParseFailed         = "parse.failed"
	EventOptimizeCompleted   = "optimize.completed"
	EventOptimizeFailed      = "optimize.failed"
	EventGenerationCompleted = "generation.completed"
	EventGenerationFailed    = "generation.failed"
	EventATSCompleted        = "ats.completed"
	EventATSFailed           = "ats.failed"
	EventWebhookTest         = "webhook.test"
)

// DomainEvent is the payload published to the internal event bus (C6) every
// time a processor reaches a terminal state; the webhook matcher consumes
// these to decide which subscriptions to fan out to.
type DomainEvent struct {
	Type      string         `json:"type"`
	JobID     string         `json:"jobId"`
	UserID    string         `json:"userId"`
	JobType   string         `json:"jobType"`
	CVID      string         `json:"cvId,omitempty"`
	Score     *float64       `json:"score,omitempty"`
	EmittedAt time.Time      `json:"emittedAt"`
	Extra     map[string]any `json:"extra,omitempty"`
}
