package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/config"
	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/domain/mocks"
	"github.com/cvenhancer/core/internal/queue"
	"github.com/cvenhancer/core/internal/version"
)

// assertNotFound stands in for a repository miss; its message deliberately
// matches the engine's "not found" non-retryable classification substring.
var assertNotFound = errors.New("not found")

type testHarness struct {
	engine   *queue.Engine
	jobs     *mocks.MockJobRepository
	broker   *mocks.MockQueue
	events   *mocks.MockEventPublisher
	cvs      *mocks.MockCVRepository
	users    *mocks.MockUserRepository
	versions *mocks.MockVersionRepository
	parsing  *mocks.MockParsingRepository
	ats      *mocks.MockATSRepository
	gens     *mocks.MockGenerationRepository
	objects  *mocks.MockObjectStore
	extract  *mocks.MockTextExtractor
	raster   *mocks.MockRasterizer
	parseAI  *mocks.MockAIClient
	optAI    *mocks.MockAIClient
	atsAI    *mocks.MockAIClient
}

func newHarness() (*Processors, *testHarness) {
	h := &testHarness{
		jobs:     &mocks.MockJobRepository{},
		broker:   &mocks.MockQueue{},
		events:   &mocks.MockEventPublisher{},
		cvs:      &mocks.MockCVRepository{},
		users:    &mocks.MockUserRepository{},
		versions: &mocks.MockVersionRepository{},
		parsing:  &mocks.MockParsingRepository{},
		ats:      &mocks.MockATSRepository{},
		gens:     &mocks.MockGenerationRepository{},
		objects:  &mocks.MockObjectStore{},
		extract:  &mocks.MockTextExtractor{},
		raster:   &mocks.MockRasterizer{},
		parseAI:  &mocks.MockAIClient{},
		optAI:    &mocks.MockAIClient{},
		atsAI:    &mocks.MockAIClient{},
	}
	cfg := config.Config{RetryMaxRetries: 3, RetryMaxDelay: time.Minute, RetryMultiplier: 2}
	h.engine = queue.NewEngine(h.jobs, h.broker, h.events, cfg)

	p := &Processors{
		CVs:         h.cvs,
		Users:       h.users,
		Versions:    version.New(h.versions, h.cvs),
		VersionRepo: h.versions,
		Parsing:     h.parsing,
		ATSRepo:     h.ats,
		Generations: h.gens,
		Objects:     h.objects,
		Extractor:   h.extract,
		Rasterizer:  h.raster,
		ParseAI:     h.parseAI,
		OptimizeAI:  h.optAI,
		ATSAI:       h.atsAI,
	}
	return p, h
}

func baseJob(queueName domain.QueueName, data map[string]any) domain.Job {
	return domain.Job{ID: "job1", UserID: "u1", Type: queueName, Status: domain.JobProcessing, Data: data}
}

func TestParsing_HappyPath(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueParsing, map[string]any{
		"cvId": "cv1", "fileKey": "files/cv1.pdf", "fileName": "cv1.pdf", "mimeType": "application/pdf",
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.objects.On("Get", mock.Anything, "files/cv1.pdf").Return([]byte("%PDF-1.4..."), nil)
	h.extract.On("Extract", mock.Anything, "cv1.pdf", mock.Anything).Return("Jane Doe, Engineer", nil)
	h.parseAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 4096).
		Return(`{"personal":{"name":"Jane Doe"},"summary":"Engineer"}`, nil)
	h.versions.On("FindByContentHash", mock.Anything, "cv1", mock.Anything).Return(domain.CVVersion{}, assertNotFound)
	h.versions.On("NextVersionNumber", mock.Anything, "cv1").Return(1, nil)
	h.versions.On("CreateAndActivate", mock.Anything, mock.Anything).
		Return(domain.CVVersion{ID: "v1", CVID: "cv1", IsActive: true}, nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.cvs.On("Update", mock.Anything, mock.MatchedBy(func(cv domain.CV) bool {
		return cv.ParsingStatus == domain.ParsingParsed
	})).Return(nil)
	h.parsing.On("Upsert", mock.Anything, mock.Anything).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Parsing(context.Background(), h.engine, j)
	require.NoError(t, err)
	h.jobs.AssertExpectations(t)
}

func TestParsing_EmptyExtractedTextFails(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueParsing, map[string]any{"cvId": "cv1", "fileKey": "k", "fileName": "cv1.txt"})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.objects.On("Get", mock.Anything, "k").Return([]byte(""), nil)
	h.extract.On("Extract", mock.Anything, "cv1.txt", mock.Anything).Return("", nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.cvs.On("Update", mock.Anything, mock.MatchedBy(func(cv domain.CV) bool {
		return cv.ParsingStatus == domain.ParsingFailed
	})).Return(nil)
	h.broker.On("Nack", mock.Anything, "job1", false, mock.Anything).Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Parsing(context.Background(), h.engine, j)
	require.NoError(t, err)
}

func TestParsing_StructurallyEmptyContentFails(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueParsing, map[string]any{
		"cvId": "cv1", "fileKey": "files/cv1.pdf", "fileName": "cv1.pdf", "mimeType": "application/pdf",
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.objects.On("Get", mock.Anything, "files/cv1.pdf").Return([]byte("%PDF-1.4..."), nil)
	h.extract.On("Extract", mock.Anything, "cv1.pdf", mock.Anything).Return("garbled scan text", nil)
	h.parseAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 4096).Return(`{}`, nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.cvs.On("Update", mock.Anything, mock.MatchedBy(func(cv domain.CV) bool {
		return cv.ParsingStatus == domain.ParsingFailed
	})).Return(nil)
	h.broker.On("Nack", mock.Anything, "job1", false, mock.Anything).Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Parsing(context.Background(), h.engine, j)
	require.NoError(t, err)
	h.versions.AssertNotCalled(t, "CreateAndActivate", mock.Anything, mock.Anything)
}

func TestParsing_ConfidenceIsPopulatedSectionFraction(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueParsing, map[string]any{
		"cvId": "cv1", "fileKey": "files/cv1.pdf", "fileName": "cv1.pdf", "mimeType": "application/pdf",
	})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.objects.On("Get", mock.Anything, "files/cv1.pdf").Return([]byte("%PDF-1.4..."), nil)
	h.extract.On("Extract", mock.Anything, "cv1.pdf", mock.Anything).Return("Jane Doe, Engineer", nil)
	h.parseAI.On("CompleteJSON", mock.Anything, mock.Anything, mock.Anything, 4096).
		Return(`{"personal":{"name":"Jane Doe"},"summary":"Engineer"}`, nil)
	h.versions.On("FindByContentHash", mock.Anything, "cv1", mock.Anything).Return(domain.CVVersion{}, assertNotFound)
	h.versions.On("NextVersionNumber", mock.Anything, "cv1").Return(1, nil)
	h.versions.On("CreateAndActivate", mock.Anything, mock.MatchedBy(func(v domain.CVVersion) bool {
		return v.Metadata.AIConfidence == 0.4 // name + summary populated out of 5 sections
	})).Return(domain.CVVersion{ID: "v1", CVID: "cv1", IsActive: true}, nil)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.cvs.On("Update", mock.Anything, mock.MatchedBy(func(cv domain.CV) bool {
		return cv.ParsingStatus == domain.ParsingParsed
	})).Return(nil)
	h.parsing.On("Upsert", mock.Anything, mock.MatchedBy(func(job domain.CvParsingJob) bool {
		return job.Metadata.Confidence == 0.4
	})).Return(nil)
	h.broker.On("Ack", mock.Anything, "job1").Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Parsing(context.Background(), h.engine, j)
	require.NoError(t, err)
}

func TestParsing_ObjectStoreFailureMarksCVFailed(t *testing.T) {
	p, h := newHarness()
	j := baseJob(domain.QueueParsing, map[string]any{"cvId": "cv1", "fileKey": "k", "fileName": "cv1.pdf"})

	h.jobs.On("FindByID", mock.Anything, "job1").Return(j, nil)
	h.jobs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.objects.On("Get", mock.Anything, "k").Return(nil, assertNotFound)
	h.cvs.On("FindByID", mock.Anything, "cv1").Return(domain.CV{ID: "cv1"}, nil)
	h.cvs.On("Update", mock.Anything, mock.Anything).Return(nil)
	h.broker.On("Nack", mock.Anything, "job1", false, mock.Anything).Return(nil)
	h.events.On("Publish", mock.Anything, mock.Anything).Return(nil)

	err := p.Parsing(context.Background(), h.engine, j)
	require.NoError(t, err)
}
