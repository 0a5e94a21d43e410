package version

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvenhancer/core/internal/domain"
	"github.com/cvenhancer/core/internal/domain/mocks"
)

var mockCtx = mock.Anything
var mockAnyVersion = mock.Anything

func newTestService() (*Service, *mocks.MockVersionRepository) {
	vrepo := &mocks.MockVersionRepository{}
	return New(vrepo, nil), vrepo
}

func TestService_CreateVersion_DedupesByContentHash(t *testing.T) {
	svc, vrepo := newTestService()
	content := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}, Summary: "Engineer"}
	hash := ContentHashOrNil(content)
	existing := domain.CVVersion{ID: "v1", CVID: "cv1", VersionNumber: 2, ContentHash: hash}

	vrepo.On("FindByContentHash", mockCtx, "cv1", *hash).Return(existing, nil)

	got, err := svc.CreateVersion(context.Background(), NewVersionParams{CVID: "cv1", Content: content})
	require.NoError(t, err)
	require.Equal(t, existing, got)
	vrepo.AssertNotCalled(t, "Create", mockCtx, mockAnyVersion)
	vrepo.AssertExpectations(t)
}

func TestService_CreateVersion_ActivatesDedupMatchWhenRequested(t *testing.T) {
	svc, vrepo := newTestService()
	content := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}}
	hash := ContentHashOrNil(content)
	existing := domain.CVVersion{ID: "v1", CVID: "cv1", ContentHash: hash, IsActive: false}
	activated := existing
	activated.IsActive = true

	vrepo.On("FindByContentHash", mockCtx, "cv1", *hash).Return(existing, nil)
	vrepo.On("CreateAndActivate", mockCtx, existing).Return(activated, nil)

	got, err := svc.CreateVersion(context.Background(), NewVersionParams{CVID: "cv1", Content: content, Activate: true})
	require.NoError(t, err)
	require.True(t, got.IsActive)
	vrepo.AssertExpectations(t)
}

func TestService_CreateVersion_CreatesFreshSnapshot(t *testing.T) {
	svc, vrepo := newTestService()
	content := domain.Content{
		Personal:   domain.Personal{Name: "Jane Doe"},
		Summary:    "Senior engineer building things",
		Experience: []domain.Experience{{Company: "Acme", Description: "Shipped stuff daily"}},
	}
	hash := ContentHashOrNil(content)

	vrepo.On("FindByContentHash", mockCtx, "cv1", *hash).Return(domain.CVVersion{}, errors.New("not found"))
	vrepo.On("NextVersionNumber", mockCtx, "cv1").Return(3, nil)
	vrepo.On("Create", mockCtx, mockAnyVersion).Return("v3", nil)

	got, err := svc.CreateVersion(context.Background(), NewVersionParams{
		CVID:       "cv1",
		Content:    content,
		ChangeType: domain.ChangeOptimization,
		Confidence: 0.9,
	})
	require.NoError(t, err)
	require.Equal(t, 3, got.VersionNumber)
	require.Equal(t, domain.ChangeOptimization, got.ChangeType)
	require.Equal(t, 0.9, got.Metadata.AIConfidence)
	require.Greater(t, got.Metadata.WordCount, 0)
	require.Greater(t, got.Metadata.SectionCount, 0)
	require.NotNil(t, got.ContentHash)
	vrepo.AssertExpectations(t)
}

func TestService_CreateVersion_ActivatesFreshSnapshotWhenRequested(t *testing.T) {
	svc, vrepo := newTestService()
	content := domain.Content{Personal: domain.Personal{Name: "Jane Doe"}}
	hash := ContentHashOrNil(content)

	vrepo.On("FindByContentHash", mockCtx, "cv1", *hash).Return(domain.CVVersion{}, errors.New("not found"))
	vrepo.On("NextVersionNumber", mockCtx, "cv1").Return(1, nil)
	vrepo.On("CreateAndActivate", mockCtx, mockAnyVersion).Return(domain.CVVersion{ID: "v1", IsActive: true}, nil)

	got, err := svc.CreateVersion(context.Background(), NewVersionParams{CVID: "cv1", Content: content, Activate: true})
	require.NoError(t, err)
	require.True(t, got.IsActive)
	vrepo.AssertExpectations(t)
}

func TestService_Activate(t *testing.T) {
	svc, vrepo := newTestService()
	stored := domain.CVVersion{ID: "v1", CVID: "cv1"}
	activated := stored
	activated.IsActive = true

	vrepo.On("FindByID", mockCtx, "v1").Return(stored, nil)
	vrepo.On("CreateAndActivate", mockCtx, stored).Return(activated, nil)

	got, err := svc.Activate(context.Background(), "v1")
	require.NoError(t, err)
	require.True(t, got.IsActive)
	vrepo.AssertExpectations(t)
}

func TestService_Activate_NotFoundPropagatesError(t *testing.T) {
	svc, vrepo := newTestService()
	vrepo.On("FindByID", mockCtx, "missing").Return(domain.CVVersion{}, errors.New("not found"))

	_, err := svc.Activate(context.Background(), "missing")
	require.Error(t, err)
	vrepo.AssertNotCalled(t, "CreateAndActivate", mockCtx, mockAnyVersion)
}

func TestWordCount_CountsSummaryAndExperienceDescriptions(t *testing.T) {
	c := domain.Content{
		Summary:    "one two three",
		Experience: []domain.Experience{{Description: "four five"}},
	}
	require.Equal(t, 5, wordCount(c))
}

func TestSectionCount_CountsNonEmptySections(t *testing.T) {
	c := domain.Content{
		Personal: domain.Personal{Name: "Jane"},
		Summary:  "hi",
		Skills:   []string{"Go"},
	}
	require.Equal(t, 3, sectionCount(c))
}
