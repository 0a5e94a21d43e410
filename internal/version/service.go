package version

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cvenhancer/core/internal/domain"
)

// Service implements §4.C7's version lifecycle: creating immutable
// snapshots, optionally activating them, and computing derived metadata.
type Service struct {
	versions domain.VersionRepository
	cvs      domain.CVRepository
}

// New constructs a Service.
func New(versions domain.VersionRepository, cvs domain.CVRepository) *Service {
	return &Service{versions: versions, cvs: cvs}
}

// NewVersionParams describes one snapshot request.
type NewVersionParams struct {
	CVID        string
	Content     domain.Content
	ChangeType  domain.ChangeType
	Name        string
	Description string
	Confidence  float64 // only meaningful for ChangeParsing/ChangeOptimization
	Activate    bool
}

// CreateVersion implements the newVersion operation: deduplicates against
// the CV's existing versions by content hash (so re-running an optimization
// that produced identical output doesn't pile up snapshots), then persists
// a new immutable CVVersion, optionally activating it.
func (s *Service) CreateVersion(ctx domain.Context, p NewVersionParams) (domain.CVVersion, error) {
	hash := ContentHashOrNil(p.Content)
	if hash != nil {
		if existing, err := s.versions.FindByContentHash(ctx, p.CVID, *hash); err == nil {
			if p.Activate && !existing.IsActive {
				return s.versions.CreateAndActivate(ctx, existing)
			}
			return existing, nil
		}
	}

	next, err := s.versions.NextVersionNumber(ctx, p.CVID)
	if err != nil {
		return domain.CVVersion{}, fmt.Errorf("version: next number: %w", err)
	}

	v := domain.CVVersion{
		ID:            uuid.NewString(),
		CVID:          p.CVID,
		VersionNumber: next,
		Name:          p.Name,
		Description:   p.Description,
		ChangeType:    p.ChangeType,
		Content:       p.Content,
		ContentHash:   hash,
		Metadata: domain.VersionMetadata{
			WordCount:    wordCount(p.Content),
			SectionCount: sectionCount(p.Content),
			AIConfidence: p.Confidence,
		},
		CreatedAt: time.Now(),
	}

	if p.Activate {
		return s.versions.CreateAndActivate(ctx, v)
	}
	if _, err := s.versions.Create(ctx, v); err != nil {
		return domain.CVVersion{}, fmt.Errorf("version: create: %w", err)
	}
	return v, nil
}

// Activate implements the standalone `activate` operation for an
// already-persisted version (e.g. a user reverting to a prior snapshot).
func (s *Service) Activate(ctx domain.Context, versionID string) (domain.CVVersion, error) {
	v, err := s.versions.FindByID(ctx, versionID)
	if err != nil {
		return domain.CVVersion{}, err
	}
	return s.versions.CreateAndActivate(ctx, v)
}

func wordCount(c domain.Content) int {
	n := len(splitWords(c.Summary))
	for _, e := range c.Experience {
		n += len(splitWords(e.Description))
	}
	return n
}

func sectionCount(c domain.Content) int {
	n := 0
	if c.Personal.Name != "" {
		n++
	}
	if c.Summary != "" {
		n++
	}
	if len(c.Experience) > 0 {
		n++
	}
	if len(c.Education) > 0 {
		n++
	}
	if len(c.Skills) > 0 {
		n++
	}
	if len(c.Projects) > 0 {
		n++
	}
	if len(c.Certifications) > 0 {
		n++
	}
	if len(c.Languages) > 0 {
		n++
	}
	return n
}

func splitWords(s string) []string {
	var words []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\n' || r == '\t' {
			if start >= 0 {
				words = append(words, s[start:i])
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		words = append(words, s[start:])
	}
	return words
}
