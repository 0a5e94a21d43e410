package postgres

import (
	"fmt"

	"github.com/cvenhancer/core/internal/domain"
)

// ParsingRepo persists domain.CvParsingJob under the "parsing_jobs" collection.
type ParsingRepo struct {
	col *Collection[domain.CvParsingJob]
}

// NewParsingRepo constructs a ParsingRepo.
func NewParsingRepo(pool PgxPool) *ParsingRepo {
	return &ParsingRepo{col: NewCollection[domain.CvParsingJob](pool, "parsing_jobs")}
}

// Upsert implements domain.ParsingRepository.
func (r *ParsingRepo) Upsert(ctx domain.Context, p domain.CvParsingJob) error {
	if err := r.col.UpdateOne(ctx, p.JobID, p); err != nil {
		if domain.CodeOf(err) == domain.CodeNotFound {
			return r.col.Insert(ctx, p.JobID, p)
		}
		return fmt.Errorf("parsing_jobs: upsert: %w", err)
	}
	return nil
}

// FindByJobID implements domain.ParsingRepository.
func (r *ParsingRepo) FindByJobID(ctx domain.Context, jobID string) (domain.CvParsingJob, error) {
	return r.col.FindByID(ctx, jobID)
}
